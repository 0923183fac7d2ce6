package entity

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultDebugNameCapacity bounds the reverse-lookup cache when no explicit
// capacity is given.
const DefaultDebugNameCapacity = 4096

// DebugNames is an optional, size-bounded reverse lookup from string-derived
// identifiers back to their source strings.
//
// It is a development aid only: entries are evicted LRU, nothing is durable,
// and no correctness property may depend on a Lookup hit. Callers that want
// readable diagnostics inject one and record names as they mint identifiers:
//
//	names := entity.NewDebugNames(0)
//	id := names.FromString("hasApple")
//	...
//	if label, ok := names.Lookup(id); ok { ... }
type DebugNames struct {
	cache *lru.Cache[E, string]
}

// NewDebugNames creates a bounded reverse-lookup cache. A non-positive
// capacity selects DefaultDebugNameCapacity.
func NewDebugNames(capacity int) *DebugNames {
	if capacity <= 0 {
		capacity = DefaultDebugNameCapacity
	}
	cache, _ := lru.New[E, string](capacity)
	return &DebugNames{cache: cache}
}

// FromString derives an identifier exactly like the package-level FromString
// and additionally records the source string for later Lookup.
func (d *DebugNames) FromString(s string) E {
	e := FromString(s)
	d.Record(e, s)
	return e
}

// Record remembers the source string for an identifier. Existing entries are
// left untouched so the first recorded name wins, matching deterministic
// derivation (one string, one E).
func (d *DebugNames) Record(e E, source string) {
	if _, ok := d.cache.Get(e); ok {
		return
	}
	d.cache.Add(e, source)
}

// Lookup returns the recorded source string for an identifier, if it is
// still cached.
func (d *DebugNames) Lookup(e E) (string, bool) {
	return d.cache.Get(e)
}

// Len returns the number of cached names.
func (d *DebugNames) Len() int {
	return d.cache.Len()
}
