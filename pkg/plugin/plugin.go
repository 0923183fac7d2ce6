// Package plugin provides per-predicate pluggable storage and query
// backends with declared capabilities.
//
// A plugin instance is bound to exactly one predicate and owns a
// subject -> value map; specialized plugins add secondary indices for
// reverse and range lookups. Plugins augment the indexing client's primary
// compound-key path - they are a parallel extension point consulted by
// predicate-aware callers, not part of the client's write fan-out.
//
// Lifecycle: instances are created once per predicate at process start and
// live for the process lifetime. State mutates only through Set/Delete and
// is checkpointed externally through Snapshot/RestoreSnapshot.
//
// Concurrency: each instance owns one exclusive lock held for the full
// read-modify-write of every mutating operation. Reads are not serialized
// against that sequence beyond Go map safety, so a reader may observe a
// value mid-write-sequence; strict read consistency is a documented
// non-guarantee. Different predicates' plugins are fully independent.
package plugin

import (
	"encoding/json"
)

// Capability identifies a query pattern a plugin supports.
type Capability string

const (
	// CapSPO is subject-predicate-object lookup, the primary pattern every
	// plugin must serve via Get/Set.
	CapSPO Capability = "spo"
	// CapOSP is object membership testing (Contains).
	CapOSP Capability = "osp"
	// CapPOS is reverse lookup: all subjects holding a value (FindSubjects).
	CapPOS Capability = "pos"
	// CapRange is numeric/temporal range queries.
	CapRange Capability = "range"
	// CapSpatial is geo/proximity queries.
	CapSpatial Capability = "spatial"
	// CapFulltext is full-text search.
	CapFulltext Capability = "fulltext"
)

// Config is predicate-specific plugin configuration, validated in Configure.
type Config map[string]any

// Health is the result of a plugin health check.
type Health struct {
	Status  string             `json:"status"` // ok, degraded, error
	Plugin  string             `json:"plugin"`
	Config  Config             `json:"config"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Snapshot is the persisted envelope of plugin state.
//
// PluginClass guards restores: RestoreSnapshot rejects an envelope whose
// class does not match the live plugin, preventing cross-type state
// corruption. Data is plugin-specific and must round-trip through JSON.
type Snapshot struct {
	PluginClass string         `json:"plugin_class"`
	Config      Config         `json:"config"`
	Data        map[string]any `json:"data"`
}

// Encode serializes the snapshot for persistence.
func (s Snapshot) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// DecodeSnapshot parses a persisted snapshot envelope.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return Snapshot{}, err
	}
	return s, nil
}

// Plugin is the contract every predicate data structure implements.
//
// Get and Set are mandatory. The remaining operations have sensible
// fallbacks, but a caller must consult Capabilities before invoking an
// optional operation: FindSubjects on a plugin that does not declare CapPOS
// fails with an UnsupportedOperationError.
type Plugin interface {
	// Configure applies predicate-specific settings. Called once during
	// initialization; validation errors abort plugin setup.
	Configure(cfg Config) error

	// Capabilities enumerates the query patterns this plugin supports.
	Capabilities() []Capability

	// Get returns the value stored for subject, and whether one exists.
	Get(subject string) (any, bool)

	// Set stores a subject -> value pair. Idempotent: setting an identical
	// value twice has no additional observable effect.
	Set(subject string, value any) error

	// Delete removes a subject. Reports whether the subject existed.
	Delete(subject string) bool

	// Contains reports whether subject currently holds value.
	Contains(subject string, value any) bool

	// FindSubjects returns every subject holding value (reverse lookup).
	// Only plugins declaring CapPOS implement this.
	FindSubjects(value any) ([]string, error)

	// HealthCheck reports plugin status and metrics.
	HealthCheck() Health

	// Snapshot captures a serializable copy of plugin state.
	Snapshot() (Snapshot, error)

	// RestoreSnapshot replaces plugin state from a snapshot envelope.
	RestoreSnapshot(snap Snapshot) error
}

// HasCapability reports whether a plugin declares the given capability.
func HasCapability(p Plugin, c Capability) bool {
	for _, have := range p.Capabilities() {
		if have == c {
			return true
		}
	}
	return false
}
