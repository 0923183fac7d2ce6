// Package store defines the backing-store contract the indexing client
// writes through, and provides an in-memory engine and a BadgerDB engine.
//
// The backing store is deliberately opaque: a remote or embedded key-value
// surface reachable only through Insert, BatchInsert, and Lookup. Muninn
// makes no assumption about its internal durability or consistency beyond
// one: a BatchInsert call is all-or-nothing on the store side.
//
// Lookup results are heterogeneous by contract - a store may hand back raw
// lane tuples, lane mappings, or already-typed identifiers. The Value tagged
// union carries all three shapes; Entity() is the single conversion point.
package store

import (
	"errors"
	"fmt"

	"github.com/orneryd/muninn/pkg/entity"
)

// Common errors.
var (
	ErrClosed = errors.New("store closed")
)

// Error wraps an opaque backing-store failure with the operation that
// produced it.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("backing store %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KV is one key/value item in a batch submission. Keys and values are both
// entity identifiers - the store never interprets them.
type KV struct {
	Key   entity.E
	Value entity.E
}

// BackingStore is the contract every storage engine implements.
//
// Implementations must be safe for concurrent use. Partial failure is
// expected and surfaced as errors; the indexing client owns retry and
// accounting policy.
type BackingStore interface {
	// Insert stores one key/value pair. Inserting the same pair twice is
	// a no-op for well-behaved stores.
	Insert(key, value entity.E) error

	// BatchInsert stores many pairs in one call. The call must be
	// all-or-nothing: either every item is applied or none is.
	BatchInsert(items []KV) error

	// Lookup returns every value recorded under key, in store-specific
	// shapes. A missing key yields an empty slice, not an error.
	Lookup(key entity.E) ([]Value, error)
}

// ValueKind discriminates the shapes a store may return from Lookup.
type ValueKind uint8

const (
	// KindLaneTuple is a raw [high, high_mid, low_mid, low] tuple.
	KindLaneTuple ValueKind = iota + 1
	// KindLaneMapping is a field-name to lane mapping.
	KindLaneMapping
	// KindEntity is an already-typed identifier.
	KindEntity
)

// Value is the tagged union of Lookup result shapes.
//
// Construct with TupleValue, MappingValue, or EntityValue; convert with
// Entity. Normalization lives here, in one place, instead of per call site.
type Value struct {
	kind    ValueKind
	lanes   [4]uint64
	mapping map[string]uint64
	entity  entity.E
}

// TupleValue wraps a raw 4-lane tuple.
func TupleValue(lanes [4]uint64) Value {
	return Value{kind: KindLaneTuple, lanes: lanes}
}

// MappingValue wraps a lane mapping. Recognized fields are "high",
// "high_mid", "low_mid", and "low"; missing mid lanes default to 0 the same
// way the wire decoder treats legacy 128-bit identifiers.
func MappingValue(m map[string]uint64) Value {
	return Value{kind: KindLaneMapping, mapping: m}
}

// EntityValue wraps an already-typed identifier.
func EntityValue(e entity.E) Value {
	return Value{kind: KindEntity, entity: e}
}

// Kind returns the shape tag, or 0 for an uninitialized Value.
func (v Value) Kind() ValueKind { return v.kind }

// Entity converts any recognized shape into an identifier.
func (v Value) Entity() (entity.E, error) {
	switch v.kind {
	case KindLaneTuple:
		return entity.FromLanes(v.lanes[0], v.lanes[1], v.lanes[2], v.lanes[3]), nil
	case KindLaneMapping:
		if v.mapping == nil {
			return entity.E{}, fmt.Errorf("store: nil lane mapping: %w", entity.ErrInvalidEncoding)
		}
		high, okHigh := v.mapping["high"]
		low, okLow := v.mapping["low"]
		if !okHigh || !okLow {
			return entity.E{}, fmt.Errorf("store: lane mapping missing high/low: %w", entity.ErrInvalidEncoding)
		}
		return entity.FromLanes(high, v.mapping["high_mid"], v.mapping["low_mid"], low), nil
	case KindEntity:
		return v.entity, nil
	default:
		return entity.E{}, fmt.Errorf("store: unrecognized value shape: %w", entity.ErrInvalidEncoding)
	}
}
