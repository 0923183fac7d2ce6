package plugin

import (
	"math"
	"sort"
	"strconv"
	"sync"
)

// NumericClass is the snapshot class identifier for NumericRange.
const NumericClass = "NumericRangeDS"

// NumericRange is the plugin for numeric predicates that need reverse
// lookups and range queries (counts, quantities, ages, prices, ratings).
//
// It maintains two structures under one lock:
//
//  1. subject -> value (primary, SPO)
//  2. value -> set(subjects), ordered (reverse, POS and RANGE)
//
// Invariant (bijection): a subject is in the primary map exactly when it is
// a member of exactly one bucket - the bucket of its primary value. Every
// mutation and every snapshot/restore cycle preserves this.
type NumericRange struct {
	mu     sync.RWMutex
	config Config

	minValue *float64
	maxValue *float64

	data    map[string]float64
	buckets map[float64]map[string]struct{}
	// values is the sorted bucket keyset, maintained incrementally so
	// range queries iterate in order without resorting.
	values []float64
}

var _ Plugin = (*NumericRange)(nil)

// NewNumericRange creates an empty numeric range plugin.
func NewNumericRange() *NumericRange {
	return &NumericRange{
		config:  Config{},
		data:    make(map[string]float64),
		buckets: make(map[float64]map[string]struct{}),
	}
}

// Configure validates and stores numeric bounds.
//
// Recognized settings: "min_value" and "max_value" (inclusive bounds,
// either may be absent). Both present with min >= max is a ConfigError.
func (n *NumericRange) Configure(cfg Config) error {
	if cfg == nil {
		cfg = Config{}
	}
	minV, hasMin, err := floatSetting(cfg, "min_value")
	if err != nil {
		return err
	}
	maxV, hasMax, err := floatSetting(cfg, "max_value")
	if err != nil {
		return err
	}
	if hasMin && hasMax && minV >= maxV {
		return &ConfigError{Msg: strconv.FormatFloat(minV, 'g', -1, 64) +
			" (min_value) must be < " + strconv.FormatFloat(maxV, 'g', -1, 64) + " (max_value)"}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.config = cfg
	n.minValue, n.maxValue = nil, nil
	if hasMin {
		n.minValue = &minV
	}
	if hasMax {
		n.maxValue = &maxV
	}
	return nil
}

// Capabilities declares SPO, OSP, POS, and RANGE.
func (n *NumericRange) Capabilities() []Capability {
	return []Capability{CapSPO, CapOSP, CapPOS, CapRange}
}

// Get returns the numeric value stored for subject.
func (n *NumericRange) Get(subject string) (any, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	v, ok := n.data[subject]
	if !ok {
		return nil, false
	}
	return v, true
}

// Set stores a subject -> numeric value pair.
//
// Non-numeric values, NaN included, fail with a TypeError; values outside
// configured bounds fail with a BoundsError. The subject is removed from its prior
// bucket (pruning it if emptied) before entering the new one, keeping the
// bijection invariant.
func (n *NumericRange) Set(subject string, value any) error {
	v, ok := toFloat(value)
	if !ok {
		return &TypeError{Plugin: NumericClass, Value: value}
	}
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.minValue != nil && v < *n.minValue {
		return &BoundsError{Value: v, Min: n.minValue, Max: n.maxValue}
	}
	if n.maxValue != nil && v > *n.maxValue {
		return &BoundsError{Value: v, Min: n.minValue, Max: n.maxValue}
	}

	if old, exists := n.data[subject]; exists {
		if old == v {
			return nil // idempotent
		}
		n.removeFromBucketLocked(old, subject)
	}
	n.data[subject] = v
	n.addToBucketLocked(v, subject)
	return nil
}

// Delete removes a subject from both structures.
func (n *NumericRange) Delete(subject string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	old, exists := n.data[subject]
	if !exists {
		return false
	}
	delete(n.data, subject)
	n.removeFromBucketLocked(old, subject)
	return true
}

// Contains is an O(1) primary-map check.
func (n *NumericRange) Contains(subject string, value any) bool {
	v, ok := toFloat(value)
	if !ok {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	current, exists := n.data[subject]
	return exists && current == v
}

// FindSubjects returns the exact-match bucket for value, O(1) expected.
func (n *NumericRange) FindSubjects(value any) ([]string, error) {
	v, ok := toFloat(value)
	if !ok {
		return nil, &TypeError{Plugin: NumericClass, Value: value}
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	bucket := n.buckets[v]
	out := make([]string, 0, len(bucket))
	for subject := range bucket {
		out = append(out, subject)
	}
	return out, nil
}

// FindSubjectsInRange returns the union of all bucket members whose value
// falls in the inclusive range [lo, hi], iterating buckets in value order.
// No ordering is promised on the result. lo > hi is a RangeOrderError.
func (n *NumericRange) FindSubjectsInRange(lo, hi float64) ([]string, error) {
	if lo > hi {
		return nil, &RangeOrderError{Lo: lo, Hi: hi}
	}
	n.mu.RLock()
	defer n.mu.RUnlock()

	out := []string{}
	for i := sort.SearchFloat64s(n.values, lo); i < len(n.values) && n.values[i] <= hi; i++ {
		for subject := range n.buckets[n.values[i]] {
			out = append(out, subject)
		}
	}
	return out, nil
}

// HealthCheck reports subject count, unique value count, and average
// subjects per value.
func (n *NumericRange) HealthCheck() Health {
	n.mu.RLock()
	defer n.mu.RUnlock()

	avg := 0.0
	if len(n.buckets) > 0 {
		avg = float64(len(n.data)) / float64(len(n.buckets))
	}
	return Health{
		Status: "ok",
		Plugin: NumericClass,
		Config: n.config,
		Metrics: map[string]float64{
			"subject_count":          float64(len(n.data)),
			"unique_values":          float64(len(n.buckets)),
			"avg_subjects_per_value": avg,
		},
	}
}

// Snapshot serializes the primary map and the secondary index. Numeric
// bucket keys are stringified and buckets become lists; intra-bucket order
// carries no meaning.
func (n *NumericRange) Snapshot() (Snapshot, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	subjects := make(map[string]any, len(n.data))
	for subject, v := range n.data {
		subjects[subject] = v
	}
	rangeIndex := make(map[string]any, len(n.buckets))
	for v, bucket := range n.buckets {
		members := make([]any, 0, len(bucket))
		for subject := range bucket {
			members = append(members, subject)
		}
		rangeIndex[strconv.FormatFloat(v, 'g', -1, 64)] = members
	}
	return Snapshot{
		PluginClass: NumericClass,
		Config:      n.config,
		Data: map[string]any{
			"subjects":    subjects,
			"range_index": rangeIndex,
		},
	}, nil
}

// RestoreSnapshot reconstructs both structures from a snapshot envelope.
//
// The primary map is authoritative: the secondary index is rebuilt from it,
// which collapses duplicate bucket entries and drops members the primary
// map does not corroborate - restore always re-establishes the bijection
// invariant, even from a hand-edited snapshot.
func (n *NumericRange) RestoreSnapshot(snap Snapshot) error {
	if snap.PluginClass != NumericClass {
		return &SnapshotMismatchError{Want: NumericClass, Got: snap.PluginClass}
	}

	subjects := map[string]float64{}
	if raw, ok := snap.Data["subjects"]; ok {
		switch typed := raw.(type) {
		case map[string]float64:
			for subject, v := range typed {
				if math.IsNaN(v) {
					return &TypeError{Plugin: NumericClass, Value: v}
				}
				subjects[subject] = v
			}
		case map[string]any:
			for subject, rawV := range typed {
				v, ok := toFloat(rawV)
				if !ok {
					return &TypeError{Plugin: NumericClass, Value: rawV}
				}
				subjects[subject] = v
			}
		default:
			return &ConfigError{Msg: "snapshot subjects must be a mapping"}
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	n.config = snap.Config
	if n.config == nil {
		n.config = Config{}
	}
	n.data = subjects
	n.buckets = make(map[float64]map[string]struct{})
	n.values = n.values[:0]
	for subject, v := range subjects {
		n.addToBucketLocked(v, subject)
	}
	return nil
}

func (n *NumericRange) addToBucketLocked(v float64, subject string) {
	bucket, ok := n.buckets[v]
	if !ok {
		bucket = make(map[string]struct{})
		n.buckets[v] = bucket
		i := sort.SearchFloat64s(n.values, v)
		n.values = append(n.values, 0)
		copy(n.values[i+1:], n.values[i:])
		n.values[i] = v
	}
	bucket[subject] = struct{}{}
}

func (n *NumericRange) removeFromBucketLocked(v float64, subject string) {
	bucket, ok := n.buckets[v]
	if !ok {
		return
	}
	delete(bucket, subject)
	if len(bucket) == 0 {
		delete(n.buckets, v)
		i := sort.SearchFloat64s(n.values, v)
		if i < len(n.values) && n.values[i] == v {
			n.values = append(n.values[:i], n.values[i+1:]...)
		}
	}
}

// toFloat coerces the numeric types a caller might reasonably hand a
// plugin, including what encoding/json produces. Strings and bools are
// deliberately not numbers, and neither is NaN: a NaN never equals itself,
// so as a map key it would strand a subject in a bucket no lookup or delete
// can ever reach again.
func toFloat(value any) (float64, bool) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int8:
		f = float64(v)
	case int16:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint8:
		f = float64(v)
	case uint16:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// floatSetting reads an optional numeric setting from a config map.
func floatSetting(cfg Config, key string) (float64, bool, error) {
	raw, ok := cfg[key]
	if !ok || raw == nil {
		return 0, false, nil
	}
	v, ok := toFloat(raw)
	if !ok {
		return 0, false, &ConfigError{Msg: key + " must be numeric"}
	}
	return v, true, nil
}
