package plugin

import (
	"fmt"
)

// UnsupportedOperationError indicates an optional operation invoked on a
// plugin that does not declare the corresponding capability.
type UnsupportedOperationError struct {
	Plugin string
	Op     string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("%s does not support %s", e.Plugin, e.Op)
}

// TypeError indicates a value of the wrong type handed to a typed plugin.
type TypeError struct {
	Plugin string
	Value  any
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s requires numeric value, got %T", e.Plugin, e.Value)
}

// BoundsError indicates a numeric value outside a plugin's configured
// inclusive [Min, Max] range.
type BoundsError struct {
	Value float64
	Min   *float64
	Max   *float64
}

func (e *BoundsError) Error() string {
	if e.Min != nil && e.Value < *e.Min {
		return fmt.Sprintf("value %v below minimum %v", e.Value, *e.Min)
	}
	if e.Max != nil && e.Value > *e.Max {
		return fmt.Sprintf("value %v above maximum %v", e.Value, *e.Max)
	}
	return fmt.Sprintf("value %v out of bounds", e.Value)
}

// RangeOrderError indicates a range query with lo > hi.
type RangeOrderError struct {
	Lo, Hi float64
}

func (e *RangeOrderError) Error() string {
	return fmt.Sprintf("range lower bound %v must be <= upper bound %v", e.Lo, e.Hi)
}

// SnapshotMismatchError indicates a snapshot envelope restored into a plugin
// of a different class.
type SnapshotMismatchError struct {
	Want string
	Got  string
}

func (e *SnapshotMismatchError) Error() string {
	return fmt.Sprintf("snapshot is for %s, not %s", e.Got, e.Want)
}

// ConfigError indicates invalid plugin configuration.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "invalid plugin config: " + e.Msg
}
