package triple

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/muninn/pkg/entity"
)

func TestRecord_JSONRoundTrip(t *testing.T) {
	rec := NewRecord(
		entity.FromLanes(1, 2, 3, 4),
		entity.FromLanes(5, 6, 7, 8),
		entity.FromLanes(9, 10, 11, 12),
		map[string]any{"factoid_id": "X001"})

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, rec.Subject, back.Subject)
	assert.Equal(t, rec.Predicate, back.Predicate)
	assert.Equal(t, rec.Object, back.Object)
	assert.Equal(t, rec.SchemaVersion, back.SchemaVersion)
	assert.Equal(t, rec.CreatedAt, back.CreatedAt)
	assert.Equal(t, "X001", back.Provenance["factoid_id"])
}

func TestRecord_EncodeEmitsAllLanes(t *testing.T) {
	// zero mid lanes still appear on the wire
	rec := NewRecord(
		entity.FromLanes(1, 0, 0, 2),
		entity.FromLanes(3, 0, 0, 4),
		entity.FromLanes(5, 0, 0, 6),
		nil)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))
	for _, field := range []string{"subject", "predicate", "object"} {
		lanes, ok := wire[field].(map[string]any)
		require.True(t, ok, field)
		for _, lane := range []string{"high", "high_mid", "low_mid", "low"} {
			assert.Contains(t, lanes, lane, field)
		}
	}
}

func TestRecord_DecodeLegacyLanes(t *testing.T) {
	// legacy 128-bit identifiers carried only high and low
	raw := `{
		"subject":   {"high": 1, "low": 2},
		"predicate": {"high": 3, "low": 4},
		"object":    {"high": 5, "low": 6},
		"provenance": {},
		"schema_version": "v1",
		"created_at": 1700000000
	}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, entity.FromLanes(1, 0, 0, 2), rec.Subject)
	assert.Equal(t, entity.FromLanes(3, 0, 0, 4), rec.Predicate)
	assert.Equal(t, entity.FromLanes(5, 0, 0, 6), rec.Object)
}

func TestRecord_DecodeDefaults(t *testing.T) {
	raw := `{"subject":{"high":0,"low":1},"predicate":{"high":0,"low":2},"object":{"high":0,"low":3}}`

	var rec Record
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, SchemaVersion, rec.SchemaVersion)
	assert.NotNil(t, rec.Provenance)
}

func TestNewRecord_Defaults(t *testing.T) {
	rec := NewRecord(entity.New(), entity.New(), entity.New(), nil)
	assert.NotNil(t, rec.Provenance)
	assert.Equal(t, "v1", rec.SchemaVersion)
	assert.NotZero(t, rec.CreatedAt)
}
