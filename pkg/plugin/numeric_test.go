package plugin

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ages builds the canonical fixture: alice=5, bob=5, charlie=10.
func ages(t *testing.T) *NumericRange {
	t.Helper()
	n := NewNumericRange()
	require.NoError(t, n.Set("alice", 5))
	require.NoError(t, n.Set("bob", 5))
	require.NoError(t, n.Set("charlie", 10))
	return n
}

func TestNumericRange_Capabilities(t *testing.T) {
	n := NewNumericRange()
	for _, c := range []Capability{CapSPO, CapOSP, CapPOS, CapRange} {
		assert.True(t, HasCapability(n, c), string(c))
	}
	assert.False(t, HasCapability(n, CapFulltext))
}

func TestNumericRange_GetSet(t *testing.T) {
	n := NewNumericRange()

	require.NoError(t, n.Set("alice", 5))
	v, ok := n.Get("alice")
	require.True(t, ok)
	assert.Equal(t, 5.0, v, "integers are stored as float64")

	_, ok = n.Get("bob")
	assert.False(t, ok)
}

func TestNumericRange_SetRejectsNonNumeric(t *testing.T) {
	n := NewNumericRange()
	for _, bad := range []any{"5", true, nil, []int{5}} {
		err := n.Set("alice", bad)
		var typeErr *TypeError
		require.ErrorAs(t, err, &typeErr)
	}
	_, ok := n.Get("alice")
	assert.False(t, ok, "failed sets must not leave state behind")
}

func TestNumericRange_RejectsNaN(t *testing.T) {
	// A NaN bucket key would be unreachable forever: NaN never equals
	// itself, so lookups and deletes could not find the bucket again and
	// repeated sets would grow a fresh ghost bucket each time.
	n := NewNumericRange()

	var typeErr *TypeError
	for i := 0; i < 5; i++ {
		require.ErrorAs(t, n.Set("alice", math.NaN()), &typeErr)
	}
	_, ok := n.Get("alice")
	assert.False(t, ok)
	assert.Equal(t, 0.0, n.HealthCheck().Metrics["unique_values"])

	_, err := n.FindSubjects(math.NaN())
	require.ErrorAs(t, err, &typeErr)
	assert.False(t, n.Contains("alice", math.NaN()))

	t.Run("float32 NaN", func(t *testing.T) {
		require.ErrorAs(t, n.Set("alice", float32(math.NaN())), &typeErr)
	})

	t.Run("restore rejects NaN subject values", func(t *testing.T) {
		for _, data := range []map[string]any{
			{"subjects": map[string]any{"alice": math.NaN()}},
			{"subjects": map[string]float64{"alice": math.NaN()}},
		} {
			fresh := NewNumericRange()
			require.ErrorAs(t, fresh.RestoreSnapshot(Snapshot{
				PluginClass: NumericClass,
				Data:        data,
			}), &typeErr)
		}
	})
}

func TestNumericRange_FindSubjects(t *testing.T) {
	n := ages(t)

	got, err := n.FindSubjects(5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, got)

	got, err = n.FindSubjects(10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"charlie"}, got)

	got, err = n.FindSubjects(99)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = n.FindSubjects("five")
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestNumericRange_FindSubjectsInRange(t *testing.T) {
	n := ages(t)

	got, err := n.FindSubjectsInRange(5, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob", "charlie"}, got)

	got, err = n.FindSubjectsInRange(6, 10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"charlie"}, got)

	got, err = n.FindSubjectsInRange(0, 4)
	require.NoError(t, err)
	assert.Empty(t, got)

	t.Run("bounds are inclusive", func(t *testing.T) {
		got, err := n.FindSubjectsInRange(5, 5)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, got)
	})

	t.Run("inverted range", func(t *testing.T) {
		_, err := n.FindSubjectsInRange(10, 5)
		var orderErr *RangeOrderError
		require.ErrorAs(t, err, &orderErr)
	})
}

func TestNumericRange_DeleteMaintainsIndex(t *testing.T) {
	n := ages(t)

	assert.True(t, n.Delete("alice"))
	got, err := n.FindSubjects(5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob"}, got)

	assert.True(t, n.Delete("bob"))
	got, err = n.FindSubjects(5)
	require.NoError(t, err)
	assert.Empty(t, got, "emptied bucket is pruned")

	got, err = n.FindSubjectsInRange(0, 100)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"charlie"}, got)

	assert.False(t, n.Delete("alice"))
}

func TestNumericRange_UpdateMovesBucket(t *testing.T) {
	n := ages(t)

	require.NoError(t, n.Set("alice", 10))

	got, err := n.FindSubjects(5)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"bob"}, got)

	got, err = n.FindSubjects(10)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "charlie"}, got)
}

func TestNumericRange_IdempotentSet(t *testing.T) {
	n := NewNumericRange()
	require.NoError(t, n.Set("alice", 5))
	require.NoError(t, n.Set("alice", 5))
	require.NoError(t, n.Set("alice", 5.0))

	got, err := n.FindSubjects(5)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, got)
	assert.Equal(t, 1.0, n.HealthCheck().Metrics["unique_values"])
}

func TestNumericRange_Contains(t *testing.T) {
	n := ages(t)
	assert.True(t, n.Contains("alice", 5))
	assert.True(t, n.Contains("alice", 5.0))
	assert.False(t, n.Contains("alice", 10))
	assert.False(t, n.Contains("dave", 5))
	assert.False(t, n.Contains("alice", "5"))
}

func TestNumericRange_ConfiguredBounds(t *testing.T) {
	n := NewNumericRange()
	require.NoError(t, n.Configure(Config{"min_value": 0, "max_value": 150}))

	require.NoError(t, n.Set("alice", 0))
	require.NoError(t, n.Set("bob", 150))

	for _, out := range []float64{-1, 150.5} {
		err := n.Set("carol", out)
		var bounds *BoundsError
		require.ErrorAs(t, err, &bounds)
		assert.Equal(t, out, bounds.Value)
	}

	t.Run("invalid configuration", func(t *testing.T) {
		var cfgErr *ConfigError
		require.ErrorAs(t, NewNumericRange().Configure(Config{"min_value": 10, "max_value": 10}), &cfgErr)
		require.ErrorAs(t, NewNumericRange().Configure(Config{"min_value": "low"}), &cfgErr)
	})

	t.Run("one-sided bounds", func(t *testing.T) {
		low := NewNumericRange()
		require.NoError(t, low.Configure(Config{"min_value": 0}))
		require.NoError(t, low.Set("alice", 1e12))
		var bounds *BoundsError
		require.ErrorAs(t, low.Set("bob", -1), &bounds)
	})
}

func TestNumericRange_HealthCheck(t *testing.T) {
	n := ages(t)

	health := n.HealthCheck()
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, NumericClass, health.Plugin)
	assert.Equal(t, 3.0, health.Metrics["subject_count"])
	assert.Equal(t, 2.0, health.Metrics["unique_values"])
	assert.Equal(t, 1.5, health.Metrics["avg_subjects_per_value"])

	empty := NewNumericRange().HealthCheck()
	assert.Equal(t, 0.0, empty.Metrics["avg_subjects_per_value"])
}

func TestNumericRange_SnapshotRestore(t *testing.T) {
	n := ages(t)
	require.NoError(t, n.Configure(Config{"min_value": 0}))

	snap, err := n.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, NumericClass, snap.PluginClass)

	t.Run("restore into fresh instance", func(t *testing.T) {
		fresh := NewNumericRange()
		require.NoError(t, fresh.RestoreSnapshot(snap))

		got, err := fresh.FindSubjects(5)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, got)

		got, err = fresh.FindSubjectsInRange(5, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob", "charlie"}, got)
	})

	t.Run("json round trip", func(t *testing.T) {
		raw, err := snap.Encode()
		require.NoError(t, err)
		decoded, err := DecodeSnapshot(raw)
		require.NoError(t, err)

		fresh := NewNumericRange()
		require.NoError(t, fresh.RestoreSnapshot(decoded))

		v, ok := fresh.Get("charlie")
		require.True(t, ok)
		assert.Equal(t, 10.0, v)
		got, err := fresh.FindSubjects(5)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, got)
	})

	t.Run("class mismatch rejected", func(t *testing.T) {
		fresh := NewNumericRange()
		var mismatch *SnapshotMismatchError
		require.ErrorAs(t, fresh.RestoreSnapshot(Snapshot{PluginClass: DefaultClass}), &mismatch)
	})

	t.Run("restore rebuilds index from primary map", func(t *testing.T) {
		// A corrupted secondary index is ignored: subjects is authoritative.
		fresh := NewNumericRange()
		require.NoError(t, fresh.RestoreSnapshot(Snapshot{
			PluginClass: NumericClass,
			Data: map[string]any{
				"subjects": map[string]any{"alice": 5.0, "bob": 7.0},
				"range_index": map[string]any{
					"999": []any{"ghost"},
				},
			},
		}))

		got, err := fresh.FindSubjects(999)
		require.NoError(t, err)
		assert.Empty(t, got)

		got, err = fresh.FindSubjectsInRange(0, 10)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"alice", "bob"}, got)
	})

	t.Run("non-numeric subject value rejected", func(t *testing.T) {
		fresh := NewNumericRange()
		var typeErr *TypeError
		require.ErrorAs(t, fresh.RestoreSnapshot(Snapshot{
			PluginClass: NumericClass,
			Data:        map[string]any{"subjects": map[string]any{"alice": "old"}},
		}), &typeErr)
	})
}
