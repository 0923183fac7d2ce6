package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/muninn/pkg/entity"
)

func TestValue_Entity(t *testing.T) {
	want := entity.FromLanes(1, 2, 3, 4)

	t.Run("lane tuple", func(t *testing.T) {
		e, err := TupleValue([4]uint64{1, 2, 3, 4}).Entity()
		require.NoError(t, err)
		assert.Equal(t, want, e)
	})

	t.Run("lane mapping", func(t *testing.T) {
		e, err := MappingValue(map[string]uint64{
			"high": 1, "high_mid": 2, "low_mid": 3, "low": 4,
		}).Entity()
		require.NoError(t, err)
		assert.Equal(t, want, e)
	})

	t.Run("lane mapping with legacy fields", func(t *testing.T) {
		e, err := MappingValue(map[string]uint64{"high": 1, "low": 4}).Entity()
		require.NoError(t, err)
		assert.Equal(t, entity.FromLanes(1, 0, 0, 4), e)
	})

	t.Run("opaque entity", func(t *testing.T) {
		e, err := EntityValue(want).Entity()
		require.NoError(t, err)
		assert.Equal(t, want, e)
	})

	t.Run("mapping missing high/low fails", func(t *testing.T) {
		_, err := MappingValue(map[string]uint64{"high_mid": 2}).Entity()
		require.Error(t, err)
	})

	t.Run("zero value fails", func(t *testing.T) {
		_, err := Value{}.Entity()
		require.Error(t, err)
	})
}
