package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/muninn/pkg/entity"
)

func TestBadgerStore_InsertAndLookup(t *testing.T) {
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	defer s.Close()

	key := entity.FromString("key")
	v1 := entity.FromString("v1")
	v2 := entity.FromString("v2")

	require.NoError(t, s.Insert(key, v1))
	require.NoError(t, s.Insert(key, v2))
	require.NoError(t, s.Insert(key, v1)) // idempotent

	assert.ElementsMatch(t, []entity.E{v1, v2}, lookupEntities(t, s, key))
}

func TestBadgerStore_LookupMissingKey(t *testing.T) {
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	defer s.Close()

	values, err := s.Lookup(entity.FromString("absent"))
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestBadgerStore_BatchInsert(t *testing.T) {
	s, err := NewBadgerStoreInMemory()
	require.NoError(t, err)
	defer s.Close()

	items := []KV{
		{Key: entity.FromString("a"), Value: entity.FromString("1")},
		{Key: entity.FromString("a"), Value: entity.FromString("2")},
		{Key: entity.FromString("b"), Value: entity.FromString("3")},
	}
	require.NoError(t, s.BatchInsert(items))

	assert.Len(t, lookupEntities(t, s, entity.FromString("a")), 2)
	assert.Len(t, lookupEntities(t, s, entity.FromString("b")), 1)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	key := entity.FromString("persistent")
	value := entity.FromString("value")

	s, err := NewBadgerStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Insert(key, value))
	require.NoError(t, s.Close())

	reopened, err := NewBadgerStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got := lookupEntities(t, reopened, key)
	assert.Equal(t, []entity.E{value}, got)
}
