package store

import (
	"bytes"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/orneryd/muninn/pkg/entity"
)

// Key prefixes for BadgerDB keyspace organization.
// Single-byte prefixes keep keys compact; the triple index is the only
// keyspace today, the rest is reserved.
const (
	prefixIndex = byte(0x01) // index: 32-byte entity key -> concatenated 32-byte values
	prefixMeta  = byte(0x02) // reserved: store-level metadata
)

// BadgerOptions configures a BadgerStore.
type BadgerOptions struct {
	// DataDir is the on-disk location. Ignored when InMemory is set.
	DataDir string

	// InMemory keeps everything in RAM; data is lost on Close. Useful for
	// tests that want real storage semantics without disk I/O.
	InMemory bool

	// SyncWrites forces fsync on every commit. Slower, maximum safety.
	SyncWrites bool
}

// BadgerStore is a BadgerDB-backed backing store.
//
// Every entity key maps to the concatenation of its distinct 32-byte values,
// in insertion order. BatchInsert runs inside a single transaction, so a
// batch commits or fails as a unit - the all-or-nothing property the
// indexing client's accounting relies on.
type BadgerStore struct {
	db *badger.DB
}

var _ BackingStore = (*BadgerStore)(nil)

// NewBadgerStore opens a Badger-backed store at dir with default options.
func NewBadgerStore(dir string) (*BadgerStore, error) {
	return NewBadgerStoreWithOptions(BadgerOptions{DataDir: dir})
}

// NewBadgerStoreInMemory opens an in-memory Badger store for testing.
func NewBadgerStoreInMemory() (*BadgerStore, error) {
	return NewBadgerStoreWithOptions(BadgerOptions{InMemory: true})
}

// NewBadgerStoreWithOptions opens a Badger-backed store.
//
// Memory settings are tuned down from Badger's defaults for containerized
// environments; index entries are small fixed-width records, so the large
// default memtables buy nothing.
func NewBadgerStoreWithOptions(opts BadgerOptions) (*BadgerStore, error) {
	badgerOpts := badger.DefaultOptions(opts.DataDir)

	if opts.InMemory {
		badgerOpts = badgerOpts.WithInMemory(true)
	}
	if opts.SyncWrites {
		badgerOpts = badgerOpts.WithSyncWrites(true)
	}

	badgerOpts = badgerOpts.
		WithLogger(nil).
		WithMemTableSize(16 << 20).
		WithValueLogFileSize(64 << 20).
		WithNumMemtables(2).
		WithNumLevelZeroTables(2).
		WithNumLevelZeroTablesStall(4).
		WithBlockCacheSize(32 << 20).
		WithIndexCacheSize(16 << 20)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// indexKey prefixes a 32-byte entity key for the index keyspace.
func indexKey(key entity.E) []byte {
	b := key.Bytes()
	out := make([]byte, 0, 1+entity.Size)
	out = append(out, prefixIndex)
	out = append(out, b[:]...)
	return out
}

// Insert stores one key/value pair.
func (s *BadgerStore) Insert(key, value entity.E) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return appendValue(txn, key, value)
	})
	if err != nil {
		return &Error{Op: "insert", Err: err}
	}
	return nil
}

// BatchInsert stores many pairs in one transaction.
func (s *BadgerStore) BatchInsert(items []KV) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, item := range items {
			if err := appendValue(txn, item.Key, item.Value); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &Error{Op: "batch_insert", Err: err}
	}
	return nil
}

// Lookup returns all values recorded under key.
func (s *BadgerStore) Lookup(key entity.E) ([]Value, error) {
	var out []Value
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(indexKey(key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		for off := 0; off+entity.Size <= len(raw); off += entity.Size {
			e, err := entity.FromBytes(raw[off : off+entity.Size])
			if err != nil {
				return err
			}
			out = append(out, EntityValue(e))
		}
		return nil
	})
	if err != nil {
		return nil, &Error{Op: "lookup", Err: err}
	}
	return out, nil
}

// Close flushes and closes the underlying BadgerDB.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// RunGC runs one round of value log garbage collection. Safe to call
// periodically; returns nil when there was nothing to collect.
func (s *BadgerStore) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if err == badger.ErrNoRewrite {
		return nil
	}
	return err
}

// appendValue appends value's 32 bytes under key unless already present.
func appendValue(txn *badger.Txn, key, value entity.E) error {
	k := indexKey(key)
	vb := value.Bytes()

	var existing []byte
	item, err := txn.Get(k)
	switch {
	case err == badger.ErrKeyNotFound:
		// first value for this key
	case err != nil:
		return err
	default:
		existing, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		for off := 0; off+entity.Size <= len(existing); off += entity.Size {
			if bytes.Equal(existing[off:off+entity.Size], vb[:]) {
				return nil // idempotent insert
			}
		}
	}
	return txn.Set(k, append(existing, vb[:]...))
}
