// Package indexing provides the Muninn indexing client: it fans each triple
// out into four key/value writes against a backing store, batches bulk
// insertions adaptively, normalizes heterogeneous lookup results, and wraps
// bulk insertion in bounded retry with exponential backoff.
//
// Failure semantics, deliberately:
//   - A single-triple insert returns false on any failed write. There is no
//     rollback of writes that already landed; the four index entries are
//     best-effort/eventual, not atomic as a group.
//   - Bulk insertion reports partial failure per batch and keeps going.
//     Callers inspect BatchResult.Failures; bulk paths never panic and
//     never hide a failed batch.
//   - Reads favor partial results: entries that cannot be normalized into
//     an identifier are dropped (and logged at debug), not turned into
//     call-level errors.
package indexing

import (
	"sync"

	"go.uber.org/zap"

	"github.com/orneryd/muninn/pkg/entity"
	"github.com/orneryd/muninn/pkg/store"
	"github.com/orneryd/muninn/pkg/triple"
)

// Batch sizing bounds. The client starts at DefaultBatchSize and adapts
// within [MinBatchSize, MaxBatchSize] as bulk calls succeed or fail.
const (
	DefaultBatchSize = 128
	MinBatchSize     = 32
	MaxBatchSize     = 1024
)

// writesPerTriple is the index fan-out: compound, subject, predicate,
// reverse. Batch accounting divides by this.
const writesPerTriple = 4

// Client orchestrates triple indexing against a backing store.
//
// All operations are synchronous; batches are submitted sequentially, one at
// a time. A caller wanting batch-level parallelism introduces it externally.
// The client itself is safe for concurrent use.
type Client struct {
	store store.BackingStore
	log   *zap.Logger

	mu        sync.Mutex
	batchSize int
	adaptive  bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger attaches a structured logger for diagnostics on swallowed
// failures. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// WithBatchSize sets the starting batch size, clamped to
// [MinBatchSize, MaxBatchSize].
func WithBatchSize(size int) Option {
	return func(c *Client) {
		c.batchSize = clampBatchSize(size)
	}
}

// WithAdaptiveBatching enables or disables batch-size adaptation between
// bulk calls. Enabled by default; disabled, the batch size stays where
// WithBatchSize put it.
func WithAdaptiveBatching(enabled bool) Option {
	return func(c *Client) {
		c.adaptive = enabled
	}
}

// NewClient creates an indexing client over a backing store.
func NewClient(backing store.BackingStore, opts ...Option) *Client {
	c := &Client{
		store:     backing,
		log:       zap.NewNop(),
		batchSize: DefaultBatchSize,
		adaptive:  true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// InsertTriple writes the four index entries for one triple:
//
//	compound(subject, predicate) -> object   (primary lookup)
//	subject                      -> predicate
//	predicate                    -> object
//	reverse(predicate, object)   -> subject  (reverse lookup)
//
// All four writes are attempted in order; any failure makes the call return
// false. Already-written entries are not rolled back.
func (c *Client) InsertTriple(rec *triple.Record) bool {
	for _, kv := range indexWrites(rec) {
		if err := c.store.Insert(kv.Key, kv.Value); err != nil {
			c.log.Warn("failed to insert triple",
				zap.String("subject", rec.Subject.Hex()),
				zap.String("predicate", rec.Predicate.Hex()),
				zap.Error(err))
			return false
		}
	}
	return true
}

// BatchInsertTriples expands the given triples into 4N key/value items,
// partitions them into batches of the current adaptive size, and submits
// each batch independently.
//
// A failing batch records {BatchStart, Err} and does not abort the others.
// SuccessCount trusts that a batch call is all-or-nothing on the store side
// and credits itemsInBatch/4 triples per clean batch.
func (c *Client) BatchInsertTriples(recs []*triple.Record) BatchResult {
	if len(recs) == 0 {
		return BatchResult{Failures: []BatchFailure{}}
	}

	items := make([]store.KV, 0, len(recs)*writesPerTriple)
	for _, rec := range recs {
		items = append(items, indexWrites(rec)...)
	}

	size := c.currentBatchSize()
	result := BatchResult{Failures: []BatchFailure{}}

	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]
		if err := c.store.BatchInsert(batch); err != nil {
			c.log.Warn("batch insert failed",
				zap.Int("batch_start", start),
				zap.Int("batch_len", len(batch)),
				zap.Error(err))
			result.Failures = append(result.Failures, BatchFailure{BatchStart: start, Err: err})
			continue
		}
		result.SuccessCount += len(batch) / writesPerTriple
	}

	c.adaptBatchSize(len(result.Failures) == 0)
	return result
}

// QueryBySubjectPredicate finds objects for a subject+predicate pair via the
// compound index key.
func (c *Client) QueryBySubjectPredicate(subject, predicate entity.E) []entity.E {
	return c.lookup(triple.CompoundKey(subject, predicate))
}

// QueryPredicatesForSubject finds all predicates recorded for a subject.
func (c *Client) QueryPredicatesForSubject(subject entity.E) []entity.E {
	return c.lookup(subject)
}

// QuerySubjectsByObjectPredicate finds subjects for an object+predicate pair
// via the reverse index key.
func (c *Client) QuerySubjectsByObjectPredicate(object, predicate entity.E) []entity.E {
	return c.lookup(triple.ReverseKey(predicate, object))
}

// lookup issues a store lookup and normalizes the heterogeneous result
// shapes into identifiers. Unconvertible entries are dropped; a store error
// yields an empty result, not a failure.
func (c *Client) lookup(key entity.E) []entity.E {
	values, err := c.store.Lookup(key)
	if err != nil {
		c.log.Warn("lookup failed", zap.String("key", key.Hex()), zap.Error(err))
		return []entity.E{}
	}
	out := make([]entity.E, 0, len(values))
	for _, v := range values {
		e, err := v.Entity()
		if err != nil {
			c.log.Debug("dropping unconvertible lookup result",
				zap.String("key", key.Hex()), zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out
}

// BatchSize returns the current adaptive batch size.
func (c *Client) BatchSize() int {
	return c.currentBatchSize()
}

func (c *Client) currentBatchSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.batchSize
}

func (c *Client) setAdaptiveBatching(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adaptive = enabled
}

// adaptBatchSize grows the batch size after a fully clean bulk call and
// shrinks it after a failing one, always within the clamp. A no-op when
// adaptation is disabled.
func (c *Client) adaptBatchSize(clean bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.adaptive {
		return
	}
	if clean {
		c.batchSize = clampBatchSize(c.batchSize * 2)
	} else {
		c.batchSize = clampBatchSize(c.batchSize / 2)
	}
}

func clampBatchSize(size int) int {
	if size < MinBatchSize {
		return MinBatchSize
	}
	if size > MaxBatchSize {
		return MaxBatchSize
	}
	return size
}

// indexWrites builds the four index entries for a triple.
func indexWrites(rec *triple.Record) []store.KV {
	return []store.KV{
		{Key: triple.CompoundKey(rec.Subject, rec.Predicate), Value: rec.Object},
		{Key: rec.Subject, Value: rec.Predicate},
		{Key: rec.Predicate, Value: rec.Object},
		{Key: triple.ReverseKey(rec.Predicate, rec.Object), Value: rec.Subject},
	}
}
