package indexing

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orneryd/muninn/pkg/entity"
	"github.com/orneryd/muninn/pkg/store"
)

// flakyStore fails the first failBatches batch submissions, then delegates to
// an in-memory store.
type flakyStore struct {
	inner       *store.MemoryStore
	failBatches int
	batchCalls  int
}

func (s *flakyStore) Insert(key, value entity.E) error {
	return s.inner.Insert(key, value)
}

func (s *flakyStore) BatchInsert(items []store.KV) error {
	s.batchCalls++
	if s.batchCalls <= s.failBatches {
		return errors.New("transient store failure")
	}
	return s.inner.BatchInsert(items)
}

func (s *flakyStore) Lookup(key entity.E) ([]store.Value, error) {
	return s.inner.Lookup(key)
}

// stubSleep replaces the backoff sleep for the duration of a test and records
// the requested delays.
func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var delays []time.Duration
	orig := sleep
	sleep = func(d time.Duration) { delays = append(delays, d) }
	t.Cleanup(func() { sleep = orig })
	return &delays
}

func TestRobustBatchInsert_CleanFirstAttempt(t *testing.T) {
	delays := stubSleep(t)
	client := NewClient(store.NewMemoryStore())

	result := RobustBatchInsert(client, makeRecords(50), nil)

	assert.Equal(t, 50, result.SuccessCount)
	assert.True(t, result.Clean())
	assert.Empty(t, *delays, "clean first attempt must not back off")
}

func TestRobustBatchInsert_TransientFailureRecovers(t *testing.T) {
	delays := stubSleep(t)
	flaky := &flakyStore{inner: store.NewMemoryStore(), failBatches: 1}
	client := NewClient(flaky, WithBatchSize(MinBatchSize))

	recs := makeRecords(8) // 32 items, one batch per attempt
	result := RobustBatchInsert(client, recs, nil)

	assert.Equal(t, 8, result.SuccessCount)
	assert.True(t, result.Clean())
	require.Len(t, *delays, 1)
	assert.Equal(t, time.Second, (*delays)[0], "first backoff is factor^0 seconds")

	// The whole set was retried, so everything is queryable.
	for _, rec := range recs {
		assert.Contains(t,
			client.QueryBySubjectPredicate(rec.Subject, rec.Predicate),
			rec.Object)
	}
}

func TestRobustBatchInsert_Exhaustion(t *testing.T) {
	delays := stubSleep(t)
	flaky := &flakyStore{inner: store.NewMemoryStore(), failBatches: 1 << 30}
	client := NewClient(flaky, WithBatchSize(MinBatchSize))

	cfg := DefaultPerformanceConfig()
	result := RobustBatchInsert(client, makeRecords(8), cfg)

	assert.Equal(t, 0, result.SuccessCount)
	require.Len(t, result.Failures, 1)

	var exhausted *RetryExhaustedError
	require.ErrorAs(t, result.Failures[0].Err, &exhausted)
	assert.Equal(t, cfg.RetryMaxAttempts, exhausted.Attempts)
	assert.ErrorContains(t, exhausted.LastErr, "transient store failure")

	assert.Equal(t, cfg.RetryMaxAttempts, flaky.batchCalls, "one batch per attempt")
	// Backoff between attempts only: 2^0 and 2^1 seconds.
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestRobustBatchInsert_PartialSuccessKeepsLastResult(t *testing.T) {
	stubSleep(t)
	// Two batches per attempt; the first submission ever made fails, every
	// later one succeeds. Attempt 1 is partial, attempt 2 is clean.
	flaky := &flakyStore{inner: store.NewMemoryStore(), failBatches: 1}
	client := NewClient(flaky, WithBatchSize(MinBatchSize))

	result := RobustBatchInsert(client, makeRecords(16), nil)

	assert.Equal(t, 16, result.SuccessCount)
	assert.True(t, result.Clean())
}

func TestRobustBatchInsert_NilConfigUsesDefaults(t *testing.T) {
	stubSleep(t)
	flaky := &flakyStore{inner: store.NewMemoryStore(), failBatches: 1 << 30}
	client := NewClient(flaky, WithBatchSize(MinBatchSize))

	result := RobustBatchInsert(client, makeRecords(1), nil)

	require.Len(t, result.Failures, 1)
	var exhausted *RetryExhaustedError
	require.ErrorAs(t, result.Failures[0].Err, &exhausted)
	assert.Equal(t, DefaultPerformanceConfig().RetryMaxAttempts, exhausted.Attempts)
}

func TestRobustBatchInsert_AppliesAdaptiveBatchSetting(t *testing.T) {
	stubSleep(t)

	t.Run("disabled keeps the batch size fixed", func(t *testing.T) {
		flaky := &flakyStore{inner: store.NewMemoryStore(), failBatches: 1 << 30}
		client := NewClient(flaky, WithBatchSize(128))

		cfg := DefaultPerformanceConfig()
		cfg.AdaptiveBatchSize = false
		RobustBatchInsert(client, makeRecords(8), cfg)
		assert.Equal(t, 128, client.BatchSize())
	})

	t.Run("enabled shrinks on failing attempts", func(t *testing.T) {
		flaky := &flakyStore{inner: store.NewMemoryStore(), failBatches: 1 << 30}
		client := NewClient(flaky, WithBatchSize(128))

		RobustBatchInsert(client, makeRecords(8), DefaultPerformanceConfig())
		assert.Less(t, client.BatchSize(), 128)
	})
}

func TestBackoffDelay(t *testing.T) {
	assert.Equal(t, time.Second, backoffDelay(2.0, 0))
	assert.Equal(t, 2*time.Second, backoffDelay(2.0, 1))
	assert.Equal(t, 4*time.Second, backoffDelay(2.0, 2))
	assert.Equal(t, time.Second, backoffDelay(0, 5), "degenerate factor floors to 1")
}
