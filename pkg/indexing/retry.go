package indexing

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/orneryd/muninn/pkg/triple"
)

// BatchFailure records one failed batch submission.
type BatchFailure struct {
	// BatchStart is the item offset of the failed batch within the
	// expanded 4N item list.
	BatchStart int
	Err        error
}

// BatchResult is the structured outcome of a bulk insertion.
//
// Bulk paths favor availability over all-or-nothing consistency: partial
// success with an explicit failure list is the norm, and callers must
// inspect Failures instead of relying on errors.
type BatchResult struct {
	// SuccessCount is the number of triples credited to clean batches.
	SuccessCount int
	Failures     []BatchFailure
}

// Clean reports whether every batch succeeded.
func (r BatchResult) Clean() bool {
	return len(r.Failures) == 0
}

// RetryExhaustedError indicates that every configured retry attempt failed.
type RetryExhaustedError struct {
	Attempts int
	LastErr  error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("all %d retries failed: %v", e.Attempts, e.LastErr)
}

func (e *RetryExhaustedError) Unwrap() error { return e.LastErr }

// PerformanceConfig tunes bulk insertion and retry behavior.
type PerformanceConfig struct {
	// Targets are advisory; nothing enforces them, they document intent
	// for operators sizing a deployment.
	TargetThroughputOpsPerSec int
	TargetLatencyP99Micros    int

	// AdaptiveBatchSize lets the client grow/shrink its batch size between
	// bulk calls. RobustBatchInsert applies it to the client before the
	// first attempt; false pins the batch size for the whole call and any
	// later use of the client.
	AdaptiveBatchSize bool

	// RetryMaxAttempts is the total number of bulk attempts.
	RetryMaxAttempts int

	// RetryBackoffFactor is the exponential base: the sleep before retry
	// attempt n is RetryBackoffFactor^n seconds. No jitter.
	RetryBackoffFactor float64
}

// DefaultPerformanceConfig returns the standard tuning: 3 attempts, factor-2
// backoff, adaptive batching on.
func DefaultPerformanceConfig() *PerformanceConfig {
	return &PerformanceConfig{
		TargetThroughputOpsPerSec: 1_000_000,
		TargetLatencyP99Micros:    100,
		AdaptiveBatchSize:         true,
		RetryMaxAttempts:          3,
		RetryBackoffFactor:        2.0,
	}
}

// sleep is swapped out by tests so retry backoff does not slow the suite.
var sleep = time.Sleep

// RobustBatchInsert wraps bulk insertion in a bounded retry loop.
//
// On any reported batch failure it sleeps RetryBackoffFactor^attempt seconds
// and retries the ENTIRE triple set, not just the failed subset. Whole-set
// retry is deliberate: batch boundaries shift as the batch size adapts, so a
// per-batch failure offset cannot be mapped back to a stable triple subset.
// The store-side idempotency of repeated inserts makes the re-submission
// safe.
//
// Returns the last attempt's result. When no attempt ever succeeded at all,
// the result carries a RetryExhaustedError wrapping the last failure.
//
// There is no overall wall-clock deadline beyond the attempt count and no
// cooperative cancellation; a persistently slow store holds the caller for
// the full geometric sum of backoff intervals.
func RobustBatchInsert(client *Client, recs []*triple.Record, cfg *PerformanceConfig) BatchResult {
	if cfg == nil {
		cfg = DefaultPerformanceConfig()
	}
	attempts := cfg.RetryMaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	client.setAdaptiveBatching(cfg.AdaptiveBatchSize)

	var (
		last          BatchResult
		lastErr       error
		everSucceeded bool
	)

	for attempt := 0; attempt < attempts; attempt++ {
		last = client.BatchInsertTriples(recs)
		if last.SuccessCount > 0 {
			everSucceeded = true
		}
		if last.Clean() {
			return last
		}
		lastErr = last.Failures[len(last.Failures)-1].Err
		client.log.Info("bulk insert had failures",
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", attempts),
			zap.Int("failed_batches", len(last.Failures)))

		if attempt < attempts-1 {
			sleep(backoffDelay(cfg.RetryBackoffFactor, attempt))
		}
	}

	if !everSucceeded {
		return BatchResult{
			SuccessCount: 0,
			Failures: []BatchFailure{{
				Err: &RetryExhaustedError{Attempts: attempts, LastErr: lastErr},
			}},
		}
	}
	return last
}

// backoffDelay is factor^attempt seconds, with a sane floor for degenerate
// factors.
func backoffDelay(factor float64, attempt int) time.Duration {
	if factor <= 0 {
		factor = 1
	}
	return time.Duration(math.Pow(factor, float64(attempt)) * float64(time.Second))
}
