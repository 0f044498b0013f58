// Package cascade deletes every document matched by a query in bounded
// batches, so neither memory nor stack grows with the size of the result set.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultBatchSize matches the batch limit the document store was operated with.
const DefaultBatchSize = 10

var ErrInvalidBatchSize = errors.New("cascade: batch size must be positive")

var batchesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cascade_batches_total",
		Help: "Number of batch deletes committed by cascade deletions",
	},
	[]string{"target", "status"},
)

// Collectors exposes the package metrics for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{batchesTotal}
}

// Target is a filtered query over one collection.
type Target interface {
	// Name identifies the target in logs and metrics.
	Name() string
	// Next returns the ids of at most limit documents still matching.
	Next(ctx context.Context, limit int) ([]string, error)
	// DeleteBatch removes the given documents as one all-or-nothing write.
	DeleteBatch(ctx context.Context, ids []string) error
}

type Result struct {
	Batches int
	Deleted int
}

// BatchError reports the batch that stopped a cascade. Batches before it
// are committed and stay deleted.
type BatchError struct {
	Target string
	Batch  int
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("cascade %s: batch %d: %v", e.Target, e.Batch, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

// Delete runs the query limited to batchSize, deletes what it returned and
// repeats until the query comes back empty. The scheduler gets the processor
// back between batches.
func Delete(ctx context.Context, target Target, batchSize int) (Result, error) {
	var res Result
	if batchSize <= 0 {
		return res, ErrInvalidBatchSize
	}

	for {
		if err := ctx.Err(); err != nil {
			return res, &BatchError{Target: target.Name(), Batch: res.Batches + 1, Err: err}
		}

		ids, err := target.Next(ctx, batchSize)
		if err != nil {
			return res, &BatchError{Target: target.Name(), Batch: res.Batches + 1, Err: fmt.Errorf("query: %w", err)}
		}
		if len(ids) == 0 {
			return res, nil
		}
		if len(ids) > batchSize {
			ids = ids[:batchSize]
		}

		if err := target.DeleteBatch(ctx, ids); err != nil {
			batchesTotal.WithLabelValues(target.Name(), "failed").Inc()
			return res, &BatchError{Target: target.Name(), Batch: res.Batches + 1, Err: fmt.Errorf("delete: %w", err)}
		}
		batchesTotal.WithLabelValues(target.Name(), "committed").Inc()

		res.Batches++
		res.Deleted += len(ids)

		runtime.Gosched()
	}
}
