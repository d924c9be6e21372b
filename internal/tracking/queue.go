// Package tracking decouples the redirect path from click persistence.
// A bounded in-memory queue takes raw tracking jobs from redirect
// handlers and a single background worker drains it through the
// enrichment pipeline.
package tracking

import (
	"context"
	"log/slog"

	"github.com/vadimbarashkov/shortlink/internal/models"
)

// DefaultQueueCapacity bounds the queue when no capacity is configured.
const DefaultQueueCapacity = 1024

// Queue is a bounded in-memory FIFO of click tracking jobs. Enqueue never
// blocks; when the queue is full the job is dropped. Jobs are consumed
// at most once and are lost on process restart, which is acceptable
// because click tracking is best-effort.
type Queue struct {
	jobs   chan models.ClickTrackingJob
	logger *slog.Logger
}

// NewQueue creates a queue with the given capacity. Non-positive
// capacities fall back to DefaultQueueCapacity.
func NewQueue(capacity int, logger *slog.Logger) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}

	return &Queue{
		jobs:   make(chan models.ClickTrackingJob, capacity),
		logger: logger,
	}
}

// Enqueue offers a job to the queue without blocking and reports whether
// it was accepted. A full queue drops the job and logs the loss; the
// caller's redirect must never fail because of tracking backpressure.
func (q *Queue) Enqueue(job models.ClickTrackingJob) bool {
	select {
	case q.jobs <- job:
		return true
	default:
		q.logger.Warn("tracking queue full, dropping click",
			slog.Int64("short_url_id", job.ShortURLID))

		return false
	}
}

// Dequeue blocks until a job is available or the context is cancelled.
// It reports false once cancellation fires and no job was received.
func (q *Queue) Dequeue(ctx context.Context) (models.ClickTrackingJob, bool) {
	select {
	case job := <-q.jobs:
		return job, true
	case <-ctx.Done():
		return models.ClickTrackingJob{}, false
	}
}

// Len returns the number of jobs currently buffered.
func (q *Queue) Len() int {
	return len(q.jobs)
}
