// Package queue holds pending cache refresh jobs.
//
// The queue is bounded and never blocks producers: a full queue rejects the
// job and the next refresh tick enqueues it again. A job whose key is
// already pending is rejected as a duplicate.
package queue

import (
	"context"
	"sync"

	"github.com/crashcompass/compass/internal/domain/model"
	"github.com/crashcompass/compass/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 256
)

// Job is the payload flowing through the queue.
type Job = model.RefreshJob

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a job. It returns ErrFull, ErrClosed or ErrDuplicate
	// when the job was not accepted.
	Enqueue(ctx context.Context, j Job) error

	// Dequeue returns a channel that receives jobs as they become available.
	// The channel is closed when the queue is closed or ctx is done.
	Dequeue(ctx context.Context) <-chan Job

	// Len returns the current number of pending jobs.
	Len() int

	// Close stops accepting jobs and closes the dequeue channels.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	jobs     chan Job
	capacity int

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	q.jobs = make(chan Job, q.capacity)

	metrics.UpdateRefreshQueue(0, q.capacity)
	return q
}

// Enqueue adds a job to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, j Job) error {
	if err := ctx.Err(); err != nil {
		metrics.RecordRefreshEnqueueError("context_cancelled")
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.RecordRefreshEnqueueError("closed")
		return ErrClosed
	}
	key := j.Key()
	if _, ok := q.pending[key]; ok {
		metrics.RecordRefreshEnqueueError("duplicate")
		return ErrDuplicate
	}

	select {
	case q.jobs <- j:
		q.pending[key] = struct{}{}
		metrics.RecordRefreshEnqueued()
		metrics.UpdateRefreshQueue(len(q.jobs), q.capacity)
		return nil
	default:
		metrics.RecordRefreshEnqueueError("queue_full")
		metrics.RecordErrorByComponent("refresh_queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that will receive jobs as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Job {
	out := make(chan Job)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case j, ok := <-q.jobs:
				if !ok {
					return
				}
				q.done(j)
				select {
				case out <- j:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// done releases the job key so it can be enqueued again.
func (q *InMemoryQueue) done(j Job) {
	q.mu.Lock()
	delete(q.pending, j.Key())
	size := len(q.jobs)
	q.mu.Unlock()
	metrics.UpdateRefreshQueue(size, q.capacity)
}

// Len returns the current number of pending jobs.
func (q *InMemoryQueue) Len() int {
	return len(q.jobs)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.jobs)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
