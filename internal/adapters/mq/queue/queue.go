// Package queue holds trips waiting for the batch worker.
//
// The queue is a bounded channel; enqueue never blocks and reports
// backpressure instead.
package queue

import (
	"context"
	"sync"

	"github.com/okian/stipend/internal/domain/model"
	"github.com/okian/stipend/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Task is the payload flowing through the queue.
type Task = model.Task

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a task. It returns ErrFull or ErrClosed when the task was not accepted.
	Enqueue(ctx context.Context, t Task) error

	// Dequeue returns a channel that receives tasks in FIFO order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Task

	Len() int
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tasks    chan Task
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tasks = make(chan Task, q.capacity)
	metrics.UpdateBatchQueueSize(0)
	return q
}

// Enqueue adds a task to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Task) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.tasks <- t:
		metrics.UpdateBatchQueueSize(len(q.tasks))
		return nil
	case <-ctx.Done():
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return ctx.Err()
	default:
		metrics.RecordErrorByComponent("queue", "queue_full")
		return ErrFull
	}
}

// Dequeue returns a channel that receives queued tasks.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Task {
	out := make(chan Task)
	go func() {
		defer close(out)
		for t := range q.tasks {
			select {
			case out <- t:
				metrics.UpdateBatchQueueSize(len(q.tasks))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of waiting tasks.
func (q *InMemoryQueue) Len() int {
	return len(q.tasks)
}

// Close stops accepting tasks. Tasks already queued are still delivered.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tasks)
	q.closed = true
	return nil
}

// IsClosed reports whether Close was called.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
