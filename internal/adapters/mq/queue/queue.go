// Package queue carries accepted tastings from the HTTP layer to the
// scoring workers through a bounded in-memory buffer.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/terptaster/internal/domain/model"
	"github.com/okian/terptaster/pkg/metrics"
)

const defaultQueueCapacity = 10_000

// Tasting is the payload type flowing through the queue.
type Tasting = model.Tasting

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a tasting without blocking. It returns ErrQueueFull when
	// the buffer is at capacity and ErrClosed after Close.
	Enqueue(ctx context.Context, t Tasting) error

	// Dequeue returns a channel that yields tastings until the queue is
	// closed and drained or ctx is done.
	Dequeue(ctx context.Context) <-chan Tasting

	Len(ctx context.Context) int
	Capacity() int

	// Close stops accepting tastings. Buffered tastings remain readable.
	Close() error
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	tastings chan Tasting
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.tastings = make(chan Tasting, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0.0)

	return q
}

// Enqueue adds a tasting to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, t Tasting) error { //nolint:gocritic // hugeParam: passed by value for channel semantics
	const op = "queue.enqueue"

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("%s: %w", op, err)
	}

	select {
	case q.tastings <- t:
		metrics.RecordQueueEnqueue()
		q.observe()
		return nil
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return fmt.Errorf("%s: %w", op, ErrQueueFull)
	}
}

// Dequeue returns a channel that will receive tastings as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Tasting {
	out := make(chan Tasting)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case t, ok := <-q.tastings:
				if !ok {
					return
				}
				select {
				case out <- t:
					metrics.RecordQueueDequeue()
					q.observe()
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Len returns the current number of queued tastings.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return q.observe()
}

// Capacity returns the configured maximum queue length.
func (q *InMemoryQueue) Capacity() int { return q.capacity }

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.tastings)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

func (q *InMemoryQueue) observe() int {
	size := len(q.tastings)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
	return size
}
