// Package queue hands student partitions from the producer to the recency
// workers through a bounded in-memory buffer.
package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/edulog/internal/domain/model"
	"github.com/okian/edulog/pkg/metrics"
)

const defaultQueueCapacity = 1024

// Partition is the payload flowing through the queue.
type Partition = model.Partition

// Queue provides bounded enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue blocks until p is queued, the queue is closed or ctx is done.
	Enqueue(ctx context.Context, p Partition) error

	// TryEnqueue queues p without blocking. Returns false if the queue is
	// full or closed.
	TryEnqueue(ctx context.Context, p Partition) bool

	// Dequeue returns a channel that receives partitions as they become
	// available. The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Partition

	// Len returns the current number of queued partitions.
	Len(ctx context.Context) int

	// Close stops accepting partitions. Queued partitions are still delivered.
	Close() error

	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Partition
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
	q.items = make(chan Partition, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a partition, waiting for space. Close waits for in-flight
// Enqueue calls, so consumers must keep draining until it returns.
func (q *InMemoryQueue) Enqueue(ctx context.Context, p Partition) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return ErrClosed
	}

	select {
	case q.items <- p:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return nil
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return fmt.Errorf("enqueue %s: %w", p.User, ctx.Err())
	}
}

// TryEnqueue adds a partition only if there is room right now.
func (q *InMemoryQueue) TryEnqueue(ctx context.Context, p Partition) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.items <- p:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueSize(len(q.items))
		return true
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueEnqueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// Dequeue returns a channel that receives partitions as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Partition {
	out := make(chan Partition)
	go func() {
		defer close(out)
		for p := range q.items {
			select {
			case out <- p:
				metrics.RecordQueueDequeue()
				metrics.UpdateQueueSize(len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued partitions.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops the queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
