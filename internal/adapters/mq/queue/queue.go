// Package queue holds records waiting to be embedded during ingestion.
package queue

import (
	"context"
	"sync"

	"github.com/okian/capperchat/internal/domain/transform"
	"github.com/okian/capperchat/pkg/metrics"
)

const defaultQueueCapacity = 1000

// Item is the payload flowing through the queue.
type Item = transform.Indexable

// Queue provides blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue blocks until the item is buffered, ctx is done or the queue
	// is closed.
	Enqueue(ctx context.Context, it Item) error

	// Dequeue returns the channel consumers read from. It is closed once
	// the queue is closed and drained.
	Dequeue() <-chan Item

	Len() int
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items    chan Item
	capacity int

	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultQueueCapacity, done: make(chan struct{})}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an item, waiting for space when the buffer is full.
func (q *InMemoryQueue) Enqueue(ctx context.Context, it Item) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrClosed
	}
	select {
	case q.items <- it:
		metrics.UpdateQueueSize(len(q.items))
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	}
}

// Dequeue returns the receive side of the buffer.
func (q *InMemoryQueue) Dequeue() <-chan Item {
	return q.items
}

// Len returns the current number of queued items.
func (q *InMemoryQueue) Len() int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close stops accepting items. Buffered items can still be dequeued.
func (q *InMemoryQueue) Close() error {
	// Wake blocked producers before taking the write lock they hold a read
	// lock against.
	q.doneOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}
