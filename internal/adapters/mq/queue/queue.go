// Package queue buffers classified signals between ingest and the scoring
// workers. The in-memory bounded queue gives ingest a cheap backpressure
// signal instead of blocking the HTTP or Kafka path.
package queue

import (
	"context"
	"sync"

	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/pkg/metrics"
)

const defaultCapacity = 100_000

// Signal is the payload type flowing through the queue.
type Signal = model.Event

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a signal. Returns false when the queue is full or
	// closed; the caller decides whether to retry or shed.
	Enqueue(ctx context.Context, s Signal) bool

	// Dequeue returns a channel receiving signals as they become
	// available. Closed when the queue closes.
	Dequeue(ctx context.Context) <-chan Signal

	// Len returns the current number of queued signals.
	Len(ctx context.Context) int

	Close() error
}

// Option applies a configuration option to the InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the queue.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// InMemoryQueue implements Queue over a buffered channel.
type InMemoryQueue struct {
	signals  chan Signal
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a bounded in-memory queue.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(q)
	}
	q.signals = make(chan Signal, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a signal without blocking.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Signal) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.signals <- s:
		metrics.UpdateQueueSize(len(q.signals))
		return true
	case <-ctx.Done():
		return false
	default:
		// Queue full; shed and let the caller unrecord the signal.
		return false
	}
}

// Dequeue returns a channel receiving signals until the queue closes or
// ctx is cancelled.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Signal {
	out := make(chan Signal)
	go func() {
		defer close(out)
		for s := range q.signals {
			select {
			case out <- s:
				metrics.UpdateQueueSize(len(q.signals))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued signals.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.signals)
}

// Close shuts the queue; further enqueues fail and the dequeue channel
// drains then closes.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.signals)
	q.closed = true
	return nil
}
