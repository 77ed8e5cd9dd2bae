// Package dedupe tracks seen signal IDs for at-most-once scoring. The
// classifier pipeline and Kafka both redeliver, so ingest must be
// idempotent.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 50_000

// Deduper records seen signal IDs.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true if id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord removes an id, allowing a retry after a failed enqueue.
	Unrecord(ctx context.Context, id string)

	Size() int64
}

// Option applies a configuration option to the deduper.
type Option func(*ringDeduper)

// WithMaxSize bounds the cache; zero or negative means unbounded.
func WithMaxSize(n int) Option {
	return func(d *ringDeduper) {
		d.maxSize = n
	}
}

// ringDeduper keeps seen IDs in a map plus a fixed ring buffer; when the
// ring wraps, the oldest id is evicted from the map.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
	size    atomic.Int64
}

// New creates a bounded deduper with FIFO eviction.
func New(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	if d.maxSize > 0 {
		d.ring = make([]string, d.maxSize)
	}
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}

	if d.maxSize > 0 {
		if old := d.ring[d.next]; old != "" {
			if _, ok := d.seen[old]; ok {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = id
		d.next = (d.next + 1) % d.maxSize
	}
	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	d.size.Add(-1)
	// The ring slot stays occupied; eviction tolerates ids that are
	// already gone from the map.
}

func (d *ringDeduper) Size() int64 {
	return d.size.Load()
}
