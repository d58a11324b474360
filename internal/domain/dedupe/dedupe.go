// Package dedupe tracks seen event ids so reported skill completions are
// applied at most once.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records seen event ids.
type Deduper interface {
	// SeenAndRecord atomically checks whether id was seen and records it
	// if not. Returns true when id was already seen.
	SeenAndRecord(ctx context.Context, id string) bool

	// Unrecord forgets an id so it can be retried. Used when an event was
	// recorded but could not be enqueued.
	Unrecord(ctx context.Context, id string)

	// Size returns the number of tracked ids.
	Size() int
}

// ringDeduper keeps ids in a map plus a fixed-size ring of insertion
// order. When the ring is full the oldest id is forgotten first, so a
// replay of a very old event may slip through; the aggregator's
// occurrence caps bound the damage.
type ringDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	ring    []string
	next    int
	maxSize int
}

// New constructs a bounded Deduper. A non-positive size falls back to the
// default capacity.
func New(opts ...Option) Deduper {
	d := &ringDeduper{maxSize: 500_000}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{}, d.maxSize)
	d.ring = make([]string, d.maxSize)
	return d
}

func (d *ringDeduper) SeenAndRecord(_ context.Context, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; ok {
		return true
	}
	if old := d.ring[d.next]; old != "" {
		delete(d.seen, old)
	}
	d.ring[d.next] = id
	d.next = (d.next + 1) % d.maxSize
	d.seen[id] = struct{}{}
	return false
}

func (d *ringDeduper) Unrecord(_ context.Context, id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[id]; !ok {
		return
	}
	delete(d.seen, id)
	// The ring slot keeps the id until overwritten; clearing it prevents
	// a stale delete of a re-recorded id.
	for i, slot := range d.ring {
		if slot == id {
			d.ring[i] = ""
			break
		}
	}
}

func (d *ringDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
