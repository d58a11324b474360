// Package queue carries reported skill events from the HTTP layer to the
// worker pool through a bounded in-memory buffer.
package queue

import (
	"context"
	"sync"

	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/metrics"
)

const defaultCapacity = 100_000

// Queue provides non-blocking enqueue and channel-based dequeue.
type Queue interface {
	// Enqueue adds an event. Returns false when the queue is full or
	// closed; the caller rolls back its dedupe record and answers with
	// backpressure.
	Enqueue(ctx context.Context, ev model.SkillEvent) bool

	// Dequeue returns a channel receiving events until the queue closes.
	Dequeue(ctx context.Context) <-chan model.SkillEvent

	// Len returns the number of buffered events.
	Len() int

	// Close stops accepting events and drains the dequeue channel.
	Close() error
}

// InMemory implements Queue on a buffered channel.
type InMemory struct {
	events chan model.SkillEvent
	mu     sync.RWMutex
	closed bool
}

// New constructs an in-memory queue.
func New(opts ...Option) *InMemory {
	cfg := options{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(&cfg)
	}
	q := &InMemory{events: make(chan model.SkillEvent, cfg.capacity)}
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds an event without blocking.
func (q *InMemory) Enqueue(ctx context.Context, ev model.SkillEvent) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return false
	}

	select {
	case q.events <- ev:
		metrics.UpdateQueueSize(len(q.events))
		return true
	case <-ctx.Done():
		return false
	default:
		return false
	}
}

// Dequeue returns a channel receiving buffered events. The channel closes
// when the queue closes or ctx is cancelled.
func (q *InMemory) Dequeue(ctx context.Context) <-chan model.SkillEvent {
	out := make(chan model.SkillEvent)
	go func() {
		defer close(out)
		for ev := range q.events {
			select {
			case out <- ev:
				metrics.UpdateQueueSize(len(q.events))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the number of buffered events.
func (q *InMemory) Len() int {
	return len(q.events)
}

// Close stops accepting events. Idempotent.
func (q *InMemory) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	q.closed = true
	close(q.events)
	return nil
}
