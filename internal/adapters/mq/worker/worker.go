// Package worker drains the event queue and applies reported skill
// completions through the service's apply path.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/logger"
	"github.com/okian/ascent/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4
	poolShutdownTimeout     = 30 * time.Second
)

// Applier validates and persists one reported skill event.
type Applier interface {
	Apply(ctx context.Context, ev model.SkillEvent) error
}

// Queue is how workers receive events.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.SkillEvent
}

// Worker applies events from the queue until stopped.
type Worker struct {
	queue   Queue
	applier Applier
	name    string

	shutdown chan struct{}
	done     chan struct{}

	log logger.Logger
}

// New constructs a worker.
func New(q Queue, applier Applier, opts ...Option) *Worker {
	w := &Worker{
		queue:    q,
		applier:  applier,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = logger.Get().Named(w.name)
	}
	return w
}

// Run processes events until ctx is cancelled, Shutdown is called, or
// the queue closes.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)

	events := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			w.apply(ctx, ev)
		}
	}
}

func (w *Worker) apply(ctx context.Context, ev model.SkillEvent) {
	start := time.Now()
	err := w.applier.Apply(ctx, ev)
	metrics.RecordEventApplyDuration(float64(time.Since(start).Microseconds()) / 1000)

	if err != nil {
		w.log.Error(ctx, "apply failed",
			logger.String("event_id", ev.EventID),
			logger.String("project_id", ev.ProjectID),
			logger.Error(err),
		)
	}
}

// Shutdown stops the worker and waits for the in-flight event.
func (w *Worker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	log     logger.Logger
}

// NewPool constructs a pool of count workers. A non-positive count scales
// with the CPU count.
func NewPool(count int, q Queue, applier Applier) *Pool {
	if count < 1 {
		count = runtime.NumCPU() * defaultWorkerMultiplier
	}
	p := &Pool{
		workers: make([]*Worker, count),
		log:     logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = New(q, applier, WithName("worker-"+strconv.Itoa(i)))
	}
	metrics.UpdateWorkerCount(count)
	return p
}

// Start launches every worker.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue when it supports closing and waits for every
// worker to finish, bounded by a timeout.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := any(p.workers[0].queue).(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.log.Error(ctx, "closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.log.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
