package worker

import "github.com/okian/ascent/pkg/logger"

// Option applies a configuration option to the Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger overrides the worker's logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.log = l
		}
	}
}
