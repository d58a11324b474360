package queue

type options struct {
	capacity int
}

// Option applies a configuration option to the queue.
type Option func(*options)

// WithCapacity bounds the number of buffered events.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}
