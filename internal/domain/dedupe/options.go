package dedupe

// Option applies a configuration option to the Deduper.
type Option func(*ringDeduper)

// WithMaxSize bounds the number of remembered event ids.
func WithMaxSize(n int) Option {
	return func(d *ringDeduper) {
		if n > 0 {
			d.maxSize = n
		}
	}
}
