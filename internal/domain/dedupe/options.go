package dedupe

// Option applies a configuration option to the deduper.
type Option func(*inMemoryDeduper)

// WithKeyFunc sets how ids are normalized before comparison.
func WithKeyFunc(fn func(string) string) Option {
	return func(d *inMemoryDeduper) {
		if fn != nil {
			d.keyFor = fn
		}
	}
}

// WithCapacity preallocates room for n ids.
func WithCapacity(n int) Option {
	return func(d *inMemoryDeduper) {
		if n > 0 {
			d.seen = make(map[string]struct{}, n)
		}
	}
}
