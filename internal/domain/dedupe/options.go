package dedupe

// Option applies a configuration option to the InMemoryDeduper.
type Option func(*InMemoryDeduper)

// WithMaxSize caps the number of keys tracked at once. Keys offered beyond
// the cap are reported as new and left untracked. Zero or negative means unbounded.
func WithMaxSize(maxSize int) Option {
	return func(d *InMemoryDeduper) {
		d.maxSize = maxSize
	}
}
