package arena

// Option configures an Arena at construction.
type Option func(*config)

type config struct {
	onGrow    func(GrowEvent)
	maxChunks int
}

func defaultConfig() config {
	return config{}
}

// WithOnGrow installs a hook invoked after every chunk acquisition. The
// hook replaces ad hoc growth logging: feed it to a metrics counter or a
// structured logger. It runs synchronously on the allocation path and
// must be cheap.
func WithOnGrow(fn func(GrowEvent)) Option {
	return func(c *config) { c.onGrow = fn }
}

// WithMaxChunks caps the number of chunks the arena may acquire. Zero or
// negative means unlimited (up to handle-space limits). Allocations past
// the cap fail with ErrChunkCap.
func WithMaxChunks(n int) Option {
	return func(c *config) { c.maxChunks = n }
}
