package arena

import (
	"log/slog"

	"github.com/joshuapare/arenakit/arena/alloc"
	"github.com/joshuapare/arenakit/arena/dirty"
	"github.com/joshuapare/arenakit/arena/registry"
)

type config struct {
	logger    *slog.Logger
	dt        dirty.DirtyTracker
	dtBase    int
	degree    int
	flushMode dirty.FlushMode
	history   int
}

// Option configures an Arena or File.
type Option func(*config)

// WithLogger routes allocator and file traces to l.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDirtyTracker reports every bookkeeping write to dt. base is the
// absolute offset of the block within its backing file. File sets this
// itself.
func WithDirtyTracker(dt dirty.DirtyTracker, base int) Option {
	return func(c *config) {
		c.dt = dt
		c.dtBase = base
	}
}

// WithDegree sets the B-tree degree used by NewHeap.
func WithDegree(degree int) Option {
	return func(c *config) { c.degree = degree }
}

// WithHistory keeps the last n allocator calls; see alloc.Allocator.History.
func WithHistory(n int) Option {
	return func(c *config) { c.history = n }
}

// WithFlushMode sets the durability of File commits. Defaults to dirty.FlushAuto.
func WithFlushMode(mode dirty.FlushMode) Option {
	return func(c *config) { c.flushMode = mode }
}

func buildConfig(opts []Option) config {
	var c config
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func (c config) allocOptions() []alloc.Option {
	var opts []alloc.Option
	if c.logger != nil {
		opts = append(opts, alloc.WithLogger(c.logger))
	}
	if c.history > 0 {
		opts = append(opts, alloc.WithHistory(c.history))
	}
	return opts
}

func (c config) arrayOptions() []registry.ArrayOption {
	if c.dt == nil {
		return nil
	}
	return []registry.ArrayOption{registry.WithDirtyTracker(c.dt, c.dtBase)}
}

func (c config) orderedOptions() []registry.OrderedOption {
	if c.degree <= 0 {
		return nil
	}
	return []registry.OrderedOption{registry.WithDegree(c.degree)}
}
