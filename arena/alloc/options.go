package alloc

import (
	"log/slog"
	"os"

	"github.com/joshuapare/arenakit/arena/ring"
)

// Runtime debug flag for allocation logging - controlled by ARENA_LOG_ALLOC env var.
var logAlloc = os.Getenv("ARENA_LOG_ALLOC") != ""

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger used for allocation tracing. Events are logged at
// debug level.
func WithLogger(l *slog.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// WithHistory keeps the last n Alloc and Dealloc calls for History. n <= 0
// disables recording.
func WithHistory(n int) Option {
	return func(a *Allocator) {
		if n <= 0 {
			a.history = nil
			return
		}
		a.history, _ = ring.New[Event](n)
	}
}

func defaultLogger() *slog.Logger {
	if logAlloc {
		return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return slog.New(slog.DiscardHandler)
}
