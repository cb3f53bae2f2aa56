package dewarp

import (
	"log/slog"
	"sync/atomic"
)

// current is the logger used by the player and handed to the stage
// factory. It discards everything until SetLogger is called.
var current atomic.Pointer[slog.Logger]

func init() { current.Store(silent()) }

func silent() *slog.Logger { return slog.New(slog.DiscardHandler) }

// SetLogger configures the logger for dewarp and the registered stage
// factory. Pass nil to restore silent behavior.
//
// Log levels:
//   - [slog.LevelDebug]: coordinate map rebuilds, stage creation
//   - [slog.LevelInfo]: session lifecycle, console commands, adapter selection
//   - [slog.LevelWarn]: CPU fallback, rejected commands, skipped frames
//
// Example:
//
//	dewarp.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = silent()
	}
	current.Store(l)

	if f := RegisteredStageFactory(); f != nil {
		propagateLogger(f, l)
	}
}

// Logger returns the current logger. Sub-packages (gpu, display) use it
// to share the same configuration.
func Logger() *slog.Logger {
	return current.Load()
}

// loggerSetter is implemented by stage factories that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

func propagateLogger(f StageFactory, l *slog.Logger) {
	if ls, ok := f.(loggerSetter); ok {
		ls.SetLogger(l)
	}
}
