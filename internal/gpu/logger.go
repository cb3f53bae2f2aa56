//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"
)

// log is the logger of the GPU stage. Records carry component=gpu so they
// can be told apart from player records sharing the same handler.
var log atomic.Pointer[slog.Logger]

func init() { setLogger(nil) }

func slogger() *slog.Logger { return log.Load() }

// setLogger installs l, or a discarding logger when l is nil.
func setLogger(l *slog.Logger) {
	if l == nil {
		log.Store(slog.New(slog.DiscardHandler))
		return
	}
	log.Store(l.With("component", "gpu"))
}
