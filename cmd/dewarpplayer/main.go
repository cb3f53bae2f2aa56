// Command dewarpplayer plays a video and corrects lens distortion live.
//
// Usage:
//
//	dewarpplayer <video-path-or-uri>
//
// The window shows the converted frame on the left and the dewarped frame
// on the right. Space pauses playback. Camera parameters are edited by
// typing commands on standard input; "help" lists them.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/dewarp"
	"github.com/gogpu/dewarp/control"
	"github.com/gogpu/dewarp/display"
	_ "github.com/gogpu/dewarp/gpu" // register the GPU remap stage
	"github.com/gogpu/dewarp/internal/source"
	"github.com/gogpu/dewarp/preview"
	"github.com/gogpu/dewarp/video"
)

const usage = "Usage:\n  dewarpplayer <video-path-or-uri>"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, usage)
		return -1
	}
	level := slog.LevelInfo
	if os.Getenv("DEWARP_DEBUG") != "" {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	dewarp.SetLogger(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dec, err := source.Open(ctx, args[0], log)
	if err != nil {
		log.Error("open source", "source", args[0], "err", err)
		fmt.Fprintln(os.Stderr, usage)
		return -1
	}
	defer dec.Close()

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("Dewarping Player").
		WithSize(2*preview.PanelWidth, preview.PanelHeight))

	s := &session{
		dec:      dec,
		log:      log,
		commands: control.NewConsole(os.Stdin),
	}

	app.OnDraw(func(dc *gogpu.Context) {
		if !s.frame(ctx, app, dc) {
			app.Quit()
		}
	})

	// Key events are queued and applied on the draw callback.
	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if key == gpucontext.KeySpace {
			s.pauses.Add(1)
		}
	})

	app.OnClose(func() {
		cancel()
		s.close()
	})

	fmt.Fprintln(os.Stdout, control.Usage)
	if err := app.Run(); err != nil {
		log.Error("window", "err", err)
		return -1
	}
	s.close()
	if s.setupErr != nil {
		log.Error("setup", "err", s.setupErr)
		return -1
	}
	return 0
}

// session holds the state shared by the window callbacks.
type session struct {
	dec      video.Decoder
	log      *slog.Logger
	commands *control.Console
	pauses   atomic.Int32

	canvas   *display.Canvas
	player   *dewarp.Player
	setupErr error
	done     bool
	closed   bool
}

// frame runs one player step and draws the result. It returns false when
// the window should close.
func (s *session) frame(ctx context.Context, app *gogpu.App, dc *gogpu.Context) bool {
	if s.done {
		return false
	}
	if s.player == nil {
		if err := s.setup(app); err != nil {
			s.setupErr = fmt.Errorf("%w: %w", dewarp.ErrSetup, err)
			s.done = true
			return false
		}
	}
	if n := s.pauses.Swap(0); n%2 == 1 {
		s.player.TogglePause()
	}

	err := s.player.Step(ctx)
	switch {
	case err == nil:
	case errors.Is(err, dewarp.ErrEndOfStream), errors.Is(err, dewarp.ErrQuit):
		s.done = true
		return false
	case errors.Is(err, dewarp.ErrDecode):
		// Decoding failures end playback but are not a setup failure.
		s.log.Error("decode", "err", err)
		s.done = true
		return false
	default:
		s.log.Error("step", "err", err)
		s.done = true
		return false
	}

	if err := s.canvas.RenderTo(dc.AsTextureDrawer()); err != nil && !errors.Is(err, display.ErrNothingToShow) {
		s.log.Warn("render", "err", err)
	}
	return true
}

// setup creates the canvas first so the GPU stage can share the window's
// device, then the player.
func (s *session) setup(app *gogpu.App) error {
	provider := app.GPUContextProvider()
	if provider == nil {
		return errors.New("no GPU context provider")
	}
	canvas, err := display.New(provider, preview.PanelWidth, preview.PanelHeight)
	if err != nil {
		return err
	}
	player, err := dewarp.New(s.dec,
		dewarp.WithPresenter(canvas),
		dewarp.WithCommands(s.commands),
	)
	if err != nil {
		canvas.Close()
		return err
	}
	s.canvas, s.player = canvas, player
	return nil
}

func (s *session) close() {
	if s.closed {
		return
	}
	s.closed = true
	if s.player != nil {
		s.player.Close()
	}
	if s.canvas != nil {
		s.canvas.Close()
	}
	if f := dewarp.RegisteredStageFactory(); f != nil {
		f.Close()
	}
}
