package dewarp

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/gogpu/dewarp/control"
	"github.com/gogpu/dewarp/lut"
	"github.com/gogpu/dewarp/preview"
	"github.com/gogpu/dewarp/remap"
	"github.com/gogpu/dewarp/video"
)

// Player drives one playback session: it pulls frames from a decoder,
// keeps the coordinate map in sync with the controller and runs every
// frame through the stage.
//
// A Player is not safe for concurrent use. Commands from other goroutines
// arrive through the CommandSource.
type Player struct {
	cfg      Config
	dec      video.Decoder
	ctrl     *control.Controller
	stage    remap.Stage
	ownStage bool
	coords   *lut.CoordinateMap
	composer *preview.Composer
	log      *slog.Logger

	converted *image.RGBA
	dewarped  *image.RGBA
	last      *video.Frame
	frames    int
	paused    bool
	closed    bool
}

// New creates a player for dec. The stage is sized to the decoder.
// Errors wrap ErrSetup.
func New(dec video.Decoder, opts ...Option) (*Player, error) {
	if dec == nil {
		return nil, fmt.Errorf("%w: nil decoder", ErrSetup)
	}
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.Output == nil {
		cfg.Output = io.Discard
	}

	w, h := dec.Size()
	coords, err := lut.New(w, h)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSetup, err)
	}
	p := &Player{
		cfg:      cfg,
		dec:      dec,
		ctrl:     control.NewWithMode(cfg.Mode),
		stage:    cfg.Stage,
		coords:   coords,
		composer: preview.NewComposer(0, 0),
		log:      Logger().With("session", cfg.SessionID),
	}
	if p.stage == nil {
		p.stage, err = NewStage(w, h)
		if err != nil {
			return nil, fmt.Errorf("%w: stage: %w", ErrSetup, err)
		}
		p.ownStage = true
	}
	if sw, sh := p.stage.Size(); sw != w || sh != h {
		p.closeStage()
		return nil, fmt.Errorf("%w: stage %dx%d, video %dx%d", ErrSetup, sw, sh, w, h)
	}
	p.converted = remap.NewSurface(p.stage)
	p.dewarped = remap.NewSurface(p.stage)
	p.log.Info("dewarp: session started", "width", w, "height", h, "mode", cfg.Mode.String())
	return p, nil
}

// SessionID returns the session id.
func (p *Player) SessionID() string { return p.cfg.SessionID }

// Controller returns the parameter controller. It must only be used from
// the goroutine that calls Step.
func (p *Player) Controller() *control.Controller { return p.ctrl }

// Frames returns the number of frames processed.
func (p *Player) Frames() int { return p.frames }

// Surfaces returns the surfaces of the last processed frame.
func (p *Player) Surfaces() (converted, dewarped *image.RGBA) { return p.converted, p.dewarped }

// Paused reports whether playback is paused.
func (p *Player) Paused() bool { return p.paused }

// SetPaused pauses or resumes playback. While paused Step keeps applying
// commands and re-renders the last frame when the map changes.
func (p *Player) SetPaused(paused bool) {
	if p.paused != paused {
		p.paused = paused
		p.log.Info("dewarp: playback", "paused", paused)
	}
}

// TogglePause flips the paused state.
func (p *Player) TogglePause() { p.SetPaused(!p.paused) }

// Step runs one loop iteration: apply pending commands, rebuild the map
// if needed, pull one frame and process it.
//
// Step returns ErrEndOfStream when the source is exhausted, ErrQuit after
// a quit command and an error wrapping ErrDecode when decoding fails. A
// frame that is not ready yet is not an error.
func (p *Player) Step(ctx context.Context) error {
	if p.closed {
		return ErrClosed
	}
	if err := p.drainCommands(); err != nil {
		return err
	}
	rebuilt, err := p.syncMap()
	if err != nil {
		return err
	}

	if p.paused {
		if rebuilt && p.last != nil {
			return p.render(p.last)
		}
		return nil
	}

	f, err := p.dec.Next(ctx)
	switch {
	case err == nil:
	case errors.Is(err, video.ErrNoFrame):
		return nil
	case video.IsEndOfStream(err):
		p.log.Info("dewarp: end of stream", "frames", p.frames)
		return ErrEndOfStream
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	p.last = f
	return p.render(f)
}

// Run calls Step until ctx is done, the stream ends or a quit command
// arrives, all of which return nil. Decode and stage failures are
// returned.
func (p *Player) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		err := p.Step(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrEndOfStream), errors.Is(err, ErrQuit):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			return err
		}
	}
}

func (p *Player) render(f *video.Frame) error {
	if err := p.stage.Process(f); err != nil {
		if errors.Is(err, remap.ErrSizeMismatch) || errors.Is(err, video.ErrInvalidFrame) {
			return fmt.Errorf("%w: %w", ErrDecode, err)
		}
		return fmt.Errorf("dewarp: process frame %d: %w", f.Index, err)
	}
	if err := p.stage.ReadSurfaces(p.converted, p.dewarped); err != nil {
		return fmt.Errorf("dewarp: read surfaces: %w", err)
	}
	p.frames++
	if p.cfg.Presenter != nil {
		if err := p.cfg.Presenter.Present(p.converted, p.dewarped); err != nil {
			return fmt.Errorf("dewarp: present: %w", err)
		}
	}
	return nil
}

// syncMap rebuilds and uploads the coordinate map when the controller is
// dirty.
func (p *Player) syncMap() (bool, error) {
	rebuilt, err := p.ctrl.Rebuild(p.coords)
	if err != nil {
		return false, fmt.Errorf("dewarp: rebuild map: %w", err)
	}
	if !rebuilt {
		return false, nil
	}
	if err := p.stage.UploadLUT(p.coords); err != nil {
		return false, fmt.Errorf("dewarp: upload map: %w", err)
	}
	n, elapsed := p.ctrl.Stats()
	_, hits := p.ctrl.CacheStats()
	p.log.Debug("dewarp: map rebuilt", "mode", p.ctrl.Mode().String(), "rebuilds", n, "cache_hits", hits, "elapsed", elapsed)
	return true, nil
}

func (p *Player) drainCommands() error {
	if p.cfg.Commands == nil {
		return nil
	}
	for {
		cmd, ok := p.cfg.Commands.Poll()
		if !ok {
			return nil
		}
		if err := p.exec(cmd); err != nil {
			return err
		}
	}
}

// exec runs one command. Bad commands are reported on the output and do
// not stop playback.
func (p *Player) exec(cmd control.Command) error {
	p.log.Info("dewarp: command", "op", cmd.Op.String(), "param", cmd.Param)
	out := p.cfg.Output
	switch cmd.Op {
	case control.OpQuit:
		return ErrQuit
	case control.OpHelp:
		fmt.Fprintln(out, control.Usage)
	case control.OpShow:
		if err := p.ctrl.WriteTable(out, p.cfg.Language); err != nil {
			p.log.Warn("dewarp: show", "err", err)
		}
	case control.OpSnapshot:
		path, err := p.Snapshot(cmd.Path)
		if err != nil {
			fmt.Fprintf(out, "snapshot: %v\n", err)
			return nil
		}
		fmt.Fprintf(out, "saved %s\n", path)
	default:
		if _, err := p.ctrl.Apply(cmd); err != nil {
			p.log.Warn("dewarp: command rejected", "err", err)
			fmt.Fprintf(out, "%v\n", err)
		}
	}
	return nil
}

// Snapshot writes the side by side composition of the last frame as PNG.
// An empty path picks a name in the snapshot directory.
func (p *Player) Snapshot(path string) (string, error) {
	if p.frames == 0 {
		return "", remap.ErrNotProcessed
	}
	if path == "" {
		path = filepath.Join(p.cfg.SnapshotDir,
			fmt.Sprintf("dewarp-%s-%06d.png", shortID(p.cfg.SessionID), p.frames))
	}
	img, err := p.composer.Compose(p.converted, p.dewarped)
	if err != nil {
		return "", err
	}
	if err := preview.SavePNG(path, img); err != nil {
		return "", err
	}
	return path, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (p *Player) closeStage() {
	if p.ownStage && p.stage != nil {
		if err := p.stage.Close(); err != nil {
			p.log.Warn("dewarp: close stage", "err", err)
		}
	}
	p.stage = nil
}

// Close releases the stage if the player created it. The decoder belongs
// to the caller.
func (p *Player) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	p.closeStage()
	p.log.Info("dewarp: session closed", "frames", p.frames)
	return nil
}
