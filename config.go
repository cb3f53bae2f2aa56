package dewarp

import (
	"image"
	"io"
	"os"

	"golang.org/x/text/language"

	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/control"
	"github.com/gogpu/dewarp/remap"
)

// Presenter displays the converted and dewarped surfaces of one frame.
// The images are reused by the player and must not be retained.
type Presenter interface {
	Present(converted, dewarped *image.RGBA) error
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(converted, dewarped *image.RGBA) error

// Present calls f.
func (f PresenterFunc) Present(converted, dewarped *image.RGBA) error { return f(converted, dewarped) }

// CommandSource yields queued console commands without blocking.
// control.Console implements it.
type CommandSource interface {
	Poll() (control.Command, bool)
}

// Config holds player settings.
type Config struct {
	// Stage overrides stage selection. The player does not close a stage
	// it did not create.
	Stage remap.Stage

	// Presenter receives both surfaces after every processed frame.
	Presenter Presenter

	// Commands is polled once per step.
	Commands CommandSource

	// SessionID tags log records and snapshot names. Empty generates a UUID.
	SessionID string

	// Mode is the initial camera model.
	Mode camera.Kind

	// Language formats the parameter table.
	Language language.Tag

	// Output receives command responses.
	Output io.Writer

	// SnapshotDir is where snapshots without an explicit path are written.
	SnapshotDir string
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Mode:        camera.KindLinear,
		Language:    language.English,
		Output:      os.Stdout,
		SnapshotDir: ".",
	}
}

// Option configures a Player.
type Option func(*Config)

// WithStage uses s instead of creating a stage.
func WithStage(s remap.Stage) Option {
	return func(c *Config) { c.Stage = s }
}

// WithPresenter sets the presenter.
func WithPresenter(p Presenter) Option {
	return func(c *Config) { c.Presenter = p }
}

// WithCommands sets the command source.
func WithCommands(src CommandSource) Option {
	return func(c *Config) { c.Commands = src }
}

// WithSessionID sets the session id.
func WithSessionID(id string) Option {
	return func(c *Config) { c.SessionID = id }
}

// WithMode selects the initial camera model.
func WithMode(kind camera.Kind) Option {
	return func(c *Config) { c.Mode = kind }
}

// WithLanguage sets the language of the parameter table.
func WithLanguage(tag language.Tag) Option {
	return func(c *Config) { c.Language = tag }
}

// WithOutput redirects command responses.
func WithOutput(w io.Writer) Option {
	return func(c *Config) { c.Output = w }
}

// WithSnapshotDir sets the default snapshot directory.
func WithSnapshotDir(dir string) Option {
	return func(c *Config) { c.SnapshotDir = dir }
}
