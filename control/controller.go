// Package control holds the interactive state of the dewarping player: the
// selected camera model, its parameter values and the flag that tells the
// frame loop to rebuild the coordinate map.
package control

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/dewarp/camera"
	"github.com/gogpu/dewarp/internal/cache"
	"github.com/gogpu/dewarp/lut"
)

// RecentMaps is how many built coordinate maps a controller keeps so that
// switching back to a recent model skips the evaluation.
const RecentMaps = 4

// mapKey identifies a built map. Every model type is a struct of floats,
// so the interface value is comparable.
type mapKey struct {
	model         camera.Model
	width, height int
}

// Errors returned by parameter edits.
var (
	// ErrUnknownParam is returned when the active mode has no parameter
	// with the given name.
	ErrUnknownParam = errors.New("control: unknown parameter")

	// ErrInvalidValue is returned for NaN or infinite edits.
	ErrInvalidValue = errors.New("control: invalid value")
)

// Param is a parameter of the active mode together with its value.
type Param struct {
	Spec  ParamSpec
	Value float64
}

// Controller is the mode state machine. It is not safe for concurrent
// use; the frame loop owns it.
type Controller struct {
	kind   camera.Kind
	values []float64
	dirty  bool

	rebuilds    int
	lastRebuild time.Duration
	recent      *cache.Cache[mapKey, *lut.CoordinateMap]
}

// New returns a controller in linear mode. It starts dirty so the first
// loop iteration builds and uploads the identity map.
func New() *Controller {
	return &Controller{
		kind:   camera.KindLinear,
		dirty:  true,
		recent: cache.New[mapKey, *lut.CoordinateMap](RecentMaps),
	}
}

// NewWithMode returns a controller in kind with its default parameters.
func NewWithMode(kind camera.Kind) *Controller {
	c := New()
	c.SwitchMode(kind)
	return c
}

// Mode returns the active model kind.
func (c *Controller) Mode() camera.Kind { return c.kind }

// SwitchMode activates kind with its default parameters, discarding the
// current values, and marks the map dirty. Re-selecting the active mode
// also resets it.
func (c *Controller) SwitchMode(kind camera.Kind) {
	c.kind = kind
	c.values = Defaults(kind)
	c.dirty = true
}

// Reset restores the defaults of the active mode.
func (c *Controller) Reset() {
	c.SwitchMode(c.kind)
}

// Set assigns v, clamped to the parameter's range. It reports whether the
// stored value changed; only a change marks the map dirty.
func (c *Controller) Set(name string, v float64) (changed bool, err error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false, fmt.Errorf("%w: %s = %v", ErrInvalidValue, name, v)
	}
	s, i, ok := Lookup(c.kind, name)
	if !ok {
		return false, fmt.Errorf("%w: %q in %s mode", ErrUnknownParam, name, c.kind)
	}
	v = s.Clamp(v)
	if c.values[i] == v {
		return false, nil
	}
	c.values[i] = v
	c.dirty = true
	return true, nil
}

// Nudge moves a parameter by steps drag steps and returns the new value.
func (c *Controller) Nudge(name string, steps int) (float64, bool, error) {
	s, i, ok := Lookup(c.kind, name)
	if !ok {
		return 0, false, fmt.Errorf("%w: %q in %s mode", ErrUnknownParam, name, c.kind)
	}
	changed, err := c.Set(s.Name, c.values[i]+float64(steps)*s.Step)
	return c.values[i], changed, err
}

// Value returns the current value of a parameter of the active mode.
func (c *Controller) Value(name string) (float64, error) {
	_, i, ok := Lookup(c.kind, name)
	if !ok {
		return 0, fmt.Errorf("%w: %q in %s mode", ErrUnknownParam, name, c.kind)
	}
	return c.values[i], nil
}

// Params returns the parameters of the active mode in editor order.
func (c *Controller) Params() []Param {
	specs := Specs(c.kind)
	out := make([]Param, len(specs))
	for i, s := range specs {
		out[i] = Param{Spec: s, Value: c.values[i]}
	}
	return out
}

// Model builds the camera model described by the current state.
func (c *Controller) Model() camera.Model {
	return buildModel(c.kind, c.values)
}

// Dirty reports whether the coordinate map is stale.
func (c *Controller) Dirty() bool { return c.dirty }

// MarkDirty forces the next Rebuild.
func (c *Controller) MarkDirty() { c.dirty = true }

// Rebuild regenerates m from the current model when the state is dirty
// and clears the flag. It reports whether a rebuild happened. On error the
// state stays dirty. Maps of the last few models are copied from memory
// instead of being evaluated again.
func (c *Controller) Rebuild(m *lut.CoordinateMap) (bool, error) {
	if !c.dirty {
		return false, nil
	}
	start := time.Now()
	key := mapKey{model: c.Model(), width: m.Width, height: m.Height}
	if cached, ok := c.recent.Get(key); ok {
		if err := m.CopyFrom(cached); err != nil {
			return false, err
		}
	} else {
		if err := m.EncodeModel(key.model); err != nil {
			return false, err
		}
		kept, err := lut.New(m.Width, m.Height)
		if err != nil {
			return false, err
		}
		_ = kept.CopyFrom(m)
		c.recent.Set(key, kept)
	}
	c.lastRebuild = time.Since(start)
	c.rebuilds++
	c.dirty = false
	return true, nil
}

// CacheStats reports how many maps are kept and how many rebuilds were
// served from them.
func (c *Controller) CacheStats() (entries, hits int) {
	s := c.recent.Stats()
	return s.Len, s.Hits
}

// Stats returns the number of rebuilds so far and the duration of the
// last one.
func (c *Controller) Stats() (rebuilds int, last time.Duration) {
	return c.rebuilds, c.lastRebuild
}
