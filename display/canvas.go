// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package display

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/dewarp"
	"github.com/gogpu/dewarp/preview"
)

// Common errors returned by Canvas operations.
var (
	// ErrCanvasClosed is returned when operations are attempted on a closed canvas.
	ErrCanvasClosed = errors.New("display: canvas is closed")

	// ErrNilProvider is returned when a nil DeviceProvider is passed.
	ErrNilProvider = errors.New("display: nil DeviceProvider")

	// ErrInvalidRenderer is returned when the draw context has no texture creator.
	ErrInvalidRenderer = errors.New("display: draw context has no texture creator")

	// ErrInvalidTexture is returned when a created texture cannot be drawn.
	ErrInvalidTexture = errors.New("display: texture does not implement gpucontext.Texture")

	// ErrNothingToShow is returned by RenderTo before the first Present.
	ErrNothingToShow = errors.New("display: no frame presented")
)

// textureDestroyer matches the gogpu.Texture.Destroy signature.
type textureDestroyer interface {
	Destroy()
}

// sink creates and draws textures. It is satisfied by a
// gpucontext.TextureDrawer through drawerSink.
type sink interface {
	create(w, h int, data []byte) (any, error)
	draw(tex any, x, y float32) error
}

type drawerSink struct{ dc gpucontext.TextureDrawer }

func (s drawerSink) create(w, h int, data []byte) (any, error) {
	creator := s.dc.TextureCreator()
	if creator == nil {
		return nil, ErrInvalidRenderer
	}
	tex, err := creator.NewTextureFromRGBA(w, h, data)
	if err != nil {
		return nil, err
	}
	return tex, nil
}

func (s drawerSink) draw(tex any, x, y float32) error {
	t, ok := tex.(gpucontext.Texture)
	if !ok {
		return ErrInvalidTexture
	}
	return s.dc.DrawTexture(t, x, y)
}

// Canvas shows the converted frame on the left and the dewarped frame on
// the right.
type Canvas struct {
	provider gpucontext.DeviceProvider
	composer *preview.Composer
	frame    *image.RGBA
	texture  any
	dirty    bool
	frames   int
	closed   bool
}

var _ dewarp.Presenter = (*Canvas)(nil)

// New creates a canvas of two panelW by panelH panels. The provider should
// come from gogpu.App.GPUContextProvider().
func New(provider gpucontext.DeviceProvider, panelW, panelH int) (*Canvas, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	// Non-fatal: the factory may not share devices, or the provider may
	// not expose HAL types. The stage then opens its own device.
	if err := dewarp.SetStageDeviceProvider(provider); err != nil {
		dewarp.Logger().Warn("display: device sharing unavailable", "err", err)
	}
	return &Canvas{
		provider: provider,
		composer: preview.NewComposer(panelW, panelH),
	}, nil
}

// Size returns the canvas size in pixels.
func (c *Canvas) Size() (width, height int) { return c.composer.Size() }

// Frames returns the number of frames presented.
func (c *Canvas) Frames() int { return c.frames }

// Present composes both surfaces. The upload is deferred to RenderTo.
func (c *Canvas) Present(converted, dewarped *image.RGBA) error {
	if c.closed {
		return ErrCanvasClosed
	}
	img, err := c.composer.Compose(converted, dewarped)
	if err != nil {
		return err
	}
	c.frame = img
	c.dirty = true
	c.frames++
	return nil
}

// RenderTo uploads the latest composition if it changed and draws it at
// the window origin. dc should come from gogpu.Context.AsTextureDrawer().
func (c *Canvas) RenderTo(dc gpucontext.TextureDrawer) error {
	return c.render(drawerSink{dc: dc})
}

func (c *Canvas) render(s sink) error {
	if c.closed {
		return ErrCanvasClosed
	}
	if c.frame == nil {
		return ErrNothingToShow
	}
	if err := c.flush(s); err != nil {
		return err
	}
	return s.draw(c.texture, 0, 0)
}

// flush creates the texture lazily and updates it when dirty.
func (c *Canvas) flush(s sink) error {
	if !c.dirty && c.texture != nil {
		return nil
	}
	w, h := c.Size()
	if c.texture == nil {
		tex, err := s.create(w, h, c.frame.Pix)
		if err != nil {
			return fmt.Errorf("display: create texture: %w", err)
		}
		c.texture = tex
		c.dirty = false
		return nil
	}
	if updater, ok := c.texture.(gpucontext.TextureUpdater); ok {
		if err := updater.UpdateData(c.frame.Pix); err != nil {
			return fmt.Errorf("display: texture update failed: %w", err)
		}
	}
	c.dirty = false
	return nil
}

// Close releases the texture. Close is idempotent.
func (c *Canvas) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if destroyer, ok := c.texture.(textureDestroyer); ok {
		destroyer.Destroy()
	}
	c.texture = nil
	c.frame = nil
	c.provider = nil
	return nil
}
