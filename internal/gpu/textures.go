//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// texture is a 2D texture and its default view.
type texture struct {
	tex  hal.Texture
	view hal.TextureView
}

func (t *texture) destroy(device hal.Device) {
	if t.view != nil {
		device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// frameTextures holds every texture a stage renders with, all created at
// video resolution except the chroma planes.
//
//   - y, u, v: R8Unorm, TextureBinding | CopyDst
//   - surfaceA, surfaceB: RGBA8Unorm, RenderAttachment | TextureBinding | CopySrc
//   - coords: RGBA8Unorm, TextureBinding | CopyDst
type frameTextures struct {
	y, u, v            texture
	surfaceA, surfaceB texture
	coords             texture
	width, height      uint32
	chromaW, chromaH   uint32
}

func newTexture(device hal.Device, label string, w, h uint32, format gputypes.TextureFormat, usage gputypes.TextureUsage) (texture, error) {
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        format,
		Usage:         usage,
	})
	if err != nil {
		return texture{}, fmt.Errorf("create %s texture: %w", label, err)
	}
	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		device.DestroyTexture(tex)
		return texture{}, fmt.Errorf("create %s view: %w", label, err)
	}
	return texture{tex: tex, view: view}, nil
}

// create allocates all textures for a w by h video.
func (ft *frameTextures) create(device hal.Device, w, h uint32) error {
	ft.destroy(device)
	cw, ch := (w+1)/2, (h+1)/2

	const (
		planeUsage   = gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst
		surfaceUsage = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopySrc
	)
	specs := []struct {
		dst    *texture
		label  string
		w, h   uint32
		format gputypes.TextureFormat
		usage  gputypes.TextureUsage
	}{
		{&ft.y, "plane_y", w, h, gputypes.TextureFormatR8Unorm, planeUsage},
		{&ft.u, "plane_u", cw, ch, gputypes.TextureFormatR8Unorm, planeUsage},
		{&ft.v, "plane_v", cw, ch, gputypes.TextureFormatR8Unorm, planeUsage},
		{&ft.surfaceA, "surface_a", w, h, gputypes.TextureFormatRGBA8Unorm, surfaceUsage},
		{&ft.surfaceB, "surface_b", w, h, gputypes.TextureFormatRGBA8Unorm, surfaceUsage},
		{&ft.coords, "coordinate_map", w, h, gputypes.TextureFormatRGBA8Unorm, planeUsage},
	}
	for _, s := range specs {
		t, err := newTexture(device, s.label, s.w, s.h, s.format, s.usage)
		if err != nil {
			ft.destroy(device)
			return err
		}
		*s.dst = t
	}
	ft.width, ft.height = w, h
	ft.chromaW, ft.chromaH = cw, ch
	return nil
}

func (ft *frameTextures) destroy(device hal.Device) {
	for _, t := range []*texture{&ft.y, &ft.u, &ft.v, &ft.surfaceA, &ft.surfaceB, &ft.coords} {
		t.destroy(device)
	}
}

// writePlane uploads one 8-bit plane honoring its row stride.
func writePlane(queue hal.Queue, t texture, data []byte, stride int, w, h uint32) {
	queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(stride), RowsPerImage: h},
		&hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	)
}
