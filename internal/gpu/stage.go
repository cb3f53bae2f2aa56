//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/dewarp/lut"
	"github.com/gogpu/dewarp/remap"
	"github.com/gogpu/dewarp/video"
)

// fenceTimeout bounds every wait for submitted work.
const fenceTimeout = 5 * time.Second

// RemapStage runs the color conversion and remap passes on the GPU. It
// implements remap.Stage.
type RemapStage struct {
	device hal.Device
	queue  hal.Queue

	textures frameTextures
	sampler  hal.Sampler
	convert  *renderPass
	remap    *renderPass

	vertexBuf hal.Buffer
	indexBuf  hal.Buffer

	// Staging buffers for ReadSurfaces, rows padded to pitch.
	stagingA hal.Buffer
	stagingB hal.Buffer
	pitch    uint32
	readback []byte

	hasLUT    bool
	processed bool
	closed    bool
}

var _ remap.Stage = (*RemapStage)(nil)

// newRemapStage creates all device objects for a w by h video.
func newRemapStage(dev *device, w, h int) (*RemapStage, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", remap.ErrSizeMismatch, w, h)
	}
	s := &RemapStage{device: dev.device, queue: dev.queue}
	if err := s.init(uint32(w), uint32(h)); err != nil {
		s.release()
		return nil, err
	}
	slogger().Debug("gpu: remap stage created", "width", w, "height", h, "adapter", dev.name)
	return s, nil
}

func (s *RemapStage) init(w, h uint32) error {
	var err error
	if err = s.textures.create(s.device, w, h); err != nil {
		return err
	}
	s.sampler, err = s.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "frame_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeLinear,
		MinFilter:    gputypes.FilterModeLinear,
		MipmapFilter: gputypes.FilterModeLinear,
	})
	if err != nil {
		return fmt.Errorf("create sampler: %w", err)
	}

	if s.convert, err = createRenderPass(s.device, "yuv", yuvShaderSource, yuvLayoutEntries()); err != nil {
		return err
	}
	if s.remap, err = createRenderPass(s.device, "remap", remapShaderSource, remapLayoutEntries()); err != nil {
		return err
	}
	t := &s.textures
	if err = s.convert.bind(s.device, []hal.TextureView{t.y.view, t.u.view, t.v.view}, s.sampler); err != nil {
		return err
	}
	if err = s.remap.bind(s.device, []hal.TextureView{t.surfaceA.view, t.coords.view}, s.sampler); err != nil {
		return err
	}

	if s.vertexBuf, err = s.createAndUploadBuffer("quad_vertices", quadVertexBytes(),
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst); err != nil {
		return err
	}
	if s.indexBuf, err = s.createAndUploadBuffer("quad_indices", quadIndexBytes(),
		gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst); err != nil {
		return err
	}

	s.pitch = alignedBytesPerRow(w)
	size := uint64(s.pitch) * uint64(h)
	for _, dst := range []*hal.Buffer{&s.stagingA, &s.stagingB} {
		*dst, err = s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "surface_staging",
			Size:  size,
			Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create staging buffer: %w", err)
		}
	}
	s.readback = make([]byte, size)
	return nil
}

func (s *RemapStage) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", label, err)
	}
	s.queue.WriteBuffer(buf, 0, data)
	return buf, nil
}

// Size returns the surface size.
func (s *RemapStage) Size() (int, int) {
	return int(s.textures.width), int(s.textures.height)
}

// UploadLUT rewrites the coordinate map texture.
func (s *RemapStage) UploadLUT(m *lut.CoordinateMap) error {
	if s.closed {
		return remap.ErrClosed
	}
	w, h := s.Size()
	if m == nil || m.Width != w || m.Height != h {
		return remap.ErrSizeMismatch
	}
	writePlane(s.queue, s.textures.coords, m.Bytes(), m.Stride(), uint32(w), uint32(h))
	s.hasLUT = true
	return nil
}

// Process uploads the planes of f and runs both passes, waiting for the
// GPU to finish.
func (s *RemapStage) Process(f *video.Frame) error {
	if s.closed {
		return remap.ErrClosed
	}
	if !s.hasLUT {
		return remap.ErrNoLUT
	}
	if err := f.Validate(); err != nil {
		return err
	}
	t := &s.textures
	if f.Width != int(t.width) || f.Height != int(t.height) {
		return fmt.Errorf("%w: frame %dx%d, stage %dx%d", remap.ErrSizeMismatch, f.Width, f.Height, t.width, t.height)
	}
	writePlane(s.queue, t.y, f.Y, f.YStride, t.width, t.height)
	writePlane(s.queue, t.u, f.U, f.UVStride, t.chromaW, t.chromaH)
	writePlane(s.queue, t.v, f.V, f.UVStride, t.chromaW, t.chromaH)

	err := s.submit("remap_frame", func(encoder hal.CommandEncoder) {
		s.convert.record(encoder, t.surfaceA.view, s.vertexBuf, s.indexBuf)
		transition(encoder, t.surfaceA.tex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageTextureBinding)
		s.remap.record(encoder, t.surfaceB.view, s.vertexBuf, s.indexBuf)
		transition(encoder, t.surfaceA.tex, gputypes.TextureUsageTextureBinding, gputypes.TextureUsageRenderAttachment)
	})
	if err != nil {
		return err
	}
	s.processed = true
	return nil
}

// ReadSurfaces copies both surfaces back to the CPU.
func (s *RemapStage) ReadSurfaces(converted, dewarped *image.RGBA) error {
	if s.closed {
		return remap.ErrClosed
	}
	if !s.processed {
		return remap.ErrNotProcessed
	}
	w, h := s.Size()
	for _, img := range []*image.RGBA{converted, dewarped} {
		if img != nil && (img.Rect.Dx() != w || img.Rect.Dy() != h) {
			return fmt.Errorf("%w: image %v, stage %dx%d", remap.ErrSizeMismatch, img.Rect.Size(), w, h)
		}
	}
	pairs := []struct {
		img     *image.RGBA
		tex     hal.Texture
		staging hal.Buffer
	}{
		{converted, s.textures.surfaceA.tex, s.stagingA},
		{dewarped, s.textures.surfaceB.tex, s.stagingB},
	}
	err := s.submit("read_surfaces", func(encoder hal.CommandEncoder) {
		for _, p := range pairs {
			if p.img == nil {
				continue
			}
			transition(encoder, p.tex, gputypes.TextureUsageRenderAttachment, gputypes.TextureUsageCopySrc)
			encoder.CopyTextureToBuffer(p.tex, p.staging, []hal.BufferTextureCopy{{
				BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: s.pitch, RowsPerImage: uint32(h)},
				TextureBase:  hal.ImageCopyTexture{Texture: p.tex, MipLevel: 0},
				Size:         hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
			}})
			transition(encoder, p.tex, gputypes.TextureUsageCopySrc, gputypes.TextureUsageRenderAttachment)
		}
	})
	if err != nil {
		return err
	}
	for _, p := range pairs {
		if p.img == nil {
			continue
		}
		if err := s.queue.ReadBuffer(p.staging, 0, s.readback); err != nil {
			return fmt.Errorf("readback: %w", err)
		}
		stripRows(p.img.Pix[p.img.PixOffset(p.img.Rect.Min.X, p.img.Rect.Min.Y):], p.img.Stride,
			s.readback, int(s.pitch), w*4, h)
	}
	return nil
}

func transition(encoder hal.CommandEncoder, tex hal.Texture, from, to gputypes.TextureUsage) {
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: to},
	}})
}

// submit encodes commands with record, submits them and waits on a fence.
func (s *RemapStage) submit(label string, record func(hal.CommandEncoder)) error {
	encoder, err := s.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: label + "_encoder"})
	if err != nil {
		return fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding(label); err != nil {
		return fmt.Errorf("begin encoding: %w", err)
	}
	record(encoder)

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	defer s.device.FreeCommandBuffer(cmdBuf)

	fence, err := s.device.CreateFence()
	if err != nil {
		return fmt.Errorf("create fence: %w", err)
	}
	defer s.device.DestroyFence(fence)

	if err := s.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	ok, err := s.device.Wait(fence, 1, fenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("wait for GPU: ok=%v err=%w", ok, err)
	}
	return nil
}

// Close releases every device object. The device itself belongs to the
// factory.
func (s *RemapStage) Close() error {
	if s.closed {
		return nil
	}
	s.release()
	s.closed = true
	return nil
}

func (s *RemapStage) release() {
	if s.device == nil {
		return
	}
	for _, b := range []*hal.Buffer{&s.stagingA, &s.stagingB, &s.vertexBuf, &s.indexBuf} {
		if *b != nil {
			s.device.DestroyBuffer(*b)
			*b = nil
		}
	}
	for _, p := range []*renderPass{s.convert, s.remap} {
		if p != nil {
			p.destroy(s.device)
		}
	}
	if s.sampler != nil {
		s.device.DestroySampler(s.sampler)
		s.sampler = nil
	}
	s.textures.destroy(s.device)
}
