//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// renderPass is one full screen pipeline: a shader, its bind group layout
// and the render pipeline drawing into an RGBA8Unorm surface. The bind
// group is created later, once the textures it references exist.
type renderPass struct {
	label      string
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	bindGroup  hal.BindGroup
}

func textureEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageFragment,
		Texture: &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		},
	}
}

func samplerEntry(binding uint32) gputypes.BindGroupLayoutEntry {
	return gputypes.BindGroupLayoutEntry{
		Binding:    binding,
		Visibility: gputypes.ShaderStageFragment,
		Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
	}
}

// Bind group layouts, in shader binding order.
//
//	yuv:   texture_y, texture_u, texture_v, plane_sampler
//	remap: tex, lut, frame_sampler
func yuvLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{textureEntry(0), textureEntry(1), textureEntry(2), samplerEntry(3)}
}

func remapLayoutEntries() []gputypes.BindGroupLayoutEntry {
	return []gputypes.BindGroupLayoutEntry{textureEntry(0), textureEntry(1), samplerEntry(2)}
}

// createRenderPass compiles source and builds the pipeline around it.
func createRenderPass(device hal.Device, label, source string, entries []gputypes.BindGroupLayoutEntry) (*renderPass, error) {
	p := &renderPass{label: label}

	shader, err := device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  label + "_shader",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("compile %s shader: %w", label, err)
	}
	p.shader = shader

	bindLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   label + "_bind_layout",
		Entries: entries,
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s bind layout: %w", label, err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            label + "_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{bindLayout},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s pipeline layout: %w", label, err)
	}
	p.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  label + "_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{{
				Format:    gputypes.TextureFormatRGBA8Unorm,
				WriteMask: gputypes.ColorWriteMaskAll,
			}},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.destroy(device)
		return nil, fmt.Errorf("create %s pipeline: %w", label, err)
	}
	p.pipeline = pipeline
	return p, nil
}

// bind creates the pass's bind group from texture views followed by a
// sampler.
func (p *renderPass) bind(device hal.Device, views []hal.TextureView, sampler hal.Sampler) error {
	entries := make([]gputypes.BindGroupEntry, 0, len(views)+1)
	for i, v := range views {
		entries = append(entries, gputypes.BindGroupEntry{
			Binding: uint32(i),
			Resource: gputypes.TextureViewBinding{
				TextureView: v.NativeHandle(),
			},
		})
	}
	entries = append(entries, gputypes.BindGroupEntry{
		Binding:  uint32(len(views)),
		Resource: gputypes.SamplerBinding{Sampler: sampler.NativeHandle()},
	})
	bg, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   p.label + "_bind_group",
		Layout:  p.bindLayout,
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("create %s bind group: %w", p.label, err)
	}
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
	}
	p.bindGroup = bg
	return nil
}

// record draws the quad into target.
func (p *renderPass) record(encoder hal.CommandEncoder, target hal.TextureView, vertices, indices hal.Buffer) {
	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: p.label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       target,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, p.bindGroup, nil)
	rp.SetVertexBuffer(0, vertices, 0)
	rp.SetIndexBuffer(indices, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(quadIndexCount, 1, 0, 0, 0)
	rp.End()
}

func (p *renderPass) destroy(device hal.Device) {
	if p.bindGroup != nil {
		device.DestroyBindGroup(p.bindGroup)
		p.bindGroup = nil
	}
	if p.pipeline != nil {
		device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
