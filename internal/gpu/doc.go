//go:build !nogpu

// Package gpu implements the remap stage on the GPU using the gogpu/wgpu
// HAL (pure Go, Vulkan backend).
//
// # Passes
//
// Every frame runs two render passes over a full screen quad:
//
//	Y, U, V planes (R8Unorm) --yuv.wgsl--> surface A (RGBA8Unorm)
//	surface A + coordinate map --remap.wgsl--> surface B (RGBA8Unorm)
//
// The plane textures, both surfaces and the coordinate map texture are
// created once at video resolution. UploadLUT rewrites the map texture in
// place; Process uploads the planes honoring their row strides.
//
// # Device sharing
//
// A StageFactory opens its own Vulkan device on first use. When a host
// window already owns a device, SetDeviceProvider switches the factory to
// it. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue.
//
// # Readback
//
// ReadSurfaces copies both surfaces into staging buffers whose rows are
// padded to 256 bytes, waits on a fence and strips the padding.
package gpu
