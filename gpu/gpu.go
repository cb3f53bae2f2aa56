//go:build !nogpu

// Package gpu registers the GPU remap stage.
//
// Import this package to run the color conversion and remap passes on the
// GPU through gogpu/wgpu (pure Go, Vulkan backend). Shaders are validated
// at registration; the device is opened when the first stage is created.
//
// If no adapter is available, dewarp.NewStage logs a warning and falls
// back to the CPU stage.
//
// Usage:
//
//	import _ "github.com/gogpu/dewarp/gpu" // enable the GPU remap stage
package gpu

import (
	"github.com/gogpu/dewarp"
	"github.com/gogpu/dewarp/remap"

	gpuimpl "github.com/gogpu/dewarp/internal/gpu"
)

var factory = &gpuimpl.StageFactory{}

func init() {
	if err := dewarp.RegisterStageFactory(factory); err != nil {
		dewarp.Logger().Warn("GPU remap stage not available", "err", err)
	}
}

// NewStage creates a GPU stage for a width x height video without any
// CPU fallback.
func NewStage(width, height int) (remap.Stage, error) {
	return factory.NewStage(width, height)
}

// SetDeviceProvider makes the GPU stage share a device from an external
// provider (e.g. gogpu). The provider must implement HalDevice() any and
// HalQueue() any returning wgpu/hal types.
//
// Call this before creating the player, typically through display.New.
func SetDeviceProvider(provider any) error {
	return dewarp.SetStageDeviceProvider(provider)
}

// Shaders returns the WGSL sources of the conversion and remap passes.
func Shaders() (yuvSource, remapSource string) {
	return gpuimpl.YUVShaderSource(), gpuimpl.RemapShaderSource()
}
