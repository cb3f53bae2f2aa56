//go:build !nogpu

package gpu

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/gogpu/naga"
)

// Embedded WGSL shader sources.

//go:embed shaders/yuv.wgsl
var yuvShaderSource string

//go:embed shaders/remap.wgsl
var remapShaderSource string

// ErrShader is returned when a shader fails validation.
var ErrShader = errors.New("gpu: invalid shader")

// shaderSource is one embedded shader and the binding names the host code
// relies on.
type shaderSource struct {
	label    string
	source   string
	bindings []string
}

// shaderSources lists the shaders in pipeline order.
func shaderSources() []shaderSource {
	return []shaderSource{
		{label: "yuv", source: yuvShaderSource, bindings: []string{"texture_y", "texture_u", "texture_v", "plane_sampler"}},
		{label: "remap", source: remapShaderSource, bindings: []string{"tex", "lut", "frame_sampler"}},
	}
}

// YUVShaderSource returns the WGSL source of the color conversion pass.
func YUVShaderSource() string { return yuvShaderSource }

// RemapShaderSource returns the WGSL source of the remap pass.
func RemapShaderSource() string { return remapShaderSource }

// validateShaders compiles every shader with naga so that malformed WGSL
// is reported before any device objects are created.
func validateShaders() error {
	for _, s := range shaderSources() {
		if s.source == "" {
			return fmt.Errorf("%w: %s source is empty", ErrShader, s.label)
		}
		if _, err := naga.Compile(s.source); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrShader, s.label, err)
		}
	}
	return nil
}
