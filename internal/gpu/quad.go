//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"
)

// Full screen quad shared by both passes. Each vertex is a clip space
// position followed by a texture coordinate with v pointing down.
var quadVertices = [...]float32{
	-1, -1, 0, 1,
	1, -1, 1, 1,
	1, 1, 1, 0,
	-1, 1, 0, 0,
}

var quadIndices = [...]uint16{0, 1, 2, 2, 3, 0}

const (
	quadVertexStride = 16
	quadIndexCount   = uint32(len(quadIndices))
)

// quadVertexBytes returns the vertex data in little endian order.
func quadVertexBytes() []byte {
	buf := make([]byte, len(quadVertices)*4)
	for i, v := range quadVertices {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// quadIndexBytes returns the index data padded to a multiple of four bytes.
func quadIndexBytes() []byte {
	n := len(quadIndices) * 2
	buf := make([]byte, (n+3)&^3)
	for i, v := range quadIndices {
		binary.LittleEndian.PutUint16(buf[i*2:], v)
	}
	return buf
}

// quadVertexLayout matches VertexInput in both shaders.
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: quadVertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
		},
	}}
}
