package gpu

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformSize is the byte size of the splat uniform block.
//
//	struct SplatUniforms {
//	  wvp: mat4x4<f32>,     -- 0
//	  point_size: f32,      -- 64
//	  viewport_width: f32,  -- 68
//	  viewport_height: f32, -- 72
//	  pad: f32,             -- 76
//	} -> 80 bytes
const UniformSize = 80

type Uniforms struct {
	WVP            mgl32.Mat4
	PointSize      float32
	ViewportWidth  float32
	ViewportHeight float32
}

// Bytes packs the block in WGSL uniform layout. mgl32 matrices are column-major,
// which is the layout WGSL expects for mat4x4.
func (u Uniforms) Bytes() []byte {
	buf := make([]byte, UniformSize)
	for i, v := range u.WVP {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	binary.LittleEndian.PutUint32(buf[64:], math.Float32bits(u.PointSize))
	binary.LittleEndian.PutUint32(buf[68:], math.Float32bits(u.ViewportWidth))
	binary.LittleEndian.PutUint32(buf[72:], math.Float32bits(u.ViewportHeight))
	binary.LittleEndian.PutUint32(buf[76:], 0)
	return buf
}

// ComposeWorldViewProjection returns viewProj * world for column vectors.
// Read row-major, the same bytes are world * viewProj for row vectors.
func ComposeWorldViewProjection(world, viewProj mgl32.Mat4) mgl32.Mat4 {
	return viewProj.Mul4(world)
}
