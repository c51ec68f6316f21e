package gpu

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RadialFalloff is the alpha lost at the rim of a splat.
const RadialFalloff = 0.4

// QuadCorners lists the quad-space corners in triangle-strip order,
// matching quad_corner in splat.wgsl.
var QuadCorners = [4]mgl32.Vec2{
	{-1, 1},
	{1, 1},
	{-1, -1},
	{1, -1},
}

// HalfExtent is the clip-space half size of a splat of radius r pixels
// centered at clip position c.
func HalfExtent(c mgl32.Vec4, r, viewportWidth, viewportHeight float32) mgl32.Vec2 {
	return mgl32.Vec2{r / viewportWidth, r / viewportHeight}.Mul(c.W())
}

// ExpandQuad emits the four clip-space vertices of one splat.
func ExpandQuad(c mgl32.Vec4, r, viewportWidth, viewportHeight float32) [4]mgl32.Vec4 {
	h := HalfExtent(c, r, viewportWidth, viewportHeight)
	var out [4]mgl32.Vec4
	for i, corner := range QuadCorners {
		out[i] = c.Add(mgl32.Vec4{corner.X() * h.X(), corner.Y() * h.Y(), 0, 0})
	}
	return out
}

// ShadeFragment applies the circular mask and soft falloff. keep is false
// where the fragment is discarded.
func ShadeFragment(uv mgl32.Vec2, color mgl32.Vec4) (out mgl32.Vec4, keep bool) {
	r2 := uv.Dot(uv)
	if r2 > 1 {
		return mgl32.Vec4{}, false
	}
	return mgl32.Vec4{color.X(), color.Y(), color.Z(), color.W() * (1 - r2*RadialFalloff)}, true
}
