package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// clipDepthRemap maps OpenGL clip depth (-w..w) to the WebGPU range (0..w).
var clipDepthRemap = mgl32.Mat4{
	1, 0, 0, 0,
	0, 1, 0, 0,
	0, 0, 0.5, 0,
	0, 0, 0.5, 1,
}

// OrbitCamera circles a target point. Y is up.
type OrbitCamera struct {
	Target      mgl32.Vec3
	Distance    float32
	Yaw         float32
	Pitch       float32
	FovY        float32 // radians
	Near        float32
	Far         float32
	Sensitivity float32
	ZoomSpeed   float32
}

const maxPitch = 1.5

func NewOrbitCamera() *OrbitCamera {
	return &OrbitCamera{
		Distance:    5,
		Pitch:       0.3,
		FovY:        mgl32.DegToRad(60),
		Near:        0.01,
		Far:         1000,
		Sensitivity: 0.005,
		ZoomSpeed:   0.1,
	}
}

func (c *OrbitCamera) Position() mgl32.Vec3 {
	cp, sp := math.Cos(float64(c.Pitch)), math.Sin(float64(c.Pitch))
	cy, sy := math.Cos(float64(c.Yaw)), math.Sin(float64(c.Yaw))
	offset := mgl32.Vec3{
		float32(cp * sy),
		float32(sp),
		float32(cp * cy),
	}
	return c.Target.Add(offset.Mul(c.Distance))
}

func (c *OrbitCamera) ViewMatrix() mgl32.Mat4 {
	return mgl32.LookAtV(c.Position(), c.Target, mgl32.Vec3{0, 1, 0})
}

// ProjectionMatrix is a perspective projection with WebGPU clip depth.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	return clipDepthRemap.Mul4(mgl32.Perspective(c.FovY, aspect, c.Near, c.Far))
}

func (c *OrbitCamera) ViewProj(aspect float32) mgl32.Mat4 {
	return c.ProjectionMatrix(aspect).Mul4(c.ViewMatrix())
}

// Orbit rotates by a cursor delta in pixels.
func (c *OrbitCamera) Orbit(dx, dy float32) {
	c.Yaw -= dx * c.Sensitivity
	c.Pitch = mgl32.Clamp(c.Pitch+dy*c.Sensitivity, -maxPitch, maxPitch)
}

// Zoom moves toward the target by scroll steps. Positive steps zoom in.
func (c *OrbitCamera) Zoom(steps float32) {
	c.Distance *= float32(math.Pow(float64(1-c.ZoomSpeed), float64(steps)))
	c.Distance = mgl32.Clamp(c.Distance, c.Near*2, c.Far*0.5)
}

// Frame points the camera at the center of the box and backs off until the
// bounding sphere fits the vertical field of view.
func (c *OrbitCamera) Frame(min, max mgl32.Vec3) {
	c.Target = min.Add(max).Mul(0.5)
	radius := max.Sub(min).Len() * 0.5
	if radius < 1e-4 {
		radius = 1
	}
	c.Distance = radius / float32(math.Sin(float64(c.FovY)*0.5))
	c.Near = c.Distance * 1e-3
	c.Far = c.Distance + radius*4
}

// ExtractFrustum returns the normalized Left, Right, Bottom, Top, Near, Far
// planes of a WebGPU-depth view-projection matrix as Ax + By + Cz + D = 0.
func ExtractFrustum(vp mgl32.Mat4) [6]mgl32.Vec4 {
	row := func(i int) mgl32.Vec4 { return vp.Row(i) }

	planes := [6]mgl32.Vec4{
		row(3).Add(row(0)),
		row(3).Sub(row(0)),
		row(3).Add(row(1)),
		row(3).Sub(row(1)),
		row(2),
		row(3).Sub(row(2)),
	}

	for i := range planes {
		length := planes[i].Vec3().Len()
		if length > 0 {
			planes[i] = planes[i].Mul(1.0 / length)
		}
	}
	return planes
}

// CountInFrustum counts positions (3 floats each) inside all six planes.
func CountInFrustum(positions []float32, planes [6]mgl32.Vec4) int {
	n := 0
	for i := 0; i+2 < len(positions); i += 3 {
		p := mgl32.Vec4{positions[i], positions[i+1], positions[i+2], 1}
		inside := true
		for _, pl := range planes {
			if pl.Dot(p) < 0 {
				inside = false
				break
			}
		}
		if inside {
			n++
		}
	}
	return n
}
