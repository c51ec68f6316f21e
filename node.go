package gsplat

import (
	"sync"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/gekko3d/gsplat/splatrt/rt/gpu"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

const (
	DefaultPointSize float32 = 4.0
	MinPointSize     float32 = 0.5
	MaxPointSize     float32 = 64.0
)

// SplatNode is a renderable scene object backed by a splat file. Its
// attributes may be changed at any time; they take effect on the next Prepare.
type SplatNode struct {
	ID   uuid.UUID
	Name string

	mu        sync.Mutex
	filePath  string
	pointSize float32
	world     mgl32.Mat4

	renderer *gpu.FrameRenderer
}

func NewSplatNode(logger Logger, opts ...gpu.Option) *SplatNode {
	if logger == nil {
		logger = NewNopLogger()
	}
	id := uuid.New()
	base := []gpu.Option{
		gpu.WithLogger(logger),
		gpu.WithLabel("Splat " + id.String()[:8]),
	}
	return &SplatNode{
		ID:        id,
		Name:      "splat",
		pointSize: DefaultPointSize,
		world:     mgl32.Ident4(),
		renderer:  gpu.NewFrameRenderer(append(base, opts...)...),
	}
}

func (n *SplatNode) FilePath() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.filePath
}

func (n *SplatNode) SetFilePath(path string) {
	n.mu.Lock()
	n.filePath = path
	n.mu.Unlock()
}

func (n *SplatNode) PointSize() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.pointSize
}

// SetPointSize stores size clamped to [MinPointSize, MaxPointSize] and
// returns the stored value.
func (n *SplatNode) SetPointSize(size float32) float32 {
	size = mgl32.Clamp(size, MinPointSize, MaxPointSize)
	n.mu.Lock()
	n.pointSize = size
	n.mu.Unlock()
	return size
}

func (n *SplatNode) World() mgl32.Mat4 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.world
}

func (n *SplatNode) SetWorld(world mgl32.Mat4) {
	n.mu.Lock()
	n.world = world
	n.mu.Unlock()
}

// Prepare runs the load/upload phase for this frame.
func (n *SplatNode) Prepare(dev gpu.Device, viewProj mgl32.Mat4, viewportWidth, viewportHeight int) gpu.RenderState {
	n.mu.Lock()
	in := gpu.FrameInputs{
		FilePath:       n.filePath,
		PointSize:      n.pointSize,
		World:          n.world,
		ViewProj:       viewProj,
		ViewportWidth:  viewportWidth,
		ViewportHeight: viewportHeight,
	}
	n.mu.Unlock()
	return n.renderer.Prepare(dev, in)
}

func (n *SplatNode) Draw(pass *gpu.TrackedPass, st gpu.RenderState) {
	n.renderer.Draw(pass, st)
}

func (n *SplatNode) HasGeometry() bool { return n.renderer.HasGeometry() }

func (n *SplatNode) SplatCount() int { return n.renderer.Dataset().Len() }

// Bounds returns the world-space bounds of the loaded splats.
func (n *SplatNode) Bounds() (min, max mgl32.Vec3, ok bool) {
	min, max, ok = n.renderer.Dataset().Bounds()
	if !ok {
		return min, max, false
	}
	world := n.World()
	var lo, hi mgl32.Vec3
	for i := 0; i < 8; i++ {
		c := min
		if i&1 != 0 {
			c[0] = max[0]
		}
		if i&2 != 0 {
			c[1] = max[1]
		}
		if i&4 != 0 {
			c[2] = max[2]
		}
		p := mgl32.TransformCoordinate(c, world)
		if i == 0 {
			lo, hi = p, p
			continue
		}
		for k := 0; k < 3; k++ {
			if p[k] < lo[k] {
				lo[k] = p[k]
			}
			if p[k] > hi[k] {
				hi[k] = p[k]
			}
		}
	}
	return lo, hi, true
}

// CountVisible counts loaded splats whose centers fall inside the view frustum.
func (n *SplatNode) CountVisible(viewProj mgl32.Mat4) int {
	planes := core.ExtractFrustum(viewProj.Mul4(n.World()))
	return core.CountInFrustum(n.renderer.Dataset().Positions, planes)
}

func (n *SplatNode) ShaderState() gpu.ShaderState { return n.renderer.ShaderState() }

func (n *SplatNode) Reload() { n.renderer.Reload() }

func (n *SplatNode) Release() { n.renderer.Release() }
