package app

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/gsplat/splatrt/rt/gpu"
	"github.com/gekko3d/gsplat/splatrt/rt/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// GridVertex matches the vertex input of grid.wgsl.
type GridVertex struct {
	Pos   [3]float32
	Color [4]float32
}

const gridVertexStride = 28

var (
	gridMinorColor = [4]float32{0.35, 0.35, 0.38, 0.6}
	axisXColor     = [4]float32{0.9, 0.2, 0.2, 1}
	axisZColor     = [4]float32{0.2, 0.4, 0.9, 1}
)

// GridVertices returns line-list vertices on the y=0 plane: first the minor
// lines, then the two axis lines. minorCount is the number of minor vertices.
func GridVertices(halfExtent, step float32) (vertices []GridVertex, minorCount uint32) {
	if step <= 0 || halfExtent <= 0 {
		return nil, 0
	}
	n := int(math.Floor(float64(halfExtent / step)))
	for i := -n; i <= n; i++ {
		if i == 0 {
			continue
		}
		o := float32(i) * step
		vertices = append(vertices,
			GridVertex{Pos: [3]float32{o, 0, -halfExtent}, Color: gridMinorColor},
			GridVertex{Pos: [3]float32{o, 0, halfExtent}, Color: gridMinorColor},
			GridVertex{Pos: [3]float32{-halfExtent, 0, o}, Color: gridMinorColor},
			GridVertex{Pos: [3]float32{halfExtent, 0, o}, Color: gridMinorColor},
		)
	}
	minorCount = uint32(len(vertices))
	vertices = append(vertices,
		GridVertex{Pos: [3]float32{-halfExtent, 0, 0}, Color: axisXColor},
		GridVertex{Pos: [3]float32{halfExtent, 0, 0}, Color: axisXColor},
		GridVertex{Pos: [3]float32{0, 0, -halfExtent}, Color: axisZColor},
		GridVertex{Pos: [3]float32{0, 0, halfExtent}, Color: axisZColor},
	)
	return vertices, minorCount
}

func gridPipelineDescriptor(module gpu.ShaderModule) *gpu.PipelineDescriptor {
	return &gpu.PipelineDescriptor{
		Label:  "Grid Pipeline",
		Module: module,
		Stages: gpu.Stages{Vertex: "vs_main", Fragment: "fs_main"},
		InputLayout: []wgpu.VertexBufferLayout{{
			ArrayStride: gridVertexStride,
			StepMode:    wgpu.VertexStepModeVertex,
			Attributes: []wgpu.VertexAttribute{
				{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: wgpu.VertexFormatFloat32x4, Offset: 12, ShaderLocation: 1},
			},
		}},
		Blend: wgpu.BlendState{
			Color: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
			Alpha: wgpu.BlendComponent{
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
				Operation: wgpu.BlendOperationAdd,
			},
		},
		Rasterizer: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyLineList,
			CullMode: wgpu.CullModeNone,
		},
		DepthWrite:  true,
		UniformSize: 64,
	}
}

// GridPass draws the ground grid through the same Device abstraction as the
// splat renderer. Its two draws bracket the splat draw.
type GridPass struct {
	module    gpu.ShaderModule
	pipeline  gpu.Pipeline
	uniform   gpu.Buffer
	bindGroup gpu.BindGroup
	vertices  gpu.Buffer

	minorCount uint32
	axisCount  uint32
}

func NewGridPass(dev gpu.Device, halfExtent, step float32) (*GridPass, error) {
	verts, minor := GridVertices(halfExtent, step)
	if len(verts) == 0 {
		return nil, fmt.Errorf("grid: empty for half extent %g step %g", halfExtent, step)
	}

	g := &GridPass{minorCount: minor, axisCount: uint32(len(verts)) - minor}
	if err := g.create(dev, verts); err != nil {
		g.Release()
		return nil, err
	}
	return g, nil
}

func (g *GridPass) create(dev gpu.Device, verts []GridVertex) (err error) {
	if g.module, err = dev.CreateShaderModule("Grid Shader", shaders.GridWGSL); err != nil {
		return fmt.Errorf("grid shader: %w", err)
	}
	if g.pipeline, err = dev.CreateRenderPipeline(gridPipelineDescriptor(g.module)); err != nil {
		return fmt.Errorf("grid pipeline: %w", err)
	}
	if g.uniform, err = dev.CreateBuffer(&gpu.BufferDescriptor{
		Label: "Grid Uniforms",
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  64,
	}); err != nil {
		return fmt.Errorf("grid uniforms: %w", err)
	}
	if g.bindGroup, err = dev.CreateUniformBindGroup("Grid BG", g.pipeline, g.uniform); err != nil {
		return fmt.Errorf("grid bind group: %w", err)
	}
	if g.vertices, err = dev.CreateBuffer(&gpu.BufferDescriptor{
		Label:    "Grid VB",
		Usage:    wgpu.BufferUsageVertex,
		Contents: wgpu.ToBytes(verts),
	}); err != nil {
		return fmt.Errorf("grid vertices: %w", err)
	}
	return nil
}

func (g *GridPass) Update(dev gpu.Device, viewProj mgl32.Mat4) error {
	return dev.WriteBuffer(g.uniform, 0, wgpu.ToBytes(viewProj[:]))
}

// DrawMinor binds the grid and draws the minor lines.
func (g *GridPass) DrawMinor(pass *gpu.TrackedPass) {
	pass.SetPipeline(g.pipeline)
	pass.SetBindGroup(0, g.bindGroup)
	pass.SetVertexBuffer(0, g.vertices)
	pass.Draw(g.minorCount, 1, 0, 0)
}

// DrawAxes draws the axis lines with whatever is bound. Call it after
// DrawMinor; guest renderers in between must hand the bindings back.
func (g *GridPass) DrawAxes(pass *gpu.TrackedPass) {
	pass.Draw(g.axisCount, 1, g.minorCount, 0)
}

func (g *GridPass) Release() {
	for _, r := range []gpu.Resource{g.vertices, g.bindGroup, g.uniform, g.pipeline, g.module} {
		if r != nil {
			r.Release()
		}
	}
	g.vertices, g.bindGroup, g.uniform, g.pipeline, g.module = nil, nil, nil, nil, nil
}
