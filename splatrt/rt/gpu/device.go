package gpu

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// Resource is a GPU object owned by the caller that created it.
type Resource interface {
	Release()
}

type Buffer interface {
	Resource
	Size() uint64
}

type ShaderModule interface{ Resource }

type Pipeline interface{ Resource }

type BindGroup interface{ Resource }

// Stages names the entry points of one shader module.
type Stages struct {
	Vertex   string
	Fragment string
}

// PipelineDescriptor carries the separate state objects that WebGPU bakes
// into a single render pipeline.
type PipelineDescriptor struct {
	Label       string
	Module      ShaderModule
	Stages      Stages
	InputLayout []wgpu.VertexBufferLayout
	Blend       wgpu.BlendState
	Rasterizer  wgpu.PrimitiveState
	DepthWrite  bool // only meaningful when the device renders with a depth attachment
	UniformSize uint64
}

type BufferDescriptor struct {
	Label    string
	Usage    wgpu.BufferUsage
	Size     uint64
	Contents []byte // optional initial data; Size is derived from it when set
}

// Device is the subset of a WebGPU device the splat pass needs.
type Device interface {
	CreateShaderModule(label, wgsl string) (ShaderModule, error)
	CreateRenderPipeline(desc *PipelineDescriptor) (Pipeline, error)
	CreateBuffer(desc *BufferDescriptor) (Buffer, error)
	// CreateUniformBindGroup binds uniform at group 0, binding 0 of pipeline.
	CreateUniformBindGroup(label string, pipeline Pipeline, uniform Buffer) (BindGroup, error)
	WriteBuffer(buf Buffer, offset uint64, data []byte) error
}

// RenderPass is the command surface of an open render pass.
type RenderPass interface {
	SetPipeline(p Pipeline)
	SetBindGroup(index uint32, bg BindGroup)
	SetVertexBuffer(slot uint32, buf Buffer)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
}

func release(r Resource) {
	if r != nil {
		r.Release()
	}
}
