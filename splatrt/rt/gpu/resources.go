package gpu

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/gsplat/splatrt/rt/shaders"
)

var (
	ErrShaderCompileFailed          = errors.New("shader compile failed")
	ErrDeviceResourceCreationFailed = errors.New("device resource creation failed")
)

// Diagnostics receives the renderer's user-facing messages.
type Diagnostics interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopDiagnostics struct{}

func (nopDiagnostics) Infof(string, ...any)  {}
func (nopDiagnostics) Warnf(string, ...any)  {}
func (nopDiagnostics) Errorf(string, ...any) {}

type ShaderState int

const (
	Uninitialized ShaderState = iota
	Ready
	Failed
)

func (s ShaderState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("ShaderState(%d)", int(s))
	}
}

const (
	positionStride = 3 * 4
	colorStride    = 4 * 4
)

// SplatPipelineDescriptor describes the splat pipeline: two per-instance
// streams, straight alpha-over blending and no culling.
func SplatPipelineDescriptor(label string, module ShaderModule) *PipelineDescriptor {
	return &PipelineDescriptor{
		Label:  label,
		Module: module,
		Stages: Stages{
			Vertex:   shaders.VertexEntryPoint,
			Fragment: shaders.FragmentEntryPoint,
		},
		InputLayout: []wgpu.VertexBufferLayout{
			{
				ArrayStride: positionStride,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				},
			},
			{
				ArrayStride: colorStride,
				StepMode:    wgpu.VertexStepModeInstance,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x4, Offset: 0, ShaderLocation: 1},
				},
			},
		},
		Blend: wgpu.BlendState{
			Color: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorSrcAlpha,
				DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
			},
			Alpha: wgpu.BlendComponent{
				Operation: wgpu.BlendOperationAdd,
				SrcFactor: wgpu.BlendFactorOne,
				DstFactor: wgpu.BlendFactorZero,
			},
		},
		// quads face the camera, so winding says nothing about visibility
		Rasterizer: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleStrip,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		UniformSize: UniformSize,
	}
}

// RenderResourceManager owns the GPU objects of one splat object: the shader
// module, pipeline, uniform buffer and bind group (created once) and the two
// vertex buffers (recreated on every upload).
type RenderResourceManager struct {
	log      Diagnostics
	label    string
	validate func(string) error

	state     ShaderState
	lastErr   error
	module    ShaderModule
	pipeline  Pipeline
	uniform   Buffer
	bindGroup BindGroup

	positions   Buffer
	colors      Buffer
	vertexCount int
	dirty       bool
}

func NewRenderResourceManager(log Diagnostics, label string) *RenderResourceManager {
	if log == nil {
		log = nopDiagnostics{}
	}
	return &RenderResourceManager{
		log:      log,
		label:    label,
		validate: shaders.Validate,
	}
}

// SetShaderValidator replaces the WGSL check run before module creation.
// A nil validator skips the check.
func (m *RenderResourceManager) SetShaderValidator(v func(string) error) {
	m.validate = v
}

func (m *RenderResourceManager) State() ShaderState { return m.state }
func (m *RenderResourceManager) Ready() bool        { return m.state == Ready }
func (m *RenderResourceManager) Err() error         { return m.lastErr }
func (m *RenderResourceManager) VertexCount() int   { return m.vertexCount }
func (m *RenderResourceManager) Dirty() bool        { return m.dirty }
func (m *RenderResourceManager) MarkDirty()         { m.dirty = true }
func (m *RenderResourceManager) ClearDirty()        { m.dirty = false }

// EnsureShaders creates the shader and pipeline objects on first use.
// Once Ready it returns true without touching the device. A failure releases
// everything created by the attempt and leaves the manager Failed; the next
// call tries again.
func (m *RenderResourceManager) EnsureShaders(dev Device) bool {
	if m.state == Ready {
		return true
	}
	if dev == nil {
		return false
	}

	if err := m.createShaders(dev); err != nil {
		m.releaseShaders()
		if m.state != Failed {
			m.log.Errorf("%s: %v", m.label, err)
		}
		m.state = Failed
		m.lastErr = err
		return false
	}

	m.state = Ready
	m.lastErr = nil
	return true
}

func (m *RenderResourceManager) createShaders(dev Device) error {
	if m.validate != nil {
		if err := m.validate(shaders.SplatWGSL); err != nil {
			return fmt.Errorf("%w: %v", ErrShaderCompileFailed, err)
		}
	}

	module, err := dev.CreateShaderModule(m.label+" Shader", shaders.SplatWGSL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrShaderCompileFailed, err)
	}
	m.module = module

	pipeline, err := dev.CreateRenderPipeline(SplatPipelineDescriptor(m.label+" Pipeline", module))
	if err != nil {
		return fmt.Errorf("%w: pipeline: %v", ErrDeviceResourceCreationFailed, err)
	}
	m.pipeline = pipeline

	uniform, err := dev.CreateBuffer(&BufferDescriptor{
		Label: m.label + " Uniforms",
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		Size:  UniformSize,
	})
	if err != nil {
		return fmt.Errorf("%w: uniform buffer: %v", ErrDeviceResourceCreationFailed, err)
	}
	m.uniform = uniform

	bindGroup, err := dev.CreateUniformBindGroup(m.label+" BG", pipeline, uniform)
	if err != nil {
		return fmt.Errorf("%w: bind group: %v", ErrDeviceResourceCreationFailed, err)
	}
	m.bindGroup = bindGroup
	return nil
}

func (m *RenderResourceManager) releaseShaders() {
	release(m.bindGroup)
	release(m.uniform)
	release(m.pipeline)
	release(m.module)
	m.bindGroup = nil
	m.uniform = nil
	m.pipeline = nil
	m.module = nil
}

// UploadVertices replaces both vertex buffers with count records of data.
// Existing buffers are always released first, so on failure the manager holds
// none and the dirty flag stays set.
func (m *RenderResourceManager) UploadVertices(dev Device, positions, colors []float32, count int) bool {
	m.ReleaseVertices()
	if dev == nil || count <= 0 {
		return false
	}
	if len(positions) < 3*count || len(colors) < 4*count {
		m.log.Errorf("%s: %v: %d splats but %d position and %d color floats",
			m.label, ErrDeviceResourceCreationFailed, count, len(positions), len(colors))
		return false
	}

	pos, err := dev.CreateBuffer(&BufferDescriptor{
		Label:    m.label + " Positions",
		Usage:    wgpu.BufferUsageVertex,
		Contents: wgpu.ToBytes(positions[:3*count]),
	})
	if err != nil {
		m.log.Errorf("%s: %v: position buffer: %v", m.label, ErrDeviceResourceCreationFailed, err)
		return false
	}

	col, err := dev.CreateBuffer(&BufferDescriptor{
		Label:    m.label + " Colors",
		Usage:    wgpu.BufferUsageVertex,
		Contents: wgpu.ToBytes(colors[:4*count]),
	})
	if err != nil {
		pos.Release()
		m.log.Errorf("%s: %v: color buffer: %v", m.label, ErrDeviceResourceCreationFailed, err)
		return false
	}

	m.positions = pos
	m.colors = col
	m.vertexCount = count
	m.dirty = false
	return true
}

func (m *RenderResourceManager) ReleaseVertices() {
	release(m.positions)
	release(m.colors)
	m.positions = nil
	m.colors = nil
	m.vertexCount = 0
}

// WriteUniforms uploads the per-frame block.
func (m *RenderResourceManager) WriteUniforms(dev Device, u Uniforms) error {
	if m.uniform == nil {
		return fmt.Errorf("%s: uniform buffer not created", m.label)
	}
	return dev.WriteBuffer(m.uniform, 0, u.Bytes())
}

// Bind sets the splat pipeline, uniforms and vertex streams on pass.
func (m *RenderResourceManager) Bind(pass RenderPass) {
	pass.SetPipeline(m.pipeline)
	pass.SetBindGroup(0, m.bindGroup)
	pass.SetVertexBuffer(0, m.positions)
	pass.SetVertexBuffer(1, m.colors)
}

// Release tears down every GPU object and returns to Uninitialized.
func (m *RenderResourceManager) Release() {
	m.ReleaseVertices()
	m.releaseShaders()
	m.state = Uninitialized
	m.lastErr = nil
}
