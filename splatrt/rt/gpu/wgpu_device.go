package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBuffer struct{ buf *wgpu.Buffer }

func (b *wgpuBuffer) Release()     { b.buf.Release() }
func (b *wgpuBuffer) Size() uint64 { return b.buf.GetSize() }

type wgpuShaderModule struct{ module *wgpu.ShaderModule }

func (m *wgpuShaderModule) Release() { m.module.Release() }

type wgpuPipeline struct {
	pipeline *wgpu.RenderPipeline
	layout   *wgpu.PipelineLayout
	bgl      *wgpu.BindGroupLayout
}

func (p *wgpuPipeline) Release() {
	p.pipeline.Release()
	if p.layout != nil {
		p.layout.Release()
	}
	if p.bgl != nil {
		p.bgl.Release()
	}
}

type wgpuBindGroup struct{ group *wgpu.BindGroup }

func (g *wgpuBindGroup) Release() { g.group.Release() }

// The Wrap helpers adopt objects the host created
// directly on a *wgpu.Device so they can be bound through a TrackedPass.
// Releasing the wrapper releases the wrapped object.
func WrapBuffer(b *wgpu.Buffer) Buffer { return &wgpuBuffer{buf: b} }
func WrapPipeline(p *wgpu.RenderPipeline) Pipeline { return &wgpuPipeline{pipeline: p} }
func WrapBindGroup(g *wgpu.BindGroup) BindGroup { return &wgpuBindGroup{group: g} }
func WrapShaderModule(m *wgpu.ShaderModule) ShaderModule { return &wgpuShaderModule{module: m} }

// WGPUDevice implements Device on a cogentcore/webgpu device. Pipelines
// render into a single color target of the configured format.
type WGPUDevice struct {
	device      *wgpu.Device
	queue       *wgpu.Queue
	format      wgpu.TextureFormat
	depthFormat *wgpu.TextureFormat
}

func NewWGPUDevice(device *wgpu.Device, target wgpu.TextureFormat) *WGPUDevice {
	return &WGPUDevice{
		device: device,
		queue:  device.GetQueue(),
		format: target,
	}
}

// SetDepthFormat makes pipelines created afterwards compatible with a depth
// attachment of the given format.
func (d *WGPUDevice) SetDepthFormat(format wgpu.TextureFormat) {
	d.depthFormat = &format
}

func (d *WGPUDevice) CreateShaderModule(label, wgsl string) (ShaderModule, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: wgsl},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuShaderModule{module: module}, nil
}

func (d *WGPUDevice) CreateRenderPipeline(desc *PipelineDescriptor) (Pipeline, error) {
	mod, ok := desc.Module.(*wgpuShaderModule)
	if !ok {
		return nil, fmt.Errorf("pipeline %s: shader module was not created by this device", desc.Label)
	}

	var bgl *wgpu.BindGroupLayout
	var layouts []*wgpu.BindGroupLayout
	if desc.UniformSize > 0 {
		var err error
		bgl, err = d.device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
			Label: desc.Label + " BGL",
			Entries: []wgpu.BindGroupLayoutEntry{
				{
					Binding:    0,
					Visibility: wgpu.ShaderStageVertex | wgpu.ShaderStageFragment,
					Buffer: wgpu.BufferBindingLayout{
						Type:           wgpu.BufferBindingTypeUniform,
						MinBindingSize: desc.UniformSize,
					},
				},
			},
		})
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, bgl)
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		BindGroupLayouts: layouts,
	})
	if err != nil {
		if bgl != nil {
			bgl.Release()
		}
		return nil, err
	}

	blend := desc.Blend
	pipeline, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     mod.module,
			EntryPoint: desc.Stages.Vertex,
			Buffers:    desc.InputLayout,
		},
		Fragment: &wgpu.FragmentState{
			Module:     mod.module,
			EntryPoint: desc.Stages.Fragment,
			Targets: []wgpu.ColorTargetState{
				{
					Format:    d.format,
					Blend:     &blend,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive:    desc.Rasterizer,
		DepthStencil: d.depthState(desc.DepthWrite),
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		layout.Release()
		if bgl != nil {
			bgl.Release()
		}
		return nil, err
	}

	return &wgpuPipeline{pipeline: pipeline, layout: layout, bgl: bgl}, nil
}

func (d *WGPUDevice) depthState(write bool) *wgpu.DepthStencilState {
	if d.depthFormat == nil {
		return nil
	}
	return &wgpu.DepthStencilState{
		Format:            *d.depthFormat,
		DepthWriteEnabled: write,
		DepthCompare:      wgpu.CompareFunctionLess,
		StencilFront: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
		StencilBack: wgpu.StencilFaceState{
			Compare: wgpu.CompareFunctionAlways,
		},
	}
}

func (d *WGPUDevice) CreateBuffer(desc *BufferDescriptor) (Buffer, error) {
	if desc.Contents != nil {
		buf, err := d.device.CreateBufferInit(&wgpu.BufferInitDescriptor{
			Label:    desc.Label,
			Contents: desc.Contents,
			Usage:    desc.Usage,
		})
		if err != nil {
			return nil, err
		}
		return &wgpuBuffer{buf: buf}, nil
	}

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buf: buf}, nil
}

func (d *WGPUDevice) CreateUniformBindGroup(label string, pipeline Pipeline, uniform Buffer) (BindGroup, error) {
	p, ok := pipeline.(*wgpuPipeline)
	if !ok || p.bgl == nil {
		return nil, fmt.Errorf("bind group %s: pipeline has no uniform layout", label)
	}
	b, ok := uniform.(*wgpuBuffer)
	if !ok {
		return nil, fmt.Errorf("bind group %s: buffer was not created by this device", label)
	}

	group, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  label,
		Layout: p.bgl,
		Entries: []wgpu.BindGroupEntry{
			{
				Binding: 0,
				Buffer:  b.buf,
				Size:    wgpu.WholeSize,
			},
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBindGroup{group: group}, nil
}

func (d *WGPUDevice) WriteBuffer(buf Buffer, offset uint64, data []byte) error {
	b, ok := buf.(*wgpuBuffer)
	if !ok {
		return fmt.Errorf("write buffer: buffer was not created by this device")
	}
	return d.queue.WriteBuffer(b.buf, offset, data)
}

type wgpuPass struct{ enc *wgpu.RenderPassEncoder }

// WrapPass adapts an open render pass encoder. Objects bound through it must
// come from a WGPUDevice or the Wrap helpers; anything else is ignored.
func WrapPass(enc *wgpu.RenderPassEncoder) RenderPass {
	return &wgpuPass{enc: enc}
}

func (p *wgpuPass) SetPipeline(pl Pipeline) {
	if w, ok := pl.(*wgpuPipeline); ok {
		p.enc.SetPipeline(w.pipeline)
	}
}

func (p *wgpuPass) SetBindGroup(index uint32, bg BindGroup) {
	if w, ok := bg.(*wgpuBindGroup); ok {
		p.enc.SetBindGroup(index, w.group, nil)
	}
}

func (p *wgpuPass) SetVertexBuffer(slot uint32, buf Buffer) {
	if w, ok := buf.(*wgpuBuffer); ok {
		p.enc.SetVertexBuffer(slot, w.buf, 0, wgpu.WholeSize)
	}
}

func (p *wgpuPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	p.enc.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}
