package app

import (
	"fmt"
	"unsafe"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/gekko3d/gsplat/splatrt/rt/gpu"
	"github.com/gekko3d/gsplat/splatrt/rt/shaders"
)

var (
	hudTextColor  = [4]float32{1, 1, 1, 1}
	hudWarnColor  = [4]float32{1, 0.85, 0.3, 1}
	hudErrorColor = [4]float32{1, 0.4, 0.4, 1}
)

const hudMargin = 10

// HUDStats is what the overlay reports for one frame.
type HUDStats struct {
	FPS       float64
	FilePath  string
	Splats    int
	Visible   int // negative when not counted
	PointSize float32
	Shader    gpu.ShaderState
	Timings   []string
	Messages  []HUDMessage
}

type HUDMessage struct {
	Text  string
	Error bool
}

// HUDLines lays out the overlay as pixel-anchored lines, lineHeight apart.
func HUDLines(s HUDStats, lineHeight float32) []core.HUDLine {
	var lines []core.HUDLine
	y := float32(hudMargin)
	add := func(text string, color [4]float32) {
		lines = append(lines, core.HUDLine{Text: text, X: hudMargin, Y: y, Color: color})
		y += lineHeight
	}

	add(fmt.Sprintf("FPS: %.1f", s.FPS), hudTextColor)
	if s.FilePath == "" {
		add("No file", hudWarnColor)
	} else {
		add("File: "+s.FilePath, hudTextColor)
	}
	if s.Visible >= 0 {
		add(fmt.Sprintf("Splats: %d (%d visible)", s.Splats, s.Visible), hudTextColor)
	} else {
		add(fmt.Sprintf("Splats: %d", s.Splats), hudTextColor)
	}
	add(fmt.Sprintf("Point size: %.1f px", s.PointSize), hudTextColor)
	shaderColor := hudTextColor
	if s.Shader == gpu.Failed {
		shaderColor = hudErrorColor
	}
	add("Shaders: "+s.Shader.String(), shaderColor)
	for _, t := range s.Timings {
		add(t, hudTextColor)
	}
	for _, m := range s.Messages {
		c := hudWarnColor
		if m.Error {
			c = hudErrorColor
		}
		add(m.Text, c)
	}
	return lines
}

// HUD draws text from a glyph atlas. Its objects are created directly on the
// wgpu device and adopted with the gpu Wrap helpers so the overlay binds
// through the same TrackedPass as everything else.
type HUD struct {
	Atlas *core.GlyphAtlas

	device  *wgpu.Device
	queue   *wgpu.Queue
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler

	module    gpu.ShaderModule
	pipeline  gpu.Pipeline
	bindGroup gpu.BindGroup
	vertices  gpu.Buffer
	rawVB     *wgpu.Buffer

	vertexCount uint32
	capacity    uint64
}

func NewHUD(device *wgpu.Device, format wgpu.TextureFormat, depthFormat *wgpu.TextureFormat, fontSize float64) (*HUD, error) {
	atlas, err := core.NewGlyphAtlas(fontSize)
	if err != nil {
		return nil, err
	}
	h := &HUD{Atlas: atlas, device: device, queue: device.GetQueue()}
	if err := h.setup(format, depthFormat); err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

func (h *HUD) setup(format wgpu.TextureFormat, depthFormat *wgpu.TextureFormat) error {
	img := h.Atlas.Image
	w, ht := img.Bounds().Dx(), img.Bounds().Dy()

	var err error
	h.texture, err = h.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "HUD Atlas",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(ht), DepthOrArrayLayers: 1},
		Format:        wgpu.TextureFormatR8Unorm,
		Usage:         wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension:     wgpu.TextureDimension2D,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return fmt.Errorf("hud atlas texture: %w", err)
	}
	h.queue.WriteTexture(h.texture.AsImageCopy(), img.Pix, &wgpu.TextureDataLayout{
		Offset:       0,
		BytesPerRow:  uint32(img.Stride),
		RowsPerImage: uint32(ht),
	}, &wgpu.Extent3D{Width: uint32(w), Height: uint32(ht), DepthOrArrayLayers: 1})
	if h.view, err = h.texture.CreateView(nil); err != nil {
		return fmt.Errorf("hud atlas view: %w", err)
	}
	if h.sampler, err = h.device.CreateSampler(&wgpu.SamplerDescriptor{
		MinFilter:     wgpu.FilterModeLinear,
		MagFilter:     wgpu.FilterModeLinear,
		MaxAnisotropy: 1,
	}); err != nil {
		return fmt.Errorf("hud sampler: %w", err)
	}

	mod, err := h.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "HUD Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.TextWGSL},
	})
	if err != nil {
		return fmt.Errorf("hud shader: %w", err)
	}
	h.module = gpu.WrapShaderModule(mod)

	var depth *wgpu.DepthStencilState
	if depthFormat != nil {
		depth = &wgpu.DepthStencilState{
			Format:       *depthFormat,
			DepthCompare: wgpu.CompareFunctionAlways,
			StencilFront: wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
			StencilBack:  wgpu.StencilFaceState{Compare: wgpu.CompareFunctionAlways},
		}
	}

	pipeline, err := h.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label: "HUD Pipeline",
		Vertex: wgpu.VertexState{
			Module:     mod,
			EntryPoint: "vs_main",
			Buffers: []wgpu.VertexBufferLayout{{
				ArrayStride: uint64(unsafe.Sizeof(core.HUDVertex{})),
				StepMode:    wgpu.VertexStepModeVertex,
				Attributes: []wgpu.VertexAttribute{
					{Format: wgpu.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
					{Format: wgpu.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
					{Format: wgpu.VertexFormatFloat32x4, Offset: 16, ShaderLocation: 2},
				},
			}},
		},
		Fragment: &wgpu.FragmentState{
			Module:     mod,
			EntryPoint: "fs_main",
			Targets: []wgpu.ColorTargetState{{
				Format: format,
				Blend: &wgpu.BlendState{
					Color: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorSrcAlpha,
						DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
						Operation: wgpu.BlendOperationAdd,
					},
					Alpha: wgpu.BlendComponent{
						SrcFactor: wgpu.BlendFactorOne,
						DstFactor: wgpu.BlendFactorOne,
						Operation: wgpu.BlendOperationAdd,
					},
				},
				WriteMask: wgpu.ColorWriteMaskAll,
			}},
		},
		Primitive: wgpu.PrimitiveState{
			Topology: wgpu.PrimitiveTopologyTriangleList,
		},
		DepthStencil: depth,
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("hud pipeline: %w", err)
	}
	h.pipeline = gpu.WrapPipeline(pipeline)

	group, err := h.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "HUD BG",
		Layout: pipeline.GetBindGroupLayout(0),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, TextureView: h.view},
			{Binding: 1, Sampler: h.sampler},
		},
	})
	if err != nil {
		return fmt.Errorf("hud bind group: %w", err)
	}
	h.bindGroup = gpu.WrapBindGroup(group)
	return nil
}

// Update rebuilds the vertex buffer for lines, growing it when needed.
func (h *HUD) Update(lines []core.HUDLine, screenW, screenH int) error {
	verts := h.Atlas.Layout(lines, screenW, screenH)
	h.vertexCount = 0
	if len(verts) == 0 {
		return nil
	}
	data := wgpu.ToBytes(verts)
	size := uint64(len(data))
	if h.vertices == nil || h.capacity < size {
		if h.vertices != nil {
			h.vertices.Release()
			h.vertices, h.rawVB = nil, nil
		}
		buf, err := h.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label: "HUD VB",
			Size:  size,
			Usage: wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("hud vertices: %w", err)
		}
		h.vertices, h.rawVB = gpu.WrapBuffer(buf), buf
		h.capacity = size
	}
	if err := h.queue.WriteBuffer(h.rawVB, 0, data); err != nil {
		return fmt.Errorf("hud vertices: %w", err)
	}
	h.vertexCount = uint32(len(verts))
	return nil
}

func (h *HUD) Draw(pass *gpu.TrackedPass) {
	if h.vertexCount == 0 || h.pipeline == nil {
		return
	}
	pass.SetPipeline(h.pipeline)
	pass.SetBindGroup(0, h.bindGroup)
	pass.SetVertexBuffer(0, h.vertices)
	pass.Draw(h.vertexCount, 1, 0, 0)
}

func (h *HUD) Release() {
	for _, r := range []gpu.Resource{h.vertices, h.bindGroup, h.pipeline, h.module} {
		if r != nil {
			r.Release()
		}
	}
	h.vertices, h.bindGroup, h.pipeline, h.module = nil, nil, nil, nil
	h.rawVB = nil
	if h.sampler != nil {
		h.sampler.Release()
		h.sampler = nil
	}
	if h.view != nil {
		h.view.Release()
		h.view = nil
	}
	if h.texture != nil {
		h.texture.Release()
		h.texture = nil
	}
	h.vertexCount, h.capacity = 0, 0
}
