package gpu

import (
	"sync"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/gekko3d/gsplat/splatrt/rt/ply"
	"github.com/go-gl/mathgl/mgl32"
)

// ReadFunc loads a splat file. ply.Open is the default.
type ReadFunc func(path string) (*core.Dataset, *ply.Header, error)

type Option func(*FrameRenderer)

func WithLogger(log Diagnostics) Option {
	return func(r *FrameRenderer) {
		if log != nil {
			r.log = log
		}
	}
}

func WithReader(read ReadFunc) Option {
	return func(r *FrameRenderer) {
		if read != nil {
			r.read = read
		}
	}
}

func WithLabel(label string) Option {
	return func(r *FrameRenderer) {
		r.label = label
	}
}

// WithShaderValidator overrides the WGSL check run before the first pipeline
// is built. Passing nil disables it.
func WithShaderValidator(v func(string) error) Option {
	return func(r *FrameRenderer) {
		r.validator = &v
	}
}

// FrameInputs is what the host supplies once per frame.
type FrameInputs struct {
	FilePath       string
	PointSize      float32
	World          mgl32.Mat4
	ViewProj       mgl32.Mat4
	ViewportWidth  int
	ViewportHeight int
}

// RenderState is the per-frame result of Prepare consumed by Draw.
type RenderState struct {
	WVP            mgl32.Mat4
	PointSize      float32
	ViewportWidth  int
	ViewportHeight int
	VertexCount    int
}

func (s RenderState) uniforms() Uniforms {
	return Uniforms{
		WVP:            s.WVP,
		PointSize:      s.PointSize,
		ViewportWidth:  float32(s.ViewportWidth),
		ViewportHeight: float32(s.ViewportHeight),
	}
}

// FrameRenderer draws one splat dataset as a guest inside a host render pass.
// Prepare and Draw for one renderer are serialized; different renderers are
// independent.
type FrameRenderer struct {
	mu        sync.Mutex
	log       Diagnostics
	read      ReadFunc
	label     string
	validator *func(string) error

	resources  *RenderResourceManager
	dataset    *core.Dataset
	loadedPath string
	device     Device
}

func NewFrameRenderer(opts ...Option) *FrameRenderer {
	r := &FrameRenderer{
		log:     nopDiagnostics{},
		read:    ply.Open,
		label:   "Splat",
		dataset: core.NewDataset(nil),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.resources = NewRenderResourceManager(r.log, r.label)
	if r.validator != nil {
		r.resources.SetShaderValidator(*r.validator)
	}
	return r
}

// Prepare loads the file when the path changed, brings GPU resources up to
// date and computes this frame's render state. dev may be nil when no device
// is available yet; GPU work is then deferred to a later frame.
func (r *FrameRenderer) Prepare(dev Device, in FrameInputs) RenderState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.device = dev
	if dev != nil && !r.resources.Ready() {
		r.resources.EnsureShaders(dev)
	}

	if in.FilePath != r.loadedPath {
		r.load(in.FilePath)
	}

	if dev != nil && r.resources.Dirty() {
		if r.dataset.Empty() {
			r.resources.ReleaseVertices()
			r.resources.ClearDirty()
		} else {
			r.resources.UploadVertices(dev, r.dataset.Positions, r.dataset.Colors, r.dataset.Len())
		}
	}

	return RenderState{
		WVP:            ComposeWorldViewProjection(in.World, in.ViewProj),
		PointSize:      in.PointSize,
		ViewportWidth:  in.ViewportWidth,
		ViewportHeight: in.ViewportHeight,
		VertexCount:    r.resources.VertexCount(),
	}
}

func (r *FrameRenderer) load(path string) {
	r.dataset.Clear()
	r.loadedPath = path
	r.resources.MarkDirty()
	if path == "" {
		return
	}

	d, h, err := r.read(path)
	if err != nil {
		r.log.Errorf("Failed to load splats: %v", err)
		return
	}
	if h != nil && len(h.UnknownTypes) > 0 {
		r.log.Warnf("%s: unrecognized property types %v read as 4-byte fields", path, h.UnknownTypes)
	}
	r.dataset = d
	r.log.Infof("Loaded %d splats from: %s", d.Len(), path)
}

// Draw issues the splat draw into pass and restores the host's bindings
// afterwards. It does nothing until shaders are ready and vertices uploaded.
func (r *FrameRenderer) Draw(pass *TrackedPass, st RenderState) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if pass == nil || r.device == nil || !r.resources.Ready() || r.resources.VertexCount() == 0 {
		return
	}
	if st.ViewportWidth <= 0 || st.ViewportHeight <= 0 {
		return
	}

	if err := r.resources.WriteUniforms(r.device, st.uniforms()); err != nil {
		r.log.Errorf("%s: uniforms: %v", r.label, err)
		return
	}

	ambient := pass.Capture([]uint32{0}, []uint32{0, 1})
	defer ambient.Restore()

	r.resources.Bind(pass)
	pass.Draw(4, uint32(r.resources.VertexCount()), 0, 0)
}

// HasGeometry reports whether a non-empty dataset is loaded.
func (r *FrameRenderer) HasGeometry() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.dataset.Empty()
}

// Dataset returns the loaded dataset. Callers must not modify it.
func (r *FrameRenderer) Dataset() *core.Dataset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dataset
}

func (r *FrameRenderer) ShaderState() ShaderState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resources.State()
}

// Reload forces the next Prepare to re-read the current file.
func (r *FrameRenderer) Reload() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loadedPath = ""
	r.dataset.Clear()
	r.resources.MarkDirty()
}

// Release frees all GPU objects and forgets the loaded file.
func (r *FrameRenderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resources.Release()
	r.dataset.Clear()
	r.loadedPath = ""
	r.device = nil
}
