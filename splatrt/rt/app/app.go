package app

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	gsplat "github.com/gekko3d/gsplat"
	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/gekko3d/gsplat/splatrt/rt/gpu"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
)

const depthFormat = wgpu.TextureFormatDepth24Plus

// pointSizeStep is the factor applied per +/- key press.
const pointSizeStep = 1.25

type App struct {
	Window   *glfw.Window
	Instance *wgpu.Instance
	Adapter  *wgpu.Adapter
	Device   *wgpu.Device
	Queue    *wgpu.Queue
	Surface  *wgpu.Surface
	Config   *wgpu.SurfaceConfiguration

	GPU        *gpu.WGPUDevice
	DepthTex   *wgpu.Texture
	DepthView  *wgpu.TextureView
	Grid       *GridPass
	HUD        *HUD
	Node       *gsplat.SplatNode
	Camera     *core.OrbitCamera
	Log        *gsplat.HistoryLogger
	Profiler   *Profiler
	Settings   Config
	DebugMode  bool
	FrameState gpu.RenderState

	MouseX, MouseY float64
	Dragging       bool
	framed         bool

	LastRenderTime float64
	FrameCount     int
	FPS            float64
	FPSTime        float64
}

func NewApp(window *glfw.Window, cfg Config, logger gsplat.Logger) *App {
	log := gsplat.NewHistoryLogger(logger, cfg.LogHistory)
	node := gsplat.NewSplatNode(log)
	node.Name = "viewer"
	node.SetFilePath(cfg.FilePath)
	node.SetPointSize(cfg.PointSize)

	return &App{
		Window:    window,
		Node:      node,
		Camera:    core.NewOrbitCamera(),
		Log:       log,
		Profiler:  NewProfiler(),
		Settings:  cfg,
		DebugMode: cfg.Debug,
	}
}

func (a *App) Init() error {
	a.Instance = wgpu.CreateInstance(nil)
	a.Surface = a.Instance.CreateSurface(GetSurfaceDescriptor(a.Window))

	adapter, err := a.Instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		CompatibleSurface: a.Surface,
		PowerPreference:   wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return err
	}
	a.Adapter = adapter

	a.Device, err = adapter.RequestDevice(nil)
	if err != nil {
		return err
	}
	a.Queue = a.Device.GetQueue()

	width, height := a.Window.GetFramebufferSize()
	caps := a.Surface.GetCapabilities(adapter)
	a.Config = &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      caps.Formats[0],
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   caps.AlphaModes[0],
	}
	a.Surface.Configure(adapter, a.Device, a.Config)

	a.GPU = gpu.NewWGPUDevice(a.Device, a.Config.Format)
	a.GPU.SetDepthFormat(depthFormat)
	if err := a.setupDepth(width, height); err != nil {
		return err
	}

	a.Grid, err = NewGridPass(a.GPU, a.Settings.GridHalfExtent, a.Settings.GridStep)
	if err != nil {
		return err
	}

	df := depthFormat
	a.HUD, err = NewHUD(a.Device, a.Config.Format, &df, a.Settings.FontSize)
	if err != nil {
		a.Log.Warnf("HUD disabled: %v", err)
	}
	return nil
}

func (a *App) setupDepth(w, h int) error {
	if w <= 0 || h <= 0 {
		return nil
	}
	a.releaseDepth()

	var err error
	a.DepthTex, err = a.Device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "Depth Tex",
		Size:          wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        depthFormat,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("depth texture: %w", err)
	}
	a.DepthView, err = a.DepthTex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("depth view: %w", err)
	}
	return nil
}

func (a *App) releaseDepth() {
	if a.DepthView != nil {
		a.DepthView.Release()
		a.DepthView = nil
	}
	if a.DepthTex != nil {
		a.DepthTex.Release()
		a.DepthTex = nil
	}
}

func (a *App) Resize(w, h int) {
	if w > 0 && h > 0 {
		a.Config.Width = uint32(w)
		a.Config.Height = uint32(h)
		a.Surface.Configure(a.Adapter, a.Device, a.Config)
		if err := a.setupDepth(w, h); err != nil {
			a.Log.Errorf("resize: %v", err)
		}
	}
}

// device is nil until Init has created the GPU device.
func (a *App) device() gpu.Device {
	if a.GPU == nil {
		return nil
	}
	return a.GPU
}

func (a *App) viewport() (int, int) {
	if a.Config == nil {
		return a.Settings.Width, a.Settings.Height
	}
	return int(a.Config.Width), int(a.Config.Height)
}

func (a *App) viewProj() mgl32.Mat4 {
	w, h := a.viewport()
	aspect := float32(1)
	if w > 0 && h > 0 {
		aspect = float32(w) / float32(h)
	}
	return a.Camera.ViewProj(aspect)
}

// Update runs the prepare phase: load and upload, camera framing, uniforms
// for the grid and the HUD text.
func (a *App) Update() {
	w, h := a.viewport()
	viewProj := a.viewProj()

	a.Profiler.BeginScope("prepare")
	a.FrameState = a.Node.Prepare(a.device(), viewProj, w, h)
	a.Profiler.EndScope("prepare")

	if !a.framed && a.Node.HasGeometry() {
		if min, max, ok := a.Node.Bounds(); ok {
			a.Camera.Frame(min, max)
			a.framed = true
			viewProj = a.viewProj()
			a.FrameState = a.Node.Prepare(a.device(), viewProj, w, h)
		}
	}

	if a.Grid != nil {
		if err := a.Grid.Update(a.device(), viewProj); err != nil {
			a.Log.Errorf("grid uniforms: %v", err)
		}
	}

	if a.HUD != nil {
		a.Profiler.SetCount("splats", a.Node.SplatCount())
		if err := a.HUD.Update(HUDLines(a.stats(viewProj), a.HUD.Atlas.LineHeight()), w, h); err != nil {
			a.Log.Errorf("hud: %v", err)
		}
	}
}

func (a *App) stats(viewProj mgl32.Mat4) HUDStats {
	s := HUDStats{
		FPS:       a.FPS,
		FilePath:  a.Node.FilePath(),
		Splats:    a.Node.SplatCount(),
		Visible:   -1,
		PointSize: a.Node.PointSize(),
		Shader:    a.Node.ShaderState(),
	}
	if a.DebugMode {
		s.Visible = a.Node.CountVisible(viewProj)
		s.Timings = a.Profiler.Lines()
	}
	for _, e := range a.Log.Entries() {
		if e.Level >= gsplat.LevelWarn {
			s.Messages = append(s.Messages, HUDMessage{Text: e.Message, Error: e.Level == gsplat.LevelError})
		}
	}
	return s
}

// Render records one frame: the grid, the splat node as a guest, the grid
// axes on the state the guest restored, then the HUD.
func (a *App) Render() {
	nextTexture, err := a.Surface.GetCurrentTexture()
	if err != nil {
		a.Log.Errorf("GetCurrentTexture failed: %v", err)
		return
	}
	defer nextTexture.Release()

	view, err := nextTexture.CreateView(nil)
	if err != nil {
		a.Log.Errorf("CreateView failed: %v", err)
		return
	}
	defer view.Release()

	encoder, err := a.Device.CreateCommandEncoder(nil)
	if err != nil {
		a.Log.Errorf("CreateCommandEncoder failed: %v", err)
		return
	}
	defer encoder.Release()

	a.Profiler.BeginScope("record")
	rPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: a.Settings.ClearColor,
		}},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            a.DepthView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	})
	pass := gpu.Track(gpu.WrapPass(rPass))

	if a.Grid != nil {
		a.Grid.DrawMinor(pass)
	}
	a.Node.Draw(pass, a.FrameState)
	if a.Grid != nil {
		a.Grid.DrawAxes(pass)
	}
	if a.HUD != nil {
		a.HUD.Draw(pass)
	}

	err = rPass.End()
	a.Profiler.EndScope("record")
	if err != nil {
		a.Log.Errorf("Render pass End failed: %v", err)
	}

	cmd, err := encoder.Finish(nil)
	if err != nil {
		a.Log.Errorf("Encoder Finish failed: %v", err)
		return
	}
	defer cmd.Release()
	a.Queue.Submit(cmd)
	a.Surface.Present()

	a.tickFPS(glfw.GetTime())
}

func (a *App) tickFPS(now float64) {
	if a.LastRenderTime > 0 {
		a.FrameCount++
		a.FPSTime += now - a.LastRenderTime
		if a.FPSTime >= 1.0 {
			a.FPS = float64(a.FrameCount) / a.FPSTime
			a.FrameCount = 0
			a.FPSTime = 0
		}
	}
	a.LastRenderTime = now
}

// HandleKey applies the viewer hotkeys. Escape is left to the window owner.
func (a *App) HandleKey(key glfw.Key, action glfw.Action) {
	if action != glfw.Press && action != glfw.Repeat {
		return
	}
	switch key {
	case glfw.KeyEqual, glfw.KeyKPAdd:
		a.Node.SetPointSize(a.Node.PointSize() * pointSizeStep)
	case glfw.KeyMinus, glfw.KeyKPSubtract:
		a.Node.SetPointSize(a.Node.PointSize() / pointSizeStep)
	case glfw.KeyR:
		if action == glfw.Press {
			a.Log.Infof("Reloading %s", a.Node.FilePath())
			a.Node.Reload()
			a.framed = false
		}
	case glfw.KeyF:
		a.framed = false
	case glfw.KeyF3:
		if action == glfw.Press {
			a.DebugMode = !a.DebugMode
		}
	}
}

func (a *App) HandleMouseButton(button glfw.MouseButton, action glfw.Action) {
	if button == glfw.MouseButtonLeft {
		a.Dragging = action == glfw.Press
	}
}

func (a *App) HandleCursor(x, y float64) {
	if a.Dragging {
		a.Camera.Orbit(float32(x-a.MouseX), float32(y-a.MouseY))
	}
	a.MouseX, a.MouseY = x, y
}

func (a *App) HandleScroll(yoff float64) {
	a.Camera.Zoom(float32(yoff))
}

func (a *App) Release() {
	a.Node.Release()
	if a.HUD != nil {
		a.HUD.Release()
		a.HUD = nil
	}
	if a.Grid != nil {
		a.Grid.Release()
		a.Grid = nil
	}
	a.releaseDepth()
	if a.Device != nil {
		a.Device.Release()
		a.Device = nil
	}
	if a.Adapter != nil {
		a.Adapter.Release()
		a.Adapter = nil
	}
	if a.Surface != nil {
		a.Surface.Release()
		a.Surface = nil
	}
	if a.Instance != nil {
		a.Instance.Release()
		a.Instance = nil
	}
}

func GetSurfaceDescriptor(w *glfw.Window) *wgpu.SurfaceDescriptor {
	return wgpuglfw.GetSurfaceDescriptor(w)
}
