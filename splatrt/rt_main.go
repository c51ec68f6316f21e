package main

import (
	"flag"
	"os"
	"runtime"

	gsplat "github.com/gekko3d/gsplat"
	"github.com/gekko3d/gsplat/splatrt/rt/app"

	"github.com/go-gl/glfw/v3.3/glfw"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	cfg := app.DefaultConfig()
	file := flag.String("file", "", "Path to a Gaussian splat .ply file")
	pointSize := flag.Float64("point-size", float64(cfg.PointSize), "Splat size in pixels")
	width := flag.Int("width", cfg.Width, "Window width")
	height := flag.Int("height", cfg.Height, "Window height")
	debug := flag.Bool("debug", false, "Enable debug logging and HUD timings")
	demo := flag.Int("demo", 0, "Generate a random cloud of N splats and open it")
	seed := flag.Int64("seed", 1, "Seed for -demo")
	flag.Parse()

	logger := gsplat.NewDefaultLogger("gsplat", *debug)

	cfg.FilePath = *file
	cfg.PointSize = float32(*pointSize)
	cfg.Width = *width
	cfg.Height = *height
	cfg.Debug = *debug
	if err := cfg.Validate(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(2)
	}

	if *demo > 0 {
		path, err := app.WriteDemo("", *demo, *seed)
		if err != nil {
			logger.Errorf("%v", err)
			os.Exit(1)
		}
		defer os.Remove(path)
		logger.Infof("Wrote %d demo splats to %s", *demo, path)
		cfg.FilePath = path
	}

	if err := glfw.Init(); err != nil {
		panic(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		panic(err)
	}
	defer window.Destroy()

	application := app.NewApp(window, cfg, logger)
	if err := application.Init(); err != nil {
		panic(err)
	}
	defer application.Release()

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		application.Resize(width, height)
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		application.HandleCursor(xpos, ypos)
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		application.HandleMouseButton(button, action)
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		application.HandleScroll(yoff)
	})

	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			w.SetShouldClose(true)
			return
		}
		application.HandleKey(key, action)
	})

	for !window.ShouldClose() {
		glfw.PollEvents()
		application.Update()
		application.Render()
	}
}
