package app

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

type Config struct {
	Title     string
	Width     int
	Height    int
	FilePath  string
	PointSize float32
	Debug     bool

	ClearColor     wgpu.Color
	GridHalfExtent float32
	GridStep       float32
	FontSize       float64
	LogHistory     int
}

func DefaultConfig() Config {
	return Config{
		Title:          "Splat Viewer",
		Width:          1280,
		Height:         720,
		PointSize:      4,
		ClearColor:     wgpu.Color{R: 0.08, G: 0.08, B: 0.1, A: 1},
		GridHalfExtent: 10,
		GridStep:       1,
		FontSize:       16,
		LogHistory:     4,
	}
}

var errInvalidConfig = errors.New("invalid config")

func (c Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", errInvalidConfig, c.Width, c.Height)
	}
	if c.GridStep <= 0 || c.GridHalfExtent < c.GridStep {
		return fmt.Errorf("%w: grid step %g over half extent %g", errInvalidConfig, c.GridStep, c.GridHalfExtent)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("%w: font size %g", errInvalidConfig, c.FontSize)
	}
	return nil
}
