package shaders

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
)

//go:embed splat.wgsl
var SplatWGSL string

//go:embed grid.wgsl
var GridWGSL string

//go:embed text.wgsl
var TextWGSL string

// Splat pipeline entry points. ExpandEntryPoint is a helper called from the
// vertex stage, not a pipeline stage of its own.
const (
	VertexEntryPoint   = "vs_main"
	ExpandEntryPoint   = "expand_quad"
	FragmentEntryPoint = "fs_main"
)

// Validate runs the WGSL front end over src without touching a GPU.
func Validate(src string) error {
	spirv, err := naga.Compile(src)
	if err != nil {
		return fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirv) == 0 {
		return fmt.Errorf("failed to compile shader: empty output")
	}
	return nil
}
