package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// SHC0 is the degree-0 spherical harmonic normalization, 1 / (2*sqrt(pi)).
const SHC0 = 0.28209479177387814

// SplatRecord is one decoded splat. Scale and rotation are carried through but not rendered.
type SplatRecord struct {
	Position     [3]float32
	ColorCoeff   [3]float32 // f_dc_0..2
	OpacityLogit float32
	ScaleLog     [3]float32
	RotationQuat [4]float32 // w, x, y, z
}

// Dataset owns the decoded records and their flattened, upload-ready arrays.
// Positions holds 3 floats per record, Colors holds linear RGBA (4 floats per record).
type Dataset struct {
	Records   []SplatRecord
	Positions []float32
	Colors    []float32
}

func NewDataset(records []SplatRecord) *Dataset {
	d := &Dataset{Records: records}
	d.Flatten()
	return d
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

func (d *Dataset) Empty() bool { return d.Len() == 0 }

func (d *Dataset) Clear() {
	d.Records = nil
	d.Positions = nil
	d.Colors = nil
}

// Flatten rebuilds Positions and Colors from Records.
// Both arrays are built into fresh slices and swapped in together.
func (d *Dataset) Flatten() {
	positions := make([]float32, 0, len(d.Records)*3)
	colors := make([]float32, 0, len(d.Records)*4)

	for _, r := range d.Records {
		positions = append(positions, r.Position[0], r.Position[1], r.Position[2])
		colors = append(colors,
			ColorCoeffToLinear(r.ColorCoeff[0]),
			ColorCoeffToLinear(r.ColorCoeff[1]),
			ColorCoeffToLinear(r.ColorCoeff[2]),
			OpacityToAlpha(r.OpacityLogit),
		)
	}

	d.Positions = positions
	d.Colors = colors
}

// InSync reports whether the flattened arrays match the record count.
func (d *Dataset) InSync() bool {
	n := len(d.Records)
	return len(d.Positions) == 3*n && len(d.Colors) == 4*n
}

// Bounds returns the axis-aligned bounds of all splat positions.
func (d *Dataset) Bounds() (min, max mgl32.Vec3, ok bool) {
	if d.Empty() {
		return min, max, false
	}
	min = mgl32.Vec3(d.Records[0].Position)
	max = min
	for _, r := range d.Records[1:] {
		for i := 0; i < 3; i++ {
			if r.Position[i] < min[i] {
				min[i] = r.Position[i]
			}
			if r.Position[i] > max[i] {
				max[i] = r.Position[i]
			}
		}
	}
	return min, max, true
}

// ColorCoeffToLinear maps a degree-0 SH coefficient to a linear color channel in [0,1].
func ColorCoeffToLinear(c float32) float32 {
	v := 0.5 + float32(SHC0)*c
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// OpacityToAlpha is the logistic sigmoid of the stored opacity logit.
func OpacityToAlpha(o float32) float32 {
	return float32(1.0 / (1.0 + math.Exp(-float64(o))))
}

// LinearToColorCoeff inverts ColorCoeffToLinear for values inside (0,1).
func LinearToColorCoeff(v float32) float32 {
	return (v - 0.5) / float32(SHC0)
}

// AlphaToOpacity inverts OpacityToAlpha for alpha inside (0,1).
func AlphaToOpacity(a float32) float32 {
	return float32(math.Log(float64(a) / (1 - float64(a))))
}
