package app

import (
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/gekko3d/gsplat/splatrt/rt/ply"
)

// GenerateDemo returns n splats on a noisy torus with a hue sweep around the
// ring. The same seed always yields the same cloud.
func GenerateDemo(n int, seed int64) []core.SplatRecord {
	if n <= 0 {
		return nil
	}
	rng := rand.New(rand.NewSource(seed))
	const major, minor = 2.0, 0.6

	records := make([]core.SplatRecord, n)
	for i := range records {
		u := rng.Float64() * 2 * math.Pi
		v := rng.Float64() * 2 * math.Pi
		r := minor * math.Sqrt(rng.Float64())
		x := (major + r*math.Cos(v)) * math.Cos(u)
		z := (major + r*math.Cos(v)) * math.Sin(u)
		y := r * math.Sin(v)

		red, green, blue := hue(u / (2 * math.Pi))
		alpha := 0.5 + 0.5*rng.Float32()
		records[i] = core.SplatRecord{
			Position: [3]float32{float32(x), float32(y), float32(z)},
			ColorCoeff: [3]float32{
				core.LinearToColorCoeff(red),
				core.LinearToColorCoeff(green),
				core.LinearToColorCoeff(blue),
			},
			OpacityLogit: core.AlphaToOpacity(alpha),
			ScaleLog:     [3]float32{-4, -4, -4},
			RotationQuat: [4]float32{1, 0, 0, 0},
		}
	}
	return records
}

// hue maps t in [0,1) to a fully saturated RGB color.
func hue(t float64) (r, g, b float32) {
	h := math.Mod(t, 1) * 6
	x := float32(1 - math.Abs(math.Mod(h, 2)-1))
	switch int(h) {
	case 0:
		return 1, x, 0
	case 1:
		return x, 1, 0
	case 2:
		return 0, 1, x
	case 3:
		return 0, x, 1
	case 4:
		return x, 0, 1
	default:
		return 1, 0, x
	}
}

// WriteDemo writes GenerateDemo(n, seed) as a binary PLY file in dir and
// returns its path.
func WriteDemo(dir string, n int, seed int64) (string, error) {
	f, err := os.CreateTemp(dir, "splat-demo-*.ply")
	if err != nil {
		return "", fmt.Errorf("demo: %w", err)
	}
	if err := ply.Write(f, ply.FormatBinaryLittleEndian, GenerateDemo(n, seed)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("demo: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("demo: %w", err)
	}
	return f.Name(), nil
}
