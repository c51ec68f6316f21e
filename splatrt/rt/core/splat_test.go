package core

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestColorCoeffToLinear(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"zero", 0, 0.5},
		{"large positive", 100, 1},
		{"large negative", -100, 0},
		{"upper edge", float32(0.5 / SHC0), 1},
		{"one", 1, 0.5 + float32(SHC0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ColorCoeffToLinear(tt.in), 1e-6)
		})
	}
}

func TestColorCoeffToLinear_MonotonicAndBounded(t *testing.T) {
	prev := ColorCoeffToLinear(-10)
	for x := float32(-10); x <= 10; x += 0.05 {
		v := ColorCoeffToLinear(x)
		if v < prev {
			t.Fatalf("not monotonic at %v: %v < %v", x, v, prev)
		}
		if v < 0 || v > 1 {
			t.Fatalf("out of range at %v: %v", x, v)
		}
		prev = v
	}
}

func TestOpacityToAlpha(t *testing.T) {
	assert.Equal(t, float32(0.5), OpacityToAlpha(0))
	assert.InDelta(t, 0, OpacityToAlpha(-50), 1e-6)
	assert.InDelta(t, 1, OpacityToAlpha(50), 1e-6)
	assert.Less(t, OpacityToAlpha(-1), OpacityToAlpha(1))
}

func TestInverseConversions(t *testing.T) {
	for _, v := range []float32{0.1, 0.25, 0.5, 0.9} {
		assert.InDelta(t, v, ColorCoeffToLinear(LinearToColorCoeff(v)), 1e-5)
		assert.InDelta(t, v, OpacityToAlpha(AlphaToOpacity(v)), 1e-5)
	}
}

func TestDataset_Flatten(t *testing.T) {
	d := NewDataset([]SplatRecord{
		{Position: [3]float32{1, 2, 3}, ColorCoeff: [3]float32{0, 0, 0}, OpacityLogit: 0},
		{Position: [3]float32{-1, 0.5, 7}, ColorCoeff: [3]float32{1, -1, 100}, OpacityLogit: 2},
	})

	require.True(t, d.InSync())
	assert.Equal(t, []float32{1, 2, 3, -1, 0.5, 7}, d.Positions)
	require.Len(t, d.Colors, 8)
	assert.Equal(t, []float32{0.5, 0.5, 0.5, 0.5}, d.Colors[:4])
	assert.InDelta(t, 0.5+SHC0, d.Colors[4], 1e-6)
	assert.InDelta(t, 0.5-SHC0, d.Colors[5], 1e-6)
	assert.Equal(t, float32(1), d.Colors[6])
	assert.InDelta(t, 1/(1+math.Exp(-2)), d.Colors[7], 1e-6)
}

func TestDataset_ClearAndEmpty(t *testing.T) {
	d := NewDataset([]SplatRecord{{}, {}, {}})
	assert.Equal(t, 3, d.Len())
	assert.Len(t, d.Positions, 9)
	assert.Len(t, d.Colors, 12)

	d.Clear()
	assert.True(t, d.Empty())
	assert.Empty(t, d.Positions)
	assert.Empty(t, d.Colors)
	assert.True(t, d.InSync())

	var nilSet *Dataset
	assert.True(t, nilSet.Empty())
}

func TestDataset_Bounds(t *testing.T) {
	d := NewDataset(nil)
	_, _, ok := d.Bounds()
	assert.False(t, ok)

	d = NewDataset([]SplatRecord{
		{Position: [3]float32{1, -2, 3}},
		{Position: [3]float32{-4, 5, 0}},
		{Position: [3]float32{2, 1, -6}},
	})
	min, max, ok := d.Bounds()
	require.True(t, ok)
	assert.Equal(t, mgl32.Vec3{-4, -2, -6}, min)
	assert.Equal(t, mgl32.Vec3{2, 5, 3}, max)
}
