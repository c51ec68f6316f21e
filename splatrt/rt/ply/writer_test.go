package ply

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecords() []core.SplatRecord {
	return []core.SplatRecord{
		{
			Position:     [3]float32{0.125, -3, 42},
			ColorCoeff:   [3]float32{1.5, -0.25, 0},
			OpacityLogit: -1.75,
			ScaleLog:     [3]float32{-4, -4.5, -5},
			RotationQuat: [4]float32{1, 0, 0, 0},
		},
		{
			Position:     [3]float32{1e6, 1e-6, -0.3},
			ColorCoeff:   [3]float32{-2, 2, 0.333},
			OpacityLogit: 6,
			ScaleLog:     [3]float32{0.1, 0.2, 0.3},
			RotationQuat: [4]float32{0.5, 0.5, -0.5, 0.5},
		},
	}
}

func TestWrite_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatASCII, FormatBinaryLittleEndian} {
		t.Run(format.String(), func(t *testing.T) {
			records := sampleRecords()
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, format, records))

			d, h, err := Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, format, h.Format)
			assert.Len(t, h.Schema, fieldCount)
			assert.Equal(t, records, d.Records)
		})
	}
}

func TestWrite_HeaderLayout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatBinaryLittleEndian, sampleRecords()[:1]))

	head, body, found := strings.Cut(buf.String(), HeaderTerminator+"\n")
	require.True(t, found)
	assert.True(t, strings.HasPrefix(head, "ply\nformat binary_little_endian 1.0\nelement vertex 1\nproperty float x\n"))
	assert.Len(t, body, 4*fieldCount)
}

func TestWrite_RejectsUnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, FormatUnknown, sampleRecords())
	assert.True(t, errors.Is(err, ErrUnknownFormat))
}
