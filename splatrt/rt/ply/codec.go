package ply

import (
	"encoding/binary"
	"math"
	"strconv"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
)

// decodeBinaryRow extracts a record from one fixed-width little-endian row.
// Only 4-byte float columns are decoded; every other width decodes as zero.
func decodeBinaryRow(row []byte, l *fieldLayout) core.SplatRecord {
	var v [fieldCount]float32
	for f := 0; f < fieldCount; f++ {
		if l.index[f] < 0 || !l.isF32[f] {
			continue
		}
		off := l.offset[f]
		if off+4 > len(row) {
			continue
		}
		v[f] = math.Float32frombits(binary.LittleEndian.Uint32(row[off : off+4]))
	}
	return recordFromFields(&v)
}

// decodeASCIIRow maps whitespace-split tokens onto the schema in declaration order.
// Every token is parsed as a float regardless of declared type.
func decodeASCIIRow(tokens []string, l *fieldLayout) core.SplatRecord {
	var v [fieldCount]float32
	for f := 0; f < fieldCount; f++ {
		i := l.index[f]
		if i < 0 || i >= len(tokens) {
			continue
		}
		x, err := strconv.ParseFloat(tokens[i], 32)
		if err != nil {
			continue
		}
		v[f] = float32(x)
	}
	return recordFromFields(&v)
}

func recordFromFields(v *[fieldCount]float32) core.SplatRecord {
	return core.SplatRecord{
		Position:     [3]float32{v[fieldX], v[fieldY], v[fieldZ]},
		ColorCoeff:   [3]float32{v[fieldDC0], v[fieldDC1], v[fieldDC2]},
		OpacityLogit: v[fieldOpacity],
		ScaleLog:     [3]float32{v[fieldScale0], v[fieldScale1], v[fieldScale2]},
		RotationQuat: [4]float32{v[fieldRot0], v[fieldRot1], v[fieldRot2], v[fieldRot3]},
	}
}
