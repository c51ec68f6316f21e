package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
)

// Write encodes records as a single float-typed vertex element with the
// standard splat property set.
func Write(w io.Writer, format Format, records []core.SplatRecord) error {
	if format != FormatASCII && format != FormatBinaryLittleEndian {
		return fmt.Errorf("write: %w: %v", ErrUnknownFormat, format)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\nformat %s 1.0\n", MagicMarker, format)
	fmt.Fprintf(bw, "element %s %d\n", VertexElement, len(records))
	for _, name := range fieldNames {
		fmt.Fprintf(bw, "property float %s\n", name)
	}
	fmt.Fprintf(bw, "%s\n", HeaderTerminator)

	var v [fieldCount]float32
	row := make([]byte, 4*fieldCount)
	tokens := make([]string, fieldCount)
	for i := range records {
		fieldsFromRecord(&records[i], &v)
		if format == FormatBinaryLittleEndian {
			for f, x := range v {
				binary.LittleEndian.PutUint32(row[4*f:], math.Float32bits(x))
			}
			if _, err := bw.Write(row); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
			continue
		}
		for f, x := range v {
			tokens[f] = strconv.FormatFloat(float64(x), 'g', -1, 32)
		}
		if _, err := bw.WriteString(strings.Join(tokens, " ") + "\n"); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

func fieldsFromRecord(r *core.SplatRecord, v *[fieldCount]float32) {
	v[fieldX], v[fieldY], v[fieldZ] = r.Position[0], r.Position[1], r.Position[2]
	v[fieldDC0], v[fieldDC1], v[fieldDC2] = r.ColorCoeff[0], r.ColorCoeff[1], r.ColorCoeff[2]
	v[fieldOpacity] = r.OpacityLogit
	v[fieldScale0], v[fieldScale1], v[fieldScale2] = r.ScaleLog[0], r.ScaleLog[1], r.ScaleLog[2]
	v[fieldRot0], v[fieldRot1], v[fieldRot2], v[fieldRot3] = r.RotationQuat[0], r.RotationQuat[1], r.RotationQuat[2], r.RotationQuat[3]
}
