package ply

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseHeader(t *testing.T, s string) (*Header, error) {
	t.Helper()
	return ReadHeader(bufio.NewReader(strings.NewReader(s)))
}

func TestReadHeader_Basic(t *testing.T) {
	h, err := parseHeader(t, "ply\n"+
		"format binary_little_endian 1.0\n"+
		"comment exported by a trainer\n"+
		"element vertex 3\n"+
		"property float x\n"+
		"property float y\n"+
		"property float z\n"+
		"property uchar red\n"+
		"property double nx\n"+
		"property float opacity\n"+
		"end_header\n")
	require.NoError(t, err)

	assert.Equal(t, FormatBinaryLittleEndian, h.Format)
	assert.Equal(t, "1.0", h.Version)
	assert.Equal(t, 3, h.VertexCount)
	assert.Equal(t, 11, h.Lines)
	assert.Empty(t, h.UnknownTypes)

	require.Len(t, h.Schema, 6)
	assert.Equal(t, []int{0, 4, 8, 12, 13, 21}, h.Schema.Offsets())
	assert.Equal(t, 25, h.Schema.RowSize())
	assert.True(t, h.Schema[0].IsFloat)
	assert.False(t, h.Schema[3].IsFloat)
	assert.False(t, h.Schema[4].IsFloat, "doubles are not decoded")
}

func TestReadHeader_CRLFAndObjInfo(t *testing.T) {
	h, err := parseHeader(t, "ply\r\nformat ascii 1.0\r\nobj_info generated\r\nelement vertex 1\r\nproperty float x\r\nproperty float y\r\nproperty float z\r\nend_header\r\n")
	require.NoError(t, err)
	assert.Equal(t, FormatASCII, h.Format)
	assert.Equal(t, []string{"x", "y", "z"}, []string{h.Schema[0].Name, h.Schema[1].Name, h.Schema[2].Name})
}

func TestReadHeader_OnlyVertexPropertiesCollected(t *testing.T) {
	h, err := parseHeader(t, "ply\nformat ascii 1.0\n"+
		"element camera 1\nproperty float x\nproperty weird fov\n"+
		"element vertex 2\nproperty float x\nproperty float y\nproperty float z\n"+
		"element face 0\nproperty list uchar int vertex_indices\n"+
		"end_header\n")
	require.NoError(t, err)

	require.Len(t, h.Elements, 3)
	assert.Equal(t, "camera", h.Elements[0].Name)
	assert.Len(t, h.Elements[0].Properties, 2)
	assert.Len(t, h.Schema, 3)
	assert.Equal(t, 2, h.VertexCount)
	assert.Empty(t, h.UnknownTypes, "types outside the vertex element are not reported")
}

func TestReadHeader_UnknownTypeFallsBackToFourBytes(t *testing.T) {
	h, err := parseHeader(t, "ply\nformat binary_little_endian 1.0\nelement vertex 1\n"+
		"property float x\nproperty half h\nproperty float y\nproperty float z\nend_header\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"half"}, h.UnknownTypes)
	assert.Equal(t, 4, h.Schema[1].ByteWidth)
	assert.False(t, h.Schema[1].IsFloat)
	assert.Equal(t, 8, h.Schema.Offsets()[2])
}

func TestReadHeader_Errors(t *testing.T) {
	xyz := "property float x\nproperty float y\nproperty float z\n"
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"empty file", "", ErrBadMagic},
		{"bad magic", "obj\nformat ascii 1.0\n", ErrBadMagic},
		{"unterminated", "ply\nformat ascii 1.0\nelement vertex 1\n" + xyz, ErrTruncatedData},
		{"no format", "ply\nelement vertex 1\n" + xyz + "end_header\n", ErrUnknownFormat},
		{"big endian", "ply\nformat binary_big_endian 1.0\nelement vertex 1\n" + xyz + "end_header\n", ErrUnknownFormat},
		{"zero vertices", "ply\nformat ascii 1.0\nelement vertex 0\n" + xyz + "end_header\n", ErrEmptyDataset},
		{"negative vertices", "ply\nformat ascii 1.0\nelement vertex -4\n" + xyz + "end_header\n", ErrEmptyDataset},
		{"no vertex element", "ply\nformat ascii 1.0\nelement face 3\nend_header\n", ErrEmptyDataset},
		{"missing z", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float x\nproperty float y\n" +
			"property float f_dc_0\nproperty float f_dc_1\nproperty float f_dc_2\nproperty float opacity\nend_header\n", ErrMissingField},
		{"case sensitive", "ply\nformat ascii 1.0\nelement vertex 1\nproperty float X\nproperty float Y\nproperty float Z\nend_header\n", ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseHeader(t, tt.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			var pe *ParseError
			assert.True(t, errors.As(err, &pe))
		})
	}
}

func TestParseError_Message(t *testing.T) {
	err := &ParseError{Path: "scene.ply", Line: 3, Row: -1, Err: ErrUnknownFormat, Detail: "binary_big_endian"}
	assert.Equal(t, "scene.ply: line 3: unknown PLY format: binary_big_endian", err.Error())

	err = &ParseError{Row: 7, Err: ErrTruncatedData}
	assert.Equal(t, "row 7: unexpected end of data", err.Error())
}
