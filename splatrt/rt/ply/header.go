package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	MagicMarker      = "ply"
	HeaderTerminator = "end_header"
	VertexElement    = "vertex"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatASCII
	FormatBinaryLittleEndian
)

func (f Format) String() string {
	switch f {
	case FormatASCII:
		return "ascii"
	case FormatBinaryLittleEndian:
		return "binary_little_endian"
	default:
		return "unknown"
	}
}

// Element is one "element" declaration and the properties declared under it.
type Element struct {
	Name       string
	Count      int
	Properties Schema
}

// Header is the decoded text header of a PLY file.
type Header struct {
	Format       Format
	Version      string
	Elements     []Element
	VertexCount  int
	Schema       Schema   // vertex element properties
	UnknownTypes []string // property type names that fell back to a 4-byte column
	Lines        int      // number of header lines including the terminator
}

// vertexIndex returns the index of the vertex element in Elements, or -1.
func (h *Header) vertexIndex() int {
	for i, e := range h.Elements {
		if e.Name == VertexElement {
			return i
		}
	}
	return -1
}

func (h *Header) validate() error {
	if h.Format == FormatUnknown {
		return headerErr(0, ErrUnknownFormat, "no format directive")
	}
	if h.VertexCount <= 0 {
		return headerErr(0, ErrEmptyDataset, fmt.Sprintf("vertex count %d", h.VertexCount))
	}
	if !h.Schema.HasPosition() {
		return headerErr(0, ErrMissingField, "")
	}
	return nil
}

// ReadHeader consumes the header from r, leaving r positioned at the first data byte.
func ReadHeader(r *bufio.Reader) (*Header, error) {
	h := &Header{}

	line, err := readLine(r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, headerErr(1, ErrBadMagic, "empty file")
		}
		return nil, headerErr(1, fmt.Errorf("%w: %v", ErrIO, err), "")
	}
	h.Lines = 1
	if !strings.Contains(line, MagicMarker) {
		return nil, headerErr(1, ErrBadMagic, "")
	}

	current := -1
	terminated := false
	for !terminated {
		line, err = readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, headerErr(h.Lines, ErrTruncatedData, "header not terminated")
			}
			return nil, headerErr(h.Lines, fmt.Errorf("%w: %v", ErrIO, err), "")
		}
		h.Lines++

		if strings.TrimSpace(line) == HeaderTerminator {
			terminated = true
			continue
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) < 2 {
				return nil, headerErr(h.Lines, ErrUnknownFormat, "missing format name")
			}
			switch fields[1] {
			case "ascii":
				h.Format = FormatASCII
			case "binary_little_endian":
				h.Format = FormatBinaryLittleEndian
			default:
				return nil, headerErr(h.Lines, ErrUnknownFormat, fields[1])
			}
			if len(fields) > 2 {
				h.Version = fields[2]
			}
		case "element":
			e := Element{}
			if len(fields) > 1 {
				e.Name = fields[1]
			}
			if len(fields) > 2 {
				// a malformed count reads as zero
				e.Count, _ = strconv.Atoi(fields[2])
			}
			h.Elements = append(h.Elements, e)
			current = len(h.Elements) - 1
		case "property":
			if current < 0 {
				continue
			}
			typeName, name := "", ""
			if len(fields) > 1 {
				typeName = fields[1]
			}
			if len(fields) > 2 {
				name = fields[len(fields)-1]
			}
			p, known := NewProperty(typeName, name)
			if !known && h.Elements[current].Name == VertexElement {
				h.UnknownTypes = append(h.UnknownTypes, typeName)
			}
			h.Elements[current].Properties = append(h.Elements[current].Properties, p)
		}
		// comment, obj_info and anything else are ignored
	}

	if vi := h.vertexIndex(); vi >= 0 {
		h.Schema = h.Elements[vi].Properties
		h.VertexCount = h.Elements[vi].Count
	}

	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// readLine returns the next line without its trailing LF or CRLF.
// A final line without a newline is returned with a nil error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
