package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/gekko3d/gsplat/splatrt/rt/core"
)

// preallocation cap for declared vertex counts; larger files grow by append
const maxPrealloc = 1 << 20

// Read parses the PLY file at path into a flattened dataset.
func Read(path string) (*core.Dataset, error) {
	d, _, err := Open(path)
	return d, err
}

// ReadFrom parses a PLY stream into a flattened dataset.
func ReadFrom(r io.Reader) (*core.Dataset, error) {
	d, _, err := Decode(r)
	return d, err
}

// Open is Read that also returns the decoded header.
func Open(path string) (*core.Dataset, *Header, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, &ParseError{Path: path, Row: -1, Err: ErrFileNotFound}
		}
		return nil, nil, &ParseError{Path: path, Row: -1, Err: ErrIO, Detail: err.Error()}
	}
	defer file.Close()

	d, h, err := Decode(file)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, nil, err
	}
	return d, h, nil
}

// Decode is ReadFrom that also returns the decoded header.
func Decode(r io.Reader) (*core.Dataset, *Header, error) {
	br := bufio.NewReader(r)

	h, err := ReadHeader(br)
	if err != nil {
		return nil, nil, err
	}

	vi := h.vertexIndex()
	var records []core.SplatRecord
	switch h.Format {
	case FormatBinaryLittleEndian:
		if err := skipBinaryElements(br, h.Elements[:vi]); err != nil {
			return nil, nil, err
		}
		records, err = readBinaryRows(br, h)
	case FormatASCII:
		var skipped int
		skipped, err = skipASCIIElements(br, h.Elements[:vi])
		if err != nil {
			return nil, nil, err
		}
		records, err = readASCIIRows(br, h, h.Lines+skipped)
	}
	if err != nil {
		return nil, nil, err
	}

	return core.NewDataset(records), h, nil
}

func readBinaryRows(br *bufio.Reader, h *Header) ([]core.SplatRecord, error) {
	layout := h.Schema.layout()
	records := make([]core.SplatRecord, 0, min(h.VertexCount, maxPrealloc))
	row := make([]byte, layout.rowSize)

	for i := 0; i < h.VertexCount; i++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, dataErr(i, err, fmt.Sprintf("%d of %d rows", i, h.VertexCount))
		}
		records = append(records, decodeBinaryRow(row, &layout))
	}
	return records, nil
}

// readASCIIRows reads one vertex per line. firstLine is the 1-based line number
// preceding the first vertex row.
func readASCIIRows(br *bufio.Reader, h *Header, firstLine int) ([]core.SplatRecord, error) {
	layout := h.Schema.layout()
	records := make([]core.SplatRecord, 0, min(h.VertexCount, maxPrealloc))

	for i := 0; i < h.VertexCount; i++ {
		line, err := readLine(br)
		if err != nil {
			pe := dataErr(i, err, fmt.Sprintf("%d of %d rows", i, h.VertexCount))
			pe.Line = firstLine + i + 1
			return nil, pe
		}
		records = append(records, decodeASCIIRow(strings.Fields(line), &layout))
	}
	return records, nil
}

func skipBinaryElements(br *bufio.Reader, elements []Element) error {
	for _, e := range elements {
		n := int64(e.Count) * int64(e.Properties.RowSize())
		if n <= 0 {
			continue
		}
		if _, err := io.CopyN(io.Discard, br, n); err != nil {
			return dataErr(-1, err, "element "+e.Name)
		}
	}
	return nil
}

func skipASCIIElements(br *bufio.Reader, elements []Element) (int, error) {
	skipped := 0
	for _, e := range elements {
		for i := 0; i < e.Count; i++ {
			if _, err := readLine(br); err != nil {
				return skipped, dataErr(-1, err, "element "+e.Name)
			}
			skipped++
		}
	}
	return skipped, nil
}

// dataErr classifies a failed body read: running out of input is TruncatedData,
// anything else is an I/O failure.
func dataErr(row int, err error, detail string) *ParseError {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return rowErr(row, ErrTruncatedData, detail)
	}
	return rowErr(row, ErrIO, detail+": "+err.Error())
}
