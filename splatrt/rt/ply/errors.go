package ply

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound  = errors.New("file not found")
	ErrIO            = errors.New("i/o error")
	ErrBadMagic      = errors.New("not a PLY file")
	ErrUnknownFormat = errors.New("unknown PLY format")
	ErrEmptyDataset  = errors.New("no vertices in PLY")
	ErrMissingField  = errors.New("PLY missing position properties (x/y/z)")
	ErrTruncatedData = errors.New("unexpected end of data")
)

// ParseError carries the file and line context of a failed read.
// Line is 1-based for header and ASCII failures; Row is the 0-based vertex row, or -1.
type ParseError struct {
	Path   string
	Line   int
	Row    int
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Row >= 0:
		msg = fmt.Sprintf("row %d: %s", e.Row, msg)
	case e.Line > 0:
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Path != "" {
		msg = e.Path + ": " + msg
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

func headerErr(line int, err error, detail string) *ParseError {
	return &ParseError{Line: line, Row: -1, Err: err, Detail: detail}
}

func rowErr(row int, err error, detail string) *ParseError {
	return &ParseError{Row: row, Err: err, Detail: detail}
}
