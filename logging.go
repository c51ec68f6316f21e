package gsplat

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

// Logger is the diagnostics sink for splat nodes and the viewer.
// It satisfies gpu.Diagnostics.
type Logger interface {
	DebugEnabled() bool
	SetDebug(enabled bool)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type DefaultLogger struct {
	mu     sync.Mutex
	debug  bool
	prefix string
	out    *log.Logger
	err    *log.Logger
}

func NewDefaultLogger(prefix string, debug bool) *DefaultLogger {
	return NewWriterLogger(prefix, debug, os.Stdout, os.Stderr)
}

// NewWriterLogger writes debug and info lines to out, warnings and errors to errOut.
func NewWriterLogger(prefix string, debug bool, out, errOut io.Writer) *DefaultLogger {
	flags := log.LstdFlags | log.Lmicroseconds
	return &DefaultLogger{
		debug:  debug,
		prefix: prefix,
		out:    log.New(out, "", flags),
		err:    log.New(errOut, "", flags),
	}
}

func (l *DefaultLogger) DebugEnabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.debug
}

func (l *DefaultLogger) SetDebug(enabled bool) {
	l.mu.Lock()
	l.debug = enabled
	l.mu.Unlock()
}

func (l *DefaultLogger) prefixf(level string, format string, args ...any) string {
	if l.prefix != "" {
		return fmt.Sprintf("[%s] %s: %s", l.prefix, level, fmt.Sprintf(format, args...))
	}
	return fmt.Sprintf("%s: %s", level, fmt.Sprintf(format, args...))
}

func (l *DefaultLogger) Debugf(format string, args ...any) {
	if !l.DebugEnabled() {
		return
	}
	l.out.Print(l.prefixf("DEBUG", format, args...))
}

func (l *DefaultLogger) Infof(format string, args ...any) {
	l.out.Print(l.prefixf("INFO", format, args...))
}

func (l *DefaultLogger) Warnf(format string, args ...any) {
	l.err.Print(l.prefixf("WARN", format, args...))
}

func (l *DefaultLogger) Errorf(format string, args ...any) {
	l.err.Print(l.prefixf("ERROR", format, args...))
}

type nopLogger struct{}

func NewNopLogger() Logger { return &nopLogger{} }
func (n *nopLogger) DebugEnabled() bool                { return false }
func (n *nopLogger) SetDebug(enabled bool)             {}
func (n *nopLogger) Debugf(format string, args ...any) {}
func (n *nopLogger) Infof(format string, args ...any)  {}
func (n *nopLogger) Warnf(format string, args ...any)  {}
func (n *nopLogger) Errorf(format string, args ...any) {}

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	default:
		return "ERROR"
	}
}

type Entry struct {
	Level   Level
	Message string
}

// HistoryLogger forwards to another Logger and keeps the most recent entries
// for on-screen display.
type HistoryLogger struct {
	Logger
	mu      sync.Mutex
	limit   int
	entries []Entry
}

func NewHistoryLogger(next Logger, limit int) *HistoryLogger {
	if next == nil {
		next = NewNopLogger()
	}
	if limit <= 0 {
		limit = 1
	}
	return &HistoryLogger{Logger: next, limit: limit}
}

func (h *HistoryLogger) add(level Level, format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, Entry{Level: level, Message: fmt.Sprintf(format, args...)})
	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append(h.entries[:0], h.entries[over:]...)
	}
}

func (h *HistoryLogger) Debugf(format string, args ...any) {
	if h.Logger.DebugEnabled() {
		h.add(LevelDebug, format, args...)
	}
	h.Logger.Debugf(format, args...)
}

func (h *HistoryLogger) Infof(format string, args ...any) {
	h.add(LevelInfo, format, args...)
	h.Logger.Infof(format, args...)
}

func (h *HistoryLogger) Warnf(format string, args ...any) {
	h.add(LevelWarn, format, args...)
	h.Logger.Warnf(format, args...)
}

func (h *HistoryLogger) Errorf(format string, args ...any) {
	h.add(LevelError, format, args...)
	h.Logger.Errorf(format, args...)
}

// Entries returns a copy of the retained entries, oldest first.
func (h *HistoryLogger) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}
