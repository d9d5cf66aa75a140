// Package logging provides the leveled log sink threaded through the pipeline.
package logging

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Level classifies a log line.
type Level int

const (
	Debug Level = iota
	Info
	Warn
	Error
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Sink receives formatted log lines. Implementations must be safe for use
// from a single goroutine; the pipeline is synchronous.
type Sink interface {
	Writeln(level Level, format string, args ...any)
}

// WriterSink writes plain lines to an io.Writer.
type WriterSink struct {
	W io.Writer
}

func (s WriterSink) Writeln(level Level, format string, args ...any) {
	fmt.Fprintf(s.W, format+"\n", args...)
}

// TeeSink fans a line out to several sinks.
type TeeSink []Sink

func (t TeeSink) Writeln(level Level, format string, args ...any) {
	for _, s := range t {
		s.Writeln(level, format, args...)
	}
}

// Discard drops everything. Used by tests.
type Discard struct{}

func (Discard) Writeln(Level, string, ...any) {}

var (
	warnColor  = color.New(color.FgYellow)
	errorColor = color.New(color.FgRed, color.Bold)
)

// ColorSink writes to an io.Writer, coloring warnings and errors.
type ColorSink struct {
	W io.Writer
}

func (s ColorSink) Writeln(level Level, format string, args ...any) {
	switch level {
	case Warn:
		warnColor.Fprintf(s.W, format+"\n", args...)
	case Error:
		errorColor.Fprintf(s.W, format+"\n", args...)
	default:
		fmt.Fprintf(s.W, format+"\n", args...)
	}
}
