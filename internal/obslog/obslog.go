// Package obslog is the thin structured-logging wrapper shared across
// codegraph's packages. Grounded on the teacher's own logging, which
// reaches for the standard library's "log" package directly
// (`pkg/nornicdb/db.go`, `cmd/nornicdb/main.go`) rather than a
// third-party façade, even though several sibling repos in the example
// pack pull in logrus/zap/zerolog — see DESIGN.md for why that pattern
// is not followed here.
package obslog

import (
	"fmt"
	"log"
	"os"
)

// Logger prefixes every line with a component tag, the same
// "[component] message" shape the teacher's own Printf call sites use
// ad hoc (e.g. the embed queue's startup log), made consistent across
// every package that logs.
type Logger struct {
	component string
	std       *log.Logger
}

// New returns a Logger tagging its output with component, writing to
// stderr with the standard library's default date/time flags.
func New(component string) *Logger {
	return &Logger{
		component: component,
		std:       log.New(os.Stderr, "", log.LstdFlags),
	}
}

func (l *Logger) printf(level, format string, args ...any) {
	l.std.Printf("%s [%s] %s", level, l.component, fmt.Sprintf(format, args...))
}

// Info logs a routine informational message.
func (l *Logger) Info(format string, args ...any) { l.printf("INFO", format, args...) }

// Warn logs a recoverable problem a caller should be aware of.
func (l *Logger) Warn(format string, args ...any) { l.printf("WARN", format, args...) }

// Error logs a failed operation. It does not itself terminate the
// process; callers decide whether the error is fatal.
func (l *Logger) Error(format string, args ...any) { l.printf("ERROR", format, args...) }

// With returns a Logger scoped to a sub-component, e.g.
// obslog.New("codeintel").With("ingest").
func (l *Logger) With(subComponent string) *Logger {
	return &Logger{component: l.component + "." + subComponent, std: l.std}
}
