// Package diag holds the compiler's diagnostic model: a typed message tied
// to a source location, and a Sink that accumulates them across a whole
// translation unit instead of unwinding the Go call stack.
package diag

import (
	"fmt"
	"sort"
	"strings"
)

// Level distinguishes a recoverable diagnostic from one that aborts the
// compilation immediately.
type Level int

const (
	Warning Level = iota
	Error
	Fatal
)

func (l Level) String() string {
	switch l {
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	default:
		return "error"
	}
}

// Location mirrors the teacher's SourceLocation: file, line, column, plus
// the raw source line so diagnostics can render a caret under the token.
type Location struct {
	File   string
	Line   int
	Column int
	Source string
}

// Diagnostic is one recorded message.
type Diagnostic struct {
	Level   Level
	Message string
	Loc     Location
}

// String renders "file(line): [warning:] message" followed by the source
// line and a caret, per spec.md §6.
func (d Diagnostic) String() string {
	var sb strings.Builder
	prefix := ""
	if d.Level == Warning {
		prefix = "warning: "
	}
	if d.Loc.File != "" {
		fmt.Fprintf(&sb, "%s(%d): %s%s", d.Loc.File, d.Loc.Line, prefix, d.Message)
	} else {
		fmt.Fprintf(&sb, "%s%s", prefix, d.Message)
	}
	if d.Loc.Source != "" {
		fmt.Fprintf(&sb, "\n  %s\n  ", d.Loc.Source)
		if d.Loc.Column > 0 {
			sb.WriteString(strings.Repeat(" ", d.Loc.Column-1))
		}
		sb.WriteString("^")
	}
	return sb.String()
}

// FatalErr is returned by the driver when compilation must abort; it
// replaces the teacher's exit(1)-on-fatal pattern with a propagated
// result, per spec.md Design Notes §9.
type FatalErr struct {
	Reason string
}

func (f *FatalErr) Error() string { return f.Reason }

// Sink accumulates diagnostics for one translation unit. Up to
// errorThreshold non-fatal errors are tolerated before the sink reports
// itself exhausted (spec.md §4.B "up to 25 non-fatal errors").
type Sink struct {
	WarningsAsErrors bool

	diags    []Diagnostic
	warnings int
	errors   int

	errorThreshold int
}

const defaultErrorThreshold = 25

// NewSink builds a Sink with the default 25-error fatal threshold.
func NewSink() *Sink {
	return &Sink{errorThreshold: defaultErrorThreshold}
}

// Warn records a warning. If WarningsAsErrors is set it counts against
// the fatal threshold like a real error (spec.md §7).
func (s *Sink) Warn(loc Location, format string, args ...interface{}) {
	s.record(Warning, loc, format, args...)
	s.warnings++
}

// Errorf records a non-fatal semantic error. Returns true if the fatal
// threshold has now been reached and the caller should abort the walk.
func (s *Sink) Errorf(loc Location, format string, args ...interface{}) bool {
	s.record(Error, loc, format, args...)
	s.errors++
	return s.Exhausted()
}

// Fatal records a fatal diagnostic and returns the FatalErr the driver
// should propagate and turn into a process exit code.
func (s *Sink) Fatal(loc Location, format string, args ...interface{}) *FatalErr {
	msg := fmt.Sprintf(format, args...)
	s.record(Fatal, loc, "%s", msg)
	return &FatalErr{Reason: msg}
}

func (s *Sink) record(level Level, loc Location, format string, args ...interface{}) {
	s.diags = append(s.diags, Diagnostic{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Loc:     loc,
	})
}

// Exhausted reports whether the accumulated error count (plus, if
// WarningsAsErrors, warnings) has reached the fatal threshold.
func (s *Sink) Exhausted() bool {
	count := s.errors
	if s.WarningsAsErrors {
		count += s.warnings
	}
	return count >= s.errorThreshold
}

// HadErrors reports whether the exit code should be non-zero.
func (s *Sink) HadErrors() bool {
	if s.errors > 0 {
		return true
	}
	return s.WarningsAsErrors && s.warnings > 0
}

// Counts returns the accumulated warning/error counts.
func (s *Sink) Counts() (warnings, errors int) { return s.warnings, s.errors }

// Diagnostics returns all recorded diagnostics ordered by source position
// within a file, matching spec.md §7's "ordered by source position within
// a single file" requirement.
func (s *Sink) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(s.diags))
	copy(out, s.diags)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Loc, out[j].Loc
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}
