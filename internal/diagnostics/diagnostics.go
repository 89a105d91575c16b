// Package diagnostics implements the accumulate-don't-throw error-handling
// policy of spec.md §7: every pass takes a growable accumulator and records
// structured diagnostics with spans, continuing on a best-effort basis so a
// single run surfaces as many issues as possible.
package diagnostics

import "fmt"

// Span is a byte-offset source range, propagated but never interpreted by
// this core (spec.md §6).
type Span struct {
	File        string
	StartOffset int
	EndOffset   int
	Line        int
	Column      int
}

// Level is the severity of a CompilerError.
type Level string

const (
	Error   Level = "error"
	Warning Level = "warning"
	Note    Level = "note"
	Help    Level = "help"
)

// Suggestion is a suggested fix attached to an error.
type Suggestion struct {
	Message     string
	Replacement string
}

// CompilerError is a structured diagnostic, carrying enough context to be
// rendered Rust-style by Reporter.
type CompilerError struct {
	Level       Level
	Code        string
	Message     string
	Span        *Span // nil when no source position is available
	Suggestions []Suggestion
	Notes       []string
}

func (e CompilerError) String() string {
	if e.Span != nil {
		return fmt.Sprintf("%s[%s] %s:%d:%d: %s", e.Level, e.Code, e.Span.File, e.Span.Line, e.Span.Column, e.Message)
	}
	return fmt.Sprintf("%s[%s] %s", e.Level, e.Code, e.Message)
}

// Accumulator collects diagnostics across a pass (or a whole pipeline run)
// without aborting on the first one. Unrecoverable internal invariant
// violations are still signaled separately via Fatal — see HasFatal.
type Accumulator struct {
	errors []CompilerError
	fatal  bool
}

// NewAccumulator returns an empty Accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Add records a diagnostic.
func (a *Accumulator) Add(err CompilerError) {
	a.errors = append(a.errors, err)
}

// AddFatal records a diagnostic and marks the accumulator as having hit an
// unrecoverable invariant violation (SSA/dominance breakage) for the
// function currently being processed — per spec.md §7, this is fatal to the
// pipeline for the affected function only; other functions still proceed.
func (a *Accumulator) AddFatal(err CompilerError) {
	a.Add(err)
	a.fatal = true
}

// HasFatal reports whether AddFatal was ever called.
func (a *Accumulator) HasFatal() bool { return a.fatal }

// Errors returns all recorded diagnostics in recording order.
func (a *Accumulator) Errors() []CompilerError {
	return a.errors
}

// HasErrors reports whether any diagnostic at Error level was recorded.
func (a *Accumulator) HasErrors() bool {
	for _, e := range a.errors {
		if e.Level == Error {
			return true
		}
	}
	return false
}

// Merge appends another accumulator's diagnostics into a, preserving fatal
// status. Used when per-function passes run on separate accumulators under
// the parallel scheduling contract of spec.md §5 and need to be folded back
// into a single report.
func (a *Accumulator) Merge(other *Accumulator) {
	if other == nil {
		return
	}
	a.errors = append(a.errors, other.errors...)
	if other.fatal {
		a.fatal = true
	}
}
