package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Reporter formats CompilerErrors with Rust-like caret styling, the same
// shape as the teacher's error reporter: a colored header line, a
// `--> file:line:col` location line, one or two lines of source context,
// a caret marker under the offending span, then suggestions/notes/help.
type Reporter struct {
	source map[string]string // file -> full source text, for context lines
}

// NewReporter creates a Reporter. Source text for a given file is supplied
// lazily via SetSource; files with no known source render without context
// lines.
func NewReporter() *Reporter {
	return &Reporter{source: make(map[string]string)}
}

// SetSource registers the source text for a file so Format can print
// context lines around a Span in that file.
func (r *Reporter) SetSource(file, src string) {
	r.source[file] = src
}

// Format renders a single CompilerError.
func (r *Reporter) Format(err CompilerError) string {
	var b strings.Builder

	levelColor := r.levelColor(err.Level)
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()

	if err.Code != "" {
		b.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(err.Level)), err.Code, err.Message))
	} else {
		b.WriteString(fmt.Sprintf("%s: %s\n", levelColor(string(err.Level)), err.Message))
	}

	if err.Span != nil {
		width := lineNumberWidth(err.Span.Line)
		indent := strings.Repeat(" ", width)

		b.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), err.Span.File, err.Span.Line, err.Span.Column))
		b.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

		lines := strings.Split(r.source[err.Span.File], "\n")
		if err.Span.Line > 0 && err.Span.Line <= len(lines) {
			content := lines[err.Span.Line-1]
			b.WriteString(fmt.Sprintf("%s %s %s\n", bold(pad(err.Span.Line, width)), dim("│"), content))

			length := err.Span.EndOffset - err.Span.StartOffset
			if length <= 0 {
				length = 1
			}
			marker := strings.Repeat(" ", max(0, err.Span.Column-1)) + strings.Repeat("^", length)
			b.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), levelColor(marker)))
		}
	}

	if len(err.Suggestions) > 0 {
		help := color.New(color.FgCyan).SprintFunc()
		for i, s := range err.Suggestions {
			if i == 0 {
				b.WriteString(fmt.Sprintf("  %s %s: %s\n", help("help"), help("try"), s.Message))
			} else {
				b.WriteString(fmt.Sprintf("       %s\n", s.Message))
			}
			if s.Replacement != "" {
				b.WriteString(fmt.Sprintf("       %s\n", help(s.Replacement)))
			}
		}
	}

	for _, note := range err.Notes {
		noteColor := color.New(color.FgBlue).SprintFunc()
		b.WriteString(fmt.Sprintf("  %s %s\n", noteColor("note:"), note))
	}

	return b.String()
}

// FormatAll renders every diagnostic in an Accumulator, in order.
func (r *Reporter) FormatAll(acc *Accumulator) string {
	var b strings.Builder
	for _, e := range acc.Errors() {
		b.WriteString(r.Format(e))
		b.WriteString("\n")
	}
	return b.String()
}

func (r *Reporter) levelColor(level Level) func(...interface{}) string {
	switch level {
	case Error:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case Warning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case Note:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	case Help:
		return color.New(color.FgGreen, color.Bold).SprintFunc()
	default:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	}
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		return 3
	}
	return w
}

func pad(n, width int) string {
	return fmt.Sprintf("%*d", width, n)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
