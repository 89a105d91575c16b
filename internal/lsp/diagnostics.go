package lsp

import (
	"fmt"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"ori/internal/diagnostics"
)

// ConvertDiagnostics transforms accumulated compiler diagnostics into LSP
// diagnostics for IDE display. A nil Span (no source position attached,
// common for whole-program passes like borrow inference) falls back to the
// start of the document rather than being dropped.
func ConvertDiagnostics(errs []diagnostics.CompilerError) []protocol.Diagnostic {
	var out []protocol.Diagnostic

	for _, e := range errs {
		rng := protocol.Range{}
		if e.Span != nil {
			rng = protocol.Range{
				Start: protocol.Position{
					Line:      uint32(max0(e.Span.Line - 1)),
					Character: uint32(max0(e.Span.Column - 1)),
				},
				End: protocol.Position{
					Line:      uint32(max0(e.Span.Line - 1)),
					Character: uint32(max0(e.Span.Column - 1 + (e.Span.EndOffset - e.Span.StartOffset))),
				},
			}
		}

		out = append(out, protocol.Diagnostic{
			Range:    rng,
			Severity: ptrSeverity(convertLevel(e.Level)),
			Source:   ptrString("arc-ir"),
			Message:  fmt.Sprintf("[%s] %s", e.Code, e.Message),
		})
	}

	return out
}

func convertLevel(l diagnostics.Level) protocol.DiagnosticSeverity {
	switch l {
	case diagnostics.Error:
		return protocol.DiagnosticSeverityError
	case diagnostics.Warning:
		return protocol.DiagnosticSeverityWarning
	case diagnostics.Note:
		return protocol.DiagnosticSeverityInformation
	case diagnostics.Help:
		return protocol.DiagnosticSeverityHint
	default:
		return protocol.DiagnosticSeverityError
	}
}

func max0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}

func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}

func ptrString(s string) *string {
	return &s
}
