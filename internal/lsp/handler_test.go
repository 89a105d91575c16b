package lsp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"ori/internal/diagnostics"
	"ori/internal/lsp"
)

func TestInitializeAdvertisesFullTextSyncOnly(t *testing.T) {
	h := lsp.NewHandler(func(raw []byte) *diagnostics.Accumulator {
		return diagnostics.NewAccumulator()
	})

	res, err := h.Initialize(nil, &protocol.InitializeParams{})
	require.NoError(t, err)

	result, ok := res.(*protocol.InitializeResult)
	require.True(t, ok)
	require.NotNil(t, result.Capabilities.TextDocumentSync)

	sync, ok := result.Capabilities.TextDocumentSync.(*protocol.TextDocumentSyncOptions)
	require.True(t, ok)
	assert.Equal(t, protocol.TextDocumentSyncKindFull, *sync.Change)
	assert.Nil(t, result.Capabilities.CompletionProvider)
	assert.Nil(t, result.Capabilities.SemanticTokensProvider)
}

func TestConvertDiagnosticsMapsLevelsAndSpans(t *testing.T) {
	errs := []diagnostics.CompilerError{
		{
			Level:   diagnostics.Error,
			Code:    diagnostics.CodeBorrowNonConvergence,
			Message: "did not converge",
			Span:    &diagnostics.Span{File: "f.json", Line: 3, Column: 5, StartOffset: 10, EndOffset: 14},
		},
		{
			Level:   diagnostics.Warning,
			Code:    diagnostics.CodeVerifierSSA,
			Message: "no span attached",
		},
	}

	out := lsp.ConvertDiagnostics(errs)
	require.Len(t, out, 2)

	assert.Equal(t, protocol.DiagnosticSeverityError, *out[0].Severity)
	assert.Equal(t, uint32(2), out[0].Range.Start.Line)
	assert.Equal(t, uint32(4), out[0].Range.Start.Character)
	assert.Contains(t, out[0].Message, "did not converge")

	assert.Equal(t, protocol.DiagnosticSeverityWarning, *out[1].Severity)
	assert.Equal(t, uint32(0), out[1].Range.Start.Line)
}

func TestConvertDiagnosticsEmpty(t *testing.T) {
	assert.Empty(t, lsp.ConvertDiagnostics(nil))
}
