// SPDX-License-Identifier: Apache-2.0
package main

import (
	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"ori/internal/diagnostics"
	"ori/internal/fixture"
	"ori/internal/lowering"
	"ori/internal/lsp"
	"ori/internal/pipeline"
)

const lsName = "arc-lsp"

func main() {
	commonlog.Configure(1, nil)

	handler := lsp.NewHandler(compile)

	h := protocol.Handler{
		Initialize:            handler.Initialize,
		Initialized:           handler.Initialized,
		Shutdown:              handler.Shutdown,
		SetTrace:              handler.SetTrace,
		TextDocumentDidOpen:   handler.TextDocumentDidOpen,
		TextDocumentDidChange: handler.TextDocumentDidChange,
		TextDocumentDidClose:  handler.TextDocumentDidClose,
	}

	s := server.NewServer(&h, lsName, false)
	s.RunStdio()
}

// compile runs a fixture through loading, lowering, and the full ARC IR
// pipeline, merging every stage's diagnostics into one accumulator for the
// editor to display. Unlike cmd/arc-compile it never exits on error — the
// LSP surface's job is to keep reporting, not to halt.
func compile(raw []byte) *diagnostics.Accumulator {
	merged := diagnostics.NewAccumulator()

	pool, typedFns, err := fixture.Load(raw)
	if err != nil {
		merged.Add(diagnostics.CompilerError{
			Level:   diagnostics.Error,
			Code:    diagnostics.CodeUnsupportedExpr,
			Message: err.Error(),
		})
		return merged
	}

	lowerDiags := diagnostics.NewAccumulator()
	lowerer := lowering.New(pool, lowerDiags)
	fns := lowerer.LowerProgram(typedFns)
	merged.Merge(lowerDiags)

	result := pipeline.Run(fns, pool, pipeline.DefaultOptions())
	merged.Merge(result.Diagnostics)

	return merged
}
