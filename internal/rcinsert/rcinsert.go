// Package rcinsert implements Perceus-style reference-count insertion:
// given per-block liveness, it rewrites each block's instruction stream in
// place, adding RcInc before every non-last use (the last use consumes the
// value's ownership) and RcDec after a dead definition (spec.md §4.6).
package rcinsert

import (
	"ori/internal/arcir"
	"ori/internal/classify"
	"ori/internal/diagnostics"
	"ori/internal/liveness"
)

// Insert mutates every block of fn, inserting RcInc/RcDec per the backward
// algorithm of spec.md §4.6. liveOut must be the converged live-out set per
// block from liveness.Analyze. Borrowed parameters are tracked in a
// separate "borrows" set so projections from them never receive spurious
// increments unless they flow into an owning position.
func Insert(fn *arcir.Function, live *liveness.Result, c *classify.Classifier) {
	borrowedParams := make(map[arcir.VarId]bool)
	for _, p := range fn.Params {
		if p.Ownership == arcir.Borrowed && c.NeedsRC(p.Type) {
			borrowedParams[p.Var] = true
		}
	}

	for _, b := range fn.Blocks {
		insertBlock(fn, b, live.LiveOut[b.ID()], borrowedParams, c)
	}
}

func insertBlock(fn *arcir.Function, b *arcir.Block, liveOut liveness.VarSet, borrowedParams map[arcir.VarId]bool, c *classify.Classifier) {
	needsRC := func(v arcir.VarId) bool { return c.NeedsRC(fn.VarType(v)) }

	live := liveOut.Clone()
	borrows := make(map[arcir.VarId]bool)
	for v := range borrowedParams {
		borrows[v] = true
	}

	// Scratch buffer built in reverse (decrement, instruction, increments)
	// then reversed once at the end, per the design note in spec.md §9.
	var scratch []arcir.Instr
	var scratchSpans []diagnostics.Span

	oldSpans := make([]diagnostics.Span, len(b.Body))
	for i := range b.Body {
		if sp, ok := fn.Span(b.ID(), i); ok {
			oldSpans[i] = sp
		}
	}

	// The terminator's own uses (e.g. Return's value, Branch's cond) need
	// the same pre-use increment treatment as an instruction's uses, but
	// the terminator itself is never rewritten or moved: any increments it
	// needs become the last instructions of the rebuilt body, immediately
	// preceding it. Since scratch is built backward and reversed once at
	// the end, processing the terminator first places these increments
	// last.
	if b.Term != nil {
		for _, u := range b.Term.Uses() {
			if !needsRC(u) {
				continue
			}
			if borrows[u] {
				continue
			}
			if live[u] {
				scratch = append(scratch, arcir.RcInc{Var: u, Count: 1})
				scratchSpans = append(scratchSpans, diagnostics.Span{})
			}
			live[u] = true
		}
	}

	for i := len(b.Body) - 1; i >= 0; i-- {
		instr := b.Body[i]
		span := oldSpans[i]

		if dst, ok := instr.Result(); ok && needsRC(dst) {
			if !live[dst] {
				scratch = append(scratch, arcir.RcDec{Var: dst})
				scratchSpans = append(scratchSpans, span)
			}
			delete(live, dst)
			delete(borrows, dst)
		}

		scratch = append(scratch, instr)
		scratchSpans = append(scratchSpans, span)

		if proj, ok := instr.(arcir.Project); ok && borrows[proj.Value] {
			// A value projected from a borrowed source is implicitly kept
			// alive by its parent; track it as borrowed rather than live,
			// suppressing the increment this projection would otherwise
			// need as a "use" of its own base.
			borrows[proj.Dst] = true
		}

		for _, u := range instr.Uses() {
			if !needsRC(u) {
				continue
			}
			if live[u] {
				scratch = append(scratch, arcir.RcInc{Var: u, Count: 1})
				scratchSpans = append(scratchSpans, span)
			}
			live[u] = true
		}
	}

	newBody := make([]arcir.Instr, len(scratch))
	newSpans := make([]diagnostics.Span, len(scratch))
	for i, instr := range scratch {
		newBody[len(scratch)-1-i] = instr
		newSpans[len(scratch)-1-i] = scratchSpans[i]
	}
	b.Body = newBody
	fn.RebuildSpans(b.ID(), newSpans)
}
