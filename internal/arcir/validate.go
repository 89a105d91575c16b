package arcir

import (
	"fmt"

	"ori/internal/diagnostics"
)

// Verify checks fn against the structural invariants of spec.md §3:
//
//  1. every VarId is defined at most once (SSA)
//  2. every use is dominated by its definition (or is a block parameter
//     satisfied by every predecessor)
//  3. every block ends with exactly one terminator
//  4. every terminator's targets name existing blocks
//  5. RcInc/RcDec/IsShared/Set/SetTag/Reset/Reuse never appear on a variable
//     whose static type classifies as Scalar (not checked here: Verify has
//     no classifier and only checks structural shape)
//  6. a function's blocks are all reachable from the entry block
//
// Violations of 1-4 are recorded as fatal diagnostics (spec.md §7): a broken
// invariant here is an internal compiler bug in an earlier pass, not a
// user-facing error, so processing for this function stops but other
// functions still proceed. An unreachable block (6) is recorded as a
// warning, not a fatal diagnostic.
func Verify(fn *Function, diags *diagnostics.Accumulator) {
	verifyTerminators(fn, diags)
	cfg := BuildCFG(fn)
	verifyReachability(fn, cfg, diags)
	verifySSAAndDominance(fn, cfg, diags)
}

func verifyTerminators(fn *Function, diags *diagnostics.Accumulator) {
	for _, b := range fn.Blocks {
		if b.Term == nil {
			diags.AddFatal(diagnostics.CompilerError{
				Level:   diagnostics.Error,
				Code:    diagnostics.CodeVerifierTerminator,
				Message: fmt.Sprintf("function %q: block b%d has no terminator", fn.Name, b.id),
			})
			continue
		}
		for _, t := range b.Term.Targets() {
			if fn.Block(t) == nil {
				diags.AddFatal(diagnostics.CompilerError{
					Level:   diagnostics.Error,
					Code:    diagnostics.CodeVerifierTerminator,
					Message: fmt.Sprintf("function %q: block b%d terminator targets nonexistent block b%d", fn.Name, b.id, t),
				})
			}
		}
	}
}

func verifyReachability(fn *Function, cfg *CFG, diags *diagnostics.Accumulator) {
	reachable := make(map[BlockId]bool, len(cfg.postorder))
	for _, b := range cfg.postorder {
		reachable[b] = true
	}
	for _, b := range fn.Blocks {
		if !reachable[b.id] {
			diags.Add(diagnostics.CompilerError{
				Level:   diagnostics.Warning,
				Code:    diagnostics.CodeVerifierDominance,
				Message: fmt.Sprintf("function %q: block b%d is unreachable from the entry", fn.Name, b.id),
			})
		}
	}
}

// verifySSAAndDominance checks that every VarId is defined exactly once
// (by a block parameter or an instruction's result) and that every use
// occurs in a block dominated by its definition's block (uses within the
// defining block itself are allowed at or after the definition's index).
func verifySSAAndDominance(fn *Function, cfg *CFG, diags *diagnostics.Accumulator) {
	defBlock := make(map[VarId]BlockId)
	defIndex := make(map[VarId]int) // -1 for block params, >= 0 for instruction index

	record := func(v VarId, block BlockId, index int) {
		if prevBlock, ok := defBlock[v]; ok {
			diags.AddFatal(diagnostics.CompilerError{
				Level: diagnostics.Error,
				Code:  diagnostics.CodeVerifierSSA,
				Message: fmt.Sprintf("function %q: v%d is defined more than once (b%d and b%d)",
					fn.Name, v, prevBlock, block),
			})
			return
		}
		defBlock[v] = block
		defIndex[v] = index
	}

	for _, p := range fn.Params {
		record(p.Var, fn.EntryBlock, -1)
	}
	for _, b := range fn.Blocks {
		for _, p := range b.Params {
			record(p.Var, b.id, -1)
		}
		for i, instr := range b.Body {
			if dst, ok := instr.Result(); ok {
				record(dst, b.id, i)
			}
		}
	}

	checkUse := func(v VarId, useBlock BlockId, useIndex int) {
		defBlk, ok := defBlock[v]
		if !ok {
			diags.AddFatal(diagnostics.CompilerError{
				Level:   diagnostics.Error,
				Code:    diagnostics.CodeVerifierDominance,
				Message: fmt.Sprintf("function %q: v%d used in b%d before any definition", fn.Name, v, useBlock),
			})
			return
		}
		if defBlk == useBlock {
			if defIndex[v] >= 0 && defIndex[v] >= useIndex {
				diags.AddFatal(diagnostics.CompilerError{
					Level:   diagnostics.Error,
					Code:    diagnostics.CodeVerifierDominance,
					Message: fmt.Sprintf("function %q: v%d used in b%d before its definition in the same block", fn.Name, v, useBlock),
				})
			}
			return
		}
		if !cfg.Dominates(defBlk, useBlock) {
			diags.AddFatal(diagnostics.CompilerError{
				Level:   diagnostics.Error,
				Code:    diagnostics.CodeVerifierDominance,
				Message: fmt.Sprintf("function %q: definition of v%d in b%d does not dominate its use in b%d", fn.Name, v, defBlk, useBlock),
			})
		}
	}

	for _, b := range fn.Blocks {
		for i, instr := range b.Body {
			for _, v := range instr.Uses() {
				checkUse(v, b.id, i)
			}
		}
		if b.Term != nil {
			for _, v := range b.Term.Uses() {
				checkUse(v, b.id, len(b.Body))
			}
		}
	}
}
