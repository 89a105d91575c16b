// Package rcelim removes redundant RcInc/RcDec pairs with no intervening
// use of the variable between them, within a single block (spec.md §4.9).
// Matching is a forward scan only; no backward scan over the opposite
// orientation is run.
package rcelim

import (
	"ori/internal/arcir"
	"ori/internal/diagnostics"
)

// Run mutates every block of fn, iterating the elimination pass to a fixed
// point since a removed pair can expose a new matching pair.
func Run(fn *arcir.Function) {
	for _, b := range fn.Blocks {
		for eliminateOnce(fn, b) {
		}
	}
}

// eliminateOnce performs one forward scan removing matched Inc...Dec pairs
// with no intervening use, and reports whether anything was removed.
func eliminateOnce(fn *arcir.Function, b *arcir.Block) bool {
	body := b.Body
	n := len(body)
	remove := make([]bool, n)

	// incPos[v] is the index of the most recent unmatched RcInc(v) seen so
	// far, or -1 if none (either not yet seen, or the variable was used by
	// a non-RC instruction since — "MightBeUsed" per spec.md §4.9).
	incPos := make(map[arcir.VarId]int)

	for i, instr := range body {
		switch ins := instr.(type) {
		case arcir.RcInc:
			if ins.Count == 1 {
				incPos[ins.Var] = i
			} else {
				// Batched increments are a non-matching use (conservative,
				// spec.md §4.9 "Safety").
				delete(incPos, ins.Var)
			}
			continue
		case arcir.RcDec:
			if pos, ok := incPos[ins.Var]; ok {
				remove[pos] = true
				remove[i] = true
				delete(incPos, ins.Var)
				continue
			}
			delete(incPos, ins.Var)
			continue
		}

		for _, u := range instr.Uses() {
			delete(incPos, u)
		}
		if dst, ok := instr.Result(); ok {
			delete(incPos, dst)
		}
	}

	anyRemoved := false
	for _, r := range remove {
		if r {
			anyRemoved = true
			break
		}
	}
	if !anyRemoved {
		return false
	}

	oldSpans := make([]diagnostics.Span, n)
	for i := range body {
		if sp, ok := fn.Span(b.ID(), i); ok {
			oldSpans[i] = sp
		}
	}

	newBody := make([]arcir.Instr, 0, n)
	newSpans := make([]diagnostics.Span, 0, n)
	for i, instr := range body {
		if remove[i] {
			continue
		}
		newBody = append(newBody, instr)
		newSpans = append(newSpans, oldSpans[i])
	}
	b.Body = newBody
	fn.RebuildSpans(b.ID(), newSpans)
	return true
}
