// Package edgecleanup inserts decrements on control-flow edges where a
// variable is live-out of a predecessor but not live-in of its successor,
// splitting through trampoline blocks when predecessors disagree on the gap
// (spec.md §4.7).
package edgecleanup

import (
	"sort"

	"ori/internal/arcir"
	"ori/internal/classify"
	"ori/internal/diagnostics"
	"ori/internal/liveness"
)

// Run mutates fn in place. cfg and live must be freshly computed from fn's
// post-RC-insertion shape (edge cleanup must run after RC insertion and
// before reset/reuse detection, per the pass ordering in spec.md §5).
func Run(fn *arcir.Function, cfg *arcir.CFG, live *liveness.Result, c *classify.Classifier) {
	needsRC := func(v arcir.VarId) bool { return c.NeedsRC(fn.VarType(v)) }

	borrowed := make(map[arcir.VarId]bool)
	for _, p := range fn.Params {
		if p.Ownership == arcir.Borrowed {
			borrowed[p.Var] = true
		}
	}

	for _, b := range fn.Blocks {
		preds := cfg.Predecessors(b.ID())
		if len(preds) == 0 {
			continue
		}

		gaps := make(map[arcir.BlockId][]arcir.VarId, len(preds))
		for _, p := range preds {
			gaps[p] = edgeGap(fn, p, b.ID(), live, needsRC, borrowed)
		}

		if len(preds) == 1 {
			insertAtBlockStart(fn, b, gaps[preds[0]])
			continue
		}

		if allGapsEqual(gaps, preds) {
			insertAtBlockStart(fn, b, gaps[preds[0]])
			continue
		}

		for _, p := range preds {
			gap := gaps[p]
			if len(gap) == 0 {
				continue
			}
			predBlock := fn.Block(p)
			retarget(fn, predBlock, b.ID(), gap)
		}
	}
}

// edgeGap returns the RC-tracked, non-borrowed variables live-out of pred
// but not live-in of succ, in a deterministic order.
func edgeGap(fn *arcir.Function, pred, succ arcir.BlockId, live *liveness.Result, needsRC func(arcir.VarId) bool, borrowed map[arcir.VarId]bool) []arcir.VarId {
	out := live.LiveOut[pred]
	in := live.LiveIn[succ]

	var gap []arcir.VarId
	for v := range out {
		if in[v] {
			continue
		}
		if borrowed[v] {
			continue
		}
		if !needsRC(fn.VarType(v)) {
			continue
		}
		gap = append(gap, v)
	}
	sort.Slice(gap, func(i, j int) bool { return gap[i] < gap[j] })
	return gap
}

func allGapsEqual(gaps map[arcir.BlockId][]arcir.VarId, preds []arcir.BlockId) bool {
	if len(preds) == 0 {
		return true
	}
	first := gaps[preds[0]]
	for _, p := range preds[1:] {
		g := gaps[p]
		if len(g) != len(first) {
			return false
		}
		for i := range g {
			if g[i] != first[i] {
				return false
			}
		}
	}
	return true
}

func insertAtBlockStart(fn *arcir.Function, b *arcir.Block, gap []arcir.VarId) {
	if len(gap) == 0 {
		return
	}

	oldSpans := make([]diagnostics.Span, len(b.Body))
	for i := range b.Body {
		if sp, ok := fn.Span(b.ID(), i); ok {
			oldSpans[i] = sp
		}
	}

	decs := make([]arcir.Instr, len(gap))
	newSpans := make([]diagnostics.Span, len(gap)+len(b.Body))
	for i, v := range gap {
		decs[i] = arcir.RcDec{Var: v}
	}
	copy(newSpans[len(gap):], oldSpans)

	b.Body = append(decs, b.Body...)
	fn.RebuildSpans(b.ID(), newSpans)
}

// retarget splices a trampoline block between pred and succ containing
// gap's decrements followed by an unconditional jump to succ, then
// redirects pred's terminator to the trampoline.
func retarget(fn *arcir.Function, pred *arcir.Block, succ arcir.BlockId, gap []arcir.VarId) {
	tramp := fn.InsertBlockAfter(pred)
	for _, v := range gap {
		tramp.Emit(arcir.RcDec{Var: v})
	}
	tramp.SetTerm(arcir.Jump{Target: succ})

	pred.SetTerm(redirectTerminator(pred.Term, succ, tramp.ID()))
}

func redirectTerminator(term arcir.Terminator, from, to arcir.BlockId) arcir.Terminator {
	switch t := term.(type) {
	case arcir.Jump:
		if t.Target == from {
			t.Target = to
		}
		return t
	case arcir.Branch:
		if t.Then == from {
			t.Then = to
		}
		if t.Else == from {
			t.Else = to
		}
		return t
	case arcir.Switch:
		for i, e := range t.Cases {
			if e.Target == from {
				t.Cases[i].Target = to
			}
		}
		if t.HasDefault && t.Default == from {
			t.Default = to
		}
		return t
	default:
		return term
	}
}
