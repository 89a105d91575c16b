// Package liveness computes per-block live-in/live-out variable sets for an
// ARC IR function, restricted to reference-counted variables (spec.md
// §4.5). RC insertion consumes these sets directly.
package liveness

import (
	"ori/internal/arcir"
	"ori/internal/classify"
)

// VarSet is a set of VarIds.
type VarSet map[arcir.VarId]bool

func (s VarSet) Clone() VarSet {
	out := make(VarSet, len(s))
	for v := range s {
		out[v] = true
	}
	return out
}

func (s VarSet) Union(other VarSet) {
	for v := range other {
		s[v] = true
	}
}

// Result holds the converged live-in/live-out sets for every block of one
// function.
type Result struct {
	LiveIn  map[arcir.BlockId]VarSet
	LiveOut map[arcir.BlockId]VarSet
}

// Analyze runs backward liveness over fn using cfg's postorder, tracking
// only variables whose type needs_rc per classifier c.
func Analyze(fn *arcir.Function, cfg *arcir.CFG, c *classify.Classifier) *Result {
	gen := make(map[arcir.BlockId]VarSet, len(fn.Blocks))
	kill := make(map[arcir.BlockId]VarSet, len(fn.Blocks))

	needsRC := func(v arcir.VarId) bool {
		return c.NeedsRC(fn.VarType(v))
	}

	for _, b := range fn.Blocks {
		k := make(VarSet)
		g := make(VarSet)
		for _, p := range b.Params {
			if needsRC(p.Var) {
				k[p.Var] = true
			}
		}
		for _, instr := range b.Body {
			for _, u := range instr.Uses() {
				if needsRC(u) && !k[u] {
					g[u] = true
				}
			}
			if dst, ok := instr.Result(); ok && needsRC(dst) {
				k[dst] = true
			}
		}
		if b.Term != nil {
			for _, u := range b.Term.Uses() {
				if needsRC(u) && !k[u] {
					g[u] = true
				}
			}
		}
		gen[b.ID()] = g
		kill[b.ID()] = k
	}

	liveIn := make(map[arcir.BlockId]VarSet, len(fn.Blocks))
	liveOut := make(map[arcir.BlockId]VarSet, len(fn.Blocks))
	for _, b := range fn.Blocks {
		liveIn[b.ID()] = make(VarSet)
		liveOut[b.ID()] = make(VarSet)
	}

	changed := true
	for changed {
		changed = false
		for _, bid := range cfg.Postorder() {
			b := fn.Block(bid)
			out := make(VarSet)
			for _, succ := range cfg.Successors(bid) {
				out.Union(adjustedLiveIn(fn, b, succ, liveIn[succ], needsRC))
			}
			in := make(VarSet)
			in.Union(gen[bid])
			for v := range out {
				if !kill[bid][v] {
					in[v] = true
				}
			}
			if !setsEqual(in, liveIn[bid]) {
				liveIn[bid] = in
				changed = true
			}
			if !setsEqual(out, liveOut[bid]) {
				liveOut[bid] = out
				changed = true
			}
		}
	}

	return &Result{LiveIn: liveIn, LiveOut: liveOut}
}

// adjustedLiveIn substitutes succ's block parameters with the corresponding
// jump arguments from b's terminator before checking liveness, so a
// parameter's live-in status propagates back to the argument variable that
// feeds it rather than the parameter's own (fresh, successor-local) VarId.
func adjustedLiveIn(fn *arcir.Function, b *arcir.Block, succ arcir.BlockId, succIn VarSet, needsRC func(arcir.VarId) bool) VarSet {
	succBlock := fn.Block(succ)
	argsFor := jumpArgs(b.Term, succ)
	if argsFor == nil || len(succBlock.Params) == 0 {
		return succIn
	}

	paramIndex := make(map[arcir.VarId]int, len(succBlock.Params))
	for i, p := range succBlock.Params {
		paramIndex[p.Var] = i
	}

	out := make(VarSet, len(succIn))
	for v := range succIn {
		if idx, ok := paramIndex[v]; ok {
			if idx < len(argsFor) && needsRC(argsFor[idx]) {
				out[argsFor[idx]] = true
			}
			continue
		}
		out[v] = true
	}
	return out
}

func jumpArgs(term arcir.Terminator, target arcir.BlockId) []arcir.VarId {
	if j, ok := term.(arcir.Jump); ok && j.Target == target {
		return j.Args
	}
	return nil
}

func setsEqual(a, b VarSet) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}
