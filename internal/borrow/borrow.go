// Package borrow implements whole-program borrow inference: a monotone
// fixed-point analysis promoting each non-scalar parameter from Borrowed to
// Owned as its function's body demands ownership (spec.md §4.4).
package borrow

import (
	"fmt"

	"ori/internal/arcir"
	"ori/internal/classify"
	"ori/internal/diagnostics"
)

// Program is the whole-program input: every function known to the
// pipeline, keyed by the symbol name Apply/PartialApply instructions call.
type Program struct {
	Functions map[string]*arcir.Function
}

// Promotion records one parameter's Borrowed -> Owned transition during a
// single fixed-point iteration, for diagnosing non-convergence (spec.md
// §4.4, §7) instead of only reporting it once the iteration cap is hit.
type Promotion struct {
	Iteration int
	Function  string
	Param     arcir.VarId
	Reason    string
}

// Trace receives one Promotion per parameter promoted, in promotion order.
// Infer accepts it as an optional last argument; passing none disables
// tracing entirely (the common case, and the only one the pipeline uses).
type Trace func(Promotion)

// maxIterations bounds the fixed point as a safety net (spec.md §4.4,
// §7): termination is already guaranteed by monotonicity over a finite
// parameter count, so exceeding this is itself a diagnostic-worthy bug.
func maxIterations(p *Program) int {
	total := 0
	for _, fn := range p.Functions {
		total += len(fn.Params)
	}
	return total + 1
}

// Infer runs the fixed point to convergence, mutating each function's
// Params[i].Ownership in place. c classifies parameter types to skip
// Scalar parameters, which are never tracked. An optional trace records
// every promotion as it happens; pass none to skip recording entirely.
func Infer(p *Program, c *classify.Classifier, diags *diagnostics.Accumulator, trace ...Trace) {
	var sink Trace
	if len(trace) > 0 {
		sink = trace[0]
	}

	trackable := make(map[string][]bool, len(p.Functions)) // per function, per param index
	for name, fn := range p.Functions {
		flags := make([]bool, len(fn.Params))
		for i, param := range fn.Params {
			flags[i] = c.NeedsRC(param.Type)
			if !flags[i] {
				fn.Params[i].Ownership = arcir.Owned // scalars carry no borrow distinction; Owned is harmless and keeps RC insertion's gate (needs_rc) as the only thing that matters
			}
		}
		trackable[name] = flags
	}

	cap := maxIterations(p)
	lastChanged := ""
	for iter := 0; iter < cap; iter++ {
		changed := false
		for name, fn := range p.Functions {
			if promoteFunction(fn, p, c, trackable[name], iter, name, sink) {
				changed = true
				lastChanged = name
			}
		}
		if !changed {
			return
		}
	}

	diags.Add(diagnostics.CompilerError{
		Level:   diagnostics.Error,
		Code:    diagnostics.CodeBorrowNonConvergence,
		Message: fmt.Sprintf("borrow inference did not converge within %d iterations; last promotion in function %q", cap, lastChanged),
	})
}

func promoteFunction(fn *arcir.Function, p *Program, c *classify.Classifier, trackable []bool, iter int, name string, sink Trace) bool {
	paramIndex := make(map[arcir.VarId]int, len(fn.Params))
	for i, param := range fn.Params {
		if trackable[i] {
			paramIndex[param.Var] = i
		}
	}

	promote := func(v arcir.VarId, reason string) bool {
		idx, ok := paramIndex[v]
		if !ok || fn.Params[idx].Ownership == arcir.Owned {
			return false
		}
		fn.Params[idx].Ownership = arcir.Owned
		if sink != nil {
			sink(Promotion{Iteration: iter, Function: name, Param: fn.Params[idx].Var, Reason: reason})
		}
		return true
	}

	changed := false

	for _, b := range fn.Blocks {
		for _, instr := range b.Body {
			switch ins := instr.(type) {
			case arcir.Apply:
				callee := p.Functions[ins.Function]
				for i, a := range ins.Args {
					if callee != nil && i < len(callee.Params) && callee.Params[i].Ownership == arcir.Owned {
						changed = promote(a, fmt.Sprintf("argument %d to call %s requires ownership", i, ins.Function)) || changed
					}
				}
			case arcir.ApplyIndirect:
				changed = promote(ins.Closure, "closure value escapes an indirect call") || changed
				for _, a := range ins.Args {
					changed = promote(a, "argument to an indirect call requires ownership") || changed
				}
			case arcir.PartialApply:
				for _, a := range ins.Args {
					changed = promote(a, "captured into a closure environment") || changed
				}
			case arcir.Construct:
				for _, a := range ins.Args {
					changed = promote(a, "stored into a constructed value") || changed
				}
			case arcir.Project:
				// A Scalar projection (an int/bool/char field, say) can
				// never dangle once copied out, so it never forces the
				// source to Owned (spec.md §4.1, §4.4, scenario S3). Only
				// a projection whose destination itself needs RC requires
				// the parameter to own its value.
				if c.NeedsRC(fn.VarType(ins.Dst)) {
					changed = promote(ins.Value, "projected field outlives the borrow") || changed
				}
			case arcir.Let:
				// Aliasing alone never implies a transfer.
			}
		}

		if ret, ok := b.Term.(arcir.Return); ok && !ret.Void {
			changed = promote(ret.Value, "returned by value") || changed
			changed = tailCallPreserve(fn, b, p, paramIndex, iter, name, sink) || changed
		}
	}

	return changed
}

// tailCallPreserve examines a block ending in Return{v} immediately
// preceded by an Apply defining v: if the callee expects an argument
// Owned but it is currently Borrowed, promote it now. Without this, RC
// insertion would place a decrement after the tail call, defeating
// tail-call optimization (spec.md §4.4).
func tailCallPreserve(fn *arcir.Function, b *arcir.Block, p *Program, paramIndex map[arcir.VarId]int, iter int, name string, sink Trace) bool {
	if len(b.Body) == 0 {
		return false
	}
	ret, ok := b.Term.(arcir.Return)
	if !ok || ret.Void {
		return false
	}
	last := b.Body[len(b.Body)-1]
	apply, ok := last.(arcir.Apply)
	if !ok {
		return false
	}
	if dst, ok := apply.Result(); !ok || dst != ret.Value {
		return false
	}
	callee := p.Functions[apply.Function]
	if callee == nil {
		return false
	}

	changed := false
	for i, a := range apply.Args {
		idx, ok := paramIndex[a]
		if !ok || fn.Params[idx].Ownership == arcir.Owned {
			continue
		}
		if i < len(callee.Params) && callee.Params[i].Ownership == arcir.Owned {
			fn.Params[idx].Ownership = arcir.Owned
			if sink != nil {
				sink(Promotion{Iteration: iter, Function: name, Param: fn.Params[idx].Var, Reason: fmt.Sprintf("tail call to %s preserves ownership across the call", apply.Function)})
			}
			changed = true
		}
	}
	return changed
}
