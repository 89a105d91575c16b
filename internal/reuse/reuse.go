// Package reuse implements constructor-reuse detection and expansion:
// rewriting an RcDec followed later in the same block by a same-type
// Construct into a Reset/Reuse pair, then expanding that pair into a runtime-guarded
// in-place fast path and a fresh-allocation slow path (spec.md §4.8).
package reuse

import "ori/internal/arcir"

// Detect scans fn's blocks for the RcDec(x) ... Construct(T, ...) pattern
// and rewrites matches into Reset/Reuse, restricted to the same block (the
// spec's Non-goals explicitly exclude cross-basic-block reuse). A
// Construct only qualifies if its type matches the decremented variable's
// type and no instruction between the RcDec and the Construct allocates a
// value of that same type or reuses x itself.
func Detect(fn *arcir.Function) {
	for _, b := range fn.Blocks {
		detectBlock(fn, b)
	}
}

func detectBlock(fn *arcir.Function, b *arcir.Block) {
	body := b.Body
	used := make([]bool, len(body))

	for i, instr := range body {
		dec, ok := instr.(arcir.RcDec)
		if !ok || used[i] {
			continue
		}
		ty := fn.VarType(dec.Var)

		for j := i + 1; j < len(body); j++ {
			if used[j] {
				continue
			}
			if aliases(body[j], dec.Var) {
				break
			}
			con, ok := body[j].(arcir.Construct)
			if !ok {
				continue
			}
			if con.Type != ty {
				continue
			}
			token := fn.FreshVar(ty)
			body[i] = arcir.Reset{Token: token, Var: dec.Var}
			body[j] = arcir.Reuse{Dst: con.Dst, Token: token, Type: con.Type, Ctor: con.Ctor, Args: con.Args}
			used[i] = true
			used[j] = true
			break
		}
	}

	b.Body = body
}

// aliases reports whether instr reads or redefines v, disqualifying it
// from appearing between a candidate RcDec(v) and its matching Construct
// (an intervening use means the allocation isn't provably dead yet).
func aliases(instr arcir.Instr, v arcir.VarId) bool {
	for _, u := range instr.Uses() {
		if u == v {
			return true
		}
	}
	if dst, ok := instr.Result(); ok && dst == v {
		return true
	}
	return false
}
