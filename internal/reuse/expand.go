package reuse

import (
	"ori/internal/arcir"
	"ori/internal/typepool"
)

// Expand replaces every Reset/Reuse pair in fn with a two-path diamond:
// IsShared(x) branching to a fast in-place-mutation path and a slow
// fresh-allocation path, joined at a merge block whose single parameter is
// the reuse's destination (spec.md §4.8). Must run after Detect and before
// RC elimination (pass ordering, spec.md §5).
func Expand(fn *arcir.Function, pool typepool.Pool) {
	// fn.Blocks grows as blocks are split; snapshot the original slice so
	// newly appended blocks are never themselves re-scanned.
	original := append([]*arcir.Block{}, fn.Blocks...)
	for _, b := range original {
		expandBlock(fn, b, pool)
	}
}

func expandBlock(fn *arcir.Function, b *arcir.Block, pool typepool.Pool) {
	for {
		idx, resetInstr, reuseInstr, reuseIdx, ok := findPair(b)
		if !ok {
			return
		}
		splitAndExpand(fn, b, pool, idx, resetInstr, reuseIdx, reuseInstr)
	}
}

func findPair(b *arcir.Block) (int, arcir.Reset, arcir.Reuse, int, bool) {
	for i, instr := range b.Body {
		reset, ok := instr.(arcir.Reset)
		if !ok {
			continue
		}
		for j := i + 1; j < len(b.Body); j++ {
			if reuse, ok := b.Body[j].(arcir.Reuse); ok && reuse.Token == reset.Token {
				return i, reset, reuse, j, true
			}
		}
	}
	return 0, arcir.Reset{}, arcir.Reuse{}, 0, false
}

// splitAndExpand rewrites b in place: everything before resetIdx stays in
// b; the IsShared test and its two successor paths replace
// [resetIdx, reuseIdx]; everything after reuseIdx moves into a new
// continuation block that the merge block jumps to.
func splitAndExpand(fn *arcir.Function, b *arcir.Block, pool typepool.Pool, resetIdx int, reset arcir.Reset, reuseIdx int, reuse arcir.Reuse) {
	before := append([]arcir.Instr{}, b.Body[:resetIdx]...)
	// Instructions originally between RcDec(x) and Construct often feed
	// one of reuse.Args; the slow path's fresh Construct needs them in
	// scope just as much as the fast path's Sets do, so they run
	// unconditionally before the IsShared branch rather than being
	// spliced into only one arm (spec.md §3 invariant 2: a use must be
	// dominated by its definition on every path).
	between := append([]arcir.Instr{}, b.Body[resetIdx+1:reuseIdx]...)
	after := append([]arcir.Instr{}, b.Body[reuseIdx+1:]...)
	origTerm := b.Term

	// Projection-increment erasure (spec.md §4.8): an argument that was
	// read straight out of the same field of the variable now being
	// reused never left the allocation, so the naive RcInc §4.6 gave it
	// when it escaped into the Construct's arg list, and the Set that
	// would write it right back into that same slot, are both no-ops on
	// the fast path.
	prefix := append(append([]arcir.Instr{}, before...), between...)
	passthrough := passthroughArgs(prefix, reset, reuse, pool)
	cancel := eraseIncrements(prefix, passthrough, reuse)

	cont := fn.InsertBlockAfter(b)
	cont.Body = after
	cont.Term = origTerm

	fast := fn.InsertBlockAfter(b)
	slow := fn.InsertBlockAfter(b)
	merge := fn.InsertBlockAfter(b)
	mergeParam := merge.AddParam(reuse.Type)

	// cancel precedes the Sets: the increment it offsets was already
	// applied back in prefix, so the net effect on the fast path's
	// reference count is zero regardless of ordering here.
	fast.Body = append(cancel, fastPathSets(pool, reuse, passthrough)...)
	fast.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{reset.Var}})

	slowDst := fn.FreshVar(reuse.Type)
	slow.Body = []arcir.Instr{
		arcir.RcDec{Var: reset.Var},
		arcir.Construct{Dst: slowDst, Type: reuse.Type, Ctor: reuse.Ctor, Args: reuse.Args},
	}
	slow.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{slowDst}})

	merge.Body = []arcir.Instr{arcir.Let{Dst: reuse.Dst, Value: arcir.VarRef{Var: mergeParam}}}
	merge.SetTerm(arcir.Jump{Target: cont.ID()})

	// IsShared's result is a bool; the type pool has no dedicated bool
	// accessor on this interface, so NONE is used as a placeholder — every
	// Pool implementation's zero-value Tag lookup classifies it Scalar,
	// the correct classification for a bool result, so no RC ops are ever
	// generated for it.
	sharedVar := fn.FreshVar(typepool.NONE)
	before = append(before, between...)
	before = append(before, arcir.IsShared{Dst: sharedVar, Var: reset.Var})
	b.Body = before
	b.SetTerm(arcir.Branch{Cond: sharedVar, Then: slow.ID(), Else: fast.ID()})
}

// passthroughArgs returns a bitmask (bit i set for reuse.Args[i]) of the
// reused constructor's arguments that were obtained by projecting the
// very same field straight off reset.Var. Such an argument's pointer
// never leaves the allocation being reused, so writing it back into that
// identical slot (fastPathSets) would be a pure self-overwrite.
func passthroughArgs(prefix []arcir.Instr, reset arcir.Reset, reuse arcir.Reuse, pool typepool.Pool) uint64 {
	var mask uint64
	for i, arg := range reuse.Args {
		want := fieldKind(pool, reuse, i)
		for _, instr := range prefix {
			proj, ok := instr.(arcir.Project)
			if ok && proj.Dst == arg && proj.Value == reset.Var && proj.Proj == want {
				mask |= 1 << uint(i)
				break
			}
		}
	}
	return mask
}

// eraseIncrements finds, for each passthrough argument, the RcInc that
// §4.6's naive insertion gave it when it escaped into the Construct's arg
// list, and cancels it with a matching RcDec on the fast path only. The
// increment in prefix can't be deleted outright — prefix runs
// unconditionally, and the slow path genuinely frees the old allocation,
// so it still needs its own reference to survive that free.
func eraseIncrements(prefix []arcir.Instr, passthrough uint64, reuse arcir.Reuse) []arcir.Instr {
	var cancel []arcir.Instr
	for i, arg := range reuse.Args {
		if passthrough&(1<<uint(i)) == 0 {
			continue
		}
		for _, instr := range prefix {
			if inc, ok := instr.(arcir.RcInc); ok && inc.Var == arg {
				cancel = append(cancel, arcir.RcDec{Var: arg})
				break
			}
		}
	}
	return cancel
}

// fieldKind returns the ProjKind a Project reading reuse.Args[i] straight
// off the reused value would carry, matching the addressing convention
// fastPathSets uses to write it back.
func fieldKind(pool typepool.Pool, reuse arcir.Reuse, i int) arcir.ProjKind {
	if pool != nil && pool.Tag(pool.Resolve(reuse.Type)) == typepool.TagEnum {
		for _, v := range pool.EnumVariants(pool.Resolve(reuse.Type)) {
			if v.Name == reuse.Ctor {
				return arcir.ProjKind{Kind: arcir.EnumPayloadProj, Index: i}
			}
		}
	}
	return arcir.ProjKind{Kind: arcir.TupleIndexProj, Index: i}
}

// fastPathSets builds the in-place Set/SetTag sequence for the fast path:
// a SetTag if the type pool reports this constructor as an enum variant,
// then a Set per field writing reuse.Args positionally — skipping any
// position the passthrough bitmask marks as already holding that exact
// value (spec.md §4.8's self-overwrite elision).
func fastPathSets(pool typepool.Pool, reuse arcir.Reuse, passthrough uint64) []arcir.Instr {
	var out []arcir.Instr
	if pool != nil && pool.Tag(pool.Resolve(reuse.Type)) == typepool.TagEnum {
		for _, v := range pool.EnumVariants(pool.Resolve(reuse.Type)) {
			if v.Name == reuse.Ctor {
				out = append(out, arcir.SetTag{Base: reuse.Token, Tag: v.Tag})
				for i, arg := range reuse.Args {
					if passthrough&(1<<uint(i)) != 0 {
						continue
					}
					out = append(out, arcir.Set{
						Base:  reuse.Token,
						Field: arcir.ProjKind{Kind: arcir.EnumPayloadProj, Index: i},
						Value: arg,
					})
				}
				return out
			}
		}
	}
	for i, arg := range reuse.Args {
		if passthrough&(1<<uint(i)) != 0 {
			continue
		}
		out = append(out, arcir.Set{
			Base:  reuse.Token,
			Field: arcir.ProjKind{Kind: arcir.TupleIndexProj, Index: i},
			Value: arg,
		})
	}
	return out
}
