package lowering

import (
	"ori/internal/arcir"
	"ori/internal/decision"
	"ori/internal/typedast"
	"ori/internal/typepool"
)

// lowerMatch compiles e's arms into a decision tree (internal/decision) and
// walks it to emit Switch/Branch terminators, joining every arm at a merge
// block (spec.md §4.2/§4.3).
func (fb *funcBuilder) lowerMatch(cur *arcir.Block, e typedast.Match) (arcir.VarId, *arcir.Block, bool) {
	scrutVar, cur, ok := fb.lowerExpr(cur, e.Scrutinee)
	if !ok {
		return 0, cur, false
	}

	rows := make([]decision.Row, len(e.Arms))
	for i, arm := range e.Arms {
		rows[i] = decision.Row{Cols: []typedast.Pattern{arm.Pattern}, ArmIndex: i, Guarded: arm.Guard != nil}
	}
	tree := decision.Compile(rows, []decision.ScrutineePath{{}}, fb.lw.pool, fb.lw.diags)

	cache := newPathTypeCache(e.Scrutinee.Type())

	merge := fb.fn.NewBlock()
	mergeParam := merge.AddParam(e.Type())

	if fb.lowerDecisionNode(cur, tree, scrutVar, cache, merge, e.Arms) {
		return mergeParam, merge, true
	}
	merge.SetTerm(arcir.Unreachable{})
	return 0, merge, false
}

// lowerDecisionNode lowers one decision-tree node into cur (and whatever
// further blocks it needs), returning whether merge ends up reachable from
// this subtree.
func (fb *funcBuilder) lowerDecisionNode(cur *arcir.Block, node decision.Node, scrutVar arcir.VarId, cache *pathTypeCache, merge *arcir.Block, arms []typedast.MatchArm) bool {
	switch n := node.(type) {
	case decision.Fail:
		cur.SetTerm(arcir.Unreachable{})
		return false

	case decision.Switch:
		return fb.lowerSwitch(cur, n, scrutVar, cache, merge, arms)

	case decision.Leaf:
		return fb.lowerArmBody(cur, arms[n.ArmIndex], n.Bindings, scrutVar, cache, merge)

	case decision.Guard:
		arm := arms[n.ArmIndex]
		saves := fb.bindAll(n.Bindings, scrutVar, cache, cur)
		guardVal, guardEnd, ok := fb.lowerExpr(cur, arm.Guard)
		if !ok {
			fb.restoreAll(saves)
			return false
		}

		trueBlock := fb.fn.NewBlock()
		falseBlock := fb.fn.NewBlock()
		guardEnd.SetTerm(arcir.Branch{Cond: guardVal, Then: trueBlock.ID(), Else: falseBlock.ID()})

		reachTrue := fb.lowerArmBodyCont(trueBlock, arm, merge)
		fb.restoreAll(saves)
		reachFalse := fb.lowerDecisionNode(falseBlock, n.OnFail, scrutVar, cache, merge, arms)
		return reachTrue || reachFalse

	default:
		cur.SetTerm(arcir.Unreachable{})
		return false
	}
}

// bindAll binds every pattern variable named by bindings into scope,
// projecting it out of scrutVar, and returns the saves needed to undo the
// bindings once this subtree is done (a sibling Switch edge or a Guard's
// OnFail must not see them).
func (fb *funcBuilder) bindAll(bindings []decision.Binding, scrutVar arcir.VarId, cache *pathTypeCache, cur *arcir.Block) []scopeSave {
	saves := make([]scopeSave, 0, len(bindings))
	for _, b := range bindings {
		v := fb.resolveVar(cur, cache, scrutVar, b.Path)
		saves = append(saves, fb.bindScope(b.Name, v))
	}
	return saves
}

func (fb *funcBuilder) lowerArmBody(cur *arcir.Block, arm typedast.MatchArm, bindings []decision.Binding, scrutVar arcir.VarId, cache *pathTypeCache, merge *arcir.Block) bool {
	saves := fb.bindAll(bindings, scrutVar, cache, cur)
	reach := fb.lowerArmBodyCont(cur, arm, merge)
	fb.restoreAll(saves)
	return reach
}

// lowerArmBodyCont lowers arm.Body (bindings already in scope) and jumps to
// merge on success.
func (fb *funcBuilder) lowerArmBodyCont(cur *arcir.Block, arm typedast.MatchArm, merge *arcir.Block) bool {
	val, end, ok := fb.lowerExpr(cur, arm.Body)
	if !ok {
		return false
	}
	end.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{val}})
	return true
}

// lowerSwitch lowers one decision.Switch node. TestEnumTag/TestBoolEq/
// TestIntEq/TestListLen compile to an ARC IR Switch terminator (integer-tag
// dispatch); TestStrEq/TestFloatEq/TestIntRange have no compact integer
// encoding, so they compile to a chain of equality-test Branches instead —
// a deliberate simplification over a single n-way dispatch instruction.
func (fb *funcBuilder) lowerSwitch(cur *arcir.Block, sw decision.Switch, scrutVar arcir.VarId, cache *pathTypeCache, merge *arcir.Block, arms []typedast.MatchArm) bool {
	testVar := fb.resolveVar(cur, cache, scrutVar, sw.Path)

	switch sw.TestKind {
	case decision.TestEnumTag:
		resolved := fb.lw.pool.Resolve(fb.typeAtPath(cache, sw.Path))
		variantsByTag := make(map[int64]typepool.Variant)
		for _, v := range fb.lw.pool.EnumVariants(resolved) {
			variantsByTag[v.Tag] = v
		}

		cases := make([]arcir.SwitchCase, 0, len(sw.Edges))
		reachable := false
		for _, edge := range sw.Edges {
			child := fb.fn.NewBlock()
			if v, ok := variantsByTag[edge.Value.Tag]; ok {
				for i, f := range v.Fields {
					cache.set(sw.Path.Extend(decision.PathStep{Kind: decision.TagPayload, Index: i}), f.Type)
				}
			}
			cases = append(cases, arcir.SwitchCase{Tag: edge.Value.Tag, Target: child.ID()})
			if fb.lowerDecisionNode(child, edge.Tree, scrutVar, cache, merge, arms) {
				reachable = true
			}
		}
		return fb.finishSwitch(cur, testVar, cases, sw.Default, scrutVar, cache, merge, arms, reachable)

	case decision.TestBoolEq, decision.TestIntEq, decision.TestListLen:
		scrutinee := testVar
		if sw.TestKind == decision.TestListLen {
			scrutinee = fb.fn.FreshVar(typepool.NONE)
			cur.Emit(arcir.Let{Dst: scrutinee, Value: arcir.PrimOp{Op: "list_len", Args: []arcir.VarId{testVar}}})
		}

		cases := make([]arcir.SwitchCase, 0, len(sw.Edges))
		reachable := false
		for _, edge := range sw.Edges {
			child := fb.fn.NewBlock()
			var tag int64
			switch sw.TestKind {
			case decision.TestBoolEq:
				if edge.Value.Bool {
					tag = 1
				}
			case decision.TestIntEq:
				tag = edge.Value.Int
			case decision.TestListLen:
				tag = int64(edge.Value.ListLen)
			}
			cases = append(cases, arcir.SwitchCase{Tag: tag, Target: child.ID()})
			if fb.lowerDecisionNode(child, edge.Tree, scrutVar, cache, merge, arms) {
				reachable = true
			}
		}
		return fb.finishSwitch(cur, scrutinee, cases, sw.Default, scrutVar, cache, merge, arms, reachable)

	default: // TestStrEq, TestFloatEq, TestIntRange
		reachable := false
		block := cur
		for _, edge := range sw.Edges {
			matchBlock := fb.fn.NewBlock()
			nextBlock := fb.fn.NewBlock()
			condVar := fb.emitEqualityTest(block, testVar, sw.TestKind, edge.Value)
			block.SetTerm(arcir.Branch{Cond: condVar, Then: matchBlock.ID(), Else: nextBlock.ID()})
			if fb.lowerDecisionNode(matchBlock, edge.Tree, scrutVar, cache, merge, arms) {
				reachable = true
			}
			block = nextBlock
		}
		if sw.Default != nil {
			if fb.lowerDecisionNode(block, sw.Default, scrutVar, cache, merge, arms) {
				reachable = true
			}
		} else {
			block.SetTerm(arcir.Unreachable{})
		}
		return reachable
	}
}

func (fb *funcBuilder) emitEqualityTest(block *arcir.Block, testVar arcir.VarId, kind decision.TestKind, value decision.TestValue) arcir.VarId {
	condVar := fb.fn.FreshVar(typepool.NONE)
	switch kind {
	case decision.TestStrEq:
		lit := fb.fn.FreshVar(typepool.NONE)
		block.Emit(arcir.Let{Dst: lit, Value: arcir.StrLit{Value: value.Str}})
		block.Emit(arcir.Let{Dst: condVar, Value: arcir.PrimOp{Op: "str_eq", Args: []arcir.VarId{testVar, lit}}})
	case decision.TestFloatEq:
		lit := fb.fn.FreshVar(typepool.NONE)
		block.Emit(arcir.Let{Dst: lit, Value: arcir.FloatLit{Value: value.Float}})
		block.Emit(arcir.Let{Dst: condVar, Value: arcir.PrimOp{Op: "float_eq", Args: []arcir.VarId{testVar, lit}}})
	case decision.TestIntRange:
		lo := fb.fn.FreshVar(typepool.NONE)
		hi := fb.fn.FreshVar(typepool.NONE)
		block.Emit(arcir.Let{Dst: lo, Value: arcir.IntLit{Value: value.RangeLo}})
		block.Emit(arcir.Let{Dst: hi, Value: arcir.IntLit{Value: value.RangeHi}})
		block.Emit(arcir.Let{Dst: condVar, Value: arcir.PrimOp{Op: "int_in_range", Args: []arcir.VarId{testVar, lo, hi}}})
	}
	return condVar
}

// finishSwitch emits the default arm (if any) and sets cur's terminator.
func (fb *funcBuilder) finishSwitch(cur *arcir.Block, scrutinee arcir.VarId, cases []arcir.SwitchCase, def decision.Node, scrutVar arcir.VarId, cache *pathTypeCache, merge *arcir.Block, arms []typedast.MatchArm, reachableSoFar bool) bool {
	term := arcir.Switch{Scrutinee: scrutinee, Cases: cases}
	reachable := reachableSoFar
	if def != nil {
		defaultBlock := fb.fn.NewBlock()
		if fb.lowerDecisionNode(defaultBlock, def, scrutVar, cache, merge, arms) {
			reachable = true
		}
		term.HasDefault = true
		term.Default = defaultBlock.ID()
	}
	cur.SetTerm(term)
	return reachable
}
