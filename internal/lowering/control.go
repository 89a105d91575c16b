package lowering

import (
	"ori/internal/arcir"
	"ori/internal/diagnostics"
	"ori/internal/typedast"
	"ori/internal/typepool"
)

// lowerIf lowers a two-armed conditional into Branch plus a merge block
// whose single parameter carries whichever arm's value was taken.
func (fb *funcBuilder) lowerIf(cur *arcir.Block, e typedast.If) (arcir.VarId, *arcir.Block, bool) {
	condVar, cur, ok := fb.lowerExpr(cur, e.Cond)
	if !ok {
		return 0, cur, false
	}

	thenBlock := fb.fn.NewBlock()
	elseBlock := fb.fn.NewBlock()
	cur.SetTerm(arcir.Branch{Cond: condVar, Then: thenBlock.ID(), Else: elseBlock.ID()})

	merge := fb.fn.NewBlock()
	mergeParam := merge.AddParam(e.Type())

	reachable := false
	if thenVal, thenEnd, ok := fb.lowerExpr(thenBlock, e.Then); ok {
		thenEnd.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{thenVal}})
		reachable = true
	}
	if elseVal, elseEnd, ok := fb.lowerExpr(elseBlock, e.Else); ok {
		elseEnd.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{elseVal}})
		reachable = true
	}

	if !reachable {
		merge.SetTerm(arcir.Unreachable{})
		return 0, merge, false
	}
	return mergeParam, merge, true
}

// lowerLoop lowers a loop header whose body ends in Break/Continue. A
// fallthrough out of Body without an explicit Continue restarts the loop
// (an implicit continue at the end of the syntactic body).
func (fb *funcBuilder) lowerLoop(cur *arcir.Block, e typedast.Loop) (arcir.VarId, *arcir.Block, bool) {
	header := fb.fn.NewBlock()
	cur.SetTerm(arcir.Jump{Target: header.ID()})

	exit := fb.fn.NewBlock()
	exitParam := exit.AddParam(e.Type())

	fb.loops = append(fb.loops, loopCtx{header: header, exit: exit})
	_, bodyEnd, ok := fb.lowerExpr(header, e.Body)
	fb.loops = fb.loops[:len(fb.loops)-1]

	if ok && bodyEnd.Term == nil {
		bodyEnd.SetTerm(arcir.Jump{Target: header.ID()})
	}
	return exitParam, exit, true
}

func (fb *funcBuilder) lowerBreak(cur *arcir.Block, e typedast.Break) (arcir.VarId, *arcir.Block, bool) {
	loop := fb.loops[len(fb.loops)-1]

	var val arcir.VarId
	if e.Value != nil {
		v, next, ok := fb.lowerExpr(cur, e.Value)
		if !ok {
			return 0, next, false
		}
		cur = next
		val = v
	} else {
		val = fb.fn.FreshVar(typepool.NONE)
		fb.emit(cur, val, arcir.UnitLit{}, e.Span())
	}

	cur.SetTerm(arcir.Jump{Target: loop.exit.ID(), Args: []arcir.VarId{val}})
	return 0, cur, false
}

func (fb *funcBuilder) lowerContinue(cur *arcir.Block) (arcir.VarId, *arcir.Block, bool) {
	loop := fb.loops[len(fb.loops)-1]
	cur.SetTerm(arcir.Jump{Target: loop.header.ID()})
	return 0, cur, false
}

// lowerTry desugars `value?`: on the success tag, projects and continues
// with the payload; on the failure tag, returns value unchanged from the
// enclosing function (Option/Result's inverted tag convention — None/Ok
// are tag 0, Some/Err are tag 1 — means the success tag differs between the
// two, so it is chosen per type kind; ResultOkErr/OptionInner supply the
// payload type).
func (fb *funcBuilder) lowerTry(cur *arcir.Block, e typedast.Try) (arcir.VarId, *arcir.Block, bool) {
	val, cur, ok := fb.lowerExpr(cur, e.Value)
	if !ok {
		return 0, cur, false
	}

	resolved := fb.lw.pool.Resolve(e.Value.Type())
	var okTag int64
	var okField typepool.TypeIdx
	switch fb.lw.pool.Tag(resolved) {
	case typepool.TagResult:
		okTag = 0
		okField, _ = fb.lw.pool.ResultOkErr(resolved)
	case typepool.TagOption:
		okTag = 1
		okField = fb.lw.pool.OptionInner(resolved)
	default:
		span := e.Span()
		fb.lw.diags.AddFatal(diagnostics.CompilerError{
			Level:   diagnostics.Error,
			Code:    diagnostics.CodeUnsupportedExpr,
			Message: "try (?) operator applied to a non-Option/Result value",
			Span:    &span,
		})
		return 0, cur, false
	}

	contBlock := fb.fn.NewBlock()
	failBlock := fb.fn.NewBlock()
	cur.SetTerm(arcir.Switch{
		Scrutinee:  val,
		Cases:      []arcir.SwitchCase{{Tag: okTag, Target: contBlock.ID()}},
		HasDefault: true,
		Default:    failBlock.ID(),
	})

	okVar := fb.fn.FreshVar(okField)
	contBlock.Emit(arcir.Project{Dst: okVar, Value: val, Proj: arcir.ProjKind{Kind: arcir.EnumPayloadProj, Index: 0}})

	failBlock.SetTerm(arcir.Return{Value: val})

	return okVar, contBlock, true
}
