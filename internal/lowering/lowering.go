// Package lowering translates a typed-AST function body (internal/typedast)
// into an ARC IR function (internal/arcir), flattening every expression
// into SSA Let/Apply/Project/Construct bindings and desugaring control flow
// into basic blocks and block-parameter joins (spec.md §4.3). Pattern
// matches are compiled first by internal/decision; lowering walks the
// resulting decision tree to emit Switch/Branch terminators.
package lowering

import (
	"fmt"

	"ori/internal/arcir"
	"ori/internal/diagnostics"
	"ori/internal/typedast"
	"ori/internal/typepool"
)

// Lowerer holds the two pieces of context every function lowering needs:
// the type pool (to resolve field/variant/element types along projection
// chains) and a diagnostics sink for unsupported-expression failures.
type Lowerer struct {
	pool  typepool.Pool
	diags *diagnostics.Accumulator
}

// New returns a Lowerer over pool, reporting failures to diags.
func New(pool typepool.Pool, diags *diagnostics.Accumulator) *Lowerer {
	return &Lowerer{pool: pool, diags: diags}
}

// Lower translates one typed function into an ARC IR function. Parameters
// start Borrowed, per spec.md §4.3; borrow inference (internal/borrow)
// promotes them afterward.
func (lw *Lowerer) Lower(fn *typedast.Function) *arcir.Function {
	out := arcir.NewFunction(fn.Name, fn.ReturnType)
	entry := out.NewBlock()

	scope := make(map[string]arcir.VarId, len(fn.Params))
	for _, p := range fn.Params {
		v := out.AddParam(p.Type)
		scope[p.Name] = v
	}

	fb := &funcBuilder{lw: lw, fn: out, scope: scope}
	val, cur, ok := fb.lowerExpr(entry, fn.Body)
	if ok && cur.Term == nil {
		fb.finalReturn(cur, val)
	}
	return out
}

// LowerProgram lowers every function, keyed by name — the shape
// internal/borrow's Program and internal/pipeline's orchestration expect.
func (lw *Lowerer) LowerProgram(fns []*typedast.Function) map[string]*arcir.Function {
	out := make(map[string]*arcir.Function, len(fns))
	for _, f := range fns {
		out[f.Name] = lw.Lower(f)
	}
	return out
}

// funcBuilder carries the mutable state of lowering a single function:
// the ARC IR function under construction, the lexical scope mapping
// source names to their current SSA variable, and the enclosing loop
// stack for Break/Continue.
type funcBuilder struct {
	lw    *Lowerer
	fn    *arcir.Function
	scope map[string]arcir.VarId
	loops []loopCtx
}

type loopCtx struct {
	header *arcir.Block
	exit   *arcir.Block
}

type scopeSave struct {
	name string
	old  arcir.VarId
	had  bool
}

func (fb *funcBuilder) bindScope(name string, v arcir.VarId) scopeSave {
	old, had := fb.scope[name]
	fb.scope[name] = v
	return scopeSave{name: name, old: old, had: had}
}

func (fb *funcBuilder) restoreScope(save scopeSave) {
	if save.had {
		fb.scope[save.name] = save.old
	} else {
		delete(fb.scope, save.name)
	}
}

func (fb *funcBuilder) restoreAll(saves []scopeSave) {
	for _, s := range saves {
		fb.restoreScope(s)
	}
}

// finalReturn emits the function's implicit trailing return. Functions
// whose declared return type is Unit always return void, regardless of
// what the body's last expression computed.
func (fb *funcBuilder) finalReturn(cur *arcir.Block, val arcir.VarId) {
	if fb.lw.pool.Tag(fb.lw.pool.Resolve(fb.fn.ReturnType)) == typepool.TagUnit {
		cur.SetTerm(arcir.Return{Void: true})
		return
	}
	cur.SetTerm(arcir.Return{Value: val})
}

// lowerExpr lowers e starting in cur, returning the variable holding its
// result, the block control falls through to afterward, and whether that
// fallthrough is reachable. ok is false when e's lowering already
// terminated every path (a Return, Break, Continue, or an exhaustively
// diverging If/Match) — callers must stop emitting into the returned block.
func (fb *funcBuilder) lowerExpr(cur *arcir.Block, e typedast.Expr) (arcir.VarId, *arcir.Block, bool) {
	switch ex := e.(type) {
	case typedast.Ident:
		v, ok := fb.scope[ex.Name]
		if !ok {
			span := ex.Span()
			fb.lw.diags.AddFatal(diagnostics.CompilerError{
				Level:   diagnostics.Error,
				Code:    diagnostics.CodeUnsupportedExpr,
				Message: fmt.Sprintf("unbound identifier %q reached lowering", ex.Name),
				Span:    &span,
			})
			return 0, cur, false
		}
		return v, cur, true

	case typedast.IntLit:
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(cur, dst, arcir.IntLit{Value: ex.Value}, ex.Span())
		return dst, cur, true

	case typedast.FloatLit:
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(cur, dst, arcir.FloatLit{Value: ex.Value}, ex.Span())
		return dst, cur, true

	case typedast.BoolLit:
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(cur, dst, arcir.BoolLit{Value: ex.Value}, ex.Span())
		return dst, cur, true

	case typedast.StrLit:
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(cur, dst, arcir.StrLit{Value: ex.Value}, ex.Span())
		return dst, cur, true

	case typedast.UnitLit:
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(cur, dst, arcir.UnitLit{}, ex.Span())
		return dst, cur, true

	case typedast.PrimOp:
		args, next, ok := fb.lowerExprList(cur, ex.Args)
		if !ok {
			return 0, next, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(next, dst, arcir.PrimOp{Op: ex.Op, Args: args}, ex.Span())
		return dst, next, true

	case typedast.Field:
		baseVar, next, ok := fb.lowerExpr(cur, ex.Receiver)
		if !ok {
			return 0, next, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		idx := next.Emit(arcir.Project{Dst: dst, Value: baseVar, Proj: arcir.ProjKind{Kind: arcir.StructFieldProj, Name: ex.Name}})
		fb.fn.SetSpan(next.ID(), idx, ex.Span())
		return dst, next, true

	case typedast.TupleIndex:
		baseVar, next, ok := fb.lowerExpr(cur, ex.Receiver)
		if !ok {
			return 0, next, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		idx := next.Emit(arcir.Project{Dst: dst, Value: baseVar, Proj: arcir.ProjKind{Kind: arcir.TupleIndexProj, Index: ex.Index}})
		fb.fn.SetSpan(next.ID(), idx, ex.Span())
		return dst, next, true

	case typedast.Call:
		args, next, ok := fb.lowerExprList(cur, ex.Args)
		if !ok {
			return 0, next, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(next, dst, arcir.Apply{Dst: dst, Function: ex.Function, Args: args}, ex.Span())
		return dst, next, true

	case typedast.CallIndirect:
		closureVar, next, ok := fb.lowerExpr(cur, ex.Closure)
		if !ok {
			return 0, next, false
		}
		args, next2, ok := fb.lowerExprList(next, ex.Args)
		if !ok {
			return 0, next2, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(next2, dst, arcir.ApplyIndirect{Dst: dst, Closure: closureVar, Args: args}, ex.Span())
		return dst, next2, true

	case typedast.Closure:
		args, next, ok := fb.lowerExprList(cur, ex.Captures)
		if !ok {
			return 0, next, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(next, dst, arcir.PartialApply{Dst: dst, Function: ex.Function, Args: args}, ex.Span())
		return dst, next, true

	case typedast.Construct:
		args, next, ok := fb.lowerExprList(cur, ex.Args)
		if !ok {
			return 0, next, false
		}
		dst := fb.fn.FreshVar(ex.Type())
		fb.emit(next, dst, arcir.Construct{Dst: dst, Type: ex.Type(), Ctor: ex.Ctor, Args: args}, ex.Span())
		return dst, next, true

	case typedast.Let:
		return fb.lowerLet(cur, ex)

	case typedast.If:
		return fb.lowerIf(cur, ex)

	case typedast.Match:
		return fb.lowerMatch(cur, ex)

	case typedast.Loop:
		return fb.lowerLoop(cur, ex)

	case typedast.Break:
		return fb.lowerBreak(cur, ex)

	case typedast.Continue:
		return fb.lowerContinue(cur)

	case typedast.Try:
		return fb.lowerTry(cur, ex)

	case typedast.Sequence:
		return fb.lowerSequence(cur, ex)

	default:
		span := e.Span()
		fb.lw.diags.AddFatal(diagnostics.CompilerError{
			Level:   diagnostics.Error,
			Code:    diagnostics.CodeUnsupportedExpr,
			Message: fmt.Sprintf("unsupported expression node %T reached lowering", e),
			Span:    &span,
		})
		return 0, cur, false
	}
}

// emit appends a Let binding dst := value to cur, recording span in the
// side table.
func (fb *funcBuilder) emit(cur *arcir.Block, dst arcir.VarId, value arcir.LetValue, span diagnostics.Span) {
	idx := cur.Emit(arcir.Let{Dst: dst, Value: value})
	fb.fn.SetSpan(cur.ID(), idx, span)
}

// lowerExprList lowers exprs in order, threading the current block through
// each, short-circuiting on the first divergent expression.
func (fb *funcBuilder) lowerExprList(cur *arcir.Block, exprs []typedast.Expr) ([]arcir.VarId, *arcir.Block, bool) {
	out := make([]arcir.VarId, 0, len(exprs))
	for _, e := range exprs {
		v, next, ok := fb.lowerExpr(cur, e)
		if !ok {
			return nil, next, false
		}
		cur = next
		out = append(out, v)
	}
	return out, cur, true
}

func (fb *funcBuilder) lowerLet(cur *arcir.Block, e typedast.Let) (arcir.VarId, *arcir.Block, bool) {
	val, next, ok := fb.lowerExpr(cur, e.Value)
	if !ok {
		return 0, next, false
	}
	save := fb.bindScope(e.Name, val)
	res, next2, ok := fb.lowerExpr(next, e.Body)
	fb.restoreScope(save)
	return res, next2, ok
}

func (fb *funcBuilder) lowerSequence(cur *arcir.Block, e typedast.Sequence) (arcir.VarId, *arcir.Block, bool) {
	if len(e.Exprs) == 0 {
		dst := fb.fn.FreshVar(e.Type())
		fb.emit(cur, dst, arcir.UnitLit{}, e.Span())
		return dst, cur, true
	}
	var val arcir.VarId
	for _, sub := range e.Exprs {
		v, next, ok := fb.lowerExpr(cur, sub)
		if !ok {
			return 0, next, false
		}
		cur = next
		val = v
	}
	return val, cur, true
}
