package lowering

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ori/internal/arcir"
	"ori/internal/diagnostics"
	"ori/internal/typedast"
	"ori/internal/typepool"
)

func ident(name string, ty typepool.TypeIdx) typedast.Ident {
	return typedast.Ident{ExprBase: typedast.ExprBase{Ty: ty}, Name: name}
}

func intLit(v int64, ty typepool.TypeIdx) typedast.IntLit {
	return typedast.IntLit{ExprBase: typedast.ExprBase{Ty: ty}, Value: v}
}

func TestLowerScalarPrimOp(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})

	fn := &typedast.Function{
		Name: "add",
		Params: []typedast.Param{
			{Name: "a", Type: intTy},
			{Name: "b", Type: intTy},
		},
		ReturnType: intTy,
		Body: typedast.PrimOp{
			ExprBase: typedast.ExprBase{Ty: intTy},
			Op:       "add",
			Args:     []typedast.Expr{ident("a", intTy), ident("b", intTy)},
		},
	}

	diags := diagnostics.NewAccumulator()
	out := New(pool, diags).Lower(fn)
	require.False(t, diags.HasErrors())

	assert.Equal(t, "add", out.Name)
	require.Len(t, out.Params, 2)
	assert.Equal(t, arcir.Borrowed, out.Params[0].Ownership)

	entry := out.Entry()
	require.Len(t, entry.Body, 1)
	let, ok := entry.Body[0].(arcir.Let)
	require.True(t, ok)
	primOp, ok := let.Value.(arcir.PrimOp)
	require.True(t, ok)
	assert.Equal(t, "add", primOp.Op)
	assert.Equal(t, []arcir.VarId{out.Params[0].Var, out.Params[1].Var}, primOp.Args)

	ret, ok := entry.Term.(arcir.Return)
	require.True(t, ok)
	assert.False(t, ret.Void)
	assert.Equal(t, let.Dst, ret.Value)
}

func TestLowerUnitReturnIgnoresBodyValue(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	unitTy := pool.DefineScalar("unit", typepool.TagUnit, typepool.Layout{})

	fn := &typedast.Function{
		Name:       "noop",
		ReturnType: unitTy,
		Body:       intLit(1, intTy),
	}

	diags := diagnostics.NewAccumulator()
	out := New(pool, diags).Lower(fn)
	require.False(t, diags.HasErrors())

	ret, ok := out.Entry().Term.(arcir.Return)
	require.True(t, ok)
	assert.True(t, ret.Void)
}

func TestLowerIfExpressionJoinsAtMergeBlock(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	boolTy := pool.DefineScalar("bool", typepool.TagBool, typepool.Layout{Size: 1, Align: 1})

	fn := &typedast.Function{
		Name:       "pick",
		Params:     []typedast.Param{{Name: "c", Type: boolTy}},
		ReturnType: intTy,
		Body: typedast.If{
			ExprBase: typedast.ExprBase{Ty: intTy},
			Cond:     ident("c", boolTy),
			Then:     intLit(1, intTy),
			Else:     intLit(0, intTy),
		},
	}

	diags := diagnostics.NewAccumulator()
	out := New(pool, diags).Lower(fn)
	require.False(t, diags.HasErrors())

	entryBr, ok := out.Entry().Term.(arcir.Branch)
	require.True(t, ok)

	merge := out.Blocks[len(out.Blocks)-1]
	require.Len(t, merge.Params, 1)
	ret, ok := merge.Term.(arcir.Return)
	require.True(t, ok)
	assert.Equal(t, merge.Params[0].Var, ret.Value)

	thenBlock := out.Block(entryBr.Then)
	elseBlock := out.Block(entryBr.Else)
	thenJump, ok := thenBlock.Term.(arcir.Jump)
	require.True(t, ok)
	assert.Equal(t, merge.ID(), thenJump.Target)
	elseJump, ok := elseBlock.Term.(arcir.Jump)
	require.True(t, ok)
	assert.Equal(t, merge.ID(), elseJump.Target)
}

func TestLowerMatchEnumSomeNone(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	optTy := pool.DefineEnum("Option", []typepool.Variant{
		{Name: "None", Tag: 0},
		{Name: "Some", Tag: 1, Fields: []typepool.Field{{Name: "0", Type: intTy}}},
	}, typepool.Layout{Size: 16, Align: 8})

	fn := &typedast.Function{
		Name:       "unwrap_or_zero",
		Params:     []typedast.Param{{Name: "opt", Type: optTy}},
		ReturnType: intTy,
		Body: typedast.Match{
			ExprBase:  typedast.ExprBase{Ty: intTy},
			Scrutinee: ident("opt", optTy),
			Arms: []typedast.MatchArm{
				{
					Pattern: typedast.CtorPattern{
						Type: optTy, Ctor: "Some", Tag: 1,
						Fields: []typedast.Pattern{typedast.BindPattern{Name: "v"}},
					},
					Body: ident("v", intTy),
				},
				{
					Pattern: typedast.CtorPattern{Type: optTy, Ctor: "None", Tag: 0},
					Body:    intLit(0, intTy),
				},
			},
		},
	}

	diags := diagnostics.NewAccumulator()
	out := New(pool, diags).Lower(fn)
	require.False(t, diags.HasErrors())

	sw, ok := out.Entry().Term.(arcir.Switch)
	require.True(t, ok)
	assert.Len(t, sw.Cases, 2)

	someCase := sw.Cases[0]
	if someCase.Tag != 1 {
		someCase = sw.Cases[1]
	}
	someBlock := out.Block(someCase.Target)
	require.Len(t, someBlock.Body, 1)
	_, ok = someBlock.Body[0].(arcir.Project)
	require.True(t, ok)

	someJump, ok := someBlock.Term.(arcir.Jump)
	require.True(t, ok)
	merge := out.Block(someJump.Target)
	require.Len(t, merge.Params, 1)
	_, ok = merge.Term.(arcir.Return)
	require.True(t, ok)
}

func TestLowerLoopBreakExitsWithValue(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})

	fn := &typedast.Function{
		Name:       "first",
		ReturnType: intTy,
		Body: typedast.Loop{
			ExprBase: typedast.ExprBase{Ty: intTy},
			Body: typedast.Break{
				ExprBase: typedast.ExprBase{Ty: intTy},
				Value:    intLit(7, intTy),
			},
		},
	}

	diags := diagnostics.NewAccumulator()
	out := New(pool, diags).Lower(fn)
	require.False(t, diags.HasErrors())

	entryJump, ok := out.Entry().Term.(arcir.Jump)
	require.True(t, ok)
	header := out.Block(entryJump.Target)

	headerJump, ok := header.Term.(arcir.Jump)
	require.True(t, ok)
	exit := out.Block(headerJump.Target)
	require.Len(t, exit.Params, 1)

	ret, ok := exit.Term.(arcir.Return)
	require.True(t, ok)
	assert.Equal(t, exit.Params[0].Var, ret.Value)
}

func TestLowerTryResultDesugarsToSwitch(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	errTy := pool.DefineScalar("string", typepool.TagStr, typepool.Layout{Size: 16, Align: 8})
	resTy := pool.DefineResult("Result", intTy, errTy, typepool.Layout{Size: 24, Align: 8})

	fn := &typedast.Function{
		Name:       "pass_through",
		Params:     []typedast.Param{{Name: "r", Type: resTy}},
		ReturnType: resTy,
		Body: typedast.Try{
			ExprBase: typedast.ExprBase{Ty: intTy},
			Value:    ident("r", resTy),
		},
	}

	diags := diagnostics.NewAccumulator()
	out := New(pool, diags).Lower(fn)
	require.False(t, diags.HasErrors())

	sw, ok := out.Entry().Term.(arcir.Switch)
	require.True(t, ok)
	require.Len(t, sw.Cases, 1)
	assert.Equal(t, int64(0), sw.Cases[0].Tag)
	require.True(t, sw.HasDefault)

	failBlock := out.Block(sw.Default)
	ret, ok := failBlock.Term.(arcir.Return)
	require.True(t, ok)
	assert.Equal(t, out.Params[0].Var, ret.Value)

	contBlock := out.Block(sw.Cases[0].Target)
	require.Len(t, contBlock.Body, 1)
	proj, ok := contBlock.Body[0].(arcir.Project)
	require.True(t, ok)
	assert.Equal(t, arcir.EnumPayloadProj, proj.Proj.Kind)
}
