package textfmt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ori/internal/arcir"
	"ori/internal/typepool"
)

const (
	tyPair typepool.TypeIdx = 10
	tyInt  typepool.TypeIdx = 11
	tyBool typepool.TypeIdx = 12
)

// buildControlFlowFixture exercises Project/RcInc/RcDec/IsShared/Set/SetTag,
// Branch/Jump/Switch/Unreachable, Construct, and every literal kind.
func buildControlFlowFixture() *arcir.Function {
	fn := arcir.NewFunction("kitchen_sink", tyInt)
	a := fn.AddParam(tyPair)
	fn.Params[0].Ownership = arcir.Borrowed
	b := fn.AddParam(tyInt)
	fn.Params[1].Ownership = arcir.Owned

	entry := fn.NewBlock()
	field := fn.FreshVar(tyInt)
	entry.Emit(arcir.Project{Dst: field, Value: a, Proj: arcir.ProjKind{Kind: arcir.StructFieldProj, Name: "count"}})
	entry.Emit(arcir.RcInc{Var: field, Count: 1})
	shared := fn.FreshVar(tyBool)
	entry.Emit(arcir.IsShared{Dst: shared, Var: field})

	left := fn.NewBlock()
	right := fn.NewBlock()
	entry.SetTerm(arcir.Branch{Cond: shared, Then: left.ID(), Else: right.ID()})

	five := fn.FreshVar(tyInt)
	left.Emit(arcir.Let{Dst: five, Value: arcir.IntLit{Value: 5}})
	flag := fn.FreshVar(tyBool)
	left.Emit(arcir.Let{Dst: flag, Value: arcir.BoolLit{Value: true}})

	merge := fn.NewBlock()
	joined := merge.AddParam(tyInt)
	left.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{five}})

	six := fn.FreshVar(tyInt)
	right.Emit(arcir.Let{Dst: six, Value: arcir.IntLit{Value: 6}})
	right.SetTerm(arcir.Jump{Target: merge.ID(), Args: []arcir.VarId{six}})

	merge.Emit(arcir.RcDec{Var: field})
	merge.Emit(arcir.SetTag{Base: a, Tag: 1})
	merge.Emit(arcir.Set{Base: a, Field: arcir.ProjKind{Kind: arcir.StructFieldProj, Name: "count"}, Value: joined})
	sum := fn.FreshVar(tyInt)
	merge.Emit(arcir.Let{Dst: sum, Value: arcir.PrimOp{Op: "add", Args: []arcir.VarId{joined, b}}})
	merge.SetTerm(arcir.Switch{
		Scrutinee:  sum,
		Cases:      []arcir.SwitchCase{{Tag: 0, Target: left.ID()}},
		HasDefault: true,
		Default:    right.ID(),
	})

	// Never actually reached from merge's Switch (both targets already
	// terminate above); dead exits exercising Construct/TupleIndex/Return
	// and Unreachable still need blocks of their own.
	ctor := fn.NewBlock()
	pair := fn.FreshVar(tyPair)
	ctor.Emit(arcir.Construct{Dst: pair, Type: tyPair, Ctor: "Pair", Args: []arcir.VarId{sum, sum}})
	elem := fn.FreshVar(tyInt)
	ctor.Emit(arcir.Project{Dst: elem, Value: pair, Proj: arcir.ProjKind{Kind: arcir.TupleIndexProj, Index: 0}})
	str := fn.FreshVar(typepool.TypeIdx(13))
	ctor.Emit(arcir.Let{Dst: str, Value: arcir.StrLit{Value: "done\"quoted\""}})
	unit := fn.FreshVar(typepool.TypeIdx(14))
	ctor.Emit(arcir.Let{Dst: unit, Value: arcir.UnitLit{}})
	pi := fn.FreshVar(typepool.TypeIdx(15))
	ctor.Emit(arcir.Let{Dst: pi, Value: arcir.FloatLit{Value: 3.5}})
	ctor.SetTerm(arcir.Return{Value: elem})

	unreach := fn.NewBlock()
	unreach.SetTerm(arcir.Unreachable{})

	return fn
}

func TestRoundTripControlFlow(t *testing.T) {
	fn := buildControlFlowFixture()
	text := arcir.Print(fn)

	rebuilt, err := Parse("kitchen_sink.arcir", text)
	require.NoError(t, err)

	again := arcir.Print(rebuilt)
	assert.Equal(t, text, again)
}

// buildCallFixture exercises Apply/ApplyIndirect/PartialApply/Reset/Reuse
// and the remaining two projection kinds (enum payload, list element).
func buildCallFixture() *arcir.Function {
	fn := arcir.NewFunction("dispatch", tyInt)
	closure := fn.AddParam(typepool.TypeIdx(20))
	list := fn.AddParam(typepool.TypeIdx(21))
	opt := fn.AddParam(typepool.TypeIdx(22))

	entry := fn.NewBlock()
	called := fn.FreshVar(tyInt)
	entry.Emit(arcir.Apply{Dst: called, Function: "helper", Args: []arcir.VarId{closure}})

	indirect := fn.FreshVar(tyInt)
	entry.Emit(arcir.ApplyIndirect{Dst: indirect, Closure: closure, Args: []arcir.VarId{called}})

	made := fn.FreshVar(typepool.TypeIdx(20))
	entry.Emit(arcir.PartialApply{Dst: made, Function: "adder", Args: []arcir.VarId{called}})

	head := fn.FreshVar(tyInt)
	entry.Emit(arcir.Project{Dst: head, Value: list, Proj: arcir.ProjKind{Kind: arcir.ListElementProj, Index: 0}})

	payload := fn.FreshVar(tyInt)
	entry.Emit(arcir.Project{Dst: payload, Value: opt, Proj: arcir.ProjKind{Kind: arcir.EnumPayloadProj, Index: 1}})

	token := fn.FreshVar(typepool.TypeIdx(20))
	entry.Emit(arcir.Reset{Token: token, Var: made})
	reused := fn.FreshVar(typepool.TypeIdx(20))
	entry.Emit(arcir.Reuse{Dst: reused, Token: token, Type: typepool.TypeIdx(20), Ctor: "Closure", Args: []arcir.VarId{head, payload}})

	entry.SetTerm(arcir.Return{Void: true})
	return fn
}

func TestRoundTripCallForms(t *testing.T) {
	fn := buildCallFixture()
	text := arcir.Print(fn)

	rebuilt, err := Parse("dispatch.arcir", text)
	require.NoError(t, err)

	again := arcir.Print(rebuilt)
	assert.Equal(t, text, again)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("bad.arcir", "not an arc ir function")
	assert.Error(t, err)
}
