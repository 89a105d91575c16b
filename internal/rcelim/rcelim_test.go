package rcelim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ori/internal/arcir"
	"ori/internal/typepool"
)

func newListType() typepool.TypeIdx {
	pool := typepool.NewFakePool()
	return pool.DefineList("List", pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8}), typepool.Layout{Size: 8, Align: 8})
}

// RcInc(x) immediately followed by RcDec(x) with no intervening use is a
// pure round-trip and must be removed entirely (spec.md §4.9).
func TestRunRemovesAdjacentIncDecPairWithNoInterveningUse(t *testing.T) {
	listTy := newListType()
	fn := arcir.NewFunction("f", typepool.NONE)
	x := fn.AddParam(listTy)
	entry := fn.NewBlock()
	entry.Emit(arcir.RcInc{Var: x, Count: 1})
	entry.Emit(arcir.RcDec{Var: x})
	entry.SetTerm(arcir.Return{Void: true})

	Run(fn)

	assert.Empty(t, entry.Body)
}

// An instruction that uses x between its RcInc and RcDec makes the pair
// unmatched: the variable was genuinely live across that point, so both
// must survive.
func TestRunKeepsPairSeparatedByAnInterveningUse(t *testing.T) {
	listTy := newListType()
	intTy := typepool.NewFakePool().DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	fn := arcir.NewFunction("f", typepool.NONE)
	x := fn.AddParam(listTy)
	entry := fn.NewBlock()
	entry.Emit(arcir.RcInc{Var: x, Count: 1})
	n := fn.FreshVar(intTy)
	entry.Emit(arcir.Project{Dst: n, Value: x, Proj: arcir.ProjKind{Kind: arcir.StructFieldProj, Name: "head"}})
	entry.Emit(arcir.RcDec{Var: x})
	entry.SetTerm(arcir.Return{Void: true})

	Run(fn)

	require.Len(t, entry.Body, 3)
	_, ok := entry.Body[0].(arcir.RcInc)
	assert.True(t, ok)
	_, ok = entry.Body[2].(arcir.RcDec)
	assert.True(t, ok)
}

// Elimination iterates to a fixed point: with two nested pairs on the same
// variable, the first scan matches only the inner pair (the second RcInc
// replaces the first as the pending match), and removing it lets the next
// scan match the outer pair.
func TestRunIteratesToFixedPointAcrossNestedPairs(t *testing.T) {
	listTy := newListType()
	fn := arcir.NewFunction("f", typepool.NONE)
	x := fn.AddParam(listTy)
	entry := fn.NewBlock()
	entry.Emit(arcir.RcInc{Var: x, Count: 1})
	entry.Emit(arcir.RcInc{Var: x, Count: 1})
	entry.Emit(arcir.RcDec{Var: x})
	entry.Emit(arcir.RcDec{Var: x})
	entry.SetTerm(arcir.Return{Void: true})

	Run(fn)

	assert.Empty(t, entry.Body)
}

// A batched increment (Count != 1) is a conservative non-match per spec.md
// §4.9's safety rule: it must never be silently removed by a later RcDec.
func TestRunNeverRemovesBatchedIncrement(t *testing.T) {
	listTy := newListType()
	fn := arcir.NewFunction("f", typepool.NONE)
	x := fn.AddParam(listTy)
	entry := fn.NewBlock()
	entry.Emit(arcir.RcInc{Var: x, Count: 2})
	entry.Emit(arcir.RcDec{Var: x})
	entry.SetTerm(arcir.Return{Void: true})

	Run(fn)

	require.Len(t, entry.Body, 2)
	inc, ok := entry.Body[0].(arcir.RcInc)
	require.True(t, ok)
	assert.Equal(t, int64(2), inc.Count)
}
