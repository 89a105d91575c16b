package rcinsert

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ori/internal/arcir"
	"ori/internal/classify"
	"ori/internal/liveness"
	"ori/internal/typepool"
)

func newFixturePool() (*typepool.FakePool, typepool.TypeIdx, typepool.TypeIdx) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})
	return pool, intTy, listTy
}

func insertInto(fn *arcir.Function, pool typepool.Pool, c *classify.Classifier) {
	cfg := arcir.BuildCFG(fn)
	live := liveness.Analyze(fn, cfg, c)
	Insert(fn, live, c)
}

// fn touch(xs: List[Int]) -> List[Int] { touch(xs); xs } with xs Owned:
// the first, non-last use (the call) needs an increment since xs is used
// again by the Return; the Return itself, as the last use, needs none
// (spec.md §4.6's Perceus rule).
func TestInsertIncrementsOnlyNonLastUse(t *testing.T) {
	pool, intTy, listTy := newFixturePool()
	c := classify.New(pool, nil)

	fn := arcir.NewFunction("touch", listTy)
	xs := fn.AddParam(listTy)
	fn.Params[0].Ownership = arcir.Owned
	entry := fn.NewBlock()
	d := fn.FreshVar(intTy) // scalar: keeps this call's own result untracked
	entry.Emit(arcir.Apply{Dst: d, Function: "touch", Args: []arcir.VarId{xs}})
	entry.SetTerm(arcir.Return{Value: xs})

	insertInto(fn, pool, c)

	require.Len(t, entry.Body, 2)
	inc, ok := entry.Body[0].(arcir.RcInc)
	require.True(t, ok, "expected an RcInc before the first use, got %T", entry.Body[0])
	assert.Equal(t, xs, inc.Var)
	_, ok = entry.Body[1].(arcir.Apply)
	assert.True(t, ok)
}

// fn make() -> Unit { let y = Cons(1, 2); () } — y is constructed and never
// used again, nor live-out (the function returns void), so it must be
// decremented immediately after its definition.
func TestInsertDecrementsDeadConstructResult(t *testing.T) {
	pool, intTy, listTy := newFixturePool()
	c := classify.New(pool, nil)

	fn := arcir.NewFunction("make", typepool.NONE)
	entry := fn.NewBlock()
	a := fn.FreshVar(intTy)
	entry.Emit(arcir.Let{Dst: a, Value: arcir.IntLit{Value: 1}})
	y := fn.FreshVar(listTy)
	entry.Emit(arcir.Construct{Dst: y, Type: listTy, Ctor: "Cons", Args: []arcir.VarId{a}})
	entry.SetTerm(arcir.Return{Void: true})

	insertInto(fn, pool, c)

	require.Len(t, entry.Body, 3)
	_, ok := entry.Body[0].(arcir.Let)
	assert.True(t, ok)
	_, ok = entry.Body[1].(arcir.Construct)
	require.True(t, ok)
	dec, ok := entry.Body[2].(arcir.RcDec)
	require.True(t, ok, "expected an RcDec right after the dead Construct, got %T", entry.Body[2])
	assert.Equal(t, y, dec.Var)
}

// fn len(xs: List[Int]) -> Int { xs.length_field } with xs Borrowed: the
// projection reads straight through the borrow, so neither the projected
// scalar nor xs itself is ever incremented or decremented (spec.md §4.6,
// scenario S3 — zero RC ops end to end).
func TestInsertProjectionFromBorrowedSourceEmitsNoRCOps(t *testing.T) {
	pool, intTy, listTy := newFixturePool()
	c := classify.New(pool, nil)

	fn := arcir.NewFunction("len", intTy)
	xs := fn.AddParam(listTy) // Borrowed by default
	entry := fn.NewBlock()
	n := fn.FreshVar(intTy)
	entry.Emit(arcir.Project{Dst: n, Value: xs, Proj: arcir.ProjKind{Kind: arcir.StructFieldProj, Name: "length_field"}})
	entry.SetTerm(arcir.Return{Value: n})

	insertInto(fn, pool, c)

	require.Len(t, entry.Body, 1, "no RcInc/RcDec should have been inserted")
	_, ok := entry.Body[0].(arcir.Project)
	assert.True(t, ok)
}
