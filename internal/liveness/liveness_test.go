package liveness

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ori/internal/arcir"
	"ori/internal/classify"
	"ori/internal/typepool"
)

func newFixturePool() (*typepool.FakePool, typepool.TypeIdx, typepool.TypeIdx) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})
	return pool, intTy, listTy
}

// fn branch(c: bool, xs: List[Int]) -> List[Int] {
//   if c { return xs } else { return xs }
// }
// xs is live-in to both arms and live-out of the entry, through a Branch
// terminator with no block parameters.
func buildBranchFunction(intTy, listTy typepool.TypeIdx) (*arcir.Function, *arcir.Block, *arcir.Block, *arcir.Block) {
	fn := arcir.NewFunction("branch", listTy)
	entry := fn.NewBlock()
	cond := fn.AddParam(intTy)
	xs := fn.AddParam(listTy)

	thenB := fn.NewBlock()
	elseB := fn.NewBlock()
	entry.SetTerm(arcir.Branch{Cond: cond, Then: thenB.ID(), Else: elseB.ID()})

	thenB.SetTerm(arcir.Return{Value: xs})
	elseB.SetTerm(arcir.Return{Value: xs})

	return fn, entry, thenB, elseB
}

func TestAnalyzePropagatesLiveOutThroughBranch(t *testing.T) {
	pool, intTy, listTy := newFixturePool()
	c := classify.New(pool, nil)
	fn, entry, thenB, elseB := buildBranchFunction(intTy, listTy)
	cfg := arcir.BuildCFG(fn)

	res := Analyze(fn, cfg, c)

	xs := fn.Params[1].Var
	assert.True(t, res.LiveOut[entry.ID()][xs], "xs must be live-out of entry: both branches return it")
	assert.True(t, res.LiveIn[thenB.ID()][xs])
	assert.True(t, res.LiveIn[elseB.ID()][xs])
}

func TestAnalyzeExcludesScalarsFromLiveSets(t *testing.T) {
	pool, intTy, listTy := newFixturePool()
	c := classify.New(pool, nil)
	fn, entry, _, _ := buildBranchFunction(intTy, listTy)
	cfg := arcir.BuildCFG(fn)

	res := Analyze(fn, cfg, c)

	cond := fn.Params[0].Var
	assert.False(t, res.LiveOut[entry.ID()][cond], "a Scalar-typed variable is never tracked by liveness")
}

// adjustedLiveIn substitutes a successor's block parameter for the jump
// argument that feeds it: fn loop(xs: List[Int]) -> List[Int] jumping to a
// block with parameter ys, which is immediately returned. ys being
// live-in to the target must surface as xs being live-out of the jump's
// source block.
func TestAnalyzeSubstitutesBlockParamsThroughJumpArgs(t *testing.T) {
	pool, _, listTy := newFixturePool()
	c := classify.New(pool, nil)

	fn := arcir.NewFunction("loop", listTy)
	entry := fn.NewBlock()
	xs := fn.AddParam(listTy)

	target := fn.NewBlock()
	ys := target.AddParam(listTy)
	target.SetTerm(arcir.Return{Value: ys})

	entry.SetTerm(arcir.Jump{Target: target.ID(), Args: []arcir.VarId{xs}})

	cfg := arcir.BuildCFG(fn)
	res := Analyze(fn, cfg, c)

	assert.True(t, res.LiveOut[entry.ID()][xs])
	assert.True(t, res.LiveIn[target.ID()][ys])
}
