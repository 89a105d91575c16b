package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ori/internal/diagnostics"
	"ori/internal/typedast"
	"ori/internal/typepool"
)

func TestCompileSingleWildcardArm(t *testing.T) {
	rows := []Row{
		{Cols: []typedast.Pattern{typedast.WildcardPattern{}}, ArmIndex: 0},
	}
	paths := []ScrutineePath{{}}
	diags := diagnostics.NewAccumulator()

	tree := Compile(rows, paths, nil, diags)

	leaf, ok := tree.(Leaf)
	assert.True(t, ok)
	assert.Equal(t, 0, leaf.ArmIndex)
	assert.False(t, diags.HasErrors())
}

func TestCompileOptionSomeNone(t *testing.T) {
	// match opt { Some(v) -> v, None -> 0 }
	rows := []Row{
		{
			Cols: []typedast.Pattern{
				typedast.CtorPattern{Ctor: "Some", Tag: 1, Fields: []typedast.Pattern{
					typedast.BindPattern{Name: "v"},
				}},
			},
			ArmIndex: 0,
		},
		{
			Cols:     []typedast.Pattern{typedast.CtorPattern{Ctor: "None", Tag: 0}},
			ArmIndex: 1,
		},
	}
	paths := []ScrutineePath{{}}
	diags := diagnostics.NewAccumulator()

	tree := Compile(rows, paths, typepool.NewFakePool(), diags)

	sw, ok := tree.(Switch)
	assert.True(t, ok)
	assert.Equal(t, TestEnumTag, sw.TestKind)
	assert.Len(t, sw.Edges, 2)
	assert.False(t, diags.HasErrors())
}

func TestCompileGuardedArms(t *testing.T) {
	rows := []Row{
		{Cols: []typedast.Pattern{typedast.BindPattern{Name: "v"}}, ArmIndex: 0, Guarded: true},
		{Cols: []typedast.Pattern{typedast.BindPattern{Name: "v"}}, ArmIndex: 1, Guarded: true},
		{Cols: []typedast.Pattern{typedast.WildcardPattern{}}, ArmIndex: 2},
	}
	paths := []ScrutineePath{{}}
	diags := diagnostics.NewAccumulator()

	tree := Compile(rows, paths, nil, diags)

	g0, ok := tree.(Guard)
	assert.True(t, ok)
	assert.Equal(t, 0, g0.ArmIndex)
	g1, ok := g0.OnFail.(Guard)
	assert.True(t, ok)
	assert.Equal(t, 1, g1.ArmIndex)
	leaf, ok := g1.OnFail.(Leaf)
	assert.True(t, ok)
	assert.Equal(t, 2, leaf.ArmIndex)
}

func TestCompileOrPatternExpandsToSharedArm(t *testing.T) {
	rows := []Row{
		{
			Cols: []typedast.Pattern{
				typedast.OrPattern{Alternatives: []typedast.Pattern{
					typedast.LitIntPattern{Value: 1},
					typedast.LitIntPattern{Value: 2},
				}},
			},
			ArmIndex: 0,
		},
		{Cols: []typedast.Pattern{typedast.WildcardPattern{}}, ArmIndex: 1},
	}
	paths := []ScrutineePath{{}}
	diags := diagnostics.NewAccumulator()

	tree := Compile(rows, paths, nil, diags)

	sw, ok := tree.(Switch)
	assert.True(t, ok)
	assert.Equal(t, TestIntEq, sw.TestKind)
	assert.Len(t, sw.Edges, 2)
	for _, e := range sw.Edges {
		leaf := e.Tree.(Leaf)
		assert.Equal(t, 0, leaf.ArmIndex)
	}
}
