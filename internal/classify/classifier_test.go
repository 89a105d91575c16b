package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ori/internal/diagnostics"
	"ori/internal/typepool"
)

func TestClassifyScalarPrimitives(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	boolTy := pool.DefineScalar("bool", typepool.TagBool, typepool.Layout{Size: 1, Align: 1})

	c := New(pool, nil)
	assert.Equal(t, Scalar, c.Classify(intTy))
	assert.Equal(t, Scalar, c.Classify(boolTy))
	assert.True(t, c.IsScalar(intTy))
	assert.False(t, c.NeedsRC(intTy))
}

func TestClassifyContainersAreAlwaysDefiniteRef(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})

	c := New(pool, nil)
	assert.Equal(t, DefiniteRef, c.Classify(listTy))
	assert.True(t, c.NeedsRC(listTy))
}

// A struct of only scalar fields classifies Scalar itself — only a field
// that is itself DefiniteRef (or PossibleRef) drags the enclosing struct
// up, per classifyFields.
func TestClassifyStructOfScalarsIsScalar(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	pairTy := pool.DefineStruct("Pair", []typepool.Field{
		{Name: "a", Type: intTy},
		{Name: "b", Type: intTy},
	}, typepool.Layout{Size: 16, Align: 8})

	c := New(pool, nil)
	assert.Equal(t, Scalar, c.Classify(pairTy))
}

// A struct with one DefiniteRef field (a list, in this case) is itself
// DefiniteRef: any field needing RC forces the whole aggregate to.
func TestClassifyStructWithRefFieldIsDefiniteRef(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})
	consTy := pool.DefineStruct("Cons", []typepool.Field{
		{Name: "head", Type: intTy},
		{Name: "tail", Type: listTy},
	}, typepool.Layout{Size: 16, Align: 8})

	c := New(pool, nil)
	assert.Equal(t, DefiniteRef, c.Classify(consTy))
}

// An enum where one variant is all-scalar and another holds a DefiniteRef
// payload classifies DefiniteRef overall (classifyVariants takes the
// worst case across variants, same rule classifyFields applies to struct
// fields).
func TestClassifyEnumTakesWorstCaseAcrossVariants(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})

	variants := []typepool.Variant{
		{Name: "None", Tag: 0, Fields: nil},
		{Name: "Some", Tag: 1, Fields: []typepool.Field{{Name: "v", Type: intTy}}},
		{Name: "Many", Tag: 2, Fields: []typepool.Field{{Name: "vs", Type: listTy}}},
	}
	optTy := pool.DefineEnum("MultiOption", variants, typepool.Layout{Size: 16, Align: 8})

	c := New(pool, nil)
	assert.Equal(t, DefiniteRef, c.Classify(optTy))
}

// classify.Classify memoizes against its own inflight map: once a type
// finishes classifying, the inflight entry is cleared and a second call
// returns the cached answer rather than re-walking fields or tripping the
// inflight pessimism meant only for genuinely in-progress recursion.
func TestClassifyClearsInflightAfterCompleting(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})

	c := New(pool, nil)
	assert.Equal(t, DefiniteRef, c.Classify(listTy))
	assert.Empty(t, c.inflight)
	assert.Equal(t, DefiniteRef, c.Classify(listTy))
}

func TestClassifyOptionForwardsInnerClass(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})

	optIntTy := pool.DefineOption("Option_int", intTy, typepool.Layout{Size: 16, Align: 8})
	optListTy := pool.DefineOption("Option_list", listTy, typepool.Layout{Size: 16, Align: 8})

	c := New(pool, nil)
	assert.Equal(t, Scalar, c.Classify(optIntTy))
	assert.Equal(t, DefiniteRef, c.Classify(optListTy))
}

func TestClassifyNamedAndAliasResolveThroughTarget(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	namedTy := pool.DefineNamed("MyInt", intTy)
	aliasTy := pool.DefineAlias("MyIntAlias", namedTy)

	c := New(pool, nil)
	assert.Equal(t, Scalar, c.Classify(namedTy))
	assert.Equal(t, Scalar, c.Classify(aliasTy))
}

func TestClassifyAbstractKindRecordsDiagnosticAndReturnsPossibleRef(t *testing.T) {
	pool := typepool.NewFakePool()
	varTy := pool.DefineAbstract("'a", typepool.TagVar)

	diags := diagnostics.NewAccumulator()
	c := New(pool, diags)
	assert.Equal(t, PossibleRef, c.Classify(varTy))
	require.True(t, diags.HasErrors())
}

func TestClassifyMemoizesAcrossCalls(t *testing.T) {
	pool := typepool.NewFakePool()
	intTy := pool.DefineScalar("int", typepool.TagInt, typepool.Layout{Size: 8, Align: 8})
	listTy := pool.DefineList("List", intTy, typepool.Layout{Size: 8, Align: 8})

	c := New(pool, nil)
	first := c.Classify(listTy)
	second := c.Classify(listTy)
	assert.Equal(t, first, second)
}
