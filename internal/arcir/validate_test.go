package arcir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ori/internal/diagnostics"
	"ori/internal/typepool"
)

func TestVerifyAcceptsAWellFormedFunction(t *testing.T) {
	fn := NewFunction("id", typepool.NONE)
	x := fn.AddParam(typepool.NONE)
	entry := fn.NewBlock()
	entry.SetTerm(Return{Value: x})

	diags := diagnostics.NewAccumulator()
	Verify(fn, diags)

	assert.False(t, diags.HasFatal())
}

func TestVerifyFlagsMissingTerminator(t *testing.T) {
	fn := NewFunction("f", typepool.NONE)
	fn.NewBlock() // never given a terminator

	diags := diagnostics.NewAccumulator()
	Verify(fn, diags)

	require.True(t, diags.HasFatal())
}

func TestVerifyFlagsTerminatorTargetingNonexistentBlock(t *testing.T) {
	fn := NewFunction("f", typepool.NONE)
	entry := fn.NewBlock()
	entry.SetTerm(Jump{Target: BlockId(99)})

	diags := diagnostics.NewAccumulator()
	Verify(fn, diags)

	require.True(t, diags.HasFatal())
}

// A use in a successor block of a value defined only along a sibling
// branch (never actually reaching the user through any path) violates
// dominance: the definition doesn't dominate the use.
func TestVerifyFlagsUseNotDominatedByItsDefinition(t *testing.T) {
	fn := NewFunction("f", typepool.NONE)
	cond := fn.AddParam(typepool.NONE)
	entry := fn.NewBlock()
	thenB := fn.NewBlock()
	elseB := fn.NewBlock()

	entry.SetTerm(Branch{Cond: cond, Then: thenB.ID(), Else: elseB.ID()})

	defined := fn.FreshVar(typepool.NONE)
	thenB.Emit(Let{Dst: defined, Value: UnitLit{}})
	thenB.SetTerm(Return{Void: true})

	// elseB uses a variable defined only in thenB, a sibling it neither
	// dominates nor is dominated by.
	elseB.SetTerm(Return{Value: defined})

	diags := diagnostics.NewAccumulator()
	Verify(fn, diags)

	require.True(t, diags.HasFatal())
}

func TestVerifyFlagsVariableDefinedTwice(t *testing.T) {
	fn := NewFunction("f", typepool.NONE)
	entry := fn.NewBlock()
	v := fn.FreshVar(typepool.NONE)
	entry.Emit(Let{Dst: v, Value: UnitLit{}})
	entry.Emit(Let{Dst: v, Value: UnitLit{}})
	entry.SetTerm(Return{Void: true})

	diags := diagnostics.NewAccumulator()
	Verify(fn, diags)

	require.True(t, diags.HasFatal())
}

func TestVerifyWarnsOnUnreachableBlock(t *testing.T) {
	fn := NewFunction("f", typepool.NONE)
	entry := fn.NewBlock()
	entry.SetTerm(Return{Void: true})
	orphan := fn.NewBlock()
	orphan.SetTerm(Return{Void: true})

	diags := diagnostics.NewAccumulator()
	Verify(fn, diags)

	assert.False(t, diags.HasFatal(), "unreachability is a warning, not a fatal diagnostic")
	assert.False(t, diags.HasErrors(), "unreachability is recorded as a Warning, not an Error")
	require.NotEmpty(t, diags.Errors())
	assert.Equal(t, diagnostics.Warning, diags.Errors()[0].Level)
}
