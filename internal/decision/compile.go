package decision

import (
	"ori/internal/diagnostics"
	"ori/internal/typedast"
	"ori/internal/typepool"
)

// Row is one matrix row: the pattern at each column, the originating arm
// index, an optional guard flag, and the bindings already gathered from
// columns consumed by earlier specialization steps (as-patterns and
// already-wildcarded columns).
type Row struct {
	Cols     []typedast.Pattern
	ArmIndex int
	Guarded  bool
	Bound    []Binding
}

// Compile builds a decision tree for a match over the given column paths.
// cols and paths must be the same length; rows' Cols must all have that
// same length. diags receives a CodeDecisionTreeFailure diagnostic if no
// tree can be built (an unhandled pattern kind reaching the compiler,
// itself a front-end bug since the front end is assumed to have already
// checked exhaustiveness and pattern well-formedness).
func Compile(rows []Row, paths []ScrutineePath, pool typepool.Pool, diags *diagnostics.Accumulator) Node {
	c := &compiler{pool: pool, diags: diags}
	return c.compile(rows, paths)
}

type compiler struct {
	pool  typepool.Pool
	diags *diagnostics.Accumulator
}

func (c *compiler) compile(rows []Row, paths []ScrutineePath) Node {
	rows = expandOrRows(rows)
	if len(rows) == 0 {
		return Fail{}
	}

	first := rows[0]
	if allWildcard(first.Cols) {
		bindings := append(append([]Binding{}, first.Bound...), wildcardBindings(first.Cols, paths)...)
		if first.Guarded {
			return Guard{
				ArmIndex: first.ArmIndex,
				Bindings: bindings,
				OnFail:   c.compile(rows[1:], paths),
			}
		}
		return Leaf{ArmIndex: first.ArmIndex, Bindings: bindings}
	}

	col := c.pickColumn(rows)
	path := paths[col]

	ctor, ok := firstConstructor(rows, col)
	if !ok {
		c.diags.AddFatal(diagnostics.CompilerError{
			Level:   diagnostics.Error,
			Code:    diagnostics.CodeDecisionTreeFailure,
			Message: "decision tree compiler found no usable constructor in a non-wildcard column",
		})
		return Fail{}
	}

	testKind := ctor.testKind()
	values := distinctValues(rows, col)

	edges := make([]Edge, 0, len(values))
	for _, v := range values {
		subRows, subPaths := c.specialize(rows, paths, col, v)
		edges = append(edges, Edge{Value: v, Tree: c.compile(subRows, subPaths)})
	}

	// A default arm is only needed if some row remains wildcarded at this
	// column after every explicit constructor has been peeled off: a
	// matrix with no such row is exhaustively covered by the listed
	// constructors (the front end guarantees match exhaustiveness before
	// handing the matrix to this compiler).
	var def Node
	defRows, defPaths := c.defaultMatrix(rows, paths, col)
	if len(defRows) > 0 {
		def = c.compile(defRows, defPaths)
	}

	if len(edges) == 1 && def == nil {
		// Single-constructor column (a tuple, a single-variant enum, a
		// fixed-shape list pattern): no disambiguation needed, so the
		// Switch is elided in favor of direct structural descent
		// (spec.md §8 boundary behavior).
		return edges[0].Tree
	}

	return Switch{
		Path:     path,
		TestKind: testKind,
		Type:     ctor.ty,
		Edges:    edges,
		Default:  def,
	}
}

// pickColumn chooses the column with the most distinct constructors among
// non-wildcard rows, tiebreaking leftmost (spec.md §4.2).
func (c *compiler) pickColumn(rows []Row) int {
	numCols := len(rows[0].Cols)
	best, bestCount := 0, -1
	for col := 0; col < numCols; col++ {
		seen := map[string]bool{}
		for _, r := range rows {
			if !isWildcardPattern(r.Cols[col]) {
				seen[ctorKey(r.Cols[col])] = true
			}
		}
		if len(seen) > bestCount {
			best, bestCount = col, len(seen)
		}
	}
	return best
}

func allWildcard(cols []typedast.Pattern) bool {
	for _, p := range cols {
		if !isWildcardPattern(p) {
			return false
		}
	}
	return true
}

func isWildcardPattern(p typedast.Pattern) bool {
	switch pp := p.(type) {
	case typedast.WildcardPattern:
		return true
	case typedast.BindPattern:
		return pp.Inner == nil || isWildcardPattern(pp.Inner)
	default:
		return false
	}
}

// wildcardBindings gathers BindPattern names from an all-wildcard row at
// their column paths.
func wildcardBindings(cols []typedast.Pattern, paths []ScrutineePath) []Binding {
	var out []Binding
	for i, p := range cols {
		if b, ok := p.(typedast.BindPattern); ok {
			out = append(out, Binding{Name: b.Name, Path: paths[i]})
		}
	}
	return out
}
