package decision

import (
	"fmt"

	"ori/internal/typedast"
	"ori/internal/typepool"
)

// ctorInfo captures everything the compiler needs about the constructor at
// a matrix cell: which TestKind disambiguates it, the type being tested
// (for tag-width decisions downstream), and its field arity for
// specialization.
type ctorInfo struct {
	kind   TestKind
	ty     typepool.TypeIdx
	arity  int
	tag    int64 // TestEnumTag
	fields []typedast.Pattern
}

func (c ctorInfo) testKind() TestKind { return c.kind }

// patternInfo extracts ctorInfo from a non-wildcard pattern, or ok=false if
// p is a wildcard/bind/or pattern (callers must expand or-patterns first).
func patternInfo(p typedast.Pattern) (ctorInfo, bool) {
	switch pp := p.(type) {
	case typedast.CtorPattern:
		return ctorInfo{kind: TestEnumTag, ty: pp.Type, arity: len(pp.Fields), fields: pp.Fields}, true
	case typedast.LitIntPattern:
		return ctorInfo{kind: TestIntEq}, true
	case typedast.LitBoolPattern:
		return ctorInfo{kind: TestBoolEq}, true
	case typedast.LitStrPattern:
		return ctorInfo{kind: TestStrEq}, true
	case typedast.LitFloatPattern:
		return ctorInfo{kind: TestFloatEq}, true
	case typedast.TuplePattern:
		return ctorInfo{kind: TestListLen, arity: len(pp.Elems), fields: pp.Elems}, true
	case typedast.ListPattern:
		return ctorInfo{kind: TestListLen, arity: len(pp.Head)}, true
	default:
		return ctorInfo{}, false
	}
}

func ctorKey(p typedast.Pattern) string {
	switch pp := p.(type) {
	case typedast.CtorPattern:
		return "ctor:" + pp.Ctor
	case typedast.LitIntPattern:
		return fmt.Sprintf("int:%d", pp.Value)
	case typedast.LitBoolPattern:
		return fmt.Sprintf("bool:%t", pp.Value)
	case typedast.LitStrPattern:
		return "str:" + pp.Value
	case typedast.LitFloatPattern:
		return fmt.Sprintf("float:%g", pp.Value)
	case typedast.TuplePattern:
		return "tuple"
	case typedast.ListPattern:
		return fmt.Sprintf("list:%d:%t", len(pp.Head), pp.HasTail)
	default:
		return ""
	}
}

func testValueOf(p typedast.Pattern) TestValue {
	switch pp := p.(type) {
	case typedast.CtorPattern:
		return TestValue{Tag: ctorTag(pp)}
	case typedast.LitIntPattern:
		return TestValue{Int: pp.Value}
	case typedast.LitBoolPattern:
		return TestValue{Bool: pp.Value}
	case typedast.LitStrPattern:
		return TestValue{Str: pp.Value}
	case typedast.LitFloatPattern:
		return TestValue{Float: pp.Value}
	case typedast.TuplePattern:
		return TestValue{ListLen: len(pp.Elems)}
	case typedast.ListPattern:
		return TestValue{ListLen: len(pp.Head)}
	default:
		return TestValue{}
	}
}

func ctorTag(p typedast.CtorPattern) int64 {
	return p.Tag
}

func firstConstructor(rows []Row, col int) (ctorInfo, bool) {
	for _, r := range rows {
		if !isWildcardPattern(r.Cols[col]) {
			if info, ok := patternInfo(r.Cols[col]); ok {
				return info, true
			}
		}
	}
	return ctorInfo{}, false
}

func distinctValues(rows []Row, col int) []TestValue {
	seen := map[string]bool{}
	var values []TestValue
	for _, r := range rows {
		p := r.Cols[col]
		if isWildcardPattern(p) {
			continue
		}
		key := ctorKey(p)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, testValueOf(p))
	}
	return values
}

// specialize expands rows whose column col matches value's constructor,
// replacing that column with its sub-pattern columns (extending paths
// accordingly); rows whose column col is a wildcard are kept with
// newly-inserted wildcard columns so every output row has the same width.
func (c *compiler) specialize(rows []Row, paths []ScrutineePath, col int, value TestValue) ([]Row, []ScrutineePath) {
	arity := 0
	var kind TestKind
	var pathKind PathStepKind
	for _, r := range rows {
		if info, ok := patternInfo(r.Cols[col]); ok && testValueOf(r.Cols[col]) == value {
			arity = info.arity
			kind = info.kind
			break
		}
	}
	switch kind {
	case TestEnumTag:
		pathKind = TagPayload
	case TestListLen:
		pathKind = TupleIndex
	default:
		pathKind = TupleIndex
	}

	newPaths := make([]ScrutineePath, 0, len(paths)-1+arity)
	newPaths = append(newPaths, paths[:col]...)
	for i := 0; i < arity; i++ {
		newPaths = append(newPaths, paths[col].Extend(PathStep{Kind: pathKind, Index: i}))
	}
	newPaths = append(newPaths, paths[col+1:]...)

	var out []Row
	for _, r := range rows {
		p := r.Cols[col]
		switch {
		case isWildcardPattern(p):
			bound := r.Bound
			if b, ok := p.(typedast.BindPattern); ok {
				bound = append(append([]Binding{}, bound...), Binding{Name: b.Name, Path: paths[col]})
			}
			newCols := make([]typedast.Pattern, 0, len(r.Cols)-1+arity)
			newCols = append(newCols, r.Cols[:col]...)
			for i := 0; i < arity; i++ {
				newCols = append(newCols, typedast.WildcardPattern{})
			}
			newCols = append(newCols, r.Cols[col+1:]...)
			out = append(out, Row{Cols: newCols, ArmIndex: r.ArmIndex, Guarded: r.Guarded, Bound: bound})
		case testValueOf(p) == value:
			fields := fieldsOf(p)
			newCols := make([]typedast.Pattern, 0, len(r.Cols)-1+len(fields))
			newCols = append(newCols, r.Cols[:col]...)
			newCols = append(newCols, fields...)
			newCols = append(newCols, r.Cols[col+1:]...)
			out = append(out, Row{Cols: newCols, ArmIndex: r.ArmIndex, Guarded: r.Guarded, Bound: r.Bound})
		default:
			// row's column tests a different constructor; excluded from
			// this specialized matrix.
		}
	}
	return out, newPaths
}

func fieldsOf(p typedast.Pattern) []typedast.Pattern {
	switch pp := p.(type) {
	case typedast.CtorPattern:
		return pp.Fields
	case typedast.TuplePattern:
		return pp.Elems
	case typedast.ListPattern:
		return pp.Head
	default:
		return nil
	}
}

// defaultMatrix builds the matrix used when no edge's value matches: every
// row whose column col is a wildcard, with that column dropped.
func (c *compiler) defaultMatrix(rows []Row, paths []ScrutineePath, col int) ([]Row, []ScrutineePath) {
	newPaths := append(append([]ScrutineePath{}, paths[:col]...), paths[col+1:]...)
	var out []Row
	for _, r := range rows {
		p := r.Cols[col]
		if !isWildcardPattern(p) {
			continue
		}
		bound := r.Bound
		if b, ok := p.(typedast.BindPattern); ok {
			bound = append(append([]Binding{}, bound...), Binding{Name: b.Name, Path: paths[col]})
		}
		newCols := append(append([]typedast.Pattern{}, r.Cols[:col]...), r.Cols[col+1:]...)
		out = append(out, Row{Cols: newCols, ArmIndex: r.ArmIndex, Guarded: r.Guarded, Bound: bound})
	}
	return out, newPaths
}
