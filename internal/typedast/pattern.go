package typedast

import "ori/internal/typepool"

// Pattern is implemented by every surface pattern form a match arm can use.
// Lowering hands a matrix of these to the decision-tree compiler
// (internal/decision) rather than interpreting them itself.
type Pattern interface {
	patternNode()
}

// WildcardPattern matches anything and binds nothing (the bare `_`).
type WildcardPattern struct{}

// BindPattern matches anything and binds it to Name (a bare identifier
// pattern, or the `x @ P` form when Inner is non-nil).
type BindPattern struct {
	Name  string
	Inner Pattern // nil for a plain binding
}

// LitIntPattern, LitFloatPattern, LitBoolPattern, LitStrPattern match an
// exact literal value.
type LitIntPattern struct{ Value int64 }
type LitFloatPattern struct{ Value float64 }
type LitBoolPattern struct{ Value bool }
type LitStrPattern struct{ Value string }

// CtorPattern matches a specific enum variant or struct constructor,
// recursing into Fields in declaration order. Tag is the variant's integer
// discriminant as resolved by the front end from the type pool's
// EnumVariants order (struct-constructor patterns leave it zero).
type CtorPattern struct {
	Type   typepool.TypeIdx
	Ctor   string
	Tag    int64
	Fields []Pattern
}

// TuplePattern matches a tuple, recursing into Elems positionally.
type TuplePattern struct {
	Elems []Pattern
}

// ListPattern matches a list decomposed into a fixed Head prefix and,
// if HasTail, a Tail binding the remainder (spec's list patterns are
// head/tail decompositions, not arbitrary fixed-length matches).
type ListPattern struct {
	Head    []Pattern
	HasTail bool
	Tail    Pattern
}

// OrPattern matches if any of Alternatives matches, all of which must bind
// the same set of names.
type OrPattern struct {
	Alternatives []Pattern
}

func (WildcardPattern) patternNode() {}
func (BindPattern) patternNode()     {}
func (LitIntPattern) patternNode()   {}
func (LitFloatPattern) patternNode() {}
func (LitBoolPattern) patternNode()  {}
func (LitStrPattern) patternNode()   {}
func (CtorPattern) patternNode()     {}
func (TuplePattern) patternNode()    {}
func (ListPattern) patternNode()     {}
func (OrPattern) patternNode()       {}
