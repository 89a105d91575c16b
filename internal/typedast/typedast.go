// Package typedast defines the minimal typed-AST node set this core
// consumes: the output of an external, already type-checked and
// monomorphized front end. Every expression node carries its TypeIdx and
// Span directly rather than through parallel tables, since this core's only
// producer (a test fixture or an external front end) builds one node at a
// time.
package typedast

import (
	"ori/internal/diagnostics"
	"ori/internal/typepool"
)

// Function is one source-level function definition, monomorphized to a
// single concrete signature.
type Function struct {
	Name       string
	Params     []Param
	ReturnType typepool.TypeIdx
	Body       Expr
}

// Param is one function parameter: its source name, used to resolve Ident
// references within Body, and its type.
type Param struct {
	Name string
	Type typepool.TypeIdx
}

// Expr is implemented by every typed expression node.
type Expr interface {
	Type() typepool.TypeIdx
	Span() diagnostics.Span
	exprNode()
}

type ExprBase struct {
	Ty typepool.TypeIdx
	Sp diagnostics.Span
}

func (b ExprBase) Type() typepool.TypeIdx { return b.Ty }
func (b ExprBase) Span() diagnostics.Span { return b.Sp }
func (ExprBase) exprNode()                {}

// Ident references a parameter or let-bound name.
type Ident struct {
	ExprBase
	Name string
}

// IntLit, FloatLit, BoolLit, StrLit, UnitLit are literal constants.
type IntLit struct {
	ExprBase
	Value int64
}
type FloatLit struct {
	ExprBase
	Value float64
}
type BoolLit struct {
	ExprBase
	Value bool
}
type StrLit struct {
	ExprBase
	Value string
}
type UnitLit struct{ ExprBase }

// PrimOp is a primitive scalar operation over already-evaluated operands.
type PrimOp struct {
	ExprBase
	Op   string
	Args []Expr
}

// Field is one field projection: Receiver.Name.
type Field struct {
	ExprBase
	Receiver Expr
	Name     string
}

// TupleIndex is a tuple element projection Receiver.N.
type TupleIndex struct {
	ExprBase
	Receiver Expr
	Index    int
}

// Call is a direct call to a known function symbol.
type Call struct {
	ExprBase
	Function string
	Args     []Expr
}

// CallIndirect calls through a closure value of unknown identity.
type CallIndirect struct {
	ExprBase
	Closure Expr
	Args    []Expr
}

// Closure builds a closure value capturing the named free variables.
type Closure struct {
	ExprBase
	Function string
	Captures []Expr
}

// Construct builds a value of Type using constructor Ctor.
type Construct struct {
	ExprBase
	Ctor string
	Args []Expr
}

// Let binds Name to Value for the remainder of Body (an expression-oriented
// let, not a mutable variable).
type Let struct {
	ExprBase
	Name  string
	Value Expr
	Body  Expr
}

// If is a two-armed conditional; both arms must agree on Type().
type If struct {
	ExprBase
	Cond Expr
	Then Expr
	Else Expr
}

// Match dispatches on Scrutinee's runtime shape via Arms, each consisting of
// a pattern and a guarded body.
type Match struct {
	ExprBase
	Scrutinee Expr
	Arms      []MatchArm
}

// MatchArm is one arm of a Match: a pattern, an optional guard, and a body.
type MatchArm struct {
	Pattern Pattern
	Guard   Expr // nil if unguarded
	Body    Expr
}

// Loop is a loop header whose body ends in Break or Continue; its Type() is
// the type Break expressions must agree on (Unit if the loop never breaks
// with a value).
type Loop struct {
	ExprBase
	Body Expr
}

// Break exits the nearest enclosing Loop, optionally carrying Value.
type Break struct {
	ExprBase
	Value Expr // nil for a valueless break
}

// Continue restarts the nearest enclosing Loop.
type Continue struct{ ExprBase }

// Try desugars `e?`: on Ok(v)/matching-constructor, evaluates to v; on
// Err(e)/non-matching constructor, returns Err(e) (or the equivalent
// failure constructor) from the enclosing function.
type Try struct {
	ExprBase
	Value Expr
}

// Sequence evaluates Exprs in order, discarding all but the last result.
type Sequence struct {
	ExprBase
	Exprs []Expr
}

// exprNode is promoted from the embedded ExprBase field on every concrete node
// type above; no per-type redeclaration is needed.
