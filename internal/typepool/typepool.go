// Package typepool defines the read-only interface this core consumes from
// the (out-of-scope) type checker: a flattened, structure-of-arrays catalog
// of every monomorphized type in the program, addressed by dense indices.
package typepool

import "fmt"

// TypeIdx is an opaque handle into an externally-owned type pool.
type TypeIdx uint32

// NONE is the reserved sentinel index (all bits set).
const NONE TypeIdx = 0xFFFFFFFF

// Valid reports whether idx is not the NONE sentinel.
func (idx TypeIdx) Valid() bool { return idx != NONE }

// String renders idx as a bare index, e.g. for IR printing where resolving
// a human-readable name would require threading a Pool through every
// caller. Diagnostics should use Pool.Name instead.
func (idx TypeIdx) String() string {
	if idx == NONE {
		return "t?"
	}
	return fmt.Sprintf("t%d", uint32(idx))
}

// Tag identifies the shape of a pool entry.
type Tag int

const (
	TagInt Tag = iota
	TagFloat
	TagBool
	TagStr
	TagChar
	TagByte
	TagUnit
	TagNever
	TagDuration
	TagSize
	TagOrdering
	TagList
	TagMap
	TagSet
	TagTuple
	TagOption
	TagResult
	TagRange
	TagChannel
	TagFunction
	TagStruct
	TagEnum
	TagNamed
	TagAlias
	TagError
	// Abstract, pre-monomorphization kinds. Must never occur in a
	// monomorphized program; the classifier treats them as PossibleRef and
	// emits a diagnostic if it ever sees one.
	TagVar
	TagBoundVar
	TagRigidVar
	TagScheme
	TagInfer
)

func (t Tag) String() string {
	names := [...]string{
		"Int", "Float", "Bool", "Str", "Char", "Byte", "Unit", "Never",
		"Duration", "Size", "Ordering", "List", "Map", "Set", "Tuple",
		"Option", "Result", "Range", "Channel", "Function", "Struct",
		"Enum", "Named", "Alias", "Error", "Var", "BoundVar", "RigidVar",
		"Scheme", "Infer",
	}
	if int(t) < 0 || int(t) >= len(names) {
		return fmt.Sprintf("Tag(%d)", int(t))
	}
	return names[t]
}

// IsAbstract reports whether a tag is one of the pre-monomorphization type
// variable kinds that should never reach this core.
func (t Tag) IsAbstract() bool {
	switch t {
	case TagVar, TagBoundVar, TagRigidVar, TagScheme, TagInfer:
		return true
	default:
		return false
	}
}

// Field describes one struct field or enum variant payload field.
type Field struct {
	Name string
	Type TypeIdx
}

// Variant describes one enum variant: a name, an integer tag, and its
// ordered payload fields (empty for unit variants).
type Variant struct {
	Name   string
	Tag    int64
	Fields []Field
}

// Layout carries the ABI-visible size and alignment of a type, queried as
// compile-time constants (§3, reference-counted heap layout).
type Layout struct {
	Size  uint64
	Align uint64
}

// Pool is the structural interface the core queries. Implementations are
// externally owned (the real type checker's pool); Pool is safe for
// concurrent reads once type-checking has completed (§5).
type Pool interface {
	// Tag returns the shape of idx.
	Tag(idx TypeIdx) Tag

	// Resolve chases Named/Alias indirection to a concrete tag's index.
	// Resolve(idx) == idx for any non-Named/Alias tag.
	Resolve(idx TypeIdx) TypeIdx

	// Layout returns the ABI size/alignment of idx.
	Layout(idx TypeIdx) Layout

	// StructFields returns the ordered fields of a Struct-tagged type.
	StructFields(idx TypeIdx) []Field

	// EnumVariants returns the ordered variants of an Enum-tagged type.
	EnumVariants(idx TypeIdx) []Variant

	// TupleElems returns the ordered element types of a Tuple-tagged type.
	TupleElems(idx TypeIdx) []TypeIdx

	// ListElem returns the element type of a List-tagged type.
	ListElem(idx TypeIdx) TypeIdx

	// MapKeyValue returns the key and value types of a Map-tagged type.
	MapKeyValue(idx TypeIdx) (key, value TypeIdx)

	// SetElem returns the element type of a Set-tagged type.
	SetElem(idx TypeIdx) TypeIdx

	// OptionInner returns T for an Option[T]-tagged type.
	OptionInner(idx TypeIdx) TypeIdx

	// ResultOkErr returns the Ok/Err payload types of a Result-tagged type.
	ResultOkErr(idx TypeIdx) (ok, err TypeIdx)

	// RangeElem returns the element type of a Range-tagged type (fixed to
	// int at 0.1-alpha, per spec.md §4.1).
	RangeElem(idx TypeIdx) TypeIdx

	// FunctionSignature returns the parameter and return types of a
	// Function-tagged type.
	FunctionSignature(idx TypeIdx) (params []TypeIdx, ret TypeIdx)

	// ChannelElem returns the element type of a Channel-tagged type.
	ChannelElem(idx TypeIdx) TypeIdx

	// Name returns a human-readable name for idx, used only in
	// diagnostics and printing.
	Name(idx TypeIdx) string
}
