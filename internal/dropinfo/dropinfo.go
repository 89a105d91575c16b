// Package dropinfo builds DropInfo descriptors: the compile-time recipe a
// code generator uses to emit one monomorphic drop function per
// reference-counted type, with no runtime type information (spec.md
// §4.10).
package dropinfo

import (
	"fmt"

	"ori/internal/arcir"
	"ori/internal/classify"
	"ori/internal/typepool"
)

// Kind discriminates the shape of a type's drop routine.
type Kind int

const (
	Trivial Kind = iota
	Fields
	Enum
	Collection
	Map
	ClosureEnv
)

func (k Kind) String() string {
	switch k {
	case Trivial:
		return "Trivial"
	case Fields:
		return "Fields"
	case Enum:
		return "Enum"
	case Collection:
		return "Collection"
	case Map:
		return "Map"
	case ClosureEnv:
		return "ClosureEnv"
	default:
		return "Unknown"
	}
}

// FieldDrop names one RC-tracked field to decrement within a Fields/Enum
// drop, by its projection index.
type FieldDrop struct {
	Index int
	Name  string
}

// VariantDrop is one enum variant's RC-tracked payload fields.
type VariantDrop struct {
	Tag    int64
	Fields []FieldDrop
}

// DropInfo is the full recipe for freeing one type's allocation.
type DropInfo struct {
	Type           typepool.TypeIdx
	Symbol         string // _ori_drop$<mangled_type>
	Kind           Kind
	FieldDrops     []FieldDrop   // Fields kind
	VariantDrops   []VariantDrop // Enum kind
	ElementNeedsRC bool          // Collection kind
	KeyNeedsRC     bool          // Map kind
	ValueNeedsRC   bool          // Map kind
	EnvCaptures    []FieldDrop   // ClosureEnv kind
}

// Builder collects RcDec targets across every function of a program and
// produces one DropInfo per distinct type.
type Builder struct {
	pool       typepool.Pool
	classifier *classify.Classifier
	seen       map[typepool.TypeIdx]bool
	order      []typepool.TypeIdx
}

// NewBuilder returns an empty Builder.
func NewBuilder(pool typepool.Pool, c *classify.Classifier) *Builder {
	return &Builder{pool: pool, classifier: c, seen: make(map[typepool.TypeIdx]bool)}
}

// ScanFunction records every type decremented anywhere in fn.
func (b *Builder) ScanFunction(fn *arcir.Function) {
	for _, blk := range fn.Blocks {
		for _, instr := range blk.Body {
			dec, ok := instr.(arcir.RcDec)
			if !ok {
				continue
			}
			ty := fn.VarType(dec.Var)
			if !ty.Valid() || b.seen[ty] {
				continue
			}
			b.seen[ty] = true
			b.order = append(b.order, ty)
		}
	}
}

// Build produces the DropInfo for every type scanned so far, keyed by type;
// the returned map carries no ordering.
func (b *Builder) Build() map[typepool.TypeIdx]DropInfo {
	out := make(map[typepool.TypeIdx]DropInfo, len(b.order))
	for _, ty := range b.order {
		out[ty] = b.buildOne(ty)
	}
	return out
}

func (b *Builder) buildOne(ty typepool.TypeIdx) DropInfo {
	resolved := b.pool.Resolve(ty)
	tag := b.pool.Tag(resolved)
	symbol := fmt.Sprintf("_ori_drop$%s", b.pool.Name(ty))

	switch tag {
	case typepool.TagStr:
		return DropInfo{Type: ty, Symbol: symbol, Kind: Trivial}

	case typepool.TagStruct:
		return DropInfo{Type: ty, Symbol: symbol, Kind: Fields, FieldDrops: b.rcFields(b.pool.StructFields(resolved))}

	case typepool.TagTuple:
		elems := b.pool.TupleElems(resolved)
		fields := make([]typepool.Field, len(elems))
		for i, e := range elems {
			fields[i] = typepool.Field{Name: fmt.Sprintf("%d", i), Type: e}
		}
		return DropInfo{Type: ty, Symbol: symbol, Kind: Fields, FieldDrops: b.rcFields(fields)}

	case typepool.TagEnum:
		var variants []VariantDrop
		for _, v := range b.pool.EnumVariants(resolved) {
			variants = append(variants, VariantDrop{Tag: v.Tag, Fields: b.rcFields(v.Fields)})
		}
		return DropInfo{Type: ty, Symbol: symbol, Kind: Enum, VariantDrops: variants}

	case typepool.TagOption:
		inner := b.pool.OptionInner(resolved)
		return DropInfo{Type: ty, Symbol: symbol, Kind: Enum, VariantDrops: []VariantDrop{
			{Tag: 0}, // None
			{Tag: 1, Fields: b.rcFields([]typepool.Field{{Name: "value", Type: inner}})}, // Some
		}}

	case typepool.TagResult:
		ok, err := b.pool.ResultOkErr(resolved)
		return DropInfo{Type: ty, Symbol: symbol, Kind: Enum, VariantDrops: []VariantDrop{
			{Tag: 0, Fields: b.rcFields([]typepool.Field{{Name: "ok", Type: ok}})},
			{Tag: 1, Fields: b.rcFields([]typepool.Field{{Name: "err", Type: err}})},
		}}

	case typepool.TagList, typepool.TagSet:
		elem := b.pool.ListElem(resolved)
		if tag == typepool.TagSet {
			elem = b.pool.SetElem(resolved)
		}
		return DropInfo{Type: ty, Symbol: symbol, Kind: Collection, ElementNeedsRC: b.classifier.NeedsRC(elem)}

	case typepool.TagMap:
		key, value := b.pool.MapKeyValue(resolved)
		return DropInfo{Type: ty, Symbol: symbol, Kind: Map, KeyNeedsRC: b.classifier.NeedsRC(key), ValueNeedsRC: b.classifier.NeedsRC(value)}

	case typepool.TagFunction:
		params, _ := b.pool.FunctionSignature(resolved)
		var captures []typepool.Field
		for i, p := range params {
			captures = append(captures, typepool.Field{Name: fmt.Sprintf("capture%d", i), Type: p})
		}
		return DropInfo{Type: ty, Symbol: symbol, Kind: ClosureEnv, EnvCaptures: b.rcFields(captures)}

	default:
		return DropInfo{Type: ty, Symbol: symbol, Kind: Trivial}
	}
}

func (b *Builder) rcFields(fields []typepool.Field) []FieldDrop {
	var out []FieldDrop
	for i, f := range fields {
		if b.classifier.NeedsRC(f.Type) {
			out = append(out, FieldDrop{Index: i, Name: f.Name})
		}
	}
	return out
}
