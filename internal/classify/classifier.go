// Package classify implements the Type Classifier (spec.md §4.1): pure,
// cached classification of every monomorphized type into Scalar,
// DefiniteRef, or PossibleRef.
package classify

import (
	"fmt"

	"ori/internal/diagnostics"
	"ori/internal/typepool"
)

// Class is one of Scalar, DefiniteRef, or PossibleRef (spec.md §3).
type Class int

const (
	Scalar Class = iota
	DefiniteRef
	PossibleRef
)

func (c Class) String() string {
	switch c {
	case Scalar:
		return "Scalar"
	case DefiniteRef:
		return "DefiniteRef"
	case PossibleRef:
		return "PossibleRef"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// Classifier memoizes Tag->Class decisions over a single Pool. Classifiers
// are not safe for concurrent use by default; callers that need concurrent
// classification during the parallel phase of §5 should either classify
// everything up front (single-threaded, before fan-out) or wrap a Classifier
// with their own locking — the pool itself is read-only and safe to share.
type Classifier struct {
	pool  typepool.Pool
	cache map[typepool.TypeIdx]Class
	diags *diagnostics.Accumulator

	// inflight tracks types currently being classified, to memoize
	// pessimistically during recursive descent (spec.md §4.1, §9): a type
	// that recurses into itself before finishing is assumed DefiniteRef
	// until the recursion completes, then refined.
	inflight map[typepool.TypeIdx]bool
}

// New creates a Classifier over pool. diags may be nil if the caller does
// not want PossibleRef-safety-net diagnostics recorded.
func New(pool typepool.Pool, diags *diagnostics.Accumulator) *Classifier {
	return &Classifier{
		pool:     pool,
		cache:    make(map[typepool.TypeIdx]Class),
		diags:    diags,
		inflight: make(map[typepool.TypeIdx]bool),
	}
}

// Classify returns the ArcClass of idx, memoized.
func (c *Classifier) Classify(idx typepool.TypeIdx) Class {
	if cls, ok := c.cache[idx]; ok {
		return cls
	}
	if c.inflight[idx] {
		// Recursive type: return a pessimistic default while the outer
		// call finishes; the outer call will overwrite the cache with the
		// refined answer once it completes.
		return DefiniteRef
	}

	c.inflight[idx] = true
	cls := c.classifyUncached(idx)
	delete(c.inflight, idx)

	c.cache[idx] = cls
	return cls
}

// IsScalar is a convenience predicate.
func (c *Classifier) IsScalar(idx typepool.TypeIdx) bool {
	return c.Classify(idx) == Scalar
}

// NeedsRC reports whether values of this type participate in reference
// counting at all — the gate every RC-generating pass checks (spec.md §4.1).
func (c *Classifier) NeedsRC(idx typepool.TypeIdx) bool {
	return c.Classify(idx) != Scalar
}

func (c *Classifier) classifyUncached(idx typepool.TypeIdx) Class {
	tag := c.pool.Tag(idx)

	switch tag {
	case typepool.TagInt, typepool.TagFloat, typepool.TagBool, typepool.TagChar,
		typepool.TagByte, typepool.TagUnit, typepool.TagNever, typepool.TagDuration,
		typepool.TagSize, typepool.TagOrdering:
		return Scalar

	case typepool.TagStr, typepool.TagList, typepool.TagMap, typepool.TagSet,
		typepool.TagChannel, typepool.TagFunction:
		// The container/closure itself is always heap-allocated, regardless
		// of element types (spec.md §4.1).
		return DefiniteRef

	case typepool.TagTuple:
		return c.classifyFields(fieldsOfTuple(c.pool.TupleElems(idx)))

	case typepool.TagStruct:
		return c.classifyFields(c.pool.StructFields(idx))

	case typepool.TagEnum:
		return c.classifyVariants(c.pool.EnumVariants(idx))

	case typepool.TagOption:
		inner := c.pool.OptionInner(idx)
		return c.Classify(inner)

	case typepool.TagResult:
		ok, errT := c.pool.ResultOkErr(idx)
		return c.classifyFields([]typepool.Field{{Type: ok}, {Type: errT}})

	case typepool.TagRange:
		// Range at 0.1-alpha is fixed to int (spec.md §4.1): classifying
		// Scalar regardless of the declared element type.
		return Scalar

	case typepool.TagNamed, typepool.TagAlias:
		return c.Classify(c.pool.Resolve(idx))

	case typepool.TagError:
		return DefiniteRef

	default:
		if tag.IsAbstract() {
			if c.diags != nil {
				c.diags.Add(diagnostics.CompilerError{
					Level:   diagnostics.Error,
					Code:    diagnostics.CodeTypeVariableLeaked,
					Message: fmt.Sprintf("type variable %q (%s) reached the ARC IR core after monomorphization", c.pool.Name(idx), tag),
				})
			}
			return PossibleRef
		}
		// Unknown tag: conservative default, also worth a diagnostic in
		// debug builds, but not fatal.
		return PossibleRef
	}
}

func fieldsOfTuple(elems []typepool.TypeIdx) []typepool.Field {
	fields := make([]typepool.Field, len(elems))
	for i, e := range elems {
		fields[i] = typepool.Field{Type: e}
	}
	return fields
}

func (c *Classifier) classifyFields(fields []typepool.Field) Class {
	sawPossible := false
	for _, f := range fields {
		switch c.Classify(f.Type) {
		case DefiniteRef:
			return DefiniteRef
		case PossibleRef:
			sawPossible = true
		}
	}
	if sawPossible {
		return PossibleRef
	}
	return Scalar
}

func (c *Classifier) classifyVariants(variants []typepool.Variant) Class {
	sawPossible := false
	for _, v := range variants {
		switch c.classifyFields(v.Fields) {
		case DefiniteRef:
			return DefiniteRef
		case PossibleRef:
			sawPossible = true
		}
	}
	if sawPossible {
		return PossibleRef
	}
	return Scalar
}
