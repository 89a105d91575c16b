// Package arcir implements the ARC IR: the basic-block, SSA-form
// intermediate representation described in spec.md §3. It models
// allocation, projection, construction, indirect/direct calls,
// reference-count operations, and constructor-reuse primitives, and is the
// single representation every pass in this core reads and mutates in
// place.
package arcir

import (
	"ori/internal/diagnostics"
	"ori/internal/typepool"
)

// VarId names a value within a function, assigned densely in definition
// order. Opaque outside its owning function.
type VarId uint32

// BlockId names a basic block within a function, assigned densely in
// creation order. Opaque outside its owning function.
type BlockId uint32

// Ownership classifies a parameter as Borrowed (caller retains ownership)
// or Owned (callee receives ownership) — spec.md §4.4.
type Ownership int

const (
	Borrowed Ownership = iota
	Owned
)

func (o Ownership) String() string {
	if o == Owned {
		return "owned"
	}
	return "borrowed"
}

// Param is one function parameter: its SSA variable, static type, and
// borrow-inferred ownership.
type Param struct {
	Var       VarId
	Type      typepool.TypeIdx
	Ownership Ownership
}

// spanKey indexes the side table mapping (block, instruction index) to an
// optional source span.
type spanKey struct {
	Block BlockId
	Index int
}

// Function is the primary processing unit: one ArcFunction per
// source-level function, as described in spec.md §3.
type Function struct {
	Name       string
	Params     []Param
	ReturnType typepool.TypeIdx // Return values are always Owned by calling convention.
	EntryBlock BlockId

	Blocks []*Block

	// VarTypes is the dense VarId -> TypeIdx table; index i holds the type
	// of VarId(i). Grown as fresh variables are allocated.
	VarTypes []typepool.TypeIdx

	spans map[spanKey]diagnostics.Span

	nextVar   VarId
	nextBlock BlockId
	byID      map[BlockId]*Block
}

// NewFunction creates an empty function with no blocks. Callers typically
// follow with NewBlock to create the entry block.
func NewFunction(name string, returnType typepool.TypeIdx) *Function {
	return &Function{
		Name:       name,
		ReturnType: returnType,
		spans:      make(map[spanKey]diagnostics.Span),
		byID:       make(map[BlockId]*Block),
	}
}

// FreshVar allocates a new VarId of the given type and returns it.
func (f *Function) FreshVar(ty typepool.TypeIdx) VarId {
	id := f.nextVar
	f.nextVar++
	f.VarTypes = append(f.VarTypes, ty)
	return id
}

// VarType returns the static type of v.
func (f *Function) VarType(v VarId) typepool.TypeIdx {
	if int(v) >= len(f.VarTypes) {
		return typepool.NONE
	}
	return f.VarTypes[v]
}

// DefineVar records ty as the type of the explicitly-numbered variable id,
// growing VarTypes as needed. Unlike FreshVar, this does not allocate a new
// id — it's for reconstructing a Function whose variable numbering is
// already fixed by an external source (internal/arcir/textfmt, deserializing
// a printed dump) rather than assigned in the usual sequential order.
func (f *Function) DefineVar(id VarId, ty typepool.TypeIdx) {
	for VarId(len(f.VarTypes)) <= id {
		f.VarTypes = append(f.VarTypes, typepool.NONE)
	}
	f.VarTypes[id] = ty
	if id >= f.nextVar {
		f.nextVar = id + 1
	}
}

// AddParam declares a new function parameter, allocating its VarId.
// Parameters start Borrowed per spec.md §4.3 (the borrow-inference
// pre-condition); callers needing a different starting ownership should
// mutate Params[i].Ownership afterward.
func (f *Function) AddParam(ty typepool.TypeIdx) VarId {
	v := f.FreshVar(ty)
	f.Params = append(f.Params, Param{Var: v, Type: ty, Ownership: Borrowed})
	return v
}

// NewBlock creates and appends a new, empty basic block.
func (f *Function) NewBlock() *Block {
	id := f.nextBlock
	f.nextBlock++
	b := &Block{id: id, fn: f}
	f.Blocks = append(f.Blocks, b)
	f.byID[id] = b
	if len(f.Blocks) == 1 {
		f.EntryBlock = id
	}
	return b
}

// InsertBlockAfter appends a new block without altering EntryBlock,
// regardless of how many blocks already exist — used by edge cleanup to
// splice in trampoline blocks (spec.md §4.7) after the function already has
// an entry.
func (f *Function) InsertBlockAfter(*Block) *Block {
	id := f.nextBlock
	f.nextBlock++
	b := &Block{id: id, fn: f}
	f.Blocks = append(f.Blocks, b)
	f.byID[id] = b
	return b
}

// Block looks up a basic block by id.
func (f *Function) Block(id BlockId) *Block {
	return f.byID[id]
}

// Entry returns the function's entry block.
func (f *Function) Entry() *Block {
	return f.byID[f.EntryBlock]
}

// SetSpan records the (possibly nil) source span for the instruction at
// position index within block.
func (f *Function) SetSpan(block BlockId, index int, span diagnostics.Span) {
	f.spans[spanKey{block, index}] = span
}

// Span looks up the span recorded for (block, index), if any.
func (f *Function) Span(block BlockId, index int) (diagnostics.Span, bool) {
	s, ok := f.spans[spanKey{block, index}]
	return s, ok
}

// RebuildSpans replaces the entire span side table for one block in
// lock-step with a freshly rebuilt instruction vector — every pass that
// rewrites block.Body (RC insertion, elimination, reset/reuse expansion)
// must call this instead of mutating spans piecemeal, per the design note
// in spec.md §9 ("side-table preservation").
func (f *Function) RebuildSpans(block BlockId, newSpans []diagnostics.Span) {
	for key := range f.spans {
		if key.Block == block {
			delete(f.spans, key)
		}
	}
	for i, s := range newSpans {
		if s != (diagnostics.Span{}) {
			f.spans[spanKey{block, i}] = s
		}
	}
}

// Block is an SSA basic block: ordered block parameters (phi-equivalent
// join semantics), an ordered instruction body, and exactly one terminator.
type Block struct {
	id     BlockId
	fn     *Function
	Params []BlockParam
	Body   []Instr
	Term   Terminator
}

// BlockParam is one join-point parameter of a block.
type BlockParam struct {
	Var  VarId
	Type typepool.TypeIdx
}

// ID returns the block's identity.
func (b *Block) ID() BlockId { return b.id }

// AddParam declares a new block parameter, allocating its VarId.
func (b *Block) AddParam(ty typepool.TypeIdx) VarId {
	v := b.fn.FreshVar(ty)
	b.Params = append(b.Params, BlockParam{Var: v, Type: ty})
	return v
}

// Emit appends instr to the block's body and returns its index.
func (b *Block) Emit(instr Instr) int {
	b.Body = append(b.Body, instr)
	return len(b.Body) - 1
}

// SetTerm sets the block's terminator. Overwrites any prior terminator —
// callers are responsible for only calling this once per block during
// normal lowering (invariant 4, spec.md §3).
func (b *Block) SetTerm(term Terminator) {
	b.Term = term
}
