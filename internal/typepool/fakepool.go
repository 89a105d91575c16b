package typepool

// FakePool is an in-memory, builder-style Pool used by this core's own test
// suites to stand in for the real type checker's pool. It is not part of the
// production interface surface — production code only ever depends on Pool.
type FakePool struct {
	tags     map[TypeIdx]Tag
	resolve  map[TypeIdx]TypeIdx
	layouts  map[TypeIdx]Layout
	fields   map[TypeIdx][]Field
	variants map[TypeIdx][]Variant
	tuples   map[TypeIdx][]TypeIdx
	listElem map[TypeIdx]TypeIdx
	mapKV    map[TypeIdx][2]TypeIdx
	setElem  map[TypeIdx]TypeIdx
	optInner map[TypeIdx]TypeIdx
	resOkErr map[TypeIdx][2]TypeIdx
	rangeEl  map[TypeIdx]TypeIdx
	fnSig    map[TypeIdx]fnSig
	chanElem map[TypeIdx]TypeIdx
	names    map[TypeIdx]string
	next     TypeIdx
}

type fnSig struct {
	params []TypeIdx
	ret    TypeIdx
}

// NewFakePool returns an empty pool ready for Define* calls.
func NewFakePool() *FakePool {
	return &FakePool{
		tags:     make(map[TypeIdx]Tag),
		resolve:  make(map[TypeIdx]TypeIdx),
		layouts:  make(map[TypeIdx]Layout),
		fields:   make(map[TypeIdx][]Field),
		variants: make(map[TypeIdx][]Variant),
		tuples:   make(map[TypeIdx][]TypeIdx),
		listElem: make(map[TypeIdx]TypeIdx),
		mapKV:    make(map[TypeIdx][2]TypeIdx),
		setElem:  make(map[TypeIdx]TypeIdx),
		optInner: make(map[TypeIdx]TypeIdx),
		resOkErr: make(map[TypeIdx][2]TypeIdx),
		rangeEl:  make(map[TypeIdx]TypeIdx),
		fnSig:    make(map[TypeIdx]fnSig),
		chanElem: make(map[TypeIdx]TypeIdx),
		names:    make(map[TypeIdx]string),
	}
}

func (p *FakePool) alloc(name string, tag Tag, layout Layout) TypeIdx {
	idx := p.next
	p.next++
	p.tags[idx] = tag
	p.resolve[idx] = idx
	p.layouts[idx] = layout
	p.names[idx] = name
	return idx
}

// DefineScalar registers a primitive scalar type (int, float, bool, ...).
func (p *FakePool) DefineScalar(name string, tag Tag, layout Layout) TypeIdx {
	return p.alloc(name, tag, layout)
}

// DefineStr/List/Map/Set/Channel/Function register the always-DefiniteRef
// container/closure kinds.
func (p *FakePool) DefineStr(name string, layout Layout) TypeIdx {
	return p.alloc(name, TagStr, layout)
}

func (p *FakePool) DefineList(name string, elem TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagList, layout)
	p.listElem[idx] = elem
	return idx
}

func (p *FakePool) DefineMap(name string, key, value TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagMap, layout)
	p.mapKV[idx] = [2]TypeIdx{key, value}
	return idx
}

func (p *FakePool) DefineSet(name string, elem TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagSet, layout)
	p.setElem[idx] = elem
	return idx
}

func (p *FakePool) DefineChannel(name string, elem TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagChannel, layout)
	p.chanElem[idx] = elem
	return idx
}

func (p *FakePool) DefineFunction(name string, params []TypeIdx, ret TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagFunction, layout)
	p.fnSig[idx] = fnSig{params: params, ret: ret}
	return idx
}

// DefineStruct registers a struct type with its ordered fields.
func (p *FakePool) DefineStruct(name string, fields []Field, layout Layout) TypeIdx {
	idx := p.alloc(name, TagStruct, layout)
	p.fields[idx] = fields
	return idx
}

// DefineEnum registers an enum type with its ordered variants.
func (p *FakePool) DefineEnum(name string, variants []Variant, layout Layout) TypeIdx {
	idx := p.alloc(name, TagEnum, layout)
	p.variants[idx] = variants
	return idx
}

// DefineTuple registers a tuple type.
func (p *FakePool) DefineTuple(name string, elems []TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagTuple, layout)
	p.tuples[idx] = elems
	return idx
}

// DefineOption registers Option[T].
func (p *FakePool) DefineOption(name string, inner TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagOption, layout)
	p.optInner[idx] = inner
	return idx
}

// DefineResult registers Result[T, E].
func (p *FakePool) DefineResult(name string, ok, err TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagResult, layout)
	p.resOkErr[idx] = [2]TypeIdx{ok, err}
	return idx
}

// DefineRange registers Range[T] (T is fixed to int at 0.1-alpha).
func (p *FakePool) DefineRange(name string, elem TypeIdx, layout Layout) TypeIdx {
	idx := p.alloc(name, TagRange, layout)
	p.rangeEl[idx] = elem
	return idx
}

// DefineNamed/DefineAlias register transparent indirections to idx.
func (p *FakePool) DefineNamed(name string, target TypeIdx) TypeIdx {
	idx := p.alloc(name, TagNamed, p.layouts[target])
	p.resolve[idx] = p.Resolve(target)
	return idx
}

func (p *FakePool) DefineAlias(name string, target TypeIdx) TypeIdx {
	idx := p.alloc(name, TagAlias, p.layouts[target])
	p.resolve[idx] = p.Resolve(target)
	return idx
}

// DefineAbstract registers one of the pre-monomorphization kinds, useful for
// exercising the classifier's safety-net path.
func (p *FakePool) DefineAbstract(name string, tag Tag) TypeIdx {
	return p.alloc(name, tag, Layout{})
}

func (p *FakePool) Tag(idx TypeIdx) Tag { return p.tags[idx] }

func (p *FakePool) Resolve(idx TypeIdx) TypeIdx {
	seen := map[TypeIdx]bool{}
	for {
		if seen[idx] {
			return idx // cyclic Named/Alias chain; bail out rather than loop forever
		}
		seen[idx] = true
		next, ok := p.resolve[idx]
		if !ok || next == idx {
			return idx
		}
		idx = next
	}
}

func (p *FakePool) Layout(idx TypeIdx) Layout             { return p.layouts[idx] }
func (p *FakePool) StructFields(idx TypeIdx) []Field      { return p.fields[idx] }
func (p *FakePool) EnumVariants(idx TypeIdx) []Variant    { return p.variants[idx] }
func (p *FakePool) TupleElems(idx TypeIdx) []TypeIdx      { return p.tuples[idx] }
func (p *FakePool) ListElem(idx TypeIdx) TypeIdx          { return p.listElem[idx] }
func (p *FakePool) SetElem(idx TypeIdx) TypeIdx           { return p.setElem[idx] }
func (p *FakePool) OptionInner(idx TypeIdx) TypeIdx       { return p.optInner[idx] }
func (p *FakePool) RangeElem(idx TypeIdx) TypeIdx         { return p.rangeEl[idx] }
func (p *FakePool) ChannelElem(idx TypeIdx) TypeIdx       { return p.chanElem[idx] }
func (p *FakePool) Name(idx TypeIdx) string               { return p.names[idx] }

func (p *FakePool) MapKeyValue(idx TypeIdx) (TypeIdx, TypeIdx) {
	kv := p.mapKV[idx]
	return kv[0], kv[1]
}

func (p *FakePool) ResultOkErr(idx TypeIdx) (TypeIdx, TypeIdx) {
	oe := p.resOkErr[idx]
	return oe[0], oe[1]
}

func (p *FakePool) FunctionSignature(idx TypeIdx) ([]TypeIdx, TypeIdx) {
	sig := p.fnSig[idx]
	return sig.params, sig.ret
}
