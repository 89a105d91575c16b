package lowering

import (
	"strings"

	"ori/internal/arcir"
	"ori/internal/decision"
	"ori/internal/typepool"
)

// pathTypeCache records the static type of every ScrutineePath reached so
// far while lowering one match expression. TagPayload steps cannot be
// resolved generically (different enum variants place different types at
// the same payload index), so the Switch lowering seeds this cache with
// each variant's field types as it walks; every other step kind is
// resolved on demand from its parent's type.
type pathTypeCache struct {
	types map[string]typepool.TypeIdx
}

func newPathTypeCache(rootType typepool.TypeIdx) *pathTypeCache {
	c := &pathTypeCache{types: make(map[string]typepool.TypeIdx)}
	c.set(decision.ScrutineePath{}, rootType)
	return c
}

func pathKey(p decision.ScrutineePath) string {
	var sb strings.Builder
	for _, s := range p {
		sb.WriteString(s.String())
	}
	return sb.String()
}

func (c *pathTypeCache) set(p decision.ScrutineePath, ty typepool.TypeIdx) {
	c.types[pathKey(p)] = ty
}

func (c *pathTypeCache) get(p decision.ScrutineePath) (typepool.TypeIdx, bool) {
	ty, ok := c.types[pathKey(p)]
	return ty, ok
}

// typeAtPath resolves the static type of the value reachable at path,
// walking one step at a time from whatever prefix is already cached.
func (fb *funcBuilder) typeAtPath(cache *pathTypeCache, path decision.ScrutineePath) typepool.TypeIdx {
	if ty, ok := cache.get(path); ok {
		return ty
	}
	if len(path) == 0 {
		return typepool.NONE
	}
	parent := path[:len(path)-1]
	parentTy := fb.lw.pool.Resolve(fb.typeAtPath(cache, parent))
	step := path[len(path)-1]

	var ty typepool.TypeIdx
	switch step.Kind {
	case decision.TupleIndex:
		elems := fb.lw.pool.TupleElems(parentTy)
		if step.Index < len(elems) {
			ty = elems[step.Index]
		} else {
			ty = typepool.NONE
		}
	case decision.StructField:
		ty = typepool.NONE
		for _, f := range fb.lw.pool.StructFields(parentTy) {
			if f.Name == step.Name {
				ty = f.Type
				break
			}
		}
	case decision.ListElement:
		ty = fb.lw.pool.ListElem(parentTy)
	case decision.TagPayload:
		// Not reachable under correct use: the enclosing Switch lowering
		// seeds every TagPayload child before recursing into it.
		ty = typepool.NONE
	default:
		ty = typepool.NONE
	}
	cache.set(path, ty)
	return ty
}

// resolveVar walks path from rootVar, emitting one Project per step into
// cur, and returns the final variable. Projections are pure, so re-emitting
// an already-computed prefix in a sibling block costs an extra instruction
// but never changes program semantics; RC elimination and later passes
// don't need them deduplicated.
func (fb *funcBuilder) resolveVar(cur *arcir.Block, cache *pathTypeCache, rootVar arcir.VarId, path decision.ScrutineePath) arcir.VarId {
	v := rootVar
	for i := 1; i <= len(path); i++ {
		prefix := path[:i]
		step := path[i-1]
		ty := fb.typeAtPath(cache, prefix)
		dst := fb.fn.FreshVar(ty)

		var proj arcir.ProjKind
		switch step.Kind {
		case decision.TupleIndex:
			proj = arcir.ProjKind{Kind: arcir.TupleIndexProj, Index: step.Index}
		case decision.StructField:
			proj = arcir.ProjKind{Kind: arcir.StructFieldProj, Name: step.Name}
		case decision.ListElement:
			proj = arcir.ProjKind{Kind: arcir.ListElementProj, Index: step.Index}
		case decision.TagPayload:
			proj = arcir.ProjKind{Kind: arcir.EnumPayloadProj, Index: step.Index}
		}
		cur.Emit(arcir.Project{Dst: dst, Value: v, Proj: proj})
		v = dst
	}
	return v
}
