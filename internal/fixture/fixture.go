// Package fixture decodes the JSON stand-in for a real front end: a type
// pool plus a set of typed functions, in the shape both cmd/arc-compile and
// cmd/arc-lsp read in place of "whatever the real type checker emits"
// (spec.md §6 treats the type pool and typed AST as externally produced).
package fixture

import (
	"encoding/json"
	"fmt"

	"ori/internal/typedast"
	"ori/internal/typepool"
)

// fixture is the on-disk JSON shape: a type pool (in definition order, so
// later entries can reference earlier ones by position) plus the functions
// to compile.
type fixture struct {
	Types     []typeDef     `json:"types"`
	Functions []functionDef `json:"functions"`
}

type typeDef struct {
	Kind  string `json:"kind"`
	Name  string `json:"name"`
	Size  uint64 `json:"size"`
	Align uint64 `json:"align"`

	Tag string `json:"tag"` // scalar: one of typepool.Tag's names

	Fields   []fieldDef   `json:"fields,omitempty"`   // struct
	Variants []variantDef `json:"variants,omitempty"` // enum
	Elems    []int        `json:"elems,omitempty"`    // tuple

	Elem   *int `json:"elem,omitempty"`   // list/set/channel/range
	Key    *int `json:"key,omitempty"`    // map
	Value  *int `json:"value,omitempty"`  // map
	Inner  *int `json:"inner,omitempty"`  // option
	Ok     *int `json:"ok,omitempty"`     // result
	Err    *int `json:"err,omitempty"`    // result
	Target *int `json:"target,omitempty"` // named/alias

	Params []int `json:"params,omitempty"` // function
	Ret    *int  `json:"ret,omitempty"`    // function
}

type fieldDef struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

type variantDef struct {
	Name   string     `json:"name"`
	Tag    int64      `json:"tag"`
	Fields []fieldDef `json:"fields"`
}

type functionDef struct {
	Name       string     `json:"name"`
	Params     []paramDef `json:"params"`
	ReturnType int        `json:"returnType"`
	Body       exprDef    `json:"body"`
}

type paramDef struct {
	Name string `json:"name"`
	Type int    `json:"type"`
}

// exprDef mirrors typedast.Expr with a "kind" discriminator; every concrete
// shape's fields live side by side and the unused ones are left zero.
type exprDef struct {
	Kind string `json:"kind"`
	Type int    `json:"type"`

	Name  string  `json:"name,omitempty"` // Ident, Field, Call, Closure, Construct, Let
	Value *int64  `json:"value,omitempty"`
	FVal  float64 `json:"fvalue,omitempty"`
	BVal  bool    `json:"bvalue,omitempty"`
	SVal  string  `json:"svalue,omitempty"`

	Op       string    `json:"op,omitempty"`
	Args     []exprDef `json:"args,omitempty"`
	Receiver *exprDef  `json:"receiver,omitempty"`
	Index    int       `json:"index,omitempty"`
	Closure  *exprDef  `json:"closure,omitempty"`
	Captures []exprDef `json:"captures,omitempty"`
	Ctor     string    `json:"ctor,omitempty"`
	ValueE   *exprDef  `json:"valueExpr,omitempty"` // Let's bound value, Break's value, Try's value
	Body     *exprDef  `json:"body,omitempty"`
	Cond     *exprDef  `json:"cond,omitempty"`
	Then     *exprDef  `json:"then,omitempty"`
	Else     *exprDef  `json:"else,omitempty"`
	Scrut    *exprDef  `json:"scrutinee,omitempty"`
	Arms     []armDef  `json:"arms,omitempty"`
	Exprs    []exprDef `json:"exprs,omitempty"`
}

type armDef struct {
	Pattern patternDef `json:"pattern"`
	Guard   *exprDef   `json:"guard,omitempty"`
	Body    exprDef    `json:"body"`
}

type patternDef struct {
	Kind string `json:"kind"`

	Name  string      `json:"name,omitempty"` // Bind
	Inner *patternDef `json:"inner,omitempty"`

	IVal int64   `json:"ivalue,omitempty"`
	FVal float64 `json:"fvalue,omitempty"`
	BVal bool    `json:"bvalue,omitempty"`
	SVal string  `json:"svalue,omitempty"`

	Type   int          `json:"type,omitempty"`
	Ctor   string       `json:"ctor,omitempty"`
	Tag    int64        `json:"tag,omitempty"`
	Fields []patternDef `json:"fields,omitempty"`
	Elems  []patternDef `json:"elems,omitempty"`

	Head    []patternDef `json:"head,omitempty"`
	HasTail bool         `json:"hasTail,omitempty"`
	Tail    *patternDef  `json:"tail,omitempty"`

	Alternatives []patternDef `json:"alternatives,omitempty"`
}

// Load parses raw JSON into a type pool and the functions to compile.
func Load(raw []byte) (*typepool.FakePool, []*typedast.Function, error) {
	var f fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, nil, fmt.Errorf("decoding fixture: %w", err)
	}

	pool := typepool.NewFakePool()
	idx := make([]typepool.TypeIdx, len(f.Types))
	resolve := func(i int) typepool.TypeIdx { return idx[i] }

	for i, td := range f.Types {
		layout := typepool.Layout{Size: td.Size, Align: td.Align}
		switch td.Kind {
		case "scalar":
			idx[i] = pool.DefineScalar(td.Name, scalarTag(td.Tag), layout)
		case "str":
			idx[i] = pool.DefineStr(td.Name, layout)
		case "struct":
			idx[i] = pool.DefineStruct(td.Name, resolveFields(td.Fields, resolve), layout)
		case "enum":
			variants := make([]typepool.Variant, len(td.Variants))
			for j, v := range td.Variants {
				variants[j] = typepool.Variant{Name: v.Name, Tag: v.Tag, Fields: resolveFields(v.Fields, resolve)}
			}
			idx[i] = pool.DefineEnum(td.Name, variants, layout)
		case "tuple":
			elems := make([]typepool.TypeIdx, len(td.Elems))
			for j, e := range td.Elems {
				elems[j] = resolve(e)
			}
			idx[i] = pool.DefineTuple(td.Name, elems, layout)
		case "list":
			idx[i] = pool.DefineList(td.Name, resolve(*td.Elem), layout)
		case "set":
			idx[i] = pool.DefineSet(td.Name, resolve(*td.Elem), layout)
		case "map":
			idx[i] = pool.DefineMap(td.Name, resolve(*td.Key), resolve(*td.Value), layout)
		case "channel":
			idx[i] = pool.DefineChannel(td.Name, resolve(*td.Elem), layout)
		case "range":
			idx[i] = pool.DefineRange(td.Name, resolve(*td.Elem), layout)
		case "option":
			idx[i] = pool.DefineOption(td.Name, resolve(*td.Inner), layout)
		case "result":
			idx[i] = pool.DefineResult(td.Name, resolve(*td.Ok), resolve(*td.Err), layout)
		case "function":
			params := make([]typepool.TypeIdx, len(td.Params))
			for j, p := range td.Params {
				params[j] = resolve(p)
			}
			idx[i] = pool.DefineFunction(td.Name, params, resolve(*td.Ret), layout)
		case "named":
			idx[i] = pool.DefineNamed(td.Name, resolve(*td.Target))
		case "alias":
			idx[i] = pool.DefineAlias(td.Name, resolve(*td.Target))
		default:
			return nil, nil, fmt.Errorf("type %d (%s): unknown kind %q", i, td.Name, td.Kind)
		}
	}

	fns := make([]*typedast.Function, len(f.Functions))
	for i, fd := range f.Functions {
		params := make([]typedast.Param, len(fd.Params))
		for j, p := range fd.Params {
			params[j] = typedast.Param{Name: p.Name, Type: resolve(p.Type)}
		}
		body, err := buildExpr(fd.Body, resolve)
		if err != nil {
			return nil, nil, fmt.Errorf("function %q: %w", fd.Name, err)
		}
		fns[i] = &typedast.Function{
			Name:       fd.Name,
			Params:     params,
			ReturnType: resolve(fd.ReturnType),
			Body:       body,
		}
	}

	return pool, fns, nil
}

func resolveFields(fields []fieldDef, resolve func(int) typepool.TypeIdx) []typepool.Field {
	out := make([]typepool.Field, len(fields))
	for i, f := range fields {
		out[i] = typepool.Field{Name: f.Name, Type: resolve(f.Type)}
	}
	return out
}

func scalarTag(name string) typepool.Tag {
	switch name {
	case "Int":
		return typepool.TagInt
	case "Float":
		return typepool.TagFloat
	case "Bool":
		return typepool.TagBool
	case "Char":
		return typepool.TagChar
	case "Byte":
		return typepool.TagByte
	case "Unit":
		return typepool.TagUnit
	default:
		return typepool.TagInt
	}
}

func buildExpr(e exprDef, resolve func(int) typepool.TypeIdx) (typedast.Expr, error) {
	base := typedast.ExprBase{Ty: resolve(e.Type)}

	buildMany := func(es []exprDef) ([]typedast.Expr, error) {
		out := make([]typedast.Expr, len(es))
		for i, sub := range es {
			built, err := buildExpr(sub, resolve)
			if err != nil {
				return nil, err
			}
			out[i] = built
		}
		return out, nil
	}

	switch e.Kind {
	case "ident":
		return typedast.Ident{ExprBase: base, Name: e.Name}, nil
	case "int":
		v := int64(0)
		if e.Value != nil {
			v = *e.Value
		}
		return typedast.IntLit{ExprBase: base, Value: v}, nil
	case "float":
		return typedast.FloatLit{ExprBase: base, Value: e.FVal}, nil
	case "bool":
		return typedast.BoolLit{ExprBase: base, Value: e.BVal}, nil
	case "str":
		return typedast.StrLit{ExprBase: base, Value: e.SVal}, nil
	case "unit":
		return typedast.UnitLit{ExprBase: base}, nil
	case "primop":
		args, err := buildMany(e.Args)
		if err != nil {
			return nil, err
		}
		return typedast.PrimOp{ExprBase: base, Op: e.Op, Args: args}, nil
	case "field":
		recv, err := buildExpr(*e.Receiver, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.Field{ExprBase: base, Receiver: recv, Name: e.Name}, nil
	case "tupleIndex":
		recv, err := buildExpr(*e.Receiver, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.TupleIndex{ExprBase: base, Receiver: recv, Index: e.Index}, nil
	case "call":
		args, err := buildMany(e.Args)
		if err != nil {
			return nil, err
		}
		return typedast.Call{ExprBase: base, Function: e.Name, Args: args}, nil
	case "callIndirect":
		closure, err := buildExpr(*e.Closure, resolve)
		if err != nil {
			return nil, err
		}
		args, err := buildMany(e.Args)
		if err != nil {
			return nil, err
		}
		return typedast.CallIndirect{ExprBase: base, Closure: closure, Args: args}, nil
	case "closure":
		captures, err := buildMany(e.Captures)
		if err != nil {
			return nil, err
		}
		return typedast.Closure{ExprBase: base, Function: e.Name, Captures: captures}, nil
	case "construct":
		args, err := buildMany(e.Args)
		if err != nil {
			return nil, err
		}
		return typedast.Construct{ExprBase: base, Ctor: e.Ctor, Args: args}, nil
	case "let":
		value, err := buildExpr(*e.ValueE, resolve)
		if err != nil {
			return nil, err
		}
		body, err := buildExpr(*e.Body, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.Let{ExprBase: base, Name: e.Name, Value: value, Body: body}, nil
	case "if":
		cond, err := buildExpr(*e.Cond, resolve)
		if err != nil {
			return nil, err
		}
		then, err := buildExpr(*e.Then, resolve)
		if err != nil {
			return nil, err
		}
		els, err := buildExpr(*e.Else, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.If{ExprBase: base, Cond: cond, Then: then, Else: els}, nil
	case "match":
		scrut, err := buildExpr(*e.Scrut, resolve)
		if err != nil {
			return nil, err
		}
		arms := make([]typedast.MatchArm, len(e.Arms))
		for i, a := range e.Arms {
			pat, err := buildPattern(a.Pattern, resolve)
			if err != nil {
				return nil, err
			}
			var guard typedast.Expr
			if a.Guard != nil {
				guard, err = buildExpr(*a.Guard, resolve)
				if err != nil {
					return nil, err
				}
			}
			armBody, err := buildExpr(a.Body, resolve)
			if err != nil {
				return nil, err
			}
			arms[i] = typedast.MatchArm{Pattern: pat, Guard: guard, Body: armBody}
		}
		return typedast.Match{ExprBase: base, Scrutinee: scrut, Arms: arms}, nil
	case "loop":
		body, err := buildExpr(*e.Body, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.Loop{ExprBase: base, Body: body}, nil
	case "break":
		if e.ValueE == nil {
			return typedast.Break{ExprBase: base}, nil
		}
		val, err := buildExpr(*e.ValueE, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.Break{ExprBase: base, Value: val}, nil
	case "continue":
		return typedast.Continue{ExprBase: base}, nil
	case "try":
		val, err := buildExpr(*e.ValueE, resolve)
		if err != nil {
			return nil, err
		}
		return typedast.Try{ExprBase: base, Value: val}, nil
	case "sequence":
		exprs, err := buildMany(e.Exprs)
		if err != nil {
			return nil, err
		}
		return typedast.Sequence{ExprBase: base, Exprs: exprs}, nil
	default:
		return nil, fmt.Errorf("unknown expression kind %q", e.Kind)
	}
}

func buildPattern(p patternDef, resolve func(int) typepool.TypeIdx) (typedast.Pattern, error) {
	switch p.Kind {
	case "wildcard":
		return typedast.WildcardPattern{}, nil
	case "bind":
		var inner typedast.Pattern
		if p.Inner != nil {
			built, err := buildPattern(*p.Inner, resolve)
			if err != nil {
				return nil, err
			}
			inner = built
		}
		return typedast.BindPattern{Name: p.Name, Inner: inner}, nil
	case "litInt":
		return typedast.LitIntPattern{Value: p.IVal}, nil
	case "litFloat":
		return typedast.LitFloatPattern{Value: p.FVal}, nil
	case "litBool":
		return typedast.LitBoolPattern{Value: p.BVal}, nil
	case "litStr":
		return typedast.LitStrPattern{Value: p.SVal}, nil
	case "ctor":
		fields := make([]typedast.Pattern, len(p.Fields))
		for i, f := range p.Fields {
			built, err := buildPattern(f, resolve)
			if err != nil {
				return nil, err
			}
			fields[i] = built
		}
		return typedast.CtorPattern{Type: resolve(p.Type), Ctor: p.Ctor, Tag: p.Tag, Fields: fields}, nil
	case "tuple":
		elems := make([]typedast.Pattern, len(p.Elems))
		for i, e := range p.Elems {
			built, err := buildPattern(e, resolve)
			if err != nil {
				return nil, err
			}
			elems[i] = built
		}
		return typedast.TuplePattern{Elems: elems}, nil
	case "list":
		head := make([]typedast.Pattern, len(p.Head))
		for i, h := range p.Head {
			built, err := buildPattern(h, resolve)
			if err != nil {
				return nil, err
			}
			head[i] = built
		}
		var tail typedast.Pattern
		if p.Tail != nil {
			built, err := buildPattern(*p.Tail, resolve)
			if err != nil {
				return nil, err
			}
			tail = built
		}
		return typedast.ListPattern{Head: head, HasTail: p.HasTail, Tail: tail}, nil
	case "or":
		alts := make([]typedast.Pattern, len(p.Alternatives))
		for i, a := range p.Alternatives {
			built, err := buildPattern(a, resolve)
			if err != nil {
				return nil, err
			}
			alts[i] = built
		}
		return typedast.OrPattern{Alternatives: alts}, nil
	default:
		return nil, fmt.Errorf("unknown pattern kind %q", p.Kind)
	}
}
