package textfmt

import (
	"fmt"
	"strconv"

	"ori/internal/arcir"
	"ori/internal/typepool"
)

func parseVar(s string) arcir.VarId {
	n, _ := strconv.Atoi(s[1:])
	return arcir.VarId(n)
}

func parseBlock(s string) arcir.BlockId {
	n, _ := strconv.Atoi(s[1:])
	return arcir.BlockId(n)
}

func parseType(s string) typepool.TypeIdx {
	if s == "t?" {
		return typepool.NONE
	}
	n, _ := strconv.Atoi(s[1:])
	return typepool.TypeIdx(n)
}

func parseVars(ss []string) []arcir.VarId {
	out := make([]arcir.VarId, len(ss))
	for i, s := range ss {
		out[i] = parseVar(s)
	}
	return out
}

func parseOwnership(s string) (arcir.Ownership, error) {
	switch s {
	case "borrowed":
		return arcir.Borrowed, nil
	case "owned":
		return arcir.Owned, nil
	default:
		return 0, fmt.Errorf("unknown parameter ownership %q", s)
	}
}

// build reconstructs an arcir.Function from a parsed File. Per-instruction
// destination types never appear in arcir.Print's output, so they can't be
// recovered here — every such variable is registered with typepool.NONE.
// Only function parameters and block parameters carry their original type
// through the round trip.
func build(file *File) (*arcir.Function, error) {
	fn := file.Func
	out := arcir.NewFunction(fn.Name, parseType(fn.Ret))

	for _, pn := range fn.Params {
		v := parseVar(pn.Var)
		ty := parseType(pn.Type)
		own, err := parseOwnership(pn.Owned)
		if err != nil {
			return nil, err
		}
		out.DefineVar(v, ty)
		out.Params = append(out.Params, arcir.Param{Var: v, Type: ty, Ownership: own})
	}

	blocks := make([]*arcir.Block, len(fn.Blocks))
	for i, bn := range fn.Blocks {
		blk := out.NewBlock()
		if blk.ID() != parseBlock(bn.ID) {
			return nil, fmt.Errorf("block %s printed out of creation order (reconstructed as b%d)", bn.ID, blk.ID())
		}
		blocks[i] = blk
	}

	for i, bn := range fn.Blocks {
		blk := blocks[i]
		for _, bp := range bn.Params {
			v := parseVar(bp.Var)
			ty := parseType(bp.Type)
			out.DefineVar(v, ty)
			blk.Params = append(blk.Params, arcir.BlockParam{Var: v, Type: ty})
		}

		for _, in := range bn.Instrs {
			instr, err := buildInstr(in)
			if err != nil {
				return nil, fmt.Errorf("block %s: %w", bn.ID, err)
			}
			if dst, ok := instr.Result(); ok {
				out.DefineVar(dst, typepool.NONE)
			}
			blk.Body = append(blk.Body, instr)
		}

		term, err := buildTerm(bn.Term)
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", bn.ID, err)
		}
		blk.Term = term
	}

	return out, nil
}

func buildProj(p *ProjNode) (arcir.ProjKind, error) {
	switch {
	case p.Payload != nil:
		return arcir.ProjKind{Kind: arcir.EnumPayloadProj, Index: *p.Payload}, nil
	case p.Tuple != nil:
		return arcir.ProjKind{Kind: arcir.TupleIndexProj, Index: *p.Tuple}, nil
	case p.Field != nil:
		return arcir.ProjKind{Kind: arcir.StructFieldProj, Name: *p.Field}, nil
	case p.Elem != nil:
		return arcir.ProjKind{Kind: arcir.ListElementProj, Index: *p.Elem}, nil
	default:
		return arcir.ProjKind{}, fmt.Errorf("empty projection")
	}
}

func buildInstr(in *InstrNode) (arcir.Instr, error) {
	switch {
	case in.SetTag != nil:
		return arcir.SetTag{Base: parseVar(in.SetTag.Base), Tag: in.SetTag.Tag}, nil

	case in.Set != nil:
		proj, err := buildProj(in.Set.Proj)
		if err != nil {
			return nil, err
		}
		return arcir.Set{Base: parseVar(in.Set.Base), Field: proj, Value: parseVar(in.Set.Value)}, nil

	case in.Inc != nil:
		return arcir.RcInc{Var: parseVar(in.Inc.Var), Count: in.Inc.Count}, nil

	case in.Dec != nil:
		return arcir.RcDec{Var: parseVar(in.Dec.Var)}, nil

	case in.Assign != nil:
		return buildAssign(in.Assign)

	default:
		return nil, fmt.Errorf("empty instruction")
	}
}

func buildAssign(a *AssignNode) (arcir.Instr, error) {
	dst := parseVar(a.Dst)
	r := a.Value

	switch {
	case r.IntLit != nil:
		return arcir.Let{Dst: dst, Value: arcir.IntLit{Value: r.IntLit.Value}}, nil
	case r.FloatLit != nil:
		return arcir.Let{Dst: dst, Value: arcir.FloatLit{Value: r.FloatLit.Value}}, nil
	case r.BoolLit != nil:
		return arcir.Let{Dst: dst, Value: arcir.BoolLit{Value: r.BoolLit.Raw == "true"}}, nil
	case r.StrLit != nil:
		unquoted, err := strconv.Unquote(r.StrLit.Value)
		if err != nil {
			return nil, fmt.Errorf("v%d: %w", dst, err)
		}
		return arcir.Let{Dst: dst, Value: arcir.StrLit{Value: unquoted}}, nil
	case r.UnitLit != nil:
		return arcir.Let{Dst: dst, Value: arcir.UnitLit{}}, nil
	case r.Shared != nil:
		return arcir.IsShared{Dst: dst, Var: parseVar(r.Shared.Var)}, nil
	case r.Call != nil:
		return arcir.Apply{Dst: dst, Function: r.Call.Function, Args: parseVars(r.Call.Args)}, nil
	case r.CallInd != nil:
		return arcir.ApplyIndirect{Dst: dst, Closure: parseVar(r.CallInd.Closure), Args: parseVars(r.CallInd.Args)}, nil
	case r.Closure != nil:
		return arcir.PartialApply{Dst: dst, Function: r.Closure.Function, Args: parseVars(r.Closure.Args)}, nil
	case r.Construct != nil:
		return arcir.Construct{Dst: dst, Type: parseType(r.Construct.Type), Ctor: r.Construct.Ctor, Args: parseVars(r.Construct.Args)}, nil
	case r.Reset != nil:
		return arcir.Reset{Token: dst, Var: parseVar(r.Reset.Var)}, nil
	case r.Reuse != nil:
		return arcir.Reuse{Dst: dst, Token: parseVar(r.Reuse.Token), Type: parseType(r.Reuse.Type), Ctor: r.Reuse.Ctor, Args: parseVars(r.Reuse.Args)}, nil
	case r.Project != nil:
		proj, err := buildProj(r.Project.Proj)
		if err != nil {
			return nil, err
		}
		return arcir.Project{Dst: dst, Value: parseVar(r.Project.Base), Proj: proj}, nil
	case r.VarAlias != nil:
		return arcir.Let{Dst: dst, Value: arcir.VarRef{Var: parseVar(r.VarAlias.Var)}}, nil
	case r.PrimOp != nil:
		return arcir.Let{Dst: dst, Value: arcir.PrimOp{Op: r.PrimOp.Op, Args: parseVars(r.PrimOp.Args)}}, nil
	default:
		return nil, fmt.Errorf("v%d: empty assignment right-hand side", dst)
	}
}

func buildTerm(t *TermNode) (arcir.Terminator, error) {
	switch {
	case t.Return != nil:
		if t.Return.Value == nil {
			return arcir.Return{Void: true}, nil
		}
		return arcir.Return{Value: parseVar(*t.Return.Value)}, nil

	case t.Jump != nil:
		return arcir.Jump{Target: parseBlock(t.Jump.Target), Args: parseVars(t.Jump.Args)}, nil

	case t.Branch != nil:
		return arcir.Branch{Cond: parseVar(t.Branch.Cond), Then: parseBlock(t.Branch.Then), Else: parseBlock(t.Branch.Else)}, nil

	case t.Switch != nil:
		cases := make([]arcir.SwitchCase, len(t.Switch.Cases))
		for i, c := range t.Switch.Cases {
			cases[i] = arcir.SwitchCase{Tag: c.Tag, Target: parseBlock(c.Target)}
		}
		sw := arcir.Switch{Scrutinee: parseVar(t.Switch.Scrutinee), Cases: cases}
		if t.Switch.Default != nil {
			sw.HasDefault = true
			sw.Default = parseBlock(*t.Switch.Default)
		}
		return sw, nil

	case t.Unreachable != nil:
		return arcir.Unreachable{}, nil

	default:
		return nil, fmt.Errorf("missing terminator")
	}
}
