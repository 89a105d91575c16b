package arcir

import (
	"fmt"
	"strings"
)

// Print renders fn as human-readable ARC IR text: a function signature
// followed by each block's parameters, body, and terminator. The format is
// intentionally close to the instruction String() forms so a reader can
// correlate a printed dump with a single Instr value while debugging a
// pass.
func Print(fn *Function) string {
	var b strings.Builder

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("v%d: %s (%s)", p.Var, p.Type, p.Ownership)
	}
	fmt.Fprintf(&b, "fn %s(%s) -> %s {\n", fn.Name, strings.Join(params, ", "), fn.ReturnType)

	for _, blk := range fn.Blocks {
		printBlock(&b, blk, fn.EntryBlock)
	}
	b.WriteString("}\n")
	return b.String()
}

func printBlock(b *strings.Builder, blk *Block, entry BlockId) {
	label := fmt.Sprintf("b%d", blk.id)
	if blk.id == entry {
		label += " (entry)"
	}
	if len(blk.Params) > 0 {
		parts := make([]string, len(blk.Params))
		for i, p := range blk.Params {
			parts[i] = fmt.Sprintf("v%d: %s", p.Var, p.Type)
		}
		fmt.Fprintf(b, "  %s(%s):\n", label, strings.Join(parts, ", "))
	} else {
		fmt.Fprintf(b, "  %s:\n", label)
	}

	for _, instr := range blk.Body {
		fmt.Fprintf(b, "    %s\n", instr.String())
	}

	if blk.Term != nil {
		fmt.Fprintf(b, "    %s\n", blk.Term.String())
	} else {
		b.WriteString("    <missing terminator>\n")
	}
}
