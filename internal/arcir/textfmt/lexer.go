package textfmt

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// arcLexer tokenizes the textual form arcir.Print emits. Rules are tried in
// order at each position, so the numbered-reference rules (VarRef, BlockRef,
// TypeRef) must precede Ident (which would otherwise swallow "v3" whole)
// and Float must precede Int for the same reason.
var arcLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Float", Pattern: `-?[0-9]+\.[0-9]+`},
	{Name: "VarRef", Pattern: `v[0-9]+`},
	{Name: "BlockRef", Pattern: `b[0-9]+`},
	{Name: "TypeRef", Pattern: `t(?:[0-9]+|\?)`},
	{Name: "Int", Pattern: `-?[0-9]+`},
	{Name: "String", Pattern: `"(?:\\.|[^"\\])*"`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*\??`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "DoubleColon", Pattern: `::`},
	{Name: "Punct", Pattern: `[(){}\[\],:.?=]`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})
