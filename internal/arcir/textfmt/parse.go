// Package textfmt parses the textual ARC IR arcir.Print emits back into an
// arcir.Function, so a printed dump can round trip through a golden file
// (spec.md §8, testable property 9). It is a debugging aid, not a wire
// format: per-instruction destination types never appear in Print's output
// and so can't be recovered by Parse (see build's doc comment).
package textfmt

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/fatih/color"

	"ori/internal/arcir"
)

var parser = buildParser()

func buildParser() *participle.Parser[File] {
	p, err := participle.Build[File](
		participle.Lexer(arcLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.UseLookahead(4),
	)
	if err != nil {
		panic(fmt.Sprintf("textfmt: grammar failed to build: %s", err))
	}
	return p
}

// Parse reads src (as produced by arcir.Print) under the given name (used
// only for error messages) and reconstructs the function it describes.
func Parse(name, src string) (*arcir.Function, error) {
	file, err := parser.ParseString(name, src)
	if err != nil {
		reportParseError(src, err)
		return nil, err
	}
	return build(file)
}

func reportParseError(src string, err error) {
	pe, ok := err.(participle.Error)
	if !ok {
		color.Red("unexpected error: %s", err)
		return
	}
	pos := pe.Position()
	color.Red("syntax error in %s at line %d, column %d: %s", pos.Filename, pos.Line, pos.Column, pe.Message())
}
