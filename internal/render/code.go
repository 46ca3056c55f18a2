package render

import (
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	"github.com/gomarkdown/markdown/parser"
)

// CodeSpan is a piece of code found in a markdown document.
type CodeSpan struct {
	Text     string
	Block    bool   // fenced or indented block; false for inline code
	Language string // info string of a fenced block, if any
}

// ExtractCode returns the code blocks and inline code spans of a document in
// document order.
func ExtractCode(source string) []CodeSpan {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := markdown.Parse([]byte(source), p)

	var spans []CodeSpan
	ast.WalkFunc(doc, func(node ast.Node, entering bool) ast.WalkStatus {
		if !entering {
			return ast.GoToNext
		}
		switch n := node.(type) {
		case *ast.CodeBlock:
			language := ""
			if fields := strings.Fields(string(n.Info)); len(fields) > 0 {
				language = fields[0]
			}
			spans = append(spans, CodeSpan{
				Text:     strings.TrimRight(string(n.Literal), "\n"),
				Block:    true,
				Language: language,
			})
		case *ast.Code:
			spans = append(spans, CodeSpan{Text: string(n.Literal)})
		}
		return ast.GoToNext
	})
	return spans
}

// LastBlock returns the last code block in spans, falling back to the last inline span.
func LastBlock(spans []CodeSpan) (CodeSpan, bool) {
	for i := len(spans) - 1; i >= 0; i-- {
		if spans[i].Block {
			return spans[i], true
		}
	}
	if len(spans) > 0 {
		return spans[len(spans)-1], true
	}
	return CodeSpan{}, false
}
