// Package markdown converts Markdown bodies into LaTeX commands written
// through a latex.Emitter.
package markdown

import (
	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Options controls how Markdown is mapped onto LaTeX.
type Options struct {
	// HeadingOffset shifts every heading level, so an offset of 1 renders
	// "#" as \subsection.
	HeadingOffset int
}

// ParseBody parses a Markdown body (frontmatter already removed) into a Goldmark AST.
func ParseBody(body []byte) gmast.Node {
	md := goldmark.New()
	return md.Parser().Parse(text.NewReader(body))
}
