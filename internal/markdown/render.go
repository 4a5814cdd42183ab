package markdown

import (
	"fmt"
	"strings"

	gmast "github.com/yuin/goldmark/ast"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/texdoc/internal/latex"
)

// Fenced code blocks with these info strings are passed through instead of
// being set verbatim.
const (
	langLaTeX = "latex"
	langTeX   = "tex"
	langMath  = "math"
)

var hrefEscaper = strings.NewReplacer(`%`, `\%`, `#`, `\#`)

// Render writes body as LaTeX to e. Text is NFC-normalized and escaped;
// fenced latex/tex blocks are copied raw and math blocks become display math.
func Render(body []byte, e *latex.Emitter, opts Options) error {
	r := &renderer{src: body, e: e, opts: opts}
	if err := r.blocks(ParseBody(body)); err != nil {
		return err
	}
	return e.Err()
}

type renderer struct {
	src  []byte
	e    *latex.Emitter
	opts Options
}

func (r *renderer) blocks(parent gmast.Node) error {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if err := r.block(n); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) block(n gmast.Node) error {
	switch node := n.(type) {
	case *gmast.Heading:
		title, err := r.inline(node)
		if err != nil {
			return err
		}
		r.heading(node.Level+r.opts.HeadingOffset, title)

	case *gmast.Paragraph:
		t, err := r.inline(node)
		if err != nil {
			return err
		}
		r.e.Write(t)
		r.e.Write("")

	case *gmast.TextBlock:
		t, err := r.inline(node)
		if err != nil {
			return err
		}
		r.e.Write(t)

	case *gmast.ThematicBreak:
		r.e.ClearPage()

	case *gmast.Blockquote:
		r.e.Begin("quote")
		if err := r.blocks(node); err != nil {
			return err
		}
		r.e.End("quote")

	case *gmast.List:
		return r.list(node)

	case *gmast.FencedCodeBlock:
		r.fenced(node)

	case *gmast.CodeBlock:
		r.e.Environment("verbatim", r.lines(node)...)

	case *gmast.HTMLBlock:
		raw := strings.Join(r.lines(node), "\n")
		if node.HasClosure() {
			raw += "\n" + string(node.ClosureLine.Value(r.src))
		}
		t, err := htmlText([]byte(raw))
		if err != nil {
			return fmt.Errorf("html block: %w", err)
		}
		if t = strings.TrimSpace(t); t != "" {
			r.e.Write(latex.Escape(norm.NFC.String(t)))
			r.e.Write("")
		}

	default:
		return r.blocks(n)
	}
	return nil
}

func (r *renderer) heading(level int, title string) {
	switch {
	case level <= 1:
		r.e.Section(title)
	case level == 2:
		r.e.Subsection(title)
	case level == 3:
		r.e.Subsubsection(title)
	default:
		r.e.Paragraph(title)
	}
}

func (r *renderer) list(l *gmast.List) error {
	env := "itemize"
	if l.IsOrdered() {
		env = "enumerate"
	}
	r.e.Begin(env)
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		first := item.FirstChild()
		switch first.(type) {
		case *gmast.TextBlock, *gmast.Paragraph:
			t, err := r.inline(first)
			if err != nil {
				return err
			}
			r.e.Item(t)
			first = first.NextSibling()
		default:
			r.e.Item("")
		}
		for n := first; n != nil; n = n.NextSibling() {
			if err := r.block(n); err != nil {
				return err
			}
		}
	}
	r.e.End(env)
	return nil
}

func (r *renderer) fenced(n *gmast.FencedCodeBlock) {
	lines := r.lines(n)
	switch string(n.Language(r.src)) {
	case langLaTeX, langTeX:
		r.e.WriteLines(lines...)
	case langMath:
		r.e.Display(strings.Join(lines, " "))
	default:
		r.e.Environment("verbatim", lines...)
	}
}

// lines returns the raw lines of a block node without trailing newlines.
func (r *renderer) lines(n gmast.Node) []string {
	segs := n.Lines()
	out := make([]string, 0, segs.Len())
	for i := range segs.Len() {
		seg := segs.At(i)
		out = append(out, strings.TrimRight(string(seg.Value(r.src)), "\r\n"))
	}
	return out
}

// inline renders the inline children of n into a single string.
func (r *renderer) inline(n gmast.Node) (string, error) {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if err := r.inlineNode(&b, c); err != nil {
			return "", err
		}
	}
	return b.String(), nil
}

func (r *renderer) inlineNode(b *strings.Builder, n gmast.Node) error {
	switch node := n.(type) {
	case *gmast.Text:
		b.WriteString(escapeText(string(node.Segment.Value(r.src))))
		switch {
		case node.HardLineBreak():
			b.WriteString(" \\\\\n")
		case node.SoftLineBreak():
			b.WriteString("\n")
		}

	case *gmast.String:
		if node.IsCode() {
			b.Write(node.Value)
		} else {
			b.WriteString(escapeText(string(node.Value)))
		}

	case *gmast.CodeSpan:
		b.WriteString(`\texttt{`)
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*gmast.Text); ok {
				b.WriteString(latex.Escape(string(t.Segment.Value(r.src))))
			}
		}
		b.WriteString(`}`)

	case *gmast.Emphasis:
		inner, err := r.inline(node)
		if err != nil {
			return err
		}
		if node.Level >= 2 {
			b.WriteString(`\textbf{` + inner + `}`)
		} else {
			b.WriteString(`\emph{` + inner + `}`)
		}

	case *gmast.Link:
		inner, err := r.inline(node)
		if err != nil {
			return err
		}
		b.WriteString(`\href{` + hrefEscaper.Replace(string(node.Destination)) + `}{` + inner + `}`)

	case *gmast.AutoLink:
		url := string(node.URL(r.src))
		b.WriteString(`\url{` + hrefEscaper.Replace(url) + `}`)

	case *gmast.Image:
		// Figures are not supported; keep the alt text.
		inner, err := r.inline(node)
		if err != nil {
			return err
		}
		b.WriteString(inner)

	case *gmast.RawHTML:
		var raw strings.Builder
		for i := range node.Segments.Len() {
			seg := node.Segments.At(i)
			raw.Write(seg.Value(r.src))
		}
		t, err := htmlText([]byte(raw.String()))
		if err != nil {
			return fmt.Errorf("inline html: %w", err)
		}
		b.WriteString(escapeText(t))

	default:
		inner, err := r.inline(n)
		if err != nil {
			return err
		}
		b.WriteString(inner)
	}
	return nil
}

func escapeText(s string) string {
	return latex.Escape(norm.NFC.String(s))
}
