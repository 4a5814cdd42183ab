package latex

import (
	"errors"
	"fmt"
	"io"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
)

var (
	// ErrUnsupported is matched by errors returned from features that were never
	// implemented (Figure, Tabular, IncludeOnly).
	ErrUnsupported = derrors.ErrUnsupported
	// ErrClosed is recorded when a command is emitted after Close.
	ErrClosed = errors.New("latex: emitter closed")
)

// Emitter writes LaTeX commands to an output stream in call order.
//
// Write failures are sticky: the first one is kept, later calls become no-ops,
// and Err reports it.
type Emitter struct {
	w      io.Writer
	closer io.Closer
	closed bool
	err    error
}

// NewEmitter binds an emitter to w. When w is also an io.Closer, Close closes it.
func NewEmitter(w io.Writer) *Emitter {
	e := &Emitter{w: w}
	if c, ok := w.(io.Closer); ok {
		e.closer = c
	}
	return e
}

// Err returns the first write error, if any.
func (e *Emitter) Err() error {
	return e.err
}

// Closed reports whether the underlying stream has been closed.
func (e *Emitter) Closed() bool {
	return e.closed
}

// Close closes the underlying stream. It is safe to call more than once.
func (e *Emitter) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.closer == nil {
		return nil
	}
	if err := e.closer.Close(); err != nil {
		if e.err == nil {
			e.err = err
		}
		return err
	}
	return nil
}

func (e *Emitter) line(s string) {
	if e.err != nil {
		return
	}
	if e.closed {
		e.err = ErrClosed
		return
	}
	if _, err := io.WriteString(e.w, s+"\n"); err != nil {
		e.err = err
	}
}

// DocumentClass emits \documentclass, with options when any are given.
func (e *Emitter) DocumentClass(class string, options ...string) {
	e.line(`\documentclass` + FormatArg(ArgWith(class, options...)))
}

// BeginDocument opens the document body.
func (e *Emitter) BeginDocument() { e.line(`\begin{document}`) }

// EndDocument closes the document body.
func (e *Emitter) EndDocument() { e.line(`\end{document}`) }

// Author emits the author field command.
func (e *Emitter) Author(author string) {
	e.line(`\author{` + author + `}`)
}

// Title emits the title field command.
func (e *Emitter) Title(title Argument) {
	e.line(`\title` + FormatArg(title))
}

// MakeTitle typesets the title block.
func (e *Emitter) MakeTitle() { e.line(`\maketitle`) }

// NewPage ends the current page.
func (e *Emitter) NewPage() { e.line(`\newpage`) }

// ClearPage ends the current page and flushes pending floats.
func (e *Emitter) ClearPage() { e.line(`\clearpage`) }

// UsePackage emits one \usepackage command.
func (e *Emitter) UsePackage(pkg Argument) {
	e.line(`\usepackage` + FormatArg(pkg))
}

// UsePackages emits one \usepackage command per package, in order.
func (e *Emitter) UsePackages(pkgs ...Argument) {
	for _, p := range pkgs {
		e.UsePackage(p)
	}
}

// Write emits a raw line.
func (e *Emitter) Write(line string) {
	e.line(line)
}

// Writef emits a formatted raw line.
func (e *Emitter) Writef(format string, args ...any) {
	e.line(fmt.Sprintf(format, args...))
}

// WriteLines emits each line verbatim.
func (e *Emitter) WriteLines(lines ...string) {
	for _, l := range lines {
		e.line(l)
	}
}

// Section starts a numbered section. title is written as given.
func (e *Emitter) Section(title string) { e.line(`\section{` + title + `}`) }

// Subsection starts a subsection.
func (e *Emitter) Subsection(title string) { e.line(`\subsection{` + title + `}`) }

// Subsubsection starts a subsubsection.
func (e *Emitter) Subsubsection(title string) { e.line(`\subsubsection{` + title + `}`) }

// Paragraph starts a run-in paragraph heading.
func (e *Emitter) Paragraph(title string) { e.line(`\paragraph{` + title + `}`) }

// Begin opens an environment.
func (e *Emitter) Begin(env string) { e.line(`\begin{` + env + `}`) }

// End closes an environment.
func (e *Emitter) End(env string) { e.line(`\end{` + env + `}`) }

// Environment emits env wrapped around lines.
func (e *Emitter) Environment(env string, lines ...string) {
	e.Begin(env)
	e.WriteLines(lines...)
	e.End(env)
}

// Item emits a list item.
func (e *Emitter) Item(text string) {
	if text == "" {
		e.line(`\item`)
		return
	}
	e.line(`\item ` + text)
}

// Display emits math in display style.
func (e *Emitter) Display(math string) {
	e.line(`\[ ` + math + ` \]`)
}

// EquationOptions controls Equation output.
type EquationOptions struct {
	Label string
	// Tag names the equation reference. It is only emitted together with a
	// Label on a numbered equation.
	Tag        string
	Unnumbered bool
}

// Equation emits an equation (or equation*) environment.
func (e *Emitter) Equation(math string, opts EquationOptions) {
	env := "equation"
	if opts.Unnumbered {
		env = "equation*"
	}
	e.Begin(env)
	if opts.Label != "" {
		e.line(`\label{` + opts.Label + `}`)
		if opts.Tag != "" && !opts.Unnumbered {
			e.line(`\tag{` + opts.Tag + `}`)
		}
	}
	e.line(math)
	e.End(env)
}

// Align emits an align* environment, separating rows with \\.
func (e *Emitter) Align(rows ...string) {
	e.Begin("align*")
	for i, r := range rows {
		if i < len(rows)-1 {
			e.line(r + ` \\`)
			continue
		}
		e.line(r)
	}
	e.End("align*")
}

// Quote emits a quote environment.
func (e *Emitter) Quote(lines ...string) {
	e.Environment("quote", lines...)
}

// Quotation emits a quotation environment.
func (e *Emitter) Quotation(lines ...string) {
	e.Environment("quotation", lines...)
}

// Figure is not implemented and always returns an error matching ErrUnsupported.
func (e *Emitter) Figure() error {
	return derrors.Unsupported("figure")
}

// Tabular is not implemented and always returns an error matching ErrUnsupported.
func (e *Emitter) Tabular() error {
	return derrors.Unsupported("tabular")
}

// Input inlines another source file.
func (e *Emitter) Input(name string) { e.line(`\input{` + name + `}`) }

// Include inlines another source file on its own pages.
func (e *Emitter) Include(name string) { e.line(`\include{` + name + `}`) }

// IncludeOnly is not implemented and always returns an error matching ErrUnsupported.
func (e *Emitter) IncludeOnly(names ...string) error {
	return derrors.Unsupported("includeonly").WithContext("names", names)
}

// TableOfContents emits the table of contents.
func (e *Emitter) TableOfContents() { e.line(`\tableofcontents`) }

// PrintBibliography emits the biblatex bibliography.
func (e *Emitter) PrintBibliography() { e.line(`\printbibliography`) }
