package document

import "git.home.luguber.info/inful/texdoc/internal/latex"

// WritePreamble emits everything up to and including \begin{document} (and
// \maketitle when a title is set).
func WritePreamble(e *latex.Emitter, c Config) error {
	options, err := EffectiveOptions(c)
	if err != nil {
		return err
	}

	e.DocumentClass(c.Class, options...)
	e.UsePackages(EffectivePackages(c)...)
	e.WriteLines(c.Preamble...)
	if !c.Title.IsZero() {
		e.Title(c.Title)
	}
	if c.Author != "" {
		e.Author(c.Author)
	}
	e.BeginDocument()
	if !c.Title.IsZero() {
		e.MakeTitle()
	}
	return e.Err()
}
