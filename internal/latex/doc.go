// Package latex emits LaTeX source text line by line.
//
// An Emitter is bound to an output stream and exposes one method per markup
// construct. Each call appends one or more complete lines, in call order, and
// nothing is ever read back. Arguments with optional bracketed options are
// described by Argument and always rendered through FormatArg:
//
//	latex.Arg("amsmath")                      -> {amsmath}
//	latex.ArgWith("hyperref", "pdftex")       -> [pdftex]{hyperref}
//	latex.ArgWith("cleveref", "a", "b")       -> [a, b]{cleveref}
//
// Emitter methods never escape their input. Use Escape for untrusted text.
package latex
