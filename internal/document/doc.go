// Package document manages the lifecycle of one compiled LaTeX document.
//
// A Document moves through four states, once each:
//
//	Unopened -> Open -> Compiling -> Closed
//
// Open provisions a private workspace, creates a texdoc_*.tex source file,
// writes the preamble derived from Config and hands back a latex.Emitter for
// the body. Close ends the document, runs the compiler Config.Passes times in
// the workspace, moves the produced PDF to its destination and removes the
// workspace. The workspace is removed on every path out of Close, including
// compile and relocation failures.
//
// Build wraps the whole sequence around a callback:
//
//	res, err := document.Build(ctx, cfg, func(e *latex.Emitter) error {
//		e.Write("Hello World")
//		return nil
//	})
//
// Compiler exit codes are not treated as failures by default; they are
// reported per pass in Result.Passes. WithStrictCompile turns the first
// failing pass into an error.
package document
