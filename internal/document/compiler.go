package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"git.home.luguber.info/inful/texdoc/internal/logfields"
)

var (
	// ErrCompilerNotFound indicates the compiler executable was not found on PATH.
	ErrCompilerNotFound = errors.New("compiler binary not found")
	// ErrCompilerFailed indicates the compiler exited with a non-zero status.
	ErrCompilerFailed = errors.New("compiler execution failed")
)

// DefaultCompilerBinary is invoked when no compiler is configured.
const DefaultCompilerBinary = "pdflatex"

// DefaultCompilerArgs keeps pdflatex from waiting for terminal input on errors.
func DefaultCompilerArgs() []string {
	return []string{"-interaction=nonstopmode"}
}

// PassResult records one compiler invocation.
type PassResult struct {
	Pass     int
	ExitCode int
	Duration time.Duration
	Output   string
	Err      error
}

// OK reports whether the pass exited zero.
func (p PassResult) OK() bool {
	return p.Err == nil && p.ExitCode == 0
}

// Compiler runs one compile pass of source inside dir. Failures are reported
// in the PassResult, never by panicking.
type Compiler interface {
	Compile(ctx context.Context, dir, source string) PassResult
}

// CompilerFunc adapts a function to Compiler.
type CompilerFunc func(ctx context.Context, dir, source string) PassResult

// Compile calls f.
func (f CompilerFunc) Compile(ctx context.Context, dir, source string) PassResult {
	return f(ctx, dir, source)
}

// BinaryCompiler invokes an external TeX engine found on PATH.
type BinaryCompiler struct {
	Binary string
	Args   []string
}

// NewBinaryCompiler returns a compiler for binary. An empty binary selects
// pdflatex; nil args select DefaultCompilerArgs.
func NewBinaryCompiler(binary string, args []string) *BinaryCompiler {
	if binary == "" {
		binary = DefaultCompilerBinary
	}
	if args == nil {
		args = DefaultCompilerArgs()
	}
	return &BinaryCompiler{Binary: binary, Args: args}
}

// Compile runs the binary once in dir with the configured arguments followed
// by source. A missing binary yields ExitCode -1 and ErrCompilerNotFound.
func (b *BinaryCompiler) Compile(ctx context.Context, dir, source string) PassResult {
	start := time.Now()
	binary := b.Binary
	if binary == "" {
		binary = DefaultCompilerBinary
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return PassResult{
			ExitCode: -1,
			Duration: time.Since(start),
			Err:      fmt.Errorf("%w: %w", ErrCompilerNotFound, err),
		}
	}

	args := append(append([]string(nil), b.Args...), source)
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	slog.Debug("Invoking compiler", logfields.Name(binary), logfields.Path(dir), logfields.File(source))

	err = cmd.Run()

	outStr := stdout.String()
	errStr := stderr.String()
	if outStr != "" {
		slog.Debug("compiler stdout", "output", outStr)
	}
	if errStr != "" {
		slog.Warn("compiler stderr", "error_output", errStr)
	}

	res := PassResult{
		Duration: time.Since(start),
		Output:   outStr + errStr,
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = -1
		}
		res.Err = fmt.Errorf("%w: %w", ErrCompilerFailed, err)
	}
	return res
}
