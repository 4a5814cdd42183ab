package document

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/latex"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
	"git.home.luguber.info/inful/texdoc/internal/observability"
	"git.home.luguber.info/inful/texdoc/internal/workspace"
)

const (
	sourceSuffix   = ".tex"
	artifactSuffix = ".pdf"
)

// ErrInvalidState is returned when Open or Close is called out of order.
var ErrInvalidState = errors.New("document: invalid lifecycle state")

// State is the lifecycle position of a Document.
type State int

const (
	StateUnopened State = iota
	StateOpen
	StateCompiling
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateOpen:
		return "open"
	case StateCompiling:
		return "compiling"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Result describes a finished document.
type Result struct {
	// SourceName is the generated source file name (texdoc_*.tex).
	SourceName string
	// ArtifactName is SourceName with the .pdf extension.
	ArtifactName string
	// Output is where the artifact was moved. Empty when relocation did not happen.
	Output string
	Branch Branch
	Passes []PassResult
	// Workspace is the (removed) directory the document was compiled in.
	Workspace string
	Duration  time.Duration
}

// CompileOK reports whether every compiler pass exited zero.
func (r *Result) CompileOK() bool {
	if r == nil {
		return false
	}
	for _, p := range r.Passes {
		if !p.OK() {
			return false
		}
	}
	return true
}

// Option configures a Document.
type Option func(*Document)

// WithCompiler replaces the pdflatex compiler.
func WithCompiler(c Compiler) Option {
	return func(d *Document) {
		if c != nil {
			d.compiler = c
		}
	}
}

// WithDesktop replaces desktop resolution for documents without a destination.
func WithDesktop(r DesktopResolver) Option {
	return func(d *Document) {
		if r != nil {
			d.relocator.Desktop = r
		}
	}
}

// WithRecorder injects a metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(d *Document) {
		if r != nil {
			d.recorder = r
		}
	}
}

// WithWorkspaceBase sets the parent directory of the workspace (default os.TempDir()).
func WithWorkspaceBase(dir string) Option {
	return func(d *Document) { d.workspaceBase = dir }
}

// WithStrictCompile makes a failing compiler pass abort Close with an error.
func WithStrictCompile(strict bool) Option {
	return func(d *Document) { d.strict = strict }
}

// Document is a single-use document lifecycle. It is not safe for concurrent use.
type Document struct {
	cfg           Config
	compiler      Compiler
	relocator     Relocator
	recorder      metrics.Recorder
	workspaceBase string
	strict        bool

	state   State
	ws      *workspace.Manager
	source  string
	emitter *latex.Emitter
	opened  time.Time
}

// New prepares a document. cfg is deep-copied, so later changes by the
// caller do not affect it.
func New(cfg Config, opts ...Option) *Document {
	d := &Document{
		cfg:       cfg.Clone().withDefaults(),
		compiler:  NewBinaryCompiler("", nil),
		relocator: Relocator{Desktop: DefaultDesktop},
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current lifecycle state.
func (d *Document) State() State { return d.state }

// Config returns a copy of the document's effective configuration.
func (d *Document) Config() Config { return d.cfg.Clone() }

// SourcePath returns the path of the generated source file once opened.
func (d *Document) SourcePath() string { return d.source }

// WorkspacePath returns the workspace directory while the document is open.
func (d *Document) WorkspacePath() string {
	if d.ws == nil {
		return ""
	}
	return d.ws.GetPath()
}

// Open provisions the workspace, writes the preamble and returns the emitter
// for the document body.
func (d *Document) Open(ctx context.Context) (*latex.Emitter, error) {
	if d.state != StateUnopened {
		return nil, fmt.Errorf("%w: open called in state %s", ErrInvalidState, d.state)
	}
	if err := d.cfg.Validate(); err != nil {
		d.state = StateClosed
		return nil, err
	}

	d.opened = time.Now()
	d.ws = workspace.NewManager(d.workspaceBase)
	if err := d.ws.Create(); err != nil {
		d.state = StateClosed
		return nil, derrors.WorkspaceError("create", err)
	}

	f, err := d.ws.CreateFile(sourceSuffix)
	if err != nil {
		d.abort()
		return nil, derrors.WorkspaceError("create source file", err)
	}
	d.source = f.Name()
	d.emitter = latex.NewEmitter(f)

	if err := WritePreamble(d.emitter, d.cfg); err != nil {
		_ = d.emitter.Close()
		d.abort()
		return nil, err
	}

	d.state = StateOpen
	observability.DebugContext(observability.WithDocument(ctx, filepath.Base(d.source)),
		"Document opened", logfields.Path(d.ws.GetPath()))
	return d.emitter, nil
}

// abort removes the workspace after a failed Open.
func (d *Document) abort() {
	if err := d.ws.Cleanup(); err != nil {
		slog.Warn("Failed to cleanup workspace", logfields.Error(err))
	}
	d.state = StateClosed
}

// Close finishes the document: it ends and closes the source, compiles it,
// relocates the artifact and removes the workspace. The returned Result is
// non-nil whenever Close got past the state check, even on error.
func (d *Document) Close(ctx context.Context) (res *Result, err error) {
	if d.state != StateOpen {
		return nil, fmt.Errorf("%w: close called in state %s", ErrInvalidState, d.state)
	}

	sourceName := filepath.Base(d.source)
	ctx = observability.WithDocument(ctx, sourceName)
	res = &Result{
		SourceName:   sourceName,
		ArtifactName: strings.TrimSuffix(sourceName, sourceSuffix) + artifactSuffix,
		Workspace:    d.ws.GetPath(),
	}

	defer func() {
		if cerr := d.ws.Cleanup(); cerr != nil {
			observability.WarnContext(ctx, "Failed to cleanup workspace", logfields.Error(cerr))
			err = errors.Join(err, derrors.WorkspaceError("cleanup", cerr))
		}
		d.state = StateClosed
		res.Duration = time.Since(d.opened)
	}()

	d.emitter.EndDocument()
	if cerr := d.emitter.Close(); cerr != nil {
		return res, derrors.WorkspaceError("close source file", cerr)
	}
	if werr := d.emitter.Err(); werr != nil {
		return res, derrors.WorkspaceError("write source file", werr)
	}

	d.state = StateCompiling
	if err := d.compile(ctx, res); err != nil {
		return res, err
	}

	stageStart := time.Now()
	artifact := filepath.Join(d.ws.GetPath(), res.ArtifactName)
	out, branch, err := d.relocator.Relocate(artifact, d.cfg.Destination, d.cfg.Overwrite)
	d.recorder.ObserveStageDuration("relocate", time.Since(stageStart))
	res.Branch = branch
	if err != nil {
		d.recorder.IncStageResult("relocate", metrics.ResultFailed)
		return res, err
	}
	d.recorder.IncStageResult("relocate", metrics.ResultSuccess)
	d.recorder.IncRelocation(string(branch))
	res.Output = out
	return res, nil
}

// compile runs the configured number of passes sequentially.
func (d *Document) compile(ctx context.Context, res *Result) error {
	ctx = observability.WithStage(ctx, "compile")
	stageStart := time.Now()
	defer func() { d.recorder.ObserveStageDuration("compile", time.Since(stageStart)) }()

	for i := range d.cfg.Passes {
		pass := d.compiler.Compile(ctx, d.ws.GetPath(), res.SourceName)
		pass.Pass = i + 1
		res.Passes = append(res.Passes, pass)
		d.recorder.ObserveCompilePass(pass.Duration, pass.ExitCode)

		if !pass.OK() {
			observability.WarnContext(ctx, "Compiler pass failed",
				logfields.Pass(pass.Pass), logfields.ExitCode(pass.ExitCode), logfields.Error(pass.Err))
			if d.strict {
				d.recorder.IncStageResult("compile", metrics.ResultFailed)
				return derrors.CompileFailed(pass.Pass, pass.ExitCode, pass.Err)
			}
		} else {
			observability.DebugContext(ctx, "Compiler pass finished",
				logfields.Pass(pass.Pass), logfields.DurationMS(float64(pass.Duration.Milliseconds())))
		}

		if cerr := ctx.Err(); cerr != nil {
			d.recorder.IncStageResult("compile", metrics.ResultFailed)
			return cerr
		}
	}
	d.recorder.IncStageResult("compile", metrics.ResultSuccess)
	return nil
}

// BodyFunc writes the document body.
type BodyFunc func(e *latex.Emitter) error

// Build opens a document, runs body and always closes it, so the compile,
// relocation and workspace cleanup steps run even when body fails or panics.
// A body error is returned joined with any error from closing.
func Build(ctx context.Context, cfg Config, body BodyFunc, opts ...Option) (*Result, error) {
	d := New(cfg, opts...)
	e, err := d.Open(ctx)
	if err != nil {
		return nil, err
	}

	closed := false
	defer func() {
		if closed {
			return
		}
		if r := recover(); r != nil {
			if _, cerr := d.Close(ctx); cerr != nil {
				slog.Error("Failed to close document after panic", logfields.Error(cerr))
			}
			panic(r)
		}
	}()

	var bodyErr error
	if body != nil {
		bodyErr = body(e)
	}
	closed = true
	res, closeErr := d.Close(ctx)
	return res, errors.Join(bodyErr, closeErr)
}

