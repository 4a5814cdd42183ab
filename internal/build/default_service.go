package build

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/texdoc/internal/config"
	"git.home.luguber.info/inful/texdoc/internal/document"
	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/history"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
	"git.home.luguber.info/inful/texdoc/internal/notify"
	"git.home.luguber.info/inful/texdoc/internal/observability"
	"git.home.luguber.info/inful/texdoc/internal/revision"
)

// reportTimeout bounds history and notification writes after a build.
const reportTimeout = 10 * time.Second

// CompilerFactory creates the compiler for a job's compiler settings.
type CompilerFactory func(cfg config.CompilerConfig) document.Compiler

// RevisionLookup resolves the git revision of a directory.
type RevisionLookup func(dir string) (revision.Info, error)

// DefaultService is the standard implementation of Service.
type DefaultService struct {
	compilerFactory CompilerFactory
	revisionLookup  RevisionLookup
	desktop         document.DesktopResolver
	workspaceBase   string
	recorder        metrics.Recorder
	history         history.Store
	publisher       notify.Publisher
}

var _ Service = (*DefaultService)(nil)

// NewService creates a DefaultService that compiles with pdflatex (or the
// job's configured binary) and records nothing.
func NewService() *DefaultService {
	return &DefaultService{
		compilerFactory: func(cfg config.CompilerConfig) document.Compiler {
			return document.NewBinaryCompiler(cfg.Binary, cfg.Args)
		},
		revisionLookup: revision.Lookup,
		recorder:       metrics.NoopRecorder{},
		publisher:      notify.NoopPublisher{},
	}
}

// WithCompilerFactory replaces how compilers are created (for testing).
func (s *DefaultService) WithCompilerFactory(f CompilerFactory) *DefaultService {
	if f != nil {
		s.compilerFactory = f
	}
	return s
}

// WithRevisionLookup replaces git revision resolution.
func (s *DefaultService) WithRevisionLookup(f RevisionLookup) *DefaultService {
	if f != nil {
		s.revisionLookup = f
	}
	return s
}

// WithDesktop replaces desktop resolution for jobs without a destination.
func (s *DefaultService) WithDesktop(r document.DesktopResolver) *DefaultService {
	s.desktop = r
	return s
}

// WithWorkspaceBase sets the parent directory for document workspaces.
func (s *DefaultService) WithWorkspaceBase(dir string) *DefaultService {
	s.workspaceBase = dir
	return s
}

// WithRecorder sets the metrics recorder.
func (s *DefaultService) WithRecorder(r metrics.Recorder) *DefaultService {
	if r != nil {
		s.recorder = r
	}
	return s
}

// WithHistory enables the build ledger.
func (s *DefaultService) WithHistory(h history.Store) *DefaultService {
	s.history = h
	return s
}

// WithPublisher sets the build event publisher.
func (s *DefaultService) WithPublisher(p notify.Publisher) *DefaultService {
	if p != nil {
		s.publisher = p
	}
	return s
}

// Run executes one job: load sources, maybe skip, build the document and
// report the outcome. The returned Result is non-nil even on error.
func (s *DefaultService) Run(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	result := &Result{
		JobID:     uuid.NewString(),
		StartTime: start,
	}
	ctx = observability.WithJobID(ctx, result.JobID)

	err := s.run(ctx, req, result)

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(start)
	switch {
	case err == nil && result.Status == "":
		result.Status = StatusSuccess
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		result.Status = StatusCanceled
	case err != nil:
		result.Status = StatusFailed
	}

	// A canceled build is still recorded and announced.
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), reportTimeout)
	defer cancel()
	s.report(reportCtx, req, result, err)
	return result, err
}

func (s *DefaultService) run(ctx context.Context, req Request, result *Result) error {
	job := req.Job
	if job == nil {
		return derrors.ValidationFailed("job", "job is required")
	}

	ctx = observability.WithStage(ctx, "prepare")
	stageStart := time.Now()
	src, err := loadSources(job)
	if err != nil {
		s.recorder.IncStageResult("prepare", metrics.ResultFailed)
		return err
	}
	cfg := job.ToDocument()
	src.applyHeader(&cfg)
	if job.StampRevision {
		s.stampRevision(ctx, job, &cfg)
	}

	fp, err := src.fingerprint(job)
	if err != nil {
		s.recorder.IncStageResult("prepare", metrics.ResultFailed)
		return err
	}
	result.Fingerprint = fp
	s.recorder.ObserveStageDuration("prepare", time.Since(stageStart))
	s.recorder.IncStageResult("prepare", metrics.ResultSuccess)

	if req.Options.SkipIfUnchanged {
		if prev, ok := s.previousBuild(ctx, job, fp); ok {
			result.Status = StatusSkipped
			result.Output = prev.Artifact
			result.SkipReason = "unchanged since build " + prev.JobID
			observability.InfoContext(ctx, "Build skipped - no changes detected",
				logfields.Fingerprint(fp), logfields.Path(prev.Artifact))
			return nil
		}
	}

	ctx = observability.WithStage(ctx, "document")
	observability.InfoContext(ctx, "Building document", logfields.Path(job.Path), logfields.Fingerprint(fp))

	opts := []document.Option{
		document.WithCompiler(s.compilerFactory(job.Compiler)),
		document.WithRecorder(s.recorder),
		document.WithWorkspaceBase(s.workspaceBase),
		document.WithStrictCompile(job.Compiler.Strict),
	}
	if s.desktop != nil {
		opts = append(opts, document.WithDesktop(s.desktop))
	}

	res, err := document.Build(ctx, cfg, src.body(job), opts...)
	result.Document = res
	if res != nil {
		result.Output = res.Output
	}
	if err != nil {
		return err
	}
	if !res.CompileOK() {
		observability.WarnContext(ctx, "Document built with compiler errors", logfields.Path(res.Output))
	}
	observability.InfoContext(ctx, "Document built", logfields.Destination(res.Output))
	return nil
}

func (s *DefaultService) stampRevision(ctx context.Context, job *config.Job, cfg *document.Config) {
	dir := job.Dir
	if dir == "" {
		dir = "."
	}
	info, err := s.revisionLookup(dir)
	if err != nil {
		observability.WarnContext(ctx, "Revision stamp unavailable", logfields.Path(dir), logfields.Error(err))
		return
	}
	cfg.Preamble = append(cfg.Preamble, revision.Stamp(info))
}

// previousBuild finds a successful build with the same fingerprint whose
// artifact is still on disk.
func (s *DefaultService) previousBuild(ctx context.Context, job *config.Job, fp string) (history.Record, bool) {
	if s.history == nil {
		observability.DebugContext(ctx, "Skip requested without history store")
		return history.Record{}, false
	}
	prev, err := s.history.LastSuccess(ctx, sourceKey(job), fp)
	if err != nil {
		if !errors.Is(err, history.ErrNotFound) {
			observability.WarnContext(ctx, "History lookup failed", logfields.Error(err))
		}
		return history.Record{}, false
	}
	if prev.Artifact == "" {
		return history.Record{}, false
	}
	if _, err := os.Stat(prev.Artifact); err != nil {
		observability.DebugContext(ctx, "Previous artifact missing", logfields.Path(prev.Artifact))
		return history.Record{}, false
	}
	return prev, true
}

// report records the outcome in history, notifications and metrics. Failures
// here are logged and never change the build result.
func (s *DefaultService) report(ctx context.Context, req Request, result *Result, buildErr error) {
	ctx = observability.WithStage(ctx, "report")

	rec := history.Record{
		JobID:       result.JobID,
		Fingerprint: result.Fingerprint,
		Status:      history.Status(result.Status),
		Artifact:    result.Output,
		StartedAt:   result.StartTime,
		Duration:    result.Duration,
	}
	if req.Job != nil {
		rec.Source = sourceKey(req.Job)
	}
	if result.Document != nil {
		rec.Passes = len(result.Document.Passes)
		rec.CompileOK = result.Document.CompileOK()
	}
	if buildErr != nil {
		rec.Error = buildErr.Error()
	}

	if s.history != nil {
		if _, err := s.history.Record(ctx, rec); err != nil {
			observability.WarnContext(ctx, "Failed to record build history", logfields.Error(derrors.StoreError("record", err)))
		}
	}

	event := notify.BuildEvent{
		JobID:       result.JobID,
		Source:      rec.Source,
		Status:      string(result.Status),
		Artifact:    result.Output,
		Fingerprint: result.Fingerprint,
		CompileOK:   rec.CompileOK,
		Error:       rec.Error,
		DurationMS:  result.Duration.Milliseconds(),
		Timestamp:   result.EndTime,
	}
	if result.Document != nil {
		event.Branch = string(result.Document.Branch)
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		observability.WarnContext(ctx, "Failed to publish build event", logfields.Error(derrors.NotifyError(err)))
	}

	s.recorder.ObserveBuildDuration(result.Duration)
	s.recorder.IncBuildOutcome(outcomeLabel(result.Status))

	if buildErr != nil {
		slog.Debug("Build finished with error", logfields.JobID(result.JobID), logfields.Error(buildErr))
	}
}

// sourceKey identifies a job in the ledger.
func sourceKey(job *config.Job) string {
	if job.Path != "" {
		return job.Path
	}
	if job.Source != "" {
		abs, err := filepath.Abs(job.Source)
		if err == nil {
			return abs
		}
	}
	return job.Source
}

func outcomeLabel(s Status) metrics.BuildOutcomeLabel {
	switch s {
	case StatusSuccess:
		return metrics.BuildOutcomeSuccess
	case StatusSkipped:
		return metrics.BuildOutcomeSkipped
	case StatusCanceled:
		return metrics.BuildOutcomeCanceled
	default:
		return metrics.BuildOutcomeFailed
	}
}
