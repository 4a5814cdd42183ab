package build

import (
	"context"
	"time"

	"git.home.luguber.info/inful/texdoc/internal/config"
	"git.home.luguber.info/inful/texdoc/internal/document"
)

// Service executes document builds.
type Service interface {
	Run(ctx context.Context, req Request) (*Result, error)
}

// Request contains the inputs of one build.
type Request struct {
	Job     *config.Job
	Options Options
}

// Options modify build behavior.
type Options struct {
	// SkipIfUnchanged skips the build when the history ledger holds a
	// successful build with the same fingerprint whose artifact still exists.
	SkipIfUnchanged bool
}

// Result is the outcome of a build.
type Result struct {
	Status      Status
	JobID       string
	Fingerprint string
	// Output is the final artifact path (the previous one when skipped).
	Output   string
	Document *document.Result

	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration

	SkipReason string
}

// Status is the overall build outcome.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusCanceled Status = "canceled"
)

// IsSuccess reports whether the build produced (or kept) an artifact.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess || s == StatusSkipped
}
