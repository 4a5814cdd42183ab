// Package history keeps a ledger of document builds so unchanged jobs can be
// skipped and past runs inspected.
package history

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record matches a query.
var ErrNotFound = errors.New("history: record not found")

// Status is the outcome of one build.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	StatusCanceled Status = "canceled"
)

// Record is one row of the build ledger.
type Record struct {
	ID          int64
	JobID       string
	Source      string
	Fingerprint string
	Status      Status
	Artifact    string
	Passes      int
	CompileOK   bool
	Error       string
	StartedAt   time.Time
	Duration    time.Duration
}

// Store persists build records.
type Store interface {
	Record(ctx context.Context, rec Record) (int64, error)
	// LastSuccess returns the newest successful build of source with the given
	// fingerprint, or ErrNotFound.
	LastSuccess(ctx context.Context, source, fingerprint string) (Record, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}
