package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// exitCodes maps each category to the process exit status; anything not
// listed (including non-DocError values) exits 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation:  2,
	CategoryUnsupported: 3,
	CategoryDestination: 4,
	CategoryEnvironment: 6,
	CategoryConfig:      7,
	CategoryStore:       8,
	CategoryNotify:      8,
	CategoryInternal:    10,
	CategoryCompile:     11,
	CategoryFileSystem:  11,
}

// hints are appended to the terminal message to point at the usual fix.
var hints = map[ErrorCategory]string{
	CategoryDestination: "pass --overwrite or choose another --dest",
	CategoryEnvironment: "set XDG_DESKTOP_DIR or pass --dest",
	CategoryCompile:     "rerun with --verbose to see the compiler output",
	CategoryConfig:      "run 'texdoc init' for an example job",
}

// CLIErrorAdapter turns a command error into a terminal message, a log
// record and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
		stderr:  os.Stderr,
		exit:    os.Exit,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if de, ok := As(err); ok {
		if code, found := exitCodes[de.Category]; found {
			return code
		}
	}
	return 1
}

// Message is the line printed on stderr. Verbose mode prints the full error
// chain; otherwise only the DocError message and a hint.
func (a *CLIErrorAdapter) Message(err error) string {
	de, ok := As(err)
	switch {
	case err == nil:
		return ""
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return de.Error()
	}
	if hint, found := hints[de.Category]; found {
		return fmt.Sprintf("%s (%s)", de.Message, hint)
	}
	return de.Message
}

// HandleError reports err and exits with its code. A nil error is a no-op.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.log(err)
	_, _ = fmt.Fprintln(a.stderr, a.Message(err))
	a.exit(a.ExitCodeFor(err))
}

// log records err with its category, context and cause. Warnings are only
// logged in verbose mode.
func (a *CLIErrorAdapter) log(err error) {
	de, ok := As(err)
	if !ok {
		a.logger.Error("Command failed", "error", err)
		return
	}
	if de.Severity == SeverityWarning && !a.verbose {
		return
	}
	attrs := []slog.Attr{slog.String("category", string(de.Category))}
	for k, v := range de.Context {
		attrs = append(attrs, slog.Any(k, v))
	}
	if de.Cause != nil {
		attrs = append(attrs, slog.String("cause", de.Cause.Error()))
	}
	a.logger.LogAttrs(context.Background(), slogLevel(de.Severity), de.Message, attrs...)
}

func slogLevel(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
