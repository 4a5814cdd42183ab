package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/texdoc/internal/build"
	"git.home.luguber.info/inful/texdoc/internal/config"
	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/history"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
	"git.home.luguber.info/inful/texdoc/internal/notify"
)

// Global is shared state passed to every subcommand.
type Global struct {
	// Out receives user-facing output; nil means stdout.
	Out io.Writer
	// Compiler replaces the TeX engine (tests).
	Compiler build.CompilerFactory
	// WorkspaceBase is the parent of document workspaces; empty means the
	// system temp directory.
	WorkspaceBase string
}

func (g *Global) out() io.Writer {
	if g == nil || g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// CLI definition & global flags.
type CLI struct {
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log output format" enum:"text,json" default:"text"`
	EnvFile   []string         `name:"env-file" help:"Load environment variables from these files before reading jobs" type:"path"`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Compile a job into a PDF"`
	Init    InitCmd    `cmd:"" help:"Write an example job file"`
	Watch   WatchCmd   `cmd:"" help:"Rebuild a job whenever its files change"`
	History HistoryCmd `cmd:"" help:"List recorded builds"`
	Info    VersionCmd `cmd:"" name:"version" help:"Print version information"`
}

// AfterApply runs after flag parsing; setup logging and environment once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if c.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	return config.LoadEnv(c.EnvFile...)
}

// JobOverrides are flags that take precedence over the job file.
type JobOverrides struct {
	Dest      string `short:"d" name:"dest" help:"Destination file or directory (overrides the job)"`
	Overwrite bool   `help:"Replace an existing destination file"`
	Passes    int    `help:"Compiler passes (overrides the job; -1 keeps it)" default:"-1"`
	Strict    bool   `help:"Fail the build when a compiler pass fails"`
}

// Apply writes the overrides into job.
func (o JobOverrides) Apply(job *config.Job) {
	if o.Dest != "" {
		dest := o.Dest
		if abs, err := filepath.Abs(dest); err == nil {
			dest = abs
		}
		job.Destination = dest
	}
	if o.Overwrite {
		job.Overwrite = true
	}
	if o.Passes >= 0 {
		passes := o.Passes
		job.Passes = &passes
	}
	if o.Strict {
		job.Compiler.Strict = true
	}
}

// ServiceFlags configure the build service's optional backends.
type ServiceFlags struct {
	SkipUnchanged bool   `name:"skip-unchanged" help:"Skip the build when nothing changed since the last successful one (needs --history)"`
	History       string `name:"history" help:"SQLite build ledger" env:"TEXDOC_HISTORY"`
	NATSURL       string `name:"nats-url" help:"Publish build events to this NATS server" env:"TEXDOC_NATS_URL"`
	NATSSubject   string `name:"nats-subject" help:"NATS subject for build events" default:"${nats_subject}"`
}

// Options returns the per-run build options.
func (f ServiceFlags) Options() build.Options {
	return build.Options{SkipIfUnchanged: f.SkipUnchanged}
}

// newService wires the build service. The returned cleanup closes the
// history store and the NATS connection.
func newService(g *Global, flags ServiceFlags, rec metrics.Recorder) (*build.DefaultService, func(), error) {
	svc := build.NewService().WithRecorder(rec)
	var closers []func() error

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				slog.Warn("Failed to close backend", logfields.Error(err))
			}
		}
	}

	if g != nil {
		svc.WithCompilerFactory(g.Compiler).WithWorkspaceBase(g.WorkspaceBase)
	}

	if flags.History != "" {
		store, err := history.NewSQLiteStore(flags.History)
		if err != nil {
			return nil, cleanup, derrors.StoreError("open", err)
		}
		closers = append(closers, store.Close)
		svc.WithHistory(store)
	} else if flags.SkipUnchanged {
		slog.Warn("--skip-unchanged has no effect without --history")
	}

	if flags.NATSURL != "" {
		pub, err := notify.NewNATSPublisher(flags.NATSURL, flags.NATSSubject)
		if err != nil {
			cleanup()
			return nil, func() {}, derrors.NotifyError(err)
		}
		closers = append(closers, pub.Close)
		svc.WithPublisher(pub)
	}
	return svc, cleanup, nil
}

// Vars are the kong interpolation variables.
func Vars(versionLine string) kong.Vars {
	return kong.Vars{
		"version":      versionLine,
		"nats_subject": notify.DefaultSubject,
	}
}

func printResult(w io.Writer, res *build.Result) {
	switch {
	case res == nil:
	case res.Status == build.StatusSkipped:
		_, _ = fmt.Fprintf(w, "Unchanged, kept %s\n", res.Output)
	case res.Document != nil && !res.Document.CompileOK():
		_, _ = fmt.Fprintf(w, "Wrote %s (compiler reported errors)\n", res.Output)
	default:
		_, _ = fmt.Fprintf(w, "Wrote %s\n", res.Output)
	}
}
