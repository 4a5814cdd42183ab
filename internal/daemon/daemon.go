// Package daemon rebuilds a job whenever its files change and, optionally,
// on a fixed schedule.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/texdoc/internal/build"
	"git.home.luguber.info/inful/texdoc/internal/config"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
)

// JobLoader loads the job file at path.
type JobLoader func(path string) (*config.Job, error)

// Config controls the daemon.
type Config struct {
	JobPath string
	// Every schedules a rebuild at this interval when positive.
	Every    time.Duration
	Debounce time.Duration
	// MetricsAddr serves /metrics, /healthz and /status when set.
	MetricsAddr string
	Registry    *prom.Registry
	Options     build.Options
	// Prepare adjusts every freshly loaded job (CLI flag overrides).
	Prepare func(*config.Job)
}

// Daemon serializes builds of one job triggered by file changes or a schedule.
type Daemon struct {
	cfg     Config
	service build.Service
	load    JobLoader
	started time.Time
	watcher *Watcher

	buildMu sync.Mutex

	mu   sync.RWMutex
	last *build.Result
	err  error
	runs int
}

// New creates a daemon building cfg.JobPath with service.
func New(cfg Config, service build.Service) *Daemon {
	return &Daemon{cfg: cfg, service: service, load: config.Load}
}

// WithLoader replaces job loading (for testing).
func (d *Daemon) WithLoader(l JobLoader) *Daemon {
	if l != nil {
		d.load = l
	}
	return d
}

// BuildNow loads the job and runs one build. Concurrent calls wait for each
// other; builds never overlap.
func (d *Daemon) BuildNow(ctx context.Context, reason string) (*build.Result, *config.Job, error) {
	d.buildMu.Lock()
	defer d.buildMu.Unlock()

	slog.Info("Rebuilding document", slog.String("reason", reason), logfields.Path(d.cfg.JobPath))
	job, err := d.load(d.cfg.JobPath)
	if err != nil {
		d.store(nil, err)
		return nil, nil, err
	}
	if d.cfg.Prepare != nil {
		d.cfg.Prepare(job)
	}

	res, err := d.service.Run(ctx, build.Request{Job: job, Options: d.cfg.Options})
	d.store(res, err)
	if err != nil {
		slog.Error("Build failed", logfields.Error(err))
	} else if res != nil {
		slog.Info("Build finished", slog.String("status", string(res.Status)), logfields.Destination(res.Output))
	}
	return res, job, err
}

func (d *Daemon) store(res *build.Result, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = res
	d.err = err
	d.runs++
}

// Snapshot is the daemon state reported on /status.
type Snapshot struct {
	Runs   int
	Last   *build.Result
	Err    error
	Uptime time.Duration
}

// Snapshot returns the most recent build outcome.
func (d *Daemon) Snapshot() Snapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	snap := Snapshot{Runs: d.runs, Last: d.last, Err: d.err}
	if !d.started.IsZero() {
		snap.Uptime = time.Since(d.started)
	}
	return snap
}

// Run builds once, then rebuilds on change until ctx is canceled. Build
// failures are logged and do not stop the daemon.
func (d *Daemon) Run(ctx context.Context) error {
	d.started = time.Now()

	w, err := NewWatcher(d.cfg.Debounce, func() { d.rebuild(ctx, "change") })
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := d.initialBuild(ctx, w); err != nil {
		return err
	}
	go w.Run(ctx)

	if d.cfg.Every > 0 {
		s, err := NewScheduler()
		if err != nil {
			return err
		}
		if _, err := s.Every(d.cfg.Every, "texdoc-rebuild", func() { d.rebuild(ctx, "schedule") }); err != nil {
			return err
		}
		s.Start()
		defer func() {
			if err := s.Stop(); err != nil {
				slog.Warn("Failed to stop scheduler", logfields.Error(err))
			}
		}()
	}

	var srv *http.Server
	if d.cfg.MetricsAddr != "" {
		srv = &http.Server{
			Addr:              d.cfg.MetricsAddr,
			Handler:           d.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("Serving metrics", logfields.URL("http://"+d.cfg.MetricsAddr+"/metrics"))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server failed", logfields.Error(err))
			}
		}()
	}

	slog.Info("Watching for changes", logfields.Path(d.cfg.JobPath))
	<-ctx.Done()
	slog.Info("Stopping watcher")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Failed to shutdown metrics server", logfields.Error(err))
		}
	}
	// Wait for an in-flight build before returning.
	d.buildMu.Lock()
	defer d.buildMu.Unlock()
	return nil
}

// initialBuild runs the first build and registers the files to watch. The
// job file is watched even when loading it fails, so fixing it triggers a
// rebuild.
func (d *Daemon) initialBuild(ctx context.Context, w *Watcher) error {
	_, job, _ := d.BuildNow(ctx, "startup")
	if err := w.SetFiles(watchPaths(d.cfg.JobPath, job)...); err != nil {
		return fmt.Errorf("failed to watch job files: %w", err)
	}
	d.watcher = w
	return nil
}

func (d *Daemon) rebuild(ctx context.Context, reason string) {
	if ctx.Err() != nil {
		return
	}
	_, job, _ := d.BuildNow(ctx, reason)
	if d.watcher != nil {
		if err := d.watcher.SetFiles(watchPaths(d.cfg.JobPath, job)...); err != nil {
			slog.Warn("Failed to update watched files", logfields.Error(err))
		}
	}
}

func watchPaths(jobPath string, job *config.Job) []string {
	paths := []string{jobPath}
	if job != nil && job.Source != "" {
		paths = append(paths, job.Source)
	}
	return paths
}
