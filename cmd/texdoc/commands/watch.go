package commands

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/texdoc/internal/daemon"
	"git.home.luguber.info/inful/texdoc/internal/logfields"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
)

// WatchCmd implements the 'watch' command.
type WatchCmd struct {
	Job string `arg:"" optional:"" help:"Job file" default:"texdoc.yaml" type:"path"`

	Every       time.Duration `help:"Also rebuild at this interval (0 disables)" default:"0s"`
	Debounce    time.Duration `help:"Quiet period before a change triggers a rebuild" default:"500ms"`
	MetricsAddr string        `name:"metrics-addr" help:"Serve /metrics, /healthz and /status on this address" env:"TEXDOC_METRICS_ADDR"`

	JobOverrides `embed:""`
	ServiceFlags `embed:""`
}

func (w *WatchCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	svc, cleanup, err := newService(g, w.ServiceFlags, metrics.NewPrometheusRecorder(reg))
	defer cleanup()
	if err != nil {
		return err
	}

	d := daemon.New(daemon.Config{
		JobPath:     w.Job,
		Every:       w.Every,
		Debounce:    w.Debounce,
		MetricsAddr: w.MetricsAddr,
		Registry:    reg,
		Options:     w.Options(),
		Prepare:     w.Apply,
	}, svc)

	slog.Info("Starting watch mode", logfields.Path(w.Job))
	if err := d.Run(ctx); err != nil {
		return err
	}
	slog.Info("Watch mode stopped", slog.Int("builds", d.Snapshot().Runs))
	return nil
}
