package commands

import (
	"context"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/texdoc/internal/build"
	"git.home.luguber.info/inful/texdoc/internal/config"
	"git.home.luguber.info/inful/texdoc/internal/metrics"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Job string `arg:"" optional:"" help:"Job file" default:"texdoc.yaml" type:"path"`

	JobOverrides `embed:""`
	ServiceFlags `embed:""`
}

func (b *BuildCmd) Run(g *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	res, err := b.run(ctx, g)
	if err != nil {
		return err
	}
	printResult(g.out(), res)
	return nil
}

func (b *BuildCmd) run(ctx context.Context, g *Global) (*build.Result, error) {
	job, err := config.Load(b.Job)
	if err != nil {
		return nil, err
	}
	b.Apply(job)

	svc, cleanup, err := newService(g, b.ServiceFlags, metrics.NoopRecorder{})
	defer cleanup()
	if err != nil {
		return nil, err
	}
	return svc.Run(ctx, build.Request{Job: job, Options: b.Options()})
}
