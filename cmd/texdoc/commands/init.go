package commands

import (
	"fmt"

	"git.home.luguber.info/inful/texdoc/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Path  string `arg:"" optional:"" help:"Where to write the job file" default:"texdoc.yaml" type:"path"`
	Force bool   `help:"Overwrite an existing job file"`
}

func (i *InitCmd) Run(g *Global, _ *CLI) error {
	if err := config.Init(i.Path, i.Force); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(g.out(), "Wrote example job to %s\n", i.Path)
	return nil
}
