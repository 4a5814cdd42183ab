package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/texdoc/cmd/texdoc/commands"
	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/version"
)

func main() {
	var cli commands.CLI
	parser := kong.Parse(&cli,
		kong.Name("texdoc"),
		kong.Description("Generate LaTeX documents from job files and Markdown, and compile them to PDF."),
		kong.UsageOnError(),
		commands.Vars(version.String()),
	)

	err := parser.Run(&commands.Global{}, &cli)
	derrors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
}
