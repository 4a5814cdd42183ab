package commands

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	derrors "git.home.luguber.info/inful/texdoc/internal/errors"
	"git.home.luguber.info/inful/texdoc/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	DB    string `name:"db" help:"SQLite build ledger" env:"TEXDOC_HISTORY" required:""`
	Limit int    `short:"n" help:"Number of builds to show (0 shows all)" default:"20"`
}

func (h *HistoryCmd) Run(g *Global, _ *CLI) error {
	store, err := history.NewSQLiteStore(h.DB)
	if err != nil {
		return derrors.StoreError("open", err)
	}
	defer func() { _ = store.Close() }()

	records, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return derrors.StoreError("list", err)
	}
	if len(records) == 0 {
		_, _ = fmt.Fprintln(g.out(), "No builds recorded")
		return nil
	}

	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "STARTED\tSTATUS\tPASSES\tDURATION\tARTIFACT\tSOURCE")
	for _, r := range records {
		status := string(r.Status)
		if r.Status == history.StatusSuccess && !r.CompileOK {
			status += "*"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
			r.StartedAt.Local().Format(time.DateTime), status, r.Passes,
			r.Duration.Round(time.Millisecond), r.Artifact, r.Source)
	}
	return tw.Flush()
}
