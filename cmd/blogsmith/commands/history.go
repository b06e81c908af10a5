package commands

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/mheir/blogsmith/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int `short:"n" default:"20" help:"Number of builds to show"`
}

func (h *HistoryCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.History.Disabled {
		return fmt.Errorf("build history is disabled in %s", root.Config)
	}

	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	runs, err := store.Recent(context.Background(), h.Limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no builds recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tOUTCOME\tPAGES\tDURATION\tPUBLISHED\tBUILD")
	for _, run := range runs {
		published := "no"
		if run.Published {
			published = "yes"
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
			run.Started.Format("2006-01-02 15:04:05"),
			run.Outcome, run.Pages, run.Duration, published, run.BuildID)
	}
	return w.Flush()
}
