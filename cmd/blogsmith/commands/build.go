package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/logfields"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Drafts bool `short:"D" help:"Include draft pages"`
	Minify bool `help:"Minify HTML output (overrides config)"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	hist, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	opts := []build.BuilderOption{
		build.WithMinify(b.Minify || cfg.Output.Minify),
		build.WithDrafts(b.Drafts),
	}
	if hist != nil {
		opts = append(opts, build.WithHistory(hist))
	}

	report, err := build.NewBuilder(cfg, opts...).Run(context.Background())
	if err != nil {
		return err
	}
	slog.Info("Site built",
		logfields.Path(cfg.Output.Directory),
		logfields.Pages(report.Pages),
	)
	return nil
}
