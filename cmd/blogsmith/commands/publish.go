package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/history"
	"github.com/mheir/blogsmith/internal/logfields"
	"github.com/mheir/blogsmith/internal/publish"
)

// PublishCmd implements the 'publish' command: a full production build
// followed by a push to the configured target. A failed build publishes
// nothing.
type PublishCmd struct {
	SkipBuild bool `help:"Publish the existing output tree without rebuilding"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pub, err := publish.New(cfg.Publish)
	if err != nil {
		return err
	}

	ctx := context.Background()

	var (
		hist    *history.Store
		buildID string
	)
	if !p.SkipBuild {
		hist, err = openHistory(cfg)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		if hist != nil {
			defer hist.Close()
		}

		opts := []build.BuilderOption{build.WithMinify(true)}
		if hist != nil {
			opts = append(opts, build.WithHistory(hist))
		}
		report, err := build.NewBuilder(cfg, opts...).Run(ctx)
		if err != nil {
			return fmt.Errorf("build before publish: %w", err)
		}
		buildID = report.BuildID
	}

	if err := pub.Publish(ctx, cfg.Output.Directory); err != nil {
		return err
	}
	if hist != nil && buildID != "" {
		if err := hist.MarkPublished(ctx, buildID); err != nil {
			slog.Warn("Could not record publish in history", logfields.Error(err))
		}
	}
	slog.Info("Publish complete", logfields.Outcome("success"))
	return nil
}
