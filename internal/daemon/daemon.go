// Package daemon runs scheduled build-and-publish cycles. One cycle builds
// the site and, when publishing is enabled and the output changed since the
// last publish, pushes it to the configured target.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-co-op/gocron/v2"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/history"
	"github.com/mheir/blogsmith/internal/logfields"
	"github.com/mheir/blogsmith/internal/publish"
)

// Daemon owns the scheduler and the shared builder/publisher pair.
type Daemon struct {
	cfg       *config.Config
	builder   *build.Builder
	publisher publish.Publisher
	scheduler gocron.Scheduler
	hist      *history.Store

	mu            sync.Mutex
	lastPublished string
}

// New creates a daemon from the configuration. The history store, when
// given, seeds change detection and records every scheduled build.
func New(cfg *config.Config, hist *history.Store) (*Daemon, error) {
	if cfg.Daemon == nil {
		return nil, fmt.Errorf("daemon configuration missing")
	}

	opts := []build.BuilderOption{build.WithMinify(cfg.Output.Minify)}
	if hist != nil {
		opts = append(opts, build.WithHistory(hist))
	}

	d := &Daemon{
		cfg:     cfg,
		builder: build.NewBuilder(cfg, opts...),
		hist:    hist,
	}

	if cfg.Daemon.Publish {
		pub, err := publish.New(cfg.Publish)
		if err != nil {
			return nil, err
		}
		d.publisher = pub
	}

	if hist != nil {
		hash, err := hist.LastPublishedHash(context.Background())
		if err != nil {
			slog.Warn("Could not read last publish from history", logfields.Error(err))
		}
		d.lastPublished = hash
	}

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	d.scheduler = scheduler
	return d, nil
}

// Run schedules the periodic cycle and blocks until ctx is canceled. The
// first cycle runs immediately rather than waiting a full interval, and
// cycles never overlap: a tick that fires mid-cycle is rescheduled.
func (d *Daemon) Run(ctx context.Context) error {
	_, err := d.scheduler.NewJob(
		gocron.DurationJob(d.cfg.Daemon.Interval),
		gocron.NewTask(d.cycle, ctx),
		gocron.WithName("build-publish"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return fmt.Errorf("schedule build job: %w", err)
	}

	slog.Info("Daemon started", slog.Duration("interval", d.cfg.Daemon.Interval))
	d.scheduler.Start()

	<-ctx.Done()
	slog.Info("Daemon stopping")
	return d.scheduler.Shutdown()
}

// cycle is one scheduled build-and-publish pass. Failures are logged, not
// fatal: the next tick tries again.
func (d *Daemon) cycle(ctx context.Context) {
	report, err := d.builder.Run(ctx)
	if err != nil {
		return // builder already logged the failure
	}

	if d.publisher == nil {
		return
	}

	d.mu.Lock()
	unchanged := report.ManifestHash == d.lastPublished
	d.mu.Unlock()
	if unchanged {
		slog.Info("Publish skipped: output unchanged", logfields.BuildID(report.BuildID))
		return
	}

	if err := d.publisher.Publish(ctx, d.cfg.Output.Directory); err != nil {
		slog.Error("Publish failed", logfields.BuildID(report.BuildID), logfields.Error(err))
		return
	}

	if d.hist != nil {
		if err := d.hist.MarkPublished(ctx, report.BuildID); err != nil {
			slog.Warn("Could not record publish in history", logfields.BuildID(report.BuildID), logfields.Error(err))
		}
	}

	d.mu.Lock()
	d.lastPublished = report.ManifestHash
	d.mu.Unlock()
}
