package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mheir/blogsmith/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct{}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Daemon == nil {
		return fmt.Errorf("no daemon section in %s", root.Config)
	}

	hist, err := openHistory(cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	if hist != nil {
		defer hist.Close()
	}

	dm, err := daemon.New(cfg, hist)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return dm.Run(ctx)
}
