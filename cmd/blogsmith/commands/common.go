package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/history"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"blogsmith.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" help:"Build the site into the output directory"`
	Serve   ServeCmd   `cmd:"" help:"Serve a local preview with rebuild on change"`
	Publish PublishCmd `cmd:"" help:"Build and publish the site to the configured target"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`
	New     NewCmd     `cmd:"" help:"Create a content file with front matter scaffolding"`
	Lint    LintCmd    `cmd:"" help:"Check content for front matter and link problems"`
	Theme   ThemeCmd   `cmd:"" help:"Inspect or update the pinned theme"`
	Daemon  DaemonCmd  `cmd:"" help:"Run scheduled build-and-publish cycles"`
	History HistoryCmd `cmd:"" help:"Show recent builds"`
}

// AfterApply runs after flag parsing; setup logging once.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig loads and validates the configuration named by the root flag.
func loadConfig(root *CLI) (*config.Config, error) {
	return config.Load(root.Config)
}

// openHistory opens the configured history store, or returns nil when
// history is disabled.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History.Disabled {
		return nil, nil
	}
	return history.Open(cfg.History.Path)
}
