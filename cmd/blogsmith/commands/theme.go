package commands

import (
	"context"
	"fmt"

	"github.com/mheir/blogsmith/internal/theme"
)

// ThemeCmd groups theme subcommands.
type ThemeCmd struct {
	Status ThemeStatusCmd `cmd:"" default:"withargs" help:"Show the pinned theme and its locked revision"`
	Update ThemeUpdateCmd `cmd:"" help:"Re-resolve the pin (or a new revision) and rewrite the lock file"`
}

// ThemeStatusCmd prints the pin and the lock state.
type ThemeStatusCmd struct{}

func (t *ThemeStatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Theme.Path != "" {
		fmt.Printf("theme: local path %s (no pin)\n", cfg.Theme.Path)
		return nil
	}

	fmt.Printf("theme: %s @ %s\n", cfg.Theme.URL, cfg.Theme.Revision)
	lock, err := theme.ReadLock(cfg.Theme.LockFile)
	if err != nil {
		return err
	}
	if lock == nil {
		fmt.Println("lock: none (next build resolves and locks the pin)")
		return nil
	}
	if !lock.Matches(cfg.Theme.URL, cfg.Theme.Revision) {
		fmt.Printf("lock: stale (locked %s @ %s, hash %s)\n", lock.URL, lock.Revision, lock.Hash)
		return nil
	}
	fmt.Printf("lock: %s\n", lock.Hash)
	return nil
}

// ThemeUpdateCmd re-resolves the pinned revision and rewrites the lock.
type ThemeUpdateCmd struct {
	Revision string `arg:"" optional:"" help:"New revision to pin (defaults to the configured one)"`
}

func (t *ThemeUpdateCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Theme.Path != "" {
		return fmt.Errorf("theme update does not apply to a local theme path")
	}

	revision := t.Revision
	if revision == "" {
		revision = cfg.Theme.Revision
	}

	fetcher := theme.NewFetcher(cfg.Theme.CacheDir)
	hash, err := fetcher.Resolve(context.Background(), cfg.Theme, revision)
	if err != nil {
		return err
	}

	old, err := theme.ReadLock(cfg.Theme.LockFile)
	if err != nil {
		return err
	}

	lock := &theme.Lock{URL: cfg.Theme.URL, Revision: revision, Hash: hash}
	if err := theme.WriteLock(cfg.Theme.LockFile, lock); err != nil {
		return err
	}

	if old != nil && old.Hash != hash {
		fmt.Printf("theme %s: %s -> %s\n", revision, old.Hash, hash)
	} else {
		fmt.Printf("theme %s: %s\n", revision, hash)
	}
	if revision != cfg.Theme.Revision {
		fmt.Printf("note: update theme.revision in %s to %q to match\n", root.Config, revision)
	}
	return nil
}
