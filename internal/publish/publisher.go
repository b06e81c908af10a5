// Package publish pushes a fully built output tree to its target. A
// publisher only ever sees output that an entire build produced; partial
// trees never reach this package.
package publish

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/logfields"
)

// Publisher sends a built output tree to a target.
type Publisher interface {
	Publish(ctx context.Context, outputDir string) error
}

// New creates the publisher selected by the configuration.
func New(cfg config.PublishConfig) (Publisher, error) {
	switch cfg.Type {
	case config.PublishDir:
		if cfg.Directory == "" {
			return nil, fmt.Errorf("publish.directory is not configured")
		}
		return &DirPublisher{Target: cfg.Directory}, nil
	case config.PublishGit:
		if cfg.Git == nil {
			return nil, fmt.Errorf("publish.git is not configured")
		}
		return &GitPublisher{Target: *cfg.Git}, nil
	default:
		return nil, fmt.Errorf("unsupported publish type: %s", cfg.Type)
	}
}

// DirPublisher copies the output tree into a local directory, replacing
// whatever was there in a single rename.
type DirPublisher struct {
	Target string
}

func (p *DirPublisher) Publish(_ context.Context, outputDir string) error {
	next, err := build.LoadManifest(outputDir)
	if err != nil {
		return fmt.Errorf("read output manifest: %w", err)
	}
	// An unreadable previous manifest just forces a fresh copy.
	if prev, err := build.LoadManifest(p.Target); err == nil && next != nil && next.Equal(prev) {
		slog.Info("Publish skipped: no changes", logfields.Target(p.Target))
		return nil
	}

	parent := filepath.Dir(p.Target)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create publish parent: %w", err)
	}
	tmp, err := os.MkdirTemp(parent, ".publish-")
	if err != nil {
		return fmt.Errorf("create publish staging: %w", err)
	}
	defer os.RemoveAll(tmp)

	if err := copyTree(outputDir, tmp); err != nil {
		return fmt.Errorf("copy output tree: %w", err)
	}

	old := p.Target + ".old"
	_ = os.RemoveAll(old)
	hadPrevious := true
	if err := os.Rename(p.Target, old); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("move previous publish aside: %w", err)
		}
		hadPrevious = false
	}
	if err := os.Rename(tmp, p.Target); err != nil {
		if hadPrevious {
			_ = os.Rename(old, p.Target)
		}
		return fmt.Errorf("install published tree: %w", err)
	}
	if hadPrevious {
		_ = os.RemoveAll(old)
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(path, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
