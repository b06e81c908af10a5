package theme

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/gitauth"
	"github.com/mheir/blogsmith/internal/logfields"
)

// Fetcher materializes the pinned theme into the local cache.
type Fetcher struct {
	cacheDir string
}

// NewFetcher creates a fetcher rooted at the given cache directory.
func NewFetcher(cacheDir string) *Fetcher { return &Fetcher{cacheDir: cacheDir} }

// Ensure makes the pinned theme available on disk and returns its checkout.
//
// For a local theme (cfg.Path) no fetching happens. For a remote theme the
// repository is cloned into the cache (or fetched if already present) and
// the pinned revision is checked out. When the lock file still matches the
// pin, the locked hash wins so builds stay reproducible across re-tags.
func (f *Fetcher) Ensure(ctx context.Context, cfg config.ThemeConfig) (*Theme, string, error) {
	if cfg.Path != "" {
		if _, err := os.Stat(cfg.Path); err != nil {
			return nil, "", fmt.Errorf("theme path not found: %s", cfg.Path)
		}
		return &Theme{Dir: cfg.Path}, "", nil
	}

	lock, err := ReadLock(cfg.LockFile)
	if err != nil {
		return nil, "", err
	}

	repoDir := filepath.Join(f.cacheDir, repoDirName(cfg.URL))
	repo, err := f.openOrClone(ctx, repoDir, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("fetch theme %s: %w", cfg.URL, err)
	}

	var hash plumbing.Hash
	if lock.Matches(cfg.URL, cfg.Revision) {
		hash = plumbing.NewHash(lock.Hash)
		slog.Debug("Using locked theme revision", logfields.Revision(lock.Hash))
	} else {
		hash, err = resolveRevision(repo, cfg.Revision)
		if err != nil {
			return nil, "", fmt.Errorf("resolve theme revision %q: %w", cfg.Revision, err)
		}
		if cfg.LockFile != "" {
			newLock := &Lock{URL: cfg.URL, Revision: cfg.Revision, Hash: hash.String()}
			if err := WriteLock(cfg.LockFile, newLock); err != nil {
				return nil, "", err
			}
		}
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, "", fmt.Errorf("theme worktree: %w", err)
	}
	if err := worktree.Checkout(&git.CheckoutOptions{Hash: hash, Force: true}); err != nil {
		return nil, "", fmt.Errorf("checkout theme revision %s: %w", hash, err)
	}

	slog.Info("Theme ready",
		logfields.URL(cfg.URL),
		logfields.Revision(cfg.Revision),
		slog.String("commit", hash.String()[:8]))

	return &Theme{Dir: repoDir}, hash.String(), nil
}

// Resolve resolves the given revision against the remote without touching
// the lock file. Used by `theme update` to report old -> new.
func (f *Fetcher) Resolve(ctx context.Context, cfg config.ThemeConfig, revision string) (string, error) {
	repoDir := filepath.Join(f.cacheDir, repoDirName(cfg.URL))
	repo, err := f.openOrClone(ctx, repoDir, cfg)
	if err != nil {
		return "", fmt.Errorf("fetch theme %s: %w", cfg.URL, err)
	}
	hash, err := resolveRevision(repo, revision)
	if err != nil {
		return "", fmt.Errorf("resolve theme revision %q: %w", revision, err)
	}
	return hash.String(), nil
}

func (f *Fetcher) openOrClone(ctx context.Context, repoDir string, cfg config.ThemeConfig) (*git.Repository, error) {
	auth, err := gitauth.Method(cfg.Auth)
	if err != nil {
		return nil, err
	}

	if _, statErr := os.Stat(filepath.Join(repoDir, ".git")); statErr == nil {
		repo, err := git.PlainOpen(repoDir)
		if err != nil {
			return nil, fmt.Errorf("open cached theme: %w", err)
		}
		err = repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin", Auth: auth, Tags: git.AllTags})
		if err != nil && err != git.NoErrAlreadyUpToDate {
			return nil, fmt.Errorf("fetch updates: %w", err)
		}
		return repo, nil
	}

	if err := os.MkdirAll(f.cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("create theme cache: %w", err)
	}
	repo, err := git.PlainCloneContext(ctx, repoDir, false, &git.CloneOptions{
		URL:  cfg.URL,
		Auth: auth,
		Tags: git.AllTags,
	})
	if err != nil {
		return nil, err
	}
	return repo, nil
}

// resolveRevision maps a pin (tag, branch or hash) to a commit hash.
func resolveRevision(repo *git.Repository, revision string) (plumbing.Hash, error) {
	for _, candidate := range []string{
		revision,
		"refs/tags/" + revision,
		"refs/remotes/origin/" + revision,
	} {
		if h, err := repo.ResolveRevision(plumbing.Revision(candidate)); err == nil {
			return *h, nil
		}
	}
	return plumbing.ZeroHash, fmt.Errorf("revision not found")
}

// repoDirName derives a cache directory name from a git URL.
func repoDirName(url string) string {
	name := strings.TrimSuffix(url, ".git")
	if i := strings.LastIndexAny(name, "/:"); i >= 0 {
		name = name[i+1:]
	}
	if name == "" {
		name = "theme"
	}
	return name
}
