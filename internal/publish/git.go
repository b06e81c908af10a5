package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/gitauth"
	"github.com/mheir/blogsmith/internal/logfields"
)

const defaultCommitMessage = "Publish site"

// GitPublisher commits the output tree to a branch of a git repository and
// pushes it. This is the gh-pages deployment pattern: the branch holds only
// the generated site.
type GitPublisher struct {
	Target config.GitTargetConfig
}

func (p *GitPublisher) Publish(ctx context.Context, outputDir string) error {
	tmp, err := os.MkdirTemp("", "blogsmith-publish-")
	if err != nil {
		return fmt.Errorf("create publish workdir: %w", err)
	}
	defer os.RemoveAll(tmp)

	auth, err := gitauth.Method(p.Target.Auth)
	if err != nil {
		return err
	}

	repo, err := p.checkout(ctx, tmp, auth)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	if err := clearWorktree(tmp); err != nil {
		return fmt.Errorf("clear worktree: %w", err)
	}
	if err := copyTree(outputDir, tmp); err != nil {
		return fmt.Errorf("copy output tree: %w", err)
	}

	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("stage files: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return fmt.Errorf("worktree status: %w", err)
	}
	if status.IsClean() {
		slog.Info("Publish skipped: no changes", logfields.Target(p.Target.URL))
		return nil
	}

	message := p.Target.Message
	if message == "" {
		message = defaultCommitMessage
	}
	_, err = wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "blogsmith",
			Email: "blogsmith@localhost",
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	branch := plumbing.NewBranchReferenceName(p.Target.Branch)
	err = repo.PushContext(ctx, &git.PushOptions{
		Auth:     auth,
		RefSpecs: []gitconfig.RefSpec{gitconfig.RefSpec(branch + ":" + branch)},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("push to %s: %w", p.Target.URL, err)
	}

	slog.Info("Published",
		logfields.Target(p.Target.URL),
		slog.String("branch", p.Target.Branch),
	)
	return nil
}

// checkout clones the target branch, or initializes a fresh repository when
// the branch (or the whole remote) does not exist yet.
func (p *GitPublisher) checkout(ctx context.Context, dir string, auth transport.AuthMethod) (*git.Repository, error) {
	branch := plumbing.NewBranchReferenceName(p.Target.Branch)
	repo, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:           p.Target.URL,
		ReferenceName: branch,
		SingleBranch:  true,
		Auth:          auth,
	})
	if err == nil {
		return repo, nil
	}

	var refspecErr git.NoMatchingRefSpecError
	if !errors.Is(err, transport.ErrEmptyRemoteRepository) &&
		!errors.As(err, &refspecErr) &&
		!errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, fmt.Errorf("clone %s: %w", p.Target.URL, err)
	}

	repo, err = git.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf("init publish repository: %w", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: git.DefaultRemoteName,
		URLs: []string{p.Target.URL},
	}); err != nil {
		return nil, fmt.Errorf("configure remote: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, branch)); err != nil {
		return nil, fmt.Errorf("select branch %s: %w", p.Target.Branch, err)
	}
	return repo, nil
}

func clearWorktree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
