package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/config"
)

func writeFile(t *testing.T, root, name, body string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func outputTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html>home</html>")
	writeFile(t, dir, "posts/first/index.html", "<html>first</html>")
	writeFile(t, dir, "css/site.css", "body{}")
	return dir
}

func TestNewSelectsPublisher(t *testing.T) {
	p, err := New(config.PublishConfig{Type: config.PublishDir, Directory: t.TempDir()})
	require.NoError(t, err)
	require.IsType(t, &DirPublisher{}, p)

	p, err = New(config.PublishConfig{Type: config.PublishGit, Git: &config.GitTargetConfig{URL: "x", Branch: "gh-pages"}})
	require.NoError(t, err)
	require.IsType(t, &GitPublisher{}, p)

	_, err = New(config.PublishConfig{Type: "ftp"})
	require.Error(t, err)
}

func TestDirPublisherCopiesTree(t *testing.T) {
	out := outputTree(t)
	target := filepath.Join(t.TempDir(), "site")

	err := (&DirPublisher{Target: target}).Publish(context.Background(), out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(target, "posts", "first", "index.html"))
	require.NoError(t, err)
	require.Equal(t, "<html>first</html>", string(data))
}

func TestDirPublisherReplacesPreviousTree(t *testing.T) {
	out := outputTree(t)
	target := filepath.Join(t.TempDir(), "site")
	writeFile(t, target, "stale.html", "old")

	err := (&DirPublisher{Target: target}).Publish(context.Background(), out)
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(target, "stale.html"))
	require.True(t, os.IsNotExist(statErr), "stale files must not survive a publish")
	_, statErr = os.Stat(filepath.Join(target, "index.html"))
	require.NoError(t, statErr)
}

func TestDirPublisherSkipsWhenUnchanged(t *testing.T) {
	out := outputTree(t)
	m, err := build.ComputeManifest(out)
	require.NoError(t, err)
	require.NoError(t, build.WriteManifest(out, m))

	target := filepath.Join(t.TempDir(), "site")
	pub := &DirPublisher{Target: target}
	require.NoError(t, pub.Publish(context.Background(), out))

	// A marker inside the target survives a skipped publish and is wiped
	// by a real one.
	writeFile(t, target, "marker.html", "still here")
	require.NoError(t, pub.Publish(context.Background(), out))
	_, statErr := os.Stat(filepath.Join(target, "marker.html"))
	require.NoError(t, statErr, "unchanged output must not be re-copied")

	writeFile(t, out, "posts/second/index.html", "<html>second</html>")
	m, err = build.ComputeManifest(out)
	require.NoError(t, err)
	require.NoError(t, build.WriteManifest(out, m))

	require.NoError(t, pub.Publish(context.Background(), out))
	_, statErr = os.Stat(filepath.Join(target, "marker.html"))
	require.True(t, os.IsNotExist(statErr))
	_, statErr = os.Stat(filepath.Join(target, "posts", "second", "index.html"))
	require.NoError(t, statErr)
}

func TestGitPublisherCreatesBranchAndPushes(t *testing.T) {
	remote := t.TempDir()
	_, err := git.PlainInit(remote, true)
	require.NoError(t, err)

	pub := &GitPublisher{Target: config.GitTargetConfig{
		URL:     remote,
		Branch:  "gh-pages",
		Message: "Deploy",
	}}
	require.NoError(t, pub.Publish(context.Background(), outputTree(t)))

	repo, err := git.PlainOpen(remote)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)

	commit, err := repo.CommitObject(ref.Hash())
	require.NoError(t, err)
	require.Equal(t, "Deploy", commit.Message)

	tree, err := commit.Tree()
	require.NoError(t, err)
	_, err = tree.File("posts/first/index.html")
	require.NoError(t, err)
}

func TestGitPublisherSkipsWhenUnchanged(t *testing.T) {
	remote := t.TempDir()
	_, err := git.PlainInit(remote, true)
	require.NoError(t, err)

	out := outputTree(t)
	pub := &GitPublisher{Target: config.GitTargetConfig{URL: remote, Branch: "gh-pages"}}
	require.NoError(t, pub.Publish(context.Background(), out))

	repo, err := git.PlainOpen(remote)
	require.NoError(t, err)
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	first := ref.Hash()

	// Same tree again: nothing to commit, branch head must not move.
	require.NoError(t, pub.Publish(context.Background(), out))
	ref, err = repo.Reference(plumbing.NewBranchReferenceName("gh-pages"), true)
	require.NoError(t, err)
	require.Equal(t, first, ref.Hash())
}
