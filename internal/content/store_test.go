package content

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_CollectsAndSortsPosts(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts/older.md", "---\ntitle: Older\ndate: 2025-02-01\ntags: [go]\n---\nold\n")
	writeFile(t, dir, "posts/newer.md", "---\ntitle: Newer\ndate: 2026-01-01\ntags: [go, blog]\n---\nnew\n")
	writeFile(t, dir, "about.md", "---\ntitle: About\n---\nhi\n")

	store, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, store.Pages, 3)
	require.Len(t, store.Posts, 2)

	require.Equal(t, "Newer", store.Posts[0].Title())
	require.Equal(t, "Older", store.Posts[1].Title())

	require.Len(t, store.Tags["go"], 2)
	require.Len(t, store.Tags["blog"], 1)
	require.Len(t, store.Sections["posts"], 2)
}

func TestLoad_BrokenFrontmatter_FailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts/ok.md", "---\ntitle: OK\n---\nfine\n")
	writeFile(t, dir, "posts/broken.md", "---\ntitle: Broken\nno closing delimiter\n")

	_, err := Load(dir, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "posts/broken.md")
}

func TestLoad_InvalidYAML_FailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.md", "---\ntitle: [unclosed\n---\nbody\n")

	_, err := Load(dir, false)
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad.md")
}

func TestLoad_DraftsExcludedByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts/draft.md", "---\ntitle: WIP\ndraft: true\n---\nsoon\n")

	store, err := Load(dir, false)
	require.NoError(t, err)
	require.Empty(t, store.Pages)

	store, err = Load(dir, true)
	require.NoError(t, err)
	require.Len(t, store.Pages, 1)
}

func TestLoad_MissingContentDir_ReturnsError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), false)
	require.Error(t, err)
}

func TestPage_PermalinkAndSlug(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts/my-first-post.md", "---\ntitle: My First Post\ndate: 2026-01-01\n---\nhello\n")
	writeFile(t, dir, "posts/custom.md", "---\ntitle: Custom\ndate: 2026-01-02\nslug: something-else\n---\nhello\n")
	writeFile(t, dir, "index.md", "# Home\n")

	store, err := Load(dir, false)
	require.NoError(t, err)

	require.NotNil(t, store.ByPermalink("/posts/my-first-post/"))
	require.NotNil(t, store.ByPermalink("/posts/something-else/"))
	require.NotNil(t, store.ByPermalink("/"))
}

func TestPage_TitleFallsBackToFileName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "posts/some-notes_here.md", "no front matter\n")

	store, err := Load(dir, false)
	require.NoError(t, err)
	require.Len(t, store.Pages, 1)
	require.Equal(t, "Some Notes Here", store.Pages[0].Title())
}
