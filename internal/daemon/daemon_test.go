package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mheir/blogsmith/internal/build"
	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/history"
)

type countingPublisher struct {
	calls int
}

func (p *countingPublisher) Publish(context.Context, string) error {
	p.calls++
	return nil
}

type failingPublisher struct {
	calls int
}

func (p *failingPublisher) Publish(context.Context, string) error {
	p.calls++
	return errors.New("target unavailable")
}

// slowPublisher holds each publish open for a while and touches the content
// tree so the next build produces a different manifest.
type slowPublisher struct {
	delay      time.Duration
	contentDir string

	mu       sync.Mutex
	inFlight int
	maxSeen  int
	calls    int
}

func (p *slowPublisher) Publish(context.Context, string) error {
	p.mu.Lock()
	p.inFlight++
	if p.inFlight > p.maxSeen {
		p.maxSeen = p.inFlight
	}
	p.calls++
	n := p.calls
	p.mu.Unlock()

	body := fmt.Sprintf("---\ntitle: Extra %d\ndate: 2026-01-02\n---\nMore.\n", n)
	_ = os.WriteFile(filepath.Join(p.contentDir, "posts", fmt.Sprintf("extra-%d.md", n)), []byte(body), 0o644)
	time.Sleep(p.delay)

	p.mu.Lock()
	p.inFlight--
	p.mu.Unlock()
	return nil
}

func writeFile(t *testing.T, root, name, body string) {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func fixtureConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "theme/layouts/base.html",
		`<html><body>{{with .Page}}{{.Title}}{{end}}{{range .Pages}}{{.Title}}{{end}}</body></html>`)
	writeFile(t, root, "content/posts/hello.md", "---\ntitle: Hello\ndate: 2026-01-01\n---\nHi.\n")

	return &config.Config{
		Site:    config.SiteConfig{Title: "Daemon Test", BaseURL: "https://example.com", DefaultLayout: "base"},
		Content: config.ContentConfig{Directory: filepath.Join(root, "content")},
		Theme:   config.ThemeConfig{Path: filepath.Join(root, "theme")},
		Output:  config.OutputConfig{Directory: filepath.Join(root, "public")},
		Daemon:  &config.DaemonConfig{Interval: time.Minute, Publish: true},
	}
}

func TestNewRequiresDaemonConfig(t *testing.T) {
	_, err := New(&config.Config{}, nil)
	require.Error(t, err)
}

func TestCyclePublishesOnlyWhenOutputChanged(t *testing.T) {
	cfg := fixtureConfig(t)
	pub := &countingPublisher{}
	d := &Daemon{
		cfg:       cfg,
		builder:   build.NewBuilder(cfg),
		publisher: pub,
	}

	ctx := context.Background()
	d.cycle(ctx)
	require.Equal(t, 1, pub.calls)

	// Unchanged content: build succeeds but publish is skipped.
	d.cycle(ctx)
	require.Equal(t, 1, pub.calls)

	// Content change invalidates the last published hash.
	writeFile(t, filepath.Dir(cfg.Content.Directory), "content/posts/new.md",
		"---\ntitle: New\ndate: 2026-02-01\n---\nFresh.\n")
	d.cycle(ctx)
	require.Equal(t, 2, pub.calls)
}

func TestCycleToleratesBuildFailure(t *testing.T) {
	cfg := fixtureConfig(t)
	pub := &countingPublisher{}
	d := &Daemon{cfg: cfg, builder: build.NewBuilder(cfg), publisher: pub}

	writeFile(t, filepath.Dir(cfg.Content.Directory), "content/posts/broken.md",
		"---\ntitle: Broken\nNo closing delimiter.\n")

	d.cycle(context.Background())
	require.Zero(t, pub.calls, "failed builds must not publish")
}

func TestRunSerializesCycles(t *testing.T) {
	cfg := fixtureConfig(t)
	cfg.Daemon.Interval = 10 * time.Millisecond
	cfg.Daemon.Publish = false

	d, err := New(cfg, nil)
	require.NoError(t, err)
	pub := &slowPublisher{delay: 200 * time.Millisecond, contentDir: cfg.Content.Directory}
	d.publisher = pub

	ctx, cancel := context.WithTimeout(context.Background(), 900*time.Millisecond)
	defer cancel()
	require.NoError(t, d.Run(ctx))

	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.GreaterOrEqual(t, pub.calls, 2, "ticks after the first cycle must still fire")
	require.Equal(t, 1, pub.maxSeen, "cycles must not overlap")
}

func TestRestartSeedsOnlyPublishedBuilds(t *testing.T) {
	cfg := fixtureConfig(t)
	hist, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer hist.Close()

	ctx := context.Background()

	// Build succeeds but the publish does not.
	failing := &failingPublisher{}
	d := &Daemon{cfg: cfg, builder: build.NewBuilder(cfg, build.WithHistory(hist)), publisher: failing, hist: hist}
	d.cycle(ctx)
	require.Equal(t, 1, failing.calls)

	seed, err := hist.LastPublishedHash(ctx)
	require.NoError(t, err)
	require.Empty(t, seed, "a build whose publish failed must not seed change detection")

	// A restarted daemon with that seed retries even though the output
	// is unchanged.
	pub := &countingPublisher{}
	d2 := &Daemon{cfg: cfg, builder: build.NewBuilder(cfg, build.WithHistory(hist)), publisher: pub, hist: hist, lastPublished: seed}
	d2.cycle(ctx)
	require.Equal(t, 1, pub.calls)

	seed, err = hist.LastPublishedHash(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, seed)
}
