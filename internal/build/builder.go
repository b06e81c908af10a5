// Package build runs the fetch-render-write pipeline. A build either
// completes fully or leaves the previous output tree untouched: all pages
// are rendered into a staging directory which replaces the output directory
// only after every stage has succeeded.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/content"
	"github.com/mheir/blogsmith/internal/history"
	"github.com/mheir/blogsmith/internal/lint"
	"github.com/mheir/blogsmith/internal/logfields"
	"github.com/mheir/blogsmith/internal/metrics"
	"github.com/mheir/blogsmith/internal/render"
	"github.com/mheir/blogsmith/internal/theme"
)

// state is shared by stages during a single build.
type state struct {
	cfg      *config.Config
	theme    *theme.Theme
	store    *content.Store
	staging  string
	report   *Report
	recorder metrics.Recorder
}

// Builder runs builds against a fixed configuration.
type Builder struct {
	cfg           *config.Config
	fetcher       *theme.Fetcher
	recorder      metrics.Recorder
	history       *history.Store
	minify        bool
	liveReload    bool
	includeDrafts bool
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithMinify enables minified output (production mode).
func WithMinify(on bool) BuilderOption { return func(b *Builder) { b.minify = on } }

// WithLiveReload injects the live reload client into rendered pages.
func WithLiveReload(on bool) BuilderOption { return func(b *Builder) { b.liveReload = on } }

// WithDrafts includes draft pages in the build.
func WithDrafts(on bool) BuilderOption { return func(b *Builder) { b.includeDrafts = on } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) BuilderOption { return func(b *Builder) { b.recorder = r } }

// WithHistory records finished builds in the given store.
func WithHistory(h *history.Store) BuilderOption { return func(b *Builder) { b.history = h } }

// NewBuilder creates a Builder for the given configuration.
func NewBuilder(cfg *config.Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		cfg:      cfg,
		fetcher:  theme.NewFetcher(cfg.Theme.CacheDir),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run executes one full build. On failure the existing output directory is
// left exactly as it was; the returned Report is valid in both cases.
func (b *Builder) Run(ctx context.Context) (*Report, error) {
	report := newReport(uuid.NewString())
	st := &state{cfg: b.cfg, report: report, recorder: b.recorder}

	slog.Info("Build started", logfields.BuildID(report.BuildID))

	stages := []StageDef{
		{Name: "ensure_theme", Kind: KindTheme, Fn: b.ensureTheme},
		{Name: "load_content", Kind: KindContent, Fn: b.loadContent},
		{Name: "validate", Kind: KindContent, Fn: b.validate},
		{Name: "render", Kind: KindRender, Fn: b.renderSite},
		{Name: "write_output", Kind: KindOutput, Fn: b.writeOutput},
	}

	err := runStages(ctx, st, stages)
	if st.staging != "" {
		// Staging survives only until the swap in write_output.
		_ = os.RemoveAll(st.staging)
	}

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailed
		var se *StageError
		if errors.As(err, &se) && se.Kind == KindCanceled {
			outcome = OutcomeCanceled
		}
	}
	report.finish(outcome)

	b.recorder.ObserveBuildDuration(report.Duration)
	b.recorder.IncBuildOutcome(string(outcome))
	if outcome == OutcomeSuccess {
		b.recorder.SetPagesRendered(report.Pages)
	}

	if b.history != nil {
		rec := history.Run{
			BuildID:      report.BuildID,
			Started:      report.Started,
			Duration:     report.Duration,
			Outcome:      string(outcome),
			Pages:        report.Pages,
			ManifestHash: report.ManifestHash,
		}
		if herr := b.history.Record(ctx, rec); herr != nil {
			slog.Warn("Failed to record build history", logfields.Error(herr))
		}
	}

	if err != nil {
		slog.Error("Build failed",
			logfields.BuildID(report.BuildID),
			logfields.DurationMS(float64(report.Duration.Milliseconds())),
			logfields.Error(err),
		)
		return report, err
	}

	slog.Info("Build complete",
		logfields.BuildID(report.BuildID),
		logfields.Pages(report.Pages),
		logfields.DurationMS(float64(report.Duration.Milliseconds())),
	)
	return report, nil
}

func (b *Builder) ensureTheme(ctx context.Context, st *state) error {
	th, hash, err := b.fetcher.Ensure(ctx, b.cfg.Theme)
	if err != nil {
		return err
	}
	st.theme = th
	slog.Debug("Theme ready", logfields.Theme(th.Dir), logfields.Revision(hash))
	return nil
}

func (b *Builder) loadContent(_ context.Context, st *state) error {
	store, err := content.Load(b.cfg.Content.Directory, b.includeDrafts)
	if err != nil {
		return err
	}
	st.store = store
	return nil
}

func (b *Builder) validate(_ context.Context, st *state) error {
	result, err := lint.NewLinter(b.cfg.Content.Directory).Run()
	if err != nil {
		return err
	}
	for _, issue := range result.Issues {
		if issue.Severity == lint.SeverityWarning {
			slog.Warn("Content issue", logfields.Path(issue.FilePath), slog.String("rule", issue.Rule), slog.String("detail", issue.Message))
		}
	}
	if result.HasErrors() {
		return fmt.Errorf("%d content error(s), first: %s", result.ErrorCount(), firstError(result))
	}
	return nil
}

func firstError(result *lint.Result) string {
	for _, issue := range result.Issues {
		if issue.Severity == lint.SeverityError {
			return fmt.Sprintf("%s: %s", issue.FilePath, issue.Message)
		}
	}
	return ""
}

func (b *Builder) renderSite(_ context.Context, st *state) error {
	parent := filepath.Dir(b.cfg.Output.Directory)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return fmt.Errorf("create output parent: %w", err)
	}
	staging, err := os.MkdirTemp(parent, ".staging-")
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}
	st.staging = staging

	layouts, err := st.theme.LoadLayouts(render.FuncMap())
	if err != nil {
		return err
	}
	renderer := render.New(b.cfg.Site, layouts,
		render.WithMinify(b.minify),
		render.WithLiveReload(b.liveReload),
	)
	pages, err := renderer.Render(st.store, staging)
	if err != nil {
		return err
	}
	st.report.Pages = pages

	if static := st.theme.StaticDir(); static != "" {
		if err := copyTree(static, staging); err != nil {
			return fmt.Errorf("copy theme assets: %w", err)
		}
	}
	// Site static files win over theme files of the same name.
	if static := b.cfg.Content.StaticDirectory; static != "" {
		if _, err := os.Stat(static); err == nil {
			if err := copyTree(static, staging); err != nil {
				return fmt.Errorf("copy site assets: %w", err)
			}
		}
	}
	return nil
}

func (b *Builder) writeOutput(_ context.Context, st *state) error {
	manifest, err := ComputeManifest(st.staging)
	if err != nil {
		return fmt.Errorf("compute manifest: %w", err)
	}
	if err := WriteManifest(st.staging, manifest); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	st.report.ManifestHash = manifest.Sum()

	if err := swapDirs(st.staging, b.cfg.Output.Directory); err != nil {
		return err
	}
	st.staging = ""
	return nil
}

// swapDirs replaces dst with src. The previous dst is removed only after
// src has taken its place, so a failed swap keeps the old tree.
func swapDirs(src, dst string) error {
	old := dst + ".old"
	_ = os.RemoveAll(old)

	hadPrevious := true
	if err := os.Rename(dst, old); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("move previous output aside: %w", err)
		}
		hadPrevious = false
	}
	if err := os.Rename(src, dst); err != nil {
		if hadPrevious {
			_ = os.Rename(old, dst)
		}
		return fmt.Errorf("install new output: %w", err)
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
