package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mheir/blogsmith/internal/frontmatter"
	"github.com/mheir/blogsmith/internal/render"
)

// NewCmd implements the 'new' command: scaffold a content file with front
// matter so authors never hand-type the delimiter block.
type NewCmd struct {
	Title string `arg:"" help:"Title of the new post or page"`
	Page  bool   `help:"Create a standalone page at the content root instead of a post"`
}

func (n *NewCmd) Run(_ *Global, root *CLI) error {
	cfg, err := loadConfig(root)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	slug := render.Slugify(n.Title)
	if slug == "" {
		return fmt.Errorf("title %q produces an empty slug", n.Title)
	}

	dir := filepath.Join(cfg.Content.Directory, "posts")
	if n.Page {
		dir = cfg.Content.Directory
	}
	target := filepath.Join(dir, slug+".md")
	if _, err := os.Stat(target); err == nil {
		return fmt.Errorf("%s already exists", target)
	}

	fields := map[string]any{
		"title": n.Title,
		"draft": true,
	}
	if !n.Page {
		fields["date"] = time.Now().Format("2006-01-02")
	}

	style := frontmatter.Style{Newline: "\n", HasTrailingNewline: true}
	fm, err := frontmatter.SerializeYAML(fields, style)
	if err != nil {
		return fmt.Errorf("serialize front matter: %w", err)
	}
	doc := frontmatter.Join(fm, []byte("\n"), true, style)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create content directory: %w", err)
	}
	if err := os.WriteFile(target, doc, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	fmt.Printf("Wrote %s\n", target)
	return nil
}
