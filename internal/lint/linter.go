package lint

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mheir/blogsmith/internal/frontmatter"
	"github.com/mheir/blogsmith/internal/markdown"
)

// Linter validates all content files under a content directory.
type Linter struct {
	contentDir string
}

// NewLinter creates a linter for the given content directory.
func NewLinter(contentDir string) *Linter {
	return &Linter{contentDir: contentDir}
}

// Run lints every markdown file in the content directory.
//
// Unlike the build's content loader, the linter does not stop at the first
// problem: it reports everything it finds so an author can fix a batch of
// files in one pass.
func (l *Linter) Run() (*Result, error) {
	if _, err := os.Stat(l.contentDir); err != nil {
		return nil, fmt.Errorf("content directory: %w", err)
	}

	result := &Result{}
	permalinks := map[string]bool{}
	type parsed struct {
		rel  string
		body []byte
	}
	var bodies []parsed

	err := filepath.WalkDir(l.contentDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		rel, relErr := filepath.Rel(l.contentDir, p)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)
		result.FilesTotal++

		raw, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}

		body, permalink := l.checkFile(rel, raw, result)
		if permalink != "" {
			permalinks[permalink] = true
		}
		if body != nil {
			bodies = append(bodies, parsed{rel: rel, body: body})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Second pass: internal links can only be verified once every permalink
	// is known.
	for _, b := range bodies {
		l.checkLinks(b.rel, b.body, permalinks, result)
	}
	return result, nil
}

// checkFile runs the front matter rules and returns the markdown body plus
// the file's permalink for the link pass. A nil body means the file was too
// broken to analyze further.
func (l *Linter) checkFile(rel string, raw []byte, result *Result) ([]byte, string) {
	fm, body, had, _, err := frontmatter.Split(raw)
	if err != nil {
		result.Issues = append(result.Issues, Issue{
			FilePath: rel,
			Severity: SeverityError,
			Rule:     "frontmatter-delimiters",
			Message:  err.Error(),
		})
		return nil, ""
	}

	meta := frontmatter.Metadata{}
	if had {
		fields, err := frontmatter.ParseYAML(fm)
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				FilePath: rel,
				Severity: SeverityError,
				Rule:     "frontmatter-yaml",
				Message:  fmt.Sprintf("invalid YAML: %v", err),
			})
			return nil, ""
		}
		meta, err = frontmatter.Decode(fields)
		if err != nil {
			result.Issues = append(result.Issues, Issue{
				FilePath: rel,
				Severity: SeverityError,
				Rule:     "frontmatter-fields",
				Message:  err.Error(),
			})
			return body, ""
		}
	}

	if meta.Title == "" {
		result.Issues = append(result.Issues, Issue{
			FilePath: rel,
			Severity: SeverityWarning,
			Rule:     "missing-title",
			Message:  "no title in front matter; the file name will be used",
		})
	}
	if strings.HasPrefix(rel, "posts/") && meta.Date.IsZero() {
		result.Issues = append(result.Issues, Issue{
			FilePath: rel,
			Severity: SeverityWarning,
			Rule:     "post-without-date",
			Message:  "post has no date and will sort last",
		})
	}

	return body, permalinkOf(rel, meta.Slug)
}

// permalinkOf mirrors the content package's permalink derivation closely
// enough for link checking.
func permalinkOf(rel, slug string) string {
	base := strings.TrimSuffix(path.Base(rel), path.Ext(rel))
	if slug == "" {
		slug = strings.ToLower(strings.NewReplacer(" ", "-", "_", "-").Replace(base))
	}
	dir := path.Dir(rel)
	if dir == "." {
		if slug == "index" || slug == "home" {
			return "/"
		}
		return "/" + slug + "/"
	}
	section, _, _ := strings.Cut(dir, "/")
	return "/" + section + "/" + slug + "/"
}

// checkLinks flags internal links that resolve to nothing.
func (l *Linter) checkLinks(rel string, body []byte, permalinks map[string]bool, result *Result) {
	links, err := markdown.ExtractLinks(body)
	if err != nil {
		return
	}

	for _, link := range links {
		dest := link.Destination
		if dest == "" || strings.HasPrefix(dest, "#") {
			continue
		}
		if u, err := url.Parse(dest); err != nil || u.Scheme != "" || u.Host != "" {
			// External links are out of scope for offline verification.
			continue
		}
		if !strings.HasPrefix(dest, "/") {
			continue
		}

		target := dest
		if i := strings.IndexAny(target, "#?"); i >= 0 {
			target = target[:i]
		}
		if !strings.HasSuffix(target, "/") {
			// Asset links (/img/foo.png) are served from static dirs which the
			// linter does not see.
			continue
		}
		if isGeneratedIndex(target) {
			continue
		}
		if !permalinks[target] {
			result.Issues = append(result.Issues, Issue{
				FilePath: rel,
				Severity: SeverityError,
				Rule:     "broken-internal-link",
				Message:  fmt.Sprintf("link target %s does not match any content file", dest),
			})
		}
	}
}

// isGeneratedIndex reports whether a path is produced by the renderer rather
// than a content file (section lists, taxonomy pages).
func isGeneratedIndex(target string) bool {
	trimmed := strings.Trim(target, "/")
	if trimmed == "" {
		return true
	}
	parts := strings.Split(trimmed, "/")
	if len(parts) == 1 {
		// Section index like /posts/.
		return true
	}
	return parts[0] == "tags" || parts[0] == "categories"
}
