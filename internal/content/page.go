package content

import (
	"path"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mheir/blogsmith/internal/frontmatter"
)

// Page is a single piece of content: a blog post or a standalone page.
// Identity is the source path relative to the content directory.
type Page struct {
	SourcePath string // relative to the content directory, forward slashes
	Section    string // top-level content directory ("posts", "" for root pages)
	Meta       frontmatter.Metadata
	Body       []byte // markdown body, front matter stripped

	Slug      string
	Permalink string // absolute site path, "/posts/foo/"
}

// IsPost reports whether the page lives in the posts section.
func (p *Page) IsPost() bool { return p.Section == "posts" }

// Title returns the front matter title, falling back to a title derived from
// the file name.
func (p *Page) Title() string {
	if p.Meta.Title != "" {
		return p.Meta.Title
	}
	base := strings.TrimSuffix(path.Base(p.SourcePath), path.Ext(p.SourcePath))
	words := strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return cases.Title(language.English).String(words)
}

// Date returns the publication date (zero for undated pages).
func (p *Page) Date() time.Time { return p.Meta.Date }

var slugCleaner = regexp.MustCompile(`[^a-z0-9-]+`)

// slugify derives a URL slug from a title or file name.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "-", "_", "-").Replace(s)
	s = slugCleaner.ReplaceAllString(s, "")
	s = strings.Trim(regexp.MustCompile(`-+`).ReplaceAllString(s, "-"), "-")
	return s
}

// finalize computes the slug and permalink once metadata and section are set.
func (p *Page) finalize() {
	p.Slug = p.Meta.Slug
	if p.Slug == "" {
		base := strings.TrimSuffix(path.Base(p.SourcePath), path.Ext(p.SourcePath))
		p.Slug = slugify(base)
	}

	if p.Section == "" {
		if p.Slug == "index" || p.Slug == "home" {
			p.Permalink = "/"
			return
		}
		p.Permalink = "/" + p.Slug + "/"
		return
	}
	p.Permalink = "/" + p.Section + "/" + p.Slug + "/"
}
