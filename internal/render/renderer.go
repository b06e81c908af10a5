// Package render turns loaded content plus theme layouts into the static
// output tree. It is a pure transform: given identical content, theme and
// configuration it produces byte-identical output.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/content"
	"github.com/mheir/blogsmith/internal/logfields"
	"github.com/mheir/blogsmith/internal/theme"
)

// Renderer renders a content store through theme layouts into a directory.
type Renderer struct {
	site       config.SiteConfig
	layouts    *theme.Layouts
	minify     bool
	liveReload bool
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithMinify enables HTML minification (production mode).
func WithMinify(on bool) Option { return func(r *Renderer) { r.minify = on } }

// WithLiveReload injects the live reload client script (serve mode).
func WithLiveReload(on bool) Option { return func(r *Renderer) { r.liveReload = on } }

// New creates a Renderer for the given site and layouts.
func New(site config.SiteConfig, layouts *theme.Layouts, opts ...Option) *Renderer {
	r := &Renderer{site: site, layouts: layouts}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FuncMap returns the template functions available to theme layouts.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string { return t.Format("January 2, 2006") },
		"dateISO":    func(t time.Time) string { return t.Format("2006-01-02") },
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"slugify":    Slugify,
	}
}

// Slugify derives a URL path segment from a taxonomy term.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, s)
}

// templateData is the root object every layout executes against.
type templateData struct {
	Site  *SiteView
	Page  *PageView   // set for single pages
	Pages []*PageView // set for list-like pages
	Term  string      // set for taxonomy term pages
	Kind  string      // "page", "home", "section", "term"
}

// Render writes the whole site into outDir. outDir must already exist; the
// caller owns staging and atomic swap.
func (r *Renderer) Render(store *content.Store, outDir string) (int, error) {
	site, err := buildViews(r.site, store)
	if err != nil {
		return 0, fmt.Errorf("convert markdown: %w", err)
	}

	written := 0

	// Single pages.
	for _, view := range site.Pages {
		layout := view.page.Meta.Layout
		data := &templateData{Site: site, Page: view, Kind: "page"}
		if view.Permalink == "/" {
			data.Kind = "home"
			data.Pages = site.Posts
			if layout == "" {
				layout = "home"
			}
		}
		if err := r.writePage(outDir, view.Permalink, layout, data); err != nil {
			return written, err
		}
		written++
	}

	// Homepage from the post list when no root index page exists.
	if store.ByPermalink("/") == nil {
		data := &templateData{Site: site, Pages: site.Posts, Kind: "home"}
		if err := r.writePage(outDir, "/", "home", data); err != nil {
			return written, err
		}
		written++
	}

	// Section list pages.
	for _, section := range sortedSectionNames(site) {
		pages := sectionPages(site, section)
		data := &templateData{Site: site, Pages: pages, Kind: "section", Term: section}
		if err := r.writePage(outDir, "/"+section+"/", "list", data); err != nil {
			return written, err
		}
		written++
	}

	// Taxonomy term pages.
	for _, tag := range site.TagNames() {
		data := &templateData{Site: site, Pages: site.Tags[tag], Kind: "term", Term: tag}
		if err := r.writePage(outDir, "/tags/"+Slugify(tag)+"/", "term", data); err != nil {
			return written, err
		}
		written++
	}
	for _, cat := range site.CategoryNames() {
		data := &templateData{Site: site, Pages: site.Categories[cat], Kind: "term", Term: cat}
		if err := r.writePage(outDir, "/categories/"+Slugify(cat)+"/", "term", data); err != nil {
			return written, err
		}
		written++
	}

	// Feed and sitemap.
	if err := writeFeed(outDir, site); err != nil {
		return written, err
	}
	if err := writeSitemap(outDir, site); err != nil {
		return written, err
	}
	written += 2

	slog.Debug("Render complete", logfields.Pages(written))
	return written, nil
}

func sortedSectionNames(site *SiteView) []string {
	seen := map[string]bool{}
	var names []string
	for _, p := range site.Pages {
		if p.Section != "" && !seen[p.Section] {
			seen[p.Section] = true
			names = append(names, p.Section)
		}
	}
	// Pages are date-sorted; section order must not depend on that.
	sort.Strings(names)
	return names
}

func sectionPages(site *SiteView, section string) []*PageView {
	var out []*PageView
	for _, p := range site.Pages {
		if p.Section == section {
			out = append(out, p)
		}
	}
	return out
}

// writePage executes a layout and writes permalink/index.html under outDir.
func (r *Renderer) writePage(outDir, permalink, layout string, data *templateData) error {
	tmpl, name, err := r.layouts.Resolve(layout, r.site.DefaultLayout)
	if err != nil {
		return fmt.Errorf("page %s: %w", permalink, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("execute layout %s for %s: %w", name, permalink, err)
	}

	out := buf.Bytes()
	if r.minify {
		out = MinifyHTML(out)
	}
	if r.liveReload {
		out = injectLiveReload(out)
	}

	target := filepath.Join(outDir, filepath.FromSlash(strings.TrimPrefix(permalink, "/")), "index.html")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output directory for %s: %w", permalink, err)
	}
	if err := os.WriteFile(target, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}

// liveReloadScript opens an SSE stream and reloads when the server signals
// a completed rebuild. Matches the /events endpoint in internal/preview.
const liveReloadScript = `<script>(function(){var s=new EventSource("/events");s.onmessage=function(e){if(e.data==="reload"){location.reload();}};})();</script>`

func injectLiveReload(page []byte) []byte {
	if i := bytes.LastIndex(page, []byte("</body>")); i >= 0 {
		var out bytes.Buffer
		out.Grow(len(page) + len(liveReloadScript))
		out.Write(page[:i])
		out.WriteString(liveReloadScript)
		out.Write(page[i:])
		return out.Bytes()
	}
	return append(page, []byte(liveReloadScript)...)
}
