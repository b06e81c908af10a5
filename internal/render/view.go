package render

import (
	"html/template"
	"sort"
	"time"

	"github.com/mheir/blogsmith/internal/config"
	"github.com/mheir/blogsmith/internal/content"
	"github.com/mheir/blogsmith/internal/markdown"
)

// PageView is the template-facing shape of a rendered page.
type PageView struct {
	Title       string
	Description string
	Date        time.Time
	Permalink   string
	Section     string
	Tags        []string
	Categories  []string
	Params      map[string]any
	Content     template.HTML

	page *content.Page
}

// IsPost reports whether the page is a blog post.
func (v *PageView) IsPost() bool { return v.page.IsPost() }

// SiteView is the site-wide template context.
type SiteView struct {
	Title       string
	Description string
	BaseURL     string
	Author      string
	Params      map[string]any

	Pages      []*PageView
	Posts      []*PageView
	Tags       map[string][]*PageView
	Categories map[string][]*PageView
}

// TagNames returns tag names sorted alphabetically.
func (s *SiteView) TagNames() []string { return sortedKeys(s.Tags) }

// CategoryNames returns category names sorted alphabetically.
func (s *SiteView) CategoryNames() []string { return sortedKeys(s.Categories) }

func sortedKeys(m map[string][]*PageView) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// buildViews converts the loaded store into template views, rendering every
// markdown body exactly once.
func buildViews(site config.SiteConfig, store *content.Store) (*SiteView, error) {
	sv := &SiteView{
		Title:       site.Title,
		Description: site.Description,
		BaseURL:     site.BaseURL,
		Author:      site.Author,
		Params:      site.Params,
		Tags:        map[string][]*PageView{},
		Categories:  map[string][]*PageView{},
	}

	byPage := make(map[*content.Page]*PageView, len(store.Pages))
	for _, page := range store.Pages {
		html, err := markdown.ToHTML(page.Body)
		if err != nil {
			return nil, err
		}
		view := &PageView{
			Title:       page.Title(),
			Description: page.Meta.Description,
			Date:        page.Date(),
			Permalink:   page.Permalink,
			Section:     page.Section,
			Tags:        page.Meta.Tags,
			Categories:  page.Meta.Categories,
			Params:      page.Meta.Params,
			Content:     html,
			page:        page,
		}
		byPage[page] = view
		sv.Pages = append(sv.Pages, view)
	}

	for _, post := range store.Posts {
		sv.Posts = append(sv.Posts, byPage[post])
	}
	for tag, pages := range store.Tags {
		for _, p := range pages {
			sv.Tags[tag] = append(sv.Tags[tag], byPage[p])
		}
	}
	for cat, pages := range store.Categories {
		for _, p := range pages {
			sv.Categories[cat] = append(sv.Categories[cat], byPage[p])
		}
	}
	return sv, nil
}
