package content

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mheir/blogsmith/internal/frontmatter"
	"github.com/mheir/blogsmith/internal/logfields"
)

// Store is the loaded content tree: all pages, plus the groupings the
// renderer needs. It is built once per run and read-only afterwards.
type Store struct {
	Pages      []*Page            // everything, posts newest first then pages by path
	Posts      []*Page            // posts section only, newest first
	Sections   map[string][]*Page // by top-level directory
	Tags       map[string][]*Page
	Categories map[string][]*Page
}

// Load walks the content directory and parses every markdown file.
//
// A file with a broken front matter block or undecodable metadata fails the
// load; files are never silently skipped. Drafts are excluded unless
// includeDrafts is set.
func Load(contentDir string, includeDrafts bool) (*Store, error) {
	if _, err := os.Stat(contentDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("content directory not found: %s", contentDir)
	}

	store := &Store{
		Sections:   map[string][]*Page{},
		Tags:       map[string][]*Page{},
		Categories: map[string][]*Page{},
	}

	err := filepath.WalkDir(contentDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		rel, err := filepath.Rel(contentDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		page, err := loadPage(p, rel)
		if err != nil {
			return fmt.Errorf("%s: %w", rel, err)
		}

		if page.Meta.Draft && !includeDrafts {
			slog.Debug("Skipping draft", logfields.Path(rel))
			return nil
		}

		store.Pages = append(store.Pages, page)
		return nil
	})
	if err != nil {
		return nil, err
	}

	store.index()
	return store, nil
}

func loadPage(absPath, relPath string) (*Page, error) {
	raw, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	fm, body, had, _, err := frontmatter.Split(raw)
	if err != nil {
		return nil, err
	}

	meta := frontmatter.Metadata{Params: map[string]any{}}
	if had {
		fields, err := frontmatter.ParseYAML(fm)
		if err != nil {
			return nil, fmt.Errorf("invalid front matter: %w", err)
		}
		meta, err = frontmatter.Decode(fields)
		if err != nil {
			return nil, err
		}
	}

	page := &Page{
		SourcePath: relPath,
		Section:    sectionOf(relPath),
		Meta:       meta,
		Body:       body,
	}
	page.finalize()
	return page, nil
}

// sectionOf returns the top-level directory of a relative path, "" for files
// at the content root.
func sectionOf(relPath string) string {
	if i := strings.IndexByte(relPath, '/'); i > 0 {
		return relPath[:i]
	}
	return ""
}

// index sorts pages and fills the section/taxonomy groupings.
func (s *Store) index() {
	sort.SliceStable(s.Pages, func(i, j int) bool {
		di, dj := s.Pages[i].Date(), s.Pages[j].Date()
		if !di.Equal(dj) {
			// Newest first; undated pages sink to the end.
			if di.IsZero() {
				return false
			}
			if dj.IsZero() {
				return true
			}
			return di.After(dj)
		}
		return s.Pages[i].SourcePath < s.Pages[j].SourcePath
	})

	for _, page := range s.Pages {
		if page.Section != "" {
			s.Sections[page.Section] = append(s.Sections[page.Section], page)
		}
		if page.IsPost() {
			s.Posts = append(s.Posts, page)
		}
		for _, tag := range page.Meta.Tags {
			s.Tags[tag] = append(s.Tags[tag], page)
		}
		for _, cat := range page.Meta.Categories {
			s.Categories[cat] = append(s.Categories[cat], page)
		}
	}
}

// ByPermalink returns the page with the given permalink, or nil.
func (s *Store) ByPermalink(permalink string) *Page {
	for _, page := range s.Pages {
		if page.Permalink == permalink {
			return page
		}
	}
	return nil
}
