// Package theme manages the external, version-pinned template package the
// site is rendered through: fetching it at the pinned revision, recording
// the resolved commit in a lock file, and loading its layouts.
package theme

import (
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Theme is a theme checkout on disk.
type Theme struct {
	Dir string
}

// Layouts is the parsed layout template set of a theme.
//
// Conventions: base.html must exist at the layout root; single.html,
// list.html, home.html and term.html are picked up when present, as is
// anything under partials/.
type Layouts struct {
	templates *template.Template
}

const layoutsDirName = "layouts"

// LoadLayouts parses every .html file under the theme's layouts directory.
func (t *Theme) LoadLayouts(funcs template.FuncMap) (*Layouts, error) {
	layoutsDir := filepath.Join(t.Dir, layoutsDirName)
	if _, err := os.Stat(layoutsDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("theme has no %s directory: %s", layoutsDirName, t.Dir)
	}

	var files []string
	err := filepath.WalkDir(layoutsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(strings.ToLower(d.Name()), ".html") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan theme layouts: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no layout files found in %s", layoutsDir)
	}

	tmpl, err := template.New("").Funcs(funcs).ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("parse theme layouts: %w", err)
	}
	if tmpl.Lookup("base.html") == nil {
		return nil, fmt.Errorf("theme is missing base.html in %s", layoutsDir)
	}

	return &Layouts{templates: tmpl}, nil
}

// Lookup returns the named layout template, or nil.
func (l *Layouts) Lookup(name string) *template.Template {
	return l.templates.Lookup(name)
}

// Resolve picks the layout to execute for a page: the front matter layout if
// it exists, otherwise the given default, otherwise base.html.
func (l *Layouts) Resolve(pageLayout, defaultLayout string) (*template.Template, string, error) {
	for _, name := range []string{pageLayout, defaultLayout, "base"} {
		if name == "" {
			continue
		}
		if !strings.HasSuffix(name, ".html") {
			name += ".html"
		}
		if t := l.templates.Lookup(name); t != nil {
			return t, name, nil
		}
	}
	return nil, "", fmt.Errorf("no usable layout for %q (default %q)", pageLayout, defaultLayout)
}

// StaticDir returns the theme's static asset directory, "" when absent.
func (t *Theme) StaticDir() string {
	dir := filepath.Join(t.Dir, "static")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}
