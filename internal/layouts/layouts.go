// Package layouts loads the site's html/template layout files and composes
// rendered page bodies into them.
//
// A layouts directory contains one .html file per layout name ("page.html",
// "post.html", ...) plus an optional "base.html". When base.html exists every
// layout is parsed into a clone of the base, so layouts can override blocks the
// base defines. Without a base each layout file stands alone.
package layouts

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// BaseLayoutName is the reserved file name for the shared base template.
const BaseLayoutName = "base"

// NotFoundError indicates a unit referenced a layout that is not registered.
type NotFoundError struct {
	Layout string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("layout %q not found", e.Layout) }

// PageData is the data a layout template executes against.
type PageData struct {
	Title        string
	Permalink    string
	FeatureImage string
	Date         time.Time
	Content      template.HTML
	Site         SiteData
	Extra        map[string]any
}

// SiteData carries site-wide values into every layout execution.
type SiteData struct {
	Title       string
	Description string
	BaseURL     string
}

// Store holds the parsed layout templates for one build.
type Store struct {
	dir          string
	defaultName  string
	site         SiteData
	templates    map[string]*template.Template
}

// NewStore parses every layout in dir. defaultName is the layout used when a
// unit does not declare one; it is validated lazily at lookup, not load, so a
// site whose units all declare layouts never needs the default to exist.
func NewStore(dir, defaultName string, site SiteData) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("layouts directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("layouts path %s is not a directory", dir)
	}

	s := &Store{
		dir:         dir,
		defaultName: defaultName,
		site:        site,
		templates:   make(map[string]*template.Template),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("read layouts directory: %w", err)
	}

	var base *template.Template
	basePath := filepath.Join(s.dir, BaseLayoutName+".html")
	if _, err := os.Stat(basePath); err == nil {
		base, err = template.ParseFiles(basePath)
		if err != nil {
			return fmt.Errorf("parse base layout: %w", err)
		}
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".html") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ".html")
		if name == BaseLayoutName {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())

		var tmpl *template.Template
		if base != nil {
			clone, err := base.Clone()
			if err != nil {
				return fmt.Errorf("clone base for layout %s: %w", name, err)
			}
			tmpl, err = clone.ParseFiles(path)
			if err != nil {
				return fmt.Errorf("parse layout %s: %w", name, err)
			}
		} else {
			var err error
			tmpl, err = template.ParseFiles(path)
			if err != nil {
				return fmt.Errorf("parse layout %s: %w", name, err)
			}
		}
		s.templates[name] = tmpl
	}

	slog.Debug("Layouts loaded", logfields.Path(s.dir), logfields.Count(len(s.templates)))
	return nil
}

// Names returns registered layout names, sorted.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.templates))
	for n := range s.templates {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether a layout name is registered.
func (s *Store) Has(name string) bool {
	_, ok := s.templates[name]
	return ok
}

// DefaultName returns the layout name applied to units that declare none.
func (s *Store) DefaultName() string { return s.defaultName }

// Resolve maps a unit's declared layout to the template name that will be
// executed. An empty declaration resolves to the configured default; an absent
// layout (declared or default) returns NotFoundError so a unit is never
// silently emitted without its wrapper.
func (s *Store) Resolve(declared string) (string, error) {
	name := declared
	if name == "" {
		name = s.defaultName
	}
	if !s.Has(name) {
		return "", &NotFoundError{Layout: name}
	}
	return name, nil
}

// Execute composes content into the named layout, resolving the default when
// name is empty.
func (s *Store) Execute(w io.Writer, name string, data PageData) error {
	resolved, err := s.Resolve(name)
	if err != nil {
		return err
	}
	data.Site = s.site

	tmpl := s.templates[resolved]
	// ExecuteTemplate against the layout's own file name so base.html blocks
	// overridden by the layout win.
	if err := tmpl.ExecuteTemplate(w, resolved+".html", data); err != nil {
		return fmt.Errorf("execute layout %s: %w", resolved, err)
	}
	return nil
}
