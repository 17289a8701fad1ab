package site

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// Permalink returns the output permalink for a unit: the declared front-matter
// permalink when present, otherwise one derived from the source path. Posts
// derive Jekyll-style date permalinks (/2015/01/15/swift-optionals/) from
// their file name.
func Permalink(u *content.Unit) string {
	if u.Meta.Permalink != "" {
		return u.Meta.Permalink
	}

	if u.File.Kind == content.KindPost {
		slug := u.File.Slug
		if slug == "" {
			slug = u.File.Name
		}
		if !u.File.Date.IsZero() {
			return fmt.Sprintf("/%s/%s/", u.File.Date.Format("2006/01/02"), slug)
		}
		return "/" + slug + "/"
	}

	rel := strings.TrimSuffix(filepath.ToSlash(u.File.RelativePath), u.File.Extension)
	if rel == "index" {
		return "/"
	}
	if strings.HasSuffix(rel, "/index") {
		rel = strings.TrimSuffix(rel, "/index")
	}
	return "/" + rel + "/"
}

// OutputPath maps a permalink to a file path relative to the output root.
//
// A trailing slash (or extensionless path) maps into a directory index so the
// page is reachable at its clean URL; a permalink carrying an extension maps
// to that literal file.
func OutputPath(permalink string) string {
	trimmed := strings.Trim(permalink, "/")
	if trimmed == "" {
		return "index.html"
	}
	if !strings.HasSuffix(permalink, "/") && path.Ext(trimmed) != "" {
		return filepath.FromSlash(trimmed)
	}
	return filepath.Join(filepath.FromSlash(trimmed), "index.html")
}
