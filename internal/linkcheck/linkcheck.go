// Package linkcheck audits internal links in a generated site tree.
//
// It parses every emitted HTML file and verifies that href/src targets inside
// the site resolve to a generated file. External URLs are out of scope: assets
// and remote pages belong to external stores the pipeline only references.
package linkcheck

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Broken is one unresolvable internal link.
type Broken struct {
	Source string // HTML file containing the link, relative to the root
	URL    string // link target as authored
}

// Check walks root and returns every internal link that does not resolve to a
// file in the tree. Results are sorted by source path, then target.
func Check(root string) ([]Broken, error) {
	var htmlFiles []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".html") {
			htmlFiles = append(htmlFiles, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk output tree: %w", err)
	}

	var broken []Broken
	for _, file := range htmlFiles {
		rel, err := filepath.Rel(root, file)
		if err != nil {
			return nil, fmt.Errorf("relative path for %s: %w", file, err)
		}
		refs, err := extractRefs(file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", rel, err)
		}
		for _, ref := range refs {
			target, internal := resolveInternal(rel, ref)
			if !internal {
				continue
			}
			if !targetExists(root, target) {
				broken = append(broken, Broken{Source: filepath.ToSlash(rel), URL: ref})
			}
		}
	}

	sort.Slice(broken, func(i, j int) bool {
		if broken[i].Source != broken[j].Source {
			return broken[i].Source < broken[j].Source
		}
		return broken[i].URL < broken[j].URL
	})
	return broken, nil
}

// refAttrs maps element names to the attribute holding their link target.
var refAttrs = map[string]string{
	"a":      "href",
	"link":   "href",
	"img":    "src",
	"script": "src",
	"iframe": "src",
	"source": "src",
}

func extractRefs(file string) ([]string, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	doc, err := html.Parse(f)
	if err != nil {
		return nil, err
	}

	var refs []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if attr, ok := refAttrs[n.Data]; ok {
				for _, a := range n.Attr {
					if a.Key == attr && a.Val != "" {
						refs = append(refs, a.Val)
					}
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs, nil
}

// resolveInternal turns a link found in sourceRel into a slash path relative
// to the site root. internal is false for external URLs, fragments, and
// non-http schemes.
func resolveInternal(sourceRel, ref string) (target string, internal bool) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", false
	}
	if u.Scheme != "" || u.Host != "" {
		return "", false
	}
	if u.Path == "" {
		// Fragment-only or query-only reference into the same page.
		return "", false
	}

	p := u.Path
	if !strings.HasPrefix(p, "/") {
		base := path.Dir(filepath.ToSlash(sourceRel))
		p = path.Join("/", base, p)
	}
	return path.Clean(p), true
}

// targetExists resolves a site-absolute path against the generated tree,
// accepting both literal files and directory indexes.
func targetExists(root, target string) bool {
	rel := strings.TrimPrefix(target, "/")
	candidates := []string{
		filepath.Join(root, filepath.FromSlash(rel)),
		filepath.Join(root, filepath.FromSlash(rel), "index.html"),
	}
	if rel == "" {
		candidates = []string{filepath.Join(root, "index.html")}
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}
