package content

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind classifies a content file.
type Kind string

const (
	KindPage Kind = "page"
	KindPost Kind = "post"
)

// File represents a discovered content file
type File struct {
	Path         string    // Absolute path to the file
	RelativePath string    // Path relative to the content directory
	Section      string    // Directory under the content root ("" for root level)
	Name         string    // File name without extension
	Extension    string    // File extension
	Kind         Kind      // Page or post
	Date         time.Time // Date parsed from a post file name, zero otherwise
	Slug         string    // Post slug (file name without the date prefix)
	Content      []byte    // File content (loaded on demand)
}

// postNamePattern matches the conventional post file name: 2015-01-15-swift-optionals.
var postNamePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})-(.+)$`)

var titleCaser = cases.Title(language.English)

// LoadContent loads the content of a file. Repeated calls are no-ops.
func (f *File) LoadContent() error {
	if f.Content != nil {
		return nil
	}

	content, err := os.ReadFile(f.Path)
	if err != nil {
		return fmt.Errorf("read content file %s: %w", f.Path, err)
	}

	f.Content = content
	return nil
}

// DefaultTitle derives a human title from the file name when the author did
// not set one: "core-data-subquery" becomes "Core Data Subquery".
func (f *File) DefaultTitle() string {
	name := f.Name
	if f.Kind == KindPost && f.Slug != "" {
		name = f.Slug
	}
	words := strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(words)
}

// parsePostName extracts the date and slug from a post file name. ok is false
// when the name does not follow the date-prefixed convention.
func parsePostName(name string) (date time.Time, slug string, ok bool) {
	m := postNamePattern.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, "", false
	}
	t, err := time.Parse("2006-01-02", m[1]+"-"+m[2]+"-"+m[3])
	if err != nil {
		return time.Time{}, "", false
	}
	return t, m[4], true
}

// isMarkdownFile checks if a file is a markdown file
func isMarkdownFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".md" || ext == ".markdown" || ext == ".mdown" || ext == ".mkd"
}

// isIgnoredFile checks if a file should be ignored at the content root
func isIgnoredFile(filename string) bool {
	ignored := []string{
		"README.md",       // Repository readme, not site content
		"CONTRIBUTING.md", // Contributing guidelines
		"CHANGELOG.md",    // Changelog
		"LICENSE.md",      // License file
	}

	for _, ignore := range ignored {
		if strings.EqualFold(filename, ignore) {
			return true
		}
	}

	return false
}
