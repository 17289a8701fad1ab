// Package content discovers and loads the markdown units a site is built from.
//
// A content tree holds pages anywhere under the root and posts under a
// dedicated posts directory (conventionally _posts, date-prefixed file names).
// Directories starting with "_" or "." are private to the site machinery and
// skipped, except the posts directory itself.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
)

// ErrContentDirMissing indicates the configured content directory does not exist.
var ErrContentDirMissing = errors.New("content directory does not exist")

// Discovery handles content file discovery
type Discovery struct {
	root     string
	postsDir string
}

// NewDiscovery creates a discovery over a content root. postsDir is the
// directory name (relative to root) whose files are treated as posts.
func NewDiscovery(root, postsDir string) *Discovery {
	if postsDir == "" {
		postsDir = "_posts"
	}
	return &Discovery{root: root, postsDir: postsDir}
}

// Discover finds all content files under the root. Results are sorted by
// relative path so every downstream stage sees a deterministic order.
func (d *Discovery) Discover() ([]File, error) {
	info, err := os.Stat(d.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrContentDirMissing, d.root)
		}
		return nil, fmt.Errorf("stat content directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrContentDirMissing, d.root)
	}

	var files []File
	err = filepath.Walk(d.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		relPath, relErr := filepath.Rel(d.root, path)
		if relErr != nil {
			return fmt.Errorf("relative path for %s: %w", path, relErr)
		}

		if info.IsDir() {
			if path == d.root {
				return nil
			}
			name := info.Name()
			if (strings.HasPrefix(name, "_") || strings.HasPrefix(name, ".")) && relPath != d.postsDir {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(info.Name(), ".") || !isMarkdownFile(path) {
			return nil
		}

		section := filepath.Dir(relPath)
		if section == "." {
			section = "" // Root level
		}

		if section == "" && isIgnoredFile(info.Name()) {
			return nil
		}

		files = append(files, d.classify(path, relPath, section, info.Name()))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content directory %s: %w", d.root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].RelativePath < files[j].RelativePath })

	slog.Info("Content discovered", logfields.Path(d.root), logfields.Count(len(files)))
	return files, nil
}

// classify builds the File record for one discovered path.
func (d *Discovery) classify(path, relPath, section, filename string) File {
	f := File{
		Path:         path,
		RelativePath: relPath,
		Section:      section,
		Name:         strings.TrimSuffix(filename, filepath.Ext(filename)),
		Extension:    filepath.Ext(filename),
		Kind:         KindPage,
	}

	inPosts := relPath == filepath.Join(d.postsDir, filename) ||
		strings.HasPrefix(relPath, d.postsDir+string(filepath.Separator))
	if inPosts {
		f.Kind = KindPost
		if date, slug, ok := parsePostName(f.Name); ok {
			f.Date = date
			f.Slug = slug
		} else {
			f.Slug = f.Name
		}
	}

	slog.Debug("Discovered content file",
		logfields.Page(relPath),
		slog.String("kind", string(f.Kind)),
		slog.String("section", section))

	return f
}
