package lint

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
	"git.home.luguber.info/inful/sitebuilder/internal/logfields"
	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
)

// Fixer rewrites missing or stale fingerprints reported by the fingerprint
// rule. Only the fingerprint field changes; the rest of the front-matter block
// and the body are reproduced byte for byte in the file's original style.
type Fixer struct {
	root   string
	dryRun bool
}

// NewFixer creates a fixer rooted at the content directory.
func NewFixer(root string, dryRun bool) *Fixer {
	return &Fixer{root: root, dryRun: dryRun}
}

// Fix applies fingerprint fixes for the fixable issues in result and returns
// the number of files rewritten (or that would be rewritten in dry-run mode).
func (f *Fixer) Fix(result *Result) (int, error) {
	fixed := 0
	seen := make(map[string]bool)

	for _, issue := range result.Issues {
		if issue.Rule != fingerprintRuleName || seen[issue.FilePath] {
			continue
		}
		seen[issue.FilePath] = true

		path := filepath.Join(f.root, filepath.FromSlash(issue.FilePath))
		if f.dryRun {
			slog.Info("Would rewrite fingerprint", logfields.Page(issue.FilePath))
			fixed++
			continue
		}
		if err := f.fixFile(path); err != nil {
			return fixed, fmt.Errorf("fix %s: %w", issue.FilePath, err)
		}
		slog.Info("Rewrote fingerprint", logfields.Page(issue.FilePath))
		fixed++
	}

	result.Fixed = fixed
	return fixed, nil
}

func (f *Fixer) fixFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	meta, body, had, style, err := frontmatter.Split(data)
	if err != nil {
		return err
	}
	if !had {
		return fmt.Errorf("no front matter to carry a fingerprint")
	}

	fields, err := frontmatter.Parse(meta)
	if err != nil {
		return err
	}

	fingerprint, err := manifest.Fingerprint(fields, body)
	if err != nil {
		return err
	}
	fields[mdfp.FingerprintField] = fingerprint

	newMeta, err := frontmatter.Serialize(fields, style)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.WriteFile(path, frontmatter.Join(newMeta, body, true, style), info.Mode().Perm())
}
