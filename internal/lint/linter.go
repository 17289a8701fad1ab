package lint

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
)

// Linter runs all rules over a content tree.
type Linter struct {
	cfg   *Config
	rules []Rule
}

// NewLinter creates a linter. layoutsDir and defaultLayout feed the
// layout-existence rule.
func NewLinter(cfg *Config, layoutsDir, defaultLayout string) (*Linter, error) {
	if cfg == nil {
		cfg = &Config{Format: "text"}
	}

	layoutRule, err := NewLayoutRule(layoutsDir, defaultLayout)
	if err != nil {
		return nil, err
	}

	return &Linter{
		cfg: cfg,
		rules: []Rule{
			&FrontmatterRule{},
			&UnknownKeysRule{},
			layoutRule,
			&FingerprintRule{},
		},
	}, nil
}

// LintDir lints every content file under root.
func (l *Linter) LintDir(root string) (*Result, error) {
	result := &Result{Issues: []Issue{}}
	var files []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !IsContentFile(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk content tree: %w", err)
	}
	sort.Strings(files)

	for _, path := range files {
		result.FilesTotal++
		rel := relPath(root, path)
		for _, rule := range l.rules {
			issues, err := rule.Check(path, rel)
			if err != nil {
				return nil, fmt.Errorf("rule %s on %s: %w", rule.Name(), rel, err)
			}
			result.Issues = append(result.Issues, issues...)
		}
	}

	result.Issues = append(result.Issues, l.checkDuplicatePermalinks(root, files)...)

	if l.cfg.Quiet {
		filtered := result.Issues[:0]
		for _, issue := range result.Issues {
			if issue.Severity == SeverityError {
				filtered = append(filtered, issue)
			}
		}
		result.Issues = filtered
	}
	return result, nil
}

// checkDuplicatePermalinks is corpus-level: two files declaring the same
// permalink will collide at assembly time, so surface it here first.
func (l *Linter) checkDuplicatePermalinks(root string, files []string) []Issue {
	claimed := make(map[string]string) // permalink -> first claiming rel path
	var issues []Issue

	for _, path := range files {
		rel := relPath(root, path)
		fields, ok, err := parseFields(path)
		if err != nil || !ok {
			continue
		}
		permalink, ok := fields[content.KeyPermalink].(string)
		if !ok || permalink == "" {
			continue
		}
		if first, dup := claimed[permalink]; dup {
			issues = append(issues, Issue{
				FilePath: rel,
				Severity: SeverityError,
				Rule:     "duplicate-permalink",
				Message:  fmt.Sprintf("permalink %q already claimed by %s", permalink, first),
			})
			continue
		}
		claimed[permalink] = rel
	}
	return issues
}
