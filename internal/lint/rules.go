package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/content"
	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// FrontmatterRule verifies that a file's front matter splits, parses, and
// decodes: well-formed delimiters, valid YAML, known keys carrying the
// expected types, and a valid permalink when one is declared.
type FrontmatterRule struct{}

func (r *FrontmatterRule) Name() string { return "frontmatter" }

func (r *FrontmatterRule) Check(path, rel string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	meta, _, had, _, err := frontmatter.Split(data)
	if err != nil {
		return []Issue{{
			FilePath: rel,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  err.Error(),
			Fix:      "Close the front-matter block with a --- line",
		}}, nil
	}
	if !had {
		return nil, nil
	}

	fields, err := frontmatter.Parse(meta)
	if err != nil {
		return []Issue{{
			FilePath: rel,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  fmt.Sprintf("invalid YAML front matter: %v", err),
		}}, nil
	}

	if _, err := content.DecodeMetadata(fields); err != nil {
		return []Issue{{
			FilePath: rel,
			Severity: SeverityError,
			Rule:     r.Name(),
			Message:  err.Error(),
		}}, nil
	}
	return nil, nil
}

// knownKeys are the front-matter keys with pipeline meaning; anything else is
// carried into layouts untouched but flagged so typos surface.
var knownKeys = map[string]bool{
	content.KeyLayout:       true,
	content.KeyTitle:        true,
	content.KeyPermalink:    true,
	content.KeyFeatureImage: true,
	content.KeyDate:         true,
	content.KeyDraft:        true,
	mdfp.FingerprintField:   true,
}

// UnknownKeysRule flags front-matter keys outside the known set. Extra keys
// are legal (layouts can read them) so this never rises above a warning.
type UnknownKeysRule struct{}

func (r *UnknownKeysRule) Name() string { return "unknown-keys" }

func (r *UnknownKeysRule) Check(path, rel string) ([]Issue, error) {
	fields, ok, err := parseFields(path)
	if err != nil || !ok {
		return nil, err
	}

	var unknown []string
	for key := range fields {
		if !knownKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) == 0 {
		return nil, nil
	}
	sort.Strings(unknown)

	return []Issue{{
		FilePath: rel,
		Severity: SeverityWarning,
		Rule:     r.Name(),
		Message:  fmt.Sprintf("unknown front-matter keys: %s", strings.Join(unknown, ", ")),
	}}, nil
}

// LayoutRule verifies that the layout a unit declares (or falls back to)
// exists in the layouts directory.
type LayoutRule struct {
	defaultName string
	available   map[string]bool
}

// NewLayoutRule scans layoutsDir for available layouts.
func NewLayoutRule(layoutsDir, defaultName string) (*LayoutRule, error) {
	entries, err := os.ReadDir(layoutsDir)
	if err != nil {
		return nil, fmt.Errorf("read layouts directory: %w", err)
	}
	available := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		available[strings.TrimSuffix(e.Name(), ".html")] = true
	}
	return &LayoutRule{defaultName: defaultName, available: available}, nil
}

func (r *LayoutRule) Name() string { return "layout-exists" }

func (r *LayoutRule) Check(path, rel string) ([]Issue, error) {
	fields, ok, err := parseFields(path)
	if err != nil {
		return nil, err
	}

	name := r.defaultName
	if ok {
		if declared, ok := fields[content.KeyLayout].(string); ok && declared != "" {
			name = declared
		}
	}

	if r.available[name] {
		return nil, nil
	}
	return []Issue{{
		FilePath: rel,
		Severity: SeverityError,
		Rule:     r.Name(),
		Message:  fmt.Sprintf("layout %q not found in layouts directory", name),
		Fix:      fmt.Sprintf("Create %s.html or declare an existing layout", name),
	}}, nil
}

// parseFields loads a file's front-matter mapping. Malformed files yield
// (nil, false, nil): the frontmatter rule owns reporting those.
func parseFields(path string) (map[string]any, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read file: %w", err)
	}
	meta, _, had, _, err := frontmatter.Split(data)
	if err != nil || !had {
		return nil, false, nil
	}
	fields, err := frontmatter.Parse(meta)
	if err != nil {
		return nil, false, nil
	}
	return fields, true, nil
}

// parseFieldsAndBody is parseFields plus the markdown body, for rules that
// hash content.
func parseFieldsAndBody(path string) (map[string]any, []byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, false, fmt.Errorf("read file: %w", err)
	}
	meta, body, had, _, err := frontmatter.Split(data)
	if err != nil || !had {
		return nil, nil, false, nil
	}
	fields, err := frontmatter.Parse(meta)
	if err != nil {
		return nil, nil, false, nil
	}
	return fields, body, true, nil
}

// relPath maps an absolute content path back to its content-root-relative
// form for reporting.
func relPath(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
