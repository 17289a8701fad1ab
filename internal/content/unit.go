package content

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitebuilder/internal/frontmatter"
)

// Front-matter keys with meaning to the pipeline. Anything else is carried
// through untouched in Metadata.Extra.
const (
	KeyLayout       = "layout"
	KeyTitle        = "title"
	KeyPermalink    = "permalink"
	KeyFeatureImage = "feature-img"
	KeyDate         = "date"
	KeyDraft        = "draft"
)

// Metadata is the typed view of a unit's front matter.
type Metadata struct {
	Layout       string
	Title        string
	Permalink    string
	FeatureImage string
	Date         time.Time
	Draft        bool
	Extra        map[string]any
}

// Unit is one parsed content unit: front-matter metadata plus markdown body.
// Units are not modified after ParseUnit returns; every later stage derives
// new values instead of mutating the unit.
type Unit struct {
	File           *File
	Meta           Metadata
	Fields         map[string]any // raw front-matter mapping as authored
	Body           []byte
	Style          frontmatter.Style
	HadFrontMatter bool
}

// ParseUnit loads a file and splits it into typed metadata and body.
//
// A block without a closing delimiter surfaces
// frontmatter.ErrMissingClosingDelimiter; the caller excludes such units from
// the build. Title and date fall back to values derived from the file name.
func ParseUnit(f *File) (*Unit, error) {
	if err := f.LoadContent(); err != nil {
		return nil, err
	}

	meta, body, had, style, err := frontmatter.Split(f.Content)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.RelativePath, err)
	}

	fields, err := frontmatter.Parse(meta)
	if err != nil {
		return nil, fmt.Errorf("parse %s: front matter: %w", f.RelativePath, err)
	}

	m, err := DecodeMetadata(fields)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.RelativePath, err)
	}

	if m.Title == "" {
		m.Title = f.DefaultTitle()
	}
	if m.Date.IsZero() {
		m.Date = f.Date
	}

	return &Unit{
		File:           f,
		Meta:           m,
		Fields:         fields,
		Body:           body,
		Style:          style,
		HadFrontMatter: had,
	}, nil
}

// DecodeMetadata extracts the typed keys from a front-matter mapping and
// validates them. Unknown keys land in Extra.
func DecodeMetadata(fields map[string]any) (Metadata, error) {
	m := Metadata{}

	for key, value := range fields {
		switch key {
		case KeyLayout:
			s, err := stringValue(key, value)
			if err != nil {
				return m, err
			}
			m.Layout = s
		case KeyTitle:
			s, err := stringValue(key, value)
			if err != nil {
				return m, err
			}
			m.Title = s
		case KeyPermalink:
			s, err := stringValue(key, value)
			if err != nil {
				return m, err
			}
			if err := ValidatePermalink(s); err != nil {
				return m, err
			}
			m.Permalink = s
		case KeyFeatureImage:
			s, err := stringValue(key, value)
			if err != nil {
				return m, err
			}
			m.FeatureImage = s
		case KeyDate:
			d, err := dateValue(value)
			if err != nil {
				return m, err
			}
			m.Date = d
		case KeyDraft:
			b, ok := value.(bool)
			if !ok {
				return m, fmt.Errorf("front matter key %q: expected bool, got %T", key, value)
			}
			m.Draft = b
		default:
			if m.Extra == nil {
				m.Extra = map[string]any{}
			}
			m.Extra[key] = value
		}
	}

	return m, nil
}

// ValidatePermalink enforces the shape a declared permalink must have: an
// absolute slash path with no traversal and no scheme.
func ValidatePermalink(p string) error {
	switch {
	case p == "":
		return fmt.Errorf("permalink must not be empty when set")
	case !strings.HasPrefix(p, "/"):
		return fmt.Errorf("permalink %q must start with /", p)
	case strings.Contains(p, "://"):
		return fmt.Errorf("permalink %q must not carry a scheme", p)
	case strings.Contains(p, "\\"):
		return fmt.Errorf("permalink %q must use forward slashes", p)
	}
	for _, seg := range strings.Split(strings.Trim(p, "/"), "/") {
		if seg == ".." {
			return fmt.Errorf("permalink %q must not traverse upward", p)
		}
	}
	return nil
}

func stringValue(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("front matter key %q: expected string, got %T", key, v)
	}
	return s, nil
}

func dateValue(v any) (time.Time, error) {
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"} {
			if t, err := time.Parse(layout, d); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("front matter key %q: unrecognized date %q", KeyDate, d)
	default:
		return time.Time{}, fmt.Errorf("front matter key %q: expected date, got %T", KeyDate, v)
	}
}
