package lint

import (
	"fmt"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitebuilder/internal/manifest"
)

// FingerprintRule verifies content fingerprints stored in front matter.
//
// A file that carries no fingerprint gets a warning: fingerprints are opt-in
// per file. A fingerprint that no longer matches the content is an error,
// because a stale fingerprint silently defeats incremental change detection.
// The fixer regenerates both cases.
type FingerprintRule struct{}

const fingerprintRuleName = "fingerprint"

func (r *FingerprintRule) Name() string { return fingerprintRuleName }

func (r *FingerprintRule) Check(path, rel string) ([]Issue, error) {
	fields, body, ok, err := parseFieldsAndBody(path)
	if err != nil || !ok {
		return nil, err
	}

	current, present := fields[mdfp.FingerprintField].(string)
	if !present || strings.TrimSpace(current) == "" {
		return []Issue{{
			FilePath: rel,
			Severity: SeverityWarning,
			Rule:     r.Name(),
			Message:  "no content fingerprint in front matter",
			Fix:      "Run: sitebuilder lint --fix",
		}}, nil
	}

	expected, err := manifest.Fingerprint(fields, body)
	if err != nil {
		return nil, fmt.Errorf("compute fingerprint: %w", err)
	}
	if expected == current {
		return nil, nil
	}

	return []Issue{{
		FilePath: rel,
		Severity: SeverityError,
		Rule:     r.Name(),
		Message:  "content fingerprint is stale",
		Fix:      "Run: sitebuilder lint --fix",
	}}, nil
}
