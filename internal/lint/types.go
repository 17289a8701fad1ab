// Package lint validates content files before a build: front-matter shape,
// permalink validity, layout existence, fingerprint freshness. The fixer can
// rewrite stale fingerprints in place, preserving each file's front-matter
// style byte for byte.
package lint

import "path/filepath"

// Severity indicates the importance level of a lint issue.
type Severity int

const (
	// SeverityInfo indicates informational messages.
	SeverityInfo Severity = iota
	// SeverityWarning indicates issues that should be fixed but don't exclude
	// the unit from a build.
	SeverityWarning
	// SeverityError indicates issues that will exclude the unit from a build.
	SeverityError
)

// String returns the human-readable severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Issue represents a single lint problem found in a file.
type Issue struct {
	FilePath string   // path relative to the content root
	Severity Severity // issue severity level
	Rule     string   // rule identifier (e.g. "frontmatter")
	Message  string   // brief description of the problem
	Fix      string   // suggested fix or command, if any
}

// Result contains all issues found during linting.
type Result struct {
	Issues     []Issue
	FilesTotal int // total files scanned
	Fixed      int // files rewritten by the fixer
}

// HasErrors returns true if any error-level issues exist.
func (r *Result) HasErrors() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ErrorCount returns the number of error-level issues.
func (r *Result) ErrorCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityError {
			n++
		}
	}
	return n
}

// WarningCount returns the number of warning-level issues.
func (r *Result) WarningCount() int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarning {
			n++
		}
	}
	return n
}

// Rule checks one content file.
type Rule interface {
	// Name returns the unique identifier for this rule.
	Name() string

	// Check validates a file and returns any issues found. rel is the path
	// reported in issues; path locates the file on disk.
	Check(path, rel string) ([]Issue, error)
}

// Config controls linter behavior.
type Config struct {
	// Quiet suppresses everything below error severity.
	Quiet bool

	// Format selects the output format: text or json.
	Format string

	// Fix rewrites stale fingerprints in place.
	Fix bool

	// DryRun reports what Fix would rewrite without touching files.
	DryRun bool
}

// IsContentFile returns true for files the linter inspects.
func IsContentFile(path string) bool {
	ext := filepath.Ext(path)
	return ext == ".md" || ext == ".markdown"
}
