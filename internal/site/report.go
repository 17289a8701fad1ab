package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// IssueCode enumerates machine-parseable issue identifiers. Codes are a
// stable contract: append, never reuse.
type IssueCode string

const (
	IssueFrontmatterMalformed IssueCode = "FRONTMATTER_MALFORMED"
	IssueFrontmatterInvalid   IssueCode = "FRONTMATTER_INVALID"
	IssueLayoutNotFound       IssueCode = "LAYOUT_NOT_FOUND"
	IssueOutputCollision      IssueCode = "OUTPUT_COLLISION"
	IssueRenderFailure        IssueCode = "RENDER_FAILURE"
	IssueWriteFailure         IssueCode = "WRITE_FAILURE"
	IssueBrokenLink           IssueCode = "BROKEN_LINK"
	IssueContentFetch         IssueCode = "CONTENT_FETCH"
	IssueStageFailure         IssueCode = "STAGE_FAILURE"
	IssueCanceled             IssueCode = "BUILD_CANCELED"
)

// IssueSeverity represents normalized severity levels.
type IssueSeverity string

const (
	SeverityError   IssueSeverity = "error"
	SeverityWarning IssueSeverity = "warning"
)

// Issue is a structured taxonomy entry describing one discrete problem. Page
// names the source unit (relative path) when the issue is unit-scoped.
type Issue struct {
	Code     IssueCode     `json:"code"`
	Stage    string        `json:"stage"`
	Severity IssueSeverity `json:"severity"`
	Page     string        `json:"page,omitempty"`
	Message  string        `json:"message"`
}

// BuildReport captures metrics and issues from one site generation run.
type BuildReport struct {
	SchemaVersion   int
	BuildID         string
	Start           time.Time
	End             time.Time
	Units           int // content units discovered
	Rendered        int // pages rendered and written this run
	Carried         int // pages carried unchanged from the previous build
	FailedUnits     int // units excluded by unit-scoped error issues
	Errors          []error
	Warnings        []error
	StageDurations  map[string]time.Duration
	StageErrorKinds map[string]StageErrorKind
	Issues          []Issue
	Outcome         BuildOutcome
}

func newBuildReport() *BuildReport {
	return &BuildReport{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[string]StageErrorKind),
	}
}

// AddIssue appends a structured issue. Unit-scoped error issues also bump the
// failed-unit counter so the exit status reflects them.
func (r *BuildReport) AddIssue(code IssueCode, stage string, severity IssueSeverity, page, msg string) {
	r.Issues = append(r.Issues, Issue{Code: code, Stage: stage, Severity: severity, Page: page, Message: msg})
	if severity == SeverityError && page != "" {
		r.FailedUnits++
	}
}

// HasFailures reports whether any unit failed or a fatal stage error occurred.
func (r *BuildReport) HasFailures() bool {
	return r.FailedUnits > 0 || len(r.Errors) > 0
}

func (r *BuildReport) finish() { r.End = time.Now() }

// deriveOutcome sets Outcome from recorded errors, issues, and warnings.
func (r *BuildReport) deriveOutcome() {
	for _, e := range r.Errors {
		if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
			r.Outcome = OutcomeCanceled
			return
		}
	}
	if len(r.Errors) > 0 || r.FailedUnits > 0 {
		r.Outcome = OutcomeFailed
		return
	}
	if len(r.Warnings) > 0 || len(r.Issues) > 0 {
		r.Outcome = OutcomeWarning
		return
	}
	r.Outcome = OutcomeSuccess
}

// Summary returns a human-readable single-line summary.
func (r *BuildReport) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("units=%d rendered=%d carried=%d failed=%d issues=%d duration=%s outcome=%s",
		r.Units, r.Rendered, r.Carried, r.FailedUnits, len(r.Issues), dur.Truncate(time.Millisecond), r.Outcome)
}

// FailureLines returns one line per error-severity issue for end-of-run
// reporting.
func (r *BuildReport) FailureLines() []string {
	var lines []string
	for _, is := range r.Issues {
		if is.Severity != SeverityError {
			continue
		}
		if is.Page != "" {
			lines = append(lines, fmt.Sprintf("%s: %s: %s", is.Page, is.Code, is.Message))
		} else {
			lines = append(lines, fmt.Sprintf("%s: %s", is.Code, is.Message))
		}
	}
	return lines
}

// Persist writes the report atomically into root as build-report.json (machine
// readable) and build-report.txt (human summary). Best effort; failures are
// returned for caller logging but do not change the build outcome.
func (r *BuildReport) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}

	jb, err := json.MarshalIndent(r.serializable(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	if err := atomicWrite(filepath.Join(root, "build-report.json"), jb); err != nil {
		return err
	}
	return atomicWrite(filepath.Join(root, "build-report.txt"), []byte(r.Summary()+"\n"))
}

func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("atomic rename %s: %w", path, err)
	}
	return nil
}

// buildReportSerializable mirrors BuildReport with string errors for JSON.
type buildReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	BuildID         string                   `json:"build_id"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Units           int                      `json:"units"`
	Rendered        int                      `json:"rendered"`
	Carried         int                      `json:"carried"`
	FailedUnits     int                      `json:"failed_units"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds"`
	Issues          []Issue                  `json:"issues"`
	Outcome         BuildOutcome             `json:"outcome"`
}

func (r *BuildReport) serializable() *buildReportSerializable {
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[k] = string(v)
	}
	s := &buildReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Start:           r.Start,
		End:             r.End,
		Units:           r.Units,
		Rendered:        r.Rendered,
		Carried:         r.Carried,
		FailedUnits:     r.FailedUnits,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  r.StageDurations,
		StageErrorKinds: sek,
		Issues:          r.Issues,
		Outcome:         r.Outcome,
	}
	if s.Issues == nil {
		s.Issues = []Issue{}
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// MarshalJSON keeps BuildReport directly serializable for consumers that embed
// it (history rows, NATS events).
func (r *BuildReport) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.serializable())
}
