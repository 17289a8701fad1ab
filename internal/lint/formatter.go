package lint

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Formatter renders lint results.
type Formatter interface {
	Format(w io.Writer, result *Result, root string) error
}

// NewFormatter creates the formatter for the given format name.
func NewFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	default:
		return &TextFormatter{}
	}
}

// TextFormatter renders results as human-readable text.
type TextFormatter struct{}

// Format writes the text report.
func (f *TextFormatter) Format(w io.Writer, result *Result, root string) error {
	if _, err := fmt.Fprintf(w, "Linting content in: %s\n\n", root); err != nil {
		return err
	}

	for _, issue := range result.Issues {
		if _, err := fmt.Fprintf(w, "%s %s\n  %s: %s\n",
			severityIcon(issue.Severity), issue.FilePath, issue.Severity, issue.Message); err != nil {
			return err
		}
		if issue.Fix != "" {
			if _, err := fmt.Fprintf(w, "  Fix: %s\n", issue.Fix); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, strings.Repeat("-", 60)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%d files scanned, %d errors, %d warnings\n",
		result.FilesTotal, result.ErrorCount(), result.WarningCount()); err != nil {
		return err
	}
	if result.Fixed > 0 {
		if _, err := fmt.Fprintf(w, "%d files fixed\n", result.Fixed); err != nil {
			return err
		}
	}
	return nil
}

func severityIcon(s Severity) string {
	switch s {
	case SeverityError:
		return "✗"
	case SeverityWarning:
		return "⚠"
	default:
		return "ℹ"
	}
}

// JSONFormatter renders results as JSON.
type JSONFormatter struct{}

type jsonOutput struct {
	Path         string      `json:"path"`
	FilesTotal   int         `json:"files_total"`
	ErrorCount   int         `json:"error_count"`
	WarningCount int         `json:"warning_count"`
	Fixed        int         `json:"fixed,omitempty"`
	Issues       []jsonIssue `json:"issues"`
}

type jsonIssue struct {
	FilePath string `json:"file_path"`
	Severity string `json:"severity"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
	Fix      string `json:"fix,omitempty"`
}

// Format writes the JSON report.
func (f *JSONFormatter) Format(w io.Writer, result *Result, root string) error {
	out := jsonOutput{
		Path:         root,
		FilesTotal:   result.FilesTotal,
		ErrorCount:   result.ErrorCount(),
		WarningCount: result.WarningCount(),
		Fixed:        result.Fixed,
		Issues:       []jsonIssue{},
	}
	for _, issue := range result.Issues {
		out.Issues = append(out.Issues, jsonIssue{
			FilePath: issue.FilePath,
			Severity: issue.Severity.String(),
			Rule:     issue.Rule,
			Message:  issue.Message,
			Fix:      issue.Fix,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
