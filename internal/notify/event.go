package notify

import (
	"time"
)

// BuildEvent is published after every build for downstream consumers
// (dashboards, deploy hooks, chat notifiers).
type BuildEvent struct {
	BuildID string `json:"build_id"`
	Site    string `json:"site"`
	Outcome string `json:"outcome"`

	Units       int `json:"units"`
	Rendered    int `json:"rendered"`
	Carried     int `json:"carried,omitempty"`
	FailedUnits int `json:"failed_units,omitempty"`

	// Issues carries the per-unit problems in compact form.
	Issues []EventIssue `json:"issues,omitempty"`

	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Duration string    `json:"duration"`

	Timestamp time.Time `json:"timestamp"` // when the event was published
}

// EventIssue is the wire form of one report issue.
type EventIssue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Page     string `json:"page,omitempty"`
	Message  string `json:"message"`
}
