package notify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

func TestEventFromReport(t *testing.T) {
	start := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	r := &site.BuildReport{
		BuildID:  "b-1",
		Start:    start,
		End:      start.Add(1500 * time.Millisecond),
		Units:    4,
		Rendered: 3,
		Carried:  1,
		Outcome:  site.OutcomeWarning,
		Issues: []site.Issue{
			{Code: site.IssueBrokenLink, Stage: "link_check", Severity: site.SeverityWarning,
				Page: "about/index.html", Message: "dangling"},
		},
	}

	e := eventFromReport("My Site", r)
	assert.Equal(t, "b-1", e.BuildID)
	assert.Equal(t, "My Site", e.Site)
	assert.Equal(t, "warning", e.Outcome)
	assert.Equal(t, 4, e.Units)
	assert.Equal(t, "1.5s", e.Duration)
	require.Len(t, e.Issues, 1)
	assert.Equal(t, "BROKEN_LINK", e.Issues[0].Code)
	assert.Equal(t, "about/index.html", e.Issues[0].Page)
}
