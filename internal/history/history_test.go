package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuilder/internal/site"
)

func testReport(id string, outcome site.BuildOutcome) *site.BuildReport {
	start := time.Date(2026, 8, 26, 9, 0, 0, 0, time.UTC)
	return &site.BuildReport{
		SchemaVersion: 1,
		BuildID:       id,
		Start:         start,
		End:           start.Add(2 * time.Second),
		Units:         3,
		Rendered:      3,
		Outcome:       outcome,
	}
}

func TestRecordAndRecentBuilds(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.RecordBuild(ctx, testReport("b-1", site.OutcomeSuccess)))
	require.NoError(t, s.RecordBuild(ctx, testReport("b-2", site.OutcomeFailed)))

	records, err := s.RecentBuilds(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "b-2", records[0].BuildID)
	assert.Equal(t, "failed", records[0].Outcome)
	assert.Equal(t, "b-1", records[1].BuildID)
	assert.Equal(t, 3, records[1].Units)
	assert.NotEmpty(t, records[0].Report)
}

func TestRecentBuildsLimit(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	for _, id := range []string{"b-1", "b-2", "b-3"} {
		require.NoError(t, s.RecordBuild(ctx, testReport(id, site.OutcomeSuccess)))
	}

	records, err := s.RecentBuilds(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b-3", records[0].BuildID)
}

func TestBuildByID(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.RecordBuild(ctx, testReport("b-1", site.OutcomeWarning)))

	r, err := s.BuildByID(ctx, "b-1")
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "warning", r.Outcome)

	missing, err := s.BuildByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDuplicateBuildIDRejected(t *testing.T) {
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	require.NoError(t, s.RecordBuild(ctx, testReport("b-1", site.OutcomeSuccess)))
	assert.Error(t, s.RecordBuild(ctx, testReport("b-1", site.OutcomeSuccess)))
}
