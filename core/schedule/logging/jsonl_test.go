package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord(runID string, ts time.Time) RunRecord {
	return RunRecord{
		RunID:       runID,
		Timestamp:   ts,
		Jobs:        3,
		Scheduled:   2,
		Unscheduled: 1,
		SuccessRate: 2.0 / 3.0,
		Proposals: []ProposalRecord{
			{JobID: "j1", EngineerID: "e1", Date: ts.AddDate(0, 0, 2), Score: 0.81, Status: "sent", OfferID: "o1"},
			{JobID: "j2", EngineerID: "e2", Date: ts.AddDate(0, 0, 3), Score: 0.64, Status: "failed", Message: "every candidate rejected"},
		},
		Skipped: []UnscheduledRecord{
			{JobID: "j3", Reason: "no_candidates", Detail: "no engineer/date found"},
		},
	}
}

func TestJSONLStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.log")
	s, err := NewJSONLStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, s.Append(ctx, sampleRecord(id, base.AddDate(0, 0, i))))
	}

	all, err := s.Query(ctx, RunQuery{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Len(t, all[0].Proposals, 2)
	assert.Equal(t, "o1", all[0].Proposals[0].OfferID)
	require.Len(t, all[0].Skipped, 1)
	assert.Equal(t, "no_candidates", all[0].Skipped[0].Reason)

	byID, err := s.Query(ctx, RunQuery{RunID: "r2"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "r2", byID[0].RunID)

	since, err := s.Query(ctx, RunQuery{Start: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Len(t, since, 2)

	limited, err := s.Query(ctx, RunQuery{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJSONLStore_EmptyFile(t *testing.T) {
	s, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.log"))
	require.NoError(t, err)

	res, err := s.Query(context.Background(), RunQuery{})
	require.NoError(t, err)
	assert.Empty(t, res)
}
