package logging

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_AppendQuery(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := NewSQLiteStore(path)
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
	// Newest first.
	assert.Equal(t, "r3", all[0].RunID)
	assert.Equal(t, "r1", all[2].RunID)
	require.Len(t, all[0].Proposals, 2)
	assert.Equal(t, "j1", all[0].Proposals[0].JobID)

	byID, err := s.Query(ctx, RunQuery{RunID: "r2"})
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "r2", byID[0].RunID)

	window, err := s.Query(ctx, RunQuery{Start: base.AddDate(0, 0, 1), End: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "r2", window[0].RunID)

	limited, err := s.Query(ctx, RunQuery{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "r3", limited[0].RunID)

	// Reopen: data survives the handle.
	require.NoError(t, s.Close())
	s2, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s2.Close() }()
	again, err := s2.Query(ctx, RunQuery{})
	require.NoError(t, err)
	assert.Len(t, again, 3)
}
