package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordRunWithArchive(t *testing.T, l Layout, startedAt time.Time) RecordedRunInfo {
	t.Helper()
	info := RecordedRunInfo{
		ID:         uuid.New(),
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Second),
		Stats:      RunStats{Total: 1, Passed: 1},
	}
	cw, err := NewContentWriter(l, info.ID)
	require.NoError(t, err)
	require.NoError(t, cw.Close())
	require.NoError(t, AppendRun(l, info))
	return info
}

func TestAppendRunAndLoadIndexRoundTrip(t *testing.T) {
	l := NewLayout(t.TempDir())
	info := recordRunWithArchive(t, l, time.Now())

	idx, err := LoadIndex(l)
	require.NoError(t, err)
	require.Len(t, idx.Runs, 1)
	assert.Equal(t, info.ID, idx.Runs[0].ID)
}

func TestResolvePrefixUniqueAndAmbiguous(t *testing.T) {
	l := NewLayout(t.TempDir())
	info := recordRunWithArchive(t, l, time.Now())

	got, err := ResolvePrefix(l, info.ID.String()[:8])
	require.NoError(t, err)
	assert.Equal(t, info.ID, got)

	_, err = ResolvePrefix(l, "zzzzzzzz")
	assert.Error(t, err)

	// With a second run recorded, the empty prefix matches both.
	recordRunWithArchive(t, l, time.Now())
	_, err = ResolvePrefix(l, "")
	assert.Error(t, err)
}

func TestReplayableRequiresMetaAndArchive(t *testing.T) {
	l := NewLayout(t.TempDir())
	info := recordRunWithArchive(t, l, time.Now())
	assert.True(t, Replayable(l, info.ID))
	assert.False(t, Replayable(l, uuid.New()))
}

func TestPruneKeepsOnlyMostRecentN(t *testing.T) {
	l := NewLayout(t.TempDir())
	base := time.Now()
	older := recordRunWithArchive(t, l, base.Add(-2*time.Hour))
	middle := recordRunWithArchive(t, l, base.Add(-1*time.Hour))
	newest := recordRunWithArchive(t, l, base)

	result, err := Prune(l, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Kept)
	assert.Contains(t, result.Removed, older.ID)

	idx, err := LoadIndex(l)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, r := range idx.Runs {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, middle.ID)
	assert.Contains(t, ids, newest.ID)
	assert.NotContains(t, ids, older.ID)
}

func TestPruneRemovesRunsOlderThanCutoff(t *testing.T) {
	l := NewLayout(t.TempDir())
	base := time.Now()
	old := recordRunWithArchive(t, l, base.Add(-48*time.Hour))
	recent := recordRunWithArchive(t, l, base)

	original := timeNow
	timeNow = func() time.Time { return base }
	defer func() { timeNow = original }()

	result, err := Prune(l, 0, 24*time.Hour)
	require.NoError(t, err)
	assert.Contains(t, result.Removed, old.ID)

	idx, err := LoadIndex(l)
	require.NoError(t, err)
	require.Len(t, idx.Runs, 1)
	assert.Equal(t, recent.ID, idx.Runs[0].ID)
}
