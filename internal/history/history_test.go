package history

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/extform/extform/internal/apperr"
	"github.com/extform/extform/internal/release"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestRecordAndRecent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	id, err := st.Record(ctx, RecordInput{
		RunID:   "abc123",
		Project: "pyodbc",
		Info: release.Info{
			Name:    "2.1.4",
			Numbers: [4]int{2, 1, 4, 9999},
			Source:  release.SourceManifest,
		},
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	_, err = st.Record(ctx, RecordInput{
		Project: "pyodbc",
		Info: release.Info{
			Name:    "2.1.5-beta02-[IOPRO]-[abc1234]",
			Numbers: [4]int{2, 1, 4, 2},
			Source:  release.SourceGit,
		},
	})
	require.NoError(t, err)

	entries, err := st.Recent(ctx, "pyodbc", 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "2.1.5-beta02-[IOPRO]-[abc1234]", entries[0].Name)
	assert.Equal(t, [4]int{2, 1, 4, 2}, entries[0].Numbers)
	assert.Equal(t, "git", entries[0].Source)
	assert.NotEmpty(t, entries[0].RunID, "run id fallback should fill in")
	assert.False(t, entries[0].CreatedAt.IsZero())

	assert.Equal(t, "2.1.4", entries[1].Name)
	assert.Equal(t, [4]int{2, 1, 4, 9999}, entries[1].Numbers)
	assert.Equal(t, "abc123", entries[1].RunID)
}

func TestRecent_FiltersByProjectAndLimits(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := st.Record(ctx, RecordInput{
			Project: "pyodbc",
			Info:    release.Info{Name: "2.1.4", Numbers: [4]int{2, 1, 4, 9999}, Source: release.SourceManifest},
		})
		require.NoError(t, err)
	}
	_, err := st.Record(ctx, RecordInput{
		Project: "npodbc",
		Info:    release.Info{Name: "1.2.0", Numbers: [4]int{1, 2, 0, 9999}, Source: release.SourceGit},
	})
	require.NoError(t, err)

	entries, err := st.Recent(ctx, "pyodbc", 2)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "pyodbc", e.Project)
	}

	all, err := st.Recent(ctx, "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestClear(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, project := range []string{"pyodbc", "pyodbc", "npodbc"} {
		_, err := st.Record(ctx, RecordInput{
			Project: project,
			Info:    release.Info{Name: "2.1.4", Numbers: [4]int{2, 1, 4, 9999}, Source: release.SourceFallback},
		})
		require.NoError(t, err)
	}

	n, err := st.Clear(ctx, "pyodbc")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	rest, err := st.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "npodbc", rest[0].Project)

	n, err = st.Clear(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRecord_Validation(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := st.Record(ctx, RecordInput{Info: release.Info{Name: "2.1.4"}})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput), "missing project: %v", err)

	_, err = st.Record(ctx, RecordInput{Project: "pyodbc"})
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput), "missing name: %v", err)
}

func TestOpen_ExpandsTildeInsideHome(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("HOME does not drive the home dir on windows")
	}
	t.Setenv("HOME", t.TempDir())

	st, err := Open("~/.extform/history.db")
	require.NoError(t, err)
	defer st.Close()

	_, err = st.Record(context.Background(), RecordInput{
		Project: "pyodbc",
		Info:    release.Info{Name: "3.0.0-unsupported", Numbers: [4]int{3, 0, 0, 0}, Source: release.SourceFallback},
	})
	require.NoError(t, err)
}

func TestOpen_EmptyPathRejected(t *testing.T) {
	_, err := Open("  ")
	assert.True(t, apperr.IsKind(err, apperr.InvalidInput), "got: %v", err)
}
