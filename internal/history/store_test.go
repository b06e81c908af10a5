package history

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRecordAndRecent(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, Run{
		BuildID: "b-1", Started: base, Duration: 400 * time.Millisecond,
		Outcome: "success", Pages: 12, ManifestHash: "aaa",
	}))
	require.NoError(t, store.Record(ctx, Run{
		BuildID: "b-2", Started: base.Add(time.Hour), Duration: 90 * time.Millisecond,
		Outcome: "failed", Pages: 0,
	}))

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "b-2", runs[0].BuildID)
	require.Equal(t, "b-1", runs[1].BuildID)
	require.Equal(t, 12, runs[1].Pages)
	require.Equal(t, 400*time.Millisecond, runs[1].Duration)
}

func TestRecentLimit(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Run{
			BuildID: "b", Started: time.Now().Add(time.Duration(i) * time.Minute),
			Outcome: "success",
		}))
	}
	runs, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
}

func TestLastPublishedHash(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	hash, err := store.LastPublishedHash(ctx)
	require.NoError(t, err)
	require.Empty(t, hash)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, Run{BuildID: "b-1", Started: base, Outcome: "success", ManifestHash: "aaa"}))
	require.NoError(t, store.MarkPublished(ctx, "b-1"))

	// A later successful build whose publish never happened must not win.
	require.NoError(t, store.Record(ctx, Run{BuildID: "b-2", Started: base.Add(time.Hour), Outcome: "success", ManifestHash: "bbb"}))

	hash, err = store.LastPublishedHash(ctx)
	require.NoError(t, err)
	require.Equal(t, "aaa", hash)

	require.NoError(t, store.MarkPublished(ctx, "b-2"))
	hash, err = store.LastPublishedHash(ctx)
	require.NoError(t, err)
	require.Equal(t, "bbb", hash)

	runs, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.True(t, runs[0].Published)
}

func TestOpenCreatesParentDirectory(t *testing.T) {
	path := t.TempDir() + "/nested/history.db"
	store, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())
}
