//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	store, err := Open(ctx, config.StoreConfig{
		Driver: "libsql",
		Path:   filepath.Join(t.TempDir(), "reputebot.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(ctx))
	return store
}

func TestMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	require.NoError(t, store.Migrate(ctx))

	version, err := store.schemaVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, SchemaVersion(), version)
}

func TestProcessedNotifications(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	processed, err := store.IsProcessed(ctx, "at://did:plc:a/app.bsky.feed.post/1")
	require.NoError(t, err)
	require.False(t, processed)

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.MarkProcessed(ctx, core.ProcessedNotification{
		URI:         "at://did:plc:a/app.bsky.feed.post/1",
		ProcessedAt: base,
		Target:      "alice.bsky.social",
		ReplyURI:    "at://did:plc:bot/app.bsky.feed.post/r1",
	}))
	require.NoError(t, store.MarkProcessed(ctx, core.ProcessedNotification{
		URI:         "at://did:plc:a/app.bsky.feed.post/2",
		ProcessedAt: base.Add(time.Hour),
	}))
	require.NoError(t, store.MarkProcessed(ctx, core.ProcessedNotification{
		URI:         "at://did:plc:b/app.bsky.feed.post/3",
		ProcessedAt: base.Add(2 * time.Hour),
	}))

	processed, err = store.IsProcessed(ctx, "at://did:plc:a/app.bsky.feed.post/1")
	require.NoError(t, err)
	require.True(t, processed)

	all, err := store.ListProcessed(ctx, ProcessedQuery{All: true})
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "at://did:plc:b/app.bsky.feed.post/3", all[0].URI)
	require.Equal(t, "alice.bsky.social", all[2].Target)
	require.Equal(t, "at://did:plc:bot/app.bsky.feed.post/r1", all[2].ReplyURI)
	require.True(t, base.Equal(all[2].ProcessedAt))

	limited, err := store.ListProcessed(ctx, ProcessedQuery{All: true, Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)

	count, err := store.CountProcessed(ctx, ProcessedQuery{Prefix: "at://did:plc:a/"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	removed, err := store.ResetProcessed(ctx, ProcessedQuery{Before: base.Add(90 * time.Minute)})
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)

	count, err = store.CountProcessed(ctx, ProcessedQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 1, count)

	_, err = store.ResetProcessed(ctx, ProcessedQuery{})
	require.Error(t, err)
}

func TestBotState(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	ts, err := store.GetLastProcessedTimestamp(ctx)
	require.NoError(t, err)
	require.True(t, ts.IsZero())

	first := time.Date(2025, 3, 1, 12, 0, 0, 123000000, time.UTC)
	require.NoError(t, store.SetLastProcessedTimestamp(ctx, first))
	require.NoError(t, store.SetLastProcessedTimestamp(ctx, first.Add(-time.Hour)))

	ts, err = store.GetLastProcessedTimestamp(ctx)
	require.NoError(t, err)
	require.True(t, first.Equal(ts))

	require.NoError(t, store.SetLastProcessedTimestamp(ctx, first.Add(time.Minute)))
	ts, err = store.GetLastProcessedTimestamp(ctx)
	require.NoError(t, err)
	require.True(t, first.Add(time.Minute).Equal(ts))

	require.NoError(t, store.MarkProcessed(ctx, core.ProcessedNotification{URI: "at://x/app.bsky.feed.post/1"}))
	require.NoError(t, store.ResetState(ctx))

	ts, err = store.GetLastProcessedTimestamp(ctx)
	require.NoError(t, err)
	require.True(t, ts.IsZero())

	count, err := store.CountProcessed(ctx, ProcessedQuery{All: true})
	require.NoError(t, err)
	require.Zero(t, count)

	_, ok, err := store.GetState(ctx, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}
