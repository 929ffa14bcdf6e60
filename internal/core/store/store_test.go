package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/reputebot/reputebot/internal/config"
	"github.com/reputebot/reputebot/internal/core"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./reputebot.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./reputebot.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestProcessedQueryWhereClause(t *testing.T) {
	t.Run("RequiresSelector", func(t *testing.T) {
		_, _, err := ProcessedQuery{}.whereClause()
		require.Error(t, err)
	})

	t.Run("All", func(t *testing.T) {
		where, args, err := ProcessedQuery{All: true, URI: "ignored"}.whereClause()
		require.NoError(t, err)
		require.Empty(t, where)
		require.Empty(t, args)
	})

	t.Run("URIWinsOverPrefix", func(t *testing.T) {
		where, args, err := ProcessedQuery{URI: "at://a", Prefix: "at://"}.whereClause()
		require.NoError(t, err)
		require.Equal(t, "WHERE uri = ?", where)
		require.Equal(t, []any{"at://a"}, args)
	})

	t.Run("PrefixAndBefore", func(t *testing.T) {
		before := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
		where, args, err := ProcessedQuery{Prefix: "at://did:plc:abc", Before: before}.whereClause()
		require.NoError(t, err)
		require.Equal(t, "WHERE uri LIKE ? AND processed_at < ?", where)
		require.Equal(t, []any{"at://did:plc:abc%", before.UnixMilli()}, args)
	})
}

func TestNilStore(t *testing.T) {
	var s *Store
	ctx := context.Background()

	require.Error(t, s.Migrate(ctx))
	_, err := s.IsProcessed(ctx, "at://x")
	require.Error(t, err)
	require.Error(t, s.MarkProcessed(ctx, core.ProcessedNotification{URI: "at://x"}))
	_, err = s.ListProcessed(ctx, ProcessedQuery{All: true})
	require.Error(t, err)
	require.Error(t, s.ResetState(ctx))
	require.Error(t, s.Ping(ctx))
	require.NoError(t, s.Close())
	require.Empty(t, s.Driver())
}
