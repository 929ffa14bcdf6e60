package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/reputebot/reputebot/internal/core"
)

// IsProcessed reports whether a notification URI has already been answered.
func (s *Store) IsProcessed(ctx context.Context, uri string) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	uri = strings.TrimSpace(uri)
	if uri == "" {
		return false, errors.New("uri is required")
	}

	var found int
	row := s.DB.QueryRowContext(ctx, `SELECT 1 FROM processed_notifications WHERE uri = ?`, uri)
	if err := row.Scan(&found); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("fetch processed notification: %w", err)
	}
	return true, nil
}

// MarkProcessed records a notification as answered. Marking twice keeps the
// latest details.
func (s *Store) MarkProcessed(ctx context.Context, entry core.ProcessedNotification) error {
	if s == nil || s.DB == nil {
		return errNotInitialized
	}

	if ctx == nil {
		ctx = context.Background()
	}

	entry.URI = strings.TrimSpace(entry.URI)
	if entry.URI == "" {
		return errors.New("uri is required")
	}
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = time.Now()
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO processed_notifications (uri, processed_at, target, reply_uri)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(uri) DO UPDATE SET
			processed_at = excluded.processed_at,
			target = excluded.target,
			reply_uri = excluded.reply_uri
	`, entry.URI, entry.ProcessedAt.UTC().UnixMilli(), nullString(entry.Target), nullString(entry.ReplyURI))
	if err != nil {
		return fmt.Errorf("store processed notification: %w", err)
	}

	return nil
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}
