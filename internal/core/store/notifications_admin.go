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

// ProcessedQuery selects processed notifications for the admin commands.
type ProcessedQuery struct {
	All    bool
	URI    string
	Prefix string
	Before time.Time
	Limit  int
}

func (q ProcessedQuery) Validate() error {
	if q.All {
		return nil
	}
	if strings.TrimSpace(q.URI) != "" {
		return nil
	}
	if strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	if !q.Before.IsZero() {
		return nil
	}
	return errors.New("must specify --all, --uri, --prefix, or --before")
}

func (q ProcessedQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if uri := strings.TrimSpace(q.URI); uri != "" {
		return "WHERE uri = ?", []any{uri}, nil
	}

	var (
		clauses []string
		args    []any
	)
	if prefix := strings.TrimSpace(q.Prefix); prefix != "" {
		clauses = append(clauses, "uri LIKE ?")
		args = append(args, prefix+"%")
	}
	if !q.Before.IsZero() {
		clauses = append(clauses, "processed_at < ?")
		args = append(args, q.Before.UTC().UnixMilli())
	}
	return "WHERE " + strings.Join(clauses, " AND "), args, nil
}

// ListProcessed returns matching notifications, newest first.
func (s *Store) ListProcessed(ctx context.Context, q ProcessedQuery) ([]core.ProcessedNotification, error) {
	if s == nil || s.DB == nil {
		return nil, errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}
	limit := ""
	if q.Limit > 0 {
		limit = "LIMIT ?"
		args = append(args, q.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT uri, processed_at, target, reply_uri
		FROM processed_notifications
		%s
		ORDER BY processed_at DESC, uri
		%s
	`, where, limit), args...)
	if err != nil {
		return nil, fmt.Errorf("list processed notifications: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []core.ProcessedNotification{}
	for rows.Next() {
		var (
			uri         string
			processedAt int64
			target      sql.NullString
			replyURI    sql.NullString
		)
		if err := rows.Scan(&uri, &processedAt, &target, &replyURI); err != nil {
			return nil, fmt.Errorf("scan processed notifications: %w", err)
		}
		entries = append(entries, core.ProcessedNotification{
			URI:         uri,
			ProcessedAt: time.UnixMilli(processedAt).UTC(),
			Target:      target.String,
			ReplyURI:    replyURI.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processed notifications: %w", err)
	}

	return entries, nil
}

func (s *Store) CountProcessed(ctx context.Context, q ProcessedQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM processed_notifications
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count processed notifications: %w", err)
	}
	return count, nil
}

func (s *Store) ResetProcessed(ctx context.Context, q ProcessedQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM processed_notifications
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset processed notifications: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset processed notifications: %w", err)
	}
	return affected, nil
}
