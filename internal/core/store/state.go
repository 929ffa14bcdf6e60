package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyLastProcessed holds the indexed time of the newest answered mention.
const KeyLastProcessed = "last_processed_timestamp"

// GetState returns the value stored under key and whether it exists.
func (s *Store) GetState(ctx context.Context, key string) (string, bool, error) {
	if s == nil || s.DB == nil {
		return "", false, errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, errors.New("key is required")
	}

	var value string
	row := s.DB.QueryRowContext(ctx, `SELECT value FROM bot_state WHERE key = ?`, key)
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("fetch bot state: %w", err)
	}
	return value, true, nil
}

// SetState stores value under key.
func (s *Store) SetState(ctx context.Context, key, value string) error {
	if s == nil || s.DB == nil {
		return errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key is required")
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO bot_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store bot state: %w", err)
	}
	return nil
}

// GetLastProcessedTimestamp returns the stored watermark, or the zero time.
func (s *Store) GetLastProcessedTimestamp(ctx context.Context) (time.Time, error) {
	value, ok, err := s.GetState(ctx, KeyLastProcessed)
	if err != nil || !ok {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse %s: %w", KeyLastProcessed, err)
	}
	return ts, nil
}

// SetLastProcessedTimestamp stores the watermark. Older values never replace
// a newer one.
func (s *Store) SetLastProcessedTimestamp(ctx context.Context, ts time.Time) error {
	current, err := s.GetLastProcessedTimestamp(ctx)
	if err != nil {
		return err
	}
	if !current.IsZero() && !ts.After(current) {
		return nil
	}
	return s.SetState(ctx, KeyLastProcessed, ts.UTC().Format(time.RFC3339Nano))
}

// ResetState forgets every processed notification and all bot state.
func (s *Store) ResetState(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for _, stmt := range []string{`DELETE FROM processed_notifications`, `DELETE FROM bot_state`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("reset state: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("reset state: %w", err)
	}
	return nil
}
