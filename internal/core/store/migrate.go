package store

import (
	"context"
	"fmt"
)

// migration moves the schema from version-1 to version. Applied versions are
// tracked in PRAGMA user_version.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "processed notifications and bot state",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS processed_notifications (
				uri TEXT PRIMARY KEY,
				processed_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_processed_notifications_at ON processed_notifications(processed_at)`,
			`CREATE TABLE IF NOT EXISTS bot_state (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL,
				updated_at INTEGER NOT NULL
			)`,
		},
	},
	{
		version: 2,
		name:    "reply audit columns",
		statements: []string{
			`ALTER TABLE processed_notifications ADD COLUMN target TEXT`,
			`ALTER TABLE processed_notifications ADD COLUMN reply_uri TEXT`,
		},
	},
}

// SchemaVersion is the schema version Migrate brings a database to.
func SchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// Migrate applies every migration newer than the database's recorded
// version. Each migration runs in its own transaction.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errNotInitialized
	}
	if ctx == nil {
		ctx = context.Background()
	}

	current, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.DB.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return version, nil
}

func (s *Store) apply(ctx context.Context, m migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for _, stmt := range m.statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
	}
	// PRAGMA does not accept bind parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
		return fmt.Errorf("migration %d (%s): record version: %w", m.version, m.name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d (%s): commit: %w", m.version, m.name, err)
	}
	return nil
}
