package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sharetube/smartpresent/internal/repository/presentation"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS presentation_kv (
	presentation_id TEXT NOT NULL,
	key             TEXT NOT NULL,
	value           BLOB NOT NULL,
	updated_at      INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (presentation_id, key)
)`

const upsert = `
INSERT INTO presentation_kv (presentation_id, key, value)
VALUES (?, ?, ?)
ON CONFLICT (presentation_id, key) DO UPDATE SET
	value = excluded.value,
	updated_at = unixepoch()`

// Store keeps presentation records in a single SQLite table.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the database at path and creates the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(ctx context.Context, presentationID, key string) ([]byte, error) {
	var value []byte
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT value FROM presentation_kv WHERE presentation_id = ? AND key = ?`,
		presentationID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, presentation.ErrNotFound
		}
		return nil, fmt.Errorf("get %s: %w", key, err)
	}

	return value, nil
}

func (s *Store) Put(ctx context.Context, presentationID, key string, value []byte) error {
	if _, err := s.sqlDB.ExecContext(ctx, upsert, presentationID, key, value); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}

	return nil
}

func (s *Store) PutMany(ctx context.Context, presentationID string, values map[string][]byte) error {
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for key, value := range values {
		if _, err := tx.ExecContext(ctx, upsert, presentationID, key, value); err != nil {
			return fmt.Errorf("put %s: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func (s *Store) Exists(ctx context.Context, presentationID string) (bool, error) {
	var n int
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM presentation_kv WHERE presentation_id = ? AND key = ?`,
		presentationID, presentation.KeyMeta,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check presentation: %w", err)
	}

	return n > 0, nil
}
