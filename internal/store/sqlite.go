package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db  *sql.DB
	key string
}

func NewSQLiteStore(path, key string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	if key == "" {
		key = DefaultKey
	}

	store := &SQLiteStore{db: db, key: key}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadAll(ctx context.Context) ([]*Comment, error) {
	data, err := s.Raw(ctx)
	if err != nil {
		return nil, err
	}
	return decodeSlot("sqlite", s.key, data), nil
}

func (s *SQLiteStore) SaveAll(ctx context.Context, comments []*Comment) error {
	data, err := Encode(comments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, s.key, string(data), time.Now().UTC())

	return err
}

func (s *SQLiteStore) ClearAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, s.key)
	return err
}

// Raw returns the slot exactly as stored, or nil when it is absent.
func (s *SQLiteStore) Raw(ctx context.Context) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM slots WHERE key = ?`, s.key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)
