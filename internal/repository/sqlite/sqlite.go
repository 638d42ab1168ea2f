package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/dom/hydration-tracker/internal/repository"
	_ "modernc.org/sqlite"
)

// Store is a KVStore kept in a single SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at dataSourceName and its table.
func Open(dataSourceName string) (*Store, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, err
	}
	// One writer; the file is owned by this process.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initDB(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initDB() error {
	kvTable := `
 CREATE TABLE IF NOT EXISTS kv_entries (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
 );`
	_, err := s.db.Exec(kvTable)
	return err
}

func (s *Store) Get(ctx context.Context, key repository.Key) (json.RawMessage, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv_entries WHERE key = ?", key.String()).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return json.RawMessage(value), true, nil
}

func (s *Store) Set(ctx context.Context, key repository.Key, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx, `
 INSERT INTO kv_entries (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key.String(), string(value))
	return err
}

func (s *Store) Remove(ctx context.Context, key repository.Key) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv_entries WHERE key = ?", key.String())
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}
