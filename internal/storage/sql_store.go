package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// SQLStore keeps entries in the kv_entries table created by the embedded migrations.
type SQLStore struct {
	db *sqlx.DB
}

func NewSQLStore(db *sqlx.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, s.db.Rebind("SELECT entry_value FROM kv_entries WHERE entry_key = ?"), key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("select kv entry %s: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLStore) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, s.upsertQuery(), key, value); err != nil {
		return fmt.Errorf("upsert kv entry %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Remove(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.db.Rebind("DELETE FROM kv_entries WHERE entry_key = ?"), key); err != nil {
		return fmt.Errorf("delete kv entry %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) upsertQuery() string {
	if s.db.DriverName() == "mysql" {
		return "INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?) ON DUPLICATE KEY UPDATE entry_value = VALUES(entry_value)"
	}
	return "INSERT INTO kv_entries (entry_key, entry_value) VALUES (?, ?) ON CONFLICT(entry_key) DO UPDATE SET entry_value = excluded.entry_value, updated_at = CURRENT_TIMESTAMP"
}
