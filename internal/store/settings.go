package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Setting keys.
const (
	SettingBackupSalt = "backup_salt"
)

// SettingsStore is a small key/value table for process-wide state that must
// survive restarts.
type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Get returns the stored value and whether the key exists.
func (s *SettingsStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %q: %w", key, err)
	}
	return value, true, nil
}

// GetOrCreate returns the value stored under key. When the key is missing
// it stores the result of create first. Concurrent first callers may both
// run create; the first write wins and every caller sees it.
func (s *SettingsStore) GetOrCreate(ctx context.Context, key string, create func() (string, error)) (string, error) {
	if value, ok, err := s.Get(ctx, key); err != nil || ok {
		return value, err
	}

	value, err := create()
	if err != nil {
		return "", fmt.Errorf("create setting %q: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO NOTHING`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("create setting %q: %w", key, err)
	}

	value, _, err = s.Get(ctx, key)
	return value, err
}

func (s *SettingsStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("set setting %q: %w", key, err)
	}
	return nil
}
