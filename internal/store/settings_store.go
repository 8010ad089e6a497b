package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/soyeahso/boardflow/internal/domain"
)

// SettingsStore persists per-board settings. Get returns (nil, nil)
// when a board has never saved settings.
type SettingsStore interface {
	Get(ctx context.Context, boardID string) (*domain.Settings, error)
	Put(ctx context.Context, boardID string, settings *domain.Settings) error
}

// SQLiteSettings stores settings as a JSON blob per board. Settings are
// replaced wholesale on save, so a blob column beats a wide table here.
type SQLiteSettings struct {
	db *DB
}

// NewSettingsStore creates a settings store on the given database.
func NewSettingsStore(db *DB) *SQLiteSettings {
	return &SQLiteSettings{db: db}
}

func (s *SQLiteSettings) Get(ctx context.Context, boardID string) (*domain.Settings, error) {
	var data string
	err := s.db.SQL().QueryRowContext(ctx,
		"SELECT data FROM settings WHERE board_id = ?", boardID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	var settings domain.Settings
	if err := json.Unmarshal([]byte(data), &settings); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	return &settings, nil
}

func (s *SQLiteSettings) Put(ctx context.Context, boardID string, settings *domain.Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}
	_, err = s.db.SQL().ExecContext(ctx, `
		INSERT INTO settings (board_id, data, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(board_id) DO UPDATE SET data = excluded.data, updated_at = datetime('now')
	`, boardID, string(data))
	if err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	return nil
}
