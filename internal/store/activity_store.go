package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soyeahso/boardflow/internal/domain"
)

// DefaultActivityRetention caps how many entries each board's feed keeps.
const DefaultActivityRetention = 50

// SQLiteActivity is the durable activity feed. Each append trims the
// board's log back to the retention cap.
type SQLiteActivity struct {
	db        *DB
	retention int
}

// NewActivityStore creates an activity store. retention <= 0 uses the
// default cap.
func NewActivityStore(db *DB, retention int) *SQLiteActivity {
	if retention <= 0 {
		retention = DefaultActivityRetention
	}
	return &SQLiteActivity{db: db, retention: retention}
}

func (s *SQLiteActivity) Append(ctx context.Context, boardID string, entry domain.ActivityEntry) error {
	var columns any
	if entry.ChangedColumns != nil {
		data, err := json.Marshal(entry.ChangedColumns)
		if err != nil {
			return fmt.Errorf("encoding changed columns: %w", err)
		}
		columns = string(data)
	}

	tx, err := s.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO activity_entries (id, board_id, ts, type, item_id, item_name, changed_columns, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, boardID, entry.Timestamp.UTC().Format(time.RFC3339Nano),
		string(entry.Type), entry.ItemID, entry.ItemName, columns, entry.Note)
	if err != nil {
		return fmt.Errorf("appending activity: %w", err)
	}

	// trim oldest entries past the cap
	_, err = tx.ExecContext(ctx, `
		DELETE FROM activity_entries WHERE board_id = ? AND seq NOT IN (
			SELECT seq FROM activity_entries WHERE board_id = ? ORDER BY seq DESC LIMIT ?
		)
	`, boardID, boardID, s.retention)
	if err != nil {
		return fmt.Errorf("trimming activity: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteActivity) List(ctx context.Context, boardID string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 || limit > s.retention {
		limit = s.retention
	}
	rows, err := s.db.SQL().QueryContext(ctx, `
		SELECT id, ts, type, item_id, item_name, changed_columns, note
		FROM activity_entries WHERE board_id = ? ORDER BY seq DESC LIMIT ?
	`, boardID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing activity: %w", err)
	}
	defer rows.Close()

	entries := []domain.ActivityEntry{}
	for rows.Next() {
		var e domain.ActivityEntry
		var ts, typ string
		var columns *string
		if err := rows.Scan(&e.ID, &ts, &typ, &e.ItemID, &e.ItemName, &columns, &e.Note); err != nil {
			return nil, fmt.Errorf("listing activity: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing activity timestamp: %w", err)
		}
		e.Timestamp = t
		e.Type = domain.ActivityType(typ)
		if columns != nil {
			if err := json.Unmarshal([]byte(*columns), &e.ChangedColumns); err != nil {
				return nil, fmt.Errorf("decoding changed columns: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
