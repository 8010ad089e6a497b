package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/soyeahso/boardflow/internal/domain"
)

// SQLiteTranscripts is the durable conversation transcript, strictly
// append-only and ordered by insertion.
type SQLiteTranscripts struct {
	db *DB
}

// NewTranscriptStore creates a transcript store on the given database.
func NewTranscriptStore(db *DB) *SQLiteTranscripts {
	return &SQLiteTranscripts{db: db}
}

func (s *SQLiteTranscripts) Append(ctx context.Context, key domain.ConversationKey, entry domain.TranscriptEntry) error {
	var toolCall any
	if entry.ToolCall != nil {
		data, err := json.Marshal(entry.ToolCall)
		if err != nil {
			return fmt.Errorf("encoding tool call: %w", err)
		}
		toolCall = string(data)
	}
	_, err := s.db.SQL().ExecContext(ctx, `
		INSERT INTO transcript_entries (conv_key, id, role, kind, content, tool_call, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, key.String(), entry.ID, entry.Role, string(entry.Kind), entry.Content, toolCall,
		entry.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("appending transcript entry: %w", err)
	}
	return nil
}

func (s *SQLiteTranscripts) List(ctx context.Context, key domain.ConversationKey) ([]domain.TranscriptEntry, error) {
	rows, err := s.db.SQL().QueryContext(ctx, `
		SELECT id, role, kind, content, tool_call, ts
		FROM transcript_entries WHERE conv_key = ? ORDER BY seq
	`, key.String())
	if err != nil {
		return nil, fmt.Errorf("listing transcript: %w", err)
	}
	defer rows.Close()

	entries := []domain.TranscriptEntry{}
	for rows.Next() {
		var e domain.TranscriptEntry
		var kind, ts string
		var toolCall *string
		if err := rows.Scan(&e.ID, &e.Role, &kind, &e.Content, &toolCall, &ts); err != nil {
			return nil, fmt.Errorf("listing transcript: %w", err)
		}
		e.Kind = domain.TranscriptKind(kind)
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("parsing transcript timestamp: %w", err)
		}
		e.Timestamp = t
		if toolCall != nil {
			var tc domain.ToolCallProposal
			if err := json.Unmarshal([]byte(*toolCall), &tc); err != nil {
				return nil, fmt.Errorf("decoding tool call: %w", err)
			}
			e.ToolCall = &tc
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
