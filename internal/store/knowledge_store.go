package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/soyeahso/boardflow/internal/domain"
)

// ErrNotFound is returned for lookups of absent records.
var ErrNotFound = errors.New("not found")

// KnowledgeStore persists knowledge files and their chunks per board.
type KnowledgeStore interface {
	List(ctx context.Context, boardID string) ([]*domain.KnowledgeFile, error)
	Get(ctx context.Context, boardID, fileID string) (*domain.KnowledgeFile, error)
	Put(ctx context.Context, boardID string, file *domain.KnowledgeFile) error
	Delete(ctx context.Context, boardID, fileID string) error
}

// SQLiteKnowledge stores files and chunks relationally; chunk rows
// cascade on file delete.
type SQLiteKnowledge struct {
	db *DB
}

// NewKnowledgeStore creates a knowledge store on the given database.
func NewKnowledgeStore(db *DB) *SQLiteKnowledge {
	return &SQLiteKnowledge{db: db}
}

func (s *SQLiteKnowledge) List(ctx context.Context, boardID string) ([]*domain.KnowledgeFile, error) {
	rows, err := s.db.SQL().QueryContext(ctx, `
		SELECT id, title, mime_type, size_bytes, uploaded_at
		FROM knowledge_files WHERE board_id = ? ORDER BY uploaded_at, id
	`, boardID)
	if err != nil {
		return nil, fmt.Errorf("listing knowledge files: %w", err)
	}
	defer rows.Close()

	var files []*domain.KnowledgeFile
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing knowledge files: %w", err)
	}

	for _, f := range files {
		if err := s.loadChunks(ctx, f); err != nil {
			return nil, err
		}
	}
	return files, nil
}

func (s *SQLiteKnowledge) Get(ctx context.Context, boardID, fileID string) (*domain.KnowledgeFile, error) {
	row := s.db.SQL().QueryRowContext(ctx, `
		SELECT id, title, mime_type, size_bytes, uploaded_at
		FROM knowledge_files WHERE board_id = ? AND id = ?
	`, boardID, fileID)
	f, err := scanFile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadChunks(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

func (s *SQLiteKnowledge) Put(ctx context.Context, boardID string, file *domain.KnowledgeFile) error {
	tx, err := s.db.SQL().BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("saving knowledge file: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO knowledge_files (id, board_id, title, mime_type, size_bytes, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, file.ID, boardID, file.Title, file.MimeType, file.SizeBytes,
		file.UploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving knowledge file: %w", err)
	}

	for i, ch := range file.Chunks {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO knowledge_chunks (id, file_id, seq, content) VALUES (?, ?, ?, ?)
		`, ch.ID, file.ID, i, ch.Text)
		if err != nil {
			return fmt.Errorf("saving knowledge chunk: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteKnowledge) Delete(ctx context.Context, boardID, fileID string) error {
	res, err := s.db.SQL().ExecContext(ctx,
		"DELETE FROM knowledge_files WHERE board_id = ? AND id = ?", boardID, fileID)
	if err != nil {
		return fmt.Errorf("deleting knowledge file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting knowledge file: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*domain.KnowledgeFile, error) {
	var f domain.KnowledgeFile
	var uploadedAt string
	if err := row.Scan(&f.ID, &f.Title, &f.MimeType, &f.SizeBytes, &uploadedAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing uploaded_at: %w", err)
	}
	f.UploadedAt = t
	return &f, nil
}

func (s *SQLiteKnowledge) loadChunks(ctx context.Context, f *domain.KnowledgeFile) error {
	rows, err := s.db.SQL().QueryContext(ctx,
		"SELECT id, content FROM knowledge_chunks WHERE file_id = ? ORDER BY seq", f.ID)
	if err != nil {
		return fmt.Errorf("loading chunks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ch domain.Chunk
		if err := rows.Scan(&ch.ID, &ch.Text); err != nil {
			return fmt.Errorf("loading chunks: %w", err)
		}
		f.Chunks = append(f.Chunks, ch)
	}
	return rows.Err()
}
