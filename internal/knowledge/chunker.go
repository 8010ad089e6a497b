// Package knowledge maintains the per-board reference corpus: uploaded
// files are split into fixed-size chunks, retrieved lexically at chat
// time, and rendered into the prompt context block.
package knowledge

import (
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/soyeahso/boardflow/internal/domain"
)

// Chunker splits file text into fixed-size chunks.
type Chunker struct {
	size int
}

// NewChunker creates a chunker producing chunks of at most size runes.
func NewChunker(size int) *Chunker {
	if size <= 0 {
		size = 1200
	}
	return &Chunker{size: size}
}

// Split breaks text into sequential chunks. The final chunk carries the
// remainder and may be shorter; empty text yields no chunks.
func (c *Chunker) Split(text string) []domain.Chunk {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	chunks := make([]domain.Chunk, 0, (len(runes)+c.size-1)/c.size)
	for start := 0; start < len(runes); start += c.size {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			ID:   shortuuid.New(),
			Text: string(runes[start:end]),
		})
	}
	return chunks
}

// NewFile builds a knowledge file record from uploaded content.
func (c *Chunker) NewFile(title, mimeType, text string) *domain.KnowledgeFile {
	return &domain.KnowledgeFile{
		ID:         shortuuid.New(),
		Title:      title,
		MimeType:   mimeType,
		SizeBytes:  int64(len(text)),
		Chunks:     c.Split(text),
		UploadedAt: time.Now().UTC(),
	}
}
