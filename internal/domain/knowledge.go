package domain

import "time"

// Chunk is a fixed-size slice of a knowledge document, the unit of
// lexical retrieval.
type Chunk struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// KnowledgeFile is an uploaded reference document, chunked at ingestion
// time. Files are owned by the board-scoped knowledge store; agents only
// reference them by id.
type KnowledgeFile struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	Chunks     []Chunk   `json:"chunks,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// Text reassembles the full document text from its chunks.
func (f KnowledgeFile) Text() string {
	var n int
	for _, c := range f.Chunks {
		n += len(c.Text)
	}
	buf := make([]byte, 0, n)
	for _, c := range f.Chunks {
		buf = append(buf, c.Text...)
	}
	return string(buf)
}
