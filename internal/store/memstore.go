package store

import (
	"context"
	"sync"

	"github.com/soyeahso/boardflow/internal/domain"
)

// Memory is a process-local backing for all stores, used when
// store.driver is "memory" and in tests. State is lost on restart.
type Memory struct {
	mu          sync.RWMutex
	settings    map[string]*domain.Settings
	knowledge   map[string][]*domain.KnowledgeFile
	activity    map[string][]domain.ActivityEntry
	transcripts map[string][]domain.TranscriptEntry
	retention   int
}

// NewMemory creates an empty in-memory backing.
func NewMemory(retention int) *Memory {
	if retention <= 0 {
		retention = DefaultActivityRetention
	}
	return &Memory{
		settings:    map[string]*domain.Settings{},
		knowledge:   map[string][]*domain.KnowledgeFile{},
		activity:    map[string][]domain.ActivityEntry{},
		transcripts: map[string][]domain.TranscriptEntry{},
		retention:   retention,
	}
}

// MemorySettings exposes the settings portion of a Memory backing.
type MemorySettings struct{ *Memory }

func (m MemorySettings) Get(ctx context.Context, boardID string) (*domain.Settings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.settings[boardID]
	if !ok {
		return nil, nil
	}
	clone := *s
	clone.Agents = append([]domain.Agent(nil), s.Agents...)
	return &clone, nil
}

func (m MemorySettings) Put(ctx context.Context, boardID string, settings *domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *settings
	clone.Agents = append([]domain.Agent(nil), settings.Agents...)
	m.settings[boardID] = &clone
	return nil
}

// MemoryKnowledge exposes the knowledge portion of a Memory backing.
type MemoryKnowledge struct{ *Memory }

func (m MemoryKnowledge) List(ctx context.Context, boardID string) ([]*domain.KnowledgeFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]*domain.KnowledgeFile(nil), m.knowledge[boardID]...), nil
}

func (m MemoryKnowledge) Get(ctx context.Context, boardID, fileID string) (*domain.KnowledgeFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.knowledge[boardID] {
		if f.ID == fileID {
			return f, nil
		}
	}
	return nil, ErrNotFound
}

func (m MemoryKnowledge) Put(ctx context.Context, boardID string, file *domain.KnowledgeFile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.knowledge[boardID] = append(m.knowledge[boardID], file)
	return nil
}

func (m MemoryKnowledge) Delete(ctx context.Context, boardID, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	files := m.knowledge[boardID]
	for i, f := range files {
		if f.ID == fileID {
			m.knowledge[boardID] = append(files[:i], files[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// MemoryActivity exposes the activity portion of a Memory backing.
type MemoryActivity struct{ *Memory }

func (m MemoryActivity) Append(ctx context.Context, boardID string, entry domain.ActivityEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := append([]domain.ActivityEntry{entry}, m.activity[boardID]...)
	if len(list) > m.retention {
		list = list[:m.retention]
	}
	m.activity[boardID] = list
	return nil
}

func (m MemoryActivity) List(ctx context.Context, boardID string, limit int) ([]domain.ActivityEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.activity[boardID]
	if limit <= 0 || limit > m.retention {
		limit = m.retention
	}
	if len(list) > limit {
		list = list[:limit]
	}
	return append([]domain.ActivityEntry(nil), list...), nil
}

// MemoryTranscripts exposes the transcript portion of a Memory backing.
type MemoryTranscripts struct{ *Memory }

func (m MemoryTranscripts) Append(ctx context.Context, key domain.ConversationKey, entry domain.TranscriptEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts[key.String()] = append(m.transcripts[key.String()], entry)
	return nil
}

func (m MemoryTranscripts) List(ctx context.Context, key domain.ConversationKey) ([]domain.TranscriptEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.TranscriptEntry(nil), m.transcripts[key.String()]...), nil
}
