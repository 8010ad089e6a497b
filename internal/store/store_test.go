package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/logging"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:", logging.New(nil, "silent"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationsIdempotent(t *testing.T) {
	db := testDB(t)
	// running migrate again is a no-op
	require.NoError(t, db.migrate())

	var count int
	require.NoError(t, db.SQL().QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, len(migrations), count)
}

func TestSettingsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewSettingsStore(testDB(t))

	got, err := s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)

	settings := &domain.Settings{APIKey: "pk-1", DefaultModel: "GPT-4o"}
	settings.Normalize()
	require.NoError(t, s.Put(ctx, "42", settings))

	got, err = s.Get(ctx, "42")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "pk-1", got.APIKey)
	assert.Equal(t, "GPT-4o", got.DefaultModel)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, "bid-assistant", got.SelectedAgentID)

	// full replace on save
	settings.APIKey = "pk-2"
	require.NoError(t, s.Put(ctx, "42", settings))
	got, err = s.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "pk-2", got.APIKey)

	// board isolation
	other, err := s.Get(ctx, "43")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestKnowledgeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewKnowledgeStore(testDB(t))

	file := &domain.KnowledgeFile{
		ID:        "f1",
		Title:     "pricing.txt",
		MimeType:  "text/plain",
		SizeBytes: 42,
		Chunks: []domain.Chunk{
			{ID: "c1", Text: "first chunk"},
			{ID: "c2", Text: "second chunk"},
		},
		UploadedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Put(ctx, "42", file))

	got, err := s.Get(ctx, "42", "f1")
	require.NoError(t, err)
	assert.Equal(t, "pricing.txt", got.Title)
	require.Len(t, got.Chunks, 2)
	assert.Equal(t, "first chunk", got.Chunks[0].Text)
	assert.Equal(t, "second chunk", got.Chunks[1].Text)

	list, err := s.List(ctx, "42")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Len(t, list[0].Chunks, 2)

	// wrong board does not see it
	_, err = s.Get(ctx, "43", "f1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "42", "f1"))
	_, err = s.Get(ctx, "42", "f1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(ctx, "42", "f1"), ErrNotFound)
}

func TestKnowledgeDeleteCascadesChunks(t *testing.T) {
	ctx := context.Background()
	db := testDB(t)
	s := NewKnowledgeStore(db)

	file := &domain.KnowledgeFile{
		ID:         "f1",
		Title:      "doc",
		Chunks:     []domain.Chunk{{ID: "c1", Text: "x"}},
		UploadedAt: time.Now().UTC(),
	}
	require.NoError(t, s.Put(ctx, "42", file))
	require.NoError(t, s.Delete(ctx, "42", "f1"))

	var count int
	require.NoError(t, db.SQL().QueryRow("SELECT COUNT(*) FROM knowledge_chunks").Scan(&count))
	assert.Zero(t, count)
}

func activityEntry(i int) domain.ActivityEntry {
	return domain.ActivityEntry{
		ID:        fmt.Sprintf("e%d", i),
		Timestamp: time.Now().UTC(),
		Type:      domain.ActivityParse,
		Note:      fmt.Sprintf("entry %d", i),
	}
}

func TestActivityNewestFirstAndRetention(t *testing.T) {
	ctx := context.Background()
	s := NewActivityStore(testDB(t), 50)

	for i := 0; i < 51; i++ {
		require.NoError(t, s.Append(ctx, "42", activityEntry(i)))
	}

	list, err := s.List(ctx, "42", 0)
	require.NoError(t, err)
	require.Len(t, list, 50)
	// newest first, oldest entry trimmed
	assert.Equal(t, "entry 50", list[0].Note)
	assert.Equal(t, "entry 1", list[49].Note)
}

func TestActivityLimitAndColumns(t *testing.T) {
	ctx := context.Background()
	s := NewActivityStore(testDB(t), 50)

	entry := activityEntry(1)
	entry.Type = domain.ActivityUpdate
	entry.ItemID = "7"
	entry.ItemName = "Acme"
	entry.ChangedColumns = []string{"date", "status"}
	require.NoError(t, s.Append(ctx, "42", entry))
	require.NoError(t, s.Append(ctx, "42", activityEntry(2)))

	list, err := s.List(ctx, "42", 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "entry 2", list[0].Note)

	list, err = s.List(ctx, "42", 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, []string{"date", "status"}, list[1].ChangedColumns)
	assert.Equal(t, "Acme", list[1].ItemName)

	// board isolation
	empty, err := s.List(ctx, "43", 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestTranscriptRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewTranscriptStore(testDB(t))
	key := domain.ConversationKey{BoardID: "42", AgentID: "bid-assistant"}

	require.NoError(t, s.Append(ctx, key, domain.TranscriptEntry{
		ID: "t1", Role: "user", Kind: domain.KindText, Content: "hello",
		Timestamp: time.Now().UTC(),
	}))
	require.NoError(t, s.Append(ctx, key, domain.TranscriptEntry{
		ID: "t2", Role: "assistant", Kind: domain.KindProposal, Content: "creating",
		ToolCall: &domain.ToolCallProposal{
			ID:           "p1",
			FunctionName: domain.ToolCreateItem,
			Arguments:    json.RawMessage(`{"board_id":"42"}`),
		},
		Timestamp: time.Now().UTC(),
	}))

	list, err := s.List(ctx, key)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "hello", list[0].Content)
	assert.Nil(t, list[0].ToolCall)
	require.NotNil(t, list[1].ToolCall)
	assert.Equal(t, domain.ToolCreateItem, list[1].ToolCall.FunctionName)

	// conversation isolation
	other, err := s.List(ctx, domain.ConversationKey{BoardID: "42", AgentID: "other"})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestMemoryBackingParity(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory(3)

	settings := MemorySettings{mem}
	got, err := settings.Get(ctx, "42")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, settings.Put(ctx, "42", &domain.Settings{APIKey: "k"}))
	got, err = settings.Get(ctx, "42")
	require.NoError(t, err)
	assert.Equal(t, "k", got.APIKey)

	know := MemoryKnowledge{mem}
	require.NoError(t, know.Put(ctx, "42", &domain.KnowledgeFile{ID: "f1", Title: "doc"}))
	f, err := know.Get(ctx, "42", "f1")
	require.NoError(t, err)
	assert.Equal(t, "doc", f.Title)
	require.NoError(t, know.Delete(ctx, "42", "f1"))
	_, err = know.Get(ctx, "42", "f1")
	assert.ErrorIs(t, err, ErrNotFound)

	act := MemoryActivity{mem}
	for i := 0; i < 5; i++ {
		require.NoError(t, act.Append(ctx, "42", activityEntry(i)))
	}
	list, err := act.List(ctx, "42", 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "entry 4", list[0].Note)

	trans := MemoryTranscripts{mem}
	key := domain.ConversationKey{BoardID: "42", AgentID: "a"}
	require.NoError(t, trans.Append(ctx, key, domain.TranscriptEntry{ID: "t1", Content: "hi"}))
	entries, err := trans.List(ctx, key)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
