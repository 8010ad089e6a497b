package gateway

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/boardflow/internal/domain"
)

func dialFeed(t *testing.T, e *testEnv, boardID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.http.URL, "http") + "/ws/feed?boardId=" + boardID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestFeedSocket_ReceivesActivity(t *testing.T) {
	e := newTestEnv(t, true)
	conn := dialFeed(t, e, "42")

	e.server.recorder.FileParsed(context.Background(), "42", "rfp.pdf", "Library HVAC")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var entry domain.ActivityEntry
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, domain.ActivityParse, entry.Type)
	assert.Equal(t, "Parsed rfp.pdf", entry.Note)
}

func TestFeedSocket_ScopedToBoard(t *testing.T) {
	e := newTestEnv(t, true)
	conn := dialFeed(t, e, "42")

	// activity on another board never reaches this subscriber
	e.server.recorder.FileParsed(context.Background(), "99", "other.pdf", "")
	e.server.recorder.FileParsed(context.Background(), "42", "mine.pdf", "")

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var entry domain.ActivityEntry
	require.NoError(t, conn.ReadJSON(&entry))
	assert.Equal(t, "Parsed mine.pdf", entry.Note)
}

func TestFeedHub_DropsDeadSubscribers(t *testing.T) {
	e := newTestEnv(t, true)
	conn := dialFeed(t, e, "42")
	conn.Close()

	// repeated broadcasts to a closed connection must not panic and
	// must eventually evict the subscriber
	assert.Eventually(t, func() bool {
		e.server.feed.broadcast("42", domain.ActivityEntry{ID: "a1"})
		e.server.feed.mu.Lock()
		defer e.server.feed.mu.Unlock()
		return len(e.server.feed.subs["42"]) == 0
	}, 2*time.Second, 50*time.Millisecond)
}
