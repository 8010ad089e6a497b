package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/logging"
)

const feedWriteTimeout = 10 * time.Second

// feedHub fans out activity entries to WebSocket subscribers, grouped
// by board. Subscribers that fail a write are dropped.
type feedHub struct {
	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]bool
	log  *logging.Logger
}

func newFeedHub(log *logging.Logger) *feedHub {
	return &feedHub{
		subs: make(map[string]map[*websocket.Conn]bool),
		log:  log,
	}
}

func (h *feedHub) subscribe(boardID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[boardID] == nil {
		h.subs[boardID] = make(map[*websocket.Conn]bool)
	}
	h.subs[boardID][conn] = true
}

func (h *feedHub) unsubscribe(boardID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs[boardID], conn)
	if len(h.subs[boardID]) == 0 {
		delete(h.subs, boardID)
	}
}

// broadcast pushes an activity entry to every subscriber of its board.
// The lock is held across writes so concurrent broadcasts never
// interleave frames on one connection; the write deadline bounds how
// long a stalled client can hold it.
func (h *feedHub) broadcast(boardID string, entry domain.ActivityEntry) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.subs[boardID] {
		c.SetWriteDeadline(time.Now().Add(feedWriteTimeout))
		if err := c.WriteJSON(entry); err != nil {
			h.log.Debug().Err(err).Str("board_id", boardID).Msg("dropping feed subscriber")
			delete(h.subs[boardID], c)
			c.Close()
		}
	}
	if len(h.subs[boardID]) == 0 {
		delete(h.subs, boardID)
	}
}

// closeAll disconnects every subscriber, used at shutdown.
func (h *feedHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for boardID, conns := range h.subs {
		for c := range conns {
			c.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
				time.Now().Add(time.Second))
			c.Close()
		}
		delete(h.subs, boardID)
	}
}

// handleFeedSocket upgrades the connection and streams activity entries
// for one board until the client disconnects.
func (s *Server) handleFeedSocket(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	s.feed.subscribe(boardID, conn)
	s.log.Debug().Str("board_id", boardID).Msg("feed subscriber connected")

	defer func() {
		s.feed.unsubscribe(boardID, conn)
		conn.Close()
		s.log.Debug().Str("board_id", boardID).Msg("feed subscriber disconnected")
	}()

	// the socket is write-only; the read loop just detects disconnects
	conn.SetReadLimit(512)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
