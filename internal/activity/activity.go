// Package activity records board mutations and extractions into a
// per-board feed, newest first, for the dashboard.
package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/logging"
)

// DefaultFeedSize is how many entries a feed read returns by default.
const DefaultFeedSize = 20

// Store persists per-board activity entries. Implementations cap each
// board's log at a fixed retention, discarding the oldest entries.
type Store interface {
	Append(ctx context.Context, boardID string, entry domain.ActivityEntry) error
	List(ctx context.Context, boardID string, limit int) ([]domain.ActivityEntry, error)
}

// Recorder writes feed entries. Recording is best effort all the way
// down: a failed append is logged and swallowed so it can never fail the
// operation being recorded.
type Recorder struct {
	store  Store
	boards board.Client // optional, used to enrich update entries
	log    *logging.Logger
	notify func(boardID string, entry domain.ActivityEntry)
}

// NewRecorder creates a recorder. boards may be nil; notify may be nil.
func NewRecorder(store Store, boards board.Client, log *logging.Logger) *Recorder {
	return &Recorder{store: store, boards: boards, log: log}
}

// OnAppend registers a hook invoked after each successful append.
func (r *Recorder) OnAppend(fn func(boardID string, entry domain.ActivityEntry)) {
	r.notify = fn
}

// ItemCreated records a create mutation.
func (r *Recorder) ItemCreated(ctx context.Context, boardID string, item *board.Item, columns []string) {
	entry := domain.ActivityEntry{
		Type:           domain.ActivityCreate,
		ChangedColumns: columns,
	}
	if item != nil {
		entry.ItemID = item.ID
		entry.ItemName = item.Name
		entry.Note = fmt.Sprintf("Created item %s", item.Name)
	} else {
		entry.Note = "Created item"
	}
	r.append(ctx, boardID, entry)
}

// ItemUpdated records an update mutation. The item name is looked up for
// the feed; a failed lookup leaves the name blank.
func (r *Recorder) ItemUpdated(ctx context.Context, boardID, itemID string, columns []string) {
	entry := domain.ActivityEntry{
		Type:           domain.ActivityUpdate,
		ItemID:         itemID,
		ChangedColumns: columns,
		Note:           "Updated column values",
	}
	if r.boards != nil {
		name, err := r.boards.ItemName(ctx, itemID)
		if err != nil {
			r.log.Debug().Err(err).Str("item_id", itemID).Msg("feed name lookup failed")
		} else {
			entry.ItemName = name
		}
	}
	r.append(ctx, boardID, entry)
}

// FileParsed records a document extraction.
func (r *Recorder) FileParsed(ctx context.Context, boardID, fileName, itemName string) {
	r.append(ctx, boardID, domain.ActivityEntry{
		Type:     domain.ActivityParse,
		ItemName: itemName,
		Note:     fmt.Sprintf("Parsed %s", fileName),
	})
}

func (r *Recorder) append(ctx context.Context, boardID string, entry domain.ActivityEntry) {
	entry.ID = shortuuid.New()
	entry.Timestamp = time.Now().UTC()
	if err := r.store.Append(ctx, boardID, entry); err != nil {
		r.log.Warn().Err(err).Str("board_id", boardID).Msg("activity append failed")
		return
	}
	if r.notify != nil {
		r.notify(boardID, entry)
	}
}

// Feed returns the newest entries for a board, most recent first.
func (r *Recorder) Feed(ctx context.Context, boardID string, limit int) ([]domain.ActivityEntry, error) {
	if limit <= 0 {
		limit = DefaultFeedSize
	}
	return r.store.List(ctx, boardID, limit)
}
