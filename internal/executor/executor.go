package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/soyeahso/boardflow/internal/activity"
	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/logging"
)

// ValidationError reports required tool arguments that were absent.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required arguments: " + strings.Join(e.Missing, ", ")
}

// UnknownToolError reports a tool function outside the fixed catalog.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return "unsupported tool function: " + e.Name
}

// Result is the outcome of one executed tool call.
type Result struct {
	Action  string `json:"action"`
	Payload any    `json:"result"`
}

// Executor runs confirmed tool calls against the board API, one remote
// call per tool call. Mutations land in the activity feed; reads do not,
// except searches which the dashboard surfaces.
type Executor struct {
	boards   board.Client
	recorder *activity.Recorder
	log      *logging.Logger
}

// New creates an executor. boards may be nil when no board token is
// configured; every Execute then fails with board.ErrUnavailable.
func New(boards board.Client, recorder *activity.Recorder, log *logging.Logger) *Executor {
	return &Executor{boards: boards, recorder: recorder, log: log}
}

// Execute carries out one confirmed tool call for a board.
func (e *Executor) Execute(ctx context.Context, boardID string, call domain.ToolCallProposal) (*Result, error) {
	if e.boards == nil {
		return nil, board.ErrUnavailable
	}
	if !domain.KnownToolFunction(call.FunctionName) {
		return nil, &UnknownToolError{Name: call.FunctionName}
	}

	e.log.Info().
		Str("board_id", boardID).
		Str("function", call.FunctionName).
		Msg("executing tool call")

	switch call.FunctionName {
	case domain.ToolCreateItem:
		return e.createItem(ctx, boardID, call.Arguments)
	case domain.ToolUpdateItem:
		return e.updateItem(ctx, boardID, call.Arguments)
	case domain.ToolGetSchema:
		return e.getSchema(ctx, boardID, call.Arguments)
	case domain.ToolSearchItems:
		return e.searchItems(ctx, boardID, call.Arguments)
	}
	return nil, &UnknownToolError{Name: call.FunctionName}
}

func (e *Executor) createItem(ctx context.Context, boardID string, raw json.RawMessage) (*Result, error) {
	args, err := parseCreateArgs(raw)
	if err != nil {
		return nil, err
	}
	item, err := e.boards.CreateItem(ctx, board.CreateItemRequest{
		BoardID:      args.BoardID,
		GroupID:      args.GroupID,
		ItemName:     args.ItemName,
		ColumnValues: args.ColumnValues,
	})
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}
	if e.recorder != nil {
		e.recorder.ItemCreated(ctx, boardID, item, columnIDs(args.ColumnValues))
	}
	return &Result{Action: "created", Payload: item}, nil
}

func (e *Executor) updateItem(ctx context.Context, boardID string, raw json.RawMessage) (*Result, error) {
	args, err := parseUpdateArgs(raw)
	if err != nil {
		return nil, err
	}
	item, err := e.boards.UpdateItem(ctx, args.ItemID, args.ColumnValues)
	if err != nil {
		return nil, fmt.Errorf("updating item: %w", err)
	}
	if e.recorder != nil {
		e.recorder.ItemUpdated(ctx, boardID, args.ItemID, columnIDs(args.ColumnValues))
	}
	return &Result{Action: "updated", Payload: item}, nil
}

func (e *Executor) getSchema(ctx context.Context, boardID string, raw json.RawMessage) (*Result, error) {
	args, err := parseSchemaArgs(raw, boardID)
	if err != nil {
		return nil, err
	}
	schema, err := e.boards.GetSchema(ctx, args.BoardID)
	if err != nil {
		return nil, fmt.Errorf("fetching schema: %w", err)
	}
	return &Result{Action: "fetched_schema", Payload: schema}, nil
}

func (e *Executor) searchItems(ctx context.Context, boardID string, raw json.RawMessage) (*Result, error) {
	args, err := parseSearchArgs(raw, boardID)
	if err != nil {
		return nil, err
	}
	items, err := e.boards.SearchItems(ctx, args.BoardID, args.Query, args.Limit)
	if err != nil {
		return nil, fmt.Errorf("searching items: %w", err)
	}
	return &Result{Action: "searched", Payload: items}, nil
}

func columnIDs(values map[string]any) []string {
	if len(values) == 0 {
		return nil
	}
	ids := make([]string, 0, len(values))
	for id := range values {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
