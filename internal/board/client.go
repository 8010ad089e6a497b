// Package board talks to the external monday-style board API: schema
// queries, item mutations, and item search. The Client interface is what
// the executor and activity log depend on; the GraphQL implementation
// lives in monday.go.
package board

import "context"

// Group is a section of a board.
type Group struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Color string `json:"color,omitempty"`
}

// ColumnSettings is the parsed form of a column's embedded settings blob.
type ColumnSettings struct {
	Labels map[string]string `json:"labels,omitempty"`
}

// Column is a typed field definition on a board, with its settings
// materialized by NormalizeColumns.
type Column struct {
	ID       string         `json:"id"`
	Title    string         `json:"title"`
	Type     string         `json:"type"`
	Settings ColumnSettings `json:"settings"`
}

// Board is the schema of one board.
type Board struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Columns     []Column `json:"columns"`
	Groups      []Group  `json:"groups,omitempty"`
}

// ColumnValue is one rendered cell of an item.
type ColumnValue struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Item is a single record on a board.
type Item struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Group        *Group        `json:"group,omitempty"`
	ColumnValues []ColumnValue `json:"column_values,omitempty"`
	UpdatedAt    string        `json:"updated_at,omitempty"`
}

// CreateItemRequest carries the inputs of a create_item mutation.
type CreateItemRequest struct {
	BoardID      string
	GroupID      string
	ItemName     string
	ColumnValues map[string]any
}

// Client is the board API surface the core consumes. Each method maps to
// a single remote query or mutation.
type Client interface {
	// GetSchema fetches a board's columns and groups, normalized.
	GetSchema(ctx context.Context, boardID string) (*Board, error)

	// CreateItem creates one item and returns it.
	CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error)

	// UpdateItem overwrites column values on an existing item.
	UpdateItem(ctx context.Context, itemID string, columnValues map[string]any) (*Item, error)

	// SearchItems finds items on a board matching a query string.
	SearchItems(ctx context.Context, boardID, query string, limit int) ([]Item, error)

	// ItemName resolves an item's display name (used for best-effort
	// activity enrichment).
	ItemName(ctx context.Context, itemID string) (string, error)
}
