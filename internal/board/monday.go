package board

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// ErrUnavailable is returned when no authenticated board client exists
// in the current context.
var ErrUnavailable = errors.New("board client unavailable")

// APIError is a failure reported by the board API.
type APIError struct {
	Code    int    // HTTP status, when one was received
	Message string
	Detail  string // raw upstream body, preserved for diagnostics
	Timeout bool
}

func (e *APIError) Error() string {
	if e.Timeout {
		return "board api: request timed out"
	}
	if e.Code > 0 {
		return fmt.Sprintf("board api: %d %s", e.Code, e.Message)
	}
	return "board api: " + e.Message
}

// MondayClient is a GraphQL HTTP client for the monday.com API.
type MondayClient struct {
	token    string
	endpoint string
	client   *http.Client
}

// MondayOption configures a MondayClient.
type MondayOption func(*MondayClient)

// WithEndpoint overrides the API endpoint (useful for tests).
func WithEndpoint(url string) MondayOption {
	return func(c *MondayClient) { c.endpoint = url }
}

// NewMondayClient creates a board API client authenticated by token.
func NewMondayClient(token string, opts ...MondayOption) *MondayClient {
	c := &MondayClient{
		token:    token,
		endpoint: "https://api.monday.com/v2",
		client:   &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// query executes one GraphQL request and unmarshals data into out.
func (c *MondayClient) query(ctx context.Context, query string, variables map[string]any, out any) error {
	payload, err := json.Marshal(map[string]any{
		"query":     query,
		"variables": variables,
	})
	if err != nil {
		return fmt.Errorf("marshaling query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		apiErr := &APIError{Message: err.Error()}
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			apiErr.Timeout = true
		}
		if errors.Is(err, context.DeadlineExceeded) {
			apiErr.Timeout = true
		}
		return apiErr
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Message: err.Error()}
	}
	if resp.StatusCode != http.StatusOK {
		return &APIError{Code: resp.StatusCode, Message: http.StatusText(resp.StatusCode), Detail: string(body)}
	}

	var wrapper struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	if len(wrapper.Errors) > 0 {
		msgs := make([]string, len(wrapper.Errors))
		for i, e := range wrapper.Errors {
			msgs[i] = e.Message
		}
		return &APIError{Code: resp.StatusCode, Message: strings.Join(msgs, "; "), Detail: string(body)}
	}
	if out != nil {
		if err := json.Unmarshal(wrapper.Data, out); err != nil {
			return fmt.Errorf("parsing response data: %w", err)
		}
	}
	return nil
}

const schemaQuery = `
query ($boardId: [ID!]) {
  boards(ids: $boardId) {
    id
    name
    description
    columns { id title type settings_str }
    groups { id title color }
  }
}`

// GetSchema fetches one board's schema with columns normalized.
func (c *MondayClient) GetSchema(ctx context.Context, boardID string) (*Board, error) {
	var data struct {
		Boards []struct {
			ID          string      `json:"id"`
			Name        string      `json:"name"`
			Description string      `json:"description"`
			Columns     []RawColumn `json:"columns"`
			Groups      []Group     `json:"groups"`
		} `json:"boards"`
	}
	if err := c.query(ctx, schemaQuery, map[string]any{"boardId": []string{boardID}}, &data); err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return nil, &APIError{Code: http.StatusNotFound, Message: "board not found: " + boardID}
	}
	b := data.Boards[0]
	return &Board{
		ID:          b.ID,
		Name:        b.Name,
		Description: b.Description,
		Columns:     NormalizeColumns(b.Columns),
		Groups:      b.Groups,
	}, nil
}

const createItemMutation = `
mutation ($boardId: ID!, $groupId: String, $itemName: String!, $columnValues: JSON) {
  create_item(
    board_id: $boardId,
    group_id: $groupId,
    item_name: $itemName,
    column_values: $columnValues
  ) {
    id
    name
    group { id title }
  }
}`

// CreateItem creates one item on a board.
func (c *MondayClient) CreateItem(ctx context.Context, req CreateItemRequest) (*Item, error) {
	columnValues, err := json.Marshal(req.ColumnValues)
	if err != nil {
		return nil, fmt.Errorf("marshaling column values: %w", err)
	}

	variables := map[string]any{
		"boardId":      req.BoardID,
		"itemName":     req.ItemName,
		"columnValues": string(columnValues),
	}
	if req.GroupID != "" {
		variables["groupId"] = req.GroupID
	}

	var data struct {
		CreateItem *Item `json:"create_item"`
	}
	if err := c.query(ctx, createItemMutation, variables, &data); err != nil {
		return nil, err
	}
	return data.CreateItem, nil
}

const updateItemMutation = `
mutation ($itemId: ID!, $columnValues: JSON!) {
  change_multiple_column_values(
    item_id: $itemId,
    column_values: $columnValues
  ) {
    id
    name
    updated_at
  }
}`

// UpdateItem overwrites column values on an existing item.
func (c *MondayClient) UpdateItem(ctx context.Context, itemID string, columnValues map[string]any) (*Item, error) {
	encoded, err := json.Marshal(columnValues)
	if err != nil {
		return nil, fmt.Errorf("marshaling column values: %w", err)
	}

	var data struct {
		ChangeMultipleColumnValues *Item `json:"change_multiple_column_values"`
	}
	err = c.query(ctx, updateItemMutation, map[string]any{
		"itemId":       itemID,
		"columnValues": string(encoded),
	}, &data)
	if err != nil {
		return nil, err
	}
	return data.ChangeMultipleColumnValues, nil
}

const searchItemsQuery = `
query ($boardId: [ID!], $limit: Int, $search: String) {
  boards(ids: $boardId) {
    items_page(limit: $limit, query_params: { search: $search }) {
      items {
        id
        name
        column_values { id text }
        group { id title }
      }
    }
  }
}`

// SearchItems finds items on a board matching the query string.
func (c *MondayClient) SearchItems(ctx context.Context, boardID, query string, limit int) ([]Item, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var data struct {
		Boards []struct {
			ItemsPage struct {
				Items []Item `json:"items"`
			} `json:"items_page"`
		} `json:"boards"`
	}
	err := c.query(ctx, searchItemsQuery, map[string]any{
		"boardId": []string{boardID},
		"limit":   limit,
		"search":  query,
	}, &data)
	if err != nil {
		return nil, err
	}
	if len(data.Boards) == 0 {
		return []Item{}, nil
	}
	return data.Boards[0].ItemsPage.Items, nil
}

const itemNameQuery = `
query ($itemId: [ID!]) {
  items(ids: $itemId) { id name }
}`

// ItemName resolves an item's display name.
func (c *MondayClient) ItemName(ctx context.Context, itemID string) (string, error) {
	var data struct {
		Items []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"items"`
	}
	if err := c.query(ctx, itemNameQuery, map[string]any{"itemId": []string{itemID}}, &data); err != nil {
		return "", err
	}
	if len(data.Items) == 0 {
		return "", &APIError{Code: http.StatusNotFound, Message: "item not found: " + itemID}
	}
	return data.Items[0].Name, nil
}
