package executor

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawArgs is the loosely-shaped argument object models emit: keys may be
// snake_case or camelCase, and the whole thing may arrive as a
// JSON-encoded string instead of an object.
type rawArgs map[string]json.RawMessage

// decodeArgs normalizes the model's argument payload into a key map.
// An empty payload decodes to an empty map.
func decodeArgs(raw json.RawMessage) (rawArgs, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return rawArgs{}, nil
	}

	// a JSON string wrapping the real object
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return nil, fmt.Errorf("decoding argument string: %w", err)
		}
		trimmed = strings.TrimSpace(inner)
		if trimmed == "" {
			return rawArgs{}, nil
		}
	}

	var m rawArgs
	if err := json.Unmarshal([]byte(trimmed), &m); err != nil {
		return nil, fmt.Errorf("decoding arguments: %w", err)
	}
	if m == nil {
		m = rawArgs{}
	}
	return m, nil
}

// str returns the first present key's string value.
func (a rawArgs) str(keys ...string) string {
	for _, k := range keys {
		raw, ok := a[k]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return ""
}

// object returns the first present key's object value.
func (a rawArgs) object(keys ...string) map[string]any {
	for _, k := range keys {
		raw, ok := a[k]
		if !ok {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal(raw, &m); err == nil && m != nil {
			return m
		}
	}
	return nil
}

// number returns the first present key's numeric value, tolerating
// numbers sent as strings.
func (a rawArgs) number(keys ...string) int {
	for _, k := range keys {
		raw, ok := a[k]
		if !ok {
			continue
		}
		var n float64
		if err := json.Unmarshal(raw, &n); err == nil {
			return int(n)
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			var parsed float64
			if _, err := fmt.Sscanf(s, "%f", &parsed); err == nil {
				return int(parsed)
			}
		}
	}
	return 0
}

// createArgs are the normalized inputs of create_monday_item.
type createArgs struct {
	BoardID      string
	GroupID      string
	ItemName     string
	ColumnValues map[string]any
}

func parseCreateArgs(raw json.RawMessage) (*createArgs, error) {
	m, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	out := &createArgs{
		BoardID:      m.str("board_id", "boardId"),
		GroupID:      m.str("group_id", "groupId"),
		ItemName:     m.str("item_name", "itemName"),
		ColumnValues: m.object("column_values", "columnValues"),
	}
	if out.ColumnValues == nil {
		out.ColumnValues = map[string]any{}
	}
	var missing []string
	if out.BoardID == "" {
		missing = append(missing, "board_id")
	}
	if out.ItemName == "" {
		missing = append(missing, "item_name")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return out, nil
}

// updateArgs are the normalized inputs of update_monday_item.
type updateArgs struct {
	ItemID       string
	ColumnValues map[string]any
}

func parseUpdateArgs(raw json.RawMessage) (*updateArgs, error) {
	m, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	out := &updateArgs{
		ItemID:       m.str("item_id", "itemId"),
		ColumnValues: m.object("column_values", "columnValues"),
	}
	var missing []string
	if out.ItemID == "" {
		missing = append(missing, "item_id")
	}
	if out.ColumnValues == nil {
		missing = append(missing, "column_values")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}
	return out, nil
}

// schemaArgs are the normalized inputs of get_board_schema.
type schemaArgs struct {
	BoardID string
}

func parseSchemaArgs(raw json.RawMessage, fallbackBoardID string) (*schemaArgs, error) {
	m, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	out := &schemaArgs{BoardID: m.str("board_id", "boardId")}
	if out.BoardID == "" {
		out.BoardID = fallbackBoardID
	}
	if out.BoardID == "" {
		return nil, &ValidationError{Missing: []string{"board_id"}}
	}
	return out, nil
}

// searchArgs are the normalized inputs of search_board_items.
type searchArgs struct {
	BoardID string
	Query   string
	Limit   int
}

func parseSearchArgs(raw json.RawMessage, fallbackBoardID string) (*searchArgs, error) {
	m, err := decodeArgs(raw)
	if err != nil {
		return nil, err
	}
	out := &searchArgs{
		BoardID: m.str("board_id", "boardId"),
		Query:   m.str("query", "search", "search_term", "searchTerm"),
		Limit:   m.number("limit"),
	}
	if out.BoardID == "" {
		out.BoardID = fallbackBoardID
	}
	if out.BoardID == "" {
		return nil, &ValidationError{Missing: []string{"board_id"}}
	}
	return out, nil
}
