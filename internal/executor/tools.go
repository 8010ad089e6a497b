// Package executor carries out confirmed tool calls against the board
// API. It owns the tool catalog the model sees, decodes the model's
// loosely-shaped arguments, and records mutations to the activity feed.
package executor

import (
	"encoding/json"

	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/llm"
)

// ToolDefinitions is the fixed catalog advertised to the model on every
// chat turn.
func ToolDefinitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		{
			Name:        domain.ToolCreateItem,
			Description: "Create a new item on a Monday.com board with specified column values. Always validate dropdown values against the board schema first.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"board_id": {"type": "string", "description": "The ID of the Monday.com board"},
					"group_id": {"type": "string", "description": "The group/section ID to create the item in (optional, defaults to first group)"},
					"item_name": {"type": "string", "description": "The name/title of the item to create"},
					"column_values": {
						"type": "object",
						"description": "Object with column IDs as keys and their values. For dropdowns, use exact label text. For dates, use ISO 8601 UTC format.",
						"additionalProperties": true
					}
				},
				"required": ["board_id", "item_name", "column_values"]
			}`),
		},
		{
			Name:        domain.ToolUpdateItem,
			Description: "Update an existing Monday.com item with new column values",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"item_id": {"type": "string", "description": "The ID of the item to update"},
					"column_values": {
						"type": "object",
						"description": "Column values to update (same format as create)",
						"additionalProperties": true
					}
				},
				"required": ["item_id", "column_values"]
			}`),
		},
		{
			Name:        domain.ToolGetSchema,
			Description: "Fetch the current board schema including all columns, their types, dropdown options, and available groups. ALWAYS call this before creating or updating items to validate values.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"board_id": {"type": "string", "description": "The board ID to fetch schema for"}
				},
				"required": ["board_id"]
			}`),
		},
		{
			Name:        domain.ToolSearchItems,
			Description: "Search for items on a board by name or column values",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"board_id": {"type": "string", "description": "The board ID to search"},
					"query": {"type": "string", "description": "Search query (item name or column value)"}
				},
				"required": ["board_id", "query"]
			}`),
		},
	}
}
