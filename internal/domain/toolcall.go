package domain

import "encoding/json"

// Tool function names the assistant may propose. This catalog is fixed;
// the executor rejects anything else.
const (
	ToolCreateItem  = "create_monday_item"
	ToolUpdateItem  = "update_monday_item"
	ToolGetSchema   = "get_board_schema"
	ToolSearchItems = "search_board_items"
)

// KnownToolFunction reports whether name is part of the fixed tool catalog.
func KnownToolFunction(name string) bool {
	switch name {
	case ToolCreateItem, ToolUpdateItem, ToolGetSchema, ToolSearchItems:
		return true
	}
	return false
}

// ToolCallProposal is a structured mutation proposed by the LLM. It is
// transient: held only until the user confirms or cancels, never persisted.
//
// Arguments arrive from the model either as a JSON-encoded string or as an
// object; RawMessage preserves whichever shape was received so the executor
// can decode it once at its boundary.
type ToolCallProposal struct {
	ID           string             `json:"id,omitempty"`
	FunctionName string             `json:"functionName"`
	Arguments    json.RawMessage    `json:"arguments"`
	Confidence   map[string]float64 `json:"confidence,omitempty"`
	SummaryText  string             `json:"summaryText,omitempty"`
}
