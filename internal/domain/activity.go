package domain

import "time"

// ActivityType classifies an activity log entry.
type ActivityType string

// Only mutations and extractions are logged; read-only tool calls
// (schema fetch, item search) leave no trace in the feed.
const (
	ActivityCreate ActivityType = "create"
	ActivityUpdate ActivityType = "update"
	ActivityParse  ActivityType = "parse"
)

// ActivityEntry records one executed or attempted board action. Entries
// are append-only per board, newest first, truncated to a retention cap.
type ActivityEntry struct {
	ID             string       `json:"id,omitempty"`
	Timestamp      time.Time    `json:"ts"`
	Type           ActivityType `json:"type"`
	ItemID         string       `json:"itemId,omitempty"`
	ItemName       string       `json:"itemName,omitempty"`
	ChangedColumns []string     `json:"changedColumns,omitempty"`
	Note           string       `json:"note,omitempty"`
}
