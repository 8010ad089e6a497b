package domain

import "time"

// TranscriptKind distinguishes entry flavors within a conversation.
type TranscriptKind string

const (
	// KindText is a plain user or assistant message.
	KindText TranscriptKind = "text"
	// KindProposal is an assistant entry carrying a pending tool call.
	KindProposal TranscriptKind = "proposal"
	// KindResult records the outcome of a confirmed tool call.
	KindResult TranscriptKind = "result"
	// KindCancelled records an explicit user cancellation of a proposal.
	KindCancelled TranscriptKind = "cancelled"
	// KindError is an assistant-role entry marking a failed turn.
	KindError TranscriptKind = "error"
)

// ConversationKey identifies a conversation: one transcript per
// board+agent pair.
type ConversationKey struct {
	BoardID string `json:"boardId"`
	AgentID string `json:"agentId"`
}

// String returns the canonical store key.
func (k ConversationKey) String() string {
	return k.BoardID + ":" + k.AgentID
}

// TranscriptEntry is one turn in a conversation. The transcript is
// strictly append-only and ordered by submission time.
type TranscriptEntry struct {
	ID        string            `json:"id"`
	Role      string            `json:"role"` // "user" or "assistant"
	Kind      TranscriptKind    `json:"kind"`
	Content   string            `json:"content"`
	ToolCall  *ToolCallProposal `json:"toolCall,omitempty"`
	Timestamp time.Time         `json:"ts"`
}
