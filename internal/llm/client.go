// Package llm defines the completion client interface and the Poe API
// implementation used for chat turns and document extraction.
//
// Poe exposes an OpenAI-compatible chat-completions endpoint that routes
// to many underlying models, so a single HTTP client covers the whole
// model catalog.
package llm

import (
	"context"
	"encoding/json"
	"time"
)

// Role constants for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// FileAttachment is a document sent alongside a message as a multimodal
// content part.
type FileAttachment struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"data"`
}

// Message is a single turn in a conversation.
type Message struct {
	Role        string           `json:"role"`
	Content     string           `json:"content"`
	Attachments []FileAttachment `json:"attachments,omitempty"`
}

// ToolDefinition describes a function the model can invoke. Parameters
// holds a JSON Schema object.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CompletionRequest is the input to a Complete call.
type CompletionRequest struct {
	Model       string           `json:"model,omitempty"`
	System      string           `json:"system,omitempty"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	ToolChoice  string           `json:"toolChoice,omitempty"` // "auto" when tools are present
	MaxTokens   int              `json:"maxTokens,omitempty"`
	Temperature *float64         `json:"temperature,omitempty"`
}

// ToolCall is a structured function invocation emitted by the model.
// Arguments may be a JSON object or a JSON-encoded string depending on
// the upstream model; the raw bytes are preserved for the executor.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// CompletionResponse is the result of a completion.
type CompletionResponse struct {
	Content      string        `json:"content"`
	ToolCalls    []ToolCall    `json:"toolCalls,omitempty"`
	FinishReason string        `json:"finishReason,omitempty"`
	Usage        Usage         `json:"usage"`
	Model        string        `json:"model,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// Client is the interface the orchestrator and extractor depend on.
type Client interface {
	// Complete sends a request and returns the full response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)

	// Name returns the provider name (e.g., "poe").
	Name() string
}
