package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PoeClient is a direct HTTP client for Poe's OpenAI-compatible
// chat-completions API.
type PoeClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// PoeOption configures a PoeClient.
type PoeOption func(*PoeClient)

// WithBaseURL overrides the API base URL (useful for tests).
func WithBaseURL(url string) PoeOption {
	return func(c *PoeClient) { c.baseURL = url }
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) PoeOption {
	return func(c *PoeClient) { c.client.Timeout = d }
}

// NewPoeClient creates a Poe API client. The default timeout matches the
// single-turn chat budget; extraction calls carrying large documents
// should pass a per-request context deadline instead.
func NewPoeClient(apiKey string, opts ...PoeOption) *PoeClient {
	c := &PoeClient{
		apiKey:  apiKey,
		baseURL: "https://api.poe.com/v1",
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the provider name.
func (c *PoeClient) Name() string {
	return "poe"
}

// Complete sends a non-streaming completion request.
func (c *PoeClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	payload, err := json.Marshal(c.buildRequestBody(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, wrapTransportError(c.Name(), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransportError(c.Name(), err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: c.Name(),
			Code:     resp.StatusCode,
			Message:  upstreamErrorMessage(respBody),
			Detail:   string(respBody),
		}
	}

	var result chatCompletionResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return c.responseToCompletion(&result, time.Since(start)), nil
}

// buildRequestBody renders the OpenAI-compatible request payload.
func (c *PoeClient) buildRequestBody(req CompletionRequest) map[string]any {
	messages := make([]map[string]any, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, map[string]any{
			"role":    RoleSystem,
			"content": req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, messageToWire(m))
	}

	body := map[string]any{
		"model":    req.Model,
		"messages": messages,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if req.Temperature != nil {
		body["temperature"] = *req.Temperature
	}
	if len(req.Tools) > 0 {
		tools := make([]map[string]any, len(req.Tools))
		for i, t := range req.Tools {
			tools[i] = map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  json.RawMessage(t.Parameters),
				},
			}
		}
		body["tools"] = tools
		choice := req.ToolChoice
		if choice == "" {
			choice = "auto"
		}
		body["tool_choice"] = choice
	}
	return body
}

// messageToWire renders a message; attachments become multimodal content
// parts with base64-encoded file data.
func messageToWire(m Message) map[string]any {
	if len(m.Attachments) == 0 {
		return map[string]any{"role": m.Role, "content": m.Content}
	}

	parts := []map[string]any{
		{"type": "text", "text": m.Content},
	}
	for _, a := range m.Attachments {
		parts = append(parts, map[string]any{
			"type": "file",
			"file": map[string]any{
				"name":         a.Name,
				"content_type": a.ContentType,
				"data":         base64.StdEncoding.EncodeToString(a.Data),
			},
		})
	}
	return map[string]any{"role": m.Role, "content": parts}
}

func (c *PoeClient) responseToCompletion(resp *chatCompletionResponse, duration time.Duration) *CompletionResponse {
	out := &CompletionResponse{
		Model:    resp.Model,
		Duration: duration,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}

	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	out.Content = choice.Message.Content
	out.FinishReason = choice.FinishReason

	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out
}

// upstreamErrorMessage pulls a human-readable message out of an error body.
func upstreamErrorMessage(body []byte) string {
	var wrapper struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapper); err == nil && wrapper.Error.Message != "" {
		return wrapper.Error.Message
	}
	if len(body) > 200 {
		body = body[:200]
	}
	return string(body)
}

// Wire structures for the OpenAI-compatible response.

type chatCompletionResponse struct {
	ID      string                 `json:"id"`
	Model   string                 `json:"model"`
	Choices []chatCompletionChoice `json:"choices"`
	Usage   chatCompletionUsage    `json:"usage"`
}

type chatCompletionChoice struct {
	Message      chatCompletionMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

type chatCompletionMessage struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	ToolCalls []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

type chatCompletionUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}
