// Package orchestrator runs conversations: it assembles the system
// prompt, makes the single model call per turn, classifies the reply,
// and holds pending tool proposals until the user confirms or cancels.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/executor"
	"github.com/soyeahso/boardflow/internal/knowledge"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/logging"
)

var (
	// ErrProposalPending rejects a new send while a tool proposal awaits
	// confirmation. Resolving the proposal first keeps the transcript
	// ordering intact.
	ErrProposalPending = errors.New("a tool call proposal is awaiting confirmation")

	// ErrNoPendingProposal means confirm or cancel arrived with nothing
	// to act on.
	ErrNoPendingProposal = errors.New("no pending tool call proposal")

	// ErrEmptyMessage rejects a blank send.
	ErrEmptyMessage = errors.New("message is empty")
)

// TranscriptStore persists conversation transcripts, append-only.
type TranscriptStore interface {
	Append(ctx context.Context, key domain.ConversationKey, entry domain.TranscriptEntry) error
	List(ctx context.Context, key domain.ConversationKey) ([]domain.TranscriptEntry, error)
}

// SendRequest is one user turn. The llm client is passed per request
// since the API key lives in per-board settings.
type SendRequest struct {
	Key     domain.ConversationKey
	Client  llm.Client
	Agent   domain.Agent
	Model   string
	Message string

	// Knowledge files attached to the agent; retrieval runs against the
	// user message.
	Knowledge []*domain.KnowledgeFile

	// Board schema, summarized into the system prompt when present.
	// Tools are only offered to the model when tool execution is
	// actually possible.
	Board        *board.Board
	ToolsEnabled bool
}

// TurnResult is the classified outcome of one turn.
type TurnResult struct {
	Kind     domain.TranscriptKind    `json:"type"`
	Reply    string                   `json:"reply"`
	Proposal *domain.ToolCallProposal `json:"toolCall,omitempty"`
}

type conversation struct {
	mu      sync.Mutex
	pending *domain.ToolCallProposal
}

// Orchestrator serializes turns per conversation and owns pending
// proposals. Proposals are transient; only transcript entries persist.
type Orchestrator struct {
	transcripts TranscriptStore
	exec        *executor.Executor
	log         *logging.Logger
	topK        int

	mu    sync.Mutex
	convs map[domain.ConversationKey]*conversation
}

// New creates an orchestrator.
func New(transcripts TranscriptStore, exec *executor.Executor, topK int, log *logging.Logger) *Orchestrator {
	if topK <= 0 {
		topK = 6
	}
	return &Orchestrator{
		transcripts: transcripts,
		exec:        exec,
		log:         log,
		topK:        topK,
		convs:       map[domain.ConversationKey]*conversation{},
	}
}

func (o *Orchestrator) conv(key domain.ConversationKey) *conversation {
	o.mu.Lock()
	defer o.mu.Unlock()
	c, ok := o.convs[key]
	if !ok {
		c = &conversation{}
		o.convs[key] = c
	}
	return c
}

// Send runs one user turn. While a proposal is pending the send is
// rejected; the user must confirm or cancel first.
func (o *Orchestrator) Send(ctx context.Context, req SendRequest) (*TurnResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}

	c := o.conv(req.Key)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, ErrProposalPending
	}

	o.appendEntry(ctx, req.Key, domain.TranscriptEntry{
		Role:    "user",
		Kind:    domain.KindText,
		Content: req.Message,
	})

	completion := llm.CompletionRequest{
		Model:       req.Model,
		System:      o.systemPrompt(req),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: req.Message}},
		Temperature: &req.Agent.Temperature,
	}
	if req.ToolsEnabled {
		completion.Tools = executor.ToolDefinitions()
		completion.ToolChoice = "auto"
	}

	resp, err := req.Client.Complete(ctx, completion)
	if err != nil {
		o.appendEntry(ctx, req.Key, domain.TranscriptEntry{
			Role:    "assistant",
			Kind:    domain.KindError,
			Content: err.Error(),
		})
		return nil, err
	}

	if len(resp.ToolCalls) == 0 {
		reply := resp.Content
		if reply == "" {
			reply = "No response from model."
		}
		o.appendEntry(ctx, req.Key, domain.TranscriptEntry{
			Role:    "assistant",
			Kind:    domain.KindText,
			Content: reply,
		})
		return &TurnResult{Kind: domain.KindText, Reply: reply}, nil
	}

	// only the first tool call survives classification
	if len(resp.ToolCalls) > 1 {
		o.log.Warn().
			Int("count", len(resp.ToolCalls)).
			Str("conversation", req.Key.String()).
			Msg("model returned multiple tool calls, keeping the first")
	}
	tc := resp.ToolCalls[0]
	proposal := &domain.ToolCallProposal{
		ID:           uuid.NewString(),
		FunctionName: tc.Name,
		Arguments:    tc.Arguments,
		SummaryText:  resp.Content,
	}
	c.pending = proposal

	o.appendEntry(ctx, req.Key, domain.TranscriptEntry{
		Role:     "assistant",
		Kind:     domain.KindProposal,
		Content:  resp.Content,
		ToolCall: proposal,
	})
	return &TurnResult{Kind: domain.KindProposal, Reply: resp.Content, Proposal: proposal}, nil
}

// ConfirmPending executes the conversation's pending proposal. The
// proposal is consumed either way; a failed execution lands in the
// transcript as an error entry.
func (o *Orchestrator) ConfirmPending(ctx context.Context, key domain.ConversationKey) (*executor.Result, error) {
	c := o.conv(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return nil, ErrNoPendingProposal
	}
	proposal := c.pending
	c.pending = nil

	result, err := o.exec.Execute(ctx, key.BoardID, *proposal)
	if err != nil {
		o.appendEntry(ctx, key, domain.TranscriptEntry{
			Role:     "assistant",
			Kind:     domain.KindError,
			Content:  fmt.Sprintf("Tool call %s failed: %v", proposal.FunctionName, err),
			ToolCall: proposal,
		})
		return nil, err
	}

	o.appendEntry(ctx, key, domain.TranscriptEntry{
		Role:     "assistant",
		Kind:     domain.KindResult,
		Content:  fmt.Sprintf("Executed %s (%s)", proposal.FunctionName, result.Action),
		ToolCall: proposal,
	})
	return result, nil
}

// CancelPending discards the conversation's pending proposal without
// touching the board.
func (o *Orchestrator) CancelPending(ctx context.Context, key domain.ConversationKey) error {
	c := o.conv(key)
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return ErrNoPendingProposal
	}
	proposal := c.pending
	c.pending = nil

	o.appendEntry(ctx, key, domain.TranscriptEntry{
		Role:     "assistant",
		Kind:     domain.KindCancelled,
		Content:  fmt.Sprintf("Cancelled %s", proposal.FunctionName),
		ToolCall: proposal,
	})
	return nil
}

// Execute runs a tool call that arrived outside the confirm flow, for
// clients that carry the proposal themselves instead of holding it
// server side. No transcript entry is written.
func (o *Orchestrator) Execute(ctx context.Context, boardID string, call domain.ToolCallProposal) (*executor.Result, error) {
	return o.exec.Execute(ctx, boardID, call)
}

// Pending returns the conversation's pending proposal, if any.
func (o *Orchestrator) Pending(key domain.ConversationKey) *domain.ToolCallProposal {
	c := o.conv(key)
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Transcript returns the conversation's full transcript in order.
func (o *Orchestrator) Transcript(ctx context.Context, key domain.ConversationKey) ([]domain.TranscriptEntry, error) {
	return o.transcripts.List(ctx, key)
}

func (o *Orchestrator) appendEntry(ctx context.Context, key domain.ConversationKey, entry domain.TranscriptEntry) {
	entry.ID = uuid.NewString()
	entry.Timestamp = time.Now().UTC()
	if err := o.transcripts.Append(ctx, key, entry); err != nil {
		o.log.Warn().Err(err).Str("conversation", key.String()).Msg("transcript append failed")
	}
}

// systemPrompt assembles persona, knowledge context, and a board schema
// summary into one system message.
func (o *Orchestrator) systemPrompt(req SendRequest) string {
	parts := []string{req.Agent.SystemPrompt}

	chunks := knowledge.Retrieve(req.Message, req.Knowledge, o.topK)
	if kctx := knowledge.BuildContext(req.Agent.Instructions, chunks); kctx != "" {
		parts = append(parts, kctx)
	}

	if req.Board != nil {
		parts = append(parts, boardSummary(req.Board))
	}

	var out string
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += "\n\n"
		}
		out += p
	}
	return out
}

func boardSummary(b *board.Board) string {
	out := fmt.Sprintf("Current board: %s (id %s)\nColumns:", b.Name, b.ID)
	for _, col := range b.Columns {
		out += fmt.Sprintf("\n- %s (id %s, type %s)", col.Title, col.ID, col.Type)
		if labels := col.DropdownLabels(); labels != nil {
			out += " options: "
			for i, l := range labels {
				if i > 0 {
					out += ", "
				}
				out += l
			}
		}
	}
	return out
}
