package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/executor"
	"github.com/soyeahso/boardflow/internal/extract"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/orchestrator"
	"github.com/soyeahso/boardflow/internal/store"
)

// errorBody is the JSON error shape for every failed request.
type errorBody struct {
	Error  string `json:"error"`
	Detail any    `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func badRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: message})
}

// writeError maps typed domain failures onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		verr *executor.ValidationError
		uerr *executor.UnknownToolError
		perr *extract.ParseError
		prov *llm.ProviderError
		aerr *board.APIError
	)

	switch {
	case errors.Is(err, orchestrator.ErrEmptyMessage):
		badRequest(w, "Missing message")

	case errors.Is(err, orchestrator.ErrProposalPending):
		writeJSON(w, http.StatusConflict, errorBody{
			Error: "A tool call is awaiting confirmation. Confirm or cancel it first.",
		})

	case errors.Is(err, orchestrator.ErrNoPendingProposal):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "No pending tool call"})

	case errors.Is(err, board.ErrUnavailable):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error: "Board API is not configured. Set a board token to enable tool execution.",
		})

	case errors.Is(err, store.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found"})

	case errors.As(err, &verr):
		badRequest(w, verr.Error())

	case errors.As(err, &uerr):
		badRequest(w, uerr.Error())

	case errors.As(err, &perr):
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error:  "Could not extract JSON from AI response",
			Detail: perr.Raw,
		})

	case llm.IsAuthError(err):
		// a bad key is the user's problem to fix, not an upstream outage
		badRequest(w, "Invalid API key. Please update your API key in Settings.")

	case llm.IsRateLimited(err):
		errors.As(err, &prov)
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: prov.Message, Detail: prov.Detail})

	case llm.IsTimeout(err):
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: "Model request timed out"})

	case errors.As(err, &prov):
		writeJSON(w, http.StatusBadGateway, errorBody{Error: prov.Message, Detail: prov.Detail})

	case errors.As(err, &aerr):
		status := aerr.Code
		if status < 400 || status >= 600 {
			status = http.StatusBadGateway
		}
		if aerr.Timeout {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, errorBody{Error: aerr.Message, Detail: aerr.Detail})

	default:
		s.log.Error().Err(err).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal error"})
	}
}
