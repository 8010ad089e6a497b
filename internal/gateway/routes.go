package gateway

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/extract"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/orchestrator"
)

// maxUploadBytes caps multipart file uploads.
const maxUploadBytes = 10 << 20

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /models", s.handleModels)

	mux.HandleFunc("GET /settings", s.handleGetSettings)
	mux.HandleFunc("POST /settings", s.handlePostSettings)

	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /parse-file", s.handleParseFile)
	mux.HandleFunc("POST /execute-tool", s.handleExecuteTool)
	mux.HandleFunc("POST /cancel-tool", s.handleCancelTool)
	mux.HandleFunc("GET /transcript", s.handleTranscript)

	mux.HandleFunc("GET /feed", s.handleFeed)
	mux.HandleFunc("GET /ws/feed", s.handleFeedSocket)

	mux.HandleFunc("GET /knowledge", s.handleListKnowledge)
	mux.HandleFunc("POST /knowledge/upload", s.handleUploadKnowledge)
	mux.HandleFunc("DELETE /knowledge/{id}", s.handleDeleteKnowledge)

	mux.HandleFunc("POST /upload-file", s.handleUploadFile)

	mux.HandleFunc("/", handleNotFound)
}

func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error": "not found",
		"path":  r.URL.Path,
	})
}

// boardIDFrom reads the board scope from query or body, defaulting to
// the global scope.
func boardIDFrom(r *http.Request, body map[string]any) string {
	if id := r.URL.Query().Get("boardId"); id != "" {
		return id
	}
	if body != nil {
		if id, ok := body["boardId"].(string); ok && id != "" {
			return id
		}
	}
	return domain.GlobalBoardID
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"ts":      time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"models":  llm.Catalog,
		"default": llm.DefaultModelID(),
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)
	saved, err := s.settings.Get(r.Context(), boardID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	// a board that never saved settings gets a bare null body
	if saved == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

type postSettingsBody struct {
	BoardID  string           `json:"boardId"`
	Settings *domain.Settings `json:"settings"`
}

func (s *Server) handlePostSettings(w http.ResponseWriter, r *http.Request) {
	var body postSettingsBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}
	if body.Settings == nil {
		badRequest(w, "Missing settings")
		return
	}
	boardID := body.BoardID
	if boardID == "" {
		boardID = boardIDFrom(r, nil)
	}

	body.Settings.Normalize()
	if err := s.settings.Put(r.Context(), boardID, body.Settings); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": body.Settings})
}

type chatBody struct {
	BoardID string `json:"boardId"`
	Message string `json:"message"`
	AgentID string `json:"agentId,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}
	boardID := body.BoardID
	if boardID == "" {
		boardID = boardIDFrom(r, nil)
	}

	settings, err := s.boardSettings(r.Context(), boardID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	apiKey := s.resolveAPIKey(settings)
	if apiKey == "" {
		badRequest(w, "Missing Poe API key. Please set your API key in Settings.")
		return
	}

	agentID := body.AgentID
	if agentID == "" {
		agentID = settings.SelectedAgentID
	}
	agent := settings.SelectedAgent()
	if a := settings.AgentByID(agentID); a != nil {
		agent = *a
	}

	files, err := s.agentKnowledge(r, boardID, agent)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// schema context is best effort; chat works without the board API
	schema := s.boardSchema(r, boardID)

	result, err := s.orch.Send(r.Context(), orchestrator.SendRequest{
		Key:          domain.ConversationKey{BoardID: boardID, AgentID: agent.ID},
		Client:       s.clients(apiKey),
		Agent:        agent,
		Model:        settings.DefaultModel,
		Message:      body.Message,
		Knowledge:    files,
		Board:        schema,
		ToolsEnabled: s.boards != nil,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	// the wire type collapses transcript kinds to what clients render
	wireType := "text"
	if result.Proposal != nil {
		wireType = "tool_call"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"reply":    result.Reply,
		"type":     wireType,
		"toolCall": result.Proposal,
	})
}

// agentKnowledge loads the knowledge files attached to an agent.
func (s *Server) agentKnowledge(r *http.Request, boardID string, agent domain.Agent) ([]*domain.KnowledgeFile, error) {
	if len(agent.KnowledgeFileIDs) == 0 {
		return nil, nil
	}
	all, err := s.files.List(r.Context(), boardID)
	if err != nil {
		return nil, err
	}
	attached := make(map[string]bool, len(agent.KnowledgeFileIDs))
	for _, id := range agent.KnowledgeFileIDs {
		attached[id] = true
	}
	var files []*domain.KnowledgeFile
	for _, f := range all {
		if attached[f.ID] {
			files = append(files, f)
		}
	}
	return files, nil
}

// boardSchema fetches the board schema for prompt context. Failures are
// logged and ignored.
func (s *Server) boardSchema(r *http.Request, boardID string) *board.Board {
	if s.boards == nil || boardID == domain.GlobalBoardID {
		return nil
	}
	schema, err := s.boards.GetSchema(r.Context(), boardID)
	if err != nil {
		s.log.Debug().Err(err).Str("board_id", boardID).Msg("schema fetch for chat context failed")
		return nil
	}
	return schema
}

type parseFileBody struct {
	BoardID      string       `json:"boardId"`
	FileURL      string       `json:"fileUrl"`
	FileName     string       `json:"fileName,omitempty"`
	Message      string       `json:"message,omitempty"`
	BoardContext *board.Board `json:"boardContext,omitempty"`
}

func (s *Server) handleParseFile(w http.ResponseWriter, r *http.Request) {
	var body parseFileBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}
	if body.FileURL == "" {
		badRequest(w, "Missing fileUrl")
		return
	}
	boardID := body.BoardID
	if boardID == "" {
		boardID = boardIDFrom(r, nil)
	}

	settings, err := s.boardSettings(r.Context(), boardID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	apiKey := s.resolveAPIKey(settings)
	if apiKey == "" {
		badRequest(w, "Missing Poe API key. Please set your API key in Settings.")
		return
	}

	// a live board API wins; callers without one can ship their own
	// schema snapshot in the request
	schema := s.boardSchema(r, boardID)
	if schema == nil {
		schema = body.BoardContext
	}
	if schema == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error: "Board schema unavailable. Connect the board API or include boardContext to parse files.",
		})
		return
	}

	data, contentType, err := s.extractor.FetchFile(r.Context(), body.FileURL)
	if err != nil {
		s.writeError(w, err)
		return
	}

	fileName := body.FileName
	if fileName == "" {
		fileName = "document"
	}

	agent := settings.SelectedAgent()
	instructions := agent.SystemPrompt
	if body.Message != "" {
		instructions = instructions + "\n\n" + body.Message
	}

	result, err := s.extractor.Parse(r.Context(), extract.Request{
		FileName:     fileName,
		ContentType:  contentType,
		Data:         data,
		Board:        schema,
		Instructions: instructions,
		Model:        settings.DefaultModel,
		Client:       s.clients(apiKey),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.recorder.FileParsed(r.Context(), boardID, fileName, result.ItemName)

	writeJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"data":       result,
		"model_used": result.Model,
	})
}

type executeToolBody struct {
	BoardID  string                   `json:"boardId"`
	ToolCall *domain.ToolCallProposal `json:"toolCall"`
	// accepted as an alias for clients speaking the wire format
	ToolCallSnake *wireToolCall `json:"tool_call,omitempty"`
}

// wireToolCall is the OpenAI-shaped tool call some clients send.
type wireToolCall struct {
	ID       string `json:"id,omitempty"`
	Function struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
}

func (s *Server) handleExecuteTool(w http.ResponseWriter, r *http.Request) {
	var body executeToolBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}
	boardID := body.BoardID
	if boardID == "" {
		boardID = boardIDFrom(r, nil)
	}

	call := body.ToolCall
	if call == nil && body.ToolCallSnake != nil {
		call = &domain.ToolCallProposal{
			ID:           body.ToolCallSnake.ID,
			FunctionName: body.ToolCallSnake.Function.Name,
			Arguments:    body.ToolCallSnake.Function.Arguments,
		}
	}
	if call == nil || call.FunctionName == "" {
		badRequest(w, "Missing tool call data")
		return
	}

	key := domain.ConversationKey{BoardID: boardID, AgentID: s.selectedAgentID(r, boardID)}

	// a held proposal with a matching id resolves through the
	// orchestrator so the transcript records the confirmation
	if pending := s.orch.Pending(key); pending != nil && (call.ID == "" || call.ID == pending.ID) {
		result, err := s.orch.ConfirmPending(r.Context(), key)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"action":  result.Action,
			"result":  result.Payload,
		})
		return
	}

	result, err := s.orch.Execute(r.Context(), boardID, *call)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"action":  result.Action,
		"result":  result.Payload,
	})
}

type cancelToolBody struct {
	BoardID string `json:"boardId"`
	AgentID string `json:"agentId,omitempty"`
}

func (s *Server) handleCancelTool(w http.ResponseWriter, r *http.Request) {
	var body cancelToolBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		badRequest(w, "Invalid JSON body")
		return
	}
	boardID := body.BoardID
	if boardID == "" {
		boardID = boardIDFrom(r, nil)
	}
	agentID := body.AgentID
	if agentID == "" {
		agentID = s.selectedAgentID(r, boardID)
	}

	key := domain.ConversationKey{BoardID: boardID, AgentID: agentID}
	if err := s.orch.CancelPending(r.Context(), key); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) selectedAgentID(r *http.Request, boardID string) string {
	settings, err := s.boardSettings(r.Context(), boardID)
	if err != nil {
		return domain.DefaultAgent().ID
	}
	return settings.SelectedAgentID
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)
	agentID := r.URL.Query().Get("agentId")
	if agentID == "" {
		agentID = s.selectedAgentID(r, boardID)
	}

	entries, err := s.orch.Transcript(r.Context(), domain.ConversationKey{BoardID: boardID, AgentID: agentID})
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []domain.TranscriptEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "Invalid limit")
			return
		}
		limit = n
	}

	items, err := s.recorder.Feed(r.Context(), boardID, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if items == nil {
		items = []domain.ActivityEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleListKnowledge(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)
	files, err := s.files.List(r.Context(), boardID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	// listing returns metadata only; chunk text stays server side
	type fileMeta struct {
		ID         string    `json:"id"`
		Title      string    `json:"title"`
		MimeType   string    `json:"mimeType"`
		SizeBytes  int64     `json:"sizeBytes"`
		Chunks     int       `json:"chunks"`
		UploadedAt time.Time `json:"uploadedAt"`
	}
	metas := make([]fileMeta, 0, len(files))
	for _, f := range files {
		metas = append(metas, fileMeta{
			ID:         f.ID,
			Title:      f.Title,
			MimeType:   f.MimeType,
			SizeBytes:  f.SizeBytes,
			Chunks:     len(f.Chunks),
			UploadedAt: f.UploadedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": metas})
}

func (s *Server) handleUploadKnowledge(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "Invalid multipart upload (10MB max)")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	kf := s.chunker.NewFile(header.Filename, mimeType, string(data))
	if err := s.files.Put(r.Context(), boardID, kf); err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Info().
		Str("board_id", boardID).
		Str("file_id", kf.ID).
		Int("chunks", len(kf.Chunks)).
		Msg("knowledge file ingested")

	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"file": map[string]any{
			"id":        kf.ID,
			"title":     kf.Title,
			"sizeBytes": kf.SizeBytes,
			"chunks":    len(kf.Chunks),
		},
	})
}

func (s *Server) handleDeleteKnowledge(w http.ResponseWriter, r *http.Request) {
	boardID := boardIDFrom(r, nil)
	fileID := r.PathValue("id")

	if err := s.files.Delete(r.Context(), boardID, fileID); err != nil {
		s.writeError(w, err)
		return
	}

	// detach the file from any agents referencing it
	saved, err := s.settings.Get(r.Context(), boardID)
	if err == nil && saved != nil {
		changed := false
		for i := range saved.Agents {
			if saved.Agents[i].DetachKnowledgeFile(fileID) {
				changed = true
			}
		}
		if changed {
			if err := s.settings.Put(r.Context(), boardID, saved); err != nil {
				s.log.Warn().Err(err).Str("file_id", fileID).Msg("agent knowledge cleanup failed")
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		badRequest(w, "Invalid multipart upload (10MB max)")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, err)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))

	writeJSON(w, http.StatusOK, map[string]any{
		"fileUrl":  dataURL,
		"fileName": header.Filename,
		"fileSize": len(data),
		"mimeType": mimeType,
	})
}
