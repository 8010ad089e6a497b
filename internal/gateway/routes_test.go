package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soyeahso/boardflow/internal/activity"
	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/config"
	"github.com/soyeahso/boardflow/internal/domain"
	"github.com/soyeahso/boardflow/internal/executor"
	"github.com/soyeahso/boardflow/internal/extract"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/logging"
	"github.com/soyeahso/boardflow/internal/orchestrator"
	"github.com/soyeahso/boardflow/internal/store"
)

type testEnv struct {
	server *Server
	http   *httptest.Server
	mem    *store.Memory
	mock   *llm.MockClient
	boards *board.MockClient
}

func newTestEnv(t *testing.T, withBoards bool) *testEnv {
	t.Helper()

	log := logging.New(nil, "silent")
	mem := store.NewMemory(50)
	mock := &llm.MockClient{ProviderName: "mock"}

	var boards board.Client
	var mockBoards *board.MockClient
	if withBoards {
		mockBoards = &board.MockClient{}
		boards = mockBoards
	}

	recorder := activity.NewRecorder(store.MemoryActivity{Memory: mem}, boards, log)
	exec := executor.New(boards, recorder, log)
	orch := orchestrator.New(store.MemoryTranscripts{Memory: mem}, exec, 6, log)

	cfg := config.Defaults()
	cfg.LLM.APIKey = "" // keys come from board settings in tests

	srv := New(cfg, Deps{
		Settings:  store.MemorySettings{Memory: mem},
		Files:     store.MemoryKnowledge{Memory: mem},
		Orch:      orch,
		Recorder:  recorder,
		Extractor: extract.New(mock, log),
		Boards:    boards,
		Clients:   func(apiKey string) llm.Client { return mock },
	}, log)

	mux := http.NewServeMux()
	srv.registerRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	return &testEnv{server: srv, http: ts, mem: mem, mock: mock, boards: mockBoards}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(e.http.URL+path, "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func (e *testEnv) getJSON(t *testing.T, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(e.http.URL + path)
	require.NoError(t, err)
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func saveSettings(t *testing.T, e *testEnv, boardID string, s *domain.Settings) {
	t.Helper()
	s.Normalize()
	require.NoError(t, store.MemorySettings{Memory: e.mem}.Put(context.Background(), boardID, s))
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t, false)

	resp, body := e.getJSON(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["version"])
}

func TestModels(t *testing.T) {
	e := newTestEnv(t, false)

	resp, body := e.getJSON(t, "/models")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, domain.DefaultModel, body["default"])
	models, ok := body["models"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, models)
}

func TestGetSettings_NeverSaved(t *testing.T) {
	e := newTestEnv(t, false)

	resp, err := http.Get(e.http.URL + "/settings?boardId=42")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// the body is a bare null, not a wrapper object
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(raw)))
}

func TestSettingsRoundTrip(t *testing.T) {
	e := newTestEnv(t, false)

	resp, body := e.postJSON(t, "/settings", map[string]any{
		"boardId": "42",
		"settings": map[string]any{
			"apiKey":       "poe-key",
			"defaultModel": "GPT-4o",
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	resp, saved := e.getJSON(t, "/settings?boardId=42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GPT-4o", saved["defaultModel"])
	// normalization seeds the default agent on save
	agents, ok := saved["agents"].([]any)
	require.True(t, ok)
	require.Len(t, agents, 1)
	assert.Equal(t, "bid-assistant", agents[0].(map[string]any)["id"])
}

func TestChat_MissingAPIKey(t *testing.T) {
	e := newTestEnv(t, false)

	resp, body := e.postJSON(t, "/chat", map[string]any{
		"boardId": "42",
		"message": "hello",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "API key")
	assert.Contains(t, body["error"], "Settings")
}

func TestChat_TextReply(t *testing.T) {
	e := newTestEnv(t, false)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "Hi there."}, nil
	}

	resp, body := e.postJSON(t, "/chat", map[string]any{
		"boardId": "42",
		"message": "hello",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Hi there.", body["reply"])
	assert.Equal(t, "text", body["type"])
	assert.Nil(t, body["toolCall"])
}

func TestChat_ConfigDefaultModelFallback(t *testing.T) {
	e := newTestEnv(t, false)
	e.server.cfg.LLM.DefaultModel = "GPT-4o"

	// stored without Normalize so the model stays blank and the
	// config-wide default applies
	put := store.MemorySettings{Memory: e.mem}.Put
	require.NoError(t, put(context.Background(), "42", &domain.Settings{APIKey: "poe-key"}))

	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "ok"}, nil
	}

	resp, _ := e.postJSON(t, "/chat", map[string]any{"boardId": "42", "message": "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, e.mock.Requests, 1)
	assert.Equal(t, "GPT-4o", e.mock.Requests[0].Model)
}

func TestChat_EmptyMessage(t *testing.T) {
	e := newTestEnv(t, false)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	resp, body := e.postJSON(t, "/chat", map[string]any{
		"boardId": "42",
		"message": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "message")
}

func TestChat_ToolCallProposalAndConfirm(t *testing.T) {
	e := newTestEnv(t, true)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	e.boards.GetSchemaFunc = func(ctx context.Context, boardID string) (*board.Board, error) {
		return &board.Board{ID: boardID, Name: "Bids"}, nil
	}
	e.boards.CreateItemFunc = func(ctx context.Context, req board.CreateItemRequest) (*board.Item, error) {
		return &board.Item{ID: "999", Name: req.ItemName}, nil
	}

	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			Content: "I'll create that item.",
			ToolCalls: []llm.ToolCall{{
				ID:        "call-1",
				Name:      domain.ToolCreateItem,
				Arguments: json.RawMessage(`{"board_id":"42","item_name":"Library HVAC"}`),
			}},
		}, nil
	}

	resp, body := e.postJSON(t, "/chat", map[string]any{
		"boardId": "42",
		"message": "create an item for the library HVAC bid",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tool_call", body["type"])
	call, ok := body["toolCall"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, domain.ToolCreateItem, call["functionName"])

	// a second send while the proposal is held conflicts
	resp, body = e.postJSON(t, "/chat", map[string]any{
		"boardId": "42",
		"message": "never mind, something else",
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// confirming executes against the board and records activity
	resp, body = e.postJSON(t, "/execute-tool", map[string]any{
		"boardId":  "42",
		"toolCall": map[string]any{"id": call["id"], "functionName": domain.ToolCreateItem},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "created", body["action"])

	resp, body = e.getJSON(t, "/feed?boardId=42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	assert.Equal(t, "Created item Library HVAC", items[0].(map[string]any)["note"])
}

func TestCancelTool(t *testing.T) {
	e := newTestEnv(t, true)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	e.boards.GetSchemaFunc = func(ctx context.Context, boardID string) (*board.Board, error) {
		return &board.Board{ID: boardID, Name: "Bids"}, nil
	}
	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			ToolCalls: []llm.ToolCall{{
				ID:        "call-1",
				Name:      domain.ToolUpdateItem,
				Arguments: json.RawMessage(`{"item_id":"7","column_values":{}}`),
			}},
		}, nil
	}

	resp, _ := e.postJSON(t, "/chat", map[string]any{"boardId": "42", "message": "update item 7"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.postJSON(t, "/cancel-tool", map[string]any{"boardId": "42"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])

	// nothing pending anymore
	resp, _ = e.postJSON(t, "/cancel-tool", map[string]any{"boardId": "42"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// no board mutation happened
	resp, body = e.getJSON(t, "/feed?boardId=42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestExecuteTool_DirectCall(t *testing.T) {
	e := newTestEnv(t, true)

	e.boards.SearchItemsFunc = func(ctx context.Context, boardID, query string, limit int) ([]board.Item, error) {
		return []board.Item{{ID: "1", Name: "Roof bid"}}, nil
	}

	resp, body := e.postJSON(t, "/execute-tool", map[string]any{
		"boardId": "42",
		"toolCall": map[string]any{
			"functionName": domain.ToolSearchItems,
			"arguments":    map[string]any{"board_id": "42", "query": "roof"},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "searched", body["action"])

	// read-only tools leave the feed untouched
	resp, body = e.getJSON(t, "/feed?boardId=42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["items"])
}

func TestExecuteTool_NoBoardClient(t *testing.T) {
	e := newTestEnv(t, false)

	resp, _ := e.postJSON(t, "/execute-tool", map[string]any{
		"boardId": "42",
		"toolCall": map[string]any{
			"functionName": domain.ToolGetSchema,
			"arguments":    map[string]any{"board_id": "42"},
		},
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestTranscript(t *testing.T) {
	e := newTestEnv(t, false)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{Content: "noted"}, nil
	}

	resp, _ := e.postJSON(t, "/chat", map[string]any{"boardId": "42", "message": "remember this"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := e.getJSON(t, "/transcript?boardId=42")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	entries, ok := body["entries"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 2)
	assert.Equal(t, "user", entries[0].(map[string]any)["role"])
	assert.Equal(t, "assistant", entries[1].(map[string]any)["role"])
}

func TestKnowledgeUploadListDelete(t *testing.T) {
	e := newTestEnv(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "pricing.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte(strings.Repeat("labor rates and unit pricing. ", 100)))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.http.URL+"/knowledge/upload?boardId=42", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	file, ok := body["file"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pricing.txt", file["title"])
	assert.Greater(t, file["chunks"].(float64), 1.0)
	fileID := file["id"].(string)

	resp, body = e.getJSON(t, "/knowledge?boardId=42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	files, ok := body["files"].([]any)
	require.True(t, ok)
	require.Len(t, files, 1)

	req, err := http.NewRequest(http.MethodDelete, e.http.URL+"/knowledge/"+fileID+"?boardId=42", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = e.getJSON(t, "/knowledge?boardId=42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["files"])
}

func TestDeleteKnowledge_DetachesFromAgents(t *testing.T) {
	e := newTestEnv(t, false)

	kf := &domain.KnowledgeFile{ID: "kf-1", Title: "specs.txt", Chunks: []domain.Chunk{{ID: "c1", Text: "x"}}}
	require.NoError(t, store.MemoryKnowledge{Memory: e.mem}.Put(context.Background(), "42", kf))

	s := &domain.Settings{APIKey: "k"}
	s.Normalize()
	s.Agents[0].KnowledgeFileIDs = []string{"kf-1", "kf-2"}
	saveSettings(t, e, "42", s)

	req, err := http.NewRequest(http.MethodDelete, e.http.URL+"/knowledge/kf-1?boardId=42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	saved, err := store.MemorySettings{Memory: e.mem}.Get(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, []string{"kf-2"}, saved.Agents[0].KnowledgeFileIDs)
}

func TestDeleteKnowledge_Missing(t *testing.T) {
	e := newTestEnv(t, false)

	req, err := http.NewRequest(http.MethodDelete, e.http.URL+"/knowledge/nope?boardId=42", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	decodeBody(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestUploadFile_ReturnsDataURL(t *testing.T) {
	e := newTestEnv(t, false)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(map[string][]string)
	fw, err := mw.CreatePart(textFileHeader("bid.pdf", "application/pdf", h))
	require.NoError(t, err)
	_, err = fw.Write([]byte("%PDF-1.4 fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(e.http.URL+"/upload-file", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	body := decodeBody(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bid.pdf", body["fileName"])
	assert.Equal(t, "application/pdf", body["mimeType"])
	url, ok := body["fileUrl"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(url, "data:application/pdf;base64,"))
}

func textFileHeader(filename, contentType string, h map[string][]string) map[string][]string {
	h["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename)}
	h["Content-Type"] = []string{contentType}
	return h
}

func TestParseFile_NoBoardAPI(t *testing.T) {
	e := newTestEnv(t, false)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	resp, body := e.postJSON(t, "/parse-file", map[string]any{
		"boardId": "42",
		"fileUrl": "data:text/plain;base64,aGVsbG8=",
	})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, body["error"], "Board schema")
}

func TestParseFile_CallerSuppliedSchema(t *testing.T) {
	e := newTestEnv(t, false)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			Content: "```json\n{\"item_name\":\"Pump Station\",\"column_values\":{},\"confidence\":{},\"notes\":\"\"}\n```",
			Model:   "Claude-Sonnet-4",
		}, nil
	}

	// no board API wired, so the schema travels with the request
	resp, body := e.postJSON(t, "/parse-file", map[string]any{
		"boardId":  "42",
		"fileUrl":  "data:text/plain;base64,QmlkIGR1ZTogNi8xMi8yMDI1",
		"fileName": "rfp.txt",
		"boardContext": map[string]any{
			"id":   "42",
			"name": "Bids",
			"columns": []map[string]any{
				{"id": "name", "title": "Name", "type": "name"},
			},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Pump Station", data["item_name"])
}

func TestParseFile_Extracts(t *testing.T) {
	e := newTestEnv(t, true)
	saveSettings(t, e, "42", &domain.Settings{APIKey: "poe-key"})

	e.boards.GetSchemaFunc = func(ctx context.Context, boardID string) (*board.Board, error) {
		return &board.Board{ID: boardID, Name: "Bids", Columns: []board.Column{
			{ID: "name", Title: "Name", Type: "name"},
		}}, nil
	}
	e.mock.CompleteFunc = func(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
		return &llm.CompletionResponse{
			Content: "```json\n{\"item_name\":\"Library HVAC\",\"column_values\":{},\"confidence\":{},\"notes\":\"\"}\n```",
			Model:   "Claude-Sonnet-4",
		}, nil
	}

	resp, body := e.postJSON(t, "/parse-file", map[string]any{
		"boardId":  "42",
		"fileUrl":  "data:text/plain;base64,QmlkIGR1ZTogNi8xMi8yMDI1",
		"fileName": "rfp.txt",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["success"])
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Library HVAC", data["item_name"])

	// parsing lands in the activity feed
	resp, body = e.getJSON(t, "/feed?boardId=42")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, `Parsed rfp.txt`, items[0].(map[string]any)["note"])
}

func TestNotFound(t *testing.T) {
	e := newTestEnv(t, false)

	resp, body := e.getJSON(t, "/no-such-route")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "not found", body["error"])
}
