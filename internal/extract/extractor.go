package extract

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/soyeahso/boardflow/internal/board"
	"github.com/soyeahso/boardflow/internal/llm"
	"github.com/soyeahso/boardflow/internal/logging"
)

// ParseError means the model's reply contained no salvageable JSON.
type ParseError struct {
	Raw string
}

func (e *ParseError) Error() string {
	return "could not extract JSON from model response"
}

// Warning flags a value that does not match a column's label set. The
// value is kept; the caller decides what to do with it.
type Warning struct {
	Column       string   `json:"column"`
	InvalidValue any      `json:"invalidValue"`
	ValidOptions []string `json:"validOptions"`
}

// Result is the structured output of one document extraction.
type Result struct {
	ItemName     string             `json:"item_name"`
	ColumnValues map[string]any     `json:"column_values"`
	Confidence   map[string]float64 `json:"confidence"`
	Notes        string             `json:"notes,omitempty"`
	FileSummary  string             `json:"file_summary,omitempty"`
	Warnings     []Warning          `json:"warnings,omitempty"`
	RawResponse  string             `json:"-"`
	Model        string             `json:"-"`
}

// Request carries one document to extract against a board schema.
// Client, when set, overrides the extractor's default model client so
// callers can honor per-board API keys.
type Request struct {
	FileName     string
	ContentType  string
	Data         []byte
	Board        *board.Board
	Instructions string
	Model        string
	Client       llm.Client
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".txt":  "text/plain",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

// ContentTypeFor guesses a MIME type from a file name.
func ContentTypeFor(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Extractor runs document extractions through an LLM client.
type Extractor struct {
	llm      llm.Client
	log      *logging.Logger
	maxToken int
	fetchTO  time.Duration
}

// Option adjusts extractor limits.
type Option func(*Extractor)

// WithMaxTokens sets the completion token budget per extraction.
func WithMaxTokens(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxToken = n
		}
	}
}

// WithFetchTimeout bounds source document downloads.
func WithFetchTimeout(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.fetchTO = d
		}
	}
}

// New creates an extractor backed by the given model client.
func New(client llm.Client, log *logging.Logger, opts ...Option) *Extractor {
	e := &Extractor{
		llm:      client,
		log:      log,
		maxToken: 4000,
		fetchTO:  120 * time.Second,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// FetchFile downloads a document by URL. Inline data URLs are decoded
// locally; anything else goes over HTTP with a generous timeout since
// bid PDFs run large.
func (e *Extractor) FetchFile(ctx context.Context, url string) ([]byte, string, error) {
	if strings.HasPrefix(url, "data:") {
		return decodeDataURL(url)
	}

	ctx, cancel := context.WithTimeout(ctx, e.fetchTO)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("creating download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("reading file body: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeDataURL(url string) ([]byte, string, error) {
	rest := strings.TrimPrefix(url, "data:")
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data url")
	}
	contentType := strings.TrimSuffix(meta, ";base64")
	if strings.HasSuffix(meta, ";base64") {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decoding data url: %w", err)
		}
		return data, contentType, nil
	}
	return []byte(payload), contentType, nil
}

// Parse runs one extraction: prompt the model with the document attached,
// salvage JSON out of the reply, then validate against the schema.
func (e *Extractor) Parse(ctx context.Context, req Request) (*Result, error) {
	contentType := req.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(req.FileName)
	}

	// textual documents get a lexical pre-scan; the hits go into the
	// prompt so the model knows where to look
	var hits map[string]TermHit
	if strings.HasPrefix(contentType, "text/") {
		hits = ScanTerms(string(req.Data))
	}

	prompt, err := buildPrompt(req.Board, req.Instructions, hits)
	if err != nil {
		return nil, err
	}

	client := e.llm
	if req.Client != nil {
		client = req.Client
	}

	temp := 0.3
	resp, err := client.Complete(ctx, llm.CompletionRequest{
		Model: req.Model,
		Messages: []llm.Message{{
			Role:    llm.RoleUser,
			Content: prompt,
			Attachments: []llm.FileAttachment{{
				Name:        req.FileName,
				ContentType: contentType,
				Data:        req.Data,
			}},
		}},
		Temperature: &temp,
		MaxTokens:   e.maxToken,
	})
	if err != nil {
		return nil, err
	}

	result, err := decodeResult(resp.Content)
	if err != nil {
		return nil, err
	}
	result.RawResponse = resp.Content
	result.Model = resp.Model
	normalizeDates(result.ColumnValues, req.Board.Columns)
	result.Warnings = validateDropdowns(result.ColumnValues, req.Board.Columns)

	e.log.Debug().
		Str("file", req.FileName).
		Int("columns", len(result.ColumnValues)).
		Int("warnings", len(result.Warnings)).
		Msg("document extracted")
	return result, nil
}

var (
	fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	bareJSON   = regexp.MustCompile(`(?s)\{.*\}`)
)

// decodeResult pulls a Result out of free-form model text: a fenced
// json block first, then the widest brace span, with a repair pass
// before giving up.
func decodeResult(content string) (*Result, error) {
	var candidate string
	if m := fencedJSON.FindStringSubmatch(content); m != nil {
		candidate = m[1]
	} else if m := bareJSON.FindString(content); m != "" {
		candidate = m
	} else {
		return nil, &ParseError{Raw: content}
	}

	var result Result
	if err := json.Unmarshal([]byte(candidate), &result); err == nil {
		return &result, nil
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, &ParseError{Raw: content}
	}
	if err := json.Unmarshal([]byte(repaired), &result); err != nil {
		return nil, &ParseError{Raw: content}
	}
	return &result, nil
}

// validateDropdowns checks extracted values against label-set columns.
// Mismatches become warnings; the values stay so the user can fix them.
func validateDropdowns(values map[string]any, columns []board.Column) []Warning {
	var warnings []Warning
	for _, col := range columns {
		labels := col.DropdownLabels()
		if labels == nil {
			continue
		}
		value, ok := values[col.ID]
		if !ok || value == nil {
			continue
		}
		if !board.ValidDropdownValue(col, value) {
			warnings = append(warnings, Warning{
				Column:       col.Title,
				InvalidValue: value,
				ValidOptions: labels,
			})
		}
	}
	return warnings
}

// normalizeDates rewrites date-typed column values written as Pacific
// wall time into ISO 8601 UTC. Values that already carry a zone, or do
// not parse at all, stay as the model produced them.
func normalizeDates(values map[string]any, columns []board.Column) {
	for _, col := range columns {
		if col.Type != "date" {
			continue
		}
		s, ok := values[col.ID].(string)
		if !ok || s == "" {
			continue
		}
		if strings.HasSuffix(s, "Z") || board.ValidISODate(s) {
			continue
		}
		if converted, err := BoardDateTime(s); err == nil {
			values[col.ID] = converted
		}
	}
}

func buildPrompt(b *board.Board, instructions string, hits map[string]TermHit) (string, error) {
	schema, err := json.MarshalIndent(b.Columns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling board schema: %w", err)
	}

	var dropdowns []string
	for _, col := range b.Columns {
		if labels := col.DropdownLabels(); labels != nil {
			dropdowns = append(dropdowns, fmt.Sprintf("%s: %s", col.Title, strings.Join(labels, ", ")))
		}
	}

	var prescan string
	if len(hits) > 0 {
		fields := make([]string, 0, len(hits))
		for f := range hits {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		var lines []string
		for _, f := range fields {
			h := hits[f]
			lines = append(lines, fmt.Sprintf("%s (line %d, matched %q):\n%s", f, h.LineNumber+1, h.Term, h.Context))
		}
		prescan = fmt.Sprintf("**PRE-SCAN HINTS:**\nA lexical scan already located these candidate regions:\n\n%s\n\n", strings.Join(lines, "\n\n"))
	}

	var custom string
	if instructions != "" {
		custom = fmt.Sprintf("**CUSTOM INSTRUCTIONS:**\n%s\n\n", instructions)
	}

	return fmt.Sprintf(`You are an intelligent document parser for Monday.com board automation.

**YOUR TASK:**
1. SEARCH the document for relevant terms and information
2. EXTRACT structured data to populate a Monday.com board
3. VALIDATE all values against the board schema
4. RETURN properly formatted JSON

**BOARD SCHEMA:**
%s

**SEARCH STRATEGY:**
First, search the document for these terms and their variations:
- Project name/title
- Client/Owner/Agency
- Bid due dates and times
- Job walk/pre-bid meeting details
- Scope of work
- Required subcontractors
- Deadlines (RFI, questions, etc.)
- Financial information (estimates, bonds)
- Requirements (insurance, wages, etc.)

**EXTRACTION RULES:**
1. For dates/times: Look for patterns like MM/DD/YYYY, Month DD YYYY, HH:MM AM/PM
2. Convert ALL dates/times from Pacific Time (PT/PST/PDT) to UTC (add 7-8 hours)
3. For dropdown fields, use EXACT labels from the board schema
4. For lists (like subs_needed), extract all mentioned items
5. Be intelligent about context - if you see "Due: June 12, 2025 at 11:00 AM", extract both date AND time
6. If a field has multiple values mentioned, choose the most relevant one

**DROPDOWN VALIDATION:**
%s

%s%s**OUTPUT FORMAT:**
Return ONLY a valid JSON object with this exact structure:
{
  "item_name": "extracted project name",
  "column_values": {
    "column_id": "value",
    ...
  },
  "confidence": {
    "field_name": 0.0-1.0,
    ...
  },
  "notes": "any important observations or uncertainties",
  "file_summary": "brief 2-3 sentence summary of the document"
}

**IMPORTANT:**
- Use column IDs, not titles
- All dates in ISO 8601 UTC format (YYYY-MM-DDTHH:MM:SSZ)
- Dropdown values must match exactly
- Return confidence scores (0-1) for each extracted field
- If you're unsure about a value, note it and assign lower confidence

Now, analyze this document and extract the information:`, schema, strings.Join(dropdowns, "\n"), prescan, custom), nil
}
