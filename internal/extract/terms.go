// Package extract turns uploaded bid documents into structured board
// values: a lexical pre-scan locates candidate regions, the model does
// the extraction, and the result is validated against the board schema.
package extract

import "strings"

// bidSearchTerms maps each board field to the phrases that typically
// introduce it in bid documents.
var bidSearchTerms = map[string][]string{
	"project_name": {
		"project name", "project title", "work", "name of project",
		"project:", "title:", "for the",
	},
	"client": {
		"owner", "client", "agency", "awarding authority",
		"for:", "prepared for", "owner:",
	},
	"solicitation": {
		"solicitation", "project number", "project no", "rfp", "ifb",
		"solicitation number", "project #", "rfp #",
	},
	"bid_due": {
		"bid due", "due date", "submission deadline", "proposals due by",
		"bids must be received", "closing date", "due:",
	},
	"job_walk": {
		"pre-bid", "job walk", "site visit", "pre-bid meeting",
		"mandatory meeting", "walk-through", "site inspection",
	},
	"rfi_deadline": {
		"rfi", "questions due", "rfi deadline", "clarifications",
		"questions must be submitted", "inquiry deadline",
	},
	"scope": {
		"scope of work", "work to be performed", "project description",
		"description of work", "scope:",
	},
	"subs_needed": {
		"subcontractors", "specialty", "trade contractors", "subs",
		"trades required", "specialty contractors",
	},
	"role": {
		"prime", "sub", "subcontractor", "general contractor",
		"gc", "prime contractor",
	},
	"submission_method": {
		"electronic", "hard copy", "submit via", "email",
		"online submission", "physical submission",
	},
	"engineers_estimate": {
		"engineer's estimate", "budget", "estimated cost",
		"project budget", "estimated value",
	},
	"bid_bond": {
		"bid bond", "bond required", "bid security",
		"bid guarantee", "surety bond",
	},
	"contract_time": {
		"contract time", "duration", "days", "completion",
		"time for completion", "contract period",
	},
	"insurance": {
		"insurance", "liability", "coverage",
		"insurance requirements", "certificates of insurance",
	},
	"wages": {
		"prevailing wage", "davis-bacon", "wage rates",
		"certified payroll", "prevailing rates",
	},
	"franchise_hauler": {
		"franchise", "hauler", "disposal", "waste",
		"designated hauler", "waste disposal",
	},
}

// TermHit records where a field's introducing phrase was first seen.
type TermHit struct {
	Field      string `json:"field"`
	Term       string `json:"term"`
	Line       string `json:"line"`
	LineNumber int    `json:"lineNumber"`
	Context    string `json:"context"`
}

// ScanTerms searches document text for each field's terms, case
// insensitively. Only the first hit per field is kept, with three lines
// of context on each side.
func ScanTerms(text string) map[string]TermHit {
	lines := strings.Split(text, "\n")
	hits := make(map[string]TermHit)

	for field, terms := range bidSearchTerms {
	scan:
		for i, line := range lines {
			lower := strings.ToLower(line)
			for _, term := range terms {
				if !strings.Contains(lower, strings.ToLower(term)) {
					continue
				}
				start := i - 3
				if start < 0 {
					start = 0
				}
				end := i + 4
				if end > len(lines) {
					end = len(lines)
				}
				hits[field] = TermHit{
					Field:      field,
					Term:       term,
					Line:       line,
					LineNumber: i,
					Context:    strings.Join(lines[start:end], "\n"),
				}
				break scan
			}
		}
	}
	return hits
}
