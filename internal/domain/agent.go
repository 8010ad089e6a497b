// Package domain defines the core types shared across Boardflow:
// agents, per-board settings, knowledge files, tool-call proposals,
// activity entries, and conversation transcripts.
package domain

// DefaultModel is used when a board has no saved model preference.
const DefaultModel = "Claude-Sonnet-4"

// Agent is a configured LLM persona: a system prompt, a sampling
// temperature, and a set of attached knowledge file references.
type Agent struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	SystemPrompt     string   `json:"system"`
	Temperature      float64  `json:"temperature"`
	Instructions     string   `json:"instructions,omitempty"`
	KnowledgeFileIDs []string `json:"knowledgeFileIds,omitempty"`
}

// DefaultAgent returns the seed agent used when a board has no agents
// configured yet.
func DefaultAgent() Agent {
	return Agent{
		ID:           "bid-assistant",
		Name:         "Bid Assistant",
		SystemPrompt: "You parse bid docs and extract key fields for project teams.",
		Temperature:  0.3,
	}
}

// DetachKnowledgeFile removes a knowledge file reference from the agent.
// Returns true if the reference was present.
func (a *Agent) DetachKnowledgeFile(fileID string) bool {
	for i, id := range a.KnowledgeFileIDs {
		if id == fileID {
			a.KnowledgeFileIDs = append(a.KnowledgeFileIDs[:i], a.KnowledgeFileIDs[i+1:]...)
			return true
		}
	}
	return false
}
