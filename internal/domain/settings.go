package domain

// GlobalBoardID is the settings scope used when no board context exists
// (for example the standalone settings view).
const GlobalBoardID = "global"

// Settings is the per-board assistant configuration. It is replaced
// wholesale on every save; there is no partial patch.
type Settings struct {
	APIKey          string  `json:"apiKey"`
	DefaultModel    string  `json:"defaultModel"`
	SelectedAgentID string  `json:"selectedAgentId"`
	Agents          []Agent `json:"agents"`
}

// Normalize fills defaults and restores the invariant that
// SelectedAgentID always resolves to a member of Agents. An empty agent
// list is seeded with the default agent.
func (s *Settings) Normalize() {
	if s.DefaultModel == "" {
		s.DefaultModel = DefaultModel
	}
	if len(s.Agents) == 0 {
		s.Agents = []Agent{DefaultAgent()}
	}
	if s.AgentByID(s.SelectedAgentID) == nil {
		s.SelectedAgentID = s.Agents[0].ID
	}
}

// AgentByID returns the agent with the given id, or nil.
func (s *Settings) AgentByID(id string) *Agent {
	for i := range s.Agents {
		if s.Agents[i].ID == id {
			return &s.Agents[i]
		}
	}
	return nil
}

// SelectedAgent returns the currently selected agent, falling back to
// the default agent if settings are empty or inconsistent.
func (s *Settings) SelectedAgent() Agent {
	if a := s.AgentByID(s.SelectedAgentID); a != nil {
		return *a
	}
	if len(s.Agents) > 0 {
		return s.Agents[0]
	}
	return DefaultAgent()
}
