package llm

// ModelInfo describes one entry of the static model catalog served to
// the settings UI. Poe routes all of these through the same endpoint.
type ModelInfo struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	Description       string `json:"description"`
	MaxTokens         int    `json:"maxTokens"`
	SupportsVision    bool   `json:"supportsVision"`
	SupportsFunctions bool   `json:"supportsFunctions"`
	Default           bool   `json:"default,omitempty"`
}

// Catalog is the fixed list of models offered in the picker.
var Catalog = []ModelInfo{
	{
		ID:                "Claude-Sonnet-4",
		Name:              "Claude Sonnet 4",
		Provider:          "Anthropic",
		Description:       "Most capable Claude model for complex reasoning and document analysis",
		MaxTokens:         200000,
		SupportsVision:    true,
		SupportsFunctions: true,
		Default:           true,
	},
	{
		ID:                "Claude-Opus-4.1",
		Name:              "Claude Opus 4.1",
		Provider:          "Anthropic",
		Description:       "Highest quality Claude model for complex analysis",
		MaxTokens:         200000,
		SupportsVision:    true,
		SupportsFunctions: true,
	},
	{
		ID:                "GPT-4o",
		Name:              "GPT-4o",
		Provider:          "OpenAI",
		Description:       "Latest GPT-4 model with multimodal capabilities",
		MaxTokens:         128000,
		SupportsVision:    true,
		SupportsFunctions: true,
	},
	{
		ID:                "GPT-5",
		Name:              "GPT-5",
		Provider:          "OpenAI",
		Description:       "OpenAI's latest flagship model",
		MaxTokens:         128000,
		SupportsVision:    true,
		SupportsFunctions: true,
	},
	{
		ID:                "Gemini-2.5-Pro",
		Name:              "Gemini 2.5 Pro",
		Provider:          "Google",
		Description:       "Google's most capable model for complex reasoning",
		MaxTokens:         2000000,
		SupportsVision:    true,
		SupportsFunctions: true,
	},
	{
		ID:                "Gemini-2.5-Flash",
		Name:              "Gemini 2.5 Flash",
		Provider:          "Google",
		Description:       "Fast Gemini model optimized for speed",
		MaxTokens:         1000000,
		SupportsVision:    true,
		SupportsFunctions: true,
	},
	{
		ID:                "Llama-3.1-405B",
		Name:              "Llama 3.1 405B",
		Provider:          "Meta",
		Description:       "Meta's largest open-source model",
		MaxTokens:         128000,
		SupportsVision:    false,
		SupportsFunctions: true,
	},
	{
		ID:                "Grok-4",
		Name:              "Grok 4",
		Provider:          "xAI",
		Description:       "xAI's latest model",
		MaxTokens:         128000,
		SupportsVision:    true,
		SupportsFunctions: true,
	},
}

// DefaultModelID returns the catalog's default model id.
func DefaultModelID() string {
	for _, m := range Catalog {
		if m.Default {
			return m.ID
		}
	}
	return Catalog[0].ID
}
