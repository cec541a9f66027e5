package domain

// AppConfig represents the assistant configuration editable at runtime.
type AppConfig struct {
	SystemPrompt     string            `json:"system_prompt"`
	Greeting         string            `json:"greeting"`
	ChecklistPrompts map[string]string `json:"checklist_prompts"`
	QuickReplies     []string          `json:"quick_replies"`
	ModelParams      ModelParams       `json:"model_params"`
	SearchDefaults   SearchDefaults    `json:"search_defaults"`
}

// ModelParams defines the parameters for the AI model.
type ModelParams struct {
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Model       string  `json:"model,omitempty"` // overrides the provider default when set
}

// SearchDefaults are applied to catalog searches the model leaves unspecified.
type SearchDefaults struct {
	Limit int    `json:"limit"`
	Sort  string `json:"sort,omitempty"`
}

// PublicConfig is the subset of AppConfig the web frontend reads.
type PublicConfig struct {
	Greeting     string   `json:"greeting"`
	QuickReplies []string `json:"quick_replies"`
}

// Public returns the frontend-visible part of the configuration.
func (c *AppConfig) Public() PublicConfig {
	replies := c.QuickReplies
	if replies == nil {
		replies = []string{}
	}
	return PublicConfig{Greeting: c.Greeting, QuickReplies: replies}
}
