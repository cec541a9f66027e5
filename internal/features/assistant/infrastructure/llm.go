package infrastructure

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// Roles of a provider-neutral Message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message represents a message in a conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ToolCall is a function invocation requested by the model.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolDefinition advertises a callable tool; Parameters is a JSON schema.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// CompletionRequest is one round-trip to the model.
type CompletionRequest struct {
	System      string
	Messages    []Message
	Tools       []ToolDefinition
	Model       string
	Temperature float64
	MaxTokens   int
}

// Completion is the model's answer: text, tool calls, or both.
type Completion struct {
	Content    string
	ToolCalls  []ToolCall
	StopReason string
}

// LLMClient defines a generic interface for AI services
type LLMClient interface {
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// AIConfig holds configuration for AI clients
type AIConfig struct {
	Provider   string `json:"provider"` // "openai", "anthropic"
	APIKey     string `json:"api_key"`
	Model      string `json:"model"`
	BaseURL    string `json:"base_url,omitempty"`
	HTTPClient *http.Client
}

// ProviderError is a failed call to the hosted model. It maps to 502.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
}

func (e *ProviderError) Error() string {
	if e.Status > 0 {
		return e.Provider + ": " + http.StatusText(e.Status) + ": " + e.Message
	}
	return e.Provider + ": " + e.Message
}

// HTTPStatus implements apperr.StatusCoder.
func (e *ProviderError) HTTPStatus() int { return http.StatusBadGateway }

// NewLLMClient picks the client for cfg.Provider.
func NewLLMClient(cfg AIConfig) (LLMClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.Errorf("%s: api key not set", cfg.Provider)
	}
	switch strings.ToLower(cfg.Provider) {
	case "", "openai":
		return NewOpenAIClient(cfg), nil
	case "anthropic", "claude":
		return NewAnthropicClient(cfg), nil
	default:
		return nil, errors.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// StripCodeFence unwraps ```json ... ``` blocks models sometimes emit around JSON.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
