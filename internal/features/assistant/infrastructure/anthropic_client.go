package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"flowerchat/backend/internal/logging"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
	defaultAnthropicModel   = "claude-3-5-sonnet-latest"
	anthropicVersion        = "2023-06-01"
	// Anthropic requires max_tokens on every request.
	defaultAnthropicMaxTokens = 1024
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float64           `json:"temperature,omitempty"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []anthropicBlock `json:"content"`
}

// anthropicBlock is a text, tool_use or tool_result content block.
type anthropicBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type anthropicTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type anthropicResponse struct {
	Content    []anthropicBlock `json:"content"`
	StopReason string           `json:"stop_reason"`
}

type anthropicErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// anthropicClient talks to the Messages API directly over HTTP.
type anthropicClient struct {
	apiKey  string
	baseURL string
	model   string
	hc      *http.Client
}

// NewAnthropicClient creates a Messages API client.
func NewAnthropicClient(cfg AIConfig) LLMClient {
	base := strings.TrimSuffix(cfg.BaseURL, "/")
	if base == "" {
		base = defaultAnthropicBaseURL
	}
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}
	return &anthropicClient{apiKey: cfg.APIKey, baseURL: base, model: model, hc: hc}
}

// Complete sends one Messages request.
func (c *anthropicClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	areq := toAnthropicRequest(req)
	if areq.Model == "" {
		areq.Model = c.model
	}
	body, err := json.Marshal(areq)
	if err != nil {
		return nil, errors.Wrap(err, "marshal anthropic request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "build anthropic request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	logging.FromContext(ctx).WithField("model", areq.Model).Debug("anthropic request")
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Message: err.Error()}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: "anthropic", Status: resp.StatusCode, Message: err.Error()}
	}
	if resp.StatusCode/100 != 2 {
		var eb anthropicErrorBody
		msg := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &eb) == nil && eb.Error.Message != "" {
			msg = eb.Error.Message
		}
		return nil, &ProviderError{Provider: "anthropic", Status: resp.StatusCode, Message: msg}
	}

	var ar anthropicResponse
	if err := json.Unmarshal(raw, &ar); err != nil {
		return nil, &ProviderError{Provider: "anthropic", Status: resp.StatusCode, Message: "decode response: " + err.Error()}
	}

	out := &Completion{StopReason: ar.StopReason}
	var text []string
	for _, b := range ar.Content {
		switch b.Type {
		case "text":
			text = append(text, b.Text)
		case "tool_use":
			args := string(b.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{ID: b.ID, Name: b.Name, Arguments: args})
		}
	}
	out.Content = strings.Join(text, "")
	return out, nil
}

// toAnthropicRequest maps the neutral request onto Messages API blocks.
// Consecutive tool results are merged into a single user turn.
func toAnthropicRequest(req CompletionRequest) anthropicRequest {
	areq := anthropicRequest{
		Model:     req.Model,
		System:    req.System,
		MaxTokens: req.MaxTokens,
	}
	if areq.MaxTokens <= 0 {
		areq.MaxTokens = defaultAnthropicMaxTokens
	}
	if req.Temperature > 0 {
		t := req.Temperature
		areq.Temperature = &t
	}
	for _, t := range req.Tools {
		schema := t.Parameters
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object","properties":{}}`)
		}
		areq.Tools = append(areq.Tools, anthropicTool{Name: t.Name, Description: t.Description, InputSchema: schema})
	}

	// Without tool definitions the API rejects tool blocks, so prior
	// calls and results are replayed as plain text.
	flatten := len(areq.Tools) == 0
	for _, m := range req.Messages {
		switch m.Role {
		case RoleSystem:
			if areq.System != "" {
				areq.System += "\n\n"
			}
			areq.System += m.Content
		case RoleAssistant:
			msg := anthropicMessage{Role: "assistant"}
			if m.Content != "" {
				msg.Content = append(msg.Content, anthropicBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				if flatten {
					msg.Content = append(msg.Content, anthropicBlock{Type: "text", Text: "[" + tc.Name + " " + tc.Arguments + "]"})
					continue
				}
				input := json.RawMessage(tc.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				msg.Content = append(msg.Content, anthropicBlock{Type: "tool_use", ID: tc.ID, Name: tc.Name, Input: input})
			}
			if len(msg.Content) == 0 {
				continue
			}
			areq.Messages = append(areq.Messages, msg)
		case RoleTool:
			if flatten {
				areq.Messages = appendUserText(areq.Messages, "[result "+m.Content+"]")
				continue
			}
			block := anthropicBlock{Type: "tool_result", ToolUseID: m.ToolCallID, Content: m.Content}
			if n := len(areq.Messages); n > 0 && isToolResultTurn(areq.Messages[n-1]) {
				areq.Messages[n-1].Content = append(areq.Messages[n-1].Content, block)
				continue
			}
			areq.Messages = append(areq.Messages, anthropicMessage{Role: "user", Content: []anthropicBlock{block}})
		default:
			areq.Messages = appendUserText(areq.Messages, m.Content)
		}
	}
	return areq
}

// appendUserText adds a text block, joining it to a preceding user turn.
func appendUserText(msgs []anthropicMessage, text string) []anthropicMessage {
	block := anthropicBlock{Type: "text", Text: text}
	if n := len(msgs); n > 0 && msgs[n-1].Role == "user" {
		msgs[n-1].Content = append(msgs[n-1].Content, block)
		return msgs
	}
	return append(msgs, anthropicMessage{Role: "user", Content: []anthropicBlock{block}})
}

func isToolResultTurn(m anthropicMessage) bool {
	if m.Role != "user" || len(m.Content) == 0 {
		return false
	}
	for _, b := range m.Content {
		if b.Type != "tool_result" {
			return false
		}
	}
	return true
}
