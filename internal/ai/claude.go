package ai

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/nhle/inbox/internal/model"
)

const (
	claudeDefaultModel     = "claude-sonnet-4-5-20250929"
	claudeDefaultMaxTokens = 1024
	claudeBaseURL          = "https://api.anthropic.com"
	claudeAPIVersion       = "2023-06-01"

	analysisTool = "record_analysis"
)

// Claude talks to the Anthropic Messages API.
type Claude struct {
	apiKey    string
	model     string
	maxTokens int
	transport transport
}

// NewClaude creates a Claude client. An empty model or non-positive
// maxTokens selects the defaults.
func NewClaude(apiKey, modelName string, maxTokens int, opts ...Option) *Claude {
	if modelName == "" {
		modelName = claudeDefaultModel
	}
	if maxTokens <= 0 {
		maxTokens = claudeDefaultMaxTokens
	}

	return &Claude{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		transport: newTransport("claude", claudeBaseURL, opts),
	}
}

func (c *Claude) Provider() string { return "claude" }

// Analyze forces a record_analysis tool call so the reply arrives as JSON
// matching the analysis schema.
func (c *Claude) Analyze(ctx context.Context, body string) (model.AnalysisResult, error) {
	req := claudeRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    "You triage inbox messages. Always answer by calling the " + analysisTool + " tool.",
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeBlock{{Type: "text", Text: analysisPrompt(body)}},
		}},
		Tools:      []claudeTool{analysisToolDefinition()},
		ToolChoice: &claudeToolChoice{Type: "tool", Name: analysisTool},
	}

	resp, err := c.call(ctx, OpAnalyze, req)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.Name != analysisTool {
			continue
		}
		res, err := ParseAnalysis(block.Input)
		if err != nil {
			return model.AnalysisResult{}, newError(OpAnalyze, c.Provider(), KindMalformed, err)
		}
		return res, nil
	}
	return model.AnalysisResult{}, newError(OpAnalyze, c.Provider(), KindMalformed,
		errors.New("response has no "+analysisTool+" tool call"))
}

// Translate returns the translated text with any preamble removed.
func (c *Claude) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	req := claudeRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []claudeMessage{{
			Role:    "user",
			Content: []claudeBlock{{Type: "text", Text: translationPrompt(text, targetLanguage)}},
		}},
	}

	resp, err := c.call(ctx, OpTranslate, req)
	if err != nil {
		return "", err
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			parts = append(parts, block.Text)
		}
	}
	out := CleanTranslation(strings.Join(parts, ""))
	if out == "" {
		return "", newError(OpTranslate, c.Provider(), KindMalformed, errors.New("empty translation"))
	}
	return out, nil
}

func (c *Claude) call(ctx context.Context, op string, req claudeRequest) (*claudeResponse, error) {
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": claudeAPIVersion,
	}

	var resp claudeResponse
	if err := c.transport.postJSON(ctx, op, c.transport.baseURL+"/v1/messages", headers, req, &resp); err != nil {
		return nil, classify(op, c.Provider(), err)
	}
	return &resp, nil
}

func analysisToolDefinition() claudeTool {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"priority": map[string]any{
				"type":        "string",
				"description": priorityDescription,
				"enum":        []string{string(model.PriorityHigh), string(model.PriorityNormal), string(model.PriorityLow)},
			},
			"summary": map[string]any{
				"type":        "string",
				"description": summaryDescription,
			},
			"replies": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": repliesDescription,
			},
		},
		"required": []string{"priority", "summary", "replies"},
	}
	raw, _ := json.Marshal(schema)

	return claudeTool{
		Name:        analysisTool,
		Description: "Record the priority, summary and suggested replies for a message.",
		InputSchema: raw,
	}
}

// --- Claude API types ---

type claudeRequest struct {
	Model      string            `json:"model"`
	MaxTokens  int               `json:"max_tokens"`
	System     string            `json:"system,omitempty"`
	Messages   []claudeMessage   `json:"messages"`
	Tools      []claudeTool      `json:"tools,omitempty"`
	ToolChoice *claudeToolChoice `json:"tool_choice,omitempty"`
}

type claudeMessage struct {
	Role    string        `json:"role"`
	Content []claudeBlock `json:"content"`
}

type claudeBlock struct {
	Type string `json:"type"`

	// For text blocks
	Text string `json:"text,omitempty"`

	// For tool_use blocks
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`
}

type claudeTool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

type claudeToolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

type claudeResponse struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	Role       string        `json:"role"`
	Content    []claudeBlock `json:"content"`
	Model      string        `json:"model"`
	StopReason string        `json:"stop_reason"`
}
