package ai

import (
	"context"
	"errors"
	"strings"

	"github.com/nhle/inbox/internal/model"
)

const (
	geminiDefaultModel = "gemini-2.5-flash"
	geminiBaseURL      = "https://generativelanguage.googleapis.com"
)

// Gemini talks to the Google generateContent API.
type Gemini struct {
	apiKey    string
	model     string
	maxTokens int
	transport transport
}

// NewGemini creates a Gemini client. An empty model selects the default.
func NewGemini(apiKey, modelName string, maxTokens int, opts ...Option) *Gemini {
	if modelName == "" {
		modelName = geminiDefaultModel
	}
	return &Gemini{
		apiKey:    apiKey,
		model:     modelName,
		maxTokens: maxTokens,
		transport: newTransport("gemini", geminiBaseURL, opts),
	}
}

func (g *Gemini) Provider() string { return "gemini" }

// Analyze requests JSON output constrained by the analysis schema.
func (g *Gemini) Analyze(ctx context.Context, body string) (model.AnalysisResult, error) {
	req := g.request(analysisPrompt(body))
	req.GenerationConfig.ResponseMimeType = "application/json"
	req.GenerationConfig.ResponseSchema = analysisSchema()

	text, err := g.generate(ctx, OpAnalyze, req)
	if err != nil {
		return model.AnalysisResult{}, err
	}

	res, err := ParseAnalysis([]byte(text))
	if err != nil {
		return model.AnalysisResult{}, newError(OpAnalyze, g.Provider(), KindMalformed, err)
	}
	return res, nil
}

// Translate returns the translated text with any preamble removed.
func (g *Gemini) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	out, err := g.generate(ctx, OpTranslate, g.request(translationPrompt(text, targetLanguage)))
	if err != nil {
		return "", err
	}
	out = CleanTranslation(out)
	if out == "" {
		return "", newError(OpTranslate, g.Provider(), KindMalformed, errors.New("empty translation"))
	}
	return out, nil
}

func (g *Gemini) request(prompt string) geminiRequest {
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	if g.maxTokens > 0 {
		req.GenerationConfig.MaxOutputTokens = g.maxTokens
	}
	return req
}

func (g *Gemini) generate(ctx context.Context, op string, req geminiRequest) (string, error) {
	url := g.transport.baseURL + "/v1beta/models/" + g.model + ":generateContent"
	headers := map[string]string{"x-goog-api-key": g.apiKey}

	var resp geminiResponse
	if err := g.transport.postJSON(ctx, op, url, headers, req, &resp); err != nil {
		return "", classify(op, g.Provider(), err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", newError(op, g.Provider(), KindMalformed, errors.New("response has no candidates"))
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

func analysisSchema() *geminiSchema {
	return &geminiSchema{
		Type: "OBJECT",
		Properties: map[string]*geminiSchema{
			"priority": {
				Type:        "STRING",
				Description: priorityDescription,
				Enum:        []string{string(model.PriorityHigh), string(model.PriorityNormal), string(model.PriorityLow)},
			},
			"summary": {
				Type:        "STRING",
				Description: summaryDescription,
			},
			"replies": {
				Type:        "ARRAY",
				Items:       &geminiSchema{Type: "STRING"},
				Description: repliesDescription,
			},
		},
		Required: []string{"priority", "summary", "replies"},
	}
}

// --- Gemini API types ---

type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
	MaxOutputTokens  int           `json:"maxOutputTokens,omitempty"`
}

type geminiSchema struct {
	Type        string                   `json:"type"`
	Description string                   `json:"description,omitempty"`
	Enum        []string                 `json:"enum,omitempty"`
	Properties  map[string]*geminiSchema `json:"properties,omitempty"`
	Items       *geminiSchema            `json:"items,omitempty"`
	Required    []string                 `json:"required,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
}
