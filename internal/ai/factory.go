package ai

import (
	"fmt"
	"strings"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAuto   = "auto"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// Config selects and configures the AI provider.
type Config struct {
	Provider      string
	Model         string
	MaxTokens     int
	RatePerMinute int

	ClaudeKey string
	GeminiKey string
}

// New builds the client described by cfg. A provider without a key yields
// an Unconfigured client rather than an error, so the app still starts and
// reports the problem in the AI panel. ProviderAuto chains every provider
// that has a key, Claude first; Model only applies to an explicit provider.
func New(cfg Config, opts ...Option) (Client, error) {
	var c Client

	switch strings.ToLower(cfg.Provider) {
	case ProviderNone:
		c = Unconfigured{Reason: "AI is disabled in the configuration"}

	case ProviderClaude:
		if cfg.ClaudeKey == "" {
			c = Unconfigured{Reason: "ANTHROPIC_API_KEY is required for the claude provider"}
			break
		}
		c = NewClaude(cfg.ClaudeKey, cfg.Model, cfg.MaxTokens, opts...)

	case ProviderGemini:
		if cfg.GeminiKey == "" {
			c = Unconfigured{Reason: "GEMINI_API_KEY is required for the gemini provider"}
			break
		}
		c = NewGemini(cfg.GeminiKey, cfg.Model, cfg.MaxTokens, opts...)

	case ProviderAuto, "":
		var chain []Client
		if cfg.ClaudeKey != "" {
			chain = append(chain, NewClaude(cfg.ClaudeKey, "", cfg.MaxTokens, opts...))
		}
		if cfg.GeminiKey != "" {
			chain = append(chain, NewGemini(cfg.GeminiKey, "", cfg.MaxTokens, opts...))
		}
		switch len(chain) {
		case 0:
			c = Unconfigured{Reason: "no API key found for claude or gemini"}
		case 1:
			c = chain[0]
		default:
			c = NewFallback(chain...)
		}

	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.Provider)
	}

	if _, ok := c.(Unconfigured); ok {
		return c, nil
	}
	return WithRateLimit(c, cfg.RatePerMinute), nil
}
