package ai

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
)

// Fallback tries each client in order and moves on when one fails with a
// transport or rate-limit error. Malformed replies are returned as they
// are, since another provider is unlikely to fix the input.
type Fallback struct {
	clients []Client
	log     zerolog.Logger
}

// NewFallback chains clients in priority order.
func NewFallback(clients ...Client) *Fallback {
	return &Fallback{
		clients: clients,
		log:     logging.Component("ai"),
	}
}

func (f *Fallback) Provider() string {
	names := make([]string, len(f.clients))
	for i, c := range f.clients {
		names[i] = c.Provider()
	}
	return strings.Join(names, "+")
}

func (f *Fallback) Analyze(ctx context.Context, body string) (model.AnalysisResult, error) {
	var lastErr error = newError(OpAnalyze, "", KindNotConfigured, Unconfigured{}.err())
	for _, c := range f.clients {
		res, err := c.Analyze(ctx, body)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if !f.next(ctx, c, OpAnalyze, err) {
			break
		}
	}
	return model.AnalysisResult{}, lastErr
}

func (f *Fallback) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	var lastErr error = newError(OpTranslate, "", KindNotConfigured, Unconfigured{}.err())
	for _, c := range f.clients {
		out, err := c.Translate(ctx, text, targetLanguage)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !f.next(ctx, c, OpTranslate, err) {
			break
		}
	}
	return "", lastErr
}

// next reports whether the chain should continue after c failed.
func (f *Fallback) next(ctx context.Context, c Client, op string, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if !IsKind(err, KindTransport) && !IsKind(err, KindRateLimited) {
		return false
	}
	f.log.Warn().Err(err).Str("provider", c.Provider()).Str("op", op).Msg("provider failed, trying next")
	return true
}
