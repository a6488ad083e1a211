package ai

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"

	"github.com/nhle/inbox/internal/model"
)

// Limited rejects calls beyond a per-minute budget instead of queueing them,
// so rapid selection changes do not pile up requests behind the limiter.
type Limited struct {
	next    Client
	limiter *rate.Limiter
}

// WithRateLimit wraps c with a limit of perMinute calls. A non-positive
// limit returns c unchanged.
func WithRateLimit(c Client, perMinute int) Client {
	if perMinute <= 0 {
		return c
	}
	return &Limited{
		next:    c,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
	}
}

func (l *Limited) Provider() string { return l.next.Provider() }

func (l *Limited) Analyze(ctx context.Context, body string) (model.AnalysisResult, error) {
	if !l.limiter.Allow() {
		return model.AnalysisResult{}, newError(OpAnalyze, l.Provider(), KindRateLimited, errLocalLimit)
	}
	return l.next.Analyze(ctx, body)
}

func (l *Limited) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if !l.limiter.Allow() {
		return "", newError(OpTranslate, l.Provider(), KindRateLimited, errLocalLimit)
	}
	return l.next.Translate(ctx, text, targetLanguage)
}

var errLocalLimit = errors.New("local request budget exhausted")
