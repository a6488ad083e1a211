package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
)

// Option adjusts how a provider reaches its API.
type Option func(*transport)

// WithBaseURL points a provider at another endpoint, e.g. a proxy or a
// test server.
func WithBaseURL(url string) Option {
	return func(t *transport) { t.baseURL = url }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(t *transport) { t.client = c }
}

type transport struct {
	provider string
	baseURL  string
	client   *http.Client
	log      zerolog.Logger
}

func newTransport(provider, baseURL string, opts []Option) transport {
	t := transport{
		provider: provider,
		baseURL:  baseURL,
		client:   &http.Client{},
		log:      logging.Component("ai").With().Str("provider", provider).Logger(),
	}
	for _, opt := range opts {
		opt(&t)
	}
	return t
}

// statusError is a non-200 reply from a provider.
type statusError struct {
	Code    int
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Code, e.Message)
}

// apiErrorBody covers both providers' error envelopes.
type apiErrorBody struct {
	Error struct {
		Type    string `json:"type"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// postJSON sends in as JSON to url and decodes the reply into out.
func (t transport) postJSON(
	ctx context.Context,
	op, url string,
	headers map[string]string,
	in, out any,
) error {
	reqID := uuid.NewString()
	start := time.Now()

	bodyBytes, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	t.log.Debug().Str("request_id", reqID).Str("op", op).Msg("sending request")

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.Warn().Err(err).Str("request_id", reqID).Str("op", op).Msg("request failed")
		return fmt.Errorf("calling %s API: %w", t.provider, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	logEvent := t.log.Debug()
	if resp.StatusCode != http.StatusOK {
		logEvent = t.log.Warn()
	}
	logEvent.
		Str("request_id", reqID).
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("response received")

	if resp.StatusCode != http.StatusOK {
		var apiErr apiErrorBody
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error.Message != "" {
			return &statusError{Code: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return &statusError{Code: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return &malformedError{fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

type malformedError struct{ err error }

func (e *malformedError) Error() string { return e.err.Error() }
func (e *malformedError) Unwrap() error { return e.err }

// classify wraps a transport failure in an *Error of the matching kind.
func classify(op, provider string, err error) *Error {
	var se *statusError
	var me *malformedError
	switch {
	case errors.As(err, &se) && se.Code == http.StatusTooManyRequests:
		return newError(op, provider, KindRateLimited, err)
	case errors.As(err, &me):
		return newError(op, provider, KindMalformed, err)
	default:
		return newError(op, provider, KindTransport, err)
	}
}
