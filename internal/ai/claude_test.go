package ai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/ai"
	"github.com/nhle/inbox/internal/model"
)

func claudeServer(t *testing.T, status int, reply any, inspect func(*http.Request, map[string]any)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if inspect != nil {
			inspect(r, body)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(t, json.NewEncoder(w).Encode(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClaude_AnalyzeUsesForcedToolCall(t *testing.T) {
	reply := map[string]any{
		"content": []map[string]any{{
			"type": "tool_use",
			"id":   "toolu_1",
			"name": "record_analysis",
			"input": map[string]any{
				"priority": "High Priority",
				"summary":  "Server is down.",
				"replies":  []string{"On it", "Paging ops", "Thanks", "Extra"},
			},
		}},
	}

	srv := claudeServer(t, http.StatusOK, reply, func(r *http.Request, body map[string]any) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		choice, ok := body["tool_choice"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "tool", choice["type"])
		assert.Equal(t, "record_analysis", choice["name"])
	})

	c := ai.NewClaude("test-key", "", 0, ai.WithBaseURL(srv.URL))
	res, err := c.Analyze(context.Background(), "the server is down")
	require.NoError(t, err)

	assert.Equal(t, model.PriorityHigh, res.Priority)
	assert.Equal(t, "Server is down.", res.Summary)
	assert.Equal(t, []string{"On it", "Paging ops", "Thanks"}, res.Replies)
}

func TestClaude_AnalyzeRejectsMissingToolCall(t *testing.T) {
	reply := map[string]any{
		"content": []map[string]any{{"type": "text", "text": "High priority!"}},
	}
	srv := claudeServer(t, http.StatusOK, reply, nil)

	c := ai.NewClaude("k", "", 0, ai.WithBaseURL(srv.URL))
	_, err := c.Analyze(context.Background(), "body")
	require.Error(t, err)
	assert.True(t, ai.IsKind(err, ai.KindMalformed))
}

func TestClaude_TranslateStripsPreamble(t *testing.T) {
	reply := map[string]any{
		"content": []map[string]any{{"type": "text", "text": "Here is the translation:\n\"Good morning\"\n"}},
	}
	srv := claudeServer(t, http.StatusOK, reply, func(_ *http.Request, body map[string]any) {
		msgs := body["messages"].([]any)
		content := msgs[0].(map[string]any)["content"].([]any)
		assert.Contains(t, content[0].(map[string]any)["text"], "to German")
	})

	c := ai.NewClaude("k", "", 0, ai.WithBaseURL(srv.URL))
	out, err := c.Translate(context.Background(), "Guten Morgen", "German")
	require.NoError(t, err)
	assert.Equal(t, "Good morning", out)
}

func TestClaude_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   ai.Kind
	}{
		{"rate limited", http.StatusTooManyRequests, ai.KindRateLimited},
		{"server error", http.StatusInternalServerError, ai.KindTransport},
		{"unauthorized", http.StatusUnauthorized, ai.KindTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{"error": map[string]any{"type": "error", "message": "nope"}}
			srv := claudeServer(t, tt.status, body, nil)

			c := ai.NewClaude("k", "", 0, ai.WithBaseURL(srv.URL))
			_, err := c.Translate(context.Background(), "x", "English")
			require.Error(t, err)
			assert.True(t, ai.IsKind(err, tt.kind))
			assert.Contains(t, err.Error(), "nope")
		})
	}
}

func TestClaude_UnreachableServerIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := ai.NewClaude("k", "", 0, ai.WithBaseURL(url))
	_, err := c.Analyze(context.Background(), "body")
	require.Error(t, err)
	assert.True(t, ai.IsKind(err, ai.KindTransport))

	var aiErr *ai.Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, ai.OpAnalyze, aiErr.Op)
	assert.Equal(t, "claude", aiErr.Provider)
	assert.Contains(t, aiErr.UserMessage(), "Failed to get AI analysis")
}
