package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nhle/inbox/internal/model"
)

// analysisPayload mirrors the analysis schema. Pointer fields let missing
// keys be told apart from empty values.
type analysisPayload struct {
	Priority *string         `json:"priority"`
	Summary  *string         `json:"summary"`
	Replies  json.RawMessage `json:"replies"`
}

// ParseAnalysis decodes a provider's analysis JSON. All three fields are
// required and replies must be an array of strings; anything else is
// rejected rather than partially accepted. Unknown priority labels map to
// model.PriorityUnknown and replies beyond model.MaxSuggestedReplies are
// dropped.
func ParseAnalysis(raw []byte) (model.AnalysisResult, error) {
	raw = stripCodeFence(raw)

	var p analysisPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("decoding analysis: %w", err)
	}

	switch {
	case p.Priority == nil:
		return model.AnalysisResult{}, errors.New("analysis is missing priority")
	case p.Summary == nil:
		return model.AnalysisResult{}, errors.New("analysis is missing summary")
	case len(p.Replies) == 0 || bytes.Equal(p.Replies, []byte("null")):
		return model.AnalysisResult{}, errors.New("analysis is missing replies")
	}

	var replies []string
	if err := json.Unmarshal(p.Replies, &replies); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("analysis replies are not a list of strings: %w", err)
	}

	kept := make([]string, 0, model.MaxSuggestedReplies)
	for _, r := range replies {
		if r = strings.TrimSpace(r); r == "" {
			continue
		}
		if len(kept) == model.MaxSuggestedReplies {
			break
		}
		kept = append(kept, r)
	}

	return model.AnalysisResult{
		Priority: model.ParsePriority(strings.TrimSpace(*p.Priority)),
		Summary:  strings.TrimSpace(*p.Summary),
		Replies:  kept,
	}, nil
}

var codeFence = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

func stripCodeFence(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if m := codeFence.FindSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

var translationPreamble = regexp.MustCompile(
	`(?i)^\s*(?:(?:sure|okay|ok)[!,.]?\s*)?(?:here(?:'s| is) (?:the |your )?translation[^:\n]*|translation(?: to [^:\n]+)?)\s*:\s*`,
)

// CleanTranslation trims the provider's reply and removes an explanatory
// preamble such as "Here is the translation:" and quotes wrapping the
// whole text.
func CleanTranslation(s string) string {
	s = strings.TrimSpace(s)
	s = translationPreamble.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	for _, q := range [][2]string{{`"`, `"`}, {"“", "”"}, {"'", "'"}} {
		if len(s) >= len(q[0])+len(q[1]) && strings.HasPrefix(s, q[0]) && strings.HasSuffix(s, q[1]) {
			inner := s[len(q[0]) : len(s)-len(q[1])]
			if !strings.Contains(inner, q[0]) {
				s = strings.TrimSpace(inner)
			}
			break
		}
	}
	return s
}
