package ai

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/inbox/internal/model"
)

// Client analyzes and translates message text. All failures are *Error.
type Client interface {
	Analyze(ctx context.Context, body string) (model.AnalysisResult, error)
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
	Provider() string
}

const (
	analysisInstruction = "Analyze the following message and provide a priority, " +
		"a summary, and three suggested replies."
	priorityDescription = "Categorize the message as 'High Priority', 'Normal', or 'Low Priority'."
	summaryDescription  = "A concise, one-sentence summary of the message."
	repliesDescription  = "Suggest three short, actionable, and context-aware quick replies."
)

func analysisPrompt(body string) string {
	return fmt.Sprintf("%s Message: %q", analysisInstruction, body)
}

func translationPrompt(text, targetLanguage string) string {
	if targetLanguage == "" {
		targetLanguage = DefaultLanguage
	}
	return fmt.Sprintf(
		"Translate the following text to %s. Provide only the translated text, "+
			"without any additional commentary or phrases like \"Here is the translation:\": %q",
		targetLanguage, text,
	)
}

// Unconfigured is the client used when no provider has credentials. Every
// call fails with KindNotConfigured.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Analyze(context.Context, string) (model.AnalysisResult, error) {
	return model.AnalysisResult{}, newError(OpAnalyze, "", KindNotConfigured, u.err())
}

func (u Unconfigured) Translate(context.Context, string, string) (string, error) {
	return "", newError(OpTranslate, "", KindNotConfigured, u.err())
}

func (u Unconfigured) Provider() string { return "none" }

func (u Unconfigured) err() error {
	if u.Reason == "" {
		return errors.New("no AI provider configured")
	}
	return errors.New(u.Reason)
}
