package inbox

import (
	"strings"

	"github.com/nhle/inbox/internal/model"
)

// ComposeState toggles between reading messages and writing a new one.
type ComposeState int

const (
	ComposeViewing ComposeState = iota
	ComposeComposing
)

// ComposeDetails is a new outgoing message as entered by the user.
type ComposeDetails struct {
	Recipients []string
	Subject    string
	Body       string
}

// ParseRecipients splits a comma-separated recipient field, trimming each
// entry and dropping empties.
func ParseRecipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Validate returns a *ValidationError for the first missing field.
func (d ComposeDetails) Validate() error {
	if len(d.Recipients) == 0 {
		return &ValidationError{Field: "recipients", Reason: "are required"}
	}
	if strings.TrimSpace(d.Subject) == "" {
		return &ValidationError{Field: "subject", Reason: "is required"}
	}
	if strings.TrimSpace(d.Body) == "" {
		return &ValidationError{Field: "body", Reason: "is required"}
	}
	return nil
}

// validateReply requires a reply to carry text or an attachment. text must
// already be trimmed.
func validateReply(text string, att *model.Attachment) error {
	if text == "" && att == nil {
		return &ValidationError{Field: "reply", Reason: "needs text or an attachment"}
	}
	return nil
}
