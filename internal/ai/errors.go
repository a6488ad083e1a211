package ai

import (
	"errors"
	"fmt"
)

// Kind classifies a collaborator failure.
type Kind int

const (
	KindNotConfigured Kind = iota + 1
	KindTransport
	KindMalformed
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "not configured"
	case KindTransport:
		return "transport"
	case KindMalformed:
		return "malformed response"
	case KindRateLimited:
		return "rate limited"
	default:
		return "unknown"
	}
}

// Operations reported in Error.Op.
const (
	OpAnalyze   = "analyze"
	OpTranslate = "translate"
)

// Error is returned by every Client method that fails.
type Error struct {
	Op       string
	Kind     Kind
	Provider string
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("ai %s", e.Op)
	if e.Provider != "" {
		msg += " (" + e.Provider + ")"
	}
	msg += ": " + e.Kind.String()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the short text shown in the panel of the failed flow.
func (e *Error) UserMessage() string {
	switch e.Kind {
	case KindNotConfigured:
		return "AI is not configured. Set an API key to enable assistance."
	case KindRateLimited:
		return "Too many AI requests. Try again in a moment."
	case KindMalformed:
		return "Invalid format received from AI."
	}
	if e.Op == OpTranslate {
		return "Failed to translate message. Please check your API key and network connection."
	}
	return "Failed to get AI analysis. Please check your API key and network connection."
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func newError(op, provider string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Provider: provider, Err: err}
}
