package inbox

import (
	"errors"
	"fmt"
)

// ValidationError reports a compose or reply field that failed its
// required-field check. The rejected operation leaves all state unchanged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// IsValidation reports whether err (or any error in its chain) is a
// ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrorText returns the string shown to the user for err. Errors that carry
// their own user-facing wording (AI collaborator errors) provide it through
// UserMessage.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	var friendly interface{ UserMessage() string }
	if errors.As(err, &friendly) {
		return friendly.UserMessage()
	}
	return err.Error()
}
