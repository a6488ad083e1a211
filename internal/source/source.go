package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

// AuthError indicates that authentication has failed for a source.
type AuthError struct {
	Source  string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Source, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source defines the contract every message provider implements.
type Source interface {
	// Name identifies the source in logs.
	Name() string

	// Fetch returns the source's messages ordered oldest first. Messages
	// that can be fetched more than once must carry an ExternalID.
	Fetch(ctx context.Context) ([]model.Message, error)
}

// Result summarizes one import run.
type Result struct {
	Fetched  int
	Imported int
	Skipped  int

	// Threaded counts imported mail that was appended to an existing
	// thread instead of starting a new message. It is part of Imported.
	Threaded int
}

// Import fetches from src and stores every message whose ExternalID is not
// stored yet. Mail answering a stored conversation is appended to that
// thread; everything else is inserted in fetch order, so the newest
// message ends up first in the inbox.
func Import(ctx context.Context, st store.Store, src Source) (Result, error) {
	msgs, err := src.Fetch(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("fetching from %s: %w", src.Name(), err)
	}

	res := Result{Fetched: len(msgs)}
	for _, m := range msgs {
		if m.ExternalID != "" {
			seen, err := st.HasExternalID(ctx, m.ExternalID)
			if err != nil {
				return res, err
			}
			if seen {
				res.Skipped++
				continue
			}
		}

		threaded, err := appendToThread(ctx, st, m)
		if err != nil {
			return res, fmt.Errorf("threading %q from %s: %w", m.Subject, src.Name(), err)
		}
		if threaded {
			res.Threaded++
			res.Imported++
			continue
		}

		if _, err := st.InsertMessage(ctx, m); err != nil {
			return res, fmt.Errorf("importing %q from %s: %w", m.Subject, src.Name(), err)
		}
		res.Imported++
	}
	return res, nil
}

// appendToThread adds m and its attachment replies to the thread it
// answers. It reports false when no referenced thread is stored.
func appendToThread(ctx context.Context, st store.Store, m model.Message) (bool, error) {
	if len(m.ThreadRefs) == 0 {
		return false, nil
	}
	parent, ok, err := st.FindThread(ctx, m.ThreadRefs)
	if err != nil || !ok {
		return false, err
	}

	replies := append([]model.Reply{{
		Sender:     m.Sender,
		Body:       m.Body,
		Timestamp:  m.Timestamp,
		Avatar:     m.Avatar,
		ExternalID: m.ExternalID,
	}}, m.Replies...)

	if _, err := st.AppendReplies(ctx, parent, replies); err != nil {
		return false, err
	}
	return true, nil
}
