package store

import (
	"context"
	"errors"

	"github.com/nhle/inbox/internal/model"
)

// ErrNotFound is returned when a mutation references a message that does
// not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for messages and their replies.
// Message and reply ids are assigned by the store and never reused.
type Store interface {
	// InsertMessage stores m (and any replies it carries) ahead of every
	// existing message and returns the assigned id.
	InsertMessage(ctx context.Context, m model.Message) (int64, error)

	// MarkRead sets the read flag. It returns ErrNotFound for a missing id.
	MarkRead(ctx context.Context, id int64) error

	// AppendReply adds r at the tail of the message's thread and returns
	// the assigned reply id.
	AppendReply(ctx context.Context, messageID int64, r model.Reply) (int64, error)

	// AppendReplies adds replies at the tail of the thread atomically and
	// returns their ids in order.
	AppendReplies(ctx context.Context, messageID int64, replies []model.Reply) ([]int64, error)

	// DeleteMessage removes a message and its replies.
	DeleteMessage(ctx context.Context, id int64) error

	// ListMessages returns every message, most recently inserted first,
	// with replies in thread order.
	ListMessages(ctx context.Context) ([]model.Message, error)

	// HasExternalID reports whether imported mail is already stored, as a
	// message or as a reply in a thread.
	HasExternalID(ctx context.Context, externalID string) (bool, error)

	// FindThread returns the message whose thread holds the first of refs
	// that is stored, either as the message itself or as one of its
	// replies.
	FindThread(ctx context.Context, refs []string) (int64, bool, error)

	Close() error
}
