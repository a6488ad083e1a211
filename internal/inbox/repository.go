package inbox

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/nhle/inbox/internal/logging"
	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

// Observer is notified with the new snapshot after every mutation.
type Observer func(snapshot []model.Message)

// Repository owns the canonical message collection. Each mutation goes to
// the store, then a fresh snapshot replaces the previous one and observers
// are notified before the mutating call returns.
//
// Snapshots are frozen: callers must not modify the slices or messages they
// receive, and the repository never modifies one it has handed out.
type Repository struct {
	store     store.Store
	snapshot  []model.Message
	observers []observerEntry
	nextID    int
	log       zerolog.Logger
}

type observerEntry struct {
	id int
	fn Observer
}

// NewRepository loads the initial snapshot from s.
func NewRepository(ctx context.Context, s store.Store) (*Repository, error) {
	r := &Repository{
		store: s,
		log:   logging.Component("repository"),
	}
	if err := r.reload(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

// Snapshot returns the current frozen message list, most recent first.
func (r *Repository) Snapshot() []model.Message {
	return r.snapshot
}

// Find looks up a message in the current snapshot.
func (r *Repository) Find(id int64) (model.Message, bool) {
	if i := indexOf(r.snapshot, id); i >= 0 {
		return r.snapshot[i], true
	}
	return model.Message{}, false
}

// FindReply locates a reply anywhere in the current snapshot and returns it
// with the id of its parent message.
func (r *Repository) FindReply(replyID int64) (model.Reply, int64, bool) {
	for _, m := range r.snapshot {
		if reply, ok := m.FindReply(replyID); ok {
			return reply, m.ID, true
		}
	}
	return model.Reply{}, 0, false
}

// Subscribe registers fn for change notifications and returns a function
// that removes it.
func (r *Repository) Subscribe(fn Observer) func() {
	r.nextID++
	id := r.nextID
	r.observers = append(r.observers, observerEntry{id: id, fn: fn})

	return func() {
		for i, o := range r.observers {
			if o.id == id {
				r.observers = append(r.observers[:i:i], r.observers[i+1:]...)
				return
			}
		}
	}
}

// Insert prepends m and returns its assigned id.
func (r *Repository) Insert(ctx context.Context, m model.Message) (int64, error) {
	id, err := r.store.InsertMessage(ctx, m)
	if err != nil {
		return 0, err
	}
	r.log.Debug().Int64("message_id", id).Str("channel", string(m.Channel)).Msg("message inserted")
	return id, r.commit(ctx)
}

// MarkRead flags a message as read. Already-read and missing messages are
// left alone and no notification is sent.
func (r *Repository) MarkRead(ctx context.Context, id int64) error {
	m, ok := r.Find(id)
	if !ok || m.Read {
		return nil
	}
	if err := r.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	r.log.Debug().Int64("message_id", id).Msg("message marked read")
	return r.commit(ctx)
}

// AppendReply adds reply at the tail of the message's thread. A missing
// message is reported as an error wrapping store.ErrNotFound.
func (r *Repository) AppendReply(ctx context.Context, messageID int64, reply model.Reply) (int64, error) {
	id, err := r.store.AppendReply(ctx, messageID, reply)
	if err != nil {
		return 0, fmt.Errorf("appending reply: %w", err)
	}
	r.log.Debug().
		Int64("message_id", messageID).
		Int64("reply_id", id).
		Bool("attachment", reply.Attachment != nil).
		Msg("reply appended")
	return id, r.commit(ctx)
}

// Delete removes a message. Deleting a missing message is a no-op.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if err := r.store.DeleteMessage(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	r.log.Debug().Int64("message_id", id).Msg("message deleted")
	return r.commit(ctx)
}

// Reload re-reads the store and notifies observers. It is used after
// messages were written to the store by something other than the
// repository, such as an importer.
func (r *Repository) Reload(ctx context.Context) error {
	return r.commit(ctx)
}

func (r *Repository) commit(ctx context.Context) error {
	if err := r.reload(ctx); err != nil {
		return err
	}
	snap := r.snapshot
	for _, o := range r.observers {
		o.fn(snap)
	}
	return nil
}

func (r *Repository) reload(ctx context.Context) error {
	msgs, err := r.store.ListMessages(ctx)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}
	r.snapshot = msgs
	return nil
}
