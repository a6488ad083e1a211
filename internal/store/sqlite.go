package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/inbox/internal/model"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

// SQLiteStore implements the Store interface using a SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if dbPath == MemoryPath {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// RemoveDatabase deletes the database file at dbPath together with its WAL
// and shared-memory files. Missing files and the in-memory path are fine.
func RemoveDatabase(dbPath string) error {
	if dbPath == "" || dbPath == MemoryPath {
		return nil
	}
	for _, p := range []string{dbPath, dbPath + "-wal", dbPath + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

type messageRow struct {
	ID         int64  `db:"id"`
	Sender     string `db:"sender"`
	Subject    string `db:"subject"`
	Body       string `db:"body"`
	Timestamp  string `db:"timestamp"`
	Channel    string `db:"channel"`
	Avatar     string `db:"avatar"`
	Read       bool   `db:"read"`
	ExternalID string `db:"external_id"`
}

type replyRow struct {
	ID             int64          `db:"id"`
	MessageID      int64          `db:"message_id"`
	Sender         string         `db:"sender"`
	Body           string         `db:"body"`
	Timestamp      string         `db:"timestamp"`
	Avatar         string         `db:"avatar"`
	AttachmentName sql.NullString `db:"attachment_name"`
	AttachmentSize sql.NullInt64  `db:"attachment_size"`
	ExternalID     string         `db:"external_id"`
}

func (r replyRow) toModel() model.Reply {
	reply := model.Reply{
		ID:        r.ID,
		Sender:    r.Sender,
		Body:      r.Body,
		Timestamp:  r.Timestamp,
		Avatar:     r.Avatar,
		ExternalID: r.ExternalID,
	}
	if r.AttachmentName.Valid {
		reply.Attachment = &model.Attachment{
			Name: r.AttachmentName.String,
			Size: r.AttachmentSize.Int64,
		}
	}
	return reply
}

// InsertMessage stores m ahead of all existing messages. Any ids set on m
// or its replies are ignored.
func (s *SQLiteStore) InsertMessage(ctx context.Context, m model.Message) (int64, error) {
	if !m.Channel.Stored() {
		return 0, fmt.Errorf("inserting message: invalid channel %q", m.Channel)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO messages (
			seq, sender, subject, body, timestamp,
			channel, avatar, read, external_id
		) VALUES (
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM messages),
			?, ?, ?, ?,
			?, ?, ?, ?
		)`,
		m.Sender, m.Subject, m.Body, m.Timestamp,
		string(m.Channel), m.Avatar, m.Read, m.ExternalID,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting message %q: %w", m.Subject, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading message id: %w", err)
	}

	for _, r := range m.Replies {
		if _, err := insertReply(ctx, tx, id, r); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing message %d: %w", id, err)
	}
	return id, nil
}

// MarkRead sets the read flag on a message.
func (s *SQLiteStore) MarkRead(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "UPDATE messages SET read = 1 WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("marking message %d read: %w", id, err)
	}
	return requireAffected(res, "message", id)
}

// AppendReply adds r to the end of a message's thread.
func (s *SQLiteStore) AppendReply(ctx context.Context, messageID int64, r model.Reply) (int64, error) {
	ids, err := s.AppendReplies(ctx, messageID, []model.Reply{r})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AppendReplies adds replies to the end of a message's thread in one
// transaction. Either all of them are stored or none is.
func (s *SQLiteStore) AppendReplies(ctx context.Context, messageID int64, replies []model.Reply) ([]int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.GetContext(ctx, &exists, "SELECT COUNT(*) FROM messages WHERE id = ?", messageID); err != nil {
		return nil, fmt.Errorf("looking up message %d: %w", messageID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("message %d: %w", messageID, ErrNotFound)
	}

	ids := make([]int64, 0, len(replies))
	for _, r := range replies {
		id, err := insertReply(ctx, tx, messageID, r)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing replies to message %d: %w", messageID, err)
	}
	return ids, nil
}

func insertReply(ctx context.Context, tx *sqlx.Tx, messageID int64, r model.Reply) (int64, error) {
	var name sql.NullString
	var size sql.NullInt64
	if r.Attachment != nil {
		name = sql.NullString{String: r.Attachment.Name, Valid: true}
		size = sql.NullInt64{Int64: r.Attachment.Size, Valid: true}
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO replies (
			message_id, seq, sender, body, timestamp, avatar,
			attachment_name, attachment_size, external_id
		) VALUES (
			?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM replies WHERE message_id = ?),
			?, ?, ?, ?,
			?, ?, ?
		)`,
		messageID, messageID,
		r.Sender, r.Body, r.Timestamp, r.Avatar,
		name, size, r.ExternalID,
	)
	if err != nil {
		return 0, fmt.Errorf("appending reply to message %d: %w", messageID, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading reply id: %w", err)
	}
	return id, nil
}

// DeleteMessage removes a message; its replies are removed by cascade.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM messages WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting message %d: %w", id, err)
	}
	return requireAffected(res, "message", id)
}

// ListMessages loads every message and its thread.
func (s *SQLiteStore) ListMessages(ctx context.Context) ([]model.Message, error) {
	var rows []messageRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, sender, subject, body, timestamp, channel, avatar, read, external_id
		FROM messages
		ORDER BY seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}

	var replies []replyRow
	err = s.db.SelectContext(ctx, &replies, `
		SELECT id, message_id, sender, body, timestamp, avatar,
			attachment_name, attachment_size, external_id
		FROM replies
		ORDER BY message_id, seq`)
	if err != nil {
		return nil, fmt.Errorf("querying replies: %w", err)
	}

	threads := make(map[int64][]model.Reply, len(rows))
	for _, r := range replies {
		threads[r.MessageID] = append(threads[r.MessageID], r.toModel())
	}

	messages := make([]model.Message, len(rows))
	for i, r := range rows {
		messages[i] = model.Message{
			ID:         r.ID,
			Sender:     r.Sender,
			Subject:    r.Subject,
			Body:       r.Body,
			Timestamp:  r.Timestamp,
			Channel:    model.Channel(r.Channel),
			Avatar:     r.Avatar,
			Read:       r.Read,
			Replies:    threads[r.ID],
			ExternalID: r.ExternalID,
		}
	}
	return messages, nil
}

// HasExternalID reports whether a message with the given external id exists.
func (s *SQLiteStore) HasExternalID(ctx context.Context, externalID string) (bool, error) {
	if externalID == "" {
		return false, nil
	}
	var n int
	err := s.db.GetContext(ctx, &n, `
		SELECT (SELECT COUNT(*) FROM messages WHERE external_id = ?)
			+ (SELECT COUNT(*) FROM replies WHERE external_id = ?)`,
		externalID, externalID,
	)
	if err != nil {
		return false, fmt.Errorf("checking external id %q: %w", externalID, err)
	}
	return n > 0, nil
}

// FindThread looks refs up in order and returns the owning message of the
// first one found.
func (s *SQLiteStore) FindThread(ctx context.Context, refs []string) (int64, bool, error) {
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		var ids []int64
		err := s.db.SelectContext(ctx, &ids, `
			SELECT id FROM messages WHERE external_id = ?
			UNION ALL
			SELECT message_id FROM replies WHERE external_id = ?
			LIMIT 1`,
			ref, ref,
		)
		if err != nil {
			return 0, false, fmt.Errorf("looking up thread for %q: %w", ref, err)
		}
		if len(ids) > 0 {
			return ids[0], true, nil
		}
	}
	return 0, false, nil
}

func requireAffected(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, ErrNotFound)
	}
	return nil
}
