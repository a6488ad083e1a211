package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	seq         INTEGER NOT NULL,
	sender      TEXT NOT NULL,
	subject     TEXT NOT NULL DEFAULT '',
	body        TEXT NOT NULL DEFAULT '',
	timestamp   TEXT NOT NULL DEFAULT '',
	channel     TEXT NOT NULL CHECK(channel IN ('Personal', 'Business')),
	avatar      TEXT NOT NULL DEFAULT '',
	read        INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS replies (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	message_id      INTEGER NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	sender          TEXT NOT NULL,
	body            TEXT NOT NULL DEFAULT '',
	timestamp       TEXT NOT NULL DEFAULT '',
	avatar          TEXT NOT NULL DEFAULT '',
	attachment_name TEXT,
	attachment_size INTEGER,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_messages_seq ON messages(seq);
CREATE INDEX IF NOT EXISTS idx_messages_channel_read ON messages(channel, read);
CREATE INDEX IF NOT EXISTS idx_replies_message_id ON replies(message_id, seq);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
ALTER TABLE messages ADD COLUMN external_id TEXT NOT NULL DEFAULT '';

CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_external_id
	ON messages(external_id) WHERE external_id != '';

INSERT INTO schema_version (version) VALUES (2);
`,
	},
	{
		version: 3,
		sql: `
ALTER TABLE replies ADD COLUMN external_id TEXT NOT NULL DEFAULT '';

CREATE UNIQUE INDEX IF NOT EXISTS idx_replies_external_id
	ON replies(external_id) WHERE external_id != '';

INSERT INTO schema_version (version) VALUES (3);
`,
	},
}
