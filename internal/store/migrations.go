package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create settings",
		SQL: `
			CREATE TABLE settings (
				board_id    TEXT PRIMARY KEY,
				data        TEXT NOT NULL,
				updated_at  TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 2,
		Name:    "create knowledge files and chunks",
		SQL: `
			CREATE TABLE knowledge_files (
				id          TEXT PRIMARY KEY,
				board_id    TEXT NOT NULL,
				title       TEXT NOT NULL,
				mime_type   TEXT NOT NULL DEFAULT '',
				size_bytes  INTEGER NOT NULL DEFAULT 0,
				uploaded_at TEXT NOT NULL
			);

			CREATE INDEX idx_knowledge_board ON knowledge_files (board_id);

			CREATE TABLE knowledge_chunks (
				id       TEXT PRIMARY KEY,
				file_id  TEXT NOT NULL REFERENCES knowledge_files(id) ON DELETE CASCADE,
				seq      INTEGER NOT NULL,
				content  TEXT NOT NULL
			);

			CREATE INDEX idx_chunks_file ON knowledge_chunks (file_id, seq);
		`,
	},
	{
		Version: 3,
		Name:    "create activity entries",
		SQL: `
			CREATE TABLE activity_entries (
				seq             INTEGER PRIMARY KEY AUTOINCREMENT,
				id              TEXT NOT NULL,
				board_id        TEXT NOT NULL,
				ts              TEXT NOT NULL,
				type            TEXT NOT NULL,
				item_id         TEXT NOT NULL DEFAULT '',
				item_name       TEXT NOT NULL DEFAULT '',
				changed_columns TEXT,
				note            TEXT NOT NULL DEFAULT ''
			);

			CREATE INDEX idx_activity_board ON activity_entries (board_id, seq DESC);
		`,
	},
	{
		Version: 4,
		Name:    "create transcripts",
		SQL: `
			CREATE TABLE transcript_entries (
				seq       INTEGER PRIMARY KEY AUTOINCREMENT,
				conv_key  TEXT NOT NULL,
				id        TEXT NOT NULL,
				role      TEXT NOT NULL,
				kind      TEXT NOT NULL,
				content   TEXT NOT NULL,
				tool_call TEXT,
				ts        TEXT NOT NULL
			);

			CREATE INDEX idx_transcript_conv ON transcript_entries (conv_key, seq);
		`,
	},
}
