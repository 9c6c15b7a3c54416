package store

const schemaSQL = `
CREATE TABLE IF NOT EXISTS clients (
	id                   TEXT PRIMARY KEY,
	name                 TEXT NOT NULL,
	email                TEXT NOT NULL DEFAULT '',
	phone                TEXT NOT NULL DEFAULT '',
	company              TEXT NOT NULL DEFAULT '',
	website              TEXT NOT NULL DEFAULT '',
	client_code          TEXT NOT NULL UNIQUE,
	intake_responses     TEXT NOT NULL DEFAULT '{}',
	questionnaire_status TEXT NOT NULL DEFAULT 'not_started',
	brand_profile        TEXT NOT NULL DEFAULT '{}',
	created_at           DATETIME NOT NULL,
	updated_at           DATETIME NOT NULL,
	deleted_at           DATETIME
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	client_id   TEXT NOT NULL REFERENCES clients(id),
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL CHECK (status IN ('backlog','in_progress','in_review','done')),
	priority    TEXT NOT NULL CHECK (priority IN ('low','medium','high','urgent')),
	due_date    DATETIME,
	position    INTEGER NOT NULL DEFAULT 0,
	created_at  DATETIME NOT NULL,
	updated_at  DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_projects_column ON projects(status, position);
CREATE INDEX IF NOT EXISTS idx_projects_client ON projects(client_id);

CREATE TABLE IF NOT EXISTS content_assets (
	id              TEXT PRIMARY KEY,
	client_id       TEXT NOT NULL REFERENCES clients(id),
	project_id      TEXT REFERENCES projects(id) ON DELETE SET NULL,
	title           TEXT NOT NULL,
	asset_type      TEXT NOT NULL,
	content_json    TEXT,
	content_text    TEXT NOT NULL DEFAULT '',
	file_url        TEXT,
	file_object_key TEXT,
	file_size       INTEGER,
	file_mime       TEXT,
	file_name       TEXT,
	metadata        TEXT NOT NULL DEFAULT '{}',
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL,
	CHECK ((content_json IS NULL) <> (file_url IS NULL))
);

CREATE INDEX IF NOT EXISTS idx_content_client ON content_assets(client_id);
CREATE INDEX IF NOT EXISTS idx_content_project ON content_assets(project_id);
CREATE UNIQUE INDEX IF NOT EXISTS idx_content_object_key ON content_assets(file_object_key)
	WHERE file_object_key IS NOT NULL;

CREATE TABLE IF NOT EXISTS journal_chats (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS journal_entries (
	id                 TEXT PRIMARY KEY,
	chat_id            TEXT REFERENCES journal_chats(id) ON DELETE SET NULL,
	content            TEXT NOT NULL,
	mentioned_clients  TEXT NOT NULL DEFAULT '[]',
	mentioned_projects TEXT NOT NULL DEFAULT '[]',
	mentioned_content  TEXT NOT NULL DEFAULT '[]',
	tags               TEXT NOT NULL DEFAULT '[]',
	created_at         DATETIME NOT NULL,
	updated_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_journal_chat ON journal_entries(chat_id, created_at);

CREATE TABLE IF NOT EXISTS frameworks (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	content          TEXT NOT NULL,
	source_path      TEXT UNIQUE,
	content_checksum TEXT NOT NULL,
	created_at       DATETIME NOT NULL,
	updated_at       DATETIME NOT NULL,
	deleted_at       DATETIME
);

CREATE TABLE IF NOT EXISTS framework_chunks (
	id           TEXT PRIMARY KEY,
	framework_id TEXT NOT NULL REFERENCES frameworks(id) ON DELETE CASCADE,
	chunk_index  INTEGER NOT NULL,
	content      TEXT NOT NULL,
	embedding    BLOB NOT NULL,
	created_at   DATETIME NOT NULL,
	UNIQUE(framework_id, chunk_index)
);

CREATE TABLE IF NOT EXISTS ai_executions (
	id            TEXT PRIMARY KEY,
	model_id      TEXT NOT NULL,
	provider      TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL DEFAULT 0,
	output_tokens INTEGER NOT NULL DEFAULT 0,
	cost_usd      REAL NOT NULL DEFAULT 0,
	client_id     TEXT,
	task_type     TEXT NOT NULL DEFAULT '',
	asset_id      TEXT,
	succeeded     INTEGER NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_executions_created ON ai_executions(created_at);
`
