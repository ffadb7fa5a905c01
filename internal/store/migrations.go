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

CREATE TABLE IF NOT EXISTS jobs (
	id              TEXT PRIMARY KEY,
	provider_id     TEXT NOT NULL,
	label           TEXT NOT NULL DEFAULT '',
	source_language TEXT NOT NULL,
	target_language TEXT NOT NULL,
	state           TEXT NOT NULL DEFAULT 'unprocessed',
	required_by     DATETIME NOT NULL,
	quote_required  INTEGER NOT NULL DEFAULT 0,
	category        INTEGER NOT NULL DEFAULT 1,
	review          INTEGER NOT NULL DEFAULT 1,
	created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS job_items (
	id          TEXT PRIMARY KEY,
	job_id      TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	label       TEXT NOT NULL DEFAULT '',
	source_url  TEXT NOT NULL DEFAULT '',
	preview_url TEXT NOT NULL DEFAULT '',
	data        TEXT NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS item_translations (
	job_id     TEXT NOT NULL,
	item_id    TEXT NOT NULL REFERENCES job_items(id) ON DELETE CASCADE,
	data_key   TEXT NOT NULL,
	text       TEXT NOT NULL DEFAULT '',
	status     TEXT NOT NULL DEFAULT 'preliminary',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (item_id, data_key)
);

CREATE TABLE IF NOT EXISTS job_messages (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
	type       TEXT NOT NULL DEFAULT 'status',
	text       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS remote_projects (
	project_id     TEXT PRIMARY KEY,
	provider_id    TEXT NOT NULL,
	job_id         TEXT NOT NULL,
	required_by    DATETIME NOT NULL,
	review         INTEGER NOT NULL DEFAULT 1,
	category       INTEGER NOT NULL DEFAULT 1,
	quote_required INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS remote_mappings (
	id         TEXT PRIMARY KEY,
	tjid       TEXT NOT NULL,
	tjiid      TEXT,
	data_key   TEXT NOT NULL,
	project_id TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(tjid, tjiid, data_key)
);

CREATE TABLE IF NOT EXISTS remote_files (
	mapping_id         TEXT NOT NULL REFERENCES remote_mappings(id) ON DELETE CASCADE,
	file_id            TEXT NOT NULL,
	file_state_version INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (mapping_id, file_id)
);

CREATE INDEX IF NOT EXISTS idx_job_items_job_id ON job_items(job_id);
CREATE INDEX IF NOT EXISTS idx_job_messages_job_id ON job_messages(job_id);
CREATE INDEX IF NOT EXISTS idx_remote_projects_job_id ON remote_projects(job_id);
CREATE INDEX IF NOT EXISTS idx_remote_mappings_tjid ON remote_mappings(tjid);
CREATE INDEX IF NOT EXISTS idx_remote_mappings_project ON remote_mappings(data_key, project_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_item_translations_job_id
	ON item_translations(job_id);

CREATE INDEX IF NOT EXISTS idx_remote_files_file_id
	ON remote_files(file_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
