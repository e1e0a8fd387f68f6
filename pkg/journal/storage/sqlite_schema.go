package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the journal schema.
// Timestamps are stored as Unix nanoseconds so both drivers scan them the
// same way.
const Schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL DEFAULT '',
    target TEXT NOT NULL DEFAULT '',
    remote_addr TEXT NOT NULL DEFAULT '',
    mode TEXT NOT NULL DEFAULT '',

    started_at INTEGER NOT NULL,
    ended_at INTEGER NOT NULL,

    outcome TEXT NOT NULL,
    error TEXT,

    frames_client_to_target INTEGER NOT NULL DEFAULT 0,
    frames_target_to_client INTEGER NOT NULL DEFAULT 0,
    bytes_client_to_target INTEGER NOT NULL DEFAULT 0,
    bytes_target_to_client INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_started_at ON sessions(started_at);
CREATE INDEX IF NOT EXISTS idx_sessions_user_name ON sessions(user_name);
CREATE INDEX IF NOT EXISTS idx_sessions_outcome ON sessions(outcome);
`

// InsertSchemaVersion records the schema version.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`

const insertSession = `
INSERT OR REPLACE INTO sessions (
    id, user_name, target, remote_addr, mode,
    started_at, ended_at,
    outcome, error,
    frames_client_to_target, frames_target_to_client,
    bytes_client_to_target, bytes_target_to_client
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const selectColumns = `id, user_name, target, remote_addr, mode, started_at, ended_at, outcome, error,
    frames_client_to_target, frames_target_to_client, bytes_client_to_target, bytes_target_to_client`
