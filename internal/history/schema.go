// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the action history store
const Schema = `
-- Metadata table for schema version and store state
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Actions table: one row per executed tool call
CREATE TABLE IF NOT EXISTS actions (
    id TEXT PRIMARY KEY,        -- ledger record ID (uuid)
    session_id TEXT NOT NULL,
    tool TEXT NOT NULL,
    args_json TEXT NOT NULL,    -- tool arguments, redacted
    output TEXT NOT NULL,       -- tool output, redacted and capped
    succeeded INTEGER NOT NULL,
    strategy TEXT NOT NULL,     -- parse strategy that produced the call
    duration_ms INTEGER NOT NULL,
    created_at INTEGER NOT NULL -- Unix milliseconds
);

CREATE INDEX IF NOT EXISTS idx_actions_created_at ON actions(created_at);
CREATE INDEX IF NOT EXISTS idx_actions_session ON actions(session_id);
CREATE INDEX IF NOT EXISTS idx_actions_tool ON actions(tool);
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
