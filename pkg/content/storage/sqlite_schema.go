package storage

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// Schema contains the SQL statements to create the content tree schema.
const Schema = `
-- Content tree nodes, one row per node. The root row has path '/' and an
-- empty parent.
CREATE TABLE IF NOT EXISTS nodes (
    path TEXT PRIMARY KEY,
    parent TEXT NOT NULL,
    name TEXT NOT NULL,

    -- Store-native child order within the parent
    position INTEGER NOT NULL,

    -- Leaf items carry a content sub-node
    has_content BOOLEAN NOT NULL DEFAULT 0,

    -- JSON-encoded property map
    metadata TEXT,

    created_at TIMESTAMP NOT NULL
);

-- Schema version table
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_nodes_parent ON nodes(parent, position);
`

// InsertRoot creates the root node if it does not exist yet.
const InsertRoot = `
INSERT INTO nodes (path, parent, name, position, has_content, metadata, created_at)
VALUES ('/', '', '', 0, 0, NULL, datetime('now'))
ON CONFLICT(path) DO NOTHING;
`

// InsertSchemaVersion inserts the schema version into the schema_version table.
const InsertSchemaVersion = `
INSERT INTO schema_version (version, applied_at)
VALUES (?, datetime('now'))
ON CONFLICT(version) DO NOTHING;
`

// GetSchemaVersion retrieves the current schema version from the database.
const GetSchemaVersion = `
SELECT version FROM schema_version ORDER BY version DESC LIMIT 1;
`
