package sqlite

// Schema defines the complete SQLite schema for the recall storage gateway.
// All statements are idempotent (IF NOT EXISTS) so the schema can be applied
// on every open.
const Schema = `
-- Memory records: the primary entity.
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    content TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    context TEXT,                -- JSON object
    importance INTEGER NOT NULL DEFAULT 3,
    status TEXT NOT NULL DEFAULT 'active',
    access_count INTEGER NOT NULL DEFAULT 0,
    last_accessed_at TIMESTAMP,
    vector_id TEXT,
    metadata TEXT,               -- JSON object
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Content hash is the dedup key: at most one record per hash.
CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_content_hash ON memories(content_hash);
CREATE INDEX IF NOT EXISTS idx_memories_status ON memories(status);
CREATE INDEX IF NOT EXISTS idx_memories_created_at ON memories(created_at);

-- Context fields used by filters and aggregates, extracted for indexing.
CREATE INDEX IF NOT EXISTS idx_memories_user ON memories(json_extract(context, '$.user_id'));
CREATE INDEX IF NOT EXISTS idx_memories_project ON memories(json_extract(context, '$.project'));

-- Concepts: named tags, deduplicated by exact name.
CREATE TABLE IF NOT EXISTS concepts (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL UNIQUE,
    description TEXT,
    type TEXT NOT NULL DEFAULT 'topic',
    confidence REAL NOT NULL DEFAULT 0.8,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Many-to-many link table between memories and concepts.
CREATE TABLE IF NOT EXISTS memory_concepts (
    memory_id TEXT NOT NULL REFERENCES memories(id) ON DELETE CASCADE,
    concept_id TEXT NOT NULL REFERENCES concepts(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (memory_id, concept_id)
);

CREATE INDEX IF NOT EXISTS idx_memory_concepts_concept ON memory_concepts(concept_id);

-- Relationships: typed edges between memory records.
CREATE TABLE IF NOT EXISTS relationships (
    id TEXT PRIMARY KEY,
    source_id TEXT NOT NULL REFERENCES memories(id),
    target_id TEXT NOT NULL REFERENCES memories(id),
    type TEXT NOT NULL,
    strength REAL NOT NULL DEFAULT 1.0,
    bidirectional INTEGER NOT NULL DEFAULT 0,
    metadata TEXT,               -- JSON object
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_relationships_source ON relationships(source_id);
CREATE INDEX IF NOT EXISTS idx_relationships_target ON relationships(target_id);

-- Merge audit trail: immutable record of merge events.
CREATE TABLE IF NOT EXISTS merge_audit (
    id TEXT PRIMARY KEY,
    primary_id TEXT NOT NULL,
    merged_ids TEXT NOT NULL,    -- JSON array of record IDs
    strategy TEXT NOT NULL,
    actor TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_merge_audit_primary ON merge_audit(primary_id);
`
