package vector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
)

// pgvectorSchema creates the vector table. The dimension is fixed at table
// creation, so changing the embedder dimension requires a new table.
const pgvectorSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS memory_vectors (
    id TEXT PRIMARY KEY,
    memory_id TEXT NOT NULL,
    content TEXT NOT NULL,
    embedding vector(%d) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_memory_vectors_memory ON memory_vectors(memory_id);
`

// PgVectorIndex stores vectors in PostgreSQL using the pgvector extension
// and answers similarity queries with the cosine distance operator.
type PgVectorIndex struct {
	db       *sql.DB
	embedder Embedder
}

// NewPgVectorIndex creates the vector table if needed and returns an index
// sharing the given connection pool.
func NewPgVectorIndex(db *sql.DB, embedder Embedder) (*PgVectorIndex, error) {
	schema := fmt.Sprintf(pgvectorSchema, embedder.Dimension())
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("vector: failed to apply pgvector schema: %w", err)
	}
	return &PgVectorIndex{db: db, embedder: embedder}, nil
}

// IndexMemory vectorizes content and inserts it under a fresh vector ID.
func (idx *PgVectorIndex) IndexMemory(ctx context.Context, memoryID, content string, _ map[string]interface{}) (string, error) {
	if memoryID == "" || content == "" {
		return "", fmt.Errorf("vector: memory ID and content are required")
	}

	vectorID := "vec:" + uuid.New().String()
	vec := pgvector.NewVector(idx.embedder.Embed(content))

	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO memory_vectors (id, memory_id, content, embedding)
		VALUES ($1, $2, $3, $4)
	`, vectorID, memoryID, content, vec)
	if err != nil {
		return "", fmt.Errorf("vector: failed to index memory: %w", err)
	}
	return vectorID, nil
}

// FindSimilar runs a cosine-distance query against stored vectors. The <=>
// operator returns distance, so similarity is 1 - distance.
func (idx *PgVectorIndex) FindSimilar(ctx context.Context, text string, threshold float64, limit int) ([]Match, error) {
	if text == "" {
		return []Match{}, nil
	}
	if limit < 1 {
		limit = 10
	}

	query := pgvector.NewVector(idx.embedder.Embed(text))

	rows, err := idx.db.QueryContext(ctx, `
		SELECT memory_id, content, 1 - (embedding <=> $1) AS similarity
		FROM memory_vectors
		WHERE 1 - (embedding <=> $1) >= $2
		ORDER BY embedding <=> $1
		LIMIT $3
	`, query, threshold, limit)
	if err != nil {
		return nil, fmt.Errorf("vector: similarity query failed: %w", err)
	}
	defer rows.Close()

	matches := []Match{}
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.MemoryID, &m.Content, &m.Similarity); err != nil {
			return nil, fmt.Errorf("vector: failed to scan match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// UpdateVector re-embeds content behind an existing vector ID.
func (idx *PgVectorIndex) UpdateVector(ctx context.Context, vectorID, content string, _ map[string]interface{}) error {
	if vectorID == "" || content == "" {
		return fmt.Errorf("vector: vector ID and content are required")
	}

	vec := pgvector.NewVector(idx.embedder.Embed(content))

	result, err := idx.db.ExecContext(ctx, `
		UPDATE memory_vectors
		SET content = $1, embedding = $2, updated_at = NOW()
		WHERE id = $3
	`, content, vec, vectorID)
	if err != nil {
		return fmt.Errorf("vector: failed to update vector: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("vector: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return ErrVectorNotFound
	}
	return nil
}
