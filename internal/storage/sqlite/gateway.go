// Package sqlite provides a SQLite implementation of the storage gateway.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// Gateway implements storage.Gateway using SQLite.
type Gateway struct {
	db *sql.DB
}

// NewGateway opens a SQLite database, configures WAL mode, and applies the
// schema. Pass ":memory:" for an in-memory database (used by tests).
func NewGateway(dsn string) (*Gateway, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}

	// SQLite only supports one concurrent writer. A single open connection
	// serialises writes and avoids SQLITE_BUSY errors under concurrent load.
	// WAL mode allows concurrent readers to proceed without blocking the writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: failed to apply %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: failed to apply schema: %w", err)
	}

	return &Gateway{db: db}, nil
}

// GetDB returns the underlying database connection.
func (g *Gateway) GetDB() *sql.DB {
	return g.db
}

// Close closes the database connection.
func (g *Gateway) Close() error {
	return g.db.Close()
}

// ---------------------------------------------------------------------------
// RecordStore
// ---------------------------------------------------------------------------

// CreateRecord persists a new memory record.
func (g *Gateway) CreateRecord(ctx context.Context, record *types.MemoryRecord) error {
	if record == nil {
		return storage.ErrInvalidInput
	}
	if record.ID == "" {
		return fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}
	if record.Content == "" {
		return fmt.Errorf("%w: record content is required", storage.ErrInvalidInput)
	}
	if record.ContentHash == "" {
		return fmt.Errorf("%w: record content hash is required", storage.ErrInvalidInput)
	}

	contextJSON, err := marshalMap(record.Context)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal context: %w", err)
	}
	metadataJSON, err := marshalMap(record.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal metadata: %w", err)
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO memories (id, content, content_hash, context, importance, status,
			access_count, last_accessed_at, vector_id, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		record.ID, record.Content, record.ContentHash, contextJSON,
		record.Importance, string(record.Status), record.AccessCount,
		record.LastAccessedAt, nullableString(record.VectorID), metadataJSON,
		record.CreatedAt, record.UpdatedAt,
	)
	if err != nil {
		if strings.Contains(err.Error(), "idx_memories_content_hash") ||
			strings.Contains(err.Error(), "memories.content_hash") {
			return storage.ErrDuplicateHash
		}
		return fmt.Errorf("sqlite: failed to create record: %w", err)
	}

	return nil
}

// GetRecord retrieves a record by ID.
func (g *Gateway) GetRecord(ctx context.Context, id string) (*types.MemoryRecord, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}
	row := g.db.QueryRowContext(ctx, selectRecord+` WHERE id = ?`, id)
	return scanRecord(row)
}

// GetRecordByHash retrieves a record by its content hash.
func (g *Gateway) GetRecordByHash(ctx context.Context, contentHash string) (*types.MemoryRecord, error) {
	if contentHash == "" {
		return nil, fmt.Errorf("%w: content hash is required", storage.ErrInvalidInput)
	}
	row := g.db.QueryRowContext(ctx, selectRecord+` WHERE content_hash = ?`, contentHash)
	return scanRecord(row)
}

// UpdateRecord applies a partial update to an existing record.
func (g *Gateway) UpdateRecord(ctx context.Context, id string, update storage.RecordUpdate) error {
	if id == "" {
		return fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	sets := []string{"updated_at = ?"}
	args := []interface{}{time.Now().UTC()}

	if update.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *update.Content)
	}
	if update.ContentHash != nil {
		sets = append(sets, "content_hash = ?")
		args = append(args, *update.ContentHash)
	}
	if update.Importance != nil {
		sets = append(sets, "importance = ?")
		args = append(args, *update.Importance)
	}
	if update.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if update.VectorID != nil {
		sets = append(sets, "vector_id = ?")
		args = append(args, nullableString(*update.VectorID))
	}
	if update.Metadata != nil {
		metadataJSON, err := marshalMap(update.Metadata)
		if err != nil {
			return fmt.Errorf("sqlite: failed to marshal metadata: %w", err)
		}
		sets = append(sets, "metadata = ?")
		args = append(args, metadataJSON)
	}
	if update.Context != nil {
		contextJSON, err := marshalMap(update.Context)
		if err != nil {
			return fmt.Errorf("sqlite: failed to marshal context: %w", err)
		}
		sets = append(sets, "context = ?")
		args = append(args, contextJSON)
	}

	args = append(args, id)
	result, err := g.db.ExecContext(ctx,
		"UPDATE memories SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("sqlite: failed to update record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}

	return nil
}

// ListRecords retrieves records matching the filter, newest first.
func (g *Gateway) ListRecords(ctx context.Context, filter storage.RecordFilter) ([]*types.MemoryRecord, error) {
	filter.Normalize()

	// An empty non-nil ID set matches nothing by contract.
	if filter.IDs != nil && len(filter.IDs) == 0 {
		return []*types.MemoryRecord{}, nil
	}

	where := []string{"1=1"}
	args := []interface{}{}

	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.UserID != "" {
		where = append(where, "json_extract(context, '$.user_id') = ?")
		args = append(args, filter.UserID)
	}
	if filter.Project != "" {
		where = append(where, "json_extract(context, '$.project') = ?")
		args = append(args, filter.Project)
	}
	if filter.ContentHash != "" {
		where = append(where, "content_hash = ?")
		args = append(args, filter.ContentHash)
	}
	if len(filter.IDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(filter.IDs)), ",")
		where = append(where, "id IN ("+placeholders+")")
		for _, id := range filter.IDs {
			args = append(args, id)
		}
	}

	args = append(args, filter.Limit)
	rows, err := g.db.QueryContext(ctx,
		selectRecord+" WHERE "+strings.Join(where, " AND ")+" ORDER BY created_at DESC LIMIT ?",
		args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to list records: %w", err)
	}
	defer rows.Close()

	records := []*types.MemoryRecord{}
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// TouchRecord atomically increments access_count and stamps last_accessed_at.
func (g *Gateway) TouchRecord(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	result, err := g.db.ExecContext(ctx, `
		UPDATE memories
		SET access_count = access_count + 1, last_accessed_at = ?
		WHERE id = ?
	`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to touch record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// ConceptStore
// ---------------------------------------------------------------------------

// FindConceptByName looks up a concept by exact name.
func (g *Gateway) FindConceptByName(ctx context.Context, name string) (*types.Concept, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: concept name is required", storage.ErrInvalidInput)
	}
	row := g.db.QueryRowContext(ctx, selectConcept+` WHERE name = ?`, name)
	return scanConcept(row)
}

// CreateConcept persists a new concept.
func (g *Gateway) CreateConcept(ctx context.Context, concept *types.Concept) error {
	if concept == nil {
		return storage.ErrInvalidInput
	}
	if concept.ID == "" || concept.Name == "" {
		return fmt.Errorf("%w: concept ID and name are required", storage.ErrInvalidInput)
	}

	_, err := g.db.ExecContext(ctx, `
		INSERT INTO concepts (id, name, description, type, confidence, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, concept.ID, concept.Name, concept.Description, concept.Type,
		concept.Confidence, concept.CreatedAt, concept.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create concept: %w", err)
	}
	return nil
}

// LinkConcept associates a concept with a record (idempotent).
func (g *Gateway) LinkConcept(ctx context.Context, recordID, conceptID string) error {
	if recordID == "" || conceptID == "" {
		return fmt.Errorf("%w: record ID and concept ID are required", storage.ErrInvalidInput)
	}

	_, err := g.db.ExecContext(ctx, `
		INSERT INTO memory_concepts (memory_id, concept_id)
		VALUES (?, ?)
		ON CONFLICT(memory_id, concept_id) DO NOTHING
	`, recordID, conceptID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to link concept: %w", err)
	}
	return nil
}

// ClearConcepts removes all concept links for a record.
func (g *Gateway) ClearConcepts(ctx context.Context, recordID string) error {
	if recordID == "" {
		return fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}
	_, err := g.db.ExecContext(ctx, `DELETE FROM memory_concepts WHERE memory_id = ?`, recordID)
	if err != nil {
		return fmt.Errorf("sqlite: failed to clear concepts: %w", err)
	}
	return nil
}

// GetConcepts returns the concepts linked to a record.
func (g *Gateway) GetConcepts(ctx context.Context, recordID string) ([]*types.Concept, error) {
	if recordID == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.type, c.confidence, c.created_at, c.updated_at
		FROM concepts c
		JOIN memory_concepts mc ON mc.concept_id = c.id
		WHERE mc.memory_id = ?
		ORDER BY c.name
	`, recordID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get concepts: %w", err)
	}
	defer rows.Close()

	concepts := []*types.Concept{}
	for rows.Next() {
		concept, err := scanConcept(rows)
		if err != nil {
			return nil, err
		}
		concepts = append(concepts, concept)
	}
	return concepts, rows.Err()
}

// ---------------------------------------------------------------------------
// RelationshipStore
// ---------------------------------------------------------------------------

// CreateRelationship persists a new relationship.
func (g *Gateway) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
	if rel == nil {
		return storage.ErrInvalidInput
	}
	if rel.ID == "" || rel.SourceID == "" || rel.TargetID == "" {
		return fmt.Errorf("%w: relationship ID, source, and target are required", storage.ErrInvalidInput)
	}

	metadataJSON, err := marshalMap(rel.Metadata)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal relationship metadata: %w", err)
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO relationships (id, source_id, target_id, type, strength, bidirectional, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rel.ID, rel.SourceID, rel.TargetID, rel.Type, rel.Strength,
		boolToInt(rel.Bidirectional), metadataJSON, rel.CreatedAt, rel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create relationship: %w", err)
	}
	return nil
}

// GetRelationships returns all relationships touching the record.
func (g *Gateway) GetRelationships(ctx context.Context, recordID string) ([]*types.Relationship, error) {
	if recordID == "" {
		return nil, fmt.Errorf("%w: record ID is required", storage.ErrInvalidInput)
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, source_id, target_id, type, strength, bidirectional, metadata, created_at, updated_at
		FROM relationships
		WHERE source_id = ? OR target_id = ?
		ORDER BY created_at
	`, recordID, recordID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to get relationships: %w", err)
	}
	defer rows.Close()

	rels := []*types.Relationship{}
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		rels = append(rels, rel)
	}
	return rels, rows.Err()
}

// DeleteRelationship removes a relationship by ID.
func (g *Gateway) DeleteRelationship(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: relationship ID is required", storage.ErrInvalidInput)
	}

	result, err := g.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: failed to delete relationship: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: failed to check rows affected: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// AuditStore
// ---------------------------------------------------------------------------

// CreateMergeAudit writes a merge audit entry.
func (g *Gateway) CreateMergeAudit(ctx context.Context, entry *types.MergeAuditEntry) error {
	if entry == nil {
		return storage.ErrInvalidInput
	}
	if entry.ID == "" || entry.PrimaryID == "" {
		return fmt.Errorf("%w: audit ID and primary ID are required", storage.ErrInvalidInput)
	}

	mergedJSON, err := json.Marshal(entry.MergedIDs)
	if err != nil {
		return fmt.Errorf("sqlite: failed to marshal merged IDs: %w", err)
	}

	_, err = g.db.ExecContext(ctx, `
		INSERT INTO merge_audit (id, primary_id, merged_ids, strategy, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.PrimaryID, string(mergedJSON), string(entry.Strategy),
		nullableString(entry.Actor), entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: failed to create merge audit: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Scan helpers
// ---------------------------------------------------------------------------

const selectRecord = `
	SELECT id, content, content_hash, context, importance, status,
		access_count, last_accessed_at, vector_id, metadata, created_at, updated_at
	FROM memories`

const selectConcept = `
	SELECT id, name, description, type, confidence, created_at, updated_at
	FROM concepts`

// rowScanner abstracts *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*types.MemoryRecord, error) {
	var (
		record                    types.MemoryRecord
		contextJSON, metadataJSON sql.NullString
		vectorID                  sql.NullString
		lastAccessed              sql.NullTime
		status                    string
	)

	err := row.Scan(&record.ID, &record.Content, &record.ContentHash,
		&contextJSON, &record.Importance, &status, &record.AccessCount,
		&lastAccessed, &vectorID, &metadataJSON, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: failed to scan record: %w", err)
	}

	record.Status = types.RecordStatus(status)
	if vectorID.Valid {
		record.VectorID = vectorID.String
	}
	if lastAccessed.Valid {
		t := lastAccessed.Time
		record.LastAccessedAt = &t
	}
	if record.Context, err = unmarshalMap(contextJSON); err != nil {
		return nil, fmt.Errorf("sqlite: failed to unmarshal context: %w", err)
	}
	if record.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, fmt.Errorf("sqlite: failed to unmarshal metadata: %w", err)
	}

	return &record, nil
}

func scanConcept(row rowScanner) (*types.Concept, error) {
	var (
		concept     types.Concept
		description sql.NullString
	)

	err := row.Scan(&concept.ID, &concept.Name, &description, &concept.Type,
		&concept.Confidence, &concept.CreatedAt, &concept.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: failed to scan concept: %w", err)
	}

	if description.Valid {
		concept.Description = description.String
	}
	return &concept, nil
}

func scanRelationship(row rowScanner) (*types.Relationship, error) {
	var (
		rel           types.Relationship
		metadataJSON  sql.NullString
		bidirectional int
	)

	err := row.Scan(&rel.ID, &rel.SourceID, &rel.TargetID, &rel.Type,
		&rel.Strength, &bidirectional, &metadataJSON, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("sqlite: failed to scan relationship: %w", err)
	}

	rel.Bidirectional = bidirectional != 0
	if rel.Metadata, err = unmarshalMap(metadataJSON); err != nil {
		return nil, fmt.Errorf("sqlite: failed to unmarshal relationship metadata: %w", err)
	}
	return &rel, nil
}

// marshalMap serializes a map to JSON, returning NULL for nil maps.
func marshalMap(m map[string]interface{}) (interface{}, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// unmarshalMap deserializes a JSON column into a map, returning nil for NULL.
func unmarshalMap(s sql.NullString) (map[string]interface{}, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, err
	}
	return m, nil
}

func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
