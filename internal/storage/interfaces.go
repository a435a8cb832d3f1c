// Package storage provides composable storage interfaces for the recall
// system.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently and composed as needed. Each call is assumed
// transactional on its own; no cross-call transaction is modeled here.
package storage

import (
	"context"

	"github.com/recallhq/recall/pkg/types"
)

// RecordStore provides CRUD operations for memory records.
type RecordStore interface {
	// CreateRecord persists a new memory record.
	// Returns ErrDuplicateHash if a record with the same content hash
	// already exists.
	CreateRecord(ctx context.Context, record *types.MemoryRecord) error

	// GetRecord retrieves a record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	GetRecord(ctx context.Context, id string) (*types.MemoryRecord, error)

	// GetRecordByHash retrieves a record by its content hash.
	// Returns ErrNotFound if no record has that hash.
	GetRecordByHash(ctx context.Context, contentHash string) (*types.MemoryRecord, error)

	// UpdateRecord applies a partial update to an existing record.
	// Returns ErrNotFound if the record doesn't exist.
	UpdateRecord(ctx context.Context, id string, update RecordUpdate) error

	// ListRecords retrieves records matching the filter, newest first.
	ListRecords(ctx context.Context, filter RecordFilter) ([]*types.MemoryRecord, error)

	// TouchRecord atomically increments access_count and updates
	// last_accessed_at. Returns ErrNotFound if the record doesn't exist.
	TouchRecord(ctx context.Context, id string) error
}

// ConceptStore manages concepts and their links to memory records.
// Concepts are deduplicated by exact name.
type ConceptStore interface {
	// FindConceptByName looks up a concept by exact name.
	// Returns ErrNotFound if no concept has that name.
	FindConceptByName(ctx context.Context, name string) (*types.Concept, error)

	// CreateConcept persists a new concept.
	CreateConcept(ctx context.Context, concept *types.Concept) error

	// LinkConcept associates a concept with a record. Linking the same pair
	// twice is a no-op.
	LinkConcept(ctx context.Context, recordID, conceptID string) error

	// ClearConcepts removes all concept links for a record. The concepts
	// themselves are retained.
	ClearConcepts(ctx context.Context, recordID string) error

	// GetConcepts returns the concepts linked to a record.
	// Returns an empty slice (not an error) when the record has no concepts.
	GetConcepts(ctx context.Context, recordID string) ([]*types.Concept, error)
}

// RelationshipStore manages typed edges between memory records.
type RelationshipStore interface {
	// CreateRelationship persists a new relationship.
	CreateRelationship(ctx context.Context, rel *types.Relationship) error

	// GetRelationships returns all relationships touching the given record
	// as either endpoint.
	GetRelationships(ctx context.Context, recordID string) ([]*types.Relationship, error)

	// DeleteRelationship removes a relationship by ID.
	// Returns ErrNotFound if the relationship doesn't exist.
	DeleteRelationship(ctx context.Context, id string) error
}

// AuditStore persists immutable merge audit entries.
type AuditStore interface {
	// CreateMergeAudit writes a merge audit entry.
	CreateMergeAudit(ctx context.Context, entry *types.MergeAuditEntry) error
}

// StatsProvider exposes aggregate queries for GetStats.
type StatsProvider interface {
	// CountRecords returns the total number of records by status.
	CountRecords(ctx context.Context) (map[types.RecordStatus]int, error)

	// CountRelationships returns the total number of relationships.
	CountRelationships(ctx context.Context) (int, error)

	// CountConcepts returns the total number of concepts.
	CountConcepts(ctx context.Context) (int, error)

	// AverageImportance returns the mean importance across active records.
	// Returns 0 when no active records exist.
	AverageImportance(ctx context.Context) (float64, error)

	// MostActiveUsers returns up to n owners ranked by record count.
	MostActiveUsers(ctx context.Context, n int) ([]UserCount, error)

	// TopProjects returns up to n projects ranked by record count.
	TopProjects(ctx context.Context, n int) ([]ProjectCount, error)

	// ConceptDistribution returns per-concept link counts, most linked first.
	ConceptDistribution(ctx context.Context) ([]ConceptCount, error)
}

// Gateway composes the full storage surface consumed by the engine.
type Gateway interface {
	RecordStore
	ConceptStore
	RelationshipStore
	AuditStore
	StatsProvider

	// Close releases any resources held by the gateway.
	Close() error
}
