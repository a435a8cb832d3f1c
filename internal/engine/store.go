package engine

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/recallhq/recall/internal/analyzer"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// StoreMemory creates a memory record, deduplicating by content hash. When
// the content already exists the existing record is returned unchanged with
// no re-indexing and no new relationships. Post-commit enrichment (vector
// indexing, auto-relationships) is best-effort: failures are logged and the
// stored record is still returned.
func (e *Engine) StoreMemory(ctx context.Context, opts StoreOptions) (*types.MemoryNode, error) {
	if opts.Content == "" {
		return nil, invalidInput("content is required")
	}
	if opts.Importance != 0 && (opts.Importance < 1 || opts.Importance > 5) {
		return nil, invalidInput("importance must be between 1 and 5")
	}

	contentHash := analyzer.HashContent(opts.Content)

	// Dedup short-circuit.
	existing, err := e.gateway.GetRecordByHash(ctx, contentHash)
	if err == nil {
		return e.assembleNode(ctx, existing)
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	importance := opts.Importance
	if importance == 0 {
		importance = 3
	}

	now := time.Now().UTC()
	record := &types.MemoryRecord{
		ID:          newRecordID(),
		Content:     opts.Content,
		ContentHash: contentHash,
		Context:     opts.Context,
		Importance:  importance,
		Status:      types.StatusActive,
		Metadata:    map[string]interface{}{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := e.gateway.CreateRecord(ctx, record); err != nil {
		// Two concurrent stores with identical content can race past the
		// hash lookup. The unique index catches the loser, which then
		// returns the winner's record.
		if errors.Is(err, storage.ErrDuplicateHash) {
			winner, lookupErr := e.gateway.GetRecordByHash(ctx, contentHash)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return e.assembleNode(ctx, winner)
		}
		return nil, err
	}

	conceptNames := opts.Concepts
	if len(conceptNames) == 0 {
		conceptNames = fallbackConcepts(opts.Content, e.config.MaxFallbackConcepts)
	}
	concepts, err := e.resolveConcepts(ctx, record.ID, conceptNames)
	if err != nil {
		return nil, err
	}

	e.enrichStoredRecord(ctx, record)

	return &types.MemoryNode{Record: record, Concepts: concepts}, nil
}

// enrichStoredRecord indexes the record for similarity search and creates
// auto-generated relationships to similar records. Both steps are
// best-effort.
func (e *Engine) enrichStoredRecord(ctx context.Context, record *types.MemoryRecord) {
	if e.index == nil {
		return
	}

	vectorID, err := e.index.IndexMemory(ctx, record.ID, record.Content, record.Context)
	if err != nil {
		log.Printf("WARNING: engine: failed to index memory %s: %v", record.ID, err)
		return
	}

	if err := e.gateway.UpdateRecord(ctx, record.ID, storage.RecordUpdate{VectorID: &vectorID}); err != nil {
		log.Printf("WARNING: engine: failed to persist vector ID for %s: %v", record.ID, err)
	} else {
		record.VectorID = vectorID
	}

	e.autoRelate(ctx, record)
}

// autoRelate creates bidirectional semantic-similarity edges to the closest
// matches of the new record's content.
func (e *Engine) autoRelate(ctx context.Context, record *types.MemoryRecord) {
	matches, err := e.index.FindSimilar(ctx, record.Content, e.config.AutoRelateThreshold, e.config.AutoRelateLimit)
	if err != nil {
		log.Printf("WARNING: engine: auto-relationship search failed for %s: %v", record.ID, err)
		return
	}

	now := time.Now().UTC()
	for _, match := range matches {
		if match.MemoryID == record.ID {
			continue
		}

		rel := &types.Relationship{
			ID:            newRelationshipID(),
			SourceID:      record.ID,
			TargetID:      match.MemoryID,
			Type:          types.RelSemanticSimilarity,
			Strength:      match.Similarity,
			Bidirectional: true,
			Metadata:      map[string]interface{}{types.MetaAutoGenerated: true},
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := e.gateway.CreateRelationship(ctx, rel); err != nil {
			log.Printf("WARNING: engine: failed to create auto relationship %s -> %s: %v",
				record.ID, match.MemoryID, err)
		}
	}
}

// assembleNode pairs a record with its linked concepts.
func (e *Engine) assembleNode(ctx context.Context, record *types.MemoryRecord) (*types.MemoryNode, error) {
	concepts, err := e.gateway.GetConcepts(ctx, record.ID)
	if err != nil {
		return nil, err
	}
	return &types.MemoryNode{Record: record, Concepts: concepts}, nil
}
