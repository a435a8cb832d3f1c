package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// CreateConnection validates both endpoints and writes the relationship as
// given. No dedup against existing equivalent edges happens at this layer.
func (e *Engine) CreateConnection(ctx context.Context, opts ConnectionOptions) (*types.Relationship, error) {
	if opts.SourceID == "" || opts.TargetID == "" {
		return nil, invalidInput("source and target IDs are required")
	}
	if !types.IsValidRelationshipType(opts.Type) {
		return nil, invalidInput("unknown relationship type: %s", opts.Type)
	}

	// Validate both endpoints concurrently.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{opts.SourceID, opts.TargetID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			if _, err := e.gateway.GetRecord(ctx, id); err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					errs[i] = invalidMemoryID("memory %s does not exist", id)
				} else {
					errs[i] = err
				}
			}
		}(i, id)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	strength := opts.Strength
	if strength == 0 {
		strength = 1.0
	}

	now := time.Now().UTC()
	rel := &types.Relationship{
		ID:            newRelationshipID(),
		SourceID:      opts.SourceID,
		TargetID:      opts.TargetID,
		Type:          opts.Type,
		Strength:      strength,
		Bidirectional: opts.Bidirectional,
		Metadata:      opts.Metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := e.gateway.CreateRelationship(ctx, rel); err != nil {
		return nil, err
	}
	return rel, nil
}

// GetRelatedMemories walks the relationship graph outward from a center
// record with a breadth-first traversal bounded by opts.MaxDepth (default 1)
// and pruned below opts.MinStrength. Neighbors that are missing or not
// active are filtered out. Clusters is reserved and always empty.
func (e *Engine) GetRelatedMemories(ctx context.Context, id string, opts RelatedOptions) (*types.RelatedMemories, error) {
	if id == "" {
		return nil, invalidInput("memory ID is required")
	}
	if opts.MaxDepth < 1 {
		opts.MaxDepth = 1
	}

	center, err := e.gateway.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, notFound("memory %s does not exist", id)
		}
		return nil, err
	}

	centerNode, err := e.assembleNode(ctx, center)
	if err != nil {
		return nil, err
	}

	result := &types.RelatedMemories{
		Center:       centerNode,
		RelatedNodes: []types.RelatedNode{},
		Concepts:     centerNode.Concepts,
		Clusters:     []interface{}{},
	}

	visited := map[string]bool{id: true}
	frontier := []string{id}

	for depth := 1; depth <= opts.MaxDepth && len(frontier) > 0; depth++ {
		next := []string{}

		for _, current := range frontier {
			rels, err := e.gateway.GetRelationships(ctx, current)
			if err != nil {
				return nil, err
			}

			for _, rel := range rels {
				if rel.Strength < opts.MinStrength {
					continue
				}
				neighborID := rel.Other(current)
				if neighborID == "" || visited[neighborID] {
					continue
				}
				visited[neighborID] = true

				neighbor, err := e.gateway.GetRecord(ctx, neighborID)
				if err != nil {
					if errors.Is(err, storage.ErrNotFound) {
						continue
					}
					return nil, err
				}
				if neighbor.Status != types.StatusActive {
					continue
				}

				node, err := e.assembleNode(ctx, neighbor)
				if err != nil {
					return nil, err
				}
				result.RelatedNodes = append(result.RelatedNodes, types.RelatedNode{
					Node:         node,
					Relationship: rel,
					Distance:     depth,
				})
				next = append(next, neighborID)
			}
		}

		frontier = next
	}

	return result, nil
}
