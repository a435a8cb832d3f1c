package engine

import (
	"context"
	"errors"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// RetrieveMemories lists active records, optionally narrowed by a
// similarity query and owner. When a query is given the gateway listing is
// intersected with the similarity candidates.
func (e *Engine) RetrieveMemories(ctx context.Context, opts RetrieveOptions) ([]*types.MemoryNode, error) {
	if opts.Limit < 1 {
		opts.Limit = e.config.DefaultLimit
	}
	if opts.Threshold <= 0 {
		opts.Threshold = e.config.SearchThreshold
	}

	filter := storage.RecordFilter{
		Status: types.StatusActive,
		UserID: opts.UserID,
		Limit:  opts.Limit,
	}

	if opts.Query != "" && e.index != nil {
		matches, err := e.index.FindSimilar(ctx, opts.Query, opts.Threshold, opts.Limit)
		if err != nil {
			return nil, err
		}
		candidates := make([]string, 0, len(matches))
		for _, m := range matches {
			candidates = append(candidates, m.MemoryID)
		}
		// Non-nil empty slice: no candidates means no results.
		filter.IDs = candidates
	}

	records, err := e.gateway.ListRecords(ctx, filter)
	if err != nil {
		return nil, err
	}

	nodes := make([]*types.MemoryNode, 0, len(records))
	for _, record := range records {
		node, err := e.assembleNode(ctx, record)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// SearchMemories runs a similarity-first search: the index provides the
// candidate set, then each candidate is fetched and kept only if it still
// exists and is active. Processing time covers the whole operation.
func (e *Engine) SearchMemories(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	start := time.Now()

	if opts.Query == "" {
		return nil, invalidInput("query is required")
	}
	if opts.Threshold <= 0 {
		opts.Threshold = e.config.SearchThreshold
	}
	if opts.Limit < 1 {
		opts.Limit = e.config.DefaultLimit
	}

	result := &SearchResult{Memories: []*types.MemoryNode{}}

	if e.index != nil {
		matches, err := e.index.FindSimilar(ctx, opts.Query, opts.Threshold, opts.Limit)
		if err != nil {
			return nil, err
		}

		for _, match := range matches {
			record, err := e.gateway.GetRecord(ctx, match.MemoryID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					continue
				}
				return nil, err
			}
			if record.Status != types.StatusActive {
				continue
			}
			node, err := e.assembleNode(ctx, record)
			if err != nil {
				return nil, err
			}
			result.Memories = append(result.Memories, node)
		}
	}

	result.Total = len(result.Memories)
	result.ProcessingTimeMs = time.Since(start).Milliseconds()
	return result, nil
}
