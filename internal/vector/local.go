package vector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// localEntry is a stored vector with the memory it belongs to.
type localEntry struct {
	memoryID string
	content  string
	vec      []float32
}

// LocalIndex is an in-process similarity index. Vectors live in memory and
// are lost on restart; the engine re-indexes on write, so a restart only
// costs recall until memories are stored again. Query embeddings are cached
// in an LRU keyed by query text since search traffic tends to repeat.
type LocalIndex struct {
	embedder Embedder

	mu      sync.RWMutex
	entries map[string]*localEntry

	queryCache *lru.Cache[string, []float32]
}

// NewLocalIndex creates a local index backed by the given embedder.
func NewLocalIndex(embedder Embedder) (*LocalIndex, error) {
	cache, err := lru.New[string, []float32](512)
	if err != nil {
		return nil, fmt.Errorf("vector: failed to create query cache: %w", err)
	}
	return &LocalIndex{
		embedder:   embedder,
		entries:    map[string]*localEntry{},
		queryCache: cache,
	}, nil
}

// IndexMemory vectorizes content and stores it under a fresh vector ID.
func (idx *LocalIndex) IndexMemory(ctx context.Context, memoryID, content string, _ map[string]interface{}) (string, error) {
	if memoryID == "" || content == "" {
		return "", fmt.Errorf("vector: memory ID and content are required")
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	vectorID := "vec:" + uuid.New().String()
	entry := &localEntry{
		memoryID: memoryID,
		content:  content,
		vec:      idx.embedder.Embed(content),
	}

	idx.mu.Lock()
	idx.entries[vectorID] = entry
	idx.mu.Unlock()

	return vectorID, nil
}

// FindSimilar embeds the query and scans stored vectors for matches at or
// above threshold, best first.
func (idx *LocalIndex) FindSimilar(ctx context.Context, text string, threshold float64, limit int) ([]Match, error) {
	if text == "" {
		return []Match{}, nil
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if limit < 1 {
		limit = 10
	}

	query, ok := idx.queryCache.Get(text)
	if !ok {
		query = idx.embedder.Embed(text)
		idx.queryCache.Add(text, query)
	}

	idx.mu.RLock()
	matches := []Match{}
	for _, entry := range idx.entries {
		score := CosineSimilarity(query, entry.vec)
		if score >= threshold {
			matches = append(matches, Match{
				MemoryID:   entry.memoryID,
				Similarity: score,
				Content:    entry.content,
			})
		}
	}
	idx.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// UpdateVector re-embeds content behind an existing vector ID.
func (idx *LocalIndex) UpdateVector(ctx context.Context, vectorID, content string, _ map[string]interface{}) error {
	if vectorID == "" || content == "" {
		return fmt.Errorf("vector: vector ID and content are required")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	entry, ok := idx.entries[vectorID]
	if !ok {
		return ErrVectorNotFound
	}
	entry.content = content
	entry.vec = idx.embedder.Embed(content)
	return nil
}

// Len returns the number of indexed vectors.
func (idx *LocalIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}
