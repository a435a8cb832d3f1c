// Package vector provides similarity indexing for memory content.
//
// A SimilarityIndex turns free text into vectors and answers nearest-neighbor
// queries over previously indexed memories. Two implementations are provided:
// LocalIndex keeps vectors in process memory, PgVectorIndex stores them in
// PostgreSQL using the pgvector extension. GuardedIndex decorates either with
// a circuit breaker and rate limiter so a failing index degrades the caller
// instead of taking it down.
package vector

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable is returned when the index rejects a call because the
// circuit is open or the rate limit is exhausted.
var ErrUnavailable = errors.New("vector: similarity index unavailable")

// ErrVectorNotFound is returned when a vector ID has no stored vector.
var ErrVectorNotFound = errors.New("vector: vector not found")

// Match is a single similarity result.
type Match struct {
	MemoryID   string  `json:"memory_id"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// SimilarityIndex indexes memory content and answers similarity queries.
type SimilarityIndex interface {
	// IndexMemory vectorizes content and stores it under the given memory ID.
	// It returns the vector ID assigned to the stored vector.
	IndexMemory(ctx context.Context, memoryID, content string, attrs map[string]interface{}) (string, error)

	// FindSimilar returns memories whose similarity to text is at least
	// threshold, best first, capped at limit.
	FindSimilar(ctx context.Context, text string, threshold float64, limit int) ([]Match, error)

	// UpdateVector replaces the content behind an existing vector ID.
	UpdateVector(ctx context.Context, vectorID, content string, attrs map[string]interface{}) error
}

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Embed(text string) []float32
	Dimension() int
}

// CosineSimilarity computes the cosine of the angle between two vectors.
// Returns 0 when either vector is zero or the lengths differ.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
