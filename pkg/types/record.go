package types

import "time"

// MemoryRecord represents a single unit of stored knowledge.
// Records are content-addressed: ContentHash uniquely identifies Content for
// deduplication purposes, and must be recomputed whenever Content changes.
type MemoryRecord struct {
	// Core identification fields
	ID          string `json:"id"`           // Unique identifier (format: mem:hex)
	Content     string `json:"content"`      // Raw record content
	ContentHash string `json:"content_hash"` // SHA-256 hash of content, dedup key

	// Context is an open key-value map supplied by the caller (source,
	// tags, owning user, project, topic). Recognized keys are documented on
	// ContextKey constants; unrecognized keys pass through unvalidated.
	Context map[string]interface{} `json:"context,omitempty"`

	// Importance is an integer score from 1 (lowest) to 5 (highest).
	Importance int `json:"importance"`

	// Status is the lifecycle status (active, archived, merged).
	Status RecordStatus `json:"status"`

	// Usage telemetry. Incremented by the storage gateway, not the engine.
	AccessCount    int        `json:"access_count"`
	LastAccessedAt *time.Time `json:"last_accessed_at,omitempty"`

	// VectorID is the foreign reference into the similarity index.
	// Empty until indexing completes.
	VectorID string `json:"vector_id,omitempty"`

	// Metadata holds system-managed annotations (e.g. merge provenance).
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Recognized context keys. Consumers may store arbitrary additional keys.
const (
	ContextKeySource  = "source"
	ContextKeyUserID  = "user_id"
	ContextKeyProject = "project"
	ContextKeyTopic   = "topic"
	ContextKeyTags    = "tags"
)

// Metadata keys written by the merge engine.
const (
	// MetaMergedInto marks a secondary record with the primary it was
	// absorbed into.
	MetaMergedInto = "merged_into"

	// MetaMergedAt records when the merge happened (RFC 3339).
	MetaMergedAt = "merged_at"

	// MetaMergeStrategy records the strategy used for the merge.
	MetaMergeStrategy = "merge_strategy"

	// MetaAutoGenerated marks relationships created from similarity search
	// rather than explicit user action.
	MetaAutoGenerated = "auto_generated"

	// MetaRedirectedFrom marks a relationship rewritten during merge with
	// the ID of the original edge it replaced.
	MetaRedirectedFrom = "redirected_from"

	// MetaRedirectedAt records when the redirection happened (RFC 3339).
	MetaRedirectedAt = "redirected_at"
)

// UserID returns the owning user from the context map, if present.
func (r *MemoryRecord) UserID() string {
	if r.Context == nil {
		return ""
	}
	if v, ok := r.Context[ContextKeyUserID].(string); ok {
		return v
	}
	return ""
}

// MemoryNode is a record paired with its resolved concepts.
// This is the shape returned by engine operations.
type MemoryNode struct {
	Record   *MemoryRecord `json:"record"`
	Concepts []*Concept    `json:"concepts"`
}

// RelatedNode is a neighbor in the relationship graph: the neighboring node,
// the edge that connects it, and its hop distance from the center record.
type RelatedNode struct {
	Node         *MemoryNode   `json:"node"`
	Relationship *Relationship `json:"relationship"`
	Distance     int           `json:"distance"`
}

// RelatedMemories is the result of a related-memories graph query.
// Clusters is reserved and currently always empty.
type RelatedMemories struct {
	Center       *MemoryNode   `json:"center"`
	RelatedNodes []RelatedNode `json:"related_nodes"`
	Concepts     []*Concept    `json:"concepts"`
	Clusters     []interface{} `json:"clusters"`
}
