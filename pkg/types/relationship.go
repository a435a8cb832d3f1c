package types

import "time"

// Relationship represents a typed, optionally-bidirectional edge between two
// memory records. Auto-generated edges carry metadata[MetaAutoGenerated]=true.
type Relationship struct {
	ID       string `json:"id"`        // Unique identifier (format: rel:uuid)
	SourceID string `json:"source_id"` // Source record ID
	TargetID string `json:"target_id"` // Target record ID
	Type     string `json:"type"`      // Relationship type (see Rel constants)

	// Strength is the edge weight (0.0-1.0). Auto-generated edges use the
	// similarity score reported by the index.
	Strength float64 `json:"strength"`

	// Bidirectional marks the edge as symmetric: an edge A→B with
	// Bidirectional=true also connects B→A for traversal and dedup purposes.
	Bidirectional bool `json:"bidirectional"`

	// Metadata holds arbitrary edge annotations (auto_generated,
	// redirected_from, redirected_at, ...).
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Touches reports whether the edge has id as either endpoint.
func (r *Relationship) Touches(id string) bool {
	return r.SourceID == id || r.TargetID == id
}

// Other returns the endpoint opposite to id, or "" when id is not an endpoint.
func (r *Relationship) Other(id string) string {
	switch id {
	case r.SourceID:
		return r.TargetID
	case r.TargetID:
		return r.SourceID
	default:
		return ""
	}
}

// ConnectsSamePair reports whether the edge joins the same endpoint pair as
// (sourceID, targetID). Bidirectional edges match the pair in either order;
// directed edges match only the exact orientation, except that a directed
// candidate is also considered equivalent to an existing bidirectional edge
// over the same pair.
func (r *Relationship) ConnectsSamePair(sourceID, targetID string, bidirectional bool) bool {
	if r.SourceID == sourceID && r.TargetID == targetID {
		return true
	}
	if r.Bidirectional || bidirectional {
		return r.SourceID == targetID && r.TargetID == sourceID
	}
	return false
}

// MergeAuditEntry is an immutable record of a merge event.
type MergeAuditEntry struct {
	ID        string        `json:"id"`         // Unique identifier (format: aud:uuid)
	PrimaryID string        `json:"primary_id"` // Record the secondaries were merged into
	MergedIDs []string      `json:"merged_ids"` // Records retired by the merge
	Strategy  MergeStrategy `json:"strategy"`   // Strategy used
	Actor     string        `json:"actor,omitempty"` // Optional user/agent that requested the merge
	CreatedAt time.Time     `json:"created_at"`
}
