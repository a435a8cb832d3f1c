package types

import "time"

// Concept represents a named topic, entity, skill, project, or person tag.
// Concepts are deduplicated by exact name at the data layer and linked
// many-to-many with memory records. Confidence is concept-level, not
// link-level.
type Concept struct {
	ID          string    `json:"id"`                    // Unique identifier (format: con:hex)
	Name        string    `json:"name"`                  // Display name, unique
	Description string    `json:"description,omitempty"` // Human-readable description
	Type        string    `json:"type"`                  // Concept type (see ConceptType constants)
	Confidence  float64   `json:"confidence"`            // Extraction confidence (0.0-1.0)
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
