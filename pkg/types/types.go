// Package types defines the core data structures for the recall memory system:
// memory records, concepts, relationships, merge audit entries, and the
// content analysis result produced by the analyzer.
package types

// RecordStatus represents the lifecycle status of a memory record.
type RecordStatus string

// Record status constants
const (
	// StatusActive indicates a live record that participates in retrieval,
	// search, and graph traversal.
	StatusActive RecordStatus = "active"

	// StatusArchived indicates a record excluded from active-only queries
	// but still readable by ID.
	StatusArchived RecordStatus = "archived"

	// StatusMerged indicates a record absorbed into another record.
	// Merged is terminal: content is frozen except for metadata annotations
	// recording the merge. Merged records are never hard-deleted.
	StatusMerged RecordStatus = "merged"
)

// ValidRecordStatuses lists all valid record statuses for validation.
var ValidRecordStatuses = []RecordStatus{
	StatusActive,
	StatusArchived,
	StatusMerged,
}

// IsValidRecordStatus checks if the given status is valid.
func IsValidRecordStatus(status RecordStatus) bool {
	for _, s := range ValidRecordStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Concept type constants - concepts tag records with topics, entities,
// skills, projects, and people.
const (
	ConceptTypeTopic   = "topic"
	ConceptTypeEntity  = "entity"
	ConceptTypeSkill   = "skill"
	ConceptTypeProject = "project"
	ConceptTypePerson  = "person"
)

// ValidConceptTypes lists all valid concept types for validation.
var ValidConceptTypes = []string{
	ConceptTypeTopic,
	ConceptTypeEntity,
	ConceptTypeSkill,
	ConceptTypeProject,
	ConceptTypePerson,
}

// IsValidConceptType checks if the given concept type is valid.
func IsValidConceptType(conceptType string) bool {
	for _, t := range ValidConceptTypes {
		if t == conceptType {
			return true
		}
	}
	return false
}

// Relationship type constants - typed edges between memory records.
const (
	// RelSemanticSimilarity is the type used for auto-generated edges
	// produced from similarity search results.
	RelSemanticSimilarity = "semantic_similarity"

	RelCausal     = "causal"
	RelTemporal   = "temporal"
	RelConceptual = "conceptual"
	RelCustom     = "custom"
)

// ValidRelationshipTypes lists all valid relationship types for validation.
var ValidRelationshipTypes = []string{
	RelSemanticSimilarity,
	RelCausal,
	RelTemporal,
	RelConceptual,
	RelCustom,
}

// IsValidRelationshipType checks if the given relationship type is valid.
func IsValidRelationshipType(relType string) bool {
	for _, t := range ValidRelationshipTypes {
		if t == relType {
			return true
		}
	}
	return false
}

// MergeStrategy selects how record contents are combined during a merge.
type MergeStrategy string

// Merge strategy constants
const (
	// MergeCombine joins all contents (primary first, then secondaries in
	// input order) with a "\n\n---\n\n" separator.
	MergeCombine MergeStrategy = "combine"

	// MergeReplace keeps only the primary's content.
	MergeReplace MergeStrategy = "replace"

	// MergeAppend keeps the primary's content followed by each secondary's
	// content, joined by blank lines.
	MergeAppend MergeStrategy = "append"
)

// ValidMergeStrategies lists all valid merge strategies for validation.
var ValidMergeStrategies = []MergeStrategy{
	MergeCombine,
	MergeReplace,
	MergeAppend,
}

// IsValidMergeStrategy checks if the given merge strategy is valid.
func IsValidMergeStrategy(strategy MergeStrategy) bool {
	for _, s := range ValidMergeStrategies {
		if s == strategy {
			return true
		}
	}
	return false
}
