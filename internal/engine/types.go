package engine

import (
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// Config tunes engine behavior. Zero values take the documented defaults.
type Config struct {
	// MaxFallbackConcepts caps concepts derived from content when the
	// caller supplies none. Default: 5.
	MaxFallbackConcepts int

	// AutoRelateThreshold is the similarity floor for auto-generated
	// relationships after a store. Default: 0.8.
	AutoRelateThreshold float64

	// AutoRelateLimit caps auto-generated relationships per store.
	// Default: 5.
	AutoRelateLimit int

	// SearchThreshold is the default similarity floor for retrieval and
	// search when the caller supplies none. Default: 0.7.
	SearchThreshold float64

	// DefaultLimit applies when a request carries no limit. Default: 10.
	DefaultLimit int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		MaxFallbackConcepts: 5,
		AutoRelateThreshold: 0.8,
		AutoRelateLimit:     5,
		SearchThreshold:     0.7,
		DefaultLimit:        10,
	}
}

func (c *Config) setDefaults() {
	if c.MaxFallbackConcepts < 1 {
		c.MaxFallbackConcepts = 5
	}
	if c.AutoRelateThreshold <= 0 {
		c.AutoRelateThreshold = 0.8
	}
	if c.AutoRelateLimit < 1 {
		c.AutoRelateLimit = 5
	}
	if c.SearchThreshold <= 0 {
		c.SearchThreshold = 0.7
	}
	if c.DefaultLimit < 1 {
		c.DefaultLimit = 10
	}
}

// StoreOptions carries the input for StoreMemory.
type StoreOptions struct {
	Content    string
	Context    map[string]interface{}
	Concepts   []string
	Importance int
}

// RetrieveOptions carries the input for RetrieveMemories.
type RetrieveOptions struct {
	Query     string
	UserID    string
	Threshold float64
	Limit     int
}

// SearchOptions carries the input for SearchMemories.
type SearchOptions struct {
	Query     string
	Threshold float64
	Limit     int
}

// SearchResult is the SearchMemories response.
type SearchResult struct {
	Memories         []*types.MemoryNode `json:"memories"`
	Total            int                 `json:"total"`
	ProcessingTimeMs int64               `json:"processing_time_ms"`
}

// ConnectionOptions carries the input for CreateConnection.
type ConnectionOptions struct {
	SourceID      string
	TargetID      string
	Type          string
	Strength      float64
	Bidirectional bool
	Metadata      map[string]interface{}
}

// RelatedOptions carries the input for GetRelatedMemories.
type RelatedOptions struct {
	MaxDepth    int
	MinStrength float64
}

// MergeOptions carries the input for MergeMemories.
type MergeOptions struct {
	PrimaryID    string
	SecondaryIDs []string
	Strategy     types.MergeStrategy

	// Actor is recorded on the audit entry when set.
	Actor string
}

// Stats is the GetStats response.
type Stats struct {
	TotalRecords        int                        `json:"total_records"`
	RecordsByStatus     map[types.RecordStatus]int `json:"records_by_status"`
	TotalRelationships  int                        `json:"total_relationships"`
	TotalConcepts       int                        `json:"total_concepts"`
	AverageImportance   float64                    `json:"average_importance"`
	MostActiveUsers     []storage.UserCount        `json:"most_active_users"`
	TopProjects         []storage.ProjectCount     `json:"top_projects"`
	ConceptDistribution []storage.ConceptCount     `json:"concept_distribution"`
}
