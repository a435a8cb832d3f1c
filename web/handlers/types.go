// Package handlers provides the REST and WebSocket surface over the engine.
package handlers

import "github.com/recallhq/recall/pkg/types"

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StoreMemoryRequest is the request body for POST /api/memories.
type StoreMemoryRequest struct {
	Content    string                 `json:"content"`
	Context    map[string]interface{} `json:"context,omitempty"`
	Concepts   []string               `json:"concepts,omitempty"`
	Importance int                    `json:"importance,omitempty"`
}

// ConnectionRequest is the request body for POST /api/connections.
type ConnectionRequest struct {
	SourceID      string                 `json:"source_id"`
	TargetID      string                 `json:"target_id"`
	Type          string                 `json:"type"`
	Strength      float64                `json:"strength,omitempty"`
	Bidirectional bool                   `json:"bidirectional,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
}

// MergeRequest is the request body for POST /api/merge.
type MergeRequest struct {
	PrimaryID    string   `json:"primary_id"`
	SecondaryIDs []string `json:"secondary_ids"`
	Strategy     string   `json:"strategy"`
	Actor        string   `json:"actor,omitempty"`
}

// AnalyzeRequest is the request body for POST /api/analyze.
type AnalyzeRequest struct {
	Content  string `json:"content"`
	RecordID string `json:"record_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
}

// ListResponse is the response format for GET /api/memories.
type ListResponse struct {
	Memories []*types.MemoryNode `json:"memories"`
	Total    int                 `json:"total"`
}

// Event is the WebSocket notification envelope.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// WebSocket event types.
const (
	EventMemoryCreated     = "memory.created"
	EventMemoryMerged      = "memory.merged"
	EventConnectionCreated = "connection.created"
)
