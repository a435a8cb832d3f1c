package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/recallhq/recall/internal/engine"
	"github.com/recallhq/recall/pkg/types"
)

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	engine *engine.Engine
	hub    *WebSocketHub // optional; nil disables event broadcasting
}

// NewAPIHandlers creates handlers over the given engine. The hub may be nil.
func NewAPIHandlers(eng *engine.Engine, hub *WebSocketHub) *APIHandlers {
	return &APIHandlers{engine: eng, hub: hub}
}

// Register attaches all routes to the mux.
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/memories", h.memories)
	mux.HandleFunc("/api/memories/", h.memoriesSubresource)
	mux.HandleFunc("/api/search", h.Search)
	mux.HandleFunc("/api/connections", h.CreateConnection)
	mux.HandleFunc("/api/merge", h.Merge)
	mux.HandleFunc("/api/stats", h.Stats)
	mux.HandleFunc("/api/analyze", h.Analyze)
	mux.HandleFunc("/api/health", h.Health)
}

func (h *APIHandlers) memories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.StoreMemory(w, r)
	case http.MethodGet:
		h.ListMemories(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	}
}

// memoriesSubresource routes GET /api/memories/{id}/related.
func (h *APIHandlers) memoriesSubresource(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/memories/")
	if id, ok := strings.CutSuffix(rest, "/related"); ok && r.Method == http.MethodGet {
		h.RelatedMemories(w, r, id)
		return
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown resource")
}

// StoreMemory handles POST /api/memories.
func (h *APIHandlers) StoreMemory(w http.ResponseWriter, r *http.Request) {
	var req StoreMemoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}

	node, err := h.engine.StoreMemory(r.Context(), engine.StoreOptions{
		Content:    req.Content,
		Context:    req.Context,
		Concepts:   req.Concepts,
		Importance: req.Importance,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.broadcast(EventMemoryCreated, node)
	writeJSON(w, http.StatusCreated, node)
}

// ListMemories handles GET /api/memories.
func (h *APIHandlers) ListMemories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	nodes, err := h.engine.RetrieveMemories(r.Context(), engine.RetrieveOptions{
		Query:     q.Get("query"),
		UserID:    q.Get("user_id"),
		Threshold: parseFloat(q.Get("threshold"), 0),
		Limit:     parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ListResponse{Memories: nodes, Total: len(nodes)})
}

// Search handles GET /api/search.
func (h *APIHandlers) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.engine.SearchMemories(r.Context(), engine.SearchOptions{
		Query:     q.Get("query"),
		Threshold: parseFloat(q.Get("threshold"), 0),
		Limit:     parseInt(q.Get("limit"), 0),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateConnection handles POST /api/connections.
func (h *APIHandlers) CreateConnection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}

	rel, err := h.engine.CreateConnection(r.Context(), engine.ConnectionOptions{
		SourceID:      req.SourceID,
		TargetID:      req.TargetID,
		Type:          req.Type,
		Strength:      req.Strength,
		Bidirectional: req.Bidirectional,
		Metadata:      req.Metadata,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.broadcast(EventConnectionCreated, rel)
	writeJSON(w, http.StatusCreated, rel)
}

// RelatedMemories handles GET /api/memories/{id}/related.
func (h *APIHandlers) RelatedMemories(w http.ResponseWriter, r *http.Request, id string) {
	q := r.URL.Query()

	related, err := h.engine.GetRelatedMemories(r.Context(), id, engine.RelatedOptions{
		MaxDepth:    parseInt(q.Get("max_depth"), 0),
		MinStrength: parseFloat(q.Get("min_strength"), 0),
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, related)
}

// Merge handles POST /api/merge.
func (h *APIHandlers) Merge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	var req MergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}

	node, err := h.engine.MergeMemories(r.Context(), engine.MergeOptions{
		PrimaryID:    req.PrimaryID,
		SecondaryIDs: req.SecondaryIDs,
		Strategy:     types.MergeStrategy(req.Strategy),
		Actor:        req.Actor,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.broadcast(EventMemoryMerged, node)
	writeJSON(w, http.StatusOK, node)
}

// Stats handles GET /api/stats.
func (h *APIHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.GetStats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Analyze handles POST /api/analyze.
func (h *APIHandlers) Analyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}

	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "invalid JSON body")
		return
	}
	if req.Content == "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", "content is required")
		return
	}

	analysis, err := h.engine.Analyzer().Analyze(req.Content, req.RecordID, req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "ANALYSIS_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

// Health handles GET /api/health.
func (h *APIHandlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *APIHandlers) broadcast(eventType string, payload interface{}) {
	if h.hub == nil {
		return
	}
	h.hub.Broadcast(Event{Type: eventType, Payload: payload})
}

// writeEngineError maps engine errors to HTTP responses using the status
// hint carried on the typed error.
func writeEngineError(w http.ResponseWriter, err error) {
	var engErr *engine.Error
	if errors.As(err, &engErr) {
		writeError(w, engErr.Status, engErr.Code, engErr.Message)
		return
	}
	log.Printf("ERROR: handlers: %v", err)
	writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: handlers: failed to encode response: %v", err)
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}
