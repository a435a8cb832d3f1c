// Package engine orchestrates memory storage, retrieval, connection, and
// merge operations over the storage gateway, similarity index, and content
// analyzer.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/recallhq/recall/internal/analyzer"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/internal/vector"
	"github.com/recallhq/recall/pkg/types"
)

// Engine is the core orchestrator. It owns no storage itself; everything is
// delegated to the gateway and similarity index, so Engine is safe for
// concurrent use as long as its dependencies are.
type Engine struct {
	gateway  storage.Gateway
	index    vector.SimilarityIndex
	analyzer *analyzer.Analyzer
	config   Config

	mergeLocks *idLocker
}

// New creates an engine. The index may be nil, in which case similarity
// features (query retrieval, search, auto-relationships) degrade to
// gateway-only behavior.
func New(gateway storage.Gateway, index vector.SimilarityIndex, contentAnalyzer *analyzer.Analyzer, config Config) *Engine {
	config.setDefaults()
	if contentAnalyzer == nil {
		contentAnalyzer = analyzer.New(nil, analyzer.Config{})
	}
	return &Engine{
		gateway:    gateway,
		index:      index,
		analyzer:   contentAnalyzer,
		config:     config,
		mergeLocks: newIDLocker(),
	}
}

// Analyzer returns the engine's content analyzer.
func (e *Engine) Analyzer() *analyzer.Analyzer {
	return e.analyzer
}

// newRecordID generates a memory record ID.
func newRecordID() string {
	return "mem:" + randomHex(12)
}

// newConceptID generates a concept ID.
func newConceptID() string {
	return "con:" + randomHex(12)
}

// newRelationshipID generates a relationship ID.
func newRelationshipID() string {
	return "rel:" + uuid.New().String()
}

// newAuditID generates a merge audit entry ID.
func newAuditID() string {
	return "aud:" + uuid.New().String()
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// fallbackConcepts derives up to max unique concept names from content:
// lower-cased tokens longer than 3 characters with punctuation stripped.
func fallbackConcepts(content string, max int) []string {
	seen := map[string]bool{}
	names := []string{}

	tokens := strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		if len(tok) <= 3 || seen[tok] {
			continue
		}
		seen[tok] = true
		names = append(names, tok)
		if len(names) >= max {
			break
		}
	}
	return names
}

// resolveConcepts looks up each name, creating missing concepts with the
// default type and confidence, and links them all to the record.
func (e *Engine) resolveConcepts(ctx context.Context, recordID string, names []string) ([]*types.Concept, error) {
	concepts := make([]*types.Concept, 0, len(names))

	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		concept, err := e.gateway.FindConceptByName(ctx, name)
		if err != nil {
			if err != storage.ErrNotFound {
				return nil, err
			}
			now := time.Now().UTC()
			concept = &types.Concept{
				ID:         newConceptID(),
				Name:       name,
				Type:       types.ConceptTypeTopic,
				Confidence: 0.8,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := e.gateway.CreateConcept(ctx, concept); err != nil {
				return nil, err
			}
		}

		if err := e.gateway.LinkConcept(ctx, recordID, concept.ID); err != nil {
			return nil, err
		}
		concepts = append(concepts, concept)
	}
	return concepts, nil
}
