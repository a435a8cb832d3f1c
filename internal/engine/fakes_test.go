package engine

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/internal/vector"
	"github.com/recallhq/recall/pkg/types"
)

// fakeGateway is an in-memory storage.Gateway for engine tests.
type fakeGateway struct {
	mu sync.Mutex

	records       map[string]*types.MemoryRecord
	concepts      map[string]*types.Concept
	links         map[string]map[string]bool // recordID -> conceptID set
	relationships map[string]*types.Relationship
	audits        []*types.MergeAuditEntry

	createRecordCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		records:       map[string]*types.MemoryRecord{},
		concepts:      map[string]*types.Concept{},
		links:         map[string]map[string]bool{},
		relationships: map[string]*types.Relationship{},
	}
}

func (g *fakeGateway) CreateRecord(_ context.Context, record *types.MemoryRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.createRecordCalls++
	for _, r := range g.records {
		if r.ContentHash == record.ContentHash {
			return storage.ErrDuplicateHash
		}
	}
	clone := *record
	g.records[record.ID] = &clone
	return nil
}

func (g *fakeGateway) GetRecord(_ context.Context, id string) (*types.MemoryRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	record, ok := g.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (g *fakeGateway) GetRecordByHash(_ context.Context, contentHash string) (*types.MemoryRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, record := range g.records {
		if record.ContentHash == contentHash {
			clone := *record
			return &clone, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (g *fakeGateway) UpdateRecord(_ context.Context, id string, update storage.RecordUpdate) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	record, ok := g.records[id]
	if !ok {
		return storage.ErrNotFound
	}
	if update.Content != nil {
		record.Content = *update.Content
	}
	if update.ContentHash != nil {
		record.ContentHash = *update.ContentHash
	}
	if update.Importance != nil {
		record.Importance = *update.Importance
	}
	if update.Status != nil {
		record.Status = *update.Status
	}
	if update.VectorID != nil {
		record.VectorID = *update.VectorID
	}
	if update.Metadata != nil {
		record.Metadata = update.Metadata
	}
	if update.Context != nil {
		record.Context = update.Context
	}
	record.UpdatedAt = time.Now().UTC()
	return nil
}

func (g *fakeGateway) ListRecords(_ context.Context, filter storage.RecordFilter) ([]*types.MemoryRecord, error) {
	filter.Normalize()
	g.mu.Lock()
	defer g.mu.Unlock()

	idSet := map[string]bool{}
	if filter.IDs != nil {
		for _, id := range filter.IDs {
			idSet[id] = true
		}
	}

	out := []*types.MemoryRecord{}
	for _, record := range g.records {
		if filter.Status != "" && record.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && record.UserID() != filter.UserID {
			continue
		}
		if filter.ContentHash != "" && record.ContentHash != filter.ContentHash {
			continue
		}
		if filter.IDs != nil && !idSet[record.ID] {
			continue
		}
		clone := *record
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (g *fakeGateway) TouchRecord(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	record, ok := g.records[id]
	if !ok {
		return storage.ErrNotFound
	}
	record.AccessCount++
	now := time.Now().UTC()
	record.LastAccessedAt = &now
	return nil
}

func (g *fakeGateway) FindConceptByName(_ context.Context, name string) (*types.Concept, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, concept := range g.concepts {
		if concept.Name == name {
			return concept, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (g *fakeGateway) CreateConcept(_ context.Context, concept *types.Concept) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.concepts[concept.ID] = concept
	return nil
}

func (g *fakeGateway) LinkConcept(_ context.Context, recordID, conceptID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.links[recordID] == nil {
		g.links[recordID] = map[string]bool{}
	}
	g.links[recordID][conceptID] = true
	return nil
}

func (g *fakeGateway) ClearConcepts(_ context.Context, recordID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.links, recordID)
	return nil
}

func (g *fakeGateway) GetConcepts(_ context.Context, recordID string) ([]*types.Concept, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []*types.Concept{}
	for conceptID := range g.links[recordID] {
		if concept, ok := g.concepts[conceptID]; ok {
			out = append(out, concept)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (g *fakeGateway) CreateRelationship(_ context.Context, rel *types.Relationship) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	clone := *rel
	g.relationships[rel.ID] = &clone
	return nil
}

func (g *fakeGateway) GetRelationships(_ context.Context, recordID string) ([]*types.Relationship, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []*types.Relationship{}
	for _, rel := range g.relationships {
		if rel.Touches(recordID) {
			clone := *rel
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *fakeGateway) DeleteRelationship(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.relationships[id]; !ok {
		return storage.ErrNotFound
	}
	delete(g.relationships, id)
	return nil
}

func (g *fakeGateway) CreateMergeAudit(_ context.Context, entry *types.MergeAuditEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.audits = append(g.audits, entry)
	return nil
}

func (g *fakeGateway) CountRecords(_ context.Context) (map[types.RecordStatus]int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	counts := map[types.RecordStatus]int{}
	for _, record := range g.records {
		counts[record.Status]++
	}
	return counts, nil
}

func (g *fakeGateway) CountRelationships(_ context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.relationships), nil
}

func (g *fakeGateway) CountConcepts(_ context.Context) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.concepts), nil
}

func (g *fakeGateway) AverageImportance(_ context.Context) (float64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	sum, n := 0, 0
	for _, record := range g.records {
		if record.Status == types.StatusActive {
			sum += record.Importance
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float64(sum) / float64(n), nil
}

func (g *fakeGateway) MostActiveUsers(_ context.Context, n int) ([]storage.UserCount, error) {
	return []storage.UserCount{}, nil
}

func (g *fakeGateway) TopProjects(_ context.Context, n int) ([]storage.ProjectCount, error) {
	return []storage.ProjectCount{}, nil
}

func (g *fakeGateway) ConceptDistribution(_ context.Context) ([]storage.ConceptCount, error) {
	return []storage.ConceptCount{}, nil
}

func (g *fakeGateway) Close() error { return nil }

// relationshipsBetween returns edges joining a and b in either orientation.
func (g *fakeGateway) relationshipsBetween(a, b string) []*types.Relationship {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := []*types.Relationship{}
	for _, rel := range g.relationships {
		if (rel.SourceID == a && rel.TargetID == b) || (rel.SourceID == b && rel.TargetID == a) {
			out = append(out, rel)
		}
	}
	return out
}

// fakeIndex is a substring-matching similarity index for engine tests.
// Similarity is 1.0 when one content contains the other, else 0.
type fakeIndex struct {
	mu      sync.Mutex
	vectors map[string]fakeVector // vectorID -> entry
	nextID  int

	indexErr  error
	updateErr error
}

type fakeVector struct {
	memoryID string
	content  string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{vectors: map[string]fakeVector{}}
}

func (f *fakeIndex) IndexMemory(_ context.Context, memoryID, content string, _ map[string]interface{}) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.indexErr != nil {
		return "", f.indexErr
	}
	f.nextID++
	vectorID := "vec:" + string(rune('a'+f.nextID))
	f.vectors[vectorID] = fakeVector{memoryID: memoryID, content: content}
	return vectorID, nil
}

func (f *fakeIndex) FindSimilar(_ context.Context, text string, threshold float64, limit int) ([]vector.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	matches := []vector.Match{}
	for _, v := range f.vectors {
		if strings.Contains(v.content, text) || strings.Contains(text, v.content) {
			if 1.0 >= threshold {
				matches = append(matches, vector.Match{MemoryID: v.memoryID, Similarity: 1.0, Content: v.content})
			}
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].MemoryID < matches[j].MemoryID })
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (f *fakeIndex) UpdateVector(_ context.Context, vectorID, content string, _ map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	v, ok := f.vectors[vectorID]
	if !ok {
		return vector.ErrVectorNotFound
	}
	v.content = content
	f.vectors[vectorID] = v
	return nil
}
