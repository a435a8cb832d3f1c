package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallhq/recall/pkg/types"
)

// storeThree seeds primary, s1, s2 with distinct content and importance.
func storeThree(t *testing.T, e *Engine) (*types.MemoryNode, *types.MemoryNode, *types.MemoryNode) {
	t.Helper()
	ctx := context.Background()

	p, err := e.StoreMemory(ctx, StoreOptions{Content: "A", Importance: 2})
	require.NoError(t, err)
	s1, err := e.StoreMemory(ctx, StoreOptions{Content: "B", Importance: 5})
	require.NoError(t, err)
	s2, err := e.StoreMemory(ctx, StoreOptions{Content: "C", Importance: 3})
	require.NoError(t, err)
	return p, s1, s2
}

func TestMergeCombineContent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, s1, s2 := storeThree(t, e)

	node, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
		Strategy:     types.MergeCombine,
	})
	require.NoError(t, err)

	assert.Equal(t, "A\n\n---\n\nB\n\n---\n\nC", node.Record.Content)
}

func TestMergeAppendContent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	p, err := e.StoreMemory(ctx, StoreOptions{Content: "Intro"})
	require.NoError(t, err)
	s1, err := e.StoreMemory(ctx, StoreOptions{Content: "Body1"})
	require.NoError(t, err)
	s2, err := e.StoreMemory(ctx, StoreOptions{Content: "Body2"})
	require.NoError(t, err)

	node, err := e.MergeMemories(ctx, MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
		Strategy:     types.MergeAppend,
	})
	require.NoError(t, err)

	assert.Equal(t, "Intro\n\nBody1\n\nBody2", node.Record.Content)
}

func TestMergeReplaceContent(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, s1, s2 := storeThree(t, e)

	node, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
		Strategy:     types.MergeReplace,
	})
	require.NoError(t, err)

	assert.Equal(t, "A", node.Record.Content)
}

func TestMergeImportanceIsMax(t *testing.T) {
	for _, strategy := range types.ValidMergeStrategies {
		t.Run(string(strategy), func(t *testing.T) {
			e, _, _ := newTestEngine(t)
			p, s1, s2 := storeThree(t, e)

			node, err := e.MergeMemories(context.Background(), MergeOptions{
				PrimaryID:    p.Record.ID,
				SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
				Strategy:     strategy,
			})
			require.NoError(t, err)
			assert.Equal(t, 5, node.Record.Importance, "importance {2,5,3} merges to 5")
		})
	}
}

func TestMergeHashRecomputed(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, s1, s2 := storeThree(t, e)

	node, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
		Strategy:     types.MergeCombine,
	})
	require.NoError(t, err)

	assert.NotEqual(t, p.Record.ContentHash, node.Record.ContentHash)
	assert.Equal(t, types.StatusActive, node.Record.Status)
}

func TestMergeInvalidStrategy(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, s1, _ := storeThree(t, e)

	_, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID},
		Strategy:     "smoosh",
	})
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeInvalidStrategy, engErr.Code)
}

func TestMergeMissingPrimary(t *testing.T) {
	e, _, _ := newTestEngine(t)
	_, s1, _ := storeThree(t, e)

	_, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    "mem:missing",
		SecondaryIDs: []string{s1.Record.ID},
		Strategy:     types.MergeCombine,
	})
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeNotFound, engErr.Code)
}

func TestMergeMissingSecondariesListed(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, s1, _ := storeThree(t, e)

	_, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, "mem:gone1", "mem:gone2"},
		Strategy:     types.MergeCombine,
	})
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeNotFound, engErr.Code)
	assert.Contains(t, engErr.Message, "Secondary memories not found")
	assert.Contains(t, engErr.Message, "mem:gone1")
	assert.Contains(t, engErr.Message, "mem:gone2")
}

func TestMergeSecondariesRetired(t *testing.T) {
	e, gateway, _ := newTestEngine(t)
	p, s1, s2 := storeThree(t, e)
	ctx := context.Background()

	_, err := e.MergeMemories(ctx, MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
		Strategy:     types.MergeCombine,
	})
	require.NoError(t, err)

	for _, id := range []string{s1.Record.ID, s2.Record.ID} {
		record, err := gateway.GetRecord(ctx, id)
		require.NoError(t, err, "secondaries are marked, never deleted")
		assert.Equal(t, types.StatusMerged, record.Status)
		assert.Equal(t, p.Record.ID, record.Metadata[types.MetaMergedInto])
		assert.Equal(t, string(types.MergeCombine), record.Metadata[types.MetaMergeStrategy])
		assert.NotEmpty(t, record.Metadata[types.MetaMergedAt])
	}

	// Terminality: merged records vanish from active-only retrieval.
	nodes, err := e.RetrieveMemories(ctx, RetrieveOptions{Limit: 10})
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, p.Record.ID, nodes[0].Record.ID)
}

func TestMergeConceptsDedupByNameKeepHigherConfidence(t *testing.T) {
	e, gateway, _ := newTestEngine(t)
	ctx := context.Background()

	p, err := e.StoreMemory(ctx, StoreOptions{Content: "primary", Concepts: []string{"shared", "only-primary"}})
	require.NoError(t, err)
	s, err := e.StoreMemory(ctx, StoreOptions{Content: "secondary", Concepts: []string{"shared", "only-secondary"}})
	require.NoError(t, err)

	node, err := e.MergeMemories(ctx, MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s.Record.ID},
		Strategy:     types.MergeCombine,
	})
	require.NoError(t, err)

	names := map[string]int{}
	for _, c := range node.Concepts {
		names[c.Name]++
	}
	assert.Equal(t, 1, names["shared"], "name collision deduplicated")
	assert.Equal(t, 1, names["only-primary"])
	assert.Equal(t, 1, names["only-secondary"])

	linked, err := gateway.GetConcepts(ctx, p.Record.ID)
	require.NoError(t, err)
	assert.Len(t, linked, 3, "primary relinked with the full merged set")
}

func TestMergeMetadataDeepMerge(t *testing.T) {
	tests := []struct {
		name   string
		inputs []map[string]interface{}
		want   map[string]interface{}
	}{
		{
			name: "first seen wins without conflict",
			inputs: []map[string]interface{}{
				{"source": "cli"},
				{"channel": "web"},
			},
			want: map[string]interface{}{"source": "cli", "channel": "web"},
		},
		{
			name: "scalar conflict accumulates distinct values",
			inputs: []map[string]interface{}{
				{"source": "cli"},
				{"source": "web"},
			},
			want: map[string]interface{}{"source": []interface{}{"cli", "web"}},
		},
		{
			name: "equal scalars stay scalar",
			inputs: []map[string]interface{}{
				{"source": "cli"},
				{"source": "cli"},
			},
			want: map[string]interface{}{"source": "cli"},
		},
		{
			name: "arrays union with dedup",
			inputs: []map[string]interface{}{
				{"tags": []interface{}{"a", "b"}},
				{"tags": []interface{}{"b", "c"}},
			},
			want: map[string]interface{}{"tags": []interface{}{"a", "b", "c"}},
		},
		{
			name: "nested objects merge recursively",
			inputs: []map[string]interface{}{
				{"meta": map[string]interface{}{"x": 1}},
				{"meta": map[string]interface{}{"y": 2}},
			},
			want: map[string]interface{}{"meta": map[string]interface{}{"x": 1, "y": 2}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deepMergeMetadata(tt.inputs))
		})
	}
}

func TestMergeRedirectsRelationships(t *testing.T) {
	e, gateway, _ := newTestEngine(t)
	ctx := context.Background()

	p, err := e.StoreMemory(ctx, StoreOptions{Content: "primary record"})
	require.NoError(t, err)
	s, err := e.StoreMemory(ctx, StoreOptions{Content: "secondary record"})
	require.NoError(t, err)
	x, err := e.StoreMemory(ctx, StoreOptions{Content: "external record"})
	require.NoError(t, err)

	original, err := e.CreateConnection(ctx, ConnectionOptions{
		SourceID: s.Record.ID,
		TargetID: x.Record.ID,
		Type:     types.RelCausal,
		Strength: 0.7,
	})
	require.NoError(t, err)

	_, err = e.MergeMemories(ctx, MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s.Record.ID},
		Strategy:     types.MergeReplace,
	})
	require.NoError(t, err)

	redirected := gateway.relationshipsBetween(p.Record.ID, x.Record.ID)
	require.Len(t, redirected, 1, "edge rewritten onto the primary")
	assert.Equal(t, types.RelCausal, redirected[0].Type)
	assert.Equal(t, 0.7, redirected[0].Strength)
	assert.Equal(t, original.ID, redirected[0].Metadata[types.MetaRedirectedFrom])
	assert.NotEmpty(t, redirected[0].Metadata[types.MetaRedirectedAt])

	assert.Empty(t, gateway.relationshipsBetween(s.Record.ID, x.Record.ID),
		"original secondary edge deleted")
}

func TestMergeRedirectionDedup(t *testing.T) {
	e, gateway, _ := newTestEngine(t)
	ctx := context.Background()

	p, err := e.StoreMemory(ctx, StoreOptions{Content: "primary record"})
	require.NoError(t, err)
	s, err := e.StoreMemory(ctx, StoreOptions{Content: "secondary record"})
	require.NoError(t, err)
	x, err := e.StoreMemory(ctx, StoreOptions{Content: "shared neighbor"})
	require.NoError(t, err)

	// P already has an equivalent edge to X.
	_, err = e.CreateConnection(ctx, ConnectionOptions{
		SourceID:      p.Record.ID,
		TargetID:      x.Record.ID,
		Type:          types.RelConceptual,
		Bidirectional: true,
	})
	require.NoError(t, err)
	_, err = e.CreateConnection(ctx, ConnectionOptions{
		SourceID:      s.Record.ID,
		TargetID:      x.Record.ID,
		Type:          types.RelConceptual,
		Bidirectional: true,
	})
	require.NoError(t, err)

	_, err = e.MergeMemories(ctx, MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s.Record.ID},
		Strategy:     types.MergeReplace,
	})
	require.NoError(t, err)

	assert.Len(t, gateway.relationshipsBetween(p.Record.ID, x.Record.ID), 1,
		"no duplicate edge created")
	assert.Empty(t, gateway.relationshipsBetween(s.Record.ID, x.Record.ID),
		"secondary's edge removed")
}

func TestMergeDropsPrimarySecondaryEdge(t *testing.T) {
	e, gateway, _ := newTestEngine(t)
	ctx := context.Background()

	p, err := e.StoreMemory(ctx, StoreOptions{Content: "primary record"})
	require.NoError(t, err)
	s, err := e.StoreMemory(ctx, StoreOptions{Content: "secondary record"})
	require.NoError(t, err)

	_, err = e.CreateConnection(ctx, ConnectionOptions{
		SourceID: p.Record.ID,
		TargetID: s.Record.ID,
		Type:     types.RelTemporal,
	})
	require.NoError(t, err)

	_, err = e.MergeMemories(ctx, MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s.Record.ID},
		Strategy:     types.MergeReplace,
	})
	require.NoError(t, err)

	assert.Empty(t, gateway.relationshipsBetween(p.Record.ID, s.Record.ID),
		"edge between primary and secondary collapses and is removed")
}

func TestMergeWritesAudit(t *testing.T) {
	e, gateway, _ := newTestEngine(t)
	p, s1, s2 := storeThree(t, e)

	_, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID, s2.Record.ID},
		Strategy:     types.MergeAppend,
		Actor:        "admin",
	})
	require.NoError(t, err)

	require.Len(t, gateway.audits, 1)
	audit := gateway.audits[0]
	assert.Equal(t, p.Record.ID, audit.PrimaryID)
	assert.Equal(t, []string{s1.Record.ID, s2.Record.ID}, audit.MergedIDs)
	assert.Equal(t, types.MergeAppend, audit.Strategy)
	assert.Equal(t, "admin", audit.Actor)
}

func TestMergeRefreshesVectorInPlace(t *testing.T) {
	e, _, index := newTestEngine(t)
	p, s1, _ := storeThree(t, e)

	node, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID},
		Strategy:     types.MergeCombine,
	})
	require.NoError(t, err)

	assert.Equal(t, p.Record.VectorID, node.Record.VectorID, "no new vector ID")

	index.mu.Lock()
	defer index.mu.Unlock()
	assert.Equal(t, node.Record.Content, index.vectors[p.Record.VectorID].content)
}

func TestMergeSurvivesVectorRefreshFailure(t *testing.T) {
	e, _, index := newTestEngine(t)
	p, s1, _ := storeThree(t, e)

	index.mu.Lock()
	index.updateErr = assert.AnError
	index.mu.Unlock()

	_, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{s1.Record.ID},
		Strategy:     types.MergeCombine,
	})
	assert.NoError(t, err, "vector refresh is best-effort")
}

func TestMergePrimaryInSecondaries(t *testing.T) {
	e, _, _ := newTestEngine(t)
	p, _, _ := storeThree(t, e)

	_, err := e.MergeMemories(context.Background(), MergeOptions{
		PrimaryID:    p.Record.ID,
		SecondaryIDs: []string{p.Record.ID},
		Strategy:     types.MergeCombine,
	})
	var engErr *Error
	require.ErrorAs(t, err, &engErr)
	assert.Equal(t, CodeInvalidInput, engErr.Code)
}
