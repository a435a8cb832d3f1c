package engine

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/recallhq/recall/internal/analyzer"
	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// MergeMemories absorbs the secondary records into the primary according to
// the strategy, reconciling content, importance, metadata, concepts, and
// relationships. Secondaries are retired with status merged, never deleted.
// Merges against the same primary serialize on a per-primary mutex.
func (e *Engine) MergeMemories(ctx context.Context, opts MergeOptions) (*types.MemoryNode, error) {
	if opts.PrimaryID == "" {
		return nil, invalidInput("primary ID is required")
	}
	if len(opts.SecondaryIDs) == 0 {
		return nil, invalidInput("at least one secondary ID is required")
	}
	for _, id := range opts.SecondaryIDs {
		if id == opts.PrimaryID {
			return nil, invalidInput("primary %s cannot be merged into itself", id)
		}
	}
	if !types.IsValidMergeStrategy(opts.Strategy) {
		return nil, invalidStrategy(string(opts.Strategy))
	}

	mu := e.mergeLocks.lock(opts.PrimaryID)
	defer mu.Unlock()

	primary, secondaries, err := e.fetchMergeInputs(ctx, opts.PrimaryID, opts.SecondaryIDs)
	if err != nil {
		return nil, err
	}

	// Fetch concept sets for all inputs concurrently.
	conceptSets, err := e.fetchConceptSets(ctx, primary, secondaries)
	if err != nil {
		return nil, err
	}

	mergedContent := mergeContent(opts.Strategy, primary, secondaries)
	mergedImportance := primary.Importance
	for _, s := range secondaries {
		if s.Importance > mergedImportance {
			mergedImportance = s.Importance
		}
	}

	inputs := append([]*types.MemoryRecord{primary}, secondaries...)
	metadataInputs := make([]map[string]interface{}, 0, len(inputs))
	for _, r := range inputs {
		metadataInputs = append(metadataInputs, r.Metadata)
	}
	mergedMetadata := deepMergeMetadata(metadataInputs)

	mergedConcepts := mergeConcepts(conceptSets)

	// Update the primary: content, hash, importance, metadata, forced
	// active.
	mergedHash := analyzer.HashContent(mergedContent)
	activeStatus := types.StatusActive
	update := storage.RecordUpdate{
		Content:     &mergedContent,
		ContentHash: &mergedHash,
		Importance:  &mergedImportance,
		Status:      &activeStatus,
		Metadata:    mergedMetadata,
	}
	if err := e.gateway.UpdateRecord(ctx, primary.ID, update); err != nil {
		return nil, err
	}
	primary.Content = mergedContent
	primary.ContentHash = mergedHash
	primary.Importance = mergedImportance
	primary.Status = types.StatusActive
	primary.Metadata = mergedMetadata

	// Relink the full deduplicated concept set.
	if err := e.gateway.ClearConcepts(ctx, primary.ID); err != nil {
		return nil, err
	}
	for _, concept := range mergedConcepts {
		if err := e.gateway.LinkConcept(ctx, primary.ID, concept.ID); err != nil {
			return nil, err
		}
	}

	// Refresh the embedding in place when the primary is already indexed.
	// Best-effort, like every post-commit enrichment step.
	if primary.VectorID != "" && e.index != nil {
		if err := e.index.UpdateVector(ctx, primary.VectorID, mergedContent, primary.Context); err != nil {
			log.Printf("WARNING: engine: failed to refresh vector for %s: %v", primary.ID, err)
		}
	}

	now := time.Now().UTC()
	for _, secondary := range secondaries {
		if err := e.retireSecondary(ctx, secondary, primary.ID, opts.Strategy, now); err != nil {
			return nil, err
		}
		if err := e.redirectRelationships(ctx, secondary, primary, now); err != nil {
			return nil, err
		}
	}

	// Audit is best-effort: a failed audit write never undoes the merge.
	audit := &types.MergeAuditEntry{
		ID:        newAuditID(),
		PrimaryID: primary.ID,
		MergedIDs: opts.SecondaryIDs,
		Strategy:  opts.Strategy,
		Actor:     opts.Actor,
		CreatedAt: now,
	}
	if err := e.gateway.CreateMergeAudit(ctx, audit); err != nil {
		log.Printf("WARNING: engine: failed to write merge audit for %s: %v", primary.ID, err)
	}

	return &types.MemoryNode{Record: primary, Concepts: mergedConcepts}, nil
}

// fetchMergeInputs loads the primary and all secondaries concurrently.
// A missing primary is NOT_FOUND; missing secondaries fail with an error
// listing every missing ID.
func (e *Engine) fetchMergeInputs(ctx context.Context, primaryID string, secondaryIDs []string) (*types.MemoryRecord, []*types.MemoryRecord, error) {
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		primary    *types.MemoryRecord
		primaryErr error
		missing    []string
		fetchErr   error
	)

	secondaries := make([]*types.MemoryRecord, len(secondaryIDs))

	wg.Add(1)
	go func() {
		defer wg.Done()
		primary, primaryErr = e.gateway.GetRecord(ctx, primaryID)
	}()

	for i, id := range secondaryIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			record, err := e.gateway.GetRecord(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				secondaries[i] = record
			case errors.Is(err, storage.ErrNotFound):
				missing = append(missing, id)
			default:
				fetchErr = err
			}
		}(i, id)
	}
	wg.Wait()

	if primaryErr != nil {
		if errors.Is(primaryErr, storage.ErrNotFound) {
			return nil, nil, notFound("memory %s does not exist", primaryID)
		}
		return nil, nil, primaryErr
	}
	if fetchErr != nil {
		return nil, nil, fetchErr
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, nil, notFound("Secondary memories not found: %s", strings.Join(missing, ", "))
	}

	return primary, secondaries, nil
}

// fetchConceptSets loads concepts for the primary and all secondaries
// concurrently, primary first.
func (e *Engine) fetchConceptSets(ctx context.Context, primary *types.MemoryRecord, secondaries []*types.MemoryRecord) ([][]*types.Concept, error) {
	records := append([]*types.MemoryRecord{primary}, secondaries...)
	sets := make([][]*types.Concept, len(records))
	errs := make([]error, len(records))

	var wg sync.WaitGroup
	for i, record := range records {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			sets[i], errs[i] = e.gateway.GetConcepts(ctx, id)
		}(i, record.ID)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return sets, nil
}

// mergeContent combines record contents per the strategy. Strategy validity
// is checked by the caller.
func mergeContent(strategy types.MergeStrategy, primary *types.MemoryRecord, secondaries []*types.MemoryRecord) string {
	switch strategy {
	case types.MergeReplace:
		return primary.Content
	case types.MergeCombine:
		parts := []string{primary.Content}
		for _, s := range secondaries {
			parts = append(parts, s.Content)
		}
		return strings.Join(parts, "\n\n---\n\n")
	case types.MergeAppend:
		parts := []string{primary.Content}
		for _, s := range secondaries {
			parts = append(parts, s.Content)
		}
		return strings.Join(parts, "\n\n")
	default:
		return primary.Content
	}
}

// mergeConcepts deduplicates concept sets by name, keeping the entry with
// higher confidence on collision. Input order is preserved for first
// appearances.
func mergeConcepts(sets [][]*types.Concept) []*types.Concept {
	byName := map[string]int{}
	merged := []*types.Concept{}

	for _, set := range sets {
		for _, concept := range set {
			if idx, ok := byName[concept.Name]; ok {
				if concept.Confidence > merged[idx].Confidence {
					merged[idx] = concept
				}
				continue
			}
			byName[concept.Name] = len(merged)
			merged = append(merged, concept)
		}
	}
	return merged
}

// deepMergeMetadata merges metadata objects recursively: non-conflicting
// keys take the first-seen value; scalar conflicts accumulate into an array
// of distinct values; arrays union with deduplication; nested objects merge
// recursively.
func deepMergeMetadata(inputs []map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}

	for _, input := range inputs {
		for key, value := range input {
			existing, ok := merged[key]
			if !ok {
				merged[key] = value
				continue
			}
			merged[key] = mergeValues(existing, value)
		}
	}
	return merged
}

func mergeValues(a, b interface{}) interface{} {
	aMap, aIsMap := a.(map[string]interface{})
	bMap, bIsMap := b.(map[string]interface{})
	if aIsMap && bIsMap {
		return deepMergeMetadata([]map[string]interface{}{aMap, bMap})
	}

	aArr, aIsArr := a.([]interface{})
	bArr, bIsArr := b.([]interface{})
	switch {
	case aIsArr && bIsArr:
		return unionValues(aArr, bArr)
	case aIsArr:
		return unionValues(aArr, []interface{}{b})
	case bIsArr:
		return unionValues([]interface{}{a}, bArr)
	}

	if a == b {
		return a
	}
	return []interface{}{a, b}
}

// unionValues concatenates two arrays, dropping duplicates of comparable
// values. Uncomparable values (nested maps/slices) are kept as-is.
func unionValues(a, b []interface{}) []interface{} {
	seen := map[interface{}]bool{}
	out := []interface{}{}

	add := func(v interface{}) {
		switch v.(type) {
		case map[string]interface{}, []interface{}:
			out = append(out, v)
		default:
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	for _, v := range a {
		add(v)
	}
	for _, v := range b {
		add(v)
	}
	return out
}

// retireSecondary marks a secondary merged and stamps its metadata with the
// merge provenance.
func (e *Engine) retireSecondary(ctx context.Context, secondary *types.MemoryRecord, primaryID string, strategy types.MergeStrategy, now time.Time) error {
	metadata := map[string]interface{}{}
	for k, v := range secondary.Metadata {
		metadata[k] = v
	}
	metadata[types.MetaMergedInto] = primaryID
	metadata[types.MetaMergedAt] = now.Format(time.RFC3339)
	metadata[types.MetaMergeStrategy] = string(strategy)

	mergedStatus := types.StatusMerged
	return e.gateway.UpdateRecord(ctx, secondary.ID, storage.RecordUpdate{
		Status:   &mergedStatus,
		Metadata: metadata,
	})
}

// redirectRelationships rewrites each of the secondary's edges to point at
// the primary. Edges that become self-referential after substitution, or
// that duplicate an existing edge touching the primary, are dropped without
// a replacement. Originals are always deleted.
func (e *Engine) redirectRelationships(ctx context.Context, secondary, primary *types.MemoryRecord, now time.Time) error {
	rels, err := e.gateway.GetRelationships(ctx, secondary.ID)
	if err != nil {
		return err
	}
	if len(rels) == 0 {
		return nil
	}

	primaryRels, err := e.gateway.GetRelationships(ctx, primary.ID)
	if err != nil {
		return err
	}

	for _, rel := range rels {
		newSource := rel.SourceID
		newTarget := rel.TargetID
		if newSource == secondary.ID {
			newSource = primary.ID
		}
		if newTarget == secondary.ID {
			newTarget = primary.ID
		}

		// An edge between the primary and the secondary collapses onto
		// itself after substitution.
		selfReferential := newSource == newTarget

		duplicate := false
		if !selfReferential {
			for _, existing := range primaryRels {
				if existing.ConnectsSamePair(newSource, newTarget, rel.Bidirectional) {
					duplicate = true
					break
				}
			}
		}

		if !selfReferential && !duplicate {
			metadata := map[string]interface{}{}
			for k, v := range rel.Metadata {
				metadata[k] = v
			}
			metadata[types.MetaRedirectedFrom] = rel.ID
			metadata[types.MetaRedirectedAt] = now.Format(time.RFC3339)

			redirected := &types.Relationship{
				ID:            newRelationshipID(),
				SourceID:      newSource,
				TargetID:      newTarget,
				Type:          rel.Type,
				Strength:      rel.Strength,
				Bidirectional: rel.Bidirectional,
				Metadata:      metadata,
				CreatedAt:     now,
				UpdatedAt:     now,
			}
			if err := e.gateway.CreateRelationship(ctx, redirected); err != nil {
				return err
			}
			primaryRels = append(primaryRels, redirected)
		}

		if err := e.gateway.DeleteRelationship(ctx, rel.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	return nil
}
