package engine

import "context"

// GetStats aggregates system-wide counts from the gateway.
func (e *Engine) GetStats(ctx context.Context) (*Stats, error) {
	byStatus, err := e.gateway.CountRecords(ctx)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, count := range byStatus {
		total += count
	}

	relationships, err := e.gateway.CountRelationships(ctx)
	if err != nil {
		return nil, err
	}
	concepts, err := e.gateway.CountConcepts(ctx)
	if err != nil {
		return nil, err
	}
	avgImportance, err := e.gateway.AverageImportance(ctx)
	if err != nil {
		return nil, err
	}
	users, err := e.gateway.MostActiveUsers(ctx, 5)
	if err != nil {
		return nil, err
	}
	projects, err := e.gateway.TopProjects(ctx, 5)
	if err != nil {
		return nil, err
	}
	distribution, err := e.gateway.ConceptDistribution(ctx)
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalRecords:        total,
		RecordsByStatus:     byStatus,
		TotalRelationships:  relationships,
		TotalConcepts:       concepts,
		AverageImportance:   avgImportance,
		MostActiveUsers:     users,
		TopProjects:         projects,
		ConceptDistribution: distribution,
	}, nil
}
