package sqlite

import (
	"context"
	"fmt"

	"github.com/recallhq/recall/internal/storage"
	"github.com/recallhq/recall/pkg/types"
)

// CountRecords returns the total number of records grouped by status.
func (g *Gateway) CountRecords(ctx context.Context) (map[types.RecordStatus]int, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM memories GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to count records: %w", err)
	}
	defer rows.Close()

	counts := map[types.RecordStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan record count: %w", err)
		}
		counts[types.RecordStatus(status)] = count
	}
	return counts, rows.Err()
}

// CountRelationships returns the total number of relationships.
func (g *Gateway) CountRelationships(ctx context.Context) (int, error) {
	var count int
	err := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM relationships`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to count relationships: %w", err)
	}
	return count, nil
}

// CountConcepts returns the total number of concepts.
func (g *Gateway) CountConcepts(ctx context.Context) (int, error) {
	var count int
	err := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM concepts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to count concepts: %w", err)
	}
	return count, nil
}

// AverageImportance returns the mean importance across active records.
func (g *Gateway) AverageImportance(ctx context.Context) (float64, error) {
	var avg float64
	err := g.db.QueryRowContext(ctx, `
		SELECT COALESCE(AVG(importance), 0) FROM memories WHERE status = 'active'
	`).Scan(&avg)
	if err != nil {
		return 0, fmt.Errorf("sqlite: failed to compute average importance: %w", err)
	}
	return avg, nil
}

// MostActiveUsers returns up to n owners ranked by record count.
func (g *Gateway) MostActiveUsers(ctx context.Context, n int) ([]storage.UserCount, error) {
	if n < 1 {
		n = 5
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT json_extract(context, '$.user_id') AS user_id, COUNT(*) AS cnt
		FROM memories
		WHERE json_extract(context, '$.user_id') IS NOT NULL
		GROUP BY user_id
		ORDER BY cnt DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query active users: %w", err)
	}
	defer rows.Close()

	users := []storage.UserCount{}
	for rows.Next() {
		var uc storage.UserCount
		if err := rows.Scan(&uc.UserID, &uc.Count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan user count: %w", err)
		}
		users = append(users, uc)
	}
	return users, rows.Err()
}

// TopProjects returns up to n projects ranked by record count.
func (g *Gateway) TopProjects(ctx context.Context, n int) ([]storage.ProjectCount, error) {
	if n < 1 {
		n = 5
	}

	rows, err := g.db.QueryContext(ctx, `
		SELECT json_extract(context, '$.project') AS project, COUNT(*) AS cnt
		FROM memories
		WHERE json_extract(context, '$.project') IS NOT NULL
		GROUP BY project
		ORDER BY cnt DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query top projects: %w", err)
	}
	defer rows.Close()

	projects := []storage.ProjectCount{}
	for rows.Next() {
		var pc storage.ProjectCount
		if err := rows.Scan(&pc.Project, &pc.Count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan project count: %w", err)
		}
		projects = append(projects, pc)
	}
	return projects, rows.Err()
}

// ConceptDistribution returns per-concept link counts, most linked first.
func (g *Gateway) ConceptDistribution(ctx context.Context) ([]storage.ConceptCount, error) {
	rows, err := g.db.QueryContext(ctx, `
		SELECT c.name, COUNT(mc.memory_id) AS cnt
		FROM concepts c
		LEFT JOIN memory_concepts mc ON mc.concept_id = c.id
		GROUP BY c.id
		ORDER BY cnt DESC, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to query concept distribution: %w", err)
	}
	defer rows.Close()

	dist := []storage.ConceptCount{}
	for rows.Next() {
		var cc storage.ConceptCount
		if err := rows.Scan(&cc.Name, &cc.Count); err != nil {
			return nil, fmt.Errorf("sqlite: failed to scan concept count: %w", err)
		}
		dist = append(dist, cc)
	}
	return dist, rows.Err()
}
