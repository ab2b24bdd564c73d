package state

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Stats counts every entity and the per-tag area usage.
func (s *SQLiteStore) Stats(ctx context.Context) (core.Stats, error) {
	if s.db == nil {
		return core.Stats{}, ErrNotOpen
	}

	var st core.Stats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM clusters`, &st.TotalClusters},
		{`SELECT COUNT(*) FROM clusters WHERE status = 'active'`, &st.ActiveClusters},
		{`SELECT COUNT(*) FROM areas`, &st.TotalAreas},
		{`SELECT COUNT(*) FROM areas WHERE status = 'active'`, &st.ActiveAreas},
		{`SELECT COUNT(*) FROM tags`, &st.TotalTags},
		{`SELECT COUNT(*) FROM tags WHERE status = 'active'`, &st.ActiveTags},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return core.Stats{}, fmt.Errorf("failed to count: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `SELECT tag_slug, COUNT(*) FROM area_tags GROUP BY tag_slug`)
	if err != nil {
		return core.Stats{}, fmt.Errorf("failed to count tag usage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	st.TagUsage = make(map[string]int)
	for rows.Next() {
		var (
			slug string
			n    int
		)
		if err := rows.Scan(&slug, &n); err != nil {
			return core.Stats{}, fmt.Errorf("failed to scan tag usage: %w", err)
		}
		st.TagUsage[slug] = n
	}
	if err := rows.Err(); err != nil {
		return core.Stats{}, fmt.Errorf("failed to iterate tag usage: %w", err)
	}
	return st, nil
}
