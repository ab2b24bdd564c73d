package common

import (
	"github.com/leapstack-labs/taxonomy/internal/ui/views"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// BuildTreeRows builds the forest of clusters and areas and flattens it into
// the visible rows. Nodes in collapsed keep their children hidden.
func BuildTreeRows(clusters []core.Cluster, areas []core.Area, tags map[string]core.Tag, collapsed map[string]bool) []views.TreeRow {
	roots := hierarchy.BuildWithAreas(clusters, areas)

	expanded := make(map[string]bool)
	hierarchy.Walk(roots, func(n *hierarchy.Node, _ int) bool {
		expanded[n.UID()] = !collapsed[n.UID()]
		return true
	})

	flat := hierarchy.Flatten(roots, expanded)
	rows := make([]views.TreeRow, 0, len(flat))
	for _, r := range flat {
		c := r.Node.Cluster
		row := views.TreeRow{
			UID:         c.UID,
			Name:        c.Name,
			Path:        c.Path,
			Depth:       r.Depth,
			Status:      c.Status,
			Effective:   r.EffectiveStatus,
			Inherited:   r.Inherited,
			HasChildren: len(r.Node.Children) > 0,
			Expanded:    r.Expanded,
			AreaCount:   len(r.Node.Areas),
		}
		for _, a := range r.Node.Areas {
			row.Areas = append(row.Areas, views.AreaItem{
				UID:    a.UID,
				Name:   a.Name,
				Status: a.Status,
				Tags:   Chips(a.Tags, tags),
			})
		}
		rows = append(rows, row)
	}
	return rows
}
