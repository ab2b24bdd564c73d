package filter

import (
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// WithAncestors returns kept plus every ancestor of a kept cluster found in
// all, in the order of all. Tree views use it after a search so a matching
// cluster stays attached to its root. Ancestors added this way are context:
// their areas are not added back.
func WithAncestors(all, kept []core.Cluster) []core.Cluster {
	want := make(map[string]bool, len(kept))
	for _, c := range kept {
		want[c.UID] = true
	}
	for _, c := range kept {
		for _, a := range hierarchy.Ancestors(all, c.UID) {
			want[a.UID] = true
		}
	}

	out := make([]core.Cluster, 0, len(want))
	added := make(map[string]bool, len(want))
	for _, c := range all {
		if want[c.UID] && !added[c.UID] {
			added[c.UID] = true
			out = append(out, c)
		}
	}
	return out
}
