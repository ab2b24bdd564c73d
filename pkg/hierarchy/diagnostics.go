package hierarchy

import (
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// DropReason says why Build left a cluster out of the forest.
type DropReason string

// Drop reasons.
const (
	DropMissingParent DropReason = "missing_parent"
	DropCycle         DropReason = "cycle"
	DropDuplicate     DropReason = "duplicate_uid"
)

// DroppedCluster is a cluster that Build does not place in the forest.
type DroppedCluster struct {
	Cluster core.Cluster
	Reason  DropReason
	// MissingUID is the first absent uid on the ancestor chain, set for DropMissingParent
	MissingUID string
}

// Dropped reports the clusters that Build omits: duplicate uids first, then
// unreachable clusters in input order. It does not
// alter what Build returns; callers use it to surface a diagnostic for data
// that would otherwise vanish silently.
func Dropped(clusters []core.Cluster) []DroppedCluster {
	byUID := make(map[string]core.Cluster, len(clusters))
	var out []DroppedCluster
	for _, c := range clusters {
		if _, dup := byUID[c.UID]; dup {
			out = append(out, DroppedCluster{Cluster: c, Reason: DropDuplicate})
			continue
		}
		byUID[c.UID] = c
	}

	// verdicts caches, per uid, whether the ancestor chain reaches a root
	verdicts := make(map[string]verdict)
	seenFirst := make(map[string]bool)
	for _, c := range clusters {
		if seenFirst[c.UID] {
			continue
		}
		seenFirst[c.UID] = true

		v := classify(c, byUID, verdicts)
		if v.reason != "" {
			out = append(out, DroppedCluster{Cluster: c, Reason: v.reason, MissingUID: v.missing})
		}
	}
	return out
}

type verdict struct {
	reason  DropReason
	missing string
}

func classify(c core.Cluster, byUID map[string]core.Cluster, verdicts map[string]verdict) verdict {
	var chain []string
	onChain := make(map[string]bool)
	current := c
	for {
		if v, known := verdicts[current.UID]; known {
			return settle(verdicts, chain, v)
		}
		if onChain[current.UID] {
			return settle(verdicts, chain, verdict{reason: DropCycle})
		}
		onChain[current.UID] = true
		chain = append(chain, current.UID)

		if current.ParentUID == "" {
			return settle(verdicts, chain, verdict{})
		}
		parent, ok := byUID[current.ParentUID]
		if !ok {
			return settle(verdicts, chain, verdict{reason: DropMissingParent, missing: current.ParentUID})
		}
		current = parent
	}
}

func settle(verdicts map[string]verdict, uids []string, v verdict) verdict {
	for _, id := range uids {
		verdicts[id] = v
	}
	return v
}
