// Package hierarchy turns flat, parent-referencing cluster records into a
// sorted forest for tree rendering and recursive traversal.
//
// Build performs a single map-then-link pass keyed by uid, so malformed
// input (self references, cycles, dangling parents) can never make it loop.
// Clusters whose ancestor chain references a uid that is not in the input
// are omitted from the forest without error; Dropped reports them.
package hierarchy

import (
	"cmp"
	"slices"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Node wraps a cluster with its children and attached areas.
type Node struct {
	Cluster  core.Cluster
	Children []*Node
	Areas    []core.Area
	// Depth is 0 for roots
	Depth int
}

// UID is a shorthand for n.Cluster.UID.
func (n *Node) UID() string {
	return n.Cluster.UID
}

// IsLeaf reports whether the node has no child clusters.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Build converts clusters into a forest of root nodes.
//
//   - a cluster with an empty ParentUID becomes a root
//   - a cluster whose parent is present is appended to that parent's Children
//   - a cluster whose parent is absent is dropped, along with its descendants
//   - roots and children at every level are stable-sorted by SortOrder
//
// The input is never mutated and every call allocates fresh nodes.
func Build(clusters []core.Cluster) []*Node {
	return BuildWithAreas(clusters, nil)
}

// BuildWithAreas is Build plus attaching each area to the node named by its
// ClusterUID. Areas referencing a cluster outside the forest are ignored.
func BuildWithAreas(clusters []core.Cluster, areas []core.Area) []*Node {
	if len(clusters) == 0 {
		return []*Node{}
	}

	byUID := make(map[string]*Node, len(clusters))
	order := make([]*Node, 0, len(clusters))
	for _, c := range clusters {
		if _, dup := byUID[c.UID]; dup {
			continue
		}
		n := &Node{Cluster: c, Children: []*Node{}}
		byUID[c.UID] = n
		order = append(order, n)
	}

	roots := []*Node{}
	for _, n := range order {
		parent := n.Cluster.ParentUID
		switch {
		case parent == "":
			roots = append(roots, n)
		case parent == n.Cluster.UID:
			// never linked: a self-parented cluster has no root ancestor
		default:
			if p, ok := byUID[parent]; ok {
				p.Children = append(p.Children, n)
			}
		}
	}

	for _, a := range areas {
		if n, ok := byUID[a.ClusterUID]; ok {
			n.Areas = append(n.Areas, a.Clone())
		}
	}

	for _, n := range order {
		sortNodes(n.Children)
		slices.SortStableFunc(n.Areas, func(a, b core.Area) int {
			return cmp.Compare(a.SortOrder, b.SortOrder)
		})
	}
	sortNodes(roots)

	// Depths are assigned from the roots only; nodes caught in a cycle are
	// unreachable and keep their zero depth while staying out of the result.
	Walk(roots, func(n *Node, depth int) bool {
		n.Depth = depth
		return true
	})

	return roots
}

func sortNodes(nodes []*Node) {
	slices.SortStableFunc(nodes, func(a, b *Node) int {
		return cmp.Compare(a.Cluster.SortOrder, b.Cluster.SortOrder)
	})
}

// Walk visits nodes in pre-order. Returning false from fn skips the node's
// subtree. Walk tracks visited nodes so a manually built cyclic forest
// terminates.
func Walk(roots []*Node, fn func(n *Node, depth int) bool) {
	seen := make(map[*Node]bool)
	var visit func(n *Node, depth int)
	visit = func(n *Node, depth int) {
		if seen[n] {
			return
		}
		seen[n] = true
		if !fn(n, depth) {
			return
		}
		for _, c := range n.Children {
			visit(c, depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
}

// Count returns the number of nodes reachable from roots.
func Count(roots []*Node) int {
	n := 0
	Walk(roots, func(*Node, int) bool {
		n++
		return true
	})
	return n
}

// Find returns the node with the given uid, or nil.
func Find(roots []*Node, uid string) *Node {
	var found *Node
	Walk(roots, func(n *Node, _ int) bool {
		if found != nil {
			return false
		}
		if n.Cluster.UID == uid {
			found = n
			return false
		}
		return true
	})
	return found
}

// MaxDepth returns the depth of the deepest node, or -1 for an empty forest.
func MaxDepth(roots []*Node) int {
	maxDepth := -1
	Walk(roots, func(_ *Node, depth int) bool {
		if depth > maxDepth {
			maxDepth = depth
		}
		return true
	})
	return maxDepth
}
