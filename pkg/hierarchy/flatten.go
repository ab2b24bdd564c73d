package hierarchy

import (
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Row is one visible line of a rendered tree.
type Row struct {
	Node  *Node
	Depth int
	// Expanded is true when the node's children follow in the row list
	Expanded bool
	// EffectiveStatus is the node's own status, or the status of the nearest
	// non-active ancestor when one exists
	EffectiveStatus core.Status
	// Inherited is true when EffectiveStatus comes from an ancestor
	Inherited bool
}

// Flatten returns the visible rows of the forest in display order.
// A nil expanded set means every node is expanded; otherwise only nodes whose
// uid maps to true show their children.
func Flatten(roots []*Node, expanded map[string]bool) []Row {
	var rows []Row
	seen := make(map[*Node]bool)

	var visit func(n *Node, depth int, inherited core.Status)
	visit = func(n *Node, depth int, inherited core.Status) {
		if seen[n] {
			return
		}
		seen[n] = true

		row := Row{Node: n, Depth: depth, EffectiveStatus: n.Cluster.Status}
		if inherited != "" {
			row.EffectiveStatus = inherited
			row.Inherited = true
		}
		open := expanded == nil || expanded[n.Cluster.UID]
		row.Expanded = open && len(n.Children) > 0
		rows = append(rows, row)

		if !open {
			return
		}
		next := inherited
		if next == "" && !n.Cluster.Status.IsActive() {
			next = n.Cluster.Status
		}
		for _, c := range n.Children {
			visit(c, depth+1, next)
		}
	}

	for _, r := range roots {
		visit(r, 0, "")
	}
	return rows
}

// Ancestors returns the chain of clusters from the root down to, but not
// including, the cluster with the given uid. The walk stops at a missing
// parent or a repeated uid, so it terminates on cyclic input.
func Ancestors(clusters []core.Cluster, uid string) []core.Cluster {
	byUID := make(map[string]core.Cluster, len(clusters))
	for _, c := range clusters {
		if _, dup := byUID[c.UID]; !dup {
			byUID[c.UID] = c
		}
	}

	current, ok := byUID[uid]
	if !ok {
		return nil
	}

	var chain []core.Cluster
	seen := map[string]bool{uid: true}
	for current.ParentUID != "" {
		parent, ok := byUID[current.ParentUID]
		if !ok || seen[parent.UID] {
			break
		}
		seen[parent.UID] = true
		chain = append(chain, parent)
		current = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants returns the uids of the cluster and everything beneath it.
// The result is empty when uid is not present in the input.
func Descendants(clusters []core.Cluster, uid string) map[string]bool {
	children := make(map[string][]string)
	present := false
	for _, c := range clusters {
		if c.UID == uid {
			present = true
		}
		if c.ParentUID != "" && c.ParentUID != c.UID {
			children[c.ParentUID] = append(children[c.ParentUID], c.UID)
		}
	}
	out := make(map[string]bool)
	if !present {
		return out
	}
	stack := []string{uid}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if out[id] {
			continue
		}
		out[id] = true
		stack = append(stack, children[id]...)
	}
	return out
}
