package graph

import (
	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

func nodeID(kind, key string) string {
	return kind + ":" + key
}

// buildGraph turns the filtered snapshot into nodes and links. Clusters link
// to their children and areas, areas link to their tags. Clusters that are
// not reachable from a root are left out, like in the tree view.
func buildGraph(spec core.FilterSpec, snap apiclient.Snapshot) Data {
	res := filter.Flat(snap.Clusters, snap.Areas, snap.Tags, spec)
	roots := hierarchy.BuildWithAreas(res.Clusters, res.Areas)

	data := Data{Nodes: []Node{}, Links: []Link{}}
	tagStatus := make(map[string]core.Tag, len(res.Tags))
	for _, t := range res.Tags {
		tagStatus[t.Slug] = t
	}
	usedTags := make(map[string]bool)

	hierarchy.Walk(roots, func(n *hierarchy.Node, _ int) bool {
		c := n.Cluster
		id := nodeID(NodeCluster, c.UID)
		data.Nodes = append(data.Nodes, Node{ID: id, Label: c.Name, Type: NodeCluster, Status: string(c.Status)})
		for _, child := range n.Children {
			data.Links = append(data.Links, Link{Source: id, Target: nodeID(NodeCluster, child.UID())})
		}
		for _, a := range n.Areas {
			aid := nodeID(NodeArea, a.UID)
			data.Nodes = append(data.Nodes, Node{ID: aid, Label: a.Name, Type: NodeArea, Status: string(a.Status)})
			data.Links = append(data.Links, Link{Source: id, Target: aid})
			for _, slug := range a.Tags {
				// tags the filter removed stay off the graph
				if _, ok := tagStatus[slug]; !ok {
					continue
				}
				usedTags[slug] = true
				data.Links = append(data.Links, Link{Source: aid, Target: nodeID(NodeTag, slug)})
			}
		}
		return true
	})

	for _, t := range res.Tags {
		if !usedTags[t.Slug] {
			continue
		}
		data.Nodes = append(data.Nodes, Node{ID: nodeID(NodeTag, t.Slug), Label: t.Label(), Type: NodeTag, Status: string(t.Status)})
	}
	return data
}
