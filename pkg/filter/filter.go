// Package filter derives the visible subset of a taxonomy from a FilterSpec.
//
// Two data shapes are supported. The tree model takes top-level scopes
// (core.Tree, each holding its clusters) plus a separate area list; the flat
// model takes clusters, areas and tags side by side. In both, the steps run
// in a fixed order and each step sees only what the previous one kept:
//
//  1. scope: keep one tree, or one root cluster and its descendants
//  2. status: keep active entities only
//  3. type: drop all areas, or drop clusters without a surviving area
//  4. search: case-insensitive substring match
//
// After every step that removes clusters, areas whose cluster is gone are
// removed too. A spec that selects everything returns copies of the inputs
// untouched.
package filter

import (
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// TreeResult is the output of Trees.
type TreeResult struct {
	Trees []core.Tree
	Areas []core.Area
}

// FlatResult is the output of Flat.
type FlatResult struct {
	Clusters []core.Cluster
	Areas    []core.Area
	Tags     []core.Tag
}

// Trees filters the tree model. Inputs are never modified.
func Trees(trees []core.Tree, areas []core.Area, spec core.FilterSpec) TreeResult {
	spec = spec.Normalize()
	out := TreeResult{Trees: cloneTrees(trees), Areas: cloneAreas(areas)}
	if spec.IsIdentity() {
		return out
	}

	// scope
	if spec.Tree != core.ScopeAll {
		out.Trees = keep(out.Trees, func(t core.Tree) bool { return t.ID == spec.Tree })
	}
	out.Areas = cascade(out.Areas, treeClusterSet(out.Trees))

	// status
	if spec.Status == core.StatusActive {
		out.Trees = keep(out.Trees, func(t core.Tree) bool { return t.Status.IsActive() })
		for i := range out.Trees {
			out.Trees[i].Clusters = keep(out.Trees[i].Clusters, isActiveCluster)
		}
		out.Areas = keep(out.Areas, isActiveArea)
		out.Areas = cascade(out.Areas, treeClusterSet(out.Trees))
	}

	// type
	switch spec.Type {
	case core.TypeClusters:
		out.Areas = []core.Area{}
	case core.TypeAreas:
		withAreas := areaOwners(out.Areas)
		for i := range out.Trees {
			out.Trees[i].Clusters = keep(out.Trees[i].Clusters, func(c core.Cluster) bool {
				return withAreas[c.UID]
			})
		}
	}

	// search
	if spec.Search != "" {
		m := newMatcher(spec.Search)
		out.Areas = keep(out.Areas, m.area)
		withAreas := areaOwners(out.Areas)
		for i := range out.Trees {
			out.Trees[i].Clusters = keep(out.Trees[i].Clusters, func(c core.Cluster) bool {
				return m.text(c.Name) || withAreas[c.UID]
			})
		}
		out.Trees = keep(out.Trees, func(t core.Tree) bool {
			return m.text(t.Name) || len(t.Clusters) > 0
		})
		out.Areas = cascade(out.Areas, treeClusterSet(out.Trees))
	}

	return out
}

// Flat filters the flat cluster/area/tag model. Scope keeps the cluster whose
// uid equals spec.Tree together with its descendants. Tags are independent of
// the hierarchy: only the status and search steps apply to them.
func Flat(clusters []core.Cluster, areas []core.Area, tags []core.Tag, spec core.FilterSpec) FlatResult {
	spec = spec.Normalize()
	out := FlatResult{
		Clusters: append([]core.Cluster{}, clusters...),
		Areas:    cloneAreas(areas),
		Tags:     append([]core.Tag{}, tags...),
	}
	if spec.IsIdentity() {
		return out
	}

	// scope
	if spec.Tree != core.ScopeAll {
		subtree := hierarchy.Descendants(clusters, spec.Tree)
		out.Clusters = keep(out.Clusters, func(c core.Cluster) bool { return subtree[c.UID] })
	}
	out.Areas = cascade(out.Areas, clusterSet(out.Clusters))

	// status
	if spec.Status == core.StatusActive {
		out.Clusters = keep(out.Clusters, isActiveCluster)
		out.Areas = keep(out.Areas, isActiveArea)
		out.Areas = cascade(out.Areas, clusterSet(out.Clusters))
		out.Tags = keep(out.Tags, func(t core.Tag) bool { return t.Status.IsActive() })
	}

	// type
	switch spec.Type {
	case core.TypeClusters:
		out.Areas = []core.Area{}
	case core.TypeAreas:
		withAreas := areaOwners(out.Areas)
		out.Clusters = keep(out.Clusters, func(c core.Cluster) bool { return withAreas[c.UID] })
	}

	// search
	if spec.Search != "" {
		m := newMatcher(spec.Search)
		out.Areas = keep(out.Areas, m.area)
		withAreas := areaOwners(out.Areas)
		out.Clusters = keep(out.Clusters, func(c core.Cluster) bool {
			return m.text(c.Name) || withAreas[c.UID]
		})
		out.Areas = cascade(out.Areas, clusterSet(out.Clusters))
		out.Tags = keep(out.Tags, func(t core.Tag) bool {
			return m.text(t.Slug) || m.text(t.DisplayName)
		})
	}

	return out
}

// keep returns the elements of in that satisfy pred. It always allocates so
// callers never share a backing array with an earlier step.
func keep[T any](in []T, pred func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// cascade drops areas whose cluster is not in present.
func cascade(areas []core.Area, present map[string]bool) []core.Area {
	return keep(areas, func(a core.Area) bool { return present[a.ClusterUID] })
}

func isActiveCluster(c core.Cluster) bool { return c.Status.IsActive() }

func isActiveArea(a core.Area) bool { return a.Status.IsActive() }

func clusterSet(clusters []core.Cluster) map[string]bool {
	set := make(map[string]bool, len(clusters))
	for _, c := range clusters {
		set[c.UID] = true
	}
	return set
}

func treeClusterSet(trees []core.Tree) map[string]bool {
	set := make(map[string]bool)
	for _, t := range trees {
		for _, c := range t.Clusters {
			set[c.UID] = true
		}
	}
	return set
}

func areaOwners(areas []core.Area) map[string]bool {
	set := make(map[string]bool, len(areas))
	for _, a := range areas {
		set[a.ClusterUID] = true
	}
	return set
}

func cloneTrees(trees []core.Tree) []core.Tree {
	out := make([]core.Tree, len(trees))
	for i, t := range trees {
		out[i] = t.Clone()
	}
	return out
}

func cloneAreas(areas []core.Area) []core.Area {
	out := make([]core.Area, len(areas))
	for i, a := range areas {
		out[i] = a.Clone()
	}
	return out
}
