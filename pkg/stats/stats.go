// Package stats aggregates tag usage and summary counts for dashboard cards.
package stats

import (
	"cmp"
	"slices"

	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// Weights used by TagCloud.
const (
	ClusterNameWeight = 2
	AreaNameWeight    = 1
	TagLabelWeight    = 1
)

// DefaultTopTags is how many tags Summarize ranks.
const DefaultTopTags = 5

// TagCount pairs a tag slug with the number of areas carrying it.
type TagCount struct {
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// CloudEntry is one weighted term of the tag cloud.
type CloudEntry struct {
	Term   string `json:"term"`
	Weight int    `json:"weight"`
}

// TagUsage counts, per slug, how many times it appears across area tag lists.
func TagUsage(areas []core.Area) map[string]int {
	usage := make(map[string]int)
	for _, a := range areas {
		for _, t := range a.Tags {
			usage[t]++
		}
	}
	return usage
}

// TopTags returns the n most used tags, ties broken by slug. n <= 0 returns all.
func TopTags(usage map[string]int, n int) []TagCount {
	out := make([]TagCount, 0, len(usage))
	for slug, count := range usage {
		out = append(out, TagCount{Slug: slug, Count: count})
	}
	slices.SortFunc(out, func(a, b TagCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Slug, b.Slug)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TagCloud ranks terms for the tag cloud. The counter starts from TagUsage
// and then adds each cluster name, area name and tag label with its weight.
// The weighting is for display only.
func TagCloud(clusters []core.Cluster, areas []core.Area, tags []core.Tag) []CloudEntry {
	weights := TagUsage(areas)
	for _, c := range clusters {
		if c.Name != "" {
			weights[c.Name] += ClusterNameWeight
		}
	}
	for _, a := range areas {
		if a.Name != "" {
			weights[a.Name] += AreaNameWeight
		}
	}
	for _, t := range tags {
		if l := t.Label(); l != "" {
			weights[l] += TagLabelWeight
		}
	}

	out := make([]CloudEntry, 0, len(weights))
	for term, w := range weights {
		out = append(out, CloudEntry{Term: term, Weight: w})
	}
	slices.SortFunc(out, func(a, b CloudEntry) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Term, b.Term)
	})
	return out
}

// Summary holds the figures shown on the dashboard.
type Summary struct {
	TotalClusters  int `json:"total_clusters"`
	ActiveClusters int `json:"active_clusters"`
	RootClusters   int `json:"root_clusters"`
	// MaxDepth is the deepest level of the built forest, -1 when empty
	MaxDepth int `json:"max_depth"`
	// Unreachable counts clusters left out of the forest
	Unreachable int `json:"unreachable"`

	TotalAreas     int     `json:"total_areas"`
	ActiveAreas    int     `json:"active_areas"`
	UntaggedAreas  int     `json:"untagged_areas"`
	AvgTagsPerArea float64 `json:"avg_tags_per_area"`

	TotalTags  int `json:"total_tags"`
	ActiveTags int `json:"active_tags"`
	// UnusedTags counts defined tags that no area carries
	UnusedTags int `json:"unused_tags"`

	TopTags []TagCount `json:"top_tags"`
}

// Summarize computes the dashboard summary.
func Summarize(clusters []core.Cluster, areas []core.Area, tags []core.Tag) Summary {
	roots := hierarchy.Build(clusters)
	s := Summary{
		TotalClusters: len(clusters),
		RootClusters:  len(roots),
		MaxDepth:      hierarchy.MaxDepth(roots),
		Unreachable:   len(hierarchy.Dropped(clusters)),
		TotalAreas:    len(areas),
		TotalTags:     len(tags),
	}
	for _, c := range clusters {
		if c.Status.IsActive() {
			s.ActiveClusters++
		}
	}

	tagged := 0
	for _, a := range areas {
		if a.Status.IsActive() {
			s.ActiveAreas++
		}
		if len(a.Tags) == 0 {
			s.UntaggedAreas++
		}
		tagged += len(a.Tags)
	}
	if len(areas) > 0 {
		s.AvgTagsPerArea = float64(tagged) / float64(len(areas))
	}

	usage := TagUsage(areas)
	for _, t := range tags {
		if t.Status.IsActive() {
			s.ActiveTags++
		}
		if usage[t.Slug] == 0 {
			s.UnusedTags++
		}
	}
	s.TopTags = TopTags(usage, DefaultTopTags)
	return s
}
