package filter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

func fixtureClusters() []core.Cluster {
	return []core.Cluster{
		{UID: "eng", Name: "Engineering", Status: core.StatusActive, SortOrder: 1},
		{UID: "fe", Name: "Frontend", ParentUID: "eng", Status: core.StatusActive, SortOrder: 1},
		{UID: "legacy", Name: "Legacy UI", ParentUID: "fe", Status: core.StatusArchived, SortOrder: 2},
		{UID: "be", Name: "Backend", ParentUID: "eng", Status: core.StatusActive, SortOrder: 2},
		{UID: "design", Name: "Design", Status: core.StatusActive, SortOrder: 2},
		{UID: "research", Name: "Research", Status: core.StatusInactive, SortOrder: 3},
	}
}

func fixtureAreas() []core.Area {
	return []core.Area{
		{UID: "a-react", Name: "Component library", ClusterUID: "fe", Status: core.StatusActive, Tags: []string{"react", "frontend"}},
		{UID: "a-vue", Name: "Marketing site", ClusterUID: "fe", Status: core.StatusArchived, Tags: []string{"vue", "frontend"}},
		{UID: "a-jquery", Name: "Old admin", ClusterUID: "legacy", Status: core.StatusActive, Tags: []string{"jquery"}},
		{UID: "a-api", Name: "Public API", ClusterUID: "be", Status: core.StatusActive, Tags: []string{"go"}},
		{UID: "a-figma", Name: "Figma kit", ClusterUID: "design", Status: core.StatusActive},
		{UID: "a-orphan", Name: "Lost", ClusterUID: "ghost", Status: core.StatusActive},
	}
}

func fixtureTags() []core.Tag {
	return []core.Tag{
		{Slug: "react", DisplayName: "React", Status: core.StatusActive},
		{Slug: "vue", DisplayName: "Vue.js", Status: core.StatusArchived},
		{Slug: "go", DisplayName: "Go", Status: core.StatusActive},
	}
}

func fixtureTrees() []core.Tree {
	return core.TreesFromClusters(fixtureClusters())
}

func clusterUIDs(cs []core.Cluster) []string {
	out := []string{}
	for _, c := range cs {
		out = append(out, c.UID)
	}
	return out
}

func areaUIDs(as []core.Area) []string {
	out := []string{}
	for _, a := range as {
		out = append(out, a.UID)
	}
	return out
}

func treeIDs(ts []core.Tree) []string {
	out := []string{}
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func TestTrees_IdentityReturnsInput(t *testing.T) {
	trees, areas := fixtureTrees(), fixtureAreas()

	for _, spec := range []core.FilterSpec{{}, core.DefaultFilterSpec(), {Search: "   "}} {
		got := Trees(trees, areas, spec)
		if diff := cmp.Diff(trees, got.Trees); diff != "" {
			t.Errorf("trees changed (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(areas, got.Areas); diff != "" {
			t.Errorf("areas changed (-want +got):\n%s", diff)
		}
	}
}

func TestFlat_IdentityReturnsInput(t *testing.T) {
	clusters, areas, tags := fixtureClusters(), fixtureAreas(), fixtureTags()

	got := Flat(clusters, areas, tags, core.DefaultFilterSpec())

	assert.Equal(t, clusters, got.Clusters)
	assert.Equal(t, areas, got.Areas)
	assert.Equal(t, tags, got.Tags)
}

func TestTrees_Steps(t *testing.T) {
	tests := []struct {
		name      string
		spec      core.FilterSpec
		wantTrees []string
		// clusters of the first surviving tree
		wantClusters []string
		wantAreas    []string
	}{
		{
			name:         "scope keeps one tree and its areas",
			spec:         core.FilterSpec{Tree: "eng"},
			wantTrees:    []string{"eng"},
			wantClusters: []string{"eng", "fe", "legacy", "be"},
			wantAreas:    []string{"a-react", "a-vue", "a-jquery", "a-api"},
		},
		{
			name:         "active drops inactive trees clusters and areas",
			spec:         core.FilterSpec{Status: core.StatusActive},
			wantTrees:    []string{"eng", "design"},
			wantClusters: []string{"eng", "fe", "be"},
			// a-jquery is active but its cluster is archived
			wantAreas: []string{"a-react", "a-api", "a-figma"},
		},
		{
			name:         "clusters type clears areas",
			spec:         core.FilterSpec{Tree: "eng", Type: core.TypeClusters},
			wantTrees:    []string{"eng"},
			wantClusters: []string{"eng", "fe", "legacy", "be"},
			wantAreas:    []string{},
		},
		{
			name:         "areas type prunes empty clusters",
			spec:         core.FilterSpec{Tree: "eng", Type: core.TypeAreas},
			wantTrees:    []string{"eng"},
			wantClusters: []string{"fe", "legacy", "be"},
			wantAreas:    []string{"a-react", "a-vue", "a-jquery", "a-api"},
		},
		{
			name:         "search by tag keeps owning cluster and tree",
			spec:         core.FilterSpec{Search: "react"},
			wantTrees:    []string{"eng"},
			wantClusters: []string{"fe"},
			wantAreas:    []string{"a-react"},
		},
		{
			name:         "search by cluster name",
			spec:         core.FilterSpec{Search: "backend"},
			wantTrees:    []string{"eng"},
			wantClusters: []string{"be"},
			wantAreas:    []string{},
		},
		{
			name:         "search by tree name keeps tree without clusters",
			spec:         core.FilterSpec{Search: "resea", Type: core.TypeAreas},
			wantTrees:    []string{"research"},
			wantClusters: []string{},
			wantAreas:    []string{},
		},
		{
			name:      "no match",
			spec:      core.FilterSpec{Search: "haskell"},
			wantTrees: []string{},
			wantAreas: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Trees(fixtureTrees(), fixtureAreas(), tt.spec)

			assert.Equal(t, tt.wantTrees, treeIDs(got.Trees))
			if len(got.Trees) > 0 {
				assert.Equal(t, tt.wantClusters, clusterUIDs(got.Trees[0].Clusters))
			}
			assert.Equal(t, tt.wantAreas, areaUIDs(got.Areas))
		})
	}
}

func TestFlat_Steps(t *testing.T) {
	tests := []struct {
		name         string
		spec         core.FilterSpec
		wantClusters []string
		wantAreas    []string
		wantTags     []string
	}{
		{
			name:         "scope keeps subtree, tags untouched",
			spec:         core.FilterSpec{Tree: "fe"},
			wantClusters: []string{"fe", "legacy"},
			wantAreas:    []string{"a-react", "a-vue", "a-jquery"},
			wantTags:     []string{"react", "vue", "go"},
		},
		{
			name:         "active",
			spec:         core.FilterSpec{Status: core.StatusActive},
			wantClusters: []string{"eng", "fe", "be", "design"},
			wantAreas:    []string{"a-react", "a-api", "a-figma"},
			wantTags:     []string{"react", "go"},
		},
		{
			name:         "areas type",
			spec:         core.FilterSpec{Type: core.TypeAreas},
			wantClusters: []string{"fe", "legacy", "be", "design"},
			wantAreas:    []string{"a-react", "a-vue", "a-jquery", "a-api", "a-figma"},
			wantTags:     []string{"react", "vue", "go"},
		},
		{
			name:         "search matches tag display name",
			spec:         core.FilterSpec{Search: "vue.js"},
			wantClusters: []string{},
			wantAreas:    []string{},
			wantTags:     []string{"vue"},
		},
		{
			name:         "search areas and clusters",
			spec:         core.FilterSpec{Search: "front"},
			wantClusters: []string{"fe"},
			wantAreas:    []string{"a-react", "a-vue"},
			wantTags:     []string{},
		},
		{
			name:         "unknown scope",
			spec:         core.FilterSpec{Tree: "nope"},
			wantClusters: []string{},
			wantAreas:    []string{},
			wantTags:     []string{"react", "vue", "go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Flat(fixtureClusters(), fixtureAreas(), fixtureTags(), tt.spec)

			assert.Equal(t, tt.wantClusters, clusterUIDs(got.Clusters))
			assert.Equal(t, tt.wantAreas, areaUIDs(got.Areas))
			tags := []string{}
			for _, tag := range got.Tags {
				tags = append(tags, tag.Slug)
			}
			assert.Equal(t, tt.wantTags, tags)
		})
	}
}

func TestFilter_ActiveIsMonotonic(t *testing.T) {
	specs := []core.FilterSpec{
		{},
		{Tree: "eng"},
		{Type: core.TypeAreas},
		{Search: "e"},
		{Tree: "eng", Type: core.TypeAreas, Search: "o"},
	}

	for _, base := range specs {
		active := base
		active.Status = core.StatusActive

		all := Flat(fixtureClusters(), fixtureAreas(), fixtureTags(), base)
		act := Flat(fixtureClusters(), fixtureAreas(), fixtureTags(), active)
		assert.LessOrEqual(t, len(act.Clusters), len(all.Clusters), base.String())
		assert.LessOrEqual(t, len(act.Areas), len(all.Areas), base.String())

		allT := Trees(fixtureTrees(), fixtureAreas(), base)
		actT := Trees(fixtureTrees(), fixtureAreas(), active)
		assert.LessOrEqual(t, countClusters(actT.Trees), countClusters(allT.Trees), base.String())
		assert.LessOrEqual(t, len(actT.Areas), len(allT.Areas), base.String())
	}
}

func TestFilter_SearchIgnoresCase(t *testing.T) {
	upper := core.FilterSpec{Search: "REACT"}
	lower := core.FilterSpec{Search: "react"}

	assert.Equal(t,
		Flat(fixtureClusters(), fixtureAreas(), fixtureTags(), lower),
		Flat(fixtureClusters(), fixtureAreas(), fixtureTags(), upper))
	assert.Equal(t,
		Trees(fixtureTrees(), fixtureAreas(), lower),
		Trees(fixtureTrees(), fixtureAreas(), upper))

	// folding handles more than ASCII
	areas := []core.Area{{UID: "x", Name: "Straße", ClusterUID: "c", Status: core.StatusActive}}
	clusters := []core.Cluster{{UID: "c", Name: "Streets", Status: core.StatusActive}}
	got := Flat(clusters, areas, nil, core.FilterSpec{Search: "STRASSE"})
	assert.Equal(t, []string{"x"}, areaUIDs(got.Areas))
}

func TestFilter_ResultIsConsistent(t *testing.T) {
	specs := []core.FilterSpec{
		{Tree: "eng"},
		{Status: core.StatusActive},
		{Type: core.TypeAreas, Search: "go"},
		{Tree: "fe", Status: core.StatusActive, Search: "component"},
	}

	for _, spec := range specs {
		got := Flat(fixtureClusters(), fixtureAreas(), fixtureTags(), spec)
		present := map[string]bool{}
		for _, c := range got.Clusters {
			present[c.UID] = true
		}
		for _, a := range got.Areas {
			assert.True(t, present[a.ClusterUID], "%s: area %s has no cluster", spec, a.UID)
		}
		assert.NotContains(t, areaUIDs(got.Areas), "a-orphan")
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	trees, areas := fixtureTrees(), fixtureAreas()
	spec := core.FilterSpec{Status: core.StatusActive, Search: "react"}

	got := Trees(trees, areas, spec)
	require.NotEmpty(t, got.Areas)
	got.Areas[0].Tags[0] = "changed"

	assert.Equal(t, fixtureTrees(), trees)
	assert.Equal(t, fixtureAreas(), areas)
}

func TestMatch(t *testing.T) {
	assert.True(t, Match("Frontend", ""))
	assert.True(t, Match("Frontend", "FRONT"))
	assert.False(t, Match("Frontend", "back"))
}

func countClusters(trees []core.Tree) int {
	n := 0
	for _, t := range trees {
		n += len(t.Clusters)
	}
	return n
}

func TestWithAncestors(t *testing.T) {
	all := fixtureClusters()
	res := Flat(all, fixtureAreas(), nil, core.FilterSpec{Search: "legacy"})
	require.Len(t, res.Clusters, 1)

	got := WithAncestors(all, res.Clusters)
	uids := make([]string, len(got))
	for i, c := range got {
		uids[i] = c.UID
	}
	assert.Equal(t, []string{"eng", "fe", "legacy"}, uids)

	assert.Empty(t, WithAncestors(all, nil))
}
