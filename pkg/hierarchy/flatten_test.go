package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

func sampleForest() []core.Cluster {
	return []core.Cluster{
		{UID: "eng", Name: "Engineering", SortOrder: 1, Status: core.StatusActive},
		{UID: "fe", Name: "Frontend", ParentUID: "eng", SortOrder: 1, Status: core.StatusArchived},
		{UID: "react", Name: "React", ParentUID: "fe", SortOrder: 1, Status: core.StatusActive},
		{UID: "be", Name: "Backend", ParentUID: "eng", SortOrder: 2, Status: core.StatusActive},
		{UID: "ops", Name: "Operations", SortOrder: 2, Status: core.StatusActive},
	}
}

func TestFlatten_FullyExpanded(t *testing.T) {
	rows := Flatten(Build(sampleForest()), nil)

	var got []string
	for _, r := range rows {
		got = append(got, r.Node.UID())
	}
	assert.Equal(t, []string{"eng", "fe", "react", "be", "ops"}, got)
	assert.Equal(t, 2, rows[2].Depth)
	assert.True(t, rows[0].Expanded)
	assert.False(t, rows[4].Expanded, "leaf rows are never expanded")
}

func TestFlatten_CollapsedHidesChildren(t *testing.T) {
	rows := Flatten(Build(sampleForest()), map[string]bool{"eng": true})

	var got []string
	for _, r := range rows {
		got = append(got, r.Node.UID())
	}
	assert.Equal(t, []string{"eng", "fe", "be", "ops"}, got)
	assert.False(t, rows[1].Expanded)
}

func TestFlatten_InheritsStatus(t *testing.T) {
	rows := Flatten(Build(sampleForest()), nil)
	byUID := map[string]Row{}
	for _, r := range rows {
		byUID[r.Node.UID()] = r
	}

	assert.Equal(t, core.StatusArchived, byUID["fe"].EffectiveStatus)
	assert.False(t, byUID["fe"].Inherited)

	assert.Equal(t, core.StatusArchived, byUID["react"].EffectiveStatus)
	assert.True(t, byUID["react"].Inherited)

	assert.Equal(t, core.StatusActive, byUID["be"].EffectiveStatus)
	assert.False(t, byUID["be"].Inherited)
}

func TestAncestors(t *testing.T) {
	chain := Ancestors(sampleForest(), "react")
	require.Len(t, chain, 2)
	assert.Equal(t, "eng", chain[0].UID)
	assert.Equal(t, "fe", chain[1].UID)

	assert.Empty(t, Ancestors(sampleForest(), "eng"))
	assert.Nil(t, Ancestors(sampleForest(), "nope"))

	cyclic := []core.Cluster{{UID: "p", ParentUID: "q"}, {UID: "q", ParentUID: "p"}}
	assert.Len(t, Ancestors(cyclic, "p"), 1)
}

func TestDescendants(t *testing.T) {
	got := Descendants(sampleForest(), "eng")
	assert.Equal(t, map[string]bool{"eng": true, "fe": true, "react": true, "be": true}, got)

	assert.Equal(t, map[string]bool{"ops": true}, Descendants(sampleForest(), "ops"))
	assert.Empty(t, Descendants(sampleForest(), "missing"))
}

func TestDropped_MissingParentChain(t *testing.T) {
	clusters := []core.Cluster{
		{UID: "a"},
		{UID: "child", ParentUID: "gone"},
		{UID: "grandchild", ParentUID: "child"},
	}

	dropped := Dropped(clusters)

	require.Len(t, dropped, 2)
	assert.Equal(t, "child", dropped[0].Cluster.UID)
	assert.Equal(t, "grandchild", dropped[1].Cluster.UID)
	for _, d := range dropped {
		assert.Equal(t, DropMissingParent, d.Reason)
		assert.Equal(t, "gone", d.MissingUID)
	}
	assert.Empty(t, Dropped(sampleForest()))
}
