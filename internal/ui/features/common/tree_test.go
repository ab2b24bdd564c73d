package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

func TestBuildTreeRows(t *testing.T) {
	clusters := []core.Cluster{
		{UID: "eng", Name: "Engineering", Status: core.StatusActive, SortOrder: 1},
		{UID: "fe", Name: "Frontend", ParentUID: "eng", Status: core.StatusInactive, SortOrder: 1},
		{UID: "ui", Name: "UI kit", ParentUID: "fe", Status: core.StatusActive, SortOrder: 1},
		{UID: "ghost", Name: "Ghost", ParentUID: "missing", Status: core.StatusActive},
	}
	areas := []core.Area{{UID: "lib", Name: "Library", ClusterUID: "ui", Tags: []string{"react"}}}
	tags := TagIndex([]core.Tag{{Slug: "react", DisplayName: "React"}})

	rows := BuildTreeRows(clusters, areas, tags, nil)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"eng", "fe", "ui"}, []string{rows[0].UID, rows[1].UID, rows[2].UID})
	assert.Equal(t, 2, rows[2].Depth)
	assert.True(t, rows[2].Inherited, "an active cluster under an inactive one inherits it")
	assert.Equal(t, core.StatusInactive, rows[2].Effective)
	require.Len(t, rows[2].Areas, 1)
	assert.Equal(t, "React", rows[2].Areas[0].Tags[0].Label)

	collapsed := BuildTreeRows(clusters, areas, tags, map[string]bool{"eng": true})
	require.Len(t, collapsed, 1)
	assert.False(t, collapsed[0].Expanded)
	assert.True(t, collapsed[0].HasChildren)
}
