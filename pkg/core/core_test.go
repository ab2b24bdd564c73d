package core

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCluster_UnmarshalParentUID(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{name: "null parent", json: `{"uid":"a","parent_uid":null}`, want: ""},
		{name: "absent parent", json: `{"uid":"a"}`, want: ""},
		{name: "string parent", json: `{"uid":"b","parent_uid":"a"}`, want: "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cluster
			require.NoError(t, json.Unmarshal([]byte(tt.json), &c))
			assert.Equal(t, tt.want, c.ParentUID)
			assert.Equal(t, tt.want == "", c.IsRoot())
		})
	}
}

func TestCluster_UnmarshalKeepsOtherFields(t *testing.T) {
	var c Cluster
	data := `{"uid":"c1","name":"Frontend","parent_uid":"root","sort_order":3,"path":"Eng / Frontend","status":"active","area_count":4}`
	require.NoError(t, json.Unmarshal([]byte(data), &c))

	assert.Equal(t, "c1", c.UID)
	assert.Equal(t, "Frontend", c.Name)
	assert.Equal(t, 3, c.SortOrder)
	assert.Equal(t, "Eng / Frontend", c.Path)
	assert.Equal(t, StatusActive, c.Status)
	assert.Equal(t, 4, c.AreaCount)
}

func TestTag_UnmarshalNameFallback(t *testing.T) {
	var legacy Tag
	require.NoError(t, json.Unmarshal([]byte(`{"slug":"go","name":"Go"}`), &legacy))
	assert.Equal(t, "Go", legacy.DisplayName)

	var current Tag
	require.NoError(t, json.Unmarshal([]byte(`{"slug":"go","display_name":"Golang","name":"Go"}`), &current))
	assert.Equal(t, "Golang", current.DisplayName)

	assert.Equal(t, "rust", Tag{Slug: "rust"}.Label())
}

func TestStatus_IsActive(t *testing.T) {
	assert.True(t, StatusActive.IsActive())
	assert.False(t, StatusArchived.IsActive())
	assert.False(t, StatusInactive.IsActive())
	assert.False(t, Status("").IsActive())
	assert.False(t, Status("weird").Valid())
}

func TestArea_CloneDoesNotAlias(t *testing.T) {
	a := Area{UID: "a", Tags: []string{"go"}}
	b := a.Clone()
	b.Tags[0] = "rust"
	assert.Equal(t, "go", a.Tags[0])
	assert.True(t, a.HasTag("go"))
	assert.False(t, a.HasTag("rust"))
}

func TestTreesFromClusters(t *testing.T) {
	clusters := []Cluster{
		{UID: "b", ParentUID: "a", SortOrder: 2, Name: "B"},
		{UID: "a", SortOrder: 1, Name: "A", Status: StatusActive},
		{UID: "c", ParentUID: "a", SortOrder: 1, Name: "C"},
		{UID: "d", ParentUID: "c", SortOrder: 0, Name: "D"},
		{UID: "z", SortOrder: 0, Name: "Z"},
		{UID: "orphan", ParentUID: "missing"},
		{UID: "self", ParentUID: "self"},
	}

	trees := TreesFromClusters(clusters)
	require.Len(t, trees, 2)

	assert.Equal(t, "z", trees[0].ID)
	assert.Equal(t, "a", trees[1].ID)
	assert.Equal(t, StatusActive, trees[1].Status)

	var uids []string
	for _, c := range trees[1].Clusters {
		uids = append(uids, c.UID)
	}
	assert.Equal(t, []string{"a", "c", "d", "b"}, uids)
}

func TestFilterSpec_Normalize(t *testing.T) {
	got := FilterSpec{Search: "  react "}.Normalize()
	assert.Equal(t, FilterSpec{Tree: ScopeAll, Status: StatusAll, Type: TypeAll, Search: "react"}, got)
	assert.True(t, FilterSpec{}.IsIdentity())
	assert.True(t, DefaultFilterSpec().IsIdentity())
	assert.False(t, FilterSpec{Status: StatusActive}.IsIdentity())
}

func TestFilterSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    FilterSpec
		wantErr bool
	}{
		{name: "zero value", spec: FilterSpec{}},
		{name: "active clusters", spec: FilterSpec{Status: StatusActive, Type: TypeClusters}},
		{name: "areas", spec: FilterSpec{Type: TypeAreas}},
		{name: "bad status", spec: FilterSpec{Status: "archived"}, wantErr: true},
		{name: "bad type", spec: FilterSpec{Type: "tags"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidFilter))
				return
			}
			assert.NoError(t, err)
		})
	}
}
