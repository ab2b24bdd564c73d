package state

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

const fixtureYAML = `
clusters:
  - uid: eng
    name: Engineering
    sort_order: 1
  - uid: fe
    name: Frontend
    parent_uid: eng
    sort_order: 1
  - uid: be
    name: Backend
    parent_uid: eng
    sort_order: 2
    status: archived
  - uid: stray
    name: Stray
    parent_uid: missing
tags:
  - slug: react
    display_name: React
    color: "#61dafb"
areas:
  - uid: ui
    name: Component library
    cluster_uid: fe
    tags: [react, frontend]
  - uid: site
    name: Marketing site
    cluster_uid: fe
    tags: [vue, frontend]
  - uid: api
    name: Public API
    cluster_uid: be
    status: inactive
`

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore()
	if err := store.Open(":memory:"); err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seededStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store := setupTestStore(t)
	seed, err := ParseSeed(strings.NewReader(fixtureYAML))
	require.NoError(t, err)
	require.NoError(t, store.ApplySeed(context.Background(), seed))
	return store
}

func uidsOf(clusters []core.Cluster) []string {
	out := []string{}
	for _, c := range clusters {
		out = append(out, c.UID)
	}
	return out
}

func TestSQLiteStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.GetMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.NoError(t, store.Ping(context.Background()))

	for _, table := range []string{"clusters", "areas", "tags", "area_tags"} {
		rows, err := store.db.Query("SELECT 1 FROM " + table + " LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore()
	_, err := store.ListClusters(context.Background(), core.ListOptions{})
	assert.ErrorIs(t, err, ErrNotOpen)
	assert.ErrorIs(t, store.Migrate(), ErrNotOpen)
}

func TestApplySeed(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	clusters, err := store.ListClusters(ctx, core.ListOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"eng", "fe", "be", "stray"}, uidsOf(clusters))

	fe, err := store.GetCluster(ctx, "fe")
	require.NoError(t, err)
	assert.Equal(t, "Engineering / Frontend", fe.Path)
	assert.Equal(t, 2, fe.AreaCount)

	stray, err := store.GetCluster(ctx, "stray")
	require.NoError(t, err)
	assert.Equal(t, "missing", stray.ParentUID)
	assert.Equal(t, "Stray", stray.Path)

	// undeclared area tags are created
	vue, err := store.GetTag(ctx, "vue")
	require.NoError(t, err)
	assert.Equal(t, "vue", vue.DisplayName)
	frontend, err := store.GetTag(ctx, "frontend")
	require.NoError(t, err)
	assert.Equal(t, 2, frontend.AreaCount)

	ui, err := store.GetArea(ctx, "ui")
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend", "react"}, ui.Tags)
	assert.Equal(t, 2, ui.TagCount)
}

func TestApplySeed_Replaces(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	require.NoError(t, store.ApplySeed(ctx, &Seed{Clusters: []SeedCluster{{UID: "only", Name: "Only"}}}))

	clusters, err := store.ListClusters(ctx, core.ListOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, uidsOf(clusters))
	areas, err := store.ListAreas(ctx, core.ListOptions{IncludeInactive: true})
	require.NoError(t, err)
	assert.Empty(t, areas)
}

func TestListClusters_Options(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	tests := []struct {
		name string
		opts core.ListOptions
		want []string
	}{
		{name: "default hides inactive", opts: core.ListOptions{}, want: []string{"stray", "eng", "fe"}},
		{name: "include inactive", opts: core.ListOptions{IncludeInactive: true}, want: []string{"stray", "eng", "fe", "be"}},
		{name: "explicit status", opts: core.ListOptions{Status: "archived"}, want: []string{"be"}},
		{name: "status all", opts: core.ListOptions{Status: "all", SortBy: "name"}, want: []string{"be", "eng", "fe", "stray"}},
		{name: "search is case-insensitive", opts: core.ListOptions{Search: "FRONT"}, want: []string{"fe"}},
		{name: "children of eng", opts: core.ListOptions{ClusterUID: "eng", IncludeInactive: true}, want: []string{"fe", "be"}},
		{name: "by tag", opts: core.ListOptions{TagSlug: "react"}, want: []string{"fe"}},
		{name: "sort desc", opts: core.ListOptions{IncludeInactive: true, SortBy: "name", SortOrder: "desc"}, want: []string{"stray", "fe", "eng", "be"}},
		{name: "unknown sort key ignored", opts: core.ListOptions{SortBy: "name; DROP TABLE clusters"}, want: []string{"stray", "eng", "fe"}},
		{name: "page 2", opts: core.ListOptions{IncludeInactive: true, SortBy: "name", Page: 2, PageSize: 3}, want: []string{"stray"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.ListClusters(ctx, tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.want, uidsOf(got))
		})
	}
}

func TestListAreasAndTags_Options(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	areas, err := store.ListAreas(ctx, core.ListOptions{Search: "vue"})
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "site", areas[0].UID)

	areas, err = store.ListAreas(ctx, core.ListOptions{ClusterUID: "be", IncludeInactive: true})
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, core.StatusInactive, areas[0].Status)

	tags, err := store.ListTags(ctx, core.ListOptions{SortBy: "area_count", SortOrder: "desc"})
	require.NoError(t, err)
	require.NotEmpty(t, tags)
	assert.Equal(t, "frontend", tags[0].Slug)

	tags, err = store.ListTags(ctx, core.ListOptions{Search: "rea"})
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "#61dafb", tags[0].Color)
}

func TestClusterCRUD(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	created, err := store.CreateCluster(ctx, "", core.ClusterInput{Name: "React", ParentUID: "fe", SortOrder: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, created.UID)
	assert.Equal(t, core.StatusActive, created.Status)
	assert.Equal(t, "Engineering / Frontend / React", created.Path)

	_, err = store.CreateCluster(ctx, "fe", core.ClusterInput{Name: "Again"})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.CreateCluster(ctx, "", core.ClusterInput{Name: ""})
	assert.ErrorIs(t, err, ErrInvalid)
	var fe core.FieldErrors
	assert.True(t, errors.As(err, &fe))

	_, err = store.CreateCluster(ctx, "", core.ClusterInput{Name: "Orphan", ParentUID: "nope"})
	assert.ErrorIs(t, err, ErrInvalid)

	updated, err := store.UpdateCluster(ctx, "eng", core.ClusterInput{Name: "Eng", SortOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, "Eng", updated.Path)
	child, err := store.GetCluster(ctx, created.UID)
	require.NoError(t, err)
	assert.Equal(t, "Eng / Frontend / React", child.Path)

	archived, err := store.SetClusterStatus(ctx, "fe", core.StatusArchived)
	require.NoError(t, err)
	assert.Equal(t, core.StatusArchived, archived.Status)

	_, err = store.SetClusterStatus(ctx, "ghost", core.StatusActive)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, store.DeleteCluster(ctx, "eng"), ErrConflict)
	require.NoError(t, store.DeleteCluster(ctx, created.UID))
	_, err = store.GetCluster(ctx, created.UID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, store.DeleteCluster(ctx, created.UID), ErrNotFound)
}

func TestDeleteCluster_CascadesAreas(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	require.NoError(t, store.DeleteCluster(ctx, "fe"))

	_, err := store.GetArea(ctx, "ui")
	assert.ErrorIs(t, err, ErrNotFound)
	frontend, err := store.GetTag(ctx, "frontend")
	require.NoError(t, err)
	assert.Zero(t, frontend.AreaCount)
}

func TestMoveCluster(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	order := 9
	moved, err := store.MoveCluster(ctx, "fe", "", &order)
	require.NoError(t, err)
	assert.True(t, moved.IsRoot())
	assert.Equal(t, 9, moved.SortOrder)
	assert.Equal(t, "Frontend", moved.Path)

	moved, err = store.MoveCluster(ctx, "fe", "be", nil)
	require.NoError(t, err)
	assert.Equal(t, 9, moved.SortOrder)
	assert.Equal(t, "Engineering / Backend / Frontend", moved.Path)

	_, err = store.MoveCluster(ctx, "eng", "fe", nil)
	assert.ErrorIs(t, err, ErrConflict, "moving under a descendant is a cycle")

	_, err = store.MoveCluster(ctx, "eng", "eng", nil)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = store.MoveCluster(ctx, "eng", "ghost", nil)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.MoveCluster(ctx, "ghost", "", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAreaCRUDAndTagging(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	area, err := store.CreateArea(ctx, "", core.AreaInput{Name: "Storybook", ClusterUID: "fe", Tags: []string{"react"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"react"}, area.Tags)

	_, err = store.CreateArea(ctx, "", core.AreaInput{Name: "Bad", ClusterUID: "ghost"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = store.CreateArea(ctx, "", core.AreaInput{Name: "Bad tag", ClusterUID: "fe", Tags: []string{"nope"}})
	assert.ErrorIs(t, err, ErrInvalid)

	area, err = store.TagArea(ctx, core.TagRequest{AreaUID: area.UID, TagSlugs: []string{"frontend", "react"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend", "react"}, area.Tags)

	area, err = store.UntagArea(ctx, core.TagRequest{AreaUID: area.UID, TagSlugs: []string{"react", "not-linked"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend"}, area.Tags)

	_, err = store.TagArea(ctx, core.TagRequest{AreaUID: "ghost", TagSlugs: []string{"react"}})
	assert.ErrorIs(t, err, ErrNotFound)

	// nil tags keep links, empty slice clears them
	area, err = store.UpdateArea(ctx, area.UID, core.AreaInput{Name: "Storybook 8", ClusterUID: "be"})
	require.NoError(t, err)
	assert.Equal(t, "be", area.ClusterUID)
	assert.Equal(t, []string{"frontend"}, area.Tags)
	area, err = store.UpdateArea(ctx, area.UID, core.AreaInput{Name: "Storybook 8", ClusterUID: "be", Tags: []string{}})
	require.NoError(t, err)
	assert.Empty(t, area.Tags)

	area, err = store.SetAreaStatus(ctx, area.UID, core.StatusInactive)
	require.NoError(t, err)
	assert.Equal(t, core.StatusInactive, area.Status)

	require.NoError(t, store.DeleteArea(ctx, area.UID))
	assert.ErrorIs(t, store.DeleteArea(ctx, area.UID), ErrNotFound)
}

func TestTagCRUD(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	tag, err := store.CreateTag(ctx, core.TagInput{Slug: "go", DisplayName: "Go", Color: "#00ADD8"})
	require.NoError(t, err)
	assert.Equal(t, core.StatusActive, tag.Status)

	_, err = store.CreateTag(ctx, core.TagInput{Slug: "go", DisplayName: "Go again"})
	assert.ErrorIs(t, err, ErrConflict)

	tag, err = store.UpdateTag(ctx, "go", core.TagInput{DisplayName: "Golang"})
	require.NoError(t, err)
	assert.Equal(t, "Golang", tag.DisplayName)
	assert.Equal(t, core.StatusActive, tag.Status)

	_, err = store.UpdateTag(ctx, "go", core.TagInput{Slug: "rust", DisplayName: "Rust"})
	assert.ErrorIs(t, err, ErrInvalid)

	tag, err = store.SetTagStatus(ctx, "go", core.StatusArchived)
	require.NoError(t, err)
	assert.Equal(t, core.StatusArchived, tag.Status)

	// deleting a tag unlinks it from areas
	require.NoError(t, store.DeleteTag(ctx, "react"))
	ui, err := store.GetArea(ctx, "ui")
	require.NoError(t, err)
	assert.Equal(t, []string{"frontend"}, ui.Tags)
}

func TestStats(t *testing.T) {
	store := seededStore(t)

	st, err := store.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, st.TotalClusters)
	assert.Equal(t, 3, st.ActiveClusters)
	assert.Equal(t, 3, st.TotalAreas)
	assert.Equal(t, 2, st.ActiveAreas)
	assert.Equal(t, 3, st.TotalTags)
	assert.Equal(t, map[string]int{"frontend": 2, "react": 1, "vue": 1}, st.TagUsage)
}

func TestSnapshotRoundTrip(t *testing.T) {
	store := seededStore(t)
	ctx := context.Background()

	seed, err := store.Snapshot(ctx)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteSeed(&buf, seed))

	parsed, err := ParseSeed(&buf)
	require.NoError(t, err)
	assert.Equal(t, seed, parsed)

	other := setupTestStore(t)
	require.NoError(t, other.ApplySeed(ctx, parsed))
	st, err := other.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, st.TotalClusters)
}

func TestParseSeed_RejectsUnknownFields(t *testing.T) {
	_, err := ParseSeed(strings.NewReader("clusters:\n  - uid: a\n    colour: red\n"))
	assert.Error(t, err)

	seed, err := ParseSeed(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, seed.Clusters)
}

func TestClusterPath(t *testing.T) {
	clusters := []core.Cluster{
		{UID: "a", Name: "A"},
		{UID: "b", Name: "B", ParentUID: "a"},
		{UID: "c", Name: "C", ParentUID: "b"},
	}
	assert.Equal(t, "A / B / C", ClusterPath(clusters, "c"))
	assert.Equal(t, "A", ClusterPath(clusters, "a"))
	assert.Equal(t, "", ClusterPath(clusters, "zzz"))
}
