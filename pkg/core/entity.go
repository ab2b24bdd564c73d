package core

import (
	"cmp"
	"encoding/json"
	"slices"
	"time"
)

// Status is the lifecycle state shared by clusters, areas and tags.
type Status string

// Status constants.
const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
	StatusInactive Status = "inactive"
	StatusDeleted  Status = "deleted"
)

// IsActive reports whether the status is active.
// Empty and unknown statuses are not active.
func (s Status) IsActive() bool {
	return s == StatusActive
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusArchived, StatusInactive, StatusDeleted:
		return true
	}
	return false
}

// Cluster is a node in the taxonomy hierarchy.
// Clusters form a forest through ParentUID; an empty ParentUID marks a root.
type Cluster struct {
	// UID is unique within a collection
	UID string `json:"uid"`
	// Name is the display name
	Name string `json:"name"`
	// Description is optional free text
	Description string `json:"description,omitempty"`
	// ParentUID references the parent cluster, empty for roots
	ParentUID string `json:"parent_uid,omitempty"`
	// SortOrder orders siblings ascending
	SortOrder int `json:"sort_order"`
	// Path is the materialized breadcrumb, e.g. "Engineering / Frontend"
	Path string `json:"path,omitempty"`
	// Status is the lifecycle state
	Status Status `json:"status"`
	// AreaCount is a server-side aggregate, zero when not supplied
	AreaCount int `json:"area_count,omitempty"`
	// CreatedAt and UpdatedAt are informational
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// IsRoot reports whether the cluster has no parent reference.
func (c Cluster) IsRoot() bool {
	return c.ParentUID == ""
}

// UnmarshalJSON accepts parent_uid as null, a string, or absent.
func (c *Cluster) UnmarshalJSON(data []byte) error {
	type alias Cluster
	aux := struct {
		*alias
		ParentUID *string `json:"parent_uid"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.ParentUID = ""
	if aux.ParentUID != nil {
		c.ParentUID = *aux.ParentUID
	}
	return nil
}

// Area is a content-bearing leaf that belongs to exactly one cluster.
type Area struct {
	UID         string   `json:"uid"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ClusterUID  string   `json:"cluster_uid"`
	SortOrder   int      `json:"sort_order"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	// TagCount is a server-side aggregate, zero when not supplied
	TagCount  int       `json:"tag_count,omitempty"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// HasTag reports whether the area carries the given slug.
func (a Area) HasTag(slug string) bool {
	for _, t := range a.Tags {
		if t == slug {
			return true
		}
	}
	return false
}

// Clone returns a copy of the area that does not share its tag slice.
func (a Area) Clone() Area {
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	return a
}

// Tag is a free-standing label, many-to-many with areas through slugs.
type Tag struct {
	Slug        string    `json:"slug"`
	DisplayName string    `json:"display_name"`
	Color       string    `json:"color,omitempty"`
	Status      Status    `json:"status"`
	AreaCount   int       `json:"area_count,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	UpdatedAt   time.Time `json:"updated_at,omitzero"`
}

// Label returns the display name, falling back to the slug.
func (t Tag) Label() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.Slug
}

// UnmarshalJSON accepts the legacy "name" field when display_name is absent.
func (t *Tag) UnmarshalJSON(data []byte) error {
	type alias Tag
	aux := struct {
		*alias
		Name string `json:"name"`
	}{alias: (*alias)(t)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if t.DisplayName == "" {
		t.DisplayName = aux.Name
	}
	return nil
}

// Tree is a top-level scope: a root cluster together with the clusters beneath it.
type Tree struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Status   Status    `json:"status"`
	Clusters []Cluster `json:"clusters"`
}

// Clone returns a copy of the tree that does not share its cluster slice.
func (t Tree) Clone() Tree {
	if t.Clusters != nil {
		t.Clusters = append([]Cluster(nil), t.Clusters...)
	}
	return t
}

// TreesFromClusters derives one Tree per root cluster. Each tree holds its root
// and every descendant in depth-first order, siblings visited by SortOrder.
// Clusters unreachable from a root do not appear in any tree.
func TreesFromClusters(clusters []Cluster) []Tree {
	children := make(map[string][]Cluster)
	var roots []Cluster
	for _, c := range clusters {
		if c.IsRoot() {
			roots = append(roots, c)
			continue
		}
		if c.ParentUID == c.UID {
			continue
		}
		children[c.ParentUID] = append(children[c.ParentUID], c)
	}
	sortClustersStable(roots)
	for k := range children {
		sortClustersStable(children[k])
	}

	trees := make([]Tree, 0, len(roots))
	for _, root := range roots {
		tree := Tree{ID: root.UID, Name: root.Name, Status: root.Status}
		visited := make(map[string]bool)
		stack := []Cluster{root}
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[c.UID] {
				continue
			}
			visited[c.UID] = true
			tree.Clusters = append(tree.Clusters, c)
			kids := children[c.UID]
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i])
			}
		}
		trees = append(trees, tree)
	}
	return trees
}

func sortClustersStable(cs []Cluster) {
	slices.SortStableFunc(cs, func(a, b Cluster) int {
		return cmp.Compare(a.SortOrder, b.SortOrder)
	})
}
