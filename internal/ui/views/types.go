package views

import (
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// Toast is a transient message shown in the corner of every page.
type Toast struct {
	Kind    string // "error" or "success"
	Message string
}

// NavItem is one link of the top bar.
type NavItem struct {
	Path   string
	Label  string
	Active bool
}

// Shell carries what every full page needs around its content.
type Shell struct {
	Title       string
	CurrentPath string
	Toasts      []Toast
	// Stale is set when the API failed and the page shows older data
	Stale      bool
	StaleSince string
}

var navItems = []NavItem{
	{Path: "/", Label: "Dashboard"},
	{Path: "/clusters", Label: "Clusters"},
	{Path: "/areas", Label: "Areas"},
	{Path: "/tags", Label: "Tags"},
	{Path: "/graph", Label: "Graph"},
}

// Nav returns the top bar links with the current page marked.
func (s Shell) Nav() []NavItem {
	out := make([]NavItem, len(navItems))
	for i, n := range navItems {
		n.Active = n.Path == s.CurrentPath
		out[i] = n
	}
	return out
}

// Option is an entry of a select box.
type Option struct {
	Value    string
	Label    string
	Selected bool
}

// FilterBar renders the tree / status / type / search controls.
type FilterBar struct {
	Spec     core.FilterSpec
	Trees    []Option
	Endpoint string
	ShowTree bool
	ShowType bool
}

// TagChip is a tag rendered inline next to an area.
type TagChip struct {
	Slug  string
	Label string
	Color string
}

// HealthBadge summarizes GET /health.
type HealthBadge struct {
	OK      bool
	Label   string
	Version string
}

// HomeData is the dashboard.
type HomeData struct {
	Shell
	Summary stats.Summary
	Cloud   []stats.CloudEntry
	Health  HealthBadge
}

// TreeRow is one visible cluster of the tree view.
type TreeRow struct {
	UID         string
	Name        string
	Path        string
	Depth       int
	Status      core.Status
	Effective   core.Status
	Inherited   bool
	HasChildren bool
	Expanded    bool
	AreaCount   int
	Areas       []AreaItem
}

// Indent is the left padding of the row in pixels.
func (r TreeRow) Indent() int {
	return r.Depth * 20
}

// Active reports whether the cluster itself is active.
func (r TreeRow) Active() bool {
	return r.Status.IsActive()
}

// AreaItem is an area listed under its cluster.
type AreaItem struct {
	UID    string
	Name   string
	Status core.Status
	Tags   []TagChip
}

// ClusterForm is the create / edit form of the clusters page.
type ClusterForm struct {
	// Editing is the uid being edited, empty when creating
	Editing string
	Parents []Option
	Errors  core.FieldErrors
	Message string
}

// ClustersData is the clusters page.
type ClustersData struct {
	Shell
	Signals string
	Filter  FilterBar
	View    ClusterView
	Form    ClusterForm
}

// ClusterView is the tree panel of the clusters page.
type ClusterView struct {
	Rows    []TreeRow
	Total   int
	Shown   int
	Dropped int
}

// AreaRow is one line of the areas table.
type AreaRow struct {
	UID         string
	Name        string
	Description string
	ClusterUID  string
	ClusterPath string
	SortOrder   int
	Status      core.Status
	Tags        []TagChip
}

// Active reports whether the area is active.
func (r AreaRow) Active() bool {
	return r.Status.IsActive()
}

// AreaView is the table panel of the areas page.
type AreaView struct {
	Areas []AreaRow
	Total int
}

// AreaForm is the create / edit form of the areas page.
type AreaForm struct {
	Editing  string
	Clusters []Option
	Tags     []Option
	Errors   core.FieldErrors
	Message  string
}

// AreasData is the areas page.
type AreasData struct {
	Shell
	Signals string
	Filter  FilterBar
	View    AreaView
	Form    AreaForm
}

// TagRow is one line of the tags table.
type TagRow struct {
	Slug        string
	DisplayName string
	Color       string
	Status      core.Status
	Usage       int
}

// Active reports whether the tag is active.
func (r TagRow) Active() bool {
	return r.Status.IsActive()
}

// TagView is the table panel of the tags page.
type TagView struct {
	Tags  []TagRow
	Total int
}

// TagForm is the create / edit form of the tags page.
type TagForm struct {
	Editing string
	Errors  core.FieldErrors
	Message string
}

// TagsData is the tags page.
type TagsData struct {
	Shell
	Signals string
	Filter  FilterBar
	View    TagView
	Form    TagForm
}

// GraphData is the graph page.
type GraphData struct {
	Shell
	Signals string
	Filter  FilterBar
}
