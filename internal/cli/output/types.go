package output

import (
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// TreeOutput is the JSON output for the tree command.
type TreeOutput struct {
	Filter  core.FilterSpec `json:"filter"`
	Roots   []TreeNode      `json:"roots"`
	Dropped []DroppedInfo   `json:"dropped,omitempty"`
	Summary TreeSummary     `json:"summary"`
}

// TreeNode is one cluster of the rendered forest.
type TreeNode struct {
	UID      string      `json:"uid"`
	Name     string      `json:"name"`
	Status   core.Status `json:"status"`
	Depth    int         `json:"depth"`
	Areas    []AreaRef   `json:"areas,omitempty"`
	Children []TreeNode  `json:"children,omitempty"`
}

// AreaRef is an area attached to a tree node.
type AreaRef struct {
	UID    string      `json:"uid"`
	Name   string      `json:"name"`
	Status core.Status `json:"status"`
	Tags   []string    `json:"tags"`
}

// DroppedInfo describes a cluster left out of the forest.
type DroppedInfo struct {
	UID        string `json:"uid"`
	Name       string `json:"name"`
	Reason     string `json:"reason"`
	MissingUID string `json:"missing_uid,omitempty"`
}

// TreeSummary counts what the tree shows.
type TreeSummary struct {
	Clusters int `json:"clusters"`
	Areas    int `json:"areas"`
	MaxDepth int `json:"max_depth"`
}

// ClusterListOutput is the JSON output for the clusters command.
type ClusterListOutput struct {
	Filter   core.FilterSpec `json:"filter"`
	Clusters []core.Cluster  `json:"clusters"`
	Shown    int             `json:"shown"`
	Total    int             `json:"total"`
}

// AreaListOutput is the JSON output for the areas command.
type AreaListOutput struct {
	Filter core.FilterSpec `json:"filter"`
	Areas  []core.Area     `json:"areas"`
	Shown  int             `json:"shown"`
	Total  int             `json:"total"`
}

// TagListOutput is the JSON output for the tags command.
type TagListOutput struct {
	Filter core.FilterSpec `json:"filter"`
	Tags   []TagInfo       `json:"tags"`
	Shown  int             `json:"shown"`
	Total  int             `json:"total"`
}

// TagInfo is a tag with its usage count.
type TagInfo struct {
	core.Tag
	Usage int `json:"usage"`
}

// StatsOutput is the JSON output for the stats command.
type StatsOutput struct {
	Summary stats.Summary      `json:"summary"`
	Cloud   []stats.CloudEntry `json:"cloud,omitempty"`
	// Server holds the API's own counters when it provides them
	Server *core.Stats `json:"server,omitempty"`
}

// HealthOutput is the JSON output for the health command.
type HealthOutput struct {
	APIURL    string        `json:"api_url"`
	Healthy   bool          `json:"healthy"`
	Health    *core.Health  `json:"health,omitempty"`
	LatencyMS int64         `json:"latency_ms"`
	Error     string        `json:"error,omitempty"`
	Checks    []HealthCheck `json:"checks"`
	// Score is the percentage of passing checks
	Score      int `json:"score"`
	IssueCount int `json:"issue_count"`
}

// HealthCheck is the result of one data integrity check.
type HealthCheck struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

// MutationOutput is the JSON output for create, update and state changes.
type MutationOutput struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Entity any    `json:"entity,omitempty"`
}
