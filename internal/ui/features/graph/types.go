// Package graph provides the force-directed taxonomy graph for the UI.
package graph

// Node types of the graph.
const (
	NodeCluster = "cluster"
	NodeArea    = "area"
	NodeTag     = "tag"
)

// Data is the JSON document served at /graph/data.
type Data struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node represents a node in the graph.
type Node struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Link represents an edge between two nodes.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}
