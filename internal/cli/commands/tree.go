package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

// TreeOptions holds options for the tree command.
type TreeOptions struct {
	Filter  FilterOptions
	Depth   int
	NoAreas bool
}

// NewTreeCommand creates the tree command.
func NewTreeCommand() *cobra.Command {
	opts := &TreeOptions{}

	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Show the cluster hierarchy",
		Long: `Show clusters as a tree with their areas and tags.

Filters apply in order: --tree limits to one root cluster, --status active
hides inactive entities, --type selects clusters or areas, --search matches
cluster names, area names and tags, keeping the ancestors of every match.
Clusters whose parent chain is broken are not part of the tree and are
reported after it.`,
		Example: `  # Full hierarchy
  taxonomy tree

  # Active entities under engineering, clusters only
  taxonomy tree --tree engineering --status active --type clusters

  # Everything mentioning react, as JSON
  taxonomy tree --search react -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTree(cmd, opts)
		},
	}

	opts.Filter.AddFlags(cmd, true)
	cmd.Flags().IntVar(&opts.Depth, "depth", -1, "Maximum depth to show (-1 for unlimited)")
	cmd.Flags().BoolVar(&opts.NoAreas, "no-areas", false, "Hide areas")

	return cmd
}

func runTree(cmd *cobra.Command, opts *TreeOptions) error {
	spec, err := opts.Filter.Spec()
	if err != nil {
		return err
	}

	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	snap, err := cmdCtx.loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}

	res := filter.Flat(snap.Clusters, snap.Areas, snap.Tags, spec)
	areas := res.Areas
	if opts.NoAreas {
		areas = nil
	}
	clusters := res.Clusters
	if spec.Search != "" {
		clusters = filter.WithAncestors(snap.Clusters, clusters)
	}
	roots := hierarchy.BuildWithAreas(clusters, areas)
	dropped := hierarchy.Dropped(snap.Clusters)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(buildTreeOutput(spec, roots, dropped, opts.Depth))
	case output.ModeMarkdown:
		renderTreeMarkdown(r, roots, opts.Depth)
	default:
		renderTreeText(r, roots, opts.Depth)
	}

	if len(roots) == 0 {
		r.Muted("No clusters match " + spec.String())
	}
	for _, d := range dropped {
		r.Warning(droppedMessage(d))
	}
	return nil
}

func buildTreeOutput(spec core.FilterSpec, roots []*hierarchy.Node, dropped []hierarchy.DroppedCluster, maxDepth int) output.TreeOutput {
	out := output.TreeOutput{Filter: spec, Roots: []output.TreeNode{}}

	var convert func(n *hierarchy.Node) output.TreeNode
	convert = func(n *hierarchy.Node) output.TreeNode {
		tn := output.TreeNode{
			UID:    n.Cluster.UID,
			Name:   n.Cluster.Name,
			Status: n.Cluster.Status,
			Depth:  n.Depth,
		}
		out.Summary.Clusters++
		if n.Depth > out.Summary.MaxDepth {
			out.Summary.MaxDepth = n.Depth
		}
		for _, a := range n.Areas {
			tn.Areas = append(tn.Areas, output.AreaRef{UID: a.UID, Name: a.Name, Status: a.Status, Tags: tagsOrEmpty(a.Tags)})
			out.Summary.Areas++
		}
		if withinDepth(n.Depth+1, maxDepth) {
			for _, c := range n.Children {
				tn.Children = append(tn.Children, convert(c))
			}
		}
		return tn
	}
	for _, root := range roots {
		out.Roots = append(out.Roots, convert(root))
	}
	if len(roots) == 0 {
		out.Summary.MaxDepth = -1
	}

	for _, d := range dropped {
		out.Dropped = append(out.Dropped, output.DroppedInfo{
			UID:        d.Cluster.UID,
			Name:       d.Cluster.Name,
			Reason:     string(d.Reason),
			MissingUID: d.MissingUID,
		})
	}
	return out
}

func renderTreeText(r *output.Renderer, roots []*hierarchy.Node, maxDepth int) {
	styles := r.Styles()

	var render func(n *hierarchy.Node, prefix string, last, root bool)
	render = func(n *hierarchy.Node, prefix string, last, root bool) {
		branch, childPrefix := "", ""
		if !root {
			branch = "├── "
			childPrefix = prefix + "│   "
			if last {
				branch = "└── "
				childPrefix = prefix + "    "
			}
		}

		line := prefix + branch + styles.Bold.Render(n.Cluster.Name) + " " + styles.Muted.Render("("+n.Cluster.UID+")")
		if !n.Cluster.Status.IsActive() {
			line += " " + statusLabel(r, n.Cluster.Status)
		}
		r.Println(line)

		showChildren := withinDepth(n.Depth+1, maxDepth)
		children := n.Children
		if !showChildren {
			children = nil
		}

		for i, a := range n.Areas {
			connector := "├── "
			if i == len(n.Areas)-1 && len(children) == 0 {
				connector = "└── "
			}
			r.Println(childPrefix + connector + areaLine(r, a))
		}
		for i, c := range children {
			render(c, childPrefix, i == len(children)-1, false)
		}
	}

	for _, root := range roots {
		render(root, "", true, true)
	}
}

func areaLine(r *output.Renderer, a core.Area) string {
	styles := r.Styles()
	line := "▪ " + a.Name
	if len(a.Tags) > 0 {
		tags := make([]string, len(a.Tags))
		for i, t := range a.Tags {
			tags[i] = "#" + t
		}
		line += " " + styles.Info.Render(strings.Join(tags, " "))
	}
	if !a.Status.IsActive() {
		line += " " + statusLabel(r, a.Status)
	}
	return line
}

func renderTreeMarkdown(r *output.Renderer, roots []*hierarchy.Node, maxDepth int) {
	r.Println(output.FormatHeader(1, "Taxonomy"))
	r.Println("")

	hierarchy.Walk(roots, func(n *hierarchy.Node, depth int) bool {
		indent := strings.Repeat("  ", depth)
		line := fmt.Sprintf("%s- **%s** `%s`", indent, n.Cluster.Name, n.Cluster.UID)
		if !n.Cluster.Status.IsActive() {
			line += " _" + string(n.Cluster.Status) + "_"
		}
		r.Println(line)
		for _, a := range n.Areas {
			al := fmt.Sprintf("%s  - %s", indent, a.Name)
			if len(a.Tags) > 0 {
				al += " (" + strings.Join(a.Tags, ", ") + ")"
			}
			if !a.Status.IsActive() {
				al += " _" + string(a.Status) + "_"
			}
			r.Println(al)
		}
		return withinDepth(depth+1, maxDepth)
	})
	r.Println("")
}

func droppedMessage(d hierarchy.DroppedCluster) string {
	switch d.Reason {
	case hierarchy.DropMissingParent:
		return fmt.Sprintf("cluster %s is not in the tree: parent %s does not exist", d.Cluster.UID, d.MissingUID)
	case hierarchy.DropCycle:
		return fmt.Sprintf("cluster %s is not in the tree: its parent chain forms a cycle", d.Cluster.UID)
	case hierarchy.DropDuplicate:
		return fmt.Sprintf("cluster %s appears more than once; later copies are ignored", d.Cluster.UID)
	}
	return fmt.Sprintf("cluster %s is not in the tree", d.Cluster.UID)
}

func withinDepth(depth, maxDepth int) bool {
	return maxDepth < 0 || depth <= maxDepth
}

func tagsOrEmpty(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
