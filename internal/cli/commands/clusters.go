package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
)

// NewClustersCommand creates the clusters list command.
func NewClustersCommand() *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "clusters",
		Short: "List clusters",
		Long: `List clusters with their parent, status and number of areas.

The same --tree, --status and --search filters as the tree command apply.`,
		Example: `  # All clusters
  taxonomy clusters

  # Active clusters under engineering
  taxonomy clusters --tree engineering --status active`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runClusters(cmd, opts)
		},
	}

	opts.AddFlags(cmd, false)
	return cmd
}

func runClusters(cmd *cobra.Command, opts *FilterOptions) error {
	spec, err := opts.Spec()
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

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.ClusterListOutput{
			Filter:   spec,
			Clusters: res.Clusters,
			Shown:    len(res.Clusters),
			Total:    len(snap.Clusters),
		})
	}

	areaCount := make(map[string]int)
	for _, a := range snap.Areas {
		areaCount[a.ClusterUID]++
	}

	rows := make([][]string, 0, len(res.Clusters))
	for _, c := range res.Clusters {
		parent := c.ParentUID
		if parent == "" {
			parent = "-"
		}
		rows = append(rows, []string{
			c.UID,
			c.Name,
			parent,
			statusLabel(r, c.Status),
			strconv.Itoa(c.SortOrder),
			strconv.Itoa(areaCount[c.UID]),
		})
	}

	r.Header(1, "Clusters")
	r.Table([]string{"UID", "Name", "Parent", "Status", "Order", "Areas"}, rows, "No clusters match "+spec.String())
	if len(rows) > 0 {
		r.Println("")
		r.Muted(shownOf(len(res.Clusters), len(snap.Clusters), "clusters"))
	}
	return nil
}

// ClusterOptions holds the flags of cluster create and update.
type ClusterOptions struct {
	Parent      string
	Description string
	Order       int
	Status      string
	Name        string
}

func (o *ClusterOptions) addFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&o.Parent, "parent", "p", "", "Parent cluster uid (empty for a root)")
	fs.StringVarP(&o.Description, "description", "d", "", "Description")
	fs.IntVar(&o.Order, "order", 0, "Sort order among siblings")
	fs.StringVar(&o.Status, "status", "", "Status: active|inactive|archived")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletion)
}

// NewClusterCommand creates the cluster command group.
func NewClusterCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cluster",
		Aliases: []string{"c"},
		Short:   "Create, change and remove clusters",
	}

	cmd.AddCommand(newClusterCreateCommand())
	cmd.AddCommand(newClusterUpdateCommand())
	cmd.AddCommand(deleteCommand("cluster", "uid", `Delete a cluster and its areas.

A cluster that still has child clusters cannot be deleted; move or delete
the children first.`, func(cmdCtx *CommandContext, cmd *cobra.Command, uid string) error {
		return cmdCtx.Client.DeleteCluster(cmd.Context(), uid)
	}))
	cmd.AddCommand(statusCommand("cluster", "activate", "uid", func(cmdCtx *CommandContext, cmd *cobra.Command, uid string) (string, any, error) {
		c, err := cmdCtx.Client.ActivateCluster(cmd.Context(), uid)
		return c.Name, c, err
	}))
	cmd.AddCommand(statusCommand("cluster", "deactivate", "uid", func(cmdCtx *CommandContext, cmd *cobra.Command, uid string) (string, any, error) {
		c, err := cmdCtx.Client.DeactivateCluster(cmd.Context(), uid)
		return c.Name, c, err
	}))
	cmd.AddCommand(newClusterMoveCommand())

	return cmd
}

func newClusterCreateCommand() *cobra.Command {
	opts := &ClusterOptions{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a cluster",
		Example: `  # A new root cluster
  taxonomy cluster create "Operations"

  # A child of engineering listed first
  taxonomy cluster create "Mobile" --parent engineering --order 0`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			in := core.ClusterInput{
				Name:        args[0],
				Description: opts.Description,
				ParentUID:   opts.Parent,
				SortOrder:   opts.Order,
				Status:      core.Status(opts.Status),
			}
			m := mutation{Action: "create", Kind: "cluster", ID: args[0]}
			if err := in.Validate(); err != nil {
				return m.wrap(err)
			}
			c, err := cmdCtx.Client.CreateCluster(cmd.Context(), in)
			if err != nil {
				return m.wrap(err)
			}
			m.ID = c.UID
			return m.report(cmdCtx.Renderer, c.Name, c)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newClusterUpdateCommand() *cobra.Command {
	opts := &ClusterOptions{}
	cmd := &cobra.Command{
		Use:   "update <uid>",
		Short: "Change cluster fields",
		Long: `Change the fields given as flags and keep the rest.

Use "cluster move" to change the parent of a cluster.`,
		Example: `  taxonomy cluster update frontend --name "Web frontend" --order 3`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			m := mutation{Action: "update", Kind: "cluster", ID: args[0]}
			ctx := cmd.Context()

			current, err := cmdCtx.Client.GetCluster(ctx, args[0])
			if err != nil {
				return m.wrap(err)
			}
			in := core.ClusterInput{
				Name:        current.Name,
				Description: current.Description,
				ParentUID:   current.ParentUID,
				SortOrder:   current.SortOrder,
				Status:      current.Status,
			}
			fs := cmd.Flags()
			if fs.Changed("name") {
				in.Name = opts.Name
			}
			if fs.Changed("description") {
				in.Description = opts.Description
			}
			if order := intFlag(fs, "order"); order != nil {
				in.SortOrder = *order
			}
			if fs.Changed("status") {
				in.Status = core.Status(opts.Status)
			}
			if err := in.Validate(); err != nil {
				return m.wrap(err)
			}

			c, err := cmdCtx.Client.UpdateCluster(ctx, args[0], in)
			if err != nil {
				return m.wrap(err)
			}
			return m.report(cmdCtx.Renderer, c.Name, c)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.Name, "name", "n", "", "New name")
	fs.StringVarP(&opts.Description, "description", "d", "", "Description")
	fs.IntVar(&opts.Order, "order", 0, "Sort order among siblings")
	fs.StringVar(&opts.Status, "status", "", "Status: active|inactive|archived")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletion)
	return cmd
}

func newClusterMoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "move <uid> [new-parent]",
		Short: "Move a cluster under another parent",
		Long: `Move a cluster, with its subtree, under a new parent cluster.

Without a new parent the cluster becomes a root. Moving a cluster under
itself or one of its descendants is rejected by the API.`,
		Example: `  # Re-parent frontend under design
  taxonomy cluster move frontend design

  # Make legacy a root cluster listed last
  taxonomy cluster move legacy --order 99`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			parent := ""
			if len(args) == 2 {
				parent = args[1]
			}
			m := mutation{Action: "move", Kind: "cluster", ID: args[0]}
			if parent == args[0] {
				return m.wrap(core.FieldErrors{"new_parent_uid": "cannot be the cluster itself"})
			}

			c, err := cmdCtx.Client.MoveCluster(cmd.Context(), args[0], parent, intFlag(cmd.Flags(), "order"))
			if err != nil {
				return m.wrap(err)
			}
			cmdCtx.Logger.Debug("cluster moved", "uid", c.UID, "parent", parent)

			label := c.Name + " to the top level"
			if parent != "" {
				label = c.Name + " under " + parent
			}
			return m.report(cmdCtx.Renderer, label, c)
		},
	}
	cmd.Flags().Int("order", 0, "Sort order among the new siblings (default: keep)")
	return cmd
}

func statusCompletion(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		string(core.StatusActive),
		string(core.StatusInactive),
		string(core.StatusArchived),
	}, cobra.ShellCompDirectiveNoFileComp
}

func shownOf(shown, total int, noun string) string {
	return "Showing " + strconv.Itoa(shown) + " of " + strconv.Itoa(total) + " " + noun
}
