package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
)

// NewAreasCommand creates the areas list command.
func NewAreasCommand() *cobra.Command {
	opts := &FilterOptions{}
	var untagged bool

	cmd := &cobra.Command{
		Use:   "areas",
		Short: "List areas",
		Long: `List areas with their cluster, status and tags.

Areas of clusters removed by --tree or --status are left out as well.`,
		Example: `  # Areas tagged or named go
  taxonomy areas --search go

  # Areas without any tag
  taxonomy areas --untagged`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := opts.Spec()
			if err != nil {
				return err
			}
			return runAreas(cmd, spec, untagged)
		},
	}

	opts.AddFlags(cmd, false)
	cmd.Flags().BoolVar(&untagged, "untagged", false, "Only areas without tags")
	return cmd
}

func runAreas(cmd *cobra.Command, spec core.FilterSpec, untagged bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	snap, err := cmdCtx.loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	areas := filter.Flat(snap.Clusters, snap.Areas, snap.Tags, spec).Areas
	if untagged {
		kept := areas[:0]
		for _, a := range areas {
			if len(a.Tags) == 0 {
				kept = append(kept, a)
			}
		}
		areas = kept
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.AreaListOutput{Filter: spec, Areas: areas, Shown: len(areas), Total: len(snap.Areas)})
	}

	clusterNames := make(map[string]string, len(snap.Clusters))
	for _, c := range snap.Clusters {
		clusterNames[c.UID] = c.Name
	}

	rows := make([][]string, 0, len(areas))
	for _, a := range areas {
		cluster := clusterNames[a.ClusterUID]
		if cluster == "" {
			cluster = a.ClusterUID + " (missing)"
		}
		rows = append(rows, []string{a.UID, a.Name, cluster, statusLabel(r, a.Status), strings.Join(a.Tags, ", ")})
	}

	r.Header(1, "Areas")
	r.Table([]string{"UID", "Name", "Cluster", "Status", "Tags"}, rows, "No areas match "+spec.String())
	if len(rows) > 0 {
		r.Println("")
		r.Muted(shownOf(len(areas), len(snap.Areas), "areas"))
	}
	return nil
}

// AreaOptions holds the flags of area create and update.
type AreaOptions struct {
	Name        string
	Cluster     string
	Description string
	Order       int
	Status      string
	Tags        []string
}

// NewAreaCommand creates the area command group.
func NewAreaCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "area",
		Aliases: []string{"a"},
		Short:   "Create, change, tag and remove areas",
	}

	cmd.AddCommand(newAreaCreateCommand())
	cmd.AddCommand(newAreaUpdateCommand())
	cmd.AddCommand(deleteCommand("area", "uid", "Delete an area and its tag links.", func(cmdCtx *CommandContext, cmd *cobra.Command, uid string) error {
		return cmdCtx.Client.DeleteArea(cmd.Context(), uid)
	}))
	cmd.AddCommand(newAreaTagCommand("tag"))
	cmd.AddCommand(newAreaTagCommand("untag"))
	cmd.AddCommand(statusCommand("area", "activate", "uid", func(cmdCtx *CommandContext, cmd *cobra.Command, uid string) (string, any, error) {
		a, err := cmdCtx.Client.ActivateArea(cmd.Context(), uid)
		return a.Name, a, err
	}))
	cmd.AddCommand(statusCommand("area", "deactivate", "uid", func(cmdCtx *CommandContext, cmd *cobra.Command, uid string) (string, any, error) {
		a, err := cmdCtx.Client.DeactivateArea(cmd.Context(), uid)
		return a.Name, a, err
	}))

	return cmd
}

func newAreaCreateCommand() *cobra.Command {
	opts := &AreaOptions{}
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an area in a cluster",
		Example: `  taxonomy area create "Checkout" --cluster backend --tags go,payments`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			in := core.AreaInput{
				Name:        args[0],
				Description: opts.Description,
				ClusterUID:  opts.Cluster,
				SortOrder:   opts.Order,
				Status:      core.Status(opts.Status),
				Tags:        splitList(opts.Tags),
			}
			m := mutation{Action: "create", Kind: "area", ID: args[0]}
			if err := in.Validate(); err != nil {
				return m.wrap(err)
			}
			a, err := cmdCtx.Client.CreateArea(cmd.Context(), in)
			if err != nil {
				return m.wrap(err)
			}
			m.ID = a.UID
			return m.report(cmdCtx.Renderer, a.Name, a)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.Cluster, "cluster", "c", "", "Owning cluster uid (required)")
	fs.StringVarP(&opts.Description, "description", "d", "", "Description")
	fs.IntVar(&opts.Order, "order", 0, "Sort order within the cluster")
	fs.StringVar(&opts.Status, "status", "", "Status: active|inactive|archived")
	fs.StringSliceVarP(&opts.Tags, "tags", "t", nil, "Tag slugs, comma separated")
	_ = cmd.MarkFlagRequired("cluster")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletion)
	return cmd
}

func newAreaUpdateCommand() *cobra.Command {
	opts := &AreaOptions{}
	cmd := &cobra.Command{
		Use:   "update <uid>",
		Short: "Change area fields",
		Long: `Change the fields given as flags and keep the rest.

--cluster moves the area to another cluster. --tags replaces the whole tag
set; use "area tag" and "area untag" to add or remove single tags.`,
		Example: `  taxonomy area update billing --cluster frontend --order 4`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			m := mutation{Action: "update", Kind: "area", ID: args[0]}
			ctx := cmd.Context()

			current, err := cmdCtx.Client.GetArea(ctx, args[0])
			if err != nil {
				return m.wrap(err)
			}
			in := core.AreaInput{
				Name:        current.Name,
				Description: current.Description,
				ClusterUID:  current.ClusterUID,
				SortOrder:   current.SortOrder,
				Status:      current.Status,
				Tags:        current.Tags,
			}
			fs := cmd.Flags()
			if fs.Changed("name") {
				in.Name = opts.Name
			}
			if fs.Changed("cluster") {
				in.ClusterUID = opts.Cluster
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
			if fs.Changed("tags") {
				in.Tags = splitList(opts.Tags)
			}
			if err := in.Validate(); err != nil {
				return m.wrap(err)
			}

			a, err := cmdCtx.Client.UpdateArea(ctx, args[0], in)
			if err != nil {
				return m.wrap(err)
			}
			return m.report(cmdCtx.Renderer, a.Name, a)
		},
	}
	fs := cmd.Flags()
	fs.StringVarP(&opts.Name, "name", "n", "", "New name")
	fs.StringVarP(&opts.Cluster, "cluster", "c", "", "Move to this cluster uid")
	fs.StringVarP(&opts.Description, "description", "d", "", "Description")
	fs.IntVar(&opts.Order, "order", 0, "Sort order within the cluster")
	fs.StringVar(&opts.Status, "status", "", "Status: active|inactive|archived")
	fs.StringSliceVarP(&opts.Tags, "tags", "t", nil, "Replace tags, comma separated")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletion)
	return cmd
}

// newAreaTagCommand builds "area tag" or "area untag".
func newAreaTagCommand(action string) *cobra.Command {
	short := "Add tags to an area"
	if action == "untag" {
		short = "Remove tags from an area"
	}
	return &cobra.Command{
		Use:     action + " <uid> <slug>...",
		Short:   short,
		Example: "  taxonomy area " + action + " billing go payments",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			req := core.TagRequest{AreaUID: args[0], TagSlugs: splitList(args[1:])}
			m := mutation{Action: action, Kind: "area", ID: args[0]}
			if err := req.Validate(); err != nil {
				return m.wrap(err)
			}

			var a core.Area
			if action == "untag" {
				a, err = cmdCtx.Client.UntagArea(cmd.Context(), req.AreaUID, req.TagSlugs)
			} else {
				a, err = cmdCtx.Client.TagArea(cmd.Context(), req.AreaUID, req.TagSlugs)
			}
			if err != nil {
				return m.wrap(err)
			}
			cmdCtx.Logger.Debug("area tags changed", "uid", a.UID, "tags", a.Tags)
			return m.report(cmdCtx.Renderer, a.Name+" ["+strings.Join(a.Tags, ", ")+"]", a)
		},
	}
}
