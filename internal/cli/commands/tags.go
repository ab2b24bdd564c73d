package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// NewTagsCommand creates the tags list command.
func NewTagsCommand() *cobra.Command {
	var status, search string
	var unused bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List tags with usage counts",
		Long: `List tags with the number of areas carrying each one.

Tags do not belong to the hierarchy, so only --status and --search apply.`,
		Example: `  # Tags nobody uses
  taxonomy tags --unused`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec := core.FilterSpec{Status: core.Status(status), Search: search}.Normalize()
			if err := spec.Validate(); err != nil {
				return err
			}
			return runTags(cmd, spec, unused)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&status, "status", string(core.StatusAll), "Status filter: all|active")
	fs.StringVarP(&search, "search", "s", "", "Case-insensitive search term")
	fs.BoolVar(&unused, "unused", false, "Only tags no area carries")
	_ = cmd.RegisterFlagCompletionFunc("status", fixedCompletion(string(core.StatusAll), string(core.StatusActive)))
	return cmd
}

func runTags(cmd *cobra.Command, spec core.FilterSpec, unused bool) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	snap, err := cmdCtx.loadSnapshot(cmd.Context())
	if err != nil {
		return err
	}
	usage := stats.TagUsage(snap.Areas)
	tags := filter.Flat(nil, nil, snap.Tags, spec).Tags

	infos := make([]output.TagInfo, 0, len(tags))
	for _, t := range tags {
		if unused && usage[t.Slug] > 0 {
			continue
		}
		infos = append(infos, output.TagInfo{Tag: t, Usage: usage[t.Slug]})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.TagListOutput{Filter: spec, Tags: infos, Shown: len(infos), Total: len(snap.Tags)})
	}

	rows := make([][]string, 0, len(infos))
	for _, t := range infos {
		rows = append(rows, []string{t.Slug, t.Label(), t.Color, statusLabel(r, t.Status), strconv.Itoa(t.Usage)})
	}

	r.Header(1, "Tags")
	r.Table([]string{"Slug", "Label", "Color", "Status", "Areas"}, rows, "No tags match "+spec.String())
	if len(rows) > 0 {
		r.Println("")
		r.Muted(shownOf(len(infos), len(snap.Tags), "tags"))
	}
	return nil
}

// TagOptions holds the flags of tag create and update.
type TagOptions struct {
	Label  string
	Color  string
	Status string
}

// NewTagCommand creates the tag command group.
func NewTagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tag",
		Aliases: []string{"t"},
		Short:   "Create, change and remove tags",
	}

	cmd.AddCommand(newTagCreateCommand())
	cmd.AddCommand(newTagUpdateCommand())
	cmd.AddCommand(deleteCommand("tag", "slug", "Delete a tag and remove it from every area.", func(cmdCtx *CommandContext, cmd *cobra.Command, slug string) error {
		return cmdCtx.Client.DeleteTag(cmd.Context(), slug)
	}))
	cmd.AddCommand(statusCommand("tag", "activate", "slug", func(cmdCtx *CommandContext, cmd *cobra.Command, slug string) (string, any, error) {
		t, err := cmdCtx.Client.ActivateTag(cmd.Context(), slug)
		return t.Label(), t, err
	}))
	cmd.AddCommand(statusCommand("tag", "deactivate", "slug", func(cmdCtx *CommandContext, cmd *cobra.Command, slug string) (string, any, error) {
		t, err := cmdCtx.Client.DeactivateTag(cmd.Context(), slug)
		return t.Label(), t, err
	}))

	return cmd
}

func (o *TagOptions) addFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&o.Label, "label", "l", "", "Display name (default: the slug)")
	fs.StringVar(&o.Color, "color", "", "Hex color, e.g. #3b82f6")
	fs.StringVar(&o.Status, "status", "", "Status: active|inactive|archived")
	_ = cmd.RegisterFlagCompletionFunc("status", statusCompletion)
}

func newTagCreateCommand() *cobra.Command {
	opts := &TagOptions{}
	cmd := &cobra.Command{
		Use:     "create <slug>",
		Short:   "Create a tag",
		Example: `  taxonomy tag create svelte --label Svelte --color "#ff3e00"`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			in := core.TagInput{
				Slug:        args[0],
				DisplayName: opts.Label,
				Color:       opts.Color,
				Status:      core.Status(opts.Status),
			}
			if in.DisplayName == "" {
				in.DisplayName = in.Slug
			}
			m := mutation{Action: "create", Kind: "tag", ID: args[0]}
			if err := in.Validate(); err != nil {
				return m.wrap(err)
			}
			t, err := cmdCtx.Client.CreateTag(cmd.Context(), in)
			if err != nil {
				return m.wrap(err)
			}
			return m.report(cmdCtx.Renderer, t.Label(), t)
		},
	}
	opts.addFlags(cmd)
	return cmd
}

func newTagUpdateCommand() *cobra.Command {
	opts := &TagOptions{}
	cmd := &cobra.Command{
		Use:     "update <slug>",
		Short:   "Change tag label, color or status",
		Long:    `Change the fields given as flags and keep the rest. The slug cannot change.`,
		Example: `  taxonomy tag update go --label Golang`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			m := mutation{Action: "update", Kind: "tag", ID: args[0]}
			ctx := cmd.Context()

			current, err := cmdCtx.Client.GetTag(ctx, args[0])
			if err != nil {
				return m.wrap(err)
			}
			in := core.TagInput{
				Slug:        current.Slug,
				DisplayName: current.Label(),
				Color:       current.Color,
				Status:      current.Status,
			}
			fs := cmd.Flags()
			if fs.Changed("label") {
				in.DisplayName = opts.Label
			}
			if fs.Changed("color") {
				in.Color = opts.Color
			}
			if fs.Changed("status") {
				in.Status = core.Status(opts.Status)
			}
			if err := in.Validate(); err != nil {
				return m.wrap(err)
			}

			t, err := cmdCtx.Client.UpdateTag(ctx, args[0], in)
			if err != nil {
				return m.wrap(err)
			}
			return m.report(cmdCtx.Renderer, t.Label(), t)
		},
	}
	opts.addFlags(cmd)
	return cmd
}
