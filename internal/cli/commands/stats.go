package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/filter"
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// StatsOptions holds options for the stats command.
type StatsOptions struct {
	Filter FilterOptions
	Top    int
	Cloud  int
	Server bool
}

// NewStatsCommand creates the stats command.
func NewStatsCommand() *cobra.Command {
	opts := &StatsOptions{}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Summarize clusters, areas and tag usage",
		Long: `Show the dashboard figures: entity counts, hierarchy depth, unreachable
clusters, tag coverage and the most used tags.

Figures are computed from the filtered data. --server also shows the
counters reported by the API itself.`,
		Example: `  # Summary with the ten most used tags
  taxonomy stats --top 10

  # Summary of one tree with its tag cloud
  taxonomy stats --tree engineering --cloud 15`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStats(cmd, opts)
		},
	}

	opts.Filter.AddFlags(cmd, false)
	cmd.Flags().IntVar(&opts.Top, "top", stats.DefaultTopTags, "Number of top tags to show (0 for all)")
	cmd.Flags().IntVar(&opts.Cloud, "cloud", 0, "Show the N heaviest tag cloud terms")
	cmd.Flags().BoolVar(&opts.Server, "server", false, "Include the API's own counters")
	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions) error {
	spec, err := opts.Filter.Spec()
	if err != nil {
		return err
	}
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	snap, err := cmdCtx.loadSnapshot(ctx)
	if err != nil {
		return err
	}
	res := filter.Flat(snap.Clusters, snap.Areas, snap.Tags, spec)

	out := output.StatsOutput{Summary: stats.Summarize(res.Clusters, res.Areas, res.Tags)}
	if opts.Top != stats.DefaultTopTags {
		out.Summary.TopTags = stats.TopTags(stats.TagUsage(res.Areas), opts.Top)
	}
	if opts.Cloud > 0 {
		out.Cloud = stats.TagCloud(res.Clusters, res.Areas, res.Tags)
		if len(out.Cloud) > opts.Cloud {
			out.Cloud = out.Cloud[:opts.Cloud]
		}
	}
	if opts.Server {
		s, err := cmdCtx.Client.Stats(ctx)
		if err != nil {
			return fmt.Errorf("failed to fetch server stats: %w", err)
		}
		out.Server = &s
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		renderStatsMarkdown(r, &out)
	default:
		renderStatsText(r, &out)
	}
	return nil
}

func renderStatsText(r *output.Renderer, out *output.StatsOutput) {
	styles := r.Styles()
	s := out.Summary

	r.Println(styles.Header1.Render("Taxonomy Summary"))
	r.Println("")

	r.Println(styles.Header2.Render("Clusters"))
	r.Printf("   Total: %d | Active: %d | Roots: %d | Levels: %d\n", s.TotalClusters, s.ActiveClusters, s.RootClusters, s.MaxDepth+1)
	if s.Unreachable > 0 {
		r.Println("   " + styles.Warning.Render(fmt.Sprintf("! %d not reachable from a root", s.Unreachable)))
	}
	r.Println("")

	r.Println(styles.Header2.Render("Areas"))
	r.Printf("   Total: %d | Active: %d | Untagged: %d | Tags per area: %.1f\n", s.TotalAreas, s.ActiveAreas, s.UntaggedAreas, s.AvgTagsPerArea)
	r.Println("")

	r.Println(styles.Header2.Render("Tags"))
	r.Printf("   Total: %d | Active: %d | Unused: %d\n", s.TotalTags, s.ActiveTags, s.UnusedTags)
	r.Println("")

	if len(s.TopTags) > 0 {
		r.Println(styles.Header2.Render("Top Tags"))
		rows := make([][]string, len(s.TopTags))
		for i, tc := range s.TopTags {
			rows[i] = []string{strconv.Itoa(i + 1), tc.Slug, strconv.Itoa(tc.Count)}
		}
		r.Table([]string{"#", "Tag", "Areas"}, rows, "")
		r.Println("")
	}

	if len(out.Cloud) > 0 {
		r.Println(styles.Header2.Render("Tag Cloud"))
		for _, e := range out.Cloud {
			r.Printf("   %-24s %s\n", e.Term, styles.Info.Render(bar(e.Weight)))
		}
		r.Println("")
	}

	if out.Server != nil {
		r.Println(styles.Header2.Render("Reported by API"))
		r.Printf("   Clusters: %d/%d | Areas: %d/%d | Tags: %d/%d (active/total)\n",
			out.Server.ActiveClusters, out.Server.TotalClusters,
			out.Server.ActiveAreas, out.Server.TotalAreas,
			out.Server.ActiveTags, out.Server.TotalTags)
		r.Println("")
	}
}

func renderStatsMarkdown(r *output.Renderer, out *output.StatsOutput) {
	s := out.Summary

	r.Header(1, "Taxonomy Summary")

	r.Header(2, "Clusters")
	r.KeyValue("Total", strconv.Itoa(s.TotalClusters))
	r.KeyValue("Active", strconv.Itoa(s.ActiveClusters))
	r.KeyValue("Roots", strconv.Itoa(s.RootClusters))
	r.KeyValue("Max depth", strconv.Itoa(s.MaxDepth))
	r.KeyValue("Unreachable", strconv.Itoa(s.Unreachable))
	r.Println("")

	r.Header(2, "Areas")
	r.KeyValue("Total", strconv.Itoa(s.TotalAreas))
	r.KeyValue("Active", strconv.Itoa(s.ActiveAreas))
	r.KeyValue("Untagged", strconv.Itoa(s.UntaggedAreas))
	r.KeyValue("Tags per area", fmt.Sprintf("%.1f", s.AvgTagsPerArea))
	r.Println("")

	r.Header(2, "Tags")
	r.KeyValue("Total", strconv.Itoa(s.TotalTags))
	r.KeyValue("Active", strconv.Itoa(s.ActiveTags))
	r.KeyValue("Unused", strconv.Itoa(s.UnusedTags))
	r.Println("")

	if len(s.TopTags) > 0 {
		r.Header(2, "Top Tags")
		rows := make([][]string, len(s.TopTags))
		for i, tc := range s.TopTags {
			rows[i] = []string{strconv.Itoa(i + 1), tc.Slug, strconv.Itoa(tc.Count)}
		}
		r.Table([]string{"#", "Tag", "Areas"}, rows, "")
		r.Println("")
	}

	if len(out.Cloud) > 0 {
		r.Header(2, "Tag Cloud")
		for _, e := range out.Cloud {
			r.Printf("- %s (%d)\n", e.Term, e.Weight)
		}
		r.Println("")
	}

	if out.Server != nil {
		r.Header(2, "Reported by API")
		r.KeyValue("Clusters", fmt.Sprintf("%d active of %d", out.Server.ActiveClusters, out.Server.TotalClusters))
		r.KeyValue("Areas", fmt.Sprintf("%d active of %d", out.Server.ActiveAreas, out.Server.TotalAreas))
		r.KeyValue("Tags", fmt.Sprintf("%d active of %d", out.Server.ActiveTags, out.Server.TotalTags))
		r.Println("")
	}
}

func bar(n int) string {
	const maxBar = 30
	if n > maxBar {
		n = maxBar
	}
	return strings.Repeat("█", n)
}
