package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
	"github.com/leapstack-labs/taxonomy/pkg/stats"
)

// Check statuses.
const (
	checkPass  = "pass"
	checkWarn  = "warn"
	checkError = "error"
)

// ErrChecksFailed is returned by health --strict when a check did not pass.
var ErrChecksFailed = errors.New("health checks reported issues")

// HealthOptions holds options for the health command.
type HealthOptions struct {
	Strict bool
}

// NewHealthCommand creates the health command.
func NewHealthCommand() *cobra.Command {
	opts := &HealthOptions{}
	cmd := &cobra.Command{
		Use:     "health",
		Aliases: []string{"doctor"},
		Short:   "Check the API and the integrity of the taxonomy",
		Long: `Check that the taxonomy API is reachable, then analyze the data for
problems the console would hide:

- Clusters unreachable from a root (dangling parent, cycle, duplicate uid)
- Active clusters under an inactive ancestor
- Areas whose cluster is missing or unreachable
- Areas referencing undefined tags
- Active areas carrying inactive tags
- Tags no area uses

The command fails when the API is unreachable. With --strict it also fails
when any check reports issues.`,
		Example: `  # Check the configured API
  taxonomy health

  # Fail a CI job on any data issue
  taxonomy health --strict -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHealth(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Fail when any check reports issues")
	return cmd
}

func runHealth(cmd *cobra.Command, opts *HealthOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	out := &output.HealthOutput{APIURL: cmdCtx.Client.BaseURL(), Checks: []output.HealthCheck{}}

	start := time.Now()
	h, err := cmdCtx.Client.Health(ctx)
	out.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		out.Error = apiclient.Message(err)
		renderHealth(r, out)
		return fmt.Errorf("taxonomy API at %s is not reachable: %w", out.APIURL, err)
	}
	out.Health = &h
	out.Healthy = h.Healthy()

	snap, err := cmdCtx.loadSnapshot(ctx)
	if err != nil {
		out.Error = apiclient.Message(err)
		renderHealth(r, out)
		return err
	}

	out.Checks = runChecks(snap)
	for _, c := range out.Checks {
		out.IssueCount += c.IssueCount
	}
	out.Score = healthScore(out.Checks)
	cmdCtx.Logger.Debug("health checks done", "issues", out.IssueCount, "score", out.Score)

	renderHealth(r, out)

	if !out.Healthy {
		return fmt.Errorf("taxonomy API reports status %q", h.Status)
	}
	if opts.Strict && out.IssueCount > 0 {
		return fmt.Errorf("%w: %d issues", ErrChecksFailed, out.IssueCount)
	}
	return nil
}

// runChecks analyzes a snapshot. Checks are returned grouped, hierarchy first.
func runChecks(snap apiclient.Snapshot) []output.HealthCheck {
	return []output.HealthCheck{
		checkUnreachable(snap.Clusters),
		checkInheritedStatus(snap.Clusters),
		checkOrphanAreas(snap.Clusters, snap.Areas),
		checkUnknownTags(snap.Areas, snap.Tags),
		checkInactiveTags(snap.Areas, snap.Tags),
		checkUnusedTags(snap.Areas, snap.Tags),
	}
}

func newCheck(id, name, group, failStatus string, details []string) output.HealthCheck {
	c := output.HealthCheck{ID: id, Name: name, Group: group, Status: checkPass, IssueCount: len(details), Details: details}
	if len(details) > 0 {
		c.Status = failStatus
	}
	return c
}

func checkUnreachable(clusters []core.Cluster) output.HealthCheck {
	var details []string
	for _, d := range hierarchy.Dropped(clusters) {
		details = append(details, droppedMessage(d))
	}
	return newCheck("H001", "Clusters reachable from a root", "hierarchy", checkError, details)
}

func checkInheritedStatus(clusters []core.Cluster) output.HealthCheck {
	var details []string
	for _, row := range hierarchy.Flatten(hierarchy.Build(clusters), nil) {
		if row.Inherited && row.Node.Cluster.Status.IsActive() {
			details = append(details, fmt.Sprintf("cluster %s is active but shown as %s", row.Node.UID(), row.EffectiveStatus))
		}
	}
	return newCheck("H002", "Active clusters under active parents", "hierarchy", checkWarn, details)
}

func checkOrphanAreas(clusters []core.Cluster, areas []core.Area) output.HealthCheck {
	known := make(map[string]bool, len(clusters))
	for _, c := range clusters {
		known[c.UID] = true
	}
	reachable := make(map[string]bool, len(clusters))
	hierarchy.Walk(hierarchy.Build(clusters), func(n *hierarchy.Node, _ int) bool {
		reachable[n.UID()] = true
		return true
	})

	var details []string
	for _, a := range areas {
		switch {
		case !known[a.ClusterUID]:
			details = append(details, fmt.Sprintf("area %s references missing cluster %s", a.UID, a.ClusterUID))
		case !reachable[a.ClusterUID]:
			details = append(details, fmt.Sprintf("area %s belongs to unreachable cluster %s", a.UID, a.ClusterUID))
		}
	}
	return newCheck("H003", "Areas attached to the tree", "hierarchy", checkError, details)
}

func checkUnknownTags(areas []core.Area, tags []core.Tag) output.HealthCheck {
	defined := tagIndex(tags)
	var details []string
	for _, a := range areas {
		for _, slug := range a.Tags {
			if _, ok := defined[slug]; !ok {
				details = append(details, fmt.Sprintf("area %s uses undefined tag %s", a.UID, slug))
			}
		}
	}
	return newCheck("T001", "Area tags are defined", "tags", checkError, details)
}

func checkInactiveTags(areas []core.Area, tags []core.Tag) output.HealthCheck {
	defined := tagIndex(tags)
	var details []string
	for _, a := range areas {
		if !a.Status.IsActive() {
			continue
		}
		for _, slug := range a.Tags {
			if t, ok := defined[slug]; ok && !t.Status.IsActive() {
				details = append(details, fmt.Sprintf("area %s carries %s tag %s", a.UID, t.Status, slug))
			}
		}
	}
	return newCheck("T002", "Active areas carry active tags", "tags", checkWarn, details)
}

func checkUnusedTags(areas []core.Area, tags []core.Tag) output.HealthCheck {
	usage := stats.TagUsage(areas)
	var details []string
	for _, t := range tags {
		if usage[t.Slug] == 0 {
			details = append(details, fmt.Sprintf("tag %s is not used by any area", t.Slug))
		}
	}
	return newCheck("T003", "Tags in use", "tags", checkWarn, details)
}

func tagIndex(tags []core.Tag) map[string]core.Tag {
	m := make(map[string]core.Tag, len(tags))
	for _, t := range tags {
		m[t.Slug] = t
	}
	return m
}

// healthScore is the percentage of passing checks, warnings counting half.
func healthScore(checks []output.HealthCheck) int {
	if len(checks) == 0 {
		return 100
	}
	points := 0
	for _, c := range checks {
		switch c.Status {
		case checkPass:
			points += 2
		case checkWarn:
			points++
		}
	}
	return points * 100 / (2 * len(checks))
}

func renderHealth(r *output.Renderer, out *output.HealthOutput) {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		_ = r.JSON(out)
	case output.ModeMarkdown:
		renderHealthMarkdown(r, out)
	default:
		renderHealthText(r, out)
	}
}

func renderHealthText(r *output.Renderer, out *output.HealthOutput) {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("Taxonomy Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("API"))
	switch {
	case out.Error != "":
		r.StatusLine(out.APIURL, "failed", out.Error)
	case !out.Healthy:
		r.StatusLine(out.APIURL, "warning", "status "+out.Health.Status)
	default:
		detail := fmt.Sprintf("%dms", out.LatencyMS)
		if out.Health.Version != "" {
			detail += ", version " + out.Health.Version
		}
		r.StatusLine(out.APIURL, "success", detail)
	}
	r.Println("")

	if len(out.Checks) == 0 {
		return
	}

	r.Println(styles.Header2.Render("Data Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case checkWarn:
			icon = styles.Warning.Render("!")
		case checkError:
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.ID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")
}

func renderHealthMarkdown(r *output.Renderer, out *output.HealthOutput) {
	r.Println("# Taxonomy Health Report")
	r.Println("")

	r.Println("## API")
	r.Println("")
	r.Printf("- **URL**: %s\n", out.APIURL)
	switch {
	case out.Error != "":
		r.Printf("- **Status**: unreachable (%s)\n", out.Error)
	default:
		r.Printf("- **Status**: %s\n", out.Health.Status)
		r.Printf("- **Latency**: %dms\n", out.LatencyMS)
		if out.Health.Version != "" {
			r.Printf("- **Version**: %s\n", out.Health.Version)
		}
	}
	r.Println("")

	if len(out.Checks) == 0 {
		return
	}

	r.Println("## Data Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case checkWarn:
			status = "WARN"
		case checkError:
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.ID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")
}
