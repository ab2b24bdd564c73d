package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/cli/config"
	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/internal/cli/testutil"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

func TestNewTreeCommand(t *testing.T) {
	cmd := NewTreeCommand()

	assert.Equal(t, "tree", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	// output is a global flag on root, not local
	flags := []string{"tree", "status", "type", "search", "depth", "no-areas"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Equal(t, "-1", cmd.Flags().Lookup("depth").DefValue)
}

func TestListCommands(t *testing.T) {
	tests := []struct {
		cmd   *cobra.Command
		use   string
		flags []string
	}{
		{NewClustersCommand(), "clusters", []string{"tree", "status", "search"}},
		{NewAreasCommand(), "areas", []string{"tree", "status", "search", "untagged"}},
		{NewTagsCommand(), "tags", []string{"status", "search", "unused"}},
		{NewStatsCommand(), "stats", []string{"tree", "status", "type", "search", "top", "cloud", "server"}},
		{NewHealthCommand(), "health", []string{"strict"}},
		{NewBrowseCommand(), "browse", []string{"tree", "status", "search"}},
	}

	for _, tt := range tests {
		t.Run(tt.use, func(t *testing.T) {
			assert.Equal(t, tt.use, tt.cmd.Use)
			assert.NotEmpty(t, tt.cmd.Short)
			for _, flag := range tt.flags {
				assert.NotNil(t, tt.cmd.Flags().Lookup(flag), "flag %q should exist", flag)
			}
		})
	}

	assert.Nil(t, NewBrowseCommand().Flags().Lookup("type"), "browse always shows clusters and areas")
	assert.Equal(t, []string{"doctor"}, NewHealthCommand().Aliases)
}

func subcommandNames(cmd *cobra.Command) []string {
	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	return names
}

func TestMutationCommandGroups(t *testing.T) {
	cluster := NewClusterCommand()
	assert.Equal(t, "cluster", cluster.Use)
	assert.Contains(t, cluster.Aliases, "c")
	assert.ElementsMatch(t,
		[]string{"create", "update", "delete", "activate", "deactivate", "move"},
		subcommandNames(cluster))

	area := NewAreaCommand()
	assert.Equal(t, "area", area.Use)
	assert.ElementsMatch(t,
		[]string{"create", "update", "delete", "tag", "untag", "activate", "deactivate"},
		subcommandNames(area))

	tag := NewTagCommand()
	assert.Equal(t, "tag", tag.Use)
	assert.ElementsMatch(t,
		[]string{"create", "update", "delete", "activate", "deactivate"},
		subcommandNames(tag))
}

func TestMutationCommandShorts(t *testing.T) {
	area := NewAreaCommand()
	deactivate, _, err := area.Find([]string{"deactivate"})
	require.NoError(t, err)
	assert.Equal(t, "Deactivate an area", deactivate.Short)

	del, _, err := NewClusterCommand().Find([]string{"rm"})
	require.NoError(t, err)
	assert.Equal(t, "delete <uid>", del.Use)
	assert.Equal(t, "Delete a cluster", del.Short)
}

func TestAreaCreateRequiresCluster(t *testing.T) {
	create, _, err := NewAreaCommand().Find([]string{"create"})
	require.NoError(t, err)

	f := create.Flags().Lookup("cluster")
	require.NotNil(t, f)
	assert.Equal(t, []string{"true"}, f.Annotations[cobra.BashCompOneRequiredFlag])
}

func TestNewMockAPICommand(t *testing.T) {
	cmd := NewMockAPICommand("test")

	assert.Equal(t, "mock-api", cmd.Use)
	for _, flag := range []string{"port", "watch", "db", "seed"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.Contains(t, subcommandNames(cmd), "export")
}

func TestNewUICommand(t *testing.T) {
	cmd := NewUICommand()

	assert.Equal(t, "ui", cmd.Use)
	for _, flag := range []string{"port", "no-browser"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

// execute runs cmd against api with the given output mode and returns
// stdout and stderr.
func execute(t *testing.T, api *testutil.MockAPI, mode output.OutputMode, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()

	t.Setenv("TAXONOMY_OUTPUT", string(mode))
	if api != nil {
		t.Setenv("TAXONOMY_API_URL", api.URL)
	}
	t.Setenv("TAXONOMY_RETRIES", "0")
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig("", nil)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err = cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func decode[T any](t *testing.T, s string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(s), &v), "output: %s", s)
	return v
}

type mutationResult[T any] struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Entity T      `json:"entity"`
}

func rootUIDs(nodes []output.TreeNode) []string {
	uids := make([]string, len(nodes))
	for i, n := range nodes {
		uids[i] = n.UID
	}
	return uids
}

func TestTree_JSON(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewTreeCommand())
	require.NoError(t, err)

	out := decode[output.TreeOutput](t, stdout)
	assert.Equal(t, []string{"engineering", "design"}, rootUIDs(out.Roots))
	assert.Equal(t, []string{"frontend", "backend"}, rootUIDs(out.Roots[0].Children))
	assert.Equal(t, 6, out.Summary.Clusters)
	assert.Equal(t, 2, out.Summary.MaxDepth)

	require.Len(t, out.Dropped, 1)
	assert.Equal(t, output.DroppedInfo{
		UID:        "lost",
		Name:       "Lost and found",
		Reason:     "missing_parent",
		MissingUID: "removed-cluster",
	}, out.Dropped[0])
}

func TestTree_DepthAndSearch(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewTreeCommand(), "--depth", "0", "--no-areas")
	require.NoError(t, err)
	out := decode[output.TreeOutput](t, stdout)
	require.Len(t, out.Roots, 2)
	for _, root := range out.Roots {
		assert.Empty(t, root.Children, "depth 0 shows roots only")
		assert.Empty(t, root.Areas)
	}

	stdout, _, err = execute(t, api, output.ModeJSON, NewTreeCommand(), "--search", "react")
	require.NoError(t, err)
	out = decode[output.TreeOutput](t, stdout)
	require.Equal(t, []string{"engineering"}, rootUIDs(out.Roots), "matches keep their ancestors")
	require.Equal(t, []string{"frontend"}, rootUIDs(out.Roots[0].Children))
	require.Len(t, out.Roots[0].Children[0].Areas, 1)
	assert.Equal(t, "component-library", out.Roots[0].Children[0].Areas[0].UID)
}

func TestTree_Text(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, stderr, err := execute(t, api, output.ModeText, NewTreeCommand())
	require.NoError(t, err)

	assert.Contains(t, stdout, "Engineering")
	assert.Contains(t, stdout, "├── ")
	assert.Contains(t, stdout, "└── ")
	assert.Contains(t, stdout, "▪ Component library")
	assert.NotContains(t, stdout, "Lost and found")
	assert.Contains(t, stderr, "parent removed-cluster does not exist")
}

func TestTree_Markdown(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeAuto, NewTreeCommand(), "--status", "active")
	require.NoError(t, err)

	testutil.AssertNoANSI(t, stdout)
	testutil.AssertValidMarkdown(t, stdout)
	assert.Contains(t, stdout, "# Taxonomy")
	assert.Contains(t, stdout, "- **Engineering** `engineering`")
	assert.NotContains(t, stdout, "Legacy")
	assert.NotContains(t, stdout, "Research")
}

func TestTree_InvalidFilter(t *testing.T) {
	_, _, err := execute(t, nil, output.ModeJSON, NewTreeCommand(), "--status", "sometimes")
	require.Error(t, err)
}

func TestClusters_List(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewClustersCommand(), "--status", "active")
	require.NoError(t, err)
	out := decode[output.ClusterListOutput](t, stdout)

	var uids []string
	for _, c := range out.Clusters {
		uids = append(uids, c.UID)
	}
	assert.Contains(t, uids, "engineering")
	assert.NotContains(t, uids, "legacy")
	assert.NotContains(t, uids, "research")
	assert.Equal(t, len(out.Clusters), out.Shown)
	assert.Equal(t, 7, out.Total)

	stdout, _, err = execute(t, api, output.ModeMarkdown, NewClustersCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "# Clusters")
	assert.Contains(t, stdout, "Showing 7 of 7 clusters")
}

func TestCluster_CreateMoveDelete(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewClusterCommand(),
		"create", "Operations", "--parent", "engineering", "--order", "3")
	require.NoError(t, err)
	created := decode[mutationResult[core.Cluster]](t, stdout)
	assert.Equal(t, "create", created.Action)
	assert.Equal(t, "cluster", created.Kind)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, created.ID, created.Entity.UID)
	assert.Equal(t, "engineering", created.Entity.ParentUID)
	assert.Equal(t, 3, created.Entity.SortOrder)

	stdout, _, err = execute(t, api, output.ModeJSON, NewClusterCommand(), "move", created.ID, "design")
	require.NoError(t, err)
	moved := decode[mutationResult[core.Cluster]](t, stdout)
	assert.Equal(t, "design", moved.Entity.ParentUID)

	stdout, _, err = execute(t, api, output.ModeText, NewClusterCommand(), "move", created.ID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Moved cluster Operations to the top level")

	stdout, _, err = execute(t, api, output.ModeText, NewClusterCommand(), "delete", created.ID)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Deleted cluster "+created.ID)

	_, _, err = execute(t, api, output.ModeJSON, NewClusterCommand(), "activate", created.ID)
	require.Error(t, err)
	assert.Equal(t, fmt.Sprintf("cluster %s not found", created.ID), err.Error())
}

func TestCluster_Errors(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"delete with children", []string{"delete", "engineering"}, "child clusters"},
		{"move under itself", []string{"move", "frontend", "frontend"}, "cannot move cluster"},
		{"move under a descendant", []string{"move", "engineering", "legacy"}, "cycle"},
		{"create without a name", []string{"create", "  "}, "cannot create cluster"},
		{"update unknown", []string{"update", "nope", "--name", "X"}, "cluster nope not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, api, output.ModeJSON, NewClusterCommand(), tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCluster_UpdateKeepsUnsetFields(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewClusterCommand(), "update", "frontend", "--name", "Web")
	require.NoError(t, err)
	updated := decode[mutationResult[core.Cluster]](t, stdout)

	assert.Equal(t, "Web", updated.Entity.Name)
	assert.Equal(t, "engineering", updated.Entity.ParentUID)
	assert.Equal(t, 1, updated.Entity.SortOrder)
	assert.Equal(t, "Browser and UI codebases", updated.Entity.Description)
}

func TestArea_TagUntag(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewAreaCommand(), "tag", "billing", "react,frontend")
	require.NoError(t, err)
	tagged := decode[mutationResult[core.Area]](t, stdout)
	assert.ElementsMatch(t, []string{"go", "react", "frontend"}, tagged.Entity.Tags)

	stdout, _, err = execute(t, api, output.ModeJSON, NewAreaCommand(), "untag", "billing", "go", "react")
	require.NoError(t, err)
	untagged := decode[mutationResult[core.Area]](t, stdout)
	assert.Equal(t, []string{"frontend"}, untagged.Entity.Tags)

	_, _, err = execute(t, api, output.ModeJSON, NewAreaCommand(), "tag", "billing", " , ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot tag area")
}

func TestArea_CreateAndList(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewAreaCommand(),
		"create", "Checkout", "--cluster", "backend", "--tags", "go")
	require.NoError(t, err)
	created := decode[mutationResult[core.Area]](t, stdout)
	assert.Equal(t, "backend", created.Entity.ClusterUID)
	assert.Equal(t, []string{"go"}, created.Entity.Tags)

	stdout, _, err = execute(t, api, output.ModeJSON, NewAreasCommand(), "--search", "checkout")
	require.NoError(t, err)
	list := decode[output.AreaListOutput](t, stdout)
	require.Len(t, list.Areas, 1)
	assert.Equal(t, created.ID, list.Areas[0].UID)
	assert.Equal(t, 8, list.Total)

	stdout, _, err = execute(t, api, output.ModeJSON, NewAreasCommand(), "--untagged")
	require.NoError(t, err)
	assert.Empty(t, decode[output.AreaListOutput](t, stdout).Areas)
}

func TestTag_CreateValidation(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	_, _, err := execute(t, api, output.ModeJSON, NewTagCommand(), "create", "Bad Slug", "--color", "blue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot create tag")

	var fe core.FieldErrors
	require.ErrorAs(t, err, &fe)
	assert.Contains(t, fe, "slug")
	assert.Contains(t, fe, "color")

	stdout, _, err := execute(t, api, output.ModeText, NewTagCommand(), "create", "svelte", "--label", "Svelte")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created tag Svelte (svelte)")

	_, _, err = execute(t, api, output.ModeJSON, NewTagCommand(), "create", "svelte")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create tag svelte")
}

func TestTags_Usage(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewTagsCommand())
	require.NoError(t, err)
	out := decode[output.TagListOutput](t, stdout)
	assert.Equal(t, 6, out.Total)

	usage := make(map[string]int)
	for _, tag := range out.Tags {
		usage[tag.Slug] = tag.Usage
	}
	assert.Equal(t, 3, usage["frontend"])
	assert.Equal(t, 2, usage["go"])

	stdout, _, err = execute(t, api, output.ModeJSON, NewTagsCommand(), "--unused")
	require.NoError(t, err)
	assert.Empty(t, decode[output.TagListOutput](t, stdout).Tags)
}

func TestStats_TopTags(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewStatsCommand(), "--top", "2", "--cloud", "3")
	require.NoError(t, err)
	out := decode[output.StatsOutput](t, stdout)

	require.Len(t, out.Summary.TopTags, 2)
	assert.Equal(t, "frontend", out.Summary.TopTags[0].Slug)
	assert.Equal(t, 3, out.Summary.TopTags[0].Count)
	assert.Equal(t, "go", out.Summary.TopTags[1].Slug)
	assert.Equal(t, 2, out.Summary.TopTags[1].Count)
	assert.Len(t, out.Cloud, 3)
	assert.Equal(t, 1, out.Summary.Unreachable)
	assert.Nil(t, out.Server)

	stdout, _, err = execute(t, api, output.ModeText, NewStatsCommand())
	require.NoError(t, err)
	assert.Contains(t, stdout, "Taxonomy Summary")
}

func TestHealth_Report(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	stdout, _, err := execute(t, api, output.ModeJSON, NewHealthCommand())
	require.NoError(t, err)
	out := decode[output.HealthOutput](t, stdout)

	assert.True(t, out.Healthy)
	assert.Equal(t, api.URL, out.APIURL)
	assert.Equal(t, 1, out.IssueCount)
	assert.Equal(t, 83, out.Score)
	require.Len(t, out.Checks, 6)
	assert.Equal(t, "H001", out.Checks[0].ID)
	assert.Equal(t, checkError, out.Checks[0].Status)

	_, _, err = execute(t, api, output.ModeJSON, NewHealthCommand(), "--strict")
	require.ErrorIs(t, err, ErrChecksFailed)
}

func TestHealth_Unreachable(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)
	api.Server.Close()

	stdout, _, err := execute(t, api, output.ModeJSON, NewHealthCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not reachable")

	out := decode[output.HealthOutput](t, stdout)
	assert.False(t, out.Healthy)
	assert.NotEmpty(t, out.Error)
}

func TestMockAPIExport(t *testing.T) {
	stdout, _, err := execute(t, nil, output.ModeAuto, NewMockAPICommand("test"), "export")
	require.NoError(t, err)

	assert.Contains(t, stdout, "uid: engineering")
	assert.Contains(t, stdout, "slug: react")
	assert.Contains(t, stdout, "uid: component-library")
}

func TestBrowse_NeedsTerminal(t *testing.T) {
	api := testutil.StartMockAPI(t, nil)

	_, _, err := execute(t, api, output.ModeAuto, NewBrowseCommand())
	require.ErrorIs(t, err, ErrNotATerminal)
}

func TestMutationWrap(t *testing.T) {
	m := mutation{Action: "delete", Kind: "cluster", ID: "engineering"}

	assert.NoError(t, m.wrap(nil))

	fe := core.FieldErrors{"name": "is required"}
	err := m.wrap(fe)
	var got core.FieldErrors
	require.ErrorAs(t, err, &got)
	assert.Equal(t, fe, got)
	assert.True(t, strings.HasPrefix(err.Error(), "cannot delete cluster: "))

	err = m.wrap(&apiclient.APIError{Status: 404, Method: "DELETE", Path: "/clusters/engineering", Message: "not found"})
	assert.EqualError(t, err, "cluster engineering not found")

	err = m.wrap(&apiclient.APIError{Status: 409, Method: "DELETE", Path: "/clusters/engineering", Message: "has children"})
	assert.EqualError(t, err, "failed to delete cluster engineering: has children")

	cause := errors.New("connection reset")
	err = m.wrap(cause)
	assert.ErrorIs(t, err, cause)
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, nil},
		{[]string{"go"}, []string{"go"}},
		{[]string{"go,react", "vue"}, []string{"go", "react", "vue"}},
		{[]string{" go , ,react "}, []string{"go", "react"}},
		{[]string{",", " "}, nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitList(tt.in), "splitList(%q)", tt.in)
	}
}

func TestArticle(t *testing.T) {
	assert.Equal(t, "an", article("area"))
	assert.Equal(t, "a", article("cluster"))
	assert.Equal(t, "a", article("tag"))
}

func TestHealthScore(t *testing.T) {
	check := func(status string) output.HealthCheck { return output.HealthCheck{Status: status} }

	assert.Equal(t, 100, healthScore(nil))
	assert.Equal(t, 100, healthScore([]output.HealthCheck{check(checkPass), check(checkPass)}))
	assert.Equal(t, 50, healthScore([]output.HealthCheck{check(checkWarn), check(checkWarn)}))
	assert.Equal(t, 0, healthScore([]output.HealthCheck{check(checkError)}))
	assert.Equal(t, 75, healthScore([]output.HealthCheck{check(checkPass), check(checkWarn)}))
}

func TestWithinDepth(t *testing.T) {
	assert.True(t, withinDepth(10, -1))
	assert.True(t, withinDepth(0, 0))
	assert.False(t, withinDepth(1, 0))
	assert.True(t, withinDepth(2, 2))
}
