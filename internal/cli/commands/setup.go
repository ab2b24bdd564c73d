package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/cli/config"
	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Client   *apiclient.Client
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with an API client and renderer.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, error) {
	cmdCtx := NewCommandContextWithoutClient(cmd)

	client, err := newClient(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return nil, err
	}
	cmdCtx.Client = client
	return cmdCtx, nil
}

// NewCommandContextWithoutClient creates a CommandContext without an API client.
// Useful for commands that don't talk to the API.
func NewCommandContextWithoutClient(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.Output)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, or the defaults when none
// was loaded (commands run directly in tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

func newClient(cfg *config.Config, logger *slog.Logger) (*apiclient.Client, error) {
	client, err := apiclient.New(cfg.APIURL,
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithRetries(cfg.Retries),
		apiclient.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create API client: %w", err)
	}
	return client, nil
}

// loadSnapshot fetches every cluster, area and tag.
func (c *CommandContext) loadSnapshot(ctx context.Context) (apiclient.Snapshot, error) {
	start := time.Now()
	snap, err := c.Client.LoadSnapshot(ctx)
	if err != nil {
		return apiclient.Snapshot{}, fmt.Errorf("failed to load taxonomy from %s: %w", c.Client.BaseURL(), err)
	}
	c.Logger.Debug("snapshot loaded",
		"clusters", len(snap.Clusters),
		"areas", len(snap.Areas),
		"tags", len(snap.Tags),
		"duration", time.Since(start))
	return snap, nil
}

// FilterOptions holds the filter flags shared by list commands.
type FilterOptions struct {
	Tree   string
	Status string
	Type   string
	Search string
}

// AddFlags registers the filter flags. withType adds --type, which only
// makes sense where clusters and areas are shown together.
func (o *FilterOptions) AddFlags(cmd *cobra.Command, withType bool) {
	fs := cmd.Flags()
	fs.StringVar(&o.Tree, "tree", core.ScopeAll, "Limit to one root cluster uid (or all)")
	fs.StringVar(&o.Status, "status", string(core.StatusAll), "Status filter: all|active")
	fs.StringVarP(&o.Search, "search", "s", "", "Case-insensitive search term")
	if withType {
		fs.StringVar(&o.Type, "type", core.TypeAll, "Entity filter: all|clusters|areas")
	}

	_ = cmd.RegisterFlagCompletionFunc("status", fixedCompletion(string(core.StatusAll), string(core.StatusActive)))
	if withType {
		_ = cmd.RegisterFlagCompletionFunc("type", fixedCompletion(core.TypeAll, core.TypeClusters, core.TypeAreas))
	}
}

// Spec converts the flags to a validated filter spec.
func (o *FilterOptions) Spec() (core.FilterSpec, error) {
	spec := core.FilterSpec{
		Tree:   o.Tree,
		Status: core.Status(o.Status),
		Type:   o.Type,
		Search: o.Search,
	}.Normalize()
	if err := spec.Validate(); err != nil {
		return core.FilterSpec{}, err
	}
	return spec, nil
}

func fixedCompletion(values ...string) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return values, cobra.ShellCompDirectiveNoFileComp
	}
}

// intFlag returns a pointer to the flag value when it was set.
func intFlag(fs *pflag.FlagSet, name string) *int {
	if !fs.Changed(name) {
		return nil
	}
	v, err := fs.GetInt(name)
	if err != nil {
		return nil
	}
	return &v
}

// statusLabel renders an entity status, muted when not active.
func statusLabel(r *output.Renderer, s core.Status) string {
	if s.IsActive() {
		return r.Styles().Active.Render(string(s))
	}
	return r.Styles().Inactive.Render(string(s))
}
