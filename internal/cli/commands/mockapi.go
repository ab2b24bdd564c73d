package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/mockapi"
	"github.com/leapstack-labs/taxonomy/internal/state"
)

// MockAPIOptions holds options for the mock-api command.
type MockAPIOptions struct {
	Port   int
	DBPath string
	Seed   string
	Watch  bool
}

// NewMockAPICommand creates the mock-api command.
func NewMockAPICommand(version string) *cobra.Command {
	opts := &MockAPIOptions{}

	cmd := &cobra.Command{
		Use:   "mock-api",
		Short: "Serve a development taxonomy API",
		Long: `Serve the taxonomy REST API from a local SQLite store.

The store is seeded from a YAML fixture on start, the built-in fixture when
--seed is not given. With --watch the fixture is re-applied whenever the
file changes. The mock API is meant for local development of the console
and CLI, not as a production backend.`,
		Example: `  # Serve the built-in fixture from memory on :8080
  taxonomy mock-api

  # Persist to a file and reload when the fixture changes
  taxonomy mock-api --db .taxonomy/mock.db --seed fixtures/taxonomy.yaml --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMockAPI(cmd, opts, version)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8080)")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Re-apply the seed file when it changes")
	// shared with export
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path (default: in-memory)")
	cmd.PersistentFlags().StringVar(&opts.Seed, "seed", "", "YAML seed fixture (default: built-in)")

	cmd.AddCommand(newMockExportCommand(opts))

	return cmd
}

// resolve merges flags over the mock section of the config.
func (o *MockAPIOptions) resolve(cmd *cobra.Command) MockAPIOptions {
	cfg := getConfig().Mock
	out := MockAPIOptions{Port: cfg.Port, DBPath: cfg.DBPath, Seed: cfg.Seed, Watch: cfg.Watch}
	if o.Port != 0 {
		out.Port = o.Port
	}
	if o.DBPath != "" {
		out.DBPath = o.DBPath
	}
	if o.Seed != "" {
		out.Seed = o.Seed
	}
	if f := cmd.Flags().Lookup("watch"); f != nil && f.Changed {
		out.Watch = o.Watch
	}
	if out.DBPath == "" {
		out.DBPath = ":memory:"
	}
	return out
}

func openMockStore(path string) (*state.SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	store := state.NewSQLiteStore()
	if err := store.Open(path); err != nil {
		return nil, fmt.Errorf("failed to open mock store: %w", err)
	}
	return store, nil
}

func runMockAPI(cmd *cobra.Command, opts *MockAPIOptions, version string) error {
	cmdCtx := NewCommandContextWithoutClient(cmd)
	o := opts.resolve(cmd)

	store, err := openMockStore(o.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	server := mockapi.NewServer(mockapi.Config{
		Store:    store,
		Port:     o.Port,
		SeedPath: o.Seed,
		Watch:    o.Watch && o.Seed != "",
		Version:  version,
		Logger:   cmdCtx.Logger,
	})

	cmdCtx.Renderer.Printf("Serving mock API on http://localhost:%d%s\n", o.Port, mockapi.BasePath)
	cmdCtx.Renderer.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

func newMockExportCommand(parent *MockAPIOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "export",
		Aliases: []string{"dump"},
		Short:   "Write the mock store contents as a seed fixture",
		Long: `Write the clusters, areas and tags of the mock store to stdout in the
seed fixture format accepted by --seed.

With an in-memory store the seed is applied first, so the output is the
normalized form of that fixture.`,
		Example: `  # Capture the current state of a persistent mock store
  taxonomy mock-api export --db .taxonomy/mock.db > fixtures/taxonomy.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMockExport(cmd, parent)
		},
	}
}

func runMockExport(cmd *cobra.Command, opts *MockAPIOptions) error {
	o := opts.resolve(cmd)

	store, err := openMockStore(o.DBPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.DBPath == ":memory:" {
		server := mockapi.NewServer(mockapi.Config{Store: store, SeedPath: o.Seed})
		if err := server.LoadSeed(ctx); err != nil {
			return err
		}
	}

	seed, err := store.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to read mock store: %w", err)
	}
	return state.WriteSeed(cmd.OutOrStdout(), seed)
}
