package commands

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/ui"
)

// UIOptions holds options for the ui command.
type UIOptions struct {
	Port      int
	NoBrowser bool
}

// NewUICommand creates the ui command.
func NewUICommand() *cobra.Command {
	opts := &UIOptions{}

	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Start the taxonomy admin console",
		Long: `Start a local web server providing the taxonomy admin console.

The console provides:
- Dashboard with summary counts and tag usage
- Cluster tree with expand/collapse and move
- Area and tag management
- Hierarchy graph

Changes made in the console, and changes picked up from the API, are pushed
to every open page.`,
		Example: `  # Start the console on the default port
  taxonomy ui

  # Point at a different API and port
  taxonomy ui --api-url http://localhost:9090/api/v1 --port 3000

  # Start without auto-opening browser
  taxonomy ui --no-browser`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUI(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8765)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")

	return cmd
}

func runUI(cmd *cobra.Command, opts *UIOptions) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	// CLI flags override config file
	port := cfg.UI.Port
	if opts.Port != 0 {
		port = opts.Port
	}
	autoOpen := cfg.UI.AutoOpen && !opts.NoBrowser

	// An unreachable API is not fatal: the console shows a banner and
	// recovers when it comes back.
	if _, err := cmdCtx.Client.Health(cmd.Context()); err != nil {
		r.Warning(fmt.Sprintf("taxonomy API at %s is not reachable yet: %v", cmdCtx.Client.BaseURL(), err))
	}

	server := ui.NewServer(ui.Config{
		Client:          cmdCtx.Client,
		Port:            port,
		SessionSecret:   cfg.UI.SessionSecret,
		Logger:          cmdCtx.Logger,
		RefreshInterval: cfg.UI.RefreshInterval,
	})

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	r.Printf("Starting admin console on http://localhost:%d\n", port)
	r.Println("Press Ctrl+C to stop")

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url) //nolint:noctx
	case "linux":
		cmd = exec.Command("xdg-open", url) //nolint:noctx
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url) //nolint:noctx
	default:
		return
	}

	_ = cmd.Start()
}
