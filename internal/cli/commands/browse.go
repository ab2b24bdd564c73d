package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/tui"
)

// ErrNotATerminal is returned when browse runs without a terminal.
var ErrNotATerminal = errors.New("browse needs an interactive terminal; use tree instead")

// NewBrowseCommand creates the browse command.
func NewBrowseCommand() *cobra.Command {
	opts := &FilterOptions{}

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse the hierarchy in an interactive terminal tree",
		Long: `Open a full-screen tree of clusters and their areas.

Keys:
  ↑/k ↓/j     move
  →/l ←/h     expand, collapse or jump to the parent
  enter       toggle the selected cluster
  E / C       expand or collapse everything
  /           live search (esc clears, enter keeps)
  a           toggle active only
  r           reload from the API
  q           quit

The initial filter can be set with the same flags as tree.`,
		Example: `  taxonomy browse --status active`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := opts.Spec()
			if err != nil {
				return err
			}
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			if !cmdCtx.Renderer.IsTTY() {
				return ErrNotATerminal
			}
			cmdCtx.Logger.Debug("starting browser", "api", cmdCtx.Client.BaseURL(), "filter", spec.String())
			return tui.Run(cmd.Context(), cmdCtx.Client, spec)
		},
	}

	opts.AddFlags(cmd, false)
	return cmd
}
