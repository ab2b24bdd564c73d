package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/cli/output"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

var pastTense = map[string]string{
	"create":     "Created",
	"update":     "Updated",
	"delete":     "Deleted",
	"activate":   "Activated",
	"deactivate": "Deactivated",
	"move":       "Moved",
	"tag":        "Tagged",
	"untag":      "Untagged",
}

// mutation is one write against the API identified for reporting.
type mutation struct {
	Action string
	Kind   string
	ID     string
}

// wrap annotates err with the mutation. Field validation errors from the
// API are surfaced as is.
func (m mutation) wrap(err error) error {
	if err == nil {
		return nil
	}
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		return fmt.Errorf("cannot %s %s: %w", m.Action, m.Kind, err)
	}
	if apiclient.IsNotFound(err) {
		return fmt.Errorf("%s %s not found", m.Kind, m.ID)
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("failed to %s %s %s: %s", m.Action, m.Kind, m.ID, apiErr.Message)
	}
	return fmt.Errorf("failed to %s %s %s: %w", m.Action, m.Kind, m.ID, err)
}

// report renders the result of a successful mutation. label is the human
// name shown next to the id.
func (m mutation) report(r *output.Renderer, label string, entity any) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(output.MutationOutput{Action: m.Action, Kind: m.Kind, ID: m.ID, Entity: entity})
	}
	msg := pastTense[m.Action] + " " + m.Kind + " " + m.ID
	if label != "" && label != m.ID {
		msg = fmt.Sprintf("%s %s %s (%s)", pastTense[m.Action], m.Kind, label, m.ID)
	}
	r.Success(msg)
	return nil
}

// statusCommand builds an activate or deactivate subcommand.
func statusCommand(kind, action, arg string, fn func(cmdCtx *CommandContext, cmd *cobra.Command, id string) (string, any, error)) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <" + arg + ">",
		Short: strings.ToUpper(action[:1]) + action[1:] + " " + article(kind) + " " + kind,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			m := mutation{Action: action, Kind: kind, ID: args[0]}
			label, entity, err := fn(cmdCtx, cmd, args[0])
			if err != nil {
				return m.wrap(err)
			}
			cmdCtx.Logger.Debug("status changed", "kind", kind, "id", args[0], "action", action)
			return m.report(cmdCtx.Renderer, label, entity)
		},
	}
}

// deleteCommand builds a delete subcommand.
func deleteCommand(kind, arg, long string, fn func(cmdCtx *CommandContext, cmd *cobra.Command, id string) error) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <" + arg + ">",
		Aliases: []string{"rm"},
		Short:   "Delete " + article(kind) + " " + kind,
		Long:    long,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			m := mutation{Action: "delete", Kind: kind, ID: args[0]}
			if err := fn(cmdCtx, cmd, args[0]); err != nil {
				return m.wrap(err)
			}
			return m.report(cmdCtx.Renderer, "", nil)
		},
	}
}

// splitList parses comma separated flag values, dropping blanks.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func article(noun string) string {
	if strings.ContainsRune("aeiou", rune(noun[0])) {
		return "an"
	}
	return "a"
}
