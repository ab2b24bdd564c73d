package common

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/taxonomy/internal/apiclient"
	"github.com/leapstack-labs/taxonomy/internal/ui/views"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// ErrorMessage returns the text shown to the user for err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiclient.Message(err)
	}
	return "The taxonomy API is unreachable: " + err.Error()
}

// NewShell builds the page frame. A load error adds an error toast, and a
// stale banner when older data is being shown.
func NewShell(title, path string, snap apiclient.Snapshot, loadErr error) views.Shell {
	shell := views.Shell{Title: title, CurrentPath: path}
	if loadErr != nil {
		shell.Toasts = []views.Toast{{Kind: "error", Message: ErrorMessage(loadErr)}}
		if !snap.IsZero() {
			shell.Stale = true
			shell.StaleSince = snap.LoadedAt.Format(time.Kitchen)
		}
	}
	return shell
}

// SendToast patches the toast area with a single message.
func SendToast(sse *datastar.ServerSentEventGenerator, kind, message string) error {
	data := struct{ Toasts []views.Toast }{Toasts: []views.Toast{{Kind: kind, Message: message}}}
	return sse.PatchElementTempl(views.Component(views.TmplToasts, data))
}

// SendError reports err as an error toast.
func SendError(sse *datastar.ServerSentEventGenerator, err error) error {
	return SendToast(sse, "error", ErrorMessage(err))
}

// TagIndex maps tag slugs to tags.
func TagIndex(tags []core.Tag) map[string]core.Tag {
	idx := make(map[string]core.Tag, len(tags))
	for _, t := range tags {
		idx[t.Slug] = t
	}
	return idx
}

// Chips renders area tag slugs, falling back to the slug for unknown tags.
func Chips(slugs []string, idx map[string]core.Tag) []views.TagChip {
	chips := make([]views.TagChip, 0, len(slugs))
	for _, s := range slugs {
		chip := views.TagChip{Slug: s, Label: s}
		if t, ok := idx[s]; ok {
			chip.Label = t.Label()
			chip.Color = t.Color
		}
		chips = append(chips, chip)
	}
	return chips
}

// TreeOptions lists the trees of the snapshot for the filter bar.
func TreeOptions(trees []core.Tree, selected string) []views.Option {
	opts := make([]views.Option, 0, len(trees))
	for _, t := range trees {
		opts = append(opts, views.Option{Value: t.ID, Label: t.Name, Selected: t.ID == selected})
	}
	return opts
}

// ClusterOptions lists clusters by path, skipping the uids in exclude.
func ClusterOptions(clusters []core.Cluster, selected string, exclude map[string]bool) []views.Option {
	opts := make([]views.Option, 0, len(clusters))
	for _, c := range clusters {
		if exclude[c.UID] {
			continue
		}
		label := c.Path
		if label == "" {
			label = c.Name
		}
		opts = append(opts, views.Option{Value: c.UID, Label: label, Selected: c.UID == selected})
	}
	slices.SortStableFunc(opts, func(a, b views.Option) int {
		return strings.Compare(strings.ToLower(a.Label), strings.ToLower(b.Label))
	})
	return opts
}

// FieldErrors extracts client-side validation errors, nil for other errors.
func FieldErrors(err error) core.FieldErrors {
	var fe core.FieldErrors
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}
