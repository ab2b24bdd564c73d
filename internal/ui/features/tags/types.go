// Package tags provides the tag list feature for the UI.
package tags

import (
	"context"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// TagAPI is the subset of the API client the tag handlers call.
type TagAPI interface {
	GetTag(ctx context.Context, slug string) (core.Tag, error)
	CreateTag(ctx context.Context, in core.TagInput) (core.Tag, error)
	UpdateTag(ctx context.Context, slug string, in core.TagInput) (core.Tag, error)
	DeleteTag(ctx context.Context, slug string) error
	ActivateTag(ctx context.Context, slug string) (core.Tag, error)
	DeactivateTag(ctx context.Context, slug string) (core.Tag, error)
}

// Signals are the datastar signals of the tags page.
type Signals struct {
	common.FilterSignals
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Input converts the form signals to a create/update body.
func (s Signals) Input() core.TagInput {
	return core.TagInput{
		Slug:        s.Slug,
		DisplayName: s.Label,
		Color:       s.Color,
	}
}

type formSignals struct {
	Slug  string `json:"slug"`
	Label string `json:"label"`
	Color string `json:"color"`
}

func formFor(t core.Tag) formSignals {
	return formSignals{Slug: t.Slug, Label: t.DisplayName, Color: t.Color}
}
