// Package areas provides the area list feature for the UI.
package areas

import (
	"context"
	"strings"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// AreaAPI is the subset of the API client the area handlers call.
type AreaAPI interface {
	GetArea(ctx context.Context, uid string) (core.Area, error)
	CreateArea(ctx context.Context, in core.AreaInput) (core.Area, error)
	UpdateArea(ctx context.Context, uid string, in core.AreaInput) (core.Area, error)
	DeleteArea(ctx context.Context, uid string) error
	ActivateArea(ctx context.Context, uid string) (core.Area, error)
	DeactivateArea(ctx context.Context, uid string) (core.Area, error)
	TagArea(ctx context.Context, areaUID string, slugs []string) (core.Area, error)
	UntagArea(ctx context.Context, areaUID string, slugs []string) (core.Area, error)
}

// Signals are the datastar signals of the areas page.
type Signals struct {
	common.FilterSignals
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Cluster     string        `json:"cluster"`
	Order       common.OptInt `json:"order"`
	Tags        string        `json:"tags"`
	TagSlugs    string        `json:"tagslugs"`
}

// Input converts the form signals to a create/update body.
func (s Signals) Input() core.AreaInput {
	return core.AreaInput{
		Name:        s.Name,
		Description: s.Description,
		ClusterUID:  s.Cluster,
		SortOrder:   s.Order.Int(),
		Tags:        common.SplitSlugs(s.Tags),
	}
}

type formSignals struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Cluster     string        `json:"cluster"`
	Order       common.OptInt `json:"order"`
	Tags        string        `json:"tags"`
	TagSlugs    string        `json:"tagslugs"`
}

func formFor(a core.Area) formSignals {
	return formSignals{
		Name:        a.Name,
		Description: a.Description,
		Cluster:     a.ClusterUID,
		Order:       common.IntOf(a.SortOrder),
		Tags:        strings.Join(a.Tags, ", "),
	}
}
