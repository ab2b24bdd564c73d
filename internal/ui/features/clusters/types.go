// Package clusters provides the cluster tree feature for the UI.
package clusters

import (
	"context"

	"github.com/leapstack-labs/taxonomy/internal/ui/features/common"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// ClusterAPI is the subset of the API client the cluster handlers call.
type ClusterAPI interface {
	GetCluster(ctx context.Context, uid string) (core.Cluster, error)
	CreateCluster(ctx context.Context, in core.ClusterInput) (core.Cluster, error)
	UpdateCluster(ctx context.Context, uid string, in core.ClusterInput) (core.Cluster, error)
	DeleteCluster(ctx context.Context, uid string) error
	ActivateCluster(ctx context.Context, uid string) (core.Cluster, error)
	DeactivateCluster(ctx context.Context, uid string) (core.Cluster, error)
	MoveCluster(ctx context.Context, uid, newParentUID string, sortOrder *int) (core.Cluster, error)
}

// Signals are the datastar signals of the clusters page.
type Signals struct {
	common.FilterSignals
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parent      string        `json:"parent"`
	Order       common.OptInt `json:"order"`
	MoveParent  string        `json:"moveparent"`
	MoveOrder   common.OptInt `json:"moveorder"`
}

// Input converts the form signals to a create/update body.
func (s Signals) Input() core.ClusterInput {
	return core.ClusterInput{
		Name:        s.Name,
		Description: s.Description,
		ParentUID:   s.Parent,
		SortOrder:   s.Order.Int(),
	}
}

// formSignals holds only the form fields, used to fill or reset the form.
type formSignals struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Parent      string        `json:"parent"`
	Order       common.OptInt `json:"order"`
	MoveParent  string        `json:"moveparent"`
	MoveOrder   common.OptInt `json:"moveorder"`
}

func formFor(c core.Cluster) formSignals {
	return formSignals{
		Name:        c.Name,
		Description: c.Description,
		Parent:      c.ParentUID,
		Order:       common.IntOf(c.SortOrder),
		MoveParent:  c.ParentUID,
	}
}
