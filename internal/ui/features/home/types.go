// Package home provides the dashboard feature for the UI.
package home

import (
	"context"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// HealthSource reports backend health.
type HealthSource interface {
	Health(ctx context.Context) (core.Health, error)
}

// cloudSize limits the number of tag cloud terms on the dashboard.
const cloudSize = 40
