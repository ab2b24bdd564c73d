package apiclient

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Snapshot is one consistent load of every entity, inactive ones included.
type Snapshot struct {
	Clusters []core.Cluster
	Areas    []core.Area
	Tags     []core.Tag
	LoadedAt time.Time
}

// LoadSnapshot fetches clusters, areas and tags concurrently. The first
// failure cancels the other requests.
func (c *Client) LoadSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	all := core.ListOptions{IncludeInactive: true}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clusters, err := c.ListClusters(gctx, all)
		if err != nil {
			return fmt.Errorf("load clusters: %w", err)
		}
		snap.Clusters = clusters
		return nil
	})
	g.Go(func() error {
		areas, err := c.ListAreas(gctx, all)
		if err != nil {
			return fmt.Errorf("load areas: %w", err)
		}
		snap.Areas = areas
		return nil
	})
	g.Go(func() error {
		tags, err := c.ListTags(gctx, all)
		if err != nil {
			return fmt.Errorf("load tags: %w", err)
		}
		snap.Tags = tags
		return nil
	})
	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}
	snap.LoadedAt = time.Now()
	return snap, nil
}

// Trees derives tree-model scopes from the snapshot's clusters.
func (s Snapshot) Trees() []core.Tree {
	return core.TreesFromClusters(s.Clusters)
}

// IsZero reports whether the snapshot was never loaded.
func (s Snapshot) IsZero() bool {
	return s.LoadedAt.IsZero()
}
