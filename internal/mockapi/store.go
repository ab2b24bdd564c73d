// Package mockapi serves a development copy of the taxonomy REST API on top
// of the SQLite state store, so the console and CLI can run without the real backend.
package mockapi

import (
	"bytes"
	"context"
	_ "embed"

	"github.com/leapstack-labs/taxonomy/internal/state"
	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Store is the persistence the mock API serves from.
// *state.SQLiteStore implements it.
type Store interface {
	ListClusters(ctx context.Context, opts core.ListOptions) ([]core.Cluster, error)
	GetCluster(ctx context.Context, uid string) (core.Cluster, error)
	CreateCluster(ctx context.Context, uid string, in core.ClusterInput) (core.Cluster, error)
	UpdateCluster(ctx context.Context, uid string, in core.ClusterInput) (core.Cluster, error)
	DeleteCluster(ctx context.Context, uid string) error
	SetClusterStatus(ctx context.Context, uid string, status core.Status) (core.Cluster, error)
	MoveCluster(ctx context.Context, uid, newParentUID string, sortOrder *int) (core.Cluster, error)

	ListAreas(ctx context.Context, opts core.ListOptions) ([]core.Area, error)
	GetArea(ctx context.Context, uid string) (core.Area, error)
	CreateArea(ctx context.Context, uid string, in core.AreaInput) (core.Area, error)
	UpdateArea(ctx context.Context, uid string, in core.AreaInput) (core.Area, error)
	DeleteArea(ctx context.Context, uid string) error
	SetAreaStatus(ctx context.Context, uid string, status core.Status) (core.Area, error)
	TagArea(ctx context.Context, req core.TagRequest) (core.Area, error)
	UntagArea(ctx context.Context, req core.TagRequest) (core.Area, error)

	ListTags(ctx context.Context, opts core.ListOptions) ([]core.Tag, error)
	GetTag(ctx context.Context, slug string) (core.Tag, error)
	CreateTag(ctx context.Context, in core.TagInput) (core.Tag, error)
	UpdateTag(ctx context.Context, slug string, in core.TagInput) (core.Tag, error)
	DeleteTag(ctx context.Context, slug string) error
	SetTagStatus(ctx context.Context, slug string, status core.Status) (core.Tag, error)

	Stats(ctx context.Context) (core.Stats, error)
	Ping(ctx context.Context) error
	ApplySeed(ctx context.Context, seed *state.Seed) error
}

var _ Store = (*state.SQLiteStore)(nil)

//go:embed fixtures/default.yaml
var defaultSeed []byte

// DefaultSeed returns the built-in fixture used when no seed file is given.
// It includes one cluster whose parent does not exist.
func DefaultSeed() *state.Seed {
	seed, err := state.ParseSeed(bytes.NewReader(defaultSeed))
	if err != nil {
		panic("mockapi: embedded seed is invalid: " + err.Error())
	}
	return seed
}
