package state

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Seed is a YAML fixture describing a whole taxonomy.
//
//	clusters:
//	  - uid: eng
//	    name: Engineering
//	  - uid: fe
//	    name: Frontend
//	    parent_uid: eng
//	tags:
//	  - slug: react
//	    display_name: React
//	areas:
//	  - uid: ui-kit
//	    name: Component library
//	    cluster_uid: fe
//	    tags: [react]
//
// Area tags that are not listed under tags are created with the slug as
// display name. Cluster parents are stored as written, so a fixture may
// deliberately reference a missing cluster.
type Seed struct {
	Clusters []SeedCluster `yaml:"clusters"`
	Areas    []SeedArea    `yaml:"areas"`
	Tags     []SeedTag     `yaml:"tags,omitempty"`
}

// SeedCluster is one cluster entry of a Seed.
type SeedCluster struct {
	UID         string `yaml:"uid"`
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	ParentUID   string `yaml:"parent_uid,omitempty"`
	SortOrder   int    `yaml:"sort_order,omitempty"`
	Status      string `yaml:"status,omitempty"`
}

// SeedArea is one area entry of a Seed.
type SeedArea struct {
	UID         string   `yaml:"uid"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	ClusterUID  string   `yaml:"cluster_uid"`
	SortOrder   int      `yaml:"sort_order,omitempty"`
	Status      string   `yaml:"status,omitempty"`
	Tags        []string `yaml:"tags,omitempty"`
}

// SeedTag is one tag entry of a Seed.
type SeedTag struct {
	Slug        string `yaml:"slug"`
	DisplayName string `yaml:"display_name"`
	Color       string `yaml:"color,omitempty"`
	Status      string `yaml:"status,omitempty"`
}

// ParseSeed decodes a YAML fixture.
func ParseSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to parse seed: %w", err)
	}
	return &seed, nil
}

// LoadSeed reads a YAML fixture from disk.
func LoadSeed(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return ParseSeed(f)
}

// ApplySeed replaces the whole store content with the fixture in one
// transaction, so readers never observe a half-loaded taxonomy.
func (s *SQLiteStore) ApplySeed(ctx context.Context, seed *Seed) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"area_tags", "areas", "tags", "clusters"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		now := formatTime(s.now())

		for _, c := range seed.Clusters {
			uid := c.UID
			if uid == "" {
				uid = generateID()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO clusters (uid, name, description, parent_uid, sort_order, status, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uid, c.Name, c.Description, nullString(c.ParentUID), c.SortOrder, seedStatus(c.Status), now, now); err != nil {
				return fmt.Errorf("failed to seed cluster %q: %w", uid, err)
			}
		}

		declared := make(map[string]bool, len(seed.Tags))
		insertTag := func(t SeedTag) error {
			name := t.DisplayName
			if name == "" {
				name = t.Slug
			}
			_, err := tx.ExecContext(ctx,
				`INSERT INTO tags (slug, display_name, color, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
				t.Slug, name, t.Color, seedStatus(t.Status), now, now)
			if err != nil {
				return fmt.Errorf("failed to seed tag %q: %w", t.Slug, err)
			}
			declared[t.Slug] = true
			return nil
		}
		for _, t := range seed.Tags {
			if err := insertTag(t); err != nil {
				return err
			}
		}

		for _, a := range seed.Areas {
			uid := a.UID
			if uid == "" {
				uid = generateID()
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO areas (uid, name, description, cluster_uid, sort_order, status, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				uid, a.Name, a.Description, a.ClusterUID, a.SortOrder, seedStatus(a.Status), now, now); err != nil {
				return fmt.Errorf("failed to seed area %q: %w", uid, err)
			}
			for _, slug := range a.Tags {
				if !declared[slug] {
					if err := insertTag(SeedTag{Slug: slug}); err != nil {
						return err
					}
				}
			}
			if err := linkTags(ctx, tx, uid, a.Tags); err != nil {
				return err
			}
		}

		return refreshPaths(ctx, tx)
	})
}

func seedStatus(s string) core.Status {
	st := core.Status(s)
	if !st.Valid() {
		return core.StatusActive
	}
	return st
}

// Snapshot exports the store content as a Seed, ordered for stable output.
func (s *SQLiteStore) Snapshot(ctx context.Context) (*Seed, error) {
	all := core.ListOptions{IncludeInactive: true}
	clusters, err := s.ListClusters(ctx, all)
	if err != nil {
		return nil, err
	}
	areas, err := s.ListAreas(ctx, all)
	if err != nil {
		return nil, err
	}
	tags, err := s.ListTags(ctx, all)
	if err != nil {
		return nil, err
	}

	seed := &Seed{}
	for _, c := range clusters {
		seed.Clusters = append(seed.Clusters, SeedCluster{
			UID: c.UID, Name: c.Name, Description: c.Description, ParentUID: c.ParentUID,
			SortOrder: c.SortOrder, Status: string(c.Status),
		})
	}
	for _, a := range areas {
		sa := SeedArea{
			UID: a.UID, Name: a.Name, Description: a.Description, ClusterUID: a.ClusterUID,
			SortOrder: a.SortOrder, Status: string(a.Status),
		}
		if len(a.Tags) > 0 {
			sa.Tags = slices.Clone(a.Tags)
		}
		seed.Areas = append(seed.Areas, sa)
	}
	for _, t := range tags {
		seed.Tags = append(seed.Tags, SeedTag{Slug: t.Slug, DisplayName: t.DisplayName, Color: t.Color, Status: string(t.Status)})
	}
	return seed, nil
}

// WriteSeed encodes a Seed as YAML.
func WriteSeed(w io.Writer, seed *Seed) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seed); err != nil {
		return fmt.Errorf("failed to encode seed: %w", err)
	}
	return enc.Close()
}
