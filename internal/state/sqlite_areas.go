package state

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

const areaColumns = `a.uid, a.name, a.description, a.cluster_uid, a.sort_order, a.status,
	COALESCE((SELECT GROUP_CONCAT(tag_slug, ',') FROM area_tags WHERE area_uid = a.uid), '') AS tags,
	a.created_at, a.updated_at`

var areaSorts = map[string]string{
	"name":       "a.name",
	"sort_order": "a.sort_order",
	"created_at": "a.created_at",
	"updated_at": "a.updated_at",
	"status":     "a.status",
}

func scanArea(scan func(dest ...any) error) (core.Area, error) {
	var (
		a                    core.Area
		tags                 string
		createdAt, updatedAt string
	)
	if err := scan(&a.UID, &a.Name, &a.Description, &a.ClusterUID, &a.SortOrder, &a.Status,
		&tags, &createdAt, &updatedAt); err != nil {
		return core.Area{}, err
	}
	a.Tags = []string{}
	if tags != "" {
		a.Tags = strings.Split(tags, ",")
		slices.Sort(a.Tags)
	}
	a.TagCount = len(a.Tags)
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return a, nil
}

// ListAreas returns areas matching opts. ClusterUID selects areas of that
// cluster; TagSlug selects areas carrying the tag. Search matches the area
// name, description, or any of its tags.
func (s *SQLiteStore) ListAreas(ctx context.Context, opts core.ListOptions) ([]core.Area, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	q := &listQuery{}
	statusFilter(q, "a.status", opts)
	if term := strings.TrimSpace(opts.Search); term != "" {
		like := "%" + term + "%"
		q.add(`(a.name LIKE ? OR a.description LIKE ? OR EXISTS
			(SELECT 1 FROM area_tags t WHERE t.area_uid = a.uid AND t.tag_slug LIKE ?))`, like, like, like)
	}
	if opts.ClusterUID != "" {
		q.add("a.cluster_uid = ?", opts.ClusterUID)
	}
	if opts.TagSlug != "" {
		q.add("EXISTS (SELECT 1 FROM area_tags t WHERE t.area_uid = a.uid AND t.tag_slug = ?)", opts.TagSlug)
	}

	query := "SELECT " + areaColumns + " FROM areas a" + q.sql() +
		orderBy(opts.SortBy, opts.SortOrder, areaSorts, "a.sort_order, a.name, a.uid") +
		limit(opts.Page, opts.PageSize)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list areas: %w", err)
	}
	defer func() { _ = rows.Close() }()

	areas := []core.Area{}
	for rows.Next() {
		a, err := scanArea(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan area: %w", err)
		}
		areas = append(areas, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate areas: %w", err)
	}
	return areas, nil
}

// GetArea retrieves an area by uid, tags included.
func (s *SQLiteStore) GetArea(ctx context.Context, uid string) (core.Area, error) {
	if s.db == nil {
		return core.Area{}, ErrNotOpen
	}
	return getArea(ctx, s.db, uid)
}

func getArea(ctx context.Context, db queryer, uid string) (core.Area, error) {
	row := db.QueryRowContext(ctx, "SELECT "+areaColumns+" FROM areas a WHERE a.uid = ?", uid)
	a, err := scanArea(row.Scan)
	if err != nil {
		return core.Area{}, scanErr(err, "area", uid)
	}
	return a, nil
}

// CreateArea inserts an area and links the given tags. An empty uid is generated.
func (s *SQLiteStore) CreateArea(ctx context.Context, uid string, in core.AreaInput) (core.Area, error) {
	if err := in.Validate(); err != nil {
		return core.Area{}, invalid(err)
	}
	if uid == "" {
		uid = generateID()
	}
	status := in.Status
	if status == "" {
		status = core.StatusActive
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := clusterExists(ctx, tx, in.ClusterUID); err != nil {
			return err
		}
		now := formatTime(s.now())
		_, err := tx.ExecContext(ctx,
			`INSERT INTO areas (uid, name, description, cluster_uid, sort_order, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uid, strings.TrimSpace(in.Name), in.Description, in.ClusterUID, in.SortOrder, status, now, now)
		if isUniqueViolation(err) {
			return fmt.Errorf("area %q already exists: %w", uid, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert area: %w", err)
		}
		return linkTags(ctx, tx, uid, in.Tags)
	})
	if err != nil {
		return core.Area{}, err
	}
	return s.GetArea(ctx, uid)
}

// UpdateArea replaces the editable fields of an area. A nil Tags slice
// leaves the tag links untouched; a non-nil one replaces them.
func (s *SQLiteStore) UpdateArea(ctx context.Context, uid string, in core.AreaInput) (core.Area, error) {
	if err := in.Validate(); err != nil {
		return core.Area{}, invalid(err)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getArea(ctx, tx, uid)
		if err != nil {
			return err
		}
		if err := clusterExists(ctx, tx, in.ClusterUID); err != nil {
			return err
		}
		status := in.Status
		if status == "" {
			status = current.Status
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE areas SET name = ?, description = ?, cluster_uid = ?, sort_order = ?, status = ?, updated_at = ?
			 WHERE uid = ?`,
			strings.TrimSpace(in.Name), in.Description, in.ClusterUID, in.SortOrder, status, formatTime(s.now()), uid)
		if err != nil {
			return fmt.Errorf("failed to update area: %w", err)
		}
		if in.Tags == nil {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM area_tags WHERE area_uid = ?`, uid); err != nil {
			return fmt.Errorf("failed to clear area tags: %w", err)
		}
		return linkTags(ctx, tx, uid, in.Tags)
	})
	if err != nil {
		return core.Area{}, err
	}
	return s.GetArea(ctx, uid)
}

// DeleteArea removes an area and its tag links.
func (s *SQLiteStore) DeleteArea(ctx context.Context, uid string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM areas WHERE uid = ?`, uid)
	if err != nil {
		return fmt.Errorf("failed to delete area: %w", err)
	}
	return checkAffected(res, "area", uid)
}

// SetAreaStatus changes only the status of an area.
func (s *SQLiteStore) SetAreaStatus(ctx context.Context, uid string, status core.Status) (core.Area, error) {
	if !status.Valid() {
		return core.Area{}, invalid(fmt.Errorf("unknown status %q", status))
	}
	if s.db == nil {
		return core.Area{}, ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `UPDATE areas SET status = ?, updated_at = ? WHERE uid = ?`,
		status, formatTime(s.now()), uid)
	if err != nil {
		return core.Area{}, fmt.Errorf("failed to update area status: %w", err)
	}
	if err := checkAffected(res, "area", uid); err != nil {
		return core.Area{}, err
	}
	return s.GetArea(ctx, uid)
}

// TagArea links tags to an area. Slugs already linked are ignored.
func (s *SQLiteStore) TagArea(ctx context.Context, req core.TagRequest) (core.Area, error) {
	if err := req.Validate(); err != nil {
		return core.Area{}, invalid(err)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getArea(ctx, tx, req.AreaUID); err != nil {
			return err
		}
		return linkTags(ctx, tx, req.AreaUID, req.TagSlugs)
	})
	if err != nil {
		return core.Area{}, err
	}
	return s.GetArea(ctx, req.AreaUID)
}

// UntagArea removes tag links from an area. Slugs not linked are ignored.
func (s *SQLiteStore) UntagArea(ctx context.Context, req core.TagRequest) (core.Area, error) {
	if err := req.Validate(); err != nil {
		return core.Area{}, invalid(err)
	}
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := getArea(ctx, tx, req.AreaUID); err != nil {
			return err
		}
		for _, slug := range req.TagSlugs {
			if _, err := tx.ExecContext(ctx, `DELETE FROM area_tags WHERE area_uid = ? AND tag_slug = ?`,
				req.AreaUID, slug); err != nil {
				return fmt.Errorf("failed to untag %q: %w", slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.Area{}, err
	}
	return s.GetArea(ctx, req.AreaUID)
}

func clusterExists(ctx context.Context, db queryer, uid string) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM clusters WHERE uid = ?`, uid).Scan(&n); err != nil {
		return fmt.Errorf("failed to check cluster: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: cluster %q does not exist", ErrInvalid, uid)
	}
	return nil
}

// linkTags inserts area/tag links. Every slug must name an existing tag.
func linkTags(ctx context.Context, tx *sql.Tx, areaUID string, slugs []string) error {
	for _, slug := range slugs {
		slug = strings.TrimSpace(slug)
		if slug == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO area_tags (area_uid, tag_slug) VALUES (?, ?) ON CONFLICT DO NOTHING`, areaUID, slug)
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: tag %q does not exist", ErrInvalid, slug)
		}
		if err != nil {
			return fmt.Errorf("failed to tag area with %q: %w", slug, err)
		}
	}
	return nil
}
