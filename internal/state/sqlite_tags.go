package state

import (
	"context"
	"fmt"
	"strings"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

const tagColumns = `t.slug, t.display_name, t.color, t.status,
	(SELECT COUNT(*) FROM area_tags l WHERE l.tag_slug = t.slug) AS area_count,
	t.created_at, t.updated_at`

var tagSorts = map[string]string{
	"slug":         "t.slug",
	"name":         "t.display_name",
	"display_name": "t.display_name",
	"created_at":   "t.created_at",
	"updated_at":   "t.updated_at",
	"area_count":   "area_count",
	"status":       "t.status",
}

func scanTag(scan func(dest ...any) error) (core.Tag, error) {
	var (
		t                    core.Tag
		createdAt, updatedAt string
	)
	if err := scan(&t.Slug, &t.DisplayName, &t.Color, &t.Status, &t.AreaCount, &createdAt, &updatedAt); err != nil {
		return core.Tag{}, err
	}
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return t, nil
}

// ListTags returns tags matching opts. Search matches slug or display name;
// TagSlug selects one tag; ClusterUID selects tags used by that cluster's areas.
func (s *SQLiteStore) ListTags(ctx context.Context, opts core.ListOptions) ([]core.Tag, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	q := &listQuery{}
	statusFilter(q, "t.status", opts)
	if term := strings.TrimSpace(opts.Search); term != "" {
		like := "%" + term + "%"
		q.add("(t.slug LIKE ? OR t.display_name LIKE ?)", like, like)
	}
	if opts.TagSlug != "" {
		q.add("t.slug = ?", opts.TagSlug)
	}
	if opts.ClusterUID != "" {
		q.add(`EXISTS (SELECT 1 FROM area_tags l JOIN areas a ON a.uid = l.area_uid
			WHERE l.tag_slug = t.slug AND a.cluster_uid = ?)`, opts.ClusterUID)
	}

	query := "SELECT " + tagColumns + " FROM tags t" + q.sql() +
		orderBy(opts.SortBy, opts.SortOrder, tagSorts, "t.slug") +
		limit(opts.Page, opts.PageSize)

	rows, err := s.db.QueryContext(ctx, query, q.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []core.Tag{}
	for rows.Next() {
		t, err := scanTag(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tags: %w", err)
	}
	return tags, nil
}

// GetTag retrieves a tag by slug.
func (s *SQLiteStore) GetTag(ctx context.Context, slug string) (core.Tag, error) {
	if s.db == nil {
		return core.Tag{}, ErrNotOpen
	}
	row := s.db.QueryRowContext(ctx, "SELECT "+tagColumns+" FROM tags t WHERE t.slug = ?", slug)
	t, err := scanTag(row.Scan)
	if err != nil {
		return core.Tag{}, scanErr(err, "tag", slug)
	}
	return t, nil
}

// CreateTag inserts a tag.
func (s *SQLiteStore) CreateTag(ctx context.Context, in core.TagInput) (core.Tag, error) {
	if err := in.Validate(); err != nil {
		return core.Tag{}, invalid(err)
	}
	if s.db == nil {
		return core.Tag{}, ErrNotOpen
	}
	status := in.Status
	if status == "" {
		status = core.StatusActive
	}
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (slug, display_name, color, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.Slug, strings.TrimSpace(in.DisplayName), in.Color, status, now, now)
	if isUniqueViolation(err) {
		return core.Tag{}, fmt.Errorf("tag %q already exists: %w", in.Slug, ErrConflict)
	}
	if err != nil {
		return core.Tag{}, fmt.Errorf("failed to insert tag: %w", err)
	}
	return s.GetTag(ctx, in.Slug)
}

// UpdateTag replaces the display name, color and status of a tag.
// The slug is the key and cannot change.
func (s *SQLiteStore) UpdateTag(ctx context.Context, slug string, in core.TagInput) (core.Tag, error) {
	if in.Slug == "" {
		in.Slug = slug
	}
	if err := in.Validate(); err != nil {
		return core.Tag{}, invalid(err)
	}
	if in.Slug != slug {
		return core.Tag{}, invalid(fmt.Errorf("slug cannot change from %q to %q", slug, in.Slug))
	}
	current, err := s.GetTag(ctx, slug)
	if err != nil {
		return core.Tag{}, err
	}
	status := in.Status
	if status == "" {
		status = current.Status
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE tags SET display_name = ?, color = ?, status = ?, updated_at = ? WHERE slug = ?`,
		strings.TrimSpace(in.DisplayName), in.Color, status, formatTime(s.now()), slug)
	if err != nil {
		return core.Tag{}, fmt.Errorf("failed to update tag: %w", err)
	}
	return s.GetTag(ctx, slug)
}

// DeleteTag removes a tag and unlinks it from every area.
func (s *SQLiteStore) DeleteTag(ctx context.Context, slug string) error {
	if s.db == nil {
		return ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE slug = ?`, slug)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	return checkAffected(res, "tag", slug)
}

// SetTagStatus changes only the status of a tag.
func (s *SQLiteStore) SetTagStatus(ctx context.Context, slug string, status core.Status) (core.Tag, error) {
	if !status.Valid() {
		return core.Tag{}, invalid(fmt.Errorf("unknown status %q", status))
	}
	if s.db == nil {
		return core.Tag{}, ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `UPDATE tags SET status = ?, updated_at = ? WHERE slug = ?`,
		status, formatTime(s.now()), slug)
	if err != nil {
		return core.Tag{}, fmt.Errorf("failed to update tag status: %w", err)
	}
	if err := checkAffected(res, "tag", slug); err != nil {
		return core.Tag{}, err
	}
	return s.GetTag(ctx, slug)
}
