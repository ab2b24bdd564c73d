package state

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/taxonomy/pkg/core"
	"github.com/leapstack-labs/taxonomy/pkg/hierarchy"
)

const clusterColumns = `c.uid, c.name, c.description, c.parent_uid, c.sort_order, c.path, c.status,
	(SELECT COUNT(*) FROM areas a WHERE a.cluster_uid = c.uid) AS area_count,
	c.created_at, c.updated_at`

var clusterSorts = map[string]string{
	"name":       "c.name",
	"sort_order": "c.sort_order",
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
	"status":     "c.status",
	"path":       "c.path",
}

func scanCluster(scan func(dest ...any) error) (core.Cluster, error) {
	var (
		c                    core.Cluster
		parent               sql.NullString
		createdAt, updatedAt string
	)
	if err := scan(&c.UID, &c.Name, &c.Description, &parent, &c.SortOrder, &c.Path, &c.Status,
		&c.AreaCount, &createdAt, &updatedAt); err != nil {
		return core.Cluster{}, err
	}
	c.ParentUID = parent.String
	c.CreatedAt = parseTime(createdAt)
	c.UpdatedAt = parseTime(updatedAt)
	return c, nil
}

// statusFilter applies the status / include_inactive semantics shared by all
// list endpoints: an explicit status wins, otherwise inactive rows are hidden
// unless include_inactive is set.
func statusFilter(q *listQuery, column string, opts core.ListOptions) {
	switch {
	case opts.Status != "" && opts.Status != string(core.StatusAll):
		q.add(column+" = ?", opts.Status)
	case opts.Status == "" && !opts.IncludeInactive:
		q.add(column+" = ?", string(core.StatusActive))
	}
}

// ListClusters returns clusters matching opts. ClusterUID selects the
// children of that cluster; TagSlug selects clusters holding an area with the tag.
func (s *SQLiteStore) ListClusters(ctx context.Context, opts core.ListOptions) ([]core.Cluster, error) {
	if s.db == nil {
		return nil, ErrNotOpen
	}

	q := &listQuery{}
	statusFilter(q, "c.status", opts)
	if term := strings.TrimSpace(opts.Search); term != "" {
		like := "%" + term + "%"
		q.add("(c.name LIKE ? OR c.description LIKE ?)", like, like)
	}
	if opts.ClusterUID != "" {
		q.add("c.parent_uid = ?", opts.ClusterUID)
	}
	if opts.TagSlug != "" {
		q.add(`EXISTS (SELECT 1 FROM areas a JOIN area_tags t ON t.area_uid = a.uid
			WHERE a.cluster_uid = c.uid AND t.tag_slug = ?)`, opts.TagSlug)
	}

	query := "SELECT " + clusterColumns + " FROM clusters c" + q.sql() +
		orderBy(opts.SortBy, opts.SortOrder, clusterSorts, "c.sort_order, c.name, c.uid") +
		limit(opts.Page, opts.PageSize)

	return s.queryClusters(ctx, s.db, query, q.args...)
}

func (s *SQLiteStore) queryClusters(ctx context.Context, db queryer, query string, args ...any) ([]core.Cluster, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clusters: %w", err)
	}
	defer func() { _ = rows.Close() }()

	clusters := []core.Cluster{}
	for rows.Next() {
		c, err := scanCluster(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		clusters = append(clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clusters: %w", err)
	}
	return clusters, nil
}

// GetCluster retrieves a cluster by uid.
func (s *SQLiteStore) GetCluster(ctx context.Context, uid string) (core.Cluster, error) {
	if s.db == nil {
		return core.Cluster{}, ErrNotOpen
	}
	return getCluster(ctx, s.db, uid)
}

func getCluster(ctx context.Context, db queryer, uid string) (core.Cluster, error) {
	row := db.QueryRowContext(ctx, "SELECT "+clusterColumns+" FROM clusters c WHERE c.uid = ?", uid)
	c, err := scanCluster(row.Scan)
	if err != nil {
		return core.Cluster{}, scanErr(err, "cluster", uid)
	}
	return c, nil
}

// CreateCluster inserts a cluster. An empty uid is generated.
func (s *SQLiteStore) CreateCluster(ctx context.Context, uid string, in core.ClusterInput) (core.Cluster, error) {
	if err := in.Validate(); err != nil {
		return core.Cluster{}, invalid(err)
	}
	if uid == "" {
		uid = generateID()
	}
	status := in.Status
	if status == "" {
		status = core.StatusActive
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := checkParent(ctx, tx, uid, in.ParentUID); err != nil {
			return err
		}
		now := formatTime(s.now())
		_, err := tx.ExecContext(ctx,
			`INSERT INTO clusters (uid, name, description, parent_uid, sort_order, status, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			uid, strings.TrimSpace(in.Name), in.Description, nullString(in.ParentUID), in.SortOrder, status, now, now)
		if isUniqueViolation(err) {
			return fmt.Errorf("cluster %q already exists: %w", uid, ErrConflict)
		}
		if err != nil {
			return fmt.Errorf("failed to insert cluster: %w", err)
		}
		return refreshPaths(ctx, tx)
	})
	if err != nil {
		return core.Cluster{}, err
	}
	return s.GetCluster(ctx, uid)
}

// UpdateCluster replaces the editable fields of a cluster. A changed parent
// goes through the same checks as MoveCluster.
func (s *SQLiteStore) UpdateCluster(ctx context.Context, uid string, in core.ClusterInput) (core.Cluster, error) {
	if err := in.Validate(); err != nil {
		return core.Cluster{}, invalid(err)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getCluster(ctx, tx, uid)
		if err != nil {
			return err
		}
		if in.ParentUID != current.ParentUID {
			if err := checkParent(ctx, tx, uid, in.ParentUID); err != nil {
				return err
			}
		}
		status := in.Status
		if status == "" {
			status = current.Status
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE clusters SET name = ?, description = ?, parent_uid = ?, sort_order = ?, status = ?, updated_at = ?
			 WHERE uid = ?`,
			strings.TrimSpace(in.Name), in.Description, nullString(in.ParentUID), in.SortOrder, status,
			formatTime(s.now()), uid)
		if err != nil {
			return fmt.Errorf("failed to update cluster: %w", err)
		}
		return refreshPaths(ctx, tx)
	})
	if err != nil {
		return core.Cluster{}, err
	}
	return s.GetCluster(ctx, uid)
}

// DeleteCluster removes a cluster and its areas. A cluster with child
// clusters cannot be deleted.
func (s *SQLiteStore) DeleteCluster(ctx context.Context, uid string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var children int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM clusters WHERE parent_uid = ?`, uid).Scan(&children); err != nil {
			return fmt.Errorf("failed to count children: %w", err)
		}
		if children > 0 {
			return fmt.Errorf("cluster %q has %d child clusters: %w", uid, children, ErrConflict)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM clusters WHERE uid = ?`, uid)
		if err != nil {
			return fmt.Errorf("failed to delete cluster: %w", err)
		}
		return checkAffected(res, "cluster", uid)
	})
}

// SetClusterStatus changes only the status of a cluster.
func (s *SQLiteStore) SetClusterStatus(ctx context.Context, uid string, status core.Status) (core.Cluster, error) {
	if !status.Valid() {
		return core.Cluster{}, invalid(fmt.Errorf("unknown status %q", status))
	}
	if s.db == nil {
		return core.Cluster{}, ErrNotOpen
	}
	res, err := s.db.ExecContext(ctx, `UPDATE clusters SET status = ?, updated_at = ? WHERE uid = ?`,
		status, formatTime(s.now()), uid)
	if err != nil {
		return core.Cluster{}, fmt.Errorf("failed to update cluster status: %w", err)
	}
	if err := checkAffected(res, "cluster", uid); err != nil {
		return core.Cluster{}, err
	}
	return s.GetCluster(ctx, uid)
}

// MoveCluster re-parents a cluster. An empty newParentUID makes it a root.
// Moving a cluster under itself or one of its descendants is a conflict.
// A nil sortOrder keeps the current value.
func (s *SQLiteStore) MoveCluster(ctx context.Context, uid, newParentUID string, sortOrder *int) (core.Cluster, error) {
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		current, err := getCluster(ctx, tx, uid)
		if err != nil {
			return err
		}
		if err := checkParent(ctx, tx, uid, newParentUID); err != nil {
			return err
		}
		order := current.SortOrder
		if sortOrder != nil {
			order = *sortOrder
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE clusters SET parent_uid = ?, sort_order = ?, updated_at = ? WHERE uid = ?`,
			nullString(newParentUID), order, formatTime(s.now()), uid)
		if err != nil {
			return fmt.Errorf("failed to move cluster: %w", err)
		}
		return refreshPaths(ctx, tx)
	})
	if err != nil {
		return core.Cluster{}, err
	}
	return s.GetCluster(ctx, uid)
}

// checkParent verifies that parent exists and is not uid or below it.
func checkParent(ctx context.Context, tx *sql.Tx, uid, parent string) error {
	if parent == "" {
		return nil
	}
	if parent == uid {
		return fmt.Errorf("cluster %q cannot be its own parent: %w", uid, ErrConflict)
	}
	all, err := loadLinks(ctx, tx)
	if err != nil {
		return err
	}
	found := false
	for _, c := range all {
		if c.UID == parent {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: parent cluster %q does not exist", ErrInvalid, parent)
	}
	if hierarchy.Descendants(all, uid)[parent] {
		return fmt.Errorf("moving %q under its descendant %q would create a cycle: %w", uid, parent, ErrConflict)
	}
	return nil
}

// loadLinks reads the fields needed to compute paths and ancestry.
func loadLinks(ctx context.Context, db queryer) ([]core.Cluster, error) {
	rows, err := db.QueryContext(ctx, `SELECT uid, name, parent_uid, path FROM clusters`)
	if err != nil {
		return nil, fmt.Errorf("failed to load cluster links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []core.Cluster
	for rows.Next() {
		var (
			c      core.Cluster
			parent sql.NullString
		)
		if err := rows.Scan(&c.UID, &c.Name, &parent, &c.Path); err != nil {
			return nil, fmt.Errorf("failed to scan cluster link: %w", err)
		}
		c.ParentUID = parent.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// PathSeparator joins ancestor names in a cluster path.
const PathSeparator = " / "

// ClusterPath builds the breadcrumb for uid from its ancestors' names.
func ClusterPath(clusters []core.Cluster, uid string) string {
	var names []string
	for _, a := range hierarchy.Ancestors(clusters, uid) {
		names = append(names, a.Name)
	}
	for _, c := range clusters {
		if c.UID == uid {
			names = append(names, c.Name)
			break
		}
	}
	return strings.Join(names, PathSeparator)
}

// refreshPaths recomputes every materialized path and writes the ones that changed.
func refreshPaths(ctx context.Context, tx *sql.Tx) error {
	all, err := loadLinks(ctx, tx)
	if err != nil {
		return err
	}
	for _, c := range all {
		p := ClusterPath(all, c.UID)
		if p == c.Path {
			continue
		}
		if _, err := tx.ExecContext(ctx, `UPDATE clusters SET path = ? WHERE uid = ?`, p, c.UID); err != nil {
			return fmt.Errorf("failed to update path of %q: %w", c.UID, err)
		}
	}
	return nil
}
