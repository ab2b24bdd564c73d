package apiclient

import (
	"context"
	"net/http"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// Clusters

func (c *Client) ListClusters(ctx context.Context, opts core.ListOptions) ([]core.Cluster, error) {
	var out []core.Cluster
	if err := c.get(ctx, "/clusters", opts.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetCluster(ctx context.Context, uid string) (core.Cluster, error) {
	var out core.Cluster
	err := c.get(ctx, "/clusters/"+escape(uid), nil, &out)
	return out, err
}

func (c *Client) CreateCluster(ctx context.Context, in core.ClusterInput) (core.Cluster, error) {
	var out core.Cluster
	err := c.send(ctx, http.MethodPost, "/clusters", in, &out)
	return out, err
}

func (c *Client) UpdateCluster(ctx context.Context, uid string, in core.ClusterInput) (core.Cluster, error) {
	var out core.Cluster
	err := c.send(ctx, http.MethodPut, "/clusters/"+escape(uid), in, &out)
	return out, err
}

func (c *Client) DeleteCluster(ctx context.Context, uid string) error {
	return c.send(ctx, http.MethodDelete, "/clusters/"+escape(uid), nil, nil)
}

func (c *Client) ActivateCluster(ctx context.Context, uid string) (core.Cluster, error) {
	var out core.Cluster
	err := c.send(ctx, http.MethodPatch, "/clusters/"+escape(uid)+"/activate", nil, &out)
	return out, err
}

func (c *Client) DeactivateCluster(ctx context.Context, uid string) (core.Cluster, error) {
	var out core.Cluster
	err := c.send(ctx, http.MethodPatch, "/clusters/"+escape(uid)+"/deactivate", nil, &out)
	return out, err
}

// MoveCluster re-parents a cluster. A nil sortOrder keeps the current one.
func (c *Client) MoveCluster(ctx context.Context, uid, newParentUID string, sortOrder *int) (core.Cluster, error) {
	var out core.Cluster
	body := core.MoveRequest{NewParentUID: newParentUID, SortOrder: sortOrder}
	err := c.send(ctx, http.MethodPost, "/clusters/"+escape(uid)+"/move", body, &out)
	return out, err
}

// Areas

func (c *Client) ListAreas(ctx context.Context, opts core.ListOptions) ([]core.Area, error) {
	var out []core.Area
	if err := c.get(ctx, "/areas", opts.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetArea(ctx context.Context, uid string) (core.Area, error) {
	var out core.Area
	err := c.get(ctx, "/areas/"+escape(uid), nil, &out)
	return out, err
}

func (c *Client) CreateArea(ctx context.Context, in core.AreaInput) (core.Area, error) {
	var out core.Area
	err := c.send(ctx, http.MethodPost, "/areas", in, &out)
	return out, err
}

func (c *Client) UpdateArea(ctx context.Context, uid string, in core.AreaInput) (core.Area, error) {
	var out core.Area
	err := c.send(ctx, http.MethodPut, "/areas/"+escape(uid), in, &out)
	return out, err
}

func (c *Client) DeleteArea(ctx context.Context, uid string) error {
	return c.send(ctx, http.MethodDelete, "/areas/"+escape(uid), nil, nil)
}

func (c *Client) ActivateArea(ctx context.Context, uid string) (core.Area, error) {
	var out core.Area
	err := c.send(ctx, http.MethodPatch, "/areas/"+escape(uid)+"/activate", nil, &out)
	return out, err
}

func (c *Client) DeactivateArea(ctx context.Context, uid string) (core.Area, error) {
	var out core.Area
	err := c.send(ctx, http.MethodPatch, "/areas/"+escape(uid)+"/deactivate", nil, &out)
	return out, err
}

// TagArea adds tags to an area and returns the updated area.
func (c *Client) TagArea(ctx context.Context, areaUID string, slugs []string) (core.Area, error) {
	var out core.Area
	err := c.send(ctx, http.MethodPost, "/areas/tag", core.TagRequest{AreaUID: areaUID, TagSlugs: slugs}, &out)
	return out, err
}

// UntagArea removes tags from an area and returns the updated area.
func (c *Client) UntagArea(ctx context.Context, areaUID string, slugs []string) (core.Area, error) {
	var out core.Area
	err := c.send(ctx, http.MethodPost, "/areas/untag", core.TagRequest{AreaUID: areaUID, TagSlugs: slugs}, &out)
	return out, err
}

// Tags

func (c *Client) ListTags(ctx context.Context, opts core.ListOptions) ([]core.Tag, error) {
	var out []core.Tag
	if err := c.get(ctx, "/tags", opts.Values(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTag(ctx context.Context, slug string) (core.Tag, error) {
	var out core.Tag
	err := c.get(ctx, "/tags/"+escape(slug), nil, &out)
	return out, err
}

func (c *Client) CreateTag(ctx context.Context, in core.TagInput) (core.Tag, error) {
	var out core.Tag
	err := c.send(ctx, http.MethodPost, "/tags", in, &out)
	return out, err
}

func (c *Client) UpdateTag(ctx context.Context, slug string, in core.TagInput) (core.Tag, error) {
	var out core.Tag
	err := c.send(ctx, http.MethodPut, "/tags/"+escape(slug), in, &out)
	return out, err
}

func (c *Client) DeleteTag(ctx context.Context, slug string) error {
	return c.send(ctx, http.MethodDelete, "/tags/"+escape(slug), nil, nil)
}

func (c *Client) ActivateTag(ctx context.Context, slug string) (core.Tag, error) {
	var out core.Tag
	err := c.send(ctx, http.MethodPatch, "/tags/"+escape(slug)+"/activate", nil, &out)
	return out, err
}

func (c *Client) DeactivateTag(ctx context.Context, slug string) (core.Tag, error) {
	var out core.Tag
	err := c.send(ctx, http.MethodPatch, "/tags/"+escape(slug)+"/deactivate", nil, &out)
	return out, err
}

// Stats returns the aggregate counters.
func (c *Client) Stats(ctx context.Context) (core.Stats, error) {
	var out core.Stats
	err := c.get(ctx, "/stats", nil, &out)
	return out, err
}

// Health returns the backend health report.
func (c *Client) Health(ctx context.Context) (core.Health, error) {
	var out core.Health
	err := c.get(ctx, "/health", nil, &out)
	return out, err
}
