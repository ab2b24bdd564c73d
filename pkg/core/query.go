package core

import (
	"net/url"
	"strconv"
)

// ListOptions are the query parameters accepted by every list endpoint.
// Zero values are omitted from the query string.
type ListOptions struct {
	Status          string
	Search          string
	IncludeInactive bool
	SortBy          string
	// SortOrder is "asc" or "desc"
	SortOrder  string
	Page       int
	PageSize   int
	ClusterUID string
	TagSlug    string
}

// Values encodes the options as query parameters.
func (o ListOptions) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("status", o.Status)
	set("search", o.Search)
	if o.IncludeInactive {
		v.Set("include_inactive", "true")
	}
	set("sort_by", o.SortBy)
	set("sort_order", o.SortOrder)
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(o.PageSize))
	}
	set("cluster_uid", o.ClusterUID)
	set("tag_slug", o.TagSlug)
	return v
}

// ParseListOptions is the inverse of Values. Unparseable numbers are ignored.
func ParseListOptions(q url.Values) ListOptions {
	o := ListOptions{
		Status:     q.Get("status"),
		Search:     q.Get("search"),
		SortBy:     q.Get("sort_by"),
		SortOrder:  q.Get("sort_order"),
		ClusterUID: q.Get("cluster_uid"),
		TagSlug:    q.Get("tag_slug"),
	}
	o.IncludeInactive, _ = strconv.ParseBool(q.Get("include_inactive"))
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		o.Page = n
	}
	if n, err := strconv.Atoi(q.Get("page_size")); err == nil && n > 0 {
		o.PageSize = n
	}
	return o
}
