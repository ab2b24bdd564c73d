package core

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
)

// ClusterInput is the body of cluster create and update requests.
type ClusterInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentUID   string `json:"parent_uid,omitempty"`
	SortOrder   int    `json:"sort_order"`
	Status      Status `json:"status,omitempty"`
}

// Validate checks required fields.
func (in ClusterInput) Validate() error {
	errs := FieldErrors{}
	errs.require("name", in.Name)
	errs.status(in.Status)
	return errs.orNil()
}

// AreaInput is the body of area create and update requests.
type AreaInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ClusterUID  string   `json:"cluster_uid"`
	SortOrder   int      `json:"sort_order"`
	Status      Status   `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Validate checks required fields.
func (in AreaInput) Validate() error {
	errs := FieldErrors{}
	errs.require("name", in.Name)
	errs.require("cluster_uid", in.ClusterUID)
	errs.status(in.Status)
	return errs.orNil()
}

// TagInput is the body of tag create and update requests.
type TagInput struct {
	Slug        string `json:"slug"`
	DisplayName string `json:"display_name"`
	Color       string `json:"color,omitempty"`
	Status      Status `json:"status,omitempty"`
}

var (
	slugPattern  = regexp.MustCompile(`^[a-z0-9]+(?:[-_.][a-z0-9]+)*$`)
	colorPattern = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Validate checks required fields and the slug and color formats.
func (in TagInput) Validate() error {
	errs := FieldErrors{}
	if errs.require("slug", in.Slug) && !slugPattern.MatchString(in.Slug) {
		errs["slug"] = "must be lowercase letters, digits and single separators"
	}
	errs.require("display_name", in.DisplayName)
	if in.Color != "" && !colorPattern.MatchString(in.Color) {
		errs["color"] = "must be a hex color like #3b82f6"
	}
	errs.status(in.Status)
	return errs.orNil()
}

// MoveRequest is the body of POST /clusters/:uid/move. An empty
// NewParentUID moves the cluster to the top level.
type MoveRequest struct {
	NewParentUID string `json:"new_parent_uid"`
	SortOrder    *int   `json:"sort_order,omitempty"`
}

// TagRequest is the body of POST /areas/tag and /areas/untag.
type TagRequest struct {
	AreaUID  string   `json:"area_uid"`
	TagSlugs []string `json:"tag_slugs"`
}

// Validate checks that an area and at least one slug are named.
func (r TagRequest) Validate() error {
	errs := FieldErrors{}
	errs.require("area_uid", r.AreaUID)
	if len(r.TagSlugs) == 0 {
		errs["tag_slugs"] = "at least one tag is required"
	}
	return errs.orNil()
}

// FieldErrors maps a form field to the reason it was rejected.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, e[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e FieldErrors) require(field, value string) bool {
	if strings.TrimSpace(value) == "" {
		e[field] = "is required"
		return false
	}
	return true
}

func (e FieldErrors) status(s Status) {
	if s != "" && !s.Valid() {
		e["status"] = fmt.Sprintf("unknown status %q", s)
	}
}

func (e FieldErrors) orNil() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
