package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidFilter is returned when a FilterSpec holds an unknown value.
var ErrInvalidFilter = errors.New("invalid filter")

// FilterSpec field values.
const (
	// ScopeAll selects every tree.
	ScopeAll = "all"

	// StatusAll disables the status step; StatusActive enables it.
	StatusAll Status = "all"

	TypeAll      = "all"
	TypeClusters = "clusters"
	TypeAreas    = "areas"
)

// FilterSpec is the user-selected combination of scope, status, type and
// search text. It is a value object: derivations never modify it.
type FilterSpec struct {
	// Tree is ScopeAll or the ID of a tree (root cluster uid)
	Tree string `json:"tree"`
	// Status is StatusAll or StatusActive
	Status Status `json:"status"`
	// Type is TypeAll, TypeClusters or TypeAreas
	Type string `json:"type"`
	// Search is free text matched case-insensitively
	Search string `json:"search"`
}

// DefaultFilterSpec returns the identity filter.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		Tree:   ScopeAll,
		Status: StatusAll,
		Type:   TypeAll,
	}
}

// Normalize maps empty fields to their "all" value and trims the search term.
func (f FilterSpec) Normalize() FilterSpec {
	if strings.TrimSpace(f.Tree) == "" {
		f.Tree = ScopeAll
	}
	if f.Status == "" {
		f.Status = StatusAll
	}
	if f.Type == "" {
		f.Type = TypeAll
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// Validate checks status and type against the known values.
func (f FilterSpec) Validate() error {
	n := f.Normalize()
	switch n.Status {
	case StatusAll, StatusActive:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidFilter, f.Status)
	}
	switch n.Type {
	case TypeAll, TypeClusters, TypeAreas:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidFilter, f.Type)
	}
	return nil
}

// IsIdentity reports whether the spec selects everything.
func (f FilterSpec) IsIdentity() bool {
	n := f.Normalize()
	return n.Tree == ScopeAll && n.Status == StatusAll && n.Type == TypeAll && n.Search == ""
}

// String renders the spec for logs, e.g. "tree=all status=active type=all search=\"go\"".
func (f FilterSpec) String() string {
	n := f.Normalize()
	return fmt.Sprintf("tree=%s status=%s type=%s search=%q", n.Tree, n.Status, n.Type, n.Search)
}
