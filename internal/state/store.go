// Package state persists the taxonomy served by the development mock API.
// It stores clusters, areas, tags and their area/tag links in SQLite.
package state

import "errors"

// Sentinel errors returned by the store. Callers check them with errors.Is.
var (
	// ErrNotFound means the addressed entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict means the write would break an invariant: a duplicate key,
	// a cycle in the hierarchy, or deleting a cluster that still has children.
	ErrConflict = errors.New("conflict")
	// ErrInvalid means the input failed validation.
	ErrInvalid = errors.New("invalid input")
	// ErrNotOpen means the store was used before Open.
	ErrNotOpen = errors.New("database not opened")
)
