// Package core defines the shared language of the taxonomy console.
//
// This package contains:
//   - Domain entities (Cluster, Area, Tag, Tree)
//   - The FilterSpec value object that drives view derivation
//   - Response shapes for the stats and health endpoints
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
