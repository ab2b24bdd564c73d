// Package common provides shared types and utilities for UI features.
package common

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// FilterSignals are the filter bar signals shared by every list page.
type FilterSignals struct {
	Tree   string `json:"tree"`
	Status string `json:"status"`
	Type   string `json:"type"`
	Search string `json:"search"`
}

// Spec converts the signals to a normalized FilterSpec.
func (s FilterSignals) Spec() core.FilterSpec {
	return core.FilterSpec{
		Tree:   s.Tree,
		Status: core.Status(s.Status),
		Type:   s.Type,
		Search: s.Search,
	}.Normalize()
}

// SignalsFor returns the filter signals that reproduce spec.
func SignalsFor(spec core.FilterSpec) FilterSignals {
	spec = spec.Normalize()
	return FilterSignals{
		Tree:   spec.Tree,
		Status: string(spec.Status),
		Type:   spec.Type,
		Search: spec.Search,
	}
}

// OptInt is an integer signal that may be unset. Number inputs bound to
// signals send "" while empty, so it decodes a JSON number, a numeric
// string, an empty string or null.
type OptInt struct {
	N     int
	Valid bool
}

// IntOf returns a set OptInt.
func IntOf(n int) OptInt {
	return OptInt{N: n, Valid: true}
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptInt) UnmarshalJSON(data []byte) error {
	*o = OptInt{}
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	raw := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil
		}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("not a number: %q", raw)
	}
	*o = IntOf(int(f))
	return nil
}

// MarshalJSON renders an unset value as "" so bound inputs start empty.
func (o OptInt) MarshalJSON() ([]byte, error) {
	if !o.Valid {
		return []byte(`""`), nil
	}
	return []byte(strconv.Itoa(o.N)), nil
}

// Int returns the value, zero when unset.
func (o OptInt) Int() int {
	return o.N
}

// Ptr returns a pointer to the value, nil when unset.
func (o OptInt) Ptr() *int {
	if !o.Valid {
		return nil
	}
	n := o.N
	return &n
}

// SplitSlugs splits a comma or space separated slug list, dropping blanks
// and duplicates while keeping order.
func SplitSlugs(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// MarshalSignals renders signals for a data-signals attribute.
func MarshalSignals(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}
