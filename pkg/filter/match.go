package filter

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/leapstack-labs/taxonomy/pkg/core"
)

// matcher does case-folded substring tests against one search term.
// A cases.Caser holds state, so each matcher owns its own.
type matcher struct {
	caser cases.Caser
	term  string
}

func newMatcher(term string) *matcher {
	m := &matcher{caser: cases.Fold()}
	m.term = m.fold(strings.TrimSpace(term))
	return m
}

func (m *matcher) fold(s string) string {
	return m.caser.String(s)
}

// text reports whether s contains the term.
func (m *matcher) text(s string) bool {
	return strings.Contains(m.fold(s), m.term)
}

// area matches on the area name or any of its tags.
func (m *matcher) area(a core.Area) bool {
	if m.text(a.Name) {
		return true
	}
	for _, t := range a.Tags {
		if m.text(t) {
			return true
		}
	}
	return false
}

// Match reports whether s contains term, ignoring case. It is exported for
// renderers that highlight matches.
func Match(s, term string) bool {
	if strings.TrimSpace(term) == "" {
		return true
	}
	return newMatcher(term).text(s)
}
