// Package relevance implements the lexical in-scope check applied to
// queries, result titles and assistant answers.
package relevance

import (
	"strings"

	"github.com/kailas-cloud/studysearch/internal/domain/item"
)

// Filter decides whether text belongs to the curriculum. Immutable after New.
type Filter struct {
	allowed []string
	banned  []string
}

// New creates a filter. Terms are lowercased; blank terms are ignored.
func New(allowed, banned []string) *Filter {
	return &Filter{allowed: lowerAll(allowed), banned: lowerAll(banned)}
}

// IsEducational reports whether text contains no banned term and at least
// one allowed subject. Banned terms are checked first and always win.
func (f *Filter) IsEducational(text string) bool {
	lower := strings.ToLower(text)
	for _, b := range f.banned {
		if strings.Contains(lower, b) {
			return false
		}
	}
	for _, a := range f.allowed {
		if strings.Contains(lower, a) {
			return true
		}
	}
	return false
}

// Allows applies IsEducational to the item title.
func (f *Filter) Allows(it item.Item) bool {
	return f.IsEducational(it.Title())
}

func lowerAll(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
