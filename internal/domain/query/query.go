package query

import "strings"

// MaxLength caps the accepted query text, in runes.
const MaxLength = 512

// Query is the raw end-user text and its normalized form.
type Query struct {
	text       string
	normalized string
}

// New builds a query. Text longer than MaxLength runes is cut.
func New(text string) Query {
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > MaxLength {
		text = string(r[:MaxLength])
	}
	return Query{text: text, normalized: Normalize(text)}
}

// Normalize lowercases, trims and collapses inner whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Text returns the trimmed raw text as sent to sources.
func (q Query) Text() string { return q.text }

// Normalized returns the lowercased form used for lexical matching.
func (q Query) Normalized() string { return q.normalized }

// IsEmpty reports whether the query has no content.
func (q Query) IsEmpty() bool { return q.normalized == "" }
