package search

import (
	"context"

	"github.com/kailas-cloud/studysearch/internal/domain/query"
	"github.com/kailas-cloud/studysearch/internal/domain/response"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

// Adapter fetches and normalizes results from one external source.
// Fetch never returns an error: failures are reported as response.Failed.
type Adapter interface {
	Kind() source.Kind
	Fetch(ctx context.Context, q query.Query) response.Outcome
}

// Classifier selects the candidate sources for a query.
type Classifier interface {
	Classify(q query.Query) []source.Kind
}

// RelevanceFilter decides whether text is in scope.
type RelevanceFilter interface {
	IsEducational(text string) bool
}

// Formatter renders replies into ordered text chunks.
type Formatter interface {
	Chunks(agg response.Aggregated) []string
	Answer(text string) []string
	OutOfScope() []string
	NoResults() []string
}

// Expander maps a query onto a curriculum term for a second search pass.
type Expander interface {
	MatchTerm(normalized string) (string, bool)
	WithLevel(text string) string
}

// Answerer is the optional language-model fallback.
type Answerer interface {
	Provider() string
	Answer(ctx context.Context, q query.Query) (string, error)
}
