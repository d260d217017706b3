package response

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/item"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

// DefaultCap is the per-source item limit.
const DefaultCap = 3

// SourceResult is the capped, ordered output of one adapter.
type SourceResult struct {
	Kind  source.Kind
	Label string
	Items []item.Item
}

// IsEmpty reports whether the source had nothing relevant.
func (r SourceResult) IsEmpty() bool { return len(r.Items) == 0 }

// Gate is a named per-item admission check.
type Gate struct {
	Reason string
	Allow  func(item.Item) bool
}

// Drops counts rejected candidates by gate reason.
type Drops map[string]int

// Collect evaluates candidates in source order and keeps the first limit
// items that pass every gate. Candidates after the limit is reached are
// not evaluated. A limit <= 0 means DefaultCap.
func Collect(kind source.Kind, label string, candidates []item.Item, limit int, gates ...Gate) (SourceResult, Drops) {
	if limit <= 0 {
		limit = DefaultCap
	}
	if label == "" {
		label = kind.Label()
	}

	res := SourceResult{Kind: kind, Label: label, Items: make([]item.Item, 0, limit)}
	drops := Drops{}

next:
	for _, c := range candidates {
		if len(res.Items) >= limit {
			break
		}
		for _, g := range gates {
			if !g.Allow(c) {
				drops[g.Reason]++
				continue next
			}
		}
		res.Items = append(res.Items, c)
	}
	return res, drops
}

// Outcome is the result variant of one adapter call: either a SourceResult or a failure.
type Outcome struct {
	kind   source.Kind
	result SourceResult
	err    error
}

// Ok wraps a successful (possibly empty) result.
func Ok(r SourceResult) Outcome {
	return Outcome{kind: r.Kind, result: r}
}

// Failed wraps a recoverable source failure. The error always matches domain.ErrSourceUnavailable.
func Failed(kind source.Kind, err error) Outcome {
	if err == nil {
		err = domain.ErrSourceUnavailable
	} else if !errors.Is(err, domain.ErrSourceUnavailable) {
		err = fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}
	return Outcome{kind: kind, err: err}
}

// Kind returns the source of the outcome.
func (o Outcome) Kind() source.Kind { return o.kind }

// Result returns the source result; empty for failures.
func (o Outcome) Result() SourceResult { return o.result }

// Err returns the failure reason, or nil.
func (o Outcome) Err() error { return o.err }

// IsFailed reports whether the adapter failed.
func (o Outcome) IsFailed() bool { return o.err != nil }

// Aggregated is the merged response of one fan-out, in render precedence order.
type Aggregated struct {
	Results []SourceResult
	Failed  []source.Kind
}

// Merge orders non-empty successful outcomes by the given precedence.
// Kinds missing from order are appended in the order they were received.
func Merge(order []source.Kind, outcomes []Outcome) Aggregated {
	byKind := make(map[source.Kind]SourceResult, len(outcomes))
	var agg Aggregated
	var extra []source.Kind

	for _, o := range outcomes {
		if o.IsFailed() {
			agg.Failed = append(agg.Failed, o.Kind())
			continue
		}
		r := o.Result()
		if r.IsEmpty() {
			continue
		}
		if _, dup := byKind[r.Kind]; !dup && !contains(order, r.Kind) {
			extra = append(extra, r.Kind)
		}
		byKind[r.Kind] = r
	}

	for _, k := range append(append([]source.Kind{}, order...), extra...) {
		if r, ok := byKind[k]; ok {
			agg.Results = append(agg.Results, r)
			delete(byKind, k)
		}
	}
	return agg
}

// Empty is the explicit no-results signal: no source contributed an item.
func (a Aggregated) Empty() bool { return len(a.Results) == 0 }

// ItemCount returns the number of items across all sources.
func (a Aggregated) ItemCount() int {
	n := 0
	for _, r := range a.Results {
		n += len(r.Items)
	}
	return n
}

func contains(kinds []source.Kind, k source.Kind) bool {
	for _, x := range kinds {
		if x == k {
			return true
		}
	}
	return false
}
