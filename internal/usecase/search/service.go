package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/query"
	"github.com/kailas-cloud/studysearch/internal/domain/response"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
	logpkg "github.com/kailas-cloud/studysearch/internal/logger"
	"github.com/kailas-cloud/studysearch/internal/metrics"
)

// Defaults for Config fields left at zero.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxParallel = 3
)

// Outcome is the terminal state of a query.
type Outcome string

// Query outcomes.
const (
	OutcomeResults   Outcome = "results"
	OutcomeAssistant Outcome = "assistant"
	OutcomeRejected  Outcome = "rejected"
	OutcomeNoResults Outcome = "no_results"
)

// Reply is the ordered list of chunks to deliver for one query.
type Reply struct {
	Outcome Outcome
	Chunks  []string
}

// Config holds fan-out settings.
type Config struct {
	Order       []source.Kind
	Timeout     time.Duration
	MaxParallel int
}

// Service runs the study search pipeline. Safe for concurrent use.
type Service struct {
	adapters   map[source.Kind]Adapter
	classifier Classifier
	filter     RelevanceFilter
	render     Formatter
	expander   Expander
	answerer   Answerer
	order      []source.Kind
	timeout    time.Duration
	parallel   int64
	logger     *zap.Logger
}

// New creates a search service. Adapters are keyed by Kind; a later adapter
// of the same kind replaces an earlier one.
func New(
	adapters []Adapter,
	classifier Classifier,
	filter RelevanceFilter,
	render Formatter,
	cfg Config,
	logger *zap.Logger,
) *Service {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultMaxParallel
	}
	if len(cfg.Order) == 0 {
		cfg.Order = source.DefaultOrder()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	byKind := make(map[source.Kind]Adapter, len(adapters))
	for _, a := range adapters {
		byKind[a.Kind()] = a
	}

	return &Service{
		adapters:   byKind,
		classifier: classifier,
		filter:     filter,
		render:     render,
		order:      append([]source.Kind(nil), cfg.Order...),
		timeout:    cfg.Timeout,
		parallel:   int64(cfg.MaxParallel),
		logger:     logger,
	}
}

// WithExpander enables the curriculum expansion pass.
func (s *Service) WithExpander(e Expander) *Service {
	s.expander = e
	return s
}

// WithAnswerer enables the language-model fallback.
func (s *Service) WithAnswerer(a Answerer) *Service {
	s.answerer = a
	return s
}

// HandleQuery runs the whole pipeline for one user query.
func (s *Service) HandleQuery(ctx context.Context, text string) Reply {
	q := query.New(text)
	log := logpkg.FromContextOr(ctx, s.logger).With(zap.String("query", q.Normalized()))

	// The gate sees the whole query; q may be cut to query.MaxLength.
	if !s.filter.IsEducational(query.Normalize(text)) {
		log.Info("query rejected by relevance filter")
		return s.finish(OutcomeRejected, s.render.OutOfScope())
	}

	kinds := s.classifier.Classify(q)
	agg := s.Aggregate(ctx, q, kinds)

	if agg.Empty() && s.expander != nil && ctx.Err() == nil {
		if term, ok := s.expander.MatchTerm(q.Normalized()); ok {
			expanded := query.New(s.expander.WithLevel(term))
			log.Info("no results, retrying with curriculum term",
				zap.String("term", term),
				zap.String("expanded", expanded.Text()),
			)
			agg = s.Aggregate(ctx, expanded, s.order)
		}
	}

	if !agg.Empty() {
		log.Info("query answered",
			zap.Int("sources", len(agg.Results)),
			zap.Int("items", agg.ItemCount()),
			zap.Int("failed_sources", len(agg.Failed)),
		)
		return s.finish(OutcomeResults, s.render.Chunks(agg))
	}

	if s.answerer != nil && ctx.Err() == nil {
		answer, err := s.ask(ctx, q)
		if err == nil {
			log.Info("query answered by assistant", zap.String("provider", s.answerer.Provider()))
			return s.finish(OutcomeAssistant, s.render.Answer(answer))
		}
		log.Warn("assistant fallback failed", zap.Error(err))
	}

	log.Info("no results for query", zap.Int("failed_sources", len(agg.Failed)))
	return s.finish(OutcomeNoResults, s.render.NoResults())
}

// Aggregate fans the query out to the adapters of the given kinds and
// merges their outcomes in precedence order. At most MaxParallel adapters
// of this fan-out run at once; other queries have their own slots. Adapter
// failures never abort siblings. If ctx ends first, outcomes received so far
// are used.
func (s *Service) Aggregate(ctx context.Context, q query.Query, kinds []source.Kind) response.Aggregated {
	selected := s.selectAdapters(kinds)
	if len(selected) == 0 {
		return response.Aggregated{}
	}

	sem := semaphore.NewWeighted(s.parallel)
	out := make(chan response.Outcome, len(selected))
	for _, a := range selected {
		go func() { out <- s.call(ctx, sem, a, q) }()
	}

	outcomes := make([]response.Outcome, 0, len(selected))
collect:
	for range selected {
		select {
		case o := <-out:
			outcomes = append(outcomes, o)
		case <-ctx.Done():
			logpkg.FromContextOr(ctx, s.logger).Warn("search abandoned, using partial results",
				zap.Int("received", len(outcomes)),
				zap.Int("expected", len(selected)),
				zap.Error(ctx.Err()),
			)
			break collect
		}
	}

	return response.Merge(s.order, outcomes)
}

// selectAdapters returns the registered adapters for kinds, deduplicated.
func (s *Service) selectAdapters(kinds []source.Kind) []Adapter {
	seen := make(map[source.Kind]struct{}, len(kinds))
	selected := make([]Adapter, 0, len(kinds))
	for _, k := range kinds {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		if a, ok := s.adapters[k]; ok {
			selected = append(selected, a)
		}
	}
	return selected
}

// call runs one adapter under sem and its own timeout. Time spent waiting
// for a slot counts against the timeout. Panics are converted into failed
// outcomes.
func (s *Service) call(ctx context.Context, sem *semaphore.Weighted, a Adapter, q query.Query) (o response.Outcome) {
	kind := a.Kind()
	log := logpkg.FromContextOr(ctx, s.logger).With(zap.String("source", string(kind)))

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := sem.Acquire(callCtx, 1); err != nil {
		metrics.SourceRequestsTotal.WithLabelValues(string(kind), metrics.StatusFailed).Inc()
		log.Warn("source skipped, no free slot", zap.Error(err))
		return response.Failed(kind, fmt.Errorf("waiting for slot: %w", err))
	}
	defer sem.Release(1)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.Error("source adapter panicked", zap.Any("panic", r), zap.Stack("stacktrace"))
			o = response.Failed(kind, fmt.Errorf("adapter panic: %v", r))
		}

		metrics.SourceRequestDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
		switch {
		case o.IsFailed():
			metrics.SourceRequestsTotal.WithLabelValues(string(kind), metrics.StatusFailed).Inc()
			log.Warn("source unavailable", zap.Error(o.Err()), zap.Duration("latency", time.Since(start)))
		case o.Result().IsEmpty():
			metrics.SourceRequestsTotal.WithLabelValues(string(kind), metrics.StatusEmpty).Inc()
			log.Debug("source had nothing relevant")
		default:
			metrics.SourceRequestsTotal.WithLabelValues(string(kind), metrics.StatusOK).Inc()
			log.Debug("source returned results", zap.Int("items", len(o.Result().Items)))
		}
	}()

	return a.Fetch(callCtx, q)
}

// ask queries the language model and gates its answer.
func (s *Service) ask(ctx context.Context, q query.Query) (string, error) {
	provider := s.answerer.Provider()

	answer, err := s.answerer.Answer(ctx, q)
	if err != nil {
		metrics.AssistantRequestsTotal.WithLabelValues(provider, "error").Inc()
		if !errors.Is(err, domain.ErrAssistantUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrAssistantUnavailable, err)
		}
		return "", err
	}
	if !s.filter.IsEducational(answer) {
		metrics.AssistantRequestsTotal.WithLabelValues(provider, "rejected").Inc()
		return "", domain.ErrIrrelevantAnswer
	}

	metrics.AssistantRequestsTotal.WithLabelValues(provider, "ok").Inc()
	return answer, nil
}

func (s *Service) finish(outcome Outcome, chunks []string) Reply {
	metrics.QueryOutcomesTotal.WithLabelValues(string(outcome)).Inc()
	return Reply{Outcome: outcome, Chunks: chunks}
}
