// Package youtube implements the video search adapter on top of the
// YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/item"
	"github.com/kailas-cloud/studysearch/internal/domain/query"
	"github.com/kailas-cloud/studysearch/internal/domain/response"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
	"github.com/kailas-cloud/studysearch/internal/metrics"
)

// Defaults for Config.
const (
	DefaultMaxResults        = 5
	DefaultPopularityFloor   = 1000
	DefaultRelevanceLanguage = "ar"
)

const watchURL = "https://www.youtube.com/watch?v="

// Relevance admits result items.
type Relevance interface {
	Allows(it item.Item) bool
}

// LevelTagger appends the curriculum level to a query.
type LevelTagger interface {
	HasLevel(text string) bool
	WithLevel(text string) string
}

// Config holds the adapter settings.
type Config struct {
	APIKey            string
	Endpoint          string // empty means the public API
	MaxResults        int
	PopularityFloor   uint64
	RelevanceLanguage string
	Cap               int
	Timeout           time.Duration
	HTTPClient        *http.Client
	Relevance         Relevance
	Level             LevelTagger // nil disables the level suffix
	Logger            *zap.Logger
}

// Adapter searches videos and keeps popular, in-scope ones.
type Adapter struct {
	svc        *yt.Service
	apiKey     string
	maxResults int64
	floor      uint64
	language   string
	limit      int
	relevance  Relevance
	level      LevelTagger
	logger     *zap.Logger
}

// New creates the adapter. The API key is sent per call so that a custom
// HTTP client can be used alongside it.
func New(ctx context.Context, cfg Config) (*Adapter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: video api key is required", domain.ErrInvalidConfig)
	}
	if cfg.Relevance == nil {
		return nil, fmt.Errorf("%w: video relevance filter is required", domain.ErrInvalidConfig)
	}
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = DefaultMaxResults
	}
	if cfg.MaxResults > 50 {
		return nil, fmt.Errorf("%w: video max_results %d exceeds 50", domain.ErrInvalidConfig, cfg.MaxResults)
	}
	if cfg.PopularityFloor == 0 {
		cfg.PopularityFloor = DefaultPopularityFloor
	}
	if cfg.RelevanceLanguage == "" {
		cfg.RelevanceLanguage = DefaultRelevanceLanguage
	}
	if cfg.Cap <= 0 {
		cfg.Cap = response.DefaultCap
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Adapter{
		svc:        svc,
		apiKey:     cfg.APIKey,
		maxResults: int64(cfg.MaxResults),
		floor:      cfg.PopularityFloor,
		language:   cfg.RelevanceLanguage,
		limit:      cfg.Cap,
		relevance:  cfg.Relevance,
		level:      cfg.Level,
		logger:     logger.With(zap.String("source", string(source.Video))),
	}, nil
}

// Kind implements search.Adapter.
func (a *Adapter) Kind() source.Kind { return source.Video }

// Fetch implements search.Adapter. It issues one search call and one
// batched statistics call.
func (a *Adapter) Fetch(ctx context.Context, q query.Query) response.Outcome {
	hits, err := a.search(ctx, a.SearchText(q))
	if err != nil {
		return response.Failed(source.Video, err)
	}
	if len(hits) == 0 {
		return response.Ok(response.SourceResult{Kind: source.Video, Label: source.Video.Label()})
	}

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.id)
	}
	views, err := a.views(ctx, ids)
	if err != nil {
		return response.Failed(source.Video, err)
	}

	candidates := make([]item.Item, 0, len(hits))
	invalid := 0
	for _, h := range hits {
		it, err := item.New(source.Video, h.title, watchURL+h.id, nil,
			&item.Metadata{Channel: h.channel, Views: views[h.id]})
		if err != nil {
			invalid++
			a.logger.Debug("skipping video", zap.String("video_id", h.id), zap.Error(err))
			continue
		}
		candidates = append(candidates, it)
	}

	res, drops := response.Collect(source.Video, "", candidates, a.limit,
		response.Gate{Reason: "irrelevant", Allow: a.relevance.Allows},
		response.Gate{Reason: "unpopular", Allow: a.popular},
	)
	if invalid > 0 {
		drops["invalid"] += invalid
	}
	metrics.RecordDrops(string(source.Video), drops)
	return response.Ok(res)
}

// SearchText returns the text sent to the search API.
func (a *Adapter) SearchText(q query.Query) string {
	if a.level == nil || a.level.HasLevel(q.Text()) {
		return q.Text()
	}
	return a.level.WithLevel(q.Text())
}

func (a *Adapter) popular(it item.Item) bool {
	md := it.Metadata()
	return md != nil && md.Views >= a.floor
}

type hit struct {
	id      string
	title   string
	channel string
}

func (a *Adapter) search(ctx context.Context, text string) ([]hit, error) {
	resp, err := a.svc.Search.List([]string{"snippet"}).
		Q(text).
		Type("video").
		MaxResults(a.maxResults).
		RelevanceLanguage(a.language).
		Context(ctx).
		Do(googleapi.QueryParameter("key", a.apiKey))
	if err != nil {
		return nil, apiError("search", err)
	}

	hits := make([]hit, 0, len(resp.Items))
	for _, r := range resp.Items {
		if r.Id == nil || r.Id.VideoId == "" || r.Snippet == nil {
			continue
		}
		hits = append(hits, hit{
			id:      r.Id.VideoId,
			title:   html.UnescapeString(r.Snippet.Title),
			channel: html.UnescapeString(r.Snippet.ChannelTitle),
		})
	}
	return hits, nil
}

// views returns view counts keyed by video id. Videos missing from the
// response count as zero views.
func (a *Adapter) views(ctx context.Context, ids []string) (map[string]uint64, error) {
	resp, err := a.svc.Videos.List([]string{"statistics"}).
		Id(ids...).
		Context(ctx).
		Do(googleapi.QueryParameter("key", a.apiKey))
	if err != nil {
		return nil, apiError("videos", err)
	}

	out := make(map[string]uint64, len(resp.Items))
	for _, v := range resp.Items {
		if v.Statistics != nil {
			out[v.Id] = v.Statistics.ViewCount
		}
	}
	return out, nil
}

func apiError(call string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return fmt.Errorf("youtube %s: %w", call, domain.NewStatusError(string(source.Video), gerr.Code))
	}
	return fmt.Errorf("youtube %s: %w", call, err)
}
