// Package scrape implements search adapters for HTML result pages.
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/item"
	"github.com/kailas-cloud/studysearch/internal/domain/query"
	"github.com/kailas-cloud/studysearch/internal/domain/response"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
	"github.com/kailas-cloud/studysearch/internal/metrics"
)

// DefaultUserAgent is sent with every scrape request.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const maxBodyBytes = 2 << 20

// Selectors locate result blocks and their title and link inside a page.
// Link is looked up inside the title element first, then inside the block.
type Selectors struct {
	Result string
	Title  string
	Link   string
}

// Relevance admits result items.
type Relevance interface {
	Allows(it item.Item) bool
}

// Config holds the adapter settings.
type Config struct {
	Kind       source.Kind
	Label      string
	BaseURL    string
	SearchPath string // default "/search"
	QueryParam string // default "q"
	Selectors  Selectors
	UserAgent  string
	Cap        int
	Timeout    time.Duration
	HTTPClient *http.Client
	Relevance  Relevance
	Logger     *zap.Logger
}

// Adapter searches one HTML site.
type Adapter struct {
	kind       source.Kind
	label      string
	base       *url.URL
	searchURL  *url.URL
	queryParam string
	sel        Selectors
	userAgent  string
	limit      int
	client     *http.Client
	relevance  Relevance
	logger     *zap.Logger
}

// New validates the config and creates an adapter.
func New(cfg Config) (*Adapter, error) {
	if !cfg.Kind.IsValid() {
		return nil, fmt.Errorf("%w: invalid source kind %q", domain.ErrInvalidConfig, cfg.Kind)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: %s base url %q must be an absolute http(s) url",
			domain.ErrInvalidConfig, cfg.Kind, cfg.BaseURL)
	}
	if cfg.Selectors.Result == "" || cfg.Selectors.Title == "" || cfg.Selectors.Link == "" {
		return nil, fmt.Errorf("%w: %s selectors are required", domain.ErrInvalidConfig, cfg.Kind)
	}
	if cfg.Relevance == nil {
		return nil, fmt.Errorf("%w: %s relevance filter is required", domain.ErrInvalidConfig, cfg.Kind)
	}

	if cfg.SearchPath == "" {
		cfg.SearchPath = "/search"
	}
	if cfg.QueryParam == "" {
		cfg.QueryParam = "q"
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
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

	searchPath, err := url.Parse(cfg.SearchPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s search path %q: %w", domain.ErrInvalidConfig, cfg.Kind, cfg.SearchPath, err)
	}

	return &Adapter{
		kind:       cfg.Kind,
		label:      cfg.Label,
		base:       base,
		searchURL:  base.ResolveReference(searchPath),
		queryParam: cfg.QueryParam,
		sel:        cfg.Selectors,
		userAgent:  cfg.UserAgent,
		limit:      cfg.Cap,
		client:     client,
		relevance:  cfg.Relevance,
		logger:     logger.With(zap.String("source", string(cfg.Kind))),
	}, nil
}

// Kind implements search.Adapter.
func (a *Adapter) Kind() source.Kind { return a.kind }

// Fetch implements search.Adapter. Transport, status and layout errors are
// returned as failed outcomes.
func (a *Adapter) Fetch(ctx context.Context, q query.Query) response.Outcome {
	doc, err := a.get(ctx, q)
	if err != nil {
		return response.Failed(a.kind, err)
	}

	candidates, err := a.parse(doc)
	if err != nil {
		return response.Failed(a.kind, err)
	}

	res, drops := response.Collect(a.kind, a.label, candidates, a.limit,
		response.Gate{Reason: "irrelevant", Allow: a.relevance.Allows},
	)
	metrics.RecordDrops(string(a.kind), drops)
	return response.Ok(res)
}

// SearchURL returns the request URL for q.
func (a *Adapter) SearchURL(q query.Query) string {
	u := *a.searchURL
	params := u.Query()
	params.Set(a.queryParam, q.Text())
	u.RawQuery = params.Encode()
	return u.String()
}

func (a *Adapter) get(ctx context.Context, q query.Query) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.SearchURL(q), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", a.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "ar,fr;q=0.8,en;q=0.5")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", a.kind, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, domain.NewStatusError(string(a.kind), resp.StatusCode)
	}

	// Pages are decoded to UTF-8 using the Content-Type charset or <meta> tags.
	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decode %s body: %w", a.kind, err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s html: %w", a.kind, err)
	}
	return doc, nil
}

// parse extracts candidates in page order. A page without result blocks is
// an empty result; blocks that all lack a title or link mean the layout is
// not the expected one.
func (a *Adapter) parse(doc *goquery.Document) ([]item.Item, error) {
	blocks := doc.Find(a.sel.Result)
	if blocks.Length() == 0 {
		return nil, nil
	}

	candidates := make([]item.Item, 0, blocks.Length())
	invalid := 0
	blocks.Each(func(_ int, block *goquery.Selection) {
		title := block.Find(a.sel.Title).First()
		link := title.Find(a.sel.Link).First()
		if link.Length() == 0 {
			link = block.Find(a.sel.Link).First()
		}
		href, _ := link.Attr("href")

		it, err := item.New(a.kind, collapse(title.Text()), href, a.base, nil)
		if err != nil {
			invalid++
			a.logger.Debug("skipping result block", zap.Error(err))
			return
		}
		candidates = append(candidates, it)
	})

	if invalid > 0 {
		metrics.RecordDrops(string(a.kind), map[string]int{"invalid": invalid})
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s: %d result blocks without title or link",
			domain.ErrSourceUnavailable, a.kind, invalid)
	}
	return candidates, nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
