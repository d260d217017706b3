package item

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/kailas-cloud/studysearch/internal/domain"
	"github.com/kailas-cloud/studysearch/internal/domain/source"
)

// Metadata carries video-only details.
type Metadata struct {
	Channel string
	Views   uint64
}

// Item is one discovered piece of content. The URL is always absolute.
type Item struct {
	title    string
	url      string
	source   source.Kind
	metadata *Metadata
}

// New validates a parsed record. Relative links are resolved against base;
// base may be nil when rawURL is expected to be absolute already.
func New(kind source.Kind, title, rawURL string, base *url.URL, meta *Metadata) (Item, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Item{}, fmt.Errorf("%w: empty title", domain.ErrInvalidItem)
	}

	abs, err := Resolve(rawURL, base)
	if err != nil {
		return Item{}, err
	}

	var md *Metadata
	if meta != nil {
		cp := *meta
		md = &cp
	}

	return Item{title: title, url: abs, source: kind, metadata: md}, nil
}

// Resolve turns href into an absolute http(s) URL using base for relative references.
func Resolve(href string, base *url.URL) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("%w: empty link", domain.ErrInvalidItem)
	}

	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("%w: parse link %q: %w", domain.ErrInvalidItem, href, err)
	}

	if !u.IsAbs() {
		if base == nil {
			return "", fmt.Errorf("%w: relative link %q without base", domain.ErrInvalidItem, href)
		}
		u = base.ResolveReference(u)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: unsupported link scheme %q", domain.ErrInvalidItem, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("%w: link %q has no host", domain.ErrInvalidItem, href)
	}
	return u.String(), nil
}

// Title returns the trimmed title.
func (i Item) Title() string { return i.title }

// URL returns the absolute link.
func (i Item) URL() string { return i.url }

// Source returns the kind of source that produced the item.
func (i Item) Source() source.Kind { return i.source }

// Metadata returns video details, or nil for non-video items.
func (i Item) Metadata() *Metadata {
	if i.metadata == nil {
		return nil
	}
	cp := *i.metadata
	return &cp
}
