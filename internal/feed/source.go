package feed

import (
	"context"
	"fmt"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/storage"
)

// Sort tokens understood by NewsAPI's /everything endpoint.
const (
	SortRelevancy   = "relevancy"
	SortPublishedAt = "publishedAt"
	SortPopularity  = "popularity"
)

// DefaultPageSize is used when a request does not set one.
const DefaultPageSize = 10

// Request is one page of a provider search.
type Request struct {
	Query    string
	SortBy   string
	Page     int
	PageSize int
}

// Page is a provider response. Articles are in provider order and unfiltered.
type Page struct {
	Articles []*storage.Article
	Total    int
}

// Source is a searchable article provider.
//
// A nil error with no articles means the search matched nothing; a failed
// request always returns a non-nil error.
type Source interface {
	Search(ctx context.Context, req Request) (*Page, error)
	Name() string
}

// NewSource builds the provider selected by cfg.Kind.
func NewSource(cfg config.ProviderConfig) (Source, error) {
	switch cfg.Kind {
	case config.ProviderNewsAPI, "":
		return NewClient(cfg), nil
	case config.ProviderRSS:
		if cfg.RSSURL == "" {
			return nil, fmt.Errorf("rss provider needs provider.rss_url")
		}
		return NewRSSSource(cfg), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Kind)
	}
}

// FetchNews runs a single search and collapses every failure into an empty
// result. Callers that need to tell "no results" apart from "request failed"
// should call Source.Search directly.
func FetchNews(ctx context.Context, src Source, query, sortBy string, page, pageSize int) []*storage.Article {
	res, err := src.Search(ctx, Request{
		Query:    query,
		SortBy:   sortBy,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		debuglog.WithFields(map[string]interface{}{
			"source": src.Name(),
			"query":  query,
			"page":   page,
		}).Warnf("fetch failed: %v", err)
		return []*storage.Article{}
	}
	if res == nil || res.Articles == nil {
		return []*storage.Article{}
	}
	return res.Articles
}

func normalize(req Request, fallbackQuery string, defaultSize int) Request {
	if req.Query == "" {
		req.Query = fallbackQuery
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultSize
	}
	return req
}
