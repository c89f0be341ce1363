package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pders01/headlines/internal/config"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
)

// RSSSource searches the items of a single RSS or Atom feed. The feed is
// downloaded on every search; there is no cache.
type RSSSource struct {
	parser   *gofeed.Parser
	url      string
	pageSize int
}

func NewRSSSource(cfg config.ProviderConfig) *RSSSource {
	p := gofeed.NewParser()
	p.UserAgent = cfg.UserAgent
	if p.UserAgent == "" {
		p.UserAgent = defaultUserAgent
	}
	size := cfg.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return &RSSSource{parser: p, url: cfg.RSSURL, pageSize: size}
}

func (s *RSSSource) Name() string {
	return "rss"
}

func (s *RSSSource) Search(ctx context.Context, req Request) (*Page, error) {
	f, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) {
			return nil, &StatusError{StatusCode: httpErr.StatusCode, Message: httpErr.Status}
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if isOffline(err) {
			return nil, fmt.Errorf("%w: %v", ErrOffline, err)
		}
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return s.search(f, req), nil
}

// SearchReader runs req against a feed document read from r.
func (s *RSSSource) SearchReader(r io.Reader, req Request) (*Page, error) {
	f, err := s.parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}
	return s.search(f, req), nil
}

type rssMatch struct {
	article *storage.Article
	hits    int
	when    time.Time
}

func (s *RSSSource) search(f *gofeed.Feed, req Request) *Page {
	req = normalize(req, "", s.pageSize)
	terms := strings.Fields(strings.ToLower(req.Query))

	matches := make([]rssMatch, 0, len(f.Items))
	for _, item := range f.Items {
		if item == nil {
			continue
		}
		hits, ok := matchTerms(item, terms)
		if !ok {
			continue
		}
		m := rssMatch{article: itemToArticle(f, item), hits: hits}
		if item.PublishedParsed != nil {
			m.when = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			m.when = *item.UpdatedParsed
		}
		matches = append(matches, m)
	}

	switch req.SortBy {
	case SortPublishedAt:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].when.After(matches[j].when)
		})
	case SortRelevancy:
		sort.SliceStable(matches, func(i, j int) bool {
			return matches[i].hits > matches[j].hits
		})
	}

	all := make([]*storage.Article, len(matches))
	for i, m := range matches {
		all[i] = m.article
	}
	return &Page{
		Articles: timeline.Page(all, req.Page, req.PageSize),
		Total:    len(all),
	}
}

// matchTerms reports whether every term occurs in the item and how often
// they occur in total.
func matchTerms(item *gofeed.Item, terms []string) (int, bool) {
	if len(terms) == 0 {
		return 0, true
	}
	text := strings.ToLower(item.Title + "\n" + item.Description + "\n" + item.Content)
	hits := 0
	for _, term := range terms {
		n := strings.Count(text, term)
		if n == 0 {
			return 0, false
		}
		hits += n
	}
	return hits, true
}

func itemToArticle(f *gofeed.Feed, item *gofeed.Item) *storage.Article {
	a := &storage.Article{
		Title:       item.Title,
		Description: item.Description,
		Content:     item.Content,
		URL:         item.Link,
		Source:      f.Title,
	}
	if item.PublishedParsed != nil {
		a.PublishedAt = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else {
		a.PublishedAt = item.Published
	}
	if item.Author != nil {
		a.Author = item.Author.Name
	} else if len(item.Authors) > 0 && item.Authors[0] != nil {
		a.Author = item.Authors[0].Name
	}
	a.URLToImage = imageURL(item)
	return a
}

func imageURL(item *gofeed.Item) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}
	return ""
}
