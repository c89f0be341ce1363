// Package controller owns the feed's query state: search text, sort mode,
// display page and the article list accumulated from provider pages.
//
// The controller performs no I/O. Transitions that need data return a
// Request; the caller runs it against a feed.Source and hands the outcome
// back through Complete. Every request carries a sequence number and only
// the latest one is accepted, so responses that arrive out of order never
// overwrite newer state.
//
// Display pages are client-side windows of PageSize over the accumulated,
// filtered list. Provider pages are fetched lazily and in order, only when
// a window cannot be filled from what is already loaded. Bucketed modes
// group the current window. The same policy applies to every mode.
package controller

import (
	"context"
	"time"

	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
)

// Request is a provider request tagged with its sequence number.
type Request struct {
	Seq uint64
	feed.Request
}

type Options struct {
	Query    string
	Mode     timeline.Mode
	PageSize int
	// Sentinel is the title of redacted articles; defaults to "[Removed]".
	Sentinel string
	// Location is used for bucket labels; nil means time.Local.
	Location *time.Location
}

type Controller struct {
	query    string
	mode     timeline.Mode
	page     int
	pageSize int
	sentinel string
	loc      *time.Location

	started bool
	loading bool
	err     error
	seq     uint64

	articles     []*storage.Article
	providerPage int
	pendingPage  int
	received     int
	total        int
	exhausted    bool
}

func New(opts Options) *Controller {
	size := opts.PageSize
	if size <= 0 {
		size = feed.DefaultPageSize
	}
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = timeline.RemovedTitle
	}
	return &Controller{
		query:    opts.Query,
		mode:     opts.Mode,
		page:     1,
		pageSize: size,
		sentinel: sentinel,
		loc:      opts.Location,
		articles: []*storage.Article{},
	}
}

// SortBy maps a display mode to the provider sort token. Grouped modes ask
// for relevance except by-day, which asks for recency.
func SortBy(m timeline.Mode) string {
	switch m {
	case timeline.ModeRecency, timeline.ModeDay:
		return feed.SortPublishedAt
	case timeline.ModePopularity:
		return feed.SortPopularity
	default:
		return feed.SortRelevancy
	}
}

func (c *Controller) Query() string       { return c.query }
func (c *Controller) Mode() timeline.Mode { return c.mode }
func (c *Controller) Page() int           { return c.page }
func (c *Controller) Loading() bool       { return c.loading }

// Latest reports whether seq belongs to the most recent request.
func (c *Controller) Latest(seq uint64) bool {
	return c.loading && seq == c.seq
}

// SetQuery changes the search text. An unchanged query is a no-op once the
// first fetch has been issued.
func (c *Controller) SetQuery(q string) (Request, bool) {
	if c.started && q == c.query {
		return Request{}, false
	}
	c.query = q
	return c.Refresh(), true
}

// SetMode changes the sort mode. An unchanged mode is a no-op once the first
// fetch has been issued.
func (c *Controller) SetMode(m timeline.Mode) (Request, bool) {
	if c.started && m == c.mode {
		return Request{}, false
	}
	c.mode = m
	return c.Refresh(), true
}

// Refresh drops everything loaded, returns to page 1 and starts over.
func (c *Controller) Refresh() Request {
	c.page = 1
	c.articles = []*storage.Article{}
	c.providerPage = 0
	c.received = 0
	c.total = 0
	c.exhausted = false
	return c.begin()
}

func (c *Controller) begin() Request {
	c.started = true
	c.loading = true
	c.err = nil
	c.seq++
	c.pendingPage = c.providerPage + 1

	debuglog.WithFields(map[string]interface{}{
		"seq":   c.seq,
		"query": c.query,
		"mode":  c.mode.String(),
		"page":  c.pendingPage,
	}).Debugf("fetch started")

	return Request{
		Seq: c.seq,
		Request: feed.Request{
			Query:    c.query,
			SortBy:   SortBy(c.mode),
			Page:     c.pendingPage,
			PageSize: c.pageSize,
		},
	}
}

// Complete records the outcome of request seq. Stale or unknown sequence
// numbers are ignored. When the current window is still short and the
// provider has more, the follow-up request is returned with more == true.
func (c *Controller) Complete(seq uint64, page *feed.Page, err error) (next Request, more bool) {
	if !c.Latest(seq) {
		debuglog.Debugf("discarding stale response seq=%d latest=%d", seq, c.seq)
		return Request{}, false
	}
	c.loading = false

	if err != nil {
		c.err = err
		debuglog.Warnf("fetch seq=%d failed: %v", seq, err)
		return Request{}, false
	}

	var raw []*storage.Article
	if page != nil {
		raw = page.Articles
		c.total = page.Total
	}
	c.providerPage = c.pendingPage
	c.received += len(raw)
	c.articles = append(c.articles, timeline.Filter(raw, c.sentinel)...)
	c.exhausted = len(raw) < c.pageSize || (c.total > 0 && c.received >= c.total)

	if c.needsMore() {
		return c.begin(), true
	}
	return Request{}, false
}

// needsMore reports whether the current window can only be filled by
// another provider page.
func (c *Controller) needsMore() bool {
	return !c.exhausted && len(c.articles) < c.page*c.pageSize
}

// NextPage advances one window. It is a no-op while loading or when there is
// nothing past the current window. A fetch is returned when the new window
// needs another provider page.
func (c *Controller) NextPage() (Request, bool) {
	if !c.canNext() {
		return Request{}, false
	}
	c.page++
	if c.needsMore() {
		return c.begin(), true
	}
	return Request{}, false
}

// PrevPage steps back one window. It never fetches and reports whether the
// page changed.
func (c *Controller) PrevPage() bool {
	if !c.canPrev() {
		return false
	}
	c.page--
	c.err = nil
	return true
}

func (c *Controller) canPrev() bool {
	return c.page > 1 && !c.loading
}

func (c *Controller) canNext() bool {
	if c.loading || !c.started {
		return false
	}
	if len(c.articles) > c.page*c.pageSize {
		return true
	}
	return !c.exhausted && c.err == nil
}

// Run executes req and any follow-up requests against src, blocking until
// the controller has nothing left to fetch.
func (c *Controller) Run(ctx context.Context, src feed.Source, req Request) {
	for {
		page, err := src.Search(ctx, req.Request)
		next, more := c.Complete(req.Seq, page, err)
		if !more {
			return
		}
		req = next
	}
}
