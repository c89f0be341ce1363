package controller

import (
	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
)

// Status is the kind of result the presentation layer should draw.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusError
	StatusEmpty
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusError:
		return "error"
	case StatusEmpty:
		return "empty"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// View is a snapshot of the controller for rendering. Its slices share
// backing arrays with the controller and must not be modified.
type View struct {
	Status  Status
	Message string
	Err     error

	Query string
	Mode  timeline.Mode
	Page  int

	// Articles is the current window; Buckets groups it in bucketed modes.
	Articles []*storage.Article
	Buckets  []timeline.Bucket

	CanPrev bool
	CanNext bool
	// Loaded counts filtered articles accumulated so far.
	Loaded int
	// Total is the provider's reported result count.
	Total int
}

func (c *Controller) View() View {
	window := timeline.Page(c.articles, c.page, c.pageSize)

	v := View{
		Err:      c.err,
		Query:    c.query,
		Mode:     c.mode,
		Page:     c.page,
		Articles: window,
		CanPrev:  c.canPrev(),
		CanNext:  c.canNext(),
		Loaded:   len(c.articles),
		Total:    c.total,
	}
	if c.mode.Bucketed() {
		v.Buckets = timeline.Group(window, c.mode, c.loc)
	}

	switch {
	case c.loading:
		v.Status = StatusLoading
	case c.err != nil:
		v.Status = StatusError
		v.Message = feed.UserMessage(c.err)
	case !c.started:
		v.Status = StatusIdle
	case len(window) == 0:
		v.Status = StatusEmpty
	default:
		v.Status = StatusReady
	}
	return v
}
