package tui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
)

type View int

const (
	ViewFeed View = iota
	ViewSort
	ViewDetail
	ViewHistory
)

// headerItem is a bucket label row in the feed list.
type headerItem struct {
	label string
	count int
}

func (i headerItem) Title() string {
	return BucketStyle.Render("▍" + i.label)
}

func (i headerItem) Description() string {
	if i.count == 1 {
		return renderMuted("1 article")
	}
	return renderMuted(strconv.Itoa(i.count) + " articles")
}

func (i headerItem) FilterValue() string { return i.label }

type articleItem struct {
	article *storage.Article
	read    bool
	loc     *time.Location
}

func (i articleItem) Title() string {
	title := i.article.Title
	if title == "" {
		title = "(untitled)"
	}
	if i.read {
		return ReadItemStyle.Render(title)
	}
	return UnreadItemStyle.Render("● " + title)
}

func (i articleItem) Description() string {
	var parts []string
	if i.article.Source != "" {
		parts = append(parts, SourceStyle.Render(i.article.Source))
	}
	if t, ok := timeline.ParsePublished(i.article.PublishedAt); ok {
		if i.loc != nil {
			t = t.In(i.loc)
		}
		parts = append(parts, TimeStyle.Render(t.Format("Jan 2, 15:04")))
	}
	if desc := oneLine(i.article.Description); desc != "" {
		parts = append(parts, renderMuted(truncateEnd(desc, 80)))
	}
	return strings.Join(parts, renderMuted(" • "))
}

func (i articleItem) FilterValue() string { return i.article.Title }

type sortItem struct {
	mode    timeline.Mode
	current bool
}

func (i sortItem) Title() string {
	if i.current {
		return UnreadItemStyle.Render("● " + i.mode.Title())
	}
	return i.mode.Title()
}

func (i sortItem) Description() string {
	if i.mode.Bucketed() {
		return renderMuted("grouped by " + i.mode.String())
	}
	return renderMuted("flat list")
}

func (i sortItem) FilterValue() string { return i.mode.String() }

type historyItem struct {
	result *search.Result
	loc    *time.Location
}

func (i historyItem) Title() string {
	return ReadItemStyle.Render(i.result.Article.Title)
}

func (i historyItem) Description() string {
	a := i.result.Article
	var parts []string
	if a.Source != "" {
		parts = append(parts, a.Source)
	}
	if !a.ReadAt.IsZero() {
		t := a.ReadAt
		if i.loc != nil {
			t = t.In(i.loc)
		}
		parts = append(parts, "read "+t.Format("Jan 2"))
	}
	parts = append(parts, truncateMiddle(a.URL, 60))
	return lipgloss.NewStyle().Foreground(MutedColor).Render(strings.Join(parts, " • "))
}

func (i historyItem) FilterValue() string { return i.result.Article.Title }

type fetchDoneMsg struct {
	seq  uint64
	page *feed.Page
	err  error
}

type articleRenderedMsg struct {
	url     string
	content string
}

type historyResultsMsg struct {
	query   string
	results []*search.Result
}

type historySavedMsg struct {
	url string
}

type historyDeletedMsg struct {
	url string
}

type readURLsMsg struct {
	urls map[string]bool
}

type debounceKind int

const (
	debounceQuery debounceKind = iota
	debounceHistory
)

type debounceFireMsg struct {
	kind debounceKind
	seq  int
}

type statusClearMsg struct {
	seq int
}

type openedMsg struct {
	title string
}

type errorMsg struct {
	err error
}
