package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/headlines/internal/browser"
	"github.com/pders01/headlines/internal/controller"
	"github.com/pders01/headlines/internal/debuglog"
	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

const historyLimit = 50

// fetch runs req against the source. Starting a fetch cancels the one in
// flight; its late reply carries an old sequence number and is dropped.
func (a *App) fetch(req controller.Request) tea.Cmd {
	if a.source == nil {
		return nil
	}
	if a.cancelFetch != nil {
		a.cancelFetch()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelFetch = cancel

	src := a.source
	return func() tea.Msg {
		page, err := src.Search(ctx, req.Request)
		return fetchDoneMsg{seq: req.Seq, page: page, err: err}
	}
}

func (a *App) renderArticle(article *storage.Article, expanded bool) tea.Cmd {
	opts := detailOptions{
		expanded:       expanded,
		maxDescription: a.config.UI.Article.MaxDescriptionLength,
		loc:            a.loc,
		toggleKey:      a.keyHandler.modifierKey + "e",
	}
	r, rerr := a.getRenderer()
	return func() tea.Msg {
		markdown := articleMarkdown(article, opts)
		if rerr != nil {
			return articleRenderedMsg{url: article.URL, content: "Error initializing renderer: " + rerr.Error()}
		}
		rendered, err := r.Render(markdown)
		if err != nil {
			// still a rendered msg so loadingArticle gets cleared
			return articleRenderedMsg{url: article.URL, content: fmt.Sprintf("Failed to render article: %s\n\nPress Escape to go back.", err)}
		}
		return articleRenderedMsg{url: article.URL, content: rendered}
	}
}

// saveHistory records article as read and indexes it for history search.
func (a *App) saveHistory(article *storage.Article) tea.Cmd {
	if a.store == nil || article.URL == "" {
		return nil
	}
	store, searcher := a.store, a.searcher
	saved := *article
	saved.ReadAt = time.Now()
	return func() tea.Msg {
		if err := retryOperation(func() error { return store.SaveArticle(&saved) }); err != nil {
			return errorMsg{err: wrapErr("saving history", err)}
		}
		if l, ok := searcher.(search.UpdateListener); ok {
			l.OnArticlesSaved([]*storage.Article{&saved})
		}
		return historySavedMsg{url: saved.URL}
	}
}

func (a *App) deleteHistory(url string) tea.Cmd {
	if a.store == nil {
		return nil
	}
	store, searcher := a.store, a.searcher
	return func() tea.Msg {
		if err := retryOperation(func() error { return store.DeleteArticle(url) }); err != nil {
			return errorMsg{err: wrapErr("removing from history", err)}
		}
		if l, ok := searcher.(search.DeleteListener); ok {
			l.OnArticleDeleted(url)
		}
		return historyDeletedMsg{url: url}
	}
}

// loadReadURLs marks every article already in the history as read.
func (a *App) loadReadURLs() tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	return func() tea.Msg {
		history, err := store.GetHistory(0)
		if err != nil {
			return errorMsg{err: wrapErr("loading history", err)}
		}
		urls := make(map[string]bool, len(history))
		for _, article := range history {
			urls[article.URL] = true
		}
		return readURLsMsg{urls: urls}
	}
}

// searchHistory runs query through the index, or lists the most recently
// read articles when query is empty.
func (a *App) searchHistory(query string) tea.Cmd {
	store, searcher := a.store, a.searcher
	return func() tea.Msg {
		if query == "" {
			if store == nil {
				return historyResultsMsg{}
			}
			history, err := store.GetHistory(historyLimit)
			if err != nil {
				return errorMsg{err: wrapErr("loading history", err)}
			}
			results := make([]*search.Result, 0, len(history))
			for _, article := range history {
				results = append(results, &search.Result{Article: article})
			}
			return historyResultsMsg{results: results}
		}

		if searcher == nil {
			return historyResultsMsg{query: query}
		}
		results, err := searcher.Search(query, historyLimit)
		if err != nil {
			return errorMsg{err: wrapErr("searching history", err)}
		}
		return historyResultsMsg{query: query, results: results}
	}
}

// saveSession persists the query and sort order for the next launch.
func (a *App) saveSession() tea.Cmd {
	if a.store == nil {
		return nil
	}
	store := a.store
	session := &storage.Session{Query: a.ctrl.Query(), Sort: a.ctrl.Mode().String()}
	return func() tea.Msg {
		if err := store.SaveSession(session); err != nil {
			debuglog.Warnf("saving session: %v", err)
		}
		return nil
	}
}

func (a *App) openURL(target browser.Target) tea.Cmd {
	opener := a.opener
	return func() tea.Msg {
		if opener == nil {
			return errorMsg{err: fmt.Errorf("no browser configured")}
		}
		if err := opener.Open(target); err != nil {
			return errorMsg{err: err}
		}
		return openedMsg{title: target.Title}
	}
}

func (a *App) debounce(kind debounceKind, seq int) tea.Cmd {
	wait := a.config.UI.SearchDebounce
	if wait <= 0 {
		return func() tea.Msg { return debounceFireMsg{kind: kind, seq: seq} }
	}
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return debounceFireMsg{kind: kind, seq: seq}
	})
}

// retryOperation retries a database operation up to 3 times with exponential backoff
func retryOperation(operation func() error) error {
	maxRetries := 3
	baseDelay := 100 * time.Millisecond

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		if err := operation(); err != nil {
			lastErr = err
			if i < maxRetries-1 {
				time.Sleep(baseDelay * time.Duration(1<<i))
			}
			continue
		}
		return nil
	}
	return lastErr
}
