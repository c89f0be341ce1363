package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Canonical short status messages used across the app.
const (
	MsgLoading        = "Loading…"
	MsgLoadingArticle = "Loading article…"
	MsgNoResults      = "No results"
	MsgNoArticles     = "No articles found"
	MsgNoHistory      = "Nothing read yet"
	MsgHistoryRemoved = "Removed from history"
	MsgFirstPage      = "Already on the first page"
	MsgLastPage       = "No more articles"
)

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgOpened(title string) string {
	if title == "" {
		return "Opened in browser"
	}
	return fmt.Sprintf("Opened '%s'", truncateEnd(title, 40))
}

// MsgPageSummary describes the window shown on the feed: the page number and
// how many filtered articles have been loaded out of the provider's total.
func MsgPageSummary(page, loaded, total int) string {
	if total > 0 {
		return fmt.Sprintf("page %d • %d of %d loaded", page, loaded, total)
	}
	return fmt.Sprintf("page %d", page)
}

// StatusKind is the severity of a transient status bar message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

func (k StatusKind) Style() lipgloss.Style {
	switch k {
	case StatusSuccess:
		return StatusSuccessStyle
	case StatusWarn:
		return StatusWarnStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}
