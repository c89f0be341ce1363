package search

import "github.com/pders01/headlines/internal/storage"

// Result is one history hit.
type Result struct {
	Article *storage.Article
	Score   float64
}

// Searcher defines the minimal search API used by the TUI and CLI.
type Searcher interface {
	Search(query string, limit int) ([]*Result, error)
}

// UpdateListener can be implemented by search engines that maintain
// an external index and want to be notified about history changes.
type UpdateListener interface {
	OnArticlesSaved(articles []*storage.Article)
}

// DeleteListener is notified when history entries are removed.
type DeleteListener interface {
	OnArticleDeleted(url string)
	OnHistoryCleared()
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}
