package storage

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")
	store, err := NewStore(dbPath, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestStore_SaveAndGetArticle(t *testing.T) {
	store := setupTestStore(t)

	article := &Article{
		Title:       "Rivers rise",
		Author:      "Jane Doe",
		Description: "Flooding expected",
		URL:         "https://news.test/rivers",
		PublishedAt: "2024-03-01T10:00:00Z",
		Source:      "News Test",
	}

	if err := store.SaveArticle(article); err != nil {
		t.Fatalf("failed to save article: %v", err)
	}

	retrieved, err := store.GetArticle(article.URL)
	if err != nil {
		t.Fatalf("failed to get article: %v", err)
	}

	if retrieved.Title != article.Title {
		t.Errorf("expected Title %s, got %s", article.Title, retrieved.Title)
	}
	if retrieved.Author != article.Author {
		t.Errorf("expected Author %s, got %s", article.Author, retrieved.Author)
	}
	if retrieved.ReadAt.IsZero() {
		t.Error("expected ReadAt to be set on save")
	}
	if !article.ReadAt.IsZero() {
		t.Error("caller's article should not be modified")
	}
}

func TestStore_SaveArticle_RequiresURL(t *testing.T) {
	store := setupTestStore(t)

	if err := store.SaveArticle(&Article{Title: "no url"}); err == nil {
		t.Error("expected error for article without URL")
	}
	if err := store.SaveArticle(nil); err == nil {
		t.Error("expected error for nil article")
	}
}

func TestStore_GetArticle_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetArticle("https://news.test/missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_GetHistory_Order(t *testing.T) {
	store := setupTestStore(t)

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		err := store.SaveArticle(&Article{
			Title:  fmt.Sprintf("Article %d", i),
			URL:    fmt.Sprintf("https://news.test/%d", i),
			ReadAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("failed to save article: %v", err)
		}
	}

	history, err := store.GetHistory(0)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 5 {
		t.Fatalf("expected 5 articles, got %d", len(history))
	}
	if history[0].Title != "Article 4" {
		t.Errorf("expected most recent first, got %s", history[0].Title)
	}

	limited, err := store.GetHistory(2)
	if err != nil {
		t.Fatalf("failed to get limited history: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("expected 2 articles with limit, got %d", len(limited))
	}
}

func TestStore_SaveArticle_Overwrites(t *testing.T) {
	store := setupTestStore(t)

	first := &Article{Title: "Old title", URL: "https://news.test/a"}
	second := &Article{Title: "New title", URL: "https://news.test/a"}

	if err := store.SaveArticle(first); err != nil {
		t.Fatal(err)
	}
	if err := store.SaveArticle(second); err != nil {
		t.Fatal(err)
	}

	history, err := store.GetHistory(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 1 {
		t.Fatalf("expected a single entry per URL, got %d", len(history))
	}
	if history[0].Title != "New title" {
		t.Errorf("expected latest save to win, got %s", history[0].Title)
	}
}

func TestStore_DeleteAndClear(t *testing.T) {
	store := setupTestStore(t)

	for _, u := range []string{"https://news.test/1", "https://news.test/2", "https://news.test/3"} {
		if err := store.SaveArticle(&Article{Title: u, URL: u}); err != nil {
			t.Fatal(err)
		}
	}

	if err := store.DeleteArticle("https://news.test/2"); err != nil {
		t.Fatalf("failed to delete article: %v", err)
	}
	history, _ := store.GetHistory(0)
	if len(history) != 2 {
		t.Errorf("expected 2 articles after delete, got %d", len(history))
	}

	if err := store.ClearHistory(); err != nil {
		t.Fatalf("failed to clear history: %v", err)
	}
	history, _ = store.GetHistory(0)
	if len(history) != 0 {
		t.Errorf("expected empty history, got %d", len(history))
	}
}

func TestStore_Session(t *testing.T) {
	store := setupTestStore(t)

	if _, err := store.LoadSession(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound before first save, got %v", err)
	}

	if err := store.SaveSession(&Session{Query: "climate", Sort: "day"}); err != nil {
		t.Fatalf("failed to save session: %v", err)
	}

	session, err := store.LoadSession()
	if err != nil {
		t.Fatalf("failed to load session: %v", err)
	}
	if session.Query != "climate" || session.Sort != "day" {
		t.Errorf("unexpected session %+v", session)
	}
	if session.UpdatedAt.IsZero() {
		t.Error("expected UpdatedAt to be set")
	}
}

func TestArticleKey_Stable(t *testing.T) {
	if ArticleKey("https://a.test") != ArticleKey("https://a.test") {
		t.Error("expected identical keys for identical URLs")
	}
	if ArticleKey("https://a.test") == ArticleKey("https://b.test") {
		t.Error("expected different keys for different URLs")
	}
}
