package search

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/storage"
)

func setupEngine(t *testing.T, seed ...*storage.Article) (*BleveEngine, *storage.Store, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"), time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	for _, a := range seed {
		require.NoError(t, store.SaveArticle(a))
	}

	idxPath := filepath.Join(dir, "index", "history.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })
	return eng, store, idxPath
}

func TestBleveEngineIndexesAndSearches(t *testing.T) {
	eng, _, idxPath := setupEngine(t,
		&storage.Article{Title: "Hello World", Description: "greeting article", URL: "https://example.com/1", Source: "Daily Planet"},
		&storage.Article{Title: "Golang Tips", Description: "bleve and search", URL: "https://example.com/2", Content: "Using bleve for full text search"},
	)

	res, err := eng.Search("Golang", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "https://example.com/2", res[0].Article.URL)
	assert.Equal(t, "Golang Tips", res[0].Article.Title)
	assert.Greater(t, res[0].Score, 0.0)

	res, err = eng.Search("gol", 10)
	require.NoError(t, err)
	require.Len(t, res, 1, "prefix queries match partial words")

	res, err = eng.Search("planet", 10)
	require.NoError(t, err)
	require.Len(t, res, 1, "source names are searchable")
	assert.Equal(t, "Daily Planet", res[0].Article.Source)

	fi, err := os.Stat(idxPath)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBleveEngineShortQuery(t *testing.T) {
	eng, _, _ := setupEngine(t, &storage.Article{Title: "A", URL: "https://example.com/a"})

	res, err := eng.Search(" a ", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestBleveEngineUpdates(t *testing.T) {
	eng, store, _ := setupEngine(t)

	a := &storage.Article{Title: "Volcano erupts", URL: "https://example.com/v"}
	require.NoError(t, store.SaveArticle(a))
	eng.OnArticlesSaved([]*storage.Article{a, nil, {Title: "no url"}})

	res, err := eng.Search("volcano", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.False(t, res[0].Article.ReadAt.IsZero(), "hits are loaded from the store")

	eng.OnArticleDeleted(a.URL)
	res, err = eng.Search("volcano", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestBleveEngineHistoryCleared(t *testing.T) {
	eng, _, _ := setupEngine(t,
		&storage.Article{Title: "One", URL: "https://example.com/1"},
		&storage.Article{Title: "Two", URL: "https://example.com/2"},
	)

	eng.OnHistoryCleared()
	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestBleveEngineDropsEntriesMissingFromStore(t *testing.T) {
	eng, store, _ := setupEngine(t,
		&storage.Article{Title: "Orphaned story", URL: "https://example.com/o"},
		&storage.Article{Title: "Kept story", URL: "https://example.com/k"},
	)
	// deleted behind the engine's back, as when the index could not be opened
	require.NoError(t, store.DeleteArticle("https://example.com/o"))

	res, err := eng.Search("story", 10)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "Kept story", res[0].Article.Title)

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n, "the stale entry is removed from the index")
}

func TestBleveEngineReopenAfterOfflineDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"), time.Second)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.SaveArticle(&storage.Article{Title: "Ghost story", URL: "https://example.com/g"}))

	idxPath := filepath.Join(dir, "history.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	require.NoError(t, store.DeleteArticle("https://example.com/g"))

	eng, err = NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	defer eng.Close()

	res, err := eng.Search("ghost", 10)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestBleveEngineReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.NewStore(filepath.Join(dir, "test.db"), time.Second)
	require.NoError(t, err)
	defer store.Close()
	require.NoError(t, store.SaveArticle(&storage.Article{Title: "Persistent", URL: "https://example.com/p"}))

	idxPath := filepath.Join(dir, "history.bleve")
	eng, err := NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	eng, err = NewBleveEngine(store, idxPath)
	require.NoError(t, err)
	defer eng.Close()

	n, err := eng.DocCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Hello, World!", []string{"hello", "world"}},
		{"a b cd", []string{"cd"}},
		{"COVID-19 vaccine", []string{"covid", "19", "vaccine"}},
		{"", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tokenize(tt.in), tt.in)
	}
}

var (
	_ Searcher       = (*BleveEngine)(nil)
	_ UpdateListener = (*BleveEngine)(nil)
	_ DeleteListener = (*BleveEngine)(nil)
	_ DebugStatser   = (*BleveEngine)(nil)
)
