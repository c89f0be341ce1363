package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/headlines/internal/feed"
	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/tui"
)

type newsAPI struct {
	mu       sync.Mutex
	requests []*http.Request
	status   int
}

func (n *newsAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	n.mu.Lock()
	n.requests = append(n.requests, r)
	status := n.status
	n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":  "error",
			"code":    "apiKeyInvalid",
			"message": "Your API key is invalid.",
		})
		return
	}

	article := func(title, published string) map[string]any {
		slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))
		return map[string]any{
			"source":      map[string]any{"id": nil, "name": "Space Wire"},
			"title":       title,
			"url":         "https://news.test/" + slug,
			"publishedAt": published,
		}
	}

	var articles []map[string]any
	switch r.URL.Query().Get("page") {
	case "1":
		articles = []map[string]any{
			article("Mars rover lands", "2024-03-05T10:00:00Z"),
			article("[Removed]", "2024-03-04T10:00:00Z"),
			article("Rover sends first photo", "2024-03-01T08:00:00Z"),
		}
	case "2":
		articles = []map[string]any{
			article("Dust storm ahead", "2024-02-20T12:00:00Z"),
			article("Rover survives storm", "2024-02-10T12:00:00Z"),
			article("Mission extended", "2024-01-03T12:00:00Z"),
		}
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":       "ok",
		"totalResults": 6,
		"articles":     articles,
	})
}

func (n *newsAPI) queries() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.requests))
	for _, r := range n.requests {
		out = append(out, r.URL.RawQuery)
	}
	return out
}

type env struct {
	dir    string
	config string
	api    *newsAPI
}

func newEnv(t *testing.T) *env {
	t.Helper()
	t.Setenv("HEADLINES_PROVIDER_API_KEY", "")
	t.Setenv("NEWSAPI_KEY", "")

	api := &newsAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf(`
[provider]
base_url = %q
api_key = "test-key"
page_size = 3
user_agent = "headlines-test/1.0"

[database]
path = %q
search_index = %q

[ui]
timezone = "UTC"
`, srv.URL+"/v2", filepath.Join(dir, "headlines.db"), filepath.Join(dir, "history.bleve"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	return &env{dir: dir, config: cfgPath, api: api}
}

func (e *env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config", e.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestSearchCommand_Flat(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "search", "mars", "rover", "--sort", "recency")
	require.NoError(t, err)

	assert.Contains(t, out, "1. Mars rover lands")
	assert.Contains(t, out, "2. Rover sends first photo")
	assert.Contains(t, out, "3. Dust storm ahead")
	assert.Contains(t, out, "Space Wire • Mar 5 2024, 10:00")
	assert.Contains(t, out, "https://news.test/mars-rover-lands")
	assert.NotContains(t, out, "[Removed]")
	assert.NotContains(t, out, "##")
	assert.Contains(t, out, "Newest first • page 1 • 5 of 6 loaded")

	queries := e.api.queries()
	require.Len(t, queries, 2, "a short first page is topped up from the next provider page")
	assert.Contains(t, queries[0], "q=mars+rover")
	assert.Contains(t, queries[0], "sortBy=publishedAt")
	assert.Contains(t, queries[0], "apiKey=test-key")
	assert.Contains(t, queries[1], "page=2")
}

func TestSearchCommand_Bucketed(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "search", "rover")
	require.NoError(t, err)

	assert.Contains(t, out, "## March 2024 (2)")
	assert.Contains(t, out, "## February 2024 (1)")
	assert.Less(t, strings.Index(out, "March 2024"), strings.Index(out, "February 2024"))
	assert.Contains(t, out, "By month")
	assert.Contains(t, e.api.queries()[0], "sortBy=relevancy")
}

func TestSearchCommand_SecondPage(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "search", "--sort", "relevance", "--page", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "1. Rover survives storm")
	assert.Contains(t, out, "2. Mission extended")
	assert.NotContains(t, out, "Mars rover lands")
	assert.Contains(t, out, "page 2")
	assert.Contains(t, e.api.queries()[0], "q=latest", "an empty query uses the fallback term")
}

func TestSearchCommand_PastLastPage(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "search", "rover", "--page", "5")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "past the last page")
}

func TestSearchCommand_ProviderError(t *testing.T) {
	e := newEnv(t)
	e.api.status = http.StatusUnauthorized

	_, err := e.run(t, "search", "rover")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to fetch news")
	assert.Contains(t, err.Error(), "Your API key is invalid.")
}

func TestSearchCommand_OfflineMessage(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	content := fmt.Sprintf("[provider]\nbase_url = %q\napi_key = \"SECRET-KEY-123\"\n\n[database]\npath = %q\n",
		"http://"+addr+"/v2", filepath.Join(dir, "headlines.db"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))
	t.Setenv("HEADLINES_PROVIDER_API_KEY", "")

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"--config", cfgPath, "search", "x"})
	err = root.Execute()
	require.Error(t, err)
	assert.Equal(t, feed.MessageOffline, err.Error())
	assert.NotContains(t, err.Error(), "SECRET-KEY-123")
}

func TestSearchCommand_InvalidFlags(t *testing.T) {
	e := newEnv(t)

	_, err := e.run(t, "search", "--sort", "sideways")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--sort")

	_, err = e.run(t, "search", "--page", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--page")
	assert.Empty(t, e.api.queries())
}

func seedHistory(t *testing.T, e *env, articles ...*storage.Article) {
	t.Helper()
	store, err := storage.NewStore(filepath.Join(e.dir, "headlines.db"), time.Second)
	require.NoError(t, err)
	for _, a := range articles {
		require.NoError(t, store.SaveArticle(a))
	}
	require.NoError(t, store.Close())
}

func TestHistoryCommand(t *testing.T) {
	e := newEnv(t)

	out, err := e.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, tui.MsgNoHistory)

	seedHistory(t, e,
		&storage.Article{Title: "Volcano erupts", URL: "https://news.test/volcano", ReadAt: time.Now().Add(-time.Hour)},
		&storage.Article{Title: "Rover sends first photo", URL: "https://news.test/rover", ReadAt: time.Now()},
	)

	out, err = e.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, "Volcano erupts")
	assert.Contains(t, out, "https://news.test/rover")
	assert.Less(t, strings.Index(out, "Rover"), strings.Index(out, "Volcano"), "newest first")

	out, err = e.run(t, "history", "volcano")
	require.NoError(t, err)
	assert.Contains(t, out, "Volcano erupts")
	assert.NotContains(t, out, "Rover")

	out, err = e.run(t, "history", "v")
	require.NoError(t, err)
	assert.Contains(t, out, "Volcano erupts", "single letters fall back to the title filter")
	assert.Contains(t, out, "Rover sends first photo")

	out, err = e.run(t, "history", "x")
	require.NoError(t, err)
	assert.Contains(t, out, tui.MsgNoHistory)

	out, err = e.run(t, "history", "--clear")
	require.NoError(t, err)
	assert.Contains(t, out, "History cleared.")

	out, err = e.run(t, "history")
	require.NoError(t, err)
	assert.Contains(t, out, tui.MsgNoHistory)
}

func TestConfigInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", path})
	require.NoError(t, root.Execute())

	assert.FileExists(t, path)
	assert.Contains(t, out.String(), "Generated default configuration at:")

	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", path})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"config", "init", "--force", path})
	assert.NoError(t, root.Execute())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "headlines dev")
	assert.Contains(t, out.String(), "github.com/pders01/headlines")

	out.Reset()
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--short"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "dev\n", out.String())
}

func TestLoadConfig_DBFlag(t *testing.T) {
	e := newEnv(t)
	db := filepath.Join(t.TempDir(), "other.db")

	cfg, err := loadConfig(&rootOptions{configPath: e.config, dbPath: db, logLevel: "off"})
	require.NoError(t, err)
	assert.Equal(t, db, cfg.Database.Path)
	assert.Equal(t, filepath.Join(filepath.Dir(db), "history.bleve"), cfg.Database.SearchIndex)
	assert.Equal(t, "off", cfg.Log.Level)
}
