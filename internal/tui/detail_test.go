package tui

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pders01/headlines/internal/search"
	"github.com/pders01/headlines/internal/storage"
)

func detailArticle() *storage.Article {
	return &storage.Article{
		Title:       "Rover lands on Mars",
		Author:      "A. Reporter",
		Description: strings.Repeat("x", 200),
		Content:     "The rover touched down at dawn. [+3121 chars]",
		URL:         "https://news.test/rover",
		URLToImage:  "https://news.test/rover.jpg",
		PublishedAt: "2024-02-18T23:30:00Z",
		Source:      "Space Wire",
	}
}

func TestArticleMarkdown_Collapsed(t *testing.T) {
	md := articleMarkdown(detailArticle(), detailOptions{maxDescription: 150, loc: time.UTC, toggleKey: "ctrl+e"})

	assert.Contains(t, md, "# Rover lands on Mars")
	assert.Contains(t, md, "*Sun Feb 18 2024*")
	assert.Contains(t, md, "by A. Reporter")
	assert.Contains(t, md, "**Space Wire**")
	assert.Contains(t, md, "[Image](https://news.test/rover.jpg)")
	assert.Contains(t, md, strings.Repeat("x", 150))
	assert.NotContains(t, md, strings.Repeat("x", 151))
	assert.NotContains(t, md, "touched down")
	assert.Contains(t, md, "*Show more (ctrl+e)*")
	assert.Contains(t, md, "[Read the full story](https://news.test/rover)")
}

func TestArticleMarkdown_Expanded(t *testing.T) {
	md := articleMarkdown(detailArticle(), detailOptions{expanded: true, maxDescription: 150, toggleKey: "ctrl+e"})

	assert.Contains(t, md, strings.Repeat("x", 200))
	assert.Contains(t, md, "The rover touched down at dawn.")
	assert.NotContains(t, md, "[+3121 chars]")
	assert.Contains(t, md, "*Show less (ctrl+e)*")
}

func TestArticleMarkdown_UsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	md := articleMarkdown(detailArticle(), detailOptions{loc: tokyo})
	assert.Contains(t, md, "Mon Feb 19 2024")
}

func TestArticleMarkdown_Minimal(t *testing.T) {
	md := articleMarkdown(&storage.Article{Description: "Short."}, detailOptions{maxDescription: 150})

	assert.Contains(t, md, "# (untitled)")
	assert.NotContains(t, md, "by ")
	assert.NotContains(t, md, "Image")
	assert.NotContains(t, md, "Show more")
	assert.NotContains(t, md, "Read the full story")
	assert.Contains(t, md, "Short.")
}

func TestArticleMarkdown_BlankAuthorOmitted(t *testing.T) {
	a := detailArticle()
	a.Author = "   "
	md := articleMarkdown(a, detailOptions{})
	assert.NotContains(t, md, "by ")
}

func TestCanExpand(t *testing.T) {
	assert.True(t, canExpand(detailArticle(), 150))
	assert.True(t, canExpand(&storage.Article{Content: "more"}, 150))
	assert.False(t, canExpand(&storage.Article{Description: strings.Repeat("x", 150)}, 150))
	assert.True(t, canExpand(&storage.Article{Description: strings.Repeat("x", 151)}, 150))
	assert.False(t, canExpand(&storage.Article{Description: strings.Repeat("x", 500)}, 0))
}

func TestToMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", toMarkdown("  plain text "))
	assert.Equal(t, "", toMarkdown(""))

	md := toMarkdown(`<p>Read <a href="https://news.test/a">this</a> <strong>now</strong></p>`)
	assert.Contains(t, md, "[this](https://news.test/a)")
	assert.Contains(t, md, "**now**")
	assert.NotContains(t, md, "<p>")
}

func TestTruncateEnd(t *testing.T) {
	assert.Equal(t, "hello", truncateEnd("hello", 10))
	assert.Equal(t, "hel…", truncateEnd("hello", 4))
	assert.Equal(t, "…", truncateEnd("hello", 1))
	assert.Equal(t, "", truncateEnd("hello", 0))
	assert.Equal(t, "héll…", truncateEnd("héllo wörld", 5))
}

func TestTruncateMiddle(t *testing.T) {
	assert.Equal(t, "https://news.test", truncateMiddle("https://news.test", 40))
	got := truncateMiddle("https://news.test/a/very/long/path/story.html", 20)
	assert.Len(t, []rune(got), 20)
	assert.True(t, strings.HasPrefix(got, "https://n"))
	assert.True(t, strings.HasSuffix(got, "story.html"))
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a b c", oneLine(" a\n\tb   c "))
}

func TestListItems(t *testing.T) {
	a := &storage.Article{Title: "Story", Source: "Wire", PublishedAt: "2024-03-05T10:00:00Z", Description: "line one\nline two", URL: "https://news.test/s"}

	unread := articleItem{article: a, loc: time.UTC}
	assert.Contains(t, unread.Title(), "● Story")
	assert.Contains(t, unread.Description(), "Wire")
	assert.Contains(t, unread.Description(), "Mar 5, 10:00")
	assert.Contains(t, unread.Description(), "line one line two")

	read := articleItem{article: a, read: true}
	assert.NotContains(t, read.Title(), "●")

	assert.Contains(t, headerItem{label: "March 2024", count: 1}.Description(), "1 article")
	assert.Contains(t, headerItem{label: "March 2024", count: 3}.Description(), "3 articles")

	h := historyItem{result: &search.Result{Article: &storage.Article{
		Title: "Old", Source: "Wire", URL: "https://news.test/old",
		ReadAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}}, loc: time.UTC}
	assert.Contains(t, h.Description(), "read Jan 2")
	assert.Contains(t, h.Description(), "https://news.test/old")
}
