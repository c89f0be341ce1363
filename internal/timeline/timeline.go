// Package timeline turns a flat, provider-ordered article list into what the
// feed displays: a filtered list, a fixed-size page window, or date buckets.
// Every function here is pure; inputs are never modified.
package timeline

import (
	"strings"
	"time"

	"github.com/pders01/headlines/internal/storage"
)

// RemovedTitle is the title providers use for redacted articles.
const RemovedTitle = "[Removed]"

// UnknownLabel groups articles whose timestamp cannot be parsed.
const UnknownLabel = "Unknown date"

// Bucket is a date label with its articles in received order.
type Bucket struct {
	Label    string
	Articles []*storage.Article
}

// Filter drops every article titled sentinel and keeps the relative order of
// the rest. A nil article is dropped as well.
func Filter(articles []*storage.Article, sentinel string) []*storage.Article {
	out := make([]*storage.Article, 0, len(articles))
	for _, a := range articles {
		if a == nil || a.Title == sentinel {
			continue
		}
		out = append(out, a)
	}
	return out
}

// Page returns the window [(page-1)*size, page*size) clamped to the list.
// Pages past the end yield an empty slice.
func Page(articles []*storage.Article, page, size int) []*storage.Article {
	if page < 1 || size < 1 {
		return []*storage.Article{}
	}
	start := (page - 1) * size
	if start >= len(articles) {
		return []*storage.Article{}
	}
	end := start + size
	if end > len(articles) {
		end = len(articles)
	}
	return articles[start:end:end]
}

// PageCount is the number of windows needed to show n articles.
func PageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n + size - 1) / size
}

// Group partitions articles by the date label of mode. Buckets appear in the
// order their first article was seen; a flat mode yields a single bucket with
// an empty label.
func Group(articles []*storage.Article, mode Mode, loc *time.Location) []Bucket {
	if len(articles) == 0 {
		return []Bucket{}
	}
	if loc == nil {
		loc = time.Local
	}

	var buckets []Bucket
	index := make(map[string]int)
	for _, a := range articles {
		label := ""
		if mode.Bucketed() {
			label = Label(a.PublishedAt, mode, loc)
		}
		i, ok := index[label]
		if !ok {
			i = len(buckets)
			index[label] = i
			buckets = append(buckets, Bucket{Label: label})
		}
		buckets[i].Articles = append(buckets[i].Articles, a)
	}
	return buckets
}

// Label renders the bucket label for a provider timestamp.
func Label(publishedAt string, mode Mode, loc *time.Location) string {
	t, ok := ParsePublished(publishedAt)
	if !ok {
		return UnknownLabel
	}
	if loc != nil {
		t = t.In(loc)
	}
	switch mode {
	case ModeDay:
		return t.Format("1/2/2006")
	case ModeMonth:
		return t.Format("January 2006")
	case ModeYear:
		return t.Format("2006")
	default:
		return ""
	}
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// ParsePublished parses the timestamp formats seen from NewsAPI and RSS feeds.
func ParsePublished(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
