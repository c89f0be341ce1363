package tui

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/pders01/headlines/internal/storage"
	"github.com/pders01/headlines/internal/timeline"
)

// DetailDateLayout matches the long date shown under a headline.
const DetailDateLayout = "Mon Jan 02 2006"

// NewsAPI cuts content off with a "[+1234 chars]" marker.
var truncatedMarker = regexp.MustCompile(`\s*\[\+\d+ chars\]\s*$`)

type detailOptions struct {
	expanded bool
	// maxDescription is where a collapsed description is cut.
	maxDescription int
	loc            *time.Location
	// toggleKey is named in the show more/less hint.
	toggleKey string
}

// canExpand reports whether the show-more toggle changes anything: the
// description is cut or there is content to reveal.
func canExpand(article *storage.Article, maxDescription int) bool {
	if strings.TrimSpace(article.Content) != "" {
		return true
	}
	return maxDescription > 0 && len([]rune(toMarkdown(article.Description))) > maxDescription
}

// articleMarkdown lays out the detail view as markdown for glamour.
func articleMarkdown(article *storage.Article, opts detailOptions) string {
	var b strings.Builder

	title := article.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)

	var byline []string
	if t, ok := timeline.ParsePublished(article.PublishedAt); ok {
		if opts.loc != nil {
			t = t.In(opts.loc)
		}
		byline = append(byline, "*"+t.Format(DetailDateLayout)+"*")
	}
	if author := strings.TrimSpace(article.Author); author != "" {
		byline = append(byline, "by "+author)
	}
	if article.Source != "" {
		byline = append(byline, "**"+article.Source+"**")
	}
	if len(byline) > 0 {
		b.WriteString(strings.Join(byline, " · "))
		b.WriteString("\n\n")
	}

	if article.URLToImage != "" {
		fmt.Fprintf(&b, "[Image](%s)\n\n", article.URLToImage)
	}

	b.WriteString("---\n\n")

	desc := toMarkdown(article.Description)
	runes := []rune(desc)
	long := opts.maxDescription > 0 && len(runes) > opts.maxDescription
	if long && !opts.expanded {
		desc = string(runes[:opts.maxDescription])
	}
	if desc != "" {
		b.WriteString(desc)
		b.WriteString("\n\n")
	}

	if opts.expanded {
		if content := toMarkdown(truncatedMarker.ReplaceAllString(article.Content, "")); content != "" {
			b.WriteString(content)
			b.WriteString("\n\n")
		}
	}

	if canExpand(article, opts.maxDescription) {
		label := "Show more"
		if opts.expanded {
			label = "Show less"
		}
		fmt.Fprintf(&b, "*%s (%s)*\n\n", label, opts.toggleKey)
	}

	if article.URL != "" {
		fmt.Fprintf(&b, "[Read the full story](%s)\n", article.URL)
	}

	return b.String()
}

// toMarkdown converts HTML fragments from feeds to markdown. Plain text and
// fragments that fail to convert are returned trimmed.
func toMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || !strings.ContainsAny(s, "<&") {
		return s
	}
	md, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(md)
}
