package storage

import (
	"time"
)

// Article is one news item as delivered by a provider. Optional fields are
// empty strings when the provider omits them.
type Article struct {
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Description string    `json:"description,omitempty"`
	Content     string    `json:"content,omitempty"`
	URLToImage  string    `json:"urlToImage,omitempty"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
	Source      string    `json:"source,omitempty"`
	ReadAt      time.Time `json:"read_at"`
}

// Session is the query state restored on the next launch.
type Session struct {
	Query     string    `json:"query"`
	Sort      string    `json:"sort"`
	UpdatedAt time.Time `json:"updated_at"`
}
