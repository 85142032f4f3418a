package models

import "time"

// Message is the generic response of the informational endpoints
// (/, /about, /report, /rays, /analysis, /askdoctor, /contact).
type Message struct {
	Message string `json:"message"`
}

// ArticleSource identifies the publisher of a news article.
type ArticleSource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Article is a single health-news item.
type Article struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	URL         string        `json:"url"`
	Image       string        `json:"image,omitempty"`
	PublishedAt time.Time     `json:"publishedAt,omitzero"`
	Source      ArticleSource `json:"source"`
}

// NewsPage is one page of the paginated news feed.
type NewsPage struct {
	Articles      []Article `json:"articles"`
	TotalArticles int       `json:"totalArticles,omitempty"`
}

// NewsQuery carries the /news query parameters.
type NewsQuery struct {
	Category string
	Lang     string
	Page     int
}
