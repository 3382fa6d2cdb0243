package models

import "time"

// Post model with key fields from a blog post in the content index
type Post struct {
	Id          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Tags        []string  `json:"tags,omitempty"`
	Published   time.Time `json:"published"`
	Language    string    `json:"language,omitempty"`
	Draft       bool      `json:"draft,omitempty"`
	HTML        string    `json:"-"`
	SourcePath  string    `json:"-"`
}

// FeedItem is one syndication entry derived 1:1 from a post
type FeedItem struct {
	Title       string    `json:"title"`
	PubDate     time.Time `json:"pubDate"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Categories  []string  `json:"categories"`
}

// Feed is the syndication document built fresh on every request
type Feed struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Site        string     `json:"site"`
	Language    string     `json:"language,omitempty"`
	Items       []FeedItem `json:"items"`
}

// PostIndexedEvent fired when a post is written to the content index
type PostIndexedEvent struct {
	Post Post
}

// PostRemovedEvent fired when a post is removed from the content index
type PostRemovedEvent struct {
	Post Post
}

type PostsAggregatedByTime struct {
	Time  time.Time `json:"time"`
	Count int64     `json:"count"`
}
