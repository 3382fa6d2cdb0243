package feeds_test

import (
	"testing"
	"time"

	"bloggen/feeds"
	"bloggen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func TestBuildProjectsEveryRecord(t *testing.T) {
	posts := []models.Post{
		{
			Slug:        "a",
			Title:       "Post A",
			Published:   date("2024-01-01"),
			Description: "Desc A",
			Category:    "Python",
			Tags:        []string{"x", "y"},
		},
		{
			Slug:        "b",
			Title:       "Post B",
			Published:   date("2024-02-01"),
			Description: "Desc B",
			Category:    "JS",
		},
	}

	feed := feeds.Build(posts, "https://example.com")

	require.Len(t, feed.Items, len(posts))

	assert.Equal(t, models.FeedItem{
		Title:       "Post A",
		PubDate:     date("2024-01-01"),
		Link:        "/posts/a",
		Description: "Desc A",
		Category:    "Python",
		Categories:  []string{"Python", "x", "y"},
	}, feed.Items[0])

	assert.Equal(t, models.FeedItem{
		Title:       "Post B",
		PubDate:     date("2024-02-01"),
		Link:        "/posts/b",
		Description: "Desc B",
		Category:    "JS",
		Categories:  []string{"JS"},
	}, feed.Items[1])
}

func TestBuildCategories(t *testing.T) {
	tests := []struct {
		name     string
		post     models.Post
		expected []string
	}{
		{
			name:     "no tags",
			post:     models.Post{Slug: "a", Category: "Go"},
			expected: []string{"Go"},
		},
		{
			name:     "empty tags",
			post:     models.Post{Slug: "a", Category: "Go", Tags: []string{}},
			expected: []string{"Go"},
		},
		{
			name:     "category comes before tags",
			post:     models.Post{Slug: "a", Category: "Go", Tags: []string{"t1", "t2"}},
			expected: []string{"Go", "t1", "t2"},
		},
		{
			name:     "single tag",
			post:     models.Post{Slug: "a", Category: "Go", Tags: []string{"t1"}},
			expected: []string{"Go", "t1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed := feeds.Build([]models.Post{tt.post}, "https://example.com")
			require.Len(t, feed.Items, 1)
			assert.Equal(t, tt.expected, feed.Items[0].Categories)
		})
	}
}

func TestBuildLinkPrefix(t *testing.T) {
	posts := []models.Post{
		{Slug: "hello-world", Category: "Go"},
		{Slug: "another-post", Category: "Go"},
	}

	feed := feeds.Build(posts, "https://example.com")

	for i, post := range posts {
		assert.Equal(t, "/posts/"+post.Slug, feed.Items[i].Link)
	}
}

func TestBuildPreservesInputOrder(t *testing.T) {
	// Deliberately not sorted by date: the mapper must not re-sort
	posts := []models.Post{
		{Slug: "middle", Category: "Go", Published: date("2024-02-01")},
		{Slug: "newest", Category: "Go", Published: date("2024-03-01")},
		{Slug: "oldest", Category: "Go", Published: date("2024-01-01")},
	}

	feed := feeds.Build(posts, "https://example.com")

	require.Len(t, feed.Items, 3)
	assert.Equal(t, "/posts/middle", feed.Items[0].Link)
	assert.Equal(t, "/posts/newest", feed.Items[1].Link)
	assert.Equal(t, "/posts/oldest", feed.Items[2].Link)
}

func TestBuildIsIdempotent(t *testing.T) {
	posts := []models.Post{
		{Slug: "a", Title: "A", Category: "Go", Tags: []string{"x"}, Published: date("2024-01-01")},
		{Slug: "b", Title: "B", Category: "JS", Published: date("2024-02-01")},
	}

	first := feeds.Build(posts, "https://example.com")
	second := feeds.Build(posts, "https://example.com")

	assert.Equal(t, first, second)
}

func TestBuildEmptyCollection(t *testing.T) {
	feed := feeds.Build(nil, "https://example.com")

	assert.Empty(t, feed.Items)
	assert.Equal(t, "https://example.com", feed.Site)
}

func TestBuildChannelMetadata(t *testing.T) {
	// Channel title and description are fixed literals, only the site
	// URL comes from the caller
	feed := feeds.Build(nil, "https://blog.example.com")

	assert.Equal(t, "https://blog.example.com", feed.Site)
	assert.NotEmpty(t, feed.Title)
	assert.NotEmpty(t, feed.Description)

	other := feeds.Build(nil, "https://other.example.com")
	assert.Equal(t, feed.Title, other.Title)
	assert.Equal(t, feed.Description, other.Description)
}

func TestBuildChannelLanguage(t *testing.T) {
	posts := []models.Post{
		{Slug: "a", Category: "Go", Language: "en"},
		{Slug: "b", Category: "Go", Language: "nb"},
		{Slug: "c", Category: "Go", Language: "en"},
		{Slug: "d", Category: "Go"},
	}

	feed := feeds.Build(posts, "https://example.com")

	assert.Equal(t, "en", feed.Language)
}
