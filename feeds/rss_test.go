package feeds_test

import (
	"strings"
	"testing"

	"bloggen/feeds"
	"bloggen/models"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Round-trip the generated document through a real feed parser to make
// sure readers see what we think we are emitting.
func TestToXMLParsesBack(t *testing.T) {
	posts := []models.Post{
		{
			Slug:        "a",
			Title:       "Post A",
			Published:   date("2024-01-01"),
			Description: "Desc A",
			Category:    "Python",
			Tags:        []string{"x", "y"},
			Language:    "en",
		},
		{
			Slug:        "b",
			Title:       "Post B",
			Published:   date("2024-02-01"),
			Description: "Desc B",
			Category:    "JS",
			Language:    "en",
		},
	}

	feed := feeds.Build(posts, "https://example.com")
	payload, err := feeds.ToXML(feed)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(string(payload), "<?xml"))

	parsed, err := gofeed.NewParser().ParseString(string(payload))
	require.NoError(t, err)

	assert.Equal(t, feed.Title, parsed.Title)
	assert.Equal(t, feed.Description, parsed.Description)
	assert.Equal(t, "https://example.com", parsed.Link)
	assert.Equal(t, "en", parsed.Language)
	require.Len(t, parsed.Items, 2)

	first := parsed.Items[0]
	assert.Equal(t, "Post A", first.Title)
	assert.Equal(t, "https://example.com/posts/a", first.Link)
	assert.Equal(t, "Desc A", first.Description)
	assert.Equal(t, []string{"Python", "x", "y"}, first.Categories)
	require.NotNil(t, first.PublishedParsed)
	assert.Equal(t, date("2024-01-01"), first.PublishedParsed.UTC())

	second := parsed.Items[1]
	assert.Equal(t, "Post B", second.Title)
	assert.Equal(t, "https://example.com/posts/b", second.Link)
	assert.Equal(t, []string{"JS"}, second.Categories)
}

func TestToXMLEmptyFeed(t *testing.T) {
	feed := feeds.Build(nil, "https://example.com")
	payload, err := feeds.ToXML(feed)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(string(payload))
	require.NoError(t, err)
	assert.Empty(t, parsed.Items)
}

func TestToXMLEscapesMarkup(t *testing.T) {
	posts := []models.Post{
		{
			Slug:        "markup",
			Title:       "Angle <brackets> & ampersands",
			Published:   date("2024-01-01"),
			Description: `He said "hello"`,
			Category:    "Misc",
		},
	}

	feed := feeds.Build(posts, "https://example.com")
	payload, err := feeds.ToXML(feed)
	require.NoError(t, err)

	parsed, err := gofeed.NewParser().ParseString(string(payload))
	require.NoError(t, err)
	require.Len(t, parsed.Items, 1)
	assert.Equal(t, "Angle <brackets> & ampersands", parsed.Items[0].Title)
	assert.Equal(t, `He said "hello"`, parsed.Items[0].Description)
}
