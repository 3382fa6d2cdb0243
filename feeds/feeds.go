package feeds

import (
	"bloggen/models"

	"github.com/samber/lo"
)

// LinkPrefix is the fixed path prefix prepended to a post slug to form its link
const LinkPrefix = "/posts/"

// Feed-level metadata.
// TODO: source the channel title and description from the site config
const (
	feedTitle       = "My Blog"
	feedDescription = "A humble collection of posts about things I find interesting"
)

// Build assembles the syndication feed document for a post collection.
// One item per record, in input order. No filtering, sorting or validation
// happens here; the collection is served as handed to us.
func Build(posts []models.Post, site string) *models.Feed {
	return &models.Feed{
		Title:       feedTitle,
		Description: feedDescription,
		Site:        site,
		Language:    feedLanguage(posts),
		Items:       lo.Map(posts, func(post models.Post, _ int) models.FeedItem { return buildItem(post) }),
	}
}

func buildItem(post models.Post) models.FeedItem {
	return models.FeedItem{
		Title:       post.Title,
		PubDate:     post.Published,
		Link:        LinkPrefix + post.Slug,
		Description: post.Description,
		Category:    post.Category,
		Categories:  categories(post),
	}
}

// categories is the post category followed by its tags, or just the
// category when there are no tags
func categories(post models.Post) []string {
	if len(post.Tags) == 0 {
		return []string{post.Category}
	}
	return append([]string{post.Category}, post.Tags...)
}

// feedLanguage picks the most common detected post language for the channel
func feedLanguage(posts []models.Post) string {
	counts := lo.CountValuesBy(posts, func(post models.Post) string { return post.Language })
	delete(counts, "")

	best := ""
	bestCount := 0
	for lang, count := range counts {
		if count > bestCount {
			best = lang
			bestCount = count
		}
	}
	return best
}
