package db_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"bloggen/db"
	"bloggen/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDB(t *testing.T) *db.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	require.NoError(t, db.Migrate(path))

	d, err := db.NewDB(path)
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	return d
}

func post(slug string, published time.Time) models.Post {
	return models.Post{
		Slug:        slug,
		Title:       "Title " + slug,
		Description: "Description " + slug,
		Category:    "Go",
		Published:   published,
		HTML:        "<p>body</p>",
	}
}

func TestUpsertAndGetCollection(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	older := post("older", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	older.Tags = []string{"x", "y"}
	older.Language = "en"
	newer := post("newer", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	_, err := d.UpsertPost(ctx, older)
	require.NoError(t, err)
	_, err = d.UpsertPost(ctx, newer)
	require.NoError(t, err)

	posts, err := d.GetCollection(db.PostsCollection)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	// Newest first
	assert.Equal(t, "newer", posts[0].Slug)
	assert.Equal(t, "older", posts[1].Slug)

	assert.Equal(t, []string{"x", "y"}, posts[1].Tags)
	assert.Equal(t, "en", posts[1].Language)
	assert.Equal(t, "<p>body</p>", posts[1].HTML)
	assert.Equal(t, older.Published, posts[1].Published)
}

func TestUpsertIsIdempotent(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	p := post("hello", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	p.Tags = []string{"a", "b"}

	first, err := d.UpsertPost(ctx, p)
	require.NoError(t, err)

	p.Title = "Updated title"
	p.Tags = []string{"c"}
	second, err := d.UpsertPost(ctx, p)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	posts, err := d.GetCollection(db.PostsCollection)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Updated title", posts[0].Title)
	assert.Equal(t, []string{"c"}, posts[0].Tags)
}

func TestGetCollectionExcludesDrafts(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	published := post("published", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	draft := post("draft", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	draft.Draft = true

	_, err := d.UpsertPost(ctx, published)
	require.NoError(t, err)
	_, err = d.UpsertPost(ctx, draft)
	require.NoError(t, err)

	posts, err := d.GetCollection(db.PostsCollection)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "published", posts[0].Slug)

	// Drafts are still reachable directly for previews
	p, err := d.GetPost("draft")
	require.NoError(t, err)
	require.NotNil(t, p)
}

func TestGetCollectionUnknownName(t *testing.T) {
	d := testDB(t)

	_, err := d.GetCollection("pages")
	assert.Error(t, err)
}

func TestGetPostMissing(t *testing.T) {
	d := testDB(t)

	p, err := d.GetPost("nope")
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestDeletePost(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	_, err := d.UpsertPost(ctx, post("gone", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	require.NoError(t, d.DeletePost(ctx, "gone"))

	posts, err := d.GetCollection(db.PostsCollection)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestTidyRemovesOrphans(t *testing.T) {
	dir := t.TempDir()
	d := testDB(t)
	ctx := context.Background()

	keptFile := filepath.Join(dir, "kept.md")
	require.NoError(t, os.WriteFile(keptFile, []byte("x"), 0o644))

	kept := post("kept", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	kept.SourcePath = keptFile
	orphan := post("orphan", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	orphan.SourcePath = filepath.Join(dir, "deleted.md")

	_, err := d.UpsertPost(ctx, kept)
	require.NoError(t, err)
	_, err = d.UpsertPost(ctx, orphan)
	require.NoError(t, err)

	removed, err := d.Tidy(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	posts, err := d.GetCollection(db.PostsCollection)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "kept", posts[0].Slug)
}

func TestGetPostCountPerTime(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	_, err := d.UpsertPost(ctx, post("jan-1", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = d.UpsertPost(ctx, post("jan-2", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	_, err = d.UpsertPost(ctx, post("feb-1", time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	counts, err := d.GetPostCountPerTime("", "month")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(2), counts[0].Count)
	assert.Equal(t, int64(1), counts[1].Count)

	// Category filter
	counts, err = d.GetPostCountPerTime("Rust", "month")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestGetLatestPostTimestamp(t *testing.T) {
	d := testDB(t)
	ctx := context.Background()

	latest, err := d.GetLatestPostTimestamp(ctx)
	require.NoError(t, err)
	assert.True(t, latest.IsZero())

	published := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	_, err = d.UpsertPost(ctx, post("only", published))
	require.NoError(t, err)

	latest, err = d.GetLatestPostTimestamp(ctx)
	require.NoError(t, err)
	assert.Equal(t, published, latest)
}
