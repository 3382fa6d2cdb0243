package db

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"bloggen/models"

	sqlbuilder "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Collection names known to the content index. The blog only has one.
const PostsCollection = "posts"

// DB handles all content index operations with a shared connection pool
type DB struct {
	db *sql.DB
}

func NewDB(database string) (*DB, error) {
	db, err := connection(database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Write operations

// UpsertPost writes a post and its tags and languages to the index.
// Posts are keyed by slug so re-indexing the same file is idempotent.
func (db *DB) UpsertPost(ctx context.Context, post models.Post) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"slug":      post.Slug,
		"category":  post.Category,
		"published": post.Published.Format(time.RFC3339),
		"draft":     post.Draft,
	}).Info("Indexing post")

	_, err := db.db.ExecContext(ctx, `
		INSERT INTO posts (slug, title, description, category, published, indexed_at, draft, content_html, source_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (slug) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			category = excluded.category,
			published = excluded.published,
			indexed_at = excluded.indexed_at,
			draft = excluded.draft,
			content_html = excluded.content_html,
			source_path = excluded.source_path`,
		post.Slug,
		post.Title,
		post.Description,
		post.Category,
		post.Published.Unix(),
		time.Now().Unix(),
		boolToInt(post.Draft),
		post.HTML,
		post.SourcePath,
	)
	if err != nil {
		return 0, fmt.Errorf("insert error: %w", err)
	}

	var id int64
	if err := db.db.QueryRowContext(ctx, "SELECT id FROM posts WHERE slug = ?", post.Slug).Scan(&id); err != nil {
		return 0, fmt.Errorf("id lookup error: %w", err)
	}

	// Replace tags and languages wholesale, order carried by position
	if _, err := db.db.ExecContext(ctx, "DELETE FROM post_tags WHERE post_id = ?", id); err != nil {
		return 0, fmt.Errorf("tag delete error: %w", err)
	}
	if len(post.Tags) > 0 {
		insertTags := sqlbuilder.NewInsertBuilder()
		insertTags.InsertInto("post_tags").Cols("post_id", "position", "tag")
		for i, tag := range post.Tags {
			insertTags.Values(id, i, tag)
		}
		sql, args := insertTags.Build()
		if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
			return 0, fmt.Errorf("tag insert error: %w", err)
		}
	}

	if _, err := db.db.ExecContext(ctx, "DELETE FROM post_languages WHERE post_id = ?", id); err != nil {
		return 0, fmt.Errorf("language delete error: %w", err)
	}
	if post.Language != "" {
		insertLangs := sqlbuilder.NewInsertBuilder()
		insertLangs.InsertInto("post_languages").Cols("post_id", "language").Values(id, post.Language)
		sql, args := insertLangs.Build()
		if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
			return 0, fmt.Errorf("language insert error: %w", err)
		}
	}

	return id, nil
}

func (db *DB) DeletePost(ctx context.Context, slug string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	log.WithFields(log.Fields{
		"slug": slug,
	}).Info("Deleting post")
	_, err := db.db.ExecContext(ctx, "DELETE FROM posts WHERE slug = ?", slug)
	if err != nil {
		return fmt.Errorf("delete error: %w", err)
	}
	return nil
}

// Read operations

// GetCollection returns the ordered records of a named content collection.
// Drafts are excluded. Order is newest first, ties broken by insert order.
func (db *DB) GetCollection(name string) ([]models.Post, error) {
	if name != PostsCollection {
		return nil, fmt.Errorf("unknown collection: %s", name)
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "slug", "title", "description", "category", "published", "content_html", "source_path").
		From("posts")
	sb.Where(sb.Equal("draft", 0))
	sb.OrderBy("published DESC", "id DESC")

	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := db.db.Query(sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var post models.Post
		var published int64
		if err := rows.Scan(&post.Id, &post.Slug, &post.Title, &post.Description, &post.Category, &published, &post.HTML, &post.SourcePath); err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		post.Published = time.Unix(published, 0).UTC()
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	if err := db.attachTags(posts); err != nil {
		return nil, err
	}
	if err := db.attachLanguages(posts); err != nil {
		return nil, err
	}

	return posts, nil
}

// GetPost returns a single post by slug, drafts included
func (db *DB) GetPost(slug string) (*models.Post, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("id", "slug", "title", "description", "category", "published", "content_html", "source_path").
		From("posts")
	sb.Where(sb.Equal("slug", slug))

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var post models.Post
	var published int64
	err := db.db.QueryRow(query, args...).
		Scan(&post.Id, &post.Slug, &post.Title, &post.Description, &post.Category, &published, &post.HTML, &post.SourcePath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query error: %w", err)
	}
	post.Published = time.Unix(published, 0).UTC()

	posts := []models.Post{post}
	if err := db.attachTags(posts); err != nil {
		return nil, err
	}
	if err := db.attachLanguages(posts); err != nil {
		return nil, err
	}

	return &posts[0], nil
}

func (db *DB) attachTags(posts []models.Post) error {
	byId := make(map[int64]*models.Post, len(posts))
	for i := range posts {
		byId[posts[i].Id] = &posts[i]
	}

	rows, err := db.db.Query("SELECT post_id, tag FROM post_tags ORDER BY post_id, position")
	if err != nil {
		return fmt.Errorf("tag query error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postId int64
		var tag string
		if err := rows.Scan(&postId, &tag); err != nil {
			return fmt.Errorf("tag scan error: %w", err)
		}
		if post, ok := byId[postId]; ok {
			post.Tags = append(post.Tags, tag)
		}
	}
	return rows.Err()
}

func (db *DB) attachLanguages(posts []models.Post) error {
	byId := make(map[int64]*models.Post, len(posts))
	for i := range posts {
		byId[posts[i].Id] = &posts[i]
	}

	rows, err := db.db.Query("SELECT post_id, language FROM post_languages")
	if err != nil {
		return fmt.Errorf("language query error: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var postId int64
		var language string
		if err := rows.Scan(&postId, &language); err != nil {
			return fmt.Errorf("language scan error: %w", err)
		}
		if post, ok := byId[postId]; ok {
			post.Language = language
		}
	}
	return rows.Err()
}

// Returns the number of published posts aggregated per time bucket
func (db *DB) GetPostCountPerTime(category string, timeAgg string) ([]models.PostsAggregatedByTime, error) {
	var sqlFormat string
	var timeParse func(string) (time.Time, error)

	switch timeAgg {
	case "month":
		sqlFormat = `STRFTIME('%Y-%m', published, 'unixepoch')`
		timeParse = func(str string) (time.Time, error) {
			return time.Parse("2006-01", str)
		}
	case "year":
		sqlFormat = `STRFTIME('%Y', published, 'unixepoch')`
		timeParse = func(str string) (time.Time, error) {
			return time.Parse("2006", str)
		}
	case "week":
		sqlFormat = "STRFTIME('%Y-%W', published, 'unixepoch')"
		timeParse = func(str string) (time.Time, error) {
			// Manually parse year and week number as separate integers
			year, err := time.Parse("2006", str[:4])
			if err != nil {
				return time.Time{}, err
			}
			week, err := strconv.ParseInt(str[5:], 10, 64)
			if err != nil {
				return time.Time{}, err
			}

			_, weekOffset := year.ISOWeek()
			weekOffset = weekOffset - 1
			firstDay := year.AddDate(0, 0, -int(year.Weekday())+weekOffset*7)

			return firstDay.AddDate(0, 0, int(week)*7), nil
		}
	default:
		sqlFormat = `STRFTIME('%Y-%m', published, 'unixepoch')`
		timeParse = func(str string) (time.Time, error) {
			return time.Parse("2006-01", str)
		}
	}

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(sqlFormat, "count(*) as count").From("posts")
	sb.Where(sb.Equal("draft", 0))
	if category != "" {
		sb.Where(sb.Equal("category", category))
	}
	sb.GroupBy(sqlFormat)
	sb.OrderBy("published").Asc()

	sql, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := db.db.Query(sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var postCounts []models.PostsAggregatedByTime
	for rows.Next() {
		var sqlTime string
		var postCount models.PostsAggregatedByTime

		if err := rows.Scan(&sqlTime, &postCount.Count); err != nil {
			continue // Skip this row
		}

		postTime, err := timeParse(sqlTime)
		if err == nil {
			postCount.Time = postTime
		}
		postCounts = append(postCounts, postCount)
	}

	return postCounts, rows.Err()
}

func (db *DB) GetLatestPostTimestamp(ctx context.Context) (time.Time, error) {
	var timestamp int64
	err := db.db.QueryRowContext(ctx, "SELECT published FROM posts WHERE draft = 0 ORDER BY published DESC LIMIT 1").Scan(&timestamp)
	if err == sql.ErrNoRows {
		return time.Time{}, nil // Return zero time if no posts
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("query error: %w", err)
	}
	return time.Unix(timestamp, 0).UTC(), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
