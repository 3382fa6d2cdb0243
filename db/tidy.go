package db

import (
	"context"
	"os"

	sb "github.com/huandu/go-sqlbuilder"
	log "github.com/sirupsen/logrus"
)

// Tidy removes index rows whose source file no longer exists on disk.
// Keeps the index in sync after posts are deleted or renamed outside of serve.
func Tidy(database string) (int, error) {
	db, err := NewDB(database)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	return db.Tidy(context.Background())
}

func (db *DB) Tidy(ctx context.Context) (int, error) {
	rows, err := db.db.QueryContext(ctx, "SELECT slug, source_path FROM posts")
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var orphans []string
	for rows.Next() {
		var slug, sourcePath string
		if err := rows.Scan(&slug, &sourcePath); err != nil {
			return 0, err
		}
		if sourcePath == "" {
			continue
		}
		if _, err := os.Stat(sourcePath); os.IsNotExist(err) {
			orphans = append(orphans, slug)
		}
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if len(orphans) == 0 {
		return 0, nil
	}

	deletePosts := sb.NewDeleteBuilder()
	deletePosts.DeleteFrom("posts")
	deletePosts.Where(deletePosts.In("slug", sb.Flatten(orphans)...))
	sql, args := deletePosts.BuildWithFlavor(sb.SQLite)

	log.WithFields(log.Fields{
		"orphans": orphans,
	}).Info("Tidying content index")

	if _, err := db.db.ExecContext(ctx, sql, args...); err != nil {
		return 0, err
	}

	return len(orphans), nil
}
