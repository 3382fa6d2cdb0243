package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"bloggen/db"
	"bloggen/models"
	"bloggen/render"

	lingua "github.com/pemistahl/lingua-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

var (
	postsIndexed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bloggen_posts_indexed_total",
		Help: "Total number of posts written to the content index",
	})
	indexErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bloggen_index_errors_total",
		Help: "Total number of posts that failed to index",
	})
)

// Indexer loads Markdown posts from a directory into the content index
type Indexer struct {
	dir       string
	db        *db.DB
	postChan  chan interface{}
	detector  lingua.LanguageDetector
	supported map[lingua.Language]string
}

// NewIndexer returns an indexer for the given content directory.
// Indexed posts are announced on postChan if it is non-nil.
func NewIndexer(dir string, database *db.DB, postChan chan interface{}) *Indexer {
	return &Indexer{
		dir:       dir,
		db:        database,
		postChan:  postChan,
		detector:  NewLanguageDetector(),
		supported: getSupportedLanguages(),
	}
}

// IndexAll walks the content directory and indexes every Markdown file.
// Returns the number of posts indexed. Files that fail to parse are
// logged and skipped so one bad post does not take the site down.
func (ix *Indexer) IndexAll(ctx context.Context) (int, error) {
	count := 0
	err := filepath.WalkDir(ix.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		if _, err := ix.IndexFile(ctx, path); err != nil {
			indexErrors.Inc()
			log.WithFields(log.Fields{
				"path":  path,
				"error": err,
			}).Error("Failed to index post")
			return nil
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("error walking content directory: %w", err)
	}

	return count, nil
}

// IndexFile loads, renders and indexes a single post file
func (ix *Indexer) IndexFile(ctx context.Context, path string) (*models.Post, error) {
	post, body, err := LoadFile(path)
	if err != nil {
		return nil, err
	}

	html, err := render.Markdown(body)
	if err != nil {
		return nil, err
	}
	post.HTML = html

	post.Language = detectLanguage(ix.detector, ix.supported, string(body))

	id, err := ix.db.UpsertPost(ctx, *post)
	if err != nil {
		return nil, err
	}
	post.Id = id
	postsIndexed.Inc()

	if ix.postChan != nil {
		ix.postChan <- models.PostIndexedEvent{Post: *post}
	}

	return post, nil
}

// Remove deletes the index row for a post file that disappeared
func (ix *Indexer) Remove(ctx context.Context, path string) error {
	slug := Slug(path)
	if err := ix.db.DeletePost(ctx, slug); err != nil {
		return err
	}
	if ix.postChan != nil {
		ix.postChan <- models.PostRemovedEvent{Post: models.Post{Slug: slug, SourcePath: path}}
	}
	return nil
}

// LoadFile parses a post file into a record plus its Markdown body
func LoadFile(path string) (*models.Post, []byte, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("error reading post file: %w", err)
	}

	fm, body, err := SplitFrontmatter(src)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return &models.Post{
		Slug:        Slug(path),
		Title:       fm.Title,
		Description: fm.Description,
		Category:    fm.Category,
		Tags:        fm.Tags,
		Published:   fm.Published.UTC(),
		Draft:       fm.Draft,
		SourcePath:  abs,
	}, body, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the post's stable identifier from its filename
func Slug(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	slug := slugUnsafe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
