package content

import (
	"context"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch re-indexes post files as they change on disk. Blocks until the
// context is cancelled. Used by serve so edits show up without a restart.
func (ix *Indexer) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(ix.dir); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"dir": ix.dir,
	}).Info("Watching content directory")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.HasSuffix(event.Name, ".md") {
				continue
			}

			switch {
			case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
				// Editors fire rapid Create/Write pairs; the upsert makes
				// reprocessing the same file harmless
				if _, err := os.Stat(event.Name); err != nil {
					continue
				}
				if _, err := ix.IndexFile(ctx, event.Name); err != nil {
					log.WithFields(log.Fields{
						"path":  event.Name,
						"error": err,
					}).Error("Failed to re-index changed post")
				}

			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				if err := ix.Remove(ctx, event.Name); err != nil {
					log.WithFields(log.Fields{
						"path":  event.Name,
						"error": err,
					}).Error("Failed to remove deleted post from index")
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Error("Watcher error", err)
		}
	}
}
