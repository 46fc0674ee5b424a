package inference

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"moodscope/internal/artifact"
	"moodscope/internal/logging"
)

// Watch invalidates the loader whenever a new metadata file lands in the
// artifact directory, so a long-running serving process picks up retrained
// models without a restart. It blocks until ctx is done.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(l.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}
	logging.Inference("Watching %s for model updates", l.dir)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Metadata is written last during Save, so its arrival marks a
			// complete bundle.
			if filepath.Base(event.Name) != artifact.MetadataFile {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			logging.Inference("Model artifact changed (%s), reloading on next request", event.Op)
			l.Invalidate()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.InferenceError("Watcher error: %v", err)
		}
	}
}
