package source

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	appLog "whatweek/internal/log"
)

// Watcher reloads the store whenever the snapshot file changes. The
// file's directory is watched rather than the file itself, so atomic
// temp-and-rename writers keep being seen after they replace the inode.
type Watcher struct {
	path  string
	store *Store

	// Delay coalesces event bursts from editors and renames into one
	// reload. Zero means 200ms.
	Delay time.Duration
}

// NewWatcher watches path and reloads store on change.
func NewWatcher(path string, store *Store) *Watcher {
	return &Watcher{path: path, store: store}
}

func (w *Watcher) delay() time.Duration {
	if w.Delay > 0 {
		return w.Delay
	}
	return 200 * time.Millisecond
}

// Run blocks until ctx is done, reloading after each debounced change to
// the watched file. Reload failures are logged and the previous snapshot
// stays live.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}
	base := filepath.Base(w.path)

	appLog.Info("watching calendar snapshot", "path", w.path)

	var pending time.Time
	ticker := time.NewTicker(w.delay())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				pending = time.Now()
			}

		case <-ticker.C:
			if pending.IsZero() || time.Since(pending) < w.delay() {
				continue
			}
			pending = time.Time{}
			if err := w.store.Reload(ctx); err != nil {
				appLog.Error("snapshot reload failed", err, "path", w.path)
			} else {
				appLog.Info("snapshot reloaded", "path", w.path)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			appLog.Error("snapshot watch error", err, "path", w.path)
		}
	}
}
