package persist

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/fakeyudi/timerdeck/internal/storage"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// ErrWatchUnsupported is returned by Watch for stores that are not files.
var ErrWatchUnsupported = errors.New("store cannot be watched")

// Watch calls fn with the freshly loaded snapshot every time another process
// rewrites the store, until ctx is cancelled. It only reads.
func (b *Bridge) Watch(ctx context.Context, fn func(timer.Snapshot)) error {
	loc, ok := b.kv.(storage.Locator)
	if !ok {
		return ErrWatchUnsupported
	}
	path := loc.Location(SnapshotKey)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory: atomic renames replace the file itself.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	base := filepath.Base(path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Base(event.Name)
			if !strings.HasPrefix(name, base) || strings.HasSuffix(name, ".tmp") {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				if snap, ok := b.Load(); ok {
					fn(snap)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
			b.log.Debug("store watcher error", "err", err)
		}
	}
}
