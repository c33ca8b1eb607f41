// Package watch triggers full rebuilds whenever the input data directory
// changes. Each trigger runs a complete build; there is no incremental
// path.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/stacbuilder/internal/logfields"
)

// debounce coalesces editor write bursts into one rebuild.
const debounce = 500 * time.Millisecond

// Run watches dir (recursively) and invokes rebuild after each settled
// change burst. It blocks until ctx is canceled. The first rebuild is
// triggered immediately so the output exists before the first change.
func Run(ctx context.Context, dir string, rebuild func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addRecursive(watcher, dir); err != nil {
		return err
	}
	slog.Info("Watching data directory", logfields.Path(dir))

	rebuild()

	var timer *time.Timer
	fire := make(chan struct{}, 1)
	schedule := func() {
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(debounce, func() {
			select {
			case fire <- struct{}{}:
			default:
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			slog.Debug("Input change detected", logfields.Path(event.Name), slog.String("op", event.Op.String()))
			// New subdirectories need their own watch.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = addRecursive(watcher, event.Name)
				}
			}
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		case <-fire:
			slog.Info("Input changed, rebuilding")
			rebuild()
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
