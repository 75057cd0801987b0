package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay waits for writes to settle before reacting to a change.
const settleDelay = 100 * time.Millisecond

// watchFiles calls onChange after any of paths is written or replaced.
// It watches the parent directories, since editors and secret managers
// often replace a file by renaming a new one over it. It returns once the
// watch is set up; the watch ends when ctx is done.
func watchFiles(ctx context.Context, logger *slog.Logger, paths []string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}

	watched := make(map[string]bool, len(paths))
	dirs := make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			watcher.Close()
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		watched[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			watcher.Close()
			return fmt.Errorf("watching %s: %w", dir, err)
		}
		dirs[dir] = true
	}

	go func() {
		defer watcher.Close()

		var settle <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !watched[filepath.Clean(event.Name)] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					settle = time.After(settleDelay)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("file watcher error", "error", err)
			case <-settle:
				settle = nil
				onChange()
			}
		}
	}()
	return nil
}
