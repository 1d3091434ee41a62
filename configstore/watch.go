package configstore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the store's backing file for external edits and calls
// onChange after each reload. Watch returns once the file watch is
// registered; the event loop runs in a background goroutine until ctx is
// cancelled. Writes made by the store itself are detected by content
// comparison and skipped, so the API mutation path does not
// double-trigger reloads.
//
// If a reload fails (e.g., invalid YAML written by hand), the error is
// logged and the previous in-memory state stays active.
func (s *Store[T]) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// fsnotify loses the watch when an editor replaces the file via
	// rename, so watch the parent directory and filter by path.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		watcher.Close()
		return err
	}

	slog.Info("configstore: watching for external edits", "path", s.path)

	go s.watchLoop(ctx, watcher, onChange)
	return nil
}

func (s *Store[T]) watchLoop(ctx context.Context, watcher *fsnotify.Watcher, onChange func()) {
	defer watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Name != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			data, err := os.ReadFile(s.path)
			if err != nil {
				slog.Error("configstore: read after change failed", "path", s.path, "err", err)
				continue
			}
			if !s.changedSince(data) {
				continue
			}

			if err := s.load(); err != nil {
				slog.Error("configstore: reload failed, keeping previous state",
					"path", s.path, "err", err)
				continue
			}

			slog.Info("configstore: reloaded after external edit", "path", s.path)
			if onChange != nil {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("configstore: watcher error", "err", err)
		}
	}
}
