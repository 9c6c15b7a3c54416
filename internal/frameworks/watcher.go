package frameworks

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounce is how long the watcher waits after the last file event before
// re-importing.
const debounce = 200 * time.Millisecond

// Watch starts an fsnotify watcher on dir and re-imports it after changes
// settle, until ctx is cancelled. An initial import runs first.
//
// New directories created at runtime are added to the watch list. Renames and
// removals are handled by the re-import pass, which soft-deletes frameworks
// whose file is gone.
func (s *Service) Watch(ctx context.Context, dir string, logger *slog.Logger, onImport func(ImportReport)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, dir); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("dir", dir))

	run := func() {
		rep, err := s.ImportDir(ctx, dir)
		if err != nil {
			if ctx.Err() == nil {
				logger.Warn("watcher: import failed", slog.String("error", err.Error()))
			}
			return
		}
		if onImport != nil && rep.changed() {
			onImport(rep)
		}
	}
	run()

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
			return
		}
		timer.Reset(debounce)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-fire:
			timer, fire = nil, nil
			run()

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") || ev.Op == fsnotify.Chmod {
				continue
			}
			logger.Debug("watcher: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
