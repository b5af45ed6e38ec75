package engine

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/docgraph/internal/checksum"
)

// DefaultDebounce is the quiet period after the last change before a re-lint.
const DefaultDebounce = 200 * time.Millisecond

// Callback receives the outcome of each watcher-driven run.
type Callback func(res *Result, err error)

// Watch starts an fsnotify watcher on the root and re-runs the engine after
// files under it change. Bursts of events are
// debounced into one run. It returns when ctx is cancelled.
//
// New directories created at runtime are added to the watch list.
func (e *Engine) Watch(ctx context.Context, debounce time.Duration, cb Callback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	root, err := filepath.Abs(e.opts.Root)
	if err != nil {
		return err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	e.logger.Info("watcher: started", slog.String("root", root))

	// Last seen content digest per file; writes that leave it unchanged
	// do not trigger a run.
	sums := make(map[string]string)

	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			fire = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			e.logger.Info("watcher: stopped")
			return nil

		case <-fire:
			res, runErr := e.Run(ctx)
			if runErr != nil {
				e.logger.Warn("watcher: lint failed", slog.String("error", runErr.Error()))
			}
			if cb != nil {
				cb(res, runErr)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						e.logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					} else {
						e.logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
					}
					schedule()
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !e.relevant(relPath(root, ev.Name), ev.Op) {
				continue
			}
			if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				delete(sums, ev.Name)
			} else if sum, sumErr := checksum.File(ev.Name); sumErr == nil {
				if sums[ev.Name] == sum {
					continue
				}
				sums[ev.Name] = sum
			}
			e.logger.Debug("watcher: change",
				slog.String("path", ev.Name),
				slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			e.logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevant reports whether a change to rel (root-relative) can alter the
// lint result. Creating, removing or renaming any file can turn a link dead
// or live again; content writes matter only for documents and ignore files.
func (e *Engine) relevant(rel string, op fsnotify.Op) bool {
	if slices.Contains(strings.Split(filepath.ToSlash(rel), "/"), ".git") {
		return false
	}
	if op&(fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		return true
	}
	ext := e.opts.Extension
	if ext == "" {
		ext = ".md"
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.EqualFold(filepath.Ext(rel), ext) {
		return true
	}
	return slices.Contains(e.opts.IgnoreFiles, filepath.Base(rel))
}

func relPath(root, p string) string {
	if rel, err := filepath.Rel(root, p); err == nil {
		return rel
	}
	return p
}

// addDirsRecursive adds root and all its subdirectories to the watcher,
// skipping .git.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" && path != root {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
