package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/LegacyCodeHQ/kettle/buildgraph"
	"github.com/LegacyCodeHQ/kettle/logging"
	"github.com/LegacyCodeHQ/kettle/manifest"
)

const debounceInterval = 300 * time.Millisecond

var skippedDirs = map[string]bool{
	".git":    true,
	".idea":   true,
	".vscode": true,
}

var sourcePatterns = mustCompile(buildgraph.DefaultPatterns)

func mustCompile(exprs []string) []*regexp.Regexp {
	patterns, err := buildgraph.CompilePatterns(exprs)
	if err != nil {
		panic(err)
	}
	return patterns
}

// watcher rebuilds after relevant changes below root settle for debounceInterval.
type watcher struct {
	root     string
	excluded map[string]bool
	rebuild  func()
}

func (w *watcher) run(ctx context.Context) error {
	logger := logging.FromContext(ctx)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addWatchDirs(fsw.Add, w.root); err != nil {
		return fmt.Errorf("failed to watch directories: %w", err)
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				w.addIfDirectory(fsw.Add, event.Name)
			}
			if !isRelevantChange(event) {
				continue
			}
			logger.Debug("Change detected", "path", event.Name, "op", event.Op)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, w.rebuild)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error", "err", err)
		}
	}
}

func isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(event.Name)
	if name == manifest.RootFile || name == manifest.PackageFile {
		return true
	}
	for _, re := range sourcePatterns {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

func (w *watcher) addWatchDirs(add func(string) error, root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (skippedDirs[d.Name()] || w.excluded[path]) {
			return filepath.SkipDir
		}
		if err := add(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		return nil
	})
}

func (w *watcher) addIfDirectory(add func(string) error, path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		_ = w.addWatchDirs(add, path)
	}
}
