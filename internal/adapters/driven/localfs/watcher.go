package localfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docflow/internal/core/domain"
	"github.com/custodia-labs/docflow/internal/logger"
)

// SubmitFunc receives each debounced batch of new or changed files.
type SubmitFunc func(ctx context.Context, files []domain.FileUpload)

// Watcher submits supported files created or written in a directory. Events
// are collected until the directory has been quiet for the debounce period,
// so a file copied in several writes is submitted once.
type Watcher struct {
	dir      string
	debounce time.Duration
	submit   SubmitFunc
}

// NewWatcher creates a watcher for dir. A non-positive debounce uses 500ms.
func NewWatcher(dir string, debounce time.Duration, submit SubmitFunc) *Watcher {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Watcher{dir: dir, debounce: debounce, submit: submit}
}

// Run watches until ctx is cancelled. Files already in the directory are
// not submitted.
func (w *Watcher) Run(ctx context.Context) error {
	if w.submit == nil {
		return errors.New("watcher: submit function is required")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	logger.Debug("watching %s (debounce %s)", w.dir, w.debounce)

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			logger.Debug("watch event %s %s", event.Op, event.Name)
			pending[event.Name] = struct{}{}
			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch %s: %v", w.dir, err)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			files := w.load(pending)
			pending = make(map[string]struct{})
			if len(files) > 0 {
				w.submit(ctx, files)
			}
		}
	}
}

// load reads the pending paths in name order. Files that vanished since
// their event (editor swap files, partial downloads) are skipped.
func (w *Watcher) load(pending map[string]struct{}) []domain.FileUpload {
	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]domain.FileUpload, 0, len(paths))
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			logger.Debug("skipping %s: no longer a file", path)
			continue
		}
		file, err := LoadFile(path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			continue
		}
		files = append(files, file)
	}
	return files
}

// relevant reports whether event is a create or write of a supported,
// non-hidden file.
func relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return false
	}
	name := filepath.Base(event.Name)
	return !isHidden(name) && Supported(name)
}
