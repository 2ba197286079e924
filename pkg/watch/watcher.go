// Package watch provides directory watching for continuous filtering:
// target files dropped into a watched directory are filtered against a
// preloaded value set as they arrive.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a directory for new or rewritten delimited-text files
// and hands them to a callback once they settle.
type Watcher struct {
	watcher  *fsnotify.Watcher
	seen     map[string]fileState
	mu       sync.Mutex
	debounce time.Duration

	// OnFile is invoked for each settled file.
	OnFile func(path string) error

	// OnError is invoked for watch or callback errors.
	OnError func(path string, err error)
}

type fileState struct {
	modTime time.Time
	size    int64
}

// NewWatcher creates a watcher with the given debounce window.
func NewWatcher(debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	return &Watcher{
		watcher:  fsWatcher,
		seen:     make(map[string]fileState),
		debounce: debounce,
	}, nil
}

// Watch starts watching a directory.
func (w *Watcher) Watch(dir string) error {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	stat, err := os.Stat(abs)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !stat.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	return w.watcher.Add(abs)
}

// Run starts the watch loop. Blocks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	debounceTimers := make(map[string]*time.Timer)
	var timerMu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			w.watcher.Close()
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !isTabularName(event.Name) {
				continue
			}

			absPath, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}

			// Debounce rapid writes while the file is still landing.
			timerMu.Lock()
			if timer, exists := debounceTimers[absPath]; exists {
				timer.Stop()
			}
			debounceTimers[absPath] = time.AfterFunc(w.debounce, func() {
				w.handleFile(absPath)
			})
			timerMu.Unlock()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			if w.OnError != nil {
				w.OnError("", err)
			}
		}
	}
}

func (w *Watcher) handleFile(path string) {
	stat, err := os.Stat(path)
	if err != nil {
		if w.OnError != nil {
			w.OnError(path, err)
		}
		return
	}

	w.mu.Lock()
	prev, known := w.seen[path]
	if known && prev.modTime.Equal(stat.ModTime()) && prev.size == stat.Size() {
		w.mu.Unlock()
		return // no actual change
	}
	w.seen[path] = fileState{modTime: stat.ModTime(), size: stat.Size()}
	w.mu.Unlock()

	if w.OnFile != nil {
		if err := w.OnFile(path); err != nil {
			if w.OnError != nil {
				w.OnError(path, err)
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

// isTabularName reports whether a file name looks like an input the
// loader accepts.
func isTabularName(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range []string{".csv", ".tsv", ".txt", ".xlsx", ".csv.gz", ".tsv.gz", ".txt.gz"} {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
