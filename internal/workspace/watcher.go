package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a Resource in sync with its workspace directory.
type Watcher struct {
	root     string
	resource *Resource
	loader   *Loader
	watcher  *fsnotify.Watcher

	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once

	mu       sync.Mutex
	watching bool
}

// NewWatcher creates a watcher for root. Start must be called to begin watching.
func NewWatcher(root string, resource *Resource, loader *Loader) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		root:     root,
		resource: resource,
		loader:   loader,
		watcher:  watcher,
		done:     make(chan struct{}),
	}, nil
}

// Start watches every non-excluded directory under root and processes
// events on a background goroutine until ctx ends or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watching {
		return nil
	}

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	w.watching = true

	w.wg.Add(1)
	go w.processEvents(ctx)
	return nil
}

// Stop ends watching and waits for the event goroutine to exit. It is idempotent.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)
		err = w.watcher.Close()
		w.wg.Wait()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
	return err
}

// IsWatching reports whether the watcher has been started and not stopped.
func (w *Watcher) IsWatching() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watching
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Ignore errors, continue walking
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok && rel != "." && w.loader.Filter().ShouldExcludeDir(rel) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("Workspace watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	rel, ok := w.relative(event.Name)
	if !ok || rel == "." {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.remove(rel)
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		w.load(event.Name, rel, event.Has(fsnotify.Create))
	}
}

func (w *Watcher) remove(rel string) {
	removed := 0
	if w.resource.RemoveSource(rel) {
		removed++
	}
	removed += w.resource.RemoveSourcesUnder(rel)
	if removed > 0 {
		slog.Debug("Removed workspace entries", "path", rel, "count", removed)
	}
}

func (w *Watcher) load(path, rel string, created bool) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.remove(rel)
		}
		return
	}

	if info.IsDir() {
		if !created || w.loader.Filter().ShouldExcludeDir(rel) {
			return
		}
		if err := w.addRecursive(path); err != nil {
			slog.Warn("Failed to watch directory", "path", rel, "error", err)
		}
		w.loadTree(path)
		return
	}

	changed, err := w.loader.LoadFile(w.root, rel, w.resource)
	if err != nil {
		slog.Warn("Failed to reload workspace file", "path", rel, "error", err)
		return
	}
	if changed {
		slog.Debug("Reloaded workspace file", "path", rel)
	}
}

// loadTree loads files already present in a directory that appeared after
// watching began.
func (w *Watcher) loadTree(dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, ok := w.relative(path); ok {
			if _, err := w.loader.LoadFile(w.root, rel, w.resource); err != nil {
				slog.Warn("Failed to load workspace file", "path", rel, "error", err)
			}
		}
		return nil
	})
}

func (w *Watcher) relative(path string) (string, bool) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return "", false
	}
	return filepath.ToSlash(rel), true
}
