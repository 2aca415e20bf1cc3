// Package watch monitors a page tree and triggers rebuilds once a burst of
// file changes has settled.
package watch

import (
	"context"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config describes what to watch and what to do about it.
type Config struct {
	// Root is the directory tree to watch.
	Root string
	// Debounce is how long changes must settle before OnChange fires.
	Debounce time.Duration
	// OnChange receives the sorted batch of settled page paths.
	OnChange func(paths []string)
}

// Watcher watches a page tree recursively. fsnotify does not descend into
// subdirectories on its own, so every directory is added individually and
// newly created directories are picked up from create events.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	cfg         Config
	debounceMap map[string]time.Time
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// New creates a Watcher for the given config. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	if cfg.Debounce <= 0 {
		cfg.Debounce = 300 * time.Millisecond
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher:     watcher,
		cfg:         cfg,
		debounceMap: make(map[string]time.Time),
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start adds the root tree to the watcher and launches the event loop.
// This method is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil // Already running
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addTree(w.cfg.Root); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		w.watcher.Close()
		return err
	}

	go w.run(ctx)

	return nil
}

// Stop stops the watcher and waits for the event loop to drain.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		log.Printf("watch: error closing watcher: %v", err)
	}
}

// WatchedDirs returns the directories currently being watched.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}

// addTree registers every directory under root with the watcher.
func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
}

// run is the main event loop for the watcher.
func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	// The ticker drives debounce processing; a quarter of the window keeps
	// latency low without busy-polling.
	tick := w.cfg.Debounce / 4
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	debounceTicker := time.NewTicker(tick)
	defer debounceTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("watch: %v", err)

		case <-debounceTicker.C:
			w.processDebounced()
		}
	}
}

// handleEvent processes a single filesystem event.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	// New directories need their own watch entry for the recursive tree.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				log.Printf("watch: failed to add %s: %v", event.Name, err)
			}
			return
		}
	}

	// Only care about page files
	if !strings.HasSuffix(event.Name, ".html") {
		return
	}

	switch {
	case event.Op&fsnotify.Create != 0:
	case event.Op&fsnotify.Write != 0:
	case event.Op&fsnotify.Remove != 0:
	case event.Op&fsnotify.Rename != 0:
	default:
		return // Ignore chmod, etc.
	}

	// Debounce: record the event for later processing
	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

// processDebounced fires OnChange with every path that has settled past the
// debounce window. Paths still changing stay queued for the next tick.
func (w *Watcher) processDebounced() {
	w.mu.Lock()
	now := time.Now()
	settled := make([]string, 0, len(w.debounceMap))

	for path, eventTime := range w.debounceMap {
		if now.Sub(eventTime) >= w.cfg.Debounce {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	if len(settled) == 0 {
		return
	}

	sort.Strings(settled)
	if w.cfg.OnChange != nil {
		w.cfg.OnChange(settled)
	}
}
