package notify

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of writes SQLite makes per commit.
const DefaultDebounce = 100 * time.Millisecond

const changeOps = fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename

// FileWatcher turns writes to a database file by other processes into
// External StorageChanged events on a Bus. It is the native counterpart
// of the browser's cross-tab storage event.
type FileWatcher struct {
	path     string
	debounce time.Duration
	bus      *Bus
	logger   *zap.Logger

	watcher *fsnotify.Watcher

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewFileWatcher watches the directory holding path. SQLite also touches
// "-wal" and "-journal" siblings, which count as changes to path.
func NewFileWatcher(path string, bus *Bus, logger *zap.Logger) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &FileWatcher{
		path:     abs,
		debounce: DefaultDebounce,
		bus:      bus,
		logger:   logger,
		watcher:  w,
	}, nil
}

// SetDebounce changes the coalescing interval. Call before Run.
func (w *FileWatcher) SetDebounce(d time.Duration) { w.debounce = d }

// Run processes file events until ctx is done or the watcher is closed.
func (w *FileWatcher) Run(ctx context.Context) error {
	defer w.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.matches(ev.Name) && ev.Op&changeOps != 0 {
				w.schedule()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

// Close releases the underlying fsnotify watcher and ends Run.
func (w *FileWatcher) Close() error {
	w.stop()
	return w.watcher.Close()
}

func (w *FileWatcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == w.path || strings.HasPrefix(abs, w.path+"-")
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *FileWatcher) fire() {
	w.mu.Lock()
	stopped := w.stopped
	w.timer = nil
	w.mu.Unlock()

	if stopped {
		return
	}
	w.logger.Debug("external change", zap.String("path", w.path))
	w.bus.Publish(Event{Signal: StorageChanged, Source: External})
}

func (w *FileWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
