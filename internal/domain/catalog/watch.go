package catalog

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// reloadDelay coalesces package-manager bursts into one rescan.
const reloadDelay = 250 * time.Millisecond

// Watcher calls a reload hook whenever descriptor directories change.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	onChange  func()
	log       *zap.Logger
	done      chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// NewWatcher watches dirs and every directory below them. onChange runs on
// the watcher goroutine; callers post it to their own loop.
func NewWatcher(dirs []string, onChange func(), log *zap.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{
		fsWatcher: fsWatcher,
		onChange:  onChange,
		log:       log,
		done:      make(chan struct{}),
	}

	for _, dir := range dirs {
		w.addTree(dir)
	}
	return w, nil
}

// Start begins processing events.
func (w *Watcher) Start() {
	go w.processEvents()
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
	_ = w.fsWatcher.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) addTree(root string) {
	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if err := w.fsWatcher.Add(p); err != nil {
			w.log.Warn("failed to watch descriptor directory", zap.String("dir", p), zap.Error(err))
		}
		return nil
	})
	if err != nil {
		w.log.Warn("failed to walk descriptor directory", zap.String("dir", root), zap.Error(err))
	}
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("descriptor watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(event.Name)
		}
	}

	w.log.Debug("descriptor change", zap.String("path", event.Name), zap.Stringer("op", event.Op))
	w.debounce()
}

func (w *Watcher) debounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(reloadDelay, func() {
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}
		w.onChange()
	})
}
