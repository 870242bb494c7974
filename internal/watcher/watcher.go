// Package watcher notifies the engine when the instruction file changes.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tmux-monitor/internal/fault"
)

// debounceWindow coalesces the write bursts editors produce on save.
const debounceWindow = 500 * time.Millisecond

// FileWatcher watches a single file through its parent directory, which
// survives the rename-over-save pattern most editors use.
type FileWatcher struct {
	path     string
	onChange func(path string)

	fsw  *fsnotify.Watcher
	done chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher for path. onChange runs after writes settle.
func New(path string, onChange func(path string)) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fault.Wrap(fault.InvalidInput, err, "resolve %s", path)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fault.Wrap(fault.UnexpectedError, err, "create file watcher")
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fault.Wrap(fault.RepositoryError, err, "watch %s", filepath.Dir(abs))
	}

	w := &FileWatcher{
		path:     abs,
		onChange: onChange,
		fsw:      fsw,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *FileWatcher) loop() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *FileWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(debounceWindow, func() {
		w.onChange(w.path)
	})
}

// Close stops the watcher and cancels any pending notification.
func (w *FileWatcher) Close() error {
	close(w.done)
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
	return w.fsw.Close()
}
