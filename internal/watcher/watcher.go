// Package watcher reports changes to the orders file made outside this
// process, such as by the back-office web app. Writes this process reports
// through MarkOwnWrite are not reported back.
package watcher

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeFunc is called once per debounced burst of writes to a watched file
type ChangeFunc func(path string)

// ErrorFunc receives errors reported by the underlying fsnotify watcher
type ErrorFunc func(err error)

// Watcher monitors files for changes and calls back after a quiet period
type Watcher struct {
	watcher  *fsnotify.Watcher
	paths    []string
	debounce time.Duration
	onChange ChangeFunc
	onError  ErrorFunc

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}

	// Debounce tracking
	pendingPath string

	// Content hash of the last write made by this process, per path
	ownWrites map[string][sha256.Size]byte
}

// New creates a new file watcher
func New(debounce time.Duration, onChange ChangeFunc) *Watcher {
	return &Watcher{
		debounce:  debounce,
		onChange:  onChange,
		paths:     make([]string, 0),
		stopCh:    make(chan struct{}),
		ownWrites: make(map[string][sha256.Size]byte),
	}
}

// OnError sets the error callback
func (w *Watcher) OnError(fn ErrorFunc) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// AddPath adds a path to watch
func (w *Watcher) AddPath(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.paths = append(w.paths, absOrSelf(path))

	if w.watcher != nil && w.running {
		_ = w.watcher.Add(filepath.Dir(path))
	}
}

// MarkOwnWrite records content this process is about to write to path. A
// debounced change is dropped while the file still holds exactly that content.
func (w *Watcher) MarkOwnWrite(path string, data []byte) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ownWrites[absOrSelf(path)] = sha256.Sum256(data)
}

// isOwnWrite reports whether the file content matches the last own write
func (w *Watcher) isOwnWrite(path string) bool {
	w.mu.Lock()
	sum, ok := w.ownWrites[path]
	w.mu.Unlock()
	if !ok {
		return false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return sha256.Sum256(data) == sum
}

// Paths returns the watched file paths
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.paths...)
}

// Start begins watching for file changes
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}

	// Watch the parent directory; atomic replaces swap the file's inode
	for _, path := range w.paths {
		if err := fsw.Add(filepath.Dir(path)); err != nil {
			fsw.Close()
			w.mu.Unlock()
			return err
		}
	}

	w.watcher = fsw
	w.running = true
	w.stopCh = make(chan struct{})
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.run(fsw)
	return nil
}

// Stop stops watching and waits for the event loop to exit
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}

	w.running = false
	close(w.stopCh)
	done := w.done
	err := w.watcher.Close()
	w.mu.Unlock()

	<-done
	return err
}

// IsRunning returns whether the watcher is currently active
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) run(fsw *fsnotify.Watcher) {
	defer close(w.done)

	debounceTimer := time.NewTimer(w.debounce)
	debounceTimer.Stop()

	for {
		select {
		case <-w.stopCh:
			debounceTimer.Stop()
			return

		case event, ok := <-fsw.Events:
			if !ok {
				return
			}

			path, watched := w.watchedPath(event.Name)
			if !watched {
				continue
			}

			// Only react to write and create events
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			w.mu.Lock()
			w.pendingPath = path
			w.mu.Unlock()

			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			w.mu.Lock()
			path := w.pendingPath
			w.pendingPath = ""
			w.mu.Unlock()

			if path != "" && w.onChange != nil && !w.isOwnWrite(path) {
				w.onChange(path)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.mu.Lock()
			onError := w.onError
			w.mu.Unlock()
			if onError != nil {
				onError(err)
			}
		}
	}
}

// watchedPath reports whether the event path is one of the watched files
func (w *Watcher) watchedPath(path string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	abs := absOrSelf(path)
	for _, watched := range w.paths {
		if abs == watched {
			return watched, true
		}
	}
	return "", false
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// WatchOrdersFile creates a watcher for a single orders file
func WatchOrdersFile(path string, debounce time.Duration, onChange ChangeFunc) *Watcher {
	w := New(debounce, onChange)
	w.AddPath(path)
	return w
}
