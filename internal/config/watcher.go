package config

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 1500 * time.Millisecond

// Watcher reloads a configuration file when it changes on disk and hands the
// freshly parsed value to every registered handler.
//
// The parent directory is watched rather than the file, so replacing the
// file by rename is picked up. Bursts of writes are collapsed into one load,
// and a change that leaves the file's bytes identical notifies nobody.
type Watcher[T any] struct {
	path     string
	debounce time.Duration
	loader   func(path string) (T, error)
	onError  func(error)
	logger   *slog.Logger

	mu       sync.Mutex
	handlers map[int]func(T)
	nextID   int
	last     []byte
	pending  *time.Timer
	stopped  bool

	fsw  *fsnotify.Watcher
	done chan struct{}
}

// WatcherOption configures a Watcher.
type WatcherOption[T any] func(*Watcher[T])

// WithDebounce sets how long the file must stay quiet before it is loaded.
func WithDebounce[T any](d time.Duration) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.debounce = d
	}
}

// WithErrorHandler sets a callback for load errors, which are otherwise only logged.
func WithErrorHandler[T any](handler func(error)) WatcherOption[T] {
	return func(w *Watcher[T]) {
		w.onError = handler
	}
}

// NewConfigWatcher creates a watcher for path. loader runs on every change.
func NewConfigWatcher[T any](
	path string,
	loader func(path string) (T, error),
	logger *slog.Logger,
	opts ...WatcherOption[T],
) *Watcher[T] {
	w := &Watcher[T]{
		path:     filepath.Clean(path),
		debounce: defaultDebounce,
		loader:   loader,
		logger:   logger,
		handlers: make(map[int]func(T)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// OnReload registers handler and returns a function that removes it.
func (w *Watcher[T]) OnReload(handler func(T)) func() {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.handlers[id] = handler
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.handlers, id)
		w.mu.Unlock()
	}
}

// Start begins watching. The file's current contents become the baseline
// that later changes are compared against.
func (w *Watcher[T]) Start() error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		fsw.Close()
		return err
	}

	w.mu.Lock()
	w.fsw = fsw
	w.done = make(chan struct{})
	w.last, _ = os.ReadFile(w.path)
	w.mu.Unlock()

	w.logger.Info("Config watcher started", "path", w.path, "debounce", w.debounce)
	go w.run(fsw)
	return nil
}

// Reload loads the file immediately and notifies handlers even if its
// contents did not change. The daemon calls it on SIGHUP.
func (w *Watcher[T]) Reload() {
	data, _ := os.ReadFile(w.path)
	w.mu.Lock()
	w.last = data
	w.mu.Unlock()
	w.load()
}

// Stop ends watching. No new reload starts after Stop returns.
func (w *Watcher[T]) Stop() error {
	w.mu.Lock()
	w.stopped = true
	if w.pending != nil {
		w.pending.Stop()
	}
	fsw, done := w.fsw, w.done
	w.mu.Unlock()

	if fsw == nil {
		return nil
	}
	err := fsw.Close()
	<-done
	return err
}

func (w *Watcher[T]) run(fsw *fsnotify.Watcher) {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-fsw.Events:
			if !ok {
				w.logger.Debug("Config watcher stopped")
				return
			}
			if filepath.Clean(ev.Name) != w.path || !(ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)) {
				continue
			}
			w.logger.Debug("Config file event", "op", ev.Op.String())
			w.arm()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Config watcher error", "error", err)
		}
	}
}

// arm restarts the debounce timer.
func (w *Watcher[T]) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.pending != nil {
		w.pending.Stop()
	}
	w.pending = time.AfterFunc(w.debounce, w.settled)
}

// settled runs once writes have stopped for the debounce period.
func (w *Watcher[T]) settled() {
	data, err := os.ReadFile(w.path)
	if errors.Is(err, os.ErrNotExist) {
		// Mid-rename; the Create that follows re-arms.
		return
	}

	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	if err == nil && bytes.Equal(data, w.last) {
		w.mu.Unlock()
		w.logger.Debug("Config file unchanged, skipping reload")
		return
	}
	w.last = data
	w.mu.Unlock()

	w.logger.Info("Config file changed, reloading")
	w.load()
}

func (w *Watcher[T]) load() {
	cfg, err := w.loader(w.path)
	if err != nil {
		w.logger.Warn("Failed to load config", "error", err)
		if w.onError != nil {
			w.onError(err)
		}
		return
	}

	w.mu.Lock()
	handlers := make([]func(T), 0, len(w.handlers))
	for id := 0; id < w.nextID; id++ {
		if h, ok := w.handlers[id]; ok {
			handlers = append(handlers, h)
		}
	}
	w.mu.Unlock()

	for _, h := range handlers {
		h(cfg)
	}
}
