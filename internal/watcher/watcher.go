// Package watcher reports settled changes to individual files, such as the
// content catalog, using fsnotify.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors a set of files for changes.
//
// Files are watched through their parent directory so that atomic
// replace-by-rename is observed as well as in-place writes.
type Watcher struct {
	logger *slog.Logger
	opts   Options
	fs     *fsnotify.Watcher

	mu      sync.Mutex
	targets map[string]bool          // path -> existed when last seen
	pending map[string]*pendingEvent // path -> settling state

	events   chan Event
	errors   chan error
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// pendingEvent tracks a file that may still be changing
type pendingEvent struct {
	size    int64
	modTime time.Time
	timer   *time.Timer
}

// New creates a file watcher.
func New(logger *slog.Logger, opts Options) (*Watcher, error) {
	opts.setDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &Watcher{
		logger:  logger,
		opts:    opts,
		fs:      fsw,
		targets: make(map[string]bool),
		pending: make(map[string]*pendingEvent),
		events:  make(chan Event, 16),
		errors:  make(chan error, 4),
		done:    make(chan struct{}),
	}, nil
}

// Watch adds a file to be monitored. The file itself may not exist yet, but
// its directory must.
func (w *Watcher) Watch(path string) error {
	path, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(path)
	if err := w.fs.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	_, statErr := os.Stat(path)

	w.mu.Lock()
	w.targets[path] = statErr == nil
	w.mu.Unlock()

	w.logger.Debug("added watch", "path", path)
	return nil
}

// Start begins watching for events.
// This method blocks until the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.wg.Add(1)
	go w.processEvents(ctx)

	select {
	case <-ctx.Done():
	case <-w.done:
	}
	return nil
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				w.logger.Warn("watcher error dropped", "error", err)
			}
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	_, watched := w.targets[path]
	w.mu.Unlock()
	if !watched {
		return
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.cancelPending(path)
		w.mu.Lock()
		w.targets[path] = false
		w.mu.Unlock()
		w.emit(Event{Type: EventRemoved, Path: path})
	case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
		w.startSettling(path)
	}
}

// startSettling (re)arms the settle timer for path.
func (w *Watcher) startSettling(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		return
	}

	p := &pendingEvent{size: info.Size(), modTime: info.ModTime()}
	p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
	w.pending[path] = p
}

// checkSettled emits an event once size and mtime stop changing.
func (w *Watcher) checkSettled(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	p, ok := w.pending[path]
	if !ok {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		delete(w.pending, path)
		w.targets[path] = false
		w.emit(Event{Type: EventRemoved, Path: path})
		return
	}

	if info.Size() != p.size || !info.ModTime().Equal(p.modTime) {
		p.size = info.Size()
		p.modTime = info.ModTime()
		p.timer = time.AfterFunc(w.opts.SettleDelay, func() { w.checkSettled(path) })
		return
	}

	delete(w.pending, path)

	typ := EventModified
	if !w.targets[path] {
		typ = EventAdded
	}
	w.targets[path] = true

	w.emit(Event{Type: typ, Path: path, Size: info.Size(), ModTime: info.ModTime()})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if p, ok := w.pending[path]; ok {
		p.timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emit(event Event) {
	select {
	case w.events <- event:
	case <-w.done:
	}
}

// Events returns the channel for receiving settled file events
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Errors returns the channel for receiving watcher errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// Stop stops the watcher and releases resources. It is safe to call twice.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.done)

		w.mu.Lock()
		for _, p := range w.pending {
			p.timer.Stop()
		}
		clear(w.pending)
		w.mu.Unlock()

		err = w.fs.Close()
		w.wg.Wait()

		close(w.events)
		close(w.errors)
	})
	return err
}
