/*
Package watch notifies when the task data file is changed on disk by another
process or an editor.
*/
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits for a burst of events to settle.
const DefaultDebounce = 300 * time.Millisecond

// Change is a debounced notification about the watched file.
type Change struct {
	Path string
	// Op is the last operation seen in the burst: write, create, remove or rename.
	Op   string
	At   time.Time
	// Events counts the raw fsnotify events folded into this change.
	Events int
}

// Watcher watches one file. It subscribes to the file's directory, because
// atomic saves replace the file by rename and a watch on the old inode would
// go silent after the first save.
type Watcher struct {
	path     string
	dir      string
	debounce time.Duration
	logger   *slog.Logger
	watcher  *fsnotify.Watcher

	out chan Change

	mu      sync.Mutex
	pending *Change
	timer   *time.Timer
	stopped bool

	wg sync.WaitGroup
}

// New creates a watcher for path. A non-positive debounce means DefaultDebounce.
func New(path string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = slog.Default()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		path:     abs,
		dir:      filepath.Dir(abs),
		debounce: debounce,
		logger:   logger,
		watcher:  fw,
		out:      make(chan Change, 1),
	}, nil
}

// Path returns the absolute path being watched.
func (w *Watcher) Path() string { return w.path }

// Changes delivers debounced changes. It is closed when the watcher stops.
func (w *Watcher) Changes() <-chan Change { return w.out }

// Start subscribes to the file's directory and runs the event loop until ctx
// is done or Close is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}
	w.logger.Debug("watching task file", "path", w.path)

	w.wg.Add(1)
	go w.eventLoop(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) eventLoop(ctx context.Context) {
	defer w.wg.Done()
	defer w.stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.path {
		return
	}

	var op string
	switch {
	case event.Has(fsnotify.Create):
		op = "create"
	case event.Has(fsnotify.Write):
		op = "write"
	case event.Has(fsnotify.Remove):
		op = "remove"
	case event.Has(fsnotify.Rename):
		op = "rename"
	default:
		return // chmod
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.pending == nil {
		w.pending = &Change{Path: w.path}
	}
	w.pending.Op = op
	w.pending.At = time.Now()
	w.pending.Events++

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.flush)
}

func (w *Watcher) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.pending == nil {
		return
	}
	change := *w.pending
	w.pending = nil

	// Keep only the newest change if the consumer is behind.
	select {
	case w.out <- change:
	default:
		select {
		case <-w.out:
		default:
		}
		w.out <- change
	}
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.out)
}
