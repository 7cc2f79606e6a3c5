// Package watch re-runs discovery when a log file changes on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/logflow/alphaminer/pkg/errors"
	"github.com/logflow/alphaminer/pkg/logging"
)

// DefaultDebounce collapses the burst of events an editor or exporter
// produces for one save.
const DefaultDebounce = 500 * time.Millisecond

// Handler is called once per settled change of a watched file.
type Handler func(ctx context.Context, path string) error

// Watcher monitors log files and calls a handler after they change.
type Watcher struct {
	fs       *fsnotify.Watcher
	mu       sync.Mutex
	files    map[string]*fileState
	debounce time.Duration
	handler  Handler
	logger   logrus.FieldLogger
}

type fileState struct {
	modTime time.Time
	size    int64
	busy    bool
	timer   *time.Timer
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger reports handler failures to l.
func WithLogger(l logrus.FieldLogger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a watcher that calls handler for changed files.
func New(handler Handler, opts ...Option) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeReadFailed, "cannot create file watcher")
	}
	w := &Watcher{
		fs:       fs,
		files:    make(map[string]*fileState),
		debounce: DefaultDebounce,
		handler:  handler,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Add starts watching path. The parent directory is what fsnotify watches so
// that files replaced by rename are still seen.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(err, errors.CodeReadFailed, "cannot resolve path").WithContext("path", path)
	}
	stat, err := os.Stat(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound(abs)
		}
		return errors.Wrap(err, errors.CodeReadFailed, "cannot stat file").WithContext("path", abs)
	}

	w.mu.Lock()
	w.files[abs] = &fileState{modTime: stat.ModTime(), size: stat.Size()}
	w.mu.Unlock()

	if err := w.fs.Add(filepath.Dir(abs)); err != nil {
		return errors.Wrap(err, errors.CodeReadFailed, "cannot watch directory").WithContext("path", abs)
	}
	return nil
}

// Paths returns the watched files.
func (w *Watcher) Paths() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.files))
	for p := range w.files {
		out = append(out, p)
	}
	return out
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopTimers()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}
			w.schedule(ctx, abs)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	state, ok := w.files[path]
	if !ok {
		return
	}
	if state.timer != nil {
		state.timer.Stop()
	}
	state.timer = time.AfterFunc(w.debounce, func() { w.handle(ctx, path, state) })
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, s := range w.files {
		if s.timer != nil {
			s.timer.Stop()
		}
	}
}

func (w *Watcher) handle(ctx context.Context, path string, state *fileState) {
	if ctx.Err() != nil {
		return
	}
	stat, err := os.Stat(path)
	if err != nil {
		w.logger.WithError(err).WithField("path", path).Warn("changed file unreadable")
		return
	}

	w.mu.Lock()
	if state.busy || (stat.ModTime().Equal(state.modTime) && stat.Size() == state.size) {
		w.mu.Unlock()
		return
	}
	state.busy = true
	state.modTime = stat.ModTime()
	state.size = stat.Size()
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		state.busy = false
		w.mu.Unlock()
	}()

	if err := w.handler(ctx, path); err != nil {
		w.logger.WithError(err).WithField("path", path).Error("rediscovery failed")
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
