// Package watch reloads a diagram definition when its file changes.
//
// The watcher observes the file's directory rather than the file itself, so
// editors that save by writing a temporary file and renaming it over the
// original keep triggering reloads. Bursts of events are debounced into one
// reload.
//
//	w, err := watch.New("platform.yaml", func(g *diagram.Graph) { ... })
//	go w.Run(ctx)
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/nodeflow/pkg/diagram"
)

// DefaultDebounce is the quiet period before a reload.
const DefaultDebounce = 200 * time.Millisecond

// Option configures a [Watcher].
type Option func(*Watcher)

// WithDebounce sets the quiet period before a reload.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// OnError sets the callback for reload and watcher errors. Without it,
// errors are logged.
func OnError(fn func(error)) Option {
	return func(w *Watcher) { w.onError = fn }
}

// Watcher reloads one definition file.
type Watcher struct {
	path     string
	fs       *fsnotify.Watcher
	onChange func(*diagram.Graph)
	onError  func(error)
	debounce time.Duration
	logger   *log.Logger

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
	wg     sync.WaitGroup
}

// New creates a watcher for path. onChange receives every successfully
// reloaded definition.
func New(path string, onChange func(*diagram.Graph), opts ...Option) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	w := &Watcher{
		path:     abs,
		fs:       fsw,
		onChange: onChange,
		debounce: DefaultDebounce,
		logger:   log.NewWithOptions(io.Discard, log.Options{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return w, nil
}

// Path returns the watched file.
func (w *Watcher) Path() string { return w.path }

// Run processes file events until ctx is cancelled or the watcher is
// closed. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.report(err)
		}
	}
}

// Close stops watching and cancels a pending reload. It waits for a reload
// that is already running.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if filepath.Clean(ev.Name) != w.path {
		return
	}
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil && w.timer.Stop() {
		w.wg.Done()
	}
	w.wg.Add(1)
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	defer w.wg.Done()

	g, err := diagram.ReadGraphFile(w.path)
	if err != nil {
		w.report(err)
		return
	}
	w.logger.Info("reloaded definition", "path", w.path, "nodes", len(g.Nodes), "edges", len(g.Edges))
	if w.onChange != nil {
		w.onChange(g)
	}
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
		return
	}
	w.logger.Warn("watch", "path", w.path, "error", err)
}
