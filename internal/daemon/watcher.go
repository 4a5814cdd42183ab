package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/texdoc/internal/logfields"
)

// DefaultDebounce coalesces editor save bursts into one rebuild.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reports changes to a set of files. It watches their directories,
// which survives editors that save by rename, and calls onChange once per
// burst of events.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onChange func()

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
	timer *time.Timer
}

// NewWatcher creates a watcher. A non-positive debounce selects DefaultDebounce.
func NewWatcher(debounce time.Duration, onChange func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:  w,
		debounce: debounce,
		onChange: onChange,
		files:    map[string]struct{}{},
		dirs:     map[string]struct{}{},
	}, nil
}

// SetFiles replaces the watched file set. Directories no longer needed stay
// watched; events in them are ignored.
func (w *Watcher) SetFiles(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("failed to resolve watch path: %w", err)
		}
		files[abs] = struct{}{}

		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; ok {
			continue
		}
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory %s: %w", dir, err)
		}
		w.dirs[dir] = struct{}{}
		slog.Debug("Watching directory", logfields.Path(dir))
	}
	w.files = files
	return nil
}

// Run processes events until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.stopTimer()
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				w.stopTimer()
				return
			}
			if !w.relevant(event) {
				continue
			}
			slog.Debug("Source change detected", logfields.File(event.Name), slog.String("op", event.Op.String()))
			w.trigger()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, ok := w.files[abs]
	return ok
}

func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.onChange)
}

func (w *Watcher) stopTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.stopTimer()
	return w.watcher.Close()
}
