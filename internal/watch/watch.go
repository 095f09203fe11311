// Package watch reports image files that appear or change under a
// directory tree.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// DefaultDebounce is how long a path must stay quiet before it is handled.
const DefaultDebounce = 500 * time.Millisecond

// Handler is called once per settled path.
type Handler func(ctx context.Context, path string)

// Config configures a Watcher.
type Config struct {
	Root string
	// Skip is a directory whose events are ignored, usually the output
	// directory.
	Skip string
	// Match filters paths; nil accepts every file.
	Match    func(path string) bool
	Debounce time.Duration
	Handle   Handler
}

// Watcher monitors a directory tree recursively.
type Watcher struct {
	cfg     Config
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
	wg     sync.WaitGroup
}

// New creates a watcher and registers every directory under cfg.Root.
func New(cfg Config) (*Watcher, error) {
	if cfg.Handle == nil {
		return nil, fmt.Errorf("watch: no handler")
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	w := &Watcher{cfg: cfg, watcher: fsw, timers: make(map[string]*time.Timer)}
	if err := w.addTree(cfg.Root, nil); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches root and every directory below it. When file is not
// nil it is called for each file already present.
func (w *Watcher) addTree(root string, file func(path string)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			if file != nil && !w.skipped(path) {
				file(path)
			}
			return nil
		}
		if w.skipped(path) && path != w.cfg.Root {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch folder %s: %w", path, err)
		}
		log.WithField("path", path).Debug("watching folder")
		return nil
	})
}

func (w *Watcher) skipped(path string) bool {
	if w.cfg.Skip != "" && (path == w.cfg.Skip || strings.HasPrefix(path, w.cfg.Skip+string(filepath.Separator))) {
		return true
	}
	return strings.HasPrefix(filepath.Base(path), ".")
}

// Run processes events until ctx is done, then waits for handlers that
// already started.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() {
		w.mu.Lock()
		w.closed = true
		for p, t := range w.timers {
			t.Stop()
			delete(w.timers, p)
		}
		w.mu.Unlock()
		w.watcher.Close()
		w.wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.event(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("watcher error")
		}
	}
}

func (w *Watcher) event(ctx context.Context, event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if w.skipped(event.Name) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// Files moved in with the folder produce no events of their own.
			err := w.addTree(event.Name, func(path string) { w.schedule(ctx, path) })
			if err != nil {
				log.WithError(err).Warn("cannot watch new folder")
			}
			return
		}
	}
	w.schedule(ctx, event.Name)
}

// schedule arms the debounce timer for a matching path, restarting it when
// one is already pending.
func (w *Watcher) schedule(ctx context.Context, name string) {
	if w.cfg.Match != nil && !w.cfg.Match(name) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[name]; ok {
		t.Stop()
	}
	w.timers[name] = time.AfterFunc(w.cfg.Debounce, func() {
		w.mu.Lock()
		if w.closed {
			w.mu.Unlock()
			return
		}
		delete(w.timers, name)
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		if ctx.Err() != nil {
			return
		}
		w.cfg.Handle(ctx, name)
	})
}
