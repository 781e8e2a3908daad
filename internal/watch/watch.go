// Package watch follows the workspace folders with fsnotify and turns the
// raw event stream into debounced batches of file changes ready for an
// incremental index pass. Editors save in bursts (write, truncate, write
// again, often through a temp-file rename); the debouncer collapses each
// burst into one event per path so the index does the work once.
package watch

import (
	"context"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/standardbeagle/wci/internal/config"
	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/lang"
	"github.com/standardbeagle/wci/internal/types"
)

// DefaultDebounce is the quiet window used when the configuration does not
// set one.
const DefaultDebounce = 200 * time.Millisecond

// Handler receives one debounced batch at a time. Batches are delivered
// sequentially; the next batch waits until the handler returns.
type Handler func(events []types.FileEvent)

// Stats is a point-in-time snapshot of watcher activity.
type Stats struct {
	EventsSeen  int64
	Batches     int64
	Errors      int64
	WatchedDirs int
	LastEvent   time.Time
}

// Watcher follows every workspace folder recursively, filters events
// through the same detector the indexer uses, and reports surviving
// changes in debounced batches.
type Watcher struct {
	fs      *fsnotify.Watcher
	det     *lang.Detector
	roots   []string
	handler Handler
	deb     *debouncer

	cancel context.CancelFunc
	wg     sync.WaitGroup

	eventsSeen atomic.Int64
	batches    atomic.Int64
	errCount   atomic.Int64

	lastMu    sync.Mutex
	lastEvent time.Time
}

// New builds a watcher over the folders in cfg. Start must be called
// before any events flow.
func New(cfg *config.Config, det *lang.Detector, handler Handler) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	quiet := cfg.Performance.WatchDebounce
	if quiet <= 0 {
		quiet = DefaultDebounce
	}

	var roots []string
	for _, folder := range cfg.AllFolders() {
		if folder == "" {
			continue
		}
		abs, err := filepath.Abs(folder)
		if err != nil {
			debug.LogWatch("skipping folder %s: %v", folder, err)
			continue
		}
		roots = append(roots, abs)
	}

	w := &Watcher{
		fs:      fs,
		det:     det,
		roots:   roots,
		handler: handler,
	}
	w.deb = newDebouncer(quiet, w.deliver)
	return w, nil
}

func (w *Watcher) deliver(events []types.FileEvent) {
	w.batches.Add(1)
	debug.LogWatch("delivering batch of %d events", len(events))
	w.handler(events)
}

// Start registers every workspace folder and begins dispatching events.
// Folders that cannot be watched are logged and skipped; Start fails only
// when not a single folder could be registered.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	var watched int
	var firstErr error
	for _, root := range w.roots {
		if err := w.watchTree(root, false); err != nil {
			log.Printf("Cannot watch folder %s: %v", root, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		watched++
	}
	if watched == 0 {
		cancel()
		if firstErr != nil {
			return firstErr
		}
		return errors.New("no workspace folders to watch")
	}

	w.wg.Add(1)
	go w.loop(ctx)

	debug.LogWatch("watching %d directories across %d folders", len(w.fs.WatchList()), watched)
	return nil
}

// Stop shuts the watcher down and waits for an in-flight delivery to
// finish. Events still pending in the debounce window are dropped.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.fs.Close()
	w.wg.Wait()
	w.deb.stop()
	return err
}

// Stats returns current watcher counters.
func (w *Watcher) Stats() Stats {
	w.lastMu.Lock()
	last := w.lastEvent
	w.lastMu.Unlock()

	return Stats{
		EventsSeen:  w.eventsSeen.Load(),
		Batches:     w.batches.Load(),
		Errors:      w.errCount.Load(),
		WatchedDirs: len(w.fs.WatchList()),
		LastEvent:   last,
	}
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.errCount.Add(1)
			log.Printf("File watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	w.eventsSeen.Add(1)
	w.lastMu.Lock()
	w.lastEvent = time.Now()
	w.lastMu.Unlock()

	path := filepath.Clean(ev.Name)

	if ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		// A rename's new name arrives as its own create event, so
		// reporting the old name as deleted leaves the index in the same
		// state a paired rename would.
		if w.wantsPath(path, 0) {
			w.deb.add(path, types.ChangeDeleted)
		}
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		// Gone already; the removal event is right behind this one.
		return
	}

	if info.IsDir() {
		if ev.Op&fsnotify.Create != 0 {
			if err := w.watchTree(path, true); err != nil {
				debug.LogWatch("cannot watch new directory %s: %v", path, err)
			}
		}
		return
	}

	if !w.wantsPath(path, info.Size()) {
		return
	}
	switch {
	case ev.Op&fsnotify.Create != 0:
		w.deb.add(path, types.ChangeCreated)
	case ev.Op&fsnotify.Write != 0:
		w.deb.add(path, types.ChangeModified)
	}
}

// wantsPath reports whether a change at path should reach the index.
// Deletes pass size zero; the file is already gone and size limits no
// longer apply.
func (w *Watcher) wantsPath(path string, size int64) bool {
	rel, ok := w.relative(path)
	if !ok {
		return false
	}
	return w.det.ShouldIndex(rel, size) != lang.Skip
}

// relative maps an absolute path to its key inside the first workspace
// folder containing it.
func (w *Watcher) relative(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}
	for _, root := range w.roots {
		r, err := filepath.Rel(root, abs)
		if err != nil || r == "." || r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
			continue
		}
		return types.NormalizePath(r), true
	}
	return "", false
}

// watchTree registers dir and every non-excluded subdirectory. With
// announce set, files found along the way are queued as creates: a
// directory moved or unpacked into the workspace reaches us as one create
// event for its top, with the contents already in place.
func (w *Watcher) watchTree(dir string, announce bool) error {
	visited := make(map[string]bool)

	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			debug.LogWatch("skipping %s: %v", path, err)
			return nil
		}

		if info.IsDir() {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return filepath.SkipDir
			}
			if visited[resolved] {
				return filepath.SkipDir
			}
			visited[resolved] = true

			if rel, ok := w.relative(path); ok && w.det.ExcludesDir(rel) {
				return filepath.SkipDir
			}

			if err := w.fs.Add(path); err != nil {
				debug.LogWatch("cannot add %s: %v", path, err)
			}
			return nil
		}

		if announce && w.wantsPath(path, info.Size()) {
			w.deb.add(path, types.ChangeCreated)
		}
		return nil
	})
}
