package watch

import (
	"sort"
	"sync"
	"time"

	"github.com/standardbeagle/wci/internal/types"
)

// debouncer coalesces raw events per path and flushes one batch after a
// quiet window with no new events. Within a window the merge rules keep
// one pending kind per path: the latest kind wins, a create followed by
// a delete cancels out entirely, and a delete followed by a create
// collapses to a modify of the replaced file.
type debouncer struct {
	mu      sync.Mutex
	pending map[string]types.ChangeKind
	timer   *time.Timer
	quiet   time.Duration
	closed  bool

	// flightMu serializes flushes and lets stop wait for one in flight.
	flightMu sync.Mutex
	flushFn  func([]types.FileEvent)
}

func newDebouncer(quiet time.Duration, flushFn func([]types.FileEvent)) *debouncer {
	return &debouncer{
		pending: make(map[string]types.ChangeKind),
		quiet:   quiet,
		flushFn: flushFn,
	}
}

// add merges one raw event into the pending set and restarts the quiet
// window.
func (d *debouncer) add(path string, kind types.ChangeKind) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	if prev, ok := d.pending[path]; ok {
		merged, drop := mergeKind(prev, kind)
		if drop {
			delete(d.pending, path)
		} else {
			d.pending[path] = merged
		}
	} else {
		d.pending[path] = kind
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, d.flush)
}

func mergeKind(prev, next types.ChangeKind) (merged types.ChangeKind, drop bool) {
	switch {
	case prev == types.ChangeCreated && next == types.ChangeDeleted:
		// The file came and went inside one window; nobody needs to hear
		// about it.
		return 0, true
	case prev == types.ChangeCreated && next == types.ChangeModified:
		return types.ChangeCreated, false
	case prev == types.ChangeDeleted && next == types.ChangeCreated:
		return types.ChangeModified, false
	default:
		return next, false
	}
}

// flush hands the pending batch to the handler, ordered deletes before
// modifies before creates, paths ascending within each class. The
// handler runs without the pending lock so new events keep merging into
// the next batch.
func (d *debouncer) flush() {
	d.mu.Lock()
	if d.closed || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	pending := d.pending
	d.pending = make(map[string]types.ChangeKind)
	d.mu.Unlock()

	batch := make([]types.FileEvent, 0, len(pending))
	for path, kind := range pending {
		batch = append(batch, types.FileEvent{Kind: kind, Path: path})
	}
	sort.Slice(batch, func(i, j int) bool {
		if a, b := flushOrder(batch[i].Kind), flushOrder(batch[j].Kind); a != b {
			return a < b
		}
		return batch[i].Path < batch[j].Path
	})

	d.flightMu.Lock()
	defer d.flightMu.Unlock()
	d.flushFn(batch)
}

func flushOrder(kind types.ChangeKind) int {
	switch kind {
	case types.ChangeDeleted:
		return 0
	case types.ChangeModified, types.ChangeRenamed:
		return 1
	default:
		return 2
	}
}

// stop drops pending events and waits for a flush already in flight.
// Events pending at shutdown are lost on purpose; the consumer is being
// torn down with them.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.closed = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = nil
	d.mu.Unlock()

	// Taking flightMu waits out a flush still delivering to the handler.
	d.flightMu.Lock()
	d.flightMu.Unlock()
}
