// Package indexing drives full rebuilds and incremental updates: it
// enumerates workspace files through the language detector, extracts
// them on a bounded worker pool, and commits each file's entry, symbols,
// and imports in one store critical section. Queries never wait on a
// pass in flight; they read the store in whatever state it currently is.
package indexing

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"runtime"
	rtdebug "runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/wci/internal/config"
	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/extract"
	"github.com/standardbeagle/wci/internal/imports"
	"github.com/standardbeagle/wci/internal/lang"
	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
)

// State is the orchestrator lifecycle phase. Rebuilds move through
// Scanning and Indexing to Ready; watcher batches move Ready through
// Updating and back. Cancelled is entered from any phase and keeps
// whatever the store already committed.
type State int32

const (
	StateNotStarted State = iota
	StateScanning
	StateIndexing
	StateReady
	StateUpdating
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateScanning:
		return "scanning"
	case StateIndexing:
		return "indexing"
	case StateReady:
		return "ready"
	case StateUpdating:
		return "updating"
	case StateCancelled:
		return "cancelled"
	default:
		return "not-started"
	}
}

// How often the scheduling loop samples the heap during a rebuild.
const memCheckEvery = 256

// Orchestrator owns the index lifecycle for one workspace. One pass
// runs at a time; RebuildAll and ApplyChanges serialize on runMu while
// State and Progress stay readable throughout.
type Orchestrator struct {
	cfg      *config.Config
	store    *store.Store
	detector *lang.Detector
	limits   extract.Limits

	runMu sync.Mutex

	state    atomic.Int32
	progress atomic.Pointer[Progress]

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

func New(cfg *config.Config, st *store.Store) *Orchestrator {
	o := &Orchestrator{
		cfg:      cfg,
		store:    st,
		detector: lang.NewDetector(cfg.Include, cfg.Exclude, cfg.Index.MaxFileSize),
		limits: extract.Limits{
			MaxSymbols:   cfg.Index.MaxSymbolsPerFile,
			MaxSignature: cfg.Index.MaxSignatureLen,
			LineBudget:   cfg.Performance.LineMatchBudget,
		},
	}
	o.progress.Store(&Progress{})
	return o
}

func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Progress returns a snapshot of the running or most recent pass.
func (o *Orchestrator) Progress() Snapshot {
	return o.progress.Load().Snapshot()
}

// Detector exposes the shared detector so the watcher prunes the same
// directories the scanner does.
func (o *Orchestrator) Detector() *lang.Detector {
	return o.detector
}

// Cancel aborts the pass in flight, if any. In-flight files finish and
// stay committed; no further files are scheduled. With no pass running
// it marks the orchestrator Cancelled directly, which is the workspace
// close path.
func (o *Orchestrator) Cancel() {
	o.cancelMu.Lock()
	defer o.cancelMu.Unlock()
	if o.cancel != nil {
		o.cancel()
		return
	}
	o.state.Store(int32(StateCancelled))
}

// RebuildAll scans every workspace folder and re-indexes the accepted
// files on WorkerCount parallel extractors. It blocks until the pass
// ends; callers that want a background rebuild run it on a goroutine
// and poll State and Progress. Entries committed before a cancellation
// survive it, and entries whose files vanished from disk are swept out
// after a completed pass.
func (o *Orchestrator) RebuildAll(ctx context.Context) (types.IndexStats, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	passCtx, progress := o.beginPass(ctx, StateScanning)
	defer o.endPass()

	start := time.Now()
	tasks, err := scanWorkspace(passCtx, o.roots(), o.detector, progress)
	if err != nil {
		o.state.Store(int32(StateCancelled))
		debug.LogIndex("rebuild cancelled during scan after %d files", len(tasks))
		return o.store.Stats(), err
	}
	debug.LogIndex("scan found %d files in %s", len(tasks), time.Since(start))

	o.state.Store(int32(StateIndexing))

	// Import resolution during a full rebuild runs against the scan
	// result, not the store, so resolution does not depend on commit
	// order across workers.
	scanned := make(map[string]struct{}, len(tasks))
	for i := range tasks {
		scanned[types.PathKey(tasks[i].relPath)] = struct{}{}
	}
	known := imports.PathSetFunc(func(relPath string) bool {
		_, ok := scanned[types.PathKey(relPath)]
		return ok
	})

	g, gctx := errgroup.WithContext(passCtx)
	g.SetLimit(o.cfg.WorkerCount())

	recovered := false
	for i := range tasks {
		if gctx.Err() != nil {
			break
		}
		if i%memCheckEvery == 0 && o.overHeapLimit() {
			if recovered {
				debug.LogIndex("heap still over the soft limit after recovery, stopping rebuild at %d/%d files", i, len(tasks))
				break
			}
			recovered = true
			debug.LogIndex("heap over the soft limit at %d/%d files, forcing a collection", i, len(tasks))
			runtime.GC()
			rtdebug.FreeOSMemory()
		}
		t := &tasks[i]
		g.Go(func() error {
			o.processTask(t, known, progress)
			return nil
		})
	}
	_ = g.Wait()

	if err := passCtx.Err(); err != nil {
		o.state.Store(int32(StateCancelled))
		debug.LogIndex("rebuild cancelled after %d files", progress.Snapshot().ProcessedFiles)
		return o.store.Stats(), err
	}

	o.sweepStale(scanned)
	o.state.Store(int32(StateReady))

	stats := o.store.Stats()
	snap := progress.Snapshot()
	debug.LogIndex("rebuild complete: %d/%d files, %d symbols, %d failed in %s",
		snap.ProcessedFiles, snap.TotalFiles, stats.SymbolCount, snap.Failed, time.Since(start))
	return stats, nil
}

// ApplyChanges applies one debounced watcher batch in order. Changed
// files are re-hashed and skipped when the content hash is unchanged;
// deletions drop the file's tables; a rename is a delete of the old
// path plus a create of the new one. Event paths are absolute, or
// relative to the process working directory; paths outside every
// workspace folder are ignored. Import resolution for changed files
// runs against the live store.
func (o *Orchestrator) ApplyChanges(ctx context.Context, events []types.FileEvent) (types.IndexStats, error) {
	o.runMu.Lock()
	defer o.runMu.Unlock()

	passCtx, progress := o.beginPass(ctx, StateUpdating)
	defer o.endPass()
	progress.addTotal(len(events))

	for i := range events {
		if err := passCtx.Err(); err != nil {
			o.state.Store(int32(StateCancelled))
			return o.store.Stats(), err
		}
		o.applyEvent(&events[i], progress)
	}

	o.state.Store(int32(StateReady))
	stats := o.store.Stats()
	debug.LogIndex("applied %d events: %d files, %d symbols indexed", len(events), stats.FileCount, stats.SymbolCount)
	return stats, nil
}

func (o *Orchestrator) applyEvent(ev *types.FileEvent, progress *Progress) {
	switch ev.Kind {
	case types.ChangeDeleted:
		o.removeOne(ev.Path)
		progress.tick(ev.Path, 0)
	case types.ChangeRenamed:
		if ev.OldPath != "" {
			o.removeOne(ev.OldPath)
		}
		o.indexOne(ev.Path, progress)
	default:
		o.indexOne(ev.Path, progress)
	}
}

// indexOne re-indexes a single created or modified path. A file whose
// stored hash still matches is left untouched, modification time
// included. Every call accounts exactly once in progress, skips too,
// so a finished update pass always reads fully processed.
func (o *Orchestrator) indexOne(path string, progress *Progress) {
	t, ok := o.taskFor(path)
	if !ok {
		debug.LogIndex("change outside workspace folders: %s", path)
		progress.tick(path, 0)
		return
	}

	info, err := os.Stat(t.absPath)
	if err != nil {
		log.Printf("Indexing error in %s (stat): %v", t.relPath, err)
		progress.fail(t.relPath)
		return
	}
	t.size = info.Size()
	t.modTime = info.ModTime()

	t.decision = o.detector.ShouldIndex(t.relPath, t.size)
	if t.decision == lang.Skip {
		progress.tick(t.relPath, 0)
		return
	}

	data, err := os.ReadFile(t.absPath)
	if err != nil {
		log.Printf("Indexing error in %s (read): %v", t.relPath, err)
		progress.fail(t.relPath)
		return
	}
	if prev, ok := o.store.GetFile(t.relPath); ok && prev.ContentHash == HashContent(data) {
		debug.LogIndex("unchanged %s", t.relPath)
		progress.tick(t.relPath, 0)
		return
	}

	n := o.commitFile(&t, data, o.store)
	progress.tick(t.relPath, n)
}

func (o *Orchestrator) removeOne(path string) {
	_, _, rel, ok := o.relativize(path)
	if !ok {
		debug.LogIndex("delete outside workspace folders: %s", path)
		return
	}
	if o.store.RemoveFile(rel) {
		debug.LogIndex("removed %s", rel)
	}
}

// processTask reads, hashes, extracts, and commits one file during a
// rebuild. Failures are logged and counted, never returned; one bad
// file must not abort the batch.
func (o *Orchestrator) processTask(t *fileTask, known imports.PathSet, progress *Progress) {
	data, err := os.ReadFile(t.absPath)
	if err != nil {
		log.Printf("Indexing error in %s (read): %v", t.relPath, err)
		progress.fail(t.relPath)
		return
	}
	n := o.commitFile(t, data, known)
	progress.tick(t.relPath, n)
}

// commitFile extracts symbols and imports from data and swaps the
// file's three tables in one critical section, returning the symbol
// count. Record-only files and extension misses that turn out to hold
// binary content keep an entry but no tables.
func (o *Orchestrator) commitFile(t *fileTask, data []byte, known imports.PathSet) int {
	entry := types.FileEntry{
		Path:        t.relPath,
		AbsPath:     t.absPath,
		Language:    t.language,
		SizeBytes:   t.size,
		ModTime:     t.modTime,
		ContentHash: HashContent(data),
		Folder:      t.folder,
	}

	var symbols []types.SymbolEntry
	var refs []types.ImportReference
	if t.decision == lang.Index && !lang.IsBinaryContent(data) {
		text := string(data)
		if ex, ok := extract.For(t.language, o.limits); ok {
			symbols = ex.Extract(t.relPath, text)
		}
		if sc, ok := imports.For(t.language, o.cfg.Index.MaxImportsPerFile); ok {
			refs = sc.Scan(t.relPath, text, known)
		}
	}

	o.store.CommitFile(entry, symbols, refs)
	return len(symbols)
}

// sweepStale drops store entries the scan no longer saw. Deletions that
// happened while nothing was watching would otherwise survive a rebuild
// as ghosts.
func (o *Orchestrator) sweepStale(scanned map[string]struct{}) {
	var stale []string
	o.store.VisitFiles(func(entry *types.FileEntry) bool {
		if _, ok := scanned[types.PathKey(entry.Path)]; !ok {
			stale = append(stale, entry.Path)
		}
		return true
	})
	for _, p := range stale {
		o.store.RemoveFile(p)
	}
	if len(stale) > 0 {
		debug.LogIndex("swept %d stale entries", len(stale))
	}
}

func (o *Orchestrator) beginPass(ctx context.Context, s State) (context.Context, *Progress) {
	passCtx, cancel := context.WithCancel(ctx)
	o.cancelMu.Lock()
	o.cancel = cancel
	o.cancelMu.Unlock()

	p := &Progress{}
	o.progress.Store(p)
	o.state.Store(int32(s))
	return passCtx, p
}

func (o *Orchestrator) endPass() {
	o.cancelMu.Lock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.cancelMu.Unlock()
}

func (o *Orchestrator) roots() []string {
	folders := o.cfg.AllFolders()
	out := folders[:0]
	for _, f := range folders {
		if f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		out = append(out, ".")
	}
	return out
}

// taskFor maps a changed path to its workspace folder and relative key.
// The first folder containing the path wins, mirroring scan order.
func (o *Orchestrator) taskFor(path string) (fileTask, bool) {
	folder, root, rel, ok := o.relativize(path)
	if !ok {
		return fileTask{}, false
	}
	return fileTask{
		absPath:  filepath.Join(root, filepath.FromSlash(rel)),
		relPath:  rel,
		folder:   folder,
		language: o.detector.Detect(rel),
	}, true
}

func (o *Orchestrator) relativize(path string) (folder int, root, rel string, ok bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return 0, "", "", false
	}
	for i, r := range o.roots() {
		absRoot, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		relPath, err := filepath.Rel(absRoot, abs)
		if err != nil || relPath == "." || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
			continue
		}
		return i, absRoot, types.NormalizePath(relPath), true
	}
	return 0, "", "", false
}

// overHeapLimit samples the live heap against the configured soft
// limit. Zero disables the check.
func (o *Orchestrator) overHeapLimit() bool {
	limit := o.cfg.Performance.HeapSoftLimitMB
	if limit <= 0 {
		return false
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc/(1024*1024) > uint64(limit)
}
