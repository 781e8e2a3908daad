// Package search runs ranked fuzzy queries against the index store.
// Queries execute synchronously on the caller's goroutine and observe
// the store in whatever state it is currently in; a query during an
// in-progress rebuild sees a partial index.
package search

import (
	"context"
	"path"
	"time"

	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/fuzzy"
	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
)

// Mode selects what a query runs against.
type Mode uint8

const (
	ModeFile Mode = iota
	ModeSymbol
)

func (m Mode) String() string {
	if m == ModeSymbol {
		return "symbol"
	}
	return "file"
}

// Options narrows and bounds a query. Zero values mean defaults: a
// 50-result cap and the per-mode latency budget.
type Options struct {
	MaxResults int
	Budget     time.Duration // 0 uses the per-mode default
	Kinds      []types.SymbolKind
	Languages  []types.LanguageID
}

func (o Options) maxResults() int {
	if o.MaxResults > 0 {
		return o.MaxResults
	}
	return types.DefaultMaxSearchResults
}

func (o Options) budget(fallback time.Duration) time.Duration {
	if o.Budget > 0 {
		return o.Budget
	}
	return fallback
}

// Engine answers file and symbol queries from one store.
type Engine struct {
	store *store.Store
}

func New(st *store.Store) *Engine {
	return &Engine{store: st}
}

// Search dispatches on mode. The partial flag reports that the scan hit
// its latency budget or was cancelled and the results cover only the
// candidates scored before the cutoff.
func (e *Engine) Search(ctx context.Context, query string, mode Mode, maxResults int) ([]types.SearchResult, bool) {
	opts := Options{MaxResults: maxResults}
	if mode == ModeSymbol {
		return e.SearchSymbols(ctx, query, opts)
	}
	return e.SearchFiles(ctx, query, opts)
}

// SearchFiles ranks indexed files by how well their base name matches
// query.
func (e *Engine) SearchFiles(ctx context.Context, query string, opts Options) ([]types.SearchResult, bool) {
	start := time.Now()
	col := fuzzy.NewCollector(ctx, query, opts.maxResults(), opts.budget(types.DefaultFileSearchDeadline))
	e.store.VisitFiles(func(entry *types.FileEntry) bool {
		if !languageAllowed(entry.Language, opts.Languages) {
			return true
		}
		name := path.Base(entry.Path)
		score, cont := col.Match(name)
		if score > 0 {
			col.Collect(types.SearchResult{
				Name:   name,
				Score:  score,
				Path:   entry.Path,
				Detail: entry.Language.String(),
			})
		}
		return cont
	})
	results, partial := col.Finish()
	debug.LogSearch("file query %q: %d results, partial=%v, %v", query, len(results), partial, time.Since(start))
	return results, partial
}

// SearchSymbols ranks indexed symbols by name match, optionally
// restricted to a kind set or to symbols from files of given languages.
func (e *Engine) SearchSymbols(ctx context.Context, query string, opts Options) ([]types.SearchResult, bool) {
	start := time.Now()
	allowedFiles := e.filesForLanguages(opts.Languages)
	col := fuzzy.NewCollector(ctx, query, opts.maxResults(), opts.budget(types.DefaultSymbolSearchDeadline))
	e.store.VisitSymbols(func(sym *types.SymbolEntry) bool {
		if allowedFiles != nil && !allowedFiles[types.PathKey(sym.FilePath)] {
			return true
		}
		if !kindAllowed(sym.Kind, opts.Kinds) {
			return true
		}
		score, cont := col.Match(sym.Name)
		if score > 0 {
			col.Collect(types.SearchResult{
				Name:   sym.Name,
				Score:  score,
				Path:   sym.FilePath,
				Line:   sym.Line,
				Kind:   sym.Kind,
				Detail: sym.Signature,
			})
		}
		return cont
	})
	results, partial := col.Finish()
	debug.LogSearch("symbol query %q: %d results, partial=%v, %v", query, len(results), partial, time.Since(start))
	return results, partial
}

// filesForLanguages builds the set of path keys whose files match the
// language filter, nil when unfiltered. Symbols carry no language of
// their own; they inherit their file's.
func (e *Engine) filesForLanguages(filter []types.LanguageID) map[string]bool {
	if len(filter) == 0 {
		return nil
	}
	allowed := make(map[string]bool)
	e.store.VisitFiles(func(entry *types.FileEntry) bool {
		if languageAllowed(entry.Language, filter) {
			allowed[types.PathKey(entry.Path)] = true
		}
		return true
	})
	return allowed
}

func languageAllowed(lang types.LanguageID, filter []types.LanguageID) bool {
	if len(filter) == 0 {
		return true
	}
	for _, l := range filter {
		if l == lang {
			return true
		}
	}
	return false
}

func kindAllowed(kind types.SymbolKind, filter []types.SymbolKind) bool {
	if len(filter) == 0 {
		return true
	}
	for _, k := range filter {
		if k == kind {
			return true
		}
	}
	return false
}
