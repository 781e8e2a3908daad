// Package store owns the three index tables: files, symbols, and
// imports, plus the reverse-import table and a symbol name index.
// One RWMutex covers everything, so a reader always sees a file's
// entry, symbols, and imports from the same extraction pass.
// Extraction never runs under the lock; writers only swap finished
// tables in.
package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/standardbeagle/wci/internal/types"
)

type fileRecord struct {
	entry   types.FileEntry
	symbols []types.SymbolEntry
	imports []types.ImportReference
}

type symbolLoc struct {
	fileKey string
	index   int
}

// Store is created on workspace open and discarded on close. It is not
// a package singleton: tests and future multi-workspace support build
// their own instances.
type Store struct {
	mu          sync.RWMutex
	files       map[string]*fileRecord
	byName      map[string][]symbolLoc
	importers   map[string]map[string]struct{}
	symbolCount int
	importCount int
}

func New() *Store {
	return &Store{
		files:     make(map[string]*fileRecord),
		byName:    make(map[string][]symbolLoc),
		importers: make(map[string]map[string]struct{}),
	}
}

// CommitFile replaces a file's entry, symbol table, and import table in
// one critical section. The slices pass into the store's ownership and
// must not be mutated by the caller afterwards. Case-insensitive path
// collisions resolve to this most recent write.
func (s *Store) CommitFile(entry types.FileEntry, symbols []types.SymbolEntry, imports []types.ImportReference) {
	key := types.PathKey(entry.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.files[key]; ok {
		s.dropSymbolsLocked(key, old)
		s.dropImportsLocked(key, old)
	}
	rec := &fileRecord{entry: entry, symbols: symbols, imports: imports}
	s.files[key] = rec
	s.addSymbolsLocked(key, rec)
	s.addImportsLocked(key, rec)
}

// UpsertFile writes or refreshes a file entry without touching its
// symbol or import tables. Used for record-only files (oversized,
// unknown language) that appear in file search but are never parsed.
func (s *Store) UpsertFile(entry types.FileEntry) {
	key := types.PathKey(entry.Path)

	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.files[key]; ok {
		rec.entry = entry
		return
	}
	s.files[key] = &fileRecord{entry: entry}
}

// RemoveFile cascades: the entry, its symbols, its forward imports and
// their reverse appearances, and the reverse entries pointing at the
// removed file all go in one critical section.
func (s *Store) RemoveFile(path string) bool {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[key]
	if !ok {
		return false
	}
	s.dropSymbolsLocked(key, rec)
	s.dropImportsLocked(key, rec)
	delete(s.importers, key)
	delete(s.files, key)
	return true
}

// ReplaceSymbols swaps one file's symbol table. The file entry must
// already exist; replacing symbols for an unknown path is a no-op.
func (s *Store) ReplaceSymbols(path string, symbols []types.SymbolEntry) bool {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[key]
	if !ok {
		return false
	}
	s.dropSymbolsLocked(key, rec)
	rec.symbols = symbols
	s.addSymbolsLocked(key, rec)
	return true
}

// ReplaceImports swaps one file's forward imports and keeps the reverse
// table in step within the same critical section.
func (s *Store) ReplaceImports(path string, imports []types.ImportReference) bool {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.files[key]
	if !ok {
		return false
	}
	s.dropImportsLocked(key, rec)
	rec.imports = imports
	s.addImportsLocked(key, rec)
	return true
}

func (s *Store) GetFile(path string) (types.FileEntry, bool) {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[key]
	if !ok {
		return types.FileEntry{}, false
	}
	return rec.entry, true
}

func (s *Store) SymbolsByFile(path string) []types.SymbolEntry {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[key]
	if !ok || len(rec.symbols) == 0 {
		return nil
	}
	out := make([]types.SymbolEntry, len(rec.symbols))
	copy(out, rec.symbols)
	return out
}

// FindSymbolsByName returns every symbol whose name matches
// case-insensitively, in deterministic path-then-line order.
func (s *Store) FindSymbolsByName(name string) []types.SymbolEntry {
	lower := strings.ToLower(name)

	s.mu.RLock()
	defer s.mu.RUnlock()

	locs := s.byName[lower]
	if len(locs) == 0 {
		return nil
	}
	out := make([]types.SymbolEntry, 0, len(locs))
	for _, loc := range locs {
		rec, ok := s.files[loc.fileKey]
		if !ok || loc.index >= len(rec.symbols) {
			continue
		}
		out = append(out, rec.symbols[loc.index])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].FilePath != out[j].FilePath {
			return out[i].FilePath < out[j].FilePath
		}
		return out[i].Line < out[j].Line
	})
	return out
}

func (s *Store) AllFiles() []types.FileEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.FileEntry, 0, len(s.files))
	for _, rec := range s.files {
		out = append(out, rec.entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func (s *Store) ImportsOf(path string) []types.ImportReference {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[key]
	if !ok || len(rec.imports) == 0 {
		return nil
	}
	out := make([]types.ImportReference, len(rec.imports))
	copy(out, rec.imports)
	return out
}

// ImportersOf returns the workspace-relative paths of the files whose
// imports resolve to path, ascending.
func (s *Store) ImportersOf(path string) []string {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.RLock()
	defer s.mu.RUnlock()

	set := s.importers[key]
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for importerKey := range set {
		if rec, ok := s.files[importerKey]; ok {
			out = append(out, rec.entry.Path)
		}
	}
	sort.Strings(out)
	return out
}

// FileState is a coherent copy of one file's three tables.
type FileState struct {
	Entry   types.FileEntry
	Symbols []types.SymbolEntry
	Imports []types.ImportReference
}

// State copies a file's entry, symbols, and imports under a single lock
// acquisition, so the three always come from the same extraction pass.
func (s *Store) State(path string) (FileState, bool) {
	key := types.PathKey(types.NormalizePath(path))

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.files[key]
	if !ok {
		return FileState{}, false
	}
	st := FileState{Entry: rec.entry}
	if len(rec.symbols) > 0 {
		st.Symbols = make([]types.SymbolEntry, len(rec.symbols))
		copy(st.Symbols, rec.symbols)
	}
	if len(rec.imports) > 0 {
		st.Imports = make([]types.ImportReference, len(rec.imports))
		copy(st.Imports, rec.imports)
	}
	return st, true
}

// Has reports whether a workspace-relative path is indexed. It
// satisfies the import resolver's PathSet.
func (s *Store) Has(relPath string) bool {
	key := types.PathKey(types.NormalizePath(relPath))

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.files[key]
	return ok
}

func (s *Store) FileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.files)
}

func (s *Store) Stats() types.IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.IndexStats{
		FileCount:   len(s.files),
		SymbolCount: s.symbolCount,
		ImportCount: s.importCount,
	}
}

// VisitFiles calls fn for every file entry under the read lock until fn
// returns false. The pointer is only valid during the call; fn must not
// retain it or block.
func (s *Store) VisitFiles(fn func(entry *types.FileEntry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.files {
		if !fn(&rec.entry) {
			return
		}
	}
}

// VisitSymbols streams every symbol entry under the read lock until fn
// returns false. Same retention rules as VisitFiles.
func (s *Store) VisitSymbols(fn func(sym *types.SymbolEntry) bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rec := range s.files {
		for i := range rec.symbols {
			if !fn(&rec.symbols[i]) {
				return
			}
		}
	}
}

func (s *Store) addSymbolsLocked(key string, rec *fileRecord) {
	for i := range rec.symbols {
		lower := strings.ToLower(rec.symbols[i].Name)
		s.byName[lower] = append(s.byName[lower], symbolLoc{fileKey: key, index: i})
	}
	s.symbolCount += len(rec.symbols)
}

func (s *Store) dropSymbolsLocked(key string, rec *fileRecord) {
	for i := range rec.symbols {
		lower := strings.ToLower(rec.symbols[i].Name)
		locs := s.byName[lower]
		kept := locs[:0]
		for _, loc := range locs {
			if loc.fileKey != key {
				kept = append(kept, loc)
			}
		}
		if len(kept) == 0 {
			delete(s.byName, lower)
		} else {
			s.byName[lower] = kept
		}
	}
	s.symbolCount -= len(rec.symbols)
	rec.symbols = nil
}

func (s *Store) addImportsLocked(key string, rec *fileRecord) {
	for _, imp := range rec.imports {
		if imp.Kind != types.ImportInternal || imp.ResolvedPath == "" {
			continue
		}
		target := types.PathKey(imp.ResolvedPath)
		set, ok := s.importers[target]
		if !ok {
			set = make(map[string]struct{})
			s.importers[target] = set
		}
		set[key] = struct{}{}
	}
	s.importCount += len(rec.imports)
}

func (s *Store) dropImportsLocked(key string, rec *fileRecord) {
	for _, imp := range rec.imports {
		if imp.Kind != types.ImportInternal || imp.ResolvedPath == "" {
			continue
		}
		target := types.PathKey(imp.ResolvedPath)
		if set, ok := s.importers[target]; ok {
			delete(set, key)
			if len(set) == 0 {
				delete(s.importers, target)
			}
		}
	}
	s.importCount -= len(rec.imports)
	rec.imports = nil
}
