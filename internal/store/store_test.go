package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/standardbeagle/wci/internal/types"
)

func entry(path string, hash uint64) types.FileEntry {
	return types.FileEntry{
		Path:        path,
		AbsPath:     "/ws/" + path,
		Language:    types.LangCSharp,
		SizeBytes:   int64(100),
		ContentHash: hash,
	}
}

func symbol(name, file string, line int) types.SymbolEntry {
	return types.SymbolEntry{
		Name:     name,
		Kind:     types.KindClass,
		FilePath: file,
		Line:     line,
	}
}

func internalImport(from, raw, resolved string) types.ImportReference {
	return types.ImportReference{
		ImporterPath: from,
		ImportedPath: raw,
		Kind:         types.ImportInternal,
		ResolvedPath: resolved,
	}
}

func TestCommitAndRead(t *testing.T) {
	s := New()
	s.CommitFile(entry("src/App.cs", 1),
		[]types.SymbolEntry{symbol("App", "src/App.cs", 3)},
		[]types.ImportReference{internalImport("src/App.cs", "Core.Util", "src/Util.cs")})

	got, ok := s.GetFile("src/App.cs")
	if !ok {
		t.Fatal("committed file not found")
	}
	if got.ContentHash != 1 {
		t.Errorf("hash = %d, want 1", got.ContentHash)
	}

	syms := s.SymbolsByFile("src/App.cs")
	if len(syms) != 1 || syms[0].Name != "App" {
		t.Errorf("symbols = %v, want [App]", syms)
	}

	imps := s.ImportsOf("src/App.cs")
	if len(imps) != 1 || imps[0].ResolvedPath != "src/Util.cs" {
		t.Errorf("imports = %v, want resolved src/Util.cs", imps)
	}
}

func TestCaseInsensitiveKeys(t *testing.T) {
	s := New()
	s.CommitFile(entry("src/App.cs", 1), nil, nil)

	if _, ok := s.GetFile("SRC/APP.CS"); !ok {
		t.Error("case-variant lookup missed the entry")
	}
	if !s.Has("Src/App.Cs") {
		t.Error("Has is not case-insensitive")
	}

	// A case-variant write is a collision; most recent write wins.
	s.CommitFile(entry("src/app.cs", 2), nil, nil)
	all := s.AllFiles()
	if len(all) != 1 {
		t.Fatalf("file count = %d, want 1 after collision", len(all))
	}
	if all[0].Path != "src/app.cs" || all[0].ContentHash != 2 {
		t.Errorf("surviving entry = %+v, want most recent write", all[0])
	}
}

func TestFindSymbolsByName(t *testing.T) {
	s := New()
	s.CommitFile(entry("b.cs", 1), []types.SymbolEntry{symbol("Parse", "b.cs", 10)}, nil)
	s.CommitFile(entry("a.cs", 1), []types.SymbolEntry{
		symbol("Parse", "a.cs", 20),
		symbol("Render", "a.cs", 30),
	}, nil)

	got := s.FindSymbolsByName("parse")
	if len(got) != 2 {
		t.Fatalf("found %d symbols, want 2", len(got))
	}
	if got[0].FilePath != "a.cs" || got[1].FilePath != "b.cs" {
		t.Errorf("order = [%s, %s], want path ascending", got[0].FilePath, got[1].FilePath)
	}
}

func TestReplaceSymbolsUpdatesNameIndex(t *testing.T) {
	s := New()
	s.CommitFile(entry("a.cs", 1), []types.SymbolEntry{symbol("OldName", "a.cs", 1)}, nil)

	if ok := s.ReplaceSymbols("a.cs", []types.SymbolEntry{symbol("NewName", "a.cs", 1)}); !ok {
		t.Fatal("ReplaceSymbols failed for existing file")
	}
	if got := s.FindSymbolsByName("OldName"); len(got) != 0 {
		t.Errorf("stale name still indexed: %v", got)
	}
	if got := s.FindSymbolsByName("NewName"); len(got) != 1 {
		t.Errorf("new name not indexed: %v", got)
	}
}

func TestReplaceSymbolsUnknownFile(t *testing.T) {
	s := New()
	if ok := s.ReplaceSymbols("ghost.cs", []types.SymbolEntry{symbol("X", "ghost.cs", 1)}); ok {
		t.Error("ReplaceSymbols succeeded for unknown file")
	}
}

func TestReverseImports(t *testing.T) {
	s := New()
	s.CommitFile(entry("util.cs", 1), nil, nil)
	s.CommitFile(entry("a.cs", 1), nil,
		[]types.ImportReference{internalImport("a.cs", "Util", "util.cs")})
	s.CommitFile(entry("b.cs", 1), nil,
		[]types.ImportReference{internalImport("b.cs", "Util", "util.cs")})

	importers := s.ImportersOf("util.cs")
	if len(importers) != 2 || importers[0] != "a.cs" || importers[1] != "b.cs" {
		t.Fatalf("importers = %v, want [a.cs b.cs]", importers)
	}

	// Dropping a.cs's import of util.cs removes its reverse appearance.
	if ok := s.ReplaceImports("a.cs", nil); !ok {
		t.Fatal("ReplaceImports failed")
	}
	importers = s.ImportersOf("util.cs")
	if len(importers) != 1 || importers[0] != "b.cs" {
		t.Errorf("importers = %v, want [b.cs]", importers)
	}
}

func TestRemoveFileCascades(t *testing.T) {
	s := New()
	s.CommitFile(entry("util.cs", 1), []types.SymbolEntry{symbol("Util", "util.cs", 1)}, nil)
	s.CommitFile(entry("a.cs", 1),
		[]types.SymbolEntry{symbol("A", "a.cs", 1)},
		[]types.ImportReference{internalImport("a.cs", "Util", "util.cs")})

	if !s.RemoveFile("a.cs") {
		t.Fatal("RemoveFile returned false for existing file")
	}
	if _, ok := s.GetFile("a.cs"); ok {
		t.Error("entry survived removal")
	}
	if got := s.FindSymbolsByName("A"); len(got) != 0 {
		t.Error("symbols survived removal")
	}
	if imp := s.ImportersOf("util.cs"); len(imp) != 0 {
		t.Errorf("reverse entries survived removal: %v", imp)
	}

	// Removing the target clears the reverse entries pointing at it.
	s.CommitFile(entry("b.cs", 1), nil,
		[]types.ImportReference{internalImport("b.cs", "Util", "util.cs")})
	if !s.RemoveFile("util.cs") {
		t.Fatal("RemoveFile returned false for util.cs")
	}
	if imp := s.ImportersOf("util.cs"); len(imp) != 0 {
		t.Errorf("reverse entries for removed target remain: %v", imp)
	}

	stats := s.Stats()
	if stats.FileCount != 1 {
		t.Errorf("file count = %d, want 1", stats.FileCount)
	}
}

func TestRemoveMissingFile(t *testing.T) {
	s := New()
	if s.RemoveFile("nope.cs") {
		t.Error("RemoveFile returned true for missing file")
	}
}

func TestStatsCounters(t *testing.T) {
	s := New()
	s.CommitFile(entry("a.cs", 1),
		[]types.SymbolEntry{symbol("A", "a.cs", 1), symbol("B", "a.cs", 2)},
		[]types.ImportReference{internalImport("a.cs", "X", "")})

	stats := s.Stats()
	if stats.FileCount != 1 || stats.SymbolCount != 2 || stats.ImportCount != 1 {
		t.Errorf("stats = %+v, want 1 file / 2 symbols / 1 import", stats)
	}

	s.CommitFile(entry("a.cs", 2), []types.SymbolEntry{symbol("A", "a.cs", 1)}, nil)
	stats = s.Stats()
	if stats.SymbolCount != 1 || stats.ImportCount != 0 {
		t.Errorf("stats after recommit = %+v, want 1 symbol / 0 imports", stats)
	}

	s.RemoveFile("a.cs")
	stats = s.Stats()
	if stats.FileCount != 0 || stats.SymbolCount != 0 || stats.ImportCount != 0 {
		t.Errorf("stats after removal = %+v, want zeros", stats)
	}
}

func TestUpsertKeepsTables(t *testing.T) {
	s := New()
	s.CommitFile(entry("a.cs", 1), []types.SymbolEntry{symbol("A", "a.cs", 1)}, nil)

	e := entry("a.cs", 1)
	e.SizeBytes = 999
	s.UpsertFile(e)

	got, _ := s.GetFile("a.cs")
	if got.SizeBytes != 999 {
		t.Errorf("size = %d, want refreshed 999", got.SizeBytes)
	}
	if syms := s.SymbolsByFile("a.cs"); len(syms) != 1 {
		t.Errorf("symbols after upsert = %d, want untouched 1", len(syms))
	}
}

func TestVisitFilesEarlyStop(t *testing.T) {
	s := New()
	for i := 0; i < 10; i++ {
		s.CommitFile(entry(fmt.Sprintf("f%d.cs", i), 1), nil, nil)
	}
	seen := 0
	s.VisitFiles(func(*types.FileEntry) bool {
		seen++
		return seen < 3
	})
	if seen != 3 {
		t.Errorf("visited %d entries, want stop at 3", seen)
	}
}

func TestAtomicPerFileVisibility(t *testing.T) {
	s := New()
	const path = "src/App.cs"

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				st, ok := s.State(path)
				if !ok {
					continue
				}
				for _, sym := range st.Symbols {
					if sym.Line != int(st.Entry.ContentHash) {
						t.Errorf("symbol from pass %d visible with entry hash %d",
							sym.Line, st.Entry.ContentHash)
						return
					}
				}
			}
		}()
	}

	for v := 1; v <= 500; v++ {
		syms := make([]types.SymbolEntry, v%4)
		for i := range syms {
			syms[i] = symbol(fmt.Sprintf("S%d", i), path, v)
		}
		s.CommitFile(entry(path, uint64(v)), syms, nil)
	}
	close(stop)
	wg.Wait()
}
