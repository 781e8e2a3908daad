// Package imports detects per-language import statements with
// line-anchored patterns and resolves them against the set of files
// known to the workspace. Unresolved imports are recorded as external
// references, never as errors.
package imports

import (
	"path"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

// PathSet answers whether a workspace-relative path is a known file.
// The orchestrator supplies a snapshot of the scan result during a full
// rebuild and the live store during incremental updates.
type PathSet interface {
	Has(relPath string) bool
}

// PathSetFunc adapts a plain function to the PathSet interface.
type PathSetFunc func(relPath string) bool

func (f PathSetFunc) Has(relPath string) bool { return f(relPath) }

// Scanner extracts the import references of one file. Implementations
// are stateless and safe for concurrent use.
type Scanner interface {
	Language() types.LanguageID
	Scan(importerPath, text string, files PathSet) []types.ImportReference
}

// For returns the import scanner for a language. The limit bounds how
// many references are recorded per file; zero or negative selects the
// default.
func For(lang types.LanguageID, limit int) (Scanner, bool) {
	if limit <= 0 {
		limit = types.DefaultMaxImportsPerFile
	}
	switch lang {
	case types.LangCSharp:
		return &csharpScanner{limit: limit}, true
	case types.LangTypeScript:
		return &moduleScanner{lang: types.LangTypeScript, limit: limit, exts: tsExtensions}, true
	case types.LangJavaScript:
		return &moduleScanner{lang: types.LangJavaScript, limit: limit, exts: jsExtensions}, true
	case types.LangPython:
		return &pythonScanner{limit: limit}, true
	case types.LangGo:
		return &goScanner{limit: limit}, true
	default:
		return nil, false
	}
}

// resolve tries candidate workspace paths in order and fills in the
// resolution fields of ref: the first known path wins and marks the
// import internal, otherwise the reference stays external.
func resolve(ref *types.ImportReference, files PathSet, candidates []string) {
	for _, c := range candidates {
		c = types.NormalizePath(c)
		if c == "" || c == "." {
			continue
		}
		if files.Has(c) {
			ref.Kind = types.ImportInternal
			ref.ResolvedPath = c
			return
		}
	}
	ref.Kind = types.ImportExternal
	ref.ResolvedPath = ""
}

// joinImporter resolves a relative specifier against the importer's
// directory. The result stays workspace-relative; specifiers that
// escape the workspace root come back empty.
func joinImporter(importerPath, specifier string) string {
	base := path.Dir(types.NormalizePath(importerPath))
	joined := path.Join(base, specifier)
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return ""
	}
	return joined
}

// dotted converts a dot-separated namespace or module path to a
// workspace-relative slash path.
func dotted(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
