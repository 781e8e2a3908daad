package imports

import (
	"path"
	"regexp"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

var (
	moduleImport  = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(?:[^'"]*\s+from\s+)?['"]([^'"]+)['"]`)
	moduleExport  = regexp.MustCompile(`^\s*export\s+(?:type\s+)?[^'"]*\s+from\s+['"]([^'"]+)['"]`)
	moduleRequire = regexp.MustCompile(`^\s*(?:const|let|var)\s+[\w{}\s,:*]+=\s*require\s*\(\s*['"]([^'"]+)['"]`)
)

var tsExtensions = []string{".ts", ".tsx", ".mts", ".cts", ".js", ".jsx", ".mjs", ".cjs"}
var jsExtensions = []string{".js", ".jsx", ".mjs", ".cjs", ".ts", ".tsx"}

// moduleScanner handles the ES module and CommonJS import shapes shared
// by TypeScript and JavaScript. Relative specifiers resolve against the
// importer's directory with the usual extension and index probing; bare
// specifiers are package imports and stay external.
type moduleScanner struct {
	lang  types.LanguageID
	limit int
	exts  []string
}

func (s *moduleScanner) Language() types.LanguageID { return s.lang }

func (s *moduleScanner) Scan(importerPath, text string, files PathSet) []types.ImportReference {
	var refs []types.ImportReference
	for _, raw := range strings.Split(text, "\n") {
		if len(refs) >= s.limit {
			break
		}
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		specifier := ""
		if m := moduleImport.FindStringSubmatch(line); m != nil {
			specifier = m[1]
		} else if m := moduleExport.FindStringSubmatch(line); m != nil {
			specifier = m[1]
		} else if m := moduleRequire.FindStringSubmatch(line); m != nil {
			specifier = m[1]
		}
		if specifier == "" {
			continue
		}
		ref := types.ImportReference{
			ImporterPath: importerPath,
			ImportedPath: specifier,
		}
		resolve(&ref, files, s.candidates(importerPath, specifier))
		refs = append(refs, ref)
	}
	return refs
}

func (s *moduleScanner) candidates(importerPath, specifier string) []string {
	var base string
	switch {
	case strings.HasPrefix(specifier, "./"), strings.HasPrefix(specifier, "../"), specifier == ".", specifier == "..":
		base = joinImporter(importerPath, specifier)
	case strings.HasPrefix(specifier, "/"):
		base = strings.TrimPrefix(specifier, "/")
	default:
		return nil
	}
	if base == "" {
		return nil
	}
	out := make([]string, 0, 2*len(s.exts)+1)
	if path.Ext(base) != "" {
		out = append(out, base)
	}
	for _, ext := range s.exts {
		out = append(out, base+ext)
	}
	for _, ext := range s.exts {
		out = append(out, base+"/index"+ext)
	}
	return out
}
