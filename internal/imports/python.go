package imports

import (
	"path"
	"regexp"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

var (
	pythonImport = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\s*,\s*[\w.]+)*)`)
	pythonFrom   = regexp.MustCompile(`^\s*from\s+([.\w]+)\s+import\s+`)
)

// pythonScanner reads import and from-import statements. Leading dots
// on a from-import walk up from the importer's package directory; plain
// module paths are probed from the workspace root and the importer's
// directory, as both module files and packages.
type pythonScanner struct {
	limit int
}

func (s *pythonScanner) Language() types.LanguageID { return types.LangPython }

func (s *pythonScanner) Scan(importerPath, text string, files PathSet) []types.ImportReference {
	var refs []types.ImportReference
	for _, raw := range strings.Split(text, "\n") {
		if len(refs) >= s.limit {
			break
		}
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if m := pythonFrom.FindStringSubmatch(line); m != nil {
			refs = append(refs, s.reference(importerPath, m[1], files))
			continue
		}
		if m := pythonImport.FindStringSubmatch(line); m != nil {
			for _, mod := range strings.Split(m[1], ",") {
				if len(refs) >= s.limit {
					break
				}
				mod = strings.TrimSpace(mod)
				if i := strings.Index(mod, " as "); i >= 0 {
					mod = mod[:i]
				}
				if mod == "" {
					continue
				}
				refs = append(refs, s.reference(importerPath, mod, files))
			}
		}
	}
	return refs
}

func (s *pythonScanner) reference(importerPath, mod string, files PathSet) types.ImportReference {
	ref := types.ImportReference{
		ImporterPath: importerPath,
		ImportedPath: mod,
	}
	resolve(&ref, files, pythonCandidates(importerPath, mod))
	return ref
}

func pythonCandidates(importerPath, mod string) []string {
	dots := 0
	for dots < len(mod) && mod[dots] == '.' {
		dots++
	}
	rest := dotted(mod[dots:])

	var bases []string
	if dots > 0 {
		// One leading dot is the importer's own package; each further
		// dot walks one directory up.
		base := path.Dir(types.NormalizePath(importerPath))
		for i := 1; i < dots; i++ {
			base = path.Dir(base)
		}
		bases = append(bases, path.Join(base, rest))
	} else {
		bases = append(bases, rest)
		if joined := joinImporter(importerPath, rest); joined != "" {
			bases = append(bases, joined)
		}
	}

	var out []string
	for _, b := range bases {
		if b == "" || b == "." {
			continue
		}
		out = append(out, b+".py", path.Join(b, "__init__.py"))
	}
	return out
}
