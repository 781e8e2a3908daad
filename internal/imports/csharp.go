package imports

import (
	"path"
	"regexp"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

var (
	csharpUsing = regexp.MustCompile(`^\s*(?:global\s+)?using\s+(?:static\s+)?([\w.]+)\s*;`)
	csharpAlias = regexp.MustCompile(`^\s*(?:global\s+)?using\s+\w+\s*=\s*([\w.]+)\s*;`)
)

// csharpScanner reads namespace-style using directives. A namespace
// resolves internally when a matching .cs file exists under the
// workspace root or next to the importer; the common framework
// namespaces simply stay external.
type csharpScanner struct {
	limit int
}

func (s *csharpScanner) Language() types.LanguageID { return types.LangCSharp }

func (s *csharpScanner) Scan(importerPath, text string, files PathSet) []types.ImportReference {
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
		name := ""
		if m := csharpAlias.FindStringSubmatch(line); m != nil {
			name = m[1]
		} else if m := csharpUsing.FindStringSubmatch(line); m != nil {
			name = m[1]
		}
		if name == "" || name == "var" {
			continue
		}
		ref := types.ImportReference{
			ImporterPath: importerPath,
			ImportedPath: name,
		}
		rel := dotted(name)
		resolve(&ref, files, []string{
			rel + ".cs",
			joinImporter(importerPath, path.Base(rel)+".cs"),
		})
		refs = append(refs, ref)
	}
	return refs
}
