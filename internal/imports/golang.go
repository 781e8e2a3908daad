package imports

import (
	"path"
	"regexp"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

var (
	goImportSingle = regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	goImportBlock  = regexp.MustCompile(`^import\s*\(`)
	goImportMember = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)
)

// goScanner reads single and grouped import declarations. Module-path
// imports are probed as workspace directories, both with the full path
// and with a leading host/owner/repo prefix stripped; anything that
// does not land on a known file stays external.
type goScanner struct {
	limit int
}

func (s *goScanner) Language() types.LanguageID { return types.LangGo }

func (s *goScanner) Scan(importerPath, text string, files PathSet) []types.ImportReference {
	var refs []types.ImportReference
	inBlock := false
	for _, raw := range strings.Split(text, "\n") {
		if len(refs) >= s.limit {
			break
		}
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		if inBlock {
			if strings.HasPrefix(trimmed, ")") {
				inBlock = false
				continue
			}
			if m := goImportMember.FindStringSubmatch(line); m != nil {
				refs = append(refs, s.reference(importerPath, m[1], files))
			}
			continue
		}
		if goImportBlock.MatchString(line) {
			inBlock = true
			continue
		}
		if m := goImportSingle.FindStringSubmatch(line); m != nil {
			refs = append(refs, s.reference(importerPath, m[1], files))
		}
	}
	return refs
}

func (s *goScanner) reference(importerPath, imp string, files PathSet) types.ImportReference {
	ref := types.ImportReference{
		ImporterPath: importerPath,
		ImportedPath: imp,
	}
	resolve(&ref, files, goCandidates(imp))
	return ref
}

// goCandidates maps an import path to likely package files. A package
// directory usually carries a file named after itself or a doc.go, so
// those two are probed for the path as written and for the path with
// its module prefix removed.
func goCandidates(imp string) []string {
	rels := []string{imp}
	if parts := strings.Split(imp, "/"); len(parts) > 3 && strings.Contains(parts[0], ".") {
		rels = append(rels, strings.Join(parts[3:], "/"))
	}
	var out []string
	for _, rel := range rels {
		base := path.Base(rel)
		out = append(out, path.Join(rel, base+".go"), path.Join(rel, "doc.go"))
	}
	return out
}
