// Package extract turns source text into symbol entries using ordered
// line-anchored pattern rules per language. It is deliberately not a
// parser: one pass over the lines, first matching rule wins, and an
// indentation heuristic tracks the enclosing type for member symbols.
package extract

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/types"
)

// Extractor produces the symbol list for one language.
type Extractor interface {
	Language() types.LanguageID
	Extract(path, text string) []types.SymbolEntry
}

// Limits bound a single extraction pass.
// Rationale: malformed or generated source must degrade to a partial
// symbol list, never to an unbounded scan. The line budget guards
// against pathological lines (minified bundles, embedded data) even
// though RE2 matching itself cannot backtrack.
type Limits struct {
	MaxSymbols   int
	MaxSignature int
	LineBudget   time.Duration
}

// DefaultLimits returns the standard extraction bounds.
func DefaultLimits() Limits {
	return Limits{
		MaxSymbols:   types.DefaultMaxSymbolsPerFile,
		MaxSignature: types.DefaultMaxSignatureLen,
		LineBudget:   types.DefaultLineMatchBudget,
	}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.MaxSymbols <= 0 {
		l.MaxSymbols = d.MaxSymbols
	}
	if l.MaxSignature <= 0 {
		l.MaxSignature = d.MaxSignature
	}
	if l.LineBudget <= 0 {
		l.LineBudget = d.LineBudget
	}
	return l
}

// For returns the extractor for a language, or false when the language
// has no rule table (LangNone files are recorded but never extracted).
func For(lang types.LanguageID, limits Limits) (Extractor, bool) {
	limits = limits.withDefaults()
	switch lang {
	case types.LangCSharp:
		return newRuleExtractor(lang, limits, csharpRules, "//", csharpVisibility), true
	case types.LangTypeScript:
		return newRuleExtractor(lang, limits, typescriptRules, "//", typescriptVisibility), true
	case types.LangJavaScript:
		return newRuleExtractor(lang, limits, javascriptRules, "//", typescriptVisibility), true
	case types.LangPython:
		return newRuleExtractor(lang, limits, pythonRules, "#", pythonVisibility), true
	case types.LangGo:
		return newGoExtractor(limits), true
	default:
		return nil, false
	}
}

// rule is one line-anchored pattern. Rules are tried in table order and
// the first match on a line wins, so structural kinds must precede the
// member kinds that could also match the same line.
type rule struct {
	kind       types.SymbolKind
	re         *regexp.Regexp
	nameGroup  int
	parentKind types.SymbolKind // kind override while a parent scope is open
	parentGrp  int             // capture group naming the parent directly (Go receivers)
	needsScope bool            // only applies while a parent scope is open
	reject     map[string]bool // matched names that are keywords, not symbols
	rejectLead map[string]bool // leading tokens that mark a statement, not a declaration
}

type visibilityFunc func(line, name string) types.Visibility

type ruleExtractor struct {
	lang        types.LanguageID
	limits      Limits
	rules       []rule
	lineComment string
	visibility  visibilityFunc
}

func newRuleExtractor(lang types.LanguageID, limits Limits, rules []rule, comment string, vis visibilityFunc) *ruleExtractor {
	return &ruleExtractor{
		lang:        lang,
		limits:      limits,
		rules:       rules,
		lineComment: comment,
		visibility:  vis,
	}
}

func (e *ruleExtractor) Language() types.LanguageID { return e.lang }

// scope tracks the innermost structural symbol while scanning.
// A line indented at or below the opening line closes the scope,
// except a bare "{" line: brace-on-next-line style puts the opening
// brace at the declaration's own indentation.
type scope struct {
	name   string
	indent int
	open   bool
}

func (s *scope) closeIfDedented(indent int, trimmed string) {
	if s.open && indent <= s.indent && !strings.HasPrefix(trimmed, "{") {
		s.open = false
		s.name = ""
	}
}

func (e *ruleExtractor) Extract(path, text string) []types.SymbolEntry {
	var (
		syms []types.SymbolEntry
		sc   scope
	)
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		if len(syms) >= e.limits.MaxSymbols {
			debug.LogIndex("symbol cap reached in %s, stopping at line %d", path, i)
			break
		}
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(line)
		sc.closeIfDedented(indent, trimmed)
		if strings.HasPrefix(trimmed, e.lineComment) {
			continue
		}
		if entry, ok := e.scanLine(path, line, trimmed, i+1, indent, &sc); ok {
			syms = append(syms, entry)
		}
	}
	return syms
}

// scanLine tries each rule in order and emits at most one symbol.
// The per-line budget is checked between rules; once exceeded the rest
// of the line's rules are skipped and scanning moves on.
func (e *ruleExtractor) scanLine(path, line, trimmed string, lineNo, indent int, sc *scope) (types.SymbolEntry, bool) {
	start := time.Now()
	for ri := range e.rules {
		if time.Since(start) > e.limits.LineBudget {
			debug.LogIndex("line budget exceeded at %s:%d, skipping line", path, lineNo)
			return types.SymbolEntry{}, false
		}
		r := &e.rules[ri]
		if r.needsScope && !sc.open {
			continue
		}
		if r.rejectLead != nil && r.rejectLead[firstWord(trimmed)] {
			continue
		}
		m := r.re.FindStringSubmatchIndex(line)
		if m == nil {
			continue
		}
		name := groupText(line, m, r.nameGroup)
		if name == "" || r.reject[name] {
			continue
		}
		kind := r.kind
		if sc.open && r.parentKind != types.KindNone {
			kind = r.parentKind
		}
		entry := types.SymbolEntry{
			Name:       name,
			Kind:       kind,
			FilePath:   path,
			Line:       lineNo,
			Column:     m[2*r.nameGroup],
			Signature:  truncate(trimmed, e.limits.MaxSignature),
			Visibility: e.visibility(line, name),
		}
		if sc.open {
			entry.Parent = sc.name
		}
		if r.parentGrp > 0 {
			entry.Parent = cleanTypeName(groupText(line, m, r.parentGrp))
		}
		if opensScope(kind) {
			sc.name = name
			sc.indent = indent
			sc.open = true
		}
		return entry, true
	}
	return types.SymbolEntry{}, false
}

// opensScope reports whether a symbol becomes the parent of following
// members. Enums are structural for search purposes but their members
// are not extracted, so they do not open a scope.
func opensScope(kind types.SymbolKind) bool {
	switch kind {
	case types.KindClass, types.KindInterface, types.KindStruct:
		return true
	}
	return false
}

// indentOf counts leading whitespace characters. Tabs and spaces both
// count as one; mixed-indentation files degrade to approximate parents.
func indentOf(line string) int {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' {
			return i
		}
	}
	return len(line)
}

func firstWord(trimmed string) string {
	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		if !(c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9') {
			return trimmed[:i]
		}
	}
	return trimmed
}

func words(ws ...string) map[string]bool {
	m := make(map[string]bool, len(ws))
	for _, w := range ws {
		m[w] = true
	}
	return m
}

func groupText(line string, m []int, group int) string {
	lo, hi := m[2*group], m[2*group+1]
	if lo < 0 || hi < 0 {
		return ""
	}
	return line[lo:hi]
}

// truncate cuts s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// cleanTypeName strips pointer, generic and package qualifiers from a
// receiver or type expression, leaving the bare type name.
func cleanTypeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "*")
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return s
}
