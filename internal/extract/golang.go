package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/standardbeagle/wci/internal/types"
)

// Go rule table for single-line declarations. Grouped const/var blocks
// are stateful and handled by goExtractor before these rules run.
var goRules = []rule{
	{
		kind:      types.KindMethod,
		re:        regexp.MustCompile(`^func\s+\(\s*(?:[A-Za-z_]\w*\s+)?\*?\s*([A-Za-z_]\w*)(?:\[[^\]]*\])?\s*\)\s+([A-Za-z_]\w*)`),
		nameGroup: 2,
		parentGrp: 1,
	},
	{
		kind:      types.KindStruct,
		re:        regexp.MustCompile(`^type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+struct\b`),
		nameGroup: 1,
	},
	{
		kind:      types.KindInterface,
		re:        regexp.MustCompile(`^type\s+([A-Za-z_]\w*)(?:\[[^\]]*\])?\s+interface\b`),
		nameGroup: 1,
	},
	{
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^type\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindFunction,
		re:        regexp.MustCompile(`^func\s+([A-Za-z_]\w*)\s*[(\[]`),
		nameGroup: 1,
	},
	{
		kind:      types.KindConstant,
		re:        regexp.MustCompile(`^const\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindField,
		re:        regexp.MustCompile(`^var\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		// Interface method signatures: "Name(args) results" indented
		// under an open type scope.
		kind:       types.KindMethod,
		re:         regexp.MustCompile(`^\s+([A-Za-z_]\w*)\s*\(`),
		nameGroup:  1,
		needsScope: true,
	},
	{
		kind:       types.KindField,
		re:         regexp.MustCompile(`^\s+([A-Za-z_]\w*)\s+[\w*\[\].&<-]`),
		nameGroup:  1,
		needsScope: true,
	},
}

var (
	goGroupOpen   = regexp.MustCompile(`^(const|var)\s*\(\s*(?://.*)?$`)
	goGroupMember = regexp.MustCompile(`^\s*([A-Za-z_]\w*)`)
)

// goExtractor layers const/var group tracking over the shared rule
// scanner. Inside a group every member line emits one symbol of the
// group's kind.
type goExtractor struct {
	*ruleExtractor
}

func newGoExtractor(limits Limits) *goExtractor {
	return &goExtractor{newRuleExtractor(types.LangGo, limits, goRules, "//", goVisibility)}
}

func (e *goExtractor) Extract(path, text string) []types.SymbolEntry {
	var (
		syms  []types.SymbolEntry
		sc    scope
		block types.SymbolKind
	)
	lines := strings.Split(text, "\n")
	for i, raw := range lines {
		if len(syms) >= e.limits.MaxSymbols {
			break
		}
		line := strings.TrimSuffix(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(line)
		sc.closeIfDedented(indent, trimmed)
		if strings.HasPrefix(trimmed, "//") {
			continue
		}
		if block != types.KindNone {
			if strings.HasPrefix(trimmed, ")") {
				block = types.KindNone
				continue
			}
			m := goGroupMember.FindStringSubmatchIndex(line)
			if m == nil {
				continue
			}
			name := groupText(line, m, 1)
			if name == "_" {
				continue
			}
			syms = append(syms, types.SymbolEntry{
				Name:       name,
				Kind:       block,
				FilePath:   path,
				Line:       i + 1,
				Column:     m[2],
				Signature:  truncate(trimmed, e.limits.MaxSignature),
				Visibility: goVisibility(line, name),
			})
			continue
		}
		if m := goGroupOpen.FindStringSubmatchIndex(line); m != nil {
			if groupText(line, m, 1) == "const" {
				block = types.KindConstant
			} else {
				block = types.KindField
			}
			continue
		}
		if entry, ok := e.scanLine(path, line, trimmed, i+1, indent, &sc); ok {
			syms = append(syms, entry)
		}
	}
	return syms
}

func goVisibility(_, name string) types.Visibility {
	r, _ := utf8.DecodeRuneInString(name)
	if unicode.IsUpper(r) {
		return types.VisibilityPublic
	}
	return types.VisibilityPrivate
}
