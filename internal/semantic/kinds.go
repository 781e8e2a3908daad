package semantic

import (
	"fmt"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/wci/internal/types"
)

// KindResolution reports how a user-supplied kind filter mapped onto a
// canonical symbol kind.
type KindResolution struct {
	Original  string
	Resolved  string // canonical name, empty when no match
	Kind      types.SymbolKind
	MatchType string // "exact", "alias", "prefix", "fuzzy", "none"
	Warning   string
}

// canonicalKinds lists filterable kinds in enum order; prefix
// resolution scans in this order.
var canonicalKinds = []types.SymbolKind{
	types.KindClass,
	types.KindInterface,
	types.KindStruct,
	types.KindEnum,
	types.KindFunction,
	types.KindMethod,
	types.KindProperty,
	types.KindField,
	types.KindConstant,
}

// kindAliases maps abbreviations and cross-language terms onto
// canonical kind names.
var kindAliases = map[string]string{
	"func":  "function",
	"fn":    "function",
	"def":   "function",
	"meth":  "method",
	"cls":   "class",
	"iface": "interface",
	"prop":  "property",
	"const": "constant",

	"var": "field",
	"let": "field",
	"val": "field",

	"protocol": "interface",
	"trait":    "interface",
	"record":   "class",
	"type":     "class",

	"classes":    "class",
	"interfaces": "interface",
	"structs":    "struct",
	"enums":      "enum",
	"functions":  "function",
	"methods":    "method",
	"properties": "property",
	"fields":     "field",
	"constants":  "constant",
}

// KindResolver validates and resolves symbol-kind filter inputs.
// Resolution priority: exact, alias, prefix (3+ chars), fuzzy
// (edit distance at most 2).
type KindResolver struct {
	byName map[string]types.SymbolKind
}

func NewKindResolver() *KindResolver {
	byName := make(map[string]types.SymbolKind, len(canonicalKinds))
	for _, k := range canonicalKinds {
		byName[k.String()] = k
	}
	return &KindResolver{byName: byName}
}

func (r *KindResolver) Resolve(input string) KindResolution {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return KindResolution{Original: input, MatchType: "none"}
	}

	if kind, ok := r.byName[normalized]; ok {
		return KindResolution{Original: input, Resolved: normalized, Kind: kind, MatchType: "exact"}
	}

	if canonical, ok := kindAliases[normalized]; ok {
		return KindResolution{Original: input, Resolved: canonical, Kind: r.byName[canonical], MatchType: "alias"}
	}

	if len(normalized) >= 3 {
		for _, k := range canonicalKinds {
			name := k.String()
			if strings.HasPrefix(name, normalized) {
				return KindResolution{
					Original:  input,
					Resolved:  name,
					Kind:      k,
					MatchType: "prefix",
					Warning:   fmt.Sprintf("%q interpreted as %q (prefix match)", input, name),
				}
			}
		}
	}

	if name, distance := r.closest(normalized); distance > 0 && distance <= 2 {
		return KindResolution{
			Original:  input,
			Resolved:  name,
			Kind:      r.byName[name],
			MatchType: "fuzzy",
			Warning:   fmt.Sprintf("%q interpreted as %q (did you mean %q?)", input, name, name),
		}
	}

	return KindResolution{
		Original:  input,
		MatchType: "none",
		Warning:   fmt.Sprintf("unknown symbol kind %q", input),
	}
}

func (r *KindResolver) closest(input string) (string, int) {
	best := ""
	bestDistance := int(^uint(0) >> 1)
	for _, k := range canonicalKinds {
		name := k.String()
		if d := edlib.LevenshteinDistance(input, name); d < bestDistance {
			bestDistance = d
			best = name
		}
	}
	return best, bestDistance
}

// ResolveAll resolves a comma-separated kind list, deduplicating the
// results and collecting warnings for inexact matches.
func (r *KindResolver) ResolveAll(input string) ([]types.SymbolKind, []string) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	var kinds []types.SymbolKind
	var warnings []string
	seen := make(map[types.SymbolKind]bool)
	for _, item := range strings.Split(input, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed == "" {
			continue
		}
		res := r.Resolve(trimmed)
		if res.Resolved != "" && !seen[res.Kind] {
			kinds = append(kinds, res.Kind)
			seen[res.Kind] = true
		}
		if res.Warning != "" {
			warnings = append(warnings, res.Warning)
		}
	}
	return kinds, warnings
}
