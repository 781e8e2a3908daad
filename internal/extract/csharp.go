package extract

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

// C# rule table. Structural declarations come first so a line like
// "public sealed class Parser {" is never claimed by the method rule.
// Type expressions are matched as a single token, so generic types
// containing spaces ("Dictionary<string, int>") fall through; that is
// an accepted pattern-matching approximation.
var csharpRules = []rule{
	{
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:(?:public|private|protected|internal|static|abstract|sealed|partial|new|unsafe)\s+)*class\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindInterface,
		re:        regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:(?:public|private|protected|internal|partial|new|unsafe)\s+)*interface\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindStruct,
		re:        regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:(?:public|private|protected|internal|readonly|ref|partial|new|unsafe)\s+)*struct\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindEnum,
		re:        regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:(?:public|private|protected|internal|new)\s+)*enum\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		// Records index as class symbols.
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*(?:(?:public|private|protected|internal|sealed|abstract|partial)\s+)*record\s+(?:class\s+|struct\s+)?([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindConstant,
		re:        regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|new)\s+)*const\s+[\w<>\[\],.?]+\s+([A-Za-z_]\w*)`),
		nameGroup: 1,
	},
	{
		// Block-bodied or expression-bodied property: "int Count { get..." / "int Count => ...".
		kind:      types.KindProperty,
		re:        regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|virtual|override|abstract|sealed|new|required|unsafe)\s+)+[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*(?:\{|=>)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindMethod,
		re:        regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|virtual|override|abstract|sealed|async|new|extern|partial|unsafe)\s+)+[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*[(<]`),
		nameGroup: 1,
	},
	{
		// Interface members and abstract declarations end in ";" with no modifiers.
		kind:       types.KindMethod,
		re:         regexp.MustCompile(`^\s*[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*\([^)]*\)\s*;`),
		nameGroup:  1,
		needsScope: true,
		rejectLead: csharpStatementLeads,
	},
	{
		// Modifier-less method bodies inside a type. The ";" guard keeps
		// plain call statements from matching.
		kind:       types.KindMethod,
		re:         regexp.MustCompile(`^\s*[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*\([^;]*$`),
		nameGroup:  1,
		needsScope: true,
		rejectLead: csharpStatementLeads,
	},
	{
		kind:      types.KindField,
		re:        regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|readonly|volatile|new|required)\s+)+[\w<>\[\],.?]+\s+([A-Za-z_]\w*)\s*[=;]`),
		nameGroup: 1,
	},
}

var csharpStatementLeads = words(
	"if", "else", "for", "foreach", "while", "do", "switch", "case",
	"return", "throw", "await", "yield", "using", "lock", "try",
	"catch", "finally", "goto", "break", "continue", "var", "new",
)

func csharpVisibility(line, name string) types.Visibility {
	switch {
	case hasModifier(line, "public"):
		return types.VisibilityPublic
	case hasModifier(line, "protected"):
		return types.VisibilityProtected
	case hasModifier(line, "private"):
		return types.VisibilityPrivate
	case hasModifier(line, "internal"):
		return types.VisibilityInternal
	}
	return types.VisibilityNone
}

// hasModifier reports whether kw appears as one of the first tokens of
// the declaration, before any bracket or operator ends the modifier run.
func hasModifier(line, kw string) bool {
	fields := strings.Fields(line)
	if len(fields) > 8 {
		fields = fields[:8]
	}
	for _, f := range fields {
		if f == kw {
			return true
		}
		if strings.ContainsAny(f, "({=:") {
			break
		}
	}
	return false
}
