package extract

import (
	"regexp"

	"github.com/standardbeagle/wci/internal/types"
)

// TypeScript rule table. Type aliases index as class symbols since the
// symbol kind set folds type-like declarations together.
var typescriptRules = []rule{
	{
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?class\s+([A-Za-z_$]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindInterface,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?interface\s+([A-Za-z_$]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindEnum,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?(?:const\s+)?enum\s+([A-Za-z_$]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?type\s+([A-Za-z_$]\w*)(?:<[^>]*>)?\s*=`),
		nameGroup: 1,
	},
	{
		kind:      types.KindFunction,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:declare\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$]\w*)\s*[(<]`),
		nameGroup: 1,
	},
	{
		// Arrow functions bound to const/let/var, with or without a
		// parameter list in parentheses.
		kind:      types.KindFunction,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$]\w*)[^=]*=\s*(?:async\s+)?(?:\([^)]*\)(?:\s*:[^=]*)?|[A-Za-z_$]\w*)\s*=>`),
		nameGroup: 1,
	},
	{
		kind:      types.KindConstant,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$]\w*)`),
		nameGroup: 1,
	},
	{
		kind:       types.KindProperty,
		re:         regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|abstract)\s+)*(?:get|set)\s+([A-Za-z_$]\w*)\s*\(`),
		nameGroup:  1,
		needsScope: true,
	},
	{
		kind:       types.KindMethod,
		re:         regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|abstract|async|override)\s+)*([A-Za-z_$]\w*)\s*(?:<[^>]*>)?\s*\([^)]*\)\s*(?::[^{;]*)?\s*\{`),
		nameGroup:  1,
		needsScope: true,
		reject:     words("if", "for", "while", "switch", "catch", "function", "return", "constructor", "super"),
	},
	{
		// Class fields with an access modifier.
		kind:       types.KindField,
		re:         regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|readonly|abstract|declare)\s+)+([A-Za-z_$]\w*)\s*[?!]?\s*[:=]`),
		nameGroup:  1,
		needsScope: true,
	},
	{
		// Interface method signatures end in ";" rather than a body.
		kind:       types.KindMethod,
		re:         regexp.MustCompile(`^\s*([A-Za-z_$]\w*)\s*(?:<[^>]*>)?\s*\([^)]*\)\s*:\s*[^;{]+;\s*$`),
		nameGroup:  1,
		needsScope: true,
		reject:     words("if", "for", "while", "switch", "catch"),
	},
	{
		// Bare interface members: "name: Type;".
		kind:       types.KindField,
		re:         regexp.MustCompile(`^\s*([A-Za-z_$]\w*)\s*\??\s*:\s*[^;{]+;\s*$`),
		nameGroup:  1,
		needsScope: true,
	},
}

// JavaScript shares the TypeScript shapes minus the type-system rules.
var javascriptRules = []rule{
	{
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?class\s+([A-Za-z_$]\w*)`),
		nameGroup: 1,
	},
	{
		kind:      types.KindFunction,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$]\w*)\s*\(`),
		nameGroup: 1,
	},
	{
		kind:      types.KindFunction,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$]\w*)\s*=\s*(?:async\s+)?(?:\([^)]*\)|[A-Za-z_$]\w*)\s*=>`),
		nameGroup: 1,
	},
	{
		kind:      types.KindConstant,
		re:        regexp.MustCompile(`^\s*(?:export\s+)?const\s+([A-Za-z_$]\w*)`),
		nameGroup: 1,
	},
	{
		kind:       types.KindProperty,
		re:         regexp.MustCompile(`^\s*(?:(?:static|async)\s+)*(?:get|set)\s+([A-Za-z_$]\w*)\s*\(`),
		nameGroup:  1,
		needsScope: true,
	},
	{
		kind:       types.KindMethod,
		re:         regexp.MustCompile(`^\s*(?:(?:static|async)\s+)*([A-Za-z_$]\w*)\s*\([^)]*\)\s*\{`),
		nameGroup:  1,
		needsScope: true,
		reject:     words("if", "for", "while", "switch", "catch", "function", "return", "constructor", "super"),
	},
}

func typescriptVisibility(line, name string) types.Visibility {
	switch {
	case hasModifier(line, "private"):
		return types.VisibilityPrivate
	case hasModifier(line, "protected"):
		return types.VisibilityProtected
	case hasModifier(line, "public"):
		return types.VisibilityPublic
	case hasModifier(line, "export"):
		return types.VisibilityPublic
	}
	return types.VisibilityNone
}
