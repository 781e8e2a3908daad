package extract

import (
	"regexp"
	"strings"

	"github.com/standardbeagle/wci/internal/types"
)

// Python rule table. A def inside an open class scope is a method;
// the same def at module level is a function. Only UPPER_CASE
// module-level assignments count as constants.
var pythonRules = []rule{
	{
		kind:      types.KindClass,
		re:        regexp.MustCompile(`^\s*class\s+([A-Za-z_]\w*)\s*[(:]`),
		nameGroup: 1,
	},
	{
		kind:       types.KindFunction,
		parentKind: types.KindMethod,
		re:         regexp.MustCompile(`^\s*(?:async\s+)?def\s+([A-Za-z_]\w*)\s*\(`),
		nameGroup:  1,
	},
	{
		kind:      types.KindConstant,
		re:        regexp.MustCompile(`^([A-Z][A-Z0-9_]*)\s*(?::[^=]+)?=`),
		nameGroup: 1,
	},
	{
		// Instance attributes assigned on self inside a class body.
		kind:       types.KindField,
		re:         regexp.MustCompile(`^\s+self\.([A-Za-z_]\w*)\s*(?::[^=]+)?=`),
		nameGroup:  1,
		needsScope: true,
	},
}

// pythonVisibility follows the underscore convention; the language has
// no declared access levels.
func pythonVisibility(_, name string) types.Visibility {
	if strings.HasPrefix(name, "_") {
		return types.VisibilityPrivate
	}
	return types.VisibilityNone
}
