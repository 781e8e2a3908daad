// Package semantic provides the word-level helpers behind "did you
// mean" suggestions and symbol-kind filters.
//
// # Core Components
//
// SplitName: breaks compound identifiers (camelCase, snake_case,
// kebab-case, digit runs) into lowercase words.
//
// Stemmer: reduces words to root forms with the Porter2 algorithm so
// "validate" and "validation" compare equal, with a minimum-length
// guard and an exclusion list.
//
// Suggester: ranks near-miss alternatives for zero-result queries by
// combining Jaro-Winkler similarity with stem overlap over a bounded
// candidate sample.
//
// KindResolver: maps user-supplied symbol-kind filters onto canonical
// kinds, accepting aliases, unambiguous prefixes, and close
// misspellings with a warning.
//
// Ranked query scoring does not go through this package; these helpers
// run only on cold paths (zero-result handling and parameter
// validation).
package semantic
