// Package fuzzy scores query/candidate name pairs on a fixed tier
// ladder and collects ranked results under a latency deadline. Scoring
// is pure and deterministic: identical inputs always produce identical
// scores and orderings.
package fuzzy

import (
	"context"
	"sort"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/standardbeagle/wci/internal/types"
)

// Score tiers. First matching tier wins, comparison is case-insensitive
// throughout.
// Rationale: exact and prefix hits must dominate everything else, the
// prefix bonus rewards longer (more specific) queries, and the
// subsequence tier keeps abbreviation queries like "fevm" alive without
// letting them outrank real substrings.
const (
	ScoreExact       = 1000
	ScorePrefixBase  = 500
	ScoreWordStart   = 300
	ScoreSubstring   = 100
	ScoreSubsequence = 50
)

// Score rates candidate against query. Zero means no match and the
// candidate is excluded. The comparison allocates nothing, so callers
// can run it across every indexed name per keystroke.
func Score(query, candidate string) int {
	if foldEqual(query, candidate) {
		return ScoreExact
	}
	if foldHasPrefix(candidate, query) {
		return ScorePrefixBase + utf8.RuneCountInString(query)
	}
	if matchesWordStart(candidate, query) {
		return ScoreWordStart
	}
	if foldContains(candidate, query) {
		return ScoreSubstring
	}
	if foldSubsequence(candidate, query) {
		return ScoreSubsequence
	}
	return 0
}

// Search scores every name, sorts score descending with name-ascending
// ties, and truncates to max. Cancellation returns whatever was scored
// so far.
func Search(ctx context.Context, query string, names []string, max int) []types.SearchResult {
	col := NewCollector(ctx, query, max, 0)
	for _, n := range names {
		score, cont := col.Match(n)
		if score > 0 {
			col.Collect(types.SearchResult{Name: n, Score: score})
		}
		if !cont {
			break
		}
	}
	results, _ := col.Finish()
	return results
}

// Collector accumulates scored matches from a candidate scan. The full
// candidate set is scored before any truncation; only Finish cuts the
// ranked list down to max. The deadline and context are polled every
// few candidates so a scan over a large index stays inside the latency
// budget and degrades to partial results instead of failing.
type Collector struct {
	ctx      context.Context
	query    string
	max      int
	deadline time.Time
	seen     int
	partial  bool
	results  []types.SearchResult
}

// checkEvery balances deadline accuracy against time.Now cost on the
// hot scan path.
const checkEvery = 32

func NewCollector(ctx context.Context, query string, max int, budget time.Duration) *Collector {
	c := &Collector{ctx: ctx, query: query, max: max}
	if budget > 0 {
		c.deadline = time.Now().Add(budget)
	}
	return c
}

// Match scores one candidate name. The second return value is false
// once the deadline passed or the context was cancelled; the caller
// stops scanning and Finish returns the partial set.
func (c *Collector) Match(name string) (int, bool) {
	c.seen++
	if c.seen%checkEvery == 0 {
		if c.ctx != nil && c.ctx.Err() != nil {
			c.partial = true
			return 0, false
		}
		if !c.deadline.IsZero() && time.Now().After(c.deadline) {
			c.partial = true
			return 0, false
		}
	}
	return Score(c.query, name), true
}

// Collect records a scored result. Callers only build the result value
// after Match returned a positive score, keeping rejected candidates
// allocation-free.
func (c *Collector) Collect(r types.SearchResult) {
	c.results = append(c.results, r)
}

// Finish sorts score-descending with ties broken by name then path
// ascending, truncates to max, and reports whether the scan was cut
// short.
func (c *Collector) Finish() ([]types.SearchResult, bool) {
	sort.Slice(c.results, func(i, j int) bool {
		a, b := c.results[i], c.results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
	if c.max > 0 && len(c.results) > c.max {
		c.results = c.results[:c.max]
	}
	return c.results, c.partial
}

func foldRune(r rune) rune {
	if r < utf8.RuneSelf {
		if 'A' <= r && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}
	return unicode.ToLower(r)
}

func foldEqual(a, b string) bool {
	for len(a) > 0 && len(b) > 0 {
		ra, na := utf8.DecodeRuneInString(a)
		rb, nb := utf8.DecodeRuneInString(b)
		if foldRune(ra) != foldRune(rb) {
			return false
		}
		a, b = a[na:], b[nb:]
	}
	return len(a) == 0 && len(b) == 0
}

// foldHasPrefix reports whether s starts with prefix, folding case.
func foldHasPrefix(s, prefix string) bool {
	for len(prefix) > 0 {
		if len(s) == 0 {
			return false
		}
		rp, np := utf8.DecodeRuneInString(prefix)
		rs, ns := utf8.DecodeRuneInString(s)
		if foldRune(rp) != foldRune(rs) {
			return false
		}
		prefix, s = prefix[np:], s[ns:]
	}
	return true
}

func foldContains(s, sub string) bool {
	if len(sub) == 0 {
		return true
	}
	for i := 0; i < len(s); {
		if foldHasPrefix(s[i:], sub) {
			return true
		}
		_, n := utf8.DecodeRuneInString(s[i:])
		i += n
	}
	return false
}

// matchesWordStart reports whether query matches inside candidate at a
// word boundary: the start of the string, a lowercase-to-uppercase
// transition, or the character after "_" or "-". Boundaries come from
// the candidate's original casing; only the comparison folds case, so
// "file" is a boundary match against both "my_file" and "MyFile".
func matchesWordStart(candidate, query string) bool {
	if len(query) == 0 {
		return false
	}
	prev := rune(0)
	first := true
	for i := 0; i < len(candidate); {
		r, n := utf8.DecodeRuneInString(candidate[i:])
		boundary := first || prev == '_' || prev == '-' ||
			(unicode.IsLower(prev) && unicode.IsUpper(r))
		if boundary && foldHasPrefix(candidate[i:], query) {
			return true
		}
		prev = r
		first = false
		i += n
	}
	return false
}

// foldSubsequence reports whether the runes of query appear in
// candidate in order, not necessarily adjacent.
func foldSubsequence(candidate, query string) bool {
	if len(query) == 0 {
		return false
	}
	for len(query) > 0 {
		if len(candidate) == 0 {
			return false
		}
		rq, nq := utf8.DecodeRuneInString(query)
		rc, nc := utf8.DecodeRuneInString(candidate)
		if foldRune(rq) == foldRune(rc) {
			query = query[nq:]
		}
		candidate = candidate[nc:]
	}
	return true
}
