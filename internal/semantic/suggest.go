package semantic

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"
)

// Suggester ranks alternatives for queries that matched nothing. It is
// not part of the ranked search path; it runs once per zero-result
// query against a bounded sample of indexed names.
type Suggester struct {
	stemmer   *Stemmer
	threshold float64
	maxSample int
}

func NewSuggester() *Suggester {
	return &Suggester{
		stemmer:   NewStemmer(3),
		threshold: 0.75,
		maxSample: 2000,
	}
}

// Suggest returns up to max names similar to query, best first.
// Similarity combines Jaro-Winkler distance with a bonus for shared
// word stems. Candidates past the sample bound are ignored; on a huge
// index suggestion quality degrades instead of scan time growing.
func (s *Suggester) Suggest(query string, candidates []string, max int) []string {
	if query == "" || max <= 0 {
		return nil
	}
	queryLower := strings.ToLower(query)
	queryStems := s.stemmer.stemSet(SplitName(query))

	type scored struct {
		name string
		sim  float64
	}
	var ranked []scored
	seen := make(map[string]bool)
	sampled := 0
	for _, cand := range candidates {
		if sampled >= s.maxSample {
			break
		}
		sampled++
		if seen[cand] || strings.EqualFold(cand, query) {
			continue
		}
		seen[cand] = true
		sim, err := edlib.StringsSimilarity(queryLower, strings.ToLower(cand), edlib.JaroWinkler)
		if err != nil {
			continue
		}
		score := float64(sim) + 0.15*stemOverlap(queryStems, s.stemmer.stemSet(SplitName(cand)))
		if score >= s.threshold {
			ranked = append(ranked, scored{name: cand, sim: score})
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].sim != ranked[j].sim {
			return ranked[i].sim > ranked[j].sim
		}
		return ranked[i].name < ranked[j].name
	})
	if len(ranked) > max {
		ranked = ranked[:max]
	}
	names := make([]string, len(ranked))
	for i, r := range ranked {
		names[i] = r.name
	}
	return names
}

// stemOverlap is the fraction of query stems present in the candidate.
func stemOverlap(query, candidate map[string]bool) float64 {
	if len(query) == 0 {
		return 0
	}
	shared := 0
	for stem := range query {
		if candidate[stem] {
			shared++
		}
	}
	return float64(shared) / float64(len(query))
}
