// Package relevance ranks workspace files around the currently open
// file and packs the best of them into a bounded token budget for AI
// context injection.
package relevance

import (
	"path"
	"sort"
	"strings"

	"github.com/standardbeagle/wci/internal/debug"
	"github.com/standardbeagle/wci/internal/store"
	"github.com/standardbeagle/wci/internal/types"
)

// Signal weights. Scores are additive; each signal is judged
// independently of the others.
const (
	currentFileWeight = 100
	recencyBase       = 50
	recencyStep       = 5
	importWeight      = 30
	importerWeight    = 20
	siblingWeight     = 10
)

// Scorer ranks indexed files by relevance to the current editing
// position.
type Scorer struct {
	store *store.Store
}

func New(st *store.Store) *Scorer {
	return &Scorer{store: st}
}

// Rank scores every indexed file against the current file and the
// recency list, drops zero scores, orders by score descending with
// path-ascending ties, and packs the result into tokenBudget using the
// sizeBytes/4 estimate. Files are all-or-nothing: the first file that
// would overflow the budget ends the walk.
func (s *Scorer) Rank(currentFile string, recentlyEdited []string, tokenBudget int) []types.ContextFile {
	if tokenBudget <= 0 {
		tokenBudget = types.DefaultContextTokenBudget
	}
	currentKey := types.PathKey(currentFile)
	currentDir := strings.ToLower(path.Dir(types.NormalizePath(currentFile)))

	recencyRank := make(map[string]int, len(recentlyEdited))
	for i, p := range recentlyEdited {
		key := types.PathKey(p)
		if _, ok := recencyRank[key]; !ok {
			recencyRank[key] = i
		}
	}

	imported := make(map[string]bool)
	for _, ref := range s.store.ImportsOf(currentFile) {
		if ref.Kind == types.ImportInternal && ref.ResolvedPath != "" {
			imported[types.PathKey(ref.ResolvedPath)] = true
		}
	}
	importers := make(map[string]bool)
	for _, p := range s.store.ImportersOf(currentFile) {
		importers[types.PathKey(p)] = true
	}

	var scored []types.ContextFile
	s.store.VisitFiles(func(entry *types.FileEntry) bool {
		key := types.PathKey(entry.Path)
		score := 0
		if key == currentKey {
			score += currentFileWeight
		}
		if rank, ok := recencyRank[key]; ok {
			if bonus := recencyBase - recencyStep*rank; bonus > 0 {
				score += bonus
			}
		}
		if imported[key] {
			score += importWeight
		}
		if importers[key] {
			score += importerWeight
		}
		if strings.ToLower(path.Dir(types.NormalizePath(entry.Path))) == currentDir {
			score += siblingWeight
		}
		if score > 0 {
			scored = append(scored, types.ContextFile{
				Path:          entry.Path,
				Score:         score,
				TokenEstimate: types.EstimateTokens(entry.SizeBytes),
			})
		}
		return true
	})

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Path < scored[j].Path
	})

	packed := make([]types.ContextFile, 0, len(scored))
	total := 0
	for _, cf := range scored {
		if total+cf.TokenEstimate > tokenBudget {
			break
		}
		total += cf.TokenEstimate
		packed = append(packed, cf)
	}
	debug.LogContext("ranked %d files, packed %d into budget %d (used %d)", len(scored), len(packed), tokenBudget, total)
	return packed
}
