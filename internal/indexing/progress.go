package indexing

import "sync/atomic"

const progressShards = 8

// Progress counts one rebuild or update pass. Ticks land on a shard
// picked by a cheap path hash so parallel workers rarely contend on the
// same counter; Snapshot sums the shards on demand.
type Progress struct {
	totalFiles atomic.Int64
	processed  [progressShards]atomic.Int64
	symbols    [progressShards]atomic.Int64
	failed     [progressShards]atomic.Int64
}

// Snapshot is a point-in-time view of a pass. ProcessedFiles counts
// every attempted file, including the failed ones.
type Snapshot struct {
	TotalFiles     int
	ProcessedFiles int
	SymbolCount    int
	Failed         int
}

// addTotal grows the discovered-file count while the scan is running,
// so progress readers see totals before the scan completes.
func (p *Progress) addTotal(n int) {
	p.totalFiles.Add(int64(n))
}

// tick records one committed file and its symbol count.
func (p *Progress) tick(path string, symbols int) {
	i := shardIndex(path)
	p.processed[i].Add(1)
	p.symbols[i].Add(int64(symbols))
}

// fail records one file that could not be read or extracted.
func (p *Progress) fail(path string) {
	i := shardIndex(path)
	p.processed[i].Add(1)
	p.failed[i].Add(1)
}

func (p *Progress) Snapshot() Snapshot {
	s := Snapshot{TotalFiles: int(p.totalFiles.Load())}
	for i := 0; i < progressShards; i++ {
		s.ProcessedFiles += int(p.processed[i].Load())
		s.SymbolCount += int(p.symbols[i].Load())
		s.Failed += int(p.failed[i].Load())
	}
	return s
}

// shardIndex spreads paths over the shards with djb2. Distribution
// quality barely matters; the goal is that concurrent workers usually
// touch different cache lines.
func shardIndex(path string) int {
	h := uint32(5381)
	for i := 0; i < len(path); i++ {
		h = h<<5 + h + uint32(path[i])
	}
	return int(h % progressShards)
}
