package testlist

import "github.com/nextrunner/nextrunner/internal/binaryid"

// BinarySummary reports per-binary test counts after filtering has run.
type BinarySummary struct {
	ID         binaryid.ID
	TestCount  int
	MatchCount int
	Ignored    int
	Benchmarks int
}

// Summary is the structured catalog-wide summary the dispatcher and CLI
// front door use to report what a run selected before execution starts.
type Summary struct {
	Binaries   []BinarySummary
	TotalTests int
	TotalMatch int
}

// Summarize computes a Summary over the catalog's current state. Filter
// decisions that have not yet been set (filterSet == false) count toward
// TestCount but not MatchCount, since they haven't been resolved yet.
func (c *Catalog) Summarize() Summary {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]binaryid.ID, len(c.order))
	copy(ids, c.order)
	binaryid.SortIDs(ids)

	summary := Summary{Binaries: make([]BinarySummary, 0, len(ids))}
	for _, id := range ids {
		entry := c.binaries[id]
		bs := BinarySummary{ID: id, TestCount: len(entry.tests)}
		for _, tc := range entry.tests {
			if tc.Ignored {
				bs.Ignored++
			}
			if tc.IsBenchmark {
				bs.Benchmarks++
			}
			if tc.filterSet && tc.Filter.IsMatch() {
				bs.MatchCount++
			}
		}
		summary.TotalTests += bs.TestCount
		summary.TotalMatch += bs.MatchCount
		summary.Binaries = append(summary.Binaries, bs)
	}
	return summary
}
