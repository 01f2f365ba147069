package filter

import (
	"hash/fnv"
	"sync"
)

// Partitioner buckets tests into one of Count partitions, expressed as a
// small closed variant set (hash, count) rather than an open interface.
//
// A Partitioner instance is scoped to one binary's filter pass: the
// partitioner counter must observe all non-skipped tests for consistent
// bucketing across runs, so callers construct a fresh one per binary via
// New.
type Partitioner interface {
	// Observe records that a candidate test reached the partitioning
	// stage and reports whether it falls in this partitioner's bucket.
	Observe(testName string) bool
}

// Kind selects a Partitioner implementation.
type Kind int

const (
	// KindHash buckets by a stable hash of the test name: the same test
	// name always lands in the same bucket regardless of what else ran,
	// at the cost of no guarantee the buckets are evenly sized.
	KindHash Kind = iota
	// KindCount buckets by position among observed tests, round-robin:
	// evenly sized buckets, but a test's bucket can shift if the set of
	// tests observed before it changes (e.g. a filter expression change).
	KindCount
)

// New builds a Partitioner of the given kind with bucket index (0-based)
// and count partitions. A count of 0 or 1 means "no partitioning": every
// test is observed as matching.
func New(kind Kind, bucket, count uint64) Partitioner {
	if count <= 1 {
		return noopPartitioner{}
	}
	switch kind {
	case KindCount:
		return &countPartitioner{bucket: bucket, count: count}
	default:
		return hashPartitioner{bucket: bucket, count: count}
	}
}

type noopPartitioner struct{}

func (noopPartitioner) Observe(string) bool { return true }

type hashPartitioner struct {
	bucket, count uint64
}

func (p hashPartitioner) Observe(testName string) bool {
	h := fnv.New64a()
	_, _ = h.Write([]byte(testName))
	return h.Sum64()%p.count == p.bucket
}

type countPartitioner struct {
	mu           sync.Mutex
	seen         uint64
	bucket, count uint64
}

func (p *countPartitioner) Observe(string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	idx := p.seen
	p.seen++
	return idx%p.count == p.bucket
}
