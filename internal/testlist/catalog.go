package testlist

import (
	"fmt"
	"sync"

	"github.com/nextrunner/nextrunner/internal/binaryid"
)

// Catalog is the owning collection of binaries and their enumerated test
// cases, indexed by binaryid.ID. It is safe for concurrent use: every
// method takes the catalog's lock. The CLI pipeline records each test's
// filter decision through SetFilterMatch.
type Catalog struct {
	mu       sync.RWMutex
	binaries map[binaryid.ID]*binaryEntry
	order    []binaryid.ID
}

type binaryEntry struct {
	id    binaryid.ID
	tests []TestCase
	// index maps a test name to its position in tests, for O(1)
	// SetFilterMatch lookups.
	index map[string]int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{binaries: make(map[binaryid.ID]*binaryEntry)}
}

// AddBinary registers a binary. It is an error to register the same
// binary ID twice (invariant (a): every binary ID appears exactly once).
func (c *Catalog) AddBinary(id binaryid.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.binaries[id]; exists {
		return fmt.Errorf("testlist: binary %q already registered", id)
	}
	c.binaries[id] = &binaryEntry{id: id, index: make(map[string]int)}
	c.order = append(c.order, id)
	return nil
}

// AddTest appends a test case to binary. The binary must already be
// registered via AddBinary, and the test name must be unique within that
// binary.
func (c *Catalog) AddTest(id binaryid.ID, tc TestCase) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.binaries[id]
	if !ok {
		return fmt.Errorf("testlist: binary %q is not registered", id)
	}
	if _, dup := entry.index[tc.Name]; dup {
		return fmt.Errorf("testlist: test %q already registered in binary %q", tc.Name, id)
	}
	entry.index[tc.Name] = len(entry.tests)
	entry.tests = append(entry.tests, tc)
	return nil
}

// Binaries returns all registered binary IDs in canonical sort order
// (binaryid.Compare), not registration order.
func (c *Catalog) Binaries() []binaryid.ID {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ids := make([]binaryid.ID, len(c.order))
	copy(ids, c.order)
	binaryid.SortIDs(ids)
	return ids
}

// Tests returns a copy of the test cases registered for id, in the order
// they were added (the order the binary reported them in).
func (c *Catalog) Tests(id binaryid.ID) ([]TestCase, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.binaries[id]
	if !ok {
		return nil, fmt.Errorf("testlist: binary %q is not registered", id)
	}
	out := make([]TestCase, len(entry.tests))
	copy(out, entry.tests)
	return out, nil
}

// SetFilterMatch records the filter decision for a single test. It may be
// called at most once per test with a given value; calling it again with
// an equal FilterMatch is a no-op, but calling it again with a different
// value is a bug in the caller and returns an error (invariant (c): a
// FilterMatch is computed exactly once per test per run and must be
// stable across equal inputs).
func (c *Catalog) SetFilterMatch(id binaryid.ID, testName string, fm FilterMatch) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.binaries[id]
	if !ok {
		return fmt.Errorf("testlist: binary %q is not registered", id)
	}
	idx, ok := entry.index[testName]
	if !ok {
		return fmt.Errorf("testlist: test %q not found in binary %q", testName, id)
	}
	tc := &entry.tests[idx]
	if tc.filterSet {
		if tc.Filter != fm {
			return fmt.Errorf("testlist: filter match for %q/%q already set to %+v, cannot change to %+v", id, testName, tc.Filter, fm)
		}
		return nil
	}
	tc.Filter = fm
	tc.filterSet = true
	return nil
}
