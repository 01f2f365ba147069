package store

import (
	"math/rand"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// buildRandomForest generates a random acyclic rerun forest of n nodes:
// node 0 is always a root, and every later node is parented to some
// earlier node (so the edge list is guaranteed acyclic regardless of
// shuffling) with a distinct started_at derived from seed so sibling
// order is exercised.
func buildRandomForest(n int, seed int64) []RunLineage {
	r := rand.New(rand.NewSource(seed))
	ids := make([]uuid.UUID, n)
	for i := range ids {
		ids[i] = uuid.New()
	}
	edges := make([]RunLineage, n)
	base := time.Unix(1_700_000_000, 0)
	for i := 0; i < n; i++ {
		parent := uuid.Nil
		if i > 0 {
			parent = ids[r.Intn(i)]
		}
		edges[i] = RunLineage{
			RunID:     ids[i],
			ParentID:  parent,
			// The i*time.Hour term keeps every node's started_at
			// distinct (the sub-hour jitter never overlaps a
			// neighboring index), so sibling order is never decided by
			// a tie that shuffling the input could break differently.
			StartedAt: base.Add(time.Duration(i)*time.Hour + time.Duration(r.Intn(1000))*time.Second),
		}
	}
	return edges
}

func shuffledCopy(edges []RunLineage, seed int64) []RunLineage {
	out := make([]RunLineage, len(edges))
	copy(out, edges)
	rand.New(rand.NewSource(seed)).Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}

// TestTreeTraversalStableUnderShuffledInput is the rerun-tree analogue of
// spec.md §8's "Tree traversal stability" property: building a Tree from
// the same set of (run, parent, started_at) triples in any order must
// produce an identical Traversal, since Roots and Children both sort by
// started_at rather than relying on insertion order.
func TestTreeTraversalStableUnderShuffledInput(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("Tree.Traversal is independent of input order", prop.ForAll(
		func(n int, buildSeed, shuffleSeed int) bool {
			edges := buildRandomForest(n, int64(buildSeed))
			shuffled := shuffledCopy(edges, int64(shuffleSeed))

			want := NewTree(edges).Traversal()
			got := NewTree(shuffled).Traversal()

			return reflect.DeepEqual(want, got)
		},
		gen.IntRange(1, 25),
		gen.IntRange(0, 1_000_000),
		gen.IntRange(0, 1_000_000),
	))

	properties.TestingRun(t)
}
