// Package store owns the on-disk record store: one directory per run,
// holding its compressed metadata, log, and content-addressed captured
// output, plus the rerun tree that links a run to the run it reran (if
// any) so `nextrunner store show --rerun-tree` can render the lineage of
// a flaky test across repeated `--rerun-failed` invocations.
package store

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// treeNode is one run's position in the rerun forest: its parent (the run
// it was a rerun of, if any), the children that reran it in turn, and the
// run's own started_at (used to order siblings and to rank roots by the
// most recent activity anywhere in their subtree).
type treeNode struct {
	id        uuid.UUID
	startedAt time.Time
	parent    uuid.UUID // uuid.Nil if this run has no parent
	hasParent bool
	children  []uuid.UUID
}

// Tree is a forest of runs linked by "reran" edges. Unlike the dependency
// graph it's adapted from, a Tree must tolerate a corrupted or
// hand-edited run.json introducing a cycle: Walk, Roots, and Traversal
// all track visited nodes explicitly instead of assuming acyclicity.
type Tree struct {
	nodes map[uuid.UUID]*treeNode
}

// RunLineage is one run's linkage to its parent, if it reran one, plus
// the timing used to order it among its siblings.
type RunLineage struct {
	RunID     uuid.UUID
	ParentID  uuid.UUID
	StartedAt time.Time
}

// NewTree builds a Tree from a flat list of (run, parent, started_at)
// triples. A zero parent (uuid.Nil) means the run has no parent, i.e. it
// is a root.
func NewTree(edges []RunLineage) *Tree {
	t := &Tree{nodes: make(map[uuid.UUID]*treeNode, len(edges))}
	for _, e := range edges {
		t.ensure(e.RunID, e.StartedAt)
		if e.ParentID != uuid.Nil {
			t.ensure(e.ParentID, time.Time{})
			n := t.nodes[e.RunID]
			n.parent = e.ParentID
			n.hasParent = true
			parent := t.nodes[e.ParentID]
			parent.children = append(parent.children, e.RunID)
		}
	}
	for _, n := range t.nodes {
		sortByStartedAtDesc(n.children, t.nodes)
	}
	return t
}

func (t *Tree) ensure(id uuid.UUID, startedAt time.Time) {
	if n, ok := t.nodes[id]; ok {
		if n.startedAt.IsZero() {
			n.startedAt = startedAt
		}
		return
	}
	t.nodes[id] = &treeNode{id: id, startedAt: startedAt}
}

func sortByStartedAtDesc(ids []uuid.UUID, nodes map[uuid.UUID]*treeNode) {
	sort.SliceStable(ids, func(i, j int) bool {
		return nodes[ids[i]].startedAt.After(nodes[ids[j]].startedAt)
	})
}

// Parent returns the run id's parent and whether it has one.
func (t *Tree) Parent(id uuid.UUID) (uuid.UUID, bool) {
	n, ok := t.nodes[id]
	if !ok || !n.hasParent {
		return uuid.Nil, false
	}
	return n.parent, true
}

// Children returns the run ids that reran id, ordered by started_at
// descending (the most recent rerun first), per spec.md §4.5.
func (t *Tree) Children(id uuid.UUID) []uuid.UUID {
	n, ok := t.nodes[id]
	if !ok {
		return nil
	}
	out := make([]uuid.UUID, len(n.children))
	copy(out, n.children)
	return out
}

// Roots returns every run id with no parent, ordered by the maximum
// started_at anywhere in the subtree it heads, descending — so a root
// whose most recent rerun is newer than another root's sorts first, even
// if the root itself is older. A cycle that keeps a node from ever
// reaching a tracked root (e.g. a fully disconnected cycle) makes that
// node's own component a root too, consistent with Walk's cycle
// tolerance.
func (t *Tree) Roots() []uuid.UUID {
	var roots []uuid.UUID
	reached := make(map[uuid.UUID]bool)
	for id, n := range t.nodes {
		if !n.hasParent {
			roots = append(roots, id)
		}
	}
	for _, r := range roots {
		t.Walk(r, func(id uuid.UUID) { reached[id] = true })
	}
	// Any node never reached from a true root is part of a disconnected
	// cycle; treat one representative per such cycle as its own root so
	// Traversal still covers every node exactly once.
	seen := make(map[uuid.UUID]bool)
	for id := range t.nodes {
		if reached[id] || seen[id] {
			continue
		}
		var component []uuid.UUID
		t.Walk(id, func(cid uuid.UUID) { component = append(component, cid); seen[cid] = true })
		sortUUIDs(component)
		roots = append(roots, component[0])
	}

	maxStarted := make(map[uuid.UUID]time.Time, len(roots))
	for _, r := range roots {
		max := t.nodes[r].startedAt
		t.Walk(r, func(id uuid.UUID) {
			if s := t.nodes[id].startedAt; s.After(max) {
				max = s
			}
		})
		maxStarted[r] = max
	}
	sort.SliceStable(roots, func(i, j int) bool {
		return maxStarted[roots[i]].After(maxStarted[roots[j]])
	})
	return roots
}

// Walk visits root and every descendant reachable through Children,
// depth-first, calling visit once per distinct id. A run.json that
// (through corruption or manual editing) introduces a cycle cannot make
// Walk loop forever: a node already visited in this call is skipped.
func (t *Tree) Walk(root uuid.UUID, visit func(id uuid.UUID)) {
	visited := make(map[uuid.UUID]bool)
	var walk func(id uuid.UUID)
	walk = func(id uuid.UUID) {
		if visited[id] {
			return
		}
		visited[id] = true
		visit(id)
		for _, child := range t.Children(id) {
			walk(child)
		}
	}
	walk(root)
}

// TraversalEntry is one row of the display projection a reporter walks
// to print a rerun tree: depth below the printed root, whether this run
// is the last child of its parent (controls whether the branch drawn
// above its subtree continues downward), whether it is an only child,
// and — for every ancestor level above it — whether that ancestor still
// has siblings below it still to print (the "ancestor-continuation"
// bitmap a renderer uses to decide whether to draw a vertical bar or
// blank space in each indent column).
type TraversalEntry struct {
	ID                   uuid.UUID
	Depth                int
	IsLastChild          bool
	IsOnlyChild          bool
	AncestorContinuation []bool
}

// Traversal computes the full pre-ordered display projection of every
// run reachable from Roots(): root siblings in Roots order, and each
// root's descendants in Children order. The result is independent of the
// order NewTree's input edges were supplied in (Roots and Children are
// both stable sorts over started_at), so shuffling the input list
// produces an identical Traversal — the property §8 calls for.
func (t *Tree) Traversal() []TraversalEntry {
	var out []TraversalEntry
	visited := make(map[uuid.UUID]bool)
	var walk func(id uuid.UUID, depth int, isLast, isOnly bool, continuation []bool)
	walk = func(id uuid.UUID, depth int, isLast, isOnly bool, continuation []bool) {
		if visited[id] {
			return
		}
		visited[id] = true
		cont := make([]bool, len(continuation))
		copy(cont, continuation)
		out = append(out, TraversalEntry{
			ID:                   id,
			Depth:                depth,
			IsLastChild:          isLast,
			IsOnlyChild:          isOnly,
			AncestorContinuation: cont,
		})
		children := t.Children(id)
		childCont := append(cont, !isLast)
		for i, child := range children {
			last := i == len(children)-1
			walk(child, depth+1, last, len(children) == 1, childCont)
		}
	}
	roots := t.Roots()
	for i, r := range roots {
		walk(r, 0, i == len(roots)-1, len(roots) == 1, nil)
	}
	return out
}

func sortUUIDs(ids []uuid.UUID) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && less(ids[j], ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

func less(a, b uuid.UUID) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}
