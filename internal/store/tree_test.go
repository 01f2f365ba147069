package store

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeParentAndChildren(t *testing.T) {
	root := uuid.New()
	child := uuid.New()
	grandchild := uuid.New()

	tr := NewTree([]RunLineage{
		{RunID: child, ParentID: root},
		{RunID: grandchild, ParentID: child},
	})

	p, ok := tr.Parent(child)
	require.True(t, ok)
	assert.Equal(t, root, p)

	_, ok = tr.Parent(root)
	assert.False(t, ok)

	assert.ElementsMatch(t, []uuid.UUID{child}, tr.Children(root))
	assert.ElementsMatch(t, []uuid.UUID{grandchild}, tr.Children(child))
}

func TestTreeRootsFindsEveryUnparentedRun(t *testing.T) {
	rootA := uuid.New()
	rootB := uuid.New()
	childOfA := uuid.New()

	tr := NewTree([]RunLineage{
		{RunID: childOfA, ParentID: rootA},
		{RunID: rootB},
	})

	assert.ElementsMatch(t, []uuid.UUID{rootA, rootB}, tr.Roots())
}

func TestTreeWalkVisitsEveryDescendantOnce(t *testing.T) {
	root := uuid.New()
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	tr := NewTree([]RunLineage{
		{RunID: a, ParentID: root},
		{RunID: b, ParentID: root},
		{RunID: c, ParentID: a},
	})

	var visited []uuid.UUID
	tr.Walk(root, func(id uuid.UUID) { visited = append(visited, id) })

	assert.ElementsMatch(t, []uuid.UUID{root, a, b, c}, visited)
	assert.Len(t, visited, 4)
}

// A run.json edited (or corrupted) into a self-referencing or mutual
// parent/child cycle must not send Walk into an infinite loop.
func TestTreeWalkToleratesCycles(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	tr := NewTree([]RunLineage{
		{RunID: a, ParentID: b},
		{RunID: b, ParentID: a},
	})

	done := make(chan []uuid.UUID, 1)
	go func() {
		var visited []uuid.UUID
		tr.Walk(a, func(id uuid.UUID) { visited = append(visited, id) })
		done <- visited
	}()

	select {
	case visited := <-done:
		assert.ElementsMatch(t, []uuid.UUID{a, b}, visited)
	case <-time.After(time.Second):
		t.Fatal("Walk did not terminate on a cyclic tree")
	}
}
