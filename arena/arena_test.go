package arena

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTree builds:
//
//	root
//	├── a
//	│   ├── a1
//	│   └── a2
//	└── b
func buildTree(t *testing.T) (a *Arena[string], root, aID, a1, a2, b NodeID) {
	t.Helper()
	a = New[string]()
	root = a.NewNode("root")
	aID = a.NewNode("a")
	a1 = a.NewNode("a1")
	a2 = a.NewNode("a2")
	b = a.NewNode("b")

	a.AppendChild(root, aID)
	a.AppendChild(root, b)
	a.AppendChild(aID, a1)
	a.AppendChild(aID, a2)
	return
}

func TestAppendChildAndNavigation(t *testing.T) {
	a, root, aID, a1, a2, b := buildTree(t)

	require.Equal(t, aID, a.FirstChild(root))
	require.Equal(t, b, a.LastChild(root))
	require.Equal(t, root, a.Parent(aID))
	require.Equal(t, root, a.Parent(b))
	require.Equal(t, b, a.NextSibling(aID))
	require.Equal(t, aID, a.PrevSibling(b))
	require.Equal(t, a1, a.FirstChild(aID))
	require.Equal(t, a2, a.NextSibling(a1))
	require.Equal(t, NilNode, a.Parent(root))
	require.Equal(t, NilNode, a.NextSibling(b))
}

// TestArenaIntegrity is spec.md invariant 1: for every node n, parent(n)'s
// children include n exactly once.
func TestArenaIntegrity(t *testing.T) {
	a, root, aID, a1, a2, b := buildTree(t)
	for _, n := range []NodeID{aID, a1, a2, b} {
		p := a.Parent(n)
		require.NotEqual(t, NilNode, p)
		count := 0
		for c := range a.Children(p) {
			if c == n {
				count++
			}
		}
		assert.Equalf(t, 1, count, "node %d should appear exactly once under parent %d", n, p)
	}
	assert.Equal(t, NilNode, a.Parent(root))
}

func TestChildrenOrderAndReversed(t *testing.T) {
	a, root, aID, _, _, b := buildTree(t)

	var forward []NodeID
	for c := range a.Children(root) {
		forward = append(forward, c)
	}
	assert.Equal(t, []NodeID{aID, b}, forward)

	var reversed []NodeID
	for c := range a.ChildrenReversed(root) {
		reversed = append(reversed, c)
	}
	assert.Equal(t, []NodeID{b, aID}, reversed)
}

func TestDescendantsInDocumentOrder(t *testing.T) {
	a, root, aID, a1, a2, b := buildTree(t)

	var got []NodeID
	for n := range a.DescendantsInDocumentOrder(root) {
		got = append(got, n)
	}
	assert.Equal(t, []NodeID{aID, a1, a2, b}, got)
}

// TestAxisSymmetry is spec.md invariant 4: following-sibling of x and
// preceding-sibling of each such sibling contain x.
func TestAxisSymmetry(t *testing.T) {
	a, root, aID, _, _, b := buildTree(t)
	_ = root

	var followingOfA []NodeID
	for s := a.NextSibling(aID); s != NilNode; s = a.NextSibling(s) {
		followingOfA = append(followingOfA, s)
	}
	require.Contains(t, followingOfA, b)

	var precedingOfB []NodeID
	for s := a.PrevSibling(b); s != NilNode; s = a.PrevSibling(s) {
		precedingOfB = append(precedingOfB, s)
	}
	assert.Contains(t, precedingOfB, aID)
}

func TestFollowingExcludesDescendants(t *testing.T) {
	a, root, aID, a1, a2, b := buildTree(t)

	var got []NodeID
	for n := range a.Following(root, aID) {
		got = append(got, n)
	}
	assert.Equal(t, []NodeID{b}, got)
	assert.False(t, slices.Contains(got, a1))
	assert.False(t, slices.Contains(got, a2))
}

func TestPrecedingExcludesAncestors(t *testing.T) {
	a, root, aID, a1, a2, b := buildTree(t)
	_ = a1

	var got []NodeID
	for n := range a.Preceding(root, b) {
		got = append(got, n)
	}
	assert.Equal(t, []NodeID{a2, a1, aID}, got)
	assert.False(t, slices.Contains(got, root))
}

func TestAppendChildPanicsOnAttachedNode(t *testing.T) {
	a := New[string]()
	root := a.NewNode("root")
	other := a.NewNode("other")
	child := a.NewNode("child")
	a.AppendChild(root, child)

	assert.Panics(t, func() {
		a.AppendChild(other, child)
	})
}
