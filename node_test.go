package fpgrowth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNode(t *testing.T) {
	root := newSentinel[int]()
	child1 := NewNode(1, 1)
	child2 := NewNode(2, 2)

	root.AddChild(child1)
	child1.AddChild(child2)

	assert.True(t, root.IsRoot())
	assert.Equal(t, child1, root.Search(1))
	assert.Nil(t, root.Search(2))

	assert.False(t, child1.IsRoot())
	assert.Nil(t, child1.Search(1))
	assert.Equal(t, child2, child1.Search(2))
	assert.Equal(t, 1, child1.Item())
	assert.Equal(t, root, child1.Parent())

	assert.False(t, child2.IsRoot())
	assert.Nil(t, child2.Search(1))
	assert.Nil(t, child2.Search(2))
	assert.True(t, child2.IsLeaf())
	assert.False(t, child1.IsLeaf())
}

func TestNodeAddChildIdempotent(t *testing.T) {
	root := newSentinel[string]()
	first := NewNode("a", 1)
	duplicate := NewNode("a", 5)

	root.AddChild(first)
	root.AddChild(duplicate)

	assert.Len(t, root.children, 1)
	assert.Equal(t, first, root.Search("a"))
	assert.Nil(t, duplicate.Parent())
}

func TestNodeIncrement(t *testing.T) {
	n := NewNode("x", 0)
	assert.Equal(t, 0, n.Count())
	n.Increment(3)
	n.Increment(2)
	assert.Equal(t, 5, n.Count())
}

func TestZeroCountNodeIsNotRoot(t *testing.T) {
	// Partial trees hold zero-count placeholders; only the sentinel is a root.
	placeholder := NewNode("a", 0)
	assert.False(t, placeholder.IsRoot())
	assert.True(t, newSentinel[string]().IsRoot())
}
