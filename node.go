package fpgrowth

import (
	"cmp"
	"fmt"
	"strings"
)

// Item is the constraint every mined value must satisfy: comparable for the
// header table, totally ordered for tie-break sorting, printable via fmt.
type Item interface {
	cmp.Ordered
}

// Node is a single node in an FP-tree. The tree owns its children; parent and
// neighbor are observation links only and never affect lifetime.
type Node[T Item] struct {
	item     T
	sentinel bool
	count    int
	children []*Node[T]
	parent   *Node[T]
	neighbor *Node[T]
}

// NewNode creates a detached node for the given item. A zero count is valid:
// partial-tree construction places zero-count placeholders whose real counts
// are derived later.
func NewNode[T Item](item T, count int) *Node[T] {
	return &Node[T]{item: item, count: count}
}

func newSentinel[T Item]() *Node[T] {
	return &Node[T]{sentinel: true}
}

// AddChild links child under n unless a child for the same item already
// exists; the same insertion pass may try to extend an existing branch.
func (n *Node[T]) AddChild(child *Node[T]) {
	if child == nil || child.sentinel {
		return
	}
	if n.Search(child.item) != nil {
		return
	}
	child.parent = n
	n.children = append(n.children, child)
}

// Search scans n's children for the given item and returns the matching
// child, or nil.
func (n *Node[T]) Search(item T) *Node[T] {
	for _, child := range n.children {
		if child.item == item {
			return child
		}
	}
	return nil
}

// Increment adds delta to the node's occurrence count.
func (n *Node[T]) Increment(delta int) {
	n.count += delta
}

// IsRoot reports whether n is the root sentinel. Only the sentinel flag
// decides this: a zero count does not make a node a root, since partial trees
// hold zero-count placeholder nodes.
func (n *Node[T]) IsRoot() bool {
	return n.sentinel
}

func (n *Node[T]) IsLeaf() bool {
	return len(n.children) == 0
}

func (n *Node[T]) Item() T {
	return n.item
}

func (n *Node[T]) Count() int {
	return n.count
}

func (n *Node[T]) Parent() *Node[T] {
	return n.parent
}

// Neighbor returns the next node holding the same item, in node creation
// order, or nil at the end of the chain.
func (n *Node[T]) Neighbor() *Node[T] {
	return n.neighbor
}

func (n *Node[T]) dump(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat(" ", depth))
	if n.sentinel {
		sb.WriteString("<(root)>\n")
	} else {
		fmt.Fprintf(sb, "<%v %d>\n", n.item, n.count)
	}
	for _, child := range n.children {
		child.dump(sb, depth+1)
	}
}
