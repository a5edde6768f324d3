package fpgrowth

import (
	"fmt"
	"strings"
)

// route tracks the head and tail of one item's neighbor chain.
type route[T Item] struct {
	head *Node[T]
	tail *Node[T]
}

// Tree is the FP-tree: a shared prefix trie over ordered transactions plus a
// header table ("routes") chaining every node of each distinct item. Routes
// keep insertion order so enumeration never depends on map iteration order.
type Tree[T Item] struct {
	root   *Node[T]
	routes map[T]*route[T]
	items  []T
}

// NewTree creates an empty FP-tree with a sentinel root.
func NewTree[T Item]() *Tree[T] {
	return &Tree[T]{
		root:   newSentinel[T](),
		routes: make(map[T]*route[T]),
	}
}

// Root returns the sentinel root node.
func (t *Tree[T]) Root() *Node[T] {
	return t.root
}

// Empty reports whether the header table has no entries.
func (t *Tree[T]) Empty() bool {
	return len(t.items) == 0
}

// Items returns the distinct items present in the tree, in the order their
// first node was created.
func (t *Tree[T]) Items() []T {
	out := make([]T, len(t.items))
	copy(out, t.items)
	return out
}

// AddTransaction walks the ordered items from the root, reusing an existing
// child (incrementing its count) or attaching a fresh count-1 node and
// registering it in the header table. The caller must already have removed
// duplicate items and sorted the transaction by its frequency ordering; the
// tree does not re-sort.
func (t *Tree[T]) AddTransaction(items []T) {
	cur := t.root
	for _, item := range items {
		child := cur.Search(item)
		if child != nil {
			child.Increment(1)
			cur = child
			continue
		}
		next := NewNode(item, 1)
		cur.AddChild(next)
		t.updateRoute(next)
		cur = next
	}
}

// updateRoute appends node to the tail of its item's neighbor chain, creating
// the route on first sight of the item.
func (t *Tree[T]) updateRoute(node *Node[T]) {
	if node == nil || node.sentinel {
		return
	}
	r, ok := t.routes[node.item]
	if !ok {
		t.routes[node.item] = &route[T]{head: node, tail: node}
		t.items = append(t.items, node.item)
		return
	}
	r.tail.neighbor = node
	r.tail = node
}

// PrefixPaths returns, for every node in the item's neighbor chain, the
// root-exclusive path from the top of the tree down to that node. The target
// node itself sits at the tail of each path and carries the leaf count used
// by PartialTree. Items absent from the header table yield nil; the engine
// only asks for items it has already observed.
func (t *Tree[T]) PrefixPaths(item T) [][]*Node[T] {
	r, ok := t.routes[item]
	if !ok {
		return nil
	}
	var paths [][]*Node[T]
	for end := r.head; end != nil; end = end.neighbor {
		path := []*Node[T]{end}
		for cur := end.parent; cur != nil && !cur.IsRoot(); cur = cur.parent {
			path = append(path, cur)
		}
		for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
			path[i], path[j] = path[j], path[i]
		}
		paths = append(paths, path)
	}
	return paths
}

// PartialTree builds an independent conditional tree from prefix paths ending
// at one target item. Prefix nodes start at zero and only the tail node takes
// its true leaf count; once all paths are merged the leaf counts propagate
// upward, since parallel source paths may share a prefix and the source
// counts cannot simply be copied.
func PartialTree[T Item](paths [][]*Node[T]) *Tree[T] {
	partial := NewTree[T]()
	if len(paths) == 0 {
		return partial
	}
	var leafItem T
	for _, path := range paths {
		if len(path) == 0 {
			continue
		}
		leafItem = path[len(path)-1].item
		cur := partial.root
		for _, pathNode := range path {
			child := cur.Search(pathNode.item)
			if child != nil {
				cur = child
				continue
			}
			count := 0
			if pathNode.item == leafItem {
				count = pathNode.count
			}
			next := NewNode(pathNode.item, count)
			cur.AddChild(next)
			partial.updateRoute(next)
			cur = next
		}
	}

	// Derive the non-leaf counts from the aggregate of leaf occurrences
	// passing through each prefix node.
	for _, path := range partial.PrefixPaths(leafItem) {
		leafCount := path[len(path)-1].count
		for _, pathNode := range path[:len(path)-1] {
			pathNode.Increment(leafCount)
		}
	}
	return partial
}

// NodesFor materializes the item's neighbor chain in creation order.
func (t *Tree[T]) NodesFor(item T) []*Node[T] {
	r, ok := t.routes[item]
	if !ok {
		return nil
	}
	var nodes []*Node[T]
	for cur := r.head; cur != nil; cur = cur.neighbor {
		nodes = append(nodes, cur)
	}
	return nodes
}

// Support sums the counts along the item's neighbor chain, which equals the
// item's total support within this tree.
func (t *Tree[T]) Support(item T) int {
	r, ok := t.routes[item]
	if !ok {
		return 0
	}
	support := 0
	for n := r.head; n != nil; n = n.neighbor {
		support += n.count
	}
	return support
}

// String renders the tree and its routes for debugging.
func (t *Tree[T]) String() string {
	var sb strings.Builder
	sb.WriteString("Tree:\n")
	t.root.dump(&sb, 1)
	sb.WriteString("Routes:\n")
	for _, item := range t.items {
		fmt.Fprintf(&sb, " %v:", item)
		for _, node := range t.NodesFor(item) {
			fmt.Fprintf(&sb, " <%v %d>", node.item, node.count)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
