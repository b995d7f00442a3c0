// Package hierarchy owns the item nodes of a tree widget.
//
// Nodes live in an arena and refer to each other by NodeID; a child keeps
// its parent's ID only for traversal, the parent owns the child's slot.
// Every node caches the number of visible rows its children would occupy
// if it were expanded, so position queries over the visible (collapse
// aware) sequence walk the tree from the top instead of flattening it.
package hierarchy

import (
	"fmt"
	"slices"
)

// NotVisible is returned by VisibleIndexOf and Remove for nodes that sit
// below a collapsed ancestor.
const NotVisible = -1

// NodeID identifies a node in an Index. The zero value is None.
// A removed node's ID goes stale: its slot may be reused, but with a new
// generation, so the old ID keeps failing with ErrDisposed.
type NodeID struct {
	slot int32
	gen  uint32
}

// None means "no node". As a parent argument it names the root collection.
var None NodeID

// IsNone reports whether id is the zero ID.
func (id NodeID) IsNone() bool { return id.gen == 0 }

func (id NodeID) String() string {
	if id.IsNone() {
		return "node(none)"
	}
	return fmt.Sprintf("node(%d.%d)", id.slot, id.gen)
}

type node struct {
	gen      uint32
	live     bool
	parent   NodeID
	children []NodeID
	expanded bool
	inner    int // visible rows below this node when it is expanded

	label   string
	checked bool
	image   bool

	width   int
	widthOK bool
}

// subtree is the number of visible rows the node occupies, itself included,
// assuming its own row is visible.
func (n *node) subtree() int {
	if n.expanded {
		return 1 + n.inner
	}
	return 1
}

// Index is the Roots collection: the ordered top-level nodes plus the arena
// holding every node below them.
type Index struct {
	nodes []node
	free  []int32
	roots []NodeID
	total int // visible rows across all roots
	count int // live nodes, collapsed or not
}

// New returns an empty index.
func New() *Index {
	return &Index{}
}

func (x *Index) get(id NodeID) (*node, error) {
	if id.IsNone() {
		return nil, ErrNullArgument
	}
	if int(id.slot) >= len(x.nodes) || id.slot < 0 {
		return nil, fmt.Errorf("%v: %w", id, ErrDisposed)
	}
	n := &x.nodes[id.slot]
	if !n.live || n.gen != id.gen {
		return nil, fmt.Errorf("%v: %w", id, ErrDisposed)
	}
	return n, nil
}

// peek is get without the error, for read accessors.
func (x *Index) peek(id NodeID) *node {
	n, err := x.get(id)
	if err != nil {
		return nil
	}
	return n
}

// Contains reports whether id names a live node.
func (x *Index) Contains(id NodeID) bool {
	return x.peek(id) != nil
}

func (x *Index) siblings(parent NodeID) []NodeID {
	if parent.IsNone() {
		return x.roots
	}
	if p := x.peek(parent); p != nil {
		return p.children
	}
	return nil
}

func (x *Index) alloc() NodeID {
	if k := len(x.free); k > 0 {
		slot := x.free[k-1]
		x.free = x.free[:k-1]
		n := &x.nodes[slot]
		gen := n.gen + 1
		if gen == 0 {
			gen = 1
		}
		*n = node{gen: gen, live: true}
		return NodeID{slot: slot, gen: gen}
	}
	x.nodes = append(x.nodes, node{gen: 1, live: true})
	return NodeID{slot: int32(len(x.nodes) - 1), gen: 1}
}

// propagate applies a change of delta rows in one of parent's children.
// It stops at the first collapsed ancestor, whose own row count does not
// depend on its children.
func (x *Index) propagate(parent NodeID, delta int) {
	for delta != 0 {
		if parent.IsNone() {
			x.total += delta
			return
		}
		p := &x.nodes[parent.slot]
		p.inner += delta
		if !p.expanded {
			return
		}
		parent = p.parent
	}
}

// Insert adds a collapsed node labelled label as child number index of
// parent (None for a root). index may equal the current child count.
func (x *Index) Insert(parent NodeID, index int, label string) (NodeID, error) {
	if !parent.IsNone() {
		if _, err := x.get(parent); err != nil {
			return None, fmt.Errorf("insert parent: %w", err)
		}
	}
	if index < 0 || index > len(x.siblings(parent)) {
		return None, fmt.Errorf("insert at %d of %d: %w", index, len(x.siblings(parent)), ErrInvalidRange)
	}

	id := x.alloc()
	n := &x.nodes[id.slot]
	n.parent = parent
	n.label = label

	if parent.IsNone() {
		x.roots = slices.Insert(x.roots, index, id)
	} else {
		p := &x.nodes[parent.slot]
		p.children = slices.Insert(p.children, index, id)
	}
	x.count++
	x.propagate(parent, 1)
	return id, nil
}

// Remove detaches id and its whole subtree. It returns the visible index
// id had before the removal, or NotVisible.
func (x *Index) Remove(id NodeID) (int, error) {
	n, err := x.get(id)
	if err != nil {
		return NotVisible, fmt.Errorf("remove: %w", err)
	}
	visible := x.VisibleIndexOf(id)
	rows := n.subtree()
	parent := n.parent

	if parent.IsNone() {
		x.roots = slices.DeleteFunc(x.roots, func(c NodeID) bool { return c == id })
	} else {
		p := &x.nodes[parent.slot]
		p.children = slices.DeleteFunc(p.children, func(c NodeID) bool { return c == id })
	}
	x.propagate(parent, -rows)

	stack := []NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		c := &x.nodes[cur.slot]
		stack = append(stack, c.children...)
		gen := c.gen
		*c = node{gen: gen}
		x.free = append(x.free, cur.slot)
		x.count--
	}
	return visible, nil
}

// RemoveAll drops every node. Outstanding IDs go stale.
func (x *Index) RemoveAll() {
	for i := range x.nodes {
		n := &x.nodes[i]
		if n.live {
			gen := n.gen
			*n = node{gen: gen}
			x.free = append(x.free, int32(i))
		}
	}
	x.roots = nil
	x.total = 0
	x.count = 0
}

// SetExpanded flips the expand flag without any screen work.
func (x *Index) SetExpanded(id NodeID, expanded bool) error {
	n, err := x.get(id)
	if err != nil {
		return fmt.Errorf("set expanded: %w", err)
	}
	if n.expanded == expanded {
		return nil
	}
	n.expanded = expanded
	delta := n.inner
	if !expanded {
		delta = -delta
	}
	x.propagate(n.parent, delta)
	return nil
}

// Expanded reports the expand flag of id.
func (x *Index) Expanded(id NodeID) bool {
	if n := x.peek(id); n != nil {
		return n.expanded
	}
	return false
}

// TotalVisibleCount is the length of the visible sequence.
func (x *Index) TotalVisibleCount() int {
	return x.total
}

// Len is the number of live nodes, including those hidden by collapsed
// ancestors.
func (x *Index) Len() int {
	return x.count
}

// VisibleCount is the number of visible rows below id: its expanded
// descendants, or 0 when id is collapsed.
func (x *Index) VisibleCount(id NodeID) int {
	n := x.peek(id)
	if n == nil || !n.expanded {
		return 0
	}
	return n.inner
}

// ExpandedCount is the number of rows below id if id were expanded, without
// touching its expand flag.
func (x *Index) ExpandedCount(id NodeID) int {
	if n := x.peek(id); n != nil {
		return n.inner
	}
	return 0
}

// VisibleItemAt returns the node at visible position k.
func (x *Index) VisibleItemAt(k int) (NodeID, bool) {
	if k < 0 || k >= x.total {
		return None, false
	}
	level := x.roots
	for {
		descended := false
		for _, c := range level {
			n := &x.nodes[c.slot]
			rows := n.subtree()
			if k >= rows {
				k -= rows
				continue
			}
			if k == 0 {
				return c, true
			}
			k--
			level = n.children
			descended = true
			break
		}
		if !descended {
			return None, false
		}
	}
}

// VisibleIndexOf returns the visible position of id, or NotVisible when an
// ancestor is collapsed or id is not live.
func (x *Index) VisibleIndexOf(id NodeID) int {
	n := x.peek(id)
	if n == nil {
		return NotVisible
	}
	index := 0
	cur := id
	for {
		parent := x.nodes[cur.slot].parent
		for _, s := range x.siblings(parent) {
			if s == cur {
				break
			}
			index += x.nodes[s.slot].subtree()
		}
		if parent.IsNone() {
			return index
		}
		if !x.nodes[parent.slot].expanded {
			return NotVisible
		}
		index++
		cur = parent
	}
}

// IsVisible reports whether every ancestor of id is expanded.
func (x *Index) IsVisible(id NodeID) bool {
	n := x.peek(id)
	if n == nil {
		return false
	}
	for p := n.parent; !p.IsNone(); p = x.nodes[p.slot].parent {
		if !x.nodes[p.slot].expanded {
			return false
		}
	}
	return true
}
