package hierarchy

import (
	"fmt"
	"slices"
)

// Read accessors return zero values for stale IDs; callers that need the
// distinction check Contains first.

// Parent returns the parent of id, or None for roots.
func (x *Index) Parent(id NodeID) NodeID {
	if n := x.peek(id); n != nil {
		return n.parent
	}
	return None
}

// Roots returns a copy of the top-level nodes in order.
func (x *Index) Roots() []NodeID {
	return slices.Clone(x.roots)
}

// Children returns a copy of parent's children; None yields the roots.
func (x *Index) Children(parent NodeID) []NodeID {
	return slices.Clone(x.siblings(parent))
}

// ChildCount is the number of direct children of parent (roots for None).
func (x *Index) ChildCount(parent NodeID) int {
	return len(x.siblings(parent))
}

// ChildAt returns child number i of parent.
func (x *Index) ChildAt(parent NodeID, i int) (NodeID, error) {
	if !parent.IsNone() {
		if _, err := x.get(parent); err != nil {
			return None, err
		}
	}
	sib := x.siblings(parent)
	if i < 0 || i >= len(sib) {
		return None, fmt.Errorf("child %d of %d: %w", i, len(sib), ErrInvalidRange)
	}
	return sib[i], nil
}

// IndexOf is the position of id among its siblings, or -1.
func (x *Index) IndexOf(id NodeID) int {
	n := x.peek(id)
	if n == nil {
		return -1
	}
	return slices.Index(x.siblings(n.parent), id)
}

// NextSibling returns the sibling that follows id, or None.
func (x *Index) NextSibling(id NodeID) NodeID {
	i := x.IndexOf(id)
	if i < 0 {
		return None
	}
	sib := x.siblings(x.nodes[id.slot].parent)
	if i+1 < len(sib) {
		return sib[i+1]
	}
	return None
}

// NextVisible returns the node on the visible row after id: its first
// child when expanded, else the next sibling of id or of the nearest
// ancestor that has one. id is assumed visible.
func (x *Index) NextVisible(id NodeID) NodeID {
	n := x.peek(id)
	if n == nil {
		return None
	}
	if n.expanded && len(n.children) > 0 {
		return n.children[0]
	}
	for cur := id; !cur.IsNone(); cur = x.nodes[cur.slot].parent {
		if next := x.NextSibling(cur); !next.IsNone() {
			return next
		}
	}
	return None
}

// IsLeaf reports whether id has no children.
func (x *Index) IsLeaf(id NodeID) bool {
	n := x.peek(id)
	return n == nil || len(n.children) == 0
}

// Depth is the number of ancestors of id (0 for roots).
func (x *Index) Depth(id NodeID) int {
	n := x.peek(id)
	if n == nil {
		return 0
	}
	depth := 0
	for p := n.parent; !p.IsNone(); p = x.nodes[p.slot].parent {
		depth++
	}
	return depth
}

// IsAncestor reports whether anc is a proper ancestor of id.
func (x *Index) IsAncestor(anc, id NodeID) bool {
	n := x.peek(id)
	if n == nil || anc.IsNone() {
		return false
	}
	for p := n.parent; !p.IsNone(); p = x.nodes[p.slot].parent {
		if p == anc {
			return true
		}
	}
	return false
}

// Ancestors returns the ancestors of id from the root down to its parent.
func (x *Index) Ancestors(id NodeID) []NodeID {
	n := x.peek(id)
	if n == nil {
		return nil
	}
	var out []NodeID
	for p := n.parent; !p.IsNone(); p = x.nodes[p.slot].parent {
		out = append(out, p)
	}
	slices.Reverse(out)
	return out
}

// Path returns the sibling positions leading from the roots to id.
func (x *Index) Path(id NodeID) []int {
	if !x.Contains(id) {
		return nil
	}
	chain := append(x.Ancestors(id), id)
	path := make([]int, len(chain))
	for i, c := range chain {
		path[i] = x.IndexOf(c)
	}
	return path
}

// Compare orders two nodes by their position in a full pre-order walk.
func (x *Index) Compare(a, b NodeID) int {
	return slices.Compare(x.Path(a), x.Path(b))
}

// Walk visits the subtree under from (every root for None) in pre-order
// using an explicit stack. fn returns false to skip a node's children.
func (x *Index) Walk(from NodeID, fn func(id NodeID, depth int) bool) {
	type frame struct {
		id    NodeID
		depth int
	}
	var stack []frame
	push := func(ids []NodeID, depth int) {
		for i := len(ids) - 1; i >= 0; i-- {
			stack = append(stack, frame{ids[i], depth})
		}
	}
	if from.IsNone() {
		push(x.roots, 0)
	} else if x.Contains(from) {
		stack = append(stack, frame{from, x.Depth(from)})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if fn(f.id, f.depth) {
			push(x.nodes[f.id.slot].children, f.depth+1)
		}
	}
}

// Label returns the text of id.
func (x *Index) Label(id NodeID) string {
	if n := x.peek(id); n != nil {
		return n.label
	}
	return ""
}

// SetLabel replaces the text of id and drops its cached width.
func (x *Index) SetLabel(id NodeID, label string) error {
	n, err := x.get(id)
	if err != nil {
		return fmt.Errorf("set label: %w", err)
	}
	n.label = label
	n.widthOK = false
	return nil
}

// Checked reports the checkbox state of id.
func (x *Index) Checked(id NodeID) bool {
	if n := x.peek(id); n != nil {
		return n.checked
	}
	return false
}

// SetChecked sets the checkbox state of id.
func (x *Index) SetChecked(id NodeID, checked bool) error {
	n, err := x.get(id)
	if err != nil {
		return fmt.Errorf("set checked: %w", err)
	}
	n.checked = checked
	return nil
}

// HasImage reports whether id renders an image before its label.
func (x *Index) HasImage(id NodeID) bool {
	if n := x.peek(id); n != nil {
		return n.image
	}
	return false
}

// SetImage toggles the image slot of id and drops its cached width.
func (x *Index) SetImage(id NodeID, image bool) error {
	n, err := x.get(id)
	if err != nil {
		return fmt.Errorf("set image: %w", err)
	}
	n.image = image
	n.widthOK = false
	return nil
}

// CachedWidth returns the last measured row width of id.
func (x *Index) CachedWidth(id NodeID) (int, bool) {
	if n := x.peek(id); n != nil && n.widthOK {
		return n.width, true
	}
	return 0, false
}

// SetCachedWidth stores a measured row width for id.
func (x *Index) SetCachedWidth(id NodeID, width int) {
	if n := x.peek(id); n != nil {
		n.width = width
		n.widthOK = true
	}
}

// InvalidateWidth drops the cached width of id.
func (x *Index) InvalidateWidth(id NodeID) {
	if n := x.peek(id); n != nil {
		n.widthOK = false
	}
}

// InvalidateAllWidths drops every cached width. O(n); used when a global
// metric such as the font changes.
func (x *Index) InvalidateAllWidths() {
	for i := range x.nodes {
		x.nodes[i].widthOK = false
	}
}
