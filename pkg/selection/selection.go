// Package selection tracks the selected nodes of a tree widget.
//
// The manager never notifies anyone; firing selection events is left to the
// widget that owns it.
package selection

import (
	"slices"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
)

// Mode is the selection style of a widget.
type Mode int

const (
	Single Mode = iota
	Multi
)

func (m Mode) String() string {
	if m == Multi {
		return "multi"
	}
	return "single"
}

// ParseMode maps a config string to a Mode; anything unknown is Single.
func ParseMode(s string) Mode {
	if s == "multi" {
		return Multi
	}
	return Single
}

// Manager holds the selected set. Items are kept in insertion order.
type Manager struct {
	mode   Mode
	items  []hierarchy.NodeID
	set    map[hierarchy.NodeID]struct{}
	anchor hierarchy.NodeID
}

// New returns an empty manager.
func New(mode Mode) *Manager {
	return &Manager{mode: mode, set: make(map[hierarchy.NodeID]struct{})}
}

// Mode returns the selection style.
func (m *Manager) Mode() Mode { return m.mode }

// Len is the number of selected nodes.
func (m *Manager) Len() int { return len(m.items) }

// Contains reports whether id is selected.
func (m *Manager) Contains(id hierarchy.NodeID) bool {
	_, ok := m.set[id]
	return ok
}

// Items returns the selection in insertion order.
func (m *Manager) Items() []hierarchy.NodeID {
	return slices.Clone(m.items)
}

// Sorted returns the selection in tree order.
func (m *Manager) Sorted(ix *hierarchy.Index) []hierarchy.NodeID {
	out := slices.Clone(m.items)
	slices.SortStableFunc(out, ix.Compare)
	return out
}

// Anchor is the node range extensions start from.
func (m *Manager) Anchor() hierarchy.NodeID { return m.anchor }

// Clear empties the selection and forgets the anchor.
func (m *Manager) Clear() {
	m.items = m.items[:0]
	clear(m.set)
	m.anchor = hierarchy.None
}

// SelectExclusive makes id the only selected node.
func (m *Manager) SelectExclusive(id hierarchy.NodeID) {
	m.Clear()
	if id.IsNone() {
		return
	}
	m.add(id)
	m.anchor = id
}

func (m *Manager) add(id hierarchy.NodeID) bool {
	if m.Contains(id) {
		return false
	}
	m.items = append(m.items, id)
	m.set[id] = struct{}{}
	return true
}

// Deselect removes id from the selection.
func (m *Manager) Deselect(id hierarchy.NodeID) {
	if !m.Contains(id) {
		return
	}
	delete(m.set, id)
	m.items = slices.DeleteFunc(m.items, func(s hierarchy.NodeID) bool { return s == id })
	if m.anchor == id {
		m.anchor = hierarchy.None
	}
}

// Add selects id in addition to the current selection. Multi mode only.
func (m *Manager) Add(id hierarchy.NodeID) bool {
	if m.mode != Multi || id.IsNone() {
		return false
	}
	return m.add(id)
}

// Toggle flips id's membership and makes it the anchor. Multi mode only;
// it reports whether anything changed.
func (m *Manager) Toggle(id hierarchy.NodeID) bool {
	if m.mode != Multi || id.IsNone() {
		return false
	}
	if m.Contains(id) {
		m.Deselect(id)
	} else {
		m.add(id)
	}
	m.anchor = id
	return true
}

// Extend replaces the selection with the visible rows between from and to,
// inclusive and in either order. The anchor is kept. Multi mode only.
func (m *Manager) Extend(ix *hierarchy.Index, from, to int) bool {
	if m.mode != Multi {
		return false
	}
	if from > to {
		from, to = to, from
	}
	from = max(from, 0)
	to = min(to, ix.TotalVisibleCount()-1)
	if from > to {
		return false
	}
	anchor := m.anchor
	m.Clear()
	for k := from; k <= to; k++ {
		if id, ok := ix.VisibleItemAt(k); ok {
			m.add(id)
		}
	}
	m.anchor = anchor
	return true
}

// Set replaces the selection with ids, dropping duplicates and, in single
// mode, everything past the first.
func (m *Manager) Set(ids []hierarchy.NodeID) {
	m.Clear()
	for _, id := range ids {
		if id.IsNone() {
			continue
		}
		if m.mode == Single && len(m.items) == 1 {
			break
		}
		m.add(id)
	}
	if len(m.items) > 0 {
		m.anchor = m.items[0]
	}
}

// SelectAll selects every live node, visible or not. Multi mode only.
func (m *Manager) SelectAll(ix *hierarchy.Index) bool {
	if m.mode != Multi {
		return false
	}
	ix.Walk(hierarchy.None, func(id hierarchy.NodeID, _ int) bool {
		m.add(id)
		return true
	})
	return true
}

// IsSelectedAndCollapsing reports whether a selected node occupies one of
// the visible rows strictly below root that collapsing root would hide.
func (m *Manager) IsSelectedAndCollapsing(ix *hierarchy.Index, root hierarchy.NodeID) bool {
	top := ix.VisibleIndexOf(root)
	if top == hierarchy.NotVisible || len(m.items) == 0 {
		return false
	}
	bottom := top + ix.VisibleCount(root)
	for _, id := range m.items {
		if k := ix.VisibleIndexOf(id); k > top && k <= bottom {
			return true
		}
	}
	return false
}

// Removing must be called before node is removed from ix. It drops every
// selected node inside node's subtree. When that subtree held the sole
// selected item, the selection moves to node's next sibling, else its
// parent, else nowhere; replacement is None in the last case and rehomed
// reports whether such a move happened.
func (m *Manager) Removing(ix *hierarchy.Index, node hierarchy.NodeID) (replacement hierarchy.NodeID, rehomed bool) {
	if len(m.items) == 0 {
		return hierarchy.None, false
	}
	sole := len(m.items) == 1
	inside := func(id hierarchy.NodeID) bool {
		return id == node || ix.IsAncestor(node, id)
	}
	before := len(m.items)
	for _, id := range slices.Clone(m.items) {
		if inside(id) {
			m.Deselect(id)
		}
	}
	if !sole || len(m.items) == before {
		return hierarchy.None, false
	}

	replacement = ix.NextSibling(node)
	if replacement.IsNone() {
		replacement = ix.Parent(node)
	}
	if !replacement.IsNone() {
		m.SelectExclusive(replacement)
	}
	return replacement, true
}
