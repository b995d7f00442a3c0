package ui

import (
	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/metrics"
	"github.com/vanderheijden86/arbor/pkg/surface"
)

// Expand shows the children of id and sends an expand notification.
// Expanding a leaf or an expanded item does nothing.
func (t *Tree) Expand(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	t.expand(id)
	return nil
}

// Collapse hides the children of id and sends a collapse notification.
func (t *Tree) Collapse(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	t.collapse(id)
	return nil
}

// SetExpanded expands or collapses id.
func (t *Tree) SetExpanded(id hierarchy.NodeID, expanded bool) error {
	if expanded {
		return t.Expand(id)
	}
	return t.Collapse(id)
}

// Toggle flips the expand state of id.
func (t *Tree) Toggle(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	if t.ix.Expanded(id) {
		t.collapse(id)
	} else {
		t.expand(id)
	}
	return nil
}

// expand opens id in two phases: the rows below are copied down by the
// span the children will take, then the flag is set. Children an Expand
// listener inserts or removes (lazy population behind a placeholder child)
// are not known to the first phase, so their band is repainted once the
// listeners return.
func (t *Tree) expand(id hierarchy.NodeID) {
	if t.ix.Expanded(id) || t.ix.IsLeaf(id) {
		return
	}
	defer metrics.Timer(metrics.Expand)()

	nested := !t.expanding.IsNone()
	if !nested {
		t.expanding = id
		defer func() { t.expanding = hierarchy.None }()
	}

	visible := t.ix.IsVisible(id)
	if visible {
		t.vp.ScrollForExpand(id)
	}
	before := t.ix.ExpandedCount(id)
	_ = t.ix.SetExpanded(id, true)
	debug.Log("expand %v (%d rows)", id, before)
	t.notify(NotifyExpand, id, DetailNone)
	if t.disposed || !t.ix.Contains(id) {
		return
	}

	if !visible {
		return
	}
	k := t.ix.VisibleIndexOf(id)
	if t.ix.ExpandedCount(id) != before {
		w, h := t.geo.ClientArea()
		y := t.vp.RowY(k + 1)
		t.canvas.Redraw(surface.Rect{Y: y, W: w, H: h - y})
	}
	t.redrawGlyph(id)
	// Bulk loads run with redraw suspended and keep their scroll position.
	if !nested && t.canvas.suspended == 0 {
		t.vp.ShowIndex(k)
		t.vp.WidenForExpand(id)
		t.vp.ScrollExpandedIntoView(id)
	}
}

// collapse hides id's children. When a selected item is among them the
// selection moves to id first and is flushed to the screen before the
// rows below are copied up.
func (t *Tree) collapse(id hierarchy.NodeID) {
	if !t.ix.Expanded(id) {
		return
	}
	defer metrics.Timer(metrics.Collapse)()

	visible := t.ix.VisibleIndexOf(id) != hierarchy.NotVisible
	if visible && t.sel.IsSelectedAndCollapsing(t.ix, id) {
		old := t.sel.Items()
		t.sel.SelectExclusive(id)
		t.redrawItems(old)
		t.redrawItem(id)
		t.setFocus(id)
		debug.Log("collapse %v re-homes selection", id)
		t.notify(NotifySelection, id, DetailNone)
		t.canvas.Update()
		if t.disposed || !t.ix.Expanded(id) {
			return
		}
	}

	if visible {
		t.vp.ScrollForCollapse(id)
	}
	_ = t.ix.SetExpanded(id, false)
	debug.Log("collapse %v", id)
	if visible {
		t.redrawGlyph(id)
		t.vp.ShowIndex(t.ix.VisibleIndexOf(id))
		t.vp.RescanShowing()
		t.vp.ClaimRightFreeSpace()
		t.vp.ClaimBottomFreeSpace()
	}
	t.notify(NotifyCollapse, id, DetailNone)
}

// ExpandAll expands id and every item below it, each with its own
// notification, using an explicit worklist. Screen work is batched into
// one repaint.
func (t *Tree) ExpandAll(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	t.expandAll(id)
	return nil
}

func (t *Tree) expandAll(id hierarchy.NodeID) {
	t.setRedraw(false)
	stack := []hierarchy.NodeID{id}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !t.ix.Contains(n) {
			continue
		}
		t.expand(n)
		kids := t.ix.Children(n)
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	t.setRedraw(true)
	if t.disposed || !t.ix.Contains(id) {
		return
	}
	if k := t.ix.VisibleIndexOf(id); k != hierarchy.NotVisible {
		t.vp.ShowIndex(k)
		t.vp.ScrollExpandedIntoView(id)
	}
}

// CollapseAll collapses id and every item below it.
func (t *Tree) CollapseAll(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	var order []hierarchy.NodeID
	t.ix.Walk(id, func(n hierarchy.NodeID, _ int) bool {
		order = append(order, n)
		return true
	})
	t.setRedraw(false)
	defer t.setRedraw(true)
	for i := len(order) - 1; i >= 0; i-- {
		if t.ix.Contains(order[i]) {
			t.collapse(order[i])
		}
	}
	return nil
}

// ShowItem expands every collapsed ancestor of id, notifying for each,
// then scrolls the minimal distance that puts id on screen.
func (t *Tree) ShowItem(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	t.showItem(id)
	return nil
}

func (t *Tree) showItem(id hierarchy.NodeID) {
	for _, a := range t.ix.Ancestors(id) {
		if !t.ix.Contains(a) {
			return
		}
		t.expand(a)
	}
	if k := t.ix.VisibleIndexOf(id); k != hierarchy.NotVisible {
		t.vp.ShowIndex(k)
	}
}

// ShowSelection scrolls the first selected item, in tree order, into view.
func (t *Tree) ShowSelection() error {
	if err := t.check(); err != nil {
		return err
	}
	if sorted := t.sel.Sorted(t.ix); len(sorted) > 0 {
		t.showItem(sorted[0])
	}
	return nil
}
