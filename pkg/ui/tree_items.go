package ui

import (
	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/metrics"
	"github.com/vanderheijden86/arbor/pkg/surface"
)

// Insert adds a collapsed item labelled label as child number index of
// parent (None for a root).
func (t *Tree) Insert(parent hierarchy.NodeID, index int, label string) (hierarchy.NodeID, error) {
	if err := t.checkParent(parent); err != nil {
		return hierarchy.None, err
	}
	id, err := t.ix.Insert(parent, index, label)
	if err != nil {
		return hierarchy.None, err
	}
	// Children added by an Expand listener are settled by the expand.
	if !parent.IsNone() && parent == t.expanding {
		return id, nil
	}

	k := t.ix.VisibleIndexOf(id)
	switch {
	case k == hierarchy.NotVisible:
		// First child of a collapsed parent: it grows a glyph.
		if t.ix.ChildCount(parent) == 1 {
			t.redrawGlyph(parent)
		}
	case k < t.vp.TopIndex():
		t.vp.RowsInserted(k, 1)
	default:
		t.vp.Widen(id)
		t.redrawAfterInsert(id, k)
	}
	return id, nil
}

// Append adds label as the last child of parent.
func (t *Tree) Append(parent hierarchy.NodeID, label string) (hierarchy.NodeID, error) {
	if err := t.checkParent(parent); err != nil {
		return hierarchy.None, err
	}
	return t.Insert(parent, t.ix.ChildCount(parent), label)
}

// redrawAfterInsert shifts the rows below the new row k down and repaints
// only the rows whose content changed: the new row, the previous sibling's
// connectors when the new item became the last child, and the parent's
// glyph when the new item is its first child.
func (t *Tree) redrawAfterInsert(id hierarchy.NodeID, k int) {
	w, h := t.geo.ClientArea()
	y := t.vp.RowY(k)
	if y >= h {
		// The previous sibling may still be on screen.
		t.redrawParentItem(id, k)
		return
	}
	ih := t.itemHeight
	t.canvas.Scroll(0, y+ih, 0, y, w, h-y-ih)
	if k == 0 {
		t.canvas.Redraw(surface.Rect{W: w, H: 2 * ih})
	} else {
		t.canvas.Redraw(surface.Rect{Y: y, W: w, H: ih})
	}
	t.redrawParentItem(id, k)
}

// redrawParentItem repaints the glyph area a sibling-count change touches.
// childIndex thresholds: a new or removed last child changes the previous
// sibling's connector, a parent whose child count crosses one changes its
// own glyph.
func (t *Tree) redrawParentItem(id hierarchy.NodeID, k int) {
	parent := t.ix.Parent(id)
	index := t.ix.IndexOf(id)
	count := t.ix.ChildCount(parent)
	if index > 0 && index >= count-1 {
		prev, _ := t.ix.ChildAt(parent, index-1)
		t.redrawConnectors(prev, k)
	}
	if index == 0 && count < 2 && !parent.IsNone() {
		t.redrawGlyph(parent)
	}
}

// redrawConnectors repaints the connector column from from's row down to,
// not including, visible row end.
func (t *Tree) redrawConnectors(from hierarchy.NodeID, end int) {
	a := t.ix.VisibleIndexOf(from)
	if a == hierarchy.NotVisible {
		return
	}
	a = max(a, t.vp.TopIndex())
	b := min(end, t.vp.TopIndex()+t.vp.PageTruncated())
	if a >= b {
		return
	}
	g := t.glyphRect(from, a)
	left := max(g.X-t.cfg.Indent, 0)
	t.canvas.Redraw(surface.Rect{
		X: left,
		Y: t.vp.RowY(a),
		W: g.X + g.W - left,
		H: (b - a) * t.itemHeight,
	})
}

// Remove deletes id and its subtree. When the removed subtree held the
// only selected item, the selection moves to the next sibling, else the
// parent, and a selection notification is sent.
func (t *Tree) Remove(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	defer metrics.Timer(metrics.Remove)()

	parent := t.ix.Parent(id)
	index := t.ix.IndexOf(id)
	prev := hierarchy.None
	if index > 0 {
		prev, _ = t.ix.ChildAt(parent, index-1)
	}
	rows := 1 + t.ix.VisibleCount(id)

	replacement, rehomed := t.sel.Removing(t.ix, id)
	if t.focus == id || t.ix.IsAncestor(id, t.focus) {
		t.focus = replacement
	}
	if t.expanding == id || t.ix.IsAncestor(id, t.expanding) {
		t.expanding = hierarchy.None
	}

	k, err := t.ix.Remove(id)
	if err != nil {
		return err
	}
	debug.Log("removed %v at visible %d (%d rows)", id, k, rows)

	switch {
	case !parent.IsNone() && parent == t.expanding:
	case k == hierarchy.NotVisible:
		if t.ix.ChildCount(parent) == 0 && !parent.IsNone() {
			t.redrawGlyph(parent)
		}
	case k+rows <= t.vp.TopIndex():
		t.vp.RowsRemoved(k, rows)
	case k < t.vp.TopIndex():
		// The subtree reached onto the screen: the top moves to k and
		// every row shifts.
		t.vp.RowsRemoved(k, rows)
		t.redrawAll()
		t.vp.RescanShowing()
		t.vp.ClaimRightFreeSpace()
		t.vp.ClaimBottomFreeSpace()
	default:
		t.redrawAfterRemove(parent, prev, index, k, rows)
	}

	if rehomed && !replacement.IsNone() {
		debug.Log("selection re-homed to %v", replacement)
		t.redrawItem(replacement)
		t.notify(NotifySelection, replacement, DetailNone)
	}
	return nil
}

func (t *Tree) redrawAfterRemove(parent, prev hierarchy.NodeID, index, k, rows int) {
	w, h := t.geo.ClientArea()
	ih := t.itemHeight
	y := t.vp.RowY(k)
	if y < h {
		gone := rows * ih
		t.canvas.Scroll(0, y, 0, y+gone, w, h-y-gone)
		// Rows pulled up from below the client area.
		from := max(h-gone, y)
		t.canvas.Redraw(surface.Rect{Y: from, W: w, H: h - from})
		if k == 0 {
			t.canvas.Redraw(surface.Rect{W: w, H: 2 * ih})
		}
	}
	count := t.ix.ChildCount(parent)
	switch {
	case index > 0 && index >= count && !prev.IsNone():
		// prev became the last child.
		t.redrawConnectors(prev, k)
	case index == 0 && count == 0 && !parent.IsNone():
		t.redrawGlyph(parent)
	}
	t.vp.RescanShowing()
	t.vp.ClaimRightFreeSpace()
	t.vp.ClaimBottomFreeSpace()
}

// RemoveAll deletes every item with redraw suspended.
func (t *Tree) RemoveAll() error {
	if err := t.check(); err != nil {
		return err
	}
	defer debug.LogEnterExit("RemoveAll")()
	return t.WithRedrawSuspended(func() error {
		t.ix.RemoveAll()
		t.sel.Clear()
		t.focus = hierarchy.None
		t.expanding = hierarchy.None
		t.vp.Reset()
		return nil
	})
}

// SetLabel replaces the text of id.
func (t *Tree) SetLabel(id hierarchy.NodeID, label string) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	old := t.rowWidth(id)
	if err := t.ix.SetLabel(id, label); err != nil {
		return err
	}
	t.afterWidthChange(id, old)
	return nil
}

// SetImage shows or hides the image slot of id.
func (t *Tree) SetImage(id hierarchy.NodeID, image bool) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	old := t.rowWidth(id)
	if err := t.ix.SetImage(id, image); err != nil {
		return err
	}
	t.afterWidthChange(id, old)
	return nil
}

func (t *Tree) afterWidthChange(id hierarchy.NodeID, old int) {
	if !t.ix.IsVisible(id) {
		return
	}
	t.redrawItem(id)
	if t.rowWidth(id) >= old {
		t.vp.Widen(id)
		return
	}
	if old >= t.vp.ContentWidth() {
		t.vp.RescanShowing()
		t.vp.ClaimRightFreeSpace()
	}
}

// SetChecked sets the checkbox state of id. It does not notify and
// only repaints when the tree is checkable.
func (t *Tree) SetChecked(id hierarchy.NodeID, checked bool) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	if t.ix.Checked(id) == checked {
		return nil
	}
	if err := t.ix.SetChecked(id, checked); err != nil {
		return err
	}
	if k := t.ix.VisibleIndexOf(id); t.cfg.Checkable && k != hierarchy.NotVisible && t.onScreen(k) {
		t.canvas.Redraw(t.checkboxRect(id, k))
	}
	return nil
}
