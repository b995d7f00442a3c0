package ui

import (
	"slices"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/selection"
)

// Select makes id the only selected item and scrolls it into view. It
// does not notify.
func (t *Tree) Select(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	t.changeSelection(func() { t.sel.SelectExclusive(id) })
	t.setFocus(id)
	t.showItem(id)
	return nil
}

// SetSelection replaces the selection with ids (only the first in single
// mode) and shows the first of them. It does not notify.
func (t *Tree) SetSelection(ids []hierarchy.NodeID) error {
	if err := t.check(); err != nil {
		return err
	}
	for _, id := range ids {
		if err := t.checkItem(id); err != nil {
			return err
		}
	}
	t.changeSelection(func() { t.sel.Set(ids) })
	if items := t.sel.Items(); len(items) > 0 {
		t.setFocus(items[0])
		t.showItem(items[0])
	}
	return nil
}

// Deselect removes id from the selection.
func (t *Tree) Deselect(id hierarchy.NodeID) error {
	if err := t.checkItem(id); err != nil {
		return err
	}
	t.changeSelection(func() { t.sel.Deselect(id) })
	return nil
}

// SelectAll selects every item. Multi mode only; single mode ignores it.
func (t *Tree) SelectAll() error {
	if err := t.check(); err != nil {
		return err
	}
	if t.sel.SelectAll(t.ix) {
		t.redrawAll()
	}
	return nil
}

// DeselectAll empties the selection.
func (t *Tree) DeselectAll() error {
	if err := t.check(); err != nil {
		return err
	}
	t.changeSelection(t.sel.Clear)
	return nil
}

// Selection returns the selected items in tree order.
func (t *Tree) Selection() ([]hierarchy.NodeID, error) {
	if err := t.check(); err != nil {
		return nil, err
	}
	return t.sel.Sorted(t.ix), nil
}

// SelectionCount is the number of selected items.
func (t *Tree) SelectionCount() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.sel.Len(), nil
}

// Focus is the item keyboard navigation starts from.
func (t *Tree) Focus() (hierarchy.NodeID, error) {
	if err := t.check(); err != nil {
		return hierarchy.None, err
	}
	return t.focusItem(), nil
}

// Style is the selection mode.
func (t *Tree) Style() selection.Mode { return t.sel.Mode() }

// changeSelection applies fn and repaints the rows whose selected state
// may have changed.
func (t *Tree) changeSelection(fn func()) {
	before := t.sel.Items()
	fn()
	after := t.sel.Items()
	for _, id := range before {
		if !slices.Contains(after, id) {
			t.redrawItem(id)
		}
	}
	for _, id := range after {
		if !slices.Contains(before, id) {
			t.redrawItem(id)
		}
	}
}

// focusItem resolves the focus: the focused item if it is still visible,
// else the first selected visible item, else the top row.
func (t *Tree) focusItem() hierarchy.NodeID {
	if t.ix.Contains(t.focus) && t.ix.IsVisible(t.focus) {
		return t.focus
	}
	for _, id := range t.sel.Sorted(t.ix) {
		if t.ix.IsVisible(id) {
			return id
		}
	}
	id, _ := t.ix.VisibleItemAt(t.vp.TopIndex())
	return id
}

func (t *Tree) setFocus(id hierarchy.NodeID) {
	if id == t.focus {
		return
	}
	old := t.focus
	t.focus = id
	if t.ix.Contains(old) {
		t.redrawItem(old)
	}
	t.redrawItem(id)
}

// userSelect is a selection made by mouse or keyboard: it honours the
// modifiers in multi mode, moves the focus and notifies.
func (t *Tree) userSelect(id hierarchy.NodeID, mod Modifier) {
	k := t.ix.VisibleIndexOf(id)
	multi := t.sel.Mode() == selection.Multi
	switch {
	case multi && mod&ModCtrl != 0:
		t.changeSelection(func() { t.sel.Toggle(id) })
	case multi && mod&ModShift != 0 && t.ix.IsVisible(t.sel.Anchor()):
		from := t.ix.VisibleIndexOf(t.sel.Anchor())
		t.changeSelection(func() { t.sel.Extend(t.ix, from, k) })
	default:
		t.changeSelection(func() { t.sel.SelectExclusive(id) })
	}
	t.setFocus(id)
	t.vp.ShowIndex(k)
	t.notify(NotifySelection, id, DetailNone)
}

// toggleCheck flips id's checkbox from user input and notifies.
func (t *Tree) toggleCheck(id hierarchy.NodeID) {
	_ = t.SetChecked(id, !t.ix.Checked(id))
	t.notify(NotifySelection, id, DetailCheck)
}
