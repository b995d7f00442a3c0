package ui

import (
	"fmt"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/selection"
	"github.com/vanderheijden86/arbor/pkg/surface"
)

// EventType is the kind of input a host delivers.
type EventType int

const (
	EventPaint EventType = iota
	EventMouseDown
	EventMouseDoubleClick
	EventKeyDown
	EventResize
)

func (e EventType) String() string {
	switch e {
	case EventPaint:
		return "paint"
	case EventMouseDown:
		return "mouse-down"
	case EventMouseDoubleClick:
		return "mouse-double-click"
	case EventKeyDown:
		return "key-down"
	case EventResize:
		return "resize"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Key is a non-text key.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyEnter
	KeySpace
	KeyRune // Rune holds the character
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModCtrl
)

// Event is one input event. Only the fields of its Type are read.
type Event struct {
	Type EventType

	Rect surface.Rect // paint

	X, Y   int // mouse
	Button int

	Key  Key // key
	Rune rune
	Mod  Modifier
}

// HandleEvent dispatches ev synchronously. Events that hit nothing are
// ignored.
func (t *Tree) HandleEvent(ev Event) error {
	if err := t.check(); err != nil {
		return err
	}
	switch ev.Type {
	case EventPaint:
		t.paint(ev.Rect)
	case EventMouseDown:
		t.mouseDown(ev)
	case EventMouseDoubleClick:
		t.mouseDoubleClick(ev)
	case EventKeyDown:
		t.keyDown(ev)
	case EventResize:
		t.resize()
	default:
		return fmt.Errorf("unknown event %v: %w", ev.Type, hierarchy.ErrInvalidRange)
	}
	return nil
}

// hit returns the item and visible index under a mouse event.
func (t *Tree) hit(ev Event) (hierarchy.NodeID, int, bool) {
	if ev.Button != 1 || ev.Y < 0 {
		return hierarchy.None, 0, false
	}
	k := t.vp.IndexAt(ev.Y)
	id, ok := t.ix.VisibleItemAt(k)
	return id, k, ok
}

// mouseDown resolves one action per click, in order: the hierarchy glyph,
// the checkbox, the image and label.
func (t *Tree) mouseDown(ev Event) {
	id, k, ok := t.hit(ev)
	if !ok {
		return
	}
	hadSelection := t.sel.Len() > 0
	switch {
	case !t.ix.IsLeaf(id) && t.glyphRect(id, k).Contains(ev.X, ev.Y):
		if t.ix.Expanded(id) {
			t.collapse(id)
		} else {
			t.expand(id)
		}
	case t.cfg.Checkable && t.checkboxRect(id, k).Contains(ev.X, ev.Y):
		t.toggleCheck(id)
	case t.selectionRect(id, k).Contains(ev.X, ev.Y):
		t.userSelect(id, ev.Mod)
		return
	default:
		return
	}
	// A widget clicked for the first time gets a selection anyway.
	if !hadSelection && t.sel.Len() == 0 && !t.disposed {
		if top, ok := t.ix.VisibleItemAt(t.vp.TopIndex()); ok {
			t.userSelect(top, 0)
		}
	}
}

// mouseDoubleClick sends DefaultSelection when anyone listens for it,
// otherwise a hit on the label toggles expansion.
func (t *Tree) mouseDoubleClick(ev Event) {
	id, k, ok := t.hit(ev)
	if !ok {
		return
	}
	if t.hasListener(NotifyDefaultSelection) {
		t.notify(NotifyDefaultSelection, id, DetailNone)
		return
	}
	if t.ix.IsLeaf(id) || !t.selectionRect(id, k).Contains(ev.X, ev.Y) {
		return
	}
	if t.ix.Expanded(id) {
		t.collapse(id)
	} else {
		t.expand(id)
	}
}

func (t *Tree) keyDown(ev Event) {
	focus := t.focusItem()
	if focus.IsNone() {
		return
	}
	k := t.ix.VisibleIndexOf(focus)
	page := max(t.vp.PageWhole()-1, 1)

	switch ev.Key {
	case KeyRune:
		switch ev.Rune {
		case '+':
			t.expand(focus)
		case '-':
			t.collapse(focus)
		case '*':
			t.expandAll(focus)
		}
	case KeyLeft:
		if t.ix.Expanded(focus) && !t.ix.IsLeaf(focus) {
			t.collapse(focus)
		} else if parent := t.ix.Parent(focus); !parent.IsNone() {
			t.userSelect(parent, ev.Mod)
		}
	case KeyRight:
		if t.ix.IsLeaf(focus) {
			return
		}
		if !t.ix.Expanded(focus) {
			t.expand(focus)
		} else if first, err := t.ix.ChildAt(focus, 0); err == nil {
			t.userSelect(first, ev.Mod)
		}
	case KeyUp:
		t.moveTo(k-1, ev.Mod)
	case KeyDown:
		t.moveTo(k+1, ev.Mod)
	case KeyHome:
		t.moveTo(0, ev.Mod)
	case KeyEnd:
		t.moveTo(t.ix.TotalVisibleCount()-1, ev.Mod)
	case KeyPageUp:
		t.moveTo(max(k-page, 0), ev.Mod)
	case KeyPageDown:
		t.moveTo(min(k+page, t.ix.TotalVisibleCount()-1), ev.Mod)
	case KeySpace:
		switch {
		case t.cfg.Checkable:
			t.toggleCheck(focus)
		case t.sel.Mode() == selection.Multi:
			t.userSelect(focus, ModCtrl)
		default:
			t.userSelect(focus, 0)
		}
	case KeyEnter:
		t.notify(NotifyDefaultSelection, focus, DetailNone)
	}
}

// moveTo selects visible row k from the keyboard. Ctrl in multi mode only
// moves the focus.
func (t *Tree) moveTo(k int, mod Modifier) {
	id, ok := t.ix.VisibleItemAt(k)
	if !ok {
		return
	}
	if mod&ModCtrl != 0 && t.sel.Mode() == selection.Multi {
		t.setFocus(id)
		t.vp.ShowIndex(k)
		return
	}
	t.userSelect(id, mod)
}

func (t *Tree) resize() {
	oldW, oldH := t.width, t.height
	w, h := t.geo.ClientArea()
	t.width, t.height = w, h
	t.vp.Resize(oldW, oldH)
	if h > oldH {
		t.canvas.Redraw(surface.Rect{Y: oldH, W: w, H: h - oldH})
	}
	if w > oldW {
		t.canvas.Redraw(surface.Rect{X: oldW, W: w - oldW, H: h})
	}
}
