package ui

import (
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/metrics"
	"github.com/vanderheijden86/arbor/pkg/surface"
)

// gatedCanvas drops screen work while redraw is suspended.
type gatedCanvas struct {
	c         surface.Canvas
	suspended int
}

func (g *gatedCanvas) Redraw(r surface.Rect) {
	if g.suspended == 0 && !r.Empty() {
		g.c.Redraw(r)
	}
}

func (g *gatedCanvas) Scroll(destX, destY, srcX, srcY, w, h int) {
	if g.suspended == 0 && w > 0 && h > 0 {
		g.c.Scroll(destX, destY, srcX, srcY, w, h)
	}
}

func (g *gatedCanvas) Update() {
	if g.suspended == 0 {
		g.c.Update()
	}
}

// SetRedraw suspends (false) or resumes (true) screen work. Calls nest;
// the outermost resume settles the viewport and repaints everything once.
func (t *Tree) SetRedraw(on bool) error {
	if err := t.check(); err != nil {
		return err
	}
	t.setRedraw(on)
	return nil
}

func (t *Tree) setRedraw(on bool) {
	if !on {
		t.canvas.suspended++
		return
	}
	if t.canvas.suspended == 0 {
		return
	}
	t.canvas.suspended--
	if t.canvas.suspended == 0 {
		t.settle()
	}
}

// WithRedrawSuspended runs fn with redraw suspended. Redraw is resumed,
// and the settling repaint issued, however fn returns, panics included.
func (t *Tree) WithRedrawSuspended(fn func() error) error {
	if err := t.check(); err != nil {
		return err
	}
	t.setRedraw(false)
	defer t.setRedraw(true)
	return fn()
}

// settle brings the viewport back in range after bulk changes and
// repaints the whole client area.
func (t *Tree) settle() {
	if t.disposed {
		return
	}
	t.vp.SetTopIndexNoScroll(t.vp.TopIndex())
	t.vp.RescanShowing()
	t.vp.ClaimRightFreeSpace()
	t.redrawAll()
}

func (t *Tree) redrawAll() {
	w, h := t.geo.ClientArea()
	t.canvas.Redraw(surface.Rect{W: w, H: h})
}

// rowLayout holds x offsets of a row's parts in content coordinates.
type rowLayout struct {
	glyph, check, image, text int
}

func (t *Tree) layout(id hierarchy.NodeID) rowLayout {
	var l rowLayout
	l.glyph = t.ix.Depth(id) * t.cfg.Indent
	x := l.glyph + t.cfg.GlyphWidth + t.cfg.Gap
	if t.cfg.Checkable {
		l.check = x
		x += t.cfg.CheckboxWidth + t.cfg.Gap
	}
	l.image = x
	if t.ix.HasImage(id) {
		x += t.cfg.ImageWidth + t.cfg.Gap
	}
	l.text = x
	return l
}

func (t *Tree) paintStartX() int { return -t.vp.HorizontalOffset() }

// glyphRect is the hierarchy indicator of visible row k.
func (t *Tree) glyphRect(id hierarchy.NodeID, k int) surface.Rect {
	h, gh := t.itemHeight, t.cfg.GlyphHeight
	return surface.Rect{
		X: t.paintStartX() + t.layout(id).glyph,
		Y: t.vp.RowY(k) + (h-gh)/2 + (h-gh)%2,
		W: t.cfg.GlyphWidth,
		H: gh,
	}
}

// checkboxRect is the checkbox of visible row k.
func (t *Tree) checkboxRect(id hierarchy.NodeID, k int) surface.Rect {
	h, ch := t.itemHeight, t.cfg.CheckboxHeight
	return surface.Rect{
		X: t.paintStartX() + t.layout(id).check,
		Y: t.vp.RowY(k) + (h-ch)/2,
		W: t.cfg.CheckboxWidth,
		H: ch,
	}
}

// selectionRect spans the image and the label of visible row k.
func (t *Tree) selectionRect(id hierarchy.NodeID, k int) surface.Rect {
	start := t.layout(id).image
	return surface.Rect{
		X: t.paintStartX() + start,
		Y: t.vp.RowY(k),
		W: t.rowWidth(id) - start,
		H: t.itemHeight,
	}
}

// rowRect is the full-width band of visible row k.
func (t *Tree) rowRect(k int) surface.Rect {
	w, _ := t.geo.ClientArea()
	return surface.Rect{Y: t.vp.RowY(k), W: w, H: t.itemHeight}
}

// onScreen reports whether visible index k has a row in the client area.
func (t *Tree) onScreen(k int) bool {
	top := t.vp.TopIndex()
	return k >= top && k < top+t.vp.PageTruncated()
}

// redrawItem invalidates id's row when it is on screen.
func (t *Tree) redrawItem(id hierarchy.NodeID) {
	if k := t.ix.VisibleIndexOf(id); k != hierarchy.NotVisible && t.onScreen(k) {
		t.canvas.Redraw(t.rowRect(k))
	}
}

func (t *Tree) redrawItems(ids []hierarchy.NodeID) {
	for _, id := range ids {
		t.redrawItem(id)
	}
}

// redrawGlyph invalidates the part of id's row left of its checkbox or
// label: the connectors and the hierarchy indicator.
func (t *Tree) redrawGlyph(id hierarchy.NodeID) {
	k := t.ix.VisibleIndexOf(id)
	if k == hierarchy.NotVisible || !t.onScreen(k) {
		return
	}
	g := t.glyphRect(id, k)
	t.canvas.Redraw(surface.Rect{Y: t.vp.RowY(k), W: g.X + g.W, H: t.itemHeight})
}

// buildRow describes visible row k for the drawing surface.
func (t *Tree) buildRow(id hierarchy.NodeID, k int) surface.Row {
	l := t.layout(id)
	x := t.paintStartX()
	row := surface.Row{
		Index:     k,
		Label:     t.ix.Label(id),
		Depth:     t.ix.Depth(id),
		Last:      t.ix.NextSibling(id).IsNone(),
		Selected:  t.sel.Contains(id),
		Focused:   id == t.focus,
		Checkable: t.cfg.Checkable,
		Checked:   t.ix.Checked(id),
		Image:     t.ix.HasImage(id),
		X:         x,
		GlyphX:    x + l.glyph,
		CheckX:    x + l.check,
		ImageX:    x + l.image,
		TextX:     x + l.text,
		Width:     t.rowWidth(id),
		Height:    t.itemHeight,
	}
	switch {
	case t.ix.IsLeaf(id):
		row.Glyph = surface.GlyphLeaf
	case t.ix.Expanded(id):
		row.Glyph = surface.GlyphExpanded
	default:
		row.Glyph = surface.GlyphCollapsed
	}
	if anc := t.ix.Ancestors(id); len(anc) > 1 {
		row.Rails = make([]bool, len(anc)-1)
		for i, a := range anc[1:] {
			row.Rails[i] = !t.ix.NextSibling(a).IsNone()
		}
	}
	return row
}

// paint draws the rows intersecting r.
func (t *Tree) paint(r surface.Rect) {
	defer metrics.Timer(metrics.Paint)()
	first, last := t.vp.IndexRange(r)
	if first > last {
		return
	}
	id, ok := t.ix.VisibleItemAt(first)
	for k := first; ok && k <= last; k++ {
		t.surf.DrawRow(t.buildRow(id, k), t.vp.RowY(k))
		id = t.ix.NextVisible(id)
		ok = !id.IsNone()
	}
	metrics.RowsPainted.Add(last - first + 1)
}
