// Package viewport maps the visible-item index space of a hierarchy onto
// pixel rows. It owns the top index, the horizontal offset and the running
// content width, and turns structural changes into the smallest block
// copies and invalidations it can.
package viewport

import (
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/metrics"
	"github.com/vanderheijden86/arbor/pkg/surface"
)

// RowMeasurer returns the content width of a row measured from the
// widget's left edge, including indentation and decorations.
type RowMeasurer interface {
	RowWidth(id hierarchy.NodeID) int
}

// Scrollbars is the scrollbar state derived from the viewport.
type Scrollbars struct {
	VMax, VThumb, VSelection int
	VVisible                 bool
	HMax, HThumb, HSelection int
	HVisible                 bool
}

// Coordinator is the viewport of one widget.
type Coordinator struct {
	ix     *hierarchy.Index
	geo    surface.Geometry
	canvas surface.Canvas
	rows   RowMeasurer

	itemHeight   int
	top          int
	vbar         int // vertical scrollbar position as last pushed
	contentWidth int
	hOffset      int
}

// New returns a coordinator for ix. itemHeight is clamped to at least one
// pixel.
func New(ix *hierarchy.Index, geo surface.Geometry, canvas surface.Canvas, rows RowMeasurer, itemHeight int) *Coordinator {
	return &Coordinator{
		ix:         ix,
		geo:        geo,
		canvas:     canvas,
		rows:       rows,
		itemHeight: max(itemHeight, 1),
	}
}

func (c *Coordinator) ItemHeight() int       { return c.itemHeight }
func (c *Coordinator) TopIndex() int         { return c.top }
func (c *Coordinator) ContentWidth() int     { return c.contentWidth }
func (c *Coordinator) HorizontalOffset() int { return c.hOffset }

// SetItemHeight changes the row height and clamps the top index.
func (c *Coordinator) SetItemHeight(h int) {
	c.itemHeight = max(h, 1)
	c.top = min(c.top, c.maxTop())
}

func (c *Coordinator) clientArea() (int, int) {
	w, h := c.geo.ClientArea()
	return max(w, 0), max(h, 0)
}

// PageWhole is the number of rows that fit completely in the client area.
func (c *Coordinator) PageWhole() int {
	_, h := c.clientArea()
	return h / c.itemHeight
}

// PageTruncated also counts a partially visible last row.
func (c *Coordinator) PageTruncated() int {
	_, h := c.clientArea()
	return (h + c.itemHeight - 1) / c.itemHeight
}

func (c *Coordinator) maxTop() int {
	return max(0, c.ix.TotalVisibleCount()-c.PageWhole())
}

func (c *Coordinator) clampTop(i int) int {
	return min(max(i, 0), c.maxTop())
}

// RowY is the client y of visible index k.
func (c *Coordinator) RowY(k int) int {
	return (k - c.top) * c.itemHeight
}

// IndexAt is the visible index under client y. It may be out of range.
func (c *Coordinator) IndexAt(y int) int {
	if y < 0 {
		return c.top - 1
	}
	return c.top + y/c.itemHeight
}

// IndexRange returns the visible indexes whose rows intersect r. first is
// greater than last when no row does.
func (c *Coordinator) IndexRange(r surface.Rect) (first, last int) {
	if r.Empty() {
		return 0, -1
	}
	first = c.top + max(r.Y, 0)/c.itemHeight
	last = c.top + (r.Bottom()-1)/c.itemHeight
	last = min(last, c.ix.TotalVisibleCount()-1)
	return first, last
}

// SetTopIndex scrolls so that visible index i is the first row. The index
// is clamped so the last page stays full. The canvas is block copied when
// part of the old content stays on screen and the newly exposed band is
// invalidated; only that band is measured for content width.
// adjustScrollbar is false when the scrollbar itself caused the change.
// It reports whether the top moved.
func (c *Coordinator) SetTopIndex(i int, adjustScrollbar bool) bool {
	i = c.clampTop(i)
	if i == c.top {
		return false
	}
	delta := i - c.top
	w, h := c.clientArea()
	if abs(delta) < c.PageTruncated() {
		shift := abs(delta) * c.itemHeight
		// A copy damages only the part of its source it uncovers, which
		// misses rows past half a page.
		if delta > 0 {
			c.canvas.Scroll(0, 0, 0, shift, w, h-shift)
			c.canvas.Redraw(surface.Rect{Y: max(h-shift, 0), W: w, H: min(shift, h)})
		} else {
			c.canvas.Scroll(0, shift, 0, 0, w, h-shift)
			c.canvas.Redraw(surface.Rect{W: w, H: min(shift, h)})
		}
	} else {
		c.canvas.Redraw(surface.Rect{W: w, H: h})
	}
	c.top = i
	if adjustScrollbar {
		c.vbar = i
	}
	c.widenScrolled(delta)
	return true
}

// SetTopIndexNoScroll moves the top index without touching the canvas.
func (c *Coordinator) SetTopIndexNoScroll(i int) {
	c.top = c.clampTop(i)
	c.vbar = c.top
}

// SetScrollbarSelection records a scrollbar drag and scrolls to match.
func (c *Coordinator) SetScrollbarSelection(i int) bool {
	c.vbar = c.clampTop(i)
	return c.SetTopIndex(i, false)
}

// ScrollBy scrolls by rows, negative moving up.
func (c *Coordinator) ScrollBy(rows int) bool {
	return c.SetTopIndex(c.top+rows, true)
}

// ShowIndex scrolls the minimal distance that brings visible index k fully
// on screen.
func (c *Coordinator) ShowIndex(k int) bool {
	if k < 0 || k >= c.ix.TotalVisibleCount() {
		return false
	}
	page := max(c.PageWhole(), 1)
	switch {
	case k < c.top:
		return c.SetTopIndex(k, true)
	case k >= c.top+page:
		return c.SetTopIndex(k-page+1, true)
	}
	return false
}

// ChildrenSpan returns the client y band that node's children occupy if
// node is, or would be, expanded. It does not read or change node's
// expand flag, so it can be asked before a toggle and again after it.
// ok is false when node itself is not visible.
func (c *Coordinator) ChildrenSpan(node hierarchy.NodeID, wouldBeExpanded bool) (startY, endY int, ok bool) {
	k := c.ix.VisibleIndexOf(node)
	if k == hierarchy.NotVisible {
		return -1, -1, false
	}
	count := 0
	if wouldBeExpanded {
		count = c.ix.ExpandedCount(node)
	}
	y := (k - c.top + count + 1) * c.itemHeight
	return y - count*c.itemHeight, y, true
}

// ScrollForExpand opens the gap node's children will fill by copying the
// rows below node down. Call it before node's expand flag is set.
func (c *Coordinator) ScrollForExpand(node hierarchy.NodeID) {
	start, end, ok := c.ChildrenSpan(node, true)
	w, h := c.clientArea()
	if !ok || start == end || start >= h {
		return
	}
	c.canvas.Scroll(0, end, 0, start, w, h-start)
}

// ScrollForCollapse closes the gap node's children leave. Call it before
// node's expand flag is cleared. When the view is scrolled to the bottom
// and the children fit above the top row, the content above is pulled
// down instead and the top index shrinks by the number of hidden rows.
func (c *Coordinator) ScrollForCollapse(node hierarchy.NodeID) {
	start, end, ok := c.ChildrenSpan(node, true)
	if !ok || start == end {
		return
	}
	count := c.ix.VisibleCount(node)
	w, h := c.clientArea()
	height := end - start

	switch {
	case end <= 0:
		// Children entirely above the view: same rows stay on screen.
		c.SetTopIndexNoScroll(c.top - count)
	case start < 0:
		c.SetTopIndexNoScroll(c.ix.VisibleIndexOf(node))
		c.canvas.Redraw(surface.Rect{W: w, H: h})
	case c.top+c.PageWhole() == c.ix.TotalVisibleCount() && count < c.top:
		c.canvas.Scroll(0, 0, 0, -height, w, start+height)
		c.SetTopIndexNoScroll(c.top - count)
	case start < h:
		c.canvas.Scroll(0, start, 0, end, w, h-start)
	}
}

// OffScreenCount is how many of node's visible children fall below the
// last whole row.
func (c *Coordinator) OffScreenCount(node hierarchy.NodeID) int {
	k := c.ix.VisibleIndexOf(node)
	if k == hierarchy.NotVisible {
		return 0
	}
	fromTop := k - c.top
	return c.ix.VisibleCount(node) - (c.PageWhole() - (fromTop + 1))
}

// ScrollExpandedIntoView scrolls down so that as many of node's freshly
// expanded children as possible are visible without pushing node itself
// off the top.
func (c *Coordinator) ScrollExpandedIntoView(node hierarchy.NodeID) bool {
	off := c.OffScreenCount(node)
	if off <= 0 {
		return false
	}
	k := c.ix.VisibleIndexOf(node)
	return c.SetTopIndex(min(k, c.top+off), true)
}

// Widen raises the content width to cover the given rows.
func (c *Coordinator) Widen(ids ...hierarchy.NodeID) bool {
	widened := false
	for _, id := range ids {
		if w := c.rows.RowWidth(id); w > c.contentWidth {
			c.contentWidth = w
			widened = true
		}
	}
	metrics.RowsMeasured.Add(len(ids))
	return widened
}

// widenRange measures visible indexes [from, to).
func (c *Coordinator) widenRange(from, to int) bool {
	defer metrics.Timer(metrics.WidthScan)()
	from = max(from, 0)
	to = min(to, c.ix.TotalVisibleCount())
	widened := false
	for k := from; k < to; k++ {
		id, ok := c.ix.VisibleItemAt(k)
		if !ok {
			break
		}
		if c.Widen(id) {
			widened = true
		}
	}
	return widened
}

// widenScrolled measures the band a scroll of delta rows exposed, never
// more than one page.
func (c *Coordinator) widenScrolled(delta int) bool {
	page := c.PageTruncated()
	n := min(abs(delta), page)
	if delta > 0 {
		return c.widenRange(c.top+page-n, c.top+page)
	}
	return c.widenRange(c.top, c.top+n)
}

// WidenForExpand measures node's newly visible children that can be on
// screen.
func (c *Coordinator) WidenForExpand(node hierarchy.NodeID) bool {
	k := c.ix.VisibleIndexOf(node)
	if k == hierarchy.NotVisible {
		return false
	}
	n := min(c.ix.VisibleCount(node), c.PageTruncated())
	return c.widenRange(k+1, k+1+n)
}

// RescanShowing recomputes the content width from the rows on screen, plus
// the row hidden under a horizontal scrollbar. The width may shrink.
func (c *Coordinator) RescanShowing() bool {
	defer metrics.Timer(metrics.WidthScan)()
	bottom := c.top + c.PageTruncated()
	if c.geo.HorizontalBarVisible() {
		bottom++
	}
	bottom = min(bottom, c.ix.TotalVisibleCount())
	widest := 0
	for k := c.top; k < bottom; k++ {
		id, ok := c.ix.VisibleItemAt(k)
		if !ok {
			break
		}
		widest = max(widest, c.rows.RowWidth(id))
	}
	metrics.RowsMeasured.Add(bottom - c.top)
	changed := widest != c.contentWidth
	c.contentWidth = widest
	return changed
}

// FullRescan measures every visible row. Used after a global metric such
// as the font changed.
func (c *Coordinator) FullRescan() {
	c.contentWidth = 0
	c.widenRange(0, c.ix.TotalVisibleCount())
	c.clampHorizontal()
}

// ClaimRightFreeSpace scrolls left when the content no longer reaches the
// right edge of the client area.
func (c *Coordinator) ClaimRightFreeSpace() bool {
	w, _ := c.clientArea()
	if c.hOffset == 0 || c.contentWidth-c.hOffset >= w {
		return false
	}
	return c.SetHorizontalOffset(c.contentWidth - w)
}

// ClaimBottomFreeSpace scrolls up when rows below the last item are empty
// while rows above the top are hidden.
func (c *Coordinator) ClaimBottomFreeSpace() bool {
	if c.top == 0 || c.top+c.PageWhole() <= c.ix.TotalVisibleCount() {
		return false
	}
	return c.SetTopIndex(c.maxTop(), true)
}

func (c *Coordinator) clampHorizontal() {
	w, _ := c.clientArea()
	c.hOffset = min(c.hOffset, max(0, c.contentWidth-w))
}

// SetHorizontalOffset scrolls horizontally to x, clamped to the content.
func (c *Coordinator) SetHorizontalOffset(x int) bool {
	w, h := c.clientArea()
	x = min(max(x, 0), max(0, c.contentWidth-w))
	if x == c.hOffset {
		return false
	}
	delta := c.hOffset - x
	if abs(delta) < w {
		if delta > 0 {
			c.canvas.Scroll(delta, 0, 0, 0, w-delta, h)
			c.canvas.Redraw(surface.Rect{W: delta, H: h})
		} else {
			c.canvas.Scroll(0, 0, -delta, 0, w+delta, h)
			c.canvas.Redraw(surface.Rect{X: w + delta, W: -delta, H: h})
		}
	} else {
		c.canvas.Redraw(surface.Rect{W: w, H: h})
	}
	c.hOffset = x
	return true
}

// Scrollbars reports the scrollbar ranges and positions.
func (c *Coordinator) Scrollbars() Scrollbars {
	w, _ := c.clientArea()
	total := c.ix.TotalVisibleCount()
	page := c.PageWhole()
	return Scrollbars{
		VMax:       total,
		VThumb:     page,
		VSelection: c.vbar,
		VVisible:   total > page,
		HMax:       c.contentWidth,
		HThumb:     w,
		HSelection: c.hOffset,
		HVisible:   c.contentWidth > w,
	}
}

// Resize settles the viewport after the client area changed from
// oldWidth x oldHeight. The band a taller client area exposes is measured
// and, when the view was at the bottom, the top index moves up to keep
// the last page full.
func (c *Coordinator) Resize(oldWidth, oldHeight int) {
	w, h := c.clientArea()
	if h > oldHeight {
		oldPage := (oldHeight + c.itemHeight - 1) / c.itemHeight
		c.widenRange(c.top+oldPage, c.top+c.PageTruncated())
	}
	if c.top > c.maxTop() {
		c.top = c.maxTop()
		c.vbar = c.top
		c.canvas.Redraw(surface.Rect{W: w, H: h})
	}
	if w != oldWidth {
		c.ClaimRightFreeSpace()
		c.clampHorizontal()
	}
}

// RowsInserted keeps the rows on screen steady when n rows appear at
// visible index at, above the top.
func (c *Coordinator) RowsInserted(at, n int) {
	if n > 0 && at < c.top {
		c.top += n
		c.vbar = c.top
	}
}

// RowsRemoved keeps the rows on screen steady when n rows starting at
// visible index at disappear.
func (c *Coordinator) RowsRemoved(at, n int) {
	if n <= 0 || at >= c.top {
		return
	}
	if at+n <= c.top {
		c.top -= n
	} else {
		c.top = at
	}
	c.vbar = c.top
}

// Reset empties the viewport, as after removing every item.
func (c *Coordinator) Reset() {
	c.top, c.vbar, c.contentWidth, c.hOffset = 0, 0, 0, 0
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
