package ui

import (
	"fmt"

	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/display"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/selection"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/viewport"
)

// TreeConfig holds the per-widget layout constants. Sizes are in surface
// pixels.
type TreeConfig struct {
	Style     selection.Mode
	Checkable bool

	Indent         int // per hierarchy level
	GlyphWidth     int // hierarchy indicator
	GlyphHeight    int
	CheckboxWidth  int
	CheckboxHeight int
	ImageWidth     int
	ImageHeight    int
	Gap            int // between decorations
}

// DefaultTreeConfig suits pixel surfaces such as PNG and SVG export.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		Indent:         16,
		GlyphWidth:     9,
		GlyphHeight:    9,
		CheckboxWidth:  13,
		CheckboxHeight: 13,
		ImageWidth:     16,
		ImageHeight:    16,
		Gap:            3,
	}
}

// TerminalTreeConfig suits a cell grid where one cell is one pixel.
func TerminalTreeConfig() TreeConfig {
	return TreeConfig{
		Indent:         4,
		GlyphWidth:     1,
		GlyphHeight:    1,
		CheckboxWidth:  3,
		CheckboxHeight: 1,
		ImageWidth:     1,
		ImageHeight:    1,
		Gap:            1,
	}
}

// Options wires a Tree to its host.
type Options struct {
	Surface  surface.DrawingSurface
	Geometry surface.Geometry
	Canvas   surface.Canvas
	Config   TreeConfig

	// Thread owns the widget. Nil means the goroutine calling NewTree.
	Thread *display.Thread
}

// Tree is a virtualized hierarchy widget. It keeps the item hierarchy,
// the selection and the viewport consistent and tells the canvas which
// pixels to copy or repaint after every change. Only visible rows are
// ever painted or measured.
//
// A Tree belongs to one goroutine. Calls from any other goroutine fail
// with display.ErrThreadAffinity, calls after Dispose with
// hierarchy.ErrDisposed.
type Tree struct {
	cfg    TreeConfig
	thread *display.Thread

	ix  *hierarchy.Index
	sel *selection.Manager
	vp  *viewport.Coordinator

	surf   surface.DrawingSurface
	geo    surface.Geometry
	canvas *gatedCanvas

	itemHeight int
	focus      hierarchy.NodeID
	expanding  hierarchy.NodeID // node whose Expand listeners are running

	width, height int // client area at the last resize

	listeners    []listener
	nextListener ListenerID

	disposed bool
}

// NewTree builds an empty tree on the host described by opts.
func NewTree(opts Options) (*Tree, error) {
	if opts.Surface == nil || opts.Geometry == nil || opts.Canvas == nil {
		return nil, fmt.Errorf("new tree: %w", hierarchy.ErrNullArgument)
	}
	cfg := opts.Config
	if cfg.Indent == 0 && cfg.GlyphWidth == 0 {
		cfg = DefaultTreeConfig()
		cfg.Style, cfg.Checkable = opts.Config.Style, opts.Config.Checkable
	}
	th := opts.Thread
	if th == nil {
		th = display.Current()
	}

	t := &Tree{
		cfg:    cfg,
		thread: th,
		ix:     hierarchy.New(),
		sel:    selection.New(cfg.Style),
		surf:   opts.Surface,
		geo:    opts.Geometry,
		canvas: &gatedCanvas{c: opts.Canvas},
	}
	t.itemHeight = t.measureItemHeight()
	t.vp = viewport.New(t.ix, t.geo, t.canvas, rowWidths{t}, t.itemHeight)
	t.width, t.height = t.geo.ClientArea()
	return t, nil
}

// check guards every public entry point.
func (t *Tree) check() error {
	if t.disposed {
		return fmt.Errorf("tree: %w", hierarchy.ErrDisposed)
	}
	return t.thread.Check()
}

// checkItem also validates an item reference.
func (t *Tree) checkItem(id hierarchy.NodeID) error {
	if err := t.check(); err != nil {
		return err
	}
	if id.IsNone() {
		return fmt.Errorf("item: %w", hierarchy.ErrNullArgument)
	}
	if !t.ix.Contains(id) {
		return fmt.Errorf("item %v: %w", id, hierarchy.ErrDisposed)
	}
	return nil
}

func (t *Tree) measureItemHeight() int {
	_, h := t.surf.MeasureText("Xg")
	h = max(h, t.cfg.GlyphHeight, 1)
	if t.cfg.Checkable {
		h = max(h, t.cfg.CheckboxHeight)
	}
	return max(h, t.cfg.ImageHeight)
}

// Config returns the layout constants the tree was built with.
func (t *Tree) Config() TreeConfig { return t.cfg }

// Dispose tears the widget down. Every later call fails with
// hierarchy.ErrDisposed.
func (t *Tree) Dispose() error {
	if err := t.check(); err != nil {
		return err
	}
	t.ix.RemoveAll()
	t.sel.Clear()
	t.listeners = nil
	t.disposed = true
	debug.Log("tree disposed")
	return nil
}

// IsDisposed reports whether Dispose was called.
func (t *Tree) IsDisposed() bool { return t.disposed }

// SetFont swaps the drawing surface for one rendering a different font.
// Every row is re-measured with redraw suspended, which ends in a single
// full repaint.
func (t *Tree) SetFont(s surface.DrawingSurface) error {
	if err := t.check(); err != nil {
		return err
	}
	if s == nil {
		return fmt.Errorf("set font: %w", hierarchy.ErrNullArgument)
	}
	return t.WithRedrawSuspended(func() error {
		t.surf = s
		t.itemHeight = t.measureItemHeight()
		t.vp.SetItemHeight(t.itemHeight)
		t.ix.InvalidateAllWidths()
		t.vp.FullRescan()
		return nil
	})
}

// ComputeSize returns the preferred client size. The width is estimated
// from the first 50 visible rows. A non-negative hint replaces the
// computed value.
func (t *Tree) ComputeSize(wHint, hHint int) (int, int, error) {
	if err := t.check(); err != nil {
		return 0, 0, err
	}
	const sample = 50
	w := 0
	id, _ := t.ix.VisibleItemAt(0)
	for i := 0; i < sample && !id.IsNone(); i++ {
		w = max(w, t.rowWidth(id))
		id = t.ix.NextVisible(id)
	}
	h := t.ix.TotalVisibleCount() * t.itemHeight
	if w == 0 {
		w = 64
	}
	if h == 0 {
		h = 64
	}
	if wHint >= 0 {
		w = wHint
	}
	if hHint >= 0 {
		h = hHint
	}
	return w, h, nil
}

// ItemHeight is the height of every row.
func (t *Tree) ItemHeight() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.itemHeight, nil
}

// TopIndex is the visible index of the first row on screen.
func (t *Tree) TopIndex() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.vp.TopIndex(), nil
}

// SetTopIndex scrolls so that visible index k is the first row, clamped
// so the last page stays full.
func (t *Tree) SetTopIndex(k int) error {
	if err := t.check(); err != nil {
		return err
	}
	t.vp.SetTopIndex(k, true)
	return nil
}

// SetHorizontalOffset scrolls the content left by x pixels.
func (t *Tree) SetHorizontalOffset(x int) error {
	if err := t.check(); err != nil {
		return err
	}
	t.vp.SetHorizontalOffset(x)
	return nil
}

// VisibleCount is the number of rows that fit the client area.
func (t *Tree) VisibleCount() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.vp.PageWhole(), nil
}

// TotalVisibleCount is the length of the collapse-aware row sequence.
func (t *Tree) TotalVisibleCount() (int, error) {
	if err := t.check(); err != nil {
		return 0, err
	}
	return t.ix.TotalVisibleCount(), nil
}

// Scrollbars reports the scrollbar state.
func (t *Tree) Scrollbars() (viewport.Scrollbars, error) {
	if err := t.check(); err != nil {
		return viewport.Scrollbars{}, err
	}
	return t.vp.Scrollbars(), nil
}

// Item returns the item whose row contains client point (x, y), or
// hierarchy.None.
func (t *Tree) Item(x, y int) (hierarchy.NodeID, error) {
	if err := t.check(); err != nil {
		return hierarchy.None, err
	}
	w, h := t.geo.ClientArea()
	if x < 0 || y < 0 || x >= w || y >= h {
		return hierarchy.None, nil
	}
	id, _ := t.ix.VisibleItemAt(t.vp.IndexAt(y))
	return id, nil
}

// ItemAt returns the item on visible row k, or hierarchy.None.
func (t *Tree) ItemAt(k int) (hierarchy.NodeID, error) {
	if err := t.check(); err != nil {
		return hierarchy.None, err
	}
	id, _ := t.ix.VisibleItemAt(k)
	return id, nil
}

// IndexOf returns the visible index of id or hierarchy.NotVisible.
func (t *Tree) IndexOf(id hierarchy.NodeID) (int, error) {
	if err := t.checkItem(id); err != nil {
		return hierarchy.NotVisible, err
	}
	return t.ix.VisibleIndexOf(id), nil
}

// ItemCount is the number of children of parent; None counts the roots.
func (t *Tree) ItemCount(parent hierarchy.NodeID) (int, error) {
	if err := t.checkParent(parent); err != nil {
		return 0, err
	}
	return t.ix.ChildCount(parent), nil
}

// Items returns the children of parent; None returns the roots.
func (t *Tree) Items(parent hierarchy.NodeID) ([]hierarchy.NodeID, error) {
	if err := t.checkParent(parent); err != nil {
		return nil, err
	}
	return t.ix.Children(parent), nil
}

// ParentItem returns the parent of id, None for a root.
func (t *Tree) ParentItem(id hierarchy.NodeID) (hierarchy.NodeID, error) {
	if err := t.checkItem(id); err != nil {
		return hierarchy.None, err
	}
	return t.ix.Parent(id), nil
}

// Label returns the text of id.
func (t *Tree) Label(id hierarchy.NodeID) (string, error) {
	if err := t.checkItem(id); err != nil {
		return "", err
	}
	return t.ix.Label(id), nil
}

// Path returns the labels from the root down to id.
func (t *Tree) Path(id hierarchy.NodeID) ([]string, error) {
	if err := t.checkItem(id); err != nil {
		return nil, err
	}
	var out []string
	for _, a := range t.ix.Ancestors(id) {
		out = append(out, t.ix.Label(a))
	}
	return append(out, t.ix.Label(id)), nil
}

// Expanded reports whether id is expanded.
func (t *Tree) Expanded(id hierarchy.NodeID) (bool, error) {
	if err := t.checkItem(id); err != nil {
		return false, err
	}
	return t.ix.Expanded(id), nil
}

// Checked reports the checkbox state of id.
func (t *Tree) Checked(id hierarchy.NodeID) (bool, error) {
	if err := t.checkItem(id); err != nil {
		return false, err
	}
	return t.ix.Checked(id), nil
}

// Walk visits every item in tree order, collapsed or not. fn returns
// false to skip an item's children.
func (t *Tree) Walk(fn func(id hierarchy.NodeID, depth int) bool) error {
	if err := t.check(); err != nil {
		return err
	}
	t.ix.Walk(hierarchy.None, fn)
	return nil
}

func (t *Tree) checkParent(parent hierarchy.NodeID) error {
	if parent.IsNone() {
		return t.check()
	}
	return t.checkItem(parent)
}

// rowWidths adapts the tree to viewport.RowMeasurer.
type rowWidths struct{ t *Tree }

func (r rowWidths) RowWidth(id hierarchy.NodeID) int { return r.t.rowWidth(id) }

// rowWidth is the content width of id's row, cached on the node.
func (t *Tree) rowWidth(id hierarchy.NodeID) int {
	if w, ok := t.ix.CachedWidth(id); ok {
		return w
	}
	tw, _ := t.surf.MeasureText(t.ix.Label(id))
	w := t.layout(id).text + tw
	t.ix.SetCachedWidth(id, w)
	return w
}
