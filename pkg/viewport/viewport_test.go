package viewport

import (
	"fmt"
	"testing"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/surface"
)

const rowH = 16

// measurer reports label length * 10 and counts calls.
type measurer struct {
	ix    *hierarchy.Index
	calls int
}

func (m *measurer) RowWidth(id hierarchy.NodeID) int {
	m.calls++
	return len(m.ix.Label(id)) * 10
}

type env struct {
	ix    *hierarchy.Index
	rec   *surface.Recorder
	m     *measurer
	vp    *Coordinator
	roots []hierarchy.NodeID
}

// newEnv builds n roots in a client area five rows high.
func newEnv(t *testing.T, n int) *env {
	t.Helper()
	ix := hierarchy.New()
	e := &env{ix: ix, rec: surface.NewRecorder(100, 5*rowH), m: &measurer{ix: ix}}
	for i := 0; i < n; i++ {
		id, err := ix.Insert(hierarchy.None, i, fmt.Sprintf("R%d", i))
		if err != nil {
			t.Fatal(err)
		}
		e.roots = append(e.roots, id)
	}
	e.vp = New(ix, e.rec, e.rec, e.m, rowH)
	return e
}

func (e *env) children(t *testing.T, parent hierarchy.NodeID, n int, expand bool) []hierarchy.NodeID {
	t.Helper()
	var out []hierarchy.NodeID
	for i := 0; i < n; i++ {
		id, err := e.ix.Insert(parent, i, fmt.Sprintf("%s.%d", e.ix.Label(parent), i))
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, id)
	}
	if expand {
		if err := e.ix.SetExpanded(parent, true); err != nil {
			t.Fatal(err)
		}
	}
	return out
}

func TestChildrenSpanIsPure(t *testing.T) {
	e := newEnv(t, 3)
	e.children(t, e.roots[1], 2, false)

	start, end, ok := e.vp.ChildrenSpan(e.roots[1], true)
	if !ok || start != 2*rowH || end != 4*rowH {
		t.Errorf("span if expanded = %d..%d ok=%v", start, end, ok)
	}
	start, end, _ = e.vp.ChildrenSpan(e.roots[1], false)
	if start != 2*rowH || end != 2*rowH {
		t.Errorf("span if collapsed = %d..%d", start, end)
	}
	if e.ix.Expanded(e.roots[1]) {
		t.Error("ChildrenSpan changed the expand flag")
	}

	hidden := e.children(t, e.roots[1], 1, false)[0]
	if _, _, ok := e.vp.ChildrenSpan(hidden, true); ok {
		t.Error("span of a hidden node should not be ok")
	}
}

func TestScrollForExpandCopiesDown(t *testing.T) {
	e := newEnv(t, 4)
	e.children(t, e.roots[0], 2, false)

	e.vp.ScrollForExpand(e.roots[0])
	scrolls := e.rec.Of(surface.OpScroll)
	if len(scrolls) != 1 {
		t.Fatalf("expected one scroll, got:\n%s", e.rec)
	}
	s := scrolls[0]
	if s.Rect.Y != 3*rowH || s.SrcY != rowH || s.Rect.H != 4*rowH {
		t.Errorf("unexpected scroll %v", s)
	}
}

func TestScrollForCollapse(t *testing.T) {
	t.Run("copies rows up", func(t *testing.T) {
		e := newEnv(t, 4)
		e.children(t, e.roots[0], 2, true)
		e.vp.ScrollForCollapse(e.roots[0])

		s := e.rec.Of(surface.OpScroll)
		if len(s) != 1 || s[0].Rect.Y != rowH || s[0].SrcY != 3*rowH || s[0].Rect.H != 4*rowH {
			t.Fatalf("unexpected ops:\n%s", e.rec)
		}
		if e.vp.TopIndex() != 0 {
			t.Errorf("top moved to %d", e.vp.TopIndex())
		}
	})

	t.Run("pulls content down at the bottom", func(t *testing.T) {
		e := newEnv(t, 10)
		e.children(t, e.roots[8], 2, true)
		e.vp.SetTopIndex(100, true)
		if e.vp.TopIndex() != 7 {
			t.Fatalf("expected top clamped to 7, got %d", e.vp.TopIndex())
		}
		e.rec.Reset()

		e.vp.ScrollForCollapse(e.roots[8])
		s := e.rec.Of(surface.OpScroll)
		if len(s) != 1 || s[0].Rect.Y != 0 || s[0].SrcY != -2*rowH || s[0].Rect.H != 4*rowH {
			t.Fatalf("unexpected ops:\n%s", e.rec)
		}
		if e.vp.TopIndex() != 5 {
			t.Errorf("expected top 5, got %d", e.vp.TopIndex())
		}
		if err := e.ix.SetExpanded(e.roots[8], false); err != nil {
			t.Fatal(err)
		}
		if e.vp.TopIndex()+e.vp.PageWhole() != e.ix.TotalVisibleCount() {
			t.Error("last page should still be full")
		}
	})
}

func TestSetTopIndex(t *testing.T) {
	e := newEnv(t, 20)

	if !e.vp.SetTopIndex(100, true) || e.vp.TopIndex() != 15 {
		t.Fatalf("expected clamp to 15, got %d", e.vp.TopIndex())
	}
	if r := e.rec.Redraws(); len(r) != 1 || r[0] != (surface.Rect{W: 100, H: 80}) {
		t.Errorf("a jump past one page should redraw everything, got %v", r)
	}
	e.rec.Reset()

	e.vp.SetTopIndex(14, true)
	s := e.rec.Of(surface.OpScroll)
	if len(s) != 1 || s[0].Rect.Y != rowH || s[0].SrcY != 0 || s[0].Rect.H != 4*rowH {
		t.Errorf("unexpected scroll ops:\n%s", e.rec)
	}
	if e.vp.SetTopIndex(14, true) {
		t.Error("same index should report no change")
	}
	if e.vp.SetTopIndex(-3, true); e.vp.TopIndex() != 0 {
		t.Errorf("negative index should clamp to 0, got %d", e.vp.TopIndex())
	}
}

func TestScrollMeasuresOnlyExposedBand(t *testing.T) {
	e := newEnv(t, 1000)
	e.m.calls = 0
	e.vp.SetTopIndex(2, true)
	if e.m.calls != 2 {
		t.Errorf("scrolling two rows measured %d rows", e.m.calls)
	}
	e.m.calls = 0
	e.vp.SetTopIndex(900, true)
	if e.m.calls != e.vp.PageTruncated() {
		t.Errorf("a long jump should measure one page, measured %d", e.m.calls)
	}
}

func TestShowIndexMinimal(t *testing.T) {
	e := newEnv(t, 20)
	e.vp.ShowIndex(7)
	if e.vp.TopIndex() != 3 {
		t.Errorf("expected 7 on the last row (top 3), got top %d", e.vp.TopIndex())
	}
	if e.vp.ShowIndex(5) {
		t.Error("already visible index should not scroll")
	}
	e.vp.ShowIndex(1)
	if e.vp.TopIndex() != 1 {
		t.Errorf("expected top 1, got %d", e.vp.TopIndex())
	}
}

func TestScrollExpandedIntoView(t *testing.T) {
	e := newEnv(t, 10)
	e.children(t, e.roots[3], 4, true)

	if got := e.vp.OffScreenCount(e.roots[3]); got != 3 {
		t.Errorf("OffScreenCount = %d, want 3", got)
	}
	e.vp.ScrollExpandedIntoView(e.roots[3])
	if e.vp.TopIndex() != 3 {
		t.Errorf("expected the expanded node at the top, got top %d", e.vp.TopIndex())
	}
}

func TestRescanShowingShrinks(t *testing.T) {
	e := newEnv(t, 3)
	long, err := e.ix.Insert(hierarchy.None, 3, "a very long label")
	if err != nil {
		t.Fatal(err)
	}
	e.vp.Widen(long)
	if e.vp.ContentWidth() != 170 {
		t.Fatalf("content width = %d", e.vp.ContentWidth())
	}
	if _, err := e.ix.Remove(long); err != nil {
		t.Fatal(err)
	}
	if !e.vp.RescanShowing() || e.vp.ContentWidth() != 20 {
		t.Errorf("expected width 20 after rescan, got %d", e.vp.ContentWidth())
	}
}

func TestHorizontalOffset(t *testing.T) {
	e := newEnv(t, 1)
	long, _ := e.ix.Insert(hierarchy.None, 1, "0123456789012345")
	e.vp.Widen(long)

	if !e.vp.SetHorizontalOffset(500) || e.vp.HorizontalOffset() != 60 {
		t.Fatalf("expected offset clamp to 60, got %d", e.vp.HorizontalOffset())
	}
	if sb := e.vp.Scrollbars(); !sb.HVisible || sb.HSelection != 60 {
		t.Errorf("scrollbars = %+v", sb)
	}
	if _, err := e.ix.Remove(long); err != nil {
		t.Fatal(err)
	}
	e.vp.RescanShowing()
	if !e.vp.ClaimRightFreeSpace() || e.vp.HorizontalOffset() != 0 {
		t.Errorf("expected offset 0 after claiming free space, got %d", e.vp.HorizontalOffset())
	}
}

func TestStructuralShifts(t *testing.T) {
	e := newEnv(t, 20)
	e.vp.SetTopIndexNoScroll(10)

	e.vp.RowsInserted(2, 3)
	if e.vp.TopIndex() != 13 {
		t.Errorf("insert above top: top = %d", e.vp.TopIndex())
	}
	e.vp.RowsInserted(13, 1)
	if e.vp.TopIndex() != 13 {
		t.Errorf("insert at top must not shift, top = %d", e.vp.TopIndex())
	}
	e.vp.RowsRemoved(0, 2)
	if e.vp.TopIndex() != 11 {
		t.Errorf("remove above top: top = %d", e.vp.TopIndex())
	}
	e.vp.RowsRemoved(9, 5)
	if e.vp.TopIndex() != 9 {
		t.Errorf("remove across top: top = %d", e.vp.TopIndex())
	}
}

func TestIndexRange(t *testing.T) {
	e := newEnv(t, 3)
	first, last := e.vp.IndexRange(surface.Rect{Y: 8, W: 100, H: 30})
	if first != 0 || last != 2 {
		t.Errorf("range = %d..%d", first, last)
	}
	first, last = e.vp.IndexRange(surface.Rect{Y: 4 * rowH, W: 100, H: rowH})
	if first <= last {
		t.Errorf("rows past the last item should be empty, got %d..%d", first, last)
	}
}

func TestResizeKeepsLastPageFull(t *testing.T) {
	e := newEnv(t, 10)
	e.vp.SetTopIndex(5, true)
	e.rec.Reset()

	e.rec.Height = 8 * rowH
	e.vp.Resize(100, 5*rowH)
	if e.vp.TopIndex() != 2 {
		t.Errorf("expected top 2 after growing to 8 rows, got %d", e.vp.TopIndex())
	}
	if len(e.rec.Redraws()) != 1 {
		t.Errorf("expected a full redraw, got:\n%s", e.rec)
	}
}
