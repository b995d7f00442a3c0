package ui_test

import (
	"errors"
	"testing"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/selection"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/testutil"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

func TestLoadExpandsMarkedNodes(t *testing.T) {
	tr, rec := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	rec.Reset()

	nodes := []datasource.Node{
		{Label: "A", Expanded: true, Children: []datasource.Node{
			{Label: "B", Expanded: true, Children: []datasource.Node{{Label: "C"}}},
			{Label: "D", Expanded: true}, // no children, stays a leaf
		}},
		{Label: "E", Children: []datasource.Node{{Label: "F"}}},
	}
	seen := map[string]hierarchy.NodeID{}
	mustNone(t, tr.Load(hierarchy.None, nodes, func(id hierarchy.NodeID, n datasource.Node) {
		seen[n.Label] = id
	}))

	testutil.AssertVisible(t, tr, "A", "B", "C", "D", "E")
	if len(seen) != 6 {
		t.Errorf("visited %d nodes, want 6", len(seen))
	}
	if label, _ := tr.Label(seen["F"]); label != "F" {
		t.Errorf("visitor id for F labels %q", label)
	}
	full := surface.Rect{W: 200, H: 10 * testutil.RowHeight}
	if r := rec.Redraws(); len(r) != 1 || r[0] != full {
		t.Errorf("redraws = %v, want one full redraw", r)
	}
}

func TestLoadUnderParent(t *testing.T) {
	tr, _ := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	items := testutil.Build(t, tr, `
A+
  B
`)
	mustNone(t, tr.Load(items.Get(t, "A"), []datasource.Node{{Label: "C", Checked: true}}, nil))
	testutil.AssertVisible(t, tr, "A", "B", "C")

	c, err := tr.ItemAt(2)
	mustNone(t, err)
	if checked, _ := tr.Checked(c); !checked {
		t.Error("loaded node lost its checked state")
	}
}

func TestLoadAfterDispose(t *testing.T) {
	tr, _ := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	mustNone(t, tr.Dispose())
	if err := tr.Load(hierarchy.None, []datasource.Node{{Label: "A"}}, nil); err == nil {
		t.Error("Load on a disposed tree succeeded")
	}
}

func TestApplyDiffKeepsViewState(t *testing.T) {
	tr, rec := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	old := []datasource.Node{
		{Label: "Inbox"},
		{Label: "Projects", Children: []datasource.Node{{Label: "Alpha"}, {Label: "Beta"}}},
		{Label: "Archive"},
	}
	mustNone(t, tr.Load(hierarchy.None, old, nil))
	projects, err := tr.ItemAt(1)
	mustNone(t, err)
	mustNone(t, tr.Expand(projects))
	mustNone(t, tr.Select(projects))

	next := []datasource.Node{
		{Label: "Projects", Children: []datasource.Node{
			{Label: "Alpha", Checked: true},
			{Label: "Gamma", Expanded: true, Children: []datasource.Node{{Label: "Deep"}}},
			{Label: "Beta"},
		}},
		{Label: "Archive"},
	}
	visited := 0
	rec.Reset()
	mustNone(t, tr.ApplyDiff(hierarchy.None, datasource.Diff(old, next), func(hierarchy.NodeID, datasource.Node) {
		visited++
	}))

	testutil.AssertVisible(t, tr, "Projects", "Alpha", "Gamma", "Deep", "Beta", "Archive")
	testutil.AssertSelection(t, tr, "Projects")
	alpha, err := tr.ItemAt(1)
	mustNone(t, err)
	if checked, _ := tr.Checked(alpha); !checked {
		t.Error("changed field not applied")
	}
	// Alpha changed; Gamma and Deep were inserted.
	if visited != 3 {
		t.Errorf("visited = %d, want 3", visited)
	}
	if r := rec.Redraws(); len(r) != 1 {
		t.Errorf("redraws = %v, want one", r)
	}
}

func TestApplyDiffIdenticalIsNoop(t *testing.T) {
	tr, _ := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	nodes := []datasource.Node{{Label: "A", Children: []datasource.Node{{Label: "B"}}}}
	mustNone(t, tr.Load(hierarchy.None, nodes, nil))
	visited := 0
	mustNone(t, tr.ApplyDiff(hierarchy.None, datasource.Diff(nodes, nodes), func(hierarchy.NodeID, datasource.Node) {
		visited++
	}))
	testutil.AssertVisible(t, tr, "A")
	if visited != 0 {
		t.Errorf("visited = %d, want 0", visited)
	}
}

func TestApplyDiffStaleScript(t *testing.T) {
	tr, _ := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	script := datasource.Diff([]datasource.Node{{Label: "A"}}, nil)
	if err := tr.ApplyDiff(hierarchy.None, script, nil); !errors.Is(err, ui.ErrStaleDiff) {
		t.Errorf("deleting from an empty tree: err = %v, want ErrStaleDiff", err)
	}
}

func TestApplyDiffStaleScriptChangesNothing(t *testing.T) {
	current := []datasource.Node{
		{Label: "A", Children: []datasource.Node{{Label: "A1"}}},
		{Label: "B"},
	}
	tests := []struct {
		name     string
		old, new []datasource.Node
	}{
		// The first delete matches, the second finds B instead of Q.
		{"second edit mismatches", []datasource.Node{{Label: "A"}, {Label: "Q"}}, nil},
		{"kept child mismatches", []datasource.Node{
			{Label: "A", Children: []datasource.Node{{Label: "Z"}}},
			{Label: "B"},
		}, []datasource.Node{{Label: "New"}, {Label: "A"}, {Label: "B"}}},
		{"script too short", []datasource.Node{
			{Label: "A", Children: []datasource.Node{{Label: "A1"}}},
		}, []datasource.Node{
			{Label: "A", Children: []datasource.Node{{Label: "A1"}}},
			{Label: "C"},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, rec := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
			mustNone(t, tr.Load(hierarchy.None, current, nil))
			a, err := tr.ItemAt(0)
			mustNone(t, err)
			mustNone(t, tr.Expand(a))
			rec.Reset()

			visited := 0
			err = tr.ApplyDiff(hierarchy.None, datasource.Diff(tt.old, tt.new), func(hierarchy.NodeID, datasource.Node) {
				visited++
			})
			if !errors.Is(err, ui.ErrStaleDiff) {
				t.Fatalf("err = %v, want ErrStaleDiff", err)
			}
			testutil.AssertVisible(t, tr, "A", "A1", "B")
			if visited != 0 || len(rec.Ops()) != 0 {
				t.Errorf("rejected script touched the tree: visited %d\n%s", visited, rec)
			}
		})
	}
}

func TestExpandToDepth(t *testing.T) {
	tr, _ := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	testutil.Build(t, tr, `
A
  B
    C
D
  E
`)
	mustNone(t, tr.ExpandToDepth(0))
	testutil.AssertVisible(t, tr, "A", "D")

	mustNone(t, tr.ExpandToDepth(1))
	testutil.AssertVisible(t, tr, "A", "B", "D", "E")

	mustNone(t, tr.ExpandToDepth(2))
	testutil.AssertVisible(t, tr, "A", "B", "C", "D", "E")
}

func TestConfigMapping(t *testing.T) {
	tc := ui.TerminalConfig(config.TreeConfig{Style: "multi", Checkable: true, Indent: 30})
	if tc.Style != selection.Multi || !tc.Checkable {
		t.Errorf("terminal behavior = %+v", tc)
	}
	if tc.Indent != ui.TerminalTreeConfig().Indent {
		t.Errorf("terminal indent = %d, want the cell default", tc.Indent)
	}

	pc := ui.PixelConfig(config.TreeConfig{Indent: 20, GlyphSize: 11, CheckboxSize: 12, ImageSize: 18})
	if pc.Style != selection.Single || pc.Checkable {
		t.Errorf("pixel behavior = %+v", pc)
	}
	if pc.Indent != 20 || pc.GlyphWidth != 11 || pc.GlyphHeight != 11 || pc.CheckboxWidth != 12 || pc.ImageHeight != 18 {
		t.Errorf("pixel sizes = %+v", pc)
	}
	if def := ui.PixelConfig(config.TreeConfig{}); def != ui.DefaultTreeConfig() {
		t.Errorf("zero sizes = %+v, want defaults", def)
	}
}

func TestFinderCyclesMatches(t *testing.T) {
	tr, _ := testutil.NewTree(t, 10, ui.DefaultTreeConfig())
	testutil.Build(t, tr, `
apple
banana
  cherry
`)
	f := ui.NewFinder()
	if f.Active() {
		t.Fatal("new finder is active")
	}
	f.Open()
	f.UpdateInput(runesMsg("e"))
	if !f.Active() || f.Query() != "e" {
		t.Fatalf("active=%v query=%q", f.Active(), f.Query())
	}

	first := f.Search(tr)
	if first.IsNone() {
		t.Fatal("no match for e")
	}
	if i, n := f.Position(); i != 1 || n != 2 {
		t.Errorf("position = %d/%d, want 1/2", i, n)
	}
	second := f.Next(tr)
	if second == first || second.IsNone() {
		t.Fatalf("Next = %v, want the other match", second)
	}

	// Matches removed from the tree are skipped.
	mustNone(t, tr.Remove(second))
	if got := f.Next(tr); got != first {
		t.Errorf("Next = %v, want %v", got, first)
	}
	if got := f.Next(tr); got != first {
		t.Errorf("Next = %v, want %v", got, first)
	}

	f.Close()
	if f.Active() {
		t.Error("closed finder is active")
	}
	f.Open()
	if !f.Search(tr).IsNone() {
		t.Error("empty query matched")
	}
	if i, n := f.Position(); i != 0 || n != 0 {
		t.Errorf("position = %d/%d, want 0/0", i, n)
	}
}
