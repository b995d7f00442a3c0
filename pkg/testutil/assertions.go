package testutil

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// RowHeight is the item height of trees built by NewTree.
const RowHeight = 16

// NewTree builds a tree on a Recorder with a client area of rows full rows,
// 200 pixels wide.
func NewTree(t *testing.T, rows int, cfg ui.TreeConfig) (*ui.Tree, *surface.Recorder) {
	t.Helper()
	rec := surface.NewRecorder(200, rows*RowHeight)
	tr, err := ui.NewTree(ui.Options{Surface: rec, Geometry: rec, Canvas: rec, Config: cfg})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	return tr, rec
}

// Items maps labels to the items Populate created.
type Items map[string]hierarchy.NodeID

// Get returns the item labelled label, failing the test if there is none.
func (m Items) Get(t *testing.T, label string) hierarchy.NodeID {
	t.Helper()
	id, ok := m[label]
	if !ok {
		t.Fatalf("no item labelled %q", label)
	}
	return id
}

// Build parses an indented outline into tr. See Parse for the format.
func Build(t *testing.T, tr *ui.Tree, outline string) Items {
	t.Helper()
	return Populate(t, tr, Parse(outline))
}

// Populate appends fs under the roots of tr with redraw suspended, then
// expands the nodes marked expanded.
func Populate(t *testing.T, tr *ui.Tree, fs []Fixture) Items {
	t.Helper()
	items := make(Items, Count(fs))
	var expand []hierarchy.NodeID
	var add func(parent hierarchy.NodeID, fs []Fixture)
	add = func(parent hierarchy.NodeID, fs []Fixture) {
		for _, f := range fs {
			id, err := tr.Append(parent, f.Label)
			if err != nil {
				t.Fatalf("Append(%q): %v", f.Label, err)
			}
			items[f.Label] = id
			add(id, f.Children)
			if f.Expanded {
				expand = append(expand, id)
			}
		}
	}
	err := tr.WithRedrawSuspended(func() error {
		add(hierarchy.None, fs)
		// Parents before children keeps each expand's span exact.
		for i := len(expand) - 1; i >= 0; i-- {
			if err := tr.Expand(expand[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("populate: %v", err)
	}
	return items
}

// VisibleLabels returns the labels of every visible row in order.
func VisibleLabels(t *testing.T, tr *ui.Tree) []string {
	t.Helper()
	total, err := tr.TotalVisibleCount()
	if err != nil {
		t.Fatalf("TotalVisibleCount: %v", err)
	}
	out := make([]string, 0, total)
	for k := range total {
		id, err := tr.ItemAt(k)
		if err != nil {
			t.Fatalf("ItemAt(%d): %v", k, err)
		}
		label, err := tr.Label(id)
		if err != nil {
			t.Fatalf("Label(%v): %v", id, err)
		}
		out = append(out, label)
	}
	return out
}

// AssertVisible verifies the visible rows, top to bottom.
func AssertVisible(t *testing.T, tr *ui.Tree, want ...string) {
	t.Helper()
	if got := VisibleLabels(t, tr); !slices.Equal(got, want) {
		t.Errorf("visible rows = %v, want %v", got, want)
	}
}

// AssertSelection verifies the selection in tree order.
func AssertSelection(t *testing.T, tr *ui.Tree, want ...string) {
	t.Helper()
	sel, err := tr.Selection()
	if err != nil {
		t.Fatalf("Selection: %v", err)
	}
	got := make([]string, 0, len(sel))
	for _, id := range sel {
		label, err := tr.Label(id)
		if err != nil {
			t.Fatalf("Label(%v): %v", id, err)
		}
		got = append(got, label)
	}
	if !slices.Equal(got, want) {
		t.Errorf("selection = %v, want %v", got, want)
	}
}

// AssertTop verifies the top index.
func AssertTop(t *testing.T, tr *ui.Tree, want int) {
	t.Helper()
	top, err := tr.TopIndex()
	if err != nil {
		t.Fatalf("TopIndex: %v", err)
	}
	if top != want {
		t.Errorf("top index = %d, want %d", top, want)
	}
}

// GoldenFile manages golden file comparisons.
type GoldenFile struct {
	t      *testing.T
	dir    string
	name   string
	update bool
}

// NewGoldenFile creates a golden file helper.
// If GENERATE_GOLDEN env var is set, golden files will be updated.
func NewGoldenFile(t *testing.T, dir, name string) *GoldenFile {
	t.Helper()
	return &GoldenFile{
		t:      t,
		dir:    dir,
		name:   name,
		update: os.Getenv("GENERATE_GOLDEN") != "",
	}
}

// Path returns the full path to the golden file.
func (g *GoldenFile) Path() string {
	return filepath.Join(g.dir, g.name)
}

// Assert compares actual content against the golden file.
// If GENERATE_GOLDEN is set, updates the golden file instead.
func (g *GoldenFile) Assert(actual string) {
	g.t.Helper()

	path := g.Path()
	if g.update {
		if err := os.MkdirAll(g.dir, 0755); err != nil {
			g.t.Fatalf("failed to create golden dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(actual), 0644); err != nil {
			g.t.Fatalf("failed to write golden file: %v", err)
		}
		g.t.Logf("updated golden file: %s", path)
		return
	}

	expected, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			g.t.Fatalf("golden file does not exist: %s\nRun with GENERATE_GOLDEN=1 to create it", path)
		}
		g.t.Fatalf("failed to read golden file: %v", err)
	}

	if string(expected) == actual {
		return
	}
	want := strings.Split(string(expected), "\n")
	got := strings.Split(actual, "\n")
	for i := 0; i < len(want) || i < len(got); i++ {
		var w, a string
		if i < len(want) {
			w = want[i]
		}
		if i < len(got) {
			a = got[i]
		}
		if w != a {
			g.t.Errorf("golden file mismatch at line %d:\nexpected: %s\nactual:   %s", i+1, w, a)
			return
		}
	}
	g.t.Errorf("golden file mismatch (length differs)")
}

// WriteFile writes content to name under dir, creating dir, and returns
// the path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create directory: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}
