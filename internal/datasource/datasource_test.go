package datasource

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func sample() Outline {
	return Outline{
		Title: "Plan",
		Nodes: []Node{
			{Label: "Inbox"},
			{Label: "Projects", Expanded: true, Children: []Node{
				{Label: "Alpha", Note: "first", Checked: true},
				{Label: "Beta", Icon: true, Children: []Node{{Label: "Deep"}}},
			}},
			{Label: "Archive"},
		},
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		path string
		want SourceType
	}{
		{"a.yaml", SourceTypeYAML},
		{"a.YML", SourceTypeYAML},
		{"dir/a.json", SourceTypeJSON},
		{"a.db", SourceTypeSQLite},
		{"a.sqlite3", SourceTypeSQLite},
	}
	for _, tt := range tests {
		got, err := DetectType(tt.path)
		if err != nil || got != tt.want {
			t.Errorf("DetectType(%q) = %q, %v; want %q", tt.path, got, err, tt.want)
		}
	}
	if _, err := DetectType("notes.txt"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("DetectType(txt) error = %v, want ErrUnknownFormat", err)
	}
}

func TestDecodeYAMLScalarShorthand(t *testing.T) {
	o, err := DecodeYAML(strings.NewReader(`
title: Short
nodes:
  - Inbox
  - label: Projects
    expanded: true
    children: [Alpha, Beta]
`))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	want := []Node{
		{Label: "Inbox"},
		{Label: "Projects", Expanded: true, Children: []Node{{Label: "Alpha"}, {Label: "Beta"}}},
	}
	if o.Title != "Short" || !reflect.DeepEqual(o.Nodes, want) {
		t.Errorf("got %+v", o)
	}
}

func TestDecodeYAMLEmpty(t *testing.T) {
	o, err := DecodeYAML(strings.NewReader(""))
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if len(o.Nodes) != 0 {
		t.Errorf("nodes = %v, want none", o.Nodes)
	}
}

func TestDecodeJSON(t *testing.T) {
	o, err := DecodeJSON(strings.NewReader(`{"nodes":[{"label":"A","children":[{"label":"B","checked":true}]}]}`))
	if err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if Count(o.Nodes) != 2 || !o.Nodes[0].Children[0].Checked {
		t.Errorf("got %+v", o.Nodes)
	}
	if _, err := DecodeJSON(strings.NewReader(`{"nodes":`)); err == nil {
		t.Error("truncated JSON decoded without error")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plan.yaml", "plan.json", "plan.db"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			if err := Save(path, sample()); err != nil {
				t.Fatalf("Save: %v", err)
			}
			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if got.Title != "Plan" {
				t.Errorf("title = %q", got.Title)
			}
			if !reflect.DeepEqual(got.Nodes, sample().Nodes) {
				t.Errorf("nodes = %+v\nwant %+v", got.Nodes, sample().Nodes)
			}
			if !filepath.IsAbs(got.Path) {
				t.Errorf("path %q not absolute", got.Path)
			}
		})
	}
}

func TestWriteSQLiteReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.db")
	if err := WriteSQLite(path, sample()); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if err := WriteSQLite(path, Outline{Title: "Other", Nodes: []Node{{Label: "Only"}}}); err != nil {
		t.Fatalf("second write: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Title != "Other" || Count(got.Nodes) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestAssembleRejectsBrokenParents(t *testing.T) {
	orphan := []nodeRow{{id: 1, node: Node{Label: "A"}}, {id: 2, node: Node{Label: "B"}}}
	orphan[1].parent.Valid, orphan[1].parent.Int64 = true, 9
	if _, err := assemble(orphan); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing parent: err = %v", err)
	}

	cycle := []nodeRow{{id: 1, node: Node{Label: "A"}}, {id: 2, node: Node{Label: "B"}}}
	cycle[0].parent.Valid, cycle[0].parent.Int64 = true, 2
	cycle[1].parent.Valid, cycle[1].parent.Int64 = true, 1
	if _, err := assemble(cycle); err == nil {
		t.Error("cycle assembled without error")
	}
}

func TestLoadAllKeepsOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "title: A\nnodes: [x, y]\n")
	bad := writeFile(t, dir, "bad.json", "{")
	b := writeFile(t, dir, "b.json", `{"title":"B","nodes":[{"label":"z"}]}`)
	missing := filepath.Join(dir, "missing.yaml")

	results, err := LoadAll(context.Background(), []string{a, bad, b, missing})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Error != nil || results[0].Outline.Title != "A" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Error == nil {
		t.Error("bad.json loaded without error")
	}
	if results[2].Error != nil || results[2].Outline.Title != "B" {
		t.Errorf("results[2] = %+v", results[2])
	}
	if !errors.Is(results[3].Error, os.ErrNotExist) {
		t.Errorf("missing file error = %v", results[3].Error)
	}
}

func TestMerge(t *testing.T) {
	one := Outline{Title: "One", Nodes: []Node{{Label: "a"}}}
	if got := Merge([]Outline{one}); !reflect.DeepEqual(got, one) {
		t.Errorf("single merge = %+v", got)
	}

	two := Outline{Path: "/tmp/two.yaml", Nodes: []Node{{Label: "b"}}}
	got := Merge([]Outline{one, two})
	if len(got.Nodes) != 2 {
		t.Fatalf("roots = %d", len(got.Nodes))
	}
	if got.Nodes[0].Label != "One" || got.Nodes[1].Label != "two.yaml" {
		t.Errorf("labels = %q, %q", got.Nodes[0].Label, got.Nodes[1].Label)
	}
	if !got.Nodes[1].Expanded || got.Nodes[1].Children[0].Label != "b" {
		t.Errorf("second root = %+v", got.Nodes[1])
	}
}

func TestValidateSource(t *testing.T) {
	dir := t.TempDir()
	good, err := Stat(writeFile(t, dir, "good.yaml", "nodes: [a, {label: b, children: [c]}]\n"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := ValidateSource(&good); err != nil || !good.Valid || good.NodeCount != 3 {
		t.Errorf("good source: %v, %s", err, good)
	}

	bad, err := Stat(writeFile(t, dir, "bad.yaml", "nodes: [{note: unlabeled}]\n"))
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := ValidateSource(&bad); !errors.Is(err, ErrEmptyLabel) || bad.Valid {
		t.Errorf("bad source: %v, %s", err, bad)
	}
}

func TestFindAndAppend(t *testing.T) {
	o := sample()
	if n := Find(o.Nodes, []string{"Projects", "Beta", "Deep"}); n == nil || n.Label != "Deep" {
		t.Errorf("Find deep = %v", n)
	}
	if n := Find(o.Nodes, []string{"Projects", "Gamma"}); n != nil {
		t.Errorf("Find missing = %v", n)
	}

	if err := o.Append([]string{"Projects", "Beta"}, Node{Label: "New"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if got := Find(o.Nodes, []string{"Projects", "Beta", "New"}); got == nil {
		t.Error("appended node not found")
	}
	if err := o.Append(nil, Node{Label: "Root"}); err != nil || o.Nodes[len(o.Nodes)-1].Label != "Root" {
		t.Errorf("root append: %v", err)
	}
	if err := o.Append([]string{"Nope"}, Node{Label: "x"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("append under missing parent: %v", err)
	}
	if err := o.Append(nil, Node{}); !errors.Is(err, ErrEmptyLabel) {
		t.Errorf("append empty label: %v", err)
	}
}

func TestPaths(t *testing.T) {
	got := Paths(sample().Nodes)
	want := [][]string{
		{"Inbox"},
		{"Projects"},
		{"Projects", "Alpha"},
		{"Projects", "Beta"},
		{"Projects", "Beta", "Deep"},
		{"Archive"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Paths = %v", got)
	}
}

func TestDiff(t *testing.T) {
	old := sample().Nodes
	updated := []Node{
		{Label: "Inbox"},
		{Label: "Projects", Children: []Node{
			{Label: "Alpha", Note: "rewritten", Checked: true},
			{Label: "Gamma"},
		}},
		{Label: "Archive"},
		{Label: "Later"},
	}

	script := Diff(old, updated)
	var ops []string
	for _, e := range script {
		ops = append(ops, e.Op.String()+" "+e.Node.Label)
	}
	want := []string{"keep Inbox", "keep Projects", "keep Archive", "insert Later"}
	if !reflect.DeepEqual(ops, want) {
		t.Errorf("ops = %v, want %v", ops, want)
	}

	// Beta and its child go, Gamma and Later arrive, Alpha's note changed.
	s := Summarize(script)
	if s != (DiffSummary{Added: 2, Removed: 2, Changed: 1}) {
		t.Errorf("summary = %+v", s)
	}
	if s.String() != "+2 -2 ~1" {
		t.Errorf("summary string = %q", s.String())
	}

	got := Apply(old, script)
	// Kept nodes keep their old expansion.
	updated[1].Expanded = true
	if !reflect.DeepEqual(got, updated) {
		t.Errorf("Apply = %+v\nwant %+v", got, updated)
	}
}

func TestDiffIdentical(t *testing.T) {
	s := Summarize(Diff(sample().Nodes, sample().Nodes))
	if !s.IsEmpty() || s.String() != "no changes" {
		t.Errorf("summary = %+v", s)
	}
}

func TestDiffReorder(t *testing.T) {
	old := []Node{{Label: "a"}, {Label: "b"}}
	updated := []Node{{Label: "b"}, {Label: "a"}}
	s := Summarize(Diff(old, updated))
	if s.Added != 1 || s.Removed != 1 {
		t.Errorf("summary = %+v", s)
	}
	if got := Apply(old, Diff(old, updated)); !reflect.DeepEqual(got, updated) {
		t.Errorf("Apply = %+v", got)
	}
}
