package export

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

func sample() datasource.Outline {
	return datasource.Outline{
		Title: "Plan",
		Nodes: []datasource.Node{
			{Label: "Inbox"},
			{Label: "Projects", Expanded: true, Children: []datasource.Node{
				{Label: "Alpha", Checked: true, Icon: true},
				{Label: "Beta", Children: []datasource.Node{{Label: "Deep"}}},
			}},
			{Label: "Archive"},
		},
	}
}

var svgSize = regexp.MustCompile(`<svg[^>]*width="(\d+)" height="(\d+)"`)

func svgDimensions(t *testing.T, doc string) (int, int) {
	t.Helper()
	m := svgSize.FindStringSubmatch(doc)
	if m == nil {
		t.Fatalf("no svg size in:\n%s", doc)
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	return w, h
}

func TestRenderSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "svg", sample(), Options{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := buf.String()
	for _, want := range []string{"<svg", "<title>Plan</title>", ">Inbox<", ">Alpha<", ">Beta<", ">Archive<", "</svg>"} {
		if !strings.Contains(doc, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Contains(doc, ">Deep<") {
		t.Error("collapsed child exported")
	}

	_, h := svgDimensions(t, doc)
	// Five rows of 16px below the title, inside the margins.
	if want := 5*16 + margin + headerHeight + margin; h != want {
		t.Errorf("height = %d, want %d", h, want)
	}
}

func TestRenderExpandAll(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "svg", sample(), Options{ExpandAll: true}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(buf.String(), ">Deep<") {
		t.Error("ExpandAll left a child hidden")
	}
}

func TestRenderExpandDepth(t *testing.T) {
	o := sample()
	o.Nodes[1].Expanded = false
	var buf bytes.Buffer
	if err := Render(&buf, "svg", o, Options{Tree: config.TreeConfig{ExpandDepth: 1}}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	doc := buf.String()
	if !strings.Contains(doc, ">Alpha<") || strings.Contains(doc, ">Deep<") {
		t.Errorf("depth 1 export wrong:\n%s", doc)
	}
}

func TestRenderWidthCoversEveryRow(t *testing.T) {
	var o datasource.Outline
	for i := 0; i < 80; i++ {
		o.Nodes = append(o.Nodes, datasource.Node{Label: fmt.Sprintf("row %d", i)})
	}
	long := strings.Repeat("x", 120)
	o.Nodes[70].Label = long

	var buf bytes.Buffer
	if err := Render(&buf, "svg", o, Options{}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	w, _ := svgDimensions(t, buf.String())
	lw, _ := measureText(long)
	if w < lw+2*margin {
		t.Errorf("width = %d, narrower than the long row (%d)", w, lw)
	}
}

func TestRenderPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, "PNG", sample(), Options{Tree: config.TreeConfig{Checkable: true}}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if want := 5*16 + margin + headerHeight + margin; b.Dy() != want {
		t.Errorf("height = %d, want %d", b.Dy(), want)
	}
	if b.Dx() <= 2*margin {
		t.Errorf("width = %d, want room for rows", b.Dx())
	}
	got := color.RGBAModel.Convert(img.At(b.Max.X-1, b.Max.Y-1)).(color.RGBA)
	if got != colorBackdrop {
		t.Errorf("corner = %v, want backdrop %v", got, colorBackdrop)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	err := Render(&bytes.Buffer{}, "gif", sample(), Options{})
	if !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		opts   Options
		file   string
		prefix string
	}{
		{"png by extension", Options{Path: filepath.Join(dir, "a.png")}, "a.png", "\x89PNG"},
		{"svg by extension", Options{Path: filepath.Join(dir, "b.svg")}, "b.svg", "<?xml"},
		{"svg default", Options{Path: filepath.Join(dir, "nested", "c")}, filepath.Join("nested", "c.svg"), "<?xml"},
		{"explicit format", Options{Path: filepath.Join(dir, "d.out"), Format: ".png"}, "d.out", "\x89PNG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := Save(sample(), tt.opts); err != nil {
				t.Fatalf("Save: %v", err)
			}
			data, err := os.ReadFile(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if !bytes.HasPrefix(data, []byte(tt.prefix)) {
				t.Errorf("file starts %q, want %q", data[:min(len(data), 8)], tt.prefix)
			}
		})
	}

	if err := Save(sample(), Options{}); err == nil {
		t.Error("Save without a path succeeded")
	}
	if err := Save(sample(), Options{Path: filepath.Join(dir, "e.gif"), Format: "gif"}); !errors.Is(err, ErrFormat) {
		t.Errorf("err = %v, want ErrFormat", err)
	}
}

// newTree wires a tree to an export surface the way Render does.
func newTree(t *testing.T, host Host, cfg ui.TreeConfig) *ui.Tree {
	t.Helper()
	tree, err := ui.NewTree(ui.Options{Surface: host, Geometry: host, Canvas: host, Config: cfg})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	host.SetPainter(func(r surface.Rect) {
		_ = tree.HandleEvent(ui.Event{Type: ui.EventPaint, Rect: r})
	})
	return tree
}

func labels(rows []surface.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Label
	}
	return out
}

func TestSVGSurfaceRepaintsDamage(t *testing.T) {
	cfg := ui.DefaultTreeConfig()
	s := NewSVGSurface(200, 48, cfg)
	tree := newTree(t, s, cfg)
	for _, l := range []string{"a", "b", "c", "d"} {
		if _, err := tree.Append(hierarchy.None, l); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	s.Redraw(surface.Rect{W: 200, H: 48})
	s.Update()
	if got := strings.Join(labels(s.Rows()), ","); got != "a,b,c" {
		t.Errorf("rows = %s, want a,b,c", got)
	}

	b, err := tree.ItemAt(1)
	if err != nil {
		t.Fatalf("ItemAt: %v", err)
	}
	if err := tree.SetLabel(b, "bee"); err != nil {
		t.Fatalf("SetLabel: %v", err)
	}
	s.Update()
	if got := strings.Join(labels(s.Rows()), ","); got != "a,bee,c" {
		t.Errorf("rows = %s, want a,bee,c", got)
	}

	if err := tree.SetTopIndex(1); err != nil {
		t.Fatalf("SetTopIndex: %v", err)
	}
	s.Update()
	if got := strings.Join(labels(s.Rows()), ","); got != "bee,c,d" {
		t.Errorf("rows after scroll = %s, want bee,c,d", got)
	}
}

func TestPNGSurfaceDrawsRows(t *testing.T) {
	cfg := ui.DefaultTreeConfig()
	s := NewPNGSurface(120, 32, cfg)
	tree := newTree(t, s, cfg)
	if _, err := tree.Append(hierarchy.None, "root"); err != nil {
		t.Fatalf("Append: %v", err)
	}
	s.Redraw(surface.Rect{W: 120, H: 32})
	s.Update()

	// The label is drawn in the text color somewhere on the first row.
	img := s.Image()
	ox, oy := s.origin()
	found := false
	for y := oy; y < oy+16 && !found; y++ {
		for x := ox; x < ox+120; x++ {
			if c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA); c.R < 0x80 && c.G < 0x80 && c.B < 0x80 {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("no dark text pixels on the first row")
	}
}
