package export

import (
	"fmt"
	"image/color"
	"io"
	"sort"

	"github.com/ajstarks/svgo"

	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// SVGSurface keeps the last row painted at every y and writes them out as
// one document on Encode.
type SVGSurface struct {
	page
	rows map[int]surface.Row
}

// NewSVGSurface returns a surface with a width x height client area laid
// out for cfg.
func NewSVGSurface(width, height int, cfg ui.TreeConfig) *SVGSurface {
	s := &SVGSurface{page: page{cfg: cfg}}
	s.clear = s.clearRect
	s.Resize(width, height)
	return s
}

// Resize drops every painted row; the whole client area is damaged.
func (s *SVGSurface) Resize(width, height int) {
	s.resize(width, height)
	s.rows = make(map[int]surface.Row)
}

func (s *SVGSurface) clearRect(r surface.Rect) {
	for y, row := range s.rows {
		if y < r.Bottom() && y+row.Height > r.Y {
			delete(s.rows, y)
		}
	}
}

func (s *SVGSurface) DrawRow(row surface.Row, y int) {
	if y < 0 || y >= s.height {
		return
	}
	s.rows[y] = row
}

// Rows returns the painted rows top to bottom.
func (s *SVGSurface) Rows() []surface.Row {
	ys := make([]int, 0, len(s.rows))
	for y := range s.rows {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	out := make([]surface.Row, len(ys))
	for i, y := range ys {
		out[i] = s.rows[y]
	}
	return out
}

// Encode writes the page as an SVG document.
func (s *SVGSurface) Encode(w io.Writer) error {
	pw, ph := s.size()
	canvas := svg.New(w)
	canvas.Start(pw, ph)
	canvas.Rect(0, 0, pw, ph, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	if s.title != "" {
		canvas.Title(s.title)
		canvas.Roundrect(margin/2, margin/2, pw-margin, headerHeight, 6, 6, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
		canvas.Text(margin, margin/2+headerHeight/2, s.title,
			fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold;dominant-baseline:middle", css(colorText)))
	}

	ys := make([]int, 0, len(s.rows))
	for y := range s.rows {
		ys = append(ys, y)
	}
	sort.Ints(ys)
	for _, y := range ys {
		s.drawRow(canvas, s.rows[y], y)
	}
	canvas.End()
	return nil
}

func (s *SVGSurface) drawRow(canvas *svg.SVG, row surface.Row, y int) {
	g := s.geometry(row, y)
	ox, _ := s.origin()
	connector := fmt.Sprintf("stroke:%s;stroke-width:1", css(colorConnector))

	if row.Selected {
		tw, _ := measureText(row.Label)
		canvas.Roundrect(ox+row.TextX-2, g.top+1, tw+4, row.Height-2, 3, 3, fmt.Sprintf("fill:%s", css(colorSelected)))
	}

	for i, rail := range row.Rails {
		if rail {
			x := g.rail(i)
			canvas.Line(x, g.top, x, g.bottom, connector)
		}
	}
	if row.Depth > 0 {
		x := g.rail(row.Depth - 1)
		end := g.bottom
		if row.Last {
			end = g.mid
		}
		canvas.Line(x, g.top, x, end, connector)
		canvas.Line(x, g.mid, ox+row.GlyphX, g.mid, connector)
	}

	gx, gy, gw, gh := s.glyphBox(row, g)
	glyph := fmt.Sprintf("fill:%s", css(colorGlyph))
	switch row.Glyph {
	case surface.GlyphCollapsed:
		canvas.Polygon([]int{gx, gx + gw, gx}, []int{gy, gy + gh/2, gy + gh}, glyph)
	case surface.GlyphExpanded:
		canvas.Polygon([]int{gx, gx + gw, gx + gw/2}, []int{gy, gy, gy + gh}, glyph)
	default:
		canvas.Circle(gx+gw/2, g.mid, max(min(gw, gh)/4, 1), glyph)
	}

	if row.Checkable {
		cx, cy, cw, ch := s.checkBox(row, g)
		canvas.Rect(cx, cy, cw, ch, fmt.Sprintf("fill:none;stroke:%s;stroke-width:1", css(colorStroke)))
		if row.Checked {
			canvas.Polyline([]int{cx + 2, cx + cw*2/5, cx + cw - 2}, []int{cy + ch/2, cy + ch - 3, cy + 2},
				fmt.Sprintf("fill:none;stroke:%s;stroke-width:2", css(colorStroke)))
		}
	}

	if row.Image {
		ix, iy, iw, ih := s.imageBox(row, g)
		canvas.Polygon([]int{ix + iw/2, ix + iw, ix + iw/2, ix}, []int{iy, iy + ih/2, iy + ih, iy + ih/2},
			fmt.Sprintf("fill:%s", css(colorImage)))
	}

	text := colorText
	if row.Focused && !row.Selected {
		text = colorSubtle
	}
	canvas.Text(ox+row.TextX, g.mid, row.Label,
		fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;dominant-baseline:middle", css(text)))
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
