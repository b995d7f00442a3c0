package export

import (
	"image"
	"io"

	"git.sr.ht/~sbinet/gg"

	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// PNGSurface rasterizes rows into an image.
type PNGSurface struct {
	page
	dc *gg.Context
}

// NewPNGSurface returns a surface with a width x height client area laid
// out for cfg.
func NewPNGSurface(width, height int, cfg ui.TreeConfig) *PNGSurface {
	s := &PNGSurface{page: page{cfg: cfg}}
	s.clear = s.clearRect
	s.Resize(width, height)
	return s
}

// Resize starts a blank page; the whole client area is damaged.
func (s *PNGSurface) Resize(width, height int) {
	s.resize(width, height)
	w, h := s.size()
	s.dc = gg.NewContext(w, h)
	s.dc.SetFontFace(face)
	s.dc.SetColor(colorBackdrop)
	s.dc.Clear()

	if s.title != "" {
		s.dc.SetColor(colorHeaderBG)
		s.dc.DrawRoundedRectangle(margin/2, margin/2, float64(w-margin), headerHeight, 6)
		s.dc.Fill()
		s.dc.SetColor(colorText)
		s.dc.DrawStringAnchored(s.title, margin, margin/2+headerHeight/2, 0, 0.5)
	}
}

func (s *PNGSurface) clearRect(r surface.Rect) {
	ox, oy := s.origin()
	s.dc.SetColor(colorBackdrop)
	s.dc.DrawRectangle(float64(ox+r.X), float64(oy+r.Y), float64(r.W), float64(r.H))
	s.dc.Fill()
}

func (s *PNGSurface) DrawRow(row surface.Row, y int) {
	g := s.geometry(row, y)
	ox, _ := s.origin()
	dc := s.dc

	// Rows may be painted outside a clear, so start from the backdrop.
	dc.SetColor(colorBackdrop)
	dc.DrawRectangle(float64(ox), float64(g.top), float64(s.width), float64(row.Height))
	dc.Fill()

	if row.Selected {
		tw, _ := measureText(row.Label)
		dc.SetColor(colorSelected)
		dc.DrawRoundedRectangle(float64(ox+row.TextX-2), float64(g.top+1), float64(tw+4), float64(row.Height-2), 3)
		dc.Fill()
	}

	dc.SetColor(colorConnector)
	dc.SetLineWidth(1)
	for i, rail := range row.Rails {
		if rail {
			x := float64(g.rail(i))
			dc.DrawLine(x, float64(g.top), x, float64(g.bottom))
			dc.Stroke()
		}
	}
	if row.Depth > 0 {
		x := float64(g.rail(row.Depth - 1))
		end := g.bottom
		if row.Last {
			end = g.mid
		}
		dc.DrawLine(x, float64(g.top), x, float64(end))
		dc.Stroke()
		dc.DrawLine(x, float64(g.mid), float64(ox+row.GlyphX), float64(g.mid))
		dc.Stroke()
	}

	gx, gy, gw, gh := s.glyphBox(row, g)
	dc.SetColor(colorGlyph)
	switch row.Glyph {
	case surface.GlyphCollapsed:
		dc.MoveTo(float64(gx), float64(gy))
		dc.LineTo(float64(gx+gw), float64(gy)+float64(gh)/2)
		dc.LineTo(float64(gx), float64(gy+gh))
		dc.ClosePath()
		dc.Fill()
	case surface.GlyphExpanded:
		dc.MoveTo(float64(gx), float64(gy))
		dc.LineTo(float64(gx+gw), float64(gy))
		dc.LineTo(float64(gx)+float64(gw)/2, float64(gy+gh))
		dc.ClosePath()
		dc.Fill()
	default:
		dc.DrawCircle(float64(gx)+float64(gw)/2, float64(g.mid), float64(min(gw, gh))/4)
		dc.Fill()
	}

	if row.Checkable {
		cx, cy, cw, ch := s.checkBox(row, g)
		dc.SetColor(colorStroke)
		dc.DrawRectangle(float64(cx), float64(cy), float64(cw), float64(ch))
		dc.Stroke()
		if row.Checked {
			dc.SetLineWidth(2)
			dc.MoveTo(float64(cx)+2, float64(cy)+float64(ch)/2)
			dc.LineTo(float64(cx)+float64(cw)/2.5, float64(cy+ch)-3)
			dc.LineTo(float64(cx+cw)-2, float64(cy)+2)
			dc.Stroke()
			dc.SetLineWidth(1)
		}
	}

	if row.Image {
		ix, iy, iw, ih := s.imageBox(row, g)
		dc.SetColor(colorImage)
		dc.MoveTo(float64(ix)+float64(iw)/2, float64(iy))
		dc.LineTo(float64(ix+iw), float64(iy)+float64(ih)/2)
		dc.LineTo(float64(ix)+float64(iw)/2, float64(iy+ih))
		dc.LineTo(float64(ix), float64(iy)+float64(ih)/2)
		dc.ClosePath()
		dc.Fill()
	}

	dc.SetColor(colorText)
	if row.Focused && !row.Selected {
		dc.SetColor(colorSubtle)
	}
	dc.DrawStringAnchored(row.Label, float64(ox+row.TextX), float64(g.mid), 0, 0.5)
}

// Image returns the page as painted so far.
func (s *PNGSurface) Image() image.Image { return s.dc.Image() }

// Encode writes the page as PNG.
func (s *PNGSurface) Encode(w io.Writer) error { return s.dc.EncodePNG(w) }
