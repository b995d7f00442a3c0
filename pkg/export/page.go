// Package export renders a tree to PNG and SVG. Both formats are drawing
// surfaces the tree core paints through, the same way it paints a terminal.
package export

import (
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"

	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// Page layout, in pixels.
const (
	margin       = 16
	headerHeight = 28
)

var face = basicfont.Face7x13

var (
	colorBackdrop  = color.RGBA{0xf9, 0xfa, 0xfb, 0xff}
	colorHeaderBG  = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
	colorText      = color.RGBA{0x11, 0x11, 0x11, 0xff}
	colorSubtle    = color.RGBA{0x66, 0x66, 0x66, 0xff}
	colorStroke    = color.RGBA{0x22, 0x22, 0x22, 0xff}
	colorConnector = color.RGBA{0xb0, 0xb8, 0xc4, 0xff}
	colorGlyph     = color.RGBA{0x6b, 0x80, 0xbf, 0xff}
	colorSelected  = color.RGBA{0xdb, 0xe4, 0xff, 0xff}
	colorImage     = color.RGBA{0xbd, 0x93, 0xf9, 0xff}
)

// measureText is shared by both surfaces so PNG and SVG exports of one
// outline have the same geometry.
func measureText(text string) (int, int) {
	return font.MeasureString(face, text).Ceil(), face.Metrics().Height.Ceil()
}

// page is the Host bookkeeping both surfaces share: a client area placed
// inside a margin below an optional title, pending damage, and the painter
// Update flushes it to.
type page struct {
	width, height int
	title         string
	cfg           ui.TreeConfig

	damage  surface.Rect
	painter func(surface.Rect)
	clear   func(surface.Rect)
}

// SetPainter installs the function that repaints a damaged rectangle,
// normally the tree's paint handler.
func (p *page) SetPainter(fn func(surface.Rect)) { p.painter = fn }

// SetTitle sets the heading drawn above the rows. Call it before Resize.
func (p *page) SetTitle(title string) { p.title = title }

func (p *page) MeasureText(text string) (int, int) { return measureText(text) }

func (p *page) ClientArea() (int, int) { return p.width, p.height }

func (p *page) HorizontalBarVisible() bool { return false }

func (p *page) Redraw(r surface.Rect) {
	p.damage = p.damage.Union(r.Intersect(surface.Rect{W: p.width, H: p.height}))
}

// Scroll repaints both ends of the copy; nothing on a page is worth moving.
func (p *page) Scroll(destX, destY, srcX, srcY, w, h int) {
	p.Redraw(surface.Rect{X: srcX, Y: srcY, W: w, H: h})
	p.Redraw(surface.Rect{X: destX, Y: destY, W: w, H: h})
}

func (p *page) Update() {
	d := p.damage
	p.damage = surface.Rect{}
	if d.Empty() {
		return
	}
	if p.clear != nil {
		p.clear(d)
	}
	if p.painter != nil {
		p.painter(d)
	}
}

func (p *page) resize(width, height int) {
	p.width, p.height = max(width, 0), max(height, 0)
	p.damage = surface.Rect{W: p.width, H: p.height}
}

// origin is where client (0, 0) lands on the page.
func (p *page) origin() (int, int) {
	y := margin
	if p.title != "" {
		y += headerHeight
	}
	return margin, y
}

// size is the whole page: the client area, the margins and the title.
func (p *page) size() (int, int) {
	w := p.width
	if p.title != "" {
		tw, _ := measureText(p.title)
		w = max(w, tw)
	}
	_, oy := p.origin()
	return w + 2*margin, p.height + oy + margin
}

// rowGeometry is a row mapped to page coordinates.
type rowGeometry struct {
	top, mid, bottom int

	// rail returns the x of the vertical connector owned by the ancestor
	// at depth d.
	rail func(d int) int
}

func (p *page) geometry(row surface.Row, y int) rowGeometry {
	ox, oy := p.origin()
	top := oy + y
	glyph := p.cfg.GlyphWidth
	return rowGeometry{
		top:    top,
		mid:    top + row.Height/2,
		bottom: top + row.Height,
		rail: func(d int) int {
			return ox + row.X + d*p.cfg.Indent + glyph/2
		},
	}
}

// glyphBox is the glyph square of row in page coordinates.
func (p *page) glyphBox(row surface.Row, g rowGeometry) (x, y, w, h int) {
	ox, _ := p.origin()
	return ox + row.GlyphX, g.mid - p.cfg.GlyphHeight/2, p.cfg.GlyphWidth, p.cfg.GlyphHeight
}

func (p *page) checkBox(row surface.Row, g rowGeometry) (x, y, w, h int) {
	ox, _ := p.origin()
	return ox + row.CheckX, g.mid - p.cfg.CheckboxHeight/2, p.cfg.CheckboxWidth, p.cfg.CheckboxHeight
}

func (p *page) imageBox(row surface.Row, g rowGeometry) (x, y, w, h int) {
	ox, _ := p.origin()
	return ox + row.ImageX, g.mid - p.cfg.ImageHeight/2, p.cfg.ImageWidth, p.cfg.ImageHeight
}
