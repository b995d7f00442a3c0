// Package surface defines what the tree core needs from the outside world:
// something to draw rows on, the client-area geometry, and a canvas that
// accepts invalidation and block-copy requests.
package surface

import "fmt"

// Rect is a pixel rectangle in client coordinates.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether r covers no pixels.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Bottom is the first y below r.
func (r Rect) Bottom() int { return r.Y + r.H }

// Contains reports whether point (x, y) lies inside r.
func (r Rect) Contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// Intersect returns the overlap of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := min(r.X, o.X), min(r.Y, o.Y)
	x1, y1 := max(r.X+r.W, o.X+o.W), max(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// Glyph is the hierarchy indicator drawn in front of a row.
type Glyph int

const (
	GlyphLeaf Glyph = iota
	GlyphCollapsed
	GlyphExpanded
)

// Row is everything a drawing surface needs to render one visible item.
// X positions are client coordinates with the horizontal scroll applied,
// so they may be negative.
type Row struct {
	Index     int // visible index
	Label     string
	Depth     int
	Glyph     Glyph
	Rails     []bool // per ancestor below the roots: true when it has a sibling below
	Last      bool   // last among its siblings
	Selected  bool
	Focused   bool
	Checkable bool
	Checked   bool
	Image     bool

	X      int // paint start of the row
	GlyphX int
	CheckX int
	ImageX int
	TextX  int
	Width  int // content width measured from X
	Height int
}

// DrawingSurface rasterizes rows. The core never draws pixels itself.
type DrawingSurface interface {
	MeasureText(text string) (w, h int)
	DrawRow(row Row, y int)
}

// Geometry reports the widget's client area.
type Geometry interface {
	ClientArea() (w, h int)
	HorizontalBarVisible() bool
}

// Canvas receives invalidation and block-copy requests. Update flushes
// pending damage synchronously.
type Canvas interface {
	Redraw(r Rect)
	Scroll(destX, destY, srcX, srcY, w, h int)
	Update()
}

// Host bundles the three collaborators; every surface in this module
// implements all of them.
type Host interface {
	DrawingSurface
	Geometry
	Canvas
}
