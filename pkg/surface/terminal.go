package surface

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Connector pieces, one indent level each.
const (
	railPiece   = "│"
	branchPiece = "├─"
	lastPiece   = "└─"
)

// Indicators for the hierarchy glyph.
const (
	IndicatorLeaf      = "•"
	IndicatorCollapsed = "▸"
	IndicatorExpanded  = "▾"
)

// RowStyles are the lipgloss styles a Terminal paints with.
type RowStyles struct {
	Normal    lipgloss.Style
	Selected  lipgloss.Style
	Focused   lipgloss.Style
	Connector lipgloss.Style
	Glyph     lipgloss.Style
}

// Terminal is a Host backed by a line buffer: one cell is one pixel and an
// item is one line high. Damage is repainted on Update through the painter
// installed with SetPainter.
type Terminal struct {
	width, height int
	indent        int
	hbar          bool

	styles  RowStyles
	lines   []string
	dirty   []bool
	painter func(Rect)
}

// NewTerminal returns a width x height buffer. indent is the number of
// cells per hierarchy level.
func NewTerminal(width, height, indent int, styles RowStyles) *Terminal {
	t := &Terminal{indent: max(indent, 1), styles: styles}
	t.Resize(width, height)
	return t
}

// SetPainter installs the function that repaints a damaged rectangle,
// normally the widget's paint handler.
func (t *Terminal) SetPainter(fn func(Rect)) { t.painter = fn }

// SetStyles replaces the row styles and damages everything.
func (t *Terminal) SetStyles(s RowStyles) {
	t.styles = s
	t.Redraw(Rect{W: t.width, H: t.height})
}

// SetHorizontalBarVisible records whether the host shows a horizontal
// scrollbar below the rows.
func (t *Terminal) SetHorizontalBarVisible(v bool) { t.hbar = v }

// Resize reallocates the buffer; everything is damaged.
func (t *Terminal) Resize(width, height int) {
	t.width, t.height = max(width, 0), max(height, 0)
	t.lines = make([]string, t.height)
	t.dirty = make([]bool, t.height)
	for i := range t.dirty {
		t.dirty[i] = true
	}
}

func (t *Terminal) ClientArea() (int, int) { return t.width, t.height }

func (t *Terminal) HorizontalBarVisible() bool { return t.hbar }

func (t *Terminal) MeasureText(text string) (int, int) {
	return runewidth.StringWidth(text), 1
}

func (t *Terminal) Redraw(r Rect) {
	for y := max(r.Y, 0); y < min(r.Bottom(), t.height); y++ {
		t.dirty[y] = true
	}
}

// Scroll copies whole lines. Pending damage travels with the lines it
// belongs to, and lines copied from outside the buffer arrive damaged. A
// horizontal copy cannot be expressed on a line buffer, so it damages the
// whole area instead.
func (t *Terminal) Scroll(destX, destY, srcX, srcY, w, h int) {
	if destX != srcX {
		t.Redraw(Rect{W: t.width, H: t.height})
		return
	}
	if h <= 0 || destY == srcY {
		return
	}
	moved := make([]string, h)
	damaged := make([]bool, h)
	for i := range moved {
		y := srcY + i
		if y < 0 || y >= t.height {
			damaged[i] = true
			continue
		}
		moved[i], damaged[i] = t.lines[y], t.dirty[y]
	}
	for i, line := range moved {
		if y := destY + i; y >= 0 && y < t.height {
			t.lines[y] = line
			t.dirty[y] = damaged[i]
		}
	}
	// Source lines the copy did not cover are exposed.
	for y := srcY; y < srcY+h; y++ {
		if y >= destY && y < destY+h {
			continue
		}
		if y >= 0 && y < t.height {
			t.dirty[y] = true
		}
	}
}

// Update repaints every damaged run of lines through the painter.
func (t *Terminal) Update() {
	for y := 0; y < t.height; {
		if !t.dirty[y] {
			y++
			continue
		}
		start := y
		for y < t.height && t.dirty[y] {
			t.lines[y] = ""
			t.dirty[y] = false
			y++
		}
		if t.painter != nil {
			t.painter(Rect{X: 0, Y: start, W: t.width, H: y - start})
		}
	}
}

// DrawRow renders row into line y.
func (t *Terminal) DrawRow(row Row, y int) {
	if y < 0 || y >= t.height {
		return
	}
	content := t.plainRow(row)
	skip := -row.X
	prefix := max(row.GlyphX-row.X-skip, 0)

	visible := skipCells(content, skip)
	visible = runewidth.Truncate(visible, t.width, "")
	lead := runewidth.Truncate(visible, prefix, "")
	rest := visible[len(lead):]

	switch {
	case row.Selected:
		t.lines[y] = t.styles.Selected.Render(visible)
	case row.Focused:
		t.lines[y] = t.styles.Connector.Render(lead) + t.styles.Focused.Render(rest)
	default:
		t.lines[y] = t.styles.Connector.Render(lead) + t.styles.Normal.Render(rest)
	}
}

// plainRow lays the row out without styles in content coordinates.
func (t *Terminal) plainRow(row Row) string {
	var sb strings.Builder
	col := 0
	put := func(x int, s string) {
		if x > col {
			sb.WriteString(strings.Repeat(" ", x-col))
			col = x
		}
		sb.WriteString(s)
		col += runewidth.StringWidth(s)
	}

	if row.Depth > 0 {
		for i, rail := range row.Rails {
			if rail {
				put(i*t.indent, railPiece)
			}
		}
		piece := branchPiece
		if row.Last {
			piece = lastPiece
		}
		put((row.Depth-1)*t.indent, piece+strings.Repeat("─", max(t.indent-3, 0)))
	}

	switch row.Glyph {
	case GlyphCollapsed:
		put(row.GlyphX-row.X, IndicatorCollapsed)
	case GlyphExpanded:
		put(row.GlyphX-row.X, IndicatorExpanded)
	default:
		put(row.GlyphX-row.X, IndicatorLeaf)
	}
	if row.Checkable {
		box := "[ ]"
		if row.Checked {
			box = "[x]"
		}
		put(row.CheckX-row.X, box)
	}
	if row.Image {
		put(row.ImageX-row.X, "◆")
	}
	put(row.TextX-row.X, row.Label)
	return sb.String()
}

// skipCells drops the first n display cells of s.
func skipCells(s string, n int) string {
	if n <= 0 {
		return s
	}
	w := 0
	for i, r := range s {
		if w >= n {
			return s[i:]
		}
		w += runewidth.RuneWidth(r)
	}
	return ""
}

// Line returns line y of the buffer as last painted.
func (t *Terminal) Line(y int) string {
	if y < 0 || y >= t.height {
		return ""
	}
	return t.lines[y]
}

// View joins the buffer into one string.
func (t *Terminal) View() string {
	return strings.Join(t.lines, "\n")
}
