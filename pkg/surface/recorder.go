package surface

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

// OpKind classifies a recorded call.
type OpKind int

const (
	OpRedraw OpKind = iota
	OpScroll
	OpUpdate
	OpDrawRow
	OpNote
)

func (k OpKind) String() string {
	switch k {
	case OpRedraw:
		return "redraw"
	case OpScroll:
		return "scroll"
	case OpUpdate:
		return "update"
	case OpDrawRow:
		return "draw"
	case OpNote:
		return "note"
	default:
		return fmt.Sprintf("op(%d)", int(k))
	}
}

// Op is one recorded call.
type Op struct {
	Kind OpKind
	Rect Rect // redraw area, or the scroll destination

	SrcX, SrcY int // scroll source

	Row  Row // drawn row
	Y    int
	Note string
}

func (o Op) String() string {
	switch o.Kind {
	case OpRedraw:
		return "redraw " + o.Rect.String()
	case OpScroll:
		return fmt.Sprintf("scroll (%d,%d)<-(%d,%d) %dx%d", o.Rect.X, o.Rect.Y, o.SrcX, o.SrcY, o.Rect.W, o.Rect.H)
	case OpDrawRow:
		return fmt.Sprintf("draw %q at %d", o.Row.Label, o.Y)
	case OpNote:
		return "note " + o.Note
	default:
		return o.Kind.String()
	}
}

// Recorder is an in-memory Host that records every call in order.
// Text is measured as CharWidth pixels per terminal cell.
type Recorder struct {
	Width, Height int
	HBar          bool
	CharWidth     int
	LineHeight    int

	// OnUpdate, when set, runs on Update so a test can route pending
	// damage back into the widget.
	OnUpdate func(damage Rect)

	ops    []Op
	damage Rect
}

// NewRecorder returns a recorder with an 8x16 text cell.
func NewRecorder(width, height int) *Recorder {
	return &Recorder{Width: width, Height: height, CharWidth: 8, LineHeight: 16}
}

func (r *Recorder) MeasureText(text string) (int, int) {
	return runewidth.StringWidth(text) * r.CharWidth, r.LineHeight
}

func (r *Recorder) DrawRow(row Row, y int) {
	r.ops = append(r.ops, Op{Kind: OpDrawRow, Row: row, Y: y})
}

func (r *Recorder) ClientArea() (int, int) { return r.Width, r.Height }

func (r *Recorder) HorizontalBarVisible() bool { return r.HBar }

func (r *Recorder) Redraw(rect Rect) {
	r.ops = append(r.ops, Op{Kind: OpRedraw, Rect: rect})
	r.damage = r.damage.Union(rect)
}

func (r *Recorder) Scroll(destX, destY, srcX, srcY, w, h int) {
	r.ops = append(r.ops, Op{
		Kind: OpScroll,
		Rect: Rect{X: destX, Y: destY, W: w, H: h},
		SrcX: srcX,
		SrcY: srcY,
	})
}

func (r *Recorder) Update() {
	r.ops = append(r.ops, Op{Kind: OpUpdate})
	damage := r.damage
	r.damage = Rect{}
	if r.OnUpdate != nil && !damage.Empty() {
		r.OnUpdate(damage)
	}
}

// Note records a marker, typically from a listener, so tests can check
// where a notification landed relative to screen work.
func (r *Recorder) Note(s string) {
	r.ops = append(r.ops, Op{Kind: OpNote, Note: s})
}

// Ops returns a copy of every recorded call.
func (r *Recorder) Ops() []Op {
	return append([]Op(nil), r.ops...)
}

// Reset forgets recorded calls and pending damage.
func (r *Recorder) Reset() {
	r.ops = r.ops[:0]
	r.damage = Rect{}
}

// Of returns the recorded calls of one kind.
func (r *Recorder) Of(kind OpKind) []Op {
	var out []Op
	for _, o := range r.ops {
		if o.Kind == kind {
			out = append(out, o)
		}
	}
	return out
}

// Redraws returns the invalidated rectangles in order.
func (r *Recorder) Redraws() []Rect {
	var out []Rect
	for _, o := range r.Of(OpRedraw) {
		out = append(out, o.Rect)
	}
	return out
}

// IndexOf returns the position of the first op matching fn, or -1.
func (r *Recorder) IndexOf(fn func(Op) bool) int {
	for i, o := range r.ops {
		if fn(o) {
			return i
		}
	}
	return -1
}

// Damage is the union of redraws not yet flushed by Update.
func (r *Recorder) Damage() Rect { return r.damage }

func (r *Recorder) String() string {
	var sb strings.Builder
	for _, o := range r.ops {
		sb.WriteString(o.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
