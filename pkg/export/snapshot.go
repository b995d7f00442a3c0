package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// ErrFormat reports an export format other than png or svg.
var ErrFormat = errors.New("unsupported export format")

// Options controls snapshot export.
type Options struct {
	Path      string // Output path; format inferred from extension when Format empty
	Format    string // "svg" or "png" (case-insensitive). If empty, inferred from Path.
	Title     string // Defaults to the outline title
	Tree      config.TreeConfig
	ExpandAll bool // open every item, not just the marked ones
}

// Host is a drawing surface that can be sized to its content and encoded.
type Host interface {
	surface.Host
	SetPainter(fn func(surface.Rect))
	SetTitle(title string)
	Resize(width, height int)
	Encode(w io.Writer) error
}

// NewHost returns the surface for format.
func NewHost(format string, cfg ui.TreeConfig) (Host, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "png":
		return NewPNGSurface(1, 1, cfg), nil
	case "svg":
		return NewSVGSurface(1, 1, cfg), nil
	default:
		return nil, fmt.Errorf("%w %q (want svg or png)", ErrFormat, format)
	}
}

// Save renders o to opts.Path.
func Save(o datasource.Outline, opts Options) error {
	format := strings.ToLower(strings.TrimPrefix(opts.Format, "."))
	if format == "" {
		switch strings.ToLower(filepath.Ext(opts.Path)) {
		case ".svg":
			format = "svg"
		case ".png":
			format = "png"
		default:
			format = "svg"
			if opts.Path != "" && filepath.Ext(opts.Path) == "" {
				opts.Path += ".svg"
			}
		}
	}
	if opts.Path == "" {
		return fmt.Errorf("output path is required")
	}
	if format != "svg" && format != "png" {
		return fmt.Errorf("%w %q (want svg or png)", ErrFormat, format)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}

	f, err := os.Create(opts.Path)
	if err != nil {
		return err
	}
	if err := Render(f, format, o, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Render paints every visible row of o on a surface of the given format
// and writes the result to w.
func Render(w io.Writer, format string, o datasource.Outline, opts Options) error {
	cfg := ui.PixelConfig(opts.Tree)
	host, err := NewHost(format, cfg)
	if err != nil {
		return err
	}
	title := opts.Title
	if title == "" {
		title = o.Title
	}
	host.SetTitle(title)

	tree, err := ui.NewTree(ui.Options{Surface: host, Geometry: host, Canvas: host, Config: cfg})
	if err != nil {
		return err
	}
	defer func() { _ = tree.Dispose() }()
	host.SetPainter(func(r surface.Rect) {
		_ = tree.HandleEvent(ui.Event{Type: ui.EventPaint, Rect: r})
	})

	if err := tree.Load(hierarchy.None, o.Nodes, nil); err != nil {
		return err
	}
	if err := expand(tree, opts); err != nil {
		return err
	}

	width, height, err := contentSize(tree, host)
	if err != nil {
		return err
	}
	host.Resize(width, height)
	if err := tree.HandleEvent(ui.Event{Type: ui.EventResize}); err != nil {
		return err
	}
	host.Redraw(surface.Rect{W: width, H: height})
	host.Update()
	debug.Log("export %s: %dx%d", format, width, height)
	return host.Encode(w)
}

func expand(tree *ui.Tree, opts Options) error {
	if !opts.ExpandAll {
		return tree.ExpandToDepth(opts.Tree.ExpandDepth)
	}
	roots, err := tree.Items(hierarchy.None)
	if err != nil {
		return err
	}
	return tree.WithRedrawSuspended(func() error {
		for _, id := range roots {
			if err := tree.ExpandAll(id); err != nil {
				return err
			}
		}
		return nil
	})
}

// contentSize fits the client area to every visible row. The tree only
// measures rows it has shown, so the area is first made tall enough to
// show them all.
func contentSize(tree *ui.Tree, host Host) (int, int, error) {
	total, err := tree.TotalVisibleCount()
	if err != nil {
		return 0, 0, err
	}
	ih, err := tree.ItemHeight()
	if err != nil {
		return 0, 0, err
	}
	height := max(total, 1) * ih

	host.Resize(1, height)
	if err := tree.HandleEvent(ui.Event{Type: ui.EventResize}); err != nil {
		return 0, 0, err
	}
	sb, err := tree.Scrollbars()
	if err != nil {
		return 0, 0, err
	}
	width, _, err := tree.ComputeSize(-1, -1)
	if err != nil {
		return 0, 0, err
	}
	return max(width, sb.HMax), height, nil
}
