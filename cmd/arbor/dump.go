package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

// dump prints the visible rows of o as plain text, for pipes and files.
// The rows come from the same tree and terminal surface the browser uses.
func dump(w io.Writer, o datasource.Outline, tc config.TreeConfig) error {
	cfg := ui.TerminalConfig(tc)
	term := surface.NewTerminal(1, 1, cfg.Indent, surface.RowStyles{})
	tree, err := ui.NewTree(ui.Options{Surface: term, Geometry: term, Canvas: term, Config: cfg})
	if err != nil {
		return err
	}
	defer func() { _ = tree.Dispose() }()
	term.SetPainter(func(r surface.Rect) {
		_ = tree.HandleEvent(ui.Event{Type: ui.EventPaint, Rect: r})
	})

	if err := tree.Load(hierarchy.None, o.Nodes, nil); err != nil {
		return err
	}
	if err := tree.ExpandToDepth(tc.ExpandDepth); err != nil {
		return err
	}

	total, err := tree.TotalVisibleCount()
	if err != nil {
		return err
	}
	// A client area as tall as the outline makes the tree measure every row.
	term.Resize(1, total)
	if err := tree.HandleEvent(ui.Event{Type: ui.EventResize}); err != nil {
		return err
	}
	sb, err := tree.Scrollbars()
	if err != nil {
		return err
	}
	term.Resize(max(sb.HMax, 1), total)
	if err := tree.HandleEvent(ui.Event{Type: ui.EventResize}); err != nil {
		return err
	}
	term.Update()

	for y := 0; y < total; y++ {
		if _, err := fmt.Fprintln(w, strings.TrimRight(term.Line(y), " ")); err != nil {
			return err
		}
	}
	return nil
}
