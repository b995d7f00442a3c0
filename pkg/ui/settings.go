package ui

import (
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/selection"
)

// TerminalConfig maps configured tree settings onto the cell grid. Only
// the behavioral settings carry over; sizes are fixed in cells.
func TerminalConfig(c config.TreeConfig) TreeConfig {
	cfg := TerminalTreeConfig()
	applyBehavior(&cfg, c)
	return cfg
}

// PixelConfig maps configured tree settings onto a pixel surface.
func PixelConfig(c config.TreeConfig) TreeConfig {
	cfg := DefaultTreeConfig()
	applyBehavior(&cfg, c)
	if c.Indent > 0 {
		cfg.Indent = c.Indent
	}
	if c.GlyphSize > 0 {
		cfg.GlyphWidth, cfg.GlyphHeight = c.GlyphSize, c.GlyphSize
	}
	if c.CheckboxSize > 0 {
		cfg.CheckboxWidth, cfg.CheckboxHeight = c.CheckboxSize, c.CheckboxSize
	}
	if c.ImageSize > 0 {
		cfg.ImageWidth, cfg.ImageHeight = c.ImageSize, c.ImageSize
	}
	return cfg
}

func applyBehavior(cfg *TreeConfig, c config.TreeConfig) {
	cfg.Checkable = c.Checkable
	if c.Multi() {
		cfg.Style = selection.Multi
	}
}

// ExpandToDepth opens every item above depth levels (1 opens the roots).
// It runs with redraw suspended.
func (t *Tree) ExpandToDepth(depth int) error {
	if err := t.check(); err != nil {
		return err
	}
	if depth <= 0 {
		return nil
	}
	var open []hierarchy.NodeID
	t.ix.Walk(hierarchy.None, func(id hierarchy.NodeID, d int) bool {
		if d >= depth {
			return false
		}
		if !t.ix.IsLeaf(id) {
			open = append(open, id)
		}
		return true
	})
	return t.WithRedrawSuspended(func() error {
		for _, id := range open {
			t.expand(id)
		}
		return nil
	})
}
