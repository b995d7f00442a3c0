package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/arbor/pkg/hierarchy"
)

// Finder is the type-to-find prompt. Matches are ranked by fuzzy score
// against every item label, collapsed items included.
type Finder struct {
	input   textinput.Model
	active  bool
	matches []hierarchy.NodeID
	current int
}

// NewFinder returns an inactive finder.
func NewFinder() Finder {
	ti := textinput.New()
	ti.Placeholder = "find..."
	ti.Prompt = "/"
	ti.CharLimit = 80
	ti.Width = 30
	return Finder{input: ti}
}

// Open focuses an empty prompt.
func (f *Finder) Open() {
	f.input.SetValue("")
	f.input.Focus()
	f.active = true
}

// Close hides the prompt and keeps the last matches for NextMatch.
func (f *Finder) Close() {
	f.input.Blur()
	f.active = false
}

// Active reports whether the prompt has the keyboard.
func (f Finder) Active() bool { return f.active }

// Query returns the typed text.
func (f Finder) Query() string { return strings.TrimSpace(f.input.Value()) }

// UpdateInput feeds a message to the text input.
func (f *Finder) UpdateInput(msg interface{}) {
	f.input, _ = f.input.Update(msg)
}

// Search ranks the items of t against the query and returns the best
// match, or None.
func (f *Finder) Search(t *Tree) hierarchy.NodeID {
	f.matches, f.current = nil, 0
	query := f.Query()
	if query == "" {
		return hierarchy.None
	}
	var (
		ids    []hierarchy.NodeID
		labels []string
	)
	t.ix.Walk(hierarchy.None, func(id hierarchy.NodeID, _ int) bool {
		ids = append(ids, id)
		labels = append(labels, t.ix.Label(id))
		return true
	})
	for _, m := range fuzzy.Find(query, labels) {
		f.matches = append(f.matches, ids[m.Index])
	}
	if len(f.matches) == 0 {
		return hierarchy.None
	}
	return f.matches[0]
}

// Next cycles to the following match that still exists.
func (f *Finder) Next(t *Tree) hierarchy.NodeID {
	for range f.matches {
		f.current = (f.current + 1) % len(f.matches)
		if id := f.matches[f.current]; t.ix.Contains(id) {
			return id
		}
	}
	return hierarchy.None
}

// Position reports the current match as 1-based index and total.
func (f Finder) Position() (int, int) {
	if len(f.matches) == 0 {
		return 0, 0
	}
	return f.current + 1, len(f.matches)
}

// View renders the prompt.
func (f Finder) View() string { return f.input.View() }
