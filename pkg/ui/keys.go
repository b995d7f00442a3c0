package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap holds the browser key bindings. The tree bindings translate into
// widget key events; the rest drive the browser itself.
type KeyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Home       key.Binding
	End        key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	ExtendUp   key.Binding
	ExtendDown key.Binding
	FocusUp    key.Binding
	FocusDown  key.Binding
	Expand     key.Binding
	Collapse   key.Binding
	ExpandAll  key.Binding
	Toggle     key.Binding
	Activate   key.Binding

	Find        key.Binding
	NextMatch   key.Binding
	Copy        key.Binding
	Detail      key.Binding
	ScrollLeft  key.Binding
	ScrollRight key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "collapse")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "expand")),
		Home:       key.NewBinding(key.WithKeys("home", "g")),
		End:        key.NewBinding(key.WithKeys("end", "G")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "ctrl+u")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "ctrl+d")),
		ExtendUp:   key.NewBinding(key.WithKeys("shift+up", "K")),
		ExtendDown: key.NewBinding(key.WithKeys("shift+down", "J")),
		FocusUp:    key.NewBinding(key.WithKeys("ctrl+up")),
		FocusDown:  key.NewBinding(key.WithKeys("ctrl+down")),
		Expand:     key.NewBinding(key.WithKeys("+", "=")),
		Collapse:   key.NewBinding(key.WithKeys("-")),
		ExpandAll:  key.NewBinding(key.WithKeys("*"), key.WithHelp("*", "expand all")),
		Toggle:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "select")),
		Activate:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),

		Find:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "find")),
		NextMatch:   key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "next match")),
		Copy:        key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Detail:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "notes")),
		ScrollLeft:  key.NewBinding(key.WithKeys("<")),
		ScrollRight: key.NewBinding(key.WithKeys(">")),
		Quit:        key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp lists the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Left, k.Right, k.ExpandAll, k.Find, k.Copy, k.Detail, k.Quit}
}

type keyEvent struct {
	binding key.Binding
	event   Event
}

func keyDown(k Key, mod Modifier) Event {
	return Event{Type: EventKeyDown, Key: k, Mod: mod}
}

func runeDown(r rune) Event {
	return Event{Type: EventKeyDown, Key: KeyRune, Rune: r}
}

// treeEvents pairs each tree binding with the widget event it sends.
// Modified bindings come first so they win over their plain forms.
func (k KeyMap) treeEvents() []keyEvent {
	return []keyEvent{
		{k.ExtendUp, keyDown(KeyUp, ModShift)},
		{k.ExtendDown, keyDown(KeyDown, ModShift)},
		{k.FocusUp, keyDown(KeyUp, ModCtrl)},
		{k.FocusDown, keyDown(KeyDown, ModCtrl)},
		{k.Up, keyDown(KeyUp, 0)},
		{k.Down, keyDown(KeyDown, 0)},
		{k.Left, keyDown(KeyLeft, 0)},
		{k.Right, keyDown(KeyRight, 0)},
		{k.Home, keyDown(KeyHome, 0)},
		{k.End, keyDown(KeyEnd, 0)},
		{k.PageUp, keyDown(KeyPageUp, 0)},
		{k.PageDown, keyDown(KeyPageDown, 0)},
		{k.Expand, runeDown('+')},
		{k.Collapse, runeDown('-')},
		{k.ExpandAll, runeDown('*')},
		{k.Toggle, keyDown(KeySpace, 0)},
		{k.Activate, keyDown(KeyEnter, 0)},
	}
}

// TreeEvent translates a key press into a widget event.
func (k KeyMap) TreeEvent(msg tea.KeyMsg) (Event, bool) {
	for _, ke := range k.treeEvents() {
		if key.Matches(msg, ke.binding) {
			return ke.event, true
		}
	}
	return Event{}, false
}
