package ui_test

import (
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/testutil"
	"github.com/vanderheijden86/arbor/pkg/ui"
)

func planOutline() datasource.Outline {
	return datasource.Outline{
		Title: "Plan",
		Nodes: []datasource.Node{
			{Label: "Inbox"},
			{Label: "Projects", Children: []datasource.Node{
				{Label: "Alpha", Note: "first project"},
				{Label: "Beta"},
			}},
			{Label: "Archive"},
		},
	}
}

func newModel(t *testing.T, o datasource.Outline, tree config.TreeConfig, showDetail bool) ui.Model {
	t.Helper()
	m, err := ui.NewModel(ui.ModelOptions{
		Outline:  o,
		Tree:     tree,
		UI:       config.UIConfig{Theme: "dark", ShowDetail: showDetail, SplitRatio: 0.5},
		Renderer: lipgloss.NewRenderer(io.Discard),
	})
	if err != nil {
		t.Fatalf("NewModel: %v", err)
	}
	return m
}

// feed runs msgs through Update and returns the resulting model.
func feed(t *testing.T, m ui.Model, msgs ...tea.Msg) ui.Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		if m, ok = next.(ui.Model); !ok {
			t.Fatalf("Update returned %T", next)
		}
	}
	return m
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func runesMsg(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress}
}

func assertStatus(t *testing.T, m ui.Model, want string, wantErr bool) {
	t.Helper()
	got, isErr := m.Status()
	if got != want || isErr != wantErr {
		t.Errorf("status = %q (error %v), want %q (error %v)", got, isErr, want, wantErr)
	}
}

func TestModelRendersOutline(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 50, Height: 12})

	view := m.View()
	for _, want := range []string{"Plan", "Inbox", "Projects", "Archive", "↑/k up"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Contains(view, "Alpha") {
		t.Errorf("collapsed child rendered:\n%s", view)
	}
	if got := lipgloss.Height(view); got != 12 {
		t.Errorf("view height = %d, want 12", got)
	}
	testutil.AssertSelection(t, m.Tree(), "Inbox")
}

func TestModelExpandDepth(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{ExpandDepth: 1}, false)
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Alpha", "Beta", "Archive")
}

func TestModelKeyboardNavigation(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 50, Height: 12}, keyMsg(tea.KeyDown))
	testutil.AssertSelection(t, m.Tree(), "Projects")

	m = feed(t, m, keyMsg(tea.KeyRight))
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Alpha", "Beta", "Archive")
	assertStatus(t, m, "Projects: 2 items", false)

	m = feed(t, m, keyMsg(tea.KeyRight))
	testutil.AssertSelection(t, m.Tree(), "Alpha")
	if !strings.Contains(m.View(), "Alpha") {
		t.Errorf("expanded child not rendered:\n%s", m.View())
	}

	m = feed(t, m, keyMsg(tea.KeyLeft), keyMsg(tea.KeyLeft))
	testutil.AssertSelection(t, m.Tree(), "Projects")
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Archive")

	m = feed(t, m, keyMsg(tea.KeyEnter))
	assertStatus(t, m, "Projects", false)
}

func TestModelQuit(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	_, cmd := m.Update(runesMsg("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestModelFinder(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 60, Height: 12}, runesMsg("/"))
	if strings.Contains(m.View(), "↑/k up") {
		t.Errorf("help shown while finding:\n%s", m.View())
	}

	m = feed(t, m, runesMsg("Alpha"), keyMsg(tea.KeyEnter))
	testutil.AssertSelection(t, m.Tree(), "Alpha")
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Alpha", "Beta", "Archive")
	assertStatus(t, m, "match 1/1: Projects / Alpha", false)

	m = feed(t, m, runesMsg("/"), runesMsg("zzz"), keyMsg(tea.KeyEnter))
	assertStatus(t, m, `no match for "zzz"`, true)
	testutil.AssertSelection(t, m.Tree(), "Alpha")
}

func TestModelFinderEscape(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 60, Height: 12}, runesMsg("/"), runesMsg("Beta"), keyMsg(tea.KeyEsc))
	testutil.AssertSelection(t, m.Tree(), "Inbox")

	// Keys reach the tree again once the prompt is gone.
	m = feed(t, m, keyMsg(tea.KeyDown))
	testutil.AssertSelection(t, m.Tree(), "Projects")
}

func TestModelDetailPane(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, true)
	m = feed(t, m, tea.WindowSizeMsg{Width: 100, Height: 16})
	if !strings.Contains(m.View(), "╭") {
		t.Errorf("notes pane not shown:\n%s", m.View())
	}

	m = feed(t, m, keyMsg(tea.KeyTab))
	if strings.Contains(m.View(), "╭") {
		t.Errorf("notes pane shown after toggle:\n%s", m.View())
	}

	m = feed(t, m, keyMsg(tea.KeyTab), tea.WindowSizeMsg{Width: ui.MinSplitWidth - 1, Height: 16})
	if strings.Contains(m.View(), "╭") {
		t.Errorf("notes pane shown below the split width:\n%s", m.View())
	}
}

func TestModelMouse(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 50, Height: 12})

	// Row 2 sits below the header line; x=3 is inside the label.
	m = feed(t, m, press(3, 3))
	testutil.AssertSelection(t, m.Tree(), "Archive")

	m = feed(t, m, press(3, 3))
	assertStatus(t, m, "Archive", false)

	// The glyph of a collapsed parent expands it.
	m = feed(t, m, press(0, 2))
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Alpha", "Beta", "Archive")

	// Presses on the header are ignored.
	m = feed(t, m, press(3, 0))
	testutil.AssertSelection(t, m.Tree(), "Archive")
}

func TestModelMouseCheckbox(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{Checkable: true}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 50, Height: 12}, press(3, 1))
	inbox, err := m.Tree().ItemAt(0)
	mustNone(t, err)
	checked, err := m.Tree().Checked(inbox)
	if err != nil || !checked {
		t.Errorf("Checked = %v, %v; want true", checked, err)
	}
	assertStatus(t, m, "checked Inbox", false)
}

func TestModelWheelScrolls(t *testing.T) {
	o := datasource.Outline{}
	for _, f := range testutil.NewDefault().Flat(30) {
		o.Nodes = append(o.Nodes, datasource.Node{Label: f.Label})
	}
	m := newModel(t, o, config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})

	wheel := func(b tea.MouseButton) tea.MouseMsg {
		return tea.MouseMsg{X: 1, Y: 2, Button: b, Action: tea.MouseActionPress}
	}
	m = feed(t, m, wheel(tea.MouseButtonWheelDown))
	testutil.AssertTop(t, m.Tree(), 3)
	if !strings.Contains(m.View(), "n10") {
		t.Errorf("view not scrolled:\n%s", m.View())
	}

	m = feed(t, m, wheel(tea.MouseButtonWheelUp), wheel(tea.MouseButtonWheelUp))
	testutil.AssertTop(t, m.Tree(), 0)
}

func TestModelHorizontalScroll(t *testing.T) {
	o := datasource.Outline{Nodes: []datasource.Node{{Label: strings.Repeat("w", 100)}}}
	m := newModel(t, o, config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 40, Height: 10}, runesMsg(">"), runesMsg(">"))

	sb, err := m.Tree().Scrollbars()
	if err != nil {
		t.Fatalf("Scrollbars: %v", err)
	}
	if sb.HSelection != 16 {
		t.Errorf("horizontal offset = %d, want 16", sb.HSelection)
	}

	m = feed(t, m, runesMsg("<"), runesMsg("<"), runesMsg("<"))
	if sb, _ = m.Tree().Scrollbars(); sb.HSelection != 0 {
		t.Errorf("horizontal offset = %d, want 0", sb.HSelection)
	}
}

func TestModelReload(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 50, Height: 12}, keyMsg(tea.KeyDown), keyMsg(tea.KeyRight))

	next := planOutline()
	next.Nodes[2].Note = "old things"
	next.Nodes = append(next.Nodes, datasource.Node{Label: "Later"})
	m = feed(t, m, ui.ReloadMsg{Outline: next})

	assertStatus(t, m, "reloaded: +1 ~1", false)
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Alpha", "Beta", "Archive", "Later")
	testutil.AssertSelection(t, m.Tree(), "Projects")
	if got := len(m.Outline().Nodes); got != 4 {
		t.Errorf("outline roots = %d, want 4", got)
	}
	if !strings.Contains(m.View(), "Later") {
		t.Errorf("reloaded item not rendered:\n%s", m.View())
	}

	next.Nodes = next.Nodes[1:]
	m = feed(t, m, ui.ReloadMsg{Outline: next})
	assertStatus(t, m, "reloaded: -1", false)
	testutil.AssertVisible(t, m.Tree(), "Projects", "Alpha", "Beta", "Archive", "Later")
}

func TestModelReloadFailureKeepsTree(t *testing.T) {
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, ui.ReloadMsg{Err: errors.New("boom")})
	assertStatus(t, m, "reload failed: boom", true)
	testutil.AssertVisible(t, m.Tree(), "Inbox", "Projects", "Archive")
}

func TestReloadCmd(t *testing.T) {
	dir := t.TempDir()
	a := testutil.WriteFile(t, dir, "a.yaml", "title: A\nnodes: [one, two]\n")
	b := testutil.WriteFile(t, dir, "b.yaml", "title: B\nnodes: [three]\n")

	msg, ok := ui.ReloadCmd([]string{a, b})().(ui.ReloadMsg)
	if !ok {
		t.Fatal("ReloadCmd did not return a ReloadMsg")
	}
	if msg.Err != nil {
		t.Fatalf("reload: %v", msg.Err)
	}
	if got := len(msg.Outline.Nodes); got != 2 {
		t.Fatalf("merged roots = %d, want 2", got)
	}
	if msg.Outline.Nodes[0].Label != "A" || len(msg.Outline.Nodes[0].Children) != 2 {
		t.Errorf("first root = %+v", msg.Outline.Nodes[0])
	}

	msg = ui.ReloadCmd([]string{a, filepath.Join(dir, "missing.yaml")})().(ui.ReloadMsg)
	if msg.Err == nil {
		t.Error("reload with a missing file succeeded")
	}
}

func TestTreeEventTranslation(t *testing.T) {
	keys := ui.DefaultKeyMap()
	tests := []struct {
		msg  tea.KeyMsg
		want ui.Event
	}{
		{keyMsg(tea.KeyDown), ui.Event{Type: ui.EventKeyDown, Key: ui.KeyDown}},
		{runesMsg("k"), ui.Event{Type: ui.EventKeyDown, Key: ui.KeyUp}},
		{keyMsg(tea.KeyShiftUp), ui.Event{Type: ui.EventKeyDown, Key: ui.KeyUp, Mod: ui.ModShift}},
		{keyMsg(tea.KeyCtrlDown), ui.Event{Type: ui.EventKeyDown, Key: ui.KeyDown, Mod: ui.ModCtrl}},
		{runesMsg("*"), ui.Event{Type: ui.EventKeyDown, Key: ui.KeyRune, Rune: '*'}},
		{keyMsg(tea.KeySpace), ui.Event{Type: ui.EventKeyDown, Key: ui.KeySpace}},
		{keyMsg(tea.KeyEnter), ui.Event{Type: ui.EventKeyDown, Key: ui.KeyEnter}},
	}
	for _, tt := range tests {
		got, ok := keys.TreeEvent(tt.msg)
		if !ok || got != tt.want {
			t.Errorf("TreeEvent(%q) = %+v, %v; want %+v", tt.msg.String(), got, ok, tt.want)
		}
	}
	if _, ok := keys.TreeEvent(runesMsg("/")); ok {
		t.Error("find key translated into a tree event")
	}
}

func TestDoubleClickWindowExpires(t *testing.T) {
	if testing.Short() {
		t.Skip("sleeps past the double click window")
	}
	m := newModel(t, planOutline(), config.TreeConfig{}, false)
	m = feed(t, m, tea.WindowSizeMsg{Width: 50, Height: 12}, press(3, 3))
	time.Sleep(450 * time.Millisecond)
	m = feed(t, m, press(3, 3))
	assertStatus(t, m, "", false)
}
