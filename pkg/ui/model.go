package ui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/arbor/internal/datasource"
	"github.com/vanderheijden86/arbor/pkg/config"
	"github.com/vanderheijden86/arbor/pkg/debug"
	"github.com/vanderheijden86/arbor/pkg/hierarchy"
	"github.com/vanderheijden86/arbor/pkg/surface"
	"github.com/vanderheijden86/arbor/pkg/watcher"
)

// Layout thresholds
const (
	defaultWidth       = 80
	defaultHeight      = 24
	MinSplitWidth      = 60 // hide the notes pane below this width
	doubleClickWindow  = 400 * time.Millisecond
	wheelRows          = 3
	horizontalScrollBy = 8
)

// FileChangedMsg is sent when a watched outline changes on disk.
type FileChangedMsg struct {
	Path string
}

// ReloadMsg carries the outlines read again after a change.
type ReloadMsg struct {
	Outline datasource.Outline
	Err     error
}

// WatchFileCmd waits for the next change reported by w.
func WatchFileCmd(w *watcher.Watcher) tea.Cmd {
	return func() tea.Msg {
		<-w.Changed()
		return FileChangedMsg{Path: w.Path()}
	}
}

// ReloadCmd reads paths again off the UI goroutine. Any file failing
// fails the reload; the tree keeps its current content.
func ReloadCmd(paths []string) tea.Cmd {
	return func() tea.Msg {
		results, err := datasource.LoadAll(context.Background(), paths)
		if err != nil {
			return ReloadMsg{Err: err}
		}
		outlines := make([]datasource.Outline, 0, len(results))
		for _, r := range results {
			if r.Error != nil {
				return ReloadMsg{Err: r.Error}
			}
			outlines = append(outlines, r.Outline)
		}
		return ReloadMsg{Outline: datasource.Merge(outlines)}
	}
}

// ModelOptions configures NewModel.
type ModelOptions struct {
	Outline  datasource.Outline
	Paths    []string // reloaded on change
	Tree     config.TreeConfig
	UI       config.UIConfig
	Watchers []*watcher.Watcher

	// Renderer styles the output. Nil renders for stdout.
	Renderer *lipgloss.Renderer
}

// session is the state listeners and commands write to. Model is copied
// on every Update, so it lives behind a pointer.
type session struct {
	outline    datasource.Outline
	notes      map[hierarchy.NodeID]string
	status     string
	statusErr  bool
	detailFor  hierarchy.NodeID
	detailW    int
	lastClick  time.Time
	clickX     int
	clickY     int
	mdRenderer *glamour.TermRenderer
}

// Model is the bubbletea front end of a Tree: it translates terminal
// input into widget events and flushes the widget's damage to a
// surface.Terminal after every message.
//
// A Tree belongs to the goroutine that built it, and bubbletea calls
// Update on the goroutine running Program.Run, so build the Model there.
type Model struct {
	tree  *Tree
	term  *surface.Terminal
	theme Theme
	keys  KeyMap
	s     *session

	paths    []string
	watchers []*watcher.Watcher

	finder     Finder
	detail     viewport.Model
	showDetail bool
	splitRatio float64
	appearance string

	width, height int
}

// NewModel loads opts.Outline into a fresh tree on a terminal surface.
func NewModel(opts ModelOptions) (Model, error) {
	r := opts.Renderer
	if r == nil {
		r = lipgloss.NewRenderer(os.Stdout)
	}
	theme := ThemeFor(r, opts.UI.Theme)
	cfg := TerminalConfig(opts.Tree)

	term := surface.NewTerminal(defaultWidth, defaultHeight-2, cfg.Indent, theme.RowStyles())
	tree, err := NewTree(Options{Surface: term, Geometry: term, Canvas: term, Config: cfg})
	if err != nil {
		return Model{}, err
	}
	term.SetPainter(func(r surface.Rect) {
		_ = tree.HandleEvent(Event{Type: EventPaint, Rect: r})
	})

	split := opts.UI.SplitRatio
	if split <= 0 {
		split = 0.5
	}
	m := Model{
		tree:       tree,
		term:       term,
		theme:      theme,
		keys:       DefaultKeyMap(),
		s:          &session{outline: opts.Outline, notes: make(map[hierarchy.NodeID]string)},
		paths:      opts.Paths,
		watchers:   opts.Watchers,
		finder:     NewFinder(),
		detail:     viewport.New(defaultWidth/2, defaultHeight-4),
		showDetail: opts.UI.ShowDetail,
		splitRatio: split,
		appearance: opts.UI.Theme,
		width:      defaultWidth,
		height:     defaultHeight,
	}

	if err := tree.Load(hierarchy.None, opts.Outline.Nodes, m.remember); err != nil {
		return Model{}, err
	}
	if err := tree.ExpandToDepth(opts.Tree.ExpandDepth); err != nil {
		return Model{}, err
	}
	if first, err := tree.ItemAt(0); err == nil {
		_ = tree.Select(first)
	}
	m.listen()
	m.layout()
	return m, nil
}

// remember keeps the note of every loaded node for the detail pane.
func (m Model) remember(id hierarchy.NodeID, n datasource.Node) {
	if n.Note == "" {
		delete(m.s.notes, id)
		return
	}
	m.s.notes[id] = n.Note
}

func (m Model) listen() {
	s, tree := m.s, m.tree
	label := func(id hierarchy.NodeID) string {
		l, _ := tree.Label(id)
		return l
	}
	_, _ = tree.AddListener(NotifyDefaultSelection, func(n Notification) {
		path, _ := tree.Path(n.Item)
		s.setStatus(joinPath(path), false)
	})
	_, _ = tree.AddListener(NotifyExpand, func(n Notification) {
		count, _ := tree.ItemCount(n.Item)
		s.setStatus(fmt.Sprintf("%s: %d items", label(n.Item), count), false)
	})
	_, _ = tree.AddListener(NotifySelection, func(n Notification) {
		if n.Detail == DetailCheck {
			checked, _ := tree.Checked(n.Item)
			mark := "unchecked"
			if checked {
				mark = "checked"
			}
			s.setStatus(fmt.Sprintf("%s %s", mark, label(n.Item)), false)
		}
	})
}

func (s *session) setStatus(msg string, isErr bool) {
	s.status, s.statusErr = msg, isErr
}

// Tree returns the widget, for embedding programs and tests.
func (m Model) Tree() *Tree { return m.tree }

// Status returns the status line text and whether it reports an error.
func (m Model) Status() (string, bool) { return m.s.status, m.s.statusErr }

// Outline returns the outline the tree currently mirrors.
func (m Model) Outline() datasource.Outline { return m.s.outline }

func (m Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.watchers))
	for _, w := range m.watchers {
		cmds = append(cmds, WatchFileCmd(w))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()

	case tea.KeyMsg:
		if m.finder.Active() {
			m.handleFinderKeys(msg)
			break
		}
		if m.handleKeys(msg) {
			return m, tea.Quit
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case FileChangedMsg:
		debug.Log("outline changed: %s", msg.Path)
		cmds = append(cmds, ReloadCmd(m.paths))
		for _, w := range m.watchers {
			if w.Path() == msg.Path {
				cmds = append(cmds, WatchFileCmd(w))
			}
		}

	case ReloadMsg:
		m.applyReload(msg)
	}

	m.term.Update()
	m.syncDetail()
	return m, tea.Batch(cmds...)
}

// handleKeys reports whether the program should quit.
func (m *Model) handleKeys(msg tea.KeyMsg) bool {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return true
	case key.Matches(msg, m.keys.Find):
		m.finder.Open()
		return false
	case key.Matches(msg, m.keys.NextMatch):
		m.showMatch(m.finder.Next(m.tree))
		return false
	case key.Matches(msg, m.keys.Copy):
		m.copyPath()
		return false
	case key.Matches(msg, m.keys.Detail):
		m.showDetail = !m.showDetail
		m.layout()
		return false
	case key.Matches(msg, m.keys.ScrollLeft):
		m.scrollHorizontally(-horizontalScrollBy)
		return false
	case key.Matches(msg, m.keys.ScrollRight):
		m.scrollHorizontally(horizontalScrollBy)
		return false
	}
	if ev, ok := m.keys.TreeEvent(msg); ok {
		if err := m.tree.HandleEvent(ev); err != nil {
			m.s.setStatus(err.Error(), true)
		}
	}
	return false
}

func (m *Model) handleFinderKeys(msg tea.KeyMsg) {
	switch msg.Type {
	case tea.KeyEsc:
		m.finder.Close()
	case tea.KeyEnter:
		m.finder.Close()
		id := m.finder.Search(m.tree)
		if id.IsNone() {
			m.s.setStatus(fmt.Sprintf("no match for %q", m.finder.Query()), true)
			return
		}
		m.showMatch(id)
	default:
		m.finder.UpdateInput(msg)
	}
}

func (m *Model) showMatch(id hierarchy.NodeID) {
	if id.IsNone() {
		return
	}
	if err := m.tree.Select(id); err != nil {
		m.s.setStatus(err.Error(), true)
		return
	}
	i, n := m.finder.Position()
	path, _ := m.tree.Path(id)
	m.s.setStatus(fmt.Sprintf("match %d/%d: %s", i, n, joinPath(path)), false)
}

func (m *Model) copyPath() {
	focus, err := m.tree.Focus()
	if err != nil || focus.IsNone() {
		return
	}
	path, _ := m.tree.Path(focus)
	text := joinPath(path)
	if err := clipboard.WriteAll(text); err != nil {
		m.s.setStatus(fmt.Sprintf("clipboard: %v", err), true)
		return
	}
	m.s.setStatus("copied "+text, false)
}

func (m *Model) scrollHorizontally(dx int) {
	sb, err := m.tree.Scrollbars()
	if err != nil {
		return
	}
	_ = m.tree.SetHorizontalOffset(max(sb.HSelection+dx, 0))
}

// handleMouse forwards presses inside the tree pane. A second press on
// the same cell within doubleClickWindow also sends a double click.
func (m *Model) handleMouse(msg tea.MouseMsg) {
	// The tree pane starts below the header line.
	x, y := msg.X, msg.Y-1
	w, h := m.term.ClientArea()
	if x < 0 || x >= w || y < 0 || y >= h {
		return
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		if msg.Action != tea.MouseActionPress {
			return
		}
		top, _ := m.tree.TopIndex()
		if msg.Button == tea.MouseButtonWheelUp {
			_ = m.tree.SetTopIndex(max(top-wheelRows, 0))
		} else {
			_ = m.tree.SetTopIndex(top + wheelRows)
		}
	case tea.MouseButtonLeft:
		if msg.Action != tea.MouseActionPress {
			return
		}
		_ = m.tree.HandleEvent(Event{Type: EventMouseDown, X: x, Y: y, Button: 1})
		now := time.Now()
		if now.Sub(m.s.lastClick) < doubleClickWindow && x == m.s.clickX && y == m.s.clickY {
			_ = m.tree.HandleEvent(Event{Type: EventMouseDoubleClick, X: x, Y: y, Button: 1})
			now = time.Time{}
		}
		m.s.lastClick, m.s.clickX, m.s.clickY = now, x, y
	}
}

func (m *Model) applyReload(msg ReloadMsg) {
	if msg.Err != nil {
		m.s.setStatus(fmt.Sprintf("reload failed: %v", msg.Err), true)
		return
	}
	script := datasource.Diff(m.s.outline.Nodes, msg.Outline.Nodes)
	if err := m.tree.ApplyDiff(hierarchy.None, script, m.remember); err != nil {
		m.s.setStatus(fmt.Sprintf("reload failed: %v", err), true)
		return
	}
	m.s.outline = msg.Outline
	m.s.detailFor = hierarchy.None
	m.s.setStatus("reloaded: "+datasource.Summarize(script).String(), false)
}

// treeWidth is the width of the tree pane.
func (m Model) treeWidth() int {
	if !m.detailVisible() {
		return m.width
	}
	return max(int(float64(m.width)*m.splitRatio), 1)
}

func (m Model) detailVisible() bool {
	return m.showDetail && m.width >= MinSplitWidth
}

func (m Model) bodyHeight() int {
	return max(m.height-2, 1)
}

// layout resizes the terminal surface and the notes pane.
func (m *Model) layout() {
	m.term.Resize(m.treeWidth(), m.bodyHeight())
	_ = m.tree.HandleEvent(Event{Type: EventResize})

	dw := m.width - m.treeWidth() - 2
	m.detail.Width = max(dw, 1)
	m.detail.Height = max(m.bodyHeight()-2, 1)
	if m.s.detailW != m.detail.Width {
		m.s.detailW = m.detail.Width
		m.s.mdRenderer = nil
		m.s.detailFor = hierarchy.None
	}
}

func (m *Model) markdownRenderer() *glamour.TermRenderer {
	if m.s.mdRenderer != nil {
		return m.s.mdRenderer
	}
	style := glamour.WithAutoStyle()
	switch m.appearance {
	case "light":
		style = glamour.WithStandardStyle("light")
	case "dark":
		style = glamour.WithStandardStyle("dark")
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(max(m.detail.Width-2, 10)))
	if err != nil {
		debug.Log("markdown renderer: %v", err)
		return nil
	}
	m.s.mdRenderer = r
	return r
}

// syncDetail renders the focused item's note when the focus moved.
func (m *Model) syncDetail() {
	if !m.detailVisible() {
		return
	}
	focus, err := m.tree.Focus()
	if err != nil || focus == m.s.detailFor {
		return
	}
	m.s.detailFor = focus
	if focus.IsNone() {
		m.detail.SetContent("")
		return
	}

	var sb strings.Builder
	label, _ := m.tree.Label(focus)
	sb.WriteString("# " + label + "\n\n")
	if note := m.s.notes[focus]; note != "" {
		sb.WriteString(note + "\n")
	} else {
		sb.WriteString("_No notes._\n")
	}
	content := sb.String()
	if r := m.markdownRenderer(); r != nil {
		if out, err := r.Render(content); err == nil {
			content = out
		}
	}
	m.detail.SetContent(content)
	m.detail.GotoTop()
}

func (m Model) View() string {
	title := m.s.outline.Title
	if title == "" {
		title = "arbor"
	}
	header := m.theme.Header.Render(truncate(title, max(m.width-2, 1)))

	tw, th := m.term.ClientArea()
	lines := make([]string, th)
	for y := range lines {
		lines[y] = padRight(m.term.Line(y), tw)
	}
	body := strings.Join(lines, "\n")
	if m.detailVisible() {
		pane := m.theme.Pane.Render(m.detail.View())
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, pane)
	}

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.footer())
}

func (m Model) footer() string {
	if m.finder.Active() {
		return m.finder.View()
	}
	if m.s.status != "" {
		if m.s.statusErr {
			return m.theme.ErrorText.Render(truncate(m.s.status, m.width))
		}
		return m.theme.Footer.Render(truncate(m.s.status, m.width))
	}
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return m.theme.Footer.Render(truncate(strings.Join(parts, " • "), m.width))
}
