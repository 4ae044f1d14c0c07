// Package tui is the terminal frontend: one face list per open model, a
// label chooser and the status log.
package tui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/philipparndt/facelabel/internal/document"
	"github.com/philipparndt/facelabel/internal/filter"
	"github.com/philipparndt/facelabel/internal/input"
	"github.com/philipparndt/facelabel/internal/labels"
	"github.com/philipparndt/facelabel/internal/status"
	"github.com/philipparndt/facelabel/pkg/kernel"
	"github.com/philipparndt/facelabel/pkg/watcher"
)

const statusLines = 6

type mode int

const (
	modeBrowse mode = iota
	modeLabel
	modeExport
	modeWhere
)

// Options configures a terminal session
type Options struct {
	Workspace      *document.Workspace
	ClickThreshold time.Duration
	// Watcher reloads models when their files change, nil disables it
	Watcher *watcher.FileWatcher
	Logger  *zap.Logger
}

type statusMsg struct{}

type reloadMsg struct {
	id     document.ID
	report *document.ReloadReport
	err    error
}

type exportDoneMsg document.ExportOutcome

type labelItem labels.Label

func (i labelItem) FilterValue() string { return string(i) }
func (i labelItem) Title() string       { return string(i) }
func (i labelItem) Description() string { return labels.Label(i).Color().Hex() }

// Model is the bubbletea model of a session
type Model struct {
	ws     *document.Workspace
	ctrl   *input.Controller
	logger *zap.Logger
	events chan tea.Msg

	keys    keyMap
	styles  styles
	help    help.Model
	chooser list.Model
	prompt  textinput.Model

	mode   mode
	cursor int
	offset int
	width  int
	height int
}

// New creates the model and subscribes to the workspace's status log. The
// returned function unsubscribes.
func New(opts Options) (Model, func()) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	items := make([]list.Item, 0, len(labels.Vocabulary()))
	for _, l := range labels.Vocabulary() {
		items = append(items, labelItem(l))
	}
	chooser := list.New(items, list.NewDefaultDelegate(), 40, 20)
	chooser.Title = "Label"
	chooser.SetShowStatusBar(false)
	chooser.SetShowHelp(false)

	prompt := textinput.New()
	prompt.CharLimit = 512

	m := Model{
		ws:      opts.Workspace,
		ctrl:    input.NewController(opts.Workspace, opts.ClickThreshold),
		logger:  opts.Logger,
		events:  make(chan tea.Msg, 64),
		keys:    defaultKeyMap(),
		styles:  defaultStyles(),
		help:    help.New(),
		chooser: chooser,
		prompt:  prompt,
		width:   80,
		height:  24,
	}

	unsubscribe := opts.Workspace.Status().Subscribe(func(status.Entry) {
		m.notify(statusMsg{})
	})

	if opts.Watcher != nil {
		for _, doc := range opts.Workspace.Documents() {
			err := opts.Workspace.Watch(opts.Watcher, doc.ID, func(id document.ID, report *document.ReloadReport, err error) {
				m.notify(reloadMsg{id: id, report: report, err: err})
			})
			if err != nil {
				opts.Workspace.Status().Warnf("Cannot watch %s: %v", doc.Name, err)
			}
		}
	}
	return m, unsubscribe
}

// notify never blocks; the view reads the workspace directly, so a dropped
// message only delays a redraw
func (m Model) notify(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
	}
}

func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.chooser.SetSize(msg.Width/2, msg.Height-statusLines-4)
		m.prompt.Width = msg.Width - 20
		m.scroll()
		return m, nil

	case statusMsg:
		return m, waitForEvent(m.events)

	case reloadMsg:
		if msg.err != nil {
			m.logger.Warn("reload failed", zap.Int("document", int(msg.id)), zap.Error(msg.err))
		}
		m.clamp()
		return m, waitForEvent(m.events)

	case exportDoneMsg:
		if msg.Err != nil {
			m.logger.Error("export failed", zap.Int("document", int(msg.Document)), zap.Error(msg.Err))
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeLabel:
			return m.updateChooser(msg)
		case modeExport, modeWhere:
			return m.updatePrompt(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	doc, _ := m.ws.Active()

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.PageUp):
		m.move(-m.listHeight())
	case key.Matches(msg, m.keys.PageDown):
		m.move(m.listHeight())
	case key.Matches(msg, m.keys.Select):
		m.click(0)
	case key.Matches(msg, m.keys.Deselect):
		m.click(input.ModCtrl)
	case key.Matches(msg, m.keys.Escape):
		m.report(m.ctrl.OnEscape())
	case key.Matches(msg, m.keys.Label):
		if doc == nil {
			m.report(input.ActionNone, m.ws.AssignLabel(""))
			break
		}
		m.mode = modeLabel
		m.chooser.ResetFilter()
		m.chooser.Select(0)
	case key.Matches(msg, m.keys.Toggle):
		if face := m.current(); face != nil {
			m.report(input.ActionNone, doc.Toggle(face))
		}
	case key.Matches(msg, m.keys.Unlabel):
		if face := m.current(); face != nil {
			m.report(input.ActionNone, doc.Unlabel(face))
		}
	case key.Matches(msg, m.keys.Reset):
		if doc != nil {
			m.report(input.ActionNone, doc.ResetLabels())
		}
	case key.Matches(msg, m.keys.Export):
		if doc == nil {
			_, err := m.ws.Export(context.Background(), "")
			m.report(input.ActionNone, err)
			break
		}
		m.mode = modeExport
		m.prompt.Prompt = "Export to: "
		m.prompt.SetValue(document.DefaultExportPath(doc.Path))
		m.prompt.CursorEnd()
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.Where):
		if doc == nil {
			break
		}
		m.mode = modeWhere
		m.prompt.Prompt = "Select where: "
		m.prompt.SetValue("")
		return m, m.prompt.Focus()
	case key.Matches(msg, m.keys.Next):
		m.switchDocument(1)
	case key.Matches(msg, m.keys.Prev):
		m.switchDocument(-1)
	case key.Matches(msg, m.keys.Close):
		if doc != nil {
			m.report(input.ActionNone, m.ws.Close(doc.ID))
			m.cursor, m.offset = 0, 0
		}
	}
	return m, nil
}

func (m Model) updateChooser(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.chooser.FilterState() != list.Filtering {
		switch msg.String() {
		case "esc":
			m.mode = modeBrowse
			m.report(input.ActionNone, m.ws.AssignLabel(""))
			return m, nil
		case "enter":
			m.mode = modeBrowse
			if item, ok := m.chooser.SelectedItem().(labelItem); ok {
				m.report(input.ActionNone, m.ws.AssignLabel(string(item)))
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.chooser, cmd = m.chooser.Update(msg)
	return m, cmd
}

func (m Model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if m.mode == modeExport {
			m.ws.Status().Infof("Export cancelled")
		}
		m.mode = modeBrowse
		m.prompt.Blur()
		return m, nil
	case "enter":
		value := strings.TrimSpace(m.prompt.Value())
		current := m.mode
		m.mode = modeBrowse
		m.prompt.Blur()
		if current == modeExport {
			return m, m.export(value)
		}
		m.selectWhere(value)
		return m, nil
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

func (m Model) export(destination string) tea.Cmd {
	out, err := m.ws.ExportAsync(context.Background(), destination)
	if err != nil {
		m.report(input.ActionNone, err)
		return nil
	}
	return func() tea.Msg {
		return exportDoneMsg(<-out)
	}
}

func (m Model) selectWhere(expression string) {
	doc, ok := m.ws.Active()
	if !ok {
		return
	}
	f, err := filter.Compile(expression)
	if err != nil {
		m.ws.Status().Errorf("%v", err)
		return
	}
	_, err = doc.SelectWhere(f)
	m.report(input.ActionNone, err)
}

// click runs an immediate press and release on the face under the cursor
func (m Model) click(mods input.Modifiers) {
	face := m.current()
	if face == nil {
		return
	}
	now := time.Now()
	m.ctrl.OnPress(now)
	m.report(m.ctrl.OnRelease(now, face, mods))
}

func (m Model) report(action input.Action, err error) {
	if err == nil {
		return
	}
	// the status log already carries the user-facing line
	m.logger.Debug("command failed", zap.Stringer("action", action), zap.Error(err))
}

func (m *Model) switchDocument(step int) {
	docs := m.ws.Documents()
	if len(docs) == 0 {
		return
	}
	active, _ := m.ws.Active()
	idx := 0
	for i, d := range docs {
		if d == active {
			idx = i
		}
	}
	next := docs[(idx+step+len(docs))%len(docs)]
	if next == active {
		return
	}
	m.report(input.ActionNone, m.ws.Activate(next.ID))
	m.cursor, m.offset = 0, 0
}

func (m Model) faceCount() int {
	doc, ok := m.ws.Active()
	if !ok {
		return 0
	}
	return doc.Shape().FaceCount()
}

func (m Model) current() *kernel.Face {
	doc, ok := m.ws.Active()
	if !ok {
		return nil
	}
	face, _ := doc.Shape().Face(m.cursor)
	return face
}

func (m *Model) move(delta int) {
	m.cursor += delta
	m.clamp()
}

func (m *Model) clamp() {
	n := m.faceCount()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.scroll()
}

func (m *Model) scroll() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

// listHeight is the number of face rows that fit next to tabs, header,
// status pane and help
func (m Model) listHeight() int {
	h := m.height - statusLines - 5
	if h < 1 {
		return 1
	}
	return h
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.viewTabs())
	b.WriteString("\n")

	switch m.mode {
	case modeLabel:
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.viewFaces(), "  ", m.chooser.View()))
	default:
		b.WriteString(m.viewFaces())
	}
	if m.mode == modeExport || m.mode == modeWhere {
		b.WriteString("\n")
		b.WriteString(m.prompt.View())
	}

	b.WriteString("\n")
	b.WriteString(m.styles.Pane.Render(m.viewStatus()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) viewTabs() string {
	docs := m.ws.Documents()
	if len(docs) == 0 {
		return m.styles.Dim.Render("no model loaded")
	}
	active, _ := m.ws.Active()
	tabs := make([]string, 0, len(docs))
	for _, d := range docs {
		name := filepath.Base(d.Path)
		if d == active {
			tabs = append(tabs, m.styles.ActiveTab.Render(name))
		} else {
			tabs = append(tabs, m.styles.Tab.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) viewFaces() string {
	doc, ok := m.ws.Active()
	if !ok {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", m.styles.Header.Render(fmt.Sprintf(
		"%d faces, %d selected, %d labeled", doc.Shape().FaceCount(), len(doc.Selected()), len(doc.Labels()))))

	faces := doc.Shape().Faces()
	end := m.offset + m.listHeight()
	if end > len(faces) {
		end = len(faces)
	}
	for i := m.offset; i < end; i++ {
		face := faces[i]
		id := doc.Resolver().IdentityOf(face)

		cursor := "  "
		if i == m.cursor {
			cursor = m.styles.Cursor.Render("> ")
		}
		mark := " "
		if doc.IsSelected(face) {
			mark = m.styles.Selected.Render("●")
		}
		label := m.styles.Dim.Render("-")
		if l, ok := doc.LabelOf(face); ok {
			label = labelStyle(l).Render(l.String())
		}
		fmt.Fprintf(&b, "%s%s %s  %-8s %10.3f  %s\n", cursor, mark, id, face.Surface, face.Area(), label)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) viewStatus() string {
	entries := m.ws.Status().Entries()
	if len(entries) > statusLines {
		entries = entries[len(entries)-statusLines:]
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, m.styles.level(e.Level).Render(e.String()))
	}
	return strings.Join(lines, "\n")
}
