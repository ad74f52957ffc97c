// Package tui provides the Bubble Tea dashboard for running timers.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/timerdeck/internal/notify"
	"github.com/fakeyudi/timerdeck/internal/timer"
)

// ── Styles ────────────

// palette holds the colors one theme uses.
type palette struct {
	accent, text, muted, faint, panel, row lipgloss.Color
	category, clock, running, completed    lipgloss.Color
	barEmpty, err, modal                   lipgloss.Color
}

var themes = [...]palette{
	{ // dark
		accent: "62", text: "15", muted: "245", faint: "240", panel: "235", row: "237",
		category: "86", clock: "178", running: "82", completed: "39",
		barEmpty: "237", err: "196", modal: "205",
	},
	{ // light
		accent: "25", text: "231", muted: "240", faint: "245", panel: "254", row: "252",
		category: "30", clock: "130", running: "28", completed: "26",
		barEmpty: "250", err: "160", modal: "125",
	},
}

var (
	titleStyle       lipgloss.Style
	activeTabStyle   lipgloss.Style
	inactiveTabStyle lipgloss.Style
	tabSepStyle      lipgloss.Style
	tabRowStyle      lipgloss.Style
	categoryStyle    lipgloss.Style
	dimStyle         lipgloss.Style
	timeStyle        lipgloss.Style
	runningStyle     lipgloss.Style
	idleStyle        lipgloss.Style
	completedStyle   lipgloss.Style
	barFullStyle     lipgloss.Style
	barEmptyStyle    lipgloss.Style
	errorStyle       lipgloss.Style
	statusBarStyle   lipgloss.Style
	selectedRowStyle lipgloss.Style
	modalStyle       lipgloss.Style
)

func init() { applyTheme(0) }

// applyTheme rebuilds every style from themes[i].
func applyTheme(i int) {
	p := themes[i]
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(p.text).Background(p.accent).Padding(0, 2)
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(p.text).Background(p.accent).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(p.muted).Background(p.panel).Padding(0, 1)
	tabSepStyle = lipgloss.NewStyle().Foreground(p.faint).Background(p.panel)
	tabRowStyle = lipgloss.NewStyle().Background(p.panel)
	categoryStyle = lipgloss.NewStyle().Bold(true).Foreground(p.category)
	dimStyle = lipgloss.NewStyle().Foreground(p.faint)
	timeStyle = lipgloss.NewStyle().Foreground(p.clock)
	runningStyle = lipgloss.NewStyle().Foreground(p.running).Bold(true)
	idleStyle = lipgloss.NewStyle().Foreground(p.muted)
	completedStyle = lipgloss.NewStyle().Foreground(p.completed).Bold(true)
	barFullStyle = lipgloss.NewStyle().Foreground(p.accent)
	barEmptyStyle = lipgloss.NewStyle().Foreground(p.barEmpty)
	errorStyle = lipgloss.NewStyle().Foreground(p.err)
	statusBarStyle = lipgloss.NewStyle().Background(p.panel).Foreground(p.muted).Padding(0, 1)
	selectedRowStyle = lipgloss.NewStyle().Bold(true).Foreground(p.text).Background(p.row)
	modalStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.modal).Padding(1, 3)
}

// Controller is the part of the engine the dashboard drives.
type Controller interface {
	State() timer.State
	Subscribe(buffer int) <-chan timer.State
	Notifications() *notify.Queue
	AddTimer(in timer.Input) (timer.Timer, error)
	Start(id string) error
	Pause(id string) error
	Reset(id string) error
	Remove(id string) error
	Bulk(category string, op timer.Op) error
	ToggleCategory(name string) bool
	ClearHistory()
}

// ── Tabs ─────────────────

type tabID int

const (
	tabTimers tabID = iota
	tabHistory
	tabCount
)

var tabNames = [tabCount]string{"Timers", "History"}

// row is one selectable line on the timers tab: a category header when
// timerID is empty, a timer otherwise.
type row struct {
	category string
	timerID  string
}

type stateMsg timer.State

type closedMsg struct{}

// ── Model ────────────────────

// Model is the root Bubble Tea model for the dashboard.
type Model struct {
	ctl     Controller
	updates <-chan timer.State

	state     timer.State
	activeTab tabID
	filter    int // 0 is All, then index+1 into the sorted categories
	cursor    int
	rows      []row

	history viewport.Model
	form    *addForm
	confirm bool // waiting for y/n on clear history
	errMsg  string
	theme   int
	width   int
	height  int
	ready   bool
}

// New creates a dashboard over ctl.
func New(ctl Controller) Model {
	m := Model{
		ctl:     ctl,
		updates: ctl.Subscribe(16),
		state:   ctl.State(),
	}
	m.rebuildRows()
	return m
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return waitForState(m.updates) }

func waitForState(ch <-chan timer.State) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return stateMsg(s)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stateMsg:
		m.state = timer.State(msg)
		m.rebuildRows()
		m.refreshHistory()
		return m, waitForState(m.updates)

	case closedMsg:
		return m, tea.Quit

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.history = viewport.New(m.width, max(m.height-3, 1))
		m.refreshHistory()
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if _, ok := m.ctl.Notifications().Peek(); ok {
			switch msg.String() {
			case "enter", "esc", " ", "o":
				m.ctl.Notifications().Ack()
			}
			return m, nil
		}
		if m.form != nil {
			return m.updateForm(msg)
		}
		if m.confirm {
			if msg.String() == "y" {
				m.ctl.ClearHistory()
				m.refresh()
			}
			m.confirm = false
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errMsg = ""
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m.activeTab = (m.activeTab + 1) % tabCount
		return m, nil
	case "shift+tab", "left", "h":
		m.activeTab = (m.activeTab - 1 + tabCount) % tabCount
		return m, nil
	case "1", "2":
		m.activeTab = tabID(msg.String()[0] - '1')
		return m, nil
	case "t":
		m.theme = (m.theme + 1) % len(themes)
		applyTheme(m.theme)
		return m, nil
	}

	if m.activeTab == tabHistory {
		if msg.String() == "C" && len(m.state.History) > 0 {
			m.confirm = true
			return m, nil
		}
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case "f":
		m.filter = (m.filter + 1) % (len(timer.Categories(m.state.Timers)) + 1)
		m.cursor = 0
		m.rebuildRows()
	case "a":
		f := newAddForm(m.currentCategory())
		m.form = &f
		return m, f.focusCmd()
	case "enter", " ":
		if r, ok := m.selected(); ok {
			if r.timerID == "" {
				m.ctl.ToggleCategory(r.category)
			} else if t, found := m.state.Find(r.timerID); found && t.Status == timer.StatusRunning {
				m.report(m.ctl.Pause(r.timerID))
			} else {
				m.report(m.ctl.Start(r.timerID))
			}
		}
	case "s":
		m.applyOp(timer.OpStart)
	case "p":
		m.applyOp(timer.OpPause)
	case "r":
		m.applyOp(timer.OpReset)
	case "x", "delete":
		if r, ok := m.selected(); ok && r.timerID != "" {
			m.report(m.ctl.Remove(r.timerID))
		}
	}
	m.refresh()
	return m, nil
}

// applyOp runs op on the selected timer, or on every timer of the selected
// category header.
func (m *Model) applyOp(op timer.Op) {
	r, ok := m.selected()
	if !ok {
		return
	}
	if r.timerID == "" {
		m.report(m.ctl.Bulk(r.category, op))
		return
	}
	switch op {
	case timer.OpStart:
		m.report(m.ctl.Start(r.timerID))
	case timer.OpPause:
		m.report(m.ctl.Pause(r.timerID))
	case timer.OpReset:
		m.report(m.ctl.Reset(r.timerID))
	}
}

func (m *Model) report(err error) {
	if err != nil {
		m.errMsg = err.Error()
	}
}

// refresh re-reads state so the view does not wait for the next update.
func (m *Model) refresh() {
	m.state = m.ctl.State()
	m.rebuildRows()
	m.refreshHistory()
}

func (m Model) selected() (row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return row{}, false
	}
	return m.rows[m.cursor], true
}

func (m Model) filterName() string {
	cats := timer.Categories(m.state.Timers)
	if m.filter == 0 || m.filter > len(cats) {
		return timer.AllCategories
	}
	return cats[m.filter-1]
}

func (m Model) currentCategory() string {
	if r, ok := m.selected(); ok {
		return r.category
	}
	if f := m.filterName(); f != timer.AllCategories {
		return f
	}
	return ""
}

func (m *Model) rebuildRows() {
	cats := timer.Categories(m.state.Timers)
	if m.filter > len(cats) {
		m.filter = 0
	}
	visible := timer.Filter(m.state.Timers, m.filterName())

	var rows []row
	for _, cat := range timer.Categories(visible) {
		rows = append(rows, row{category: cat})
		if !m.state.Expanded(cat) {
			continue
		}
		for _, t := range visible {
			if t.Category == cat {
				rows = append(rows, row{category: cat, timerID: t.ID})
			}
		}
	}
	m.rows = rows
	if m.cursor >= len(m.rows) {
		m.cursor = max(len(m.rows)-1, 0)
	}
}

func (m *Model) refreshHistory() {
	if !m.ready {
		return
	}
	m.history.SetContent(renderHistory(m.state.History))
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  timerdeck  " + m.filterName())

	var tabParts []string
	for i := tabID(0); i < tabCount; i++ {
		label := fmt.Sprintf(" %d %s ", i+1, tabNames[i])
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < tabCount-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := tabRowStyle.
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.renderTimers()
	if m.activeTab == tabHistory {
		content = m.history.View()
	}
	if m.form != nil {
		content = m.form.View()
	}
	if n, ok := m.ctl.Notifications().Peek(); ok {
		content = m.renderModal(n)
	}

	hint := "  ←/→ tab  ↑/↓ select  enter start/pause  s/p/r op  a add  x remove  f filter  t theme  q quit"
	switch {
	case m.activeTab == tabHistory:
		hint = "  ←/→ tab  ↑/↓ scroll  C clear  t theme  q quit"
	case m.form != nil:
		hint = "  tab next field  enter save  esc cancel"
	}
	if m.confirm {
		hint = "  clear all history? y/n"
	}
	if m.errMsg != "" {
		hint = errorStyle.Render("  " + m.errMsg)
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint)

	body := lipgloss.NewStyle().Height(max(m.height-3, 1)).Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, title, tabRow, body, statusBar)
}

func (m Model) renderTimers() string {
	if len(m.rows) == 0 {
		return "\n" + dimStyle.Render("  No timers yet. Press a to add one.") + "\n"
	}
	var sb strings.Builder
	sb.WriteString("\n")
	for i, r := range m.rows {
		var line string
		if r.timerID == "" {
			arrow := "▼"
			if !m.state.Expanded(r.category) {
				arrow = "▶"
			}
			n := len(timer.Filter(m.state.Timers, r.category))
			line = categoryStyle.Render(fmt.Sprintf("  %s %s", arrow, r.category)) + dimStyle.Render(fmt.Sprintf(" (%d)", n))
		} else if t, ok := m.state.Find(r.timerID); ok {
			line = renderTimer(t, m.width)
		}
		if i == m.cursor {
			line = selectedRowStyle.Width(max(m.width-2, 1)).Render(line)
		}
		sb.WriteString(line + "\n")
	}
	return sb.String()
}

func renderTimer(t timer.Timer, width int) string {
	var status string
	switch t.Status {
	case timer.StatusRunning:
		status = runningStyle.Render("RUNNING  ")
	case timer.StatusCompleted:
		status = completedStyle.Render("COMPLETED")
	default:
		status = idleStyle.Render("IDLE     ")
	}
	clock := timeStyle.Render(timer.FormatClock(t.Remaining)) + dimStyle.Render(" / "+timer.FormatClock(t.Duration))
	halfway := "  "
	if t.HalfwayAlertEnabled {
		halfway = dimStyle.Render("½ ")
	}
	barWidth := min(max(width-60, 10), 30)
	return fmt.Sprintf("      %-20s %s %s %s%s", truncate(t.Name, 20), status, clock, halfway, progressBar(t.Progress(), barWidth))
}

func progressBar(p float64, width int) string {
	full := int(p * float64(width))
	return barFullStyle.Render(strings.Repeat("█", full)) + barEmptyStyle.Render(strings.Repeat("░", width-full))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderHistory(history []timer.HistoryEntry) string {
	var sb strings.Builder
	sb.WriteString("\n" + categoryStyle.Render(fmt.Sprintf("  Completed (%d)", len(history))) + "\n\n")
	if len(history) == 0 {
		sb.WriteString(dimStyle.Render("  (none)") + "\n")
		return sb.String()
	}
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		ts := timeStyle.Render(h.CompletionTimestamp.Local().Format("2006-01-02 15:04:05"))
		sb.WriteString(fmt.Sprintf("  %s  %s  %s\n", ts, h.Name, dimStyle.Render(h.Category)))
	}
	return sb.String()
}

func (m Model) renderModal(n notify.Notification) string {
	more := ""
	if extra := m.ctl.Notifications().Len() - 1; extra > 0 {
		more = dimStyle.Render(fmt.Sprintf("\n\n%d more pending", extra))
	}
	box := modalStyle.Render(n.Message() + more + "\n\n" + dimStyle.Render("enter to dismiss"))
	return lipgloss.Place(m.width, max(m.height-3, 1), lipgloss.Center, lipgloss.Center, box)
}

// ── Add form ─────────────────

const (
	fieldName = iota
	fieldCategory
	fieldDuration
	fieldHalfway
	fieldCount
)

type addForm struct {
	inputs [fieldCount]textinput.Model
	focus  int
	err    string
}

func newAddForm(category string) addForm {
	var f addForm
	placeholders := [fieldCount]string{"Tea", "Kitchen", "90s or 1m30s", "y/n"}
	for i := range f.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 64
		f.inputs[i] = ti
	}
	f.inputs[fieldCategory].SetValue(category)
	f.inputs[fieldHalfway].SetValue("n")
	return f
}

func (f *addForm) focusCmd() tea.Cmd {
	for i := range f.inputs {
		f.inputs[i].Blur()
	}
	return f.inputs[f.focus].Focus()
}

func (f addForm) input() (timer.Input, error) {
	d, err := timer.ParseDuration(f.inputs[fieldDuration].Value())
	if err != nil {
		return timer.Input{}, err
	}
	halfway := strings.HasPrefix(strings.ToLower(strings.TrimSpace(f.inputs[fieldHalfway].Value())), "y")
	return timer.Input{
		Name:         f.inputs[fieldName].Value(),
		Category:     f.inputs[fieldCategory].Value(),
		Duration:     d,
		HalfwayAlert: halfway,
	}, nil
}

func (f addForm) View() string {
	labels := [fieldCount]string{"Name", "Category", "Duration", "Halfway alert"}
	var sb strings.Builder
	sb.WriteString("\n" + categoryStyle.Render("  New timer") + "\n\n")
	for i := range f.inputs {
		sb.WriteString(fmt.Sprintf("  %-14s %s\n", labels[i]+":", f.inputs[i].View()))
	}
	if f.err != "" {
		sb.WriteString("\n" + errorStyle.Render("  "+f.err) + "\n")
	}
	return sb.String()
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "esc":
		m.form = nil
		return m, nil
	case "tab", "down":
		f.focus = (f.focus + 1) % fieldCount
		return m, f.focusCmd()
	case "shift+tab", "up":
		f.focus = (f.focus - 1 + fieldCount) % fieldCount
		return m, f.focusCmd()
	case "enter":
		if f.focus < fieldCount-1 {
			f.focus++
			return m, f.focusCmd()
		}
		in, err := f.input()
		if err == nil {
			_, err = m.ctl.AddTimer(in)
		}
		if err != nil {
			f.err = err.Error()
			return m, nil
		}
		m.form = nil
		m.refresh()
		return m, nil
	}
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return m, cmd
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctl Controller) error {
	p := tea.NewProgram(New(ctl), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
