package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	analysisdto "worklens/internal/modules/analysis/dto"
	sessiondto "worklens/internal/modules/session/dto"
	tasksdto "worklens/internal/modules/tasks/dto"
	apperrors "worklens/internal/platform/errors"
	"worklens/internal/ui/components"
	"worklens/internal/ui/theme"
	analysesview "worklens/internal/ui/views/analyses"
	tasksview "worklens/internal/ui/views/tasks"
)

// ─── ports ───────────────────────────────────────────────────────────────────

type sessionPort interface {
	GetActive(ctx context.Context) (sessiondto.ActiveSessionOutput, error)
}

type analysisPort interface {
	List(ctx context.Context, sessionID, analysisType string, limit int) ([]analysisdto.RecordOutput, error)
}

type tasksPort interface {
	Add(ctx context.Context, title, project string) (tasksdto.TaskOutput, error)
	Start(ctx context.Context, id string) (tasksdto.TaskOutput, error)
	Pause(ctx context.Context, id string) (tasksdto.TaskOutput, error)
	Complete(ctx context.Context, id string) (tasksdto.TaskOutput, error)
	Abandon(ctx context.Context, id string) (tasksdto.TaskOutput, error)
	List(ctx context.Context, status, project string) ([]tasksdto.TaskOutput, error)
}

// ─── tab index ───────────────────────────────────────────────────────────────

type tabID int

const (
	tabAnalyses tabID = iota
	tabTasks
	tabCount
)

var tabLabels = [tabCount]string{"Analyses", "Tasks"}

// paletteHints lists the verbs handled by executePalette.
var paletteHints = []string{
	"task:add <project> <title>",
	"task:start <id>",
	"task:pause <id>",
	"task:complete <id>",
	"task:abandon <id>",
	"refresh",
}

// ─── async messages ──────────────────────────────────────────────────────────

type activeLoadedMsg struct {
	active sessiondto.ActiveSessionOutput
	err    error
}

type refreshMsg time.Time

type taskChangedMsg struct {
	verb string
	task tasksdto.TaskOutput
	err  error
}

// ─── key bindings ────────────────────────────────────────────────────────────

type keyMap struct {
	Tab      key.Binding
	Help     key.Binding
	Palette  key.Binding
	Quit     key.Binding
	Start    key.Binding
	Pause    key.Binding
	Complete key.Binding
	Kind     key.Binding
	Follow   key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Tab:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Palette:  key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "palette")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
		Start:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start task")),
		Pause:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause task")),
		Complete: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "complete task")),
		Kind:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "cycle analysis type")),
		Follow:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "follow newest analysis")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Help, k.Palette, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Kind, k.Follow},
		{k.Start, k.Pause, k.Complete},
		{k.Help, k.Palette, k.Quit},
	}
}

// ─── model ───────────────────────────────────────────────────────────────────

// Model is the status dashboard. It polls the active session and shows its
// analyses next to the task list.
type Model struct {
	session  sessionPort
	tasks    tasksPort
	interval time.Duration

	analysesView analysesview.Model
	tasksView    tasksview.Model

	activeTab     tabID
	keys          keyMap
	help          help.Model
	showHelp      bool
	palette       components.Palette
	activeSession sessiondto.ActiveSessionOutput
	hasActive     bool
	status        string
	width         int
	height        int
}

func NewModel(session sessionPort, analyses analysisPort, tasks tasksPort, interval time.Duration) Model {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return Model{
		session:      session,
		tasks:        tasks,
		interval:     interval,
		analysesView: analysesview.New(analyses),
		tasksView:    tasksview.New(tasks),
		activeTab:    tabAnalyses,
		keys:         defaultKeys(),
		help:         help.New(),
		palette:      components.NewPalette(paletteHints),
		status:       "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.analysesView.Init(),
		m.tasksView.Init(),
		m.loadActiveCmd(),
		m.tick(),
	)
}

// ─── update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.palette.Visible() {
		var cmd tea.Cmd
		m.palette, cmd = m.palette.Update(msg)
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.palette.SetWidth(min(m.width-4, 80))
		m.help.Width = m.width
		m.propagateSize()

	case refreshMsg:
		return m, tea.Batch(m.loadActiveCmd(), m.tasksView.Reload(), m.tick())

	case activeLoadedMsg:
		if msg.err != nil {
			if !errors.Is(msg.err, apperrors.ErrNoActiveSession) {
				m.status = "active session check: " + msg.err.Error()
			}
			m.hasActive = false
			return m, nil
		}
		m.hasActive = true
		m.activeSession = msg.active
		cmd := m.analysesView.Load(msg.active.SessionID)
		return m, cmd

	case taskChangedMsg:
		if msg.err != nil {
			m.status = msg.verb + " failed: " + msg.err.Error()
			return m, nil
		}
		m.status = fmt.Sprintf("%s %s (%s)", msg.verb, msg.task.Title, msg.task.ID)
		return m, m.tasksView.Reload()

	case tasksview.ChangedMsg:
		if msg.Err != nil {
			m.status = "task update failed: " + msg.Err.Error()
		} else {
			m.status = fmt.Sprintf("task %s is %s", msg.Task.ID, msg.Task.Status)
		}

	case components.PaletteSubmitMsg:
		return m.executePalette(msg.Command)

	case components.PaletteCancelMsg:
		m.status = "ready"

	case tea.KeyMsg:
		if m.showHelp {
			if msg.String() == "?" || msg.String() == "esc" {
				m.showHelp = false
			}
			return m, nil
		}
		if m.subViewFiltering() {
			break
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			m.activeTab = (m.activeTab + 1) % tabCount
			return m, nil
		case "shift+tab":
			m.activeTab = (m.activeTab + tabCount - 1) % tabCount
			return m, nil
		case "?":
			m.showHelp = !m.showHelp
			return m, nil
		case ":":
			cmd := m.palette.Open()
			return m, cmd
		}
	}

	// Loaded messages go to both views; input only to the visible one.
	var cmd tea.Cmd
	switch msg.(type) {
	case tea.KeyMsg:
		switch m.activeTab {
		case tabAnalyses:
			m.analysesView, cmd = m.analysesView.Update(msg)
		case tabTasks:
			m.tasksView, cmd = m.tasksView.Update(msg)
		}
		cmds = append(cmds, cmd)
	default:
		m.analysesView, cmd = m.analysesView.Update(msg)
		cmds = append(cmds, cmd)
		m.tasksView, cmd = m.tasksView.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// ─── view ────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	tabBar := m.renderTabBar()
	statusBar := m.renderStatusBar()
	contentH := m.height - lipgloss.Height(tabBar) - lipgloss.Height(statusBar)
	if contentH < 1 {
		contentH = 1
	}

	var content string
	switch {
	case m.showHelp:
		content = lipgloss.NewStyle().Width(m.width).Height(contentH).Render(m.help.View(m.keys))
	case m.palette.Visible():
		content = lipgloss.Place(m.width, contentH, lipgloss.Center, lipgloss.Center, m.palette.View())
	case m.activeTab == tabTasks:
		content = m.tasksView.View()
	default:
		content = m.analysesView.View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, tabBar, content, statusBar)
}

func (m Model) renderTabBar() string {
	parts := make([]string, tabCount)
	for i := tabID(0); i < tabCount; i++ {
		if i == m.activeTab {
			parts[i] = theme.Hot.Render(" " + tabLabels[i] + " ")
		} else {
			parts[i] = theme.Muted.Render(" " + tabLabels[i] + " ")
		}
	}
	bar := "worklens  " + strings.Join(parts, theme.Muted.Render(" │ "))
	return theme.Bar.Width(m.width).Render(bar) + "\n"
}

func (m Model) renderStatusBar() string {
	left := m.status
	if m.hasActive {
		since := time.Since(m.activeSession.StartedAt).Truncate(time.Second)
		left = theme.Hot.Render(fmt.Sprintf("● %s %s", m.activeSession.Phase, since)) + "  " + left
	}
	right := theme.Muted.Render("?:help  tab:switch  :::palette  q:quit")
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return "\n" + theme.Bar.Width(m.width).Render(left+strings.Repeat(" ", gap)+right)
}

// ─── palette execution ───────────────────────────────────────────────────────

func (m Model) executePalette(cmd components.Command) (tea.Model, tea.Cmd) {
	switch cmd.Name {
	case "":
		return m, nil
	case "task:add":
		if len(cmd.Args) < 2 {
			m.status = "usage: task:add <project> <title>"
			return m, nil
		}
		project, title := cmd.Args[0], cmd.Rest(1)
		m.activeTab = tabTasks
		return m, m.taskCmd("added", func(ctx context.Context) (tasksdto.TaskOutput, error) {
			return m.tasks.Add(ctx, title, project)
		})
	case "task:start", "task:pause", "task:complete", "task:abandon":
		if len(cmd.Args) != 1 {
			m.status = "usage: " + cmd.Name + " <id>"
			return m, nil
		}
		id := cmd.Args[0]
		apply := map[string]func(context.Context, string) (tasksdto.TaskOutput, error){
			"task:start":    m.tasks.Start,
			"task:pause":    m.tasks.Pause,
			"task:complete": m.tasks.Complete,
			"task:abandon":  m.tasks.Abandon,
		}[cmd.Name]
		verb := strings.TrimPrefix(cmd.Name, "task:")
		return m, m.taskCmd(verb, func(ctx context.Context) (tasksdto.TaskOutput, error) {
			return apply(ctx, id)
		})
	case "refresh":
		return m, func() tea.Msg { return refreshMsg(time.Now()) }
	default:
		m.status = "unknown command: " + cmd.Name
	}
	return m, nil
}

// ─── helpers ─────────────────────────────────────────────────────────────────

func (m Model) subViewFiltering() bool {
	if m.activeTab == tabTasks {
		return m.tasksView.Filtering()
	}
	return m.analysesView.Filtering()
}

func (m *Model) propagateSize() {
	sz := tea.WindowSizeMsg{Width: m.width, Height: m.height - 3}
	m.analysesView, _ = m.analysesView.Update(sz)
	m.tasksView, _ = m.tasksView.Update(sz)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

func (m Model) loadActiveCmd() tea.Cmd {
	return func() tea.Msg {
		active, err := m.session.GetActive(context.Background())
		return activeLoadedMsg{active: active, err: err}
	}
}

func (m Model) taskCmd(verb string, run func(context.Context) (tasksdto.TaskOutput, error)) tea.Cmd {
	return func() tea.Msg {
		task, err := run(context.Background())
		return taskChangedMsg{verb: verb, task: task, err: err}
	}
}
