package analyses

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	analysisdto "worklens/internal/modules/analysis/dto"
	"worklens/internal/ui/theme"
)

type AnalysisPort interface {
	List(ctx context.Context, sessionID, analysisType string, limit int) ([]analysisdto.RecordOutput, error)
}

type LoadedMsg struct {
	SessionID string
	Records   []analysisdto.RecordOutput
	Err       error
}

// kinds is the cycle of the "t" key; the empty kind shows everything.
var kinds = []string{"", "regular", "special", "final"}

type recordItem struct {
	record analysisdto.RecordOutput
}

func (i recordItem) Title() string {
	return fmt.Sprintf("%s  %s", i.record.Start.Local().Format("15:04:05"), theme.Kind(i.record.Type).Render(i.record.Type))
}

func (i recordItem) Description() string {
	line, _, _ := strings.Cut(strings.TrimSpace(i.record.Response), "\n")
	return line
}

func (i recordItem) FilterValue() string { return i.record.Response }

// Model lists the analyses of the active session with the selected one in
// a scrollable pane. While following, reloads keep the newest selected.
type Model struct {
	port      AnalysisPort
	sessionID string
	records   []analysisdto.RecordOutput
	kind      int
	follow    bool

	list    list.Model
	detail  viewport.Model
	spinner spinner.Model
	loading bool
	err     error
	width   int
	height  int
}

func New(port AnalysisPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Styles.Title = theme.Title
	l.SetShowHelp(false)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Lavender)

	m := Model{port: port, list: l, detail: viewport.New(0, 0), spinner: sp, follow: true}
	m.list.Title = m.title()
	return m
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Load fetches every analysis of sessionID. Only a session change shows
// the spinner; periodic reloads of the same session swap items in place.
func (m *Model) Load(sessionID string) tea.Cmd {
	if sessionID == "" {
		return nil
	}
	port := m.port
	fetch := func() tea.Msg {
		records, err := port.List(context.Background(), sessionID, "", 0)
		return LoadedMsg{SessionID: sessionID, Records: records, Err: err}
	}
	if m.sessionID == sessionID {
		return fetch
	}
	m.sessionID = sessionID
	m.loading = true
	m.records = nil
	m.follow = true
	return tea.Batch(fetch, m.spinner.Tick)
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.refreshDetail()

	case LoadedMsg:
		if msg.SessionID != m.sessionID {
			return m, nil
		}
		m.loading = false
		m.err = msg.Err
		if msg.Err == nil {
			m.records = msg.Records
		}
		return m, m.applyKind()

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.loading {
			return m, nil
		}
		if !m.Filtering() {
			switch msg.String() {
			case "t":
				m.kind = (m.kind + 1) % len(kinds)
				return m, m.applyKind()
			case "f":
				m.follow = !m.follow
				m.list.Title = m.title()
				return m, nil
			case "J", "K", "pgdown", "pgup":
				var cmd tea.Cmd
				m.detail, cmd = m.detail.Update(scrollKey(msg))
				return m, cmd
			}
		}
	}

	if m.loading {
		return m, tea.Batch(cmds...)
	}
	before := m.list.Index()
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.list.Index() != before {
		m.follow = m.list.Index() == len(m.list.Items())-1
		m.list.Title = m.title()
		m.refreshDetail()
	}
	return m, tea.Batch(cmds...)
}

// scrollKey maps the detail-pane keys onto the viewport's own bindings.
func scrollKey(msg tea.KeyMsg) tea.KeyMsg {
	switch msg.String() {
	case "J":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "K":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return msg
}

func (m *Model) applyKind() tea.Cmd {
	kind := kinds[m.kind]
	items := make([]list.Item, 0, len(m.records))
	for _, r := range m.records {
		if kind == "" || r.Type == kind {
			items = append(items, recordItem{record: r})
		}
	}
	selected := m.list.Index()
	cmd := m.list.SetItems(items)
	switch {
	case m.follow && len(items) > 0:
		m.list.Select(len(items) - 1)
	case selected < len(items):
		m.list.Select(selected)
	}
	m.list.Title = m.title()
	m.refreshDetail()
	return cmd
}

func (m Model) title() string {
	t := "Analyses"
	if kind := kinds[m.kind]; kind != "" {
		t += " · " + kind
	}
	if m.follow {
		t += " · following"
	}
	return t
}

func (m *Model) resize() {
	listW := m.width * 4 / 10
	m.list.SetSize(listW, m.height)
	m.detail.Width = m.width - listW - 4
	m.detail.Height = m.height - 2
}

func (m *Model) refreshDetail() {
	m.detail.SetContent(m.renderDetail())
	m.detail.GotoTop()
}

func (m Model) renderDetail() string {
	if m.err != nil {
		return theme.Hot.Render("Could not load analyses") + "\n\n" + m.err.Error()
	}
	item, ok := m.list.SelectedItem().(recordItem)
	if !ok {
		return theme.Muted.Render("No analyses for this session yet")
	}
	r := item.record
	var sb strings.Builder
	sb.WriteString(theme.Kind(r.Type).Render(r.Type+" analysis") + "\n\n")
	fmt.Fprintf(&sb, "%s%s to %s (%s)\n", theme.Muted.Render("window   "),
		r.Start.Local().Format("15:04:05"), r.End.Local().Format("15:04:05"), r.End.Sub(r.Start).Round(time.Second))
	fmt.Fprintf(&sb, "%s%d snapshots\n\n", theme.Muted.Render("sources  "), len(r.SourceActivityIDs))
	sb.WriteString(lipgloss.NewStyle().Width(max(m.detail.Width, 20)).Render(strings.TrimSpace(r.Response)))
	return sb.String()
}

func (m Model) View() string {
	switch {
	case m.sessionID == "":
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			theme.Muted.Render("No session yet. Start one with `worklens track`."))
	case m.loading:
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center,
			m.spinner.View()+" Loading analyses…")
	}
	listW := m.width * 4 / 10
	detail := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(theme.Surface1).
		Background(theme.Mantle).
		Foreground(theme.Text).
		Padding(0, 1).
		Width(m.width - listW - 2).
		Height(m.height - 2).
		Render(m.detail.View())
	return lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(listW).Render(m.list.View()), detail)
}
