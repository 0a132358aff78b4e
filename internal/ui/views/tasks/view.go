package tasks

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	tasksdto "worklens/internal/modules/tasks/dto"
	"worklens/internal/ui/theme"
)

type TaskPort interface {
	List(ctx context.Context, status, project string) ([]tasksdto.TaskOutput, error)
	Start(ctx context.Context, id string) (tasksdto.TaskOutput, error)
	Pause(ctx context.Context, id string) (tasksdto.TaskOutput, error)
	Complete(ctx context.Context, id string) (tasksdto.TaskOutput, error)
}

type LoadedMsg struct {
	Tasks []tasksdto.TaskOutput
	Err   error
}

// ChangedMsg reports the outcome of a status change made from this view.
type ChangedMsg struct {
	Task tasksdto.TaskOutput
	Err  error
}

type taskItem struct {
	task tasksdto.TaskOutput
}

func (i taskItem) Title() string { return i.task.Title }

func (i taskItem) Description() string {
	return fmt.Sprintf("%s  %s  %s", theme.Status(i.task.Status).Render(i.task.Status), i.task.Project, i.task.ID)
}

func (i taskItem) FilterValue() string { return i.task.Project + " " + i.task.Title }

type Model struct {
	port   TaskPort
	list   list.Model
	width  int
	height int
}

func New(port TaskPort) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Lavender).BorderForeground(theme.Lavender)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Sapphire).BorderForeground(theme.Lavender)

	l := list.New(nil, delegate, 0, 0)
	l.Title = "Tasks"
	l.Styles.Title = theme.Title
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)
	return Model{port: port, list: l}
}

func (m Model) Init() tea.Cmd {
	return m.Reload()
}

func (m Model) Reload() tea.Cmd {
	port := m.port
	return func() tea.Msg {
		tasks, err := port.List(context.Background(), "", "")
		return LoadedMsg{Tasks: tasks, Err: err}
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(m.width, m.height)

	case LoadedMsg:
		if msg.Err != nil {
			m.list.Title = "Tasks: " + msg.Err.Error()
			return m, nil
		}
		m.list.Title = "Tasks"
		items := make([]list.Item, 0, len(msg.Tasks))
		for _, t := range msg.Tasks {
			items = append(items, taskItem{task: t})
		}
		cmds = append(cmds, m.list.SetItems(items))

	case ChangedMsg:
		if msg.Err == nil {
			cmds = append(cmds, m.Reload())
		}

	case tea.KeyMsg:
		if m.list.FilterState() != list.Filtering {
			switch msg.String() {
			case "s":
				return m, m.change(m.port.Start)
			case "p":
				return m, m.change(m.port.Pause)
			case "c":
				return m, m.change(m.port.Complete)
			}
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	return lipgloss.NewStyle().Width(m.width).Height(m.height).Render(m.list.View())
}

func (m Model) Filtering() bool {
	return m.list.FilterState() == list.Filtering
}

func (m Model) change(apply func(context.Context, string) (tasksdto.TaskOutput, error)) tea.Cmd {
	item, ok := m.list.SelectedItem().(taskItem)
	if !ok {
		return nil
	}
	id := item.task.ID
	return func() tea.Msg {
		task, err := apply(context.Background(), id)
		return ChangedMsg{Task: task, Err: err}
	}
}
