package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"worklens/internal/ui/theme"
)

const maxHints = 6

// Command is a submitted palette line split into its verb and arguments.
type Command struct {
	Name string
	Args []string
}

// ParseCommand splits input on whitespace. Empty input yields a zero Command.
func ParseCommand(input string) Command {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return Command{}
	}
	return Command{Name: strings.ToLower(fields[0]), Args: fields[1:]}
}

// Rest joins the arguments from index i on.
func (c Command) Rest(i int) string {
	if i >= len(c.Args) {
		return ""
	}
	return strings.Join(c.Args[i:], " ")
}

type PaletteSubmitMsg struct{ Command Command }

type PaletteCancelMsg struct{}

var (
	paletteStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Peach).
			Background(theme.Mantle).
			Foreground(theme.Text).
			Padding(0, 1)

	hintStyle = lipgloss.NewStyle().Foreground(theme.Subtext0)
)

// Palette is a one-line command prompt drawn over the dashboard. Tab
// completes the verb of the first matching hint.
type Palette struct {
	input   textinput.Model
	hints   []string
	visible bool
	width   int
}

func NewPalette(hints []string) Palette {
	ti := textinput.New()
	ti.Placeholder = "task:add inbox Review notes"
	ti.CharLimit = 256
	return Palette{input: ti, hints: hints}
}

func (p Palette) Visible() bool { return p.visible }

func (p *Palette) Open() tea.Cmd {
	p.visible = true
	p.input.SetValue("")
	return p.input.Focus()
}

func (p *Palette) SetWidth(w int) { p.width = w }

func (p Palette) matching() []string {
	prefix := strings.ToLower(strings.TrimSpace(p.input.Value()))
	var out []string
	for _, h := range p.hints {
		verb, _, _ := strings.Cut(h, " ")
		if prefix == "" || strings.HasPrefix(h, prefix) || strings.HasPrefix(prefix, verb+" ") {
			out = append(out, h)
		}
		if len(out) == maxHints {
			break
		}
	}
	return out
}

func (p Palette) close() Palette {
	p.visible = false
	p.input.Blur()
	return p
}

func (p Palette) Update(msg tea.Msg) (Palette, tea.Cmd) {
	if !p.visible {
		return p, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return p.close(), func() tea.Msg { return PaletteCancelMsg{} }
		case "enter":
			cmd := ParseCommand(p.input.Value())
			return p.close(), func() tea.Msg { return PaletteSubmitMsg{Command: cmd} }
		case "tab":
			if hints := p.matching(); len(hints) > 0 && !strings.Contains(p.input.Value(), " ") {
				verb, _, _ := strings.Cut(hints[0], " ")
				p.input.SetValue(verb + " ")
				p.input.CursorEnd()
			}
			return p, nil
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd
}

func (p Palette) View() string {
	if !p.visible {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(theme.Title.Render("Command") + "\n")
	sb.WriteString(": " + p.input.View() + "\n")
	if hints := p.matching(); len(hints) > 0 {
		sb.WriteString("\n")
		for _, h := range hints {
			sb.WriteString(hintStyle.Render("  "+h) + "\n")
		}
	}
	w := p.width
	if w < 20 {
		w = 64
	}
	return paletteStyle.Width(w - 2).Render(sb.String())
}
