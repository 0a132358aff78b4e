package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin Mocha.
var (
	Mantle   = lipgloss.Color("#181825")
	Surface1 = lipgloss.Color("#45475a")
	Text     = lipgloss.Color("#cdd6f4")
	Subtext0 = lipgloss.Color("#a6adc8")
	Lavender = lipgloss.Color("#b4befe")
	Sapphire = lipgloss.Color("#74c7ec")
	Green    = lipgloss.Color("#a6e3a1")
	Peach    = lipgloss.Color("#fab387")
	Mauve    = lipgloss.Color("#cba6f7")

	Bar   = lipgloss.NewStyle().Background(Mantle)
	Title = lipgloss.NewStyle().Foreground(Sapphire).Bold(true)
	Muted = lipgloss.NewStyle().Foreground(Subtext0)
	Hot   = lipgloss.NewStyle().Foreground(Peach).Bold(true)
)

var statuses = map[string]lipgloss.Style{
	"to_do":     Muted,
	"doing":     Hot,
	"paused":    lipgloss.NewStyle().Foreground(Sapphire),
	"completed": lipgloss.NewStyle().Foreground(Green),
	"abandoned": Muted.Strikethrough(true),
}

var kinds = map[string]lipgloss.Style{
	"regular": Muted,
	"special": lipgloss.NewStyle().Foreground(Mauve),
	"final":   lipgloss.NewStyle().Foreground(Green).Bold(true),
}

// Status styles a task status label.
func Status(status string) lipgloss.Style {
	if style, ok := statuses[status]; ok {
		return style
	}
	return Muted
}

// Kind styles an analysis type label.
func Kind(kind string) lipgloss.Style {
	if style, ok := kinds[kind]; ok {
		return style
	}
	return Muted
}
