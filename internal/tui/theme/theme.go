package theme

import "github.com/charmbracelet/lipgloss"

// Palette is a named set of colors.
type Palette struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Success   lipgloss.Color
	Error     lipgloss.Color
	Border    lipgloss.Color
	Muted     lipgloss.Color
	Highlight lipgloss.Color
	View      lipgloss.Color
	StatusBg  lipgloss.Color
	StatusFg  lipgloss.Color
}

var palettes = map[string]Palette{
	"default": {
		Primary: "63", Secondary: "241", Success: "42", Error: "196",
		Border: "238", Muted: "245", Highlight: "229", View: "80",
		StatusBg: "236", StatusFg: "252",
	},
	"mono": {
		Primary: "255", Secondary: "244", Success: "250", Error: "255",
		Border: "240", Muted: "244", Highlight: "231", View: "250",
		StatusBg: "235", StatusFg: "252",
	},
}

// Colors in use. Set replaces them.
var (
	ColorPrimary   lipgloss.Color
	ColorSecondary lipgloss.Color
	ColorSuccess   lipgloss.Color
	ColorError     lipgloss.Color
	ColorBorder    lipgloss.Color
	ColorMuted     lipgloss.Color
	ColorHighlight lipgloss.Color
	ColorView      lipgloss.Color
)

// Shared styles used across TUI components.
var (
	StyleBorder       lipgloss.Style
	StyleActiveBorder lipgloss.Style
	StyleTitle        lipgloss.Style
	StyleMuted        lipgloss.Style
	StyleError        lipgloss.Style
	StyleSuccess      lipgloss.Style
	StyleSelected     lipgloss.Style
	StyleStatusBar    lipgloss.Style
)

func init() {
	Set("default")
}

// Set switches to the named palette. Unknown names fall back to default and
// report false.
func Set(name string) bool {
	p, ok := palettes[name]
	if !ok {
		p = palettes["default"]
	}

	ColorPrimary = p.Primary
	ColorSecondary = p.Secondary
	ColorSuccess = p.Success
	ColorError = p.Error
	ColorBorder = p.Border
	ColorMuted = p.Muted
	ColorHighlight = p.Highlight
	ColorView = p.View

	StyleBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder)
	StyleActiveBorder = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(ColorPrimary)
	StyleTitle = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true)
	StyleMuted = lipgloss.NewStyle().Foreground(ColorMuted)
	StyleError = lipgloss.NewStyle().Foreground(ColorError)
	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleSelected = lipgloss.NewStyle().
		Foreground(ColorHighlight).
		Bold(true)
	StyleStatusBar = lipgloss.NewStyle().
		Background(p.StatusBg).
		Foreground(p.StatusFg).
		Padding(0, 1)
	return ok
}
