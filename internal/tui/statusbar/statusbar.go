package statusbar

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/tui/theme"
)

const defaultHints = "Ctrl+E: Execute │ Tab: Switch pane │ ?: Help │ q: Quit"

// Model is the status bar component.
type Model struct {
	width      int
	connected  bool
	engine     database.Engine
	connName   string
	activePane string
	message    string
}

// New creates a new status bar model.
func New() Model {
	return Model{activePane: "explorer"}
}

// SetWidth updates the component width.
func (m *Model) SetWidth(w int) {
	m.width = w
}

// SetConnected updates the connection indicator.
func (m *Model) SetConnected(connected bool, engine database.Engine, name string) {
	m.connected = connected
	m.engine = engine
	m.connName = name
}

// SetActivePane updates the displayed active pane name.
func (m *Model) SetActivePane(pane string) {
	m.activePane = pane
}

// SetMessage sets a temporary status message. An empty message restores the
// key hints.
func (m *Model) SetMessage(msg string) {
	m.message = msg
}

// Message returns the current message.
func (m Model) Message() string {
	return m.message
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages (status bar has no interactive behavior).
func (m Model) Update(_ tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

func (m Model) indicator() string {
	if !m.connected {
		return lipgloss.NewStyle().Foreground(theme.ColorError).Render("●") + " disconnected"
	}
	dot := lipgloss.NewStyle().Foreground(theme.ColorSuccess).Render("●")
	return dot + " " + m.engine.String() + ":" + m.connName + " " + theme.StyleMuted.Render("["+m.activePane+"]")
}

// View renders the status bar.
func (m Model) View() string {
	left := m.indicator()
	right := defaultHints
	if m.message != "" {
		right = m.message
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 4
	if padding < 1 {
		padding = 1
	}
	return theme.StyleStatusBar.Width(m.width).Render(left + strings.Repeat(" ", padding) + right)
}
