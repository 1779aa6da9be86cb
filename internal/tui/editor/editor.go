package editor

import (
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/tui/theme"
)

// ExecuteQueryMsg is sent when the user triggers query execution.
type ExecuteQueryMsg struct {
	Query string
}

var commonKeywords = strings.Fields(`
	select from where and or insert into update delete create drop alter table
	view index join inner outer left right cross on not in is null like order
	by group having as distinct count sum avg min max between exists case when
	then else end values set begin commit rollback union all asc desc primary
	key foreign references cascade restrict default true false with`)

var dialectKeywords = map[database.Engine][]string{
	database.EnginePostgres: strings.Fields("limit offset ilike returning serial"),
	database.EngineMySQL:    strings.Fields("limit offset auto_increment show describe"),
	database.EngineMSSQL:    strings.Fields("top offset fetch next rows only identity nvarchar go"),
}

func keywordSet(engine database.Engine) map[string]bool {
	set := make(map[string]bool, len(commonKeywords)+8)
	for _, k := range commonKeywords {
		set[k] = true
	}
	for _, k := range dialectKeywords[engine] {
		set[k] = true
	}
	return set
}

// Model is the SQL query editor component.
type Model struct {
	textarea textarea.Model
	width    int
	height   int
	focused  bool
	keywords map[string]bool

	tableNames  []string
	completing  bool
	completions []string
	compIndex   int
}

// New creates a new editor model.
func New() Model {
	ta := textarea.New()
	ta.Placeholder = "Enter SQL query..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Prompt = "│ "
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle()
	ta.BlurredStyle.Base = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = theme.StyleMuted
	ta.BlurredStyle.Placeholder = theme.StyleMuted
	ta.FocusedStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorPrimary)
	ta.BlurredStyle.Prompt = lipgloss.NewStyle().Foreground(theme.ColorBorder)

	return Model{textarea: ta, keywords: keywordSet(database.EnginePostgres)}
}

// SetEngine selects the dialect used for keyword formatting.
func (m *Model) SetEngine(engine database.Engine) {
	m.keywords = keywordSet(engine)
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.textarea.SetWidth(w - 2)
	m.textarea.SetHeight(h - 2)
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
	if f {
		m.textarea.Focus()
	} else {
		m.textarea.Blur()
	}
}

// Value returns the current editor content.
func (m Model) Value() string {
	return m.textarea.Value()
}

// SetQuery replaces the editor content.
func (m *Model) SetQuery(query string) {
	m.textarea.SetValue(query)
	m.cancelCompletion()
}

// SetTableNames sets the table names offered by completion.
func (m *Model) SetTableNames(names []string) {
	m.tableNames = names
}

// CompletionActive reports whether Tab is cycling completions.
func (m Model) CompletionActive() bool {
	return m.completing
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Update handles messages for the editor.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "ctrl+e", "f5":
			query := strings.TrimSpace(m.textarea.Value())
			if query == "" {
				return m, nil
			}
			m.cancelCompletion()
			return m, func() tea.Msg { return ExecuteQueryMsg{Query: query} }
		case "ctrl+k":
			m.textarea.Reset()
			m.cancelCompletion()
			return m, nil
		case "ctrl+l":
			m.textarea.SetValue(FormatKeywords(m.textarea.Value(), m.keywords))
			return m, nil
		case "tab":
			if m.complete() {
				return m, nil
			}
		case "esc":
			if m.completing {
				m.cancelCompletion()
				return m, nil
			}
		default:
			m.cancelCompletion()
		}
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// FormatKeywords uppercases the words of sql found in keywords, leaving
// quoted strings and identifiers untouched.
func FormatKeywords(sql string, keywords map[string]bool) string {
	var out, word strings.Builder
	flush := func() {
		w := word.String()
		if keywords[strings.ToLower(w)] {
			w = strings.ToUpper(w)
		}
		out.WriteString(w)
		word.Reset()
	}

	var quote rune
	for _, ch := range sql {
		switch {
		case quote != 0:
			out.WriteRune(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"' || ch == '`' || ch == '[':
			flush()
			quote = ch
			if ch == '[' {
				quote = ']'
			}
			out.WriteRune(ch)
		case unicode.IsLetter(ch) || ch == '_':
			word.WriteRune(ch)
		default:
			flush()
			out.WriteRune(ch)
		}
	}
	flush()
	return out.String()
}

// complete replaces the word before the cursor with the next matching
// table name. It only triggers after FROM, JOIN, INTO, UPDATE or TABLE.
func (m *Model) complete() bool {
	if m.completing && len(m.completions) > 0 {
		m.compIndex = (m.compIndex + 1) % len(m.completions)
		m.applyCompletion()
		return true
	}

	val := m.textarea.Value()
	partial := lastWord(val)
	if partial == "" || !inTableContext(strings.TrimSuffix(val, partial)) {
		return false
	}
	matches := Matches(m.tableNames, partial)
	if len(matches) == 0 {
		return false
	}

	m.completing = true
	m.completions = matches
	m.compIndex = 0
	m.applyCompletion()
	return true
}

// Matches returns the names starting with partial, case-insensitively.
func Matches(names []string, partial string) []string {
	lower := strings.ToLower(partial)
	var out []string
	for _, name := range names {
		if strings.HasPrefix(strings.ToLower(name), lower) {
			out = append(out, name)
		}
	}
	return out
}

func inTableContext(before string) bool {
	fields := strings.Fields(strings.ToUpper(before))
	if len(fields) == 0 {
		return false
	}
	switch fields[len(fields)-1] {
	case "FROM", "JOIN", "INTO", "UPDATE", "TABLE":
		return true
	}
	return false
}

func (m *Model) applyCompletion() {
	val := m.textarea.Value()
	m.textarea.SetValue(strings.TrimSuffix(val, lastWord(val)) + m.completions[m.compIndex])
}

func (m *Model) cancelCompletion() {
	m.completing = false
	m.completions = nil
	m.compIndex = 0
}

func lastWord(s string) string {
	i := len(s)
	for i > 0 && isIdentChar(s[i-1]) {
		i--
	}
	return s[i:]
}

func isIdentChar(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') || c == '_' || c == '.'
}

// View renders the editor.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Render("Query Editor")

	var hint string
	if m.completing && len(m.completions) > 1 {
		parts := make([]string, len(m.completions))
		for i, c := range m.completions {
			if i == m.compIndex {
				parts[i] = theme.StyleSelected.Render(c)
			} else {
				parts[i] = theme.StyleMuted.Render(c)
			}
		}
		hint = "\n" + lipgloss.NewStyle().Padding(0, 1).Render(theme.StyleMuted.Render("Tab: ")+strings.Join(parts, " │ "))
	}
	return title + "\n" + m.textarea.View() + hint
}
