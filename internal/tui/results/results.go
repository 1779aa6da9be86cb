package results

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dbdeck/internal/app"
	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/tui/theme"
)

// Source is what the results pane is showing.
type Source int

const (
	SourceNone Source = iota
	SourceQuery
	SourceTable
	SourceStructure
)

const maxColWidth = 40

// Model is the results component.
type Model struct {
	source  Source
	grid    Grid
	err     error
	loading bool
	focused bool
	width   int
	height  int

	run     *app.QueryRun
	page    *database.TableDataResult
	request app.TableRequest
	table   string
	engine  database.Engine

	// prompt edits the filters and sorts of the table on screen
	prompt    textinput.Model
	prompting bool

	cursorX   int
	cursorY   int
	scrollY   int
	colWidths []int

	statusMessage string
}

// New creates a new results model.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "  where> "
	ti.Placeholder = "filters[age]=>:25&sort[name]=desc"
	ti.CharLimit = 500
	return Model{engine: database.Engines[0], prompt: ti}
}

// SetEngine selects the SQL dialect of generated statements.
func (m *Model) SetEngine(e database.Engine) {
	m.engine = e
}

// Prompting reports whether the filter prompt has the keyboard.
func (m Model) Prompting() bool {
	return m.prompting
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
}

// SetFocused sets the focus state.
func (m *Model) SetFocused(f bool) {
	m.focused = f
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(l bool) {
	m.loading = l
}

func (m *Model) reset(source Source, grid Grid) {
	m.source = source
	m.grid = grid
	m.err = nil
	m.loading = false
	m.cursorY = 0
	m.scrollY = 0
	if m.cursorX >= len(grid.Columns) {
		m.cursorX = 0
	}
	m.statusMessage = ""
	m.calculateColumnWidths()
}

// SetQueryRun shows the result of an editor query.
func (m *Model) SetQueryRun(run *app.QueryRun) {
	m.run = run
	m.page = nil
	m.table = extractTableName(run.Query)
	m.reset(SourceQuery, GridFromRows(run.Fields, run.Rows))
	m.cursorX = 0
}

// SetTablePage shows one page of a table in columns order.
func (m *Model) SetTablePage(req app.TableRequest, columns []string, page *database.TableDataResult) {
	keepColumn := m.source == SourceTable && m.table == req.Table
	if len(columns) == 0 && len(page.Rows) > 0 {
		columns = database.SortedKeys(page.Rows[0])
	}
	m.run = nil
	m.page = page
	m.request = req
	m.request.Page = page.Page
	m.request.PageSize = page.PageSize
	m.table = req.Table
	m.reset(SourceTable, GridFromRows(columns, page.Rows))
	if !keepColumn {
		m.cursorX = 0
	}
	if page.Error != "" {
		m.err = fmt.Errorf("%s", page.Error)
	}
}

// SetStructure shows the introspection of a table.
func (m *Model) SetStructure(table string, info *database.TableIntrospection) {
	m.run = nil
	m.page = nil
	m.table = table
	m.reset(SourceStructure, IntrospectionGrid(info))
	m.cursorX = 0
}

// SetError sets an error to display.
func (m *Model) SetError(err error) {
	m.err = err
	m.loading = false
}

// Request returns the request behind the table page on screen.
func (m Model) Request() (app.TableRequest, bool) {
	return m.request, m.source == SourceTable
}

func (m *Model) calculateColumnWidths() {
	m.colWidths = make([]int, len(m.grid.Columns))
	for i, col := range m.grid.Columns {
		m.colWidths[i] = lipgloss.Width(col) + 2 // room for a sort marker
	}
	for _, row := range m.grid.Rows {
		for i, cell := range row {
			if w := lipgloss.Width(cell); i < len(m.colWidths) && w > m.colWidths[i] {
				m.colWidths[i] = w
			}
		}
	}
	for i := range m.colWidths {
		m.colWidths[i] = min(max(m.colWidths[i], 1), maxColWidth)
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) visibleRows() int {
	rows := m.height - 5
	if m.prompting {
		rows--
	}
	return max(1, rows)
}

// Update handles messages for the results pane.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if m.prompting {
		return m.updatePrompt(key)
	}

	last := len(m.grid.Rows) - 1
	switch key.String() {
	case "up", "k":
		m.cursorY = max(0, m.cursorY-1)
	case "down", "j":
		m.cursorY = max(0, min(last, m.cursorY+1))
	case "left", "h":
		m.cursorX = max(0, m.cursorX-1)
	case "right", "l":
		m.cursorX = max(0, min(len(m.grid.Columns)-1, m.cursorX+1))
	case "pgup":
		m.cursorY = max(0, m.cursorY-m.visibleRows())
	case "pgdown":
		m.cursorY = max(0, min(last, m.cursorY+m.visibleRows()))
	case "home":
		m.cursorY = 0
	case "end":
		m.cursorY = max(0, last)

	case "n":
		return m, m.pageCmd(1)
	case "p":
		return m, m.pageCmd(-1)
	case "s":
		return m, m.sortCmd()
	case "f":
		return m, m.filterCmd()
	case "F":
		return m, m.clearFiltersCmd()
	case "/":
		if m.source == SourceTable {
			m.prompting = true
			m.prompt.SetValue(database.EncodeQuery(m.request.Filters, m.request.Sorts))
			m.prompt.CursorEnd()
			m.prompt.Focus()
			return m, textinput.Blink
		}
	case "x":
		return m, m.deleteCmd()

	case "y":
		m.doCopyCell()
	case "Y":
		m.doCopyRowJSON()
	case "c":
		m.doCopyRowCSV()
	case "w":
		return m, m.doFilterByValue()
	case "e":
		return m, m.exportCSVCmd()
	case "E":
		return m, m.exportJSONCmd()
	}

	if m.cursorY < m.scrollY {
		m.scrollY = m.cursorY
	}
	if m.cursorY >= m.scrollY+m.visibleRows() {
		m.scrollY = m.cursorY - m.visibleRows() + 1
	}
	return m, nil
}

func (m *Model) requestCmd(fn func(*app.TableRequest) bool) tea.Cmd {
	if m.source != SourceTable {
		return nil
	}
	req := m.request
	req.Filters = append([]database.Filter(nil), req.Filters...)
	req.Sorts = append([]database.Sort(nil), req.Sorts...)
	if !fn(&req) {
		return nil
	}
	return func() tea.Msg { return PageRequestMsg{Request: req} }
}

func (m *Model) pageCmd(delta int) tea.Cmd {
	return m.requestCmd(func(req *app.TableRequest) bool {
		next := req.Page + delta
		if next < 1 || (m.page != nil && next > m.page.TotalPages) {
			return false
		}
		req.Page = next
		return true
	})
}

func (m *Model) sortCmd() tea.Cmd {
	col := m.columnName()
	return m.requestCmd(func(req *app.TableRequest) bool {
		if col == "" {
			return false
		}
		req.Sorts = NextSorts(req.Sorts, col)
		req.Page = 1
		return true
	})
}

func (m *Model) filterCmd() tea.Cmd {
	col, val := m.columnName(), m.cellValue()
	return m.requestCmd(func(req *app.TableRequest) bool {
		if col == "" || val == "" {
			return false
		}
		req.Filters = WithFilter(req.Filters, database.Filter{Column: col, Operator: database.OpEq, Value: val})
		req.Page = 1
		return true
	})
}

func (m *Model) clearFiltersCmd() tea.Cmd {
	return m.requestCmd(func(req *app.TableRequest) bool {
		if len(req.Filters) == 0 {
			return false
		}
		req.Filters = nil
		req.Page = 1
		return true
	})
}

func (m Model) updatePrompt(key tea.KeyMsg) (Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		m.prompting = false
		m.prompt.Blur()
		return m, nil
	case "enter":
		m.prompting = false
		m.prompt.Blur()
		filters, sorts := database.ParseQuery(strings.TrimSpace(m.prompt.Value()))
		return m, m.requestCmd(func(req *app.TableRequest) bool {
			req.Filters = filters
			req.Sorts = sorts
			req.Page = 1
			return true
		})
	}
	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(key)
	return m, cmd
}

func (m *Model) deleteCmd() tea.Cmd {
	if m.source != SourceTable || m.cursorY >= len(m.grid.Rows) {
		return nil
	}
	table, row := m.table, m.grid.Row(m.cursorY)
	return func() tea.Msg { return DeleteRowMsg{Table: table, Row: row} }
}

func (m Model) title() string {
	style := lipgloss.NewStyle().Foreground(theme.ColorPrimary).Bold(true).Padding(0, 1)
	switch m.source {
	case SourceTable:
		return style.Render(m.table)
	case SourceStructure:
		return style.Render("Structure: " + m.table)
	}
	return style.Render("Results")
}

func (m Model) stats() string {
	switch m.source {
	case SourceQuery:
		return fmt.Sprintf("%d row(s) │ %s", m.run.RowCount, m.run.Duration.Round(1000).String())
	case SourceTable:
		s := fmt.Sprintf("page %d/%d │ %d row(s)", m.page.Page, max(1, m.page.TotalPages), m.page.TotalCount)
		if q := database.EncodeQuery(m.request.Filters, m.request.Sorts); q != "" {
			s += " │ " + q
		}
		return s
	case SourceStructure:
		return fmt.Sprintf("%d column(s)", len(m.grid.Rows))
	}
	return ""
}

// View renders the results pane.
func (m Model) View() string {
	if m.loading {
		return m.title() + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if m.source == SourceNone && m.err == nil {
		return m.title() + "\n" + theme.StyleMuted.Render("  Execute a query or press s on a table")
	}

	header := m.title() + "  " + theme.StyleMuted.Render(m.stats())
	if m.prompting {
		header += "\n" + m.prompt.View()
	}
	if m.err != nil {
		return header + "\n" + theme.StyleError.Render("  Error: "+m.err.Error())
	}
	if len(m.grid.Columns) == 0 && m.run != nil {
		return header + "\n" + theme.StyleSuccess.Render(fmt.Sprintf("  Query executed successfully, %d row(s) affected", m.run.RowCount))
	}

	lines := []string{header, m.renderHeader(), m.renderSeparator()}
	end := min(len(m.grid.Rows), m.scrollY+m.visibleRows())
	for i := m.scrollY; i < end; i++ {
		lines = append(lines, m.renderRow(i))
	}
	if m.statusMessage != "" {
		lines = append(lines, theme.StyleMuted.Render("  "+m.statusMessage))
	}
	return strings.Join(lines, "\n")
}

func (m Model) sortMarker(col string) string {
	if m.source != SourceTable {
		return ""
	}
	for _, s := range m.request.Sorts {
		if s.Column == col {
			if s.Direction == database.Desc {
				return " ↓"
			}
			return " ↑"
		}
	}
	return ""
}

func fit(cell string, width int) string {
	if lipgloss.Width(cell) > width {
		runes := []rune(cell)
		for len(runes) > 0 && lipgloss.Width(string(runes)) >= width {
			runes = runes[:len(runes)-1]
		}
		cell = string(runes) + "…"
	}
	if pad := width - lipgloss.Width(cell); pad > 0 {
		cell += strings.Repeat(" ", pad)
	}
	return cell
}

func (m Model) renderHeader() string {
	parts := make([]string, len(m.grid.Columns))
	for i, col := range m.grid.Columns {
		parts[i] = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorPrimary).
			Render(fit(col+m.sortMarker(col), m.colWidths[i]))
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderRow(i int) string {
	row := m.grid.Rows[i]
	parts := make([]string, len(m.grid.Columns))
	for j := range m.grid.Columns {
		cell := ""
		if j < len(row) {
			cell = strings.ReplaceAll(row[j], "\n", " ")
		}
		cell = fit(cell, m.colWidths[j])
		if m.focused && i == m.cursorY && j == m.cursorX {
			cell = theme.StyleSelected.Reverse(true).Render(cell)
		} else if i == m.cursorY {
			cell = theme.StyleSelected.Render(cell)
		}
		parts[j] = cell
	}
	return "  " + strings.Join(parts, " │ ")
}

func (m Model) renderSeparator() string {
	parts := make([]string, len(m.colWidths))
	for i, w := range m.colWidths {
		parts[i] = strings.Repeat("─", w)
	}
	return "  " + lipgloss.NewStyle().Foreground(theme.ColorBorder).Render(strings.Join(parts, "─┼─"))
}
