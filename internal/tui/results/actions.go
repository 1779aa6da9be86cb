package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/joacominatel/dbdeck/internal/database"
)

func (m Model) cellValue() string {
	if m.cursorY < 0 || m.cursorY >= len(m.grid.Rows) {
		return ""
	}
	row := m.grid.Rows[m.cursorY]
	if m.cursorX < 0 || m.cursorX >= len(row) {
		return ""
	}
	return row[m.cursorX]
}

func (m Model) columnName() string {
	if m.cursorX < 0 || m.cursorX >= len(m.grid.Columns) {
		return ""
	}
	return m.grid.Columns[m.cursorX]
}

func (m *Model) copy(text, done string) {
	if err := clipboard.WriteAll(text); err != nil {
		m.statusMessage = "Copy failed: " + err.Error()
		return
	}
	m.statusMessage = done
}

func (m *Model) doCopyCell() {
	val := m.cellValue()
	if val == "" {
		m.statusMessage = "Nothing to copy"
		return
	}
	m.copy(val, "Copied: "+truncateStatus(val, 40))
}

func (m *Model) doCopyRowJSON() {
	if m.cursorY >= len(m.grid.Rows) {
		m.statusMessage = "No row to copy"
		return
	}
	m.copy(rowToJSON(m.grid.Columns, m.grid.Rows[m.cursorY]), "Copied row as JSON")
}

func (m *Model) doCopyRowCSV() {
	if m.cursorY >= len(m.grid.Rows) {
		m.statusMessage = "No row to copy"
		return
	}
	var b strings.Builder
	w := csv.NewWriter(&b)
	_ = w.Write(m.grid.Columns)
	_ = w.Write(m.grid.Rows[m.cursorY])
	w.Flush()
	m.copy(b.String(), "Copied row as CSV")
}

// doFilterByValue puts a SELECT filtered on the selected cell into the
// editor, quoted for the connected engine.
func (m *Model) doFilterByValue() tea.Cmd {
	col := m.columnName()
	if col == "" || m.table == "" || m.cursorY >= len(m.grid.Rows) {
		m.statusMessage = "Cannot filter: no cell selected"
		return nil
	}
	quote := func(name string) string { return database.QuoteIdentifier(m.engine, name) }
	query := fmt.Sprintf("SELECT * FROM %s WHERE %s = %s",
		database.SplitTableName(m.table, "").Quoted(quote),
		quote(col),
		database.QuoteLiteral(m.engine, m.cellValue()))
	return func() tea.Msg { return SetEditorQueryMsg{Query: query} }
}

func exportName(ext string) string {
	return fmt.Sprintf("dbdeck_export_%s.%s", time.Now().Format("20060102_150405"), ext)
}

func (m Model) exportJSONCmd() tea.Cmd {
	grid := m.grid
	if len(grid.Columns) == 0 {
		return nil
	}
	return func() tea.Msg {
		filename := exportName("json")
		lines := make([]string, len(grid.Rows))
		for i, row := range grid.Rows {
			lines[i] = "  " + rowToJSON(grid.Columns, row)
		}
		body := "[\n" + strings.Join(lines, ",\n") + "\n]\n"
		if err := os.WriteFile(filename, []byte(body), 0o644); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(grid.Rows), filename)}
	}
}

func (m Model) exportCSVCmd() tea.Cmd {
	grid := m.grid
	if len(grid.Columns) == 0 {
		return nil
	}
	return func() tea.Msg {
		filename := exportName("csv")
		f, err := os.Create(filename)
		if err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		defer f.Close()

		w := csv.NewWriter(f)
		_ = w.Write(grid.Columns)
		_ = w.WriteAll(grid.Rows)
		if err := w.Error(); err != nil {
			return StatusNotifyMsg{Message: "Export failed: " + err.Error()}
		}
		return StatusNotifyMsg{Message: fmt.Sprintf("Exported %d rows to %s", len(grid.Rows), filename)}
	}
}

// extractTableName returns the relation after the first FROM, INTO or UPDATE.
var identQuotes = strings.NewReplacer(`"`, "", "`", "", "[", "", "]", "")

// extractTableName returns the unquoted table after FROM, INTO or UPDATE.
func extractTableName(query string) string {
	tokens := strings.Fields(query)
	for i, tok := range tokens {
		switch strings.ToUpper(tok) {
		case "FROM", "INTO", "UPDATE":
			if i+1 < len(tokens) {
				name := identQuotes.Replace(strings.TrimRight(tokens[i+1], ";,()"))
				if name != "" {
					return name
				}
			}
		}
	}
	return ""
}

// rowToJSON keeps column order, which marshaling a map would not.
func rowToJSON(columns []string, row []string) string {
	var b strings.Builder
	b.WriteString("{")
	for i, col := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		key, _ := json.Marshal(col)
		b.Write(key)
		b.WriteString(": ")
		val := ""
		if i < len(row) {
			val = row[i]
		}
		encoded, _ := json.Marshal(val)
		b.Write(encoded)
	}
	b.WriteString("}")
	return b.String()
}

func truncateStatus(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
