package explorer

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joacominatel/dbdeck/internal/app"
	"github.com/joacominatel/dbdeck/internal/database"
	"github.com/joacominatel/dbdeck/internal/tui/theme"
)

// NodeKind identifies the type of a tree node.
type NodeKind int

const (
	NodeDatabase NodeKind = iota
	NodeSchema
	NodeTable
	NodeView
	NodeColumn
)

// TreeNode represents a single node in the schema tree.
type TreeNode struct {
	Kind     NodeKind
	Name     string
	Children []*TreeNode
	Expanded bool
	Loaded   bool // children fetched

	Schema   string // parent schema (tables, views, columns)
	Table    string // parent table (columns)
	DataType string
}

func (n *TreeNode) relation() bool {
	return n.Kind == NodeTable || n.Kind == NodeView
}

type flatItem struct {
	node  *TreeNode
	depth int
}

// RequestColumnsMsg asks the app to load columns of a table.
type RequestColumnsMsg struct {
	Schema string
	Table  string
}

// BrowseTableMsg asks the app to open the first page of a table.
type BrowseTableMsg struct {
	Table string
}

// IntrospectMsg asks the app to show the structure of a table.
type IntrospectMsg struct {
	Table string
}

// Model is the explorer (schema tree) component.
type Model struct {
	tree    *TreeNode
	items   []flatItem
	cursor  int
	width   int
	height  int
	focused bool
	loading bool
}

// New creates a new explorer model.
func New() Model {
	return Model{}
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

// SetTree populates the explorer from a schema tree. Schemas start
// collapsed unless there is only one.
func (m *Model) SetTree(tree *app.SchemaTree) {
	root := &TreeNode{Kind: NodeDatabase, Name: tree.Database, Expanded: true, Loaded: true}

	for _, s := range tree.Schemas {
		schemaNode := &TreeNode{
			Kind:     NodeSchema,
			Name:     s.Name,
			Expanded: len(tree.Schemas) == 1,
			Loaded:   true,
		}
		for _, t := range s.Tables {
			kind := NodeTable
			if t.Type == database.TableTypeView {
				kind = NodeView
			}
			schemaNode.Children = append(schemaNode.Children, &TreeNode{Kind: kind, Name: t.Name, Schema: s.Name})
		}
		root.Children = append(root.Children, schemaNode)
	}

	m.tree = root
	m.cursor = 0
	m.loading = false
	m.flatten()
}

// SetColumns adds column nodes to a table node.
func (m *Model) SetColumns(schema, table string, columns []database.ColumnType) {
	node := m.find(schema, table)
	if node == nil {
		return
	}
	node.Children = nil
	for _, col := range columns {
		node.Children = append(node.Children, &TreeNode{
			Kind:     NodeColumn,
			Name:     col.Name,
			Schema:   schema,
			Table:    table,
			DataType: col.DataType,
		})
	}
	node.Loaded = true
	m.flatten()
}

func (m *Model) find(schema, table string) *TreeNode {
	if m.tree == nil {
		return nil
	}
	for _, s := range m.tree.Children {
		if s.Name != schema {
			continue
		}
		for _, t := range s.Children {
			if t.Name == table {
				return t
			}
		}
	}
	return nil
}

// SelectedTable returns the schema-qualified name of the table under the
// cursor, or of the table owning the selected column.
func (m Model) SelectedTable() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "", false
	}
	node := m.items[m.cursor].node
	switch {
	case node.relation():
		return database.TableName{Schema: node.Schema, Name: node.Name}.String(), true
	case node.Kind == NodeColumn:
		return database.TableName{Schema: node.Schema, Name: node.Table}.String(), true
	}
	return "", false
}

func (m *Model) flatten() {
	m.items = nil
	if m.tree != nil {
		m.flattenNode(m.tree, 0)
	}
	if m.cursor >= len(m.items) {
		m.cursor = max(0, len(m.items)-1)
	}
}

func (m *Model) flattenNode(node *TreeNode, depth int) {
	m.items = append(m.items, flatItem{node: node, depth: depth})
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child, depth+1)
		}
	}
}

// Init returns the initial command (none).
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the explorer.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case "g":
		m.cursor = 0
	case "G":
		m.cursor = max(0, len(m.items)-1)
	case "enter", "right", "l":
		return m, m.toggleExpand()
	case "left", "h":
		m.collapse()
	case "s":
		if table, ok := m.SelectedTable(); ok {
			return m, func() tea.Msg { return BrowseTableMsg{Table: table} }
		}
	case "i":
		if table, ok := m.SelectedTable(); ok {
			return m, func() tea.Msg { return IntrospectMsg{Table: table} }
		}
	}
	return m, nil
}

func (m *Model) toggleExpand() tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return nil
	}
	node := m.items[m.cursor].node
	if node.Kind == NodeColumn {
		return nil
	}

	node.Expanded = !node.Expanded
	m.flatten()

	if node.Expanded && node.relation() && !node.Loaded {
		schema, table := node.Schema, node.Name
		return func() tea.Msg {
			return RequestColumnsMsg{Schema: schema, Table: table}
		}
	}
	return nil
}

// collapse folds the node under the cursor, or its parent when the node is
// already folded.
func (m *Model) collapse() {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return
	}
	item := m.items[m.cursor]
	if item.node.Expanded {
		item.node.Expanded = false
		m.flatten()
		return
	}
	for i := m.cursor - 1; i >= 0; i-- {
		if m.items[i].depth < item.depth {
			m.cursor = i
			m.items[i].node.Expanded = false
			m.flatten()
			return
		}
	}
}

// View renders the explorer.
func (m Model) View() string {
	title := lipgloss.NewStyle().
		Foreground(theme.ColorPrimary).
		Bold(true).
		Padding(0, 1).
		Render("Schema Explorer")

	if m.loading {
		return title + "\n" + theme.StyleMuted.Render("  Loading...")
	}
	if m.tree == nil {
		return title + "\n" + theme.StyleMuted.Render("  No connection")
	}

	visible := max(1, m.height-2)
	offset := 0
	if m.cursor >= visible {
		offset = m.cursor - visible + 1
	}

	lines := []string{title}
	for i := offset; i < len(m.items) && i < offset+visible; i++ {
		lines = append(lines, m.renderNode(m.items[i], i == m.cursor))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderNode(item flatItem, selected bool) string {
	node := item.node
	indent := strings.Repeat("  ", item.depth)

	icon := "▶ "
	switch {
	case node.Kind == NodeColumn:
		icon = "  "
	case node.Expanded:
		icon = "▼ "
	}

	name := node.Name
	switch node.Kind {
	case NodeView:
		name += lipgloss.NewStyle().Foreground(theme.ColorView).Render(" (view)")
	case NodeColumn:
		if node.DataType != "" {
			name += " " + theme.StyleMuted.Render(node.DataType)
		}
	}

	line := indent + icon + name
	if m.width > 4 && lipgloss.Width(line) > m.width-2 {
		runes := []rune(indent + icon + node.Name)
		if len(runes) > m.width-4 {
			runes = runes[:m.width-4]
		}
		line = string(runes) + ".."
	}

	if selected {
		return theme.StyleSelected.Render(line)
	}
	return line
}
