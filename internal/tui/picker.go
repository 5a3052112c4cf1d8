package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type pickerKind int

const (
	pickProject pickerKind = iota
	pickTask
	pickActivity
)

func (k pickerKind) title() string {
	switch k {
	case pickProject:
		return "Select Project"
	case pickTask:
		return "Select Task"
	case pickActivity:
		return "Select Activity"
	}
	return ""
}

type pickItem struct {
	id    string
	label string
}

// pickerModel is a filterable list: type to narrow, j/k to move, enter
// to choose. Used for the project, task and activity columns.
type pickerModel struct {
	kind     pickerKind
	input    textinput.Model
	items    []pickItem
	filtered []pickItem
	cursor   int
	loading  bool
}

func newPicker(kind pickerKind, items []pickItem) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "Type to filter..."
	ti.CharLimit = 100
	ti.Width = 40
	ti.Focus()

	return pickerModel{
		kind:     kind,
		input:    ti,
		items:    items,
		filtered: items,
	}
}

func (m *pickerModel) setItems(items []pickItem) {
	m.items = items
	m.loading = false
	m.filter()
}

func (m *pickerModel) filter() {
	query := strings.ToLower(m.input.Value())
	m.filtered = nil
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it.label), query) ||
			strings.Contains(strings.ToLower(it.id), query) {
			m.filtered = append(m.filtered, it)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = 0
	}
}

// selected returns the item under the cursor, if any.
func (m pickerModel) selected() (pickItem, bool) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return pickItem{}, false
	}
	return m.filtered[m.cursor], true
}

func (m pickerModel) Update(msg tea.Msg) (pickerModel, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "up", "ctrl+k":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down", "ctrl+j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.filter()
	return m, cmd
}

func (m pickerModel) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(m.kind.title()))
	sb.WriteString("\n")
	sb.WriteString(m.input.View())
	sb.WriteString("\n\n")

	if m.loading {
		sb.WriteString(dimStyle.Render("Loading..."))
		sb.WriteString("\n")
	} else if len(m.filtered) == 0 {
		sb.WriteString(dimStyle.Render("No matches"))
		sb.WriteString("\n")
	}

	limit := 8
	if len(m.filtered) < limit {
		limit = len(m.filtered)
	}
	for i, it := range m.filtered[:limit] {
		line := fmt.Sprintf("  %s", it.label)
		if it.id != it.label {
			line += dimStyle.Render(fmt.Sprintf("  (%s)", it.id))
		}
		if i == m.cursor {
			line = highlightStyle.Render("> " + it.label)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(helpStyle.Render("Enter: select • Esc: cancel • up/down: move"))
	return boxStyle.Render(sb.String())
}
