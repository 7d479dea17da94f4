package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/rubyelders/rb/pkg/project"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ScriptListModel - Interactive script selection
// =============================================================================

// scriptEntry is one row of the picker.
type scriptEntry struct {
	Name        string
	Command     string
	Description string
}

// scriptEntries lists the project's scripts in name order.
func scriptEntries(p *project.Runtime) []scriptEntry {
	names := p.ScriptNames()
	entries := make([]scriptEntry, 0, len(names))
	for _, name := range names {
		def := p.Scripts[name]
		entries = append(entries, scriptEntry{Name: name, Command: def.Command(), Description: def.Description()})
	}
	return entries
}

// ScriptListModel is the bubbletea model for interactive script selection.
type ScriptListModel struct {
	Title    string
	Scripts  []scriptEntry
	Cursor   int
	Selected string
	Height   int
	Offset   int
}

// NewScriptListModel creates a new script list model.
func NewScriptListModel(title string, scripts []scriptEntry) ScriptListModel {
	return ScriptListModel{
		Title:   title,
		Scripts: scripts,
		Height:  15,
	}
}

func (m ScriptListModel) Init() tea.Cmd {
	return nil
}

func (m ScriptListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Scripts)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Scripts) == 0 {
				return m, tea.Quit
			}
			m.Selected = m.Scripts[m.Cursor].Name
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ScriptListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ run  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Scripts))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		s := m.Scripts[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = iconSelected + " "
		}
		desc := s.Description
		if desc == "" {
			desc = "—"
		}
		rows = append(rows, []string{cursor, s.Name, s.Command, desc})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Script", "Command", "Description").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			isCurrent := m.Offset+row == m.Cursor
			base := lipgloss.NewStyle()
			if col == 2 || col == 3 {
				base = base.Foreground(colorDim)
				if isCurrent {
					base = base.Foreground(colorGray)
				}
				return base
			}
			if isCurrent {
				return base.Foreground(colorGreen).Bold(true)
			}
			return base.Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Scripts))))

	return b.String()
}

// pickScript runs the picker and returns the chosen script name, or ""
// when the user quit without choosing.
func pickScript(p *project.Runtime) (string, error) {
	title := "Select Script"
	if p.Metadata.Name != "" {
		title = p.Metadata.Name + " scripts"
	}
	final, err := tea.NewProgram(NewScriptListModel(title, scriptEntries(p))).Run()
	if err != nil {
		return "", err
	}
	return final.(ScriptListModel).Selected, nil
}
