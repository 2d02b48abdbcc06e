package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// PaletteEntry is one selectable row
type PaletteEntry struct {
	ID    string
	Label string
	Key   string // keybinding hint, may be empty
}

// CommandPaletteModal searches actions as the user types
type CommandPaletteModal struct {
	input    string
	search   func(query string) []PaletteEntry
	entries  []PaletteEntry
	cursor   int
	onSelect func(id string) tea.Cmd
}

// NewCommandPaletteModal creates a palette. search is called with the
// current query on every edit; onSelect runs for the chosen entry.
func NewCommandPaletteModal(search func(query string) []PaletteEntry, onSelect func(id string) tea.Cmd) *CommandPaletteModal {
	m := &CommandPaletteModal{
		search:   search,
		onSelect: onSelect,
	}
	m.updateFilter()
	return m
}

// Type returns the modal type
func (m *CommandPaletteModal) Type() ModalType {
	return ModalCommandPalette
}

// Query returns the current search text
func (m *CommandPaletteModal) Query() string {
	return m.input
}

// Entries returns the current matches
func (m *CommandPaletteModal) Entries() []PaletteEntry {
	return m.entries
}

// HandleKey processes keyboard input
func (m *CommandPaletteModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.cursor < len(m.entries) && m.onSelect != nil {
			return true, nil, m.onSelect(m.entries[m.cursor].ID)
		}
		return true, nil, nil

	case "esc":
		return true, nil, nil

	case "up", "ctrl+p":
		if m.cursor > 0 {
			m.cursor--
		}
		return true, m, nil

	case "down", "ctrl+n":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
		return true, m, nil

	case "backspace":
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
			m.updateFilter()
		}
		return true, m, nil

	default:
		switch msg.Type {
		case tea.KeyRunes:
			m.input += string(msg.Runes)
			m.updateFilter()
		case tea.KeySpace:
			m.input += " "
			m.updateFilter()
		}
		return true, m, nil
	}
}

func (m *CommandPaletteModal) updateFilter() {
	m.cursor = 0
	m.entries = nil
	if m.search != nil {
		m.entries = m.search(strings.TrimSpace(m.input))
	}
}

// Render returns the modal content
func (m *CommandPaletteModal) Render(width, height int) string {
	primaryColor := lipgloss.Color("39")
	mutedColor := lipgloss.Color("243")

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(primaryColor).
		MarginBottom(1).
		Render("Actions")

	inputField := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(0, 1).
		Width(50).
		Render("> " + m.input + "█")

	const maxRows = 8
	start := 0
	if m.cursor >= maxRows {
		start = m.cursor - maxRows + 1
	}
	end := start + maxRows
	if end > len(m.entries) {
		end = len(m.entries)
	}

	var rows []string
	if len(m.entries) == 0 {
		rows = append(rows, lipgloss.NewStyle().Foreground(mutedColor).Render("  (no matching actions)"))
	}
	for i := start; i < end; i++ {
		e := m.entries[i]
		line := e.Label
		if e.Key != "" {
			line += lipgloss.NewStyle().Foreground(mutedColor).Render("  " + e.Key)
		}
		if i == m.cursor {
			rows = append(rows, lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("▶ ")+line)
		} else {
			rows = append(rows, "  "+line)
		}
	}

	helpText := lipgloss.NewStyle().
		Foreground(mutedColor).
		MarginTop(1).
		Render("[↑↓] Navigate  [Enter] Run  [Esc] Cancel")

	content := lipgloss.JoinVertical(lipgloss.Left, title, inputField, "", strings.Join(rows, "\n"), helpText)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Width(60).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// IsBlockingInput returns true
func (m *CommandPaletteModal) IsBlockingInput() bool {
	return true
}
