package modal

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModal lists key bindings and slash commands
type HelpModal struct {
	helpContent [][]string // [key, description] pairs
}

// NewHelpModal creates a new help modal
func NewHelpModal(helpContent [][]string) *HelpModal {
	return &HelpModal{
		helpContent: helpContent,
	}
}

// Type returns the modal type
func (m *HelpModal) Type() ModalType {
	return ModalHelp
}

// HandleKey closes on f1 or esc and swallows everything else
func (m *HelpModal) HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd) {
	switch msg.String() {
	case "f1", "esc":
		return true, nil, nil
	default:
		return true, m, nil
	}
}

// Render returns the modal content
func (m *HelpModal) Render(width, height int) string {
	helpTitleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("39")).
		MarginBottom(1)

	helpKeyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("39")).
		Width(24)

	helpDescStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("252"))

	mutedTextStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("243")).
		Italic(true)

	var lines []string
	for _, row := range m.helpContent {
		if len(row) < 2 {
			continue
		}
		lines = append(lines, helpKeyStyle.Render(row[0])+"  "+helpDescStyle.Render(row[1]))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		helpTitleStyle.Render("Keys and Commands"),
		"",
		strings.Join(lines, "\n"),
		"",
		mutedTextStyle.Render("[Press F1 or Esc to close]"),
	)

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("39")).
		Padding(1, 2).
		Render(content)

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, modal)
}

// IsBlockingInput returns true
func (m *HelpModal) IsBlockingInput() bool {
	return true
}
