package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/aeolun/superirc/pkg/client"
)

// layout sizes the message viewport for the current window and panes
func (m *Model) layout() {
	panes := m.store.Panes()
	width := m.width - 2 // message pane border
	if panes.ServerPane {
		width -= serverPaneWidth + 2
	}
	if panes.UserPane {
		width -= userPaneWidth + 2
	}
	height := m.height - 6 // header, input box, footer, pane border
	m.messages.Width = max(width, 10)
	m.messages.Height = max(height, 1)
	m.input.Width = max(m.width-6, 10)
}

// refreshMessages rebuilds the viewport from the active buffer, keeping the
// scroll pinned to the bottom when it already was
func (m *Model) refreshMessages() {
	m.layout()
	atBottom := m.messages.AtBottom()

	ch := m.store.CurrentChannel()
	if ch == nil {
		m.messages.SetContent(MutedTextStyle.Render("No channel selected. Use /join #channel."))
		return
	}

	panes := m.store.Panes()
	own := ""
	if srv := m.store.CurrentServer(); srv != nil {
		own = srv.Nick
	}
	wrapStyle := lipgloss.NewStyle().Width(m.messages.Width)
	lines := make([]string, 0, len(ch.Messages))
	for _, msg := range ch.Messages {
		lines = append(lines, wrapStyle.Render(formatMessage(msg, own, panes.Timestamps, m.timestampFormat)))
	}
	m.messages.SetContent(strings.Join(lines, "\n"))
	if atBottom || m.messages.Height == 0 {
		m.messages.GotoBottom()
	}
}

// formatMessage renders one buffer line
func formatMessage(msg client.Message, ownNick string, timestamps bool, layout string) string {
	var b strings.Builder
	if timestamps && !msg.Timestamp.IsZero() {
		b.WriteString(MessageTimeStyle.Render(msg.Timestamp.Format(layout)))
		b.WriteString(" ")
	}

	author := MessageAuthorStyle
	if ownNick != "" && strings.EqualFold(msg.From, ownNick) {
		author = MessageOwnAuthorStyle
	}

	switch msg.Kind {
	case client.KindAction:
		b.WriteString("* " + author.Render(msg.From) + " " + MessageContentStyle.Render(msg.Content))
	case client.KindNotice:
		b.WriteString(author.Render("-"+msg.From+"-") + " " + MessageContentStyle.Render(msg.Content))
	case client.KindWhisper:
		if msg.Local {
			b.WriteString(WhisperStyle.Render(msg.Content))
		} else {
			b.WriteString(WhisperStyle.Render(fmt.Sprintf("%s whispers: %s", msg.From, msg.Content)))
		}
	case client.KindSystem:
		b.WriteString(MutedTextStyle.Render(msg.Content))
	case client.KindError:
		b.WriteString(RenderError(msg.Content))
	default:
		b.WriteString(author.Render("<"+msg.From+">") + " " + MessageContentStyle.Render(msg.Content))
	}
	return b.String()
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if top := m.modalStack.Top(); top != nil {
		return top.Render(m.width, m.height)
	}

	panes := m.store.Panes()
	paneHeight := m.messages.Height

	var columns []string
	if panes.ServerPane {
		columns = append(columns, m.renderServerPane(paneHeight))
	}
	columns = append(columns, MessagePaneStyle.Render(m.messages.View()))
	if panes.UserPane {
		columns = append(columns, m.renderUserPane(paneHeight))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		lipgloss.JoinHorizontal(lipgloss.Top, columns...),
		InputFocusedStyle.Width(m.width-2).Render(m.input.View()),
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	left := HeaderStyle.Render("superirc")
	status := "not connected"
	if srv := m.store.CurrentServer(); srv != nil {
		status = fmt.Sprintf("%s as %s", srv.Name, srv.Nick)
		if ch := m.store.CurrentChannel(); ch != nil {
			status = fmt.Sprintf("%s  %s", status, ch.Name)
			if ch.Topic != "" {
				status += "  " + MutedTextStyle.Render(ch.Topic)
			}
		}
	}
	header := left + StatusStyle.Render(status)
	return lipgloss.NewStyle().MaxWidth(m.width).Render(header)
}

func (m Model) renderFooter() string {
	content := strings.Join([]string{
		RenderShortcut("F1", "help"),
		RenderShortcut("ctrl+k", "actions"),
		RenderShortcut("tab", "complete"),
	}, "  ")
	if m.statusMessage != "" {
		content += "  " + SuccessStyle.Render(m.statusMessage)
	}
	if m.errorMessage != "" {
		content += "  " + RenderError(m.errorMessage)
	}
	return FooterStyle.MaxWidth(m.width).Render(content)
}

func (m Model) renderServerPane(height int) string {
	current := m.store.CurrentChannel()
	var lines []string
	for _, srv := range m.store.Servers() {
		lines = append(lines, PaneTitleStyle.Render(srv.Name))
		for _, name := range m.store.Channels(srv.ID) {
			style := UnselectedItemStyle
			if current != nil && current.ID == client.ChannelID(srv.ID, name) {
				style = SelectedItemStyle
			}
			lines = append(lines, style.Render("  "+name))
		}
	}
	return PaneStyle.Width(serverPaneWidth).Height(height).Render(strings.Join(lines, "\n"))
}

func (m Model) renderUserPane(height int) string {
	lines := []string{PaneTitleStyle.Render("Users")}
	if ch := m.store.CurrentChannel(); ch != nil {
		for _, nick := range ch.Users {
			lines = append(lines, UnselectedItemStyle.Render(nick))
		}
	}
	return PaneStyle.Width(userPaneWidth).Height(height).Render(strings.Join(lines, "\n"))
}
