package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/client"
	"github.com/aeolun/superirc/pkg/client/completion"
	"github.com/aeolun/superirc/pkg/client/ui/modal"
)

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.refreshMessages()
		return m, nil

	case RefreshMsg:
		m.refreshMessages()
		return m, nil

	case commandResultMsg:
		return m.handleCommandResult(msg)

	case actionResultMsg:
		if msg.err != nil {
			m.errorMessage = msg.err.Error()
			m.logger.Debug("action failed", zap.String("action", msg.id), zap.Error(msg.err))
		} else {
			m.errorMessage = ""
		}
		m.refreshMessages()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKeyPress routes keys to the open modal, the built-in shortcuts,
// the action keybindings and finally the input line
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !m.modalStack.IsEmpty() {
		_, cmd := m.modalStack.HandleKey(msg)
		return m, cmd
	}

	key := msg.String()
	if key != "tab" {
		// Any other key ends the completion session
		m.tab = completion.Inactive
	}

	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.completeInput()
		return m, nil
	case "enter":
		return m.submit()
	case "f1":
		m.modalStack.Push(modal.NewHelpModal(m.helpRows()))
		return m, nil
	case "ctrl+k":
		m.modalStack.Push(m.newPalette())
		return m, nil
	case "alt+right":
		m.cycleChannel(1)
		return m, nil
	case "alt+left":
		m.cycleChannel(-1)
		return m, nil
	case "alt+down":
		m.cycleServer(1)
		return m, nil
	case "alt+up":
		m.cycleServer(-1)
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.messages, cmd = m.messages.Update(msg)
		return m, cmd
	}

	if action, ok := m.registry.FindByKeybinding(key); ok {
		return m, m.runAction(action.ID)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) completeInput() {
	res, ok := completion.Next(m.tab, m.input.Value(), m.completionOptions())
	if !ok {
		m.tab = completion.Inactive
		return
	}
	m.tab = res.State
	m.input.SetValue(res.Text)
	m.input.CursorEnd()
}

// submit hands the input line to the parser off the update loop
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.TrimSpace(text) == "" {
		return m, nil
	}
	m.input.Reset()
	m.statusMessage = ""
	m.errorMessage = ""

	fields := strings.Fields(text)
	quit := len(fields) > 0 && fields[0] == "/quit"

	parser := m.parser
	ac := m.actionContext()
	mu := m.sendMu
	return m, func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		return commandResultMsg{
			input:  text,
			result: parser.Parse(context.Background(), text, ac),
			quit:   quit,
		}
	}
}

func (m Model) handleCommandResult(msg commandResultMsg) (tea.Model, tea.Cmd) {
	if !msg.result.Success {
		m.errorMessage = msg.result.Error
		return m, nil
	}
	if msg.quit {
		return m, tea.Quit
	}
	if out := msg.result.Output; out != "" {
		if ch := m.store.CurrentChannel(); ch != nil {
			m.store.AddMessage(ch.ID, client.NewLocalMessage(client.KindSystem, "", ch.Name, out))
		} else {
			m.statusMessage = out
		}
	}
	m.refreshMessages()
	return m, nil
}

func (m Model) runAction(id string) tea.Cmd {
	registry := m.registry
	ac := m.actionContext()
	mu := m.sendMu
	return func() tea.Msg {
		mu.Lock()
		defer mu.Unlock()
		return actionResultMsg{id: id, err: registry.Execute(context.Background(), id, ac)}
	}
}

func (m Model) newPalette() *modal.CommandPaletteModal {
	registry := m.registry
	ac := m.actionContext()
	search := func(query string) []modal.PaletteEntry {
		var entries []modal.PaletteEntry
		for _, a := range registry.Search(query, ac) {
			entries = append(entries, modal.PaletteEntry{ID: a.ID, Label: a.Label, Key: a.Keybinding})
		}
		return entries
	}
	return modal.NewCommandPaletteModal(search, m.runAction)
}

// cycleChannel selects the next or previous buffer on the active server
func (m *Model) cycleChannel(step int) {
	srv := m.store.CurrentServer()
	if srv == nil {
		m.cycleServer(step)
		return
	}
	names := m.store.Channels(srv.ID)
	if len(names) == 0 {
		return
	}
	idx := -1
	if ch := m.store.CurrentChannel(); ch != nil {
		for i, name := range names {
			if client.ChannelID(srv.ID, name) == ch.ID {
				idx = i
				break
			}
		}
	}
	next := wrap(idx+step, len(names))
	if idx < 0 {
		next = 0
	}
	m.store.Select(srv.ID, names[next])
	m.refreshMessages()
}

// cycleServer selects the next or previous server and its first buffer
func (m *Model) cycleServer(step int) {
	servers := m.store.Servers()
	if len(servers) == 0 {
		return
	}
	idx := -1
	if srv := m.store.CurrentServer(); srv != nil {
		for i, s := range servers {
			if s.ID == srv.ID {
				idx = i
				break
			}
		}
	}
	next := wrap(idx+step, len(servers))
	if idx < 0 {
		next = 0
	}
	channel := ""
	if names := m.store.Channels(servers[next].ID); len(names) > 0 {
		channel = names[0]
	}
	m.store.Select(servers[next].ID, channel)
	m.refreshMessages()
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
