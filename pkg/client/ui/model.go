// ABOUTME: Bubbletea model hosting the chat view, input line and modals
// ABOUTME: Enter goes through the command parser, keys through the action registry
package ui

import (
	"sort"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/client"
	"github.com/aeolun/superirc/pkg/client/actions"
	"github.com/aeolun/superirc/pkg/client/commands"
	"github.com/aeolun/superirc/pkg/client/completion"
	"github.com/aeolun/superirc/pkg/client/ui/modal"
)

const (
	serverPaneWidth = 22
	userPaneWidth   = 20
)

// Options wires the model to the rest of the client
type Options struct {
	Store     *client.MemoryStore
	Transport client.Transport
	Registry  *actions.Registry
	Parser    *commands.Parser
	Renderer  *ProgramRenderer
	Logger    *zap.Logger

	// TimestampFormat is a Go time layout, "15:04" when empty
	TimestampFormat string
}

// Model represents the application state
type Model struct {
	store     *client.MemoryStore
	transport client.Transport
	registry  *actions.Registry
	parser    *commands.Parser
	renderer  *ProgramRenderer
	logger    *zap.Logger

	// sendMu runs submitted lines and actions one at a time, in order
	sendMu *sync.Mutex

	input      textinput.Model
	messages   viewport.Model
	modalStack modal.ModalStack
	tab        completion.State

	width  int
	height int

	timestampFormat string
	statusMessage   string
	errorMessage    string
}

// commandResultMsg carries the outcome of a submitted input line
type commandResultMsg struct {
	input  string
	result commands.Result
	quit   bool
}

// actionResultMsg carries the outcome of a keybound or palette action
type actionResultMsg struct {
	id  string
	err error
}

// NewModel creates a new application model
func NewModel(opts Options) Model {
	input := textinput.New()
	input.Prompt = "> "
	input.Placeholder = "Type a message or /help"
	input.CharLimit = 0
	input.Focus()

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	format := opts.TimestampFormat
	if format == "" {
		format = "15:04"
	}

	return Model{
		store:           opts.Store,
		transport:       opts.Transport,
		registry:        opts.Registry,
		parser:          opts.Parser,
		renderer:        opts.Renderer,
		logger:          logger,
		sendMu:          &sync.Mutex{},
		input:           input,
		messages:        viewport.New(0, 0),
		timestampFormat: format,
	}
}

// Init starts the cursor blink
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// actionContext snapshots the store for an action or command
func (m Model) actionContext() actions.Context {
	var renderer client.Renderer
	if m.renderer != nil {
		renderer = m.renderer
	}
	return actions.NewContext(m.store, m.transport, renderer)
}

// completionOptions collects candidates for the active server and channel
func (m Model) completionOptions() completion.Options {
	opts := completion.Options{Commands: m.parser.CommandNames()}
	if srv := m.store.CurrentServer(); srv != nil {
		opts.Channels = m.store.Channels(srv.ID)
	}
	if ch := m.store.CurrentChannel(); ch != nil {
		opts.Users = ch.Users
	}
	return opts
}

// helpRows lists keybindings followed by slash commands
func (m Model) helpRows() [][]string {
	rows := [][]string{
		{"enter", "Send message or run command"},
		{"tab", "Complete nick, channel or command"},
		{"ctrl+k", "Search actions"},
		{"alt+left/right", "Previous/next channel"},
		{"alt+up/down", "Previous/next server"},
		{"pgup/pgdown", "Scroll messages"},
		{"ctrl+c", "Quit"},
	}
	all := m.registry.All()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	for _, a := range all {
		if a.Keybinding != "" {
			rows = append(rows, []string{a.Keybinding, a.Label})
		}
	}
	for _, name := range m.parser.CommandNames() {
		if def, ok := m.parser.Lookup(name); ok && def.Name == name {
			rows = append(rows, []string{def.Usage, def.Help})
		}
	}
	return rows
}
