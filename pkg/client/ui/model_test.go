package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/aeolun/superirc/pkg/client"
	"github.com/aeolun/superirc/pkg/client/actions"
	"github.com/aeolun/superirc/pkg/client/commands"
	"github.com/aeolun/superirc/pkg/client/completion"
	"github.com/aeolun/superirc/pkg/client/ui/modal"
	"github.com/aeolun/superirc/pkg/protocol"
)

type testEnv struct {
	store     *client.MemoryStore
	transport *client.MockTransport
}

// SetupTestModelWithDimensions builds a model on srv1/#general with a mock
// transport and a sized window
func SetupTestModelWithDimensions(t *testing.T, width, height int) (Model, *testEnv) {
	t.Helper()

	store := client.NewMemoryStore(client.PaneFlags{ServerPane: true}, nil)
	store.AddServer(client.Server{ID: "srv1", Name: "Libera", Nick: "me"})
	store.Select("srv1", "#general")
	store.SetUsers("srv1", "#general", []string{"alice", "alicia", "bob", "me"})

	transport := client.NewMockTransport()
	registry := actions.NewRegistry()
	actions.RegisterDefaults(registry)
	parser := commands.NewParser(registry, client.NewSender(transport, store, nil, nil), nil)

	m := NewModel(Options{
		Store:     store,
		Transport: transport,
		Registry:  registry,
		Parser:    parser,
	})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: width, Height: height})
	return updated.(Model), &testEnv{store: store, transport: transport}
}

func press(t *testing.T, m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	return updated.(Model), cmd
}

// drain runs cmd and feeds its message back into the model
func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	updated, _ := m.Update(cmd())
	return updated.(Model)
}

func TestTabCompletionCycles(t *testing.T) {
	m, _ := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("al")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "alice: " {
		t.Fatalf("first tab: got %q", got)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "alicia: " {
		t.Fatalf("second tab: got %q", got)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "alice: " {
		t.Fatalf("third tab should wrap: got %q", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if m.tab.Active {
		t.Error("typing should end the completion session")
	}
	if got := m.input.Value(); got != "alice: x" {
		t.Errorf("typed text: got %q", got)
	}
}

func TestTabCompletionCommandsAndChannels(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	env.store.EnsureChannel("srv1", "#golang")

	m.input.SetValue("/he")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "/help " {
		t.Errorf("command completion: got %q", got)
	}

	m.tab = completion.Inactive
	m.input.SetValue("/join #gol")
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if got := m.input.Value(); got != "/join #golang " {
		t.Errorf("channel completion: got %q", got)
	}
}

func TestTabWithNothingToComplete(t *testing.T) {
	m, _ := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("   ")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.tab.Active {
		t.Error("whitespace should not start a completion")
	}
	if m.input.Value() != "   " {
		t.Error("input should be unchanged")
	}
}

func TestEnterSendsMessage(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("hello world")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.input.Value() != "" {
		t.Error("input should be cleared on submit")
	}
	m = drain(t, m, cmd)

	lines := env.transport.Lines()
	if len(lines) != 1 || lines[0] != "PRIVMSG #general :hello world" {
		t.Fatalf("unexpected lines %v", lines)
	}
	if m.errorMessage != "" {
		t.Errorf("unexpected error %q", m.errorMessage)
	}
	ch := env.store.Channel("srv1", "#general")
	if len(ch.Messages) != 1 || !ch.Messages[0].Local {
		t.Errorf("expected a local echo, got %+v", ch.Messages)
	}
}

func TestQueuedSubmitsDoNotInterleave(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	env.transport.Caps["srv1"] = protocol.NewCapabilities(protocol.CapMultiline, protocol.CapEchoMessage)
	env.transport.Delay = 2 * time.Millisecond

	var cmds []tea.Cmd
	for _, text := range []string{strings.Repeat("word ", 300), "/me waves", "hello"} {
		m.input.SetValue(text)
		var cmd tea.Cmd
		m, cmd = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
		if cmd == nil {
			t.Fatalf("no command for %q", text)
		}
		cmds = append(cmds, cmd)
	}

	// Bubbletea runs commands concurrently
	var wg sync.WaitGroup
	for _, cmd := range cmds {
		wg.Add(1)
		go func(cmd tea.Cmd) {
			defer wg.Done()
			if res, ok := cmd().(commandResultMsg); !ok || !res.result.Success {
				t.Errorf("submit failed: %+v", res)
			}
		}(cmd)
	}
	wg.Wait()

	lines := env.transport.Lines()
	if len(lines) < 6 {
		t.Fatalf("expected a batch plus two lines, got %v", lines)
	}
	open := ""
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "BATCH +"):
			open = strings.Fields(line)[1][1:]
		case strings.HasPrefix(line, "BATCH -"):
			open = ""
		case open != "" && !strings.HasPrefix(line, "@batch="+open):
			t.Fatalf("line %d %q landed inside batch %s", i, line, open)
		}
	}
	if open != "" {
		t.Fatalf("batch %s never closed", open)
	}
}

func TestEnterShowsCommandError(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("/frobnicate")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = drain(t, m, cmd)

	if m.errorMessage == "" {
		t.Error("unknown command should set an error")
	}
	if len(env.transport.Lines()) != 0 {
		t.Error("nothing should be sent")
	}
	if !strings.Contains(m.errorMessage, "frobnicate") {
		t.Errorf("error %q should name the command", m.errorMessage)
	}
}

func TestEnterIgnoresBlankInput(t *testing.T) {
	m, _ := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("  ")

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("blank input should not be submitted")
	}
}

func TestHelpOutputGoesToBuffer(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("/help whisper")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	drain(t, m, cmd)

	msgs := env.store.Channel("srv1", "#general").Messages
	if len(msgs) != 1 || msgs[0].Kind != client.KindSystem {
		t.Fatalf("expected one system message, got %+v", msgs)
	}
	if !strings.Contains(msgs[0].Content, "/whisper") {
		t.Errorf("help output %q should mention /whisper", msgs[0].Content)
	}
}

func TestQuitCommandQuits(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	m.input.SetValue("/quit bye")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	_, quitCmd := m.Update(cmd())

	if quitCmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := quitCmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if lines := env.transport.Lines(); len(lines) != 1 || lines[0] != "QUIT :bye" {
		t.Errorf("unexpected lines %v", lines)
	}
}

func TestKeybindingRunsAction(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	if env.store.Panes().UserPane {
		t.Fatal("user pane should start hidden")
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyCtrlU})
	m = drain(t, m, cmd)

	if !env.store.Panes().UserPane {
		t.Error("ctrl+u should show the user pane")
	}
	if !strings.Contains(m.View(), "Users") {
		t.Error("view should render the user pane")
	}
	if m.input.Value() != "" {
		t.Error("bound key should not reach the input")
	}
}

func TestPaletteRunsSelectedAction(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlK})
	if m.modalStack.TopType() != modal.ModalCommandPalette {
		t.Fatal("ctrl+k should open the palette")
	}
	for _, r := range "timestamps" {
		m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.modalStack.IsEmpty() {
		t.Error("enter should close the palette")
	}
	drain(t, m, cmd)

	if !env.store.Panes().Timestamps {
		t.Error("palette selection should toggle timestamps")
	}
}

func TestHelpModal(t *testing.T) {
	m, _ := SetupTestModelWithDimensions(t, 120, 40)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyF1})
	if m.modalStack.TopType() != modal.ModalHelp {
		t.Fatal("f1 should open help")
	}
	if !strings.Contains(m.View(), "/whisper") {
		t.Error("help should list commands")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if !m.modalStack.IsEmpty() {
		t.Error("esc should close help")
	}
}

func TestCycleChannel(t *testing.T) {
	m, env := SetupTestModelWithDimensions(t, 100, 30)
	env.store.EnsureChannel("srv1", "#golang")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	if ch := env.store.CurrentChannel(); ch == nil || ch.Name != "#golang" {
		t.Fatalf("expected #golang, got %+v", ch)
	}
	press(t, m, tea.KeyMsg{Type: tea.KeyRight, Alt: true})
	if ch := env.store.CurrentChannel(); ch == nil || ch.Name != "#general" {
		t.Errorf("expected wrap to #general, got %+v", ch)
	}
}

func TestFormatMessage(t *testing.T) {
	ts := time.Date(2026, 1, 2, 13, 45, 0, 0, time.UTC)

	tests := []struct {
		name string
		msg  client.Message
		want []string
	}{
		{"privmsg", client.Message{Kind: client.KindMessage, From: "bob", Content: "hi"}, []string{"<bob>", "hi"}},
		{"action", client.Message{Kind: client.KindAction, From: "bob", Content: "waves"}, []string{"* ", "bob", "waves"}},
		{"notice", client.Message{Kind: client.KindNotice, From: "srv", Content: "note"}, []string{"-srv-", "note"}},
		{"whisper", client.Message{Kind: client.KindWhisper, From: "carol", Content: "psst"}, []string{"carol whispers: psst"}},
		{"timestamp", client.Message{Kind: client.KindMessage, From: "bob", Content: "hi", Timestamp: ts}, []string{"13:45"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatMessage(tt.msg, "me", true, "15:04")
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("%q missing %q", got, w)
				}
			}
		})
	}

	if got := formatMessage(client.Message{From: "bob", Content: "hi", Timestamp: ts}, "me", false, "15:04"); strings.Contains(got, "13:45") {
		t.Errorf("timestamps disabled but got %q", got)
	}
}

func TestViewBeforeResize(t *testing.T) {
	m := NewModel(Options{Store: client.NewMemoryStore(client.PaneFlags{}, nil)})
	if m.View() != "Loading..." {
		t.Error("unsized view should show loading")
	}
}

func TestProgramRendererWithoutProgram(t *testing.T) {
	var r *ProgramRenderer
	r.Invalidate()
	(&ProgramRenderer{}).Invalidate()
}
