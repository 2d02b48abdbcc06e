package modal

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestModalStack(t *testing.T) {
	var s ModalStack
	if !s.IsEmpty() || s.TopType() != ModalNone {
		t.Fatal("new stack should be empty")
	}

	s.Push(NewHelpModal([][]string{{"f1", "help"}}))
	if s.TopType() != ModalHelp {
		t.Fatalf("expected help on top, got %v", s.TopType())
	}

	handled, _ := s.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
	if !handled || s.IsEmpty() {
		t.Error("help should swallow keys and stay open")
	}

	s.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if !s.IsEmpty() {
		t.Error("esc should close help")
	}
	if s.Pop() != nil {
		t.Error("pop on empty stack should return nil")
	}
}

func TestCommandPaletteFiltersAndSelects(t *testing.T) {
	all := []PaletteEntry{
		{ID: "view.toggle-user-pane", Label: "Toggle User List", Key: "ctrl+u"},
		{ID: "view.toggle-timestamps", Label: "Toggle Timestamps", Key: "alt+t"},
	}
	var queries []string
	search := func(q string) []PaletteEntry {
		queries = append(queries, q)
		var out []PaletteEntry
		for _, e := range all {
			if q == "" || e.Label == "Toggle Timestamps" && q == "time" {
				out = append(out, e)
			}
		}
		return out
	}
	var selected string
	p := NewCommandPaletteModal(search, func(id string) tea.Cmd {
		selected = id
		return nil
	})
	if len(p.Entries()) != 2 {
		t.Fatalf("empty query should list everything, got %d", len(p.Entries()))
	}

	for _, r := range "time" {
		p.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	if p.Query() != "time" || len(p.Entries()) != 1 {
		t.Fatalf("query %q entries %v", p.Query(), p.Entries())
	}

	_, next, _ := p.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if next != nil {
		t.Error("enter should close the palette")
	}
	if selected != "view.toggle-timestamps" {
		t.Errorf("selected %q", selected)
	}
	if queries[len(queries)-1] != "time" {
		t.Errorf("last query %q", queries[len(queries)-1])
	}
}

func TestCommandPaletteNavigation(t *testing.T) {
	entries := []PaletteEntry{{ID: "a", Label: "A"}, {ID: "b", Label: "B"}}
	var selected string
	p := NewCommandPaletteModal(func(string) []PaletteEntry { return entries }, func(id string) tea.Cmd {
		selected = id
		return nil
	})

	p.HandleKey(tea.KeyMsg{Type: tea.KeyDown})
	p.HandleKey(tea.KeyMsg{Type: tea.KeyDown})
	p.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	if selected != "b" {
		t.Errorf("expected b, got %q", selected)
	}

	_, next, _ := p.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if next != nil {
		t.Error("esc should close the palette")
	}
}
