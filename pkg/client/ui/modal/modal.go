// ABOUTME: Modal contract and the stack the chat view renders on top of
// ABOUTME: The top modal receives all keys while it blocks input
package modal

import tea "github.com/charmbracelet/bubbletea"

// ModalType identifies a modal
type ModalType int

const (
	ModalNone ModalType = iota
	ModalHelp
	ModalCommandPalette
)

// Modal is an overlay that takes keyboard focus
type Modal interface {
	Type() ModalType

	// HandleKey returns whether the key was consumed, the modal that should
	// replace this one (nil closes it) and a command to run
	HandleKey(msg tea.KeyMsg) (bool, Modal, tea.Cmd)

	Render(width, height int) string
	IsBlockingInput() bool
}

// ModalStack holds open modals, topmost last
type ModalStack struct {
	modals []Modal
}

// Push opens m on top of the stack
func (s *ModalStack) Push(m Modal) {
	s.modals = append(s.modals, m)
}

// Pop closes the top modal
func (s *ModalStack) Pop() Modal {
	if len(s.modals) == 0 {
		return nil
	}
	top := s.modals[len(s.modals)-1]
	s.modals = s.modals[:len(s.modals)-1]
	return top
}

// Top returns the top modal or nil
func (s *ModalStack) Top() Modal {
	if len(s.modals) == 0 {
		return nil
	}
	return s.modals[len(s.modals)-1]
}

// TopType returns the type of the top modal, ModalNone when empty
func (s *ModalStack) TopType() ModalType {
	if top := s.Top(); top != nil {
		return top.Type()
	}
	return ModalNone
}

// IsEmpty reports whether no modal is open
func (s *ModalStack) IsEmpty() bool {
	return len(s.modals) == 0
}

// HandleKey forwards msg to the top modal and applies the replacement it
// returns
func (s *ModalStack) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	top := s.Top()
	if top == nil {
		return false, nil
	}
	handled, next, cmd := top.HandleKey(msg)
	if next == nil {
		s.Pop()
	} else if next != top {
		s.modals[len(s.modals)-1] = next
	}
	return handled, cmd
}
