package ui

import (
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
)

// RefreshMsg asks the model to rebuild its content from the store
type RefreshMsg struct{}

// ProgramRenderer forwards invalidations from IRC event goroutines into
// the bubbletea program
type ProgramRenderer struct {
	program atomic.Pointer[tea.Program]
}

// Attach sets the program to notify. Invalidations before Attach are dropped.
func (r *ProgramRenderer) Attach(p *tea.Program) {
	r.program.Store(p)
}

// Invalidate schedules a redraw
func (r *ProgramRenderer) Invalidate() {
	if r == nil {
		return
	}
	if p := r.program.Load(); p != nil {
		go p.Send(RefreshMsg{})
	}
}
