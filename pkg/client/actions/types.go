package actions

import (
	"context"

	"github.com/aeolun/superirc/pkg/client"
)

// Context is the view of client state handed to an action. Fields are
// nil when not available: no server or channel is active, or the host
// has no renderer.
type Context struct {
	Store          client.Store
	Client         client.Transport
	Renderer       client.Renderer
	CurrentServer  *client.Server
	CurrentChannel *client.Channel
}

// NewContext snapshots the active selection from store
func NewContext(store client.Store, transport client.Transport, renderer client.Renderer) Context {
	ac := Context{
		Store:    store,
		Client:   transport,
		Renderer: renderer,
	}
	if store != nil {
		ac.CurrentServer = store.CurrentServer()
		ac.CurrentChannel = store.CurrentChannel()
	}
	return ac
}

// Action is a single invokable operation
type Action struct {
	// ID is the unique registry key (e.g., "view.toggle-user-pane")
	ID string

	// Label is the human readable name shown in search results
	Label string

	// Category groups actions (e.g., "view", "channel")
	Category string

	Description string

	// Keywords are extra search terms
	Keywords []string

	// Priority orders search results, higher first. nil ranks lowest.
	Priority *int

	// Keybinding is the key that triggers this action (e.g., "ctrl+u")
	Keybinding string

	// Execute runs the action
	Execute func(ctx context.Context, ac Context, args ...string) error

	// IsEnabled gates execution; nil means always enabled
	IsEnabled func(ac Context) bool

	// IsVisible gates search results; nil means always visible
	IsVisible func(ac Context) bool
}

func (a *Action) priority() (int, bool) {
	if a.Priority == nil {
		return 0, false
	}
	return *a.Priority, true
}

// Builder provides a fluent interface for building actions
type Builder struct {
	a Action
}

// NewAction creates a new action builder
func NewAction(id string) *Builder {
	return &Builder{a: Action{ID: id}}
}

// Label sets the display label
func (b *Builder) Label(label string) *Builder {
	b.a.Label = label
	return b
}

// Category sets the category
func (b *Builder) Category(category string) *Builder {
	b.a.Category = category
	return b
}

// Describe sets the description
func (b *Builder) Describe(text string) *Builder {
	b.a.Description = text
	return b
}

// Keywords sets extra search terms
func (b *Builder) Keywords(words ...string) *Builder {
	b.a.Keywords = words
	return b
}

// Priority sets the search priority (higher = listed first)
func (b *Builder) Priority(p int) *Builder {
	b.a.Priority = &p
	return b
}

// Key sets the keybinding
func (b *Builder) Key(binding string) *Builder {
	b.a.Keybinding = binding
	return b
}

// When sets the enablement condition
func (b *Builder) When(fn func(Context) bool) *Builder {
	b.a.IsEnabled = fn
	return b
}

// VisibleWhen sets the visibility condition
func (b *Builder) VisibleWhen(fn func(Context) bool) *Builder {
	b.a.IsVisible = fn
	return b
}

// Do sets the execution function
func (b *Builder) Do(fn func(ctx context.Context, ac Context, args ...string) error) *Builder {
	b.a.Execute = fn
	return b
}

// Build returns the constructed Action
func (b *Builder) Build() Action {
	return b.a
}
