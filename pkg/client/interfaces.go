package client

import (
	"context"

	"github.com/aeolun/superirc/pkg/protocol"
)

// Transport sends lines over an already-connected IRC session.
// Implementations must be safe to call from the UI goroutine.
type Transport interface {
	// SendRaw writes one wire line (without CRLF) to the given server
	SendRaw(ctx context.Context, serverID, line string) error

	// SendWhisper sends a private message to nick scoped to target
	SendWhisper(ctx context.Context, serverID, nick, target, message string) error

	// Capabilities returns the capabilities enabled on the server connection
	Capabilities(serverID string) protocol.Capabilities
}

// Store is the client-side view of servers, channels and messages
type Store interface {
	// Active selection, nil when absent
	CurrentServer() *Server
	CurrentChannel() *Channel

	Server(id string) *Server
	Channel(serverID, name string) *Channel

	// AddMessage appends a message to the channel with the given ID
	AddMessage(channelID string, msg Message)

	// Pane toggles return the new value
	ToggleUserPane() bool
	ToggleServerPane() bool
	ToggleTimestamps() bool
	Panes() PaneFlags
}

// Renderer is notified when visible state changed outside the event loop
type Renderer interface {
	Invalidate()
}

// Preferences persists small key/value settings across restarts
type Preferences interface {
	GetConfig(key string) (string, error)
	SetConfig(key, value string) error
}
