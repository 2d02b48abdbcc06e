package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/protocol"
)

var (
	ErrUnknownServer = errors.New("unknown server")
	ErrNotConnected  = errors.New("not connected")
)

// RequestedCaps are the capabilities asked for during negotiation
var RequestedCaps = map[string][]string{
	"batch":                 nil,
	"message-tags":          nil,
	"server-time":           nil,
	protocol.CapMultiline:   nil,
	protocol.CapEchoMessage: nil,
	"draft/chathistory":     nil,
}

// IRCTransport is a Transport over one girc client per server. Connection
// setup, capability negotiation and reconnects stay with girc.
type IRCTransport struct {
	mu      sync.RWMutex
	clients map[string]*girc.Client
	logger  *zap.Logger
}

// NewIRCTransport creates an empty transport
func NewIRCTransport(logger *zap.Logger) *IRCTransport {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IRCTransport{
		clients: make(map[string]*girc.Client),
		logger:  logger,
	}
}

// NewGircClient builds a girc client for a configured server
func NewGircClient(srv ServerSection) *girc.Client {
	user := srv.User
	if user == "" {
		user = srv.Nick
	}
	name := srv.RealName
	if name == "" {
		name = srv.Nick
	}
	return girc.New(girc.Config{
		Server:        srv.Host,
		Port:          srv.Port,
		Nick:          srv.Nick,
		User:          user,
		Name:          name,
		SSL:           srv.TLS,
		SupportedCaps: RequestedCaps,
	})
}

// Add registers the client for serverID, replacing any previous one
func (t *IRCTransport) Add(serverID string, c *girc.Client) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients[serverID] = c
}

// Client returns the girc client for serverID
func (t *IRCTransport) Client(serverID string) (*girc.Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.clients[serverID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownServer, serverID)
	}
	return c, nil
}

// SendRaw writes one line to the server
func (t *IRCTransport) SendRaw(ctx context.Context, serverID, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := protocol.ValidateLine(line); err != nil {
		return err
	}

	c, err := t.Client(serverID)
	if err != nil {
		return err
	}
	if !c.IsConnected() {
		return fmt.Errorf("%w: %s", ErrNotConnected, serverID)
	}

	t.logger.Debug("send", zap.String("server", serverID), zap.String("line", line))
	// Lines arrive framed and within budget; girc must not split them again
	return c.Cmd.SendRawNoSplit(line)
}

// SendWhisper sends a PRIVMSG to nick tagged with the channel it came from
func (t *IRCTransport) SendWhisper(ctx context.Context, serverID, nick, target, message string) error {
	return t.SendRaw(ctx, serverID, protocol.Whisper(nick, target, message))
}

// Capabilities reports which of the requested capabilities were acknowledged
func (t *IRCTransport) Capabilities(serverID string) protocol.Capabilities {
	c, err := t.Client(serverID)
	if err != nil {
		return nil
	}
	var enabled []string
	for name := range RequestedCaps {
		if c.HasCapability(name) {
			enabled = append(enabled, name)
		}
	}
	return protocol.NewCapabilities(enabled...)
}

// Close quits every connection
func (t *IRCTransport) Close() {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.clients {
		c.Close()
	}
}
