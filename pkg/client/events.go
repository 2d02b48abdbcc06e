// ABOUTME: Incoming IRC event handlers that keep the store in sync with girc
// ABOUTME: Also raises desktop notifications when our nick is mentioned
package client

import (
	"strings"

	"github.com/gen2brain/beeep"
	"github.com/lrstanley/girc"
	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/protocol"
)

// Notifier shows out-of-band alerts such as highlights
type Notifier interface {
	Notify(title, body string) error
}

// DesktopNotifier raises OS notifications
type DesktopNotifier struct{}

// Notify shows a desktop notification
func (DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}

// EventBridge copies incoming girc events into a MemoryStore
type EventBridge struct {
	ServerID string
	Store    *MemoryStore
	Renderer Renderer
	Notifier Notifier // nil disables highlight notifications
	Logger   *zap.Logger

	// AutoJoin lists channels joined after registration
	AutoJoin []string
}

// Attach registers the bridge's handlers on c
func (b *EventBridge) Attach(c *girc.Client) {
	if b.Logger == nil {
		b.Logger = zap.NewNop()
	}

	c.Handlers.Add(girc.CONNECTED, b.onConnected)
	c.Handlers.Add(girc.PRIVMSG, b.onMessage)
	c.Handlers.Add(girc.NOTICE, b.onMessage)
	c.Handlers.Add(girc.JOIN, b.onJoin)
	c.Handlers.Add(girc.PART, b.onPart)
	c.Handlers.Add(girc.TOPIC, b.onTopic)
	c.Handlers.Add(girc.RPL_TOPIC, b.onTopic)
	c.Handlers.Add(girc.NICK, b.onMembership)
	c.Handlers.Add(girc.QUIT, b.onMembership)
	c.Handlers.Add(girc.KICK, b.onMembership)
	c.Handlers.Add(girc.RPL_ENDOFNAMES, b.onMembership)
}

func (b *EventBridge) invalidate() {
	if b.Renderer != nil {
		b.Renderer.Invalidate()
	}
}

func (b *EventBridge) onConnected(c *girc.Client, e girc.Event) {
	b.Store.SetNick(b.ServerID, c.GetNick())
	b.Logger.Info("registered with server",
		zap.String("server", b.ServerID),
		zap.String("nick", c.GetNick()))
	if len(b.AutoJoin) > 0 {
		c.Cmd.Join(b.AutoJoin...)
	}
	b.invalidate()
}

// bufferFor picks the buffer a message belongs to: the channel, or the
// other party for private messages
func (b *EventBridge) bufferFor(c *girc.Client, e girc.Event) string {
	if len(e.Params) == 0 {
		return ""
	}
	target := e.Params[0]
	if protocol.IsChannel(target) {
		return target
	}
	if e.Source != nil && !strings.EqualFold(e.Source.Name, c.GetNick()) {
		return e.Source.Name
	}
	return target
}

func (b *EventBridge) onMessage(c *girc.Client, e girc.Event) {
	buffer := b.bufferFor(c, e)
	if buffer == "" || e.Source == nil {
		return
	}

	kind := KindMessage
	content := e.Last()
	switch {
	case e.Command == girc.NOTICE:
		kind = KindNotice
	case e.IsAction():
		kind = KindAction
		content = strings.TrimSuffix(strings.TrimPrefix(content, "\x01ACTION "), "\x01")
	}
	if ctx, ok := e.Tags.Get(protocol.TagChannelContext); ok && !protocol.IsChannel(e.Params[0]) {
		// Whisper: show it in the channel it was sent from
		kind = KindWhisper
		buffer = ctx
	}

	b.Store.AddMessage(ChannelID(b.ServerID, buffer), Message{
		Kind:      kind,
		From:      e.Source.Name,
		Target:    e.Params[0],
		Content:   content,
		Timestamp: e.Timestamp,
	})

	nick := c.GetNick()
	if b.Notifier != nil && !strings.EqualFold(e.Source.Name, nick) && mentions(content, nick) {
		if err := b.Notifier.Notify(e.Source.Name+" in "+buffer, content); err != nil {
			b.Logger.Debug("notification failed", zap.Error(err))
		}
	}
	b.invalidate()
}

// mentions reports whether text contains nick as a whole word
func mentions(text, nick string) bool {
	if nick == "" {
		return false
	}
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return r == ' ' || r == ',' || r == ':' || r == '!' || r == '?' || r == '.'
	})
	nick = strings.ToLower(nick)
	for _, f := range fields {
		if f == nick {
			return true
		}
	}
	return false
}

func (b *EventBridge) onJoin(c *girc.Client, e girc.Event) {
	if len(e.Params) == 0 || e.Source == nil {
		return
	}
	channel := e.Params[0]
	if strings.EqualFold(e.Source.Name, c.GetNick()) {
		b.Store.EnsureChannel(b.ServerID, channel)
		if b.Store.CurrentChannel() == nil {
			b.Store.Select(b.ServerID, channel)
		}
	}
	b.refreshUsers(c, channel)
	b.invalidate()
}

func (b *EventBridge) onPart(c *girc.Client, e girc.Event) {
	if len(e.Params) == 0 || e.Source == nil {
		return
	}
	channel := e.Params[0]
	if strings.EqualFold(e.Source.Name, c.GetNick()) {
		b.Store.RemoveChannel(b.ServerID, channel)
	} else {
		b.refreshUsers(c, channel)
	}
	b.invalidate()
}

func (b *EventBridge) onTopic(c *girc.Client, e girc.Event) {
	if len(e.Params) < 2 {
		return
	}
	// TOPIC <channel> :<topic>, RPL_TOPIC <nick> <channel> :<topic>
	channel := e.Params[0]
	if e.Command == girc.RPL_TOPIC && len(e.Params) >= 3 {
		channel = e.Params[1]
	}
	b.Store.SetTopic(b.ServerID, channel, e.Last())
	b.invalidate()
}

func (b *EventBridge) onMembership(c *girc.Client, e girc.Event) {
	b.Store.SetNick(b.ServerID, c.GetNick())
	for _, channel := range c.ChannelList() {
		b.refreshUsers(c, channel)
	}
	b.invalidate()
}

func (b *EventBridge) refreshUsers(c *girc.Client, channel string) {
	ch := c.LookupChannel(channel)
	if ch == nil {
		return
	}
	var nicks []string
	for _, u := range ch.Users(c) {
		nicks = append(nicks, u.Nick)
	}
	b.Store.SetUsers(b.ServerID, channel, nicks)
}
