// ABOUTME: In-memory client store for servers, channels, users and messages
// ABOUTME: Pane visibility flags are optionally persisted through Preferences
package client

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MessageKind classifies a message in a channel buffer
type MessageKind string

const (
	KindMessage MessageKind = "message"
	KindAction  MessageKind = "action"
	KindNotice  MessageKind = "notice"
	KindWhisper MessageKind = "whisper"
	KindSystem  MessageKind = "system"
	KindError   MessageKind = "error"
)

// Message is one line in a channel buffer
type Message struct {
	ID        string
	Kind      MessageKind
	From      string
	Target    string
	Content   string
	Timestamp time.Time
	// Local marks messages synthesized by the client rather than received
	Local bool
}

// NewLocalMessage creates a client-synthesized message stamped with the current time
func NewLocalMessage(kind MessageKind, from, target, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Kind:      kind,
		From:      from,
		Target:    target,
		Content:   content,
		Timestamp: time.Now(),
		Local:     true,
	}
}

// Server is a configured IRC network connection
type Server struct {
	ID   string
	Name string
	Nick string
}

// Channel is a buffer on a server: a channel or a query with one nick
type Channel struct {
	ID       string
	ServerID string
	Name     string
	Topic    string
	Users    []string
	Messages []Message
}

// ChannelID builds the store key for a channel buffer
func ChannelID(serverID, name string) string {
	return serverID + "/" + strings.ToLower(name)
}

// PaneFlags holds the UI visibility toggles
type PaneFlags struct {
	UserPane   bool
	ServerPane bool
	Timestamps bool
}

const (
	prefUserPane   = "ui.show_user_pane"
	prefServerPane = "ui.show_server_pane"
	prefTimestamps = "ui.show_timestamps"
)

// MemoryStore is a thread-safe in-memory Store
type MemoryStore struct {
	mu sync.RWMutex

	servers  map[string]*Server
	channels map[string]*Channel
	order    []string // server IDs in insertion order

	currentServer  string
	currentChannel string

	panes PaneFlags
	prefs Preferences

	// MaxMessages caps each channel buffer; 0 means unbounded
	MaxMessages int
}

// NewMemoryStore creates a store with the given initial pane flags.
// When prefs is non-nil, persisted flags override the defaults.
func NewMemoryStore(defaults PaneFlags, prefs Preferences) *MemoryStore {
	s := &MemoryStore{
		servers:     make(map[string]*Server),
		channels:    make(map[string]*Channel),
		panes:       defaults,
		prefs:       prefs,
		MaxMessages: 1000,
	}
	if prefs != nil {
		s.panes.UserPane = loadFlag(prefs, prefUserPane, defaults.UserPane)
		s.panes.ServerPane = loadFlag(prefs, prefServerPane, defaults.ServerPane)
		s.panes.Timestamps = loadFlag(prefs, prefTimestamps, defaults.Timestamps)
	}
	return s
}

func loadFlag(prefs Preferences, key string, def bool) bool {
	val, err := prefs.GetConfig(key)
	if err != nil || val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

// AddServer registers a server. The first server added becomes current.
func (s *MemoryStore) AddServer(srv Server) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.servers[srv.ID]; !exists {
		s.order = append(s.order, srv.ID)
	}
	cp := srv
	s.servers[srv.ID] = &cp
	if s.currentServer == "" {
		s.currentServer = srv.ID
	}
}

// SetNick updates our nickname on a server
func (s *MemoryStore) SetNick(serverID, nick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if srv, ok := s.servers[serverID]; ok {
		srv.Nick = nick
	}
}

// EnsureChannel returns the channel buffer, creating it when missing
func (s *MemoryStore) EnsureChannel(serverID, name string) *Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureChannelLocked(serverID, name)
}

func (s *MemoryStore) ensureChannelLocked(serverID, name string) *Channel {
	id := ChannelID(serverID, name)
	ch, ok := s.channels[id]
	if !ok {
		ch = &Channel{ID: id, ServerID: serverID, Name: name}
		s.channels[id] = ch
	}
	return ch
}

// RemoveChannel drops a channel buffer, clearing the selection if it was current
func (s *MemoryStore) RemoveChannel(serverID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := ChannelID(serverID, name)
	delete(s.channels, id)
	if s.currentChannel == id {
		s.currentChannel = ""
	}
}

// SetUsers replaces the user list of a channel
func (s *MemoryStore) SetUsers(serverID, name string, users []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := s.ensureChannelLocked(serverID, name)
	ch.Users = append([]string(nil), users...)
	sort.Slice(ch.Users, func(i, j int) bool {
		return strings.ToLower(ch.Users[i]) < strings.ToLower(ch.Users[j])
	})
}

// SetTopic records a channel topic
func (s *MemoryStore) SetTopic(serverID, name, topic string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureChannelLocked(serverID, name).Topic = topic
}

// Select makes the given server and channel current. An empty channel
// name clears the channel selection.
func (s *MemoryStore) Select(serverID, channel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentServer = serverID
	if channel == "" {
		s.currentChannel = ""
		return
	}
	s.currentChannel = s.ensureChannelLocked(serverID, channel).ID
}

// Channels returns the channel names of a server, sorted
func (s *MemoryStore) Channels(serverID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var names []string
	for _, ch := range s.channels {
		if ch.ServerID == serverID {
			names = append(names, ch.Name)
		}
	}
	sort.Strings(names)
	return names
}

// Servers returns servers in the order they were added
func (s *MemoryStore) Servers() []Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Server, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.servers[id])
	}
	return out
}

// CurrentServer returns a copy of the active server, or nil
func (s *MemoryStore) CurrentServer() *Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverLocked(s.currentServer)
}

// CurrentChannel returns a copy of the active channel, or nil
func (s *MemoryStore) CurrentChannel() *Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelLocked(s.currentChannel)
}

// Server returns a copy of the server with the given ID, or nil
func (s *MemoryStore) Server(id string) *Server {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.serverLocked(id)
}

// Channel returns a copy of the named channel, or nil
func (s *MemoryStore) Channel(serverID, name string) *Channel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channelLocked(ChannelID(serverID, name))
}

func (s *MemoryStore) serverLocked(id string) *Server {
	srv, ok := s.servers[id]
	if !ok {
		return nil
	}
	cp := *srv
	return &cp
}

func (s *MemoryStore) channelLocked(id string) *Channel {
	ch, ok := s.channels[id]
	if !ok {
		return nil
	}
	cp := *ch
	cp.Users = append([]string(nil), ch.Users...)
	cp.Messages = append([]Message(nil), ch.Messages...)
	return &cp
}

// AddMessage appends a message to a channel buffer. Unknown channel IDs
// of the form "<server>/<name>" create the buffer.
func (s *MemoryStore) AddMessage(channelID string, msg Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[channelID]
	if !ok {
		serverID, name, found := strings.Cut(channelID, "/")
		if !found {
			return
		}
		ch = s.ensureChannelLocked(serverID, name)
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	ch.Messages = append(ch.Messages, msg)
	if s.MaxMessages > 0 && len(ch.Messages) > s.MaxMessages {
		ch.Messages = ch.Messages[len(ch.Messages)-s.MaxMessages:]
	}
}

// ToggleUserPane flips the user pane visibility
func (s *MemoryStore) ToggleUserPane() bool {
	return s.toggle(&s.panes.UserPane, prefUserPane)
}

// ToggleServerPane flips the server pane visibility
func (s *MemoryStore) ToggleServerPane() bool {
	return s.toggle(&s.panes.ServerPane, prefServerPane)
}

// ToggleTimestamps flips timestamp display
func (s *MemoryStore) ToggleTimestamps() bool {
	return s.toggle(&s.panes.Timestamps, prefTimestamps)
}

func (s *MemoryStore) toggle(flag *bool, key string) bool {
	s.mu.Lock()
	*flag = !*flag
	val := *flag
	s.mu.Unlock()

	if s.prefs != nil {
		// Persistence failures keep the in-memory value
		_ = s.prefs.SetConfig(key, strconv.FormatBool(val))
	}
	return val
}

// Panes returns the current pane flags
func (s *MemoryStore) Panes() PaneFlags {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panes
}
