package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreSelection(t *testing.T) {
	s := NewMemoryStore(PaneFlags{}, nil)
	assert.Nil(t, s.CurrentServer())
	assert.Nil(t, s.CurrentChannel())

	s.AddServer(Server{ID: "a", Nick: "me"})
	s.AddServer(Server{ID: "b", Nick: "me2"})
	require.NotNil(t, s.CurrentServer())
	assert.Equal(t, "a", s.CurrentServer().ID)
	assert.Nil(t, s.CurrentChannel())

	s.Select("b", "#Go")
	assert.Equal(t, "b", s.CurrentServer().ID)
	require.NotNil(t, s.CurrentChannel())
	assert.Equal(t, "#Go", s.CurrentChannel().Name)
	assert.Equal(t, ChannelID("b", "#go"), s.CurrentChannel().ID)

	s.RemoveChannel("b", "#go")
	assert.Nil(t, s.CurrentChannel())
	assert.Equal(t, []string{"a", "b"}, []string{s.Servers()[0].ID, s.Servers()[1].ID})
}

func TestMemoryStoreMessages(t *testing.T) {
	s := NewMemoryStore(PaneFlags{}, nil)
	s.MaxMessages = 2
	s.AddServer(Server{ID: "a"})
	s.EnsureChannel("a", "#x")

	s.AddMessage(ChannelID("a", "#x"), Message{Content: "1"})
	s.AddMessage(ChannelID("a", "#x"), Message{Content: "2"})
	s.AddMessage(ChannelID("a", "#x"), Message{Content: "3"})

	msgs := s.Channel("a", "#x").Messages
	require.Len(t, msgs, 2)
	assert.Equal(t, "2", msgs[0].Content)
	assert.False(t, msgs[1].Timestamp.IsZero())

	// Buffers for queries are created on demand
	s.AddMessage(ChannelID("a", "bob"), Message{Content: "hey"})
	require.NotNil(t, s.Channel("a", "bob"))

	// Snapshots are detached from the store
	snap := s.Channel("a", "#x")
	snap.Messages[0].Content = "changed"
	assert.Equal(t, "2", s.Channel("a", "#x").Messages[0].Content)
}

func TestMemoryStoreUsers(t *testing.T) {
	s := NewMemoryStore(PaneFlags{}, nil)
	s.SetUsers("a", "#x", []string{"bob", "Alice", "carol"})
	assert.Equal(t, []string{"Alice", "bob", "carol"}, s.Channel("a", "#x").Users)
	assert.Equal(t, []string{"#x"}, s.Channels("a"))
}

func TestMemoryStoreTogglesPersist(t *testing.T) {
	prefs := NewMockPreferences()
	s := NewMemoryStore(PaneFlags{UserPane: true, ServerPane: true, Timestamps: true}, prefs)

	assert.False(t, s.ToggleUserPane())
	assert.False(t, s.ToggleTimestamps())
	assert.False(t, s.ToggleServerPane())
	assert.True(t, s.ToggleServerPane())

	reloaded := NewMemoryStore(PaneFlags{UserPane: true, ServerPane: true, Timestamps: true}, prefs)
	assert.Equal(t, PaneFlags{UserPane: false, ServerPane: true, Timestamps: false}, reloaded.Panes())
}

func TestStatePreferences(t *testing.T) {
	state, err := OpenState(filepath.Join(t.TempDir(), "nested", "state.db"))
	require.NoError(t, err)
	defer state.Close()

	val, err := state.GetConfig("missing")
	require.NoError(t, err)
	assert.Equal(t, "", val)

	require.NoError(t, state.SetConfig("k", "v1"))
	require.NoError(t, state.SetConfig("k", "v2"))
	val, err = state.GetConfig("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", val)

	assert.Nil(t, state.GetLastChannels("srv"))
	require.NoError(t, state.SetLastChannels("srv", []string{"#a", "#b"}))
	assert.Equal(t, []string{"#a", "#b"}, state.GetLastChannels("srv"))

	store := NewMemoryStore(PaneFlags{UserPane: true}, state)
	store.ToggleUserPane()
	assert.False(t, NewMemoryStore(PaneFlags{UserPane: true}, state).Panes().UserPane)
}
