package client

import (
	"context"
	"sync"
	"time"

	"github.com/aeolun/superirc/pkg/protocol"
)

// RawCall is one recorded SendRaw call
type RawCall struct {
	ServerID string
	Line     string
}

// WhisperCall is one recorded SendWhisper call
type WhisperCall struct {
	ServerID string
	Nick     string
	Target   string
	Message  string
}

// MockTransport is an in-memory Transport that records every send
type MockTransport struct {
	mu sync.Mutex

	Raw      []RawCall
	Whispers []WhisperCall
	Caps     map[string]protocol.Capabilities

	// FailAfter makes SendRaw fail once this many lines were sent; <0 never fails
	FailAfter int
	Err       error

	// Delay is slept before each SendRaw is recorded, to widen races in tests
	Delay time.Duration
}

// NewMockTransport creates a transport that accepts every send
func NewMockTransport() *MockTransport {
	return &MockTransport{
		Caps:      make(map[string]protocol.Capabilities),
		FailAfter: -1,
	}
}

// SendRaw records the line
func (t *MockTransport) SendRaw(_ context.Context, serverID, line string) error {
	if t.Delay > 0 {
		time.Sleep(t.Delay)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.FailAfter >= 0 && len(t.Raw) >= t.FailAfter {
		return t.Err
	}
	t.Raw = append(t.Raw, RawCall{ServerID: serverID, Line: line})
	return nil
}

// SendWhisper records the whisper
func (t *MockTransport) SendWhisper(_ context.Context, serverID, nick, target, message string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.Whispers = append(t.Whispers, WhisperCall{ServerID: serverID, Nick: nick, Target: target, Message: message})
	return nil
}

// Capabilities returns the configured capabilities for serverID
func (t *MockTransport) Capabilities(serverID string) protocol.Capabilities {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.Caps[serverID]
}

// Lines returns the recorded raw lines
func (t *MockTransport) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.Raw))
	for i, c := range t.Raw {
		out[i] = c.Line
	}
	return out
}

// MockPreferences is an in-memory Preferences
type MockPreferences struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMockPreferences creates empty preferences
func NewMockPreferences() *MockPreferences {
	return &MockPreferences{values: make(map[string]string)}
}

// GetConfig returns a stored value
func (p *MockPreferences) GetConfig(key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.values[key], nil
}

// SetConfig stores a value
func (p *MockPreferences) SetConfig(key, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.values[key] = value
	return nil
}
