// ABOUTME: Capability-aware outbound chat framing
// ABOUTME: Long or multi-line text becomes a draft/multiline batch or plain PRIVMSG fragments
package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/protocol"
)

var ErrEmptyMessage = errors.New("message content cannot be empty")

// Delivery describes how a message was framed on the wire
type Delivery struct {
	Lines   int  // PRIVMSG lines sent
	Batched bool // sent inside a draft/multiline batch
	Echoed  bool // a local echo was stored
}

// Sender frames chat payloads as protocol-legal lines. Concurrent
// SendSafeMessage calls for one server run one at a time. Sends that bypass
// the Sender must be serialized by the caller, or they could land inside a
// batch.
type Sender struct {
	Transport Transport
	Store     Store
	Logger    *zap.Logger
	Metrics   *Metrics

	// MaxLineLength is the per-line payload budget in bytes; 0 means
	// protocol.MaxLineLength
	MaxLineLength int

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex // per server id
}

// NewSender creates a sender with the default line budget
func NewSender(t Transport, s Store, logger *zap.Logger, m *Metrics) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		Transport:     t,
		Store:         s,
		Logger:        logger,
		Metrics:       m,
		MaxLineLength: protocol.MaxLineLength,
	}
}

// PayloadBudget returns the payload bytes available in a line framed like
// framing (the line rendered with an empty payload)
func (s *Sender) PayloadBudget(framing string) int {
	return protocol.PayloadBudget(framing, s.MaxLineLength)
}

func (s *Sender) serverLock(serverID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	mu, ok := s.locks[serverID]
	if !ok {
		mu = &sync.Mutex{}
		s.locks[serverID] = mu
	}
	return mu
}

func (s *Sender) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

// fragment is one PRIVMSG payload; concat marks a continuation of the
// previous fragment's line rather than a new line
type fragment struct {
	text   string
	concat bool
}

// FitsOneLine reports whether content can go out as a single PRIVMSG with
// a payload budget of max bytes
func FitsOneLine(content string, max int) bool {
	return !strings.ContainsAny(content, "\r\n") && len(content) <= max
}

func splitContent(content string, max int) []fragment {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	var out []fragment
	for _, line := range strings.Split(content, "\n") {
		for i, part := range protocol.SplitLongLine(line, max) {
			out = append(out, fragment{text: part, concat: i > 0})
		}
	}
	return out
}

// SendSafeMessage sends content to target on serverID as one or more PRIVMSG
// lines that each fit the line budget. With draft/multiline the lines are
// wrapped in a batch, and without echo-message a local copy of the full
// content is stored so the sender sees it immediately.
func (s *Sender) SendSafeMessage(ctx context.Context, serverID, target, content string, caps protocol.Capabilities) (Delivery, error) {
	if target == "" {
		return Delivery{}, protocol.ErrEmptyTarget
	}
	if strings.TrimSpace(content) == "" {
		return Delivery{}, ErrEmptyMessage
	}

	mu := s.serverLock(serverID)
	mu.Lock()
	defer mu.Unlock()

	plain := s.PayloadBudget(protocol.Privmsg(target, ""))
	if FitsOneLine(content, plain) {
		if err := s.send(ctx, serverID, protocol.CmdPrivmsg, protocol.Privmsg(target, content)); err != nil {
			return Delivery{}, err
		}
		s.Metrics.RecordMessage(1, false)
		return Delivery{Lines: 1}, nil
	}

	if caps.Has(protocol.CapMultiline) {
		return s.sendBatch(ctx, serverID, target, content, caps)
	}

	sent := 0
	for _, f := range splitContent(content, plain) {
		// Blank lines cannot be sent outside a batch
		if strings.TrimSpace(f.text) == "" {
			continue
		}
		if err := s.send(ctx, serverID, protocol.CmdPrivmsg, protocol.Privmsg(target, f.text)); err != nil {
			return Delivery{Lines: sent}, err
		}
		sent++
	}
	s.Metrics.RecordMessage(sent, false)
	s.logger().Debug("sent split message",
		zap.String("server", serverID),
		zap.String("target", target),
		zap.Int("lines", sent))

	return Delivery{Lines: sent}, nil
}

func (s *Sender) sendBatch(ctx context.Context, serverID, target, content string, caps protocol.Capabilities) (Delivery, error) {
	ref := protocol.NewBatchRef()
	// Budget for the longest framing so every fragment fits either way
	fragments := splitContent(content, s.PayloadBudget(protocol.BatchLine(ref, target, "", true)))
	if err := s.send(ctx, serverID, protocol.CmdBatch, protocol.BatchStart(ref, target)); err != nil {
		return Delivery{}, err
	}

	d := Delivery{Batched: true}
	for _, f := range fragments {
		line := protocol.BatchLine(ref, target, f.text, f.concat)
		if err := s.send(ctx, serverID, protocol.CmdPrivmsg, line); err != nil {
			// Close the batch so the server does not hold it open
			_ = s.send(context.WithoutCancel(ctx), serverID, protocol.CmdBatch, protocol.BatchEnd(ref))
			return d, err
		}
		d.Lines++
	}

	if err := s.send(ctx, serverID, protocol.CmdBatch, protocol.BatchEnd(ref)); err != nil {
		return d, err
	}
	s.Metrics.RecordMessage(d.Lines, true)
	s.logger().Debug("sent multiline batch",
		zap.String("server", serverID),
		zap.String("target", target),
		zap.String("ref", ref),
		zap.Int("lines", d.Lines))

	if !caps.Has(protocol.CapEchoMessage) {
		s.storeEcho(serverID, target, content)
		d.Echoed = true
	}

	return d, nil
}

// storeEcho records our own message in the target buffer
func (s *Sender) storeEcho(serverID, target, content string) {
	if s.Store == nil {
		return
	}
	nick := ""
	if srv := s.Store.Server(serverID); srv != nil {
		nick = srv.Nick
	}
	s.Store.AddMessage(ChannelID(serverID, target), NewLocalMessage(KindMessage, nick, target, content))
	s.Metrics.RecordLocalEcho()
}

// StoreEcho records a local copy of a message the server will not echo
func (s *Sender) StoreEcho(serverID, target, content string) {
	s.storeEcho(serverID, target, content)
}

func (s *Sender) send(ctx context.Context, serverID, command, line string) error {
	if err := s.Transport.SendRaw(ctx, serverID, line); err != nil {
		s.Metrics.RecordSendError()
		s.logger().Warn("send failed",
			zap.String("server", serverID),
			zap.String("command", command),
			zap.Error(err))
		return fmt.Errorf("failed to send %s to %s: %w", command, serverID, err)
	}
	s.Metrics.RecordLine(command)
	return nil
}
