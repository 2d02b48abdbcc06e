// ABOUTME: IRC wire line builders for the commands this client emits
// ABOUTME: Lines are returned without the trailing CRLF; the transport adds it
package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	// MaxLineLength bounds the payload of every outbound chat line, in bytes
	MaxLineLength = 400

	// MaxWireLength is the IRC line limit without the trailing CRLF
	MaxWireLength = 510

	// PrefixReserve is left free for the ":nick!user@host " prefix a server
	// adds when it relays our line
	PrefixReserve = 100

	// DefaultHistoryCount is the CHATHISTORY limit used when none is given
	DefaultHistoryCount = 100
)

// IRC commands
const (
	CmdPrivmsg     = "PRIVMSG"
	CmdNotice      = "NOTICE"
	CmdMode        = "MODE"
	CmdBatch       = "BATCH"
	CmdChatHistory = "CHATHISTORY"
	CmdJoin        = "JOIN"
	CmdPart        = "PART"
	CmdTopic       = "TOPIC"
	CmdNick        = "NICK"
	CmdQuit        = "QUIT"
)

// Capabilities and message tags
const (
	CapMultiline   = "draft/multiline"
	CapEchoMessage = "echo-message"

	TagBatch           = "batch"
	TagMultilineConcat = "draft/multiline-concat"
	TagChannelContext  = "+draft/channel-context"

	BatchTypeMultiline = "draft/multiline"
)

var (
	ErrEmptyTarget = errors.New("target cannot be empty")
	ErrLineBreak   = errors.New("line contains CR or LF")
)

// Tag is a single IRCv3 message tag. An empty Value renders as a bare key.
type Tag struct {
	Key   string
	Value string
}

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	";", `\:`,
	" ", `\s`,
	"\r", `\r`,
	"\n", `\n`,
)

// EscapeTagValue escapes a tag value for the IRCv3 message-tags format
func EscapeTagValue(v string) string {
	return tagEscaper.Replace(v)
}

// FormatTags renders tags as an "@k=v;k2 " prefix, or "" when there are none
func FormatTags(tags ...Tag) string {
	if len(tags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		if t.Value == "" {
			parts = append(parts, t.Key)
			continue
		}
		parts = append(parts, t.Key+"="+EscapeTagValue(t.Value))
	}
	return "@" + strings.Join(parts, ";") + " "
}

// Privmsg builds "PRIVMSG <target> :<text>"
func Privmsg(target, text string) string {
	return TaggedPrivmsg(target, text)
}

// TaggedPrivmsg builds a PRIVMSG line with an optional tag prefix
func TaggedPrivmsg(target, text string, tags ...Tag) string {
	return FormatTags(tags...) + CmdPrivmsg + " " + target + " :" + text
}

// PayloadBudget returns how many payload bytes fit in one line framed like
// framing, the line rendered with an empty payload. The result never
// exceeds max (MaxLineLength when max <= 0) and is at least 1.
func PayloadBudget(framing string, max int) int {
	if max <= 0 {
		max = MaxLineLength
	}
	room := MaxWireLength - PrefixReserve - len(framing)
	if room < 1 {
		room = 1
	}
	return min(max, room)
}

// Action builds a CTCP ACTION (/me) line
func Action(target, text string) string {
	return Privmsg(target, "\x01ACTION "+text+"\x01")
}

// Whisper builds a PRIVMSG to nick carrying the channel it was sent from
func Whisper(nick, channel, text string) string {
	return TaggedPrivmsg(nick, text, Tag{Key: TagChannelContext, Value: channel})
}

// BatchStart builds "BATCH +<ref> draft/multiline <target>"
func BatchStart(ref, target string) string {
	return fmt.Sprintf("%s +%s %s %s", CmdBatch, ref, BatchTypeMultiline, target)
}

// BatchEnd builds "BATCH -<ref>"
func BatchEnd(ref string) string {
	return fmt.Sprintf("%s -%s", CmdBatch, ref)
}

// BatchLine builds one PRIVMSG inside a multiline batch
func BatchLine(ref, target, text string, concat bool) string {
	tags := []Tag{{Key: TagBatch, Value: ref}}
	if concat {
		tags = append(tags, Tag{Key: TagMultilineConcat})
	}
	return TaggedPrivmsg(target, text, tags...)
}

// Mode builds "MODE <target> [<flags> [args...]]"
func Mode(target string, flagsAndArgs ...string) string {
	parts := append([]string{CmdMode, target}, flagsAndArgs...)
	return strings.Join(parts, " ")
}

// ChatHistoryLatest builds "CHATHISTORY LATEST <target> * <count>"
func ChatHistoryLatest(target string, count int) string {
	return fmt.Sprintf("%s LATEST %s * %d", CmdChatHistory, target, count)
}

// Join builds "JOIN <channel> [key]"
func Join(channel, key string) string {
	if key == "" {
		return CmdJoin + " " + channel
	}
	return CmdJoin + " " + channel + " " + key
}

// Part builds "PART <channel> [:reason]"
func Part(channel, reason string) string {
	if reason == "" {
		return CmdPart + " " + channel
	}
	return CmdPart + " " + channel + " :" + reason
}

// Topic builds a TOPIC query, or a TOPIC change when text is non-empty
func Topic(channel, text string) string {
	if text == "" {
		return CmdTopic + " " + channel
	}
	return CmdTopic + " " + channel + " :" + text
}

// Nick builds "NICK <nick>"
func Nick(nick string) string {
	return CmdNick + " " + nick
}

// Quit builds "QUIT [:reason]"
func Quit(reason string) string {
	if reason == "" {
		return CmdQuit
	}
	return CmdQuit + " :" + reason
}

// ValidateLine rejects raw lines that would smuggle extra commands
func ValidateLine(line string) error {
	if strings.ContainsAny(line, "\r\n") {
		return ErrLineBreak
	}
	return nil
}

// NewBatchRef returns a fresh batch reference tag
func NewBatchRef() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// IsChannel reports whether name looks like a channel name
func IsChannel(name string) bool {
	return name != "" && strings.ContainsRune("#&+!", rune(name[0]))
}
