// ABOUTME: Slash command table: names, aliases, arity and preconditions
// ABOUTME: Handlers emit wire lines directly or run registry actions
package commands

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/aeolun/superirc/pkg/client"
	"github.com/aeolun/superirc/pkg/client/actions"
	"github.com/aeolun/superirc/pkg/protocol"
)

// Unlimited marks a Definition without an argument maximum
const Unlimited = -1

// Invocation is one parsed command passed to a handler
type Invocation struct {
	Name string
	Args []string

	// Raw is the argument string with its inner spacing intact
	Raw string
}

// Rest returns the raw argument text after the first n arguments, split on
// the same whitespace as Args
func (inv Invocation) Rest(n int) string {
	s := strings.TrimLeftFunc(inv.Raw, unicode.IsSpace)
	for i := 0; i < n; i++ {
		idx := strings.IndexFunc(s, unicode.IsSpace)
		if idx < 0 {
			return ""
		}
		s = strings.TrimLeftFunc(s[idx:], unicode.IsSpace)
	}
	return s
}

// Handler executes a validated command
type Handler func(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error)

// Definition describes one slash command
type Definition struct {
	Name    string
	Aliases []string
	Usage   string
	Help    string

	// MinArgs and MaxArgs bound the whitespace-separated argument count
	MinArgs int
	MaxArgs int

	NeedsServer  bool
	NeedsChannel bool

	Handler Handler
}

var (
	errNoTarget     = errors.New("no target: give a channel or join one")
	errInvalidCount = errors.New("count must be an integer")
)

// Definitions lists every built-in command
var Definitions = []Definition{
	{
		Name:         "history",
		Usage:        "/history [count]",
		Help:         "Request recent channel history (default 100 messages)",
		MaxArgs:      1,
		NeedsServer:  true,
		NeedsChannel: true,
		Handler:      handleHistory,
	},
	{
		Name:         "whisper",
		Aliases:      []string{"w"},
		Usage:        "/whisper <nick> <text...>",
		Help:         "Send a private message scoped to the current channel",
		MinArgs:      2,
		MaxArgs:      Unlimited,
		NeedsServer:  true,
		NeedsChannel: true,
		Handler:      handleWhisper,
	},
	{
		Name:        "mode",
		Usage:       "/mode [target] [flags [args...]]",
		Help:        "Query or change channel modes",
		MaxArgs:     Unlimited,
		NeedsServer: true,
		Handler:     handleMode,
	},
	memberModeCommand("op", '+', 'o', "Give channel operator status"),
	memberModeCommand("deop", '-', 'o', "Remove channel operator status"),
	memberModeCommand("voice", '+', 'v', "Give voice"),
	memberModeCommand("devoice", '-', 'v', "Remove voice"),
	{
		Name:    "members",
		Aliases: []string{"users"},
		Usage:   "/members",
		Help:    "Toggle the member list",
		Handler: runAction(actions.ActionToggleUserPane),
	},
	{
		Name:    "tree",
		Usage:   "/tree",
		Help:    "Toggle the server tree",
		Handler: runAction(actions.ActionToggleServerPane),
	},
	{
		Name:    "timestamps",
		Aliases: []string{"ts"},
		Usage:   "/timestamps",
		Help:    "Toggle message timestamps",
		Handler: runAction(actions.ActionToggleTimestamps),
	},
	{
		Name:         "me",
		Usage:        "/me <text...>",
		Help:         "Send an action to the current channel",
		MinArgs:      1,
		MaxArgs:      Unlimited,
		NeedsServer:  true,
		NeedsChannel: true,
		Handler:      handleMe,
	},
	{
		Name:        "msg",
		Usage:       "/msg <target> <text...>",
		Help:        "Send a message to a nick or channel",
		MinArgs:     2,
		MaxArgs:     Unlimited,
		NeedsServer: true,
		Handler:     handleMsg,
	},
	{
		Name:        "join",
		Aliases:     []string{"j"},
		Usage:       "/join <#channel> [key]",
		Help:        "Join a channel",
		MinArgs:     1,
		MaxArgs:     2,
		NeedsServer: true,
		Handler:     handleJoin,
	},
	{
		Name:        "part",
		Usage:       "/part [#channel] [reason...]",
		Help:        "Leave a channel",
		MaxArgs:     Unlimited,
		NeedsServer: true,
		Handler:     handlePart,
	},
	{
		Name:         "topic",
		Usage:        "/topic [text...]",
		Help:         "Show or change the channel topic",
		MaxArgs:      Unlimited,
		NeedsServer:  true,
		NeedsChannel: true,
		Handler:      handleTopic,
	},
	{
		Name:        "nick",
		Usage:       "/nick <nick>",
		Help:        "Change your nickname",
		MinArgs:     1,
		MaxArgs:     1,
		NeedsServer: true,
		Handler:     sendLine(func(_ actions.Context, inv Invocation) (string, error) { return protocol.Nick(inv.Args[0]), nil }),
	},
	{
		Name:        "quit",
		Usage:       "/quit [reason...]",
		Help:        "Disconnect from the server",
		MaxArgs:     Unlimited,
		NeedsServer: true,
		Handler:     sendLine(func(_ actions.Context, inv Invocation) (string, error) { return protocol.Quit(inv.Rest(0)), nil }),
	},
	{
		Name:        "raw",
		Aliases:     []string{"quote"},
		Usage:       "/raw <line...>",
		Help:        "Send a raw protocol line",
		MinArgs:     1,
		MaxArgs:     Unlimited,
		NeedsServer: true,
		Handler:     sendLine(func(_ actions.Context, inv Invocation) (string, error) { return inv.Rest(0), nil }),
	},
	{
		Name:    "help",
		Usage:   "/help [command]",
		Help:    "List commands or show usage for one",
		MaxArgs: 1,
		Handler: handleHelp,
	},
}

func memberModeCommand(name string, sign, letter byte, help string) Definition {
	return Definition{
		Name:         name,
		Usage:        "/" + name + " <nick...>",
		Help:         help,
		MinArgs:      1,
		MaxArgs:      Unlimited,
		NeedsServer:  true,
		NeedsChannel: true,
		Handler: func(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
			flags := string(sign) + strings.Repeat(string(letter), len(inv.Args))
			line := protocol.Mode(ac.CurrentChannel.Name, append([]string{flags}, inv.Args...)...)
			return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, line)
		},
	}
}

func runAction(id string) Handler {
	return func(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
		return "", p.registry.Execute(ctx, id, ac, inv.Args...)
	}
}

func sendLine(build func(actions.Context, Invocation) (string, error)) Handler {
	return func(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
		line, err := build(ac, inv)
		if err != nil {
			return "", err
		}
		return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, line)
	}
}

func handleHistory(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	count := strconv.Itoa(protocol.DefaultHistoryCount)
	if len(inv.Args) == 1 {
		n, err := strconv.Atoi(inv.Args[0])
		if err != nil {
			return "", errInvalidCount
		}
		count = strconv.Itoa(n)
	}
	return "", p.registry.Execute(ctx, actions.ActionLoadHistory, ac, count)
}

func handleWhisper(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	nick := inv.Args[0]
	text := inv.Rest(1)
	server, channel := ac.CurrentServer, ac.CurrentChannel

	if err := ac.Client.SendWhisper(ctx, server.ID, nick, channel.Name, text); err != nil {
		return "", err
	}

	// Whispers are not echoed by the server
	if ac.Store != nil {
		content := fmt.Sprintf("-> %s: %s", nick, text)
		ac.Store.AddMessage(client.ChannelID(server.ID, channel.Name),
			client.NewLocalMessage(client.KindWhisper, server.Nick, nick, content))
	}
	return "", nil
}

func isFlagToken(s string) bool {
	return len(s) > 1 && (s[0] == '+' || s[0] == '-')
}

// isModeLetters matches an unsigned mode list such as "b" or "beI"
func isModeLetters(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func handleMode(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	args := inv.Args
	target, explicit := "", true
	switch {
	case len(args) > 0 && protocol.IsChannel(args[0]):
		target, args = args[0], args[1:]
	case len(args) > 0 && ac.CurrentServer.Nick != "" && strings.EqualFold(args[0], ac.CurrentServer.Nick):
		// User modes on ourselves
		target, args = args[0], args[1:]
	case ac.CurrentChannel != nil:
		explicit = false
		target = ac.CurrentChannel.Name
	}
	if target == "" {
		return "", errNoTarget
	}

	if len(args) == 0 {
		return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, protocol.Mode(target))
	}
	if !isFlagToken(args[0]) {
		// List query, e.g. "/mode #chan b" for the ban list
		if explicit && len(args) == 1 && isModeLetters(args[0]) {
			return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, protocol.Mode(target, args[0]))
		}
		return "", fmt.Errorf("invalid mode flags %q: must start with + or -", args[0])
	}
	return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, protocol.Mode(target, args...))
}

func handleMe(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	server, channel := ac.CurrentServer, ac.CurrentChannel
	text := inv.Rest(0)
	budget := p.sender.PayloadBudget(protocol.Action(channel.Name, ""))
	for _, part := range protocol.SplitLongLine(text, budget) {
		if err := ac.Client.SendRaw(ctx, server.ID, protocol.Action(channel.Name, part)); err != nil {
			return "", err
		}
	}
	if ac.Store != nil && !p.capabilities(ac, server.ID).Has(protocol.CapEchoMessage) {
		ac.Store.AddMessage(client.ChannelID(server.ID, channel.Name),
			client.NewLocalMessage(client.KindAction, server.Nick, channel.Name, text))
	}
	return "", nil
}

func handleMsg(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	return "", p.sendChat(ctx, ac, inv.Args[0], inv.Rest(1))
}

func handleJoin(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	channel := inv.Args[0]
	if !protocol.IsChannel(channel) {
		return "", fmt.Errorf("%q is not a channel name", channel)
	}
	key := ""
	if len(inv.Args) == 2 {
		key = inv.Args[1]
	}
	return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, protocol.Join(channel, key))
}

func handlePart(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	channel, reason := "", inv.Rest(0)
	if len(inv.Args) > 0 && protocol.IsChannel(inv.Args[0]) {
		channel, reason = inv.Args[0], inv.Rest(1)
	} else if ac.CurrentChannel != nil {
		channel = ac.CurrentChannel.Name
	}
	if channel == "" {
		return "", errNoTarget
	}
	return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, protocol.Part(channel, reason))
}

func handleTopic(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	return "", ac.Client.SendRaw(ctx, ac.CurrentServer.ID, protocol.Topic(ac.CurrentChannel.Name, inv.Rest(0)))
}

func handleHelp(ctx context.Context, p *Parser, ac actions.Context, inv Invocation) (string, error) {
	if len(inv.Args) == 1 {
		def, ok := p.table[strings.TrimPrefix(inv.Args[0], "/")]
		if !ok {
			return "", fmt.Errorf("unknown command: %s", inv.Args[0])
		}
		return def.Usage + " - " + def.Help, nil
	}

	lines := make([]string, 0, len(p.definitions))
	for _, def := range p.definitions {
		lines = append(lines, fmt.Sprintf("%-28s %s", def.Usage, def.Help))
	}
	return strings.Join(lines, "\n"), nil
}
