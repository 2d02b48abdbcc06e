package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/aeolun/superirc/pkg/client"
	"github.com/aeolun/superirc/pkg/client/actions"
	"github.com/aeolun/superirc/pkg/protocol"
)

// Result is the outcome of parsing one line of input. User-facing
// failures are reported here, never as errors or panics.
type Result struct {
	Success bool
	Error   string

	// Output is informational text for the user (e.g. /help)
	Output string
}

func success(output string) Result {
	return Result{Success: true, Output: output}
}

func failure(format string, args ...interface{}) Result {
	return Result{Error: fmt.Sprintf(format, args...)}
}

// Parser turns user input into wire lines and action invocations
type Parser struct {
	registry    *actions.Registry
	sender      *client.Sender
	logger      *zap.Logger
	metrics     *client.Metrics
	definitions []Definition
	table       map[string]*Definition // name and aliases -> definition
}

// NewParser creates a parser with the built-in command table
func NewParser(registry *actions.Registry, sender *client.Sender, logger *zap.Logger) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Parser{
		registry:    registry,
		sender:      sender,
		logger:      logger,
		metrics:     sender.Metrics,
		definitions: append([]Definition(nil), Definitions...),
		table:       make(map[string]*Definition),
	}
	for i := range p.definitions {
		def := &p.definitions[i]
		p.table[def.Name] = def
		for _, alias := range def.Aliases {
			p.table[alias] = def
		}
	}
	return p
}

// CommandNames returns all command names and aliases, sorted
func (p *Parser) CommandNames() []string {
	names := make([]string, 0, len(p.table))
	for name := range p.table {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the definition for a command name or alias
func (p *Parser) Lookup(name string) (*Definition, bool) {
	def, ok := p.table[name]
	return def, ok
}

// Parse handles one line of input. Text starting with "/" is a command;
// "//" escapes a literal slash. Anything else is sent to the active channel.
func (p *Parser) Parse(ctx context.Context, raw string, ac actions.Context) Result {
	raw = strings.TrimRight(raw, "\r\n")
	if strings.TrimSpace(raw) == "" {
		return failure("nothing to send")
	}

	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") {
		return p.parseMessage(ctx, strings.TrimPrefix(raw, "/"), ac)
	}

	body := raw[1:]
	name, argStr := body, ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
		_, size := utf8.DecodeRuneInString(body[i:])
		name, argStr = body[:i], body[i+size:]
	}

	def, ok := p.table[name]
	if !ok {
		p.metrics.RecordCommand("unknown", false)
		return failure("unknown command: /%s", name)
	}

	res := p.run(ctx, def, Invocation{Name: name, Args: strings.Fields(argStr), Raw: argStr}, ac)
	p.metrics.RecordCommand(def.Name, res.Success)
	if !res.Success {
		p.logger.Debug("command failed",
			zap.String("command", def.Name),
			zap.String("error", res.Error))
	}
	return res
}

func (p *Parser) run(ctx context.Context, def *Definition, inv Invocation, ac actions.Context) Result {
	if len(inv.Args) < def.MinArgs {
		return failure("not enough arguments, usage: %s", def.Usage)
	}
	if def.MaxArgs != Unlimited && len(inv.Args) > def.MaxArgs {
		return failure("too many arguments, usage: %s", def.Usage)
	}
	if def.NeedsServer && ac.CurrentServer == nil {
		return failure("/%s needs an active server", def.Name)
	}
	if def.NeedsChannel && ac.CurrentChannel == nil {
		return failure("/%s needs an active channel", def.Name)
	}
	if (def.NeedsServer || def.NeedsChannel) && ac.Client == nil {
		return failure("/%s: not connected", def.Name)
	}

	output, err := def.Handler(ctx, p, ac, inv)
	if err != nil {
		var unknown *actions.UnknownActionError
		if errors.As(err, &unknown) {
			p.logger.Error("command bound to missing action",
				zap.String("command", def.Name),
				zap.String("action", unknown.ID))
		}
		return failure("%s", err.Error())
	}
	return success(output)
}

func (p *Parser) parseMessage(ctx context.Context, text string, ac actions.Context) Result {
	if ac.CurrentServer == nil || ac.CurrentChannel == nil {
		return failure("no active channel to send to")
	}
	if ac.Client == nil {
		return failure("not connected")
	}
	if err := p.sendChat(ctx, ac, ac.CurrentChannel.Name, text); err != nil {
		return failure("%s", err.Error())
	}
	return success("")
}

// sendChat sends text through the transmission pipeline and stores a
// local echo when neither the pipeline nor the server provides one
func (p *Parser) sendChat(ctx context.Context, ac actions.Context, target, text string) error {
	serverID := ac.CurrentServer.ID
	caps := p.capabilities(ac, serverID)

	d, err := p.sender.SendSafeMessage(ctx, serverID, target, text, caps)
	if err != nil {
		return err
	}
	if !d.Echoed && !caps.Has(protocol.CapEchoMessage) {
		p.sender.StoreEcho(serverID, target, text)
	}
	return nil
}

func (p *Parser) capabilities(ac actions.Context, serverID string) protocol.Capabilities {
	if ac.Client == nil {
		return nil
	}
	return ac.Client.Capabilities(serverID)
}
