package actions

import (
	"context"
	"errors"
	"strconv"

	"github.com/aeolun/superirc/pkg/protocol"
)

// Built-in action IDs
const (
	ActionToggleUserPane   = "view.toggle-user-pane"
	ActionToggleServerPane = "view.toggle-server-pane"
	ActionToggleTimestamps = "view.toggle-timestamps"
	ActionLoadHistory      = "channel.load-history"
)

var errNoChannel = errors.New("no active channel")

// HasChannel reports whether both a server and a channel are active
func HasChannel(ac Context) bool {
	return ac.CurrentServer != nil && ac.CurrentChannel != nil
}

func redraw(ac Context) {
	if ac.Renderer != nil {
		ac.Renderer.Invalidate()
	}
}

// RegisterDefaults registers the built-in actions
func RegisterDefaults(r *Registry) {
	r.Register(NewAction(ActionToggleUserPane).
		Label("Toggle User List").
		Category("view").
		Describe("Show or hide the channel member list").
		Keywords("members", "users", "nicklist").
		Priority(50).
		Key("ctrl+u").
		When(func(ac Context) bool { return ac.Store != nil }).
		Do(func(_ context.Context, ac Context, _ ...string) error {
			ac.Store.ToggleUserPane()
			redraw(ac)
			return nil
		}).
		Build())

	r.Register(NewAction(ActionToggleServerPane).
		Label("Toggle Server Tree").
		Category("view").
		Describe("Show or hide the server and channel tree").
		Keywords("tree", "servers", "sidebar").
		Priority(40).
		Key("ctrl+b").
		When(func(ac Context) bool { return ac.Store != nil }).
		Do(func(_ context.Context, ac Context, _ ...string) error {
			ac.Store.ToggleServerPane()
			redraw(ac)
			return nil
		}).
		Build())

	r.Register(NewAction(ActionToggleTimestamps).
		Label("Toggle Timestamps").
		Category("view").
		Describe("Show or hide message timestamps").
		Keywords("time", "ts").
		Priority(30).
		Key("alt+t").
		When(func(ac Context) bool { return ac.Store != nil }).
		Do(func(_ context.Context, ac Context, _ ...string) error {
			ac.Store.ToggleTimestamps()
			redraw(ac)
			return nil
		}).
		Build())

	// Optional first argument is the number of messages to request
	r.Register(NewAction(ActionLoadHistory).
		Label("Load History").
		Category("channel").
		Describe("Request recent messages for the active channel").
		Keywords("chathistory", "backlog", "scrollback").
		Priority(20).
		Key("alt+h").
		When(HasChannel).
		VisibleWhen(HasChannel).
		Do(func(ctx context.Context, ac Context, args ...string) error {
			if ac.Client == nil || !HasChannel(ac) {
				return errNoChannel
			}
			count := protocol.DefaultHistoryCount
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil {
					return err
				}
				count = n
			}
			line := protocol.ChatHistoryLatest(ac.CurrentChannel.Name, count)
			return ac.Client.SendRaw(ctx, ac.CurrentServer.ID, line)
		}).
		Build())
}
