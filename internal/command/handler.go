// Package command parses chat text into commands and maps command names to
// their handlers.
package command

import (
	"context"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/cooldown"
)

// Handler runs one chat command. Handlers are invoked from a single
// goroutine, so state they keep between calls needs no locking.
type Handler interface {
	// Names lists the aliases the handler answers to. The first is canonical.
	Names() []string
	Help() string
	Handle(ctx context.Context, inv *Invocation) error
}

// RateLimited is implemented by handlers that replace the default
// per-command limit.
type RateLimited interface {
	RateLimit() cooldown.Policy
}

type Invocation struct {
	Message chat.Message
	// Name is the alias the user typed.
	Name string
	Args []string
	Out  chat.Sender
}

// Reply answers the invoking message, threaded where the platform allows.
func (inv *Invocation) Reply(ctx context.Context, text string) error {
	_, err := inv.Out.Send(ctx, inv.Message.Channel, text, inv.Message.ID)
	return err
}

// Say posts to the invoking channel without threading.
func (inv *Invocation) Say(ctx context.Context, text string) error {
	_, err := inv.Out.Send(ctx, inv.Message.Channel, text, "")
	return err
}
