package bot

import (
	"context"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/dispatch"
)

// Source is a chat transport: it produces inbound messages and sends the
// bot's replies back to the same platform.
type Source interface {
	chat.Sender
	Platform() string
	// Run connects and calls deliver for every inbound message until ctx is
	// done. deliver may be called from any goroutine.
	Run(ctx context.Context, deliver func(chat.Message)) error
}

// Dispatcher defines the command dispatch interface used by Bot
type Dispatcher interface {
	Dispatch(ctx context.Context, msg chat.Message, out chat.Sender) dispatch.Result
}
