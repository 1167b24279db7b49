package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/cooldown"
)

// help explains one command. It reads a snapshot of the registry taken
// just before it was registered.
type help struct {
	registry *command.Registry
}

func (h *help) Names() []string { return []string{"help"} }
func (h *help) Help() string    { return "!help <command name>" }

func (h *help) RateLimit() cooldown.Policy {
	return cooldown.NewPolicy(1, 3*time.Second)
}

func (h *help) Handle(ctx context.Context, inv *command.Invocation) error {
	switch len(inv.Args) {
	case 0:
		if err := inv.Reply(ctx, "usage: "+h.Help()); err != nil {
			return err
		}
		return inv.Reply(ctx, "[WARN] if you're looking for the list of commands try: !commands")
	case 1:
	default:
		return errTooManyArgs
	}

	name := strings.TrimLeft(inv.Args[0], "!")
	entry, ok := h.registry.Lookup(name)
	if !ok {
		return fmt.Errorf("%q does not exist", name)
	}
	return inv.Reply(ctx, "usage: "+entry.Handler.Help())
}

// commandList names every registered alias.
type commandList struct {
	registry *command.Registry
}

func (c *commandList) Names() []string { return []string{"commands", "cmds"} }
func (c *commandList) Help() string    { return "!commands" }

func (c *commandList) Handle(ctx context.Context, inv *command.Invocation) error {
	names := c.registry.Names()
	for i, n := range names {
		names[i] = "!" + n
	}
	return inv.Reply(ctx, chat.Truncate("commands: "+strings.Join(names, " "), maxReplyRunes))
}
