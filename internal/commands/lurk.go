package commands

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
)

// lurk tracks chatters who announced they are lurking, optionally with a
// status. Entries are keyed by display name and live until !unlurk.
type lurk struct {
	lurkers map[string]string
}

func newLurk() *lurk {
	return &lurk{lurkers: make(map[string]string)}
}

func (l *lurk) Names() []string {
	return []string{"lurk", "lurkwith", "unlurk", "lurker", "lurkers"}
}

func (l *lurk) Help() string {
	return "!lurk or !lurkwith <status> or !unlurk or !lurker [@username] or !lurkers"
}

func (l *lurk) Handle(ctx context.Context, inv *command.Invocation) error {
	name := inv.Message.Author.Name

	switch inv.Name {
	case "lurk":
		if _, ok := l.lurkers[name]; ok {
			return inv.Reply(ctx, "you are already lurking silly! to unlurk do !unlurk or view your lurk-status with !lurker @"+name)
		}
		l.lurkers[name] = ""
		return inv.Reply(ctx, "have a nice lurk!")

	case "lurkwith":
		_, already := l.lurkers[name]
		l.lurkers[name] = strings.Join(inv.Args, " ")
		if already {
			return inv.Reply(ctx, "lurk status successfully updated!")
		}
		return inv.Reply(ctx, "have a nice lurk!")

	case "unlurk":
		status, ok := l.lurkers[name]
		if !ok {
			return inv.Reply(ctx, "you weren't lurking but welcome back anyway!")
		}
		delete(l.lurkers, name)
		if status == "" {
			status = "during your lurk!"
		}
		return inv.Reply(ctx, "welcome back! hope you were productive "+status)

	case "lurker":
		who := name
		if len(inv.Args) > 0 {
			who = strings.TrimPrefix(strings.Join(inv.Args, " "), "@")
		}
		status, ok := l.lurkers[who]
		if !ok {
			return inv.Say(ctx, "you're not lurking")
		}
		if status == "" {
			status = "with no status"
		}
		return inv.Say(ctx, "@"+who+" is lurking "+status)

	case "lurkers":
		names := lo.Keys(l.lurkers)
		if len(names) == 0 {
			return inv.Say(ctx, "Lurkers: <none>")
		}
		slices.Sort(names)
		list := strings.Join(lo.Map(names, func(n string, _ int) string { return "@" + n }), ", ")
		return inv.Say(ctx, chat.Truncate("Lurkers: "+list, maxReplyRunes))
	}
	return errors.New("unknown lurk command")
}
