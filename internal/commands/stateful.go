package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jusunglee/mostlybot/internal/command"
)

// count reports how many times it has been run. The counter only moves
// when the message went out.
type count struct {
	n int
}

func (c *count) Names() []string { return []string{"count"} }
func (c *count) Help() string    { return "!count" }

func (c *count) Handle(ctx context.Context, inv *command.Invocation) error {
	if err := inv.Say(ctx, fmt.Sprintf("current count: %d", c.n)); err != nil {
		return err
	}
	c.n++
	return nil
}

type botTime struct {
	started time.Time
	now     func() time.Time
}

func (b *botTime) Names() []string { return []string{"bottime", "bot_time"} }
func (b *botTime) Help() string    { return "!bottime" }

func (b *botTime) Handle(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, "Bot has been running for "+uptime(b.now().Sub(b.started))+".")
}

// uptime renders d in its largest whole unit, adding leftover minutes once
// it is past an hour.
func uptime(d time.Duration) string {
	seconds := int64(d / time.Second)
	minutes, hours := seconds/60, seconds/3600
	switch {
	case minutes == 0:
		return plural(seconds, "second")
	case hours == 0:
		return plural(minutes, "minute")
	case minutes%60 == 0:
		return plural(hours, "hour")
	default:
		return plural(hours, "hour") + " " + plural(minutes%60, "minute")
	}
}

func plural(n int64, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
