// Package spam holds the three admission limits applied to chat commands:
// per user, per command and per user for failure notices.
package spam

import (
	"time"

	"github.com/jusunglee/mostlybot/internal/cooldown"
)

type Config struct {
	User    cooldown.Policy
	Command cooldown.Policy
	Failed  cooldown.Policy
}

func DefaultConfig() Config {
	return Config{
		User:    cooldown.NewPolicy(1, 5*time.Second),
		Command: cooldown.NewPolicy(1, 5*time.Second),
		Failed:  cooldown.NewPolicy(2, 30*time.Second),
	}
}

type Controller struct {
	user    *cooldown.Tracker[string]
	command *cooldown.Tracker[string]
	failed  *cooldown.Tracker[string]
}

func New(cfg Config, opts ...cooldown.Option) *Controller {
	return &Controller{
		user:    cooldown.NewTracker[string](cfg.User, opts...),
		command: cooldown.NewTracker[string](cfg.Command, opts...),
		failed:  cooldown.NewTracker[string](cfg.Failed, opts...),
	}
}

func (c *Controller) CheckUser(userKey string) (time.Duration, bool) {
	return c.user.Check(userKey)
}

// CheckCommand applies override when the command declares its own limit and
// the controller default otherwise.
func (c *Controller) CheckCommand(name string, override *cooldown.Policy) (time.Duration, bool) {
	if override != nil {
		return c.command.CheckWith(name, *override)
	}
	return c.command.Check(name)
}

func (c *Controller) CheckFailedNotification(userKey string) (time.Duration, bool) {
	return c.failed.Check(userKey)
}
