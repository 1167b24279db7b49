// Package chat defines the platform-neutral message record shared by the
// transports and the dispatcher.
package chat

import (
	"context"
	"strings"
	"time"
)

const (
	PlatformTwitch  = "twitch"
	PlatformDiscord = "discord"
	PlatformConsole = "console"
)

type Role uint8

const (
	RoleBroadcaster Role = 1 << iota
	RoleModerator
	RoleVIP
	RoleSubscriber
)

var roleNames = []struct {
	role Role
	name string
}{
	{RoleBroadcaster, "broadcaster"},
	{RoleModerator, "moderator"},
	{RoleVIP, "vip"},
	{RoleSubscriber, "subscriber"},
}

func (r Role) Has(other Role) bool { return r&other == other }

func (r Role) String() string {
	var names []string
	for _, rn := range roleNames {
		if r.Has(rn.role) {
			names = append(names, rn.name)
		}
	}
	if len(names) == 0 {
		return "viewer"
	}
	return strings.Join(names, ",")
}

type Author struct {
	ID    string
	Name  string
	Roles Role
}

// CanModerate reports whether the author may run moderator-only commands.
func (a Author) CanModerate() bool {
	return a.Roles&(RoleBroadcaster|RoleModerator) != 0
}

type Message struct {
	ID         string
	Platform   string
	Channel    string
	Text       string
	Author     Author
	ReceivedAt time.Time
}

// AuthorKey identifies the author across platforms. User ids are only unique
// within a platform, so the key is prefixed with it.
func (m Message) AuthorKey() string {
	return m.Platform + ":" + m.Author.ID
}

// Sender delivers text to a channel. A non-empty parentID threads the text
// as a reply to that message where the platform supports it. The returned
// id identifies the sent message when the platform reports one.
type Sender interface {
	Send(ctx context.Context, channel, text, parentID string) (string, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, channel, text, parentID string) (string, error)

func (f SenderFunc) Send(ctx context.Context, channel, text, parentID string) (string, error) {
	return f(ctx, channel, text, parentID)
}

// Truncate cuts s to at most n runes, ending with an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
