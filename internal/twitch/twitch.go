// Package twitch connects the bot to Twitch chat over IRC.
package twitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	twitch "github.com/gempir/go-twitch-irc/v4"
	"golang.org/x/time/rate"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/logger"
)

// MaxMessageRunes is the longest message Twitch accepts.
const MaxMessageRunes = 500

// ircClient is the part of *twitch.Client the bot uses.
type ircClient interface {
	OnPrivateMessage(func(twitch.PrivateMessage))
	Join(channels ...string)
	Connect() error
	Disconnect() error
	Say(channel, text string)
	Reply(channel, parentMsgID, text string)
}

type Config struct {
	Username   string
	OAuthToken string
	Channels   []string
	// MessagesPerWindow and Window pace outgoing messages. Twitch allows 20
	// messages per 30 seconds for accounts that are not moderators.
	MessagesPerWindow int
	Window            time.Duration
}

type Client struct {
	irc      ircClient
	channels []string
	limiter  *rate.Limiter
	log      logger.Logger
}

func New(cfg Config, log logger.Logger) *Client {
	token := cfg.OAuthToken
	if !strings.HasPrefix(token, "oauth:") {
		token = "oauth:" + token
	}
	return newClient(twitch.NewClient(cfg.Username, token), cfg, log)
}

func newClient(irc ircClient, cfg Config, log logger.Logger) *Client {
	if cfg.MessagesPerWindow <= 0 {
		cfg.MessagesPerWindow = 20
	}
	if cfg.Window <= 0 {
		cfg.Window = 30 * time.Second
	}
	channels := make([]string, 0, len(cfg.Channels))
	for _, ch := range cfg.Channels {
		if ch = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ch), "#")); ch != "" {
			channels = append(channels, ch)
		}
	}
	return &Client{
		irc:      irc,
		channels: channels,
		limiter:  rate.NewLimiter(rate.Every(cfg.Window/time.Duration(cfg.MessagesPerWindow)), 1),
		log:      log.With("platform", chat.PlatformTwitch),
	}
}

func (c *Client) Platform() string { return chat.PlatformTwitch }

// Run joins the configured channels and blocks until ctx is done or the
// connection fails.
func (c *Client) Run(ctx context.Context, deliver func(chat.Message)) error {
	if len(c.channels) == 0 {
		return errors.New("no twitch channels configured")
	}

	c.irc.OnPrivateMessage(func(m twitch.PrivateMessage) {
		deliver(toMessage(m))
	})
	c.irc.Join(c.channels...)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			if err := c.irc.Disconnect(); err != nil {
				c.log.Warn("failed to disconnect", "error", err)
			}
		case <-done:
		}
	}()

	c.log.InfoContext(ctx, "connecting to twitch chat", "channels", c.channels)
	err := c.irc.Connect()
	if errors.Is(err, twitch.ErrClientDisconnected) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("twitch connection: %w", err)
	}
	return nil
}

// Send waits for the pacing limiter and posts text, as a threaded reply when
// parentID is set. IRC gives no acknowledgement, so the returned id is
// always empty.
func (c *Client) Send(ctx context.Context, channel, text, parentID string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting to send: %w", err)
	}
	text = chat.Truncate(text, MaxMessageRunes)
	if parentID != "" {
		c.irc.Reply(channel, parentID, text)
	} else {
		c.irc.Say(channel, text)
	}
	return "", nil
}

func toMessage(m twitch.PrivateMessage) chat.Message {
	name := m.User.DisplayName
	if name == "" {
		name = m.User.Name
	}
	return chat.Message{
		ID:       m.ID,
		Platform: chat.PlatformTwitch,
		Channel:  m.Channel,
		Text:     m.Message,
		Author: chat.Author{
			ID:    m.User.ID,
			Name:  name,
			Roles: roles(m.User.Badges),
		},
		ReceivedAt: m.Time,
	}
}

var badgeRoles = map[string]chat.Role{
	"broadcaster": chat.RoleBroadcaster,
	"moderator":   chat.RoleModerator,
	"vip":         chat.RoleVIP,
	"subscriber":  chat.RoleSubscriber,
	"founder":     chat.RoleSubscriber,
}

func roles(badges map[string]int) chat.Role {
	var r chat.Role
	for badge := range badges {
		r |= badgeRoles[badge]
	}
	return r
}
