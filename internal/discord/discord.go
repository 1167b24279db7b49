// Package discord connects the bot to Discord guild text channels.
package discord

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/logger"
)

// MaxMessageRunes is Discord's content limit for a single message.
const MaxMessageRunes = 2000

// Session is the slice of the gateway and REST API the transport needs.
type Session interface {
	Open() error
	Close() error
	OnMessageCreate(func(*discordgo.MessageCreate))
	BotUserID() string
	GuildOwnerID(guildID string) string
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)
}

// session adapts *discordgo.Session to Session.
type session struct {
	s *discordgo.Session
}

func (a session) Open() error  { return a.s.Open() }
func (a session) Close() error { return a.s.Close() }

func (a session) OnMessageCreate(fn func(*discordgo.MessageCreate)) {
	a.s.AddHandler(func(_ *discordgo.Session, m *discordgo.MessageCreate) { fn(m) })
}

func (a session) BotUserID() string {
	if a.s.State == nil || a.s.State.User == nil {
		return ""
	}
	return a.s.State.User.ID
}

func (a session) GuildOwnerID(guildID string) string {
	g, err := a.s.State.Guild(guildID)
	if err != nil {
		return ""
	}
	return g.OwnerID
}

func (a session) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	return a.s.ChannelMessageSendComplex(channelID, msg, discordgo.WithContext(ctx))
}

type Config struct {
	Token string
	// ModRoleIDs are guild role ids whose members count as moderators.
	ModRoleIDs []string
}

type Client struct {
	session  Session
	modRoles []string
	log      logger.Logger

	mu      sync.Mutex
	opened  bool
	deliver func(chat.Message)
}

func New(cfg Config, log logger.Logger) (*Client, error) {
	s, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentGuilds | discordgo.IntentGuildMessages | discordgo.IntentMessageContent
	return newClient(session{s: s}, cfg.ModRoleIDs, log), nil
}

func newClient(s Session, modRoles []string, log logger.Logger) *Client {
	c := &Client{
		session:  s,
		modRoles: modRoles,
		log:      log.With("platform", chat.PlatformDiscord),
	}
	s.OnMessageCreate(c.onMessage)
	return c
}

func (c *Client) Platform() string { return chat.PlatformDiscord }

// Open connects to the gateway and returns the bot's own user id. Messages
// that arrive before Run are dropped.
func (c *Client) Open() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.opened {
		if err := c.session.Open(); err != nil {
			return "", fmt.Errorf("failed to open Discord session: %w", err)
		}
		c.opened = true
	}
	id := c.session.BotUserID()
	if id == "" {
		return "", errors.New("discord session has no user")
	}
	return id, nil
}

// Run delivers messages until ctx is done, then closes the session.
func (c *Client) Run(ctx context.Context, deliver func(chat.Message)) error {
	if _, err := c.Open(); err != nil {
		return err
	}
	c.mu.Lock()
	c.deliver = deliver
	c.mu.Unlock()
	c.log.InfoContext(ctx, "listening on discord")

	<-ctx.Done()
	return c.Close()
}

// Close disconnects from the gateway. It is a no-op when not open.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deliver = nil
	if !c.opened {
		return nil
	}
	c.opened = false
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("closing Discord session: %w", err)
	}
	return nil
}

func (c *Client) onMessage(m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}
	c.mu.Lock()
	deliver := c.deliver
	c.mu.Unlock()
	if deliver == nil {
		return
	}
	deliver(c.toMessage(m.Message))
}

func (c *Client) toMessage(m *discordgo.Message) chat.Message {
	name := m.Author.GlobalName
	if name == "" {
		name = m.Author.Username
	}
	var r chat.Role
	if m.Member != nil {
		if m.Member.Nick != "" {
			name = m.Member.Nick
		}
		if slices.ContainsFunc(m.Member.Roles, func(id string) bool { return slices.Contains(c.modRoles, id) }) {
			r |= chat.RoleModerator
		}
	}
	if m.GuildID != "" && c.session.GuildOwnerID(m.GuildID) == m.Author.ID {
		r |= chat.RoleBroadcaster
	}
	return chat.Message{
		ID:       m.ID,
		Platform: chat.PlatformDiscord,
		Channel:  m.ChannelID,
		Text:     m.Content,
		Author: chat.Author{
			ID:    m.Author.ID,
			Name:  name,
			Roles: r,
		},
		ReceivedAt: m.Timestamp,
	}
}

// Send posts text to channel, referencing parentID when set, and returns the
// new message's id. Mentions in bot output never ping anyone.
func (c *Client) Send(ctx context.Context, channel, text, parentID string) (string, error) {
	msg := &discordgo.MessageSend{
		Content:         chat.Truncate(text, MaxMessageRunes),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if parentID != "" {
		msg.Reference = &discordgo.MessageReference{MessageID: parentID, ChannelID: channel}
	}
	sent, err := c.session.SendMessage(ctx, channel, msg)
	if err != nil {
		return "", fmt.Errorf("sending to channel %s: %w", channel, err)
	}
	return sent.ID, nil
}
