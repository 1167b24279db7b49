// Package console is a local terminal chat for trying commands without
// connecting to a platform.
package console

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/jusunglee/mostlybot/internal/chat"
)

// Channel is the only channel the console has.
const Channel = "console"

var (
	userStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	botStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// User is who the console speaks as.
type User struct {
	ID    string
	Name  string
	Roles chat.Role
}

func (u User) author() chat.Author {
	return chat.Author{ID: u.ID, Name: u.Name, Roles: u.Roles}
}

type Console struct {
	user    User
	options []tea.ProgramOption

	mu      sync.Mutex
	program *tea.Program
}

func New(user User, options ...tea.ProgramOption) *Console {
	if user.Name == "" {
		user.Name = "you"
	}
	if user.ID == "" {
		user.ID = user.Name
	}
	return &Console{user: user, options: options}
}

func (c *Console) Platform() string { return chat.PlatformConsole }

// Run shows the console until the user quits or ctx is done. Quitting ends
// Run without error.
func (c *Console) Run(ctx context.Context, deliver func(chat.Message)) error {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, c.options...)
	p := tea.NewProgram(newModel(c.user, deliver), opts...)

	c.mu.Lock()
	c.program = p
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.program = nil
		c.mu.Unlock()
	}()

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	return nil
}

// Send shows text in the transcript. The returned id is a fresh uuid.
func (c *Console) Send(ctx context.Context, channel, text, parentID string) (string, error) {
	c.mu.Lock()
	p := c.program
	c.mu.Unlock()
	if p == nil {
		return "", errors.New("console is not running")
	}
	id := uuid.NewString()
	p.Send(replyMsg{id: id, text: text, threaded: parentID != ""})
	return id, nil
}

type replyMsg struct {
	id       string
	text     string
	threaded bool
}

type model struct {
	user    User
	deliver func(chat.Message)
	input   textinput.Model
	view    viewport.Model
	lines   []string
}

func newModel(user User, deliver func(chat.Message)) model {
	in := textinput.New()
	in.Placeholder = "type a message, try !help"
	in.CharLimit = 500
	in.Focus()
	return model{
		user:    user,
		deliver: deliver,
		input:   in,
		view:    viewport.New(80, 20),
		lines:   []string{dimStyle.Render("/as <name> switches user, /mod toggles moderator, /quit exits")},
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.view.Width = msg.Width
		m.view.Height = max(msg.Height-3, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if line == "" {
				return m, nil
			}
			return m.submit(line)
		}

	case replyMsg:
		prefix := botStyle.Render("mostlybot") + ": "
		if msg.threaded {
			prefix = dimStyle.Render("↳ ") + prefix
		}
		m.lines = append(m.lines, prefix+msg.text)
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m model) submit(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return m, tea.Quit
	case "/as":
		if len(fields) < 2 {
			m.note("usage: /as <name>")
			return m, nil
		}
		m.user = User{ID: fields[1], Name: fields[1], Roles: m.user.Roles &^ chat.RoleModerator}
		m.note("now chatting as " + m.user.Name)
		return m, nil
	case "/mod":
		m.user.Roles ^= chat.RoleModerator
		m.note(fmt.Sprintf("%s is now %s", m.user.Name, m.user.Roles))
		return m, nil
	}

	m.lines = append(m.lines, userStyle.Render(m.user.Name)+": "+line)
	m.refresh()
	// the bot queue is buffered, so this only blocks when it is full
	m.deliver(chat.Message{
		ID:       uuid.NewString(),
		Platform: chat.PlatformConsole,
		Channel:  Channel,
		Text:     line,
		Author:   m.user.author(),
	})
	return m, nil
}

func (m *model) note(text string) {
	m.lines = append(m.lines, dimStyle.Render(text))
	m.refresh()
}

func (m *model) refresh() {
	m.view.SetContent(strings.Join(m.lines, "\n"))
	m.view.GotoBottom()
}

func (m model) View() string {
	return m.view.View() + "\n\n" + m.input.View()
}
