package console

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mostlybot/internal/chat"
)

func typeLine(t *testing.T, m tea.Model, line string) (tea.Model, tea.Cmd) {
	t.Helper()
	mm := m.(model)
	mm.input.SetValue(line)
	return mm.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

func TestSubmitDeliversMessage(t *testing.T) {
	var got []chat.Message
	var m tea.Model = newModel(User{ID: "7", Name: "alice"}, func(msg chat.Message) { got = append(got, msg) })

	m, _ = typeLine(t, m, "  !ping  ")
	m, _ = typeLine(t, m, "   ")

	require.Len(t, got, 1)
	assert.Equal(t, chat.PlatformConsole, got[0].Platform)
	assert.Equal(t, Channel, got[0].Channel)
	assert.Equal(t, "!ping", got[0].Text)
	assert.Equal(t, chat.Author{ID: "7", Name: "alice"}, got[0].Author)
	_, err := uuid.Parse(got[0].ID)
	assert.NoError(t, err)
	assert.Empty(t, m.(model).input.Value())
}

func TestSlashCommands(t *testing.T) {
	var got []chat.Message
	var m tea.Model = newModel(User{ID: "7", Name: "alice"}, func(msg chat.Message) { got = append(got, msg) })

	m, _ = typeLine(t, m, "/mod")
	assert.True(t, m.(model).user.Roles.Has(chat.RoleModerator))

	m, _ = typeLine(t, m, "/as bob")
	assert.Equal(t, User{ID: "bob", Name: "bob"}, m.(model).user)

	m, _ = typeLine(t, m, "/as")
	assert.Equal(t, "bob", m.(model).user.Name)

	m, _ = typeLine(t, m, "!ban alice")
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Author.Name)

	_, cmd := typeLine(t, m, "/quit")
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestRepliesRenderInTranscript(t *testing.T) {
	var m tea.Model = newModel(User{Name: "alice"}, func(chat.Message) {})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})

	m, _ = m.Update(replyMsg{text: "pong", threaded: true})
	m, _ = m.Update(replyMsg{text: "current count: 0"})

	lines := m.(model).lines
	require.GreaterOrEqual(t, len(lines), 3)
	assert.True(t, strings.HasSuffix(lines[len(lines)-2], ": pong"))
	assert.Contains(t, lines[len(lines)-2], "↳")
	assert.NotContains(t, lines[len(lines)-1], "↳")
	assert.Contains(t, m.View(), "current count: 0")
}

func TestCtrlCQuits(t *testing.T) {
	m := newModel(User{}, func(chat.Message) {})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestSendBeforeRun(t *testing.T) {
	c := New(User{})
	_, err := c.Send(context.Background(), Channel, "pong", "")
	assert.Error(t, err)
	assert.Equal(t, chat.PlatformConsole, c.Platform())
}

func TestNewDefaults(t *testing.T) {
	c := New(User{})
	assert.Equal(t, User{ID: "you", Name: "you"}, c.user)
}
