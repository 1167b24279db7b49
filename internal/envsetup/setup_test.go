package envsetup

import (
	"os"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enter(t *testing.T, m tea.Model, input string) tea.Model {
	t.Helper()
	if input != "" {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(input)})
	}
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return m
}

func TestWizardWritesEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	assert.True(t, NeedsSetup(path))

	var m tea.Model = New(path)
	m = enter(t, m, "")
	m = enter(t, m, "MostlyBot")
	m = enter(t, m, "oauth:abcdef123456")
	m = enter(t, m, "#MostlyMaxi")
	m = enter(t, m, "")
	m = enter(t, m, "1")
	m = enter(t, m, "sk-ant-key")
	require.Equal(t, stepConfirm, m.(model).step)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, stepDone, m.(model).step)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "DATABASE_URL=./mostlybot.db\n"+
		"TWITCH_USERNAME=mostlybot\n"+
		"TWITCH_OAUTH_TOKEN=oauth:abcdef123456\n"+
		"TWITCH_CHANNELS=mostlymaxi\n"+
		"LLM_PROVIDER=anthropic\n"+
		"ANTHROPIC_API_KEY=sk-ant-key\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	assert.False(t, NeedsSetup(path))
}

func TestWizardValidation(t *testing.T) {
	var m tea.Model = New(filepath.Join(t.TempDir(), ".env"))
	m = enter(t, m, "")

	m = enter(t, m, "  ")
	assert.Equal(t, stepTwitchUser, m.(model).step)
	assert.Error(t, m.(model).err)

	m = enter(t, m, "bot")
	m = enter(t, m, "token")
	m = enter(t, m, "chan")
	m = enter(t, m, "discord-token")
	m = enter(t, m, "7")
	assert.Equal(t, stepLLMProvider, m.(model).step)
	assert.Error(t, m.(model).err)

	m = enter(t, m, "3")
	assert.Equal(t, stepConfirm, m.(model).step)
	assert.Equal(t, "discord-token", m.(model).discordToken)
	assert.NotContains(t, m.(model).envFile(), "LLM_PROVIDER")
	assert.Contains(t, m.(model).envFile(), "DISCORD_TOKEN=discord-token\n")

	m = enter(t, m, "n")
	assert.Equal(t, stepWelcome, m.(model).step)
	assert.Empty(t, m.(model).twitchUser)
}

func TestBackspace(t *testing.T) {
	var m tea.Model = New("")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("héé")})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, "hé", m.(model).input)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "****", maskToken("abcd"))
	assert.Equal(t, "abcd****mnop", maskToken("abcdefghmnop"))
}
