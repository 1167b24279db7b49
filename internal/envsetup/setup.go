// envsetup provides a lightweight .env configuration wizard.
// It runs automatically on first bot startup when no .env file exists,
// collecting Twitch, Discord, and LLM credentials.
package envsetup

import (
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type step int

const (
	stepWelcome step = iota
	stepTwitchUser
	stepTwitchToken
	stepTwitchChannel
	stepDiscord
	stepLLMProvider
	stepLLMKey
	stepConfirm
	stepDone
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	linkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Underline(true)

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("82"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

type model struct {
	path          string
	step          step
	twitchUser    string
	twitchToken   string
	twitchChannel string
	discordToken  string
	llmProvider   string
	llmAPIKey     string
	input         string
	err           error
	width         int
	height        int
}

func New(path string) model {
	return model{
		path: path,
		step: stepWelcome,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m, tea.Quit

		case tea.KeyEnter:
			return m.handleEnter()

		case tea.KeyBackspace:
			if r := []rune(m.input); len(r) > 0 {
				m.input = string(r[:len(r)-1])
			}
			return m, nil

		case tea.KeyRunes:
			m.input += string(msg.Runes)
			return m, nil

		case tea.KeySpace:
			m.input += " "
			return m, nil
		}
	}

	return m, nil
}

func (m model) handleEnter() (tea.Model, tea.Cmd) {
	m.err = nil
	value := strings.TrimSpace(m.input)
	m.input = ""

	switch m.step {
	case stepWelcome:
		m.step = stepTwitchUser

	case stepTwitchUser:
		if value == "" {
			m.err = fmt.Errorf("bot username is required")
			return m, nil
		}
		m.twitchUser = strings.ToLower(value)
		m.step = stepTwitchToken

	case stepTwitchToken:
		if value == "" {
			m.err = fmt.Errorf("OAuth token is required")
			return m, nil
		}
		m.twitchToken = value
		m.step = stepTwitchChannel

	case stepTwitchChannel:
		if value == "" {
			m.err = fmt.Errorf("at least one channel is required")
			return m, nil
		}
		m.twitchChannel = strings.ToLower(strings.TrimPrefix(value, "#"))
		m.step = stepDiscord

	case stepDiscord:
		m.discordToken = value
		m.step = stepLLMProvider

	case stepLLMProvider:
		switch strings.ToLower(value) {
		case "1", "anthropic":
			m.llmProvider = "anthropic"
			m.step = stepLLMKey
		case "2", "google":
			m.llmProvider = "google"
			m.step = stepLLMKey
		case "", "3", "none":
			m.llmProvider = ""
			m.step = stepConfirm
		default:
			m.err = fmt.Errorf("enter 1 for Anthropic, 2 for Google, or 3 to skip")
		}

	case stepLLMKey:
		if value == "" {
			m.err = fmt.Errorf("API key is required")
			return m, nil
		}
		m.llmAPIKey = value
		m.step = stepConfirm

	case stepConfirm:
		switch strings.ToLower(value) {
		case "y", "yes", "":
			if err := os.WriteFile(m.path, []byte(m.envFile()), 0600); err != nil {
				m.err = err
				return m, nil
			}
			m.step = stepDone
			return m, tea.Quit
		case "n", "no":
			return New(m.path), nil
		}
	}

	return m, nil
}

func (m model) envFile() string {
	var b strings.Builder
	b.WriteString("DATABASE_URL=./mostlybot.db\n")
	fmt.Fprintf(&b, "TWITCH_USERNAME=%s\n", m.twitchUser)
	fmt.Fprintf(&b, "TWITCH_OAUTH_TOKEN=%s\n", m.twitchToken)
	fmt.Fprintf(&b, "TWITCH_CHANNELS=%s\n", m.twitchChannel)
	if m.discordToken != "" {
		fmt.Fprintf(&b, "DISCORD_TOKEN=%s\n", m.discordToken)
	}
	switch m.llmProvider {
	case "anthropic":
		b.WriteString("LLM_PROVIDER=anthropic\n")
		fmt.Fprintf(&b, "ANTHROPIC_API_KEY=%s\n", m.llmAPIKey)
	case "google":
		b.WriteString("LLM_PROVIDER=google\n")
		fmt.Fprintf(&b, "GOOGLE_API_KEY=%s\n", m.llmAPIKey)
	}
	return b.String()
}

func (m model) View() string {
	var s strings.Builder

	prompt := func(label string, masked bool) {
		s.WriteString("\n")
		s.WriteString(labelStyle.Render(label))
		s.WriteString("\n")
		value := m.input
		if masked {
			value = maskToken(value)
		}
		s.WriteString("> " + inputStyle.Render(value))
		if m.err != nil {
			s.WriteString("\n" + errorStyle.Render(m.err.Error()))
		}
	}

	switch m.step {
	case stepWelcome:
		s.WriteString(titleStyle.Render("mostlybot - Env Setup"))
		s.WriteString("\n\n")
		s.WriteString("This wizard will help you configure the bot.\n")
		s.WriteString("You'll need:\n\n")
		s.WriteString("  - A Twitch account for the bot and its chat OAuth token\n")
		s.WriteString("  - Optionally a Discord bot token\n")
		s.WriteString("  - Optionally an LLM API key (Anthropic or Google) for !ask\n")
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("Press Enter to continue, Ctrl+C to exit"))

	case stepTwitchUser:
		s.WriteString(titleStyle.Render("Step 1: Twitch Bot Account"))
		s.WriteString("\n\n")
		s.WriteString("The login name of the account the bot chats as.\n")
		prompt("Bot username:", false)

	case stepTwitchToken:
		s.WriteString(titleStyle.Render("Step 2: Twitch Chat Token"))
		s.WriteString("\n\n")
		s.WriteString("To get a chat token:\n\n")
		s.WriteString("  1. Register an application at " + linkStyle.Render("https://dev.twitch.tv/console/apps") + "\n")
		s.WriteString("  2. Authorize the bot account with the chat:read and chat:edit scopes\n")
		s.WriteString("  3. Paste the access token, with or without the oauth: prefix\n")
		prompt("Paste your OAuth token here:", true)

	case stepTwitchChannel:
		s.WriteString(titleStyle.Render("Step 3: Twitch Channels"))
		s.WriteString("\n\n")
		s.WriteString("Comma separated channels the bot joins.\n")
		prompt("Channels:", false)

	case stepDiscord:
		s.WriteString(titleStyle.Render("Step 4: Discord Bot Token (optional)"))
		s.WriteString("\n\n")
		s.WriteString("To get your Discord bot token:\n\n")
		s.WriteString("  1. Go to " + linkStyle.Render("https://discord.com/developers/applications") + "\n")
		s.WriteString("  2. Create a new application (or select existing)\n")
		s.WriteString("  3. Go to the Bot section and click 'Reset Token'\n")
		s.WriteString("  4. Enable 'Message Content Intent' under Privileged Gateway Intents\n")
		s.WriteString("\n")
		s.WriteString(dimStyle.Render("Leave empty to skip Discord"))
		prompt("Paste your Discord token here:", true)

	case stepLLMProvider:
		s.WriteString(titleStyle.Render("Step 5: Choose LLM Provider"))
		s.WriteString("\n\n")
		s.WriteString("Which LLM provider should answer !ask?\n\n")
		s.WriteString("  1. Anthropic (Claude)\n")
		s.WriteString("  2. Google (Gemini)\n")
		s.WriteString("  3. None\n")
		prompt("Enter 1, 2 or 3:", false)

	case stepLLMKey:
		s.WriteString(titleStyle.Render("Step 6: LLM API Key"))
		s.WriteString("\n\n")
		if m.llmProvider == "anthropic" {
			s.WriteString("Create a key at " + linkStyle.Render("https://console.anthropic.com") + "\n")
		} else {
			s.WriteString("Create a key at " + linkStyle.Render("https://aistudio.google.com/apikey") + "\n")
		}
		prompt("Paste your API key here:", true)

	case stepConfirm, stepDone:
		s.WriteString(titleStyle.Render("Configuration Complete"))
		s.WriteString("\n\n")
		s.WriteString("Your configuration:\n\n")
		s.WriteString("  Database:     " + successStyle.Render("./mostlybot.db") + "\n")
		s.WriteString("  Twitch:       " + successStyle.Render(m.twitchUser+" in #"+m.twitchChannel) + "\n")
		s.WriteString("  Token:        " + successStyle.Render(maskToken(m.twitchToken)) + "\n")
		if m.discordToken != "" {
			s.WriteString("  Discord:      " + successStyle.Render(maskToken(m.discordToken)) + "\n")
		}
		if m.llmProvider != "" {
			s.WriteString("  LLM Provider: " + successStyle.Render(m.llmProvider) + "\n")
			s.WriteString("  LLM API Key:  " + successStyle.Render(maskToken(m.llmAPIKey)) + "\n")
		}
		prompt("Save this configuration? [Y/n]:", false)
	}

	s.WriteString("\n")
	return s.String()
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}

// Run starts the setup wizard and returns true if it wrote the file at path.
func Run(path string) (bool, error) {
	p := tea.NewProgram(New(path))
	finalModel, err := p.Run()
	if err != nil {
		return false, err
	}

	m := finalModel.(model)
	return m.step == stepDone, nil
}

// NeedsSetup reports whether the file at path is missing.
func NeedsSetup(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}
