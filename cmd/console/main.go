// console runs the bot against a local terminal chat. Commands go through
// the same dispatcher and rate limits as on Twitch and Discord.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/jusunglee/mostlybot/internal/anthropic"
	"github.com/jusunglee/mostlybot/internal/bot"
	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/commands"
	"github.com/jusunglee/mostlybot/internal/console"
	"github.com/jusunglee/mostlybot/internal/cooldown"
	"github.com/jusunglee/mostlybot/internal/db/sqlite"
	"github.com/jusunglee/mostlybot/internal/dispatch"
	"github.com/jusunglee/mostlybot/internal/google"
	"github.com/jusunglee/mostlybot/internal/llm"
	"github.com/jusunglee/mostlybot/internal/logger"
	"github.com/jusunglee/mostlybot/internal/spam"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("mostlybot-console")
	var (
		user         = fs.StringLong("user", "you", "Name to chat as")
		moderator    = fs.BoolLong("moderator", "Start with the moderator role")
		verbose      = fs.BoolLong("verbose", "Add author, message id and raw text to notices")
		userLimit    = fs.StringLong("user-limit", "1/5s", "Per-user command limit, e.g. 1/5s or off")
		commandLimit = fs.StringLong("command-limit", "1/5s", "Default per-command limit")
		failedLimit  = fs.StringLong("failed-limit", "2/30s", "Limit on failure notices")
		logFile      = fs.StringLong("log-file", "mostlybot-console.log", "Where logs go while the console owns the terminal")
		llmProvider  = fs.StringEnumLong("llm-provider", "LLM provider for !ask", "none", "anthropic", "google")
		llmModel     = fs.StringLong("llm-model", "", "LLM model name, provider default when empty")
		anthropicKey = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleKey    = fs.StringLong("google-api-key", "", "Google API key")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	var cfg spam.Config
	for _, l := range []struct {
		value string
		dst   *cooldown.Policy
	}{{*userLimit, &cfg.User}, {*commandLimit, &cfg.Command}, {*failedLimit, &cfg.Failed}} {
		p, err := cooldown.ParsePolicy(l.value)
		if err != nil {
			return err
		}
		*l.dst = p
	}

	f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	defer f.Close()
	base := slog.New(logger.NewHandler(f, os.Getenv("LOG_FORMAT"), logger.ParseLevel(os.Getenv("LOG_LEVEL"))))
	slog.SetDefault(base)
	log := logger.Wrap(base)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	journal, err := sqlite.New(ctx, ":memory:")
	if err != nil {
		return fmt.Errorf("opening journal: %w", err)
	}
	defer journal.Close()

	var client llm.Client
	switch *llmProvider {
	case "anthropic":
		if *anthropicKey == "" {
			return errors.New("anthropic-api-key is required when using anthropic provider")
		}
		client = llm.Timed(anthropic.NewClient(*anthropicKey, anthropic.Model(*llmModel)))
	case "google":
		if *googleKey == "" {
			return errors.New("google-api-key is required when using google provider")
		}
		g, err := google.NewClient(ctx, *googleKey, google.Model(*llmModel))
		if err != nil {
			return fmt.Errorf("creating Google client: %w", err)
		}
		client = llm.Timed(g)
	}

	registry := command.NewRegistry()
	commands.Register(registry, commands.Deps{Started: time.Now(), LLM: client})

	dispatcher := dispatch.New(dispatch.Config{
		BotIDs:  map[string]string{chat.PlatformConsole: "mostlybot"},
		Verbose: *verbose,
	}, registry, spam.New(cfg), log)

	local := console.User{Name: *user}
	if *moderator {
		local.Roles |= chat.RoleModerator
	}

	return bot.New(log, dispatcher, journal, bot.DefaultConfig(), console.New(local)).Run(ctx)
}
