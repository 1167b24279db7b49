// e2e drives a scripted conversation through the real dispatch stack (parser,
// spam controller, built-in commands, bot loop and a SQLite journal) and
// checks every outcome, reply and journal row. With DISCORD_TOKEN and
// E2E_DISCORD_CHANNEL_ID set it also posts the transcript to Discord.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"

	"github.com/jusunglee/mostlybot/internal/bot"
	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/commands"
	"github.com/jusunglee/mostlybot/internal/db/sqlite"
	"github.com/jusunglee/mostlybot/internal/discord"
	"github.com/jusunglee/mostlybot/internal/dispatch"
	"github.com/jusunglee/mostlybot/internal/logger"
	"github.com/jusunglee/mostlybot/internal/spam"
)

const botID = "mostlybot"

type step struct {
	user  string
	text  string
	want  dispatch.Outcome
	reply string
}

var script = []step{
	{user: "alice", text: "!ping", want: dispatch.Handled, reply: "pong"},
	{user: "alice", text: "!ping", want: dispatch.Notified, reply: "you are sending commands too quickly"},
	{user: "alice", text: "!ping", want: dispatch.Notified, reply: "you are sending commands too quickly"},
	{user: "alice", text: "!ping", want: dispatch.Suppressed},
	{user: "bob", text: "!ping", want: dispatch.Notified, reply: `"ping" is on cooldown`},
	{user: "carol", text: "!nope", want: dispatch.Notified, reply: "find the list of existing commands with !commands"},
	{user: "dave", text: "hello chat", want: dispatch.NotACommand},
	{user: botID, text: "!ping", want: dispatch.IgnoredSelf},
	{user: "erin", text: "!count", want: dispatch.Handled, reply: "current count: 0"},
	{user: "frank", text: "!what?", want: dispatch.Notified, reply: "invalid command format"},
	{user: "grace", text: "!rewrite", want: dispatch.Notified, reply: "command error: no argument provided"},
}

func main() {
	if err := run(); err != nil {
		slog.Error("E2E FAILED", "error", err)
		os.Exit(1)
	}
	slog.Info("E2E PASSED")
}

func run() error {
	_ = godotenv.Load()

	log := logger.New()
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	log.Info("Phase 1: Setting up journal and dispatcher...")
	dbPath := fmt.Sprintf("%s/mostlybot-e2e-%d.db", os.TempDir(), time.Now().UnixNano())
	defer os.Remove(dbPath)

	repo, err := sqlite.New(ctx, dbPath)
	if err != nil {
		return fmt.Errorf("creating temp SQLite: %w", err)
	}
	defer repo.Close()

	registry := command.NewRegistry()
	commands.Register(registry, commands.Deps{})
	dispatcher := dispatch.New(dispatch.Config{
		BotIDs: map[string]string{chat.PlatformConsole: botID},
	}, registry, spam.New(spam.DefaultConfig()), log)

	log.Info("Phase 2: Running script...", "steps", len(script))
	results := make(chan dispatch.Result, 1)
	src := &scriptedSource{steps: script, results: results}
	b := bot.New(log, observed{Dispatcher: dispatcher, results: results}, repo, bot.DefaultConfig(), src)
	if err := b.Run(ctx); err != nil {
		return fmt.Errorf("running script: %w", err)
	}

	log.Info("Phase 3: Verifying journal...")
	rows, err := repo.ListRecentInvocations(ctx, 100)
	if err != nil {
		return fmt.Errorf("listing journal: %w", err)
	}
	want := 0
	for _, s := range script {
		if s.want != dispatch.IgnoredSelf && s.want != dispatch.NotACommand {
			want++
		}
	}
	if len(rows) != want {
		return fmt.Errorf("journal has %d rows, want %d", len(rows), want)
	}
	usage, err := repo.CountInvocationsByCommand(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		return fmt.Errorf("counting journal: %w", err)
	}
	log.Info("journal verified", "rows", len(rows), "commands", len(usage))

	channelID := os.Getenv("E2E_DISCORD_CHANNEL_ID")
	token := os.Getenv("DISCORD_TOKEN")
	if channelID == "" || token == "" {
		log.Info("Phase 4: skipped, DISCORD_TOKEN or E2E_DISCORD_CHANNEL_ID not set")
		return nil
	}

	log.Info("Phase 4: Posting transcript to Discord...")
	dc, err := discord.New(discord.Config{Token: token}, log)
	if err != nil {
		return err
	}
	if _, err := dc.Open(); err != nil {
		return err
	}
	defer dc.Close()
	src.mu.Lock()
	transcript := "mostlybot e2e transcript:\n" + strings.Join(src.replies, "\n")
	src.mu.Unlock()
	ack, err := dc.Send(ctx, channelID, transcript, "")
	if err != nil {
		return fmt.Errorf("posting transcript: %w", err)
	}
	log.Info("Discord message sent", "message_id", ack)
	return dc.Close()
}

// observed reports every dispatch result back to the script.
type observed struct {
	bot.Dispatcher
	results chan<- dispatch.Result
}

func (o observed) Dispatch(ctx context.Context, msg chat.Message, out chat.Sender) dispatch.Result {
	res := o.Dispatcher.Dispatch(ctx, msg, out)
	o.results <- res
	return res
}

// scriptedSource delivers one step at a time and waits for its result, so
// the bot never shuts down with messages still queued.
type scriptedSource struct {
	steps   []step
	results <-chan dispatch.Result

	mu      sync.Mutex
	replies []string
}

func (s *scriptedSource) Platform() string { return chat.PlatformConsole }

func (s *scriptedSource) Send(_ context.Context, _, text, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replies = append(s.replies, text)
	return "", nil
}

func (s *scriptedSource) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.replies)
}

func (s *scriptedSource) lastReply(since int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.replies) == since {
		return ""
	}
	return s.replies[len(s.replies)-1]
}

func (s *scriptedSource) Run(ctx context.Context, deliver func(chat.Message)) error {
	var errs []error
	for i, st := range s.steps {
		before := s.count()
		deliver(chat.Message{
			ID:       fmt.Sprintf("e2e-%d", i),
			Platform: chat.PlatformConsole,
			Channel:  "e2e",
			Text:     st.text,
			Author:   chat.Author{ID: st.user, Name: st.user},
		})

		var res dispatch.Result
		select {
		case res = <-s.results:
		case <-ctx.Done():
			return ctx.Err()
		}

		reply := s.lastReply(before)
		slog.Info("step", "n", i, "user", st.user, "text", st.text, "outcome", res.Outcome.String(), "reply", reply)
		if res.Outcome != st.want {
			errs = append(errs, fmt.Errorf("step %d %q: outcome %s, want %s", i, st.text, res.Outcome, st.want))
		}
		if !strings.Contains(reply, st.reply) || (st.reply == "" && reply != "") {
			errs = append(errs, fmt.Errorf("step %d %q: reply %q, want it to contain %q", i, st.text, reply, st.reply))
		}
	}
	return errors.Join(errs...)
}
