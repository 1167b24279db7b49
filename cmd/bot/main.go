package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/mostlybot/internal/anthropic"
	"github.com/jusunglee/mostlybot/internal/bot"
	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/commands"
	"github.com/jusunglee/mostlybot/internal/cooldown"
	"github.com/jusunglee/mostlybot/internal/db"
	"github.com/jusunglee/mostlybot/internal/db/postgres"
	"github.com/jusunglee/mostlybot/internal/db/sqlite"
	"github.com/jusunglee/mostlybot/internal/discord"
	"github.com/jusunglee/mostlybot/internal/dispatch"
	"github.com/jusunglee/mostlybot/internal/envsetup"
	"github.com/jusunglee/mostlybot/internal/google"
	"github.com/jusunglee/mostlybot/internal/health"
	"github.com/jusunglee/mostlybot/internal/llm"
	"github.com/jusunglee/mostlybot/internal/logger"
	"github.com/jusunglee/mostlybot/internal/metrics"
	"github.com/jusunglee/mostlybot/internal/spam"
	"github.com/jusunglee/mostlybot/internal/telemetry"
	"github.com/jusunglee/mostlybot/internal/twitch"
	"github.com/jusunglee/mostlybot/internal/twitchapi"
	"github.com/jusunglee/mostlybot/internal/youtube"
)

var version = "dev"

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
	slog.Info("exiting without error")
}

func mainE() error {
	if envsetup.NeedsSetup(".env") && isTerminal(os.Stdin) {
		completed, err := envsetup.Run(".env")
		if err != nil {
			return fmt.Errorf("running setup wizard: %w", err)
		}
		if !completed {
			return errors.New("setup cancelled")
		}
	}
	_ = godotenv.Load()

	fs := ff.NewFlagSet("mostlybot")
	var (
		databaseURL        = fs.StringLong("database-url", "./mostlybot.db", "PostgreSQL URL or SQLite path for the dispatch journal")
		botIDs             = fs.StringLong("bot-ids", "", "Comma-separated platform=id pairs the bot ignores, e.g. twitch=123")
		verbose            = fs.BoolLong("verbose", "Add author, message id and raw text to notices")
		twitchUsername     = fs.StringLong("twitch-username", "", "Twitch login the bot chats as")
		twitchOAuthToken   = fs.StringLong("twitch-oauth-token", "", "Twitch chat OAuth token")
		twitchChannels     = fs.StringLong("twitch-channels", "", "Comma-separated Twitch channels to join")
		twitchBotID        = fs.StringLong("twitch-bot-id", "", "Twitch user id of the bot, resolved via Helix when empty")
		twitchClientID     = fs.StringLong("twitch-client-id", "", "Twitch application client id for Helix")
		twitchClientSecret = fs.StringLong("twitch-client-secret", "", "Twitch application client secret for Helix")
		broadcaster        = fs.StringLong("broadcaster", "", "Twitch login reported by !status, defaults to the first channel")
		discordToken       = fs.StringLong("discord-token", "", "Discord bot token")
		discordModRoles    = fs.StringLong("discord-mod-roles", "", "Comma-separated Discord role ids treated as moderators")
		userLimit          = fs.StringLong("user-limit", "1/5s", "Per-user command limit, e.g. 1/5s or off")
		commandLimit       = fs.StringLong("command-limit", "1/5s", "Default per-command limit")
		failedLimit        = fs.StringLong("failed-limit", "2/30s", "Limit on failure notices")
		handlerTimeout     = fs.DurationLong("handler-timeout", 10*time.Second, "Deadline for a single command")
		queueSize          = fs.Int64Long("queue-size", 64, "Inbound message buffer")
		journalRetention   = fs.DurationLong("journal-retention", 7*24*time.Hour, "How long journal rows are kept, 0 keeps forever")
		llmProvider        = fs.StringEnumLong("llm-provider", "LLM provider for !ask", "none", "anthropic", "google")
		llmModel           = fs.StringLong("llm-model", "", "LLM model name, provider default when empty")
		anthropicAPIKey    = fs.StringLong("anthropic-api-key", "", "Anthropic API key")
		googleAPIKey       = fs.StringLong("google-api-key", "", "Google API key")
		youtubeAPIKey      = fs.StringLong("youtube-api-key", "", "YouTube Data API key for !youtube")
		youtubeChannelID   = fs.StringLong("youtube-channel-id", "", "YouTube channel id for !youtube")
		metricsAddr        = fs.StringLong("metrics-addr", ":9090", "Prometheus listen address, empty disables")
		healthPort         = fs.Int64Long("health-port", 8080, "Health server port, 0 disables")
		healthAPIKey       = fs.StringLong("health-api-key", "", "API key for the journal endpoints")
		otelEndpoint       = fs.StringLong("otel-exporter-otlp-endpoint", "", "OTLP gRPC endpoint for traces")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}

	spamConfig, err := parseLimits(*userLimit, *commandLimit, *failedLimit)
	if err != nil {
		return err
	}
	ids, err := parseBotIDs(*botIDs)
	if err != nil {
		return err
	}

	log := logger.New()

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info("received signal, shutting down", "signal", sig)
		cancel(errors.New("signal received"))
	}()

	shutdownTracing, err := telemetry.InitTracing(ctx, *otelEndpoint, "mostlybot", version)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("failed to flush traces", "error", err)
		}
	}()

	journal, err := openJournal(ctx, *databaseURL, log)
	if err != nil {
		return err
	}
	defer journal.Close()

	llmClient, err := newLLM(ctx, *llmProvider, *llmModel, *anthropicAPIKey, *googleAPIKey)
	if err != nil {
		return err
	}

	channels := splitList(*twitchChannels)
	deps := commands.Deps{Started: time.Now(), LLM: llmClient}

	var helix *twitchapi.Client
	if *twitchClientID != "" && *twitchClientSecret != "" {
		helix = twitchapi.New(ctx, twitchapi.Config{ClientID: *twitchClientID, ClientSecret: *twitchClientSecret})
		deps.Streams = helix
		deps.Broadcaster = *broadcaster
		if deps.Broadcaster == "" && len(channels) > 0 {
			deps.Broadcaster = channels[0]
		}
	}

	if *youtubeAPIKey != "" && *youtubeChannelID != "" {
		yt, err := youtube.New(ctx, *youtubeAPIKey, *youtubeChannelID)
		if err != nil {
			return fmt.Errorf("creating YouTube client: %w", err)
		}
		deps.Videos = yt
	}

	registry := command.NewRegistry()
	commands.Register(registry, deps)
	log.InfoContext(ctx, "registered commands", "count", len(registry.Entries()), "aliases", registry.Len())

	dispatcher := dispatch.New(dispatch.Config{BotIDs: ids, Verbose: *verbose}, registry, spam.New(spamConfig), log)

	var sources []bot.Source
	if *twitchUsername != "" && *twitchOAuthToken != "" && len(channels) > 0 {
		id := *twitchBotID
		if id == "" && ids[chat.PlatformTwitch] == "" && helix != nil {
			if id, err = helix.GetUserID(ctx, *twitchUsername); err != nil {
				return fmt.Errorf("resolving twitch bot id: %w", err)
			}
		}
		if id != "" {
			dispatcher.SetBotID(chat.PlatformTwitch, id)
		}
		sources = append(sources, twitch.New(twitch.Config{
			Username:   *twitchUsername,
			OAuthToken: *twitchOAuthToken,
			Channels:   channels,
		}, log))
	}

	if *discordToken != "" {
		dc, err := discord.New(discord.Config{Token: *discordToken, ModRoleIDs: splitList(*discordModRoles)}, log)
		if err != nil {
			return err
		}
		id, err := dc.Open()
		if err != nil {
			return err
		}
		dispatcher.SetBotID(chat.PlatformDiscord, id)
		log.InfoContext(ctx, "connected to Discord", "bot_id", id)
		sources = append(sources, dc)
	}

	if len(sources) == 0 {
		return errors.New("no chat platform configured: set the twitch-* flags or discord-token")
	}

	g, ctx := errgroup.WithContext(ctx)

	if *metricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{Addr: *metricsAddr, Handler: metricsMux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.InfoContext(ctx, "starting metrics server", "addr", *metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			return metricsServer.Close()
		})
	}

	if *healthPort > 0 {
		healthServer := health.New(int(*healthPort), log, journal, *healthAPIKey)
		g.Go(func() error {
			log.InfoContext(ctx, "starting health server", "port", *healthPort)
			return healthServer.Start()
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return healthServer.Shutdown(shutdownCtx)
		})
	}

	if pg, ok := journal.(*postgres.Repository); ok {
		g.Go(func() error {
			exportPoolStats(ctx, pg)
			return nil
		})
	}

	b := bot.New(log, dispatcher, journal, bot.Config{
		QueueSize:        int(*queueSize),
		HandlerTimeout:   *handlerTimeout,
		JournalRetention: *journalRetention,
	}, sources...)
	g.Go(func() error {
		err := b.Run(ctx)
		// the bot stopping takes the servers down with it
		cancel(errors.New("bot stopped"))
		return err
	})

	return g.Wait()
}

// openJournal picks PostgreSQL for postgres:// URLs and SQLite for anything
// else.
func openJournal(ctx context.Context, url string, log logger.Logger) (db.Repository, error) {
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		repo, err := postgres.New(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("creating PostgreSQL connection: %w", err)
		}
		log.InfoContext(ctx, "connected to PostgreSQL database")
		return repo, nil
	}

	repo, err := sqlite.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}
	log.InfoContext(ctx, "opened SQLite database", "path", url)
	return repo, nil
}

func newLLM(ctx context.Context, provider, model, anthropicKey, googleKey string) (llm.Client, error) {
	switch provider {
	case "anthropic":
		if anthropicKey == "" {
			return nil, errors.New("anthropic-api-key is required when using anthropic provider")
		}
		return llm.Timed(anthropic.NewClient(anthropicKey, anthropic.Model(model))), nil
	case "google":
		if googleKey == "" {
			return nil, errors.New("google-api-key is required when using google provider")
		}
		client, err := google.NewClient(ctx, googleKey, google.Model(model))
		if err != nil {
			return nil, fmt.Errorf("creating Google client: %w", err)
		}
		return llm.Timed(client), nil
	}
	return nil, nil
}

// exportPoolStats periodically copies pgxpool stats into Prometheus gauges.
func exportPoolStats(ctx context.Context, repo *postgres.Repository) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s := repo.PoolStats()
			metrics.DBPoolTotalConns.Set(float64(s.TotalConns()))
			metrics.DBPoolIdleConns.Set(float64(s.IdleConns()))
			metrics.DBPoolAcquiredConns.Set(float64(s.AcquiredConns()))
			metrics.DBPoolMaxConns.Set(float64(s.MaxConns()))
		case <-ctx.Done():
			return
		}
	}
}

func parseLimits(user, command, failed string) (spam.Config, error) {
	var cfg spam.Config
	for _, l := range []struct {
		name  string
		value string
		dst   *cooldown.Policy
	}{
		{"user-limit", user, &cfg.User},
		{"command-limit", command, &cfg.Command},
		{"failed-limit", failed, &cfg.Failed},
	} {
		p, err := cooldown.ParsePolicy(l.value)
		if err != nil {
			return spam.Config{}, fmt.Errorf("parsing %s: %w", l.name, err)
		}
		*l.dst = p
	}
	return cfg, nil
}

// parseBotIDs reads "platform=id" pairs.
func parseBotIDs(s string) (map[string]string, error) {
	ids := make(map[string]string)
	for _, pair := range splitList(s) {
		platform, id, ok := strings.Cut(pair, "=")
		platform, id = strings.TrimSpace(platform), strings.TrimSpace(id)
		if !ok || platform == "" || id == "" {
			return nil, fmt.Errorf("invalid bot id %q, want platform=id", pair)
		}
		ids[platform] = id
	}
	return ids, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}
