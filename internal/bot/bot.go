package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/db"
	"github.com/jusunglee/mostlybot/internal/dispatch"
	"github.com/jusunglee/mostlybot/internal/logger"
	"github.com/jusunglee/mostlybot/internal/metrics"
)

type Config struct {
	QueueSize      int
	HandlerTimeout time.Duration
	// DrainTimeout bounds how long messages still queued at shutdown are
	// dispatched for before the rest are dropped.
	DrainTimeout     time.Duration
	JournalRetention time.Duration
	CleanupInterval  time.Duration
}

func DefaultConfig() Config {
	return Config{
		QueueSize:        64,
		HandlerTimeout:   10 * time.Second,
		DrainTimeout:     5 * time.Second,
		JournalRetention: 7 * 24 * time.Hour,
		CleanupInterval:  time.Hour,
	}
}

const journalTimeout = 5 * time.Second

type envelope struct {
	msg chat.Message
	out chat.Sender
}

// Bot fans messages from every source into one queue drained by a single
// consumer, so commands run strictly one after another.
type Bot struct {
	log        logger.Logger
	dispatcher Dispatcher
	journal    db.Repository
	sources    []Source
	config     Config
	now        func() time.Time
}

// New builds a Bot. journal may be nil to run without one.
func New(log logger.Logger, dispatcher Dispatcher, journal db.Repository, config Config, sources ...Source) *Bot {
	defaults := DefaultConfig()
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.HandlerTimeout <= 0 {
		config.HandlerTimeout = defaults.HandlerTimeout
	}
	if config.DrainTimeout <= 0 {
		config.DrainTimeout = defaults.DrainTimeout
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	return &Bot{
		log:        log,
		dispatcher: dispatcher,
		journal:    journal,
		sources:    sources,
		config:     config,
		now:        time.Now,
	}
}

// Run blocks until ctx is cancelled or a source stops. A source stopping
// without error (the console quitting) shuts the bot down cleanly. Either
// way the message being dispatched finishes and whatever is still queued is
// dispatched within Config.DrainTimeout.
func (b *Bot) Run(ctx context.Context) error {
	if len(b.sources) == 0 {
		return errors.New("no chat sources configured")
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	queue := make(chan envelope, b.config.QueueSize)
	g, ctx := errgroup.WithContext(ctx)

	for _, src := range b.sources {
		g.Go(func() error {
			log := b.log.With("platform", src.Platform())
			log.InfoContext(ctx, "starting chat source")
			err := src.Run(ctx, b.deliverer(ctx, queue, src))
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s source: %w", src.Platform(), err)
			}
			log.InfoContext(ctx, "chat source stopped")
			cancel(fmt.Errorf("%s source stopped", src.Platform()))
			return nil
		})
	}

	g.Go(func() error {
		b.runConsumer(ctx, queue)
		return nil
	})

	if b.journal != nil && b.config.JournalRetention > 0 {
		g.Go(func() error {
			b.runCleaner(ctx)
			return nil
		})
	}

	b.log.InfoContext(ctx, "bot is running", "sources", len(b.sources))
	err := g.Wait()
	b.log.Info("shut down complete", "cause", context.Cause(ctx))
	return err
}

// deliverer returns the callback a source uses to enqueue messages. It drops
// the message once the bot is shutting down instead of blocking the source.
func (b *Bot) deliverer(ctx context.Context, queue chan<- envelope, out chat.Sender) func(chat.Message) {
	return func(msg chat.Message) {
		if ctx.Err() != nil {
			return
		}
		if msg.ReceivedAt.IsZero() {
			msg.ReceivedAt = b.now()
		}
		select {
		case queue <- envelope{msg: msg, out: out}:
			metrics.QueueDepth.Set(float64(len(queue)))
		case <-ctx.Done():
		}
	}
}

// runConsumer dispatches on a context detached from ctx, so stopping the bot
// never cuts off a reply or journal write halfway.
func (b *Bot) runConsumer(ctx context.Context, queue <-chan envelope) {
	base := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			b.drain(base, queue)
			return
		case env := <-queue:
			metrics.QueueDepth.Set(float64(len(queue)))
			b.handle(base, env)
		}
	}
}

// drain dispatches what is left in the queue once the bot is stopping.
// Messages delivered after this point are dropped.
func (b *Bot) drain(ctx context.Context, queue <-chan envelope) {
	ctx, cancel := context.WithTimeout(ctx, b.config.DrainTimeout)
	defer cancel()

	for {
		select {
		case env := <-queue:
			if ctx.Err() != nil {
				b.log.Warn("dropping queued messages on shutdown", "count", len(queue)+1)
				return
			}
			b.handle(ctx, env)
		default:
			metrics.QueueDepth.Set(0)
			return
		}
	}
}

func (b *Bot) handle(ctx context.Context, env envelope) {
	msgCtx, cancel := context.WithTimeout(ctx, b.config.HandlerTimeout)
	defer cancel()

	res := b.dispatcher.Dispatch(msgCtx, env.msg, env.out)
	switch res.Outcome {
	case dispatch.IgnoredSelf, dispatch.NotACommand:
		return
	}

	b.log.DebugContext(ctx, "dispatched",
		"platform", env.msg.Platform,
		"user", env.msg.Author.Name,
		"command", res.Command,
		"outcome", res.Outcome.String(),
		"duration", res.Duration,
	)
	b.record(ctx, env.msg, res)
}

func (b *Bot) record(ctx context.Context, msg chat.Message, res dispatch.Result) {
	if b.journal == nil {
		return
	}

	arg := db.CreateInvocationParams{
		Platform:   msg.Platform,
		Channel:    msg.Channel,
		MessageID:  msg.ID,
		UserID:     msg.Author.ID,
		UserName:   msg.Author.Name,
		Command:    res.Command,
		Outcome:    res.Outcome.String(),
		ErrorKind:  res.Kind(),
		DurationMs: res.Duration.Milliseconds(),
	}
	if res.Err != nil {
		arg.Detail = chat.Truncate(res.Err.Error(), 500)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()

	if _, err := b.journal.CreateInvocation(ctx, arg); err != nil {
		metrics.JournalWrites.WithLabelValues("error").Inc()
		b.log.WarnContext(ctx, "failed to journal invocation", "command", res.Command, "error", err)
		return
	}
	metrics.JournalWrites.WithLabelValues("ok").Inc()
}

func (b *Bot) runCleaner(ctx context.Context) {
	for ctx.Err() == nil {
		if err := b.cleanupJournal(ctx); err != nil {
			b.log.ErrorContext(ctx, "cleaning journal", "error", err)
		}
		sleepWithContext(ctx, b.config.CleanupInterval)
	}
	b.log.InfoContext(ctx, "context done, exiting cleaner")
}

func (b *Bot) cleanupJournal(ctx context.Context) error {
	cleanupCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	cutoff := b.now().Add(-b.config.JournalRetention)
	deleted, err := b.journal.DeleteInvocationsBefore(cleanupCtx, cutoff)
	if err != nil {
		return fmt.Errorf("deleting invocations before %s: %w", cutoff.Format(time.RFC3339), err)
	}
	metrics.JournalDeleted.Add(float64(deleted))
	b.log.InfoContext(ctx, "cleaned journal", "deleted", deleted)
	return nil
}

func sleepWithContext(ctx context.Context, dur time.Duration) {
	timer := time.NewTimer(dur)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
