// Package dispatch turns inbound chat messages into command invocations,
// enforcing the spam limits and reporting failures back to the chatter.
package dispatch

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/logger"
	"github.com/jusunglee/mostlybot/internal/metrics"
	"github.com/jusunglee/mostlybot/internal/spam"
	"github.com/jusunglee/mostlybot/internal/telemetry"
)

type Config struct {
	// BotIDs maps a platform to the bot's own user id there. Messages from
	// these ids are ignored.
	BotIDs map[string]string
	// Verbose adds the author, message id and raw text to every notice.
	Verbose bool
}

// Dispatcher is not safe for concurrent use: Dispatch must be called from
// one goroutine at a time, which keeps the spam limits' check-and-update
// atomic without locks.
type Dispatcher struct {
	cfg      Config
	registry *command.Registry
	spam     *spam.Controller
	log      logger.Logger
	now      func() time.Time
}

func New(cfg Config, registry *command.Registry, sc *spam.Controller, log logger.Logger) *Dispatcher {
	if cfg.BotIDs == nil {
		cfg.BotIDs = make(map[string]string)
	}
	return &Dispatcher{
		cfg:      cfg,
		registry: registry,
		spam:     sc,
		log:      log,
		now:      time.Now,
	}
}

// SetBotID records the bot's own id on a platform. Transports that learn
// their identity on connect call this before messages flow.
func (d *Dispatcher) SetBotID(platform, id string) {
	d.cfg.BotIDs[platform] = id
}

func (d *Dispatcher) Dispatch(ctx context.Context, msg chat.Message, out chat.Sender) Result {
	ctx, span := telemetry.StartSpan(ctx, "dispatch.message",
		attribute.String("chat.platform", msg.Platform),
		attribute.String("chat.channel", msg.Channel),
		attribute.String("chat.message_id", msg.ID),
	)
	defer span.End()

	start := d.now()
	metrics.MessagesTotal.WithLabelValues(msg.Platform).Inc()

	res := d.dispatch(ctx, msg, out)
	res.Duration = d.now().Sub(start)

	span.SetAttributes(
		attribute.String("dispatch.outcome", res.Outcome.String()),
		attribute.String("dispatch.command", res.Command),
	)
	if res.Err != nil {
		telemetry.RecordError(span, res.Err)
	}
	metrics.DispatchOutcomes.WithLabelValues(res.Outcome.String(), res.Kind()).Inc()
	return res
}

func (d *Dispatcher) dispatch(ctx context.Context, msg chat.Message, out chat.Sender) Result {
	if id := d.cfg.BotIDs[msg.Platform]; id != "" && id == msg.Author.ID {
		return Result{Outcome: IgnoredSelf}
	}

	parsed := command.Parse(msg.Text)
	switch parsed.Kind {
	case command.NotACommand:
		return Result{Outcome: NotACommand}
	case command.InvalidSyntax:
		return d.notify(ctx, msg, out, &Error{Kind: InvalidCommand, Text: msg.Text})
	}

	if _, limited := d.spam.CheckUser(msg.AuthorKey()); limited {
		metrics.RateLimitHits.WithLabelValues("user").Inc()
		return d.notify(ctx, msg, out, &Error{Kind: SpamDetected, Text: msg.Text, Command: parsed.Name})
	}

	entry, ok := d.registry.Lookup(parsed.Name)
	if !ok {
		return d.notify(ctx, msg, out, &Error{Kind: CommandDoesNotExist, Text: msg.Text, Command: parsed.Name})
	}

	name := entry.Canonical()
	if remaining, limited := d.spam.CheckCommand(name, entry.RateLimit); limited {
		metrics.RateLimitHits.WithLabelValues("command").Inc()
		return d.notify(ctx, msg, out, &Error{Kind: CommandCooldown, Text: msg.Text, Command: name, Remaining: remaining})
	}

	inv := &command.Invocation{Message: msg, Name: parsed.Name, Args: parsed.Args, Out: out}
	if err := d.invoke(ctx, entry, inv); err != nil {
		return d.notify(ctx, msg, out, err)
	}
	return Result{Outcome: Handled, Command: name}
}

// invoke runs the handler behind a recover boundary so a broken command
// cannot stop the consumer loop.
func (d *Dispatcher) invoke(ctx context.Context, entry *command.Entry, inv *command.Invocation) (dErr *Error) {
	name := entry.Canonical()
	start := d.now()
	ctx, span := telemetry.StartSpan(ctx, "command."+name,
		attribute.String("command.alias", inv.Name),
		attribute.Int("command.args", len(inv.Args)),
	)

	defer func() {
		if r := recover(); r != nil {
			perr := &PanicError{Value: r, Stack: debug.Stack()}
			d.log.ErrorContext(ctx, "command handler panicked",
				"command", name,
				"panic", fmt.Sprint(r),
				"stack", string(perr.Stack),
			)
			dErr = &Error{Kind: HandlerPanic, Text: inv.Message.Text, Command: name, Err: perr}
		}

		result := "ok"
		if dErr != nil {
			result = dErr.Kind.String()
			telemetry.RecordError(span, dErr)
		}
		metrics.CommandInvocations.WithLabelValues(name, result).Inc()
		metrics.CommandDuration.WithLabelValues(name).Observe(d.now().Sub(start).Seconds())
		span.End()
	}()

	if err := entry.Handler.Handle(ctx, inv); err != nil {
		d.log.WarnContext(ctx, "command handler failed", "command", name, "error", err)
		return &Error{Kind: HandlerError, Text: inv.Message.Text, Command: name, Err: err}
	}
	return nil
}

func (d *Dispatcher) notify(ctx context.Context, msg chat.Message, out chat.Sender, dErr *Error) Result {
	res := Result{Command: dErr.Command, Err: dErr}

	if _, limited := d.spam.CheckFailedNotification(msg.AuthorKey()); limited {
		metrics.RateLimitHits.WithLabelValues("failed").Inc()
		res.Outcome = Suppressed
		return res
	}

	if _, err := out.Send(ctx, msg.Channel, d.render(msg, dErr), msg.ID); err != nil {
		metrics.SendFailures.WithLabelValues(msg.Platform).Inc()
		d.log.WarnContext(ctx, "failed to send notice",
			"platform", msg.Platform,
			"channel", msg.Channel,
			"kind", dErr.Kind.String(),
			"error", err,
		)
		res.Outcome = SendFailed
		return res
	}
	res.Outcome = Notified
	return res
}

func (d *Dispatcher) render(msg chat.Message, dErr *Error) string {
	if !d.cfg.Verbose {
		return dErr.Error()
	}
	return fmt.Sprintf("@%s, id: %s, msg: %s, raw: %q", msg.Author.Name, msg.ID, dErr.Error(), msg.Text)
}
