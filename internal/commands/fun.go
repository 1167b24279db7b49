package commands

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/cooldown"
)

var (
	errNoArgument    = errors.New("no argument provided")
	errNotEnoughArgs = errors.New("not enough arguments")
	errTooManyArgs   = errors.New("too many arguments")
	errModeratorOnly = errors.New("only moderators can ban people")
)

type rewrite struct{}

func (rewrite) Names() []string { return []string{"rewrite"} }
func (rewrite) Help() string    { return "!rewrite <arguments>" }

func (rewrite) Handle(ctx context.Context, inv *command.Invocation) error {
	if len(inv.Args) == 0 {
		return errNoArgument
	}
	return inv.Reply(ctx, strings.Join(inv.Args, " ")+" has been rewritten in rust")
}

// ban is a joke: nobody is actually banned, but only moderators may say so.
type ban struct{}

func (ban) Names() []string { return []string{"ban"} }
func (ban) Help() string    { return "!ban <user>" }

func (ban) Handle(ctx context.Context, inv *command.Invocation) error {
	if !inv.Message.Author.CanModerate() {
		return errModeratorOnly
	}
	if len(inv.Args) == 0 {
		return errNoArgument
	}
	return inv.Reply(ctx, strings.ReplaceAll(inv.Args[0], "@", "")+" has been banned")
}

type pasta struct{}

func (pasta) Names() []string { return []string{"mostlypasta"} }
func (pasta) Help() string    { return "!mostlypasta <gnu> <linux>" }

func (pasta) RateLimit() cooldown.Policy {
	return cooldown.NewPolicy(1, 30*time.Second)
}

func (pasta) Handle(ctx context.Context, inv *command.Invocation) error {
	switch {
	case len(inv.Args) < 2:
		return errNotEnoughArgs
	case len(inv.Args) > 2:
		return errTooManyArgs
	}
	gnu, linux := inv.Args[0], inv.Args[1]
	r := strings.NewReplacer("{gnu}", gnu, "{linux}", linux)
	return inv.Say(ctx, r.Replace(interjection))
}

const interjection = "I'd just like to interject for a moment. What you're refering to as {linux}, is in fact, {gnu}/{linux}, " +
	"or as I've recently taken to calling it, {gnu} plus {linux}. {linux} is not an operating system unto itself, " +
	"but rather another free component of a fully functioning {gnu} system made useful by the {gnu} corelibs, " +
	"shell utilities and vital system components comprising a full OS as defined by POSIX."

type progress struct {
	rand *rand.Rand
}

func (p *progress) Names() []string { return []string{"progress"} }
func (p *progress) Help() string    { return "!progress" }

func (p *progress) Handle(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, fmt.Sprintf("Progress: %.6f%% done!", p.rand.Float64()*100))
}

var jsFacts = []string{"Undefined", "[object Object]", "x === y"}

type js struct {
	rand *rand.Rand
}

func (j *js) Names() []string { return []string{"js"} }
func (j *js) Help() string    { return "!js" }

func (j *js) Handle(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, fmt.Sprintf("%q does not exist", jsFacts[j.rand.IntN(len(jsFacts))]))
}
