package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/cooldown"
	"github.com/jusunglee/mostlybot/internal/llm"
)

const askSystemPrompt = `You are mostlybot, the chat bot of a programming livestream.
Answer the viewer's question in one or two short sentences of plain text.
No markdown, no lists, no links unless asked. Stay friendly and on topic.`

type ask struct {
	llm llm.Client
}

func (a *ask) Names() []string { return []string{"ask"} }
func (a *ask) Help() string    { return "!ask <question>" }

func (a *ask) RateLimit() cooldown.Policy {
	return cooldown.NewPolicy(1, 30*time.Second)
}

func (a *ask) Handle(ctx context.Context, inv *command.Invocation) error {
	if len(inv.Args) == 0 {
		return errNoArgument
	}

	question := strings.Join(inv.Args, " ")
	prompt := fmt.Sprintf("%s asks: %s", inv.Message.Author.Name, question)
	answer, err := a.llm.Complete(ctx, askSystemPrompt, prompt)
	if err != nil {
		return fmt.Errorf("asking llm: %w", err)
	}

	answer = llm.ChatLine(answer, maxReplyRunes)
	if answer == "" {
		return fmt.Errorf("empty answer")
	}
	return inv.Reply(ctx, answer)
}
