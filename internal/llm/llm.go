// Package llm holds the provider-neutral completion interface used by the
// !ask command.
package llm

import (
	"context"
	"strings"
	"time"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/metrics"
)

type Client interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// StripMarkdownCodeBlocks removes ```...``` wrappers from LLM responses
func StripMarkdownCodeBlocks(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if idx := strings.Index(text, "\n"); idx != -1 {
			text = text[idx+1:]
		}
		if idx := strings.LastIndex(text, "```"); idx != -1 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}

// ChatLine flattens a completion into a single chat message of at most
// maxRunes runes. Chat platforms collapse newlines, and markdown emphasis
// renders literally, so both are removed.
func ChatLine(text string, maxRunes int) string {
	text = StripMarkdownCodeBlocks(text)
	text = strings.NewReplacer("**", "", "__", "", "`", "").Replace(text)
	text = strings.Join(strings.Fields(text), " ")
	return chat.Truncate(text, maxRunes)
}

type timed struct {
	Client
}

// Timed records the duration of every completion in the LLM histogram.
func Timed(c Client) Client {
	return timed{Client: c}
}

func (t timed) Complete(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	defer func() { metrics.LLMDuration.Observe(time.Since(start).Seconds()) }()
	return t.Client.Complete(ctx, system, prompt)
}
