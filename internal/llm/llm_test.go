package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripMarkdownCodeBlocks(t *testing.T) {
	assert.Equal(t, "hello", StripMarkdownCodeBlocks("```\nhello\n```"))
	assert.Equal(t, `{"a":1}`, StripMarkdownCodeBlocks("```json\n{\"a\":1}\n```"))
	assert.Equal(t, "plain", StripMarkdownCodeBlocks("  plain  "))
}

func TestChatLine(t *testing.T) {
	in := "**Rust** is a systems language.\n\nIt has `cargo`   and\tborrowck."
	assert.Equal(t, "Rust is a systems language. It has cargo and borrowck.", ChatLine(in, 100))
	assert.Equal(t, "Rust is...", ChatLine(in, 10))
}

type stubClient struct{ reply string }

func (s stubClient) Complete(context.Context, string, string) (string, error) {
	return s.reply, nil
}

func TestTimedPassesThrough(t *testing.T) {
	out, err := Timed(stubClient{reply: "ok"}).Complete(context.Background(), "sys", "q")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
