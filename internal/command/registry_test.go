package command

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mostlybot/internal/cooldown"
)

type stubHandler struct {
	names []string
	help  string
}

func (s *stubHandler) Names() []string                           { return s.names }
func (s *stubHandler) Help() string                              { return s.help }
func (s *stubHandler) Handle(context.Context, *Invocation) error { return nil }

type limitedHandler struct {
	stubHandler
	limit cooldown.Policy
}

func (l *limitedHandler) RateLimit() cooldown.Policy { return l.limit }

func TestRegistryLookupByAlias(t *testing.T) {
	reg := NewRegistry()
	h := &stubHandler{names: []string{"bottime", "bot_time", "bot-time"}}
	reg.Register(h)

	for _, name := range h.names {
		e, ok := reg.Lookup(name)
		require.True(t, ok, name)
		assert.Same(t, h, e.Handler)
		assert.Equal(t, "bottime", e.Canonical())
	}
	_, ok := reg.Lookup("BOTTIME")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestRegistryRateLimit(t *testing.T) {
	reg := NewRegistry()
	plain := reg.Register(&stubHandler{names: []string{"ping"}})
	assert.Nil(t, plain.RateLimit)

	limited := reg.Register(&limitedHandler{
		stubHandler: stubHandler{names: []string{"status"}},
		limit:       cooldown.NewPolicy(5, time.Second),
	})
	require.NotNil(t, limited.RateLimit)
	assert.Equal(t, cooldown.NewPolicy(5, time.Second), *limited.RateLimit)
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	reg := NewRegistry()
	a := &stubHandler{names: []string{"a", "shared"}}
	b := &stubHandler{names: []string{"b", "shared"}}
	reg.Register(a)
	reg.Register(b)

	e, ok := reg.Lookup("shared")
	require.True(t, ok)
	assert.Same(t, b, e.Handler)

	e, ok = reg.Lookup("a")
	require.True(t, ok)
	assert.Same(t, a, e.Handler, "replaced entry stays reachable by its other alias")

	assert.Len(t, reg.Entries(), 2)
}

func TestRegistryEntriesDropsUnreachable(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubHandler{names: []string{"x"}})
	second := reg.Register(&stubHandler{names: []string{"x"}})

	entries := reg.Entries()
	require.Len(t, entries, 1)
	assert.Same(t, second, entries[0])
}

func TestRegistrySnapshot(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubHandler{names: []string{"ping"}})
	snap := reg.Snapshot()
	reg.Register(&stubHandler{names: []string{"help"}})

	_, ok := snap.Lookup("ping")
	assert.True(t, ok)
	_, ok = snap.Lookup("help")
	assert.False(t, ok, "snapshot does not see later registrations")
	_, ok = reg.Lookup("help")
	assert.True(t, ok)
}

func TestRegistryNamesSorted(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&stubHandler{names: []string{"pong"}})
	reg.Register(&stubHandler{names: []string{"ping", "bot"}})
	assert.Equal(t, []string{"bot", "ping", "pong"}, reg.Names())
	assert.Equal(t, 3, reg.Len())
}
