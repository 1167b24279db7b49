// Package commands holds the bot's built-in chat commands.
package commands

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/llm"
	"github.com/jusunglee/mostlybot/internal/twitchapi"
	"github.com/jusunglee/mostlybot/internal/youtube"
)

// maxReplyRunes keeps replies under every platform's message limit.
const maxReplyRunes = 450

type StreamLookup interface {
	GetStream(ctx context.Context, login string) (twitchapi.Stream, bool, error)
}

type VideoLookup interface {
	LatestUpload(ctx context.Context) (youtube.Video, error)
}

// Deps are the collaborators the built-ins may use. Nil lookups degrade the
// commands that use them to static replies; a nil LLM leaves !ask out.
type Deps struct {
	Started time.Time
	// Broadcaster is the Twitch login reported on by !status.
	Broadcaster string
	Streams     StreamLookup
	Videos      VideoLookup
	LLM         llm.Client
	Now         func() time.Time
	Rand        *rand.Rand
}

func (d *Deps) defaults() {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Started.IsZero() {
		d.Started = d.Now()
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
}

// Register adds every built-in to reg. help goes last and sees a snapshot
// of everything registered before it.
func Register(reg *command.Registry, deps Deps) {
	deps.defaults()

	reg.Register(reply([]string{"ping"}, "!ping", "pong"))
	reg.Register(reply([]string{"pong"}, "!pong", "FeelsWeirdMan"))
	for _, l := range links {
		reg.Register(l)
	}
	reg.Register(&youtubeCommand{videos: deps.Videos})

	reg.Register(&count{})
	reg.Register(&botTime{started: deps.Started, now: deps.Now})
	reg.Register(newLurk())
	reg.Register(&rewrite{})
	reg.Register(&ban{})
	reg.Register(&pasta{})
	reg.Register(&progress{rand: deps.Rand})
	reg.Register(&js{rand: deps.Rand})
	reg.Register(newUwU(deps.Rand))
	reg.Register(newTicTacToe())
	reg.Register(&status{
		broadcaster: deps.Broadcaster,
		streams:     deps.Streams,
		started:     deps.Started,
		now:         deps.Now,
	})
	if deps.LLM != nil {
		reg.Register(&ask{llm: deps.LLM})
	}
	reg.Register(&commandList{registry: reg})

	reg.Register(&help{registry: reg.Snapshot()})
}
