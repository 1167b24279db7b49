package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/jusunglee/mostlybot/internal/command"
	"github.com/jusunglee/mostlybot/internal/cooldown"
)

type status struct {
	broadcaster string
	streams     StreamLookup
	started     time.Time
	now         func() time.Time
}

func (s *status) Names() []string { return []string{"status", "mostlystatus"} }
func (s *status) Help() string    { return "!status" }

func (s *status) RateLimit() cooldown.Policy {
	return cooldown.NewPolicy(5, time.Second)
}

func (s *status) Handle(ctx context.Context, inv *command.Invocation) error {
	bot := "bot is online, up for " + uptime(s.now().Sub(s.started))
	if s.streams == nil || s.broadcaster == "" {
		return inv.Say(ctx, bot)
	}

	stream, live, err := s.streams.GetStream(ctx, s.broadcaster)
	if err != nil {
		return fmt.Errorf("looking up stream: %w", err)
	}
	if !live {
		return inv.Say(ctx, fmt.Sprintf("%s, %s is offline", bot, s.broadcaster))
	}
	return inv.Say(ctx, fmt.Sprintf("%s, %s is live for %s with %d viewers: %s",
		bot, s.broadcaster, uptime(s.now().Sub(stream.StartedAt)), stream.ViewerCount, stream.Title))
}

const youtubeLink = "check out maxi's youtube!: https://www.youtube.com/@mostlymaxi"

// youtubeCommand links the channel and, when the API is configured, the
// newest upload.
type youtubeCommand struct {
	videos VideoLookup
}

func (y *youtubeCommand) Names() []string { return []string{"youtube", "yt"} }
func (y *youtubeCommand) Help() string    { return "!youtube" }

func (y *youtubeCommand) Handle(ctx context.Context, inv *command.Invocation) error {
	if y.videos == nil {
		return inv.Reply(ctx, youtubeLink)
	}
	v, err := y.videos.LatestUpload(ctx)
	if err != nil {
		// the link alone is still a useful answer
		return inv.Reply(ctx, youtubeLink)
	}
	return inv.Reply(ctx, fmt.Sprintf("%s latest: %s %s", youtubeLink, v.Title, v.URL()))
}
