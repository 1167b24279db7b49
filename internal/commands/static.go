package commands

import (
	"context"

	"github.com/jusunglee/mostlybot/internal/command"
)

// staticReply answers with fixed text.
type staticReply struct {
	names []string
	usage string
	text  string
}

func reply(names []string, usage, text string) *staticReply {
	return &staticReply{names: names, usage: usage, text: text}
}

func (s *staticReply) Names() []string { return s.names }
func (s *staticReply) Help() string    { return s.usage }

func (s *staticReply) Handle(ctx context.Context, inv *command.Invocation) error {
	return inv.Reply(ctx, s.text)
}

var links = []*staticReply{
	reply([]string{"kofi"}, "!kofi", "buy maxi a coffee: https://ko-fi.com/mostlymaxi"),
	reply([]string{"discord", "disc"}, "!discord", "join the SPARCL discord: https://discord.gg/aMAAbZy4QD"),
	reply([]string{"git", "github"}, "!git", "check out maxi's git: https://github.com/mostlymaxi"),
	reply([]string{"vods", "vod"}, "!vods", "check out maxi's vods on youtube!: https://www.youtube.com/@mostlyvods"),
	reply([]string{"mostlybot", "bot"}, "!mostlybot", "contribute to the mostlybot here!: https://github.com/mostlymaxi/twitch-interactive-things/tree/main/twitch/bot"),
}
