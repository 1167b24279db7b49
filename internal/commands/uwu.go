package commands

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"

	"github.com/jusunglee/mostlybot/internal/chat"
	"github.com/jusunglee/mostlybot/internal/command"
)

var defaultKaomoji = []string{
	"UwU", "OwO", "0-0", "-_-", ":3",
	"(˶˃ ᵕ ˂˶) .ᐟ.ᐟ", "⸜(｡˃ ᵕ ˂ )⸝♡", "(^_^)", "(^>-<^)", "∩(·ω·)∩",
	"^ω^", "^_^", "=^_^=", "(＾ｖ＾)", "(*´▽｀*)", "(´･ω･`)", "(´；ω；`)",
	"(˶◜ᵕ◝˶)", "∘ ∘ ∘ ( °ヮ° ) ?", "( ˶°ㅁ°) !!", "(๑-﹏-๑)", "˶ᵔ ᵕ ᵔ˶",
}

const uwuDenied = "You can't do that. (•̀⤙•́ )"

// uwu replies with kaomoji. Moderators, VIPs and the broadcaster may add to
// the list, moderators and the broadcaster may remove from it. The list
// lives as long as the process.
type uwu struct {
	rand    *rand.Rand
	kaomoji []string
}

func newUwU(r *rand.Rand) *uwu {
	return &uwu{rand: r, kaomoji: slices.Clone(defaultKaomoji)}
}

func (u *uwu) Names() []string { return []string{"uwu", "UwU", "owo", "OwO", "kaomoji"} }

func (u *uwu) Help() string {
	return "!uwu [index] or !uwu <kaomoji> to add or !uwu remove [kaomoji or index]"
}

func (u *uwu) Handle(ctx context.Context, inv *command.Invocation) error {
	author := inv.Message.Author
	content := strings.Join(inv.Args, " ")

	switch {
	case content == "":
		return inv.Reply(ctx, u.random())

	case strings.EqualFold(inv.Args[0], "remove"):
		if !author.CanModerate() {
			return inv.Reply(ctx, uwuDenied)
		}
		return inv.Reply(ctx, u.remove(strings.Join(inv.Args[1:], " ")))
	}

	if i, err := strconv.Atoi(inv.Args[0]); err == nil {
		k, ok := u.at(i)
		if !ok {
			return inv.Reply(ctx, u.outOfBounds())
		}
		return inv.Reply(ctx, k)
	}

	if !author.CanModerate() && !author.Roles.Has(chat.RoleVIP) {
		return inv.Reply(ctx, uwuDenied)
	}
	if slices.Contains(u.kaomoji, content) {
		return inv.Reply(ctx, content+" Already exists (◔_◔)")
	}
	u.kaomoji = append(u.kaomoji, content)
	return inv.Reply(ctx, content+" was added ( ˶ˆᗜˆ˵ )")
}

func (u *uwu) random() string {
	if len(u.kaomoji) == 0 {
		return "UwU"
	}
	return u.kaomoji[u.rand.IntN(len(u.kaomoji))]
}

// index resolves i against the list, counting from the end when negative.
func (u *uwu) index(i int) (int, bool) {
	if i < 0 {
		i += len(u.kaomoji)
	}
	return i, i >= 0 && i < len(u.kaomoji)
}

func (u *uwu) at(i int) (string, bool) {
	i, ok := u.index(i)
	if !ok {
		return "", false
	}
	return u.kaomoji[i], true
}

func (u *uwu) remove(target string) string {
	if target == "" {
		if len(u.kaomoji) == 0 {
			return "There's no kaomoji, what did you do? (ó﹏ò｡)"
		}
		last := u.kaomoji[len(u.kaomoji)-1]
		u.kaomoji = u.kaomoji[:len(u.kaomoji)-1]
		return last + " was removed .‸."
	}

	if n, err := strconv.Atoi(target); err == nil {
		i, ok := u.index(n)
		if !ok {
			return u.outOfBounds()
		}
		removed := u.kaomoji[i]
		u.kaomoji = slices.Delete(u.kaomoji, i, i+1)
		return removed + " was removed (ㅠ﹏ㅠ)"
	}

	i := slices.Index(u.kaomoji, target)
	if i < 0 {
		return "Couldn't find kaomoji to remove (ㅠ‸ㅠ)"
	}
	u.kaomoji = slices.Delete(u.kaomoji, i, i+1)
	return target + " was removed ꃋᴖꃋ"
}

func (u *uwu) outOfBounds() string {
	return fmt.Sprintf("Index out of bounds (%d), oh no (╥﹏╥)", len(u.kaomoji))
}
