package commands

import (
	"context"
	"math"
	"strings"

	"github.com/jusunglee/mostlybot/internal/command"
)

type mark int8

const (
	noMark mark = iota
	markX
	markO
)

func (m mark) String() string {
	switch m {
	case markX:
		return "X"
	case markO:
		return "O"
	default:
		return "_"
	}
}

// score is +1 for O and -1 for X, so a win scores 1 for whoever made it when
// multiplied by the mover's score.
func (m mark) score() int {
	if m == markO {
		return 1
	}
	return -1
}

var winLines = [8][3]int{
	{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
	{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
	{0, 4, 8}, {2, 4, 6},
}

// board is a tic-tac-toe grid indexed 0-8, row by row. X always moves
// first.
type board [9]mark

func (b *board) winner() mark {
	for _, l := range winLines {
		if m := b[l[0]]; m != noMark && b[l[1]] == m && b[l[2]] == m {
			return m
		}
	}
	return noMark
}

func (b *board) filled() int {
	n := 0
	for _, m := range b {
		if m != noMark {
			n++
		}
	}
	return n
}

// turn returns the mark to move, or false once the game is won or tied.
func (b *board) turn() (mark, bool) {
	if b.winner() != noMark || b.filled() == len(b) {
		return noMark, false
	}
	if b.filled()%2 == 0 {
		return markX, true
	}
	return markO, true
}

func (b *board) place(i int) bool {
	m, ok := b.turn()
	if !ok || i < 0 || i >= len(b) || b[i] != noMark {
		return false
	}
	b[i] = m
	return true
}

// lines renders the status followed by one line per row, since chat
// messages cannot carry newlines.
func (b *board) lines() []string {
	var status string
	if w := b.winner(); w != noMark {
		status = w.String() + " Won!"
	} else if m, ok := b.turn(); ok {
		status = m.String() + "'s turn!"
	} else {
		status = "The game ended in a Tie!"
	}

	out := []string{status}
	for row := range 3 {
		cells := make([]string, 3)
		for col := range 3 {
			cells[col] = b[row*3+col].String()
		}
		out = append(out, strings.Join(cells, "|"))
	}
	return out
}

// minimax picks the best move for the side to move and its score from that
// side's point of view. Ties between equal moves go to the highest cell.
func minimax(b board) (int, int) {
	player, ok := b.turn()
	if !ok {
		return -1, 0
	}

	best, bestScore := -1, math.MinInt
	for i := range b {
		next := b
		if !next.place(i) {
			continue
		}
		score := 0
		if w := next.winner(); w != noMark {
			score = w.score() * player.score()
		} else if _, ok := next.turn(); ok {
			_, s := minimax(next)
			score = -s
		}
		if score >= bestScore {
			best, bestScore = i, score
		}
	}
	return best, bestScore
}

const tictactoeUsage = "usage: !tictactoe/!ttt (1-9/reset)"

// tictactoe plays one game per chatter against the bot, which answers every
// move with minimax. Finished games stay on the board until reset.
type tictactoe struct {
	games map[string]*board
}

func newTicTacToe() *tictactoe {
	return &tictactoe{games: make(map[string]*board)}
}

func (t *tictactoe) Names() []string { return []string{"tictactoe", "ttt"} }
func (t *tictactoe) Help() string    { return "!tictactoe <1-9 or reset>" }

func (t *tictactoe) Handle(ctx context.Context, inv *command.Invocation) error {
	if len(inv.Args) == 0 {
		return inv.Say(ctx, tictactoeUsage)
	}

	player := inv.Message.AuthorKey()
	arg := inv.Args[0]
	if arg == "reset" {
		delete(t.games, player)
		return inv.Reply(ctx, "board cleared, X to move")
	}
	if arg[0] < '1' || arg[0] > '9' {
		return inv.Say(ctx, tictactoeUsage)
	}

	b, ok := t.games[player]
	if !ok {
		b = new(board)
		t.games[player] = b
	}
	if !b.place(int(arg[0] - '1')) {
		return inv.Say(ctx, "Invalid move!")
	}
	if move, _ := minimax(*b); move >= 0 {
		b.place(move)
	}

	for _, line := range b.lines() {
		if err := inv.Say(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
