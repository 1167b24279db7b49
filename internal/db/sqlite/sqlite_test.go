package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/jusunglee/mostlybot/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func at(repo *Repository, ts time.Time) {
	repo.now = func() time.Time { return ts }
}

func params(user, command, outcome, kind string) db.CreateInvocationParams {
	return db.CreateInvocationParams{
		Platform:   "twitch",
		Channel:    "mostlymaxi",
		MessageID:  "m-" + user + "-" + command,
		UserID:     user,
		UserName:   "name-" + user,
		Command:    command,
		Outcome:    outcome,
		ErrorKind:  kind,
		DurationMs: 3,
	}
}

func TestInvocationCreateAndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	at(repo, base)

	inv, err := repo.CreateInvocation(ctx, params("u1", "ping", "handled", ""))
	require.NoError(t, err)
	assert.NotZero(t, inv.ID)
	assert.Equal(t, "ping", inv.Command)
	assert.Equal(t, "name-u1", inv.UserName)
	assert.Equal(t, int64(3), inv.DurationMs)
	assert.True(t, base.Equal(inv.CreatedAt))

	got, err := repo.GetInvocation(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv, got)

	_, err = repo.GetInvocation(ctx, inv.ID+100)
	assert.True(t, db.IsNoRows(err))
}

func TestListInvocations(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	for i, user := range []string{"u1", "u2", "u1"} {
		at(repo, base.Add(time.Duration(i)*time.Minute))
		_, err := repo.CreateInvocation(ctx, params(user, "ping", "handled", ""))
		require.NoError(t, err)
	}

	recent, err := repo.ListRecentInvocations(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "u1", recent[0].UserID, "newest first")
	assert.Equal(t, "u2", recent[1].UserID)

	byUser, err := repo.ListInvocationsByUser(ctx, "twitch", "u1", 10)
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	none, err := repo.ListInvocationsByUser(ctx, "discord", "u1", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestCountInvocationsByCommand(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	at(repo, base.Add(-2*time.Hour))
	_, err := repo.CreateInvocation(ctx, params("u1", "ping", "handled", ""))
	require.NoError(t, err)

	at(repo, base)
	for _, p := range []db.CreateInvocationParams{
		params("u1", "ping", "handled", ""),
		params("u2", "ping", "notified", "command_cooldown"),
		params("u3", "ping", "handled", ""),
		params("u4", "rewrite", "notified", "handler_error"),
		params("u5", "", "not_a_command", ""),
	} {
		_, err := repo.CreateInvocation(ctx, p)
		require.NoError(t, err)
	}

	usage, err := repo.CountInvocationsByCommand(ctx, base.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []db.CommandUsage{
		{Command: "ping", Total: 3, Failures: 1},
		{Command: "rewrite", Total: 1, Failures: 1},
	}, usage)
}

func TestDeleteInvocationsBefore(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	at(repo, base.Add(-48*time.Hour))
	_, err := repo.CreateInvocation(ctx, params("u1", "ping", "handled", ""))
	require.NoError(t, err)
	at(repo, base)
	_, err = repo.CreateInvocation(ctx, params("u2", "ping", "handled", ""))
	require.NoError(t, err)

	deleted, err := repo.DeleteInvocationsBefore(ctx, base.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	left, err := repo.ListRecentInvocations(ctx, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "u2", left[0].UserID)
}
