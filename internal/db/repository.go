package db

import (
	"context"
	"time"
)

// Invocation is one journaled dispatch result.
type Invocation struct {
	ID         int64
	Platform   string
	Channel    string
	MessageID  string
	UserID     string
	UserName   string
	Command    string
	Outcome    string
	ErrorKind  string
	Detail     string
	DurationMs int64
	CreatedAt  time.Time
}

type CreateInvocationParams struct {
	Platform   string
	Channel    string
	MessageID  string
	UserID     string
	UserName   string
	Command    string
	Outcome    string
	ErrorKind  string
	Detail     string
	DurationMs int64
}

// CommandUsage aggregates journal rows for one command.
type CommandUsage struct {
	Command  string
	Total    int64
	Failures int64
}

// Repository defines the interface for the dispatch journal
type Repository interface {
	CreateInvocation(ctx context.Context, arg CreateInvocationParams) (Invocation, error)
	GetInvocation(ctx context.Context, id int64) (Invocation, error)
	ListRecentInvocations(ctx context.Context, limit int32) ([]Invocation, error)
	ListInvocationsByUser(ctx context.Context, platform, userID string, limit int32) ([]Invocation, error)
	CountInvocationsByCommand(ctx context.Context, since time.Time) ([]CommandUsage, error)
	DeleteInvocationsBefore(ctx context.Context, before time.Time) (int64, error)

	Close() error
}
