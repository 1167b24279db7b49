package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jusunglee/mostlybot/internal/db"
)

//go:embed schema.sql
var schemaSQL string

// Repository implements db.Repository using PostgreSQL via pgx
type Repository struct {
	pool *pgxpool.Pool
}

// New connects to databaseURL and creates the journal table if missing.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// one journal insert per chat command, a handful of connections is plenty
	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 30 * time.Second
	config.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Repository{pool: pool}, nil
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// PoolStats exposes connection pool counters for the metrics exporter.
func (r *Repository) PoolStats() *pgxpool.Stat {
	return r.pool.Stat()
}

const invocationColumns = `id, platform, channel, message_id, user_id, user_name, command, outcome, error_kind, detail, duration_ms, created_at`

func (r *Repository) CreateInvocation(ctx context.Context, arg db.CreateInvocationParams) (db.Invocation, error) {
	rows, err := r.pool.Query(ctx, `
		INSERT INTO invocations (platform, channel, message_id, user_id, user_name, command, outcome, error_kind, detail, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+invocationColumns,
		arg.Platform, arg.Channel, arg.MessageID, arg.UserID, arg.UserName, arg.Command,
		arg.Outcome, arg.ErrorKind, arg.Detail, arg.DurationMs)
	if err != nil {
		return db.Invocation{}, err
	}
	return collectOne(rows)
}

func (r *Repository) GetInvocation(ctx context.Context, id int64) (db.Invocation, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id = $1`, id)
	if err != nil {
		return db.Invocation{}, err
	}
	return collectOne(rows)
}

func (r *Repository) ListRecentInvocations(ctx context.Context, limit int32) ([]db.Invocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[db.Invocation])
}

func (r *Repository) ListInvocationsByUser(ctx context.Context, platform, userID string, limit int32) ([]db.Invocation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		WHERE platform = $1 AND user_id = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, platform, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[db.Invocation])
}

func (r *Repository) CountInvocationsByCommand(ctx context.Context, since time.Time) ([]db.CommandUsage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT command,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE error_kind <> '')
		FROM invocations
		WHERE command <> '' AND created_at >= $1
		GROUP BY command
		ORDER BY COUNT(*) DESC, command
	`, since)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[db.CommandUsage])
}

func (r *Repository) DeleteInvocationsBefore(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM invocations WHERE created_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func collectOne(rows pgx.Rows) (db.Invocation, error) {
	inv, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[db.Invocation])
	if errors.Is(err, pgx.ErrNoRows) {
		return db.Invocation{}, db.ErrNoRows
	}
	return inv, err
}
