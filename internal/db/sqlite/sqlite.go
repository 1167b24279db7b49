package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jusunglee/mostlybot/internal/db"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Repository implements db.Repository using SQLite
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// New opens (creating if needed) the journal at dbPath. ":memory:" gives a
// private in-memory database.
func New(ctx context.Context, dbPath string) (*Repository, error) {
	dbPath = strings.TrimPrefix(dbPath, "sqlite://")

	sqliteDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening SQLite database: %w", err)
	}
	// every pooled connection to :memory: would be its own database
	if dbPath == ":memory:" {
		sqliteDB.SetMaxOpenConns(1)
	}

	if _, err := sqliteDB.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := sqliteDB.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}
	if _, err := sqliteDB.ExecContext(ctx, schemaSQL); err != nil {
		sqliteDB.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Repository{db: sqliteDB, now: time.Now}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

const invocationColumns = `id, platform, channel, message_id, user_id, user_name, command, outcome, error_kind, detail, duration_ms, created_at`

func (r *Repository) CreateInvocation(ctx context.Context, arg db.CreateInvocationParams) (db.Invocation, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT INTO invocations (platform, channel, message_id, user_id, user_name, command, outcome, error_kind, detail, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, arg.Platform, arg.Channel, arg.MessageID, arg.UserID, arg.UserName, arg.Command,
		arg.Outcome, arg.ErrorKind, arg.Detail, arg.DurationMs, r.now().UnixMilli())
	if err != nil {
		return db.Invocation{}, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return db.Invocation{}, err
	}
	return r.GetInvocation(ctx, id)
}

func (r *Repository) GetInvocation(ctx context.Context, id int64) (db.Invocation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE id = ?`, id)
	inv, err := scanInvocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Invocation{}, db.ErrNoRows
	}
	return inv, err
}

func (r *Repository) ListRecentInvocations(ctx context.Context, limit int32) ([]db.Invocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInvocations(rows)
}

func (r *Repository) ListInvocationsByUser(ctx context.Context, platform, userID string, limit int32) ([]db.Invocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+invocationColumns+`
		FROM invocations
		WHERE platform = ? AND user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, platform, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanInvocations(rows)
}

func (r *Repository) CountInvocationsByCommand(ctx context.Context, since time.Time) ([]db.CommandUsage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT command,
		       COUNT(*),
		       SUM(CASE WHEN error_kind != '' THEN 1 ELSE 0 END)
		FROM invocations
		WHERE command != '' AND created_at >= ?
		GROUP BY command
		ORDER BY COUNT(*) DESC, command
	`, since.UnixMilli())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usage []db.CommandUsage
	for rows.Next() {
		var u db.CommandUsage
		if err := rows.Scan(&u.Command, &u.Total, &u.Failures); err != nil {
			return nil, err
		}
		usage = append(usage, u)
	}
	return usage, rows.Err()
}

func (r *Repository) DeleteInvocationsBefore(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM invocations WHERE created_at < ?`, before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvocation(s scanner) (db.Invocation, error) {
	var inv db.Invocation
	var createdMs int64
	err := s.Scan(&inv.ID, &inv.Platform, &inv.Channel, &inv.MessageID, &inv.UserID, &inv.UserName,
		&inv.Command, &inv.Outcome, &inv.ErrorKind, &inv.Detail, &inv.DurationMs, &createdMs)
	if err != nil {
		return db.Invocation{}, err
	}
	inv.CreatedAt = time.UnixMilli(createdMs).UTC()
	return inv, nil
}

func scanInvocations(rows *sql.Rows) ([]db.Invocation, error) {
	var invocations []db.Invocation
	for rows.Next() {
		inv, err := scanInvocation(rows)
		if err != nil {
			return nil, err
		}
		invocations = append(invocations, inv)
	}
	return invocations, rows.Err()
}
