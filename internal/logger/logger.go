package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	once sync.Once
	base *slog.Logger
)

// Logger is the logging surface handed to packages. It is satisfied by a
// wrapped *slog.Logger and by testify mocks.
type Logger interface {
	DebugContext(ctx context.Context, msg string, args ...any)
	InfoContext(ctx context.Context, msg string, args ...any)
	Info(msg string, args ...any)
	WarnContext(ctx context.Context, msg string, args ...any)
	Warn(msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type slogAdapter struct {
	*slog.Logger
}

func (l *slogAdapter) With(args ...any) Logger {
	return &slogAdapter{Logger: l.Logger.With(args...)}
}

// Wrap adapts a *slog.Logger to Logger.
func Wrap(log *slog.Logger) Logger {
	return &slogAdapter{Logger: log}
}

// Discard returns a Logger that drops everything.
func Discard() Logger {
	return Wrap(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewHandler picks the JSON handler for format "json" and the colored
// terminal handler otherwise.
func NewHandler(w io.Writer, format string, level slog.Level) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	return NewPrettyHandler(w, level)
}

// Init configures the process logger from LOG_FORMAT and LOG_LEVEL and
// installs it as the slog default. Later calls return the same logger.
func Init() *slog.Logger {
	once.Do(func() {
		h := NewHandler(os.Stdout, os.Getenv("LOG_FORMAT"), ParseLevel(os.Getenv("LOG_LEVEL")))
		base = slog.New(h)
		slog.SetDefault(base)
	})
	return base
}

func Get() *slog.Logger {
	return Init()
}

// New returns the process logger wrapped as a Logger.
func New() Logger {
	return Wrap(Init())
}
