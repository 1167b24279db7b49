package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestPrettyHandlerKeepsWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Wrap(slog.New(NewPrettyHandler(&buf, slog.LevelInfo)))

	log.With("platform", "twitch").Info("dispatched", "command", "ping")

	out := buf.String()
	assert.Contains(t, out, "INF")
	assert.Contains(t, out, "dispatched")
	assert.Contains(t, out, "platform"+reset+"=twitch")
	assert.Contains(t, out, "command"+reset+"=ping")
}

func TestPrettyHandlerGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, slog.LevelInfo)).WithGroup("journal")
	log.Info("cleaned", "deleted", 3)
	assert.Contains(t, buf.String(), "journal.deleted"+reset+"=3")
}

func TestPrettyHandlerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(NewPrettyHandler(&buf, slog.LevelWarn))
	log.Info("quiet")
	log.Warn("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), "WRN")
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, "json", slog.LevelInfo)).Info("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)
	assert.Contains(t, buf.String(), `"k":"v"`)
}
