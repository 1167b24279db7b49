package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jusunglee/mostlybot/internal/cooldown"
	"github.com/jusunglee/mostlybot/internal/db"
	"github.com/jusunglee/mostlybot/internal/db/sqlite"
	"github.com/jusunglee/mostlybot/internal/logger"
)

const testKey = "secret"

func newTestServer(t *testing.T) (*Server, *sqlite.Repository) {
	t.Helper()
	repo, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return New(0, logger.Discard(), repo, testKey), repo
}

func seed(t *testing.T, repo db.Repository, user, command, kind string) db.Invocation {
	t.Helper()
	inv, err := repo.CreateInvocation(context.Background(), db.CreateInvocationParams{
		Platform:  "twitch",
		Channel:   "mostlymaxi",
		MessageID: "m-" + user,
		UserID:    user,
		UserName:  user,
		Command:   command,
		Outcome:   "handled",
		ErrorKind: kind,
	})
	require.NoError(t, err)
	return inv
}

func get(t *testing.T, h http.Handler, path string, withKey bool) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if withKey {
		req.Header.Set("X-API-Key", testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := New(0, logger.Discard(), nil, "")
	rec := get(t, s.Handler(), "/health", false)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	// without a journal the other routes do not exist
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/stats", false).Code)
}

func TestStats(t *testing.T) {
	s, repo := newTestServer(t)
	seed(t, repo, "a", "ping", "")
	seed(t, repo, "b", "ping", "")
	seed(t, repo, "c", "rewrite", "command_error")

	rec := get(t, s.Handler(), "/stats", false)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []usageResponse{
		{Command: "ping", Total: 2, Failures: 0},
		{Command: "rewrite", Total: 1, Failures: 1},
	}, resp.Commands)
}

func TestInvocationEndpoint(t *testing.T) {
	s, repo := newTestServer(t)
	inv := seed(t, repo, "a", "ping", "")
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/invocations/1", false).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/invocations/abc", true).Code)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/invocations/999", true).Code)

	rec := get(t, h, "/invocations/"+strconv.FormatInt(inv.ID, 10), true)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp invocationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, inv.ID, resp.ID)
	assert.Equal(t, "ping", resp.Command)
	assert.Equal(t, "m-a", resp.MessageID)
}

func TestRecent(t *testing.T) {
	s, repo := newTestServer(t)
	for _, u := range []string{"a", "b", "a"} {
		seed(t, repo, u, "ping", "")
	}
	h := s.Handler()

	var resp struct {
		Data []invocationResponse `json:"data"`
	}
	rec := get(t, h, "/recent?limit=2", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)

	rec = get(t, h, "/recent?user=a&platform=twitch", true)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	for _, d := range resp.Data {
		assert.Equal(t, "a", d.UserID)
	}

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/recent?limit=0", true).Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/recent?user=a", true).Code)
}

func TestJournalEndpointsDisabledWithoutKey(t *testing.T) {
	repo, err := sqlite.New(context.Background(), ":memory:")
	require.NoError(t, err)
	defer repo.Close()

	s := New(0, logger.Discard(), repo, "")
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/recent", true).Code)
}

func TestRateLimit(t *testing.T) {
	clock := cooldown.NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	limiter := NewRateLimiter(cooldown.NewPolicy(2, time.Minute), cooldown.WithClock(clock))
	h := Chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), RateLimit(limiter))

	req := func(ip string) *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodGet, "/stats", nil)
		r.Header.Set("X-Real-IP", ip)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, req("1.1.1.1").Code)
	assert.Equal(t, http.StatusNoContent, req("1.1.1.1").Code)
	limited := req("1.1.1.1")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	assert.Equal(t, "61", limited.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusNoContent, req("2.2.2.2").Code)

	clock.Advance(time.Minute)
	assert.Equal(t, http.StatusNoContent, req("1.1.1.1").Code)
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Real-IP", " 203.0.113.9 ")
	assert.Equal(t, "203.0.113.9", ClientIP(r))
}
