package youtube

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
)

func newTestClient(t *testing.T, playlistBody string) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/youtube/v3/channels", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "UCchan", r.URL.Query().Get("id"))
		assert.Equal(t, "key", r.URL.Query().Get("key"))
		io.WriteString(w, `{"items":[{"id":"UCchan","contentDetails":{"relatedPlaylists":{"uploads":"UUchan"}}}]}`)
	})
	mux.HandleFunc("/youtube/v3/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "UUchan", r.URL.Query().Get("playlistId"))
		io.WriteString(w, playlistBody)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "key", "UCchan",
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return c, &calls
}

func TestLatestUpload(t *testing.T) {
	c, calls := newTestClient(t, `{"items":[{"snippet":{"title":"building a chat bot","publishedAt":"2024-05-01T10:00:00Z","resourceId":{"kind":"youtube#video","videoId":"abc123"}}}]}`)
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	v, err := c.LatestUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", v.ID)
	assert.Equal(t, "building a chat bot", v.Title)
	assert.Equal(t, "https://youtu.be/abc123", v.URL())
	assert.Equal(t, int32(2), calls.Load())

	_, err = c.LatestUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load(), "served from cache")

	now = now.Add(11 * time.Minute)
	_, err = c.LatestUpload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "uploads playlist id stays cached")
}

func TestLatestUploadEmpty(t *testing.T) {
	c, _ := newTestClient(t, `{"items":[]}`)
	_, err := c.LatestUpload(context.Background())
	assert.ErrorIs(t, err, ErrNoUploads)
}
