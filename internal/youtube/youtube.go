// Package youtube looks up a channel's newest upload with the YouTube Data
// API.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"
)

var ErrNoUploads = errors.New("channel has no uploads")

type Video struct {
	ID          string
	Title       string
	PublishedAt time.Time
}

func (v Video) URL() string {
	return "https://youtu.be/" + v.ID
}

// Client caches the last lookup for cacheTTL to stay well inside the API
// quota. It is used from the dispatch goroutine only and does no locking.
type Client struct {
	svc       *yt.Service
	channelID string
	cacheTTL  time.Duration
	now       func() time.Time

	uploadsPlaylist string
	cached          Video
	cachedAt        time.Time
}

func New(ctx context.Context, apiKey, channelID string, opts ...option.ClientOption) (*Client, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := yt.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating youtube service: %w", err)
	}
	return &Client{
		svc:       svc,
		channelID: channelID,
		cacheTTL:  10 * time.Minute,
		now:       time.Now,
	}, nil
}

// LatestUpload returns the newest public video of the channel. Uploads are
// read through the channel's uploads playlist, which costs far less quota
// than a search.
func (c *Client) LatestUpload(ctx context.Context) (Video, error) {
	if c.cached.ID != "" && c.now().Sub(c.cachedAt) < c.cacheTTL {
		return c.cached, nil
	}

	if c.uploadsPlaylist == "" {
		resp, err := c.svc.Channels.List([]string{"contentDetails"}).Id(c.channelID).Context(ctx).Do()
		if err != nil {
			return Video{}, fmt.Errorf("listing channel %s: %w", c.channelID, err)
		}
		if len(resp.Items) == 0 || resp.Items[0].ContentDetails == nil || resp.Items[0].ContentDetails.RelatedPlaylists == nil {
			return Video{}, fmt.Errorf("channel %s not found", c.channelID)
		}
		c.uploadsPlaylist = resp.Items[0].ContentDetails.RelatedPlaylists.Uploads
	}

	resp, err := c.svc.PlaylistItems.List([]string{"snippet"}).
		PlaylistId(c.uploadsPlaylist).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return Video{}, fmt.Errorf("listing uploads: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil || resp.Items[0].Snippet.ResourceId == nil {
		return Video{}, ErrNoUploads
	}

	snippet := resp.Items[0].Snippet
	v := Video{ID: snippet.ResourceId.VideoId, Title: snippet.Title}
	if ts, err := time.Parse(time.RFC3339, snippet.PublishedAt); err == nil {
		v.PublishedAt = ts
	}

	c.cached, c.cachedAt = v, c.now()
	return v, nil
}
