// Package twitchapi is a small Helix client authenticated with an app
// access token. Chat itself goes over IRC; this is for lookups only.
package twitchapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	DefaultBaseURL  = "https://api.twitch.tv/helix"
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"
)

var ErrNotFound = errors.New("twitch user not found")

type Config struct {
	ClientID     string
	ClientSecret string
	BaseURL      string
	TokenURL     string
}

type Client struct {
	http     *http.Client
	clientID string
	baseURL  string
}

// New returns a client whose token is fetched lazily and refreshed on
// expiry. ctx bounds token requests for the life of the client.
func New(ctx context.Context, cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		// twitch wants the credentials in the form body
		AuthStyle: oauth2.AuthStyleInParams,
	}
	hc := cc.Client(ctx)
	hc.Timeout = 10 * time.Second
	return &Client{http: hc, clientID: cfg.ClientID, baseURL: cfg.BaseURL}
}

type Stream struct {
	UserID      string    `json:"user_id"`
	UserLogin   string    `json:"user_login"`
	GameName    string    `json:"game_name"`
	Title       string    `json:"title"`
	ViewerCount int       `json:"viewer_count"`
	StartedAt   time.Time `json:"started_at"`
}

// GetUserID resolves a login name to its user id.
func (c *Client) GetUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", errors.New("login empty")
	}
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := c.get(ctx, "/users", url.Values{"login": {login}}, &body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, login)
	}
	return body.Data[0].ID, nil
}

// GetStream reports the live stream for login. ok is false when the channel
// is offline.
func (c *Client) GetStream(ctx context.Context, login string) (stream Stream, ok bool, err error) {
	var body struct {
		Data []Stream `json:"data"`
	}
	if err := c.get(ctx, "/streams", url.Values{"user_login": {login}}, &body); err != nil {
		return Stream{}, false, err
	}
	if len(body.Data) == 0 {
		return Stream{}, false, nil
	}
	return body.Data[0], true, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Client-Id", c.clientID)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("helix %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("helix %s: status %d: %s", path, resp.StatusCode, msg)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding helix %s: %w", path, err)
	}
	return nil
}
