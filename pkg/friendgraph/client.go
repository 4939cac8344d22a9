// Package friendgraph fetches a user's closest connections from the
// social graph service. The friend pool seeds friend-win card rows.
package friendgraph

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/LilFatFrank/scratch-off/pkg/card"
	"github.com/LilFatFrank/scratch-off/pkg/config"
)

// Source provides the candidate friend pool for a user.
type Source interface {
	BestFriends(ctx context.Context, fid int64, limit int) ([]card.Friend, error)
}

// Client talks to the social graph HTTP API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient builds a Client from config. The API key is read from the
// configured env var.
func NewClient(cfg *config.FriendGraphConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  os.Getenv(cfg.APIKeyEnv),
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		logger:  logger,
	}
}

type bestFriendsResponse struct {
	Users []struct {
		FID      int64  `json:"fid"`
		Username string `json:"username"`
		PFP      string `json:"pfp_url"`
		Wallet   string `json:"wallet"`
	} `json:"users"`
}

// BestFriends returns up to limit of the user's closest connections.
func (c *Client) BestFriends(ctx context.Context, fid int64, limit int) ([]card.Friend, error) {
	if c.baseURL == "" {
		return nil, nil
	}

	endpoint, err := url.JoinPath(c.baseURL, "best-friends")
	if err != nil {
		return nil, fmt.Errorf("invalid friend graph base url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("fid", strconv.FormatInt(fid, 10))
	q.Set("limit", strconv.Itoa(limit))
	req.URL.RawQuery = q.Encode()
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("friend graph request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("friend graph returned status %d", resp.StatusCode)
	}

	var body bestFriendsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode friend graph response: %w", err)
	}

	friends := make([]card.Friend, 0, len(body.Users))
	for _, u := range body.Users {
		if u.Wallet == "" {
			continue
		}
		friends = append(friends, card.Friend{
			FID:    u.FID,
			Name:   u.Username,
			PFP:    u.PFP,
			Wallet: u.Wallet,
		})
	}
	return friends, nil
}
