// Package identity talks to the external game API used to verify that
// a registering user actually owns the in-game name they claim.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Player is the subset of the game API's player document the bot needs.
type Player struct {
	ID        string `json:"Id"`
	Name      string `json:"Name"`
	GuildName string `json:"GuildName"`
}

// Client is a thin read-only client for the game API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SearchExact looks a name up and returns only the players whose name
// matches exactly, ignoring case. The API's search is fuzzy; callers
// care about ownership of one specific name.
func (c *Client) SearchExact(ctx context.Context, name string) ([]Player, error) {
	var body struct {
		Players []Player `json:"players"`
	}
	if err := c.get(ctx, "/search?q="+url.QueryEscape(name), &body); err != nil {
		return nil, err
	}

	var exact []Player
	for _, p := range body.Players {
		if strings.EqualFold(p.Name, name) {
			exact = append(exact, p)
		}
	}
	return exact, nil
}

// PlayerDetails fetches the full player document, including the guild
// the player currently belongs to.
func (c *Client) PlayerDetails(ctx context.Context, id string) (*Player, error) {
	var p Player
	if err := c.get(ctx, "/players/"+url.PathEscape(id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling game api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("game api returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding game api response: %w", err)
	}
	return nil
}
