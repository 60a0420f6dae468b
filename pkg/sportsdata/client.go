package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pkg/errors"
	zlog "github.com/rs/zerolog/log"
	"go.uber.org/ratelimit"
)

const PlayersURL = "https://api.sportsdata.io/v3/nba/scores/json/Players"
const DefaultMaxRPS = 5

// SubscriptionKeyHeader carries the API key of a SportsData.io subscription.
const SubscriptionKeyHeader = "Ocp-Apim-Subscription-Key"

// StatusError is returned when the API responds with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.Body)
}

type Client struct {
	playersURL string
	apiKey     string
	rl         ratelimit.Limiter

	cli *http.Client
}

func NewClient(playersURL string, apiKey string, maxRPS int, httpCli ...*http.Client) *Client {
	c := &Client{
		playersURL: playersURL,
		apiKey:     apiKey,
		rl:         ratelimit.New(maxRPS),
		cli:        http.DefaultClient,
	}
	if len(httpCli) == 1 {
		c.cli = httpCli[0]
	}

	return c
}

// GetPlayers fetches the list of players.
// Records are returned untouched, one raw JSON value per player.
func (c *Client) GetPlayers(ctx context.Context) ([]json.RawMessage, error) {
	c.rl.Take()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.playersURL, nil)
	if err != nil {
		return nil, errors.Wrap(err, "invalid request")
	}
	req.Header.Set(SubscriptionKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "body read failed")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(body), 512)}
	}

	var players []json.RawMessage
	err = json.Unmarshal(body, &players)
	if err != nil {
		zlog.Error().Err(err).Str("url", c.playersURL).Str("body", truncate(string(body), 512)).Msg("failed to decode players")

		return nil, errors.Wrap(err, "unmarshal failed")
	}

	return players, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}

	return s[:n] + "..."
}
