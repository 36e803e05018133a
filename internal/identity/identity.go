// Package identity fetches the random display identities comments are
// attributed to.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/alphabot-ai/commentwall/internal/metrics"
)

const DefaultURL = "https://randomuser.me/api/"

var ErrNoResults = errors.New("identity service returned no results")

// Identity is the avatar and display name a comment is posted under.
type Identity struct {
	AvatarURL string `json:"avatarUrl"`
	Name      string `json:"name"`
}

// Fetcher is anything that can produce one random identity.
type Fetcher interface {
	Fetch(ctx context.Context) (*Identity, error)
}

type Client struct {
	url string
	hc  *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	if url == "" {
		url = DefaultURL
	}
	return &Client{
		url: url,
		hc: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type randomUserResponse struct {
	Results []struct {
		Name struct {
			First string `json:"first"`
			Last  string `json:"last"`
		} `json:"name"`
		Picture struct {
			Thumbnail string `json:"thumbnail"`
		} `json:"picture"`
	} `json:"results"`
}

// Fetch performs a single GET against the identity service. There is no retry.
func (c *Client) Fetch(ctx context.Context) (id *Identity, err error) {
	defer func() {
		metrics.IdentityFetches.WithLabelValues(metrics.Result(err)).Inc()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("identity service status %d", resp.StatusCode)
	}

	var out randomUserResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode identity: %w", err)
	}
	if len(out.Results) == 0 {
		return nil, ErrNoResults
	}

	r := out.Results[0]
	return &Identity{
		AvatarURL: r.Picture.Thumbnail,
		Name:      strings.TrimSpace(r.Name.First + " " + r.Name.Last),
	}, nil
}

var _ Fetcher = (*Client)(nil)
