// Package sococli talks to the soco-cli HTTP API server.
package sococli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pandeptwidyaop/sndctl/internal/models"
)

var (
	ErrEmptyDevice = errors.New("device name is required")
	ErrEmptyAction = errors.New("action is required")
)

// maxResponseSize bounds how much of a reply is read; queue listings of
// large libraries stay well below this.
const maxResponseSize = 8 << 20

// Client dispatches commands to a soco-cli HTTP API server.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
}

// New creates a client for baseURL. Each request is bounded by timeout.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

// BaseURL returns the server address without a trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Dispatch sends one primitive command and returns the server's reply.
// A non-zero exit code is not an error; only transport and decode failures are.
func (c *Client) Dispatch(ctx context.Context, cmd models.PrimitiveCommand) (*models.CommandResponse, error) {
	if strings.TrimSpace(cmd.Device) == "" {
		return nil, ErrEmptyDevice
	}
	if strings.TrimSpace(cmd.Action) == "" {
		return nil, ErrEmptyAction
	}

	var resp models.CommandResponse
	if err := c.getJSON(ctx, CommandPath(cmd), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Speakers returns the speaker names known to the server.
func (c *Client) Speakers(ctx context.Context) ([]string, error) {
	return c.speakerList(ctx, "/speakers")
}

// Rediscover asks the server to rediscover speakers and returns the result.
func (c *Client) Rediscover(ctx context.Context) ([]string, error) {
	return c.speakerList(ctx, "/rediscover")
}

func (c *Client) speakerList(ctx context.Context, path string) ([]string, error) {
	var raw json.RawMessage
	if err := c.getJSON(ctx, path, &raw); err != nil {
		return nil, err
	}
	return decodeSpeakers(raw)
}

// decodeSpeakers accepts either a bare list of names or an object carrying
// the list under "speakers" or "speakers_discovered".
func decodeSpeakers(raw json.RawMessage) ([]string, error) {
	var names []string
	if err := json.Unmarshal(raw, &names); err == nil {
		if names == nil {
			names = []string{}
		}
		return names, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("failed to parse speaker list: %w", err)
	}
	for _, key := range []string{"speakers", "speakers_discovered"} {
		if v, ok := obj[key]; ok {
			if err := json.Unmarshal(v, &names); err != nil {
				return nil, fmt.Errorf("failed to parse speaker list: %w", err)
			}
			if names == nil {
				names = []string{}
			}
			return names, nil
		}
	}
	return []string{}, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("soco-cli request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("failed to read soco-cli response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("soco-cli returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse soco-cli response: %w", err)
	}
	return nil
}

// CommandPath builds the request path for cmd with every segment escaped.
func CommandPath(cmd models.PrimitiveCommand) string {
	var b strings.Builder
	b.WriteByte('/')
	b.WriteString(url.PathEscape(cmd.Device))
	b.WriteByte('/')
	b.WriteString(url.PathEscape(cmd.Action))
	for _, arg := range cmd.Args {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(arg))
	}
	return b.String()
}
