package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dennisdiepolder/teamops/internal/types"
)

// Client talks to the public team-ops API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL (e.g.
// "http://localhost:8080")
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// RemoteConfig is the subset of GET /api/config the simulator needs
type RemoteConfig struct {
	Agents        []string          `json:"agents"`
	Outcomes      []types.Outcome   `json:"outcomes"`
	ClockInMirror map[string]string `json:"clockInMirror"`
}

// Health checks if the server is up
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// Config fetches the roster and outcome list
func (c *Client) Config(ctx context.Context) (*RemoteConfig, error) {
	var cfg RemoteConfig
	if err := c.do(ctx, http.MethodGet, "/api/config", nil, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LogCall records one call
func (c *Client) LogCall(ctx context.Context, agent string, outcome types.Outcome) (*types.CallEvent, error) {
	var ev types.CallEvent
	body := map[string]string{"agent": agent, "outcome": string(outcome)}
	if err := c.do(ctx, http.MethodPost, "/api/calls", body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// ClockIn clocks agent in without mirroring
func (c *Client) ClockIn(ctx context.Context, agent string) error {
	body := map[string]any{"agent": agent, "mirror": false}
	return c.do(ctx, http.MethodPost, "/api/attendance/in", body, nil)
}

// ClockOut clocks agent out
func (c *Client) ClockOut(ctx context.Context, agent string) error {
	return c.do(ctx, http.MethodPost, "/api/attendance/out", map[string]string{"agent": agent}, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s request: %w", path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return nil
}
