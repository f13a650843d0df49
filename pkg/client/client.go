// Package client talks to the save API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jwebster45206/desert-planet/pkg/state"
)

type Client struct {
	baseURL string
	http    *http.Client
}

type errorResponse struct {
	Error string `json:"error"`
}

// New returns a client for the API at baseURL (e.g. http://localhost:8080).
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// Health reports whether the API and its storage are healthy.
func (c *Client) Health(ctx context.Context) error {
	resp, body, err := c.do(ctx, http.MethodGet, "/health", nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API unhealthy: status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) ListSaves(ctx context.Context) ([]string, error) {
	resp, body, err := c.do(ctx, http.MethodGet, "/v1/saves", nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("list saves", resp.StatusCode, body)
	}

	var list struct {
		Saves []string `json:"saves"`
	}
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("failed to parse save list: %w", err)
	}
	return list.Saves, nil
}

// GetSave returns nil, nil if the save does not exist.
func (c *Client) GetSave(ctx context.Context, saveID string) (*state.GameState, error) {
	resp, body, err := c.do(ctx, http.MethodGet, savePath(saveID), nil)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, apiError("get save", resp.StatusCode, body)
	}
	return state.FromJSON(body)
}

// CreateSave posts a new save. An empty save_id is assigned by the server;
// the returned state carries it.
func (c *Client) CreateSave(ctx context.Context, gs *state.GameState) (*state.GameState, error) {
	return c.send(ctx, http.MethodPost, "/v1/saves", http.StatusCreated, gs)
}

// PutSave creates or replaces the save stored under saveID.
func (c *Client) PutSave(ctx context.Context, saveID string, gs *state.GameState) (*state.GameState, error) {
	return c.send(ctx, http.MethodPut, savePath(saveID), http.StatusOK, gs)
}

func (c *Client) DeleteSave(ctx context.Context, saveID string) error {
	resp, body, err := c.do(ctx, http.MethodDelete, savePath(saveID), nil)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusNoContent {
		return apiError("delete save", resp.StatusCode, body)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, want int, gs *state.GameState) (*state.GameState, error) {
	data, err := gs.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode game state: %w", err)
	}

	resp, body, err := c.do(ctx, method, path, data)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != want {
		return nil, apiError("save game state", resp.StatusCode, body)
	}
	return state.FromJSON(body)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte) (*http.Response, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close() // Ignore error in defer
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, body, nil
}

func savePath(saveID string) string {
	return "/v1/saves/" + url.PathEscape(saveID)
}

func apiError(op string, status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return fmt.Errorf("%s: API returned status %d: %s", op, status, string(body))
	}
	return fmt.Errorf("%s: %s (status %d)", op, errResp.Error, status)
}
